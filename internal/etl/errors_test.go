package etl

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStructuralError_ListsAllColumns(t *testing.T) {
	err := &StructuralError{Missing: []string{"STATE", "FSBEN"}}
	msg := err.Error()
	if !strings.Contains(msg, "STATE") || !strings.Contains(msg, "FSBEN") {
		t.Errorf("Error() = %q, should name every missing column", msg)
	}
}

func TestConstraintKindString(t *testing.T) {
	tests := []struct {
		kind ConstraintKind
		want string
	}{
		{ConstraintForeignKey, "foreign key"},
		{ConstraintUnique, "unique"},
		{ConstraintCheck, "check"},
		{ConstraintOther, "constraint"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestConstraintViolation_Unwrap(t *testing.T) {
	cause := errors.New("driver error")
	var err error = &ConstraintViolation{
		Kind:       ConstraintForeignKey,
		Table:      "households",
		Constraint: "households_state_code_fkey",
		Err:        cause,
	}

	if !errors.Is(err, cause) {
		t.Error("ConstraintViolation should unwrap to its cause")
	}

	var cv *ConstraintViolation
	if !errors.As(err, &cv) {
		t.Fatal("errors.As should match *ConstraintViolation")
	}
	if cv.Kind != ConstraintForeignKey {
		t.Errorf("Kind = %v, want foreign key", cv.Kind)
	}
}

func TestConstraintViolation_SurvivesWrapping(t *testing.T) {
	// Violations classified by the writer travel through fmt wrapping and
	// still match by type, which is what the loader's stop decision uses.
	inner := &ConstraintViolation{Kind: ConstraintForeignKey, Table: "qc_errors"}
	wrapped := fmt.Errorf("write batch 3: %w", inner)

	var cv *ConstraintViolation
	if !errors.As(wrapped, &cv) || cv.Table != "qc_errors" {
		t.Error("wrapped violation should still match by type")
	}
}

func TestParseError_Unwrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := &ParseError{Op: "read header", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("ParseError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "read header") {
		t.Errorf("Error() = %q, should carry the operation", err.Error())
	}
}
