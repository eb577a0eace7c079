package mapping

import "testing"

func TestPersonColumn(t *testing.T) {
	tests := []struct {
		base   string
		member int
		want   string
	}{
		{"FSAFIL", 1, "FSAFIL1"},
		{"FSAFIL", 17, "FSAFIL17"},
		{"AGE", 3, "AGE3"},
		{"WAGES", 10, "WAGES10"},
	}

	for _, tt := range tests {
		if got := PersonColumn(tt.base, tt.member); got != tt.want {
			t.Errorf("PersonColumn(%q, %d) = %q, want %q", tt.base, tt.member, got, tt.want)
		}
	}
}

func TestErrorColumn(t *testing.T) {
	tests := []struct {
		base   string
		errNum int
		want   string
	}{
		{"ELEMENT", 1, "ELEMENT1"},
		{"ELEMENT", 9, "ELEMENT9"},
		{"AMOUNT", 5, "AMOUNT5"},
	}

	for _, tt := range tests {
		if got := ErrorColumn(tt.base, tt.errNum); got != tt.want {
			t.Errorf("ErrorColumn(%q, %d) = %q, want %q", tt.base, tt.errNum, got, tt.want)
		}
	}
}

// Every target name across the three mapping families must be unique:
// person and error blocks are numbered per slot and households are flat,
// so a duplicate target would mean two source columns writing the same
// destination field.
func TestNoTargetCollisions(t *testing.T) {
	seen := map[string]string{}

	record := func(family, target string) {
		if prev, ok := seen[target]; ok {
			t.Errorf("target %q appears in both %s and %s", target, prev, family)
		}
		seen[target] = family
	}

	for _, f := range PersonFields {
		record("PersonFields", f.Target)
	}
	for _, f := range ErrorFields {
		record("ErrorFields", f.Target)
	}
	for _, f := range HouseholdFields {
		record("HouseholdFields", f.Target)
	}
}

func TestAllPersonColumns(t *testing.T) {
	cols := AllPersonColumns()

	want := len(PersonFields) * MaxMembers
	if len(cols) != want {
		t.Fatalf("AllPersonColumns() returned %d columns, want %d", len(cols), want)
	}

	// Spot-check first and last generated names
	if cols[0] != "FSAFIL1" {
		t.Errorf("first person column = %q, want %q", cols[0], "FSAFIL1")
	}
}

func TestAllErrorColumns(t *testing.T) {
	cols := AllErrorColumns()

	want := len(ErrorFields) * MaxErrors
	if len(cols) != want {
		t.Fatalf("AllErrorColumns() returned %d columns, want %d", len(cols), want)
	}
}

func TestRequiredColumns(t *testing.T) {
	required := RequiredColumns()
	want := []string{"HHLDNO", "STATE", "YRMONTH", "FSBEN"}

	if len(required) != len(want) {
		t.Fatalf("RequiredColumns() = %v, want %v", required, want)
	}
	for i := range want {
		if required[i] != want[i] {
			t.Errorf("RequiredColumns()[%d] = %q, want %q", i, required[i], want[i])
		}
	}
}

func TestSlotBounds(t *testing.T) {
	if MaxMembers != 17 {
		t.Errorf("MaxMembers = %d, want 17", MaxMembers)
	}
	if MaxErrors != 9 {
		t.Errorf("MaxErrors = %d, want 9", MaxErrors)
	}
}
