// Package etl implements the SNAP QC ingest pipeline: reading wide-format
// CSV extracts, unpivoting them into normalized household/member/error
// records, validating the result, and orchestrating bulk writes with
// per-job status tracking.
package etl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFileNotFound indicates the source CSV path does not exist.
var ErrFileNotFound = errors.New("csv file not found")

// StructuralError indicates the source file is missing required columns.
// It is raised before any row is handed downstream (fails closed).
type StructuralError struct {
	Missing []string
}

func (e *StructuralError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// ParseError indicates the CSV content itself could not be parsed.
type ParseError struct {
	Op  string // what the reader was doing, e.g. "read header"
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationFailure is returned when strict validation aborts a load
// before its batch is written.
type ValidationFailure struct {
	ErrorCount int
	First      string // first finding, for the job's error message
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("validation failed with %d errors (first: %s)", e.ErrorCount, e.First)
}

// ConstraintKind tags the class of database constraint a write violated.
type ConstraintKind int

const (
	ConstraintOther ConstraintKind = iota
	ConstraintForeignKey
	ConstraintUnique
	ConstraintCheck
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintForeignKey:
		return "foreign key"
	case ConstraintUnique:
		return "unique"
	case ConstraintCheck:
		return "check"
	default:
		return "constraint"
	}
}

// ConstraintViolation is the typed error a Writer reports for constraint
// failures. The Loader treats ForeignKey violations as a structural
// precondition failure (empty reference tables) and stops the job
// immediately instead of parsing driver error text.
type ConstraintViolation struct {
	Kind       ConstraintKind
	Table      string
	Constraint string
	Err        error
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("%s violation on %s (%s): %v", e.Kind, e.Table, e.Constraint, e.Err)
}

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// DatabaseError wraps any other Writer failure. Job-fatal, never retried.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }
