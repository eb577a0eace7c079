package etl

import "context"

// Writer persists one transformed batch. Implementations own their internal
// batching and are the sole place uniqueness and foreign-key constraints
// are enforced; constraint failures must come back as *ConstraintViolation
// so the Loader can classify them without parsing driver text.
type Writer interface {
	WriteAll(ctx context.Context, households []Household, members []Member, qcErrors []QCError, fiscalYear int) (WriteStats, error)
}

// ReferenceChecker probes whether the reference (code lookup) tables are
// populated. Main tables carry foreign keys into them, so loading into an
// empty schema can only fail. The probe is best-effort: implementations
// report ready when the check itself cannot run.
type ReferenceChecker interface {
	ReferencesReady(ctx context.Context) (bool, []string)
}
