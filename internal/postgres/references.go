package postgres

import (
	"context"
	"fmt"
	"log/slog"
)

// referenceTables are the lookup tables households/members/errors carry
// foreign keys into. Loading data before these are seeded guarantees FK
// violations on write.
var referenceTables = []string{
	"ref_status",
	"ref_case_classification",
	"ref_categorical_eligibility",
	"ref_expedited_service",
	"ref_state",
	"ref_sex",
	"ref_race_ethnicity",
	"ref_citizenship_status",
	"ref_abawd_status",
	"ref_element",
	"ref_nature",
	"ref_agency_responsibility",
	"ref_discovery",
	"ref_error_finding",
}

// ReferencesReady reports whether every reference table has at least one
// row, returning the names of the empty ones. Probe failures fail open:
// an unreachable table is treated as ready so the actual write surfaces
// the real error.
func (w *Writer) ReferencesReady(ctx context.Context) (bool, []string) {
	var empty []string
	for _, table := range referenceTables {
		var exists bool
		query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s)", table)
		if err := w.pool.QueryRow(ctx, query).Scan(&exists); err != nil {
			slog.Warn("reference table probe failed", "table", table, "error", err)
			continue
		}
		if !exists {
			empty = append(empty, table)
		}
	}
	if len(empty) > 0 {
		slog.Warn("reference tables not populated", "tables", empty)
		return false, empty
	}
	return true, nil
}
