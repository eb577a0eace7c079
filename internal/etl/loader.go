package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Default processing knobs. Files at or under WholeFileMaxRows are read in
// one pass, which sidesteps any per-chunk schema concerns; larger files
// stream through fixed-size chunks.
const (
	DefaultChunkSize        = 10000
	DefaultWholeFileMaxRows = 100000

	// maxErrorMessageLen bounds what gets stored on the job status;
	// database errors can embed entire failed statements.
	maxErrorMessageLen = 500
)

// LoaderConfig carries the processing policy for a Loader.
type LoaderConfig struct {
	FiscalYear       int
	ChunkSize        int  // rows per chunk for large files (default 10000)
	WholeFileMaxRows int  // single-pass threshold (default 100000)
	Strict           bool // abort a batch whose validation has errors
	SkipValidation   bool // bypass the validation pass entirely
}

// Loader drives the pipeline: Reader -> Transformer -> Validator -> Writer,
// maintaining the job's status object as it goes. One Loader runs one job
// at a time; concurrent jobs each get their own Loader.
type Loader struct {
	cfg         LoaderConfig
	transformer *Transformer
	validator   *Validator
	writer      Writer
	refs        ReferenceChecker // optional
}

// NewLoader creates a loader. refs may be nil if no reference probe is
// available.
func NewLoader(cfg LoaderConfig, writer Writer, refs ReferenceChecker) *Loader {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.WholeFileMaxRows <= 0 {
		cfg.WholeFileMaxRows = DefaultWholeFileMaxRows
	}

	slog.Info("etl loader initialized",
		"fiscal_year", cfg.FiscalYear,
		"chunk_size", cfg.ChunkSize,
		"strict", cfg.Strict,
	)

	return &Loader{
		cfg:         cfg,
		transformer: NewTransformer(cfg.FiscalYear),
		validator:   NewValidator(cfg.Strict),
		writer:      writer,
		refs:        refs,
	}
}

// NewJobID generates a job identifier for callers that do not supply one.
func NewJobID() string { return uuid.New().String() }

// LoadFromFile runs the full pipeline for one source file, updating status
// in place throughout so concurrent pollers observe live progress. Every
// failure path moves the status to failed with an error message and a
// completion timestamp before the error is returned.
func (l *Loader) LoadFromFile(ctx context.Context, filePath string, status *JobStatus) error {
	if status == nil {
		status = NewJobStatus(fmt.Sprintf("load_%d_%s", l.cfg.FiscalYear, time.Now().Format("20060102_150405")))
	}

	started := time.Now()
	status.update(func(s *Snapshot) {
		s.State = StateInProgress
		s.StartedAt = &started
	})

	logger := slog.With("job_id", status.JobID, "file", filePath)
	logger.Info("starting etl job")

	// Best-effort precondition probe: empty reference tables guarantee FK
	// failures at write time, but the probe itself failing is not fatal.
	if l.refs != nil {
		if ready, emptyTables := l.refs.ReferencesReady(ctx); !ready {
			logger.Warn("reference tables not populated, inserts may fail on foreign keys",
				"empty_tables", strings.Join(emptyTables, ", "))
		}
	}

	reader, err := NewReader(filePath)
	if err != nil {
		l.fail(status, err.Error())
		return err
	}

	totalRows := reader.RowCount()
	status.update(func(s *Snapshot) { s.TotalRows = totalRows })
	logger.Info("total rows to process", "rows", totalRows)

	var stats WriteStats
	if totalRows <= l.cfg.WholeFileMaxRows {
		stats, err = l.loadWholeFile(ctx, reader, status)
	} else {
		stats, err = l.loadInChunks(ctx, reader, status)
	}
	if err != nil {
		logger.Error("etl job failed", "error", err)
		return err
	}

	completed := time.Now()
	status.update(func(s *Snapshot) {
		s.RowsProcessed = s.TotalRows
		s.HouseholdsCreated = stats.HouseholdsWritten
		s.MembersCreated = stats.MembersWritten
		s.ErrorsCreated = stats.ErrorsWritten
		s.State = StateCompleted
		s.CompletedAt = &completed
	})

	snap := status.Snapshot()
	logger.Info("etl job completed",
		"duration", completed.Sub(started).Round(time.Millisecond),
		"households", snap.HouseholdsCreated,
		"members", snap.MembersCreated,
		"qc_errors", snap.ErrorsCreated,
		"rows_skipped", snap.RowsSkipped,
	)
	return nil
}

func (l *Loader) loadWholeFile(ctx context.Context, reader *Reader, status *JobStatus) (WriteStats, error) {
	table, err := reader.Read(0, -1)
	if err != nil {
		l.fail(status, err.Error())
		return WriteStats{}, err
	}

	stats, err := l.processBatch(ctx, table, status)
	if err != nil {
		return WriteStats{}, err
	}

	status.update(func(s *Snapshot) { s.RowsProcessed = table.Len() })
	return stats, nil
}

func (l *Loader) loadInChunks(ctx context.Context, reader *Reader, status *JobStatus) (WriteStats, error) {
	slog.Info("processing file in chunks", "chunk_size", l.cfg.ChunkSize)

	sc, err := reader.Chunks(l.cfg.ChunkSize)
	if err != nil {
		l.fail(status, err.Error())
		return WriteStats{}, err
	}
	defer sc.Close()

	var total WriteStats
	chunkNum := 0
	for sc.Scan() {
		chunkNum++
		chunk := sc.Table()
		slog.Info("processing chunk", "chunk", chunkNum, "rows", chunk.Len())

		stats, err := l.processBatch(ctx, chunk, status)
		if err != nil {
			return WriteStats{}, err
		}
		total = total.add(stats)

		status.update(func(s *Snapshot) {
			s.RowsProcessed += chunk.Len()
			s.HouseholdsCreated = total.HouseholdsWritten
			s.MembersCreated = total.MembersWritten
			s.ErrorsCreated = total.ErrorsWritten
		})

		snap := status.Snapshot()
		slog.Info("progress",
			"rows_processed", snap.RowsProcessed,
			"total_rows", snap.TotalRows,
			"percent", snap.Projection().Progress.PercentComplete,
		)
	}
	if err := sc.Err(); err != nil {
		l.fail(status, err.Error())
		return WriteStats{}, err
	}

	return total, nil
}

// processBatch transforms, validates and writes one table. A foreign-key
// violation from the Writer is a structural precondition failure (empty
// reference tables): the job stops immediately rather than grinding through
// chunks that can only fail the same way.
func (l *Loader) processBatch(ctx context.Context, table *Table, status *JobStatus) (WriteStats, error) {
	households, members, qcErrors := l.transformer.Transform(table)

	if !l.cfg.SkipValidation {
		result := l.validator.ValidateBatch(households, members, qcErrors)
		status.update(func(s *Snapshot) {
			s.ValidationErrors += len(result.Errors)
			s.ValidationWarnings += len(result.Warnings)
		})

		if !result.IsValid() {
			slog.Warn("batch validation found errors",
				"errors", len(result.Errors),
				"warnings", len(result.Warnings),
			)
			if l.cfg.Strict {
				err := &ValidationFailure{ErrorCount: len(result.Errors), First: result.Errors[0]}
				l.fail(status, "Validation error: "+err.Error())
				return WriteStats{}, err
			}
		}
	}

	stats, err := l.writer.WriteAll(ctx, households, members, qcErrors, l.cfg.FiscalYear)
	if err != nil {
		var cv *ConstraintViolation
		if errors.As(err, &cv) && cv.Kind == ConstraintForeignKey {
			slog.Error("stopping load on foreign key violation, check reference tables",
				"table", cv.Table, "constraint", cv.Constraint)
			l.fail(status, truncate("Foreign key constraint error - missing reference data: "+err.Error()))
			return WriteStats{}, err
		}
		l.fail(status, truncate("Database error: "+err.Error()))
		return WriteStats{}, err
	}

	slog.Info("batch complete",
		"households", stats.HouseholdsWritten,
		"members", stats.MembersWritten,
		"errors", stats.ErrorsWritten,
	)
	return stats, nil
}

// fail moves the status to the failed terminal state. Pollers see the
// terminal, explained state even though the triggering error also
// propagates to the caller.
func (l *Loader) fail(status *JobStatus, message string) {
	completed := time.Now()
	status.update(func(s *Snapshot) {
		s.State = StateFailed
		s.ErrorMessage = message
		s.CompletedAt = &completed
	})
}

// truncate caps s at maxErrorMessageLen bytes, backing off to a rune
// boundary so the result stays valid UTF-8.
func truncate(s string) string {
	if len(s) <= maxErrorMessageLen {
		return s
	}
	cut := maxErrorMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
