package etl

import (
	"sync/atomic"
	"time"
)

// JobState is the lifecycle state of a load job.
type JobState string

const (
	StatePending    JobState = "pending"
	StateInProgress JobState = "in_progress"
	StateCompleted  JobState = "completed"
	StateFailed     JobState = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Snapshot is an immutable view of a job's progress. The Loader never
// mutates a published snapshot; every update builds a new one and swaps a
// single pointer, so pollers always observe a consistent composite.
type Snapshot struct {
	JobID        string
	State        JobState
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ErrorMessage string

	TotalRows         int
	RowsProcessed     int
	RowsSkipped       int
	HouseholdsCreated int
	MembersCreated    int
	ErrorsCreated     int

	ValidationErrors   int
	ValidationWarnings int
}

// JobStatus tracks one load job. It is created by the JobManager, mutated
// only by the Loader running the job, and read concurrently by status
// pollers through Snapshot.
type JobStatus struct {
	JobID string
	snap  atomic.Pointer[Snapshot]
}

// NewJobStatus creates a status in the pending state.
func NewJobStatus(jobID string) *JobStatus {
	s := &JobStatus{JobID: jobID}
	s.snap.Store(&Snapshot{JobID: jobID, State: StatePending})
	return s
}

// Snapshot returns the current progress view.
func (s *JobStatus) Snapshot() Snapshot {
	return *s.snap.Load()
}

// update applies fn to a copy of the current snapshot and publishes it.
// The Loader is the sole writer for a job's lifetime, so a plain swap is
// race-free; readers only ever load.
func (s *JobStatus) update(fn func(*Snapshot)) {
	next := *s.snap.Load()
	fn(&next)
	s.snap.Store(&next)
}

// Projection is the JSON shape status pollers consume.
type Projection struct {
	JobID        string          `json:"job_id"`
	Status       JobState        `json:"status"`
	StartedAt    *string         `json:"started_at"`
	CompletedAt  *string         `json:"completed_at"`
	ErrorMessage *string         `json:"error_message"`
	Progress     ProgressBlock   `json:"progress"`
	Validation   ValidationBlock `json:"validation"`
}

// ProgressBlock holds row and record counters for a job.
type ProgressBlock struct {
	TotalRows         int `json:"total_rows"`
	RowsProcessed     int `json:"rows_processed"`
	RowsSkipped       int `json:"rows_skipped"`
	RowsSuccessful    int `json:"rows_successful"`
	HouseholdsCreated int `json:"households_created"`
	MembersCreated    int `json:"members_created"`
	ErrorsCreated     int `json:"errors_created"`
	PercentComplete   int `json:"percent_complete"`
}

// ValidationBlock summarizes validation findings for a job.
type ValidationBlock struct {
	ErrorsCount   int `json:"errors_count"`
	WarningsCount int `json:"warnings_count"`
}

// Projection converts a snapshot to its polling representation. Timestamps
// become ISO-8601 strings or null; percent_complete is 0 when no rows are
// known.
func (s Snapshot) Projection() Projection {
	percent := 0
	if s.TotalRows > 0 {
		percent = s.RowsProcessed * 100 / s.TotalRows
	}

	var errMsg *string
	if s.ErrorMessage != "" {
		errMsg = &s.ErrorMessage
	}

	return Projection{
		JobID:        s.JobID,
		Status:       s.State,
		StartedAt:    isoTime(s.StartedAt),
		CompletedAt:  isoTime(s.CompletedAt),
		ErrorMessage: errMsg,
		Progress: ProgressBlock{
			TotalRows:         s.TotalRows,
			RowsProcessed:     s.RowsProcessed,
			RowsSkipped:       s.RowsSkipped,
			RowsSuccessful:    s.RowsProcessed - s.RowsSkipped,
			HouseholdsCreated: s.HouseholdsCreated,
			MembersCreated:    s.MembersCreated,
			ErrorsCreated:     s.ErrorsCreated,
			PercentComplete:   percent,
		},
		Validation: ValidationBlock{
			ErrorsCount:   s.ValidationErrors,
			WarningsCount: s.ValidationWarnings,
		},
	}
}

func isoTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
