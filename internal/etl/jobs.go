package etl

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// JobManager is the registry of load jobs shared across concurrent workers
// and status pollers. A single mutex guards the map; job creation and
// eviction are rare next to in-job processing, so contention is not a
// concern.
type JobManager struct {
	mu   sync.Mutex
	jobs map[string]*JobStatus
}

// NewJobManager creates an empty registry.
func NewJobManager() *JobManager {
	return &JobManager{jobs: make(map[string]*JobStatus)}
}

// Create registers a new job in the pending state. An existing job with the
// same id is replaced.
func (m *JobManager) Create(jobID string) *JobStatus {
	status := NewJobStatus(jobID)

	m.mu.Lock()
	m.jobs[jobID] = status
	m.mu.Unlock()

	slog.Info("created job", "job_id", jobID)
	return status
}

// Get returns the job with the given id, or nil if unknown.
func (m *JobManager) Get(jobID string) *JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[jobID]
}

// List returns all registered jobs.
func (m *JobManager) List() []*JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*JobStatus, 0, len(m.jobs))
	for _, s := range m.jobs {
		out = append(out, s)
	}
	return out
}

// Evict removes terminal jobs whose completion is older than maxAge and
// returns how many were removed.
func (m *JobManager) Evict(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, status := range m.jobs {
		snap := status.Snapshot()
		if snap.State.Terminal() && snap.CompletedAt != nil && snap.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
			slog.Info("evicted job", "job_id", id)
		}
	}
	return removed
}

// StartEviction starts a background goroutine that periodically removes
// finished jobs older than maxAge. It stops when the context is cancelled.
func (m *JobManager) StartEviction(ctx context.Context, maxAge, interval time.Duration) {
	slog.Info("job eviction started", "max_age", maxAge, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("job eviction stopped")
			return
		case <-ticker.C:
			if removed := m.Evict(maxAge); removed > 0 {
				slog.Info("job eviction sweep", "removed", removed)
			}
		}
	}
}
