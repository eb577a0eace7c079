package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/snapanalyst/snapqc/internal/etl"
	"github.com/snapanalyst/snapqc/internal/logging"
)

// startJobRequest is the payload for POST /api/jobs. The file must already
// be on a filesystem the server can read; this API does not accept uploads.
type startJobRequest struct {
	FilePath   string `json:"file_path"`
	FiscalYear int    `json:"fiscal_year"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStartJob registers a load job and runs it in the background.
// Responds 202 with the initial job projection; poll GET /api/jobs/{id}
// for progress.
func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	var req startJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FilePath == "" {
		s.respondError(w, r, http.StatusBadRequest, "file_path is required")
		return
	}
	if req.FiscalYear < 1980 || req.FiscalYear > 2100 {
		s.respondError(w, r, http.StatusBadRequest, "fiscal_year out of range")
		return
	}

	jobID := etl.NewJobID()
	status := s.jobs.Create(jobID)
	loader := s.newLoader(req.FiscalYear)

	logger := logging.FromContext(r.Context())
	logger.Info("load job accepted",
		"job_id", jobID,
		"file", req.FilePath,
		"fiscal_year", req.FiscalYear,
	)

	// The job outlives the request; it runs on a fresh context so client
	// disconnects never abort a load mid-write.
	go func() {
		if err := loader.LoadFromFile(context.Background(), req.FilePath, status); err != nil {
			if errors.Is(err, etl.ErrFileNotFound) {
				logger.Error("load job failed: file not found", "job_id", jobID, "file", req.FilePath)
				return
			}
			logger.Error("load job failed", "job_id", jobID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, status.Snapshot().Projection())
}

// handleListJobs returns the projection of every known job.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	statuses := s.jobs.List()
	projections := make([]etl.Projection, 0, len(statuses))
	for _, st := range statuses {
		projections = append(projections, st.Snapshot().Projection())
	}
	writeJSON(w, http.StatusOK, projections)
}

// handleJobStatus returns the projection of a single job.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	status := s.jobs.Get(jobID)
	if status == nil {
		s.respondError(w, r, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, status.Snapshot().Projection())
}
