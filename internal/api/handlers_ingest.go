package api

import (
	"context"
	"net/http"
	"time"

	"github.com/RobinCoderZhao/robonews/internal/ingest/pipeline"
)

type fetchResponse struct {
	Success bool               `json:"success"`
	Summary pipeline.Summary   `json:"summary"`
	Results []pipeline.Outcome `json:"results"`
}

// handleFetch runs ingestion across the catalog and reports the outcome.
// The run completes even if the client goes away.
func (s *Server) handleFetch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run := s.runner.RunIngestion(r.Context())

		if s.publisher.Enabled() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 15*time.Second)
			if err := s.publisher.Publish(ctx, run); err != nil {
				s.logger.Warn("publish run report failed", "error", err)
			}
			cancel()
		}

		respondJSON(w, http.StatusOK, fetchResponse{
			Success: true,
			Summary: run.Summary,
			Results: run.PerSource,
		})
	}
}

func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"sources": s.runner.Sources(),
		})
	}
}
