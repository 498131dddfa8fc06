package api

import (
	"net/http"
	"strconv"

	"github.com/RobinCoderZhao/robonews/internal/ingest/catalog"
	"github.com/RobinCoderZhao/robonews/internal/ingest/classifier"
	"github.com/RobinCoderZhao/robonews/internal/ingest/store"
)

const maxListLimit = 1000

// domainParam reads ?domain=, defaulting to "all". ok is false for labels
// outside the closed set.
func domainParam(r *http.Request) (string, bool) {
	d := r.URL.Query().Get("domain")
	if d == "" || d == catalog.All {
		return catalog.All, true
	}
	return d, classifier.Valid(d)
}

func (s *Server) handleListPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain, ok := domainParam(r)
		if !ok {
			respondError(w, http.StatusBadRequest, "unknown domain")
			return
		}

		limit := store.DefaultListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				respondError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxListLimit)
		}

		posts := s.store.ListByDomain(r.Context(), domain, limit)
		if posts == nil {
			posts = []store.Article{}
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"posts": posts,
			"count": s.store.CountByDomain(r.Context(), domain),
		})
	}
}

func (s *Server) handleCountPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain, ok := domainParam(r)
		if !ok {
			respondError(w, http.StatusBadRequest, "unknown domain")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"domain": domain,
			"count":  s.store.CountByDomain(r.Context(), domain),
		})
	}
}

func (s *Server) handleUpvote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id <= 0 {
			respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		if !s.store.Upvote(r.Context(), id) {
			respondError(w, http.StatusNotFound, "post not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDomains() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"domains": catalog.Domains,
		})
	}
}
