package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jonathan/career-coach/internal/flows"
	"github.com/jonathan/career-coach/internal/jobs"
	"golang.org/x/sync/errgroup"
)

// marketResponse combines live listings with model-generated trends.
// Listings are omitted, and Setup lists the missing keys, when job search
// is not configured.
type marketResponse struct {
	Listings *jobs.Result `json:"listings,omitempty"`
	Setup    *setupPrompt `json:"setup,omitempty"`
	Trends   any          `json:"trends"`
}

type setupPrompt struct {
	Missing []string `json:"missing"`
}

// handleJobs returns normalized listings for an optional role filter
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	result, err := s.jobs.Fetch(r.Context(), strings.TrimSpace(r.URL.Query().Get("role")))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", jobs.CacheControl)
	s.jsonResponse(w, http.StatusOK, result)
}

// handleMarket fetches listings and runs the job-trends flow concurrently.
// Missing job search credentials degrade to a setup prompt; any other
// failure fails the request.
func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	role := strings.TrimSpace(r.URL.Query().Get("role"))

	var resp marketResponse
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		result, err := s.jobs.Fetch(ctx, role)
		var cfgErr *jobs.ConfigurationError
		if errors.As(err, &cfgErr) {
			resp.Setup = &setupPrompt{Missing: cfgErr.Missing}
			return nil
		}
		if err != nil {
			return err
		}
		resp.Listings = result
		return nil
	})

	g.Go(func() error {
		trends, err := s.flows.Run(ctx, flows.JobTrends, nil)
		if err != nil {
			return err
		}
		resp.Trends = trends
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
			return
		}
		s.errorResponse(w, r, err)
		return
	}

	if resp.Listings != nil {
		w.Header().Set("Cache-Control", jobs.CacheControl)
	}
	s.jsonResponse(w, http.StatusOK, resp)
}
