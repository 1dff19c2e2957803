package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jonathan/career-coach/internal/documents"
	"github.com/jonathan/career-coach/internal/flows"
)

// maxFlowBody allows a base64 resume of documents.MaxSize plus the rest of
// the input.
const maxFlowBody = documents.MaxSize*4/3 + 64<<10

// handleListFlows returns the registered flow names
func (s *Server) handleListFlows(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{"flows": flows.Names()})
}

// handleFlow runs one flow with the request body as its input
func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	name := flows.Name(r.PathValue("name"))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFlowBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.jsonResponse(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return
		}
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	out, err := s.flows.Run(r.Context(), name, body)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, out)
}
