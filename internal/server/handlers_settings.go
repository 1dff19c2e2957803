package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/jonathan/career-coach/internal/config"
)

// credentialsResponse reports which credentials are configured. Values are
// never returned.
type credentialsResponse struct {
	Present map[string]bool `json:"present"`
	Missing []string        `json:"missing"`
}

func (s *Server) credentialsStatus() credentialsResponse {
	present := s.credentials.Present()
	missing := []string{}
	for _, k := range config.CredentialKeys {
		if !present[k] {
			missing = append(missing, k)
		}
	}
	return credentialsResponse{Present: present, Missing: missing}
}

// handleGetCredentials reports credential presence
func (s *Server) handleGetCredentials(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.credentialsStatus())
}

// handlePutCredentials persists one or both job search credentials. Only
// known keys with non-blank single-line values are accepted.
func (s *Server) handlePutCredentials(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBody)).Decode(&req); err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "body", Message: "must be a JSON object of strings"})
		return
	}
	if len(req) == 0 {
		s.errorResponse(w, r, &ErrValidation{Field: "body", Message: "no credentials given"})
		return
	}

	pairs := make(map[string]string, len(req))
	for k, v := range req {
		if !slices.Contains(config.CredentialKeys, k) {
			s.errorResponse(w, r, &ErrValidation{Field: k, Message: "unknown credential"})
			return
		}
		v = strings.TrimSpace(v)
		if v == "" {
			s.errorResponse(w, r, &ErrValidation{Field: k, Message: "must not be empty"})
			return
		}
		if strings.ContainsAny(v, "\r\n") {
			s.errorResponse(w, r, &ErrValidation{Field: k, Message: "must be a single line"})
			return
		}
		pairs[k] = v
	}

	if err := s.credentials.SetMany(pairs); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	// Results fetched with the old credentials are stale
	if c, ok := s.jobs.(interface{ Invalidate() }); ok {
		c.Invalidate()
	}

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	s.logger.InfoContext(r.Context(), "credentials updated", "keys", keys)

	s.jsonResponse(w, http.StatusOK, s.credentialsStatus())
}
