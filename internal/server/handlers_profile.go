package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/jonathan/career-coach/internal/documents"
	"github.com/jonathan/career-coach/internal/server/middleware"
	"github.com/jonathan/career-coach/internal/storage"
	"github.com/jonathan/career-coach/internal/types"
)

// resumeUpload is the body of POST /me/resume
type resumeUpload struct {
	ResumeDataURI string `json:"resumeDataUri"`
}

// resumeResult is returned after an upload
type resumeResult struct {
	MIMEType  string `json:"mimeType"`
	Text      string `json:"text"`
	ResumeKey string `json:"resumeKey,omitempty"`
}

var resumeExtensions = map[string]string{
	documents.MIMEPDF:   "pdf",
	documents.MIMEDocx:  "docx",
	documents.MIMEPlain: "txt",
	documents.MIMEHTML:  "html",
	"text/markdown":     "md",
}

// handleGetProfile returns the caller's profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.jsonResponse(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	profile, err := s.userService.GetProfile(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleUpdateProfile replaces the caller's editable profile fields
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.jsonResponse(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var p types.Profile
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBody)).Decode(&p); err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if err := p.Validate(); err != nil {
		s.errorResponse(w, r, profileValidationError(err))
		return
	}

	updated, err := s.userService.UpdateProfile(r.Context(), userID, &p)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, updated)
}

func profileValidationError(err error) *ErrValidation {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return &ErrValidation{Field: verrs[0].Field(), Message: "failed " + verrs[0].Tag() + " validation"}
	}
	return &ErrValidation{Field: "profile", Message: err.Error()}
}

// handleUploadResume decodes an uploaded resume, extracts its text and, when
// object storage is configured, stores the original and records its key on
// the profile.
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.jsonResponse(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req resumeUpload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFlowBody)).Decode(&req); err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "body", Message: "invalid JSON or too large"})
		return
	}

	doc, err := documents.DecodeDataURI(req.ResumeDataURI)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	text, err := documents.ExtractText(doc)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	result := resumeResult{MIMEType: doc.MIMEType, Text: text}

	if s.resumes != nil {
		profile, err := s.userService.GetProfile(r.Context(), userID)
		if err != nil {
			s.errorResponse(w, r, err)
			return
		}

		key := storage.ResumeKey(userID, resumeExtensions[doc.MIMEType])
		if err := s.resumes.Put(r.Context(), key, doc.MIMEType, doc.Data); err != nil {
			s.errorResponse(w, r, err)
			return
		}
		if err := s.userService.SetResumeKey(r.Context(), userID, key); err != nil {
			s.errorResponse(w, r, err)
			return
		}
		result.ResumeKey = key
		s.logger.InfoContext(r.Context(), "resume stored", "user_id", userID, "key", key, "bytes", len(doc.Data))

		// The previous upload is unreachable once the profile points at the new key.
		if old := profile.ResumeKey; old != "" && old != key {
			if err := s.resumes.Delete(r.Context(), old); err != nil {
				s.logger.WarnContext(r.Context(), "failed to delete previous resume", "user_id", userID, "key", old, "error", err)
			}
		}
	}

	s.jsonResponse(w, http.StatusCreated, result)
}

// handleDownloadResume streams back the caller's stored resume file
func (s *Server) handleDownloadResume(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.jsonResponse(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	notFound := map[string]string{"error": "not_found", "message": "no stored resume"}
	if s.resumes == nil {
		s.jsonResponse(w, http.StatusNotFound, notFound)
		return
	}

	profile, err := s.userService.GetProfile(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if profile.ResumeKey == "" {
		s.jsonResponse(w, http.StatusNotFound, notFound)
		return
	}

	data, err := s.resumes.Get(r.Context(), profile.ResumeKey)
	if errors.Is(err, storage.ErrNotFound) {
		s.jsonResponse(w, http.StatusNotFound, notFound)
		return
	}
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
