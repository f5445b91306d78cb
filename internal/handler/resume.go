// Routes:
//   - POST /api/resume-analysis -> Analyze
package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/DukeRupert/certum/internal/auth"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/service"
	"github.com/DukeRupert/certum/internal/storage"
)

// multipartOverhead leaves room for the form fields and part headers
// around the resume file.
const multipartOverhead = 1 << 20

// ResumeHandler handles resume analysis HTTP requests.
type ResumeHandler struct {
	resumes service.ResumeService
	logger  *slog.Logger
}

// NewResumeHandler creates a new ResumeHandler.
func NewResumeHandler(resumes service.ResumeService, logger *slog.Logger) *ResumeHandler {
	return &ResumeHandler{
		resumes: resumes,
		logger:  logger,
	}
}

// RegisterRoutes registers resume routes on the provided mux.
func (h *ResumeHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("POST /api/resume-analysis", requireUser(http.HandlerFunc(h.Analyze)))
}

// Analyze accepts a multipart upload with the fields "resumeFile" and
// "jobInfoId" and streams the analysis back as plain text.
func (h *ResumeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	upload, err := h.readUpload(w, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	userID := auth.UserIDFromRequest(r)
	stream, err := h.resumes.Analyze(r.Context(), userID, upload)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	rc := http.NewResponseController(w)
	wrote := false
	for chunk, err := range stream {
		if err != nil {
			if !wrote {
				ErrorResponse(w, r, h.logger, domain.Upstream(err, "resume.stream", "Failed to analyze resume"))
				return
			}
			// Headers are gone; the client sees a truncated body.
			h.logger.Error("resume analysis stream failed", "user_id", userID, "error", err)
			return
		}
		if !wrote {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			wrote = true
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			h.logger.Debug("client went away during resume stream", "user_id", userID, "error", err)
			return
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			h.logger.Debug("flush failed", "error", err)
		}
	}

	if !wrote {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}

// readUpload parses the multipart form into a ResumeUpload. Validation of
// the file itself is left to the service.
func (h *ResumeHandler) readUpload(w http.ResponseWriter, r *http.Request) (*domain.ResumeUpload, error) {
	const op = "resume.read_upload"

	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxResumeSize+multipartOverhead)
	if err := r.ParseMultipartForm(domain.MaxResumeSize + multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, domain.TooLarge(op, "resume must be 10 MiB or smaller")
		}
		return nil, domain.Invalid(op, "expected a multipart form upload")
	}

	jobInfoID, err := uuid.Parse(r.FormValue("jobInfoId"))
	if err != nil {
		return nil, domain.Invalid(op, "job info id is required")
	}

	file, header, err := r.FormFile("resumeFile")
	if err != nil {
		return nil, domain.Invalid(op, "resume file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, domain.MaxResumeSize+1))
	if err != nil {
		return nil, domain.Invalid(op, "could not read resume file")
	}

	return &domain.ResumeUpload{
		JobInfoID:   jobInfoID,
		Filename:    header.Filename,
		ContentType: storage.DetectContentType(header.Header.Get("Content-Type"), header.Filename, data),
		Size:        header.Size,
		Data:        data,
	}, nil
}
