// Package handler contains HTTP handlers for the certum API.
//
// This file implements the job info endpoints.
//
// Routes:
//   - GET  /api/job-infos       -> List
//   - POST /api/job-infos       -> Create
//   - GET  /api/job-infos/{id}  -> Get
//   - PUT  /api/job-infos/{id}  -> Update
package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/certum/internal/auth"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/service"
)

// JobInfoHandler handles job info HTTP requests.
type JobInfoHandler struct {
	jobInfos service.JobInfoService
	logger   *slog.Logger
}

// NewJobInfoHandler creates a new JobInfoHandler.
func NewJobInfoHandler(jobInfos service.JobInfoService, logger *slog.Logger) *JobInfoHandler {
	return &JobInfoHandler{
		jobInfos: jobInfos,
		logger:   logger,
	}
}

// RegisterRoutes registers job info routes on the provided mux.
func (h *JobInfoHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/job-infos", requireUser(http.HandlerFunc(h.List)))
	mux.Handle("POST /api/job-infos", requireUser(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/job-infos/{id}", requireUser(http.HandlerFunc(h.Get)))
	mux.Handle("PUT /api/job-infos/{id}", requireUser(http.HandlerFunc(h.Update)))
}

type jobInfoRequest struct {
	Name            string `json:"name"`
	Title           string `json:"title"`
	ExperienceLevel string `json:"experience_level"`
	Description     string `json:"description"`
}

func (req jobInfoRequest) params() domain.JobInfoParams {
	return domain.JobInfoParams{
		Name:            req.Name,
		Title:           req.Title,
		ExperienceLevel: domain.ExperienceLevel(req.ExperienceLevel),
		Description:     req.Description,
	}
}

// List returns the caller's job infos.
func (h *JobInfoHandler) List(w http.ResponseWriter, r *http.Request) {
	jobInfos, err := h.jobInfos.List(r.Context(), auth.UserIDFromRequest(r))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	views := make([]jobInfoView, 0, len(jobInfos))
	for i := range jobInfos {
		views = append(views, toJobInfoView(&jobInfos[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"job_infos": views})
}

// Create stores a new job info.
func (h *JobInfoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req jobInfoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	jobInfo, err := h.jobInfos.Create(r.Context(), auth.UserIDFromRequest(r), req.params())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toJobInfoView(jobInfo))
}

// Get returns one owned job info.
func (h *JobInfoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "job info")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	jobInfo, err := h.jobInfos.Get(r.Context(), auth.UserIDFromRequest(r), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobInfoView(jobInfo))
}

// Update replaces the editable fields of an owned job info.
func (h *JobInfoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "job info")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req jobInfoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	jobInfo, err := h.jobInfos.Update(r.Context(), auth.UserIDFromRequest(r), id, req.params())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobInfoView(jobInfo))
}
