// Routes:
//   - POST  /api/job-infos/{id}/interviews  -> Create
//   - GET   /api/job-infos/{id}/interviews  -> ListByJobInfo
//   - GET   /api/interviews/{id}            -> Get
//   - PATCH /api/interviews/{id}            -> Update
//   - POST  /api/interviews/{id}/feedback   -> GenerateFeedback
package handler

import (
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/DukeRupert/certum/internal/auth"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/service"
)

// InterviewHandler handles mock interview HTTP requests.
type InterviewHandler struct {
	interviews service.InterviewService
	logger     *slog.Logger
}

// NewInterviewHandler creates a new InterviewHandler.
func NewInterviewHandler(interviews service.InterviewService, logger *slog.Logger) *InterviewHandler {
	return &InterviewHandler{
		interviews: interviews,
		logger:     logger,
	}
}

// RegisterRoutes registers interview routes on the provided mux.
func (h *InterviewHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("POST /api/job-infos/{id}/interviews", requireUser(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/job-infos/{id}/interviews", requireUser(http.HandlerFunc(h.ListByJobInfo)))
	mux.Handle("GET /api/interviews/{id}", requireUser(http.HandlerFunc(h.Get)))
	mux.Handle("PATCH /api/interviews/{id}", requireUser(http.HandlerFunc(h.Update)))
	mux.Handle("POST /api/interviews/{id}/feedback", requireUser(http.HandlerFunc(h.GenerateFeedback)))
}

// Create starts a new interview under a job info. The entitlement, rate
// limit and ownership checks all happen in the service.
func (h *InterviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	jobInfoID, err := pathID(r, "id", "job info")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	interview, err := h.interviews.Create(r.Context(), auth.UserIDFromRequest(r), jobInfoID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInterviewView(interview))
}

// ListByJobInfo returns the interviews of a job info.
func (h *InterviewHandler) ListByJobInfo(w http.ResponseWriter, r *http.Request) {
	jobInfoID, err := pathID(r, "id", "job info")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	interviews, err := h.interviews.ListByJobInfo(r.Context(), auth.UserIDFromRequest(r), jobInfoID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	views := make([]interviewView, 0, len(interviews))
	for i := range interviews {
		views = append(views, toInterviewView(&interviews[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"interviews": views})
}

// Get returns one interview with its job info.
func (h *InterviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "interview")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	interview, err := h.interviews.Get(r.Context(), auth.UserIDFromRequest(r), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toInterviewView(interview))
}

// updateInterviewRequest is sent by the browser when the voice session ends.
// Absent fields are left unchanged.
type updateInterviewRequest struct {
	HumeChatID      *string  `json:"hume_chat_id"`
	DurationSeconds *float64 `json:"duration_seconds"`
}

// Update records the voice session's call id and duration.
func (h *InterviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "interview")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req updateInterviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	params := domain.UpdateInterviewParams{HumeChatID: req.HumeChatID}
	if req.DurationSeconds != nil {
		// Larger values would overflow time.Duration before the domain
		// range check sees them.
		if math.Abs(*req.DurationSeconds) > domain.MaxInterviewDuration.Seconds() {
			ErrorResponse(w, r, h.logger, domain.Invalid("interview.update", "duration is too long"))
			return
		}
		d := time.Duration(math.Round(*req.DurationSeconds*1000)) * time.Millisecond
		params.Duration = &d
	}

	interview, err := h.interviews.Update(r.Context(), auth.UserIDFromRequest(r), id, params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toInterviewView(interview))
}

// GenerateFeedback asks the AI for feedback on a completed interview.
func (h *InterviewHandler) GenerateFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "interview")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	interview, err := h.interviews.GenerateFeedback(r.Context(), auth.UserIDFromRequest(r), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toInterviewView(interview))
}
