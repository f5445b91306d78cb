// Routes:
//   - GET  /api/job-infos/{id}/questions           -> List
//   - POST /api/job-infos/{id}/questions           -> Create
//   - POST /api/job-infos/{id}/questions/generate  -> Generate
//   - GET  /api/job-infos/{id}/questions/latest    -> Latest
package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/certum/internal/auth"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/service"
)

// QuestionHandler handles practice question HTTP requests.
type QuestionHandler struct {
	questions service.QuestionService
	logger    *slog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questions service.QuestionService, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questions: questions,
		logger:    logger,
	}
}

// RegisterRoutes registers question routes on the provided mux.
func (h *QuestionHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/job-infos/{id}/questions", requireUser(http.HandlerFunc(h.List)))
	mux.Handle("POST /api/job-infos/{id}/questions", requireUser(http.HandlerFunc(h.Create)))
	mux.Handle("POST /api/job-infos/{id}/questions/generate", requireUser(http.HandlerFunc(h.Generate)))
	mux.Handle("GET /api/job-infos/{id}/questions/latest", requireUser(http.HandlerFunc(h.Latest)))
}

type questionRequest struct {
	Text       string `json:"text"`
	Difficulty string `json:"difficulty"`
}

// List returns the questions of a job info.
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	jobInfoID, err := pathID(r, "id", "job info")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	questions, err := h.questions.List(r.Context(), auth.UserIDFromRequest(r), jobInfoID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	views := make([]questionView, 0, len(questions))
	for i := range questions {
		views = append(views, toQuestionView(&questions[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": views})
}

// Create stores a question written by the caller.
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	jobInfoID, err := pathID(r, "id", "job info")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req questionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	question, err := h.questions.Create(r.Context(), auth.UserIDFromRequest(r), jobInfoID, domain.CreateQuestionParams{
		Text:       req.Text,
		Difficulty: domain.QuestionDifficulty(req.Difficulty),
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuestionView(question))
}

// Generate asks the AI for the next question at the requested difficulty.
func (h *QuestionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	jobInfoID, err := pathID(r, "id", "job info")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req struct {
		Difficulty string `json:"difficulty"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	question, err := h.questions.GenerateNext(r.Context(), auth.UserIDFromRequest(r), jobInfoID, domain.QuestionDifficulty(req.Difficulty))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuestionView(question))
}

// Latest returns the id of the newest question.
func (h *QuestionHandler) Latest(w http.ResponseWriter, r *http.Request) {
	jobInfoID, err := pathID(r, "id", "job info")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	id, err := h.questions.LatestID(r.Context(), auth.UserIDFromRequest(r), jobInfoID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}
