// Routes:
//   - GET /api/usage -> Summary
package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/certum/internal/auth"
	"github.com/DukeRupert/certum/internal/service"
)

// UsageHandler reports the caller's demo usage.
type UsageHandler struct {
	usage  service.UsageService
	logger *slog.Logger
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(usage service.UsageService, logger *slog.Logger) *UsageHandler {
	return &UsageHandler{
		usage:  usage,
		logger: logger,
	}
}

// RegisterRoutes registers usage routes on the provided mux.
func (h *UsageHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/usage", requireUser(http.HandlerFunc(h.Summary)))
}

// Summary returns used, limit and remaining for every gated resource.
func (h *UsageHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.usage.Summary(r.Context(), auth.UserIDFromRequest(r))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
