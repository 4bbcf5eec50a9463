package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/motivatem3/server/internal/httputil"
	"github.com/motivatem3/server/internal/middleware"
	"github.com/motivatem3/server/internal/service"
)

type MotivationAPI interface {
	Generate(ctx context.Context, accountID, feeling, goal string) (*service.GenerateResult, error)
	History(ctx context.Context, accountID string, limit, offset int) ([]service.MotivationEntry, int, error)
}

type MotivationHandler struct {
	motivation MotivationAPI
}

func NewMotivationHandler(motivation MotivationAPI) *MotivationHandler {
	return &MotivationHandler{motivation: motivation}
}

// Routes expects SessionMiddleware to have run.
func (h *MotivationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/generate", h.Generate)
	r.Get("/history", h.History)
	return r
}

type generateRequest struct {
	Feeling string `json:"feeling" validate:"max=2000"`
	Goal    string `json:"goal" validate:"max=2000"`
}

func (h *MotivationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	var req generateRequest
	if err := httputil.DecodeValid(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.motivation.Generate(r.Context(), account.ID, req.Feeling, req.Goal)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *MotivationHandler) History(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	p := ParsePagination(r)

	entries, total, err := h.motivation.History(r.Context(), account.ID, p.Limit, p.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewPage(entries, total, p))
}
