package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/motivatem3/server/internal/model"
	"github.com/motivatem3/server/internal/service"
)

type AdminAPI interface {
	ListUsers(ctx context.Context, limit, offset int) ([]model.Account, int, error)
	Stats(ctx context.Context) (*service.Stats, error)
}

type AdminHandler struct {
	admin AdminAPI
}

func NewAdminHandler(admin AdminAPI) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Routes expects SessionMiddleware and RequireAdmin to have run.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/users", h.ListUsers)
	r.Get("/stats", h.Stats)
	return r
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	users, total, err := h.admin.ListUsers(r.Context(), p.Limit, p.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewPage(users, total, p))
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
