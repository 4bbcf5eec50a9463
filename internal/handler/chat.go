package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/motivatem3/server/internal/httputil"
	"github.com/motivatem3/server/internal/middleware"
	"github.com/motivatem3/server/internal/model"
)

type ChatAPI interface {
	Send(ctx context.Context, accountID, message string) (string, error)
	History(ctx context.Context, accountID string) ([]model.ChatMessage, error)
	Reset(ctx context.Context, accountID string) error
}

type ChatHandler struct {
	chat ChatAPI
}

func NewChatHandler(chat ChatAPI) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Routes expects SessionMiddleware to have run.
func (h *ChatHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Send)
	r.Get("/history", h.History)
	r.Delete("/history", h.Reset)
	return r
}

type chatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	var req chatRequest
	if err := httputil.DecodeValid(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	reply, err := h.chat.Send(r.Context(), account.ID, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	messages, err := h.chat.History(r.Context(), account.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	if err := h.chat.Reset(r.Context(), account.ID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
