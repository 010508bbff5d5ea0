package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eluia/eluia-api/internal/middleware"
	"github.com/eluia/eluia-api/internal/model"
	"github.com/eluia/eluia-api/internal/service"
	"github.com/eluia/eluia-api/pkg/logger"
)

// ChatHandler handles the public chat widget endpoints.
type ChatHandler struct {
	chat   *service.ChatService
	logger *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: log}
}

// Info handles GET /api/chat/{slug}/info
func (h *ChatHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.chat.Info(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, http.StatusNotFound, "chat not available")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Message handles POST /api/chat/{slug}/message
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateQuestion(req.Question); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.chat.Ask(ctx, slug, middleware.GetSessionHash(ctx), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrChatUnavailable):
			writeError(w, http.StatusNotFound, "chat not available")
		case errors.Is(err, model.ErrQuotaExceeded):
			writeError(w, http.StatusTooManyRequests, "daily message limit reached, come back tomorrow")
		default:
			h.logger.Error("chat request failed", zap.String("slug", slug), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to answer question")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
