package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/codechat-ai/codebase-chat/internal/middleware"
	"github.com/codechat-ai/codebase-chat/internal/model"
	"github.com/codechat-ai/codebase-chat/internal/service"
	"github.com/codechat-ai/codebase-chat/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	chat     *service.ChatService
	sessions *service.SessionService
	logger   *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(chat *service.ChatService, sessions *service.SessionService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		chat:     chat,
		sessions: sessions,
		logger:   log,
	}
}

// List handles GET /api/v1/sessions/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.sessions.State(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	messages := state.Messages()
	if messages == nil {
		messages = []model.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, model.HistoryResponse{
		SessionID: sessionID,
		Messages:  messages,
		Files:     state.PersistentFiles(),
	})
}

// Send handles POST /api/v1/sessions/{id}/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.sessions.State(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	// One outstanding send per session; concurrent sends are rejected,
	// not queued.
	ok, err := h.sessions.BeginSend(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "a request is already in flight for this session")
		return
	}
	defer h.sessions.EndSend(sessionID)

	resp, err := h.chat.Send(ctx, sessionID, state, &req)
	if err != nil {
		h.logger.WithSession(middleware.GetCorrelationID(ctx), sessionID).
			Warn("send failed", zap.Error(err))
		writeClassifiedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
