package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/chat"
	"github.com/yusufkecer/healthhub/internal/domain"
	"github.com/yusufkecer/healthhub/internal/middleware"
)

type ChatService interface {
	Send(ctx context.Context, convID string, accountID int64, text string) (*domain.Conversation, domain.ChatMessage, error)
	Get(ctx context.Context, id string, accountID int64) (*domain.Conversation, error)
}

type ChatHandler struct {
	chat ChatService
	log  *zap.Logger
}

func NewChatHandler(c ChatService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: c, log: log}
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conv, reply, err := h.chat.Send(r.Context(), req.ConversationID, middleware.AccountID(r.Context()), req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) || errors.Is(err, chat.ErrMessageTooLong) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("chat send failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}
	writeJSON(w, http.StatusOK, domain.ChatResponse{ConversationID: conv.ID, Reply: reply})
}

func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	conv, err := h.chat.Get(r.Context(), mux.Vars(r)["id"], middleware.AccountID(r.Context()))
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error("chat load failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}
