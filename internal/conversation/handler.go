package conversation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

// OwnerDirectory maps a public bot id to the account whose calendar it books into.
type OwnerDirectory interface {
	LookupOwner(botID string) (userID string, ok bool)
}

// Handler wires HTTP requests to the chat service.
type Handler struct {
	service Service
	owners  OwnerDirectory
	logger  *logging.Logger
}

// NewHandler creates a conversation handler. A nil owners directory serves
// every request without a calendar owner.
func NewHandler(service Service, owners OwnerDirectory, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		owners:  owners,
		logger:  logger,
	}
}

// Chat handles POST /api/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode chat request", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if botID := strings.TrimSpace(req.BotID); botID != "" {
		owner, ok := "", false
		if h.owners != nil {
			owner, ok = h.owners.LookupOwner(botID)
		}
		if !ok {
			h.writeError(w, http.StatusNotFound, "unknown bot")
			return
		}
		req.UserID = owner
	}

	resp, err := h.service.HandleMessage(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmptyMessage) {
			h.writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		h.logger.Error("failed to handle chat message", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// History handles GET /api/chat/{conversationID}.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		h.writeError(w, http.StatusBadRequest, "conversationID required")
		return
	}

	msgs, err := h.service.History(r.Context(), conversationID)
	if err != nil {
		if errors.Is(err, ErrUnknownConversation) {
			h.writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("failed to load history", "conversation_id", conversationID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"conversationId": conversationID,
		"messages":       msgs,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
