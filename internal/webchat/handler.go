package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/nextchat-ai-platform/internal/conversation"
	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

const (
	historyFrameLimit = 50
	maxMessageBytes   = 64 << 10
	genericErrorText  = "Entschuldigung, da ist etwas schiefgelaufen. Bitte versuchen Sie es erneut."
)

// Handler serves the embeddable chat widget over WebSocket with an HTTP
// fallback. Every visitor message is answered through the chat service under
// the bot owner's user id.
type Handler struct {
	chat   conversation.Service
	bots   BotDirectory
	logger *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*session // conversation id -> open socket
}

// session is one open widget socket.
type session struct {
	bot    Bot
	id     string
	convID string

	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *session) send(msg OutboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return websocket.JSON.Send(s.conn, msg)
}

// NewHandler creates a web chat handler.
func NewHandler(chat conversation.Service, bots BotDirectory, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if bots == nil {
		bots = StaticDirectory{}
	}
	return &Handler{
		chat:     chat,
		bots:     bots,
		logger:   logger.WithComponent("webchat"),
		sessions: make(map[string]*session),
	}
}

// ConversationID builds the transcript key for a widget session.
func ConversationID(botID, sessionID string) string {
	return fmt.Sprintf("webchat:%s:%s", botID, sessionID)
}

func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket serves GET /webchat/ws?bot=<id>&session=<id>.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		conn.MaxPayloadBytes = maxMessageBytes
		h.serveSocket(r.Context(), conn, r.URL.Query().Get("bot"), r.URL.Query().Get("session"))
	}).ServeHTTP(w, r)
}

func (h *Handler) serveSocket(ctx context.Context, conn *websocket.Conn, botID, sessionID string) {
	bot, ok := h.bots.LookupBot(botID)
	if !ok {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: frameError, Text: "unknown bot"})
		return
	}
	if sessionID == "" {
		sessionID = generateSessionID()
	}
	s := &session{bot: bot, id: sessionID, convID: ConversationID(bot.ID, sessionID), conn: conn}

	h.register(s)
	defer h.unregister(s)

	_ = s.send(OutboundMessage{Type: frameSession, SessionID: sessionID})
	if msgs, err := h.chat.History(ctx, s.convID); err == nil && len(msgs) > 0 {
		_ = s.send(OutboundMessage{Type: frameHistory, Messages: historyFrames(recentHistory(msgs))})
	}
	h.logger.Info("connection opened", "bot_id", bot.ID, "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("connection closed", "bot_id", bot.ID, "session_id", sessionID, "error", err)
			return
		}
		h.handleFrame(ctx, s, msg)
	}
}

func (h *Handler) handleFrame(ctx context.Context, s *session, msg InboundMessage) {
	switch msg.Type {
	case framePing:
		_ = s.send(OutboundMessage{Type: framePong})
	case frameMessage:
		if strings.TrimSpace(msg.Text) == "" {
			return
		}
		_ = s.send(OutboundMessage{Type: frameTyping})
		resp, err := h.reply(ctx, s.bot, s.id, msg.Text)
		if err != nil {
			_ = s.send(OutboundMessage{Type: frameError, Text: genericErrorText})
			return
		}
		_ = s.send(replyFrame(resp))
	}
}

// register makes s the push target for its conversation; a newer socket for
// the same session replaces an older one.
func (h *Handler) register(s *session) {
	h.mu.Lock()
	h.sessions[s.convID] = s
	h.mu.Unlock()
}

func (h *Handler) unregister(s *session) {
	h.mu.Lock()
	if h.sessions[s.convID] == s {
		delete(h.sessions, s.convID)
	}
	h.mu.Unlock()
}

// SendToSession pushes msg to the open socket of a conversation. It reports
// false when no socket is open or the write failed.
func (h *Handler) SendToSession(convID string, msg OutboundMessage) bool {
	h.mu.RLock()
	s, ok := h.sessions[convID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return s.send(msg) == nil
}

func (h *Handler) reply(ctx context.Context, bot Bot, sessionID, text string) (*conversation.ChatResponse, error) {
	profile := bot.Profile
	resp, err := h.chat.HandleMessage(ctx, conversation.ChatRequest{
		Message:        text,
		ConversationID: ConversationID(bot.ID, sessionID),
		UserID:         bot.UserID,
		Profile:        &profile,
	})
	if err != nil {
		h.logger.Error("failed to handle message", "bot_id", bot.ID, "session_id", sessionID, "error", err)
		return nil, err
	}
	return resp, nil
}

// HandleMessage serves POST /webchat/message for widgets without WebSocket
// support. The reply is also pushed to the session's socket when one is open.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BotID     string `json:"bot_id"`
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.BotID == "" || strings.TrimSpace(req.Text) == "" {
		http.Error(w, "bot_id and text are required", http.StatusBadRequest)
		return
	}
	bot, ok := h.bots.LookupBot(req.BotID)
	if !ok {
		http.Error(w, "unknown bot", http.StatusNotFound)
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}

	resp, err := h.reply(r.Context(), bot, req.SessionID, req.Text)
	if err != nil {
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}
	h.SendToSession(resp.ConversationID, replyFrame(resp))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"reply":           resp.Response,
		"message_id":      resp.MessageID,
		"session_id":      req.SessionID,
		"conversation_id": resp.ConversationID,
	})
}

// HandleHistory serves GET /webchat/history?bot=<id>&session=<id>. Unknown
// sessions return an empty list.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	botID := r.URL.Query().Get("bot")
	sessionID := r.URL.Query().Get("session")
	if botID == "" || sessionID == "" {
		http.Error(w, "bot and session parameters required", http.StatusBadRequest)
		return
	}

	msgs, err := h.chat.History(r.Context(), ConversationID(botID, sessionID))
	if err != nil && !errors.Is(err, conversation.ErrUnknownConversation) {
		h.logger.Error("failed to load history", "bot_id", botID, "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": historyFrames(msgs)})
}
