package webchat

import (
	"time"

	"github.com/wolfman30/nextchat-ai-platform/internal/conversation"
	"github.com/wolfman30/nextchat-ai-platform/internal/leads"
)

// Frame types exchanged with the embed widget.
const (
	frameMessage = "message"
	framePing    = "ping"
	framePong    = "pong"
	frameTyping  = "typing"
	frameHistory = "history"
	frameSession = "session"
	frameError   = "error"
)

// InboundMessage is a frame sent by the widget.
type InboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// OutboundMessage is a frame pushed to the widget.
type OutboundMessage struct {
	Type      string           `json:"type"`
	Text      string           `json:"text,omitempty"`
	Role      string           `json:"role,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	MessageID string           `json:"message_id,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
}

type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// widgetRole maps transcript roles to the widget's vocabulary.
func widgetRole(role leads.Role) string {
	if role == leads.RoleBot {
		return "assistant"
	}
	return "user"
}

func historyFrames(msgs []conversation.TranscriptMessage) []HistoryMessage {
	history := make([]HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, HistoryMessage{
			Role:      widgetRole(m.Role),
			Text:      m.Content,
			Timestamp: m.Timestamp.Format(time.RFC3339),
		})
	}
	return history
}

// recentHistory keeps the last historyFrameLimit messages for the connect frame.
func recentHistory(msgs []conversation.TranscriptMessage) []conversation.TranscriptMessage {
	if len(msgs) > historyFrameLimit {
		return msgs[len(msgs)-historyFrameLimit:]
	}
	return msgs
}

func replyFrame(resp *conversation.ChatResponse) OutboundMessage {
	return OutboundMessage{
		Type:      frameMessage,
		Role:      "assistant",
		Text:      resp.Response,
		MessageID: resp.MessageID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
