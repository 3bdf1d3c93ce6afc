package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wolfman30/nextchat-ai-platform/internal/leads"
	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

var (
	// ErrUnknownConversation is returned by History for ids with no stored turns.
	ErrUnknownConversation = errors.New("conversation: unknown conversation")
	// ErrEmptyMessage is returned when the inbound message is blank.
	ErrEmptyMessage = errors.New("conversation: message required")
)

// Service is the inbound boundary of the chat engine.
type Service interface {
	HandleMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	History(ctx context.Context, conversationID string) ([]TranscriptMessage, error)
}

// ChatRequest is a visitor message addressed to a bot.
type ChatRequest struct {
	Message string `json:"message"`
	// ConversationID continues a conversation. Empty starts a new one.
	ConversationID string `json:"conversationId,omitempty"`
	// BotID names a registered bot. The HTTP handler resolves its owner.
	BotID string `json:"botId,omitempty"`
	// UserID is the bot owner, used for the calendar integration. It is set
	// server side and never decoded from a request body.
	UserID  string      `json:"-"`
	Profile *BotProfile `json:"profile,omitempty"`
	// Context and Persona override what the profile renders.
	Context string `json:"context,omitempty"`
	Persona string `json:"persona,omitempty"`
}

// ChatResponse carries the bot reply.
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

// Generator produces a reply for one message. *Engine implements it.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) string
}

// ChatService loads the transcript, generates the reply and stores both turns.
type ChatService struct {
	engine Generator
	store  TranscriptStore
	logger *logging.Logger
}

var _ Service = (*ChatService)(nil)

func NewChatService(engine Generator, store TranscriptStore, logger *logging.Logger) *ChatService {
	if engine == nil {
		panic("conversation: engine cannot be nil")
	}
	if store == nil {
		store = NewMemoryTranscriptStore(0)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatService{
		engine: engine,
		store:  store,
		logger: logger.WithComponent("chat"),
	}
}

// HandleMessage only fails when the transcript store does; generation never fails.
// A conversation id with no stored turns starts that conversation.
func (s *ChatService) HandleMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = newConversationID()
	}

	stored, _, err := s.store.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	botContext, persona := req.Context, req.Persona
	if req.Profile != nil {
		if strings.TrimSpace(botContext) == "" {
			botContext = req.Profile.RenderContext()
		}
		if strings.TrimSpace(persona) == "" {
			persona = req.Profile.Persona()
		}
	}

	reply := s.engine.Generate(ctx, GenerateRequest{
		Message:       message,
		BotContext:    botContext,
		SystemPersona: persona,
		UserID:        req.UserID,
		Transcript:    Turns(stored),
	})

	userMsg := stampMessage(TranscriptMessage{Role: leads.RoleUser, Content: message})
	botMsg := stampMessage(TranscriptMessage{Role: leads.RoleBot, Content: reply})
	if err := s.store.Append(ctx, conversationID, userMsg, botMsg); err != nil {
		return nil, fmt.Errorf("conversation: store turns: %w", err)
	}

	s.logger.Info("chat message handled",
		"conversation_id", conversationID,
		"user_id", req.UserID,
		"turns", len(stored)+2,
	)
	return &ChatResponse{
		Response:       reply,
		ConversationID: conversationID,
		MessageID:      botMsg.ID,
	}, nil
}

// History returns the stored turns, oldest first.
func (s *ChatService) History(ctx context.Context, conversationID string) ([]TranscriptMessage, error) {
	msgs, ok, err := s.store.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownConversation
	}
	return msgs, nil
}

func newConversationID() string {
	return "conv_" + uuid.NewString()
}
