package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/nextchat-ai-platform/internal/leads"
)

const (
	transcriptKeyPrefix = "chat_transcript:"
	transcriptTTL       = 30 * 24 * time.Hour

	// DefaultTranscriptMaxMessages caps how many turns a conversation keeps.
	DefaultTranscriptMaxMessages = 250
)

// TranscriptMessage is one stored turn.
type TranscriptMessage struct {
	ID        string     `json:"id"`
	Role      leads.Role `json:"role"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
}

// Turn converts the stored message for the extractor and the prompt.
func (m TranscriptMessage) Turn() leads.Turn {
	return leads.Turn{Role: m.Role, Content: m.Content}
}

// TranscriptStore persists conversation turns, oldest first.
type TranscriptStore interface {
	Append(ctx context.Context, conversationID string, msgs ...TranscriptMessage) error
	// Load returns the stored turns and whether the conversation exists.
	Load(ctx context.Context, conversationID string) ([]TranscriptMessage, bool, error)
}

// Turns converts stored messages to transcript turns.
func Turns(msgs []TranscriptMessage) []leads.Turn {
	out := make([]leads.Turn, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, msg.Turn())
	}
	return out
}

func stampMessage(msg TranscriptMessage) TranscriptMessage {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return msg
}

// RedisTranscriptStore keeps each conversation in a capped Redis list.
type RedisTranscriptStore struct {
	redis       redis.UniversalClient
	tracer      trace.Tracer
	maxMessages int64
}

var _ TranscriptStore = (*RedisTranscriptStore)(nil)

// NewRedisTranscriptStore creates a store. maxMessages <= 0 uses DefaultTranscriptMaxMessages.
func NewRedisTranscriptStore(client redis.UniversalClient, maxMessages int) *RedisTranscriptStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if maxMessages <= 0 {
		maxMessages = DefaultTranscriptMaxMessages
	}
	return &RedisTranscriptStore{
		redis:       client,
		tracer:      otel.Tracer("nextchat.internal.conversation.transcript"),
		maxMessages: int64(maxMessages),
	}
}

func (s *RedisTranscriptStore) Append(ctx context.Context, conversationID string, msgs ...TranscriptMessage) error {
	if conversationID == "" {
		return errors.New("conversation: transcript conversationID required")
	}
	if len(msgs) == 0 {
		return nil
	}

	values := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(stampMessage(msg))
		if err != nil {
			return fmt.Errorf("conversation: marshal transcript message: %w", err)
		}
		values = append(values, data)
	}

	ctx, span := s.tracer.Start(ctx, "conversation.transcript.append")
	defer span.End()

	key := transcriptKey(conversationID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, transcriptTTL)
	pipe.LTrim(ctx, key, -s.maxMessages, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: append transcript: %w", err)
	}
	return nil
}

func (s *RedisTranscriptStore) Load(ctx context.Context, conversationID string) ([]TranscriptMessage, bool, error) {
	if conversationID == "" {
		return nil, false, errors.New("conversation: transcript conversationID required")
	}

	ctx, span := s.tracer.Start(ctx, "conversation.transcript.load")
	defer span.End()

	raw, err := s.redis.LRange(ctx, transcriptKey(conversationID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		span.RecordError(err)
		return nil, false, fmt.Errorf("conversation: load transcript: %w", err)
	}

	out := make([]TranscriptMessage, 0, len(raw))
	for _, item := range raw {
		var msg TranscriptMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, msg)
	}
	return out, len(raw) > 0, nil
}

func transcriptKey(conversationID string) string {
	return transcriptKeyPrefix + conversationID
}

// MemoryTranscriptStore is the in-process store used when Redis is not configured.
type MemoryTranscriptStore struct {
	mu          sync.RWMutex
	data        map[string][]TranscriptMessage
	maxMessages int
}

var _ TranscriptStore = (*MemoryTranscriptStore)(nil)

func NewMemoryTranscriptStore(maxMessages int) *MemoryTranscriptStore {
	if maxMessages <= 0 {
		maxMessages = DefaultTranscriptMaxMessages
	}
	return &MemoryTranscriptStore{
		data:        make(map[string][]TranscriptMessage),
		maxMessages: maxMessages,
	}
}

func (s *MemoryTranscriptStore) Append(_ context.Context, conversationID string, msgs ...TranscriptMessage) error {
	if conversationID == "" {
		return errors.New("conversation: transcript conversationID required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.data[conversationID]
	for _, msg := range msgs {
		list = append(list, stampMessage(msg))
	}
	if len(list) > s.maxMessages {
		list = append([]TranscriptMessage(nil), list[len(list)-s.maxMessages:]...)
	}
	s.data[conversationID] = list
	return nil
}

func (s *MemoryTranscriptStore) Load(_ context.Context, conversationID string) ([]TranscriptMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.data[conversationID]
	if !ok {
		return []TranscriptMessage{}, false, nil
	}
	return append([]TranscriptMessage(nil), list...), true, nil
}
