package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/nextchat-ai-platform/internal/leads"
)

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one provider-facing message. Transcript turns authored by the
// bot are accepted under their transcript role and sent as assistant turns.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// LLMRequest is the provider-neutral completion request. A zero or negative
// Temperature leaves the provider default in place.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// LLMResponse carries the generated text. Text may be empty; callers decide
// what an empty completion means.
type LLMResponse struct {
	Text       string
	Model      string
	Usage      TokenUsage
	StopReason string
}

// LLMClient is the opaque text-generation capability.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

var errNoUserTurn = errors.New("conversation: completion request has no user turn")

// normalizedRequest is an LLMRequest split into system text and alternating
// user/assistant turns, ready for a provider SDK.
type normalizedRequest struct {
	system []string
	turns  []ChatMessage
}

// normalize lifts system-role messages into the system block, drops blank
// content and maps bot turns to the assistant role. The last turn must be
// from the user.
func normalize(req LLMRequest) (normalizedRequest, error) {
	var out normalizedRequest
	for _, block := range req.System {
		if block = strings.TrimSpace(block); block != "" {
			out.system = append(out.system, block)
		}
	}
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch strings.ToLower(msg.Role) {
		case ChatRoleSystem:
			out.system = append(out.system, content)
		case ChatRoleUser:
			out.turns = append(out.turns, ChatMessage{Role: ChatRoleUser, Content: content})
		case ChatRoleAssistant, string(leads.RoleBot):
			out.turns = append(out.turns, ChatMessage{Role: ChatRoleAssistant, Content: content})
		default:
			return normalizedRequest{}, fmt.Errorf("conversation: unsupported role %q", msg.Role)
		}
	}
	if len(out.turns) == 0 || out.turns[len(out.turns)-1].Role != ChatRoleUser {
		return normalizedRequest{}, errNoUserTurn
	}
	return out, nil
}

func (n normalizedRequest) systemText() string {
	return strings.Join(n.system, "\n\n")
}

// providerName labels metrics and logs for a client.
func providerName(c LLMClient) string {
	if named, ok := c.(interface{ Provider() string }); ok {
		return named.Provider()
	}
	return "unknown"
}
