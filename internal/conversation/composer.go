package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/nextchat-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

// Fixed replies. Compose returns one of these instead of an error.
const (
	ApologyMessage      = "Entschuldigung, ich konnte keine Antwort generieren. Bitte versuchen Sie es später erneut."
	EmptyReplyMessage   = "Entschuldigung, ich konnte keine Antwort generieren."
	DefaultSystemPrompt = "Du bist ein hilfreicher, freundlicher Assistent."
)

// FallbackPolicy controls whether the remote provider is retried when the
// local one fails.
type FallbackPolicy string

const (
	// FallbackDocumented calls only the selected provider.
	FallbackDocumented FallbackPolicy = "documented"
	// FallbackOnError retries with the other provider when the first one errors.
	FallbackOnError FallbackPolicy = "on_error"
)

// ParseFallbackPolicy maps a config value to a policy. Unknown values are rejected.
func ParseFallbackPolicy(value string) (FallbackPolicy, error) {
	switch FallbackPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", FallbackDocumented:
		return FallbackDocumented, nil
	case FallbackOnError:
		return FallbackOnError, nil
	default:
		return "", fmt.Errorf("conversation: unknown llm fallback policy %q", value)
	}
}

// ComposerConfig selects and tunes the text-generation provider.
type ComposerConfig struct {
	UseLocal    bool
	Local       LLMClient
	Remote      LLMClient
	Fallback    FallbackPolicy
	Temperature float32
	MaxTokens   int32
	Timeout     time.Duration
}

// Composer turns a finished prompt into reply text.
type Composer struct {
	client      LLMClient
	temperature float32
	maxTokens   int32
	timeout     time.Duration
	logger      *logging.Logger
}

// NewComposer picks the primary provider from UseLocal. With FallbackOnError
// the other provider is used as a secondary.
func NewComposer(cfg ComposerConfig, logger *logging.Logger, m *metrics.EngineMetrics) *Composer {
	if logger == nil {
		logger = logging.Default()
	}
	local := instrument(cfg.Local, m)
	remote := instrument(cfg.Remote, m)

	primary, secondary := remote, local
	if cfg.UseLocal {
		primary, secondary = local, remote
	}
	client := primary
	if cfg.Fallback == FallbackOnError && primary != nil && secondary != nil {
		client = NewFallbackLLMClient(primary, secondary, logger)
	}
	return &Composer{
		client:      client,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		logger:      logger.WithComponent("composer"),
	}
}

// Provider names the primary provider.
func (c *Composer) Provider() string {
	if c == nil || c.client == nil {
		return "none"
	}
	return providerName(c.client)
}

// Compose sends prompt as a single user message. Provider errors yield
// ApologyMessage and an empty completion yields EmptyReplyMessage.
func (c *Composer) Compose(ctx context.Context, prompt, systemPrompt string) string {
	if c == nil || c.client == nil {
		return ApologyMessage
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.client.Complete(ctx, LLMRequest{
		System:      []string{systemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		c.logger.Error("text generation failed",
			"provider", c.Provider(),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return ApologyMessage
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		c.logger.Warn("text generation returned no content", "provider", c.Provider(), "model", resp.Model)
		return EmptyReplyMessage
	}
	c.logger.Debug("text generated",
		"provider", c.Provider(),
		"model", resp.Model,
		"output_tokens", resp.Usage.OutputTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text
}
