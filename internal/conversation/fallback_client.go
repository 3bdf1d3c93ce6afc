package conversation

import (
	"context"
	"errors"

	"github.com/wolfman30/nextchat-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

// FallbackLLMClient implements the on_error policy: a failed completion on
// the primary provider is retried once on the secondary. Malformed requests
// and cancelled contexts are not retried.
type FallbackLLMClient struct {
	primary   LLMClient
	secondary LLMClient
	logger    *logging.Logger
}

// NewFallbackLLMClient wraps primary. A nil secondary disables the retry.
func NewFallbackLLMClient(primary, secondary LLMClient, logger *logging.Logger) *FallbackLLMClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{
		primary:   primary,
		secondary: secondary,
		logger:    logger.WithComponent("llm.fallback"),
	}
}

func (c *FallbackLLMClient) Provider() string { return providerName(c.primary) }

func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil || !c.retryable(ctx, err) {
		return resp, err
	}

	c.logger.Warn("primary provider failed, retrying on secondary",
		"primary", providerName(c.primary),
		"secondary", providerName(c.secondary),
		"error", err,
	)
	resp, secondErr := c.secondary.Complete(ctx, req)
	if secondErr != nil {
		c.logger.Error("secondary provider failed",
			"primary_error", err,
			"secondary_error", secondErr,
		)
		return LLMResponse{}, secondErr
	}
	return resp, nil
}

func (c *FallbackLLMClient) retryable(ctx context.Context, err error) bool {
	if c.secondary == nil || ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, errNoUserTurn)
}

// instrumentedClient counts requests per provider and outcome.
type instrumentedClient struct {
	LLMClient
	metrics *metrics.EngineMetrics
}

func instrument(c LLMClient, m *metrics.EngineMetrics) LLMClient {
	if c == nil {
		return nil
	}
	return &instrumentedClient{LLMClient: c, metrics: m}
}

func (c *instrumentedClient) Provider() string { return providerName(c.LLMClient) }

func (c *instrumentedClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.LLMClient.Complete(ctx, req)
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case resp.Text == "":
		status = "empty"
	}
	c.metrics.ObserveLLMRequest(c.Provider(), status)
	return resp, err
}
