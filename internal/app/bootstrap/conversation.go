package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/nextchat-ai-platform/internal/booking"
	"github.com/wolfman30/nextchat-ai-platform/internal/bridge"
	appconfig "github.com/wolfman30/nextchat-ai-platform/internal/config"
	"github.com/wolfman30/nextchat-ai-platform/internal/conversation"
	"github.com/wolfman30/nextchat-ai-platform/internal/leads"
	"github.com/wolfman30/nextchat-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

// BuildComposer wires the local and remote text-generation providers. A remote
// provider that cannot be constructed is logged and left out.
func BuildComposer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, m *metrics.EngineMetrics) (*conversation.Composer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	policy, err := conversation.ParseFallbackPolicy(cfg.LLMFallbackPolicy)
	if err != nil {
		return nil, err
	}

	local := conversation.NewOllamaLLMClient(cfg.OllamaEndpoint, cfg.OllamaModel, cfg.LLMTimeout)

	var remote conversation.LLMClient
	switch cfg.LLMRemoteProvider {
	case "", "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			logger.Warn("gemini api key not configured; remote provider disabled")
			break
		}
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			break
		}
		remote = client
	case "bedrock":
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			logger.Warn("bedrock model not configured; remote provider disabled")
			break
		}
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load aws config", "error", err)
			break
		}
		remote = conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
	default:
		return nil, fmt.Errorf("bootstrap: unknown llm remote provider %q", cfg.LLMRemoteProvider)
	}

	if !cfg.LLMUseLocal && remote == nil {
		logger.Warn("remote provider selected but unavailable; replies will use the apology text")
	}
	logger.Info("text generation configured",
		"use_local", cfg.LLMUseLocal,
		"remote_provider", cfg.LLMRemoteProvider,
		"fallback_policy", policy,
	)

	return conversation.NewComposer(conversation.ComposerConfig{
		UseLocal:    cfg.LLMUseLocal,
		Local:       local,
		Remote:      remote,
		Fallback:    policy,
		Temperature: float32(cfg.LLMTemperature),
		MaxTokens:   int32(cfg.LLMMaxTokens),
		Timeout:     cfg.LLMTimeout,
	}, logger, m), nil
}

// LoadAWSConfig loads the default AWS chain, preferring static keys when both are set.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, loaders...)
}

// BuildCredentialStore returns the Postgres store, or an empty in-memory store without a pool.
func BuildCredentialStore(pool *pgxpool.Pool) booking.CredentialStore {
	if pool == nil {
		return booking.NewMemoryCredentialStore()
	}
	return booking.NewPostgresCredentialStore(pool)
}

// BuildProcessRunner builds the one-shot worker runner from config.
func BuildProcessRunner(cfg *appconfig.Config, logger *logging.Logger, m *metrics.EngineMetrics) *bridge.ProcessRunner {
	return bridge.NewProcessRunner(bridge.ProcessConfig{
		Command:  cfg.BridgeCommand,
		Args:     cfg.BridgeArgs,
		TokenEnv: cfg.BridgeTokenEnv,
		Timeout:  cfg.BridgeTimeout,
	}, logger, m)
}

// BuildBookingClient wires the booking client with both bridge transports.
func BuildBookingClient(cfg *appconfig.Config, store booking.CredentialStore, process bridge.Runner, logger *logging.Logger, m *metrics.EngineMetrics) *booking.Client {
	remote := bridge.NewHTTPRunner(&http.Client{}, cfg.BridgeServerName, cfg.BridgeSharedSecret, cfg.BridgeTimeout, logger, m)
	return booking.NewClient(store, process, logger,
		booking.WithRemoteRunner(remote),
		booking.WithPhoneRegion(leads.DefaultPhoneRegion),
	)
}

// BuildEngine wires extraction, scheduling and composition.
func BuildEngine(scheduler conversation.SchedulingClient, composer *conversation.Composer, logger *logging.Logger, m *metrics.EngineMetrics) *conversation.Engine {
	orchestrator := conversation.NewOrchestrator(scheduler, logger, m)
	return conversation.NewEngine(leads.NewExtractor(leads.GermanPatterns()), orchestrator, composer, logger, m)
}
