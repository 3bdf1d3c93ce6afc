package conversation

import (
	"context"

	"github.com/wolfman30/nextchat-ai-platform/internal/leads"
	"github.com/wolfman30/nextchat-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

// GenerateRequest is one inbound visitor message plus its context.
type GenerateRequest struct {
	Message       string
	BotContext    string
	SystemPersona string
	// UserID is the bot owner whose calendar integration is used. Empty disables booking.
	UserID string
	// Transcript holds prior turns, oldest first, without Message.
	Transcript []leads.Turn
}

// Engine runs extraction, scheduling and composition for a single message.
type Engine struct {
	extractor    leads.Extractor
	orchestrator *Orchestrator
	composer     *Composer
	logger       *logging.Logger
	metrics      *metrics.EngineMetrics
}

// NewEngine wires the pipeline. A nil extractor uses the German defaults.
func NewEngine(extractor leads.Extractor, orchestrator *Orchestrator, composer *Composer, logger *logging.Logger, m *metrics.EngineMetrics) *Engine {
	if extractor == nil {
		extractor = leads.NewExtractor(leads.GermanPatterns())
	}
	if orchestrator == nil {
		orchestrator = NewOrchestrator(nil, logger, m)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		extractor:    extractor,
		orchestrator: orchestrator,
		composer:     composer,
		logger:       logger.WithComponent("engine"),
		metrics:      m,
	}
}

// Generate returns the bot reply. It never fails; every degraded path ends in
// a fixed German message.
func (e *Engine) Generate(ctx context.Context, req GenerateRequest) string {
	scan := make([]leads.Turn, 0, len(req.Transcript)+1)
	scan = append(scan, req.Transcript...)
	scan = append(scan, leads.Turn{Role: leads.RoleUser, Content: req.Message})
	state := e.extractor.Extract(scan)
	e.metrics.ObserveLeadStage(string(state.Stage))

	attempt := e.orchestrator.MaybeSchedule(ctx, req.UserID, req.Message, state)

	prompt := BuildPrompt(PromptInput{
		Message:       req.Message,
		BotContext:    req.BotContext,
		SystemPersona: req.SystemPersona,
		Transcript:    req.Transcript,
		Lead:          state,
		Attempt:       attempt,
	})

	e.logger.Debug("reply pipeline",
		"stage", state.Stage,
		"lead_score", state.LeadScore,
		"booking_outcome", attempt.Outcome,
	)
	return e.composer.Compose(ctx, prompt, req.SystemPersona)
}
