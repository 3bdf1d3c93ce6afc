package conversation

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/nextchat-ai-platform/internal/booking"
	"github.com/wolfman30/nextchat-ai-platform/internal/leads"
	"github.com/wolfman30/nextchat-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

// BookingOutcome classifies what the orchestrator did for one inbound message.
type BookingOutcome string

const (
	OutcomeNotAttempted   BookingOutcome = "not_attempted"
	OutcomeBooked         BookingOutcome = "booked"
	OutcomeMissingFields  BookingOutcome = "missing_fields"
	OutcomeTransportError BookingOutcome = "transport_error"
)

// BookingAttempt is the per-turn scheduling result fed into the prompt.
type BookingAttempt struct {
	EventTypes    []booking.EventType
	Outcome       BookingOutcome
	BookingLink   string
	EventName     string
	MissingFields []string
	// Booking is set when a booking call was made.
	Booking *booking.BookingResult
}

// Attempted reports whether a booking directive belongs in the prompt.
func (a BookingAttempt) Attempted() bool {
	return a.Outcome != "" && a.Outcome != OutcomeNotAttempted
}

// SchedulingClient is the booking capability the orchestrator drives.
type SchedulingClient interface {
	ListEventTypes(ctx context.Context, userID string) ([]booking.EventType, error)
	BookAppointment(ctx context.Context, userID string, lead leads.LeadState, eventTypeURI string) booking.BookingResult
}

var schedulingKeywords = []string{
	"termin", "meeting", "besprechung", "gespräch", "call", "buchen", "reservieren",
	"kalender", "kalendar", "calendly", "zeitplan", "verfügbarkeit", "wann passt es", "treffen",
}

// HasSchedulingIntent reports whether message mentions scheduling or the lead
// is already in a scheduling stage.
func HasSchedulingIntent(message string, state leads.LeadState) bool {
	if state.Stage == leads.StageScheduling || state.Stage == leads.StageReadyToBook {
		return true
	}
	lower := strings.ToLower(message)
	for _, keyword := range schedulingKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Orchestrator decides per message whether to discover event types and book.
type Orchestrator struct {
	client  SchedulingClient
	logger  *logging.Logger
	metrics *metrics.EngineMetrics
	tracer  trace.Tracer
}

// NewOrchestrator creates an orchestrator. A nil client disables scheduling.
func NewOrchestrator(client SchedulingClient, logger *logging.Logger, m *metrics.EngineMetrics) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		client:  client,
		logger:  logger.WithComponent("scheduling"),
		metrics: m,
		tracer:  otel.Tracer("nextchat.internal.conversation.scheduling"),
	}
}

// MaybeSchedule runs at most one discovery call and one booking call. It never
// fails: unconfigured integrations and discovery failures degrade to
// not_attempted, booking failures still surface the scheduling link.
func (o *Orchestrator) MaybeSchedule(ctx context.Context, userID, message string, state leads.LeadState) BookingAttempt {
	ctx, span := o.tracer.Start(ctx, "conversation.maybe_schedule")
	defer span.End()

	attempt := o.maybeSchedule(ctx, userID, message, state)
	span.SetAttributes(
		attribute.String("booking.outcome", string(attempt.Outcome)),
		attribute.String("lead.stage", string(state.Stage)),
		attribute.Int("booking.event_types", len(attempt.EventTypes)),
	)
	o.metrics.ObserveBookingAttempt(string(attempt.Outcome))
	return attempt
}

func (o *Orchestrator) maybeSchedule(ctx context.Context, userID, message string, state leads.LeadState) BookingAttempt {
	notAttempted := BookingAttempt{Outcome: OutcomeNotAttempted}
	if o.client == nil || strings.TrimSpace(userID) == "" || !HasSchedulingIntent(message, state) {
		return notAttempted
	}

	eventTypes, err := o.client.ListEventTypes(ctx, userID)
	switch {
	case errors.Is(err, booking.ErrNotConfigured):
		return notAttempted
	case err != nil:
		o.logger.Warn("event type discovery failed", "user_id", userID, "error", err)
		return notAttempted
	case len(eventTypes) == 0:
		o.logger.Info("no event types available", "user_id", userID)
		return notAttempted
	}

	first := eventTypes[0]
	attempt := BookingAttempt{
		EventTypes:  eventTypes,
		BookingLink: first.SchedulingURL,
		EventName:   first.Name,
	}

	if state.Stage != leads.StageReadyToBook || !state.CanBook() {
		attempt.Outcome = OutcomeMissingFields
		attempt.MissingFields = state.MissingFields()
		return attempt
	}

	result := o.client.BookAppointment(ctx, userID, state, first.URI)
	attempt.Booking = &result
	switch result.Status {
	case booking.StatusBooked:
		attempt.Outcome = OutcomeBooked
		if result.BookingLink != "" {
			attempt.BookingLink = result.BookingLink
		}
		if result.EventName != "" {
			attempt.EventName = result.EventName
		}
	case booking.StatusMissingFields:
		attempt.Outcome = OutcomeMissingFields
		attempt.MissingFields = result.MissingFields
	default:
		attempt.Outcome = OutcomeTransportError
		attempt.MissingFields = result.MissingFields
	}
	return attempt
}
