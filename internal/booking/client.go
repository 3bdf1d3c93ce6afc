package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/nextchat-ai-platform/internal/bridge"
	"github.com/wolfman30/nextchat-ai-platform/internal/leads"
	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

// Client is the scheduling integration client used by the orchestrator.
type Client struct {
	credentials CredentialStore
	process     bridge.Runner
	remote      bridge.Runner
	phoneRegion string
	logger      *logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithRemoteRunner sets the runner used for credentials that carry a bridge URL.
func WithRemoteRunner(r bridge.Runner) Option {
	return func(c *Client) {
		c.remote = r
	}
}

// WithPhoneRegion sets the region assumed for phone numbers without a country prefix.
func WithPhoneRegion(region string) Option {
	return func(c *Client) {
		if region != "" {
			c.phoneRegion = region
		}
	}
}

// NewClient creates a booking client. process handles credentials without a bridge URL.
func NewClient(credentials CredentialStore, process bridge.Runner, logger *logging.Logger, opts ...Option) *Client {
	if credentials == nil {
		panic("booking: credential store required")
	}
	if process == nil {
		panic("booking: bridge runner required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		credentials: credentials,
		process:     process,
		phoneRegion: leads.DefaultPhoneRegion,
		logger:      logger.WithComponent("booking"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LookupTarget resolves the bridge target for userID. It lets the bridge HTTP
// endpoint share the credential store.
func (c *Client) LookupTarget(ctx context.Context, userID string) (bridge.Target, bool, error) {
	cred, err := c.credentials.GetCredential(ctx, userID)
	if errors.Is(err, ErrNotConfigured) {
		return bridge.Target{}, false, nil
	}
	if err != nil {
		return bridge.Target{}, false, err
	}
	return targetFor(cred), true, nil
}

// ListEventTypes discovers the user's event types. It returns (nil,
// ErrNotConfigured) when the integration is absent and a non-nil empty slice
// with an error wrapping ErrTransport when the call fails.
func (c *Client) ListEventTypes(ctx context.Context, userID string) ([]EventType, error) {
	cred, err := c.credentials.GetCredential(ctx, userID)
	if errors.Is(err, ErrNotConfigured) {
		c.logger.Debug("no scheduling integration", "user_id", userID)
		return nil, ErrNotConfigured
	}
	if err != nil {
		return []EventType{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	resp, err := c.runnerFor(cred).Call(ctx, targetFor(cred), bridge.NewRequest(bridge.MethodListEventTypes, nil))
	if err != nil {
		return []EventType{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	var eventTypes []EventType
	if err := resp.DecodeResult(&eventTypes); err != nil {
		c.logger.Warn("list_event_types rejected", "user_id", userID, "error", err)
		return []EventType{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if eventTypes == nil {
		eventTypes = []EventType{}
	}
	c.logger.Info("event types discovered", "user_id", userID, "count", len(eventTypes))
	return eventTypes, nil
}

// workerBooking is the worker's book_appointment result.
type workerBooking struct {
	Success       bool        `json:"success"`
	Message       string      `json:"message"`
	BookingLink   string      `json:"booking_link"`
	EventName     string      `json:"event_name"`
	Participant   Participant `json:"participant"`
	PreferredTime string      `json:"preferred_time"`
	Notes         string      `json:"notes"`
	Error         string      `json:"error"`
}

// BookAppointment books eventTypeURI for the lead. It never returns an error:
// missing name or email yields StatusMissingFields without a bridge call, and
// every other failure yields StatusError.
func (c *Client) BookAppointment(ctx context.Context, userID string, lead leads.LeadState, eventTypeURI string) BookingResult {
	if missing := lead.MissingBookingFields(); len(missing) > 0 {
		return BookingResult{
			Status:        StatusMissingFields,
			Message:       "Fehlende Informationen",
			MissingFields: missing,
		}
	}

	cred, err := c.credentials.GetCredential(ctx, userID)
	if err != nil {
		return c.failed(userID, err)
	}

	params := map[string]any{
		"event_type_uri": eventTypeURI,
		"name":           lead.Name,
		"email":          lead.Email,
		"phone":          leads.NormalizePhone(lead.Phone, c.phoneRegion),
		"date":           NormalizeDate(lead.PreferredDate),
		"time":           NormalizeTime(lead.PreferredTime),
		"notes":          fmt.Sprintf("Lead aus NextChat - Score: %d", lead.LeadScore),
	}
	resp, err := c.runnerFor(cred).Call(ctx, targetFor(cred), bridge.NewRequest(bridge.MethodBookAppointment, params))
	if err != nil {
		return c.failed(userID, fmt.Errorf("%w: %w", ErrTransport, err))
	}

	var out workerBooking
	if err := resp.DecodeResult(&out); err != nil {
		return c.failed(userID, fmt.Errorf("%w: %w", ErrTransport, err))
	}
	if strings.TrimSpace(out.Error) != "" {
		return c.failed(userID, fmt.Errorf("%w: worker: %s", ErrTransport, out.Error))
	}

	c.logger.Info("appointment booked", "user_id", userID, "event_name", out.EventName)
	return BookingResult{
		Status:        StatusBooked,
		Message:       out.Message,
		BookingLink:   out.BookingLink,
		EventName:     out.EventName,
		Participant:   out.Participant,
		PreferredTime: out.PreferredTime,
		Notes:         out.Notes,
	}
}

func (c *Client) failed(userID string, err error) BookingResult {
	c.logger.Warn("booking failed", "user_id", userID, "error", err, "diagnostic", bridge.Diagnostic(err))
	return BookingResult{Status: StatusError, Error: err.Error()}
}

func (c *Client) runnerFor(cred *Credential) bridge.Runner {
	if cred.BridgeURL != "" && c.remote != nil {
		return c.remote
	}
	return c.process
}

func targetFor(cred *Credential) bridge.Target {
	return bridge.Target{
		UserID:      cred.UserID,
		AccessToken: cred.AccessToken,
		BridgeURL:   cred.BridgeURL,
	}
}
