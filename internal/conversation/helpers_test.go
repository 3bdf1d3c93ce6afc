package conversation

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/wolfman30/nextchat-ai-platform/internal/booking"
	"github.com/wolfman30/nextchat-ai-platform/internal/leads"
	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

func quietLogger() *logging.Logger {
	return logging.NewWithWriter(io.Discard, "error")
}

type stubLLM struct {
	mu       sync.Mutex
	name     string
	text     string
	err      error
	calls    int
	requests []LLMRequest
}

func (s *stubLLM) Provider() string { return s.name }

func (s *stubLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.requests = append(s.requests, req)
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	return LLMResponse{Text: s.text, Model: s.name + "-model"}, nil
}

func (s *stubLLM) lastRequest() LLMRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return LLMRequest{}
	}
	return s.requests[len(s.requests)-1]
}

type stubScheduler struct {
	eventTypes []booking.EventType
	listErr    error
	result     booking.BookingResult

	listCalls  int
	bookCalls  int
	bookedLead leads.LeadState
	bookedURI  string
}

func (s *stubScheduler) ListEventTypes(_ context.Context, _ string) ([]booking.EventType, error) {
	s.listCalls++
	if s.listErr != nil {
		if errors.Is(s.listErr, booking.ErrNotConfigured) {
			return nil, s.listErr
		}
		return []booking.EventType{}, s.listErr
	}
	return s.eventTypes, nil
}

func (s *stubScheduler) BookAppointment(_ context.Context, _ string, lead leads.LeadState, uri string) booking.BookingResult {
	s.bookCalls++
	s.bookedLead = lead
	s.bookedURI = uri
	return s.result
}

var demoEventType = booking.EventType{
	Name:            "Beratung",
	DurationMinutes: 30,
	SchedulingURL:   "https://calendly.com/acme/beratung",
	URI:             "https://api.calendly.com/event_types/ET1",
}

func userTurns(contents ...string) []leads.Turn {
	out := make([]leads.Turn, 0, len(contents))
	for _, c := range contents {
		out = append(out, leads.Turn{Role: leads.RoleUser, Content: c})
	}
	return out
}

func readyLead() leads.LeadState {
	return leads.Extract(userTurns(
		"Max Mustermann",
		"max@example.com",
		"Ich möchte am 15.06.2025 um 14 Uhr einen Termin",
	))
}
