package conversation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/nextchat-ai-platform/internal/booking"
	"github.com/wolfman30/nextchat-ai-platform/internal/leads"
)

func TestBuildPrompt_SectionOrder(t *testing.T) {
	state := leads.NewLeadState()
	state.Name = "Max Mustermann"
	prompt := BuildPrompt(PromptInput{
		Message:    "Was kostet das?",
		BotContext: "Chatbot Name: Acme",
		Transcript: []leads.Turn{{Role: leads.RoleUser, Content: "Hallo"}, {Role: leads.RoleBot, Content: "Hi!"}},
		Lead:       state,
	})

	ordered := []string{
		"Du bist ein intelligenter, proaktiver Verkaufs-Assistent",
		"Kontext: Chatbot Name: Acme",
		DefaultPersona,
		"Bisherige Konversation:\nBenutzer: Hallo\nBot: Hi!",
		"Max Mustermann",
		"Benutzer-Nachricht: Was kostet das?",
		"Formuliere eine natürliche, personalisierte Antwort in 2-3 Sätzen.",
	}
	last := -1
	for _, part := range ordered {
		idx := strings.Index(prompt, part)
		if idx < 0 {
			t.Fatalf("prompt missing %q:\n%s", part, prompt)
		}
		if idx <= last {
			t.Fatalf("section %q out of order", part)
		}
		last = idx
	}
	assert.NotContains(t, prompt, "WICHTIG")
}

func TestBuildPrompt_PersonaOverride(t *testing.T) {
	prompt := BuildPrompt(PromptInput{Message: "Hi", SystemPersona: "Sei kurz angebunden."})
	assert.Contains(t, prompt, "Sei kurz angebunden.")
	assert.NotContains(t, prompt, DefaultPersona)
}

func TestBuildPrompt_TranscriptWindow(t *testing.T) {
	var turns []leads.Turn
	for i := 0; i < 15; i++ {
		turns = append(turns, leads.Turn{Role: leads.RoleUser, Content: fmt.Sprintf("nachricht-%02d", i)})
	}
	prompt := BuildPrompt(PromptInput{Message: "Hi", Transcript: turns})
	assert.NotContains(t, prompt, "nachricht-04")
	assert.Contains(t, prompt, "nachricht-05")
	assert.Contains(t, prompt, "nachricht-14")
}

func TestBuildPrompt_BookedDirective(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		Message: "Termin",
		Attempt: BookingAttempt{
			Outcome:     OutcomeBooked,
			BookingLink: "https://calendly.com/acme/confirmed",
			EventName:   "Beratung",
			Booking: &booking.BookingResult{
				Status:        booking.StatusBooked,
				Participant:   booking.Participant{Name: "Max Mustermann", Email: "max@example.com"},
				PreferredTime: "2025-06-15 14:00",
			},
		},
	})
	assert.Contains(t, prompt, "WICHTIG: Ich habe erfolgreich einen Termin für den Benutzer gebucht!")
	assert.Contains(t, prompt, "- Teilnehmer: Max Mustermann (max@example.com)")
	assert.Contains(t, prompt, "- Termin: Beratung")
	assert.Contains(t, prompt, "- Bevorzugte Zeit: 2025-06-15 14:00")
	assert.Contains(t, prompt, "Bestätigungslink: https://calendly.com/acme/confirmed")
	assert.Contains(t, prompt, "Bestätigung per E-Mail")
}

func TestBuildPrompt_LinkDirective(t *testing.T) {
	tests := []struct {
		name        string
		attempt     BookingAttempt
		wantMissing bool
	}{
		{
			name: "missing fields",
			attempt: BookingAttempt{
				Outcome:       OutcomeMissingFields,
				BookingLink:   "https://calendly.com/acme/beratung",
				MissingFields: []string{"name", "email"},
			},
			wantMissing: true,
		},
		{
			name:    "transport error",
			attempt: BookingAttempt{Outcome: OutcomeTransportError, BookingLink: "https://calendly.com/acme/beratung"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := BuildPrompt(PromptInput{Message: "Termin", Attempt: tt.attempt})
			assert.Contains(t, prompt, "WICHTIG: Ich habe einen Terminbuchungs-Link vorbereitet.")
			assert.Contains(t, prompt, "Biete an, einen Termin zu buchen unter folgendem Link:\nhttps://calendly.com/acme/beratung")
			if tt.wantMissing {
				assert.Contains(t, prompt, "Es fehlen noch folgende Informationen für die Terminbuchung: name, email.")
				assert.Contains(t, prompt, "BEVOR du den Buchungslink teilst")
			} else {
				assert.NotContains(t, prompt, "Es fehlen noch")
			}
		})
	}
}

func TestBotProfileRenderContext(t *testing.T) {
	ctx := BotProfile{Name: "Acme Bot", Description: "Vertrieb", Personality: "locker", Mode: "sales"}.RenderContext()
	assert.Contains(t, ctx, "Chatbot Name: Acme Bot\n")
	assert.Contains(t, ctx, "Wissensbasis: Keine spezifische Wissensbasis\n")
	assert.Contains(t, ctx, "Website: Keine Website angegeben\n")
	assert.Contains(t, ctx, "Modus: sales\n")
	assert.NotContains(t, ctx, "PDF-Dokumente")

	withDocs := BotProfile{
		Name:          "Acme Bot",
		KnowledgeBase: "Preise ab 99 EUR",
		WebsiteURL:    "https://acme.example",
		Documents:     []string{"preise.pdf", "agb.pdf"},
	}.RenderContext()
	assert.Contains(t, withDocs, "Wissensbasis: Preise ab 99 EUR")
	assert.Contains(t, withDocs, "Website: https://acme.example")
	assert.Contains(t, withDocs, "PDF-Dokumente: preise.pdf, agb.pdf")
}
