package conversation

import (
	"fmt"
	"strings"

	"github.com/wolfman30/nextchat-ai-platform/internal/leads"
)

const (
	// DefaultPersona is used when the bot owner configured no personality.
	DefaultPersona = "Sei freundlich, hilfsbereit und führe das Gespräch zielgerichtet. Qualifiziere den Lead und arbeite auf einen Termin hin."

	transcriptWindow = 10

	personaFraming = "Du bist ein intelligenter, proaktiver Verkaufs-Assistent für ein Unternehmen.\n" +
		"Du sollst den Benutzer durch den Prozess führen, Informationen sammeln und ihn für einen Verkauf qualifizieren."

	closingInstructions = "Wichtig: Beziehe dich auf frühere Nachrichten und zeige, dass du dich an den Kontext erinnerst.\n" +
		"Bleibe fokussiert auf das Ziel, einen qualifizierten Lead zu erzeugen und einen Termin zu vereinbaren.\n" +
		"Formuliere eine natürliche, personalisierte Antwort in 2-3 Sätzen."
)

// PromptInput is everything the instruction payload is assembled from.
type PromptInput struct {
	Message       string
	BotContext    string
	SystemPersona string
	Transcript    []leads.Turn
	Lead          leads.LeadState
	Attempt       BookingAttempt
}

// BuildPrompt assembles the instruction payload in a fixed order: persona
// framing, bot context, persona, qualification instructions, transcript
// window, known lead facts, the inbound message, the booking directive and
// the closing instructions.
func BuildPrompt(in PromptInput) string {
	persona := strings.TrimSpace(in.SystemPersona)
	if persona == "" {
		persona = DefaultPersona
	}

	sections := []string{
		personaFraming,
		"Kontext: " + strings.TrimSpace(in.BotContext),
		persona,
		leads.InstructionsFor(in.Lead),
		"Bisherige Konversation:\n" + renderTranscript(in.Transcript, transcriptWindow),
	}
	if facts := leads.KnownFacts(in.Lead); facts != "" {
		sections = append(sections, facts)
	}
	sections = append(sections, "Benutzer-Nachricht: "+in.Message)
	if directive := bookingDirective(in.Attempt); directive != "" {
		sections = append(sections, directive)
	}
	sections = append(sections, closingInstructions)
	return strings.Join(sections, "\n\n")
}

// renderTranscript renders the last window turns as "Benutzer:"/"Bot:" lines.
func renderTranscript(turns []leads.Turn, window int) string {
	if window > 0 && len(turns) > window {
		turns = turns[len(turns)-window:]
	}
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		label := "Bot"
		if turn.IsUser() {
			label = "Benutzer"
		}
		lines = append(lines, label+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}

func bookingDirective(attempt BookingAttempt) string {
	switch attempt.Outcome {
	case OutcomeBooked:
		return bookedDirective(attempt)
	case OutcomeMissingFields, OutcomeTransportError:
		return linkDirective(attempt)
	default:
		return ""
	}
}

func bookedDirective(attempt BookingAttempt) string {
	var b strings.Builder
	b.WriteString("WICHTIG: Ich habe erfolgreich einen Termin für den Benutzer gebucht!\n\n")
	b.WriteString("Buchungsdetails:\n")
	if attempt.Booking != nil {
		p := attempt.Booking.Participant
		fmt.Fprintf(&b, "- Teilnehmer: %s (%s)\n", p.Name, p.Email)
	}
	fmt.Fprintf(&b, "- Termin: %s\n", attempt.EventName)
	if attempt.Booking != nil && attempt.Booking.PreferredTime != "" {
		fmt.Fprintf(&b, "- Bevorzugte Zeit: %s\n", attempt.Booking.PreferredTime)
	}
	fmt.Fprintf(&b, "\nBestätigungslink: %s\n\n", attempt.BookingLink)
	b.WriteString("Teile dem Benutzer mit, dass der Termin erfolgreich gebucht wurde und dass er eine Bestätigung per E-Mail erhalten wird.\n")
	b.WriteString("Wenn er weitere Fragen hat, kann er sich jederzeit wieder melden.")
	return b.String()
}

func linkDirective(attempt BookingAttempt) string {
	var b strings.Builder
	b.WriteString("WICHTIG: Ich habe einen Terminbuchungs-Link vorbereitet.")
	if len(attempt.MissingFields) > 0 {
		fmt.Fprintf(&b, "\nEs fehlen noch folgende Informationen für die Terminbuchung: %s.\n", strings.Join(attempt.MissingFields, ", "))
		b.WriteString("Frage aktiv nach diesen Informationen, BEVOR du den Buchungslink teilst.")
	}
	b.WriteString("\n\nBiete an, einen Termin zu buchen unter folgendem Link:\n")
	b.WriteString(attempt.BookingLink)
	b.WriteString("\n\nFüge diesen Link in deine Antwort ein und erkläre dem Benutzer, dass er dort einen passenden Termin auswählen kann.")
	return b.String()
}
