package leads

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstructionsForEveryStage(t *testing.T) {
	stages := []Stage{StageInitial, StageQualifying, StageScheduling, StageCollectingInfo, StageReadyToBook, Stage("unknown")}
	for _, stage := range stages {
		t.Run(string(stage), func(t *testing.T) {
			got := InstructionsFor(LeadState{Stage: stage})
			if strings.TrimSpace(got) == "" {
				t.Fatalf("expected instructions for stage %q", stage)
			}
		})
	}
}

func TestInstructionsForInitialOffersConsultation(t *testing.T) {
	initial := InstructionsFor(LeadState{Stage: StageInitial})
	assert.Equal(t, initial, InstructionsFor(LeadState{Stage: StageQualifying}))
	assert.Contains(t, initial, "offene Fragen")
	assert.Contains(t, initial, "Beratungstermin")
}

func TestInstructionsForCollectingInfoNamesMissingFields(t *testing.T) {
	got := InstructionsFor(LeadState{
		Stage: StageCollectingInfo,
		Name:  "Max",
		Email: "max@example.com",
	})
	assert.NotContains(t, got, "Namen")
	assert.NotContains(t, got, "E-Mail")
	assert.Contains(t, got, "Telefonnummer")
	assert.Contains(t, got, "Datum")
	assert.Contains(t, got, "Uhrzeit")
}

func TestInstructionsForReadyToBook(t *testing.T) {
	got := InstructionsFor(LeadState{Stage: StageReadyToBook})
	assert.Contains(t, got, "buchen")
}

func TestKnownFacts(t *testing.T) {
	got := KnownFacts(LeadState{
		Name:          "Max Mustermann",
		PreferredTime: "14 Uhr",
		Interests:     []string{"demo", "preis"},
	})
	want := "Der Name des Benutzers ist: Max Mustermann\n" +
		"Die bevorzugte Uhrzeit ist: 14 Uhr\n" +
		"Interessengebiete: demo, preis"
	assert.Equal(t, want, got)
	assert.Empty(t, KnownFacts(NewLeadState()))
}

func TestMissingFields(t *testing.T) {
	state := LeadState{Email: "a@b.de", PreferredTime: "10:00"}
	assert.Equal(t, []string{FieldName}, state.MissingBookingFields())
	assert.Equal(t, []string{FieldName, FieldPhone}, state.MissingFields())

	assert.Equal(t, []string{FieldName, FieldEmail, FieldPhone, FieldDateTime}, NewLeadState().MissingFields())
}
