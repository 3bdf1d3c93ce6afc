package leads

import "strings"

const (
	qualifyInstructions = "Als proaktiver Verkaufsassistent, versuche den Benutzer zu qualifizieren und Informationen zu sammeln.\n" +
		"Stelle offene Fragen zu seinen Bedürfnissen und Herausforderungen.\n" +
		"Wenn der Benutzer Interesse zeigt, biete proaktiv einen kostenlosen Beratungstermin an."

	schedulingInstructions = "Der Benutzer zeigt Interesse an einem Termin. Frage aktiv nach einem bevorzugten Datum und einer Uhrzeit.\n" +
		"Falls noch nicht geschehen, versuche den Namen, die E-Mail-Adresse und Telefonnummer zu erfragen, damit ein Termin vereinbart werden kann."

	collectingInstructionsPrefix = "Wir sammeln bereits Informationen für einen Termin."

	readyToBookInstructions = "Der Benutzer hat alle nötigen Informationen bereitgestellt. Biete aktiv an, den Termin jetzt zu buchen und teile den Buchungslink mit."
)

// InstructionsFor returns the stage-specific directive appended to the prompt.
// collecting_info additionally names every field that is still unknown, so the
// whole state is taken rather than the stage alone. Unknown stages are treated
// as initial.
func InstructionsFor(state LeadState) string {
	switch state.Stage {
	case StageScheduling:
		return schedulingInstructions
	case StageCollectingInfo:
		return collectingInstructions(state)
	case StageReadyToBook:
		return readyToBookInstructions
	default:
		return qualifyInstructions
	}
}

func collectingInstructions(state LeadState) string {
	var b strings.Builder
	b.WriteString(collectingInstructionsPrefix)
	ask := func(missing bool, question string) {
		if missing {
			b.WriteString(" ")
			b.WriteString(question)
		}
	}
	ask(state.Name == "", "Frage nach dem Namen des Benutzers.")
	ask(state.Email == "", "Frage nach der E-Mail-Adresse.")
	ask(state.Phone == "", "Frage nach der Telefonnummer.")
	ask(state.PreferredDate == "", "Frage nach einem bevorzugten Datum.")
	ask(state.PreferredTime == "", "Frage nach einer bevorzugten Uhrzeit.")
	return b.String()
}

// KnownFacts renders the extracted fields as plain statements, one per line,
// in a fixed order. Empty fields are skipped.
func KnownFacts(state LeadState) string {
	var lines []string
	add := func(value, label string) {
		if value != "" {
			lines = append(lines, label+value)
		}
	}
	add(state.Name, "Der Name des Benutzers ist: ")
	add(state.Email, "Die E-Mail-Adresse des Benutzers ist: ")
	add(state.Phone, "Die Telefonnummer des Benutzers ist: ")
	add(state.PreferredDate, "Das bevorzugte Datum ist: ")
	add(state.PreferredTime, "Die bevorzugte Uhrzeit ist: ")
	if len(state.Interests) > 0 {
		lines = append(lines, "Interessengebiete: "+strings.Join(state.Interests, ", "))
	}
	return strings.Join(lines, "\n")
}
