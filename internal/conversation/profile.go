package conversation

import (
	"fmt"
	"strings"
)

// BotProfile is the owner-configured chatbot the visitor talks to.
type BotProfile struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Personality   string   `json:"personality"`
	KnowledgeBase string   `json:"knowledgeBase"`
	WebsiteURL    string   `json:"websiteUrl"`
	Mode          string   `json:"mode"`
	Documents     []string `json:"pdfDocuments,omitempty"`
}

// RenderContext renders the bot context block of the prompt.
func (p BotProfile) RenderContext() string {
	knowledge := p.KnowledgeBase
	if strings.TrimSpace(knowledge) == "" {
		knowledge = "Keine spezifische Wissensbasis"
	}
	website := p.WebsiteURL
	if strings.TrimSpace(website) == "" {
		website = "Keine Website angegeben"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Chatbot Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Beschreibung: %s\n", p.Description)
	fmt.Fprintf(&b, "Persönlichkeit: %s\n", p.Personality)
	fmt.Fprintf(&b, "Wissensbasis: %s\n", knowledge)
	fmt.Fprintf(&b, "Website: %s\n", website)
	fmt.Fprintf(&b, "Modus: %s\n", p.Mode)
	if len(p.Documents) > 0 {
		fmt.Fprintf(&b, "\nPDF-Dokumente: %s\n", strings.Join(p.Documents, ", "))
	}
	return b.String()
}

// Persona is the system persona derived from the profile.
func (p BotProfile) Persona() string {
	return strings.TrimSpace(p.Personality)
}
