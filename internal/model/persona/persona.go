package persona

// DefaultID identifies the dialysis education assistant.
const DefaultID = "dialysis-care-bot"

// Persona describes how the assistant presents itself on every surface.
type Persona struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	OpeningLine string   `json:"openingLine"`
	Disclaimer  string   `json:"disclaimer"`
	Placeholder string   `json:"placeholder"`
	InputHint   string   `json:"inputHint"`
	Expertise   []string `json:"expertise,omitempty"`
}

// Seed provides the personas served by the bot. The first entry is the default.
func Seed() []Persona {
	return []Persona{
		{
			ID:    DefaultID,
			Name:  "DialysisCareBot",
			Title: "Your dialysis education companion",
			OpeningLine: "Hello! I'm DialysisCareBot, your friendly dialysis education assistant. " +
				"I'm here to help you understand dialysis treatments, lifestyle guidance, and answer " +
				"general questions about kidney health.\n\n" +
				"**What I can help with:**\n" +
				"• Explaining dialysis procedures and types\n" +
				"• Diet and lifestyle basics\n" +
				"• Understanding common terms\n" +
				"• Emotional support and encouragement\n\n" +
				"**Important:** I cannot provide medical advice, diagnoses, or treatment decisions. " +
				"Always consult your care team for personal medical questions.\n\n" +
				"How can I help you today?",
			Disclaimer:  "This bot provides educational information only. Always consult your healthcare team for medical advice.",
			Placeholder: "Ask me about dialysis, diet, or lifestyle...",
			InputHint:   "Press Enter to send • Remember: This is educational support, not medical advice",
			Expertise: []string{
				"Explaining dialysis procedures and types",
				"Diet and lifestyle basics",
				"Understanding common terms",
				"Emotional support and encouragement",
			},
		},
	}
}
