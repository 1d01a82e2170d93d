package genai

import (
	"fmt"
	"strings"

	"github.com/marshee-ai/marshee/internal/assemble"
	"github.com/marshee-ai/marshee/internal/vector"
)

// PromptProfile is the slice of the user's profile that generation needs.
type PromptProfile struct {
	UserName string
	PetName  string
	PetType  string
}

func (p PromptProfile) orDefaults() PromptProfile {
	if p.UserName == "" {
		p.UserName = "there"
	}
	if p.PetName == "" {
		p.PetName = "your pet"
	}
	if p.PetType == "" {
		p.PetType = "pet"
	}
	return p
}

const persona = "You are Marshee, a friendly and helpful pet care assistant. " +
	"Your main goal is to provide practical advice and answer questions for pet owners."

// BuildSystemPrompt renders the assembled context into the system prompt:
// persona, profile, a few prior-conversation snippets, routed knowledge
// sections and the response instructions.
func BuildSystemPrompt(profile PromptProfile, cc assemble.Context) string {
	p := profile.orDefaults()

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nUSER PROFILE:\n")
	fmt.Fprintf(&b, "User's Name: %s\n", p.UserName)
	fmt.Fprintf(&b, "Pet's Name: %s\n", p.PetName)
	fmt.Fprintf(&b, "Pet's Type: %s\n", p.PetType)

	if history := cc.Snippets[vector.UserHistory]; len(history) > 0 {
		b.WriteString("\nPREVIOUS CONVERSATIONS:\n")
		writeSnippetLines(&b, history, 2, 200)
	}
	for _, ns := range []vector.Namespace{vector.HealthData, vector.ProductData, vector.GroomingData, vector.CompanyData} {
		if snips := cc.Snippets[ns]; len(snips) > 0 {
			fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(string(ns)))
			writeSnippetLines(&b, snips, 2, 150)
		}
	}

	fmt.Fprintf(&b, "\nCurrent session messages: %d\n", len(cc.RecentTurns))
	b.WriteString(`
INSTRUCTIONS:
- Be friendly and encouraging.
- For health-related questions, always advise consulting a veterinarian.
- Keep your responses concise and very short, at most 3 lines.
- Use simple English words and few emojis.
- If you don't know the answer, admit it honestly and suggest consulting a professional.
`)
	return b.String()
}

func writeSnippetLines(b *strings.Builder, snips []assemble.Snippet, limit, maxChars int) {
	if len(snips) > limit {
		snips = snips[:limit]
	}
	for _, s := range snips {
		text := s.Text
		if len(text) > maxChars {
			text = text[:maxChars] + "..."
		}
		fmt.Fprintf(b, "- %s\n", text)
	}
}

// HistoryMessages converts buffered turns into the alternating message list
// the chat API expects, oldest first.
func HistoryMessages(cc assemble.Context) []Message {
	turns := cc.RecentTurns
	if len(turns) == 0 {
		return nil
	}
	// The current user message is appended separately by the completer, so
	// the last buffered turn is only history if it already has a response.
	msgs := make([]Message, 0, len(turns)*2)
	for _, t := range turns {
		msgs = append(msgs,
			Message{Role: "user", Content: t.UserText},
			Message{Role: "assistant", Content: t.AssistantText},
		)
	}
	return msgs
}
