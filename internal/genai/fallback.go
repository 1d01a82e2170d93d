package genai

import (
	"fmt"
	"strings"
)

// FallbackReply is the deterministic response used when no model is
// reachable. It keys off the same intent words the namespace router uses,
// personalized from whatever profile data exists.
func FallbackReply(userMessage string, profile PromptProfile) string {
	p := profile.orDefaults()
	q := strings.ToLower(userMessage)

	switch {
	case hasAny(q, "sick", "health", "vet"):
		return fmt.Sprintf("Hi %s! For %s's health concerns, please consult your veterinarian. What symptoms are you noticing?", p.UserName, p.PetName)
	case hasAny(q, "food", "nutrition"):
		return fmt.Sprintf("Good nutrition is important for %s! What specific question do you have about %s's diet?", p.PetName, p.PetName)
	case hasAny(q, "groom", "bath"):
		return fmt.Sprintf("Regular grooming keeps %s healthy! What grooming help do you need?", p.PetName)
	default:
		return fmt.Sprintf("Hi %s! I'm here to help with %s. What would you like to know?", p.UserName, p.PetName)
	}
}

func hasAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
