package conversation

import (
	"fmt"
	"strings"
	"time"

	"careloop/app/domain"
)

const transcriptSize = 12

// Transcript renders the last messages of a session for prompts.
func Transcript(messages []domain.Message) string {
	if len(messages) == 0 {
		return "No messages yet"
	}

	if len(messages) > transcriptSize {
		messages = messages[len(messages)-transcriptSize:]
	}

	var builder strings.Builder

	for _, msg := range messages {
		builder.WriteString(fmt.Sprintf("%s - %s: %s\n", formatTime(msg.Timestamp), speaker(msg.Role), msg.Content))
	}

	return builder.String()
}

// Context summarizes the customer and offer for the intent classifier.
func Context(s *domain.Session) string {
	return fmt.Sprintf("Customer: %s\nPet: %s (%s)\nStage: %s\nOffer: %s\nPlan cost: $%.2f\n\n%s",
		orUnknown(s.Customer.Name),
		orUnknown(s.Customer.PetName),
		orUnknown(s.Customer.PetCondition),
		s.Stage,
		s.Offer.Variant,
		s.Customer.PlanCost,
		Transcript(s.Messages),
	)
}

func speaker(role domain.Role) string {
	if role == domain.RoleAssistant {
		return "Care team"
	}

	return "Customer"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "--:--:--"
	}

	return t.Format("15:04:05")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}

	return s
}
