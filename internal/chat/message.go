// Package chat implements support conversation sessions: message history,
// the ticket-offer state machine, and the flow from user turn to model
// completion.
package chat

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// WelcomeText seeds every new or reset session as the first assistant message.
const WelcomeText = "Hi! I'm your AI Support Bot. How can I help you today?"

// QuickSuggestions are the fixed starter questions offered next to the input.
var QuickSuggestions = []string{
	"What skills should I focus on next?",
	"How can I improve my assessment scores?",
	"Recommend a learning path for my role",
	"What are my learning strengths?",
}

// Message is one entry in a session transcript. OffersTicket marks an
// assistant message that ends with a ticket offer the user can accept.
type Message struct {
	ID           string `json:"id"`
	Role         string `json:"role"`
	Text         string `json:"text"`
	Timestamp    string `json:"timestamp"`
	OffersTicket bool   `json:"offersTicket"`
}

var msgSeq atomic.Int64

// newMessage stamps a process-monotonic id so transcript order survives
// equal wall-clock timestamps.
func newMessage(role, text string, now time.Time) Message {
	return Message{
		ID:        fmt.Sprintf("msg-%d", msgSeq.Add(1)),
		Role:      role,
		Text:      text,
		Timestamp: now.Format("15:04"),
	}
}

func welcomeMessage(now time.Time) Message {
	return newMessage(RoleAssistant, WelcomeText, now)
}
