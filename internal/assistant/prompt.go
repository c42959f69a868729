// Package assistant holds the support-bot prompt assembly and the model
// client that enforces the strict JSON response contract.
package assistant

import (
	"fmt"
	"strings"

	"github.com/bpispark/sparkdesk/internal/ai/chain"
	"github.com/bpispark/sparkdesk/internal/kb"
)

// HistoryWindow is how many prior messages the prompt carries. Older turns
// are dropped so the prompt stays bounded regardless of session length.
const HistoryWindow = 4

// preamble declares scope, tone, and the JSON-only output contract. The
// model must ground answers in the supplied context, ask a clarifying
// question on vague queries, and offer a ticket only when a specific query
// finds no context.
const preamble = `You are the BPI Spark AI Support Bot, an internal IT and HR support assistant.

Rules:
1. Answer ONLY from the CONTEXT section below. Never use outside knowledge.
2. If the user's question is vague or generic, ask one clarifying question instead of offering a ticket.
3. If the question is specific but the CONTEXT section has no relevant documents, offer to file a support ticket.
4. Respond with a single JSON object and nothing else. No prose outside JSON, no markdown.

Reply in exactly one of these two shapes:
{"responseText": "<your reply>", "action": "ANSWER"}
{"responseText": "<your reply>", "action": "OFFER_TICKET", "ticketData": {"category": "<category>", "urgency": "Low|Medium|High|Critical", "subject": "<short subject>", "description": "<what the user reported>"}}`

// Assemble builds the single prompt block: preamble, retrieved context,
// a bounded history window, then the current query.
func Assemble(query string, docs []*kb.Doc, history []chain.ChatMessage) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\nCONTEXT:\n")
	if len(docs) == 0 {
		b.WriteString(chain.NoContextMarker)
		b.WriteString("\n")
	} else {
		for _, d := range docs {
			fmt.Fprintf(&b, "[%s] %s\n%s\n\n", d.ID, d.Title, d.Content)
		}
	}

	if start := len(history) - HistoryWindow; start > 0 {
		history = history[start:]
	}
	if len(history) > 0 {
		b.WriteString("\nCONVERSATION SO FAR:\n")
		for _, m := range history {
			role := "User"
			if m.Role == "assistant" {
				role = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, m.Content)
		}
	}

	b.WriteString("\nUser question: ")
	b.WriteString(query)
	return b.String()
}
