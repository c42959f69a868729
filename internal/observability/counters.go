package observability

import (
	"fmt"
	"sync/atomic"
)

var (
	SessionsStarted  atomic.Int64
	SessionResets    atomic.Int64
	ChatTurns        atomic.Int64
	ModelCalls       atomic.Int64
	ModelErrors      atomic.Int64
	TicketOffers     atomic.Int64
	TicketsFiled     atomic.Int64
	TicketAssigned   atomic.Int64
	TicketEscalated  atomic.Int64
	TicketResolved   atomic.Int64
	TicketReopened   atomic.Int64
	KBDocCreated     atomic.Int64
	KBDocUpdated     atomic.Int64
	KBDocDeleted     atomic.Int64
	KBSearchRequests atomic.Int64
	KBSearchHits     atomic.Int64
	AIEmbeddingCalls atomic.Int64
)

// Snapshot returns a simple Prometheus-like exposition text (temporary helper).
func Snapshot() string {
	return fmt.Sprintf(`# SparkDesk metrics
sparkdesk_sessions_started_total %d
sparkdesk_session_resets_total %d
sparkdesk_chat_turns_total %d
sparkdesk_model_calls_total %d
sparkdesk_model_errors_total %d
sparkdesk_ticket_offers_total %d
sparkdesk_tickets_filed_total %d
sparkdesk_ticket_assigned_total %d
sparkdesk_ticket_escalated_total %d
sparkdesk_ticket_resolved_total %d
sparkdesk_ticket_reopened_total %d
sparkdesk_kb_doc_created_total %d
sparkdesk_kb_doc_updated_total %d
sparkdesk_kb_doc_deleted_total %d
sparkdesk_kb_search_requests_total %d
sparkdesk_kb_search_hits_total %d
sparkdesk_ai_embedding_calls_total %d
`,
		SessionsStarted.Load(),
		SessionResets.Load(),
		ChatTurns.Load(),
		ModelCalls.Load(),
		ModelErrors.Load(),
		TicketOffers.Load(),
		TicketsFiled.Load(),
		TicketAssigned.Load(),
		TicketEscalated.Load(),
		TicketResolved.Load(),
		TicketReopened.Load(),
		KBDocCreated.Load(),
		KBDocUpdated.Load(),
		KBDocDeleted.Load(),
		KBSearchRequests.Load(),
		KBSearchHits.Load(),
		AIEmbeddingCalls.Load(),
	)
}
