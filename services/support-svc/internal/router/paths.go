package router

// Path constants centralizing HTTP routes.
const (
	PathSessions       = "/v1/chat/sessions"
	PathSuggestions    = "/v1/chat/suggestions"
	PathSessionID      = "/v1/chat/sessions/:id"
	PathSessionMsgs    = "/v1/chat/sessions/:id/messages"
	PathSessionReset   = "/v1/chat/sessions/:id/reset"
	PathTicketAccept   = "/v1/chat/sessions/:id/ticket/accept"
	PathTicketDecline  = "/v1/chat/sessions/:id/ticket/decline"
	PathTicketDraft    = "/v1/chat/sessions/:id/ticket/draft"
	PathTicketSubmit   = "/v1/chat/sessions/:id/ticket/submit"
	PathTicketDraftEnd = "/v1/chat/sessions/:id/ticket/cancel"

	PathTickets        = "/v1/tickets"
	PathTicketID       = "/v1/tickets/:id"
	PathTicketAssign   = "/v1/tickets/:id/assign"
	PathTicketResolve  = "/v1/tickets/:id/resolve"
	PathTicketEscalate = "/v1/tickets/:id/escalate"
	PathTicketReopen   = "/v1/tickets/:id/reopen"
	PathTicketCycles   = "/v1/tickets/:id/cycles"
	PathTicketEvents   = "/v1/tickets/:id/events"

	PathDocs       = "/v1/docs"
	PathDocID      = "/v1/docs/:id"
	PathSearch     = "/v1/search"
	PathKBInfo     = "/v1/kb/info"
	PathEmbeddings = "/v1/embeddings"
)
