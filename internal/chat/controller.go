package chat

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bpispark/sparkdesk/internal/ai/chain"
	"github.com/bpispark/sparkdesk/internal/assistant"
	"github.com/bpispark/sparkdesk/internal/kb"
	"github.com/bpispark/sparkdesk/internal/observability"
	"github.com/bpispark/sparkdesk/internal/ticket"
)

// affirmatives accepted as ticket confirmation. Exact match on the trimmed
// lowercased message, not substring, so "yes it still fails" goes back to
// the model instead of silently opening a draft.
var affirmatives = map[string]bool{
	"yes":       true,
	"yeah":      true,
	"yep":       true,
	"ok":        true,
	"sure":      true,
	"please do": true,
	"go ahead":  true,
}

const draftingPrompt = "Okay, let's get a ticket filed. I've pre-filled the details below, feel free to adjust them before submitting."

// Controller drives the conversation state machine over a session store.
type Controller struct {
	store        *Store
	kb           kb.Repo
	client       *assistant.Client
	submitter    *ticket.Submitter
	modelTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

func NewController(store *Store, repo kb.Repo, client *assistant.Client, sub *ticket.Submitter, modelTimeout time.Duration, logger *zap.Logger) *Controller {
	if modelTimeout <= 0 {
		modelTimeout = 30 * time.Second
	}
	return &Controller{
		store:        store,
		kb:           repo,
		client:       client,
		submitter:    sub,
		modelTimeout: modelTimeout,
		logger:       logger,
		now:          time.Now,
	}
}

// StartSession creates a session seeded with the welcome message.
func (c *Controller) StartSession() Snapshot {
	s := c.store.Create(c.now())
	observability.SessionsStarted.Add(1)
	return s.Snapshot()
}

// EndSession discards the conversation entirely, pending draft included.
func (c *Controller) EndSession(id string) error {
	s, err := c.store.Get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	busy := s.busy
	s.mu.Unlock()
	if busy {
		return ErrSessionBusy
	}
	c.store.Delete(id)
	c.logger.Info("session ended", zap.String("session", id), zap.Int("active", c.store.Len()))
	return nil
}

// Session returns the current snapshot without mutating state.
func (c *Controller) Session(id string) (Snapshot, error) {
	s, err := c.store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// Reset clears the transcript and reseeds a fresh welcome message. Any
// pending offer or draft is discarded.
func (c *Controller) Reset(id string) (Snapshot, error) {
	s, err := c.store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return Snapshot{}, ErrSessionBusy
	}
	s.state = StateIdle
	s.draft = nil
	s.messages = []Message{welcomeMessage(c.now())}
	observability.SessionResets.Add(1)
	return s.snapshotLocked(), nil
}

// HandleUserMessage runs one turn. While a pending ticket offer is active an
// affirmative reply opens the drafting form without a model call; any other
// reply withdraws the offer and is answered normally.
func (c *Controller) HandleUserMessage(ctx context.Context, id, text string) (Snapshot, error) {
	s, err := c.store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionBusy
	}
	switch s.state {
	case StateIdle, StateAwaitingConfirm:
	default:
		s.mu.Unlock()
		return Snapshot{}, ErrBadState
	}
	observability.ChatTurns.Add(1)
	s.messages = append(s.messages, newMessage(RoleUser, text, c.now()))

	if s.state == StateAwaitingConfirm {
		if affirmatives[strings.ToLower(strings.TrimSpace(text))] {
			s.state = StateDraftingTicket
			s.messages = append(s.messages, newMessage(RoleAssistant, draftingPrompt, c.now()))
			snap := s.snapshotLocked()
			s.mu.Unlock()
			return snap, nil
		}
		// Offer withdrawn, answer the message normally.
		s.state = StateIdle
		s.draft = nil
	}

	history := c.historyLocked(s)
	s.state = StateAwaitingModel
	s.busy = true
	s.mu.Unlock()

	res := c.complete(ctx, text, history)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	switch res.Action {
	case assistant.ActionOfferTicket:
		d := *res.Draft
		s.draft = &d
		m := newMessage(RoleAssistant, res.ResponseText, c.now())
		m.OffersTicket = true
		s.messages = append(s.messages, m)
		s.state = StateAwaitingConfirm
		observability.TicketOffers.Add(1)
	case assistant.ActionAnswer:
		s.messages = append(s.messages, newMessage(RoleAssistant, res.ResponseText, c.now()))
		s.state = StateIdle
	default:
		s.messages = append(s.messages, newMessage(RoleAssistant, res.ResponseText, c.now()))
		s.state = StateIdle
		observability.ModelErrors.Add(1)
	}
	return s.snapshotLocked(), nil
}

// complete retrieves context, assembles the prompt, and calls the model
// under the configured deadline.
func (c *Controller) complete(ctx context.Context, query string, history []chain.ChatMessage) assistant.Result {
	ctx, cancel := context.WithTimeout(ctx, c.modelTimeout)
	defer cancel()
	ctx, span := observability.Tracer().Start(ctx, "chat.complete")
	defer span.End()

	docs, err := c.kb.Retrieve(ctx, query)
	if err != nil {
		// Retrieval trouble degrades to an ungrounded prompt, not a failed turn.
		c.logger.Warn("kb retrieve failed", zap.Error(err))
		docs = nil
	}

	prompt := assistant.Assemble(query, docs, history)
	start := c.now()
	observability.ModelCalls.Add(1)
	res := c.client.Complete(ctx, prompt)
	observability.ObserveModelCall(c.client.Provider(), time.Since(start), res.Action == assistant.ActionError)
	return res
}

// historyLocked renders prior turns for the prompt window, newest last. The
// just-appended user message is excluded; system confirmations are not part
// of the dialogue.
func (c *Controller) historyLocked(s *Session) []chain.ChatMessage {
	out := make([]chain.ChatMessage, 0, len(s.messages))
	for _, m := range s.messages[:len(s.messages)-1] {
		if m.Role == RoleSystem {
			continue
		}
		out = append(out, chain.ChatMessage{Role: m.Role, Content: m.Text})
	}
	return out
}

// AcceptOffer moves a pending offer into the drafting form (button path).
func (c *Controller) AcceptOffer(id string) (Snapshot, error) {
	return c.transition(id, StateAwaitingConfirm, func(s *Session) {
		s.state = StateDraftingTicket
		s.messages = append(s.messages, newMessage(RoleAssistant, draftingPrompt, c.now()))
	})
}

// DeclineOffer discards the pending offer and draft.
func (c *Controller) DeclineOffer(id string) (Snapshot, error) {
	return c.transition(id, StateAwaitingConfirm, func(s *Session) {
		s.state = StateIdle
		s.draft = nil
		s.messages = append(s.messages, newMessage(RoleAssistant, "No problem. Is there anything else I can help with?", c.now()))
	})
}

// EditDraft applies a partial edit while the drafting form is open.
func (c *Controller) EditDraft(id string, patch ticket.DraftPatch) (Snapshot, error) {
	return c.transition(id, StateDraftingTicket, func(s *Session) {
		s.draft.Apply(patch)
	})
}

// CancelDraft abandons the form without filing.
func (c *Controller) CancelDraft(id string) (Snapshot, error) {
	return c.transition(id, StateDraftingTicket, func(s *Session) {
		s.state = StateIdle
		s.draft = nil
	})
}

// SubmitDraft files the current draft and appends the confirmation message.
func (c *Controller) SubmitDraft(ctx context.Context, id string) (Snapshot, error) {
	s, err := c.store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionBusy
	}
	if s.state != StateDraftingTicket || s.draft == nil {
		s.mu.Unlock()
		return Snapshot{}, ErrBadState
	}
	draft := *s.draft
	s.state = StateSubmittingTicket
	s.busy = true
	s.mu.Unlock()

	ticketID, err := c.submitter.Submit(ctx, draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		// Keep the form open so the user can retry.
		s.state = StateDraftingTicket
		return Snapshot{}, err
	}
	observability.TicketsFiled.Add(1)
	s.draft = nil
	s.state = StateIdle
	s.messages = append(s.messages, newMessage(RoleSystem,
		"Your support ticket "+ticketID+" has been filed. The team will follow up shortly.", c.now()))
	snap := s.snapshotLocked()
	snap.TicketID = ticketID
	return snap, nil
}

// transition runs fn under the session lock after checking the state gate.
func (c *Controller) transition(id, wantState string, fn func(*Session)) (Snapshot, error) {
	s, err := c.store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return Snapshot{}, ErrSessionBusy
	}
	if s.state != wantState {
		return Snapshot{}, ErrBadState
	}
	fn(s)
	return s.snapshotLocked(), nil
}
