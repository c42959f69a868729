package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bpispark/sparkdesk/internal/ticket"
)

// Conversation states.
const (
	StateIdle             = "idle"
	StateAwaitingModel    = "awaiting_model_response"
	StateAwaitingConfirm  = "awaiting_ticket_confirmation"
	StateDraftingTicket   = "drafting_ticket"
	StateSubmittingTicket = "submitting_ticket"
)

var (
	ErrSessionNotFound = errors.New("chat: session not found")
	// ErrSessionBusy signals a turn arriving while a model call is in
	// flight; only one request per session may be outstanding.
	ErrSessionBusy = errors.New("chat: request already in flight")
	// ErrBadState signals an action not allowed in the current state.
	ErrBadState = errors.New("chat: action not allowed in current state")
)

// Session is one conversation. All fields are guarded by mu; the busy flag
// stays set for the whole model round trip so mu never blocks on network I/O.
type Session struct {
	ID       string
	mu       sync.Mutex
	state    string
	busy     bool
	messages []Message
	draft    *ticket.Draft
}

// Snapshot is the read-only view handed to transports.
type Snapshot struct {
	ID       string        `json:"id"`
	State    string        `json:"state"`
	Messages []Message     `json:"messages"`
	Draft    *ticket.Draft `json:"draft,omitempty"`
	// TicketID is set only on the snapshot returned by a successful submit.
	TicketID string `json:"ticket_id,omitempty"`
}

func (s *Session) snapshotLocked() Snapshot {
	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)
	var d *ticket.Draft
	if s.draft != nil {
		dc := *s.draft
		d = &dc
	}
	return Snapshot{ID: s.ID, State: s.state, Messages: msgs, Draft: d}
}

// Snapshot returns a copy of the session safe to serialize.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Store holds live sessions. Sessions are memory-only and vanish on restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (st *Store) Create(now time.Time) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		state:    StateIdle,
		messages: []Message{welcomeMessage(now)},
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if s, ok := st.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrSessionNotFound
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
