package ticket

import (
	"context"
	"errors"
	"sync"
)

// Urgency levels accepted on a draft.
const (
	UrgencyLow      = "Low"
	UrgencyMedium   = "Medium"
	UrgencyHigh     = "High"
	UrgencyCritical = "Critical"
)

// Categories is the fixed set of support categories a draft may use.
var Categories = []string{
	"IT Support > Hardware",
	"IT Support > Software Issues",
	"IT Support > Network & VPN",
	"Accounts & Access",
	"HR & Payroll",
	"Facilities",
	"Other",
}

// ValidUrgency reports whether u is one of the accepted urgency levels.
func ValidUrgency(u string) bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// Draft is the user-editable ticket record pre-filled from a model
// suggestion. It lives only while the drafting form is open.
type Draft struct {
	Category    string `json:"category"`
	Urgency     string `json:"urgency"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// DraftPatch carries partial field edits; nil fields are left untouched.
type DraftPatch struct {
	Category    *string `json:"category"`
	Urgency     *string `json:"urgency"`
	Subject     *string `json:"subject"`
	Description *string `json:"description"`
}

// Apply mutates only the fields the patch names.
func (d *Draft) Apply(p DraftPatch) {
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Urgency != nil {
		d.Urgency = *p.Urgency
	}
	if p.Subject != nil {
		d.Subject = *p.Subject
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
}

// Ticket is a filed support ticket with its lifecycle bookkeeping.
// Each reopen starts a new cycle; Events is an immutable audit trail.
type Ticket struct {
	ID           string  `json:"id"`
	Subject      string  `json:"subject"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Urgency      string  `json:"urgency"`
	Status       string  `json:"status"`
	CreatedAt    int64   `json:"created_at"`
	AssignedAt   int64   `json:"assigned_at"`
	ResolvedAt   int64   `json:"resolved_at"`
	EscalatedAt  int64   `json:"escalated_at"`
	ReopenedAt   int64   `json:"reopened_at"`
	Cycles       []Cycle `json:"cycles"`
	CurrentCycle int     `json:"current_cycle"`
	Events       []Event `json:"events"`
}

// Cycle stores the timestamps of one handling round.
type Cycle struct {
	CreatedAt   int64  `json:"created_at"`
	AssignedAt  int64  `json:"assigned_at"`
	ResolvedAt  int64  `json:"resolved_at"`
	EscalatedAt int64  `json:"escalated_at"`
	Status      string `json:"status"`
}

// Event is an immutable audit entry.
type Event struct {
	Type string `json:"type"`
	At   int64  `json:"at"`
	Note string `json:"note"`
}

// Ticket statuses.
const (
	StatusCreated   = "created"
	StatusAssigned  = "assigned"
	StatusResolved  = "resolved"
	StatusEscalated = "escalated"
)

// ErrNotFound sentinel for a missing ticket.
var ErrNotFound = errors.New("ticket not found")

// ErrConflict signals a lifecycle transition not allowed from the current status.
var ErrConflict = errors.New("ticket state conflict")

// Repo defines the ticket store operations.
type Repo interface {
	Create(ctx context.Context, t *Ticket) error
	Get(ctx context.Context, id string) (*Ticket, error)
	List(ctx context.Context) ([]*Ticket, error)
	Update(ctx context.Context, t *Ticket) error
	Delete(ctx context.Context, id string) error
}

// MemoryRepo is the in-memory Repo used in this deployment; tickets do not
// survive a restart.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*Ticket
	order []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*Ticket)}
}

func (r *MemoryRepo) Create(ctx context.Context, t *Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[t.ID]; !ok {
		r.order = append(r.order, t.ID)
	}
	r.store[t.ID] = t
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (*Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.store[id]; ok {
		return t, nil
	}
	return nil, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]*Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Ticket, 0, len(r.order))
	for _, id := range r.order {
		if t, ok := r.store[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, t *Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[t.ID]; !ok {
		return ErrNotFound
	}
	r.store[t.ID] = t
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
