package ticket

import (
	"context"
	"errors"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDraftApplyPatchesOnlyNamedFields(t *testing.T) {
	d := Draft{
		Category:    "Other",
		Urgency:     UrgencyMedium,
		Subject:     "screen is black",
		Description: "laptop shows nothing after boot",
	}
	urg := UrgencyHigh
	d.Apply(DraftPatch{Urgency: &urg})

	if d.Urgency != UrgencyHigh {
		t.Fatalf("urgency = %q, want %q", d.Urgency, UrgencyHigh)
	}
	if d.Subject != "screen is black" || d.Category != "Other" {
		t.Fatalf("untouched fields changed: %+v", d)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	tk := &Ticket{
		ID:        "TKT-000001",
		Status:    StatusCreated,
		CreatedAt: 100,
		Cycles:    []Cycle{{CreatedAt: 100, Status: StatusCreated}},
	}

	tk.Assign(110, "routed to IT")
	if tk.Status != StatusAssigned || tk.Cycles[0].AssignedAt != 110 {
		t.Fatalf("assign: %+v", tk)
	}

	if err := tk.Escalate(120, "sla breach"); err != nil {
		t.Fatalf("escalate: %v", err)
	}
	tk.Resolve(130, "fixed")
	if tk.EscalatedAt != 0 || tk.Cycles[0].EscalatedAt != 0 {
		t.Fatalf("resolve should clear escalation: %+v", tk)
	}

	if err := tk.Escalate(140, "too late"); !errors.Is(err, ErrConflict) {
		t.Fatalf("escalate after resolve: err = %v, want ErrConflict", err)
	}

	if err := tk.Reopen(150, "still broken"); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if tk.Status != StatusCreated || len(tk.Cycles) != 2 || tk.CurrentCycle != 1 {
		t.Fatalf("reopen cycle bookkeeping: %+v", tk)
	}
	if tk.AssignedAt != 0 || tk.ResolvedAt != 0 {
		t.Fatalf("reopen should reset snapshot: %+v", tk)
	}

	if err := tk.Reopen(160, "again"); !errors.Is(err, ErrConflict) {
		t.Fatalf("reopen from created: err = %v, want ErrConflict", err)
	}
	if got := len(tk.Events); got != 5 {
		t.Fatalf("events = %d, want 5", got)
	}
}

func TestSubmitFilesTicketWithFormattedID(t *testing.T) {
	repo := NewMemoryRepo()
	sub := NewSubmitter(repo, zap.NewNop(),
		WithLatency(time.Millisecond),
		WithRandSource(rand.NewSource(1)),
		WithClock(func() time.Time { return time.Unix(1000, 0) }),
	)

	id, err := sub.Submit(context.Background(), Draft{
		Category:    "IT Support > Hardware",
		Urgency:     "urgent-ish",
		Subject:     "black screen",
		Description: "no display output",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !regexp.MustCompile(`^TKT-\d{6}$`).MatchString(id) {
		t.Fatalf("id = %q, want TKT-NNNNNN", id)
	}

	tk, err := repo.Get(context.Background(), id)
	if err != nil || tk == nil {
		t.Fatalf("get %s: %v %v", id, tk, err)
	}
	if tk.Status != StatusCreated || tk.CreatedAt != 1000 {
		t.Fatalf("filed ticket: %+v", tk)
	}
	if tk.Urgency != UrgencyMedium {
		t.Fatalf("unknown urgency should normalize to Medium, got %q", tk.Urgency)
	}
	if len(tk.Events) != 1 || tk.Events[0].Type != StatusCreated {
		t.Fatalf("events: %+v", tk.Events)
	}
}

func TestSubmitHonorsContextCancel(t *testing.T) {
	sub := NewSubmitter(NewMemoryRepo(), zap.NewNop(), WithLatency(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sub.Submit(ctx, Draft{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestMemoryRepoUpdateMissingIsNotFound(t *testing.T) {
	repo := NewMemoryRepo()
	err := repo.Update(context.Background(), &Ticket{ID: "TKT-999999"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
