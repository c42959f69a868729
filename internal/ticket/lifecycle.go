package ticket

// Lifecycle transitions. Each mutator stamps the top-level snapshot, the
// current cycle, and appends an audit event; reopen starts a new cycle.

func (t *Ticket) Assign(now int64, note string) {
	t.AssignedAt = now
	t.Status = StatusAssigned
	if c := t.currentCycle(); c != nil {
		c.AssignedAt = now
		c.Status = StatusAssigned
	}
	t.Events = append(t.Events, Event{Type: StatusAssigned, At: now, Note: note})
}

// Resolve is terminal for the current cycle; an ongoing escalation is cleared.
func (t *Ticket) Resolve(now int64, note string) {
	t.ResolvedAt = now
	t.EscalatedAt = 0
	t.Status = StatusResolved
	if c := t.currentCycle(); c != nil {
		c.ResolvedAt = now
		c.EscalatedAt = 0
		c.Status = StatusResolved
	}
	t.Events = append(t.Events, Event{Type: StatusResolved, At: now, Note: note})
}

func (t *Ticket) Escalate(now int64, note string) error {
	if t.Status == StatusResolved {
		return ErrConflict
	}
	t.EscalatedAt = now
	t.Status = StatusEscalated
	if c := t.currentCycle(); c != nil {
		c.EscalatedAt = now
		c.Status = StatusEscalated
	}
	t.Events = append(t.Events, Event{Type: StatusEscalated, At: now, Note: note})
	return nil
}

// Reopen is only valid on a resolved ticket and starts a fresh cycle; the
// top-level snapshot is reset to mirror the new cycle.
func (t *Ticket) Reopen(now int64, note string) error {
	if t.Status != StatusResolved {
		return ErrConflict
	}
	t.ReopenedAt = now
	t.Cycles = append(t.Cycles, Cycle{CreatedAt: now, Status: StatusCreated})
	t.CurrentCycle = len(t.Cycles) - 1
	t.Status = StatusCreated
	t.AssignedAt = 0
	t.ResolvedAt = 0
	t.EscalatedAt = 0
	t.Events = append(t.Events, Event{Type: "reopened", At: now, Note: note})
	return nil
}

func (t *Ticket) currentCycle() *Cycle {
	if t.CurrentCycle >= 0 && t.CurrentCycle < len(t.Cycles) {
		return &t.Cycles[t.CurrentCycle]
	}
	return nil
}
