package ticket

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IDPrefix for filed tickets; the suffix is a pseudo-random six digit number.
const IDPrefix = "TKT"

// Submitter files a draft into the local repo. This is a mock back end:
// fixed simulated latency, no retry, no idempotency key.
type Submitter struct {
	repo    Repo
	latency time.Duration
	logger  *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithLatency overrides the simulated submission latency.
func WithLatency(d time.Duration) SubmitterOption {
	return func(s *Submitter) { s.latency = d }
}

// WithRandSource seeds the id generator (tests).
func WithRandSource(src rand.Source) SubmitterOption {
	return func(s *Submitter) { s.rng = rand.New(src) }
}

// WithClock overrides the timestamp source (tests).
func WithClock(now func() time.Time) SubmitterOption {
	return func(s *Submitter) { s.now = now }
}

func NewSubmitter(repo Repo, logger *zap.Logger, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		repo:    repo,
		latency: 600 * time.Millisecond,
		logger:  logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit files the draft exactly as edited. Empty subject or description is
// accepted; only urgency is normalized (out-of-range values become Medium).
// The context bounds the simulated latency.
func (s *Submitter) Submit(ctx context.Context, d Draft) (string, error) {
	if !ValidUrgency(d.Urgency) {
		d.Urgency = UrgencyMedium
	}
	id := s.nextID()

	select {
	case <-time.After(s.latency):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	now := s.now().Unix()
	t := &Ticket{
		ID:           id,
		Subject:      d.Subject,
		Description:  d.Description,
		Category:     d.Category,
		Urgency:      d.Urgency,
		Status:       StatusCreated,
		CreatedAt:    now,
		Cycles:       []Cycle{{CreatedAt: now, Status: StatusCreated}},
		CurrentCycle: 0,
		Events:       []Event{{Type: StatusCreated, At: now, Note: "filed from support chat"}},
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return "", fmt.Errorf("submit ticket: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("ticket filed",
			zap.String("id", id),
			zap.String("category", d.Category),
			zap.String("urgency", d.Urgency),
			zap.String("subject", d.Subject),
		)
	}
	return id, nil
}

func (s *Submitter) nextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%s-%06d", IDPrefix, s.rng.Intn(1000000))
}
