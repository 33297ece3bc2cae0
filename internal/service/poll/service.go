// Package poll implements the time-boxed voting engine. A poll's candidate
// set is fixed at creation, every actor gets at most one vote, and results
// are ranked on read so they always agree with the stored counts.
package poll

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/config"
	"github.com/modoo/community-backend/internal/domain"
)

type pollStore interface {
	Create(ctx context.Context, poll *domain.Poll) (*domain.Poll, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
	IncrementVote(ctx context.Context, pollID, candidateID uuid.UUID) (int, error)
	Close(ctx context.Context, id uuid.UUID) error
	ListExpiredActive(ctx context.Context, now time.Time) ([]domain.Poll, error)
	ListClosedSince(ctx context.Context, kind domain.PollKind, since time.Time) ([]domain.Poll, error)
}

type actionStore interface {
	Insert(ctx context.Context, rec *domain.ActionRecord) (*domain.ActionRecord, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides poll operations.
type Service struct {
	polls   pollStore
	actions actionStore
	tx      txManager
	cfg     config.PollConfig
	log     *slog.Logger
	now     func() time.Time
}

// NewService creates a new Poll service.
func NewService(
	log *slog.Logger,
	cfg config.PollConfig,
	polls pollStore,
	actions actionStore,
	tx txManager,
) *Service {
	return &Service{
		polls:   polls,
		actions: actions,
		tx:      tx,
		cfg:     cfg,
		log:     log.With("service", "poll"),
		now:     time.Now,
	}
}

// PollResult is a poll with its candidates in rank order.
type PollResult struct {
	Poll   domain.Poll
	Ranked []domain.RankedCandidate
}
