// Package progression implements stamp awards and the level machinery on top
// of them. A stamp is a deduplicated unit of credit; the cumulative total maps
// to a level through fixed contiguous bands, and every band crossing is
// recorded in an append-only history.
package progression

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/config"
	"github.com/modoo/community-backend/internal/domain"
)

type actionStore interface {
	Exists(ctx context.Context, ref domain.ActionRef) (bool, error)
	Insert(ctx context.Context, rec *domain.ActionRecord) (*domain.ActionRecord, error)
}

type stateStore interface {
	GetState(ctx context.Context, actorID uuid.UUID) (*domain.ProgressionState, error)
	EnsureState(ctx context.Context, actorID uuid.UUID) error
	AddStamps(ctx context.Context, actorID uuid.UUID, weight int) (int, error)
	SetLevel(ctx context.Context, actorID uuid.UUID, level domain.Level) error
	AppendHistory(ctx context.Context, tr *domain.LevelTransition) (*domain.LevelTransition, error)
	History(ctx context.Context, actorID uuid.UUID, limit int) ([]domain.LevelTransition, error)
}

type userStore interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides progression operations.
type Service struct {
	actions actionStore
	states  stateStore
	users   userStore
	tx      txManager
	cfg     config.ProgressionConfig
	log     *slog.Logger
}

// NewService creates a new Progression service.
func NewService(
	log *slog.Logger,
	cfg config.ProgressionConfig,
	actions actionStore,
	states stateStore,
	users userStore,
	tx txManager,
) *Service {
	return &Service{
		actions: actions,
		states:  states,
		users:   users,
		tx:      tx,
		cfg:     cfg,
		log:     log.With("service", "progression"),
	}
}

// AwardResult reports the outcome of a stamp award.
type AwardResult struct {
	Awarded       bool
	TotalStamps   int
	Level         domain.Level
	LeveledUp     bool
	PreviousLevel domain.Level
}
