// Package toggle implements the reversible engagement engine: likes and
// scraps. A toggle inserts or deletes the ledger record and moves the
// target's denormalized counter in the same transaction.
package toggle

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/domain"
)

type actionStore interface {
	Exists(ctx context.Context, ref domain.ActionRef) (bool, error)
	Insert(ctx context.Context, rec *domain.ActionRecord) (*domain.ActionRecord, error)
	Delete(ctx context.Context, ref domain.ActionRef) error
}

type targetStore interface {
	Get(ctx context.Context, targetType domain.TargetType, id uuid.UUID) (*domain.Target, error)
	AdjustCount(ctx context.Context, targetType domain.TargetType, kind domain.ActionKind, id uuid.UUID, delta int) (int64, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides toggle operations.
type Service struct {
	actions actionStore
	targets targetStore
	tx      txManager
	log     *slog.Logger
}

// NewService creates a new Toggle service.
func NewService(
	log *slog.Logger,
	actions actionStore,
	targets targetStore,
	tx txManager,
) *Service {
	return &Service{
		actions: actions,
		targets: targets,
		tx:      tx,
		log:     log.With("service", "toggle"),
	}
}

// ToggleResult reports the state after a toggle: whether the engagement is
// now on, and the target's current count for that action kind.
type ToggleResult struct {
	Active bool
	Count  int64
}
