// Package consistency detects and repairs drift between the action ledger and
// the denormalized aggregates derived from it (target counters, poll vote
// totals, stamp totals). The ledger is the source of truth; repair always
// rewrites the aggregate, never the ledger.
package consistency

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/adapter/postgres/action"
	"github.com/modoo/community-backend/internal/adapter/postgres/target"
	"github.com/modoo/community-backend/internal/domain"
)

type actionStore interface {
	CountsByTarget(ctx context.Context, kind domain.ActionKind, targetType domain.TargetType) ([]action.TargetCount, error)
	CountForKind(ctx context.Context, kind domain.ActionKind, targetType domain.TargetType, targetID uuid.UUID) (int64, error)
	StampKindCounts(ctx context.Context) ([]action.StampKindCount, error)
}

type targetStore interface {
	Counters(ctx context.Context, targetType domain.TargetType, kind domain.ActionKind) ([]target.CounterRow, error)
	SetCount(ctx context.Context, targetType domain.TargetType, kind domain.ActionKind, id uuid.UUID, value int64) error
}

type pollStore interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	VoteTotal(ctx context.Context, pollID uuid.UUID) (int64, error)
}

type progressionStore interface {
	ListStates(ctx context.Context) ([]domain.ProgressionState, error)
	EnsureState(ctx context.Context, actorID uuid.UUID) error
	AddStamps(ctx context.Context, actorID uuid.UUID, weight int) (int, error)
	SetLevel(ctx context.Context, actorID uuid.UUID, level domain.Level) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides drift detection and repair over the denormalized aggregates.
type Service struct {
	actions     actionStore
	targets     targetStore
	polls       pollStore
	progression progressionStore
	tx          txManager
	log         *slog.Logger
}

// NewService creates a new Consistency service.
func NewService(
	log *slog.Logger,
	actions actionStore,
	targets targetStore,
	polls pollStore,
	progression progressionStore,
	tx txManager,
) *Service {
	return &Service{
		actions:     actions,
		targets:     targets,
		polls:       polls,
		progression: progression,
		tx:          tx,
		log:         log.With("service", "consistency"),
	}
}

// DriftKind names which aggregate disagreed with the ledger.
type DriftKind string

const (
	DriftTargetCounter DriftKind = "TARGET_COUNTER"
	DriftPollVotes     DriftKind = "POLL_VOTES"
	DriftStampTotal    DriftKind = "STAMP_TOTAL"
)

// Drift is one aggregate value that disagrees with the ledger. ID is the
// target, poll, or actor the aggregate belongs to depending on Kind.
type Drift struct {
	Kind       DriftKind
	TargetType domain.TargetType
	ActionKind domain.ActionKind
	ID         uuid.UUID
	Stored     int64
	Derived    int64
	Repaired   bool
}

// Report is the outcome of one full scan.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Scanned    int
	Drifts     []Drift
}

// counterPairs enumerates every denormalized counter column the toggle engine
// maintains. Must stay in sync with the target store's table map.
var counterPairs = []struct {
	targetType domain.TargetType
	kind       domain.ActionKind
}{
	{domain.TargetTypeBoardPost, domain.ActionKindLike},
	{domain.TargetTypeBoardPost, domain.ActionKindScrap},
	{domain.TargetTypeDiary, domain.ActionKindLike},
	{domain.TargetTypeDiary, domain.ActionKindScrap},
}
