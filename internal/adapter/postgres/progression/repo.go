// Package progression implements per-actor stamp totals, levels, and the
// append-only level history using PostgreSQL.
package progression

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/adapter/postgres"
	"github.com/modoo/community-backend/internal/domain"
)

// Repo provides progression state persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new progression repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const getStateSQL = `
SELECT actor_id, total_stamps, current_level, updated_at
FROM actor_progression
WHERE actor_id = $1`

const ensureStateSQL = `
INSERT INTO actor_progression (actor_id, total_stamps, current_level)
VALUES ($1, 0, $2)
ON CONFLICT (actor_id) DO NOTHING`

const addStampsSQL = `
UPDATE actor_progression
SET total_stamps = total_stamps + $2, updated_at = now()
WHERE actor_id = $1
RETURNING total_stamps`

const setLevelSQL = `
UPDATE actor_progression
SET current_level = $2, updated_at = now()
WHERE actor_id = $1`

const appendHistorySQL = `
INSERT INTO level_history (actor_id, from_level, to_level, total_stamps)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`

const historySQL = `
SELECT id, actor_id, from_level, to_level, total_stamps, created_at
FROM level_history
WHERE actor_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`

const listStatesSQL = `
SELECT actor_id, total_stamps, current_level, updated_at
FROM actor_progression
ORDER BY actor_id`

// GetState returns an actor's progression state.
// Returns domain.ErrNotFound when no state row exists yet.
func (r *Repo) GetState(ctx context.Context, actorID uuid.UUID) (*domain.ProgressionState, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var state domain.ProgressionState
	err := querier.QueryRow(ctx, getStateSQL, actorID).Scan(
		&state.ActorID, &state.TotalStamps, &state.CurrentLevel, &state.UpdatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "progression", actorID)
	}

	return &state, nil
}

// EnsureState creates the zero-stamp state row if absent. Idempotent.
func (r *Repo) EnsureState(ctx context.Context, actorID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	if _, err := querier.Exec(ctx, ensureStateSQL, actorID, domain.LevelFromStamps(0)); err != nil {
		return postgres.MapError(err, "progression", actorID)
	}

	return nil
}

// AddStamps applies an in-place increment to the actor's total and returns
// the new value. The increment runs in the caller's transaction alongside the
// ledger insert; totals never decrease.
func (r *Repo) AddStamps(ctx context.Context, actorID uuid.UUID, weight int) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var total int
	if err := querier.QueryRow(ctx, addStampsSQL, actorID, weight).Scan(&total); err != nil {
		return 0, postgres.MapError(err, "progression", actorID)
	}

	return total, nil
}

// SetLevel persists the actor's derived level.
func (r *Repo) SetLevel(ctx context.Context, actorID uuid.UUID, level domain.Level) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	tag, err := querier.Exec(ctx, setLevelSQL, actorID, level)
	if err != nil {
		return postgres.MapError(err, "progression", actorID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("progression %s: %w", actorID, domain.ErrNotFound)
	}

	return nil
}

// AppendHistory records one level transition.
func (r *Repo) AppendHistory(ctx context.Context, tr *domain.LevelTransition) (*domain.LevelTransition, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var (
		id        uuid.UUID
		createdAt time.Time
	)
	err := querier.QueryRow(ctx, appendHistorySQL,
		tr.ActorID, tr.FromLevel, tr.ToLevel, tr.TotalStamps,
	).Scan(&id, &createdAt)
	if err != nil {
		return nil, postgres.MapError(err, "level history", tr.ActorID)
	}

	out := *tr
	out.ID = id
	out.CreatedAt = createdAt
	return &out, nil
}

// History returns the actor's most recent level transitions, newest first.
// Returns an empty slice (not nil) when the actor has no transitions.
func (r *Repo) History(ctx context.Context, actorID uuid.UUID, limit int) ([]domain.LevelTransition, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	rows, err := querier.Query(ctx, historySQL, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("level history: %w", err)
	}
	defer rows.Close()

	var result []domain.LevelTransition
	for rows.Next() {
		var tr domain.LevelTransition
		if err := rows.Scan(&tr.ID, &tr.ActorID, &tr.FromLevel, &tr.ToLevel, &tr.TotalStamps, &tr.CreatedAt); err != nil {
			return nil, fmt.Errorf("level history: %w", err)
		}
		result = append(result, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("level history: %w", err)
	}

	if result == nil {
		result = []domain.LevelTransition{}
	}

	return result, nil
}

// ListStates returns every actor's progression state. Consistency checks only.
func (r *Repo) ListStates(ctx context.Context) ([]domain.ProgressionState, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	rows, err := querier.Query(ctx, listStatesSQL)
	if err != nil {
		return nil, fmt.Errorf("list progression states: %w", err)
	}
	defer rows.Close()

	var result []domain.ProgressionState
	for rows.Next() {
		var state domain.ProgressionState
		if err := rows.Scan(&state.ActorID, &state.TotalStamps, &state.CurrentLevel, &state.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list progression states: %w", err)
		}
		result = append(result, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list progression states: %w", err)
	}

	if result == nil {
		result = []domain.ProgressionState{}
	}

	return result, nil
}
