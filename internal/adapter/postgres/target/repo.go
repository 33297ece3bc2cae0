// Package target implements lookups and counter maintenance for engageable
// entities (board posts, diaries). The Toggle Engine uses it for ownership
// checks and for keeping the denormalized like/scrap counters in step with
// the action ledger.
package target

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/adapter/postgres"
	"github.com/modoo/community-backend/internal/domain"
)

// tableFor maps a toggleable target type to its table and counter columns.
// Counter columns are whitelisted here; target types and action kinds never
// reach string interpolation unvalidated.
var tableFor = map[domain.TargetType]tableInfo{
	domain.TargetTypeBoardPost: {
		name: "board_posts",
		counters: map[domain.ActionKind]string{
			domain.ActionKindLike:  "like_count",
			domain.ActionKindScrap: "scrap_count",
		},
	},
	domain.TargetTypeDiary: {
		name: "diaries",
		counters: map[domain.ActionKind]string{
			domain.ActionKindLike:  "like_count",
			domain.ActionKindScrap: "scrap_count",
		},
	},
}

type tableInfo struct {
	name     string
	counters map[domain.ActionKind]string
}

// Repo provides engageable-target persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new target repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// Get returns the target's identity and owner.
// Returns domain.ErrNotFound if the row does not exist and a validation error
// for target types that are not engageable.
func (r *Repo) Get(ctx context.Context, targetType domain.TargetType, id uuid.UUID) (*domain.Target, error) {
	info, ok := tableFor[targetType]
	if !ok {
		return nil, domain.NewValidationError("target_type", fmt.Sprintf("%s is not engageable", targetType))
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)

	var ownerID uuid.UUID
	query := fmt.Sprintf(`SELECT author_id FROM %s WHERE id = $1`, info.name)
	if err := querier.QueryRow(ctx, query, id).Scan(&ownerID); err != nil {
		return nil, postgres.MapError(err, string(targetType), id)
	}

	return &domain.Target{ID: id, Type: targetType, OwnerID: ownerID}, nil
}

// AdjustCount applies an in-place delta to the target's counter for the given
// action kind and returns the new value. The counter floors at zero. The
// update runs on the caller's transaction so it commits or rolls back together
// with the ledger mutation.
func (r *Repo) AdjustCount(ctx context.Context, targetType domain.TargetType, kind domain.ActionKind, id uuid.UUID, delta int) (int64, error) {
	info, ok := tableFor[targetType]
	if !ok {
		return 0, domain.NewValidationError("target_type", fmt.Sprintf("%s is not engageable", targetType))
	}
	column, ok := info.counters[kind]
	if !ok {
		return 0, domain.NewValidationError("action_kind", fmt.Sprintf("%s has no counter on %s", kind, targetType))
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)

	var count int64
	query := fmt.Sprintf(
		`UPDATE %s SET %s = GREATEST(0, %s + $1) WHERE id = $2 RETURNING %s`,
		info.name, column, column, column,
	)
	if err := querier.QueryRow(ctx, query, delta, id).Scan(&count); err != nil {
		return 0, postgres.MapError(err, string(targetType), id)
	}

	return count, nil
}

// Count reads the current counter value without modifying it.
func (r *Repo) Count(ctx context.Context, targetType domain.TargetType, kind domain.ActionKind, id uuid.UUID) (int64, error) {
	info, ok := tableFor[targetType]
	if !ok {
		return 0, domain.NewValidationError("target_type", fmt.Sprintf("%s is not engageable", targetType))
	}
	column, ok := info.counters[kind]
	if !ok {
		return 0, domain.NewValidationError("action_kind", fmt.Sprintf("%s has no counter on %s", kind, targetType))
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)

	var count int64
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, column, info.name)
	if err := querier.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, postgres.MapError(err, string(targetType), id)
	}

	return count, nil
}

// CounterRow pairs a target with its stored counter value.
type CounterRow struct {
	ID    uuid.UUID
	Count int64
}

// Counters returns all stored counter values for one (target type, kind)
// pair. Used by the consistency checker to compare against ledger counts.
func (r *Repo) Counters(ctx context.Context, targetType domain.TargetType, kind domain.ActionKind) ([]CounterRow, error) {
	info, ok := tableFor[targetType]
	if !ok {
		return nil, domain.NewValidationError("target_type", fmt.Sprintf("%s is not engageable", targetType))
	}
	column, ok := info.counters[kind]
	if !ok {
		return nil, domain.NewValidationError("action_kind", fmt.Sprintf("%s has no counter on %s", kind, targetType))
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)

	query := fmt.Sprintf(`SELECT id, %s FROM %s ORDER BY id`, column, info.name)
	rows, err := querier.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list counters: %w", err)
	}
	defer rows.Close()

	var result []CounterRow
	for rows.Next() {
		var row CounterRow
		if err := rows.Scan(&row.ID, &row.Count); err != nil {
			return nil, fmt.Errorf("list counters: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list counters: %w", err)
	}

	if result == nil {
		result = []CounterRow{}
	}

	return result, nil
}

// SetCount overwrites a counter with a ledger-derived value. Repair path only.
func (r *Repo) SetCount(ctx context.Context, targetType domain.TargetType, kind domain.ActionKind, id uuid.UUID, value int64) error {
	info, ok := tableFor[targetType]
	if !ok {
		return domain.NewValidationError("target_type", fmt.Sprintf("%s is not engageable", targetType))
	}
	column, ok := info.counters[kind]
	if !ok {
		return domain.NewValidationError("action_kind", fmt.Sprintf("%s has no counter on %s", kind, targetType))
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)

	query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE id = $2`, info.name, column)
	tag, err := querier.Exec(ctx, query, value, id)
	if err != nil {
		return postgres.MapError(err, string(targetType), id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", targetType, id, domain.ErrNotFound)
	}

	return nil
}
