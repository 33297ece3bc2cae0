// Package ranking implements the candidate sources the monthly polls are
// built from: a popularity ranking of the period's diaries and the
// top-scoring ODA project per category. The Poll Engine treats both as
// caller-supplied lists; this package is the concrete supplier used by the
// scheduler.
package ranking

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/adapter/postgres"
	"github.com/modoo/community-backend/internal/domain"
)

// Repo provides ranked candidate lookups backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new ranking repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// RankedRef is an entity reference with the popularity or match score that
// ranked it. The score becomes the poll candidate's tiebreak score.
type RankedRef struct {
	RefID    uuid.UUID `db:"ref_id"`
	Category *string   `db:"category"`
	Score    int       `db:"score"`
}

// TopDiaries returns the period's diaries ordered by like count (ties broken
// by id for determinism), at most limit entries. Diaries with zero likes
// still rank; an empty month returns an empty slice.
func (r *Repo) TopDiaries(ctx context.Context, period domain.Period, limit int) ([]RankedRef, error) {
	from := time.Date(period.Year, period.Month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	query, args, err := builder.
		Select("id AS ref_id", "NULL AS category", "like_count AS score").
		From("diaries").
		Where(sq.GtOrEq{"created_at": from}).
		Where(sq.Lt{"created_at": to}).
		OrderBy("like_count DESC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build top diaries query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)

	var refs []RankedRef
	if err := pgxscan.Select(ctx, querier, &refs, query, args...); err != nil {
		return nil, fmt.Errorf("top diaries: %w", err)
	}

	if refs == nil {
		refs = []RankedRef{}
	}

	return refs, nil
}

// CategoryWinners returns the highest-scoring ODA project of each category,
// one row per category that has at least one project. Ties break by id.
func (r *Repo) CategoryWinners(ctx context.Context) ([]RankedRef, error) {
	query, args, err := builder.
		Select("id AS ref_id", "category", "match_score AS score").
		From("oda_projects").
		Options("DISTINCT ON (category)").
		OrderBy("category ASC", "match_score DESC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category winners query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)

	var refs []RankedRef
	if err := pgxscan.Select(ctx, querier, &refs, query, args...); err != nil {
		return nil, fmt.Errorf("category winners: %w", err)
	}

	if refs == nil {
		refs = []RankedRef{}
	}

	return refs, nil
}
