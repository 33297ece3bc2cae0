// Package action implements the ActionRecord store using PostgreSQL.
// It is the single serialization point of the engagement ledger: a
// unique index on (actor_id, action_kind, target_type, target_id) guarantees
// at most one live record per actor/action/target (rows with a NULL target
// carry no uniqueness), and every operation runs
// on the caller's transaction when one is present in the context.
package action

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/modoo/community-backend/internal/adapter/postgres"
	"github.com/modoo/community-backend/internal/domain"
)

// Repo provides action record persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new action record repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const existsSQL = `
SELECT EXISTS (
    SELECT 1 FROM action_records
    WHERE actor_id = $1 AND action_kind = $2 AND target_type = $3 AND target_id = $4
)`

const insertSQL = `
INSERT INTO action_records (actor_id, action_kind, target_type, target_id, payload)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`

const deleteSQL = `
DELETE FROM action_records
WHERE actor_id = $1 AND action_kind = $2 AND target_type = $3 AND target_id = $4`

const countForSQL = `
SELECT count(*) FROM action_records
WHERE target_type = $1 AND target_id = $2`

const countForKindSQL = `
SELECT count(*) FROM action_records
WHERE action_kind = $1 AND target_type = $2 AND target_id = $3`

const countsByTargetSQL = `
SELECT target_id, count(*)
FROM action_records
WHERE action_kind = $1 AND target_type = $2 AND target_id IS NOT NULL
GROUP BY target_id`

// Exists reports whether a live record matches the uniqueness key.
func (r *Repo) Exists(ctx context.Context, ref domain.ActionRef) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var exists bool
	err := querier.QueryRow(ctx, existsSQL, ref.ActorID, ref.Kind, ref.TargetType, ref.TargetID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("action exists: %w", err)
	}

	return exists, nil
}

// Insert stores a new record and fills in the generated ID and timestamp.
// A uniqueness violation (concurrent duplicate) maps to domain.ErrAlreadyExists.
func (r *Repo) Insert(ctx context.Context, rec *domain.ActionRecord) (*domain.ActionRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var (
		id        uuid.UUID
		createdAt time.Time
	)
	err := querier.QueryRow(ctx, insertSQL,
		rec.ActorID, rec.Kind, rec.TargetType,
		ptrUUIDToPgUUID(rec.TargetID), ptrStringToPgText(rec.Payload),
	).Scan(&id, &createdAt)
	if err != nil {
		return nil, postgres.MapError(err, "action", rec.ActorID)
	}

	out := *rec
	out.ID = id
	out.CreatedAt = createdAt
	return &out, nil
}

// Delete removes the record matching the uniqueness key.
// Returns domain.ErrNotFound when no record matched; only toggles are ever deleted.
func (r *Repo) Delete(ctx context.Context, ref domain.ActionRef) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	tag, err := querier.Exec(ctx, deleteSQL, ref.ActorID, ref.Kind, ref.TargetType, ref.TargetID)
	if err != nil {
		return postgres.MapError(err, "action", ref.TargetID)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("action %s/%s: %w", ref.TargetType, ref.TargetID, domain.ErrNotFound)
	}

	return nil
}

// CountFor returns the number of live records referencing a target.
// This is the repair-path truth source; hot paths read denormalized counters.
func (r *Repo) CountFor(ctx context.Context, targetType domain.TargetType, targetID uuid.UUID) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var count int64
	if err := querier.QueryRow(ctx, countForSQL, targetType, targetID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count actions: %w", err)
	}

	return count, nil
}

// CountForKind returns the number of live records of one kind referencing a target.
func (r *Repo) CountForKind(ctx context.Context, kind domain.ActionKind, targetType domain.TargetType, targetID uuid.UUID) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var count int64
	if err := querier.QueryRow(ctx, countForKindSQL, kind, targetType, targetID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count actions by kind: %w", err)
	}

	return count, nil
}

// TargetCount pairs a target with its ledger-derived record count.
type TargetCount struct {
	TargetID uuid.UUID
	Count    int64
}

// CountsByTarget returns ledger counts grouped by target for one
// (kind, target type) pair. Used by the consistency checker, never by hot paths.
func (r *Repo) CountsByTarget(ctx context.Context, kind domain.ActionKind, targetType domain.TargetType) ([]TargetCount, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	rows, err := querier.Query(ctx, countsByTargetSQL, kind, targetType)
	if err != nil {
		return nil, fmt.Errorf("counts by target: %w", err)
	}
	defer rows.Close()

	var result []TargetCount
	for rows.Next() {
		var tc TargetCount
		if err := rows.Scan(&tc.TargetID, &tc.Count); err != nil {
			return nil, fmt.Errorf("counts by target: %w", err)
		}
		result = append(result, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("counts by target: %w", err)
	}

	if result == nil {
		result = []TargetCount{}
	}

	return result, nil
}

const stampKindCountsSQL = `
SELECT actor_id, payload, count(*)
FROM action_records
WHERE action_kind = $1 AND payload IS NOT NULL
GROUP BY actor_id, payload`

// StampKindCount is a per-actor tally of stamp records of one kind.
type StampKindCount struct {
	ActorID uuid.UUID
	Kind    domain.StampKind
	Count   int64
}

// StampKindCounts returns, per actor, how many stamp records of each kind the
// ledger holds. The consistency checker rebuilds expected totals from this.
func (r *Repo) StampKindCounts(ctx context.Context) ([]StampKindCount, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	rows, err := querier.Query(ctx, stampKindCountsSQL, domain.ActionKindStamp)
	if err != nil {
		return nil, fmt.Errorf("stamp kind counts: %w", err)
	}
	defer rows.Close()

	var result []StampKindCount
	for rows.Next() {
		var (
			sc   StampKindCount
			kind string
		)
		if err := rows.Scan(&sc.ActorID, &kind, &sc.Count); err != nil {
			return nil, fmt.Errorf("stamp kind counts: %w", err)
		}
		sc.Kind = domain.StampKind(kind)
		result = append(result, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stamp kind counts: %w", err)
	}

	if result == nil {
		result = []StampKindCount{}
	}

	return result, nil
}

// ---------------------------------------------------------------------------
// pgtype helpers
// ---------------------------------------------------------------------------

func ptrStringToPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func ptrUUIDToPgUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}
