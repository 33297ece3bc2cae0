// Package poll implements poll and candidate persistence using PostgreSQL.
// A unique index on (kind, period_year, period_month) enforces one poll per
// period per kind; candidate rows are written once at creation and only their
// vote_count ever changes afterwards.
package poll

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

// Repo provides poll persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new poll repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const insertPollSQL = `
INSERT INTO polls (kind, period_year, period_month, status, start_at, end_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at`

const getPollSQL = `
SELECT id, kind, period_year, period_month, status, start_at, end_at, created_at
FROM polls
WHERE id = $1`

const getPollByPeriodSQL = `
SELECT id, kind, period_year, period_month, status, start_at, end_at, created_at
FROM polls
WHERE kind = $1 AND period_year = $2 AND period_month = $3`

const candidatesSQL = `
SELECT id, poll_id, ref_id, category, tiebreak_score, vote_count
FROM poll_candidates
WHERE poll_id = $1
ORDER BY tiebreak_score DESC, id`

const incrementVoteSQL = `
UPDATE poll_candidates
SET vote_count = vote_count + 1
WHERE id = $1 AND poll_id = $2
RETURNING vote_count`

const closePollSQL = `
UPDATE polls SET status = $1 WHERE id = $2`

const listExpiredActiveSQL = `
SELECT id, kind, period_year, period_month, status, start_at, end_at, created_at
FROM polls
WHERE status = $1 AND end_at < $2
ORDER BY end_at`

const listClosedSinceSQL = `
SELECT id, kind, period_year, period_month, status, start_at, end_at, created_at
FROM polls
WHERE kind = $1 AND status = $2 AND end_at >= $3
ORDER BY end_at`

const voteTotalSQL = `
SELECT COALESCE(sum(vote_count), 0) FROM poll_candidates WHERE poll_id = $1`

// candidateRow is the scan target for poll_candidates reads.
type candidateRow struct {
	ID            uuid.UUID `db:"id"`
	PollID        uuid.UUID `db:"poll_id"`
	RefID         uuid.UUID `db:"ref_id"`
	Category      *string   `db:"category"`
	TiebreakScore int       `db:"tiebreak_score"`
	VoteCount     int       `db:"vote_count"`
}

// Create inserts a poll with its full candidate set in the caller's
// transaction. A duplicate (kind, period) maps to domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, poll *domain.Poll) (*domain.Poll, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var (
		id        uuid.UUID
		createdAt time.Time
	)
	err := querier.QueryRow(ctx, insertPollSQL,
		poll.Kind, poll.Period.Year, int(poll.Period.Month),
		poll.Status, poll.StartAt, poll.EndAt,
	).Scan(&id, &createdAt)
	if err != nil {
		return nil, postgres.MapError(err, "poll", poll.Period)
	}

	insert := builder.Insert("poll_candidates").
		Columns("poll_id", "ref_id", "category", "tiebreak_score")
	for _, c := range poll.Candidates {
		insert = insert.Values(id, c.RefID, c.Category, c.TiebreakScore)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build candidate insert: %w", err)
	}
	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return nil, postgres.MapError(err, "poll candidates", id)
	}

	created, err := r.getByID(ctx, querier, id)
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetByID returns a poll with its candidates.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)
	return r.getByID(ctx, querier, id)
}

func (r *Repo) getByID(ctx context.Context, querier postgres.Querier, id uuid.UUID) (*domain.Poll, error) {
	poll, err := scanPoll(querier.QueryRow(ctx, getPollSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "poll", id)
	}

	if err := r.loadCandidates(ctx, querier, poll); err != nil {
		return nil, err
	}

	return poll, nil
}

// GetByPeriod returns the poll for a (kind, period) pair with its candidates.
func (r *Repo) GetByPeriod(ctx context.Context, kind domain.PollKind, period domain.Period) (*domain.Poll, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	poll, err := scanPoll(querier.QueryRow(ctx, getPollByPeriodSQL, kind, period.Year, int(period.Month)))
	if err != nil {
		return nil, postgres.MapError(err, "poll", period)
	}

	if err := r.loadCandidates(ctx, querier, poll); err != nil {
		return nil, err
	}

	return poll, nil
}

// IncrementVote applies an in-place +1 to a candidate's vote count and
// returns the new value. The poll_id guard keeps a foreign candidate ID from
// touching another poll's rows; zero rows affected maps to domain.ErrNotFound.
func (r *Repo) IncrementVote(ctx context.Context, pollID, candidateID uuid.UUID) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var count int
	if err := querier.QueryRow(ctx, incrementVoteSQL, candidateID, pollID).Scan(&count); err != nil {
		return 0, postgres.MapError(err, "candidate", candidateID)
	}

	return count, nil
}

// Close sets the poll status to CLOSED. Closing an already-closed poll
// rewrites the same value and is not an error; an unknown poll is ErrNotFound.
func (r *Repo) Close(ctx context.Context, id uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	tag, err := querier.Exec(ctx, closePollSQL, domain.PollStatusClosed, id)
	if err != nil {
		return postgres.MapError(err, "poll", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("poll %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListExpiredActive returns ACTIVE polls whose voting window has passed.
// Candidates are not loaded; the scheduler only needs IDs and periods.
func (r *Repo) ListExpiredActive(ctx context.Context, now time.Time) ([]domain.Poll, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	rows, err := querier.Query(ctx, listExpiredActiveSQL, domain.PollStatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("list expired polls: %w", err)
	}
	defer rows.Close()

	var result []domain.Poll
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("list expired polls: %w", err)
		}
		result = append(result, *poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expired polls: %w", err)
	}

	if result == nil {
		result = []domain.Poll{}
	}

	return result, nil
}

// ListClosedSince returns CLOSED polls of a kind whose voting window ended at
// or after the given time, oldest first. Candidates are not loaded.
func (r *Repo) ListClosedSince(ctx context.Context, kind domain.PollKind, since time.Time) ([]domain.Poll, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	rows, err := querier.Query(ctx, listClosedSinceSQL, kind, domain.PollStatusClosed, since)
	if err != nil {
		return nil, fmt.Errorf("list closed polls: %w", err)
	}
	defer rows.Close()

	var result []domain.Poll
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("list closed polls: %w", err)
		}
		result = append(result, *poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list closed polls: %w", err)
	}

	if result == nil {
		result = []domain.Poll{}
	}

	return result, nil
}

// VoteTotal returns the sum of candidate vote counts for a poll. The
// consistency checker compares it against the ledger's record count.
func (r *Repo) VoteTotal(ctx context.Context, pollID uuid.UUID) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var total int64
	if err := querier.QueryRow(ctx, voteTotalSQL, pollID).Scan(&total); err != nil {
		return 0, fmt.Errorf("poll vote total: %w", err)
	}

	return total, nil
}

// ListIDs returns all poll IDs, oldest first.
func (r *Repo) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	rows, err := querier.Query(ctx, `SELECT id FROM polls ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list poll ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list poll ids: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list poll ids: %w", err)
	}

	if ids == nil {
		ids = []uuid.UUID{}
	}

	return ids, nil
}

func (r *Repo) loadCandidates(ctx context.Context, querier postgres.Querier, poll *domain.Poll) error {
	var rows []candidateRow
	if err := pgxscan.Select(ctx, querier, &rows, candidatesSQL, poll.ID); err != nil {
		return fmt.Errorf("load candidates: %w", err)
	}

	poll.Candidates = make([]domain.Candidate, len(rows))
	for i, row := range rows {
		poll.Candidates[i] = domain.Candidate{
			ID:            row.ID,
			PollID:        row.PollID,
			RefID:         row.RefID,
			Category:      row.Category,
			TiebreakScore: row.TiebreakScore,
			VoteCount:     row.VoteCount,
		}
	}

	return nil
}

// pgxRow is the subset of pgx.Row/pgx.Rows needed by scanPoll.
type pgxRow interface {
	Scan(dest ...any) error
}

func scanPoll(row pgxRow) (*domain.Poll, error) {
	var (
		poll  domain.Poll
		month int
	)
	err := row.Scan(
		&poll.ID, &poll.Kind, &poll.Period.Year, &month,
		&poll.Status, &poll.StartAt, &poll.EndAt, &poll.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	poll.Period.Month = time.Month(month)
	return &poll, nil
}
