package poll_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/modoo/community-backend/internal/adapter/postgres/poll"
	"github.com/modoo/community-backend/internal/adapter/postgres/testhelper"
	"github.com/modoo/community-backend/internal/domain"
)

// newRepo sets up a test DB and returns a ready Repo + pool.
func newRepo(t *testing.T) (*poll.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return poll.New(pool), pool
}

// periodYear hands out distinct years so tests sharing the database never
// collide on the (kind, period) unique index.
var periodYear atomic.Int64

func init() {
	periodYear.Store(2100)
}

func uniquePeriod() domain.Period {
	return domain.Period{Year: int(periodYear.Add(1)), Month: time.March}
}

func buildPoll(period domain.Period, candidates int) *domain.Poll {
	start := time.Date(period.Year, period.Month, 1, 0, 0, 0, 0, time.UTC)
	p := &domain.Poll{
		Kind:    domain.PollKindDiary,
		Period:  period,
		Status:  domain.PollStatusActive,
		StartAt: start,
		EndAt:   start.AddDate(0, 0, 7),
	}
	for i := 0; i < candidates; i++ {
		p.Candidates = append(p.Candidates, domain.Candidate{
			RefID:         uuid.New(),
			TiebreakScore: 10 - i,
		})
	}
	return p
}

func TestRepo_CreateAndGetByID(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, buildPoll(uniquePeriod(), 3))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("Create: missing poll id")
	}
	if len(created.Candidates) != 3 {
		t.Fatalf("Create: got %d candidates, want 3", len(created.Candidates))
	}
	for _, c := range created.Candidates {
		if c.ID == uuid.Nil || c.PollID != created.ID {
			t.Errorf("Create: candidate not linked: %+v", c)
		}
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Kind != domain.PollKindDiary || got.Status != domain.PollStatusActive {
		t.Errorf("GetByID: got %s/%s", got.Kind, got.Status)
	}
	if got.Period != created.Period {
		t.Errorf("GetByID: period = %v, want %v", got.Period, created.Period)
	}
	if len(got.Candidates) != 3 {
		t.Errorf("GetByID: got %d candidates, want 3", len(got.Candidates))
	}
}

func TestRepo_CreateDuplicatePeriod(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	period := uniquePeriod()

	if _, err := repo.Create(ctx, buildPoll(period, 3)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := repo.Create(ctx, buildPoll(period, 3))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("Create duplicate: error = %v, want ErrAlreadyExists", err)
	}
}

func TestRepo_GetByPeriod(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	period := uniquePeriod()

	created, err := repo.Create(ctx, buildPoll(period, 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByPeriod(ctx, domain.PollKindDiary, period)
	if err != nil {
		t.Fatalf("GetByPeriod: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByPeriod: id = %v, want %v", got.ID, created.ID)
	}

	if _, err := repo.GetByPeriod(ctx, domain.PollKindOda, period); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByPeriod other kind: error = %v, want ErrNotFound", err)
	}
}

func TestRepo_IncrementVote(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, buildPoll(uniquePeriod(), 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	candidate := created.Candidates[0]

	count, err := repo.IncrementVote(ctx, created.ID, candidate.ID)
	if err != nil {
		t.Fatalf("IncrementVote: %v", err)
	}
	if count != 1 {
		t.Errorf("IncrementVote: count = %d, want 1", count)
	}

	count, err = repo.IncrementVote(ctx, created.ID, candidate.ID)
	if err != nil {
		t.Fatalf("IncrementVote: %v", err)
	}
	if count != 2 {
		t.Errorf("IncrementVote: count = %d, want 2", count)
	}

	// A candidate ID from another poll must not touch this poll's rows.
	other, err := repo.Create(ctx, buildPoll(uniquePeriod(), 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.IncrementVote(ctx, created.ID, other.Candidates[0].ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("IncrementVote foreign candidate: error = %v, want ErrNotFound", err)
	}

	total, err := repo.VoteTotal(ctx, created.ID)
	if err != nil {
		t.Fatalf("VoteTotal: %v", err)
	}
	if total != 2 {
		t.Errorf("VoteTotal: got %d, want 2", total)
	}
}

func TestRepo_Close(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, buildPoll(uniquePeriod(), 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Close(ctx, created.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Closing again rewrites the same status.
	if err := repo.Close(ctx, created.ID); err != nil {
		t.Fatalf("Close twice: %v", err)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.PollStatusClosed {
		t.Errorf("Close: status = %s, want CLOSED", got.Status)
	}

	if err := repo.Close(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Close unknown: error = %v, want ErrNotFound", err)
	}
}

func TestRepo_ListExpiredActive(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	expired, err := repo.Create(ctx, buildPoll(uniquePeriod(), 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	running, err := repo.Create(ctx, buildPoll(uniquePeriod(), 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	alreadyClosed, err := repo.Create(ctx, buildPoll(uniquePeriod(), 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Close(ctx, alreadyClosed.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Periods hand out increasing years, so at this instant only the first
	// poll's window has passed.
	got, err := repo.ListExpiredActive(ctx, expired.EndAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListExpiredActive: %v", err)
	}

	found := map[uuid.UUID]bool{}
	for _, p := range got {
		found[p.ID] = true
	}
	if !found[expired.ID] {
		t.Error("ListExpiredActive: expired poll missing")
	}
	if found[running.ID] {
		t.Error("ListExpiredActive: poll inside its window returned")
	}
	if found[alreadyClosed.ID] {
		t.Error("ListExpiredActive: closed poll returned")
	}
}

func TestRepo_ListClosedSince(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	recent, err := repo.Create(ctx, buildPoll(uniquePeriod(), 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Close(ctx, recent.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	stillActive, err := repo.Create(ctx, buildPoll(uniquePeriod(), 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.ListClosedSince(ctx, domain.PollKindDiary, recent.EndAt.Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListClosedSince: %v", err)
	}

	found := map[uuid.UUID]bool{}
	for _, p := range got {
		found[p.ID] = true
	}
	if !found[recent.ID] {
		t.Error("ListClosedSince: recently closed poll missing")
	}
	if found[stillActive.ID] {
		t.Error("ListClosedSince: active poll returned")
	}

	// A window that opens after the poll's end excludes it.
	got, err = repo.ListClosedSince(ctx, domain.PollKindDiary, recent.EndAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListClosedSince: %v", err)
	}
	for _, p := range got {
		if p.ID == recent.ID {
			t.Error("ListClosedSince: poll closed before the window returned")
		}
	}

	// Kind filter.
	got, err = repo.ListClosedSince(ctx, domain.PollKindOda, recent.EndAt.Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListClosedSince: %v", err)
	}
	for _, p := range got {
		if p.ID == recent.ID {
			t.Error("ListClosedSince: diary poll returned for ODA kind")
		}
	}
}
