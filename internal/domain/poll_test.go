package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRankCandidates_ByVoteCount(t *testing.T) {
	c1 := Candidate{ID: uuid.New(), VoteCount: 1}
	c2 := Candidate{ID: uuid.New(), VoteCount: 2}
	c3 := Candidate{ID: uuid.New(), VoteCount: 0}

	ranked := RankCandidates([]Candidate{c1, c2, c3})

	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked candidates, got %d", len(ranked))
	}
	if ranked[0].ID != c2.ID || ranked[0].Rank != 1 {
		t.Errorf("rank 1: got %v (rank %d), want c2", ranked[0].ID, ranked[0].Rank)
	}
	if ranked[1].ID != c1.ID || ranked[1].Rank != 2 {
		t.Errorf("rank 2: got %v (rank %d), want c1", ranked[1].ID, ranked[1].Rank)
	}
	if ranked[2].ID != c3.ID || ranked[2].Rank != 3 {
		t.Errorf("rank 3: got %v (rank %d), want c3", ranked[2].ID, ranked[2].Rank)
	}
}

func TestRankCandidates_TiebreakScore(t *testing.T) {
	low := Candidate{ID: uuid.New(), VoteCount: 3, TiebreakScore: 10}
	high := Candidate{ID: uuid.New(), VoteCount: 3, TiebreakScore: 20}

	ranked := RankCandidates([]Candidate{low, high})

	if ranked[0].ID != high.ID {
		t.Errorf("expected higher tiebreak score first, got %v", ranked[0].ID)
	}
}

func TestRankCandidates_IDTiebreakIsDeterministic(t *testing.T) {
	a := Candidate{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000a"), VoteCount: 1, TiebreakScore: 5}
	b := Candidate{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000b"), VoteCount: 1, TiebreakScore: 5}

	first := RankCandidates([]Candidate{b, a})
	second := RankCandidates([]Candidate{a, b})

	if first[0].ID != a.ID || second[0].ID != a.ID {
		t.Error("equal candidates must order by id ascending regardless of input order")
	}
}

func TestRankCandidates_DoesNotMutateInput(t *testing.T) {
	in := []Candidate{
		{ID: uuid.New(), VoteCount: 0},
		{ID: uuid.New(), VoteCount: 5},
	}
	firstID := in[0].ID

	RankCandidates(in)

	if in[0].ID != firstID {
		t.Error("input slice was reordered")
	}
}

func TestPoll_AcceptsVotesAt(t *testing.T) {
	now := time.Now()
	poll := &Poll{Status: PollStatusActive, EndAt: now.Add(time.Hour)}

	if !poll.AcceptsVotesAt(now) {
		t.Error("active poll before endAt should accept votes")
	}
	if poll.AcceptsVotesAt(now.Add(2 * time.Hour)) {
		t.Error("poll past endAt should not accept votes")
	}

	poll.Status = PollStatusClosed
	if poll.AcceptsVotesAt(now) {
		t.Error("closed poll should not accept votes")
	}
}

func TestPoll_Candidate(t *testing.T) {
	c := Candidate{ID: uuid.New()}
	poll := &Poll{Candidates: []Candidate{c}}

	if got := poll.Candidate(c.ID); got == nil || got.ID != c.ID {
		t.Error("expected to find candidate by ID")
	}
	if poll.Candidate(uuid.New()) != nil {
		t.Error("expected nil for foreign candidate ID")
	}
}

func TestPeriodOf(t *testing.T) {
	p := PeriodOf(time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC))
	if p.Year != 2025 || p.Month != time.March {
		t.Errorf("PeriodOf: got %v", p)
	}
	if p.String() != "2025-03" {
		t.Errorf("Period.String: got %q, want %q", p.String(), "2025-03")
	}
}
