package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Period is the year+month a poll belongs to.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Poll is a time-boxed single-choice vote over a candidate set fixed at
// creation. Exactly one poll exists per (kind, period).
type Poll struct {
	ID         uuid.UUID
	Kind       PollKind
	Period     Period
	Status     PollStatus
	StartAt    time.Time
	EndAt      time.Time
	Candidates []Candidate
	CreatedAt  time.Time
}

// AcceptsVotesAt reports whether the poll takes votes at the given instant.
func (p *Poll) AcceptsVotesAt(now time.Time) bool {
	return p.Status == PollStatusActive && !now.After(p.EndAt)
}

// Candidate returns the candidate with the given ID, or nil if it does not
// belong to the poll.
func (p *Poll) Candidate(id uuid.UUID) *Candidate {
	for i := range p.Candidates {
		if p.Candidates[i].ID == id {
			return &p.Candidates[i]
		}
	}
	return nil
}

// Candidate is one votable option of a poll. RefID points at the underlying
// entity (a diary, an ODA project). TiebreakScore is the popularity or match
// score fixed at creation, used only to break vote-count ties.
type Candidate struct {
	ID            uuid.UUID
	PollID        uuid.UUID
	RefID         uuid.UUID
	Category      *string
	TiebreakScore int
	VoteCount     int
}

// RankedCandidate is a candidate with its 1-based position in the result order.
type RankedCandidate struct {
	Candidate
	Rank int
}

// RankCandidates orders candidates by (vote count desc, tiebreak score desc,
// id asc) and assigns 1-based ranks. Rank is recomputed on every read and
// never persisted, so it always agrees with the current counts.
func RankCandidates(candidates []Candidate) []RankedCandidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].VoteCount != sorted[j].VoteCount {
			return sorted[i].VoteCount > sorted[j].VoteCount
		}
		if sorted[i].TiebreakScore != sorted[j].TiebreakScore {
			return sorted[i].TiebreakScore > sorted[j].TiebreakScore
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	ranked := make([]RankedCandidate, len(sorted))
	for i, c := range sorted {
		ranked[i] = RankedCandidate{Candidate: c, Rank: i + 1}
	}
	return ranked
}
