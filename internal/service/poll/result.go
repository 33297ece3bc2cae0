package poll

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/domain"
)

// Result returns the poll with its candidates in rank order. Ranking is a
// pure function of the stored counts, recomputed on every read and never
// persisted. Closed polls remain readable; their ranking is final because
// vote counts no longer change.
func (s *Service) Result(ctx context.Context, pollID uuid.UUID) (*PollResult, error) {
	if pollID == uuid.Nil {
		return nil, domain.NewValidationError("poll_id", "required")
	}

	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("get poll: %w", err)
	}

	return &PollResult{
		Poll:   *poll,
		Ranked: domain.RankCandidates(poll.Candidates),
	}, nil
}
