package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modoo/community-backend/internal/domain"
	"github.com/modoo/community-backend/pkg/ctxutil"
)

// Vote casts the actor's single vote for a candidate. The ledger insert and
// the candidate counter increment commit atomically; nothing is mutated
// before the insert succeeds, so no compensation is ever needed. Votes are
// non-retractable.
func (s *Service) Vote(ctx context.Context, input VoteInput) error {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return err
	}

	poll, err := s.polls.GetByID(ctx, input.PollID)
	if err != nil {
		return fmt.Errorf("get poll: %w", err)
	}
	if !poll.AcceptsVotesAt(s.now()) {
		return fmt.Errorf("poll %s: %w", poll.ID, domain.ErrPollClosed)
	}
	if poll.Candidate(input.CandidateID) == nil {
		return fmt.Errorf("candidate %s in poll %s: %w", input.CandidateID, poll.ID, domain.ErrInvalidCandidate)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		pollID := input.PollID
		payload := input.CandidateID.String()
		_, insertErr := s.actions.Insert(txCtx, &domain.ActionRecord{
			ActorID:    actorID,
			Kind:       domain.ActionKindPollVote,
			TargetType: domain.TargetTypePoll,
			TargetID:   &pollID,
			Payload:    &payload,
		})
		if insertErr != nil {
			if errors.Is(insertErr, domain.ErrAlreadyExists) {
				return fmt.Errorf("poll %s: %w", poll.ID, domain.ErrAlreadyVoted)
			}
			return fmt.Errorf("insert vote record: %w", insertErr)
		}

		if _, err := s.polls.IncrementVote(txCtx, input.PollID, input.CandidateID); err != nil {
			return fmt.Errorf("increment vote count: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "vote cast",
		slog.String("actor_id", actorID.String()),
		slog.String("poll_id", input.PollID.String()),
		slog.String("candidate_id", input.CandidateID.String()),
	)

	return nil
}
