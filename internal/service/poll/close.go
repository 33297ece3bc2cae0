package poll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/domain"
)

// Close moves a poll to CLOSED. Closing an already-closed poll is a no-op,
// which lets a manual close race a scheduled one without either failing.
func (s *Service) Close(ctx context.Context, pollID uuid.UUID) error {
	if pollID == uuid.Nil {
		return domain.NewValidationError("poll_id", "required")
	}

	if err := s.polls.Close(ctx, pollID); err != nil {
		return fmt.Errorf("close poll: %w", err)
	}

	s.log.InfoContext(ctx, "poll closed", slog.String("poll_id", pollID.String()))
	return nil
}

// CloseExpired closes every ACTIVE poll whose voting window has passed and
// returns the polls it closed. Safe under duplicate invocation: a second run
// finds nothing left to close.
func (s *Service) CloseExpired(ctx context.Context) ([]domain.Poll, error) {
	expired, err := s.polls.ListExpiredActive(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list expired polls: %w", err)
	}

	closed := make([]domain.Poll, 0, len(expired))
	for _, poll := range expired {
		if err := s.polls.Close(ctx, poll.ID); err != nil {
			return closed, fmt.Errorf("close poll %s: %w", poll.ID, err)
		}
		closed = append(closed, poll)

		s.log.InfoContext(ctx, "expired poll closed",
			slog.String("poll_id", poll.ID.String()),
			slog.String("kind", poll.Kind.String()),
			slog.String("period", poll.Period.String()),
		)
	}

	return closed, nil
}

// ClosedSince returns CLOSED polls of a kind whose voting window ended within
// the given duration before now. The scheduler sweeps these to settle
// post-close work, so a settlement that failed on one run is picked up again
// on the next.
func (s *Service) ClosedSince(ctx context.Context, kind domain.PollKind, lookback time.Duration) ([]domain.Poll, error) {
	if !kind.IsValid() {
		return nil, domain.NewValidationError("kind", "unknown poll kind")
	}
	if lookback <= 0 {
		return nil, domain.NewValidationError("lookback", "must be positive")
	}

	polls, err := s.polls.ListClosedSince(ctx, kind, s.now().Add(-lookback))
	if err != nil {
		return nil, fmt.Errorf("list closed polls: %w", err)
	}

	return polls, nil
}
