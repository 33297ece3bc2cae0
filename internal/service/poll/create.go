package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modoo/community-backend/internal/domain"
)

// Create opens a poll for a (kind, period) pair from a caller-supplied
// candidate list. Rank-derived polls take an already-ranked, deduplicated
// list and keep its top entries; category-quota polls take one winner per
// category, and category balance is the supplier's responsibility.
// A second poll for the same (kind, period) fails with domain.ErrConflict.
func (s *Service) Create(ctx context.Context, input CreatePollInput) (*domain.Poll, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	candidates, err := s.applyCandidatePolicy(input)
	if err != nil {
		return nil, err
	}

	poll := &domain.Poll{
		Kind:       input.Kind,
		Period:     input.Period,
		Status:     domain.PollStatusActive,
		StartAt:    input.StartAt,
		EndAt:      input.EndAt,
		Candidates: candidates,
	}

	var created *domain.Poll
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var createErr error
		created, createErr = s.polls.Create(txCtx, poll)
		if createErr != nil {
			if errors.Is(createErr, domain.ErrAlreadyExists) {
				return fmt.Errorf("poll %s %s: %w", input.Kind, input.Period, domain.ErrConflict)
			}
			return fmt.Errorf("create poll: %w", createErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "poll created",
		slog.String("poll_id", created.ID.String()),
		slog.String("kind", input.Kind.String()),
		slog.String("period", input.Period.String()),
		slog.Int("candidates", len(created.Candidates)),
	)

	return created, nil
}

// applyCandidatePolicy enforces the per-kind candidate selection rules and
// converts inputs to domain candidates.
func (s *Service) applyCandidatePolicy(input CreatePollInput) ([]domain.Candidate, error) {
	switch input.Kind {
	case domain.PollKindDiary:
		return s.rankDerived(input.Candidates)
	case domain.PollKindOda:
		return s.categoryQuota(input.Candidates)
	default:
		return nil, domain.NewValidationError("kind", fmt.Sprintf("no candidate policy for %q", input.Kind))
	}
}

// rankDerived keeps the top MaxRankCandidates of an externally-ranked list
// and requires at least MinRankCandidates.
func (s *Service) rankDerived(inputs []CandidateInput) ([]domain.Candidate, error) {
	if len(inputs) < s.cfg.MinRankCandidates {
		return nil, fmt.Errorf("rank-derived poll needs %d candidates, got %d: %w",
			s.cfg.MinRankCandidates, len(inputs), domain.ErrInsufficientCandidates)
	}

	if len(inputs) > s.cfg.MaxRankCandidates {
		inputs = inputs[:s.cfg.MaxRankCandidates]
	}

	candidates := make([]domain.Candidate, len(inputs))
	for i, in := range inputs {
		candidates[i] = domain.Candidate{
			RefID:         in.RefID,
			TiebreakScore: in.TiebreakScore,
		}
	}
	return candidates, nil
}

// categoryQuota takes one winner per category. Empty categories are
// tolerated as long as the ones that did return a winner still reach
// MinCategoryTotal.
func (s *Service) categoryQuota(inputs []CandidateInput) ([]domain.Candidate, error) {
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if in.Category == nil || *in.Category == "" {
			return nil, domain.NewValidationError("candidates", "category required for category-quota polls")
		}
		if _, dup := seen[*in.Category]; dup {
			return nil, domain.NewValidationError("candidates", fmt.Sprintf("duplicate category %q", *in.Category))
		}
		seen[*in.Category] = struct{}{}
	}

	if len(inputs) < s.cfg.MinCategoryTotal {
		return nil, fmt.Errorf("category-quota poll needs %d winners, got %d: %w",
			s.cfg.MinCategoryTotal, len(inputs), domain.ErrInsufficientCandidates)
	}

	candidates := make([]domain.Candidate, len(inputs))
	for i, in := range inputs {
		candidates[i] = domain.Candidate{
			RefID:         in.RefID,
			Category:      in.Category,
			TiebreakScore: in.TiebreakScore,
		}
	}
	return candidates, nil
}
