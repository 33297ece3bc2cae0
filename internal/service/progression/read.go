package progression

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/domain"
)

// State returns the actor's current stamp total and level. An actor who has
// never been awarded a stamp has no stored row; they read as the zero state
// rather than an error.
func (s *Service) State(ctx context.Context, actorID uuid.UUID) (*domain.ProgressionState, error) {
	if actorID == uuid.Nil {
		return nil, domain.NewValidationError("actor_id", "required")
	}

	state, err := s.states.GetState(ctx, actorID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get state: %w", err)
	}

	known, err := s.users.Exists(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("check actor: %w", err)
	}
	if !known {
		return nil, fmt.Errorf("actor %s: %w", actorID, domain.ErrNotFound)
	}

	return &domain.ProgressionState{
		ActorID:      actorID,
		TotalStamps:  0,
		CurrentLevel: domain.LevelFromStamps(0),
	}, nil
}

// History returns the actor's level transitions, newest first. A non-positive
// limit falls back to the configured page size.
func (s *Service) History(ctx context.Context, actorID uuid.UUID, limit int) ([]domain.LevelTransition, error) {
	if actorID == uuid.Nil {
		return nil, domain.NewValidationError("actor_id", "required")
	}
	if limit <= 0 {
		limit = s.cfg.HistoryPageSize
	}

	history, err := s.states.History(ctx, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return history, nil
}
