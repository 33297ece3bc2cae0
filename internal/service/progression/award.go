package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modoo/community-backend/internal/domain"
)

// Award grants the actor a stamp of the given kind. When the input carries a
// related entity the award is deduplicated on (actor, related entity): a
// repeat returns Awarded=false with the unchanged state instead of an error.
// The ledger insert, total increment, level recompute, and any history entry
// commit in a single transaction.
func (s *Service) Award(ctx context.Context, input AwardInput) (*AwardResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	known, err := s.users.Exists(ctx, input.ActorID)
	if err != nil {
		return nil, fmt.Errorf("check actor: %w", err)
	}
	if !known {
		return nil, fmt.Errorf("actor %s: %w", input.ActorID, domain.ErrNotFound)
	}

	targetType := input.RelatedType
	if !targetType.IsValid() {
		targetType = input.Kind.RelatedTargetType()
	}

	var result AwardResult
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.states.EnsureState(txCtx, input.ActorID); err != nil {
			return fmt.Errorf("ensure state: %w", err)
		}

		if input.hasRef() {
			dup, err := s.actions.Exists(txCtx, domain.ActionRef{
				ActorID:    input.ActorID,
				Kind:       domain.ActionKindStamp,
				TargetType: targetType,
				TargetID:   *input.RelatedID,
			})
			if err != nil {
				return fmt.Errorf("check existing stamp: %w", err)
			}
			if dup {
				return s.fillUnchanged(txCtx, input, &result)
			}
		}

		payload := input.Kind.String()
		_, err := s.actions.Insert(txCtx, &domain.ActionRecord{
			ActorID:    input.ActorID,
			Kind:       domain.ActionKindStamp,
			TargetType: targetType,
			TargetID:   input.RelatedID,
			Payload:    &payload,
		})
		if err != nil {
			// A concurrent award of the same stamp got there first.
			if input.hasRef() && errors.Is(err, domain.ErrAlreadyExists) {
				return s.fillUnchanged(txCtx, input, &result)
			}
			return fmt.Errorf("insert stamp record: %w", err)
		}

		newTotal, err := s.states.AddStamps(txCtx, input.ActorID, input.Kind.Weight())
		if err != nil {
			return fmt.Errorf("add stamps: %w", err)
		}

		// Increments serialize on the state row lock, so the total before
		// this award is exactly newTotal minus its weight. Deriving the
		// previous level from that (rather than from a state read taken
		// earlier in the transaction) keeps a concurrent award's band
		// crossing from being recorded twice.
		prevLevel := domain.LevelFromStamps(newTotal - input.Kind.Weight())
		newLevel := domain.LevelFromStamps(newTotal)
		if newLevel != prevLevel {
			if err := s.states.SetLevel(txCtx, input.ActorID, newLevel); err != nil {
				return fmt.Errorf("set level: %w", err)
			}
			if _, err := s.states.AppendHistory(txCtx, &domain.LevelTransition{
				ActorID:     input.ActorID,
				FromLevel:   prevLevel,
				ToLevel:     newLevel,
				TotalStamps: newTotal,
			}); err != nil {
				return fmt.Errorf("append level history: %w", err)
			}
		}

		result = AwardResult{
			Awarded:       true,
			TotalStamps:   newTotal,
			Level:         newLevel,
			LeveledUp:     newLevel != prevLevel,
			PreviousLevel: prevLevel,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Awarded {
		s.log.InfoContext(ctx, "stamp awarded",
			slog.String("actor_id", input.ActorID.String()),
			slog.String("stamp_kind", input.Kind.String()),
			slog.Int("total_stamps", result.TotalStamps),
			slog.Bool("leveled_up", result.LeveledUp),
		)
	}

	return &result, nil
}

// fillUnchanged reports a deduplicated award: Awarded=false with the actor's
// current total and level.
func (s *Service) fillUnchanged(ctx context.Context, input AwardInput, result *AwardResult) error {
	state, err := s.states.GetState(ctx, input.ActorID)
	if err != nil {
		return fmt.Errorf("get state: %w", err)
	}
	*result = AwardResult{
		Awarded:       false,
		TotalStamps:   state.TotalStamps,
		Level:         state.CurrentLevel,
		PreviousLevel: state.CurrentLevel,
	}
	return nil
}
