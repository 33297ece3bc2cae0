package toggle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modoo/community-backend/internal/domain"
	"github.com/modoo/community-backend/pkg/ctxutil"
)

// errLostRace marks a transaction that collided with a concurrent toggle of
// the same (actor, kind, target). The operation re-reads state and runs once
// more; the second pass observes the other writer's outcome.
var errLostRace = errors.New("toggle race")

// Toggle flips the actor's engagement with a target. Engaging your own
// content is forbidden. The ledger mutation and the counter update commit
// atomically; a concurrent double-submit is absorbed, not surfaced.
func (s *Service) Toggle(ctx context.Context, input ToggleInput) (*ToggleResult, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	target, err := s.targets.Get(ctx, input.TargetType, input.TargetID)
	if err != nil {
		return nil, fmt.Errorf("get target: %w", err)
	}
	if target.OwnerID == actorID {
		return nil, fmt.Errorf("own %s: %w", input.TargetType, domain.ErrForbidden)
	}

	ref := domain.ActionRef{
		ActorID:    actorID,
		Kind:       input.Kind,
		TargetType: input.TargetType,
		TargetID:   input.TargetID,
	}

	var result *ToggleResult
	for attempt := 0; attempt < 2; attempt++ {
		result, err = s.toggleOnce(ctx, ref)
		if err == nil {
			break
		}
		if !errors.Is(err, errLostRace) {
			return nil, err
		}
	}
	if err != nil {
		// Both attempts collided. Someone is hammering this exact
		// (actor, target) pair; give up and report the conflict.
		return nil, fmt.Errorf("toggle %s %s: %w", input.Kind, input.TargetID, domain.ErrConflict)
	}

	s.log.InfoContext(ctx, "engagement toggled",
		slog.String("actor_id", actorID.String()),
		slog.String("kind", input.Kind.String()),
		slog.String("target_type", input.TargetType.String()),
		slog.String("target_id", input.TargetID.String()),
		slog.Bool("active", result.Active),
		slog.Int64("count", result.Count),
	)

	return result, nil
}

// toggleOnce runs one read-decide-mutate cycle in a single transaction.
func (s *Service) toggleOnce(ctx context.Context, ref domain.ActionRef) (*ToggleResult, error) {
	var result *ToggleResult

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		exists, err := s.actions.Exists(txCtx, ref)
		if err != nil {
			return fmt.Errorf("check record: %w", err)
		}

		if exists {
			if err := s.actions.Delete(txCtx, ref); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					// A concurrent request deleted it between our read and write.
					return errLostRace
				}
				return fmt.Errorf("delete record: %w", err)
			}

			count, err := s.targets.AdjustCount(txCtx, ref.TargetType, ref.Kind, ref.TargetID, -1)
			if err != nil {
				return fmt.Errorf("decrement counter: %w", err)
			}

			result = &ToggleResult{Active: false, Count: count}
			return nil
		}

		targetID := ref.TargetID
		_, err = s.actions.Insert(txCtx, &domain.ActionRecord{
			ActorID:    ref.ActorID,
			Kind:       ref.Kind,
			TargetType: ref.TargetType,
			TargetID:   &targetID,
		})
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				// A concurrent request inserted it first.
				return errLostRace
			}
			return fmt.Errorf("insert record: %w", err)
		}

		count, err := s.targets.AdjustCount(txCtx, ref.TargetType, ref.Kind, ref.TargetID, 1)
		if err != nil {
			return fmt.Errorf("increment counter: %w", err)
		}

		result = &ToggleResult{Active: true, Count: count}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
