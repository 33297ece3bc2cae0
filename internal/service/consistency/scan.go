package consistency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/domain"
)

// Check scans every aggregate and reports drift without touching anything.
func (s *Service) Check(ctx context.Context) (*Report, error) {
	return s.scan(ctx, false)
}

// Repair scans like Check and additionally rewrites each drifted aggregate to
// its ledger-derived value. Poll vote totals are the exception: the ledger
// records which poll was voted in but attributes the candidate only through
// the payload, so candidate-level counts are reported, never rewritten.
func (s *Service) Repair(ctx context.Context) (*Report, error) {
	return s.scan(ctx, true)
}

func (s *Service) scan(ctx context.Context, fix bool) (*Report, error) {
	report := &Report{StartedAt: time.Now()}

	if err := s.scanCounters(ctx, report, fix); err != nil {
		return nil, err
	}
	if err := s.scanPolls(ctx, report); err != nil {
		return nil, err
	}
	if err := s.scanStamps(ctx, report, fix); err != nil {
		return nil, err
	}

	report.FinishedAt = time.Now()
	s.log.InfoContext(ctx, "consistency scan finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("drifts", len(report.Drifts)),
		slog.Bool("fix", fix),
		slog.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (s *Service) scanCounters(ctx context.Context, report *Report, fix bool) error {
	for _, pair := range counterPairs {
		stored, err := s.targets.Counters(ctx, pair.targetType, pair.kind)
		if err != nil {
			return fmt.Errorf("load %s %s counters: %w", pair.targetType, pair.kind, err)
		}

		counts, err := s.actions.CountsByTarget(ctx, pair.kind, pair.targetType)
		if err != nil {
			return fmt.Errorf("count %s %s records: %w", pair.targetType, pair.kind, err)
		}
		derived := make(map[uuid.UUID]int64, len(counts))
		for _, c := range counts {
			derived[c.TargetID] = c.Count
		}

		// Ledger rows reference existing targets (enforced by the store), so
		// iterating the stored side covers every target that can drift.
		for _, row := range stored {
			report.Scanned++
			want := derived[row.ID]
			if row.Count == want {
				continue
			}

			drift := Drift{
				Kind:       DriftTargetCounter,
				TargetType: pair.targetType,
				ActionKind: pair.kind,
				ID:         row.ID,
				Stored:     row.Count,
				Derived:    want,
			}
			if fix {
				if err := s.targets.SetCount(ctx, pair.targetType, pair.kind, row.ID, want); err != nil {
					return fmt.Errorf("repair %s %s counter for %s: %w", pair.targetType, pair.kind, row.ID, err)
				}
				drift.Repaired = true
			}
			report.Drifts = append(report.Drifts, drift)
		}
	}
	return nil
}

func (s *Service) scanPolls(ctx context.Context, report *Report) error {
	ids, err := s.polls.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list polls: %w", err)
	}

	for _, id := range ids {
		report.Scanned++

		stored, err := s.polls.VoteTotal(ctx, id)
		if err != nil {
			return fmt.Errorf("poll %s vote total: %w", id, err)
		}
		want, err := s.actions.CountForKind(ctx, domain.ActionKindPollVote, domain.TargetTypePoll, id)
		if err != nil {
			return fmt.Errorf("poll %s ledger count: %w", id, err)
		}
		if stored == want {
			continue
		}

		report.Drifts = append(report.Drifts, Drift{
			Kind:       DriftPollVotes,
			TargetType: domain.TargetTypePoll,
			ActionKind: domain.ActionKindPollVote,
			ID:         id,
			Stored:     stored,
			Derived:    want,
		})
	}
	return nil
}

func (s *Service) scanStamps(ctx context.Context, report *Report, fix bool) error {
	states, err := s.progression.ListStates(ctx)
	if err != nil {
		return fmt.Errorf("list progression states: %w", err)
	}

	counts, err := s.actions.StampKindCounts(ctx)
	if err != nil {
		return fmt.Errorf("count stamp records: %w", err)
	}
	derived := make(map[uuid.UUID]int64)
	for _, c := range counts {
		derived[c.ActorID] += c.Count * int64(c.Kind.Weight())
	}

	seen := make(map[uuid.UUID]struct{}, len(states))
	for _, state := range states {
		seen[state.ActorID] = struct{}{}
		if err := s.compareStampTotal(ctx, report, fix, state.ActorID, int64(state.TotalStamps), derived[state.ActorID]); err != nil {
			return err
		}
	}
	// Actors with stamp records but no state row read as a stored total of 0.
	for actorID, want := range derived {
		if _, ok := seen[actorID]; ok {
			continue
		}
		if err := s.compareStampTotal(ctx, report, fix, actorID, 0, want); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) compareStampTotal(ctx context.Context, report *Report, fix bool, actorID uuid.UUID, stored, want int64) error {
	report.Scanned++
	if stored == want {
		return nil
	}

	drift := Drift{
		Kind:    DriftStampTotal,
		ID:      actorID,
		Stored:  stored,
		Derived: want,
	}
	if fix {
		err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.progression.EnsureState(txCtx, actorID); err != nil {
				return fmt.Errorf("ensure state: %w", err)
			}
			newTotal, err := s.progression.AddStamps(txCtx, actorID, int(want-stored))
			if err != nil {
				return fmt.Errorf("adjust total: %w", err)
			}
			if err := s.progression.SetLevel(txCtx, actorID, domain.LevelFromStamps(newTotal)); err != nil {
				return fmt.Errorf("set level: %w", err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("repair stamp total for %s: %w", actorID, err)
		}
		drift.Repaired = true
	}
	report.Drifts = append(report.Drifts, drift)
	return nil
}
