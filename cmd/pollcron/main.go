// Command pollcron runs the monthly poll schedule: it closes every poll whose
// voting window has passed, sweeps recently closed diary polls to award the
// MONTHLY_BEST stamp to each winner, and creates the current period's polls
// from the ranking sources. It is intended to be invoked by an external cron
// job and is safe under duplicate invocation.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/modoo/community-backend/internal/app"
	"github.com/modoo/community-backend/internal/domain"
	pollsvc "github.com/modoo/community-backend/internal/service/poll"
	progressionsvc "github.com/modoo/community-backend/internal/service/progression"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	a, err := app.Build(ctx)
	if err != nil {
		log.Fatalf("build application: %v", err)
	}
	defer a.Close()

	if err := closeExpired(ctx, a); err != nil {
		a.Log.Error("close expired polls", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := settleMonthlyBest(ctx, a); err != nil {
		a.Log.Error("settle monthly best", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := createPolls(ctx, a); err != nil {
		a.Log.Error("create polls", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func closeExpired(ctx context.Context, a *app.App) error {
	_, err := a.Poll.CloseExpired(ctx)
	return err
}

// monthlyBestLookback spans two monthly periods, so a poll whose settlement
// failed still falls inside the next scheduled run's sweep.
const monthlyBestLookback = 62 * 24 * time.Hour

// settleMonthlyBest sweeps recently closed diary polls instead of only the
// ones closed by this invocation: the award is deduplicated on the winning
// diary, so re-visiting an already-settled poll is a no-op, and one that
// failed to settle earlier gets another chance.
func settleMonthlyBest(ctx context.Context, a *app.App) error {
	closed, err := a.Poll.ClosedSince(ctx, domain.PollKindDiary, monthlyBestLookback)
	if err != nil {
		return err
	}

	for _, poll := range closed {
		if err := awardMonthlyBest(ctx, a, poll.ID); err != nil {
			a.Log.Error("award monthly best",
				slog.String("poll_id", poll.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

func awardMonthlyBest(ctx context.Context, a *app.App, pollID uuid.UUID) error {
	result, err := a.Poll.Result(ctx, pollID)
	if err != nil {
		return err
	}
	if len(result.Ranked) == 0 {
		return nil
	}
	winner := result.Ranked[0]

	diary, err := a.Targets.Get(ctx, domain.TargetTypeDiary, winner.RefID)
	if err != nil {
		return err
	}

	award, err := a.Progression.Award(ctx, progressionsvc.AwardInput{
		ActorID:     diary.OwnerID,
		Kind:        domain.StampKindMonthlyBest,
		RelatedType: domain.TargetTypeDiary,
		RelatedID:   &winner.RefID,
	})
	if err != nil {
		return err
	}

	a.Log.Info("monthly best resolved",
		slog.String("poll_id", pollID.String()),
		slog.String("diary_id", winner.RefID.String()),
		slog.String("winner_id", diary.OwnerID.String()),
		slog.Bool("awarded", award.Awarded),
	)
	return nil
}

func createPolls(ctx context.Context, a *app.App) error {
	now := time.Now().UTC()
	period := domain.PeriodOf(now)
	endAt := now.AddDate(0, 0, a.Cfg.Poll.VotingDays)

	diaries, err := a.Rankings.TopDiaries(ctx, period, a.Cfg.Poll.MaxRankCandidates)
	if err != nil {
		return err
	}
	diaryCandidates := make([]pollsvc.CandidateInput, len(diaries))
	for i, ref := range diaries {
		diaryCandidates[i] = pollsvc.CandidateInput{RefID: ref.RefID, TiebreakScore: ref.Score}
	}
	createPoll(ctx, a, pollsvc.CreatePollInput{
		Kind:       domain.PollKindDiary,
		Period:     period,
		StartAt:    now,
		EndAt:      endAt,
		Candidates: diaryCandidates,
	})

	projects, err := a.Rankings.CategoryWinners(ctx)
	if err != nil {
		return err
	}
	projectCandidates := make([]pollsvc.CandidateInput, len(projects))
	for i, ref := range projects {
		projectCandidates[i] = pollsvc.CandidateInput{
			RefID:         ref.RefID,
			Category:      ref.Category,
			TiebreakScore: ref.Score,
		}
	}
	createPoll(ctx, a, pollsvc.CreatePollInput{
		Kind:       domain.PollKindOda,
		Period:     period,
		StartAt:    now,
		EndAt:      endAt,
		Candidates: projectCandidates,
	})

	return nil
}

// createPoll reports the outcome instead of failing the run: an existing poll
// means an earlier invocation already did the work, and a thin month simply
// has no poll.
func createPoll(ctx context.Context, a *app.App, input pollsvc.CreatePollInput) {
	created, err := a.Poll.Create(ctx, input)
	switch {
	case err == nil:
		a.Log.Info("poll created",
			slog.String("poll_id", created.ID.String()),
			slog.String("kind", created.Kind.String()),
			slog.String("period", created.Period.String()),
			slog.Int("candidates", len(created.Candidates)),
		)
	case errors.Is(err, domain.ErrConflict):
		a.Log.Info("poll already exists",
			slog.String("kind", input.Kind.String()),
			slog.String("period", input.Period.String()),
		)
	case errors.Is(err, domain.ErrInsufficientCandidates):
		a.Log.Warn("not enough candidates for poll",
			slog.String("kind", input.Kind.String()),
			slog.String("period", input.Period.String()),
			slog.Int("candidates", len(input.Candidates)),
		)
	default:
		a.Log.Error("create poll",
			slog.String("kind", input.Kind.String()),
			slog.String("error", err.Error()),
		)
	}
}
