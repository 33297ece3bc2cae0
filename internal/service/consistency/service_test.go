package consistency

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modoo/community-backend/internal/adapter/postgres/action"
	"github.com/modoo/community-backend/internal/adapter/postgres/target"
	"github.com/modoo/community-backend/internal/domain"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockActionStore struct {
	CountsByTargetFunc  func(ctx context.Context, kind domain.ActionKind, targetType domain.TargetType) ([]action.TargetCount, error)
	CountForKindFunc    func(ctx context.Context, kind domain.ActionKind, targetType domain.TargetType, targetID uuid.UUID) (int64, error)
	StampKindCountsFunc func(ctx context.Context) ([]action.StampKindCount, error)
}

func (m *mockActionStore) CountsByTarget(ctx context.Context, kind domain.ActionKind, targetType domain.TargetType) ([]action.TargetCount, error) {
	if m.CountsByTargetFunc != nil {
		return m.CountsByTargetFunc(ctx, kind, targetType)
	}
	return nil, nil
}

func (m *mockActionStore) CountForKind(ctx context.Context, kind domain.ActionKind, targetType domain.TargetType, targetID uuid.UUID) (int64, error) {
	if m.CountForKindFunc != nil {
		return m.CountForKindFunc(ctx, kind, targetType, targetID)
	}
	return 0, nil
}

func (m *mockActionStore) StampKindCounts(ctx context.Context) ([]action.StampKindCount, error) {
	if m.StampKindCountsFunc != nil {
		return m.StampKindCountsFunc(ctx)
	}
	return nil, nil
}

type setCountCall struct {
	targetType domain.TargetType
	kind       domain.ActionKind
	id         uuid.UUID
	value      int64
}

type mockTargetStore struct {
	CountersFunc func(ctx context.Context, targetType domain.TargetType, kind domain.ActionKind) ([]target.CounterRow, error)

	setCalls []setCountCall
}

func (m *mockTargetStore) Counters(ctx context.Context, targetType domain.TargetType, kind domain.ActionKind) ([]target.CounterRow, error) {
	if m.CountersFunc != nil {
		return m.CountersFunc(ctx, targetType, kind)
	}
	return nil, nil
}

func (m *mockTargetStore) SetCount(ctx context.Context, targetType domain.TargetType, kind domain.ActionKind, id uuid.UUID, value int64) error {
	m.setCalls = append(m.setCalls, setCountCall{targetType: targetType, kind: kind, id: id, value: value})
	return nil
}

type mockPollStore struct {
	ListIDsFunc   func(ctx context.Context) ([]uuid.UUID, error)
	VoteTotalFunc func(ctx context.Context, pollID uuid.UUID) (int64, error)
}

func (m *mockPollStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.ListIDsFunc != nil {
		return m.ListIDsFunc(ctx)
	}
	return nil, nil
}

func (m *mockPollStore) VoteTotal(ctx context.Context, pollID uuid.UUID) (int64, error) {
	if m.VoteTotalFunc != nil {
		return m.VoteTotalFunc(ctx, pollID)
	}
	return 0, nil
}

type mockProgressionStore struct {
	ListStatesFunc func(ctx context.Context) ([]domain.ProgressionState, error)

	ensured   []uuid.UUID
	added     map[uuid.UUID]int
	setLevels map[uuid.UUID]domain.Level
	totals    map[uuid.UUID]int
}

func newMockProgressionStore() *mockProgressionStore {
	return &mockProgressionStore{
		added:     make(map[uuid.UUID]int),
		setLevels: make(map[uuid.UUID]domain.Level),
		totals:    make(map[uuid.UUID]int),
	}
}

func (m *mockProgressionStore) ListStates(ctx context.Context) ([]domain.ProgressionState, error) {
	if m.ListStatesFunc != nil {
		return m.ListStatesFunc(ctx)
	}
	return nil, nil
}

func (m *mockProgressionStore) EnsureState(ctx context.Context, actorID uuid.UUID) error {
	m.ensured = append(m.ensured, actorID)
	return nil
}

func (m *mockProgressionStore) AddStamps(ctx context.Context, actorID uuid.UUID, weight int) (int, error) {
	m.added[actorID] += weight
	m.totals[actorID] += weight
	return m.totals[actorID], nil
}

func (m *mockProgressionStore) SetLevel(ctx context.Context, actorID uuid.UUID, level domain.Level) error {
	m.setLevels[actorID] = level
	return nil
}

type mockTxManager struct{}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestService(actions *mockActionStore, targets *mockTargetStore, polls *mockPollStore, progression *mockProgressionStore) *Service {
	return NewService(slog.Default(), actions, targets, polls, progression, &mockTxManager{})
}

// ===========================================================================
// Tests
// ===========================================================================

func TestCheck_CleanAggregatesReportNoDrift(t *testing.T) {
	t.Parallel()

	postID := uuid.New()
	targets := &mockTargetStore{
		CountersFunc: func(ctx context.Context, targetType domain.TargetType, kind domain.ActionKind) ([]target.CounterRow, error) {
			if targetType == domain.TargetTypeBoardPost && kind == domain.ActionKindLike {
				return []target.CounterRow{{ID: postID, Count: 2}}, nil
			}
			return nil, nil
		},
	}
	actions := &mockActionStore{
		CountsByTargetFunc: func(ctx context.Context, kind domain.ActionKind, targetType domain.TargetType) ([]action.TargetCount, error) {
			if targetType == domain.TargetTypeBoardPost && kind == domain.ActionKindLike {
				return []action.TargetCount{{TargetID: postID, Count: 2}}, nil
			}
			return nil, nil
		},
	}

	svc := newTestService(actions, targets, &mockPollStore{}, newMockProgressionStore())

	report, err := svc.Check(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Drifts)
	assert.Equal(t, 1, report.Scanned)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestCheck_CounterDriftDetectedButNotTouched(t *testing.T) {
	t.Parallel()

	diaryID := uuid.New()
	targets := &mockTargetStore{
		CountersFunc: func(ctx context.Context, targetType domain.TargetType, kind domain.ActionKind) ([]target.CounterRow, error) {
			if targetType == domain.TargetTypeDiary && kind == domain.ActionKindLike {
				return []target.CounterRow{{ID: diaryID, Count: 5}}, nil
			}
			return nil, nil
		},
	}
	actions := &mockActionStore{
		CountsByTargetFunc: func(ctx context.Context, kind domain.ActionKind, targetType domain.TargetType) ([]action.TargetCount, error) {
			if targetType == domain.TargetTypeDiary && kind == domain.ActionKindLike {
				return []action.TargetCount{{TargetID: diaryID, Count: 3}}, nil
			}
			return nil, nil
		},
	}

	svc := newTestService(actions, targets, &mockPollStore{}, newMockProgressionStore())

	report, err := svc.Check(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Drifts, 1)
	drift := report.Drifts[0]
	assert.Equal(t, DriftTargetCounter, drift.Kind)
	assert.Equal(t, domain.TargetTypeDiary, drift.TargetType)
	assert.Equal(t, domain.ActionKindLike, drift.ActionKind)
	assert.Equal(t, diaryID, drift.ID)
	assert.Equal(t, int64(5), drift.Stored)
	assert.Equal(t, int64(3), drift.Derived)
	assert.False(t, drift.Repaired)
	assert.Empty(t, targets.setCalls)
}

func TestRepair_CounterRewrittenToLedgerValue(t *testing.T) {
	t.Parallel()

	postID := uuid.New()
	targets := &mockTargetStore{
		CountersFunc: func(ctx context.Context, targetType domain.TargetType, kind domain.ActionKind) ([]target.CounterRow, error) {
			if targetType == domain.TargetTypeBoardPost && kind == domain.ActionKindScrap {
				return []target.CounterRow{{ID: postID, Count: 0}}, nil
			}
			return nil, nil
		},
	}
	actions := &mockActionStore{
		CountsByTargetFunc: func(ctx context.Context, kind domain.ActionKind, targetType domain.TargetType) ([]action.TargetCount, error) {
			if targetType == domain.TargetTypeBoardPost && kind == domain.ActionKindScrap {
				return []action.TargetCount{{TargetID: postID, Count: 4}}, nil
			}
			return nil, nil
		},
	}

	svc := newTestService(actions, targets, &mockPollStore{}, newMockProgressionStore())

	report, err := svc.Repair(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Drifts, 1)
	assert.True(t, report.Drifts[0].Repaired)
	require.Len(t, targets.setCalls, 1)
	call := targets.setCalls[0]
	assert.Equal(t, domain.TargetTypeBoardPost, call.targetType)
	assert.Equal(t, domain.ActionKindScrap, call.kind)
	assert.Equal(t, postID, call.id)
	assert.Equal(t, int64(4), call.value)
}

func TestRepair_PollDriftIsReportedNotRewritten(t *testing.T) {
	t.Parallel()

	pollID := uuid.New()
	polls := &mockPollStore{
		ListIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
			return []uuid.UUID{pollID}, nil
		},
		VoteTotalFunc: func(ctx context.Context, id uuid.UUID) (int64, error) {
			return 6, nil
		},
	}
	actions := &mockActionStore{
		CountForKindFunc: func(ctx context.Context, kind domain.ActionKind, targetType domain.TargetType, targetID uuid.UUID) (int64, error) {
			require.Equal(t, domain.ActionKindPollVote, kind)
			require.Equal(t, domain.TargetTypePoll, targetType)
			return 7, nil
		},
	}

	svc := newTestService(actions, &mockTargetStore{}, polls, newMockProgressionStore())

	report, err := svc.Repair(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Drifts, 1)
	drift := report.Drifts[0]
	assert.Equal(t, DriftPollVotes, drift.Kind)
	assert.Equal(t, pollID, drift.ID)
	assert.Equal(t, int64(6), drift.Stored)
	assert.Equal(t, int64(7), drift.Derived)
	assert.False(t, drift.Repaired, "vote totals are never rewritten")
}

func TestRepair_StampTotalAdjustedAndLevelRecomputed(t *testing.T) {
	t.Parallel()

	actorID := uuid.New()
	progression := newMockProgressionStore()
	progression.totals[actorID] = 7
	progression.ListStatesFunc = func(ctx context.Context) ([]domain.ProgressionState, error) {
		return []domain.ProgressionState{
			{ActorID: actorID, TotalStamps: 7, CurrentLevel: domain.LevelSeed},
		}, nil
	}
	actions := &mockActionStore{
		StampKindCountsFunc: func(ctx context.Context) ([]action.StampKindCount, error) {
			return []action.StampKindCount{
				{ActorID: actorID, Kind: domain.StampKindDiaryWrite, Count: 5},
				{ActorID: actorID, Kind: domain.StampKindMonthlyBest, Count: 1},
			}, nil
		},
	}

	svc := newTestService(actions, &mockTargetStore{}, &mockPollStore{}, progression)

	report, err := svc.Repair(context.Background())
	require.NoError(t, err)

	// Ledger says 5*1 + 1*5 = 10 stamps; stored total was 7.
	require.Len(t, report.Drifts, 1)
	drift := report.Drifts[0]
	assert.Equal(t, DriftStampTotal, drift.Kind)
	assert.Equal(t, int64(7), drift.Stored)
	assert.Equal(t, int64(10), drift.Derived)
	assert.True(t, drift.Repaired)

	assert.Equal(t, 3, progression.added[actorID])
	assert.Equal(t, domain.LevelSprout, progression.setLevels[actorID])
}

func TestRepair_MissingStateRowCreated(t *testing.T) {
	t.Parallel()

	actorID := uuid.New()
	progression := newMockProgressionStore()
	actions := &mockActionStore{
		StampKindCountsFunc: func(ctx context.Context) ([]action.StampKindCount, error) {
			return []action.StampKindCount{
				{ActorID: actorID, Kind: domain.StampKindBoardPost, Count: 2},
			}, nil
		},
	}

	svc := newTestService(actions, &mockTargetStore{}, &mockPollStore{}, progression)

	report, err := svc.Repair(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Drifts, 1)
	assert.Equal(t, int64(0), report.Drifts[0].Stored)
	assert.Equal(t, int64(2), report.Drifts[0].Derived)

	assert.Equal(t, []uuid.UUID{actorID}, progression.ensured)
	assert.Equal(t, 2, progression.added[actorID])
	assert.Equal(t, domain.LevelSeed, progression.setLevels[actorID])
}
