package domain

import (
	"time"

	"github.com/google/uuid"
)

// Level is the discrete progression tier derived from cumulative stamps.
type Level string

const (
	LevelSeed    Level = "SEED"
	LevelSprout  Level = "SPROUT"
	LevelSapling Level = "SAPLING"
	LevelTree    Level = "TREE"
	LevelForest  Level = "FOREST"
)

func (l Level) String() string { return string(l) }

func (l Level) IsValid() bool {
	switch l {
	case LevelSeed, LevelSprout, LevelSapling, LevelTree, LevelForest:
		return true
	}
	return false
}

// levelBand maps a contiguous stamp range to a level. Max < 0 means unbounded.
type levelBand struct {
	Min   int
	Max   int
	Level Level
}

// levelBands partition [0, ∞): contiguous, non-overlapping, no gaps.
// The last band is open-ended.
var levelBands = []levelBand{
	{Min: 0, Max: 9, Level: LevelSeed},
	{Min: 10, Max: 29, Level: LevelSprout},
	{Min: 30, Max: 59, Level: LevelSapling},
	{Min: 60, Max: 99, Level: LevelTree},
	{Min: 100, Max: -1, Level: LevelForest},
}

// LevelFromStamps maps a cumulative stamp total to its level. The function is
// total and monotonic non-decreasing; inputs below zero fall into the first
// band (they cannot be produced by the engine, whose weights are positive).
func LevelFromStamps(total int) Level {
	for _, b := range levelBands {
		if b.Max < 0 || total <= b.Max {
			return b.Level
		}
	}
	// Unreachable: the last band is open-ended.
	return levelBands[len(levelBands)-1].Level
}

// ProgressionState is an actor's cumulative engagement credit. TotalStamps is
// monotonically non-decreasing and CurrentLevel is always LevelFromStamps of it.
type ProgressionState struct {
	ActorID      uuid.UUID
	TotalStamps  int
	CurrentLevel Level
	UpdatedAt    time.Time
}

// LevelTransition is one append-only record of an actor crossing a band edge.
type LevelTransition struct {
	ID          uuid.UUID
	ActorID     uuid.UUID
	FromLevel   Level
	ToLevel     Level
	TotalStamps int
	CreatedAt   time.Time
}
