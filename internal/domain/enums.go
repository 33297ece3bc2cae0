package domain

// ActionKind identifies the kind of ledger action an actor performed.
type ActionKind string

const (
	ActionKindLike     ActionKind = "LIKE"
	ActionKindScrap    ActionKind = "SCRAP"
	ActionKindPollVote ActionKind = "POLL_VOTE"
	ActionKindStamp    ActionKind = "STAMP"
)

func (k ActionKind) String() string { return string(k) }

func (k ActionKind) IsValid() bool {
	switch k {
	case ActionKindLike, ActionKindScrap, ActionKindPollVote, ActionKindStamp:
		return true
	}
	return false
}

// IsToggle reports whether the action is reversible by repeating it.
// Poll votes and stamps are never retractable.
func (k ActionKind) IsToggle() bool {
	return k == ActionKindLike || k == ActionKindScrap
}

// TargetType identifies the kind of entity an action points at.
type TargetType string

const (
	TargetTypeBoardPost  TargetType = "BOARD_POST"
	TargetTypeDiary      TargetType = "DIARY"
	TargetTypePoll       TargetType = "POLL"
	TargetTypeOdaProject TargetType = "ODA_PROJECT"
)

func (t TargetType) String() string { return string(t) }

func (t TargetType) IsValid() bool {
	switch t {
	case TargetTypeBoardPost, TargetTypeDiary, TargetTypePoll, TargetTypeOdaProject:
		return true
	}
	return false
}

// PollKind distinguishes the two monthly poll flavors.
type PollKind string

const (
	// PollKindDiary is the monthly best-diary poll; candidates come from a
	// popularity ranking of the period's diaries.
	PollKindDiary PollKind = "DIARY"
	// PollKindOda is the monthly ODA project poll; candidates are the top
	// scoring project of each fixed category.
	PollKindOda PollKind = "ODA"
)

func (k PollKind) String() string { return string(k) }

func (k PollKind) IsValid() bool {
	return k == PollKindDiary || k == PollKindOda
}

// PollStatus is the poll lifecycle state. The only transition is ACTIVE -> CLOSED.
type PollStatus string

const (
	PollStatusActive PollStatus = "ACTIVE"
	PollStatusClosed PollStatus = "CLOSED"
)

func (s PollStatus) String() string { return string(s) }

func (s PollStatus) IsValid() bool {
	return s == PollStatusActive || s == PollStatusClosed
}

// StampKind identifies a qualifying action that earns progression credit.
type StampKind string

const (
	StampKindDiaryWrite      StampKind = "DIARY_WRITE"
	StampKindPollParticipate StampKind = "POLL_PARTICIPATE"
	StampKindBoardPost       StampKind = "BOARD_POST"
	StampKindMonthlyBest     StampKind = "MONTHLY_BEST"
)

func (k StampKind) String() string { return string(k) }

func (k StampKind) IsValid() bool {
	switch k {
	case StampKindDiaryWrite, StampKindPollParticipate, StampKindBoardPost, StampKindMonthlyBest:
		return true
	}
	return false
}

// Weight returns how many stamps a single award of this kind is worth.
func (k StampKind) Weight() int {
	if k == StampKindMonthlyBest {
		return 5
	}
	return 1
}

// RelatedTargetType returns the kind of entity that earns this stamp. It is
// the default target type for awards whose caller did not name one.
func (k StampKind) RelatedTargetType() TargetType {
	switch k {
	case StampKindDiaryWrite, StampKindMonthlyBest:
		return TargetTypeDiary
	case StampKindPollParticipate:
		return TargetTypePoll
	case StampKindBoardPost:
		return TargetTypeBoardPost
	}
	return ""
}
