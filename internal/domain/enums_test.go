package domain

import "testing"

func TestActionKind_IsValid(t *testing.T) {
	valid := []ActionKind{ActionKindLike, ActionKindScrap, ActionKindPollVote, ActionKindStamp}
	for _, k := range valid {
		if !k.IsValid() {
			t.Errorf("%s should be valid", k)
		}
	}
	if ActionKind("DOWNVOTE").IsValid() {
		t.Error("DOWNVOTE should be invalid")
	}
	if ActionKind("").IsValid() {
		t.Error("empty kind should be invalid")
	}
}

func TestActionKind_IsToggle(t *testing.T) {
	tests := []struct {
		kind ActionKind
		want bool
	}{
		{ActionKindLike, true},
		{ActionKindScrap, true},
		{ActionKindPollVote, false},
		{ActionKindStamp, false},
	}
	for _, tt := range tests {
		if got := tt.kind.IsToggle(); got != tt.want {
			t.Errorf("%s.IsToggle() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestTargetType_IsValid(t *testing.T) {
	valid := []TargetType{TargetTypeBoardPost, TargetTypeDiary, TargetTypePoll, TargetTypeOdaProject}
	for _, tt := range valid {
		if !tt.IsValid() {
			t.Errorf("%s should be valid", tt)
		}
	}
	if TargetType("COMMENT").IsValid() {
		t.Error("COMMENT should be invalid")
	}
}

func TestPollStatus_IsValid(t *testing.T) {
	if !PollStatusActive.IsValid() || !PollStatusClosed.IsValid() {
		t.Error("ACTIVE and CLOSED should be valid")
	}
	if PollStatus("DRAFT").IsValid() {
		t.Error("DRAFT should be invalid")
	}
}

func TestStampKind_Weight(t *testing.T) {
	tests := []struct {
		kind StampKind
		want int
	}{
		{StampKindDiaryWrite, 1},
		{StampKindPollParticipate, 1},
		{StampKindBoardPost, 1},
		{StampKindMonthlyBest, 5},
	}
	for _, tt := range tests {
		if got := tt.kind.Weight(); got != tt.want {
			t.Errorf("%s.Weight() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
