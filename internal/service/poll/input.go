package poll

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/domain"
)

// CandidateInput is one entry of a caller-supplied candidate list.
// For rank-derived polls the list order reflects the external ranking and
// Category is nil; for category-quota polls each entry carries its category.
type CandidateInput struct {
	RefID         uuid.UUID
	Category      *string
	TiebreakScore int
}

// CreatePollInput holds the parameters for creating a poll.
type CreatePollInput struct {
	Kind       domain.PollKind
	Period     domain.Period
	StartAt    time.Time
	EndAt      time.Time
	Candidates []CandidateInput
}

// Validate checks all fields and collects all errors. Policy-level checks
// (candidate minimums) live in Create, not here: a short list is a domain
// condition, not malformed input.
func (i CreatePollInput) Validate() error {
	var errs []domain.FieldError

	if !i.Kind.IsValid() {
		errs = append(errs, domain.FieldError{Field: "kind", Message: fmt.Sprintf("unknown poll kind %q", i.Kind)})
	}
	if i.Period.IsZero() {
		errs = append(errs, domain.FieldError{Field: "period", Message: "required"})
	} else if i.Period.Month < 1 || i.Period.Month > 12 {
		errs = append(errs, domain.FieldError{Field: "period", Message: "month out of range"})
	}
	if i.StartAt.IsZero() || i.EndAt.IsZero() {
		errs = append(errs, domain.FieldError{Field: "window", Message: "start_at and end_at required"})
	} else if !i.EndAt.After(i.StartAt) {
		errs = append(errs, domain.FieldError{Field: "window", Message: "end_at must be after start_at"})
	}

	seen := make(map[uuid.UUID]struct{}, len(i.Candidates))
	for idx, c := range i.Candidates {
		if c.RefID == uuid.Nil {
			errs = append(errs, domain.FieldError{Field: "candidates", Message: fmt.Sprintf("entry %d: ref_id required", idx)})
			continue
		}
		if _, dup := seen[c.RefID]; dup {
			errs = append(errs, domain.FieldError{Field: "candidates", Message: fmt.Sprintf("duplicate ref %s", c.RefID)})
		}
		seen[c.RefID] = struct{}{}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// VoteInput holds the parameters for casting a vote.
type VoteInput struct {
	PollID      uuid.UUID
	CandidateID uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i VoteInput) Validate() error {
	var errs []domain.FieldError
	if i.PollID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "poll_id", Message: "required"})
	}
	if i.CandidateID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "candidate_id", Message: "required"})
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
