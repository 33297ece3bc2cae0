package progression

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/domain"
)

// AwardInput holds the parameters for awarding a stamp. ActorID is the
// recipient: awards are issued by the system on the actor's behalf, so the
// caller names the actor instead of the engine reading it from context.
// RelatedType/RelatedID point at the entity that earned the stamp; when both
// are absent the award carries no dedup key and is always granted.
type AwardInput struct {
	ActorID     uuid.UUID
	Kind        domain.StampKind
	RelatedType domain.TargetType
	RelatedID   *uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i AwardInput) Validate() error {
	var errs []domain.FieldError

	if i.ActorID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "actor_id", Message: "required"})
	}
	if !i.Kind.IsValid() {
		errs = append(errs, domain.FieldError{Field: "stamp_kind", Message: fmt.Sprintf("unknown stamp kind %q", i.Kind)})
	}
	if i.RelatedID != nil {
		if *i.RelatedID == uuid.Nil {
			errs = append(errs, domain.FieldError{Field: "related_id", Message: "must not be the nil uuid"})
		}
		if !i.RelatedType.IsValid() {
			errs = append(errs, domain.FieldError{Field: "related_type", Message: fmt.Sprintf("unknown target type %q", i.RelatedType)})
		}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func (i AwardInput) hasRef() bool {
	return i.RelatedID != nil
}
