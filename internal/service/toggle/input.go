package toggle

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/modoo/community-backend/internal/domain"
)

// ToggleInput holds the parameters for toggling an engagement.
type ToggleInput struct {
	Kind       domain.ActionKind
	TargetType domain.TargetType
	TargetID   uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i ToggleInput) Validate() error {
	var errs []domain.FieldError

	if !i.Kind.IsValid() {
		errs = append(errs, domain.FieldError{Field: "kind", Message: fmt.Sprintf("unknown action kind %q", i.Kind)})
	} else if !i.Kind.IsToggle() {
		errs = append(errs, domain.FieldError{Field: "kind", Message: fmt.Sprintf("%s is not a toggle", i.Kind)})
	}

	if !i.TargetType.IsValid() {
		errs = append(errs, domain.FieldError{Field: "target_type", Message: fmt.Sprintf("unknown target type %q", i.TargetType)})
	}

	if i.TargetID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "target_id", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
