package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionRecord is the immutable fact of an actor performing a bounded action
// against a target. Records are only inserted, and deleted only for toggles.
// Uniqueness on (actor, kind, target type, target id) is enforced by the store.
type ActionRecord struct {
	ID         uuid.UUID
	ActorID    uuid.UUID
	Kind       ActionKind
	TargetType TargetType
	// TargetID is nil for stamps awarded without a related entity;
	// such records are repeatable and carry no uniqueness.
	TargetID  *uuid.UUID
	Payload   *string
	CreatedAt time.Time
}

// ActionRef identifies a record by its uniqueness key.
type ActionRef struct {
	ActorID    uuid.UUID
	Kind       ActionKind
	TargetType TargetType
	TargetID   uuid.UUID
}

// Target is an engageable entity as seen by the Toggle Engine: enough to
// check ownership and existence.
type Target struct {
	ID      uuid.UUID
	Type    TargetType
	OwnerID uuid.UUID
}
