package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and audit columns common to every
// persisted record. The ID is assigned up front so an entity is
// addressable before its first save; GORM keeps UpdatedAt current on
// writes.
type BaseEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity returns a BaseEntity with a fresh identifier and both
// timestamps set to the same instant.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetID returns the entity identifier.
func (e *BaseEntity) GetID() uuid.UUID { return e.ID }

// Touch records a modification outside GORM's own bookkeeping.
func (e *BaseEntity) Touch() { e.UpdatedAt = time.Now().UTC() }
