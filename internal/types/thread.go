package types

import (
	"time"

	"github.com/google/uuid"
)

// Thread is the single conversation between one user and one persona. The
// composite unique index makes concurrent first-contact creation collapse to
// one row.
type Thread struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Phone     string    `gorm:"not null;uniqueIndex:idx_threads_phone_persona;column:phone" json:"phone"`
	PersonaID string    `gorm:"not null;uniqueIndex:idx_threads_phone_persona;column:persona_id" json:"persona_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Thread) TableName() string {
	return "threads"
}
