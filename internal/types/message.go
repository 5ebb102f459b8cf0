package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Message display order within a thread is by CreatedAt, not insert order:
// bubbles of one reply are inserted concurrently and re-sorted on read.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID  uuid.UUID `gorm:"type:uuid;not null;index;column:thread_id" json:"thread_id"`
	Role      string    `gorm:"not null;column:role" json:"role"`
	Text      string    `gorm:"not null;column:text" json:"text"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
