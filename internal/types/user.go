package types

import (
	"time"
)

// User is keyed by phone; registration is the only writer of the demographic
// fields, the token refresh path may rewrite FCMToken.
type User struct {
	Phone     string    `gorm:"primaryKey;column:phone" json:"phone"`
	FCMToken  string    `gorm:"column:fcm_token" json:"fcm_token,omitempty"`
	Gender    string    `gorm:"column:gender" json:"gender,omitempty"`
	Age       int       `gorm:"column:age" json:"age,omitempty"`
	City      string    `gorm:"column:city" json:"city,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
