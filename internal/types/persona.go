package types

import (
	"time"
)

// Persona carries the prompt material for one companion character. LongDoc is
// the full character profile used on first contact; ShortSummary is lazily
// generated from it and used on every later turn.
type Persona struct {
	ID           string    `gorm:"primaryKey;column:id" json:"id"`
	Name         string    `gorm:"not null;column:name" json:"name"`
	AvatarURL    string    `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	Caption      string    `gorm:"column:caption" json:"caption,omitempty"`
	SystemPrompt string    `gorm:"column:system_prompt" json:"system_prompt"`
	StylePrompt  string    `gorm:"column:style_prompt" json:"style_prompt,omitempty"`
	LongDoc      string    `gorm:"column:long_doc" json:"long_doc,omitempty"`
	ShortSummary string    `gorm:"column:short_summary" json:"short_summary,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (Persona) TableName() string {
	return "personas"
}
