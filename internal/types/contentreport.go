package types

import (
	"time"

	"github.com/google/uuid"
)

const ReportStatusPending = "pending"

// ReportReasons is the closed set of accepted report reasons.
var ReportReasons = []string{"offensive", "inappropriate", "harmful", "spam", "other"}

// ContentReport is immutable after creation; only Status transitions are
// performed, by an external moderation process. MessageText snapshots the
// reported text so moderation survives message deletion.
type ContentReport struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID      uuid.UUID `gorm:"type:uuid;not null;column:message_id" json:"message_id"`
	ThreadID       uuid.UUID `gorm:"type:uuid;not null;column:thread_id" json:"thread_id"`
	ReportedBy     string    `gorm:"not null;column:reported_by" json:"reported_by"`
	Reason         string    `gorm:"not null;column:reason" json:"reason"`
	AdditionalInfo string    `gorm:"column:additional_info" json:"additional_info,omitempty"`
	MessageText    string    `gorm:"column:message_text" json:"message_text"`
	Status         string    `gorm:"not null;column:status" json:"status"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (ContentReport) TableName() string {
	return "content_reports"
}

func ValidReportReason(reason string) bool {
	for _, r := range ReportReasons {
		if r == reason {
			return true
		}
	}
	return false
}
