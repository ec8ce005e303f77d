package model

import "time"

// Event kinds recorded for analytics.
const (
	EventProfileView = "profile_view"
	EventLinkClick   = "link_click"
)

// ViewEvent is an analytics event for a profile page, published to NATS
// JetStream and persisted by the consumer. LinkSlot is set only for
// link_click events and names either a platform slot or a custom link id.
type ViewEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Handle    string    `json:"handle" gorm:"size:64;not null;index"`
	Kind      string    `json:"kind" gorm:"size:16;not null"`
	LinkSlot  string    `json:"link_slot,omitempty" gorm:"size:64"`
	IP        string    `json:"ip" gorm:"size:64"`
	UserAgent string    `json:"user_agent" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
}

func (ViewEvent) TableName() string { return "view_events" }

const (
	ViewStreamName     = "PROFILE_EVENTS"
	ViewStreamSubject  = "profile.events"
	ViewConsumerName   = "event-logger"
	ViewStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
