package model

import "time"

// CustomLink is a user-defined entry rendered below the fixed platform
// slots. Deletion is soft: inactive rows stay for audit but are excluded
// from every read path.
type CustomLink struct {
	ID         string    `db:"id" gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `db:"user_id" gorm:"size:64;not null;index" json:"user_id"`
	Title      string    `db:"title" gorm:"size:128;not null" json:"title"`
	URL        string    `db:"url" gorm:"type:text;not null" json:"url"`
	Icon       string    `db:"icon" gorm:"size:32;not null;default:'globe'" json:"icon"`
	OrderIndex int       `db:"order_index" gorm:"not null;default:0" json:"order_index"`
	IsActive   bool      `db:"is_active" gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CustomLink) TableName() string { return "custom_links" }

// DefaultLinkIcon is used when a link is created without choosing one.
const DefaultLinkIcon = "globe"
