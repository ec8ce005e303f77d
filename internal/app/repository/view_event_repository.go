package repository

import (
	"context"
	"time"

	"github.com/linkshot/linkshot/internal/app/model"
	"gorm.io/gorm"
)

// SlotClicks is the per-slot click tally used by the analytics summary.
type SlotClicks struct {
	LinkSlot string
	Clicks   int64
}

// ViewEventRepository defines data access for analytics events.
type ViewEventRepository interface {
	Create(ctx context.Context, event *model.ViewEvent) error
	CountSince(ctx context.Context, handle, kind string, since time.Time) (int64, error)
	ClicksBySlot(ctx context.Context, handle string, since time.Time) ([]SlotClicks, error)
	Recent(ctx context.Context, handle string, limit int) ([]model.ViewEvent, error)
}

type viewEventRepository struct {
	db *gorm.DB
}

// NewViewEventRepository returns a GORM-backed ViewEventRepository.
func NewViewEventRepository(db *gorm.DB) ViewEventRepository {
	return &viewEventRepository{db: db}
}

func (r *viewEventRepository) Create(ctx context.Context, event *model.ViewEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *viewEventRepository) CountSince(ctx context.Context, handle, kind string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ViewEvent{}).
		Where("handle = ? AND kind = ? AND timestamp >= ?", handle, kind, since).
		Count(&count).Error
	return count, err
}

func (r *viewEventRepository) ClicksBySlot(ctx context.Context, handle string, since time.Time) ([]SlotClicks, error) {
	var result []SlotClicks
	err := r.db.WithContext(ctx).
		Model(&model.ViewEvent{}).
		Select("link_slot, COUNT(*) AS clicks").
		Where("handle = ? AND kind = ? AND timestamp >= ?", handle, model.EventLinkClick, since).
		Group("link_slot").
		Order("clicks DESC").
		Scan(&result).Error
	return result, err
}

func (r *viewEventRepository) Recent(ctx context.Context, handle string, limit int) ([]model.ViewEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	var events []model.ViewEvent
	err := r.db.WithContext(ctx).
		Where("handle = ?", handle).
		Order("timestamp DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
