package repository

import (
	"context"
	"errors"

	"github.com/linkshot/linkshot/internal/app/model"
	"gorm.io/gorm"
)

// ErrLinkNotFound signals that the requested custom link does not exist
// or has been soft-deleted.
var ErrLinkNotFound = errors.New("custom link not found")

// CustomLinkRepository defines data access for user-defined links. All
// reads exclude soft-deleted rows.
type CustomLinkRepository interface {
	Create(ctx context.Context, link *model.CustomLink) error
	GetByID(ctx context.Context, id string) (*model.CustomLink, error)
	ListByOwner(ctx context.Context, userID string) ([]model.CustomLink, error)
	MaxOrderIndex(ctx context.Context, userID string) (int, error)
	Update(ctx context.Context, link *model.CustomLink) error
	SetOrderIndex(ctx context.Context, userID, id string, orderIndex int) error
	SoftDelete(ctx context.Context, id string) error
}

type customLinkRepository struct {
	db *gorm.DB
}

// NewCustomLinkRepository returns a GORM-backed CustomLinkRepository.
func NewCustomLinkRepository(db *gorm.DB) CustomLinkRepository {
	return &customLinkRepository{db: db}
}

func (r *customLinkRepository) Create(ctx context.Context, link *model.CustomLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *customLinkRepository) GetByID(ctx context.Context, id string) (*model.CustomLink, error) {
	var link model.CustomLink
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *customLinkRepository) ListByOwner(ctx context.Context, userID string) ([]model.CustomLink, error) {
	var links []model.CustomLink
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("order_index ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *customLinkRepository) MaxOrderIndex(ctx context.Context, userID string) (int, error) {
	var link model.CustomLink
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("order_index DESC").
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return -1, nil
		}
		return 0, err
	}
	return link.OrderIndex, nil
}

func (r *customLinkRepository) Update(ctx context.Context, link *model.CustomLink) error {
	result := r.db.WithContext(ctx).
		Model(&model.CustomLink{}).
		Where("id = ? AND is_active = ?", link.ID, true).
		Updates(map[string]interface{}{
			"title":       link.Title,
			"url":         link.URL,
			"icon":        link.Icon,
			"order_index": link.OrderIndex,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return r.db.WithContext(ctx).Where("id = ?", link.ID).First(link).Error
}

func (r *customLinkRepository) SetOrderIndex(ctx context.Context, userID, id string, orderIndex int) error {
	result := r.db.WithContext(ctx).
		Model(&model.CustomLink{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("order_index", orderIndex)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (r *customLinkRepository) SoftDelete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&model.CustomLink{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}
