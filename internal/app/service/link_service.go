package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/linkshot/linkshot/internal/app/model"
	"github.com/linkshot/linkshot/internal/app/repository"
)

// LinkService defines behaviour-level operations on custom links.
type LinkService interface {
	ListByOwner(ctx context.Context, userID string) ([]model.CustomLink, error)
	ListByHandle(ctx context.Context, handle string) ([]model.CustomLink, error)
	Create(ctx context.Context, userID string, input CreateLinkInput) (*model.CustomLink, error)
	Update(ctx context.Context, userID, linkID string, input UpdateLinkInput) (*model.CustomLink, error)
	Delete(ctx context.Context, userID, linkID string) error
	Reorder(ctx context.Context, userID string, orders []LinkOrder) error
}

// CreateLinkInput captures data required to create a custom link.
type CreateLinkInput struct {
	Title      string
	URL        string
	Icon       string
	OrderIndex *int
}

// UpdateLinkInput captures fields that can be changed on an existing link.
type UpdateLinkInput struct {
	Title      *string
	URL        *string
	Icon       *string
	OrderIndex *int
}

// LinkOrder pairs a link id with its new position.
type LinkOrder struct {
	ID         string `json:"id"`
	OrderIndex int    `json:"order_index"`
}

type linkService struct {
	links    repository.CustomLinkRepository
	profiles repository.ProfileRepository
}

// NewLinkService returns a service implementation backed by the given
// repositories.
func NewLinkService(links repository.CustomLinkRepository, profiles repository.ProfileRepository) LinkService {
	return &linkService{links: links, profiles: profiles}
}

func (s *linkService) ListByOwner(ctx context.Context, userID string) ([]model.CustomLink, error) {
	list, err := s.links.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return list, nil
}

func (s *linkService) ListByHandle(ctx context.Context, handle string) ([]model.CustomLink, error) {
	profile, err := s.profiles.GetByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("resolve handle: %w", err)
	}
	list, err := s.links.ListByOwner(ctx, profile.ClerkID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return list, nil
}

func (s *linkService) Create(ctx context.Context, userID string, input CreateLinkInput) (*model.CustomLink, error) {
	orderIndex := 0
	if input.OrderIndex != nil {
		orderIndex = *input.OrderIndex
	} else {
		maxIndex, err := s.links.MaxOrderIndex(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("next order index: %w", err)
		}
		orderIndex = maxIndex + 1
	}

	icon := input.Icon
	if icon == "" {
		icon = model.DefaultLinkIcon
	}

	link := &model.CustomLink{
		ID:         uuid.New().String(),
		UserID:     userID,
		Title:      input.Title,
		URL:        input.URL,
		Icon:       icon,
		OrderIndex: orderIndex,
		IsActive:   true,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}
	return link, nil
}

func (s *linkService) Update(ctx context.Context, userID, linkID string, input UpdateLinkInput) (*model.CustomLink, error) {
	link, err := s.ownedLink(ctx, userID, linkID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		link.Title = *input.Title
	}
	if input.URL != nil {
		link.URL = *input.URL
	}
	if input.Icon != nil {
		link.Icon = *input.Icon
	}
	if input.OrderIndex != nil {
		link.OrderIndex = *input.OrderIndex
	}

	if err := s.links.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}
	return link, nil
}

func (s *linkService) Delete(ctx context.Context, userID, linkID string) error {
	if _, err := s.ownedLink(ctx, userID, linkID); err != nil {
		return err
	}
	if err := s.links.SoftDelete(ctx, linkID); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return nil
}

// Reorder applies positions row by row; a failed row does not stop the
// rest. Order indices need not be contiguous, only comparable.
func (s *linkService) Reorder(ctx context.Context, userID string, orders []LinkOrder) error {
	var failed int
	for _, o := range orders {
		if err := s.links.SetOrderIndex(ctx, userID, o.ID, o.OrderIndex); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("reorder: %d of %d links failed", failed, len(orders))
	}
	return nil
}

// ownedLink loads the link and enforces ownership; foreign links read as
// not found.
func (s *linkService) ownedLink(ctx context.Context, userID, linkID string) (*model.CustomLink, error) {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("load link: %w", err)
	}
	if link.UserID != userID {
		return nil, fmt.Errorf("load link: %w", repository.ErrLinkNotFound)
	}
	return link, nil
}
