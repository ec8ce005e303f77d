package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/linkshot/linkshot/internal/app/model"
	"github.com/linkshot/linkshot/internal/app/repository"
)

// ErrInvalidAccessKey signals a private-links key that is not exactly
// four alphanumeric characters.
var ErrInvalidAccessKey = errors.New("access key must be 4 alphanumeric characters")

// profileColumns are the columns an authenticated owner may write through
// Upsert. Rank and views are deliberately absent: rank belongs to the
// reconciler and admin endpoints, views to the view trigger.
var profileColumns = map[string]struct{}{
	"handle": {}, "name": {}, "bio": {}, "avatar_url": {}, "email": {}, "phone": {},
	"instagram": {}, "facebook": {}, "snapchat": {}, "youtube": {}, "twitter": {},
	"threads": {}, "reddit": {},
	"linkedin": {}, "github": {}, "stackoverflow": {}, "leetcode": {},
	"codeforces": {}, "hackerrank": {}, "codechef": {}, "geeksforgeeks": {},
	"twitch": {}, "soundcloud": {}, "spotify": {}, "apple_music": {},
	"discord": {}, "telegram": {}, "whatsapp": {}, "skype": {},
	"amazon": {}, "shopify": {}, "ko_fi": {}, "buy_me_a_coffee": {}, "patreon": {},
	"website": {}, "blog": {},
}

// ProfileService defines behaviour-level operations on profiles.
type ProfileService interface {
	GetByIdentity(ctx context.Context, clerkID string) (*model.Profile, error)
	GetByHandle(ctx context.Context, handle string) (*model.Profile, error)
	// Upsert applies the given column values to the caller's profile,
	// creating the row first if this identity has never written before.
	Upsert(ctx context.Context, clerkID string, fields map[string]interface{}) (*model.Profile, error)
	SetAccessKey(ctx context.Context, clerkID, key string) error
	// SyncAvatar overwrites the stored avatar with the provider's.
	SyncAvatar(ctx context.Context, clerkID, avatarURL string) error
	// EnsureAvatar fills the avatar in only when none is stored yet.
	EnsureAvatar(ctx context.Context, clerkID, avatarURL string) error
}

type profileService struct {
	repo repository.ProfileRepository
}

// NewProfileService returns a service implementation backed by the given
// repository.
func NewProfileService(repo repository.ProfileRepository) ProfileService {
	return &profileService{repo: repo}
}

func (s *profileService) GetByIdentity(ctx context.Context, clerkID string) (*model.Profile, error) {
	profile, err := s.repo.GetByIdentity(ctx, clerkID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) GetByHandle(ctx context.Context, handle string) (*model.Profile, error) {
	profile, err := s.repo.GetByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("get profile by handle: %w", err)
	}
	return profile, nil
}

func (s *profileService) Upsert(ctx context.Context, clerkID string, fields map[string]interface{}) (*model.Profile, error) {
	filtered := make(map[string]interface{}, len(fields))
	for column, value := range fields {
		if _, ok := profileColumns[column]; ok {
			filtered[column] = value
		}
	}
	if len(filtered) == 0 {
		return s.repo.GetByIdentity(ctx, clerkID)
	}

	profile, err := s.repo.Update(ctx, clerkID, filtered)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	// First write from this identity: create the row lazily.
	filtered["clerk_id"] = clerkID
	if err := s.repo.CreateFields(ctx, filtered); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	profile, err = s.repo.GetByIdentity(ctx, clerkID)
	if err != nil {
		return nil, fmt.Errorf("load created profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) SetAccessKey(ctx context.Context, clerkID, key string) error {
	if key != "" && !validAccessKey(key) {
		return ErrInvalidAccessKey
	}
	if _, err := s.repo.Update(ctx, clerkID, map[string]interface{}{"access_key": key}); err != nil {
		return fmt.Errorf("set access key: %w", err)
	}
	return nil
}

func (s *profileService) SyncAvatar(ctx context.Context, clerkID, avatarURL string) error {
	if _, err := s.repo.Update(ctx, clerkID, map[string]interface{}{"avatar_url": avatarURL}); err != nil {
		return fmt.Errorf("sync avatar: %w", err)
	}
	return nil
}

func (s *profileService) EnsureAvatar(ctx context.Context, clerkID, avatarURL string) error {
	profile, err := s.repo.GetByIdentity(ctx, clerkID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if profile.AvatarURL != "" {
		return nil
	}
	return s.SyncAvatar(ctx, clerkID, avatarURL)
}

func validAccessKey(key string) bool {
	if len(key) != 4 {
		return false
	}
	for _, r := range key {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
