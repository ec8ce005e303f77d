package service

import (
	"context"
	"errors"
	"testing"

	"github.com/linkshot/linkshot/internal/app/model"
	"github.com/linkshot/linkshot/internal/app/repository"
)

func TestProfileService_Upsert_CreatesWhenMissing(t *testing.T) {
	var created map[string]interface{}
	repo := &mockProfileRepository{
		updateFn: func(ctx context.Context, clerkID string, fields map[string]interface{}) (*model.Profile, error) {
			return nil, repository.ErrProfileNotFound
		},
		createFieldsFn: func(ctx context.Context, fields map[string]interface{}) error {
			created = fields
			return nil
		},
		getByIdentityFn: func(ctx context.Context, clerkID string) (*model.Profile, error) {
			return &model.Profile{ClerkID: clerkID, Bio: "x"}, nil
		},
	}

	svc := NewProfileService(repo)
	profile, err := svc.Upsert(context.Background(), "user_1", map[string]interface{}{"bio": "x"})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if created == nil {
		t.Fatal("expected lazy create for unknown identity")
	}
	if created["clerk_id"] != "user_1" {
		t.Fatalf("created clerk_id = %v", created["clerk_id"])
	}
	if created["bio"] != "x" {
		t.Fatalf("created bio = %v", created["bio"])
	}
	if _, ok := created["handle"]; ok {
		t.Fatal("handle must stay unset when not provided")
	}
	if profile.Bio != "x" {
		t.Fatalf("profile bio = %q", profile.Bio)
	}
}

func TestProfileService_Upsert_UpdatesExisting(t *testing.T) {
	repo := &mockProfileRepository{
		updateFn: func(ctx context.Context, clerkID string, fields map[string]interface{}) (*model.Profile, error) {
			if fields["name"] != "Gio" {
				t.Fatalf("fields = %v", fields)
			}
			return &model.Profile{ClerkID: clerkID, Name: "Gio"}, nil
		},
		createFieldsFn: func(ctx context.Context, fields map[string]interface{}) error {
			t.Fatal("create must not run when the profile exists")
			return nil
		},
	}

	svc := NewProfileService(repo)
	profile, err := svc.Upsert(context.Background(), "user_1", map[string]interface{}{"name": "Gio"})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if profile.Name != "Gio" {
		t.Fatalf("profile name = %q", profile.Name)
	}
}

func TestProfileService_Upsert_FiltersProtectedColumns(t *testing.T) {
	repo := &mockProfileRepository{
		updateFn: func(ctx context.Context, clerkID string, fields map[string]interface{}) (*model.Profile, error) {
			if _, ok := fields["rank"]; ok {
				t.Fatal("rank must never pass through Upsert")
			}
			if _, ok := fields["views"]; ok {
				t.Fatal("views must never pass through Upsert")
			}
			if _, ok := fields["clerk_id"]; ok {
				t.Fatal("identity key is not writable")
			}
			return &model.Profile{ClerkID: clerkID}, nil
		},
	}

	svc := NewProfileService(repo)
	_, err := svc.Upsert(context.Background(), "user_1", map[string]interface{}{
		"bio":      "hi",
		"rank":     "ადმინისტრატორი",
		"views":    999,
		"clerk_id": "user_2",
	})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
}

func TestProfileService_Upsert_DuplicateHandle(t *testing.T) {
	repo := &mockProfileRepository{
		updateFn: func(ctx context.Context, clerkID string, fields map[string]interface{}) (*model.Profile, error) {
			return nil, repository.ErrDuplicateHandle
		},
	}

	svc := NewProfileService(repo)
	_, err := svc.Upsert(context.Background(), "user_1", map[string]interface{}{"handle": "gio"})
	if !errors.Is(err, repository.ErrDuplicateHandle) {
		t.Fatalf("expected ErrDuplicateHandle, got %v", err)
	}
}

func TestProfileService_SetAccessKey(t *testing.T) {
	var stored string
	repo := &mockProfileRepository{
		updateFn: func(ctx context.Context, clerkID string, fields map[string]interface{}) (*model.Profile, error) {
			stored = fields["access_key"].(string)
			return &model.Profile{ClerkID: clerkID}, nil
		},
	}

	svc := NewProfileService(repo)

	if err := svc.SetAccessKey(context.Background(), "user_1", "12ab"); err != nil {
		t.Fatalf("SetAccessKey error: %v", err)
	}
	if stored != "12ab" {
		t.Fatalf("stored key = %q", stored)
	}

	// Empty clears the gate.
	if err := svc.SetAccessKey(context.Background(), "user_1", ""); err != nil {
		t.Fatalf("SetAccessKey clear error: %v", err)
	}

	for _, bad := range []string{"abc", "12345", "ab!?"} {
		if err := svc.SetAccessKey(context.Background(), "user_1", bad); !errors.Is(err, ErrInvalidAccessKey) {
			t.Fatalf("key %q: expected ErrInvalidAccessKey, got %v", bad, err)
		}
	}
}

func TestProfileService_EnsureAvatar(t *testing.T) {
	updates := 0
	repo := &mockProfileRepository{
		getByIdentityFn: func(ctx context.Context, clerkID string) (*model.Profile, error) {
			return &model.Profile{ClerkID: clerkID, AvatarURL: "https://img.example/a.png"}, nil
		},
		updateFn: func(ctx context.Context, clerkID string, fields map[string]interface{}) (*model.Profile, error) {
			updates++
			return &model.Profile{ClerkID: clerkID}, nil
		},
	}

	svc := NewProfileService(repo)
	if err := svc.EnsureAvatar(context.Background(), "user_1", "https://img.example/new.png"); err != nil {
		t.Fatalf("EnsureAvatar error: %v", err)
	}
	if updates != 0 {
		t.Fatal("EnsureAvatar must not overwrite an existing avatar")
	}

	repo.getByIdentityFn = func(ctx context.Context, clerkID string) (*model.Profile, error) {
		return &model.Profile{ClerkID: clerkID}, nil
	}
	if err := svc.EnsureAvatar(context.Background(), "user_1", "https://img.example/new.png"); err != nil {
		t.Fatalf("EnsureAvatar error: %v", err)
	}
	if updates != 1 {
		t.Fatal("EnsureAvatar must fill in a missing avatar")
	}
}
