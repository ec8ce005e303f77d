package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/linkshot/linkshot/internal/app/model"
	"github.com/linkshot/linkshot/internal/app/repository"
	"github.com/linkshot/linkshot/internal/app/service"
)

type mockProfileService struct {
	byHandle map[string]*model.Profile
}

func (m *mockProfileService) GetByIdentity(ctx context.Context, clerkID string) (*model.Profile, error) {
	return nil, repository.ErrProfileNotFound
}

func (m *mockProfileService) GetByHandle(ctx context.Context, handle string) (*model.Profile, error) {
	if p, ok := m.byHandle[handle]; ok {
		return p, nil
	}
	return nil, repository.ErrProfileNotFound
}

func (m *mockProfileService) Upsert(ctx context.Context, clerkID string, fields map[string]interface{}) (*model.Profile, error) {
	return nil, repository.ErrProfileNotFound
}

func (m *mockProfileService) SetAccessKey(ctx context.Context, clerkID, key string) error {
	return nil
}

func (m *mockProfileService) SyncAvatar(ctx context.Context, clerkID, avatarURL string) error {
	return nil
}

func (m *mockProfileService) EnsureAvatar(ctx context.Context, clerkID, avatarURL string) error {
	return nil
}

type mockLinkService struct {
	links []model.CustomLink
}

func (m *mockLinkService) ListByOwner(ctx context.Context, userID string) ([]model.CustomLink, error) {
	return m.links, nil
}

func (m *mockLinkService) ListByHandle(ctx context.Context, handle string) ([]model.CustomLink, error) {
	return m.links, nil
}

func (m *mockLinkService) Create(ctx context.Context, userID string, input service.CreateLinkInput) (*model.CustomLink, error) {
	return nil, nil
}

func (m *mockLinkService) Update(ctx context.Context, userID, linkID string, input service.UpdateLinkInput) (*model.CustomLink, error) {
	return nil, nil
}

func (m *mockLinkService) Delete(ctx context.Context, userID, linkID string) error {
	return nil
}

func (m *mockLinkService) Reorder(ctx context.Context, userID string, orders []service.LinkOrder) error {
	return nil
}

type mockRankService struct {
	views   int64
	viewErr error
	top     []model.LeaderboardEntry
}

func (m *mockRankService) RecordView(ctx context.Context, handle string) (int64, error) {
	if m.viewErr != nil {
		return 0, m.viewErr
	}
	m.views++
	return m.views, nil
}

func (m *mockRankService) Reconcile(ctx context.Context, n int) (service.ReconcileResult, error) {
	return service.ReconcileResult{}, nil
}

func (m *mockRankService) TopProfiles(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	return m.top, nil
}

func (m *mockRankService) AddRank(ctx context.Context, handle, tag string) (string, error) {
	return "", nil
}

func (m *mockRankService) RemoveRank(ctx context.Context, handle, tag string) (string, error) {
	return "", nil
}

type countingKicker struct{ kicks int }

func (k *countingKicker) Kick() { k.kicks++ }

func handlePtr(s string) *string { return &s }

func newPublicApp(deps PublicDeps) *fiber.App {
	app := fiber.New()
	NewPublicHandler(deps).Register(app)
	return app
}

func TestViewProfile_CountsAndKicks(t *testing.T) {
	views := int64(41)
	profile := &model.Profile{
		ClerkID: "user_1",
		Handle:  handlePtr("gio"),
		Name:    "Gio",
		Views:   &views,
		Rank:    "მომხმარებელი",
	}
	ranks := &mockRankService{views: 41}
	kicker := &countingKicker{}

	app := newPublicApp(PublicDeps{
		Profiles:  &mockProfileService{byHandle: map[string]*model.Profile{"gio": profile}},
		Links:     &mockLinkService{},
		Ranks:     ranks,
		Reconcile: kicker,
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/u/gio", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body PublicProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Views != 42 {
		t.Fatalf("views = %d, want the incremented count", body.Views)
	}
	if kicker.kicks != 1 {
		t.Fatalf("kicks = %d, want exactly one reconcile nudge", kicker.kicks)
	}
}

func TestViewProfile_NotFound(t *testing.T) {
	app := newPublicApp(PublicDeps{
		Profiles: &mockProfileService{},
		Links:    &mockLinkService{},
		Ranks:    &mockRankService{},
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/u/nobody", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestViewProfile_IncrementFailureStillRenders(t *testing.T) {
	views := int64(10)
	profile := &model.Profile{
		ClerkID: "user_1",
		Handle:  handlePtr("gio"),
		Views:   &views,
	}
	kicker := &countingKicker{}

	app := newPublicApp(PublicDeps{
		Profiles:  &mockProfileService{byHandle: map[string]*model.Profile{"gio": profile}},
		Links:     &mockLinkService{},
		Ranks:     &mockRankService{viewErr: repository.ErrStorageUnavailable},
		Reconcile: kicker,
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/u/gio", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, the page must render even when counting fails", resp.StatusCode)
	}

	var body PublicProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Views != 10 {
		t.Fatalf("views = %d, want the stale stored count", body.Views)
	}
	if kicker.kicks != 0 {
		t.Fatal("no reconcile nudge when the increment failed")
	}
}

func TestViewProfile_HidesPrivateSlots(t *testing.T) {
	profile := &model.Profile{
		ClerkID:   "user_1",
		Handle:    handlePtr("gio"),
		AccessKey: "12ab",
		Links: model.LinkSlots{
			GitHub:   "gio",
			Discord:  "gio#1234",
			Telegram: "@gio",
		},
	}

	app := newPublicApp(PublicDeps{
		Profiles: &mockProfileService{byHandle: map[string]*model.Profile{"gio": profile}},
		Links:    &mockLinkService{},
		Ranks:    &mockRankService{},
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/u/gio", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var body PublicProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.HasPrivate {
		t.Fatal("expected has_private_links flag")
	}
	if body.Links.GitHub != "gio" {
		t.Fatal("public slots must stay visible")
	}
	if body.Links.Discord != "" || body.Links.Telegram != "" {
		t.Fatal("gated slots must be withheld from the public view")
	}
}

func TestPrivateLinks_AccessKey(t *testing.T) {
	profile := &model.Profile{
		ClerkID:   "user_1",
		Handle:    handlePtr("gio"),
		AccessKey: "12ab",
		Links:     model.LinkSlots{Discord: "gio#1234"},
	}

	app := newPublicApp(PublicDeps{
		Profiles: &mockProfileService{byHandle: map[string]*model.Profile{"gio": profile}},
		Links:    &mockLinkService{},
		Ranks:    &mockRankService{},
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/u/gio/private?key=12ab", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200 with correct key", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/u/gio/private?key=zzzz", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403 with wrong key", resp.StatusCode)
	}
}

func TestLeaderboard_WithoutCache(t *testing.T) {
	app := newPublicApp(PublicDeps{
		Profiles: &mockProfileService{},
		Links:    &mockLinkService{},
		Ranks: &mockRankService{top: []model.LeaderboardEntry{
			{Handle: "gio", Views: 60},
			{Handle: "nino", Views: 50},
			{Handle: "luka", Views: 40},
		}},
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/top", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Top    []model.LeaderboardEntry `json:"top"`
		Cached bool                     `json:"cached"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Top) != 3 || body.Top[0].Handle != "gio" {
		t.Fatalf("top = %+v", body.Top)
	}
	if body.Cached {
		t.Fatal("no cache configured, response must not be marked cached")
	}
}
