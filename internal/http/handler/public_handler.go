package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linkshot/linkshot/internal/app/handleset"
	"github.com/linkshot/linkshot/internal/app/model"
	"github.com/linkshot/linkshot/internal/app/repository"
	"github.com/linkshot/linkshot/internal/app/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const leaderboardCacheKey = "leaderboard:top"

// Kicker nudges the background reconcile worker without blocking.
type Kicker interface {
	Kick()
}

// PublicDeps groups dependencies required by the visitor-facing handlers.
type PublicDeps struct {
	Logger    *zap.Logger
	Profiles  service.ProfileService
	Links     service.LinkService
	Ranks     service.RankService
	Reconcile Kicker
	Handles   *handleset.Filter
	Events    *service.EventPublisher
	Redis     *redis.Client
	CacheTTL  time.Duration
}

// PublicHandler serves public profile pages, the leaderboard and click
// tracking. No authentication.
type PublicHandler struct {
	logger    *zap.Logger
	profiles  service.ProfileService
	links     service.LinkService
	ranks     service.RankService
	reconcile Kicker
	handles   *handleset.Filter
	events    *service.EventPublisher
	redis     *redis.Client
	cacheTTL  time.Duration
}

// NewPublicHandler creates a public handler with the provided dependencies.
func NewPublicHandler(deps PublicDeps) *PublicHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cacheTTL := deps.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &PublicHandler{
		logger:    logger,
		profiles:  deps.Profiles,
		links:     deps.Links,
		ranks:     deps.Ranks,
		reconcile: deps.Reconcile,
		handles:   deps.Handles,
		events:    deps.Events,
		redis:     deps.Redis,
		cacheTTL:  cacheTTL,
	}
}

// Register wires public routes onto the provided router.
func (h *PublicHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/top", h.Leaderboard)
	router.Get("/u/:handle", h.ViewProfile)
	router.Get("/u/:handle/private", h.PrivateLinks)
	router.Post("/u/:handle/click/:slot", h.TrackClick)
}

// Health is a simple root endpoint so we know the service is running.
func (h *PublicHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "LinkShot",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// PublicProfileResponse is the visitor view of a profile. When an access
// key is set, messaging and contact slots are withheld until the visitor
// presents the key at the private-links endpoint.
type PublicProfileResponse struct {
	Handle      string             `json:"handle"`
	Name        string             `json:"name"`
	Bio         string             `json:"bio"`
	AvatarURL   string             `json:"avatar_url"`
	Rank        string             `json:"rank"`
	Views       int64              `json:"views"`
	Links       model.LinkSlots    `json:"links"`
	CustomLinks []model.CustomLink `json:"custom_links"`
	HasPrivate  bool               `json:"has_private_links"`
}

// ViewProfile handles GET /u/:handle, the public page load. It counts
// the view and nudges rank reconciliation without blocking the response.
func (h *PublicHandler) ViewProfile(c *fiber.Ctx) error {
	handle := c.Params("handle")
	if handle == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing handle",
		})
	}

	// Definitive miss in the handle filter: skip the database entirely.
	if h.handles != nil && !h.handles.MightContain(handle) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "profile not found",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	profile, err := h.profiles.GetByHandle(ctx, handle)
	if err != nil {
		return h.profileError(c, err, handle)
	}

	customLinks, err := h.links.ListByOwner(ctx, profile.ClerkID)
	if err != nil {
		h.logger.Error("failed to load custom links", zap.Error(err), zap.String("handle", handle))
		customLinks = nil
	}

	views, err := h.ranks.RecordView(ctx, handle)
	if err != nil {
		// The page still renders; the counter just lags.
		h.logger.Warn("failed to record view", zap.Error(err), zap.String("handle", handle))
		views = profile.ViewCount()
	} else if h.reconcile != nil {
		h.reconcile.Kick()
	}

	if h.events != nil {
		go h.publishView(handle, c.IP(), c.Get("User-Agent"))
	}

	resp := PublicProfileResponse{
		Handle:      handle,
		Name:        profile.Name,
		Bio:         profile.Bio,
		AvatarURL:   profile.AvatarURL,
		Rank:        profile.Rank,
		Views:       views,
		Links:       profile.Links,
		CustomLinks: customLinks,
		HasPrivate:  profile.AccessKey != "",
	}
	if resp.HasPrivate {
		hidePrivateSlots(&resp.Links)
	}
	if resp.CustomLinks == nil {
		resp.CustomLinks = []model.CustomLink{}
	}

	return c.JSON(resp)
}

// PrivateLinks handles GET /u/:handle/private?key= and reveals the gated
// slots when the visitor knows the owner's access key.
func (h *PublicHandler) PrivateLinks(c *fiber.Ctx) error {
	handle := c.Params("handle")
	key := c.Query("key")
	if handle == "" || key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing handle or key",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	profile, err := h.profiles.GetByHandle(ctx, handle)
	if err != nil {
		return h.profileError(c, err, handle)
	}

	if profile.AccessKey == "" || profile.AccessKey != key {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "wrong access key",
		})
	}

	return c.JSON(fiber.Map{
		"discord":  profile.Links.Discord,
		"telegram": profile.Links.Telegram,
		"whatsapp": profile.Links.WhatsApp,
		"skype":    profile.Links.Skype,
		"email":    profile.Email,
		"phone":    profile.Phone,
	})
}

// Leaderboard handles GET /top with a short Redis cache in front of the
// database. Cache failures fall open to the query.
func (h *PublicHandler) Leaderboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	if h.redis != nil {
		cached, err := h.redis.Get(ctx, leaderboardCacheKey).Bytes()
		if err == nil {
			var entries []model.LeaderboardEntry
			if json.Unmarshal(cached, &entries) == nil {
				return c.JSON(fiber.Map{"top": entries, "cached": true})
			}
		} else if !errors.Is(err, redis.Nil) {
			h.logger.Warn("leaderboard cache read failed", zap.Error(err))
		}
	}

	entries, err := h.ranks.TopProfiles(ctx, service.DefaultTopN)
	if err != nil {
		h.logger.Error("failed to load leaderboard", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "leaderboard unavailable",
		})
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}

	if h.redis != nil {
		if data, err := json.Marshal(entries); err == nil {
			if err := h.redis.Set(ctx, leaderboardCacheKey, data, h.cacheTTL).Err(); err != nil {
				h.logger.Warn("leaderboard cache write failed", zap.Error(err))
			}
		}
	}

	return c.JSON(fiber.Map{"top": entries, "cached": false})
}

// TrackClick handles POST /u/:handle/click/:slot by publishing a
// link_click analytics event. Always returns 202: click tracking must
// never break link navigation.
func (h *PublicHandler) TrackClick(c *fiber.Ctx) error {
	handle := c.Params("handle")
	slot := c.Params("slot")
	if handle == "" || slot == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing handle or slot",
		})
	}

	if h.events != nil {
		ip := c.IP()
		ua := c.Get("User-Agent")
		go func() {
			if err := h.events.PublishClick(handle, slot, ip, ua); err != nil {
				h.logger.Error("failed to publish click event",
					zap.Error(err), zap.String("handle", handle), zap.String("slot", slot))
			}
		}()
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func (h *PublicHandler) publishView(handle, ip, userAgent string) {
	if err := h.events.PublishView(handle, ip, userAgent); err != nil {
		h.logger.Error("failed to publish view event",
			zap.Error(err), zap.String("handle", handle))
	}
}

func (h *PublicHandler) profileError(c *fiber.Ctx, err error, handle string) error {
	if errors.Is(err, repository.ErrProfileNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "profile not found",
		})
	}
	h.logger.Error("failed to load profile", zap.Error(err), zap.String("handle", handle))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}

// hidePrivateSlots blanks the fields gated behind the access key.
func hidePrivateSlots(links *model.LinkSlots) {
	links.Discord = ""
	links.Telegram = ""
	links.WhatsApp = ""
	links.Skype = ""
}
