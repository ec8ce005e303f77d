package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/linkshot/linkshot/internal/app/handleset"
	"github.com/linkshot/linkshot/internal/app/rank"
	"github.com/linkshot/linkshot/internal/app/repository"
	"github.com/linkshot/linkshot/internal/app/service"
	"github.com/linkshot/linkshot/internal/http/middleware"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by the authenticated API handlers.
type APIDeps struct {
	Logger     *zap.Logger
	Profiles   service.ProfileService
	Links      service.LinkService
	Ranks      service.RankService
	Analytics  service.AnalyticsService
	Handles    *handleset.Filter
	AuthSecret []byte
}

// APIHandler implements the owner dashboard endpoints. Every route runs
// behind the identity-token middleware.
type APIHandler struct {
	logger    *zap.Logger
	profiles  service.ProfileService
	links     service.LinkService
	ranks     service.RankService
	analytics service.AnalyticsService
	handles   *handleset.Filter
	secret    []byte
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:    logger,
		profiles:  deps.Profiles,
		links:     deps.Links,
		ranks:     deps.Ranks,
		analytics: deps.Analytics,
		handles:   deps.Handles,
		secret:    deps.AuthSecret,
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	api := router.Group("/api", middleware.Auth(h.secret))
	{
		api.Get("/profile", h.GetProfile)
		api.Patch("/profile", h.UpdateProfile)
		api.Put("/profile/access-key", h.SetAccessKey)
		api.Get("/analytics", h.Analytics)

		links := api.Group("/links")
		{
			links.Get("/", h.ListLinks)
			links.Post("/", h.CreateLink)
			links.Put("/reorder", h.ReorderLinks)
			links.Patch("/:id", h.UpdateLink)
			links.Delete("/:id", h.DeleteLink)
		}

		ranks := api.Group("/ranks")
		{
			ranks.Post("/reconcile", h.ReconcileRanks)
			ranks.Post("/:handle/:tag", h.AddRank)
			ranks.Delete("/:handle/:tag", h.RemoveRank)
		}
	}
}

// GetProfile handles GET /api/profile
func (h *APIHandler) GetProfile(c *fiber.Ctx) error {
	claims, ok := middleware.Identity(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	profile, err := h.profiles.GetByIdentity(h.ctx(c), claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			// Profiles are created lazily on the first write.
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "profile not created yet",
			})
		}
		h.logger.Error("failed to load profile", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load profile",
		})
	}

	return c.JSON(profile)
}

// UpdateProfile handles PATCH /api/profile. The body is a column map;
// unknown and protected columns are ignored. A missing profile row is
// created on the spot.
func (h *APIHandler) UpdateProfile(c *fiber.Ctx) error {
	claims, ok := middleware.Identity(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	ctx := h.ctx(c)

	profile, err := h.profiles.Upsert(ctx, claims.Subject, fields)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateHandle) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "handle already taken",
			})
		}
		h.logger.Error("failed to update profile", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update profile",
		})
	}

	// A freshly claimed handle goes into the lookup filter right away so
	// the public page resolves it before the next periodic reload.
	if h.handles != nil && profile.Handle != nil {
		h.handles.Add(*profile.Handle)
	}

	// Backfill the provider avatar when the profile has none.
	if claims.AvatarURL != "" {
		if err := h.profiles.EnsureAvatar(ctx, claims.Subject, claims.AvatarURL); err != nil {
			h.logger.Warn("failed to backfill avatar", zap.Error(err))
		}
	}

	return c.JSON(profile)
}

// SetAccessKeyRequest is the request body for setting the private-links key.
type SetAccessKeyRequest struct {
	AccessKey string `json:"access_key"`
}

// SetAccessKey handles PUT /api/profile/access-key. An empty key removes
// the private-links gate.
func (h *APIHandler) SetAccessKey(c *fiber.Ctx) error {
	claims, ok := middleware.Identity(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	var req SetAccessKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.profiles.SetAccessKey(h.ctx(c), claims.Subject, req.AccessKey); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAccessKey):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": service.ErrInvalidAccessKey.Error(),
			})
		case errors.Is(err, repository.ErrProfileNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "profile not created yet",
			})
		}
		h.logger.Error("failed to set access key", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to set access key",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Analytics handles GET /api/analytics for the caller's own profile.
func (h *APIHandler) Analytics(c *fiber.Ctx) error {
	claims, ok := middleware.Identity(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	ctx := h.ctx(c)

	profile, err := h.profiles.GetByIdentity(ctx, claims.Subject)
	if err != nil || profile.Handle == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "profile has no public handle yet",
		})
	}

	summary, err := h.analytics.Summary(ctx, *profile.Handle)
	if err != nil {
		h.logger.Error("failed to build analytics summary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load analytics",
		})
	}

	return c.JSON(summary)
}

// CreateLinkRequest is the request body for creating a custom link.
type CreateLinkRequest struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Icon       string `json:"icon,omitempty"`
	OrderIndex *int   `json:"order_index,omitempty"`
}

// CreateLink handles POST /api/links
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	claims, ok := middleware.Identity(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Title == "" || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "title and url are required",
		})
	}

	link, err := h.links.Create(h.ctx(c), claims.Subject, service.CreateLinkInput{
		Title:      req.Title,
		URL:        req.URL,
		Icon:       req.Icon,
		OrderIndex: req.OrderIndex,
	})
	if err != nil {
		h.logger.Error("failed to create custom link", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create link",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(link)
}

// ListLinks handles GET /api/links
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	claims, ok := middleware.Identity(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	links, err := h.links.ListByOwner(h.ctx(c), claims.Subject)
	if err != nil {
		h.logger.Error("failed to list custom links", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list links",
		})
	}

	return c.JSON(fiber.Map{
		"links": links,
		"count": len(links),
	})
}

// UpdateLinkRequest is the request body for updating a custom link.
type UpdateLinkRequest struct {
	Title      *string `json:"title,omitempty"`
	URL        *string `json:"url,omitempty"`
	Icon       *string `json:"icon,omitempty"`
	OrderIndex *int    `json:"order_index,omitempty"`
}

// UpdateLink handles PATCH /api/links/:id
func (h *APIHandler) UpdateLink(c *fiber.Ctx) error {
	claims, ok := middleware.Identity(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	id := c.Params("id")
	var req UpdateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	link, err := h.links.Update(h.ctx(c), claims.Subject, id, service.UpdateLinkInput{
		Title:      req.Title,
		URL:        req.URL,
		Icon:       req.Icon,
		OrderIndex: req.OrderIndex,
	})
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "link not found",
			})
		}
		h.logger.Error("failed to update custom link", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update link",
		})
	}

	return c.JSON(link)
}

// DeleteLink handles DELETE /api/links/:id (soft delete).
func (h *APIHandler) DeleteLink(c *fiber.Ctx) error {
	claims, ok := middleware.Identity(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	if err := h.links.Delete(h.ctx(c), claims.Subject, c.Params("id")); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "link not found",
			})
		}
		h.logger.Error("failed to delete custom link", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete link",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ReorderLinksRequest is the request body for bulk reordering.
type ReorderLinksRequest struct {
	Orders []service.LinkOrder `json:"orders"`
}

// ReorderLinks handles PUT /api/links/reorder
func (h *APIHandler) ReorderLinks(c *fiber.Ctx) error {
	claims, ok := middleware.Identity(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	var req ReorderLinksRequest
	if err := c.BodyParser(&req); err != nil || len(req.Orders) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.links.Reorder(h.ctx(c), claims.Subject, req.Orders); err != nil {
		h.logger.Error("failed to reorder custom links", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to reorder links",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ReconcileRanks handles POST /api/ranks/reconcile, the operator-facing
// trigger for a synchronous reconciliation pass.
func (h *APIHandler) ReconcileRanks(c *fiber.Ctx) error {
	n := c.QueryInt("n", service.DefaultTopN)

	result, err := h.ranks.Reconcile(h.ctx(c), n)
	if err != nil {
		h.logger.Error("rank reconciliation failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "reconciliation failed",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"updated": result.Updated,
		"failed":  result.Failed,
	})
}

// AddRank handles POST /api/ranks/:handle/:tag (admin only).
func (h *APIHandler) AddRank(c *fiber.Ctx) error {
	return h.mutateRank(c, h.ranks.AddRank)
}

// RemoveRank handles DELETE /api/ranks/:handle/:tag (admin only).
func (h *APIHandler) RemoveRank(c *fiber.Ctx) error {
	return h.mutateRank(c, h.ranks.RemoveRank)
}

func (h *APIHandler) mutateRank(c *fiber.Ctx, op func(context.Context, string, string) (string, error)) error {
	claims, ok := middleware.Identity(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	ctx := h.ctx(c)

	if !h.isAdmin(ctx, claims.Subject) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "admin rank required",
		})
	}

	handle := c.Params("handle")
	tag := c.Params("tag")
	if handle == "" || tag == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing handle or tag",
		})
	}

	newRank, err := op(ctx, handle, tag)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "profile not found",
			})
		}
		h.logger.Error("failed to mutate rank", zap.Error(err),
			zap.String("handle", handle), zap.String("tag", tag))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update rank",
		})
	}

	return c.JSON(fiber.Map{
		"handle": handle,
		"rank":   newRank,
	})
}

func (h *APIHandler) isAdmin(ctx context.Context, clerkID string) bool {
	profile, err := h.profiles.GetByIdentity(ctx, clerkID)
	if err != nil {
		return false
	}
	return rank.Has(profile.Rank, rank.AdminTag)
}

func (h *APIHandler) ctx(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}
