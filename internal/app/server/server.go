package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linkshot/linkshot/internal/app/handleset"
	"github.com/linkshot/linkshot/internal/app/service"
	inthttp "github.com/linkshot/linkshot/internal/http/handler"
	"github.com/linkshot/linkshot/internal/http/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies bundles everything required by the HTTP server.
type Dependencies struct {
	Logger     *zap.Logger
	Redis      *redis.Client
	Profiles   service.ProfileService
	Links      service.LinkService
	Ranks      service.RankService
	Analytics  service.AnalyticsService
	Events     *service.EventPublisher
	Reconcile  *service.ReconcileWorker
	Handles    *handleset.Filter
	AuthSecret []byte
	CacheTTL   time.Duration
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	app := fiber.New()

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.CORS())
	if s.deps.Redis != nil {
		s.app.Use(middleware.RateLimit(s.deps.Redis, middleware.DefaultRateLimitConfig(), s.deps.Logger))
	}

	publicHandler := inthttp.NewPublicHandler(inthttp.PublicDeps{
		Logger:    s.deps.Logger,
		Profiles:  s.deps.Profiles,
		Links:     s.deps.Links,
		Ranks:     s.deps.Ranks,
		Reconcile: s.deps.Reconcile,
		Handles:   s.deps.Handles,
		Events:    s.deps.Events,
		Redis:     s.deps.Redis,
		CacheTTL:  s.deps.CacheTTL,
	})
	publicHandler.Register(s.app)

	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:     s.deps.Logger,
		Profiles:   s.deps.Profiles,
		Links:      s.deps.Links,
		Ranks:      s.deps.Ranks,
		Analytics:  s.deps.Analytics,
		Handles:    s.deps.Handles,
		AuthSecret: s.deps.AuthSecret,
	})
	apiHandler.Register(s.app)
}
