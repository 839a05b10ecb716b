// Package server contains the HTTP handlers for the article publishing API.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	_ "conduit/docs" // swagger docs
	"conduit/internal/config"
	"conduit/internal/database"
	"conduit/internal/middleware"
	"conduit/internal/models"
	"conduit/internal/repository"
	"conduit/internal/revocation"
	"conduit/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "conduit-api"

// The Prometheus collectors live on the default registry, so every Server in
// the process shares one instance.
var sharedMetrics = sync.OnceValue(func() *fiberprometheus.FiberPrometheus {
	return middleware.InitMetrics(serviceName)
})

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	revocations    *revocation.Store
	tokens         *middleware.TokenManager
	promMiddleware *fiberprometheus.FiberPrometheus

	users     *service.UserService
	profiles  *service.ProfileService
	articles  *service.ArticleService
	comments  *service.CommentService
	favorites *service.FavoriteService
	tags      *service.TagService
	views     *service.ViewComposer
}

// NewServer connects the database and Redis described by cfg and wires the
// services on top of them. Redis is optional; without it logout cannot
// revoke tokens.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = revocation.Connect(ctx, cfg.RedisURL)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "redis unavailable, token revocation disabled", "error", err)
			redisClient = nil
		}
	}

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer owns the DB and Redis handles.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	tagRepo := repository.NewTagRepository(db)

	tags := service.NewTagService(tagRepo)
	favorites := service.NewFavoriteService(favoriteRepo, articleRepo)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		revocations:    revocation.NewStore(redisClient),
		tokens:         middleware.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour),
		promMiddleware: sharedMetrics(),
		users:          service.NewUserService(userRepo),
		profiles:       service.NewProfileService(userRepo, followRepo),
		articles:       service.NewArticleService(articleRepo, userRepo, tags, favorites),
		comments:       service.NewCommentService(commentRepo, articleRepo),
		favorites:      favorites,
		tags:           tags,
		views:          service.NewViewComposer(favoriteRepo, followRepo),
	}, nil
}

// NewApp builds a Fiber app with the full middleware chain and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Conduit API",
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler renders errors that escape handlers, such as unknown routes,
// with the same JSON body the handlers use.
func errorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return models.RespondWithError(c, fe.Code, &models.AppError{Code: httpCode(fe.Code), Message: fe.Message})
	}
	return respondError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:4100,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        requestsPerMinute,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

const requestsPerMinute = 300

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := s.AuthRequired()
	viewer := s.OptionalViewer()

	users := api.Group("/users")
	users.Post("/", s.Register)
	users.Post("/login", s.Login)
	users.Post("/logout", auth, s.Logout)

	api.Get("/user", auth, s.GetCurrentUser)
	api.Put("/user", auth, s.UpdateCurrentUser)

	profiles := api.Group("/profiles")
	profiles.Get("/:username", viewer, s.GetProfile)
	profiles.Post("/:username/follow", auth, s.FollowUser)
	profiles.Delete("/:username/follow", auth, s.UnfollowUser)

	articles := api.Group("/articles")
	articles.Get("/", viewer, s.ListArticles)
	// /feed is registered before /:slug so it is not captured as a slug.
	articles.Get("/feed", auth, s.FeedArticles)
	articles.Post("/", auth, s.CreateArticle)
	articles.Post("/:slug/favorite", auth, s.FavoriteArticle)
	articles.Delete("/:slug/favorite", auth, s.UnfavoriteArticle)
	articles.Get("/:slug/comments", viewer, s.ListComments)
	articles.Post("/:slug/comments", auth, s.CreateComment)
	articles.Delete("/:slug/comments/:id", auth, s.DeleteComment)
	articles.Get("/:slug", viewer, s.GetArticle)
	articles.Put("/:slug", auth, s.UpdateArticle)
	articles.Delete("/:slug", auth, s.DeleteArticle)

	tags := api.Group("/tags")
	tags.Get("/", s.ListTags)
	tags.Get("/popular", s.PopularTags)
}

// AuthRequired rejects requests without a valid, unrevoked token.
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.AuthRequired(s.tokens, s.revocations)
}

// OptionalViewer records the caller's identity when a token is present.
func (s *Server) OptionalViewer() fiber.Handler {
	return middleware.OptionalAuth(s.tokens, s.revocations)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis only degrades the
// report; the API serves without it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.revocations.Enabled() {
		redisStatus = "healthy"
		if err := s.revocations.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	switch {
	case dbStatus != "healthy":
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	case redisStatus == "unhealthy":
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Shutdown releases the database pool and the Redis client.
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if err := database.Close(s.db); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		middleware.Logger.ErrorContext(ctx, "server shutdown", "error", firstErr)
	}
	return firstErr
}
