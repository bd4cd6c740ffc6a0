// Package server wires Warbler's HTML views and JSON API onto Fiber.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "warbler/docs" // swagger docs
	"warbler/internal/auth"
	"warbler/internal/bootstrap"
	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
	"warbler/internal/service"
	"warbler/internal/view"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	timelineLimit = 100
	profileLimit  = 100
	userListLimit = 100
)

// Server holds all dependencies and provides handlers
type Server struct {
	config   *config.Config
	db       *gorm.DB
	redis    *redis.Client
	app      *fiber.App
	metrics  *observability.Metrics
	sessions *middleware.SessionManager
	tokens   *auth.TokenIssuer
	users    *service.UserService
	messages *service.MessageService
}

// NewServer connects to the database and Redis and builds the app.
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedDemo: cfg.SeedDemo})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Redis client keeps sessions in memory.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	metrics := observability.NewMetrics("warbler")
	if err := metrics.InstrumentDB(db); err != nil {
		return nil, fmt.Errorf("instrument database: %w", err)
	}
	cache.Instrument(redisClient, metrics.RedisErrors)

	var storage fiber.Storage
	if redisClient != nil {
		storage = cache.NewSessionStorage(redisClient)
	}
	store := middleware.NewSessionStore(storage, time.Duration(cfg.SessionTTLHours)*time.Hour, cfg.CookieSecure)

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	s := &Server{
		config:   cfg,
		db:       db,
		redis:    redisClient,
		metrics:  metrics,
		sessions: middleware.NewSessionManager(store),
		tokens:   auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour),
		users:    service.NewUserService(userRepo, followRepo, messageRepo, likeRepo, auth.NewHasher(cfg.BcryptCost)),
		messages: service.NewMessageService(messageRepo, likeRepo),
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "Warbler",
		Views:        view.New(),
		ErrorHandler: s.handleError,
	})
	s.SetupMiddleware(s.app)
	s.SetupRoutes(s.app)
	return s, nil
}

// App exposes the configured Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	app.Use(s.metrics.Middleware())
	app.Use(helmet.New(helmet.Config{
		// Bootstrap is loaded from a CDN and avatars may live anywhere.
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))
	app.Use(middleware.StructuredLogger())

	app.Use("/api", cors.New(cors.Config{
		AllowOrigins: s.config.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/metrics", s.metrics.Handler())

	s.setupAPIRoutes(app.Group("/api"))

	// Everything below renders HTML and runs behind the session gate.
	web := app.Group("", s.sessions.Gate(s.userExists))
	login := s.sessions.RequireLogin()

	web.Get("/", s.Homepage)
	web.Get("/signup", s.SignupForm)
	web.Post("/signup", s.Signup)
	web.Get("/login", s.LoginForm)
	web.Post("/login", s.Login)
	web.Get("/logout", s.Logout)

	users := web.Group("/users")
	users.Get("/", s.ListUsers)
	// Fixed paths before /:id.
	users.Get("/profile", login, s.EditProfileForm)
	users.Post("/profile", login, s.UpdateProfile)
	users.Post("/delete", login, s.DeleteUser)
	users.Post("/follow/:id", login, s.Follow)
	users.Post("/stop-following/:id", login, s.StopFollowing)
	users.Get("/:id/following", login, s.ShowFollowing)
	users.Get("/:id/followers", login, s.ShowFollowers)
	users.Get("/:id/likes", login, s.ShowLikes)
	users.Get("/:id", s.ShowUser)

	messages := web.Group("/messages")
	messages.Get("/new", login, s.NewMessageForm)
	messages.Post("/new", login, s.CreateMessage)
	messages.Post("/:id/delete", login, s.DeleteMessage)
	messages.Post("/:id/like", login, s.ToggleLike)
	messages.Get("/:id", s.ShowMessage)
}

func (s *Server) setupAPIRoutes(api fiber.Router) {
	api.Get("/swagger/*", swagger.HandlerDefault)
	api.Post("/auth/token", s.IssueToken)

	protected := api.Group("", middleware.AuthRequired(s.tokens, s.userExists))
	protected.Get("/users/:id", s.APIGetUser)
	protected.Get("/users/:id/messages", s.APIUserMessages)
	protected.Get("/messages/:id", s.APIGetMessage)
	protected.Post("/messages", s.APICreateMessage)
	protected.Delete("/messages/:id", s.APIDeleteMessage)
}

// userExists lets the session gate and the token gate refuse ids of deleted users.
func (s *Server) userExists(ctx context.Context, id uint) (bool, error) {
	_, err := s.users.GetUser(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case models.IsCode(err, models.CodeNotFound):
		return false, nil
	default:
		return false, err
	}
}

// handleError answers JSON under /api and renders an error page elsewhere.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	}

	if strings.HasPrefix(c.Path(), "/api") {
		if fe == nil && models.ErrorCode(err) == models.CodeInternal {
			err = models.NewInternalError(err)
		}
		return models.RespondWithError(c, status, err)
	}

	data := fiber.Map{"Status": status}
	if id, ok := middleware.CurrentUserID(c); ok {
		if u, uerr := s.users.GetUser(c.UserContext(), id); uerr == nil {
			data["CurrentUser"] = u
		}
	}
	if status == fiber.StatusNotFound {
		if models.IsCode(err, models.CodeNotFound) {
			data["Message"] = err.Error()
		}
		return c.Status(status).Render("404", data)
	}
	return c.Status(status).Render("error", data)
}

// Start listens on the configured port.
func (s *Server) Start() error {
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops the HTTP server and closes the database and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("close database: %w", cerr))
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", rerr))
		}
	}
	middleware.Logger.Info("server shutdown complete")
	return errors.Join(errs...)
}
