// Package stubapi is a small cookie-session API with the same surface the
// client talks to. It backs local development and the integration tests.
package stubapi

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sessionguard/sessionguard/internal/config"
)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    config.StubAPIConfig
	logger    zerolog.Logger
	validator *validator.Validate
	tokens    *tokenIssuer
}

// New creates a new server instance
func New(cfg config.StubAPIConfig, zlog zerolog.Logger) (*Server, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		// Ephemeral secret: sessions end with the process
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		zlog.Debug().Msg("Generated ephemeral JWT secret")
	}

	s := &Server{
		db:        db,
		config:    cfg,
		logger:    zlog,
		validator: validator.New(),
		tokens:    newTokenIssuer(secret),
	}

	if err := s.seedAdmin(); err != nil {
		return nil, err
	}

	s.setupRouter()
	return s, nil
}

// seedAdmin creates the configured admin account if it doesn't exist yet
func (s *Server) seedAdmin() error {
	if s.config.AdminEmail == "" || s.config.AdminPassword == "" {
		return nil
	}

	var existing User
	err := s.db.Where("email = ?", strings.ToLower(s.config.AdminEmail)).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	user, err := s.createUser("Administrator", s.config.AdminEmail, s.config.AdminPassword, RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("Seeded admin user")
	return nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	if len(s.config.AllowOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s.router.GET("/health", s.healthCheck)

	// Public endpoints
	s.router.POST("/api/login", s.login)
	s.router.POST("/api/logout", s.logout)
	s.router.POST("/api/user", s.register)

	// Authenticated endpoints
	api := s.router.Group("/api")
	api.Use(s.requireAuth())
	{
		api.GET("/user", s.getUser)
		api.GET("/users", s.listUsers)

		admin := api.Group("/admin")
		admin.Use(s.adminOnly())
		{
			admin.DELETE("/user", s.deleteUser)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// Handler exposes the router, e.g. for httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database
func (s *Server) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Run serves on the configured address until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("Starting stub API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("stub API failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down stub API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := s.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing database")
	}

	s.logger.Info().Msg("Stub API shutdown complete")
	return nil
}
