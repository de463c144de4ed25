// Package api serves the HTTP surface: Telegram login, session refresh and
// logout, profiles, today's meals and health checks.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"meal_tracker_api/internal/config"
	"meal_tracker_api/internal/logging"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
)

// Dependencies are the services behind the routes.
type Dependencies struct {
	Auth     AuthService
	Profiles ProfileService
	Meals    MealService
	Health   http.Handler
	Liveness http.Handler
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(cfg config.Config, deps Dependencies, logger *logrus.Entry) (*gin.Engine, error) {
	if deps.Auth == nil || deps.Profiles == nil || deps.Meals == nil || deps.Health == nil || deps.Liveness == nil {
		return nil, errors.New("auth, profiles, meals, health and liveness are required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	corsCfg := corsConfig(cfg.CORSOrigins)
	if err := corsCfg.Validate(); err != nil {
		return nil, fmt.Errorf("cors: %w", err)
	}

	handler := NewHandler(deps.Auth, deps.Profiles, deps.Meals, NewCookieWriter(cfg.CookieDomain, cfg.IsDevelopment()), logger)

	router := gin.New()
	router.Use(recovery(logger))
	router.Use(requestLogger(logger))
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", gin.WrapH(deps.Health))
	router.GET("/health", gin.WrapH(deps.Liveness))

	authGroup := router.Group("/auth")
	authGroup.POST("/telegram", handler.Login)
	authGroup.POST("/refresh", handler.Refresh)
	authGroup.POST("/logout", handler.Logout)
	authGroup.GET("/me", handler.Me)

	protected := router.Group("/", requireBearer(deps.Auth, logger))
	protected.GET("/users/me", handler.CurrentProfile)
	protected.GET("/users/:id", handler.Profile)
	protected.GET("/meals/today", handler.TodayMeals)

	return router, nil
}

// Server owns the HTTP listener.
type Server struct {
	server *http.Server
	logger *logrus.Entry
}

// NewServer wraps handler in an http.Server listening on port.
func NewServer(port int, handler http.Handler, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Server{
		logger: logger,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// ListenAndServe blocks until the server stops. A graceful shutdown is not an
// error.
func (s *Server) ListenAndServe() error {
	s.logger.WithFields(logging.Fields{
		"event": "http_listen",
		"addr":  s.server.Addr,
	}).Info("starting http server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server listen: %w", err)
	}

	s.logger.WithField("event", "http_stopped").Info("http server stopped")
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
