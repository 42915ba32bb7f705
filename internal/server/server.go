package server

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/postpulse/internal/config"
	"github.com/pscheid92/postpulse/internal/domain"
	apperrors "github.com/pscheid92/postpulse/internal/errors"
	goredis "github.com/redis/go-redis/v9"
)

// redisHealthChecker is a minimal interface for Redis health checks
type redisHealthChecker interface {
	Ping(ctx context.Context) *goredis.StatusCmd
}

// postgresHealthChecker is a minimal interface for PostgreSQL health checks
type postgresHealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	app         domain.AppService
	db          *pgxpool.Pool
	redisClient *goredis.Client

	// Overridable in tests
	postgresHealthCheck postgresHealthChecker
	redisHealthCheck    redisHealthChecker
}

func NewServer(cfg *config.Config, app domain.AppService, db *pgxpool.Pool, redisClient *goredis.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:        e,
		config:      cfg,
		app:         app,
		db:          db,
		redisClient: redisClient,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
