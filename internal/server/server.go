// Package server assembles the HTTP API over the budget stores and the
// external feed.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"foyer/internal/auth"
	"foyer/internal/budget"
	"foyer/internal/service"
)

// Options carries the server's dependencies. A nil Users directory
// runs the API in single-user mode: no auth routes, every request
// operates on the local user's store.
type Options struct {
	Manager *budget.Manager
	Service *service.BudgetService
	Users   UserDirectory
	Tokens  *auth.TokenManager
	Logger  *slog.Logger

	SnapshotBackend string
	FeedBackend     string

	AuthRatePerMinute int
	AuthRateBurst     int
}

// LocalUserID is the store key used when the API runs without
// registration.
const LocalUserID = "local"

func New(opts Options) *echo.Echo {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	h := &Handler{
		manager:         opts.Manager,
		svc:             opts.Service,
		snapshotBackend: opts.SnapshotBackend,
		feedBackend:     opts.FeedBackend,
	}

	var authHandler *AuthHandler
	var userMiddleware echo.MiddlewareFunc
	if opts.Users != nil {
		authHandler = NewAuthHandler(opts.Users, opts.Tokens)
		userMiddleware = auth.JWTMiddleware(opts.Tokens)
	} else {
		userMiddleware = localUserMiddleware()
	}

	registerRoutes(e, h, authHandler, userMiddleware, authRateLimiter(opts))

	return e
}

// NewHTTPServer wraps the handler in a net/http server with timeouts.
func NewHTTPServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func localUserMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(auth.ContextUserIDKey, LocalUserID)
			return next(c)
		}
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(c.Request().Context(), level, "request completed", attrs...)
			return nil
		},
	})
}

func authRateLimiter(opts Options) echo.MiddlewareFunc {
	perMinute := opts.AuthRatePerMinute
	if perMinute < 1 {
		perMinute = 10
	}
	burst := opts.AuthRateBurst
	if burst < 1 {
		burst = 5
	}

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60.0),
		Burst:     burst,
		ExpiresIn: time.Minute,
	})
	return middleware.RateLimiter(store)
}
