// Package api exposes the bot over HTTP so an external chat adapter can
// forward messages and manage stored sessions.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"net/netip"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/jmcleod/vrchatbot/bot"
	"github.com/jmcleod/vrchatbot/internal/metrics"
	"github.com/jmcleod/vrchatbot/session"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// API holds the dependencies needed by the REST handlers.
type API struct {
	bot      *bot.Bot
	sessions *session.Manager
	logger   *slog.Logger
	metrics  *metrics.Collector
	token    string
	validate *validator.Validate

	authLimiter    *authLimiter
	trustedProxies []netip.Prefix
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) { a.logger = logger }
}

// WithMetrics counts gateway requests by route and status.
func WithMetrics(c *metrics.Collector) Option {
	return func(a *API) { a.metrics = c }
}

// WithToken requires "Authorization: Bearer <token>" on every route except
// health and docs. An empty token disables the check.
func WithToken(token string) Option {
	return func(a *API) { a.token = token }
}

// WithTrustedProxies lets peers inside these prefixes set the client IP
// through X-Forwarded-For or X-Real-IP.
func WithTrustedProxies(prefixes []netip.Prefix) Option {
	return func(a *API) { a.trustedProxies = prefixes }
}

// New creates a new API instance.
func New(b *bot.Bot, sessions *session.Manager, opts ...Option) *API {
	a := &API{
		bot:         b,
		sessions:    sessions,
		validate:    newValidator(),
		authLimiter: newAuthLimiter(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With("component", "api")
	return a
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Router returns a chi.Router with all API routes mounted. Docs expect it
// to be mounted at /api/v1.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID, SecurityHeaders, a.observe)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Get("/health", a.Health)

	r.Group(func(r chi.Router) {
		r.Use(a.AuthMiddleware)
		r.Post("/messages", a.PostMessage)
		r.Get("/sessions", a.ListSessions)
		r.Delete("/sessions/{sessionID}", a.DeleteSession)
	})

	return r
}
