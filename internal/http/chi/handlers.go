package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-relay/metrics"
	"github.com/marcelsud/webhook-relay/site"
	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/rs/zerolog"
)

const (
	defaultMaxBodyBytes   int64 = 1 << 20
	defaultRequestTimeout       = 30 * time.Second
)

// Deps are the collaborators the router needs
type Deps struct {
	Service     webhook.UseCase
	Logger      zerolog.Logger
	VerifyToken string
	Page        site.Page

	// MaxBodyBytes caps inbound webhook bodies. Zero means 1 MiB.
	MaxBodyBytes int64

	// RequestTimeout bounds every request. Zero means 30s.
	RequestTimeout time.Duration

	// Collector enables GET /v1/stats when set
	Collector metrics.Collector

	// Metrics is served at GET /metrics when set
	Metrics http.Handler
}

// Handlers sets up the relay's HTTP routes
func Handlers(ctx context.Context, deps Deps) *chi.Mux {
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = defaultMaxBodyBytes
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(deps.RequestTimeout))

	// Meta webhook endpoints
	r.Get("/", verifyWebhook(deps.VerifyToken).ServeHTTP)
	r.Post("/", postWebhook(deps.Service, deps.MaxBodyBytes).ServeHTTP)
	r.Post("/data-deletion", postDataDeletion().ServeHTTP)

	r.Get("/about", getAbout(deps.Page).ServeHTTP)
	r.Get("/health", getHealth().ServeHTTP)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	if deps.Collector != nil {
		r.Route("/v1", func(r chi.Router) {
			r.Get("/stats", getStats(deps.Collector).ServeHTTP)
		})
	}

	return r
}
