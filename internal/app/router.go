package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yniverz/erp-rent/internal/catalog"
	"github.com/yniverz/erp-rent/internal/inquiries"
	"github.com/yniverz/erp-rent/internal/observability"
	"github.com/yniverz/erp-rent/internal/platform/httpx"
	"github.com/yniverz/erp-rent/internal/quotes"
	"github.com/yniverz/erp-rent/internal/settings"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Pool            *pgxpool.Pool
	CatalogHandler  *catalog.Handler
	QuoteHandler    *quotes.Handler
	SettingsHandler *settings.Handler
	InquiryHandler  *inquiries.Handler
	PublicCatalog   *catalog.Service
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router. The admin API lives under /api, the
// storefront surface under /public with its own rate limit.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		params.CatalogHandler.MountRoutes(r)
		params.QuoteHandler.MountRoutes(r)
		params.SettingsHandler.MountRoutes(r)
		params.InquiryHandler.MountRoutes(r)
	})

	r.Route("/public", func(r chi.Router) {
		limit := 30
		if params.Config != nil && params.Config.PublicRateLimit > 0 {
			limit = params.Config.PublicRateLimit
		}
		r.Use(httprate.Limit(limit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))

		r.Get("/items", func(w http.ResponseWriter, req *http.Request) {
			items, err := params.PublicCatalog.ListPublic(req.Context())
			if err != nil {
				params.Logger.Error("public item listing", slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
		})
		params.InquiryHandler.MountPublicRoutes(r)
	})

	return r
}
