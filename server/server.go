// Package server monta o roteador HTTP do gateway: rotas de documento protegidas por
// rajada, concorrência e cota, mais usage/upgrade, /healthz e /metrics.
package server

import (
	"net/http"
	"time"

	"pdfcraft-gateway/document"
	"pdfcraft-gateway/middleware/quota"
	"pdfcraft-gateway/middleware/quota/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const defaultMaxUpload = 64 << 20

type Options struct {
	Quota     *quota.Quota
	Documents *document.Processor

	Burst           domain.LimiterStore
	BurstRetryAfter time.Duration
	Concurrency     quota.ConcurrencyOptions

	MaxUploadBytes int64
	// Metrics nil não expõe /metrics.
	Metrics http.Handler

	Logger zerolog.Logger
}

// NewRouter devolve o handler completo do gateway.
func NewRouter(opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	log := opts.Logger.With().Str("component", "http").Logger()

	h := &documentHandlers{
		docs:      opts.Documents,
		maxUpload: opts.MaxUploadBytes,
		log:       log,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(accessLog(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Method(http.MethodGet, "/usage", opts.Quota.UsageHandler())
		r.Method(http.MethodPost, "/upgrade", opts.Quota.UpgradeHandler())

		r.Group(func(r chi.Router) {
			r.Use(quota.BurstMiddleware(quota.BurstOptions{
				Store:               opts.Burst,
				KeyFn:               opts.Quota.KeyFunc(),
				RetryAfter:          opts.BurstRetryAfter,
				AddRateLimitHeaders: true,
			}))
			r.Use(quota.ConcurrencyMiddleware(opts.Concurrency))

			gated := func(operation string, fn http.HandlerFunc) http.Handler {
				return opts.Quota.Middleware(operation)(fn)
			}
			r.Method(http.MethodPost, "/merge", gated("merge", h.merge))
			r.Method(http.MethodPost, "/split", gated("split", h.split))
			r.Method(http.MethodPost, "/compress", gated("compress", h.compress))
			r.Method(http.MethodPost, "/page-count", gated("page-count", h.pageCount))
			r.Method(http.MethodPost, "/images-to-pdf", gated("images-to-pdf", h.imagesToPDF))
		})
	})

	return r
}

func accessLog(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
