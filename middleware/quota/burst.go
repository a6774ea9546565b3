package quota

import (
	"net/http"
	"time"

	"pdfcraft-gateway/middleware/quota/application"
	"pdfcraft-gateway/middleware/quota/domain"
)

type BurstOptions struct {
	Store               domain.LimiterStore
	KeyFn               KeyFunc
	RejectStatus        int
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// BurstMiddleware aplica o limite de rajada por chamador (token bucket).
func BurstMiddleware(opts BurstOptions) func(next http.Handler) http.Handler {
	if opts.Store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(DefaultKeyHeader, false)
	}

	svc := application.BurstService{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			if opts.AddRateLimitHeaders {
				if ri, ok := opts.Store.(rateInfo); ok {
					w.Header().Set("X-RateLimit-RPS", formatFloat(ri.RPS()))
					w.Header().Set("X-RateLimit-Burst", formatInt(ri.Burst()))
				}
			}

			dec := svc.Decide(domain.Key(key))
			if !dec.Allowed {
				w.Header().Set("Retry-After", formatInt(int(dec.RetryAfter.Seconds())))
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
