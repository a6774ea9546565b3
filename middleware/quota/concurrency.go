package quota

import (
	"net/http"
	"time"

	"pdfcraft-gateway/middleware/quota/application"
	"pdfcraft-gateway/middleware/quota/infra"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	// RetryAfter vai no header da recusa; 0 usa 1s.
	RetryAfter time.Duration
}

// BusyMessage é a mensagem devolvida quando todas as vagas de documento estão ocupadas.
const BusyMessage = "too many documents in progress, try again shortly"

type busyResponse struct {
	Error    string `json:"error"`
	InFlight int    `json:"inFlight,omitempty"`
	Max      int    `json:"max,omitempty"`
}

// ConcurrencyMiddleware limita quantas operações de documento rodam juntas.
// A recusa não chega ao gate de cota, então não consome uso diário.
// Max <= 0 desliga o limite.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = time.Second
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				resp := busyResponse{Error: BusyMessage}
				if busy, ok := svc.Occupancy(); ok {
					resp.InFlight, resp.Max = busy.InFlight, busy.Capacity
				}
				w.Header().Set("Retry-After", formatInt(int(opts.RetryAfter.Seconds())))
				writeJSON(w, opts.RejectStatus, resp)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
