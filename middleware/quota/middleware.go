package quota

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"pdfcraft-gateway/middleware/quota/application"
	"pdfcraft-gateway/middleware/quota/domain"
	"pdfcraft-gateway/middleware/quota/infra"

	"github.com/rs/zerolog"
)

// DefaultKeyPrefix é o prefixo da chave de storage (<prefix>:<chamador>).
const DefaultKeyPrefix = "pdfcraft_usage"

// LimitReachedMessage é a mensagem devolvida quando a cota diária acaba.
const LimitReachedMessage = "daily limit reached, upgrade for unlimited use"

// UpgradeTokenHeader carrega o segredo exigido por POST de upgrade.
const UpgradeTokenHeader = "X-Upgrade-Token"

type Options struct {
	Records    domain.RecordStore
	Stats      domain.StatsStore
	Clock      domain.Clock
	DailyLimit int
	KeyPrefix  string

	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool

	RejectStatus    int
	AddQuotaHeaders bool

	// UpgradeToken vazio desliga o endpoint de upgrade.
	UpgradeToken string

	Logger *zerolog.Logger
}

// Quota amarra o Tracker ao HTTP. Um valor é compartilhado por todas as rotas
// para que o KeyLock serialize o read-modify-write de cada chamador.
type Quota struct {
	opts  Options
	locks *infra.KeyLock
	log   zerolog.Logger
}

type usageResponse struct {
	Key           string `json:"key"`
	Count         int    `json:"count"`
	Date          string `json:"date"`
	IsPremium     bool   `json:"isPremium"`
	Limit         int    `json:"limit"`
	Remaining     int    `json:"remaining"`
	CanUseFeature bool   `json:"canUseFeature"`
}

type limitResponse struct {
	Error     string `json:"error"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

type ctxKey struct{}

// RecordFromContext devolve o registro já incrementado pelo gate.
func RecordFromContext(ctx context.Context) (domain.UsageRecord, bool) {
	rec, ok := ctx.Value(ctxKey{}).(domain.UsageRecord)
	return rec, ok
}

func New(opts Options) *Quota {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.DailyLimit <= 0 {
		opts.DailyLimit = domain.DefaultDailyLimit
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.KeyFn == nil {
		header := opts.KeyHeader
		if header == "" {
			header = DefaultKeyHeader
		}
		opts.KeyFn = DefaultKeyFunc(header, opts.TrustXForwardedFor)
	}
	if opts.Records == nil {
		opts.Records = infra.NewMemoryRecordStore()
	}
	if opts.Clock == nil {
		opts.Clock = infra.SystemClock{}
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "quota").Logger()
	}

	return &Quota{opts: opts, locks: infra.NewKeyLock(), log: logger}
}

func (q *Quota) KeyFunc() KeyFunc { return q.opts.KeyFn }

func (q *Quota) tracker(callerKey string) application.Tracker {
	return application.Tracker{
		Store:      q.opts.Records,
		Key:        q.opts.KeyPrefix + ":" + callerKey,
		DailyLimit: q.opts.DailyLimit,
		Clock:      q.opts.Clock,
		Logger:     &q.log,
	}
}

func (q *Quota) setHeaders(w http.ResponseWriter, tr application.Tracker, rec domain.UsageRecord) {
	if !q.opts.AddQuotaHeaders {
		return
	}
	w.Header().Set("X-Quota-Limit", formatInt(q.opts.DailyLimit))
	w.Header().Set("X-Quota-Remaining", formatRemaining(tr.RemainingUses(rec)))
}

// Middleware consome uma unidade da cota por tentativa de `operation`.
func (q *Quota) Middleware(operation string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := q.opts.KeyFn(r)
			tr := q.tracker(key)

			unlock := q.locks.Lock(tr.Key)
			rec := tr.Initialize(r.Context())
			rec, allowed := tr.IncrementUsage(r.Context(), rec)
			unlock()

			if q.opts.Stats != nil {
				if err := q.opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:       domain.Key(key),
					Allowed:   allowed,
					Premium:   rec.IsPremium,
					Operation: operation,
					At:        q.opts.Clock.Now(),
				}); err != nil {
					q.log.Debug().Err(err).Str("operation", operation).Msg("stats record failed")
				}
			}

			q.setHeaders(w, tr, rec)

			if !allowed {
				q.log.Info().
					Str("key", key).
					Str("operation", operation).
					Int("count", rec.Count).
					Msg("daily limit reached")
				writeJSON(w, q.opts.RejectStatus, limitResponse{
					Error:     LimitReachedMessage,
					Limit:     q.opts.DailyLimit,
					Remaining: 0,
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, rec)))
		})
	}
}

// UsageHandler responde o estado atual da cota do chamador, sem consumir.
func (q *Quota) UsageHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := q.opts.KeyFn(r)
		tr := q.tracker(key)

		unlock := q.locks.Lock(tr.Key)
		rec := tr.Initialize(r.Context())
		unlock()

		q.setHeaders(w, tr, rec)
		writeJSON(w, http.StatusOK, q.usageResponse(key, tr, rec))
	})
}

// UpgradeHandler marca o chamador como premium. Exige UpgradeTokenHeader.
func (q *Quota) UpgradeHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q.opts.UpgradeToken == "" {
			http.NotFound(w, r)
			return
		}
		got := strings.TrimSpace(r.Header.Get(UpgradeTokenHeader))
		if subtle.ConstantTimeCompare([]byte(got), []byte(q.opts.UpgradeToken)) != 1 {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		key := q.opts.KeyFn(r)
		tr := q.tracker(key)

		unlock := q.locks.Lock(tr.Key)
		rec := tr.Initialize(r.Context())
		rec = tr.UpgradeToPremium(r.Context(), rec)
		unlock()

		q.log.Info().Str("key", key).Msg("caller upgraded to premium")

		q.setHeaders(w, tr, rec)
		writeJSON(w, http.StatusOK, q.usageResponse(key, tr, rec))
	})
}

func (q *Quota) usageResponse(key string, tr application.Tracker, rec domain.UsageRecord) usageResponse {
	return usageResponse{
		Key:           key,
		Count:         rec.Count,
		Date:          rec.Date,
		IsPremium:     rec.IsPremium,
		Limit:         q.opts.DailyLimit,
		Remaining:     tr.RemainingUses(rec),
		CanUseFeature: tr.CanUseFeature(rec),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
