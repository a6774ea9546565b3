package application

import (
	"time"

	"pdfcraft-gateway/middleware/quota/domain"
)

// BurstService decide o limite de rajada por chamador, antes da cota diária.
//
// Uma request barrada aqui não consome cota: a rajada é checada primeiro.
type BurstService struct {
	Store      domain.LimiterStore
	RetryAfter time.Duration
}

func (s BurstService) Decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}

	lim := s.Store.Get(key)
	if lim == nil || lim.Allow() {
		return domain.Decision{Allowed: true}
	}
	return domain.Decision{Allowed: false, RetryAfter: s.RetryAfter}
}
