package domain

import "time"

// Limiter decide se uma ação é permitida agora (limite de rajada, não a cota diária).
//
// A implementação pode ser token-bucket, leaky-bucket, etc.
// A camada de infra usa golang.org/x/time/rate.
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter por chave (ex: IP, usuário).
type LimiterStore interface {
	Get(Key) Limiter
}

type Decision struct {
	Allowed bool
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
