package application

import (
	"context"
	"errors"
	"time"

	"pdfcraft-gateway/middleware/quota/domain"

	"github.com/rs/zerolog"
)

// Tracker responde "o chamador pode fazer mais uma operação hoje?" e registra o consumo.
//
// O registro é um valor passado para dentro e para fora dos métodos; o Tracker só
// guarda a configuração. Toda mutação é gravada no Store (write-through).
//
// Não há atomicidade entre processos: dois chamadores no mesmo Key podem ler N e
// gravar N+1. Quem precisa serializar faz isso por fora (ver infra.KeyLock).
type Tracker struct {
	Store      domain.RecordStore
	Key        string
	DailyLimit int
	Clock      domain.Clock
	Logger     *zerolog.Logger
}

func (t Tracker) limit() int {
	if t.DailyLimit <= 0 {
		return domain.DefaultDailyLimit
	}
	return t.DailyLimit
}

func (t Tracker) now() time.Time {
	if t.Clock == nil {
		return time.Now()
	}
	return t.Clock.Now()
}

func (t Tracker) log() *zerolog.Logger {
	if t.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return t.Logger
}

// Initialize carrega o registro persistido e normaliza o dia.
//
// Sem registro (ou com valor ilegível) retorna o registro zerado de hoje, sem gravar.
// Com Date diferente de hoje (passado ou futuro) zera Count, mantém IsPremium e grava.
func (t Tracker) Initialize(ctx context.Context) domain.UsageRecord {
	now := t.now()
	today := domain.Today(now)

	if t.Store == nil {
		return domain.NewRecord(now)
	}

	raw, ok, err := t.Store.Get(ctx, t.Key)
	if err != nil {
		t.log().Warn().Err(err).Str("key", t.Key).Msg("usage record read failed, using zero record")
		return domain.NewRecord(now)
	}
	if !ok {
		return domain.NewRecord(now)
	}

	rec, err := domain.DecodeRecord(raw)
	if err != nil {
		t.log().Warn().Err(err).Str("key", t.Key).Msg("usage record unreadable, using zero record")
		return domain.NewRecord(now)
	}

	if rec.Date != today {
		t.log().Debug().
			Str("key", t.Key).
			Str("stored_date", rec.Date).
			Str("today", today).
			Int("stored_count", rec.Count).
			Msg("usage record rolled over")
		rec.Count = 0
		rec.Date = today
		t.persist(ctx, rec)
	}
	return rec
}

// CanUseFeature é puro: premium ou abaixo da cota.
func (t Tracker) CanUseFeature(rec domain.UsageRecord) bool {
	return rec.IsPremium || rec.Count < t.limit()
}

// RemainingUses retorna domain.Unlimited para premium.
func (t Tracker) RemainingUses(rec domain.UsageRecord) int {
	if rec.IsPremium {
		return domain.Unlimited
	}
	left := t.limit() - rec.Count
	if left < 0 {
		return 0
	}
	return left
}

// IncrementUsage é o gate: deve ser chamado exatamente uma vez por tentativa de
// operação, antes de executá-la, e o chamador só segue se allowed=true.
//
// Premium não é contado. Na cota cheia o registro volta inalterado e nada é gravado.
func (t Tracker) IncrementUsage(ctx context.Context, rec domain.UsageRecord) (domain.UsageRecord, bool) {
	if rec.IsPremium {
		return rec, true
	}
	if rec.Count >= t.limit() {
		return rec, false
	}

	rec.Count++
	t.persist(ctx, rec)
	return rec, true
}

// UpgradeToPremium é idempotente no valor, mas sempre grava.
func (t Tracker) UpgradeToPremium(ctx context.Context, rec domain.UsageRecord) domain.UsageRecord {
	rec.IsPremium = true
	t.persist(ctx, rec)
	return rec
}

// persist é log-and-continue: falha de escrita não muda o resultado da operação.
func (t Tracker) persist(ctx context.Context, rec domain.UsageRecord) {
	if t.Store == nil {
		return
	}
	raw, err := domain.EncodeRecord(rec)
	if err == nil {
		err = t.Store.Set(ctx, t.Key, raw)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			t.log().Debug().Err(err).Str("key", t.Key).Msg("usage record write canceled")
			return
		}
		t.log().Warn().Err(err).Str("key", t.Key).Int("count", rec.Count).Bool("premium", rec.IsPremium).Msg("usage record write failed")
	}
}
