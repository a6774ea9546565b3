package domain

import "time"

// DefaultDailyLimit é a cota diária aplicada quando nenhuma é configurada.
const DefaultDailyLimit = 50

// Unlimited é o valor de RemainingUses para registros premium.
const Unlimited = -1

// DateLayout é o formato do campo Date (dia de calendário, sem hora).
const DateLayout = "2006-01-02"

type Key string

// UsageRecord é o estado persistido da cota de um chamador.
//
// Count só tem significado relativo a Date: um registro com Date diferente de hoje
// está vencido e deve ser tratado como Count=0 antes de qualquer leitura ou escrita.
// IsPremium nunca volta para false.
type UsageRecord struct {
	Count     int    `json:"count"`
	Date      string `json:"date"`
	IsPremium bool   `json:"isPremium"`
}

// NewRecord retorna o registro zerado para o dia de `now`.
func NewRecord(now time.Time) UsageRecord {
	return UsageRecord{Count: 0, Date: Today(now), IsPremium: false}
}

// Today formata o dia de calendário de `now` no fuso do próprio `now`.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// Clock é a fonte de "agora" do tracker. Testes injetam um relógio fixo.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
