package domain

import (
	"encoding/json"
	"errors"
)

var ErrMalformedRecord = errors.New("malformed usage record")

// wireRecord usa ponteiros para distinguir campo ausente de valor zero.
type wireRecord struct {
	Count     *int    `json:"count"`
	Date      *string `json:"date"`
	IsPremium *bool   `json:"isPremium"`
}

// EncodeRecord serializa o registro no formato {count, date, isPremium}.
func EncodeRecord(rec UsageRecord) (string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeRecord faz o parse de um valor persistido.
// count e date são obrigatórios; isPremium ausente vale false.
func DecodeRecord(s string) (UsageRecord, error) {
	var w wireRecord
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return UsageRecord{}, errors.Join(ErrMalformedRecord, err)
	}
	if w.Count == nil || w.Date == nil || *w.Count < 0 || *w.Date == "" {
		return UsageRecord{}, ErrMalformedRecord
	}
	rec := UsageRecord{Count: *w.Count, Date: *w.Date}
	if w.IsPremium != nil {
		rec.IsPremium = *w.IsPremium
	}
	return rec, nil
}
