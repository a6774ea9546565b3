package domain

import "context"

// RecordStore é a porta de persistência do tracker: um slot string por chave.
//
// Get retorna ok=false quando a chave não existe. Implementações podem ser memória,
// Redis, Valkey, arquivo local, etc. Não há versionamento de schema.
type RecordStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
