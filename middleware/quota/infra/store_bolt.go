package infra

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const usageBucket = "usage_records"

// BoltRecordStore é o storage local e durável: um arquivo bbolt com um bucket
// chave -> JSON do registro. Equivale ao localStorage de um único host.
type BoltRecordStore struct {
	db *bbolt.DB
}

// OpenBoltRecordStore abre (ou cria) o arquivo e garante o bucket.
func OpenBoltRecordStore(path string) (*BoltRecordStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(usageBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", usageBucket, err)
	}
	return &BoltRecordStore{db: db}, nil
}

func (s *BoltRecordStore) Close() error {
	return s.db.Close()
}

func (s *BoltRecordStore) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(usageBucket))
		if b == nil {
			return nil
		}
		// o slice só é válido dentro da transação
		if v := b.Get([]byte(key)); v != nil {
			value = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("bolt get %s: %w", key, err)
	}
	return value, found, nil
}

func (s *BoltRecordStore) Set(_ context.Context, key, value string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(usageBucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("bolt put %s: %w", key, err)
	}
	return nil
}
