package infra

import "sync"

// KeyLock serializa seções críticas por chave dentro de um processo.
//
// Não protege contra outros processos usando o mesmo storage.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*keyLockEntry)}
}

// Lock bloqueia a chave e retorna o unlock correspondente.
func (l *KeyLock) Lock(key string) (unlock func()) {
	l.mu.Lock()
	ent, ok := l.locks[key]
	if !ok {
		ent = &keyLockEntry{}
		l.locks[key] = ent
	}
	ent.refs++
	l.mu.Unlock()

	ent.mu.Lock()
	return func() {
		ent.mu.Unlock()

		l.mu.Lock()
		ent.refs--
		if ent.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *KeyLock) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
