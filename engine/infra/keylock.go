package infra

import (
	"context"
	"slices"
	"sync"

	"contest-gateway/engine/domain"
)

// KeyLocker é um semáforo de capacidade 1 por chave, criado sob demanda.
//
// Entradas sem ninguém segurando ou esperando são removidas na hora, então o
// mapa não cresce com o número de dias/usuários vistos.
type KeyLocker struct {
	mu      sync.Mutex
	entries map[domain.Key]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

func NewKeyLocker() *KeyLocker {
	return &KeyLocker{entries: make(map[domain.Key]*lockEntry)}
}

// Acquire implementa domain.KeyLocker.
//
// As chaves são adquiridas em ordem lexicográfica (prêmio antes de usuário),
// o que evita deadlock entre avaliações que compartilham chaves.
func (l *KeyLocker) Acquire(ctx context.Context, keys ...domain.Key) (func(), bool) {
	if err := ctx.Err(); err != nil {
		return nil, false
	}

	ordered := slices.Clone(keys)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	held := make([]domain.Key, 0, len(ordered))
	for _, key := range ordered {
		ent := l.ref(key)
		select {
		case ent.sem <- struct{}{}:
			held = append(held, key)
		case <-ctx.Done():
			l.unref(key)
			l.releaseAll(held)
			return nil, false
		}
	}

	var once sync.Once
	return func() { once.Do(func() { l.releaseAll(held) }) }, true
}

// Len devolve quantas chaves estão vivas (presas ou com espera).
func (l *KeyLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *KeyLocker) releaseAll(held []domain.Key) {
	for i := len(held) - 1; i >= 0; i-- {
		l.mu.Lock()
		ent := l.entries[held[i]]
		l.mu.Unlock()

		<-ent.sem
		l.unref(held[i])
	}
}

func (l *KeyLocker) ref(key domain.Key) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	ent, ok := l.entries[key]
	if !ok {
		ent = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = ent
	}
	ent.refs++
	return ent
}

func (l *KeyLocker) unref(key domain.Key) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ent, ok := l.entries[key]
	if !ok {
		return
	}
	ent.refs--
	if ent.refs <= 0 {
		delete(l.entries, key)
	}
}
