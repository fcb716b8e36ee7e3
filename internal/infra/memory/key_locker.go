package memory

import (
	"context"
	"fmt"
	"sync"

	"interview-scoring-service/internal/domain"
)

// KeyLocker is a per-key mutex for a single process. Entries are reference
// counted and dropped once no goroutine holds or waits for the key.
type KeyLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

func NewKeyLocker() *KeyLocker {
	return &KeyLocker{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free or ctx is done.
func (l *KeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &keyLock{sem: make(chan struct{}, 1)}
		l.locks[key] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, lock)
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrLockNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.sem
			l.release(key, lock)
		})
	}, nil
}

func (l *KeyLocker) release(key string, lock *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *KeyLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
