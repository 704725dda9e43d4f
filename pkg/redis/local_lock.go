package redis

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is the in-process Locker used when Redis is disabled. Scopes
// expire after their ttl like a Redis SET NX EX key.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]time.Time{}, now: time.Now}
}

func (l *LocalLocker) TryLock(_ context.Context, scope string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if until, ok := l.held[scope]; ok && now.Before(until) {
		return false, nil
	}
	l.held[scope] = now.Add(ttl)
	return true, nil
}

func (l *LocalLocker) Unlock(_ context.Context, scope string) error {
	l.mu.Lock()
	delete(l.held, scope)
	l.mu.Unlock()
	return nil
}
