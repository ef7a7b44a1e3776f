package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

// Lock is a process-local DistributedLock with TTL expiry.
type Lock struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
}

// NewLock creates an empty Lock.
func NewLock() *Lock {
	return &Lock{locks: make(map[string]time.Time), now: time.Now}
}

func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if expires, held := l.locks[name]; held && now.Before(expires) {
		return false, nil
	}
	l.locks[name] = now.Add(ttl)
	return true, nil
}

func (l *Lock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, name)
	return nil
}

func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if expires, held := l.locks[name]; !held || !now.Before(expires) {
		return fmt.Errorf("lock %s not held", name)
	}
	l.locks[name] = now.Add(ttl)
	return nil
}

func (l *Lock) Ping(ctx context.Context) error {
	return nil
}
