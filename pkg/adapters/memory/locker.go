package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patchbay-io/patchbay/pkg/ports"
)

// Locker implements ports.DistributedLocker for a single process. It
// exists so code written against the locker port runs unchanged in
// single-binary deployments; there is nothing distributed about it.
type Locker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocker creates a new in-process locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]chan struct{})}
}

// Lock acquires the lock for key, waiting for the current holder if there
// is one. The TTL is ignored: an in-process lock dies with the process,
// which is exactly the scope it protects.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	for {
		l.mu.Lock()
		ch, held := l.locks[key]
		if !held {
			release := make(chan struct{})
			l.locks[key] = release
			l.mu.Unlock()

			var once sync.Once
			return func(ctx context.Context) error {
				once.Do(func() {
					l.mu.Lock()
					delete(l.locks, key)
					l.mu.Unlock()
					close(release)
				})
				return nil
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ch:
			// Holder released; race for it again.
		}
	}
}
