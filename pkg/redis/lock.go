package redis

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
)

var (
	ErrLockNotAcquired = errors.New("lock not acquired")
	ErrLockNotHeld     = errors.New("lock not held")
)

// leaseStore is the pair of atomic operations a lease needs.
type leaseStore interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

type retryPolicy struct {
	initial time.Duration
	max     time.Duration
}

// delay returns a jittered wait in [d/2, d] where d doubles per attempt up to max.
func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.max
	if attempt < 16 {
		if grown := p.initial << attempt; grown > 0 && grown < p.max {
			d = grown
		}
	}
	half := d / 2
	return half + rand.N(half+1)
}

// Locker serialises work on a key across processes with expiring Redis leases.
type Locker struct {
	store  leaseStore
	logger ectologger.Logger
	prefix string
	wait   time.Duration
	retry  retryPolicy
}

// NewLocker creates a Locker. wait bounds how long WithLock keeps retrying a
// key another process holds; zero means a single attempt.
func NewLocker(client *Client, prefix string, wait time.Duration) *Locker {
	return newLocker(client, client.logger, prefix, wait)
}

func newLocker(store leaseStore, logger ectologger.Logger, prefix string, wait time.Duration) *Locker {
	if prefix == "" {
		prefix = "lock:"
	}
	return &Locker{
		store:  store,
		logger: logger,
		prefix: prefix,
		wait:   wait,
		retry:  retryPolicy{initial: 10 * time.Millisecond, max: 500 * time.Millisecond},
	}
}

// Lease is a held lock. It expires on its own after the ttl it was taken with.
type Lease struct {
	store leaseStore
	key   string
	token string
}

func (l *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	lease := &Lease{store: l.store, key: l.prefix + key, token: uuid.NewString()}
	deadline := time.Now().Add(l.wait)

	for attempt := 0; ; attempt++ {
		ok, err := l.store.SetNX(ctx, lease.key, lease.token, ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			l.logger.WithContext(ctx).WithField("lock", lease.key).Debug("Lock obtained")
			return lease, nil
		}

		wait := l.retry.delay(attempt)
		if time.Now().Add(wait).After(deadline) {
			return nil, ErrLockNotAcquired
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Release removes the lease if it still belongs to this holder.
func (lease *Lease) Release(ctx context.Context) error {
	deleted, err := lease.store.CompareAndDelete(ctx, lease.key, lease.token)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrLockNotHeld
	}
	return nil
}

// WithLock runs fn while holding key. A failed release is logged; the lease
// expires with its ttl anyway.
func (l *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	lease, err := l.Obtain(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			l.logger.WithContext(ctx).WithError(err).WithField("lock", lease.key).Warn("Failed to release lock")
		}
	}()

	return fn()
}
