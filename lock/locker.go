// Package lock implements a reentrant distributed lock on top of a store
// offering atomic create-if-absent with a lease and atomic compare-and-delete.
//
// Ownership is tracked per caller identity, which travels in the context (see
// contracts.WithOwner). RunExclusive attaches one automatically:
//
//	locker, _ := lock.NewLocker(s, lock.DefaultConfig())
//	err := locker.RunExclusive(ctx, "job:42", 2*time.Second, func(ctx context.Context) error {
//	    // nested locker.RunExclusive(ctx, "job:42", ...) re-enters
//	    return nil
//	})
//
// Leases are not renewed. Work that outlives Config.Lease is no longer exclusive.
package lock

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/soroosh-tanzadeh/distlock/backoff"
	"github.com/soroosh-tanzadeh/distlock/contracts"
	"github.com/soroosh-tanzadeh/distlock/internal/ownership"
	"github.com/soroosh-tanzadeh/distlock/store"
)

type Option func(*Locker)

func WithClock(clock clockwork.Clock) Option {
	return func(l *Locker) {
		l.clock = clock
	}
}

// WithBackoff overrides the strategy selected by Config.Backoff.
func WithBackoff(strategy backoff.Strategy) Option {
	return func(l *Locker) {
		l.strategy = strategy
	}
}

// Locker is the script backed implementation of contracts.DistributedLock.
type Locker struct {
	cfg       Config
	clock     clockwork.Clock
	strategy  backoff.Strategy
	internals *Internals
	registry  *ownership.Registry[string]
}

var _ contracts.DistributedLock = (*Locker)(nil)

func NewLocker(s store.Store, cfg Config, options ...Option) (*Locker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	l := &Locker{
		cfg:      cfg,
		clock:    clockwork.NewRealClock(),
		registry: ownership.NewRegistry[string](),
	}
	for _, option := range options {
		option(l)
	}
	if l.strategy == nil {
		strategy, err := cfg.Strategy()
		if err != nil {
			return nil, err
		}
		l.strategy = strategy
	}

	l.internals = NewInternals(s, cfg.Lease, cfg.TokenLength, l.strategy, l.clock)
	return l, nil
}

func (l *Locker) Config() Config {
	return l.cfg
}

// NewReentrantLock returns the lock for resource. Locks for the same resource
// share ownership state, so a new value per call is fine.
func (l *Locker) NewReentrantLock(resource string) *ReentrantLock {
	return &ReentrantLock{
		key:       l.cfg.Key(resource),
		internals: l.internals,
		registry:  l.registry,
	}
}

func (l *Locker) Lock(ctx context.Context, resource string, maxWait time.Duration) (bool, error) {
	return l.NewReentrantLock(resource).TryLock(ctx, maxWait)
}

func (l *Locker) Unlock(ctx context.Context, resource string) error {
	return l.NewReentrantLock(resource).Unlock(ctx)
}

func (l *Locker) RunExclusive(ctx context.Context, resource string, maxWait time.Duration, body contracts.Body) error {
	return RunExclusive(ctx, l, resource, maxWait, body)
}
