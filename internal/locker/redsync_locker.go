// Package locker is the redsync backed implementation of
// contracts.DistributedLock. Unlike the script backend it keeps held leases
// alive by extending them in the background.
package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/soroosh-tanzadeh/distlock/backoff"
	"github.com/soroosh-tanzadeh/distlock/contracts"
	"github.com/soroosh-tanzadeh/distlock/internal/ownership"
	"github.com/soroosh-tanzadeh/distlock/lock"
)

const maxTries = 100000

type heldMutex struct {
	mutex   *redsync.Mutex
	renewer *renewer
}

type RedsyncLocker struct {
	cfg      lock.Config
	strategy backoff.Strategy
	rs       *redsync.Redsync
	registry *ownership.Registry[*heldMutex]
}

var _ contracts.DistributedLock = (*RedsyncLocker)(nil)

func NewRedsyncLocker(client redis.UniversalClient, cfg lock.Config) (*RedsyncLocker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()
	strategy, err := cfg.Strategy()
	if err != nil {
		return nil, err
	}

	pool := goredis.NewPool(client)
	return &RedsyncLocker{
		cfg:      cfg,
		strategy: strategy,
		rs:       redsync.New(pool),
		registry: ownership.NewRegistry[*heldMutex](),
	}, nil
}

// triesWithin returns how many attempts fit in maxWait with the configured delays.
func (r *RedsyncLocker) triesWithin(maxWait time.Duration) int {
	tries := 1
	var waited time.Duration
	for waited < maxWait && tries < maxTries {
		delay := r.strategy.Next(tries)
		if delay <= 0 {
			delay = time.Millisecond
		}
		waited += delay
		tries++
	}
	return tries
}

func (r *RedsyncLocker) newMutex(key string, maxWait, lease time.Duration) *redsync.Mutex {
	return r.rs.NewMutex(key,
		redsync.WithExpiry(lease),
		redsync.WithTries(r.triesWithin(maxWait)),
		redsync.WithRetryDelayFunc(func(tries int) time.Duration {
			return r.strategy.Next(tries)
		}),
		redsync.WithGenValueFunc(func() (string, error) {
			return lock.NewToken(key, r.cfg.TokenLength)
		}),
	)
}

func (r *RedsyncLocker) Lock(ctx context.Context, resource string, maxWait time.Duration) (bool, error) {
	owner, ok := contracts.OwnerFromContext(ctx)
	if !ok {
		return false, contracts.ErrNoOwner
	}
	key := r.cfg.Key(resource)

	if r.registry.Reenter(owner, key) {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %w", contracts.ErrInterruptedWait, err)
	}

	lease := contracts.LeaseFromContext(ctx, r.cfg.Lease)
	mutex := r.newMutex(key, maxWait, lease)
	if err := mutex.LockContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, fmt.Errorf("%w: %w", contracts.ErrInterruptedWait, ctxErr)
		}
		entry := log.WithFields(log.Fields{"lockKey": key, "owner": owner, "maxWait": maxWait})
		if !contended(err) {
			// Store failures are retried like contention and end as a timeout.
			entry = entry.WithError(err)
		}
		entry.Info("Lock acquisition timed out")
		return false, nil
	}

	held := &heldMutex{mutex: mutex, renewer: newRenewer(mutex, lease/2)}
	held.renewer.start()
	if previous, merged := r.registry.Claim(owner, key, held); merged {
		previous.renewer.stop()
		_, _ = previous.mutex.UnlockContext(context.WithoutCancel(ctx))
	}
	return true, nil
}

func (r *RedsyncLocker) Unlock(ctx context.Context, resource string) error {
	owner, ok := contracts.OwnerFromContext(ctx)
	if !ok {
		return contracts.ErrNoOwner
	}
	key := r.cfg.Key(resource)

	held, remaining, ok := r.registry.Leave(owner, key)
	if !ok {
		log.WithFields(log.Fields{"lockKey": key, "owner": owner}).Error("Unlock called without holding the lock")
		return fmt.Errorf("%w: %s does not own %s", contracts.ErrIllegalLockState, owner, key)
	}
	if remaining > 0 {
		return nil
	}

	held.renewer.stop()
	unlocked, err := held.mutex.UnlockContext(context.WithoutCancel(ctx))
	if err != nil {
		if errors.Is(err, redsync.ErrLockAlreadyExpired) {
			return fmt.Errorf("%w: %s", contracts.ErrLeaseExpired, key)
		}
		return fmt.Errorf("%w: %w", contracts.ErrStoreUnavailable, err)
	}
	if !unlocked {
		return fmt.Errorf("%w: %s", contracts.ErrLeaseExpired, key)
	}
	return nil
}

// contended reports whether the last redsync attempt failed because the key
// was held, as opposed to Redis being unreachable.
func contended(err error) bool {
	var taken *redsync.ErrTaken
	return errors.As(err, &taken) || errors.Is(err, redsync.ErrFailed)
}

func (r *RedsyncLocker) RunExclusive(ctx context.Context, resource string, maxWait time.Duration, body contracts.Body) error {
	return lock.RunExclusive(ctx, r, resource, maxWait, body)
}

func (r *RedsyncLocker) renewals(ctx context.Context, resource string) int {
	owner, _ := contracts.OwnerFromContext(ctx)
	record, ok := r.registry.Get(owner, r.cfg.Key(resource))
	if !ok {
		return 0
	}
	return record.Handle.renewer.count()
}
