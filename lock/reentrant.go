package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/soroosh-tanzadeh/distlock/contracts"
	"github.com/soroosh-tanzadeh/distlock/internal/ownership"
)

// ReentrantLock guards one lock key. The owner of each call is read from the
// context; an owner that already holds the key re-enters without a store round trip.
type ReentrantLock struct {
	key       string
	internals *Internals
	registry  *ownership.Registry[string]
}

func (l *ReentrantLock) Key() string {
	return l.key
}

// TryLock waits up to maxWait. A timeout is reported as (false, nil).
func (l *ReentrantLock) TryLock(ctx context.Context, maxWait time.Duration) (bool, error) {
	owner, ok := contracts.OwnerFromContext(ctx)
	if !ok {
		return false, contracts.ErrNoOwner
	}

	if l.registry.Reenter(owner, l.key) {
		AcquireCounter.WithLabelValues("reentered").Inc()
		return true, nil
	}

	token, err := l.internals.Acquire(ctx, l.key, maxWait)
	if err != nil {
		switch {
		case errors.Is(err, contracts.ErrAcquisitionTimeout):
			AcquireCounter.WithLabelValues("timeout").Inc()
			log.WithFields(log.Fields{"lockKey": l.key, "owner": owner, "maxWait": maxWait}).Info("Lock acquisition timed out")
			return false, nil
		case errors.Is(err, contracts.ErrInterruptedWait):
			AcquireCounter.WithLabelValues("interrupted").Inc()
		default:
			AcquireCounter.WithLabelValues("error").Inc()
		}
		return false, err
	}

	previous, merged := l.registry.Claim(owner, l.key, token)
	if !merged {
		HeldGauge.Inc()
	} else if previous != token {
		// The replaced token's lease is normally gone already; the compare
		// in Release keeps the new token safe either way.
		if err := l.internals.Release(context.WithoutCancel(ctx), l.key, previous); err != nil && !errors.Is(err, contracts.ErrLeaseExpired) {
			log.WithError(err).WithField("lockKey", l.key).Warn("Failed to release replaced token")
		}
	}
	AcquireCounter.WithLabelValues("acquired").Inc()
	return true, nil
}

// Unlock releases one level of ownership. The key is deleted from the store
// once the owner has unlocked as many times as it locked. Unlocking a key the
// owner does not hold is an ErrIllegalLockState.
func (l *ReentrantLock) Unlock(ctx context.Context) error {
	owner, ok := contracts.OwnerFromContext(ctx)
	if !ok {
		return contracts.ErrNoOwner
	}

	token, remaining, held := l.registry.Leave(owner, l.key)
	if !held {
		log.WithFields(log.Fields{"lockKey": l.key, "owner": owner}).Error("Unlock called without holding the lock")
		return fmt.Errorf("%w: %s does not own %s", contracts.ErrIllegalLockState, owner, l.key)
	}
	if remaining > 0 {
		return nil
	}

	HeldGauge.Dec()
	// The record is already gone; a failed release leaves the key to expire with its lease.
	return l.internals.Release(context.WithoutCancel(ctx), l.key, token)
}

// HoldCount returns how many times the context's owner currently holds the lock.
func (l *ReentrantLock) HoldCount(ctx context.Context) int {
	owner, ok := contracts.OwnerFromContext(ctx)
	if !ok {
		return 0
	}
	record, ok := l.registry.Get(owner, l.key)
	if !ok {
		return 0
	}
	return record.Count
}

// Token returns the store value proving the owner's current acquisition.
func (l *ReentrantLock) Token(ctx context.Context) (string, bool) {
	owner, ok := contracts.OwnerFromContext(ctx)
	if !ok {
		return "", false
	}
	record, ok := l.registry.Get(owner, l.key)
	return record.Handle, ok
}
