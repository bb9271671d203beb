package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/soroosh-tanzadeh/distlock/backoff"
	"github.com/soroosh-tanzadeh/distlock/contracts"
	"github.com/soroosh-tanzadeh/distlock/store"
)

// Internals runs the raw acquire/release protocol against the store. It keeps
// no ownership state; see ReentrantLock for that.
type Internals struct {
	store       store.Store
	lease       time.Duration
	tokenLength int
	strategy    backoff.Strategy
	clock       clockwork.Clock
}

func NewInternals(s store.Store, lease time.Duration, tokenLength int, strategy backoff.Strategy, clock clockwork.Clock) *Internals {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Internals{
		store:       s,
		lease:       lease,
		tokenLength: tokenLength,
		strategy:    strategy,
		clock:       clock,
	}
}

func interrupted(err error) error {
	return fmt.Errorf("%w: %w", contracts.ErrInterruptedWait, err)
}

// Acquire creates key with a fresh token, retrying until maxWait has elapsed.
// A maxWait of zero makes a single attempt. The lease is the configured one
// unless ctx carries contracts.WithLease. Store failures count as failed
// attempts; if the budget runs out the returned ErrAcquisitionTimeout wraps
// the last one. Cancelling ctx ends the wait with ErrInterruptedWait.
func (i *Internals) Acquire(ctx context.Context, key string, maxWait time.Duration) (string, error) {
	if maxWait < 0 {
		maxWait = 0
	}
	start := i.clock.Now()
	deadline := start.Add(maxWait)
	lease := contracts.LeaseFromContext(ctx, i.lease)

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", interrupted(err)
		}

		token, err := NewToken(key, i.tokenLength)
		if err != nil {
			return "", err
		}

		created, err := i.store.CreateIfAbsent(ctx, key, token, lease)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return "", interrupted(ctx.Err())
			}
			lastErr = err
			AttemptCounter.WithLabelValues("error").Inc()
			log.WithError(err).WithFields(log.Fields{"lockKey": key, "attempt": attempt}).Warn("Lock attempt failed")
		case created:
			AttemptCounter.WithLabelValues("created").Inc()
			AcquireWait.Observe(i.clock.Since(start).Seconds())
			return token, nil
		default:
			lastErr = nil
			AttemptCounter.WithLabelValues("contended").Inc()
			log.WithFields(log.Fields{"lockKey": key, "attempt": attempt}).Debug("Lock is held by another owner")
		}

		remaining := deadline.Sub(i.clock.Now())
		if remaining <= 0 {
			if lastErr != nil {
				return "", fmt.Errorf("%w after %d attempts: %w", contracts.ErrAcquisitionTimeout, attempt, lastErr)
			}
			return "", contracts.ErrAcquisitionTimeout
		}

		delay := i.strategy.Next(attempt)
		if delay <= 0 {
			delay = time.Millisecond
		}
		if delay > remaining {
			delay = remaining
		}

		timer := i.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", interrupted(ctx.Err())
		case <-timer.Chan():
		}
	}
}

// Release deletes key only if it still holds token. ErrLeaseExpired means the
// lease ran out and the key is gone or belongs to someone else; nothing was deleted.
func (i *Internals) Release(ctx context.Context, key, token string) error {
	deleted, err := i.store.DeleteIfEquals(ctx, key, token)
	if err != nil {
		ReleaseCounter.WithLabelValues("error").Inc()
		return err
	}
	if !deleted {
		ReleaseCounter.WithLabelValues("expired").Inc()
		log.WithField("lockKey", key).Warn("Lock lease expired before release")
		return fmt.Errorf("%w: %s", contracts.ErrLeaseExpired, key)
	}
	ReleaseCounter.WithLabelValues("released").Inc()
	return nil
}
