package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/soroosh-tanzadeh/distlock/contracts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/soroosh-tanzadeh/distlock/lock")

type Callback[T any] struct {
	// OnLocked runs while the lock is held.
	OnLocked func(ctx context.Context) (T, error)
	// OnTimeout runs instead of OnLocked when maxWait elapses. When nil,
	// Execute returns ErrAcquisitionTimeout.
	OnTimeout func(ctx context.Context) (T, error)
}

// Execute acquires resource on locker, runs callback.OnLocked and releases the
// lock on every exit path, panics included. A cancelled wait returns
// ErrInterruptedWait and runs neither callback. Release errors are joined with
// the callback's error.
func Execute[T any](ctx context.Context, locker contracts.DistributedLock, resource string, maxWait time.Duration, callback Callback[T]) (result T, err error) {
	ctx = contracts.WithOwner(ctx)

	ctx, span := tracer.Start(ctx, "distlock.RunExclusive", trace.WithAttributes(
		attribute.String("distlock.resource", resource),
		attribute.Int64("distlock.max_wait_ms", maxWait.Milliseconds()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	acquired, err := locker.Lock(ctx, resource, maxWait)
	if err != nil {
		return result, err
	}
	span.SetAttributes(attribute.Bool("distlock.acquired", acquired))

	if !acquired {
		if callback.OnTimeout != nil {
			return callback.OnTimeout(ctx)
		}
		return result, fmt.Errorf("%w: %s", contracts.ErrAcquisitionTimeout, resource)
	}

	defer func() {
		if releaseErr := locker.Unlock(context.WithoutCancel(ctx), resource); releaseErr != nil {
			log.WithError(releaseErr).WithField("resource", resource).Error("Failed to release lock")
			err = errors.Join(err, releaseErr)
		}
	}()

	return callback.OnLocked(ctx)
}

// RunExclusive runs body while holding resource. See Execute.
func RunExclusive(ctx context.Context, locker contracts.DistributedLock, resource string, maxWait time.Duration, body contracts.Body) error {
	_, err := Execute(ctx, locker, resource, maxWait, Callback[struct{}]{
		OnLocked: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, body(ctx)
		},
	})
	return err
}
