package contracts

import (
	"context"
	"time"
)

// Body is the unit of work executed while a lock is held. The context passed
// to it carries the owner identity, so nested locking on the same resource re-enters.
type Body func(ctx context.Context) error

type DistributedLock interface {
	// Lock waits up to maxWait for resource. A timeout is reported as (false, nil).
	Lock(ctx context.Context, resource string, maxWait time.Duration) (bool, error)
	Unlock(ctx context.Context, resource string) error
	RunExclusive(ctx context.Context, resource string, maxWait time.Duration, body Body) error
}
