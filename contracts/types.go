package contracts

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ownerKey struct{}

// WithOwner returns ctx unchanged when it already carries an owner, otherwise a
// child context with a freshly generated owner identity.
func WithOwner(ctx context.Context) context.Context {
	if _, ok := OwnerFromContext(ctx); ok {
		return ctx
	}
	return WithOwnerID(ctx, uuid.NewString())
}

// WithOwnerID forces the owner identity, replacing any inherited one.
// Use it to fork a goroutine that must not share locks with its parent.
func WithOwnerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ownerKey{}, id)
}

func OwnerFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerKey{}).(string)
	return id, ok && len(id) > 0
}

type leaseKey struct{}

// WithLease overrides the configured lease for acquisitions made with ctx or
// contexts derived from it. Re-entering a held lock keeps its original lease.
func WithLease(ctx context.Context, lease time.Duration) context.Context {
	return context.WithValue(ctx, leaseKey{}, lease)
}

// LeaseFromContext returns the lease set by WithLease, or fallback when none
// (or one shorter than a millisecond) was set.
func LeaseFromContext(ctx context.Context, fallback time.Duration) time.Duration {
	if lease, ok := ctx.Value(leaseKey{}).(time.Duration); ok && lease >= time.Millisecond {
		return lease
	}
	return fallback
}
