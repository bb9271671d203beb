// Package ownership tracks which caller holds which lock key inside this
// process, and how many times it re-entered it.
package ownership

import (
	"github.com/soroosh-tanzadeh/distlock/internal/safemap"
)

type recordKey struct {
	owner string
	key   string
}

// Record is the state of one (owner, key) pair. H is the backend's proof of
// ownership: a token string for the script backend, a mutex for redsync.
type Record[H any] struct {
	Handle H
	Count  int
}

type Registry[H any] struct {
	records *safemap.SafeMap[recordKey, Record[H]]
}

func NewRegistry[H any]() *Registry[H] {
	return &Registry[H]{records: safemap.NewSafeMap[recordKey, Record[H]]()}
}

// Reenter increments the count of an existing record. It reports false, and
// changes nothing, when the owner does not hold key.
func (r *Registry[H]) Reenter(owner, key string) bool {
	entered := false
	r.records.Compute(recordKey{owner, key}, func(old Record[H], loaded bool) (Record[H], bool) {
		if !loaded {
			return old, false
		}
		entered = true
		old.Count++
		return old, true
	})
	return entered
}

// Claim stores a freshly acquired handle with count 1. If the owner already
// has a record, which only happens when its previous lease expired while a
// second acquisition by the same owner was in flight, the record keeps its
// count plus one and switches to the new handle. The replaced handle is
// returned with merged=true. Its lease has normally expired already, but the
// caller should still release it so no stale value lingers in the store.
func (r *Registry[H]) Claim(owner, key string, handle H) (previous H, merged bool) {
	r.records.Compute(recordKey{owner, key}, func(old Record[H], loaded bool) (Record[H], bool) {
		if loaded {
			previous, merged = old.Handle, true
			return Record[H]{Handle: handle, Count: old.Count + 1}, true
		}
		return Record[H]{Handle: handle, Count: 1}, true
	})
	return previous, merged
}

// Leave decrements the count. remaining is the count after the decrement;
// when it reaches 0 the record is removed and the handle returned so the caller
// can release it in the store. held is false when there was no record.
func (r *Registry[H]) Leave(owner, key string) (handle H, remaining int, held bool) {
	r.records.Compute(recordKey{owner, key}, func(old Record[H], loaded bool) (Record[H], bool) {
		if !loaded {
			return old, false
		}
		held = true
		old.Count--
		remaining = old.Count
		handle = old.Handle
		return old, old.Count > 0
	})
	return handle, remaining, held
}

func (r *Registry[H]) Get(owner, key string) (Record[H], bool) {
	return r.records.Get(recordKey{owner, key})
}

func (r *Registry[H]) Len() int {
	return r.records.Len()
}
