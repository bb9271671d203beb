package safemap

import (
	"sync"
)

type SafeMap[K comparable, V any] struct {
	sync.RWMutex
	data map[K]V
}

func NewSafeMap[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{
		data: make(map[K]V),
	}
}

func (m *SafeMap[K, V]) Get(key K) (V, bool) {
	m.RLock()
	defer m.RUnlock()
	value, ok := m.data[key]
	return value, ok
}

// Compute replaces the entry for key with the result of fn while holding the
// write lock. When fn returns keep=false the entry is removed.
func (m *SafeMap[K, V]) Compute(key K, fn func(old V, loaded bool) (value V, keep bool)) (V, bool) {
	m.Lock()
	defer m.Unlock()
	old, loaded := m.data[key]
	value, keep := fn(old, loaded)
	if keep {
		m.data[key] = value
	} else {
		delete(m.data, key)
	}
	return value, keep
}

func (m *SafeMap[K, V]) Len() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.data)
}
