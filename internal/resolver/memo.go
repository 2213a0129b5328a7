package resolver

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// memo remembers successful lookups by key. Concurrent misses on one key
// share a single computation; failures are not remembered so a later
// caller retries.
type memo[V any] struct {
	done   sync.Map
	flight singleflight.Group
}

func (m *memo[V]) get(key string, compute func() (V, error)) (V, error) {
	if v, ok := m.done.Load(key); ok {
		return v.(V), nil
	}
	v, err, _ := m.flight.Do(key, func() (any, error) {
		v, err := compute()
		if err != nil {
			return nil, err
		}
		m.done.Store(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}
