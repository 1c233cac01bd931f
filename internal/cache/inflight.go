// Package cache – in-flight fetch registry
//
// Background prefetches and explicit requests for the same fingerprint must
// share one upstream call, not race two through the queue. The registry is
// a thin wrapper over singleflight keyed by fingerprint: the first caller
// runs the fetch, later callers attach to the same result, and the key is
// forgotten once the call settles so a later request fetches fresh.
package cache

import (
	"golang.org/x/sync/singleflight"
)

// Registry deduplicates concurrent fetches per fingerprint.
type Registry struct {
	g singleflight.Group
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// Do runs fn for the fingerprint unless a call for the same fingerprint is
// already in flight, in which case it waits for and shares that call's
// result. The key is forgotten after settlement.
func (r *Registry) Do(f Fingerprint, fn func() (any, error)) (any, error) {
	key := f.Key()
	v, err, _ := r.g.Do(key, fn)
	r.g.Forget(key)
	return v, err
}

// Go starts fn for the fingerprint in the background unless a call is
// already in flight. The returned channel settles with the shared result;
// fire-and-forget callers may ignore it.
func (r *Registry) Go(f Fingerprint, fn func() (any, error)) <-chan singleflight.Result {
	key := f.Key()
	ch := r.g.DoChan(key, func() (any, error) {
		defer r.g.Forget(key)
		return fn()
	})
	return ch
}
