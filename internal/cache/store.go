// Package cache – TTL store
//
// The store wraps patrickmn/go-cache: per-entry TTL, lazy expiry on lookup,
// no size bound (the key space is bounded by pages a user can actually
// visit). Values are stored by interface and never mutated in place; a
// refresh replaces the entry wholesale. Hit/miss traffic is exported as
// Prometheus counters.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// cacheOps counts lookups by result and mutations by operation.
	cacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_cache_operations_total",
			Help: "Cache operations by type (hit, miss, set, delete).",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(cacheOps)
}

// Store is the TTL-keyed response cache.
type Store struct {
	c          *gocache.Cache
	defaultTTL time.Duration
}

// NewStore builds a store whose entries default to defaultTTL. Expired
// entries are swept every sweep interval in addition to lazy drops on Get.
func NewStore(defaultTTL, sweep time.Duration) *Store {
	return &Store{
		c:          gocache.New(defaultTTL, sweep),
		defaultTTL: defaultTTL,
	}
}

// Get returns the live entry for the fingerprint, or (nil, false) when the
// entry is absent or past its TTL.
func (s *Store) Get(f Fingerprint) (any, bool) {
	v, ok := s.c.Get(f.Key())
	if ok {
		cacheOps.WithLabelValues("hit").Inc()
	} else {
		cacheOps.WithLabelValues("miss").Inc()
	}
	return v, ok
}

// Set stores value under the fingerprint with the given TTL. A zero ttl
// uses the store default.
func (s *Store) Set(f Fingerprint, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.c.Set(f.Key(), value, ttl)
	cacheOps.WithLabelValues("set").Inc()
}

// Has reports whether a live entry exists without counting a hit or miss.
func (s *Store) Has(f Fingerprint) bool {
	_, ok := s.c.Get(f.Key())
	return ok
}

// Delete removes the entry for the fingerprint. Used by user-triggered
// refresh actions.
func (s *Store) Delete(f Fingerprint) {
	s.c.Delete(f.Key())
	cacheOps.WithLabelValues("delete").Inc()
}

// Flush drops every entry. Used when the active company or server changes,
// since all fingerprints embed the previous company context.
func (s *Store) Flush() {
	s.c.Flush()
	cacheOps.WithLabelValues("flush").Inc()
}
