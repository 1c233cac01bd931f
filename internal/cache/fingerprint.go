// Package cache provides the time-boxed response cache and the in-flight
// fetch registry that keep the UI responsive against a slow, single-lane
// upstream. Keys are canonical request fingerprints; entries are replaced
// wholesale and dropped lazily when their TTL elapses.
package cache

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tbourn/go-tally-backend/internal/tally/request"
)

// Fingerprint is the deterministic composite key for one upstream query:
// equal inputs (after filter normalization) always produce the same key,
// and any differing field produces a distinct one. The same key addresses
// both the cache and the in-flight registry.
type Fingerprint struct {
	Kind     request.Kind
	FromDate string
	ToDate   string
	Company  string
	Page     int
	PageSize int
	Filter   string
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// NormalizeFilter trims, collapses inner whitespace, and lowercases a
// free-text search filter so equivalent inputs fingerprint identically.
func NormalizeFilter(s string) string {
	s = whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
	return strings.ToLower(s)
}

// Key renders the canonical string form of the fingerprint. The unit
// separator keeps user-controlled values (company, filter) from colliding
// with field boundaries.
func (f Fingerprint) Key() string {
	const sep = "\x1f"
	return strings.Join([]string{
		string(f.Kind),
		f.FromDate,
		f.ToDate,
		f.Company,
		fmt.Sprintf("%d", f.Page),
		fmt.Sprintf("%d", f.PageSize),
		NormalizeFilter(f.Filter),
	}, sep)
}
