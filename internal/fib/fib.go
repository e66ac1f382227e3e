// Package fib is the forwarding-plane lookup index. It is a derived cache,
// rebuilt from the RIB's top-level routes after every mutation, used to
// accelerate the longest-prefix-match step of the decision engine. It is
// deliberately separate from internal/rib's aggregation tree: the RIB is
// authoritative for aggregation and withdrawal semantics (which need the
// child0/child1 structure), the FIB only ever needs "what's the best
// matching bucket of routes for this address".
package fib

import (
	"net/netip"

	"github.com/gaissmai/bart"

	"bgprouter/internal/rib"
)

// FIB is a longest-prefix-match index over buckets of routes that share an
// exact prefix (distinct peers can announce the identical prefix without
// being mergeable, so the bucket, not a single route, is the table's value
// type). Like internal/rib.Table, FIB is not
// safe for concurrent use; it is only ever touched by the router's
// single-threaded event loop.
type FIB struct {
	table bart.Table[[]*rib.Route]
}

// New creates an empty FIB.
func New() *FIB {
	return &FIB{}
}

// Rebuild replaces the FIB's contents with a fresh index over routes,
// grouping routes that share an exact network/netmask into one bucket.
// Rebuild is the function to pass as rib.Table.OnChange.
func (f *FIB) Rebuild(routes []*rib.Route) {
	buckets := make(map[netip.Prefix][]*rib.Route, len(routes))
	for _, r := range routes {
		pfx := r.Prefix()
		buckets[pfx] = append(buckets[pfx], r)
	}

	var fresh bart.Table[[]*rib.Route]
	for pfx, bucket := range buckets {
		fresh.Insert(pfx, bucket)
	}
	f.table = fresh
}

// Lookup returns the bucket of routes registered under the longest prefix
// matching addr, collapsing the candidate-set scan and longest-prefix
// filter into a single trie lookup.
func (f *FIB) Lookup(addr netip.Addr) ([]*rib.Route, bool) {
	return f.table.Lookup(addr)
}
