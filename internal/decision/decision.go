// Package decision implements the best-path selection algorithm: given a
// source neighbor and a destination address, pick the single route this
// router should use, applying BGP-style tie-breaking and the valley-free
// policy filter.
package decision

import (
	"net/netip"

	"bgprouter/internal/fib"
	"bgprouter/internal/ipaddr"
	"bgprouter/internal/policy"
	"bgprouter/internal/rib"
)

// Engine selects best paths over a RIB/FIB pair and a relationship table.
type Engine struct {
	table *rib.Table
	fib   *fib.FIB
	rel   policy.Relationships
}

// New creates a decision Engine.
func New(table *rib.Table, fib *fib.FIB, rel policy.Relationships) *Engine {
	return &Engine{table: table, fib: fib, rel: rel}
}

// Select runs the four selection steps and returns the chosen route, or
// ok == false if no route survives (either no candidate matched, or the
// policy filter rejected the only surviving candidate).
func (e *Engine) Select(srcif netip.Addr, dst netip.Addr) (*rib.Route, bool) {
	candidates, ok := e.candidates(dst)
	if !ok || len(candidates) == 0 {
		return nil, false
	}

	best := candidates[0]
	for _, r := range candidates[1:] {
		if better(r, best) {
			best = r
		}
	}

	if !e.policyAllows(srcif, best) {
		return nil, false
	}
	return best, true
}

// candidates returns the FIB's longest-prefix-match bucket for dst,
// falling back to a linear RIB scan when the engine has no FIB, or the FIB
// has no match or an empty bucket for dst. A non-empty FIB bucket is returned as is; it
// is not compared against the RIB (the two are kept in sync by
// rib.Table.OnChange in normal operation).
func (e *Engine) candidates(dst netip.Addr) ([]*rib.Route, bool) {
	if e.fib != nil {
		if bucket, ok := e.fib.Lookup(dst); ok && len(bucket) > 0 {
			return bucket, true
		}
	}
	return e.scanRIB(dst)
}

// scanRIB implements the candidate-set and longest-prefix-filter steps
// directly against the RIB, used as the FIB's fallback.
func (e *Engine) scanRIB(dst netip.Addr) ([]*rib.Route, bool) {
	var best []*rib.Route
	bestLength := -1
	for _, r := range e.table.Routes() {
		length := r.PrefixLength()
		if length < 0 || !ipaddr.Matches(dst, r.Network, r.Netmask) {
			continue
		}
		switch {
		case length > bestLength:
			bestLength = length
			best = []*rib.Route{r}
		case length == bestLength:
			best = append(best, r)
		}
	}
	return best, len(best) > 0
}

// better reports whether candidate beats current under the tie-break
// cascade: localpref, selfOrigin, ASPath length, origin, then lowest peer
// address.
func better(candidate, current *rib.Route) bool {
	if candidate.LocalPref != current.LocalPref {
		return candidate.LocalPref > current.LocalPref
	}
	if candidate.SelfOrigin != current.SelfOrigin {
		return candidate.SelfOrigin
	}
	if len(candidate.ASPath) != len(current.ASPath) {
		return len(candidate.ASPath) < len(current.ASPath)
	}
	if candidate.Origin != current.Origin {
		return candidate.Origin.Better(current.Origin)
	}
	return ipaddr.Less(candidate.Peer, current.Peer)
}

// policyAllows is the valley-free filter: if the requesting interface is
// not a customer, the selected route is only usable when it was learned
// from a customer.
func (e *Engine) policyAllows(srcif netip.Addr, route *rib.Route) bool {
	if e.rel.Relationship(srcif) == policy.Customer {
		return true
	}
	return e.rel.Relationship(route.Peer) == policy.Customer
}
