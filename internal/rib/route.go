// Package rib holds the forwarding table: the set of currently-known
// routes, kept as a plain list (the longest-prefix index over it lives in
// internal/fib), together with the fixpoint aggregation/disaggregation
// engine that keeps it maximally coalesced.
package rib

import (
	"net/netip"

	"bgprouter/internal/ipaddr"
)

// Origin is a route's provenance class. Preference order is IGP > EGP > UNK.
type Origin string

const (
	OriginIGP     Origin = "IGP"
	OriginEGP     Origin = "EGP"
	OriginUnknown Origin = "UNK"
)

// rank returns this origin's preference rank; lower is better.
func (o Origin) rank() int {
	switch o {
	case OriginIGP:
		return 0
	case OriginEGP:
		return 1
	default:
		return 2
	}
}

// Better reports whether o is strictly preferred over other.
func (o Origin) Better(other Origin) bool {
	return o.rank() < other.rank()
}

// Route is a forwarding-table entry. A Route is either a leaf (Child0 and
// Child1 both nil, Peer is the neighbor that announced it) or an aggregate
// (both children present, Peer inherited from one child and not
// authoritative for withdrawal matching).
type Route struct {
	Network netip.Addr
	Netmask netip.Addr

	Peer netip.Addr

	LocalPref  uint32
	SelfOrigin bool
	ASPath     []int32
	Origin     Origin

	Child0 *Route
	Child1 *Route
}

// Leaf reports whether r has no children.
func (r *Route) Leaf() bool {
	return r.Child0 == nil && r.Child1 == nil
}

// PrefixLength returns this route's prefix length, or -1 if Netmask is
// malformed (callers that construct routes via this package never see
// that case; it can only arise from a caller-supplied malformed netmask).
func (r *Route) PrefixLength() int {
	length, err := ipaddr.PrefixLength(r.Netmask)
	if err != nil {
		return -1
	}
	return length
}

// Prefix returns r's network/netmask as a netip.Prefix, for use as a FIB key.
func (r *Route) Prefix() netip.Prefix {
	return netip.PrefixFrom(r.Network, r.PrefixLength())
}

// clone makes a shallow copy of r with Child0/Child1 cleared — used by
// Dump when publishing routes to a dump reply, which should not see the
// internal aggregation tree.
func (r *Route) clone() *Route {
	cp := *r
	cp.ASPath = append([]int32(nil), r.ASPath...)
	cp.Child0 = nil
	cp.Child1 = nil
	return &cp
}

// attributesEqual reports whether a and b carry identical localpref,
// selfOrigin, ASPath and origin — the non-prefix attributes that must
// match for two routes to be mergeable, and that an aggregate inherits.
func attributesEqual(a, b *Route) bool {
	if a.LocalPref != b.LocalPref || a.SelfOrigin != b.SelfOrigin || a.Origin != b.Origin {
		return false
	}
	if len(a.ASPath) != len(b.ASPath) {
		return false
	}
	for i := range a.ASPath {
		if a.ASPath[i] != b.ASPath[i] {
			return false
		}
	}
	return true
}
