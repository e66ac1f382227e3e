// Package policy implements the commercial-relationship matrix that
// controls valley-free best-path selection and announcement propagation.
package policy

import "net/netip"

// Relationship is the commercial relationship of a neighbor.
type Relationship string

const (
	Customer Relationship = "cust"
	Peer     Relationship = "peer"
	Provider Relationship = "prov"
)

// Relationships maps neighbor addresses to their configured relationship.
type Relationships map[netip.Addr]Relationship

// Relationship returns the configured relationship for addr, or the zero
// value if addr is not a configured neighbor.
func (r Relationships) Relationship(addr netip.Addr) Relationship {
	return r[addr]
}

// PropagateTo reports whether an update/withdraw learned from src should be
// propagated to neighbor n (n != src is the caller's responsibility; this
// only implements the relationship half of that rule):
//
//	relationship(src) == customer OR relationship(n) == customer
func (r Relationships) PropagateTo(src, n netip.Addr) bool {
	return r.Relationship(src) == Customer || r.Relationship(n) == Customer
}

// PropagationTargets returns every configured neighbor other than src that
// should receive an update/withdraw learned from src.
func (r Relationships) PropagationTargets(src netip.Addr) []netip.Addr {
	var targets []netip.Addr
	for n := range r {
		if n == src {
			continue
		}
		if r.PropagateTo(src, n) {
			targets = append(targets, n)
		}
	}
	return targets
}
