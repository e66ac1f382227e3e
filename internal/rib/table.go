package rib

import (
	"net/netip"

	"bgprouter/internal/ipaddr"
)

// Table holds the set of currently-known top-level routes and keeps it
// maximally aggregated. It is not safe for concurrent use — the router's
// single-threaded event loop is Table's only caller, per design.
type Table struct {
	routes []*Route

	// OnChange, if set, is invoked after every mutation with the current
	// top-level route set. It exists so a FIB index (internal/fib) can be
	// kept in sync without Table importing it.
	OnChange func([]*Route)
}

// New creates an empty Table.
func New() *Table {
	return &Table{}
}

// Routes returns the current top-level route set. The slice and the
// Routes within it must not be mutated by the caller.
func (t *Table) Routes() []*Route {
	return t.routes
}

// Insert appends a new leaf and coalesces the table to fixpoint.
func (t *Table) Insert(leaf *Route) {
	t.routes = append(t.routes, leaf)
	t.coalesce()
	t.notify()
}

// coalesce repeatedly merges mergeable pairs of top-level routes until no
// pair remains mergeable.
func (t *Table) coalesce() {
	for {
		i, j, ok := t.findMergeablePair()
		if !ok {
			return
		}
		merged := aggregate(t.routes[i], t.routes[j])
		// Remove the higher index first so the lower index stays valid.
		hi, lo := i, j
		if hi < lo {
			hi, lo = lo, hi
		}
		t.routes = append(t.routes[:hi], t.routes[hi+1:]...)
		t.routes = append(t.routes[:lo], t.routes[lo+1:]...)
		t.routes = append(t.routes, merged)
	}
}

// findMergeablePair scans the top-level table for the first mergeable pair.
func (t *Table) findMergeablePair() (i, j int, ok bool) {
	for i := 0; i < len(t.routes); i++ {
		for j := i + 1; j < len(t.routes); j++ {
			if mergeable(t.routes[i], t.routes[j]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// mergeable implements the three mergeability conditions: equal netmasks,
// equal non-prefix attributes, and networks that are the two halves of
// one shorter block.
func mergeable(r1, r2 *Route) bool {
	l1, err1 := ipaddr.PrefixLength(r1.Netmask)
	l2, err2 := ipaddr.PrefixLength(r2.Netmask)
	if err1 != nil || err2 != nil || l1 != l2 || l1 < 1 {
		return false
	}
	if !attributesEqual(r1, r2) {
		return false
	}
	length := l1
	// First length-1 bits equal, bit length-1 differs.
	if !sameLeadingBits(r1.Network, r2.Network, length-1) {
		return false
	}
	return ipaddr.SiblingBit(r1.Network, length) != ipaddr.SiblingBit(r2.Network, length)
}

// sameLeadingBits reports whether a and b's networks agree on their
// leading n bits (n==0 is vacuously true).
func sameLeadingBits(a, b netip.Addr, n int) bool {
	if n <= 0 {
		return true
	}
	aw := as32(a)
	bw := as32(b)
	mask := ^uint32(0) << uint(32-n)
	return aw&mask == bw&mask
}

func as32(a netip.Addr) uint32 {
	b := a.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// aggregate combines two mergeable routes into their parent aggregate:
// the numerically smaller network becomes Child0, the netmask shortens by
// one bit, and the shared attributes are inherited.
func aggregate(r1, r2 *Route) *Route {
	lo, hi := r1, r2
	if !ipaddr.Less(r1.Network, r2.Network) {
		lo, hi = r2, r1
	}
	length := lo.PrefixLength()
	agg := &Route{
		Network:    lo.Network,
		Netmask:    ipaddr.NetmaskOfLength(length - 1),
		Peer:       lo.Peer,
		LocalPref:  lo.LocalPref,
		SelfOrigin: lo.SelfOrigin,
		ASPath:     append([]int32(nil), lo.ASPath...),
		Origin:     lo.Origin,
		Child0:     lo,
		Child1:     hi,
	}
	return agg
}

// WithdrawDescriptor names the prefix and announcing peer of a withdrawn
// route.
type WithdrawDescriptor struct {
	Network netip.Addr
	Netmask netip.Addr
	Peer    netip.Addr
}

// Withdraw removes the leaf matching d, disaggregating ancestors as needed
// to re-expose every sibling subtree the withdrawn leaf was aggregated
// with, however deep. It reports whether a matching leaf was found. The
// table is not re-coalesced afterward.
func (t *Table) Withdraw(d WithdrawDescriptor) bool {
	for i, route := range t.routes {
		survivors, matched := withdrawFrom(route, d)
		if !matched {
			continue
		}
		t.routes = append(t.routes[:i:i], t.routes[i+1:]...)
		t.routes = append(t.routes, survivors...)
		t.notify()
		return true
	}
	return false
}

// withdrawFrom recursively searches route for a leaf matching d.
//
//   - If route is a leaf and matches d, it is consumed: returns (nil, true).
//   - If route is an aggregate, recurse into Child0 first; if that
//     subtree matched, Child1 resurfaces as a top-level route alongside
//     whatever the recursion into Child0 already surfaced. Otherwise
//     recurse into Child1 symmetrically.
//   - Returns (nil, false) if neither child matches.
//
// Every untouched sibling encountered along the path to the withdrawn
// leaf must resurface, not just the one closest to it, so survivors
// accumulate across stack frames rather than collapsing to a single route.
func withdrawFrom(route *Route, d WithdrawDescriptor) ([]*Route, bool) {
	if route.Leaf() {
		if route.Network == d.Network && route.Netmask == d.Netmask && route.Peer == d.Peer {
			return nil, true
		}
		return nil, false
	}
	if survivors, matched := withdrawFrom(route.Child0, d); matched {
		return append(survivors, route.Child1), true
	}
	if survivors, matched := withdrawFrom(route.Child1, d); matched {
		return append(survivors, route.Child0), true
	}
	return nil, false
}

// Dump returns a copy of every top-level route with Child0/Child1 stripped,
// for the "dump"/"table" reply.
func (t *Table) Dump() []*Route {
	out := make([]*Route, len(t.routes))
	for i, r := range t.routes {
		out[i] = r.clone()
	}
	return out
}

func (t *Table) notify() {
	if t.OnChange != nil {
		t.OnChange(t.routes)
	}
}
