package rib

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgprouter/internal/ipaddr"
)

func addr(t *testing.T, s string) netip.Addr {
	t.Helper()
	a, err := ipaddr.ParseV4(s)
	require.NoError(t, err)
	return a
}

func leaf(t *testing.T, network, netmask, peer string, localpref uint32, selfOrigin bool, asPath []int32, origin Origin) *Route {
	return &Route{
		Network:    addr(t, network),
		Netmask:    addr(t, netmask),
		Peer:       addr(t, peer),
		LocalPref:  localpref,
		SelfOrigin: selfOrigin,
		ASPath:     asPath,
		Origin:     origin,
	}
}

func TestInsertAggregatesAdjacentBlocks(t *testing.T) {
	table := New()
	table.Insert(leaf(t, "192.168.0.0", "255.255.255.0", "192.168.0.2", 100, true, []int32{2}, OriginIGP))
	table.Insert(leaf(t, "192.168.1.0", "255.255.255.0", "192.168.0.2", 100, true, []int32{2}, OriginIGP))

	routes := table.Routes()
	require.Len(t, routes, 1)
	got := routes[0]
	assert.Equal(t, addr(t, "192.168.0.0"), got.Network)
	assert.Equal(t, addr(t, "255.255.254.0"), got.Netmask)
	assert.False(t, got.Leaf())
	assert.Equal(t, addr(t, "192.168.0.0"), got.Child0.Network)
	assert.Equal(t, addr(t, "192.168.1.0"), got.Child1.Network)
}

func TestInsertDoesNotAggregateDifferentAttributes(t *testing.T) {
	table := New()
	table.Insert(leaf(t, "192.168.0.0", "255.255.255.0", "192.168.0.2", 100, true, []int32{2}, OriginIGP))
	table.Insert(leaf(t, "192.168.1.0", "255.255.255.0", "192.168.0.2", 200, true, []int32{2}, OriginIGP))

	assert.Len(t, table.Routes(), 2)
}

func TestWithdrawDisaggregates(t *testing.T) {
	table := New()
	table.Insert(leaf(t, "192.168.0.0", "255.255.255.0", "192.168.0.2", 100, true, []int32{2}, OriginIGP))
	table.Insert(leaf(t, "192.168.1.0", "255.255.255.0", "192.168.0.2", 100, true, []int32{2}, OriginIGP))
	require.Len(t, table.Routes(), 1)

	ok := table.Withdraw(WithdrawDescriptor{
		Network: addr(t, "192.168.1.0"),
		Netmask: addr(t, "255.255.255.0"),
		Peer:    addr(t, "192.168.0.2"),
	})
	require.True(t, ok)

	routes := table.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, addr(t, "192.168.0.0"), routes[0].Network)
	assert.Equal(t, addr(t, "255.255.255.0"), routes[0].Netmask)
	assert.True(t, routes[0].Leaf())
}

func TestWithdrawUnknownLeafIsNoop(t *testing.T) {
	table := New()
	table.Insert(leaf(t, "192.168.0.0", "255.255.255.0", "192.168.0.2", 100, true, []int32{2}, OriginIGP))

	ok := table.Withdraw(WithdrawDescriptor{
		Network: addr(t, "10.0.0.0"),
		Netmask: addr(t, "255.0.0.0"),
		Peer:    addr(t, "192.168.0.2"),
	})
	assert.False(t, ok)
	assert.Len(t, table.Routes(), 1)
}

func TestWithdrawReversibility(t *testing.T) {
	table := New()
	networks := []string{"192.168.0.0", "192.168.1.0", "192.168.2.0", "192.168.3.0"}
	for _, n := range networks {
		table.Insert(leaf(t, n, "255.255.255.0", "192.168.0.2", 100, true, []int32{2}, OriginIGP))
	}
	require.Len(t, table.Routes(), 1) // fully aggregated into a /22

	for _, n := range networks {
		ok := table.Withdraw(WithdrawDescriptor{
			Network: addr(t, n),
			Netmask: addr(t, "255.255.255.0"),
			Peer:    addr(t, "192.168.0.2"),
		})
		require.True(t, ok, n)
	}
	assert.Empty(t, table.Routes())
}

func TestDumpStripsChildren(t *testing.T) {
	table := New()
	table.Insert(leaf(t, "192.168.0.0", "255.255.255.0", "192.168.0.2", 100, true, []int32{2}, OriginIGP))
	table.Insert(leaf(t, "192.168.1.0", "255.255.255.0", "192.168.0.2", 100, true, []int32{2}, OriginIGP))

	dump := table.Dump()
	require.Len(t, dump, 1)
	assert.Nil(t, dump[0].Child0)
	assert.Nil(t, dump[0].Child1)
}

func TestOnChangeFiresOnInsertAndWithdraw(t *testing.T) {
	table := New()
	var calls int
	table.OnChange = func([]*Route) { calls++ }

	table.Insert(leaf(t, "10.0.0.0", "255.0.0.0", "192.168.0.2", 100, true, nil, OriginIGP))
	assert.Equal(t, 1, calls)

	table.Withdraw(WithdrawDescriptor{Network: addr(t, "10.0.0.0"), Netmask: addr(t, "255.0.0.0"), Peer: addr(t, "192.168.0.2")})
	assert.Equal(t, 2, calls)
}
