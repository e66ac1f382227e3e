package transport

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndPollRoundTrip(t *testing.T) {
	neighborA := netip.MustParseAddr("192.168.0.2")
	neighborB := netip.MustParseAddr("192.168.0.3")

	// b's own ephemeral endpoint toward a; we don't send from b in this
	// test so its peer port is irrelevant.
	tb, err := New(map[netip.Addr]int{neighborA: 0})
	require.NoError(t, err)
	defer tb.Close()

	bPort, ok := tb.LocalPort(neighborA)
	require.True(t, ok)

	ta, err := New(map[netip.Addr]int{neighborB: bPort})
	require.NoError(t, err)
	defer ta.Close()

	require.NoError(t, ta.Send(neighborB, []byte("hello")))

	d, ok := tb.Poll(time.Second)
	require.True(t, ok)
	assert.Equal(t, neighborA, d.Neighbor)
	assert.Equal(t, "hello", string(d.Payload))
}

func TestPollTimesOutWithNoTraffic(t *testing.T) {
	tr, err := New(nil)
	require.NoError(t, err)
	defer tr.Close()

	_, ok := tr.Poll(50 * time.Millisecond)
	assert.False(t, ok)
}

func TestSendToUnknownNeighborFails(t *testing.T) {
	tr, err := New(nil)
	require.NoError(t, err)
	defer tr.Close()

	err = tr.Send(netip.MustParseAddr("10.0.0.1"), []byte("x"))
	assert.Error(t, err)
}
