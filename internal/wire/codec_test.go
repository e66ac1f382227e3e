package wire

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUpdate(t *testing.T) {
	raw := []byte(`{"type":"update","src":"192.168.0.1","dst":"192.168.0.2","msg":{"network":"192.168.0.0","netmask":"255.255.255.0","localpref":100,"ASPath":[1,2],"origin":"IGP","selfOrigin":true}}`)
	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, Update, msg.Type)
	require.NotNil(t, msg.UpdateAttrs)
	assert.Equal(t, netip.MustParseAddr("192.168.0.0"), msg.UpdateAttrs.Network)
	assert.Equal(t, uint32(100), msg.UpdateAttrs.LocalPref)
	assert.Equal(t, []int32{1, 2}, msg.UpdateAttrs.ASPath)
	assert.True(t, msg.UpdateAttrs.SelfOrigin)
}

func TestDecodeWithdraw(t *testing.T) {
	raw := []byte(`{"type":"withdraw","src":"192.168.0.2","dst":"192.168.0.1","msg":[{"network":"192.168.1.0","netmask":"255.255.255.0"}]}`)
	msg, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, msg.WithdrawEntries, 1)
	assert.Equal(t, netip.MustParseAddr("192.168.1.0"), msg.WithdrawEntries[0].Network)
}

func TestDecodeMalformedIsError(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"bogus","src":"1.1.1.1","dst":"1.1.1.2","msg":{}}`))
	require.Error(t, err)
	var uerr UnknownTypeError
	assert.ErrorAs(t, err, &uerr)
}

func TestEncodeDecodeRoundTripHandshake(t *testing.T) {
	msg := &Message{Type: Handshake, Src: netip.MustParseAddr("192.168.0.1"), Dst: netip.MustParseAddr("192.168.0.2")}
	raw, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, msg.Type, decoded.Type)
	assert.Equal(t, msg.Src, decoded.Src)
	assert.Equal(t, msg.Dst, decoded.Dst)
}

func TestEncodeDataIsRelayedIntact(t *testing.T) {
	msg := &Message{
		Type:        Data,
		Src:         netip.MustParseAddr("192.168.0.1"),
		Dst:         netip.MustParseAddr("192.168.0.2"),
		DataPayload: []byte(`{"hello":"world"}`),
	}
	raw, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hello":"world"}`, string(decoded.DataPayload))
}
