// Package wire is the decoded message representation exchanged with
// neighbors: a tagged sum with one variant per message type, plus the
// JSON codec for the UTF-8 text records exchanged with neighbors. Framing
// and delivery belong to internal/transport; this
// package only knows how to turn bytes into a Message and back.
package wire

import (
	"encoding/json"
	"fmt"
	"net/netip"
)

// Type is a wire message's `type` field.
type Type string

const (
	Handshake Type = "handshake"
	Update    Type = "update"
	Withdraw  Type = "withdraw"
	Data      Type = "data"
	Dump      Type = "dump"
	Table     Type = "table"
	NoRoute   Type = "no route"
)

// RouteAttrs is the update message's payload: the announced prefix plus
// the BGP-style attributes.
type RouteAttrs struct {
	Network    netip.Addr `json:"network"`
	Netmask    netip.Addr `json:"netmask"`
	LocalPref  uint32     `json:"localpref"`
	ASPath     []int32    `json:"ASPath"`
	Origin     string     `json:"origin"`
	SelfOrigin bool       `json:"selfOrigin"`
}

// WithdrawEntry is one (network, netmask) pair inside a withdraw message's
// payload list.
type WithdrawEntry struct {
	Network netip.Addr `json:"network"`
	Netmask netip.Addr `json:"netmask"`
}

// TableEntry is one row of a "table" reply's payload: a route record with
// child0/child1 stripped.
type TableEntry struct {
	Network    netip.Addr `json:"network"`
	Netmask    netip.Addr `json:"netmask"`
	Peer       netip.Addr `json:"peer"`
	LocalPref  uint32     `json:"localpref"`
	ASPath     []int32    `json:"ASPath"`
	Origin     string     `json:"origin"`
	SelfOrigin bool       `json:"selfOrigin"`
}

// Message is a fully decoded inbound or outbound record. At most one of
// the payload fields is populated, selected by Type (handshake, dump and
// "no route" records carry none) — this is the tagged
// sum, represented as a flat struct rather than an
// interface so the JSON codec stays a thin, direct mapping.
type Message struct {
	Type Type
	Src  netip.Addr
	Dst  netip.Addr

	// Populated when Type == Update.
	UpdateAttrs *RouteAttrs
	// Populated when Type == Withdraw.
	WithdrawEntries []WithdrawEntry
	// Populated when Type == Data. Opaque: relayed with its JSON value
	// unchanged, though Encode compacts its whitespace.
	DataPayload json.RawMessage
	// Populated when Type == Table.
	TableEntries []TableEntry
}

// UnknownTypeError is returned by Decode for an unrecognized `type` field.
type UnknownTypeError struct {
	Type string
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown message type %q", e.Type)
}
