package wire

import (
	"encoding/json"
	"fmt"
	"net/netip"
)

// envelope is the wire shape shared by every message type: type/src/dst
// plus a type-specific msg payload, decoded separately below.
type envelope struct {
	Type Type            `json:"type"`
	Src  netip.Addr      `json:"src"`
	Dst  netip.Addr      `json:"dst"`
	Msg  json.RawMessage `json:"msg"`
}

// Decode parses a UTF-8 text record into a Message. A malformed or
// undecodable record, or one with a src/dst that doesn't parse as an IPv4
// address, is reported as an error — the caller (the dispatcher) treats
// any Decode error as a malformed message and drops the datagram.
func Decode(raw []byte) (*Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if !env.Src.Is4() || !env.Dst.Is4() {
		return nil, fmt.Errorf("src %q and dst %q must both be IPv4 addresses", env.Src, env.Dst)
	}

	msg := &Message{Type: env.Type, Src: env.Src, Dst: env.Dst}

	switch env.Type {
	case Handshake, Dump, NoRoute:
		// No payload fields to decode.
	case Update:
		var attrs RouteAttrs
		if len(env.Msg) > 0 {
			if err := json.Unmarshal(env.Msg, &attrs); err != nil {
				return nil, err
			}
		}
		msg.UpdateAttrs = &attrs
	case Withdraw:
		var entries []WithdrawEntry
		if len(env.Msg) > 0 {
			if err := json.Unmarshal(env.Msg, &entries); err != nil {
				return nil, err
			}
		}
		msg.WithdrawEntries = entries
	case Data:
		msg.DataPayload = env.Msg
	case Table:
		var entries []TableEntry
		if len(env.Msg) > 0 {
			if err := json.Unmarshal(env.Msg, &entries); err != nil {
				return nil, err
			}
		}
		msg.TableEntries = entries
	default:
		return nil, UnknownTypeError{Type: string(env.Type)}
	}

	return msg, nil
}

// Encode serializes msg back into a UTF-8 text record.
func Encode(msg *Message) ([]byte, error) {
	env := envelope{Type: msg.Type, Src: msg.Src, Dst: msg.Dst}

	var (
		payload any
		err     error
	)
	switch msg.Type {
	case Handshake, Dump, NoRoute:
		payload = struct{}{}
	case Update:
		payload = msg.UpdateAttrs
	case Withdraw:
		payload = msg.WithdrawEntries
		if payload == nil {
			payload = []WithdrawEntry{}
		}
	case Data:
		env.Msg = msg.DataPayload
		return json.Marshal(env)
	case Table:
		payload = msg.TableEntries
		if payload == nil {
			payload = []TableEntry{}
		}
	default:
		return nil, UnknownTypeError{Type: string(msg.Type)}
	}

	env.Msg, err = json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}
