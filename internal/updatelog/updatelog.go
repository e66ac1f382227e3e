// Package updatelog is the append-only record of every inbound update and
// withdraw, kept regardless of how the router's RIB ultimately resolves
// them. Adapted from a generic byte-slice queue into a
// typed, read-iterable log.
package updatelog

import "bgprouter/internal/wire"

// Entry is one logged inbound record.
type Entry struct {
	Type wire.Type
	Msg  wire.Message
}

// Log is an ordered, append-only sequence of inbound update/withdraw
// records. Not safe for concurrent use — the router's single-threaded event
// loop is its only caller, per design.
type Log struct {
	entries []Entry
}

// New creates an empty Log.
func New() *Log {
	return &Log{entries: make([]Entry, 0, 1024)}
}

// Append records msg. msg.Type is expected to be wire.Update or wire.Withdraw.
func (l *Log) Append(msg wire.Message) {
	l.entries = append(l.entries, Entry{Type: msg.Type, Msg: msg})
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns the recorded entries in arrival order. The caller must
// not mutate the returned slice.
func (l *Log) Entries() []Entry {
	return l.entries
}
