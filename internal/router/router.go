// Package router is the message dispatcher and session state: it consumes
// decoded inbound wire.Messages, mutates the RIB, emits outbound messages,
// and records every update/withdraw regardless of outcome.
package router

import (
	"net/netip"

	"github.com/sirupsen/logrus"

	"bgprouter/internal/config"
	"bgprouter/internal/decision"
	"bgprouter/internal/fib"
	"bgprouter/internal/ipaddr"
	"bgprouter/internal/policy"
	"bgprouter/internal/rib"
	"bgprouter/internal/stats"
	"bgprouter/internal/transport"
	"bgprouter/internal/updatelog"
	"bgprouter/internal/wire"
)

// Router holds one process's complete routing state: the AS number, the
// configured neighbors and their relationships, the RIB/FIB pair, the
// update log, counters, and the transport used to reach neighbors.
type Router struct {
	asn       int32
	neighbors map[netip.Addr]config.Neighbor
	rel       policy.Relationships

	table  *rib.Table
	fib    *fib.FIB
	engine *decision.Engine
	log    *updatelog.Log
	stats  *stats.Stats

	transport *transport.Transport
	logger    *logrus.Logger
}

// New builds a Router wired to transport for the given configuration. The
// RIB and FIB are created and linked here so every mutation through the
// router keeps both in sync.
func New(cfg *config.Config, tr *transport.Transport, logger *logrus.Logger) *Router {
	neighbors := make(map[netip.Addr]config.Neighbor, len(cfg.Neighbors))
	for _, n := range cfg.Neighbors {
		neighbors[n.Address] = n
	}
	rel := cfg.Relationships()

	table := rib.New()
	f := fib.New()
	table.OnChange = func(routes []*rib.Route) {
		f.Rebuild(routes)
	}

	return &Router{
		asn:       cfg.ASN,
		neighbors: neighbors,
		rel:       rel,
		table:     table,
		fib:       f,
		engine:    decision.New(table, f, rel),
		log:       updatelog.New(),
		stats:     stats.New(),
		transport: tr,
		logger:    logger,
	}
}

// Stats exposes this router's operational counters.
func (r *Router) Stats() *stats.Stats {
	return r.stats
}

// Table exposes the RIB, for the "dump"/"table" reply and for tests.
func (r *Router) Table() *rib.Table {
	return r.table
}

// Handshake sends the startup handshake record to every configured
// neighbor.
func (r *Router) Handshake() {
	for addr := range r.neighbors {
		r.sendTo(addr, &wire.Message{
			Type: wire.Handshake,
			Src:  ipaddr.InterfaceAddr(addr),
			Dst:  addr,
		})
	}
}

// Dispatch decodes raw and routes it to the handler for its type. Any
// decode failure or reference to an unconfigured neighbor is logged and
// dropped — no inbound error is fatal.
func (r *Router) Dispatch(raw []byte) {
	msg, err := wire.Decode(raw)
	if err != nil {
		r.stats.MalformedDropped.Increment()
		r.logger.WithError(err).Warn("dropping malformed message")
		return
	}
	r.logger.WithFields(logrus.Fields{"src": msg.Src, "type": msg.Type}).Debug("received message")

	if _, known := r.neighbors[msg.Src]; !known {
		r.stats.MalformedDropped.Increment()
		r.logger.WithField("src", msg.Src).Warn("dropping message from unknown neighbor")
		return
	}

	switch msg.Type {
	case wire.Handshake:
		r.logger.WithField("src", msg.Src).Debug("received handshake")
	case wire.Update:
		r.handleUpdate(msg)
	case wire.Withdraw:
		r.handleWithdraw(msg)
	case wire.Data:
		r.handleData(msg)
	case wire.Dump:
		r.handleDump(msg)
	default:
		r.stats.MalformedDropped.Increment()
		r.logger.WithField("type", msg.Type).Warn("dropping unexpected message type")
	}
}

// handleUpdate logs the inbound record, inserts a leaf built from the
// payload with peer = src, then propagates the announcement onward.
func (r *Router) handleUpdate(msg *wire.Message) {
	r.log.Append(*msg)
	r.stats.UpdatesReceived.Increment()

	attrs := msg.UpdateAttrs
	if attrs == nil {
		r.stats.MalformedDropped.Increment()
		r.logger.WithField("src", msg.Src).Warn("update with no payload")
		return
	}
	if _, err := ipaddr.PrefixLength(attrs.Netmask); err != nil {
		r.stats.MalformedDropped.Increment()
		r.logger.WithError(err).WithField("src", msg.Src).Warn("update with malformed netmask")
		return
	}

	leaf := &rib.Route{
		Network:    attrs.Network,
		Netmask:    attrs.Netmask,
		Peer:       msg.Src,
		LocalPref:  attrs.LocalPref,
		SelfOrigin: attrs.SelfOrigin,
		ASPath:     append([]int32(nil), attrs.ASPath...),
		Origin:     rib.Origin(attrs.Origin),
	}
	r.table.Insert(leaf)

	r.propagate(msg.Src, &r.stats.UpdatesPropagated, func(target netip.Addr) *wire.Message {
		return &wire.Message{
			Type: wire.Update,
			Src:  ipaddr.InterfaceAddr(target),
			Dst:  target,
			UpdateAttrs: &wire.RouteAttrs{
				Network: attrs.Network,
				Netmask: attrs.Netmask,
				ASPath:  prependAS(r.asn, attrs.ASPath),
			},
		}
	})
}

// handleWithdraw logs the inbound record, applies each descriptor against
// the RIB, then propagates the descriptor list onward verbatim.
func (r *Router) handleWithdraw(msg *wire.Message) {
	r.log.Append(*msg)
	r.stats.WithdrawsReceived.Increment()

	for _, entry := range msg.WithdrawEntries {
		r.table.Withdraw(rib.WithdrawDescriptor{
			Network: entry.Network,
			Netmask: entry.Netmask,
			Peer:    msg.Src,
		})
	}

	entries := msg.WithdrawEntries
	r.propagate(msg.Src, &r.stats.WithdrawsPropagated, func(target netip.Addr) *wire.Message {
		return &wire.Message{
			Type:            wire.Withdraw,
			Src:             ipaddr.InterfaceAddr(target),
			Dst:             target,
			WithdrawEntries: entries,
		}
	})
}

// propagate sends build(target) to every neighbor that should receive an
// announcement learned from src, per the relationship propagation rule.
func (r *Router) propagate(src netip.Addr, counter *stats.Counter, build func(target netip.Addr) *wire.Message) {
	for _, target := range r.rel.PropagationTargets(src) {
		r.sendTo(target, build(target))
		counter.Increment()
	}
}

// prependAS returns a new slice with asn prepended to path, per the
// left-most-is-most-recent ASPath convention.
func prependAS(asn int32, path []int32) []int32 {
	out := make([]int32, 0, len(path)+1)
	out = append(out, asn)
	out = append(out, path...)
	return out
}

// handleData runs the decision engine and either relays the original
// record unchanged to route.Peer, or replies with a "no route" record.
func (r *Router) handleData(msg *wire.Message) {
	route, ok := r.engine.Select(msg.Src, msg.Dst)
	if !ok {
		r.stats.NoRouteReplies.Increment()
		r.sendTo(msg.Src, &wire.Message{
			Type: wire.NoRoute,
			Src:  ipaddr.InterfaceAddr(msg.Src),
			Dst:  msg.Src,
		})
		return
	}

	r.stats.DataForwarded.Increment()
	r.sendTo(route.Peer, msg)
}

// handleDump replies with a table record copying every top-level route,
// stripping child0/child1.
func (r *Router) handleDump(msg *wire.Message) {
	routes := r.table.Dump()
	entries := make([]wire.TableEntry, len(routes))
	for i, route := range routes {
		entries[i] = wire.TableEntry{
			Network:    route.Network,
			Netmask:    route.Netmask,
			Peer:       route.Peer,
			LocalPref:  route.LocalPref,
			ASPath:     route.ASPath,
			Origin:     string(route.Origin),
			SelfOrigin: route.SelfOrigin,
		}
	}

	r.sendTo(msg.Src, &wire.Message{
		Type:         wire.Table,
		Src:          msg.Dst,
		Dst:          msg.Src,
		TableEntries: entries,
	})
}

// sendTo encodes msg and hands it to the transport, logging (but not
// failing the caller on a transport send failure.
func (r *Router) sendTo(neighbor netip.Addr, msg *wire.Message) {
	raw, err := wire.Encode(msg)
	if err != nil {
		r.logger.WithError(err).WithField("dst", neighbor).Error("encoding outbound message")
		return
	}
	if err := r.transport.Send(neighbor, raw); err != nil {
		r.logger.WithError(err).WithField("dst", neighbor).Warn("transport send failed")
	}
}
