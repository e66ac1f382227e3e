// Package transport is the collaborator that exchanges datagrams with
// neighbor routers over a local-host message bus: one connectionless UDP
// endpoint per neighbor, bound to an ephemeral port on loopback, addressed
// to the neighbor's configured port. The core only ever sees decoded
// wire.Message values; this package owns the bytes.
package transport

import (
	"fmt"
	"net"
	"net/netip"
	"time"
)

// maxDatagramSize is the buffering cap: oversize datagrams
// are a protocol violation and are truncated by net.UDPConn.ReadFromUDP.
const maxDatagramSize = 64 * 1024

// Datagram is one inbound UDP read, tagged with the neighbor it arrived on.
type Datagram struct {
	Neighbor netip.Addr
	Payload  []byte
}

type endpoint struct {
	conn *net.UDPConn
	port int
}

// Transport owns one UDP endpoint per neighbor and fans inbound datagrams
// into a single channel, so the router's event loop has exactly one
// suspension point regardless of neighbor count.
type Transport struct {
	endpoints map[netip.Addr]*endpoint
	incoming  chan Datagram
	done      chan struct{}
}

// New opens one loopback UDP endpoint per neighbor in ports (neighbor
// address -> the port that neighbor listens on) and starts a reader
// goroutine per endpoint.
func New(ports map[netip.Addr]int) (*Transport, error) {
	t := &Transport{
		endpoints: make(map[netip.Addr]*endpoint, len(ports)),
		incoming:  make(chan Datagram, 64),
		done:      make(chan struct{}),
	}
	for neighbor, port := range ports {
		conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("binding endpoint for %s: %w", neighbor, err)
		}
		t.endpoints[neighbor] = &endpoint{conn: conn, port: port}
		go t.readLoop(neighbor, conn)
	}
	return t, nil
}

func (t *Transport) readLoop(neighbor netip.Addr, conn *net.UDPConn) {
	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				continue
			}
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		select {
		case t.incoming <- Datagram{Neighbor: neighbor, Payload: payload}:
		case <-t.done:
			return
		}
	}
}

// Poll waits up to timeout for the next inbound datagram from any
// neighbor. ok is false on timeout, the stand-in for select.select's
// empty readable set.
func (t *Transport) Poll(timeout time.Duration) (Datagram, bool) {
	select {
	case d := <-t.incoming:
		return d, true
	case <-time.After(timeout):
		return Datagram{}, false
	}
}

// LocalPort returns the ephemeral port this Transport bound for its
// endpoint toward neighbor, for diagnostics and tests.
func (t *Transport) LocalPort(neighbor netip.Addr) (int, bool) {
	ep, ok := t.endpoints[neighbor]
	if !ok {
		return 0, false
	}
	return ep.conn.LocalAddr().(*net.UDPAddr).Port, true
}

// Send addresses payload to neighbor's configured port on loopback.
func (t *Transport) Send(neighbor netip.Addr, payload []byte) error {
	ep, ok := t.endpoints[neighbor]
	if !ok {
		return fmt.Errorf("no transport endpoint for neighbor %s", neighbor)
	}
	dst := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: ep.port}
	_, err := ep.conn.WriteToUDP(payload, dst)
	return err
}

// Close tears down every neighbor endpoint.
func (t *Transport) Close() error {
	close(t.done)
	var firstErr error
	for _, ep := range t.endpoints {
		if err := ep.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
