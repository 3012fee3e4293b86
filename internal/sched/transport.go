package sched

import (
	"fmt"
	"net"
	"sync"
)

// UDPTransport sends payload datagrams to a fixed monitor address. Reset
// closes and re-dials the socket, which is the recovery path after a run of
// consecutive send failures.
type UDPTransport struct {
	mu     sync.Mutex
	target string
	sndBuf int
	conn   *net.UDPConn
}

// DialUDP connects a transport to target ("host:port"). sndBuf > 0 sets the
// socket send buffer size.
func DialUDP(target string, sndBuf int) (*UDPTransport, error) {
	t := &UDPTransport{target: target, sndBuf: sndBuf}
	if err := t.dial(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *UDPTransport) dial() error {
	addr, err := net.ResolveUDPAddr("udp", t.target)
	if err != nil {
		return fmt.Errorf("resolve data target %q: %w", t.target, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("dial data target %q: %w", t.target, err)
	}
	if t.sndBuf > 0 {
		// Best effort; the OS default is fine if this fails.
		_ = conn.SetWriteBuffer(t.sndBuf)
	}
	t.conn = conn
	return nil
}

// Send writes one datagram.
func (t *UDPTransport) Send(payload []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("transport closed")
	}
	_, err := conn.Write(payload)
	return err
}

// Reset tears the socket down and re-dials the same target.
func (t *UDPTransport) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	return t.dial()
}

// Close releases the socket.
func (t *UDPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
