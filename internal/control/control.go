// Package control implements the tiny UDP command protocol shared by the
// dispenser and the monitor. The payload is the ASCII token ON or OFF,
// case-insensitive after trimming; any other token is ignored with no state
// change. The channel is one-way and request-less: no replies, no retries.
package control

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"
)

// Command is a recognized control token.
type Command string

const (
	CmdOn  Command = "ON"
	CmdOff Command = "OFF"
)

// Parse trims and upcases a raw payload. ok is false for anything that is
// not a known command.
func Parse(raw []byte) (Command, bool) {
	switch Command(strings.ToUpper(strings.TrimSpace(string(raw)))) {
	case CmdOn:
		return CmdOn, true
	case CmdOff:
		return CmdOff, true
	default:
		return "", false
	}
}

// Listener receives ON/OFF datagrams and invokes a handler for each. Reads
// are bounded by a short deadline so cancellation is observed promptly and
// the listener never blocks the producer or consumer loops.
type Listener struct {
	address     string
	readTimeout time.Duration
	logger      *log.Logger
	handler     func(Command)
}

// NewListener creates a control listener; handler runs on the listener
// goroutine and must be quick.
func NewListener(address string, logger *log.Logger, handler func(Command)) *Listener {
	return &Listener{
		address:     address,
		readTimeout: 100 * time.Millisecond,
		logger:      logger,
		handler:     handler,
	}
}

// Start binds the control socket and polls it until ctx is cancelled. A bind
// failure is returned immediately; read errors are logged and the loop
// continues.
func (l *Listener) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("resolve control address %q: %w", l.address, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("bind control socket %q: %w", l.address, err)
	}
	defer conn.Close()

	l.logger.Printf("control: listening on %s", conn.LocalAddr())

	buf := make([]byte, 1024)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_ = conn.SetReadDeadline(time.Now().Add(l.readTimeout))
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Printf("control: read error: %v", err)
			continue
		}

		cmd, ok := Parse(buf[:n])
		if !ok {
			l.logger.Printf("control: ignoring unknown token %q from %s", strings.TrimSpace(string(buf[:n])), from)
			continue
		}
		l.logger.Printf("control: %s from %s", cmd, from)
		l.handler(cmd)
	}
}

// Sender fires ON/OFF datagrams at a retargetable address. Safe for
// concurrent use; Retarget may be called while another goroutine sends.
type Sender struct {
	mu     sync.Mutex
	target string
}

// NewSender creates a sender aimed at target ("host:port").
func NewSender(target string) *Sender {
	return &Sender{target: target}
}

// Retarget points subsequent sends at a new address.
func (s *Sender) Retarget(target string) {
	s.mu.Lock()
	s.target = target
	s.mu.Unlock()
}

// Target returns the current destination.
func (s *Sender) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Send dials the current target and writes one command datagram. Best
// effort: the caller decides whether a failure matters.
func (s *Sender) Send(cmd Command) error {
	target := s.Target()
	conn, err := net.Dial("udp", target)
	if err != nil {
		return fmt.Errorf("dial control target %q: %w", target, err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("send %s to %q: %w", cmd, target, err)
	}
	return nil
}
