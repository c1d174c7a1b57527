// SPDX-License-Identifier: MIT
package udp

import (
	"audioviz/internal/log"
	"audioviz/internal/transport"
	"context"
	"errors"
	"fmt"
	"net"
)

// maxDatagram is the largest UDP payload.
const maxDatagram = 65507

// Listener receives telemetry packets, as used by the monitor command.
type Listener struct {
	conn *net.UDPConn
	buf  []byte
	msg  transport.Telemetry
}

// Listen binds addr, e.g. ":9090" or "127.0.0.1:0".
func Listen(addr string) (*Listener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP listen address '%s': %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on '%s': %w", addr, err)
	}
	return &Listener{conn: conn, buf: make([]byte, maxDatagram)}, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Receive decodes packets and calls fn for each until ctx is cancelled or
// the listener is closed. The telemetry value is reused between calls.
// Malformed packets are skipped.
func (l *Listener) Receive(ctx context.Context, fn func(*transport.Telemetry)) error {
	stop := context.AfterFunc(ctx, func() { l.conn.Close() })
	defer stop()

	for {
		n, _, err := l.conn.ReadFromUDP(l.buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if err := DecodePacket(l.buf[:n], &l.msg); err != nil {
			log.Debugf("UDPListener: dropping packet: %v", err)
			continue
		}
		fn(&l.msg)
	}
}

// Close releases the socket.
func (l *Listener) Close() error {
	if err := l.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
