// SPDX-License-Identifier: MIT

// Package udp sends telemetry as compact binary datagrams.
package udp

import (
	"audioviz/internal/log"
	"audioviz/internal/transport"
	"errors"
	"fmt"
	"net"
	"sync"
)

var ErrClosed = errors.New("UDP sender is closed")

// UDPSender handles sending data packets over UDP. It implements
// transport.Transport: *transport.Telemetry values are encoded with
// AppendPacket into a reused buffer, []byte values are sent as-is.
type UDPSender struct {
	conn       *net.UDPConn
	targetAddr *net.UDPAddr
	mu         sync.Mutex // Protects conn, closed and packet.
	closed     bool
	packet     []byte
}

// NewUDPSender creates a new UDPSender targeting the specified address.
// The address should be in the format "host:port", e.g., "127.0.0.1:9090".
func NewUDPSender(targetAddress string) (*UDPSender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}

	// No local bind needed for sending.
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	log.Infof("UDPSender: Connection established to %s", conn.RemoteAddr())
	return &UDPSender{
		conn:       conn,
		targetAddr: udpAddr,
	}, nil
}

// Target returns the resolved destination.
func (s *UDPSender) Target() *net.UDPAddr {
	return s.targetAddr
}

// Send transmits data as one datagram.
func (s *UDPSender) Send(data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	var payload []byte
	switch v := data.(type) {
	case *transport.Telemetry:
		s.packet = AppendPacket(s.packet[:0], v)
		payload = s.packet
	case []byte:
		payload = v
	default:
		return fmt.Errorf("UDPSender: unsupported payload %T", data)
	}

	if _, err := s.conn.Write(payload); err != nil {
		log.Debugf("UDPSender: Error sending packet: %v", err)
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

// Close closes the underlying UDP connection.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	s.closed = true
	if s.conn == nil {
		return nil
	}
	log.Debugf("UDPSender: Closing connection to %s", s.conn.RemoteAddr())
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}

var _ transport.Transport = (*UDPSender)(nil)
