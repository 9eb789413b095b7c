//go:build !linux

// File: tlsio/rawconn_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-Linux fallback: no raw-fd epoll backend exists on this platform (see
// reactor/poll_stub.go), so the socket primitive falls back to a
// deadline-driven emulation of the same PumpRead/PumpWrite contract over a
// standard net.Conn. Functionally equivalent, just routed through the Go
// runtime's netpoller instead of our own epoll fd set.

package tlsio

import (
	"io"
	"net"
	"time"
)

type rawSocket struct {
	conn net.Conn
}

func newRawSocketFromNetConn(c net.Conn) *rawSocket {
	return &rawSocket{conn: c}
}

func newRawSocketFromTCPConn(c *net.TCPConn) (*rawSocket, error) {
	return newRawSocketFromNetConn(c), nil
}

func (s *rawSocket) PumpRead(p []byte) (int, error) {
	_ = s.conn.SetReadDeadline(time.Now())
	n, err := s.conn.Read(p)
	if err != nil {
		if err == io.EOF {
			return n, io.EOF
		}
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, ErrWouldBlock
		}
		return n, err
	}
	return n, nil
}

func (s *rawSocket) PumpWrite(p []byte) (int, error) {
	_ = s.conn.SetWriteDeadline(time.Now())
	n, err := s.conn.Write(p)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, ErrWouldBlock
		}
		return n, err
	}
	return n, nil
}

func (s *rawSocket) Close() error         { return s.conn.Close() }
func (s *rawSocket) Fd() uintptr          { return 0 }
func (s *rawSocket) LocalAddr() net.Addr  { return s.conn.LocalAddr() }
func (s *rawSocket) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }
