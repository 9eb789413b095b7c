// File: tlsio/stream.go
// Package tlsio bridges a non-blocking TCP socket plus a TLS session into a
// half-duplex readable/writable object that hides record framing and
// renegotiation, per spec.md §4.2.
//
// crypto/tls has no native non-blocking mode: its Conn expects an
// io.Reader/io.Writer that either returns data or a terminal error. We give
// it a sessionConn backed by two staging buffers (rx, tx) instead of the
// real socket. The real socket is only ever touched by Stream's own
// pumpIn/flushOut loops, which move ciphertext between the staging buffers
// and the fd using honest, single-attempt, non-blocking syscalls (see
// rawSocket). Because tls.Conn keeps its own partial-record state across
// calls, a Read/Write/Handshake call that returns ErrWouldBlock can always
// be retried later once more bytes have been pumped, without corrupting the
// session.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package tlsio

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"time"

	"github.com/momentics/hioreactor/buffer"
)

// rawIO is the minimal non-blocking socket primitive Stream pumps through.
type rawIO interface {
	PumpRead(p []byte) (int, error)
	PumpWrite(p []byte) (int, error)
	Close() error
	Fd() uintptr
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// stagingCap bounds the ciphertext staged in either direction before the
// reactor is expected to have drained/filled it via readiness events.
const stagingCap = 256 * 1024

// Stream is the TLS stream adapter of spec.md §4.2.
type Stream struct {
	sock        rawIO
	rx          *buffer.Buffer // ciphertext received from the socket, pending TLS consumption
	tx          *buffer.Buffer // ciphertext produced by TLS, pending socket flush
	session     *tls.Conn
	handshaking bool
}

// NewServerStream wraps an accepted *net.TCPConn as a server-side TLS
// stream. The TCPConn's fd is detached from Go's netpoller (see
// newRawSocketFromTCPConn) so only the reactor's own event notifier drives
// readiness from here on.
func NewServerStream(conn *net.TCPConn, cfg *tls.Config) (*Stream, error) {
	sock, err := newRawSocketFromTCPConn(conn)
	if err != nil {
		return nil, err
	}
	return newStream(sock, cfg), nil
}

func newStream(sock rawIO, cfg *tls.Config) *Stream {
	s := &Stream{
		sock:        sock,
		rx:          buffer.New(stagingCap),
		tx:          buffer.New(stagingCap),
		handshaking: true,
	}
	s.session = tls.Server(&sessionConn{s}, cfg)
	return s
}

// Fd exposes the raw descriptor for reactor registration.
func (s *Stream) Fd() uintptr { return s.sock.Fd() }

// Handshaking reports whether the TLS handshake is still in progress.
func (s *Stream) Handshaking() bool { return s.handshaking }

// HandshakeDrive advances the TLS handshake: pushes any pending outbound
// flight, then pulls inbound bytes and retries, looping until the
// handshake completes, a fatal error occurs, or the socket would block.
func (s *Stream) HandshakeDrive() error {
	for {
		err := s.session.Handshake()
		if err == nil {
			s.handshaking = false
			if ferr := s.flushOut(); ferr != nil && !IsWouldBlock(ferr) {
				return ferr
			}
			return nil
		}
		if !IsWouldBlock(err) {
			return classifyTerminal(err)
		}
		if ferr := s.flushOut(); ferr != nil && !IsWouldBlock(ferr) {
			return ferr
		}
		n, rerr := s.pumpIn()
		if rerr != nil {
			return rerr
		}
		if n == 0 {
			return ErrWouldBlock
		}
		// loop: reprocess the handshake now that more bytes are staged
	}
}

// Read returns decrypted plaintext. It pulls ciphertext from the socket as
// needed; would-block propagates once no more bytes are available and no
// plaintext was produced.
func (s *Stream) Read(p []byte) (int, error) {
	for {
		n, err := s.session.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == nil {
			continue
		}
		if !IsWouldBlock(err) {
			return 0, classifyTerminal(err)
		}
		pumped, rerr := s.pumpIn()
		if rerr != nil {
			return 0, rerr
		}
		if pumped == 0 {
			return 0, ErrWouldBlock
		}
	}
}

// Write encrypts p into the TLS session and attempts an immediate flush.
// Per spec.md §4.2 the return value is bytes accepted into the session,
// independent of whether the flush fully drained to the socket.
func (s *Stream) Write(p []byte) (int, error) {
	n, err := s.session.Write(p)
	if err != nil {
		if IsWouldBlock(err) {
			return n, ErrWouldBlock
		}
		return n, classifyTerminal(err)
	}
	if ferr := s.flushOut(); ferr != nil && !IsWouldBlock(ferr) {
		return n, ferr
	}
	return n, nil
}

// Flush pushes any staged ciphertext to the socket, returning ErrWouldBlock
// if the socket refuses more while bytes remain staged.
func (s *Stream) Flush() error {
	return s.flushOut()
}

// Close releases the underlying socket.
func (s *Stream) Close() error {
	return s.sock.Close()
}

// pumpIn drains the socket into rx until it would block or hits EOF,
// returning the number of bytes newly staged.
func (s *Stream) pumpIn() (int, error) {
	total := 0
	for {
		dst, err := s.rx.Reserve(4096)
		if err != nil {
			// rx is saturated; let the consumer (TLS) drain it first.
			return total, nil
		}
		n, rerr := s.sock.PumpRead(dst)
		if n > 0 {
			s.rx.Commit(n)
			total += n
		}
		if rerr != nil {
			if IsWouldBlock(rerr) {
				return total, nil
			}
			if errors.Is(rerr, io.EOF) {
				if total > 0 {
					return total, nil
				}
				return total, ErrConnectionAborted
			}
			return total, rerr
		}
	}
}

// flushOut drains tx to the socket until empty or the socket would block.
func (s *Stream) flushOut() error {
	for s.tx.Len() > 0 {
		data := s.tx.Committed()
		n, err := s.sock.PumpWrite(data)
		if n > 0 {
			s.tx.Consume(n)
		}
		if err != nil {
			if IsWouldBlock(err) {
				return ErrWouldBlock
			}
			if n == 0 {
				return ErrConnectionAborted
			}
			return err
		}
	}
	return nil
}

func classifyTerminal(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrConnectionAborted
	}
	return err
}

// sessionConn is the io.Reader/io.Writer crypto/tls.Conn is built on. It
// never touches the real socket directly; Read pops from Stream.rx, Write
// pushes into Stream.tx.
type sessionConn struct {
	s *Stream
}

func (c *sessionConn) Read(p []byte) (int, error) {
	if c.s.rx.Len() == 0 {
		return 0, ErrWouldBlock
	}
	data := c.s.rx.Committed()
	n := copy(p, data)
	c.s.rx.Consume(n)
	return n, nil
}

func (c *sessionConn) Write(p []byte) (int, error) {
	dst, err := c.s.tx.Reserve(len(p))
	if err != nil {
		return 0, err
	}
	copy(dst, p)
	c.s.tx.Commit(len(p))
	return len(p), nil
}

func (c *sessionConn) Close() error                       { return nil }
func (c *sessionConn) LocalAddr() net.Addr                { return c.s.sock.LocalAddr() }
func (c *sessionConn) RemoteAddr() net.Addr               { return c.s.sock.RemoteAddr() }
func (c *sessionConn) SetDeadline(t time.Time) error      { return nil }
func (c *sessionConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *sessionConn) SetWriteDeadline(t time.Time) error { return nil }
