//go:build linux

// File: tlsio/rawconn_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// rawSocket is the raw, non-blocking POSIX fd primitive the Stream adapter
// pumps bytes through. Generalized from reactor/epoll_reactor.go's raw-fd,
// syscall-level style: every call is a single honest non-blocking attempt,
// never looping or masking a short write as success, so callers can apply
// their own staging-buffer semantics on top (see Stream in stream.go).

package tlsio

import (
	"crypto/tls"
	"io"
	"net"

	"golang.org/x/sys/unix"
)

// rawSocket adapts one accepted, non-blocking TCP fd.
type rawSocket struct {
	fd                    int
	localAddr, remoteAddr net.Addr
}

// newRawSocket wraps fd, which must already be set non-blocking (the
// reactor's listener accepts with SOCK_NONBLOCK; newRawSocketFromTCPConn
// calls setNonblocking).
func newRawSocket(fd int, local, remote net.Addr) *rawSocket {
	return &rawSocket{fd: fd, localAddr: local, remoteAddr: remote}
}

// PumpRead issues a single non-blocking read attempt.
func (s *rawSocket) PumpRead(p []byte) (int, error) {
	for {
		n, err := unix.Read(s.fd, p)
		switch err {
		case nil:
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		case unix.EAGAIN:
			return 0, ErrWouldBlock
		case unix.EINTR:
			continue
		default:
			return 0, err
		}
	}
}

// PumpWrite issues a single non-blocking write attempt. A partial write
// (n < len(p)) is always accompanied by ErrWouldBlock so the caller knows
// to retain the unwritten tail.
func (s *rawSocket) PumpWrite(p []byte) (int, error) {
	for {
		n, err := unix.Write(s.fd, p)
		switch err {
		case nil:
			if n < len(p) {
				return n, ErrWouldBlock
			}
			return n, nil
		case unix.EAGAIN:
			return n, ErrWouldBlock
		case unix.EINTR:
			continue
		default:
			return n, err
		}
	}
}

func (s *rawSocket) Close() error         { return unix.Close(s.fd) }
func (s *rawSocket) Fd() uintptr          { return uintptr(s.fd) }
func (s *rawSocket) LocalAddr() net.Addr  { return s.localAddr }
func (s *rawSocket) RemoteAddr() net.Addr { return s.remoteAddr }

func setNonblocking(fd int) error { return unix.SetNonblock(fd, true) }

// newRawSocketFromTCPConn extracts the raw fd of an accepted *net.TCPConn,
// sets it non-blocking, and detaches it from Go's own netpoller-driven
// *net.TCPConn so the reactor's single-threaded epoll loop is the only
// thing driving readiness.
func newRawSocketFromTCPConn(c *net.TCPConn) (*rawSocket, error) {
	raw, err := c.SyscallConn()
	if err != nil {
		return nil, err
	}
	var dupFd int
	var ctrlErr error
	err = raw.Control(func(fd uintptr) {
		dupFd, ctrlErr = unix.Dup(int(fd))
	})
	if err != nil {
		return nil, err
	}
	if ctrlErr != nil {
		return nil, ctrlErr
	}
	if err := setNonblocking(dupFd); err != nil {
		unix.Close(dupFd)
		return nil, err
	}
	sock := newRawSocket(dupFd, c.LocalAddr(), c.RemoteAddr())
	_ = c.Close() // the dup'd fd now owns the kernel socket
	return sock, nil
}

// NewServerStreamFromRawFD wraps an already non-blocking fd (e.g. one
// produced by accept4(2) with SOCK_NONBLOCK) directly, with no dup/detach
// step required since the fd never touched Go's netpoller in the first
// place.
func NewServerStreamFromRawFD(fd int, local, remote net.Addr, cfg *tls.Config) *Stream {
	sock := newRawSocket(fd, local, remote)
	return newStream(sock, cfg)
}
