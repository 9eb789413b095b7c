//go:build linux

// File: reactor/listener_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// rawListener accepts connections directly via accept4(2) with
// SOCK_NONBLOCK, bypassing Go's netpoller so the listening socket can be
// registered on the reactor's own epoll fd set like any other client,
// per spec.md §4.4 step 1. Generalized from transport/tcp/listener.go's
// net.Listen-based accept loop.

package reactor

import (
	"crypto/tls"
	"fmt"
	"net"

	"github.com/momentics/hioreactor/tlsio"
	"golang.org/x/sys/unix"
)

type rawListener struct {
	fd int
}

func newRawListener(addr string) (*rawListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("reactor: listen %s: %w", addr, err)
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return nil, fmt.Errorf("reactor: listener for %s is not TCP", addr)
	}
	raw, err := tcpLn.SyscallConn()
	if err != nil {
		tcpLn.Close()
		return nil, err
	}
	var dupFd int
	var ctrlErr error
	if err := raw.Control(func(fd uintptr) {
		dupFd, ctrlErr = unix.Dup(int(fd))
	}); err != nil {
		tcpLn.Close()
		return nil, err
	}
	if ctrlErr != nil {
		tcpLn.Close()
		return nil, ctrlErr
	}
	if err := unix.SetNonblock(dupFd, true); err != nil {
		unix.Close(dupFd)
		tcpLn.Close()
		return nil, err
	}
	tcpLn.Close() // the dup'd fd now owns the kernel listening socket
	return &rawListener{fd: dupFd}, nil
}

func (l *rawListener) Fd() uintptr { return uintptr(l.fd) }

// Addr reports the address actually bound, letting callers discover the
// port when Addr was given as ":0".
func (l *rawListener) Addr() net.Addr { return localAddrOf(l.fd) }

// AcceptNonblocking returns the next pending connection, or
// tlsio.ErrWouldBlock when the accept queue is currently empty.
func (l *rawListener) AcceptNonblocking() (fd int, local, remote net.Addr, err error) {
	for {
		nfd, sa, aerr := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch aerr {
		case nil:
			remote = sockaddrToTCPAddr(sa)
			local = localAddrOf(nfd)
			return nfd, local, remote, nil
		case unix.EAGAIN:
			return 0, nil, nil, tlsio.ErrWouldBlock
		case unix.EINTR:
			continue
		default:
			return 0, nil, nil, aerr
		}
	}
}

func (l *rawListener) Close() error { return unix.Close(l.fd) }

// acceptStream accepts one pending connection and wraps it directly as a
// TLS stream; the accepted fd is already non-blocking (SOCK_NONBLOCK) and
// never touched Go's netpoller, so no dup/detach step is needed.
func acceptStream(l *rawListener, cfg *tls.Config) (*tlsio.Stream, net.Addr, net.Addr, error) {
	fd, local, remote, err := l.AcceptNonblocking()
	if err != nil {
		return nil, nil, nil, err
	}
	return tlsio.NewServerStreamFromRawFD(fd, local, remote, cfg), local, remote, nil
}

func sockaddrToTCPAddr(sa unix.Sockaddr) net.Addr {
	switch s := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(s.Addr[:]), Port: s.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(s.Addr[:]), Port: s.Port}
	default:
		return &net.TCPAddr{}
	}
}

func localAddrOf(fd int) net.Addr {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return &net.TCPAddr{}
	}
	return sockaddrToTCPAddr(sa)
}
