//go:build !linux

// File: reactor/listener_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-Linux fallback mirroring reactor/poll_stub.go: there is no
// accept4(2) here, so a single background goroutine feeds accepted
// connections into a buffered channel that AcceptNonblocking drains
// without blocking the reactor's own loop.

package reactor

import (
	"crypto/tls"
	"net"

	"github.com/momentics/hioreactor/tlsio"
)

type acceptedConn struct {
	conn *net.TCPConn
	err  error
}

type rawListener struct {
	ln      *net.TCPListener
	accept  chan acceptedConn
	done    chan struct{}
	pending *net.TCPConn
}

func newRawListener(addr string) (*rawListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	tcpLn := ln.(*net.TCPListener)
	l := &rawListener{ln: tcpLn, accept: make(chan acceptedConn, 128), done: make(chan struct{})}
	go l.acceptLoop()
	return l, nil
}

func (l *rawListener) acceptLoop() {
	for {
		c, err := l.ln.AcceptTCP()
		select {
		case l.accept <- acceptedConn{conn: c, err: err}:
		case <-l.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (l *rawListener) Fd() uintptr { return 0 }

// Addr reports the address actually bound, letting callers discover the
// port when Addr was given as ":0".
func (l *rawListener) Addr() net.Addr { return l.ln.Addr() }

func (l *rawListener) AcceptNonblocking() (fd int, local, remote net.Addr, err error) {
	select {
	case a := <-l.accept:
		if a.err != nil {
			return 0, nil, nil, a.err
		}
		l.pending = a.conn
		return -1, a.conn.LocalAddr(), a.conn.RemoteAddr(), nil
	default:
		return 0, nil, nil, tlsio.ErrWouldBlock
	}
}

// pending stashes the *net.TCPConn for the caller (the stub platform has no
// raw fd to hand back); TakePendingConn retrieves and clears it.
func (l *rawListener) TakePendingConn() *net.TCPConn {
	c := l.pending
	l.pending = nil
	return c
}

func (l *rawListener) Close() error {
	close(l.done)
	return l.ln.Close()
}

// acceptStream accepts one pending connection and wraps it as a TLS stream,
// detaching its fd from Go's netpoller via tlsio.NewServerStream.
func acceptStream(l *rawListener, cfg *tls.Config) (*tlsio.Stream, net.Addr, net.Addr, error) {
	_, local, remote, err := l.AcceptNonblocking()
	if err != nil {
		return nil, nil, nil, err
	}
	conn := l.TakePendingConn()
	st, serr := tlsio.NewServerStream(conn, cfg)
	if serr != nil {
		return nil, nil, nil, serr
	}
	return st, local, remote, nil
}
