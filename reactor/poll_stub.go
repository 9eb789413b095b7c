//go:build !linux

// File: reactor/poll_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-Linux fallback mirroring reactor/reactor_stub.go: without epoll, the
// poller degrades to marking every registered fd ready-for-both on each
// call after a short sleep. Correct but not scalable; Linux is the
// supported production backend (see epoll_linux.go).

package reactor

import "time"

type stubPoller struct {
	listener uintptr
	hasListener bool
	clients  map[uintptr]struct{}
}

func newPoller() (poller, error) {
	return &stubPoller{clients: make(map[uintptr]struct{})}, nil
}

func (p *stubPoller) registerListener(fd uintptr) error {
	p.listener = fd
	p.hasListener = true
	return nil
}

func (p *stubPoller) registerClient(fd uintptr) error {
	p.clients[fd] = struct{}{}
	return nil
}

func (p *stubPoller) unregister(fd uintptr) error {
	delete(p.clients, fd)
	return nil
}

func (p *stubPoller) wait(timeout time.Duration) ([]readyEvent, error) {
	if timeout > 0 {
		time.Sleep(timeout)
	}
	events := make([]readyEvent, 0, len(p.clients)+1)
	if p.hasListener {
		events = append(events, readyEvent{fd: p.listener, readable: true})
	}
	for fd := range p.clients {
		events = append(events, readyEvent{fd: fd, readable: true, writable: true})
	}
	return events, nil
}

func (p *stubPoller) close() error { return nil }
