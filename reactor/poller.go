// File: reactor/poller.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package reactor

import "time"

// readyEvent reports one fd's readiness, surfaced by the platform poller.
type readyEvent struct {
	fd       uintptr
	readable bool
	writable bool
	errored  bool
}

// poller is the level-triggered OS event notifier abstraction the reactor
// drives. Generalized from reactor/epoll_reactor.go and reactor/
// reactor_linux.go's EventReactor interface.
type poller interface {
	registerListener(fd uintptr) error
	registerClient(fd uintptr) error
	unregister(fd uintptr) error
	wait(timeout time.Duration) ([]readyEvent, error)
	close() error
}
