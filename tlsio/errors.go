// File: tlsio/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package tlsio

import "errors"

// ErrWouldBlock signals a transient I/O condition: the caller should return
// to the reactor's event notifier and retry once the fd becomes ready again.
var ErrWouldBlock = errors.New("tlsio: would block")

// ErrConnectionAborted signals the peer closed the connection (EOF), either
// during the TLS handshake or on an established stream.
var ErrConnectionAborted = errors.New("tlsio: connection aborted")

// IsWouldBlock reports whether err is (or wraps) ErrWouldBlock.
func IsWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}

// IsConnectionAborted reports whether err is (or wraps) ErrConnectionAborted.
func IsConnectionAborted(err error) bool {
	return errors.Is(err, ErrConnectionAborted)
}
