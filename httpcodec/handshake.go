// File: httpcodec/handshake.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package httpcodec

import "github.com/momentics/hioreactor/codec"

// NoopHandshaker satisfies codec.Handshaker for HTTP, which has no
// connection-level handshake of its own (spec.md §4.3: "a protocol with
// no handshake provides a no-op handshaker that immediately reports
// Done").
type NoopHandshaker struct{}

func (NoopHandshaker) Advance(input []byte) (codec.HandshakeStatus, int, error) {
	return codec.HandshakeDone, 0, nil
}

func (NoopHandshaker) Sender() codec.Sender { return nil }
