// File: codec/codec.go
// Package codec defines the three capabilities the reactor is polymorphic
// over: Parser, Sender, and Handshaker. Concrete protocols (httpcodec,
// wscodec) implement these against their own message types.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package codec

import "io"

// Parser turns a byte slice into zero or one complete message.
//
// Parse returns:
//   - (msg, remaining, nil) with msg != nil: a complete message was parsed;
//     remaining is the unconsumed suffix of input.
//   - (nil, remaining, nil): no complete message yet. If len(remaining) ==
//     len(input) no progress was made (caller should wait for more bytes);
//     if shorter, progress was made: the caller discards the consumed
//     prefix and calls Parse again on the remainder.
//   - (nil, nil, err): the bytes seen so far can never form a valid
//     message. Incomplete input is never reported as an error; it is the
//     no-progress case above.
//
// Implementations are stateful across calls and must remain coherent when
// repeatedly invoked on a growing prefix of the same stream.
type Parser[M any] interface {
	Parse(input []byte) (msg *M, remaining []byte, err error)
}

// Sender writes the next pending chunk of a message into w, returning the
// number of bytes written this call. Zero bytes with a nil error means the
// sender is exhausted. Once constructed, a Sender must be driven to
// completion before the owner's outbox is replaced (see codec.SendAll).
type Sender interface {
	Send(w io.Writer) (n int, err error)
}

// HandshakeStatus reports the progress of a Handshaker step.
type HandshakeStatus int

const (
	// HandshakeWaiting means more input bytes are needed.
	HandshakeWaiting HandshakeStatus = iota
	// HandshakeResponding means the handshaker's Sender is loaded with
	// reply bytes that must be drained before the next Advance call.
	HandshakeResponding
	// HandshakeDone means the application protocol may begin.
	HandshakeDone
)

// Handshaker combines parsing and sending for a one-shot protocol upgrade.
// A protocol with no handshake provides a no-op Handshaker that reports
// HandshakeDone immediately, consuming nothing.
type Handshaker interface {
	// Advance consumes a prefix of input and reports the new status plus
	// the number of bytes consumed from input.
	Advance(input []byte) (status HandshakeStatus, consumed int, err error)
	// Sender returns the pending reply sender; valid only once Advance has
	// returned HandshakeResponding.
	Sender() Sender
}

// SendAll drives s to completion against w: it calls Send repeatedly until a
// call returns zero bytes with a nil error (exhausted) or an error
// propagates. A terminal flush is attempted via the optional Flusher
// interface. SendAll returns the total bytes written.
func SendAll(w io.Writer, s Sender) (int, error) {
	total := 0
	for {
		n, err := s.Send(w)
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	if f, ok := w.(Flusher); ok {
		if err := f.Flush(); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Flusher is implemented by writers (e.g. the TLS stream adapter) that
// buffer internally and need an explicit flush once a Sender is drained.
type Flusher interface {
	Flush() error
}
