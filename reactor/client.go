// File: reactor/client.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package reactor

import (
	"github.com/momentics/hioreactor/buffer"
	"github.com/momentics/hioreactor/codec"
	"github.com/momentics/hioreactor/tlsio"
)

// client is the per-accepted-connection record of spec.md §3.
type client[M any] struct {
	id     StreamID
	stream *tlsio.Stream

	inbox *buffer.Buffer

	// outboxQueue holds pending senders beyond the one currently in
	// flight (the Open Question resolution in SPEC_FULL.md §7: queue,
	// don't overwrite).
	outboxQueue   []codec.Sender
	currentOutbox codec.Sender

	parser     codec.Parser[M]
	handshaker codec.Handshaker

	handshaking     bool
	producedMessage bool

	// pendingSwap, when non-nil, is applied once currentOutbox (and the
	// whole outboxQueue) has fully drained — the HTTP→WebSocket handoff
	// of SPEC_FULL.md §7.
	pendingSwap *swapRequest[M]
}

// swapRequest carries a new codec plus bytes observed past the point the
// old protocol's framing ended, to be replayed through the new parser.
type swapRequest[M any] struct {
	parser     codec.Parser[M]
	handshaker codec.Handshaker
	carry      []byte
}

func newClient[M any](id StreamID, stream *tlsio.Stream, parser codec.Parser[M], hs codec.Handshaker, startsHandshaking bool, inbox *buffer.Buffer) *client[M] {
	return &client[M]{
		id:          id,
		stream:      stream,
		inbox:       inbox,
		parser:      parser,
		handshaker:  hs,
		handshaking: startsHandshaking,
	}
}

// enqueueOutbound appends s to the client's outbound queue, starting it
// immediately if nothing else is currently sending.
func (c *client[M]) enqueueOutbound(s codec.Sender) {
	if c.currentOutbox == nil {
		c.currentOutbox = s
		return
	}
	c.outboxQueue = append(c.outboxQueue, s)
}

// advanceOutbox pops the next queued sender into currentOutbox once the
// active one has finished. Returns true if a new sender became active.
func (c *client[M]) advanceOutbox() bool {
	if c.currentOutbox != nil {
		return false
	}
	if len(c.outboxQueue) == 0 {
		return false
	}
	c.currentOutbox = c.outboxQueue[0]
	c.outboxQueue = c.outboxQueue[1:]
	return true
}

// outboxDrained reports whether there is nothing left to send.
func (c *client[M]) outboxDrained() bool {
	return c.currentOutbox == nil && len(c.outboxQueue) == 0
}

// applySwap installs a pending codec swap and seeds the inbox with any
// carried-over bytes, ahead of whatever the reactor has already buffered.
func (c *client[M]) applySwap() {
	sw := c.pendingSwap
	if sw == nil {
		return
	}
	c.parser = sw.parser
	if sw.handshaker != nil {
		c.handshaker = sw.handshaker
		c.handshaking = true
	} else {
		c.handshaking = false
	}
	if len(sw.carry) > 0 {
		rest := append([]byte{}, c.inbox.Unobserved()...)
		c.inbox.Reset()
		if dst, err := c.inbox.Reserve(len(sw.carry)); err == nil {
			copy(dst, sw.carry)
			c.inbox.Commit(len(sw.carry))
		}
		if len(rest) > 0 {
			if dst, err := c.inbox.Reserve(len(rest)); err == nil {
				copy(dst, rest)
				c.inbox.Commit(len(rest))
			}
		}
	}
	c.pendingSwap = nil
}
