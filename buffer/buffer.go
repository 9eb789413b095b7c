// File: buffer/buffer.go
// Package buffer implements a growable append/consume byte buffer used by the
// reactor to accumulate inbound bytes between protocol parses.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import "fmt"

// ErrBufferFull is returned when appending would exceed the configured cap.
var ErrBufferFull = fmt.Errorf("buffer: capacity exceeded")

// defaultCap is used by New when no explicit cap is given.
const defaultCap = 64 * 1024

// Buffer is an append-only byte store tracking two cursors:
//
//   - committed: bytes an outside writer has appended.
//   - observed:  bytes a reader has consumed or peeked.
//
// Invariant: 0 <= observed <= committed <= len(data) <= cap.
type Buffer struct {
	data      []byte
	committed int
	observed  int
	cap       int

	totalCommitted uint64
	highWater      int
}

// Stats is a point-in-time snapshot of a Buffer's lifetime usage, sampled by
// the ambient logging/metrics layer.
type Stats struct {
	// BytesCommittedTotal is the cumulative count of bytes ever passed to
	// Commit, surviving Consume/Reset.
	BytesCommittedTotal uint64
	// HighWaterMark is the largest value Len() has ever returned.
	HighWaterMark int
}

// Stats returns the current usage snapshot.
func (b *Buffer) Stats() Stats {
	return Stats{BytesCommittedTotal: b.totalCommitted, HighWaterMark: b.highWater}
}

// New allocates a Buffer with the given hard capacity. A cap of 0 selects
// defaultCap.
func New(capHint int) *Buffer {
	if capHint <= 0 {
		capHint = defaultCap
	}
	return &Buffer{
		data: make([]byte, 0, min(capHint, 4096)),
		cap:  capHint,
	}
}

// Cap returns the hard capacity of the buffer.
func (b *Buffer) Cap() int { return b.cap }

// Len returns the number of committed bytes currently held.
func (b *Buffer) Len() int { return b.committed }

// Reserve returns a writable slice of at least n bytes past the committed
// watermark, growing the backing array (subject to the hard cap) as needed.
// The caller must write into the slice and then call Commit with the number
// of bytes actually written.
func (b *Buffer) Reserve(n int) ([]byte, error) {
	need := b.committed + n
	if need > b.cap {
		return nil, ErrBufferFull
	}
	if need > cap(b.data) {
		grown := cap(b.data) * 2
		if grown < need {
			grown = need
		}
		if grown > b.cap {
			grown = b.cap
		}
		nd := make([]byte, b.committed, grown)
		copy(nd, b.data[:b.committed])
		b.data = nd
	}
	return b.data[b.committed:cap(b.data)][:n], nil
}

// Commit advances the committed cursor by n bytes, which must have been
// written into the slice returned by the most recent Reserve call.
func (b *Buffer) Commit(n int) {
	b.committed += n
	if b.committed > len(b.data) {
		b.data = b.data[:b.committed]
	}
	b.totalCommitted += uint64(n)
	if b.committed > b.highWater {
		b.highWater = b.committed
	}
}

// Committed returns the full committed view: all bytes appended so far,
// regardless of what has been observed.
func (b *Buffer) Committed() []byte {
	return b.data[:b.committed]
}

// Unobserved returns the slice of committed bytes a reader has not yet
// consumed or peeked.
func (b *Buffer) Unobserved() []byte {
	return b.data[b.observed:b.committed]
}

// Observe advances the observed cursor without discarding bytes, used when a
// parser reports progress but no complete message yet.
func (b *Buffer) Observe(n int) {
	b.observed += n
	if b.observed > b.committed {
		b.observed = b.committed
	}
}

// Consume shifts the tail (bytes past n) to the front of the buffer and
// resets both cursors relative to the kept tail. n must not exceed
// committed. Consuming exactly committed bytes empties the buffer, resetting
// both cursors to zero (the documented tie-break in spec.md §4.1).
func (b *Buffer) Consume(n int) {
	if n <= 0 {
		return
	}
	if n >= b.committed {
		b.data = b.data[:0]
		b.committed = 0
		b.observed = 0
		return
	}
	remaining := b.committed - n
	copy(b.data[:remaining], b.data[n:b.committed])
	b.data = b.data[:remaining]
	b.committed = remaining
	if b.observed > n {
		b.observed -= n
	} else {
		b.observed = 0
	}
}

// Reset empties the buffer without reallocating.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.committed = 0
	b.observed = 0
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
