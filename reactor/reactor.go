// File: reactor/reactor.go
// Package reactor implements the generic connection multiplexer of
// spec.md §4.4: it owns the listening socket, the event notifier, the
// per-client state machines, and yields a pull-based stream of
// Notification[M] values to its embedder. Replaces the teacher's dummy
// slice-based Reactor (api.NetConn registration, no real poll loop) with
// the epoll-driven design spec.md demands.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package reactor

import (
	"crypto/tls"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/momentics/hioreactor/buffer"
	"github.com/momentics/hioreactor/codec"
	"github.com/momentics/hioreactor/tlsio"
	"github.com/sirupsen/logrus"
)

// inboxPool recycles client inbox buffers across connect/disconnect cycles
// instead of allocating a fresh one per accepted connection. A thin
// domain-specific wrapper over sync.Pool rather than a generic package,
// since the reactor is its only user and its only element type is
// *buffer.Buffer reset to its configured capacity.
type inboxPool struct {
	pool *sync.Pool
}

func newInboxPool(capacity int) *inboxPool {
	return &inboxPool{pool: &sync.Pool{New: func() any { return buffer.New(capacity) }}}
}

func (p *inboxPool) get() *buffer.Buffer  { return p.pool.Get().(*buffer.Buffer) }
func (p *inboxPool) put(b *buffer.Buffer) { b.Reset(); p.pool.Put(b) }

// Codec supplies fresh parser/handshaker instances for each newly accepted
// client. A protocol with no handshake (e.g. HTTP, via
// httpcodec.NoopHandshaker) returns a Handshaker that immediately reports
// HandshakeDone.
type Codec[M any] interface {
	NewParser() codec.Parser[M]
	NewHandshaker() codec.Handshaker
}

// Config tunes the reactor's non-protocol behavior.
type Config struct {
	// Addr is the TCP listen address, e.g. ":8443".
	Addr string
	// TLSConfig supplies the certificate chain and private key; required.
	TLSConfig *tls.Config
	// HeartbeatInterval, when > 0, makes the reactor emit NotifyHeartbeat
	// approximately every interval regardless of I/O. Zero or a negative
	// value disables heartbeats: the poll blocks until I/O readiness and
	// no NotifyHeartbeat is emitted; there is no non-blocking
	// heartbeat-on-every-quiet-pass mode.
	HeartbeatInterval time.Duration
	// InboxCapacity bounds each client's inbound buffer; exceeding it
	// drops the client.
	InboxCapacity int
	// Logger receives structured per-drop/per-error diagnostics. Defaults
	// to logrus.StandardLogger().
	Logger *logrus.Logger
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.InboxCapacity <= 0 {
		out.InboxCapacity = 64 * 1024
	}
	if out.Logger == nil {
		out.Logger = logrus.StandardLogger()
	}
	return out
}

// Reactor is the generic per-protocol event loop.
type Reactor[M any] struct {
	cfg      Config
	codec    Codec[M]
	listener *rawListener
	poll     poller
	rng      *rand.Rand

	clients map[StreamID]*client[M]
	fdToID  map[uintptr]StreamID

	inboxPool *inboxPool

	disconnectQueue *queue.Queue

	events       []readyEvent
	eventsCursor int

	nextHeartbeat time.Time
	heartbeatSet  bool

	bytesIn           uint64
	bytesOut          uint64
	heartbeatsEmitted uint64

	log *logrus.Entry
}

// Stats is a point-in-time snapshot of reactor-wide activity, sampled by
// the ambient logging/metrics layer (SPEC_FULL.md §5.4).
type Stats struct {
	LiveClients       int
	BytesIn           uint64
	BytesOut          uint64
	HeartbeatsEmitted uint64
}

// Stats returns the current activity snapshot.
func (r *Reactor[M]) Stats() Stats {
	return Stats{
		LiveClients:       len(r.clients),
		BytesIn:           r.bytesIn,
		BytesOut:          r.bytesOut,
		HeartbeatsEmitted: r.heartbeatsEmitted,
	}
}

// New constructs a Reactor bound to cfg.Addr, ready to drive via Next.
func New[M any](cfg Config, c Codec[M]) (*Reactor[M], error) {
	if cfg.TLSConfig == nil {
		return nil, fmt.Errorf("reactor: TLSConfig is required")
	}
	full := cfg.withDefaults()

	ln, err := newRawListener(full.Addr)
	if err != nil {
		return nil, err
	}
	p, err := newPoller()
	if err != nil {
		ln.Close()
		return nil, err
	}
	if err := p.registerListener(ln.Fd()); err != nil {
		ln.Close()
		p.close()
		return nil, err
	}

	r := &Reactor[M]{
		cfg:             full,
		codec:           c,
		listener:        ln,
		poll:            p,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		clients:         make(map[StreamID]*client[M]),
		fdToID:          make(map[uintptr]StreamID),
		disconnectQueue: queue.New(),
		log:             full.Logger.WithField("component", "reactor"),
	}
	r.inboxPool = newInboxPool(full.InboxCapacity)
	if full.HeartbeatInterval > 0 {
		r.heartbeatSet = true
		r.nextHeartbeat = time.Now().Add(full.HeartbeatInterval)
	}
	return r, nil
}

// Close tears down the listener and poller, closing all live clients.
func (r *Reactor[M]) Close() error {
	for id := range r.clients {
		r.dropClient(id, nil)
	}
	r.poll.close()
	return r.listener.Close()
}

// LiveClients returns the number of currently registered clients.
func (r *Reactor[M]) LiveClients() int { return len(r.clients) }

// Addr reports the listener's bound address, useful when Config.Addr used
// an ephemeral port (":0").
func (r *Reactor[M]) Addr() net.Addr { return r.listener.Addr() }

// Inject queues an outbound message for id. Per the Open Question
// resolution (SPEC_FULL.md §7), messages queue FIFO rather than overwrite
// an in-flight send.
func (r *Reactor[M]) Inject(id StreamID, s codec.Sender) error {
	c, ok := r.clients[id]
	if !ok {
		return fmt.Errorf("reactor: unknown client %d", id)
	}
	c.enqueueOutbound(s)
	return r.tryDrainOutbox(id, c)
}

// RequestSwap schedules a codec swap for id, applied once the client's
// entire outbound queue has drained (the HTTP→WebSocket handoff of
// SPEC_FULL.md §7). carry is replayed ahead of whatever is already
// buffered in the client's inbox once the swap is applied.
func (r *Reactor[M]) RequestSwap(id StreamID, parser codec.Parser[M], hs codec.Handshaker, carry []byte) error {
	c, ok := r.clients[id]
	if !ok {
		return fmt.Errorf("reactor: unknown client %d", id)
	}
	c.pendingSwap = &swapRequest[M]{parser: parser, handshaker: hs, carry: carry}
	if c.outboxDrained() {
		c.applySwap()
	}
	return nil
}

// Drop explicitly removes a client, per spec.md §3 "on explicit embedder
// request".
func (r *Reactor[M]) Drop(id StreamID) {
	r.dropClient(id, nil)
}

// Next drives the reactor one step and returns the next notification. It
// first drains any queued Disconnected notifications in FIFO order, then
// resumes processing events left over from the previous poll before
// polling the OS notifier again.
func (r *Reactor[M]) Next() (Notification[M], error) {
	for {
		if r.disconnectQueue.Length() > 0 {
			id := r.disconnectQueue.Remove().(StreamID)
			return Notification[M]{Kind: NotifyDisconnected, ID: id}, nil
		}

		if r.heartbeatSet && time.Until(r.nextHeartbeat) <= 0 {
			r.nextHeartbeat = time.Now().Add(r.cfg.HeartbeatInterval)
			r.heartbeatsEmitted++
			return Notification[M]{Kind: NotifyHeartbeat}, nil
		}

		if r.eventsCursor >= len(r.events) {
			evs, err := r.poll.wait(r.pollTimeout())
			if err != nil {
				return Notification[M]{}, err
			}
			r.events = evs
			r.eventsCursor = 0
			if len(evs) == 0 {
				if r.heartbeatSet && r.cfg.HeartbeatInterval == 0 {
					r.heartbeatsEmitted++
					return Notification[M]{Kind: NotifyHeartbeat}, nil
				}
				continue
			}
		}

		for r.eventsCursor < len(r.events) {
			ev := r.events[r.eventsCursor]
			r.eventsCursor++

			if ev.fd == r.listener.Fd() {
				r.acceptAll()
				continue
			}

			id, ok := r.fdToID[ev.fd]
			if !ok {
				continue
			}
			notif, emitted := r.handleClientEvent(id, ev)
			if emitted {
				return notif, nil
			}
		}
	}
}

func (r *Reactor[M]) pollTimeout() time.Duration {
	if !r.heartbeatSet {
		return -1
	}
	if r.cfg.HeartbeatInterval == 0 {
		return 0
	}
	remaining := time.Until(r.nextHeartbeat)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// acceptAll accepts every pending connection on the listener: spec.md
// §4.4 step 1, "accept all pending connections (loop until would-block)".
func (r *Reactor[M]) acceptAll() {
	for {
		stream, local, remote, err := acceptStream(r.listener, r.cfg.TLSConfig)
		if err != nil {
			if tlsio.IsWouldBlock(err) {
				return
			}
			r.log.WithError(err).Warn("accept failed")
			return
		}
		id, err := allocateID(r.clients, r.rng)
		if err != nil {
			r.log.WithError(err).Error("stream id allocation failed")
			stream.Close()
			return
		}
		c := newClient[M](id, stream, r.codec.NewParser(), r.codec.NewHandshaker(), true, r.inboxPool.get())
		r.clients[id] = c
		r.fdToID[stream.Fd()] = id
		if err := r.poll.registerClient(stream.Fd()); err != nil {
			r.log.WithError(err).Warn("register client failed")
			delete(r.clients, id)
			delete(r.fdToID, stream.Fd())
			stream.Close()
			continue
		}
		r.log.WithFields(logrus.Fields{
			"stream_id":   id,
			"remote_addr": addrString(remote),
			"local_addr":  addrString(local),
		}).Debug("accepted connection")
	}
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}

// handleClientEvent runs spec.md §4.4 steps 2a-2e for one readiness event,
// returning a notification to emit (if any) and whether Next should
// return it immediately.
func (r *Reactor[M]) handleClientEvent(id StreamID, ev readyEvent) (Notification[M], bool) {
	c, ok := r.clients[id]
	if !ok {
		return Notification[M]{}, false
	}

	// 2a: TLS handshake still in progress.
	if c.stream.Handshaking() {
		err := c.stream.HandshakeDrive()
		if err == nil {
			return Notification[M]{}, false
		}
		if tlsio.IsWouldBlock(err) {
			return Notification[M]{}, false
		}
		// Fatal or peer EOF during the TLS handshake never announces a
		// disconnect (spec.md §4.4).
		r.dropClientSilently(id)
		return Notification[M]{}, false
	}

	// 2b: writable -> flush staged ciphertext, then drive the outbox.
	if ev.writable {
		if err := c.stream.Flush(); err != nil && !tlsio.IsWouldBlock(err) {
			r.log.WithField("stream_id", id).WithError(err).Debug("flush failed")
			r.dropClient(id, c)
			return Notification[M]{}, false
		}
		if !c.handshaking {
			if err := r.tryDrainOutbox(id, c); err != nil {
				r.dropClient(id, c)
				return Notification[M]{}, false
			}
		}
	}

	// 2c: readable -> drain into the inbox.
	if ev.readable {
		if err := r.drainInbox(c); err != nil {
			r.log.WithField("stream_id", id).WithError(err).Debug("read failed")
			r.dropClient(id, c)
			return Notification[M]{}, false
		}
	}

	if !ev.readable {
		return Notification[M]{}, false
	}

	if c.handshaking {
		return r.driveHandshaker(id, c)
	}
	return r.driveParser(id, c)
}

// tryDrainOutbox advances c's outbound sender(s) to completion against the
// TLS stream (codec.SendAll), applying a pending codec swap once
// everything has drained.
func (r *Reactor[M]) tryDrainOutbox(id StreamID, c *client[M]) error {
	_ = id
	for {
		if c.currentOutbox == nil {
			if !c.advanceOutbox() {
				break
			}
		}
		n, err := codec.SendAll(c.stream, c.currentOutbox)
		r.bytesOut += uint64(n)
		if err != nil {
			if tlsio.IsWouldBlock(err) {
				return nil
			}
			return err
		}
		c.currentOutbox = nil
		if !c.advanceOutbox() {
			break
		}
	}
	if c.outboxDrained() && c.pendingSwap != nil {
		c.applySwap()
	}
	return nil
}

// drainInbox reads from the TLS stream into c's inbox until would-block.
func (r *Reactor[M]) drainInbox(c *client[M]) error {
	for {
		dst, rerr := c.inbox.Reserve(4096)
		if rerr != nil {
			return nil // inbox saturated; let the parser consume first
		}
		n, err := c.stream.Read(dst)
		if n > 0 {
			c.inbox.Commit(n)
			r.bytesIn += uint64(n)
		}
		if err != nil {
			if tlsio.IsWouldBlock(err) {
				return nil
			}
			return err
		}
	}
}

// driveHandshaker implements spec.md §4.4 step 2e.
func (r *Reactor[M]) driveHandshaker(id StreamID, c *client[M]) (Notification[M], bool) {
	input := c.inbox.Unobserved()
	if len(input) == 0 {
		return Notification[M]{}, false
	}
	status, consumed, err := c.handshaker.Advance(input)
	if err != nil {
		r.log.WithField("stream_id", id).WithError(err).Debug("handshake failed")
		r.dropClient(id, c)
		return Notification[M]{}, false
	}
	if consumed > 0 {
		c.inbox.Consume(consumed)
	}

	switch status {
	case codec.HandshakeWaiting:
		if consumed == 0 {
			// No progress: mark these bytes observed so the driver waits
			// for more rather than re-offering the same prefix forever.
			c.inbox.Observe(len(input))
		}
		return Notification[M]{}, false
	case codec.HandshakeResponding:
		c.enqueueOutbound(c.handshaker.Sender())
		if derr := r.tryDrainOutbox(id, c); derr != nil {
			r.dropClient(id, c)
		}
		return Notification[M]{}, false
	case codec.HandshakeDone:
		c.handshaking = false
		return r.driveParser(id, c)
	default:
		return Notification[M]{}, false
	}
}

// driveParser implements spec.md §4.4 step 2d.
func (r *Reactor[M]) driveParser(id StreamID, c *client[M]) (Notification[M], bool) {
	for {
		input := c.inbox.Unobserved()
		if len(input) == 0 {
			return Notification[M]{}, false
		}
		msg, remaining, err := c.parser.Parse(input)
		if err != nil {
			r.log.WithField("stream_id", id).WithError(err).Debug("parse failed")
			r.dropClient(id, c)
			return Notification[M]{}, false
		}
		consumed := len(input) - len(remaining)
		if msg != nil {
			c.inbox.Consume(consumed)
			c.producedMessage = true
			return Notification[M]{Kind: NotifySentMessage, ID: id, Message: *msg}, true
		}
		if consumed == 0 {
			if _, ferr := c.inbox.Reserve(4096); ferr != nil {
				// The inbox is full and holds no parseable prefix, so no
				// further read can complete a message: drop the client.
				r.log.WithField("stream_id", id).Warn("inbox capacity exceeded")
				r.dropClient(id, c)
				return Notification[M]{}, false
			}
			return Notification[M]{}, false // no progress; wait for more bytes
		}
		c.inbox.Consume(consumed)
		// partial progress: loop and retry against the remainder
	}
}

func (r *Reactor[M]) dropClient(id StreamID, c *client[M]) {
	if c == nil {
		var ok bool
		c, ok = r.clients[id]
		if !ok {
			return
		}
	}
	r.unregisterClient(id, c)
	if c.producedMessage {
		r.disconnectQueue.Add(id)
	}
}

// dropClientSilently removes a client without ever queueing a Disconnected
// notification, used for TLS-handshake-phase failures (spec.md §4.4).
func (r *Reactor[M]) dropClientSilently(id StreamID) {
	c, ok := r.clients[id]
	if !ok {
		return
	}
	r.unregisterClient(id, c)
}

func (r *Reactor[M]) unregisterClient(id StreamID, c *client[M]) {
	r.poll.unregister(c.stream.Fd())
	delete(r.fdToID, c.stream.Fd())
	delete(r.clients, id)
	c.stream.Close()
	r.inboxPool.put(c.inbox)
}
