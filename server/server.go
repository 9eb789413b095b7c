// File: server/server.go
// Server wires the reactor, HTTP/WebSocket codecs, router, and Vfs into a
// single embeddable process: accept a client as HTTP, let the router
// decide routing/upgrade, flip the same connection to WebSocket framing
// in place, and hand application messages to the embedder.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package server

import (
	"crypto/tls"
	"fmt"

	"github.com/momentics/hioreactor/httpcodec"
	"github.com/momentics/hioreactor/reactor"
	"github.com/momentics/hioreactor/router"
	"github.com/momentics/hioreactor/vfs"
	"github.com/momentics/hioreactor/wscodec"
)

// MessageHandler receives application-level WebSocket messages (text or
// binary) for a given client. Registered via OnMessage.
type MessageHandler func(id reactor.StreamID, msg *wscodec.Message)

// Server is the embeddable process: one listener, one reactor, one
// router, one Vfs.
type Server struct {
	cfg     Config
	reactor *reactor.Reactor[Message]
	router  *router.Router
	vfs     *vfs.Vfs

	onMessage MessageHandler
	shutdown  chan struct{}
}

// New builds a Server from opts layered over DefaultConfig.
func New(opts ...Option) (*Server, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("server: load TLS keypair: %w", err)
	}
	tlsCfg := &tls.Config{Certificates: []tls.Certificate{cert}}

	v, err := vfs.New(cfg.ClientRoot, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("server: load Vfs root %q: %w", cfg.ClientRoot, err)
	}

	rtr := router.New(router.Config{
		ServerName: cfg.ServerName,
		Homepage:   cfg.Homepage,
		NotFound:   cfg.NotFound,
		Vfs:        v,
	})

	re, err := reactor.New[Message](reactor.Config{
		Addr:              cfg.ListenAddr,
		TLSConfig:         tlsCfg,
		HeartbeatInterval: cfg.HeartbeatInterval,
		InboxCapacity:     cfg.InboxCapacity,
		Logger:            cfg.Logger,
	}, initialCodec{})
	if err != nil {
		return nil, fmt.Errorf("server: start reactor: %w", err)
	}

	return &Server{
		cfg:      *cfg,
		reactor:  re,
		router:   rtr,
		vfs:      v,
		shutdown: make(chan struct{}),
	}, nil
}

// Router exposes the router for embedder service registration before Serve.
func (s *Server) Router() *router.Router { return s.router }

// OnMessage registers the callback invoked for every text/binary WebSocket
// message received from any client. Only the most recently registered
// handler is kept.
func (s *Server) OnMessage(fn MessageHandler) { s.onMessage = fn }

// Addr returns the reactor's bound listen address.
func (s *Server) Addr() string { return s.reactor.Addr().String() }

// Send enqueues a text WebSocket frame for id.
func (s *Server) Send(id reactor.StreamID, text string) error {
	return s.reactor.Inject(id, wscodec.NewTextSender(text))
}

// SendBinary enqueues a binary WebSocket frame for id.
func (s *Server) SendBinary(id reactor.StreamID, payload []byte) error {
	return s.reactor.Inject(id, wscodec.NewBinarySender(payload))
}

// Drop forcibly disconnects id.
func (s *Server) Drop(id reactor.StreamID) { s.reactor.Drop(id) }

// Serve runs the reactor's pull loop until Shutdown is called or the
// reactor itself reports a fatal error.
func (s *Server) Serve() error {
	for {
		select {
		case <-s.shutdown:
			return s.reactor.Close()
		default:
		}

		note, err := s.reactor.Next()
		if err != nil {
			return err
		}

		switch note.Kind {
		case reactor.NotifyHeartbeat:
			if err := s.vfs.MaybeReload(); err != nil {
				s.cfg.Logger.WithError(err).Warn("server: vfs reload failed")
			}
		case reactor.NotifySentMessage:
			s.handleMessage(note.ID, note.Message)
		case reactor.NotifyDisconnected, reactor.NotifyConnected:
			// no embedder-visible action; lifecycle logging already
			// happens inside the reactor.
		}
	}
}

// Shutdown stops Serve's loop and closes the reactor.
func (s *Server) Shutdown() {
	close(s.shutdown)
}

func (s *Server) handleMessage(id reactor.StreamID, msg Message) {
	switch {
	case msg.HTTP != nil:
		s.handleHTTP(id, msg.HTTP)
	case msg.WS != nil:
		s.handleWS(id, msg.WS)
	}
}

func (s *Server) handleHTTP(id reactor.StreamID, req *httpcodec.Request) {
	resp, body, upgrade := s.router.Route(req)

	if err := s.reactor.Inject(id, httpcodec.NewResponseSender(resp, body)); err != nil {
		s.cfg.Logger.WithError(err).Warn("server: inject HTTP response failed")
		return
	}

	if upgrade == nil {
		return
	}

	// The router already computed and sent the Sec-WebSocket-Accept
	// response, so the reactor-side handshake is already satisfied; no
	// second Handshaker is needed. The HTTP parser's own (msg, remaining,
	// err) contract already left any post-header bytes correctly
	// positioned as unobserved input via the reactor's own Consume
	// bookkeeping, so no carry bytes need transplanting either.
	if err := s.reactor.RequestSwap(id, &wsParserAdapter{a: wscodec.NewAssembler()}, nil, nil); err != nil {
		s.cfg.Logger.WithError(err).Warn("server: protocol flip to WebSocket failed")
	}
}

func (s *Server) handleWS(id reactor.StreamID, msg *wscodec.Message) {
	switch msg.Kind {
	case wscodec.KindPing:
		if err := s.reactor.Inject(id, wscodec.NewPongSender(msg.Data)); err != nil {
			s.cfg.Logger.WithError(err).Warn("server: pong reply failed")
		}
	case wscodec.KindPong:
		// no action; pong frames are ignored.
	case wscodec.KindClose:
		_ = s.reactor.Inject(id, wscodec.NewCloseSender(msg.Data))
		s.reactor.Drop(id)
	case wscodec.KindText, wscodec.KindBinary:
		if s.onMessage != nil {
			s.onMessage(id, msg)
		}
	}
}
