// File: server/parsers.go
// Adapts httpcodec.RequestParser and wscodec.Assembler to codec.Parser
// [Message], so a single generic Reactor[Message] can serve both
// protocols across its lifetime (see message.go).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package server

import (
	"github.com/momentics/hioreactor/codec"
	"github.com/momentics/hioreactor/httpcodec"
	"github.com/momentics/hioreactor/wscodec"
)

type httpParserAdapter struct {
	p httpcodec.RequestParser
}

func (a *httpParserAdapter) Parse(input []byte) (*Message, []byte, error) {
	req, remaining, err := a.p.Parse(input)
	if err != nil {
		return nil, nil, err
	}
	if req == nil {
		return nil, remaining, nil
	}
	return &Message{HTTP: req}, remaining, nil
}

type wsParserAdapter struct {
	a *wscodec.Assembler
}

func (w *wsParserAdapter) Parse(input []byte) (*Message, []byte, error) {
	msg, remaining, err := w.a.Parse(input)
	if err != nil {
		return nil, nil, err
	}
	if msg == nil {
		return nil, remaining, nil
	}
	return &Message{WS: msg}, remaining, nil
}

// initialCodec supplies every newly accepted client with the HTTP parser
// and a no-op handshaker (HTTP itself has no handshake phase; the
// reactor's handshake step completes immediately and falls through to
// parsing, per spec.md §4.4).
type initialCodec struct{}

func (initialCodec) NewParser() codec.Parser[Message] {
	return &httpParserAdapter{}
}

func (initialCodec) NewHandshaker() codec.Handshaker {
	return httpcodec.NoopHandshaker{}
}
