// File: httpcodec/sender.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package httpcodec

import "io"

// BodyReader is the minimal contract a Vfs-backed (or any other) body
// source must satisfy to be streamed by ResponseSender. Decoupled from
// the vfs package to avoid an import cycle (vfs has no reason to know
// about httpcodec).
type BodyReader interface {
	io.Reader
}

// ResponseSender implements codec.Sender: it first drains the serialized
// status-line-plus-headers block, then streams the body reader in fixed
// chunks, reporting exhaustion (0, nil) once both are drained.
type ResponseSender struct {
	header    []byte
	headerOff int
	body      BodyReader
	bodyDone  bool
	chunk     []byte
}

// NewResponseSender constructs a sender for resp. body may be nil for a
// headers-only response (e.g. 304 Not Modified, or a HEAD request).
func NewResponseSender(resp *Response, body BodyReader) *ResponseSender {
	s := &ResponseSender{header: SerializeHeader(resp), body: body, chunk: make([]byte, 8192)}
	if body == nil {
		s.bodyDone = true
	}
	return s
}

// Send implements codec.Sender.
func (s *ResponseSender) Send(w io.Writer) (int, error) {
	if s.headerOff < len(s.header) {
		n, err := w.Write(s.header[s.headerOff:])
		s.headerOff += n
		return n, err
	}
	if s.bodyDone {
		return 0, nil
	}
	n, rerr := s.body.Read(s.chunk)
	if n > 0 {
		wn, werr := w.Write(s.chunk[:n])
		if werr != nil {
			return wn, werr
		}
		if rerr == io.EOF {
			s.bodyDone = true
		}
		return wn, nil
	}
	if rerr == io.EOF || rerr == nil {
		s.bodyDone = true
		return 0, nil
	}
	return 0, rerr
}
