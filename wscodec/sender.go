// File: wscodec/sender.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wscodec

import "io"

// FrameSender implements codec.Sender, draining one pre-serialized,
// unmasked server-to-client frame.
type FrameSender struct {
	data []byte
	off  int
}

// NewTextSender builds a single-frame FIN=1 text message sender.
func NewTextSender(text string) *FrameSender {
	return &FrameSender{data: encodeRawFrame(true, OpcodeText, []byte(text))}
}

// NewBinarySender builds a single-frame FIN=1 binary message sender.
func NewBinarySender(payload []byte) *FrameSender {
	return &FrameSender{data: encodeRawFrame(true, OpcodeBinary, payload)}
}

// NewPingSender builds a ping control frame sender.
func NewPingSender(payload []byte) *FrameSender {
	return &FrameSender{data: encodeRawFrame(true, OpcodePing, payload)}
}

// NewPongSender builds a pong control frame sender, normally used to
// echo a ping's payload back unchanged (spec.md's control-frame reply).
func NewPongSender(payload []byte) *FrameSender {
	return &FrameSender{data: encodeRawFrame(true, OpcodePong, payload)}
}

// NewCloseSender builds a close control frame sender.
func NewCloseSender(payload []byte) *FrameSender {
	return &FrameSender{data: encodeRawFrame(true, OpcodeClose, payload)}
}

func (s *FrameSender) Send(w io.Writer) (int, error) {
	if s.off >= len(s.data) {
		return 0, nil
	}
	n, err := w.Write(s.data[s.off:])
	s.off += n
	return n, err
}
