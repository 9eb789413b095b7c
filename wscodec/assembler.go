// File: wscodec/assembler.go
// Implements codec.Parser[Message]: decodes one or more raw frames into a
// single application-visible Message, handling continuation fragmentation
// and control frames per spec.md §4.6 and SPEC_FULL.md §5.6.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wscodec

// Assembler is a stateful per-connection WebSocket message parser.
type Assembler struct {
	inProgress bool
	opcode     byte
	buf        []byte
}

// NewAssembler constructs a fresh per-connection Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Parse implements codec.Parser[Message].
func (a *Assembler) Parse(input []byte) (*Message, []byte, error) {
	remaining := input
	for {
		frame, consumed, err := decodeRawFrame(remaining)
		if err != nil {
			return nil, nil, err
		}
		if frame == nil {
			return nil, remaining, nil
		}
		remaining = remaining[consumed:]

		switch frame.opcode {
		case OpcodePing:
			return &Message{Kind: KindPing, Data: frame.payload}, remaining, nil
		case OpcodePong:
			return &Message{Kind: KindPong, Data: frame.payload}, remaining, nil
		case OpcodeClose:
			return &Message{Kind: KindClose, Data: frame.payload}, remaining, nil

		case OpcodeContinuation:
			if !a.inProgress {
				return nil, nil, ErrBadContinue
			}
			a.buf = append(a.buf, frame.payload...)
			if a.opcode == OpcodeText {
				if _, ok := validUTF8PrefixLen(a.buf); !ok {
					return nil, nil, ErrNotValidUTF8
				}
			}
			if frame.fin {
				return a.finish(remaining)
			}
			// Partial progress; loop to see if the next frame already
			// arrived in this same input.
			continue

		case OpcodeText, OpcodeBinary:
			if a.inProgress {
				return nil, nil, ErrCuttingIn
			}
			a.inProgress = true
			a.opcode = frame.opcode
			a.buf = append(a.buf[:0], frame.payload...)
			if a.opcode == OpcodeText {
				if _, ok := validUTF8PrefixLen(a.buf); !ok {
					a.reset()
					return nil, nil, ErrNotValidUTF8
				}
			}
			if frame.fin {
				return a.finish(remaining)
			}
			continue
		}
	}
}

func (a *Assembler) finish(remaining []byte) (*Message, []byte, error) {
	if a.opcode == OpcodeText {
		n, ok := validUTF8PrefixLen(a.buf)
		if !ok || n != len(a.buf) {
			a.reset()
			return nil, nil, ErrNotValidUTF8
		}
	}
	msg := &Message{Data: a.buf}
	if a.opcode == OpcodeText {
		msg.Kind = KindText
		msg.Text = string(a.buf)
		msg.Data = nil
	} else {
		msg.Kind = KindBinary
	}
	a.reset()
	return msg, remaining, nil
}

func (a *Assembler) reset() {
	a.inProgress = false
	a.opcode = 0
	a.buf = nil
}
