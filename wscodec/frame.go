// File: wscodec/frame.go
// Wire-level WebSocket frame codec: tiered 7/16/64-bit length encoding and
// mask-key XOR, lifted from the teacher's protocol/frame_codec.go and
// adapted to also enforce the server-receives-only-masked-frames and
// reserved-bits-must-be-zero rules RFC 6455 requires of a server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wscodec

import "encoding/binary"

// rawFrame is one decoded wire frame, payload already unmasked.
type rawFrame struct {
	fin     bool
	opcode  byte
	payload []byte
}

// decodeRawFrame parses one frame from the front of input. A nil frame
// with a nil error means incomplete — wait for more bytes. A non-nil
// error is a permanent protocol violation.
func decodeRawFrame(input []byte) (*rawFrame, int, error) {
	if len(input) < 2 {
		return nil, 0, nil
	}
	b0 := input[0]
	if b0&0x70 != 0 {
		return nil, 0, ErrReservedBits
	}
	fin := b0&0x80 != 0
	opcode := b0 & 0x0F
	switch opcode {
	case OpcodeContinuation, OpcodeText, OpcodeBinary, OpcodeClose, OpcodePing, OpcodePong:
	default:
		return nil, 0, ErrBadOpcode
	}

	b1 := input[1]
	masked := b1&0x80 != 0
	if !masked {
		return nil, 0, ErrUnmasked
	}
	length := int64(b1 & 0x7F)
	offset := 2

	switch length {
	case 126:
		if len(input) < offset+2 {
			return nil, 0, nil
		}
		length = int64(binary.BigEndian.Uint16(input[offset:]))
		offset += 2
	case 127:
		if len(input) < offset+8 {
			return nil, 0, nil
		}
		length = int64(binary.BigEndian.Uint64(input[offset:]))
		offset += 8
	}

	if len(input) < offset+4 {
		return nil, 0, nil
	}
	var maskKey [4]byte
	copy(maskKey[:], input[offset:offset+4])
	offset += 4

	total := offset + int(length)
	if len(input) < total {
		return nil, 0, nil
	}

	payload := make([]byte, length)
	src := input[offset:total]
	for i := int64(0); i < length; i++ {
		payload[i] = src[i] ^ maskKey[i%4]
	}

	return &rawFrame{fin: fin, opcode: opcode, payload: payload}, total, nil
}

// encodeRawFrame serializes one unmasked server-to-client frame (RFC 6455
// forbids the server from masking its frames).
func encodeRawFrame(fin bool, opcode byte, payload []byte) []byte {
	var b0 byte
	if fin {
		b0 = 0x80
	}
	b0 |= opcode & 0x0F

	plen := len(payload)
	var hdr [10]byte
	var header []byte
	switch {
	case plen <= 125:
		header = hdr[:2]
		header[1] = byte(plen)
	case plen <= 0xFFFF:
		header = hdr[:4]
		header[1] = 126
		binary.BigEndian.PutUint16(header[2:], uint16(plen))
	default:
		header = hdr[:10]
		header[1] = 127
		binary.BigEndian.PutUint64(header[2:], uint64(plen))
	}
	header[0] = b0

	out := make([]byte, 0, len(header)+plen)
	out = append(out, header...)
	out = append(out, payload...)
	return out
}
