// File: wscodec/wscodec_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wscodec

import (
	"testing"

	"github.com/momentics/hioreactor/httpcodec"
	"github.com/stretchr/testify/require"
)

func maskFrame(opcode byte, fin bool, payload []byte, mask [4]byte) []byte {
	var b0 byte
	if fin {
		b0 = 0x80
	}
	b0 |= opcode
	masked := make([]byte, len(payload))
	for i := range payload {
		masked[i] = payload[i] ^ mask[i%4]
	}

	out := []byte{b0, 0x80 | byte(len(payload))}
	out = append(out, mask[:]...)
	out = append(out, masked...)
	return out
}

func TestAcceptKeyMatchesRFC6455Example(t *testing.T) {
	require.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", ComputeAcceptKey("dGhlIHNhbXBsZSBub25jZQ=="))
}

func TestAcceptKeyIsDeterministic(t *testing.T) {
	require.Equal(t, ComputeAcceptKey("anykey123=="), ComputeAcceptKey("anykey123=="))
}

func TestDecodeMaskedSingleFrameText(t *testing.T) {
	mask := [4]byte{0x37, 0xfa, 0x21, 0x3d}
	wire := maskFrame(OpcodeText, true, []byte("Hi"), mask)

	a := NewAssembler()
	msg, remaining, err := a.Parse(wire)
	require.NoError(t, err)
	require.NotNil(t, msg)
	require.Empty(t, remaining)
	require.Equal(t, KindText, msg.Kind)
	require.Equal(t, "Hi", msg.Text)
}

func TestDecodeFragmentedTextAcrossTwoFrames(t *testing.T) {
	mask := [4]byte{0x11, 0x22, 0x33, 0x44}
	first := maskFrame(OpcodeText, false, []byte("He"), mask)
	second := maskFrame(OpcodeContinuation, true, []byte("llo"), mask)

	a := NewAssembler()
	msg, remaining, err := a.Parse(first)
	require.NoError(t, err)
	require.Nil(t, msg)
	require.Empty(t, remaining)

	msg, remaining, err = a.Parse(second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	require.Empty(t, remaining)
	require.Equal(t, "Hello", msg.Text)
}

func TestDecodeFragmentedFramesInOneParseCall(t *testing.T) {
	mask := [4]byte{0xaa, 0xbb, 0xcc, 0xdd}
	first := maskFrame(OpcodeText, false, []byte("He"), mask)
	second := maskFrame(OpcodeContinuation, true, []byte("llo"), mask)
	combined := append(append([]byte{}, first...), second...)

	a := NewAssembler()
	msg, remaining, err := a.Parse(combined)
	require.NoError(t, err)
	require.NotNil(t, msg)
	require.Empty(t, remaining)
	require.Equal(t, "Hello", msg.Text)
}

func TestDecodeIncompleteFrameAwaitsMoreBytes(t *testing.T) {
	mask := [4]byte{1, 2, 3, 4}
	wire := maskFrame(OpcodeText, true, []byte("Hello"), mask)

	a := NewAssembler()
	msg, remaining, err := a.Parse(wire[:4])
	require.NoError(t, err)
	require.Nil(t, msg)
	require.Len(t, remaining, 4)
}

func TestDecodeUnmaskedClientFrameRejected(t *testing.T) {
	wire := []byte{0x81, 0x02, 'H', 'i'}
	a := NewAssembler()
	_, _, err := a.Parse(wire)
	require.ErrorIs(t, err, ErrUnmasked)
}

func TestDecodeReservedBitRejected(t *testing.T) {
	mask := [4]byte{1, 2, 3, 4}
	wire := maskFrame(OpcodeText, true, []byte("x"), mask)
	wire[0] |= 0x40 // RSV1
	a := NewAssembler()
	_, _, err := a.Parse(wire)
	require.ErrorIs(t, err, ErrReservedBits)
}

func TestDecodeBadOpcodeRejected(t *testing.T) {
	mask := [4]byte{1, 2, 3, 4}
	wire := maskFrame(0x3, true, []byte("x"), mask)
	a := NewAssembler()
	_, _, err := a.Parse(wire)
	require.ErrorIs(t, err, ErrBadOpcode)
}

func TestDecodeContinuationWithoutStartRejected(t *testing.T) {
	mask := [4]byte{1, 2, 3, 4}
	wire := maskFrame(OpcodeContinuation, true, []byte("x"), mask)
	a := NewAssembler()
	_, _, err := a.Parse(wire)
	require.ErrorIs(t, err, ErrBadContinue)
}

func TestDecodeNewDataFrameMidMessageRejected(t *testing.T) {
	mask := [4]byte{1, 2, 3, 4}
	first := maskFrame(OpcodeText, false, []byte("He"), mask)
	second := maskFrame(OpcodeText, true, []byte("llo"), mask)

	a := NewAssembler()
	_, _, err := a.Parse(first)
	require.NoError(t, err)
	_, _, err = a.Parse(second)
	require.ErrorIs(t, err, ErrCuttingIn)
}

func TestDecodeInvalidUTF8Rejected(t *testing.T) {
	mask := [4]byte{9, 8, 7, 6}
	wire := maskFrame(OpcodeText, true, []byte{0xff, 0xfe}, mask)
	a := NewAssembler()
	_, _, err := a.Parse(wire)
	require.ErrorIs(t, err, ErrNotValidUTF8)
}

func TestDecodePingProducesControlMessage(t *testing.T) {
	mask := [4]byte{1, 1, 1, 1}
	wire := maskFrame(OpcodePing, true, []byte("ping-data"), mask)
	a := NewAssembler()
	msg, _, err := a.Parse(wire)
	require.NoError(t, err)
	require.Equal(t, KindPing, msg.Kind)
	require.Equal(t, []byte("ping-data"), msg.Data)
}

func TestFrameLengthEncodingBoundaries(t *testing.T) {
	cases := []struct {
		n           int
		wantHeadLen int
		wantMarker  byte
	}{
		{125, 2, 125},
		{126, 4, 126},
		{65535, 4, 126},
		{65536, 10, 127},
	}
	for _, tc := range cases {
		payload := make([]byte, tc.n)
		wire := encodeRawFrame(true, OpcodeBinary, payload)
		require.Equal(t, tc.wantMarker, wire[1]&0x7F)
		require.Equal(t, tc.wantHeadLen+tc.n, len(wire))
	}
}

func TestRoundTripMaskUnmask(t *testing.T) {
	mask := [4]byte{0xde, 0xad, 0xbe, 0xef}
	payload := []byte("round trip payload data")
	wire := maskFrame(OpcodeBinary, true, payload, mask)

	a := NewAssembler()
	msg, _, err := a.Parse(wire)
	require.NoError(t, err)
	require.Equal(t, payload, msg.Data)
}

func TestValidateUpgradeAcceptsWellFormedRequest(t *testing.T) {
	raw := "GET /chat HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"Connection: Upgrade\r\n" +
		"Upgrade: websocket\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"Sec-WebSocket-Version: 13\r\n\r\n"

	req, remaining, err := httpcodec.RequestParser{}.Parse([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, req)
	require.Empty(t, remaining)

	accept, ok := ValidateUpgrade(req)
	require.True(t, ok)
	require.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", accept)
}

func TestValidateUpgradeRejectsMissingUpgradeHeader(t *testing.T) {
	raw := "GET /chat HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"

	req, _, err := httpcodec.RequestParser{}.Parse([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, req)

	_, ok := ValidateUpgrade(req)
	require.False(t, ok)
}
