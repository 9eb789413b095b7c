// File: reactor/reactor_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package reactor

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/momentics/hioreactor/codec"
	"github.com/stretchr/testify/require"
)

// lineMessage is the trivial newline-delimited message type used to drive
// the reactor's generic machinery end to end without a real protocol.
type lineMessage struct {
	text string
}

type lineParser struct{}

func (lineParser) Parse(input []byte) (*lineMessage, []byte, error) {
	idx := bytes.IndexByte(input, '\n')
	if idx < 0 {
		return nil, input, nil
	}
	msg := &lineMessage{text: string(input[:idx])}
	return msg, input[idx+1:], nil
}

type lineSender struct {
	data []byte
	off  int
}

func (s *lineSender) Send(w io.Writer) (int, error) {
	if s.off >= len(s.data) {
		return 0, nil
	}
	n, err := w.Write(s.data[s.off:])
	s.off += n
	return n, err
}

// noopHandshaker reports HandshakeDone immediately, consuming nothing, for
// protocols (like this test's line protocol) with no upgrade step.
type noopHandshaker struct{}

func (noopHandshaker) Advance(input []byte) (codec.HandshakeStatus, int, error) {
	return codec.HandshakeDone, 0, nil
}
func (noopHandshaker) Sender() codec.Sender { return nil }

type lineCodec struct{}

func (lineCodec) NewParser() codec.Parser[lineMessage] { return lineParser{} }
func (lineCodec) NewHandshaker() codec.Handshaker      { return noopHandshaker{} }

func generateSelfSignedCert(t *testing.T) tls.Certificate {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "hioreactor-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}
}

func newTestReactor(t *testing.T) (*Reactor[lineMessage], *tls.Config) {
	t.Helper()
	cert := generateSelfSignedCert(t)
	serverCfg := &tls.Config{Certificates: []tls.Certificate{cert}}
	r, err := New(Config{
		Addr:              "127.0.0.1:0",
		TLSConfig:         serverCfg,
		HeartbeatInterval: 20 * time.Millisecond,
	}, lineCodec{})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	clientCfg := &tls.Config{InsecureSkipVerify: true}
	return r, clientCfg
}

// nextMessage drives r.Next in a loop, skipping heartbeats, until a
// NotifySentMessage arrives or the deadline passes.
func nextMessage(t *testing.T, r *Reactor[lineMessage], deadline time.Time) Notification[lineMessage] {
	t.Helper()
	for time.Now().Before(deadline) {
		n, err := r.Next()
		require.NoError(t, err)
		if n.Kind == NotifySentMessage {
			return n
		}
	}
	t.Fatal("timed out waiting for a message")
	return Notification[lineMessage]{}
}

func TestAcceptAndParseMessage(t *testing.T) {
	r, clientCfg := newTestReactor(t)

	conn, err := tls.Dial("tcp", r.Addr().String(), clientCfg)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("hello\n"))
	require.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	notif := nextMessage(t, r, deadline)
	require.Equal(t, "hello", notif.Message.text)
}

func TestInjectQueuesWhileSending(t *testing.T) {
	r, clientCfg := newTestReactor(t)

	conn, err := tls.Dial("tcp", r.Addr().String(), clientCfg)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("ping\n"))
	require.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	notif := nextMessage(t, r, deadline)
	require.Equal(t, "ping", notif.Message.text)

	// Inject two sends back-to-back; per SPEC_FULL.md §7 these must queue
	// FIFO rather than clobber one another.
	require.NoError(t, r.Inject(notif.ID, &lineSender{data: []byte("first\n")}))
	require.NoError(t, r.Inject(notif.ID, &lineSender{data: []byte("second\n")}))

	// Drain a few more reactor steps so the writable path flushes both.
	for i := 0; i < 20; i++ {
		_, _ = r.Next()
	}

	buf := make([]byte, 64)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	total := 0
	for total < len("first\nsecond\n") {
		n, err := conn.Read(buf[total:])
		require.NoError(t, err)
		total += n
	}
	require.Equal(t, "first\nsecond\n", string(buf[:total]))
}

func TestDisconnectSilentBeforeFirstMessage(t *testing.T) {
	r, clientCfg := newTestReactor(t)

	conn, err := tls.Dial("tcp", r.Addr().String(), clientCfg)
	require.NoError(t, err)
	conn.Close() // never sends a line

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		n, err := r.Next()
		require.NoError(t, err)
		require.NotEqual(t, NotifyDisconnected, n.Kind,
			"a client that never produced a message must never announce disconnect")
	}
}

func TestStatsTracksBytesAndLiveClients(t *testing.T) {
	r, clientCfg := newTestReactor(t)

	conn, err := tls.Dial("tcp", r.Addr().String(), clientCfg)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("hello\n"))
	require.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	_ = nextMessage(t, r, deadline)

	stats := r.Stats()
	require.Equal(t, 1, stats.LiveClients)
	require.GreaterOrEqual(t, stats.BytesIn, uint64(len("hello\n")))
}

var _ net.Conn = (*tls.Conn)(nil)
