// File: wscodec/handshake.go
// The WebSocket upgrade handshake of spec.md §4.5/§4.6 ("Sec-WebSocket
// upgrade detection" / "Handshake (WebSocket variant)"): validate an
// already-parsed HTTP request's upgrade headers and derive the RFC 6455
// §1.3 Sec-WebSocket-Accept value. The router (the only caller reachable
// in production — HTTP is always this server's initial protocol, so a
// connection never starts life mid-handshake) owns request parsing and
// response delivery; this file is the single place that decides whether
// a request IS a valid upgrade and what its accept key is, so that logic
// exists exactly once. Grounded on the teacher's protocol/native_handshake.go
// (ComputeAcceptKey, ValidateUpgradeHeaders).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wscodec

import (
	"crypto/sha1"
	"encoding/base64"
	"strings"

	"github.com/momentics/hioreactor/httpcodec"
)

const webSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// ComputeAcceptKey implements RFC 6455 §1.3's accept-value derivation.
func ComputeAcceptKey(clientKey string) string {
	sum := sha1.Sum([]byte(clientKey + webSocketGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func containsToken(headerValue, token string) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	for _, p := range strings.Split(headerValue, ",") {
		if strings.ToLower(strings.TrimSpace(p)) == token {
			return true
		}
	}
	return false
}

// ValidateUpgrade reports whether req is a well-formed WebSocket upgrade
// request (GET method, Connection: Upgrade, Upgrade: websocket, and a
// Sec-WebSocket-Key present) and, if so, its Sec-WebSocket-Accept value.
// Callers that already know a Sec-WebSocket-Key header is present (the
// router's upgrade trigger of spec.md §4.5) use this to decide between
// completing the upgrade and rejecting a malformed one, instead of each
// re-deriving the accept key or the header checks independently.
func ValidateUpgrade(req *httpcodec.Request) (acceptKey string, ok bool) {
	key := req.Header("sec-websocket-key")
	if key == "" || req.Method != "GET" {
		return "", false
	}
	connection := req.Header("connection")
	upgrade := req.Header("upgrade")
	if connection == "" || upgrade == "" {
		return "", false
	}
	if !containsToken(connection, "upgrade") || !containsToken(upgrade, "websocket") {
		return "", false
	}
	return ComputeAcceptKey(key), true
}
