// File: server/message.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package server

import (
	"github.com/momentics/hioreactor/httpcodec"
	"github.com/momentics/hioreactor/wscodec"
)

// Message is the single type parameter the server's Reactor[Message] is
// instantiated with. Exactly one of HTTP or WS is non-nil: the reactor's
// protocol flip (SPEC_FULL.md §7) swaps which codec is producing these
// values for a given client, but the Reactor[M] generic instantiation
// itself cannot change type mid-flight, so both protocols project onto
// this one tagged envelope.
type Message struct {
	HTTP *httpcodec.Request
	WS   *wscodec.Message
}
