// File: wscodec/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wscodec

import "errors"

// Protocol violations a frame or message can raise. None of these are
// "incomplete, wait for more bytes" — each is permanent and the caller
// (reactor.driveParser) drops the connection on sight, mirroring
// httpcodec.MalformedError's incomplete-vs-malformed split.
var (
	ErrReservedBits = errors.New("wscodec: reserved bit set")
	ErrUnmasked     = errors.New("wscodec: client frame not masked")
	ErrBadOpcode    = errors.New("wscodec: unknown opcode")
	ErrCuttingIn    = errors.New("wscodec: new data frame started mid-message")
	ErrBadContinue  = errors.New("wscodec: continuation frame with no message in progress")
	ErrNotValidUTF8 = errors.New("wscodec: text payload is not valid UTF-8")
)
