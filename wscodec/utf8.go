// File: wscodec/utf8.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wscodec

import "unicode/utf8"

// validUTF8PrefixLen walks b and returns how many leading bytes form
// complete, valid UTF-8 runes, plus whether the remainder (if any) is a
// genuinely invalid encoding rather than just a truncated trailing rune
// that later frame data could complete. Text frame payloads are
// validated incrementally per segment (spec.md §5.2 supplement); a
// multi-byte rune split across a frame boundary must not be flagged
// invalid until it's known to be unrecoverable.
func validUTF8PrefixLen(b []byte) (n int, ok bool) {
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			if utf8.FullRune(b) {
				return n, false
			}
			return n, true
		}
		n += size
		b = b[size:]
	}
	return n, true
}
