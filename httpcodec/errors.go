// File: httpcodec/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package httpcodec

import "fmt"

// MalformedError reports a request that will never become valid no matter
// how many more bytes arrive — distinct from the "not enough bytes yet"
// case, which Parse signals by returning (nil, input, nil) or a shortened
// remaining slice, never an error.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("httpcodec: malformed request: %s", e.Reason)
}

func malformed(reason string) error {
	return &MalformedError{Reason: reason}
}

// IsMalformed reports whether err is a MalformedError.
func IsMalformed(err error) bool {
	_, ok := err.(*MalformedError)
	return ok
}
