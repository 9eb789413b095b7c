// File: httpcodec/serialize.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package httpcodec

import (
	"fmt"
	"strings"
)

// SerializeHeader renders the status line and headers (but never the
// body) of resp, per spec.md §4.5: "the sender streams the cached body
// thereafter."
func SerializeHeader(resp *Response) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d %s\r\n", resp.Version, resp.Status, resp.StatusText)
	for _, h := range resp.Headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h.Key, h.Value)
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}
