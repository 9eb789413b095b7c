// File: httpcodec/util.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package httpcodec

import "strings"

func lowerASCII(s string) string {
	return strings.ToLower(s)
}

func parseQuery(raw string) map[string]string {
	out := map[string]string{}
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		if i := strings.IndexByte(pair, '='); i >= 0 {
			out[pair[:i]] = pair[i+1:]
		} else {
			out[pair] = ""
		}
	}
	return out
}
