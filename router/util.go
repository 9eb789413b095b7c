// File: router/util.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package router

import "strings"

// pathIsSafe rejects a body path containing a parent-dir, root, or
// absolute-prefix component, per spec.md §4.5.
func pathIsSafe(p string) bool {
	if p == "" {
		return false
	}
	if strings.HasPrefix(p, "/") {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." || seg == "." {
			return false
		}
	}
	return true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
