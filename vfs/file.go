// File: vfs/file.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package vfs

import (
	"os"
	"time"
)

// readFile reads path's full contents and modification time, in one
// place so loadFile and the changelog reloader share the same disk-read
// path.
func readFile(path string) ([]byte, time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	return data, info.ModTime(), nil
}
