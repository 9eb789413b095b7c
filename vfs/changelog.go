// File: vfs/changelog.go
// Implements the optional `.changelog` hot-reload mechanism of spec.md §6:
// a ~800ms-cadence, self-gated refresh driven by the embedder on each
// heartbeat (the reactor itself runs no background threads, so the
// cadence is enforced here via a stored last-refresh timestamp rather
// than a timer goroutine).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package vfs

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const reloadInterval = 800 * time.Millisecond

const changelogName = ".changelog"
const deletePrefix = "DELETE\t"

// MaybeReload checks whether enough time has passed since the last
// refresh and, if so, processes `.changelog` in the client root. Safe to
// call on every heartbeat; it is a no-op between cadences and when no
// changelog file is present.
func (v *Vfs) MaybeReload() error {
	now := time.Now()
	v.mu.Lock()
	if now.Sub(v.lastRefresh) < reloadInterval {
		v.mu.Unlock()
		return nil
	}
	v.lastRefresh = now
	v.mu.Unlock()
	return v.processChangelog()
}

func (v *Vfs) processChangelog() error {
	path := filepath.Join(v.root, changelogName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, block := range strings.Split(string(raw), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if strings.HasPrefix(block, deletePrefix) {
			rel := strings.TrimSpace(strings.TrimPrefix(block, deletePrefix))
			v.evict(rel)
			v.log.WithField("path", rel).Debug("changelog evicted entry")
			continue
		}
		rel := block
		full := filepath.Join(v.root, filepath.FromSlash(rel))
		if err := v.loadFile(full); err != nil {
			v.log.WithField("path", rel).WithError(err).Warn("changelog reload failed")
			continue
		}
		v.log.WithField("path", rel).Debug("changelog reloaded entry")
	}

	return os.Remove(path)
}
