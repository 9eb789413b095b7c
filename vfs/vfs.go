// File: vfs/vfs.go
// Package vfs implements the in-memory static-file cache that backs HTTP
// response bodies (spec.md §3 "Vfs").
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package vfs

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// entry is one cached file.
type entry struct {
	data    []byte
	modTime time.Time
}

// Handle is an immutable snapshot of one cached file, safe to hold and
// stream from even if the Vfs later replaces or evicts the live entry —
// the handle keeps its own byte slice alive independent of the map
// (spec.md §5 "responses hold a reference-counted handle... independent
// of the Vfs map"; in Go this falls out of slice immutability plus the
// garbage collector, with no explicit refcount needed).
type Handle struct {
	Path    string
	Data    []byte
	ModTime time.Time
}

// Vfs is the path -> cached-bytes cache rooted at a client directory.
type Vfs struct {
	mu      sync.RWMutex
	root    string
	entries map[string]*entry

	lastRefresh time.Time
	log         *logrus.Entry
}

// New walks root (skipping dotfiles and dot-directories) and loads every
// regular file into memory, keyed by its slash-separated path relative to
// root.
func New(root string, logger *logrus.Logger) (*Vfs, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	v := &Vfs{
		root:    root,
		entries: make(map[string]*entry),
		log:     logger.WithField("component", "vfs"),
	}
	if err := v.loadAll(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vfs) loadAll() error {
	return filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := d.Name()
		if d.IsDir() {
			if base != "." && strings.HasPrefix(base, ".") && path != v.root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(base, ".") {
			return nil
		}
		return v.loadFile(path)
	})
}

// loadFile reads one file from disk into the cache, keyed by its path
// relative to root.
func (v *Vfs) loadFile(path string) error {
	rel, err := filepath.Rel(v.root, path)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)
	data, info, err := readFile(path)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.entries[rel] = &entry{data: data, modTime: info}
	v.mu.Unlock()
	return nil
}

// evict removes rel from the cache, if present. A Handle already handed
// out for rel remains valid (see Handle's doc comment).
func (v *Vfs) evict(rel string) {
	v.mu.Lock()
	delete(v.entries, rel)
	v.mu.Unlock()
}

// Get resolves rel (already sanitized by the caller — see router's
// path-safety check) against the cache.
func (v *Vfs) Get(rel string) (*Handle, bool) {
	v.mu.RLock()
	e, ok := v.entries[rel]
	v.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return &Handle{Path: rel, Data: e.data, ModTime: e.modTime}, true
}
