// File: server/types.go
// Package server wires the reactor, HTTP codec, WebSocket codec, router,
// and Vfs into a single embeddable process, per spec.md §6's external
// interfaces. Grounded on the teacher's server/types.go and
// server/options.go naming (Config/DefaultConfig, functional
// ServerOption), generalized away from the teacher's DPDK/NUMA/executor
// worker-pool design — this module is single-threaded end to end
// (spec.md §1), so no thread pool, affinity pinning, or session manager
// carries over; see DESIGN.md for the per-concern justification.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package server

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds every parameter needed to stand up one server instance.
type Config struct {
	ListenAddr string

	CertFile string
	KeyFile  string

	ClientRoot string // directory the Vfs loads static assets from
	Homepage   string // Vfs path substituted for an empty body path
	NotFound   string // Vfs path served on 404

	ServerName        string
	HeartbeatInterval time.Duration
	InboxCapacity     int

	Logger *logrus.Logger
}

// DefaultConfig returns baseline settings; callers override via Option.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:        ":8443",
		ClientRoot:        "./public",
		Homepage:          "index.html",
		NotFound:          "404.html",
		ServerName:        "hioreactor",
		HeartbeatInterval: 800 * time.Millisecond,
		InboxCapacity:     64 * 1024,
		Logger:            logrus.StandardLogger(),
	}
}

// Option customizes a Config before the Server is built.
type Option func(*Config)

// WithListenAddr overrides the TCP listen address.
func WithListenAddr(addr string) Option {
	return func(c *Config) { c.ListenAddr = addr }
}

// WithTLSFiles points the server at a PEM certificate and private key.
func WithTLSFiles(certFile, keyFile string) Option {
	return func(c *Config) { c.CertFile, c.KeyFile = certFile, keyFile }
}

// WithClientRoot sets the directory the Vfs caches at startup.
func WithClientRoot(dir string) Option {
	return func(c *Config) { c.ClientRoot = dir }
}

// WithHomepage sets the Vfs path served when a handler leaves the body
// path empty.
func WithHomepage(path string) Option {
	return func(c *Config) { c.Homepage = path }
}

// WithNotFound sets the Vfs path served on a 404.
func WithNotFound(path string) Option {
	return func(c *Config) { c.NotFound = path }
}

// WithHeartbeatInterval overrides the reactor's heartbeat cadence, which
// also drives the Vfs's `.changelog` reload check.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(c *Config) { c.HeartbeatInterval = d }
}

// WithServerName overrides the `server` response header value.
func WithServerName(name string) Option {
	return func(c *Config) { c.ServerName = name }
}

// WithLogger overrides the structured logging sink.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithInboxCapacity overrides each client's inbound buffer cap.
func WithInboxCapacity(n int) Option {
	return func(c *Config) { c.InboxCapacity = n }
}
