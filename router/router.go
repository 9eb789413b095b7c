// File: router/router.go
// Package router implements the HTTP service table of spec.md §4.5: an
// ordered (prefix, method, handler) list, static-file fallback via the
// Vfs, and Sec-WebSocket-Key-triggered upgrade synthesis. Grounded on
// spec.md §4.5 directly; the teacher (momentics-hioload-ws) has no HTTP
// router at all, so this package is newly authored in the teacher's
// idiom (plain structs, ordered slice, no framework).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package router

import (
	"bytes"
	"strings"
	"time"

	"github.com/momentics/hioreactor/httpcodec"
	"github.com/momentics/hioreactor/vfs"
	"github.com/momentics/hioreactor/wscodec"
)

// httpDateLayout is the RFC 2822/RFC 7231 HTTP-date form spec.md §4.5
// names ("date (RFC 2822 UTC)").
const httpDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// MethodAny matches any request method.
const MethodAny = "ANY"

// Handler produces a Response for a request whose matching prefix has
// already been stripped from req.Path.
type Handler func(req *httpcodec.Request) *httpcodec.Response

// Service is one entry in the router's ordered table.
type Service struct {
	Prefix  string
	Method  string
	Handler Handler
}

// Config names the static assets the fallback logic needs.
type Config struct {
	ServerName string
	Homepage   string // Vfs path substituted when a Response has no BodyPath
	NotFound   string // Vfs path served on a 404
	Vfs        *vfs.Vfs
}

// Router matches requests against an ordered Service table and applies
// the static-file fallback/header-synthesis steps of spec.md §4.5.
type Router struct {
	cfg      Config
	services []Service
}

// New constructs a Router with no registered services.
func New(cfg Config) *Router {
	return &Router{cfg: cfg}
}

// Register appends a service to the ordered table. Earlier registrations
// take priority (spec.md §4.5 "first service whose prefix... and method
// matches").
func (r *Router) Register(prefix, method string, h Handler) {
	r.services = append(r.services, Service{Prefix: prefix, Method: method, Handler: h})
}

// UpgradeInfo is returned by Route when the request is a WebSocket
// upgrade. Key is the client's Sec-WebSocket-Key; the accept value derived
// from it is already set on the Response. UpgradeInfo just flags that the
// reactor must now flip protocols for this client.
type UpgradeInfo struct {
	Key string
}

// Route resolves req into a Response with headers fully synthesized, plus
// a non-nil BodyReader when a body must be streamed, plus non-nil
// UpgradeInfo when this response is a 101 that should trigger the
// reactor's protocol flip (SPEC_FULL.md §7).
func (r *Router) Route(req *httpcodec.Request) (*httpcodec.Response, httpcodec.BodyReader, *UpgradeInfo) {
	if key := req.Header("sec-websocket-key"); key != "" {
		if acceptKey, ok := wscodec.ValidateUpgrade(req); ok {
			resp := httpcodec.NewResponse(101, "Switching Protocols")
			resp.Set("Upgrade", "websocket")
			resp.Set("Connection", "Upgrade")
			resp.Set("Sec-WebSocket-Accept", acceptKey)
			r.appendAmbientHeaders(resp, 0)
			return resp, nil, &UpgradeInfo{Key: key}
		}
		resp := httpcodec.NewResponse(400, "Bad Request")
		r.appendAmbientHeaders(resp, 0)
		return resp, nil, nil
	}

	method := req.Method
	isHead := method == "HEAD"
	lookupMethod := method
	if isHead {
		lookupMethod = "GET"
	}

	resp := r.dispatch(lookupMethod, req)
	if resp == nil {
		resp = httpcodec.NewResponse(200, "OK")
	}

	if resp.BodyPath == "" {
		resp.BodyPath = r.cfg.Homepage
	}
	if !pathIsSafe(resp.BodyPath) {
		resp.Status, resp.StatusText = 404, "Not Found"
		resp.BodyPath = r.cfg.NotFound
	}

	handle, ok := r.cfg.Vfs.Get(resp.BodyPath)
	if !ok {
		resp.Status, resp.StatusText = 404, "Not Found"
		handle, ok = r.cfg.Vfs.Get(r.cfg.NotFound)
		if !ok {
			r.appendAmbientHeaders(resp, 0)
			return resp, nil, nil
		}
	}

	if resp.Status == 200 && method == "GET" {
		if ims := req.Header("if-modified-since"); ims != "" {
			if t, err := time.Parse(httpDateLayout, ims); err == nil {
				if !handle.ModTime.UTC().Truncate(time.Second).After(t) {
					resp.Status, resp.StatusText = 304, "Not Modified"
					r.appendAmbientHeaders(resp, 0)
					return resp, nil, nil
				}
			}
		}
	}

	r.appendAmbientHeaders(resp, len(handle.Data))
	if isHead {
		return resp, nil, nil
	}
	return resp, bytes.NewReader(handle.Data), nil
}

// dispatch finds the first matching service and invokes its handler
// against a copy of req with the matched prefix stripped from Path.
func (r *Router) dispatch(method string, req *httpcodec.Request) *httpcodec.Response {
	for _, svc := range r.services {
		if !strings.HasPrefix(req.Path, svc.Prefix) {
			continue
		}
		if svc.Method != MethodAny && svc.Method != method {
			continue
		}
		stripped := *req
		stripped.Path = strings.TrimPrefix(req.Path, svc.Prefix)
		return svc.Handler(&stripped)
	}
	return nil
}

func (r *Router) appendAmbientHeaders(resp *httpcodec.Response, contentLength int) {
	resp.Set("server", r.cfg.ServerName)
	resp.Set("date", time.Now().UTC().Format(httpDateLayout))
	resp.Set("content-length", itoa(contentLength))
}
