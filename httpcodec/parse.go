// File: httpcodec/parse.go
// Generalized from protocol/frame_codec.go's DecodeFrameFromBytes shape
// ((value, consumed, err) with nil/nil/nil meaning "not enough bytes
// yet") applied to HTTP/1.1 start-line + header + content-length framing
// instead of WebSocket frames.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package httpcodec

import (
	"bytes"
	"strconv"
	"strings"
)

// RequestParser implements codec.Parser[Request].
type RequestParser struct{}

// Parse implements the codec.Parser contract: (request, remaining, nil)
// on a complete request; (nil, input, nil) when more bytes are needed;
// (nil, nil, err) when the bytes seen so far can never become valid.
func (RequestParser) Parse(input []byte) (*Request, []byte, error) {
	// spec.md §8 boundary behaviour: a leading "\r\n\r\n" is consumed, not
	// treated as a complete empty request — skip any number of them before
	// looking for the real start line.
	for bytes.HasPrefix(input, []byte("\r\n\r\n")) {
		input = input[4:]
	}
	if len(input) == 0 {
		return nil, input, nil
	}

	idx := bytes.Index(input, []byte("\r\n\r\n"))
	if idx < 0 {
		return nil, input, nil
	}
	headerSection := input[:idx]
	rest := input[idx+4:]

	if err := validateHeaderBytes(headerSection); err != nil {
		return nil, nil, err
	}

	lines := bytes.Split(headerSection, []byte("\r\n"))
	if len(lines) == 0 || len(lines[0]) == 0 {
		return nil, nil, malformed("empty start line")
	}

	req, err := parseStartLine(string(lines[0]))
	if err != nil {
		return nil, nil, err
	}

	headers, err := parseHeaderLines(lines[1:])
	if err != nil {
		return nil, nil, err
	}
	req.Headers = headers

	if cl, ok := headers["content-length"]; ok {
		n, perr := strconv.ParseUint(cl, 10, 63)
		if perr != nil {
			return nil, nil, malformed("invalid content-length: " + cl)
		}
		need := int(n)
		if len(rest) < need {
			return nil, input, nil
		}
		req.Body = rest[:need]
		rest = rest[need:]
	}

	return req, rest, nil
}

// validateHeaderBytes rejects bare CR (CR not followed by LF) and any
// byte >= 0x80 within the header section, per spec.md §4.5.
func validateHeaderBytes(section []byte) error {
	for i := 0; i < len(section); i++ {
		b := section[i]
		if b >= 0x80 {
			return malformed("non-ASCII byte in header section")
		}
		if b == '\r' && (i+1 >= len(section) || section[i+1] != '\n') {
			return malformed("bare CR in header section")
		}
	}
	return nil
}

func parseStartLine(line string) (*Request, error) {
	if strings.HasSuffix(line, " ") {
		return nil, malformed("trailing whitespace on start line")
	}
	tokens := strings.Split(line, " ")
	if len(tokens) != 3 {
		return nil, malformed("start line must have exactly three space-separated tokens")
	}
	method, target, version := tokens[0], tokens[1], tokens[2]

	if !validMethods[method] {
		return nil, malformed("unknown method " + method)
	}
	if !validVersions[lowerASCII(version)] {
		return nil, malformed("unsupported version " + version)
	}

	path := target
	query := map[string]string{}
	if i := strings.IndexByte(target, '?'); i >= 0 {
		path = target[:i]
		query = parseQuery(target[i+1:])
	}

	return &Request{Method: method, Path: path, Query: query, Version: version}, nil
}

func parseHeaderLines(lines [][]byte) (map[string]string, error) {
	headers := make(map[string]string, len(lines))
	for _, raw := range lines {
		if len(raw) == 0 {
			continue
		}
		if raw[0] == ' ' || raw[0] == '\t' {
			return nil, malformed("obsolete line folding is not supported")
		}
		colon := bytes.IndexByte(raw, ':')
		if colon < 0 {
			return nil, malformed("header line missing colon: " + string(raw))
		}
		key := raw[:colon]
		if len(key) > 0 && (key[len(key)-1] == ' ' || key[len(key)-1] == '\t') {
			return nil, malformed("whitespace before colon in header key")
		}
		value := bytes.TrimSpace(raw[colon+1:])
		headers[lowerASCII(string(key))] = string(value)
	}
	return headers, nil
}
