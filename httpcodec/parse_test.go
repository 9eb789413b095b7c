// File: httpcodec/parse_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package httpcodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSimpleGet(t *testing.T) {
	raw := []byte("GET /foo?a=1&b=2 HTTP/1.1\r\nHost: example.com\r\n\r\n")
	req, remaining, err := RequestParser{}.Parse(raw)
	require.NoError(t, err)
	require.NotNil(t, req)
	require.Empty(t, remaining)
	require.Equal(t, "GET", req.Method)
	require.Equal(t, "/foo", req.Path)
	require.Equal(t, "1", req.Query["a"])
	require.Equal(t, "2", req.Query["b"])
	require.Equal(t, "example.com", req.Header("host"))
}

func TestParseIncompleteNoTerminator(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: example.com")
	req, remaining, err := RequestParser{}.Parse(raw)
	require.NoError(t, err)
	require.Nil(t, req)
	require.Equal(t, raw, remaining)
}

func TestParseContentLengthZero(t *testing.T) {
	raw := []byte("POST /x HTTP/1.1\r\ncontent-length: 0\r\n\r\n")
	req, remaining, err := RequestParser{}.Parse(raw)
	require.NoError(t, err)
	require.NotNil(t, req)
	require.Empty(t, remaining)
	require.Empty(t, req.Body)
}

func TestParseContentLengthAwaitsBody(t *testing.T) {
	raw := []byte("POST /x HTTP/1.1\r\ncontent-length: 5\r\n\r\nhi")
	req, remaining, err := RequestParser{}.Parse(raw)
	require.NoError(t, err)
	require.Nil(t, req)
	require.Equal(t, raw, remaining)
}

func TestParseContentLengthCompletesAndLeavesTrailer(t *testing.T) {
	raw := []byte("POST /x HTTP/1.1\r\ncontent-length: 5\r\n\r\nhelloGET")
	req, remaining, err := RequestParser{}.Parse(raw)
	require.NoError(t, err)
	require.NotNil(t, req)
	require.Equal(t, "hello", string(req.Body))
	require.Equal(t, "GET", string(remaining))
}

func TestParseSecondRequestWithNothingAheadOfMethod(t *testing.T) {
	// A second pipelined-looking request fed after a freshly consumed
	// first one must parse cleanly with nothing ahead of the method.
	raw := []byte("GET /second HTTP/1.1\r\n\r\n")
	req, remaining, err := RequestParser{}.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "/second", req.Path)
	require.Empty(t, remaining)
}

func TestParseLeadingEmptyLineIsConsumedNotMalformed(t *testing.T) {
	// spec.md §8: a leading "\r\n\r\n" ahead of the request line is consumed,
	// not treated as a complete empty request.
	raw := []byte("\r\n\r\nGET /after HTTP/1.1\r\nHost: x\r\n\r\n")
	req, remaining, err := RequestParser{}.Parse(raw)
	require.NoError(t, err)
	require.NotNil(t, req)
	require.Equal(t, "/after", req.Path)
	require.Empty(t, remaining)
}

func TestParseMultipleLeadingEmptyLinesAreConsumed(t *testing.T) {
	raw := []byte("\r\n\r\n\r\n\r\nGET /after HTTP/1.1\r\nHost: x\r\n\r\n")
	req, _, err := RequestParser{}.Parse(raw)
	require.NoError(t, err)
	require.NotNil(t, req)
	require.Equal(t, "/after", req.Path)
}

func TestParseBareCRRejected(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: foo\rbar\r\n\r\n")
	req, _, err := RequestParser{}.Parse(raw)
	require.Nil(t, req)
	require.True(t, IsMalformed(err))
}

func TestParseHeaderCaseFolding(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nCoNtEnT-TyPe: text/plain\r\n\r\n")
	req, _, err := RequestParser{}.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "text/plain", req.Header("content-type"))
	require.Equal(t, "text/plain", req.Header("Content-Type"))
}

func TestParseObsoleteLineFoldingRejected(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: foo\r\n bar\r\n\r\n")
	req, _, err := RequestParser{}.Parse(raw)
	require.Nil(t, req)
	require.True(t, IsMalformed(err))
}

func TestParseWhitespaceBeforeColonRejected(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost : foo\r\n\r\n")
	req, _, err := RequestParser{}.Parse(raw)
	require.Nil(t, req)
	require.True(t, IsMalformed(err))
}

func TestParseBadMethodRejected(t *testing.T) {
	raw := []byte("FROB / HTTP/1.1\r\n\r\n")
	req, _, err := RequestParser{}.Parse(raw)
	require.Nil(t, req)
	require.True(t, IsMalformed(err))
}

func TestSerializeHeaderAndSenderStreamsBody(t *testing.T) {
	resp := NewResponse(200, "OK")
	resp.Set("content-type", "text/plain")
	body := bytes.NewReader([]byte("hello world"))
	sender := NewResponseSender(resp, body)

	var out bytes.Buffer
	for {
		n, err := sender.Send(&out)
		require.NoError(t, err)
		if n == 0 {
			break
		}
	}
	require.Contains(t, out.String(), "HTTP/1.1 200 OK\r\n")
	require.Contains(t, out.String(), "content-type: text/plain\r\n")
	require.Contains(t, out.String(), "\r\n\r\nhello world")
}
