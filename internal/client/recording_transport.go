package client

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// recorder captures the status code and decoded body of the response it
// carries so the caller can classify the outcome after machinebox is done.
// One recorder serves exactly one request.
type recorder struct {
	next       http.RoundTripper
	received   bool
	statusCode int
	body       []byte
}

func newRecorder(next http.RoundTripper) *recorder {
	if next == nil {
		next = http.DefaultTransport
	}
	return &recorder{next: next}
}

// RoundTrip implements http.RoundTripper.
func (r *recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	body := raw
	if len(raw) > 0 && strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		body, err = gunzip(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding gzip response: %w", err)
		}
		resp.Header.Del("Content-Encoding")
		resp.Header.Del("Content-Length")
		resp.Uncompressed = true
	}

	r.received = true
	r.statusCode = resp.StatusCode
	r.body = body

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

func gunzip(b []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
