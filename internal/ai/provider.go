package ai

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
)

// WireRequest is the vendor-specific HTTP call an adapter builds from a
// QueryRequest.
type WireRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

func (w *WireRequest) httpRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if w.Body != nil {
		body = bytes.NewReader(w.Body)
	}
	req, err := http.NewRequestWithContext(ctx, w.Method, w.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range w.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// Adapter is implemented once per ProviderKind. It knows how to build the
// outbound request and how to decode the response body.
type Adapter interface {
	// Name is the vendor label used in error messages.
	Name() string
	// Build returns the wire request, or a *ConfigurationError when the
	// request lacks something this vendor needs.
	Build(req QueryRequest) (*WireRequest, error)
	// Streaming reports whether the body is delivered incrementally. When
	// false the engine reads the whole body and feeds it as one chunk.
	Streaming() bool
	// NewDecoder returns a fresh decoder for one response.
	NewDecoder() FrameDecoder
}

func jsonHeader() http.Header {
	h := make(http.Header)
	h.Set(headerContentType, mimeJSON)
	return h
}
