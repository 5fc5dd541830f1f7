package ai

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// maxErrorBody caps how much of a failed response is read into the error.
const maxErrorBody = 64 << 10

// Transport executes a wire request and hands back the response body.
// Implementations must fail with *ProviderHTTPError for non-2xx responses
// and *TransportError for connection failures, before any body is returned.
type Transport interface {
	Open(ctx context.Context, req *WireRequest, provider string) (io.ReadCloser, error)
}

// HTTPTransport is the net/http Transport.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps client, or a default streaming-friendly client when
// client is nil. There is no overall timeout since replies stream for as
// long as the model generates.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: 15 * time.Second}).DialContext,
				TLSHandshakeTimeout:   15 * time.Second,
				ResponseHeaderTimeout: 90 * time.Second,
			},
		}
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Open(ctx context.Context, w *WireRequest, provider string) (io.ReadCloser, error) {
	safeURL := redactURL(w.URL)
	req, err := w.httpRequest(ctx)
	if err != nil {
		return nil, &TransportError{Op: "build request", URL: safeURL, Err: err}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "post", URL: safeURL, Err: unwrapURLError(err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close() //nolint:errcheck
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ProviderHTTPError{Provider: provider, Status: resp.StatusCode, Body: string(body)}
	}
	return resp.Body, nil
}

// redactURL drops the query string, which carries the Gemini key.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}

// unwrapURLError strips *url.Error, whose message repeats the full URL
// including any key in the query.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
