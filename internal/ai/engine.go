package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

const (
	missingKeyReason = "API key is missing. Set one with: locus config set-key <key>"
	readChunkSize    = 4 << 10
)

// Engine is the provider-agnostic entry point. It holds no per-request
// state and can be shared across sessions.
type Engine struct {
	transport     Transport
	adapters      map[ProviderKind]Adapter
	logger        *slog.Logger
	openAIBaseURL string
	geminiBaseURL string
}

// Option configures an Engine.
type Option func(*Engine)

// WithTransport replaces the HTTP transport, mainly for tests.
func WithTransport(t Transport) Option {
	return func(e *Engine) {
		if t != nil {
			e.transport = t
		}
	}
}

// WithHTTPClient sends requests through client.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) {
		if client != nil {
			e.transport = NewHTTPTransport(client)
		}
	}
}

// WithOpenAIBaseURL overrides the default api.openai.com base URL.
func WithOpenAIBaseURL(u string) Option {
	return func(e *Engine) { e.openAIBaseURL = u }
}

// WithGeminiBaseURL overrides the default Gemini API base URL.
func WithGeminiBaseURL(u string) Option {
	return func(e *Engine) { e.geminiBaseURL = u }
}

// WithLogger sets the logger used for diagnostics. Nothing logged is shown
// to the reader as reply text.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine builds an engine with one adapter per ProviderKind.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(e)
	}
	if e.transport == nil {
		e.transport = NewHTTPTransport(nil)
	}
	e.adapters = map[ProviderKind]Adapter{
		ProviderOpenAI:    NewOpenAIAdapter(e.openAIBaseURL),
		ProviderCustom:    NewCustomAdapter(),
		ProviderGemini:    NewGeminiAdapter(e.geminiBaseURL),
		ProviderAnthropic: AnthropicAdapter{},
	}
	return e
}

// Stream sends req and returns a channel of reply fragments in arrival
// order. Failures never escape as errors: they arrive as one trailing
// fragment whose Err is set. The channel always ends with a Done delta
// and is then closed.
func (e *Engine) Stream(ctx context.Context, req QueryRequest) <-chan StreamDelta {
	ch := make(chan StreamDelta)
	go func() {
		defer close(ch)
		e.run(ctx, req, ch)
	}()
	return ch
}

func (e *Engine) run(ctx context.Context, req QueryRequest, ch chan<- StreamDelta) {
	log := e.logger.With("provider", string(req.Provider), "model", req.Model)
	emit := func(d StreamDelta) bool {
		select {
		case ch <- d:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(err error) {
		log.Warn("request failed", "error", err)
		if emit(StreamDelta{Token: errorText(err), Err: err}) {
			emit(StreamDelta{Done: true})
		}
	}

	adapter, wire, err := e.prepare(req)
	if errors.Is(err, ErrProviderUnavailable) {
		if emit(StreamDelta{Token: anthropicUnavailableText}) {
			emit(StreamDelta{Done: true})
		}
		return
	}
	if err != nil {
		fail(err)
		return
	}

	body, err := e.transport.Open(ctx, wire, adapter.Name())
	if err != nil {
		fail(err)
		return
	}
	defer body.Close() //nolint:errcheck

	dec := adapter.NewDecoder()
	sent := 0
	forward := func(frags []string) bool {
		for _, f := range frags {
			if !emit(StreamDelta{Token: f}) {
				return false
			}
			sent++
		}
		return true
	}

	if !adapter.Streaming() {
		data, err := io.ReadAll(body)
		if err != nil {
			fail(&TransportError{Op: "read", URL: redactURL(wire.URL), Err: err})
			return
		}
		frags, _, err := dec.Feed(data)
		if !forward(frags) {
			return
		}
		if err != nil {
			fail(err)
			return
		}
	} else {
		buf := make([]byte, readChunkSize)
	read:
		for {
			n, rerr := body.Read(buf)
			if n > 0 {
				frags, done, ferr := dec.Feed(buf[:n])
				if !forward(frags) {
					return
				}
				if ferr != nil {
					fail(ferr)
					return
				}
				if done {
					break read
				}
			}
			switch {
			case rerr == io.EOF:
				if !forward(dec.Finish()) {
					return
				}
				break read
			case rerr != nil:
				fail(&TransportError{Op: "read", URL: redactURL(wire.URL), Err: rerr})
				return
			}
		}
	}

	log.Debug("stream complete", "fragments", sent)
	emit(StreamDelta{Done: true})
}

// prepare validates req and builds the wire call. No network I/O happens
// here.
func (e *Engine) prepare(req QueryRequest) (Adapter, *WireRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	if req.Provider != ProviderCustom && !req.hasCredential() {
		return nil, nil, &ConfigurationError{Reason: missingKeyReason}
	}
	adapter, ok := e.adapters[req.Provider]
	if !ok {
		return nil, nil, &ConfigurationError{Reason: "unknown provider " + string(req.Provider)}
	}
	wire, err := adapter.Build(req)
	if err != nil {
		return nil, nil, err
	}
	return adapter, wire, nil
}

// errorText renders err as reply text. Configuration problems stand alone;
// everything else is appended after a blank line so it reads as a footnote
// to whatever already streamed.
func errorText(err error) string {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return "Error: " + cfgErr.Reason
	}
	return "\n\nError: " + err.Error()
}
