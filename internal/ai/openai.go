package ai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o"
)

// OpenAIAdapter speaks the chat/completions streaming protocol. The same
// type serves ProviderCustom, where the base URL and model come from the
// user's configuration instead of defaults.
type OpenAIAdapter struct {
	baseURL string
	custom  bool
}

// NewOpenAIAdapter returns the adapter for api.openai.com, or for baseURL
// when it is non-empty.
func NewOpenAIAdapter(baseURL string) *OpenAIAdapter {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIAdapter{baseURL: baseURL}
}

// NewCustomAdapter returns the adapter for a self-hosted OpenAI-compatible
// endpoint.
func NewCustomAdapter() *OpenAIAdapter {
	return &OpenAIAdapter{custom: true}
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (a *OpenAIAdapter) Name() string {
	if a.custom {
		return "Custom endpoint"
	}
	return "OpenAI"
}

func (a *OpenAIAdapter) Streaming() bool { return true }

func (a *OpenAIAdapter) NewDecoder() FrameDecoder { return NewSSEDecoder() }

func (a *OpenAIAdapter) Build(req QueryRequest) (*WireRequest, error) {
	base, model, err := a.resolve(req)
	if err != nil {
		return nil, err
	}

	msgs := make([]openAIMessage, 0, len(req.Conversation)+1)
	msgs = append(msgs, openAIMessage{Role: "system", Content: req.SystemPrompt})
	for _, t := range req.Conversation {
		msgs = append(msgs, openAIMessage{Role: string(t.Role), Content: t.Content})
	}

	body, err := json.Marshal(openAIRequest{Model: model, Messages: msgs, Stream: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	h := jsonHeader()
	if req.hasCredential() {
		h.Set("Authorization", "Bearer "+req.credential())
	} else if !a.custom {
		return nil, &ConfigurationError{Reason: missingKeyReason}
	}

	return &WireRequest{
		Method: http.MethodPost,
		URL:    strings.TrimRight(base, "/") + "/chat/completions",
		Header: h,
		Body:   body,
	}, nil
}

func (a *OpenAIAdapter) resolve(req QueryRequest) (base, model string, err error) {
	if a.custom {
		if strings.TrimSpace(req.Endpoint) == "" {
			return "", "", &ConfigurationError{Reason: "custom endpoint base URL is not set. Set one with: locus config set-custom <base-url> <model>"}
		}
		if strings.TrimSpace(req.Model) == "" {
			return "", "", &ConfigurationError{Reason: "custom endpoint model name is not set. Set one with: locus config set-custom <base-url> <model>"}
		}
		return req.Endpoint, req.Model, nil
	}
	base, model = a.baseURL, req.Model
	if req.Endpoint != "" {
		base = req.Endpoint
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return base, model, nil
}
