package ai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-1.5-flash"
)

// GeminiAdapter calls the non-streaming generateContent endpoint. The reply
// arrives as one document and is emitted as a single fragment.
//
// Known limitation: the conversation is flattened into one text part
// ("USER: ...", "ASSISTANT: ...", closed by an "ASSISTANT:" cue) rather than
// sent as native multi-turn contents.
type GeminiAdapter struct {
	baseURL string
}

// NewGeminiAdapter returns the adapter for the public Gemini API, or for
// baseURL when it is non-empty.
func NewGeminiAdapter(baseURL string) *GeminiAdapter {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiAdapter{baseURL: baseURL}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

func (a *GeminiAdapter) Name() string { return "Gemini" }

func (a *GeminiAdapter) Streaming() bool { return false }

func (a *GeminiAdapter) NewDecoder() FrameDecoder { return DocumentDecoder{} }

func (a *GeminiAdapter) Build(req QueryRequest) (*WireRequest, error) {
	if !req.hasCredential() {
		return nil, &ConfigurationError{Reason: missingKeyReason}
	}
	model := req.Model
	if model == "" {
		model = defaultGeminiModel
	}
	base := a.baseURL
	if req.Endpoint != "" {
		base = req.Endpoint
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: flattenConversation(req.SystemPrompt, req.Conversation)}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(base, "/"), url.PathEscape(model), url.QueryEscape(req.credential()))

	return &WireRequest{
		Method: http.MethodPost,
		URL:    endpoint,
		Header: jsonHeader(),
		Body:   body,
	}, nil
}

func flattenConversation(system string, turns []Turn) string {
	blocks := make([]string, 0, len(turns)+2)
	if system != "" {
		blocks = append(blocks, system)
	}
	for _, t := range turns {
		blocks = append(blocks, strings.ToUpper(string(t.Role))+": "+t.Content)
	}
	blocks = append(blocks, "ASSISTANT:")
	return strings.Join(blocks, "\n\n")
}
