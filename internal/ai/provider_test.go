package ai

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestOpenAIAdapter_Build(t *testing.T) {
	req := QueryRequest{
		Provider:     ProviderOpenAI,
		Credential:   ptr("sk-1"),
		Model:        "gpt-4o-mini",
		SystemPrompt: "sys",
		Conversation: []Turn{
			{Role: RoleUser, Content: "q1"},
			{Role: RoleAssistant, Content: "a1"},
			{Role: RoleUser, Content: "q2"},
		},
	}

	w, err := NewOpenAIAdapter("").Build(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Method != "POST" || w.URL != "https://api.openai.com/v1/chat/completions" {
		t.Errorf("unexpected request line %s %s", w.Method, w.URL)
	}
	if w.Header.Get("Authorization") != "Bearer sk-1" || w.Header.Get("Content-Type") != "application/json" {
		t.Errorf("unexpected headers %v", w.Header)
	}

	var body openAIRequest
	if err := json.Unmarshal(w.Body, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Model != "gpt-4o-mini" || !body.Stream {
		t.Errorf("unexpected body %+v", body)
	}
	roles := make([]string, len(body.Messages))
	for i, m := range body.Messages {
		roles[i] = m.Role
	}
	if strings.Join(roles, ",") != "system,user,assistant,user" {
		t.Errorf("unexpected roles %v", roles)
	}
}

func TestOpenAIAdapter_EndpointOverride(t *testing.T) {
	req := userRequest(ProviderOpenAI, ptr("k"))
	req.Endpoint = "https://proxy.example.com/v1"

	w, err := NewOpenAIAdapter("").Build(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.URL != "https://proxy.example.com/v1/chat/completions" {
		t.Errorf("unexpected URL %s", w.URL)
	}
}

func TestCustomAdapter_RequiresModel(t *testing.T) {
	req := userRequest(ProviderCustom, ptr("k"))
	req.Endpoint = "http://localhost:1234/v1"

	_, err := NewCustomAdapter().Build(req)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || !strings.Contains(cfgErr.Reason, "model name") {
		t.Errorf("expected missing model error, got %v", err)
	}
}

func TestCustomAdapter_SendsKeyWhenPresent(t *testing.T) {
	req := userRequest(ProviderCustom, ptr("local-key"))
	req.Endpoint = "http://localhost:1234/v1"
	req.Model = "mistral"

	w, err := NewCustomAdapter().Build(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Header.Get("Authorization") != "Bearer local-key" {
		t.Errorf("expected bearer header, got %q", w.Header.Get("Authorization"))
	}
}

func TestGeminiAdapter_FlattensConversation(t *testing.T) {
	req := QueryRequest{
		Provider:     ProviderGemini,
		Credential:   ptr("g k"),
		SystemPrompt: "SYSTEM",
		Conversation: []Turn{
			{Role: RoleUser, Content: "What is logos?"},
			{Role: RoleAssistant, Content: "Word, reason."},
			{Role: RoleUser, Content: "And in John?"},
		},
	}

	w, err := NewGeminiAdapter("").Build(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantURL := "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent?key=g+k"
	if w.URL != wantURL {
		t.Errorf("got URL %s, want %s", w.URL, wantURL)
	}
	if w.Header.Get("Authorization") != "" {
		t.Error("Gemini must not send a bearer header")
	}

	var body geminiRequest
	if err := json.Unmarshal(w.Body, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	want := "SYSTEM\n\nUSER: What is logos?\n\nASSISTANT: Word, reason.\n\nUSER: And in John?\n\nASSISTANT:"
	if len(body.Contents) != 1 || len(body.Contents[0].Parts) != 1 || body.Contents[0].Parts[0].Text != want {
		t.Errorf("unexpected flattened text:\n%q\nwant:\n%q", body.Contents[0].Parts[0].Text, want)
	}
}

func TestAnthropicAdapter_Unavailable(t *testing.T) {
	_, err := AnthropicAdapter{}.Build(userRequest(ProviderAnthropic, ptr("k")))
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestParseProviderKind(t *testing.T) {
	tests := []struct {
		in      string
		want    ProviderKind
		wantErr bool
	}{
		{"openai", ProviderOpenAI, false},
		{" Gemini ", ProviderGemini, false},
		{"ANTHROPIC", ProviderAnthropic, false},
		{"custom", ProviderCustom, false},
		{"ollama", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseProviderKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProviderKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseProviderKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTransport_RedactURL(t *testing.T) {
	got := redactURL("https://generativelanguage.googleapis.com/v1beta/models/m:generateContent?key=secret")
	if strings.Contains(got, "secret") {
		t.Errorf("query string should be stripped, got %s", got)
	}
}
