// Package ai provides the request and conversation types shared by the
// query engine and the provider adapters.
package ai

import (
	"fmt"
	"strings"
)

// ProviderKind identifies the upstream vendor a request is sent to.
type ProviderKind string

const (
	ProviderOpenAI    ProviderKind = "openai"
	ProviderGemini    ProviderKind = "gemini"
	ProviderAnthropic ProviderKind = "anthropic" // Not implemented upstream yet.
	ProviderCustom    ProviderKind = "custom"    // OpenAI wire format at a caller-supplied base URL.
)

// ProviderKinds lists every supported kind in display order.
var ProviderKinds = []ProviderKind{ProviderOpenAI, ProviderGemini, ProviderAnthropic, ProviderCustom}

// ParseProviderKind maps a configuration value onto a ProviderKind.
func ParseProviderKind(s string) (ProviderKind, error) {
	k := ProviderKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ProviderKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q (want one of openai, gemini, anthropic, custom)", s)
}

// Role is the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry in a conversation.
type Turn struct {
	Role    Role
	Content string
}

// QueryRequest is the provider-agnostic description of one model call.
type QueryRequest struct {
	Provider ProviderKind
	// Credential is nil when no key is configured. A non-nil empty string
	// is a configured-but-blank key.
	Credential   *string
	Endpoint     string // Base URL override; mandatory for ProviderCustom.
	Model        string
	SystemPrompt string
	Conversation []Turn
}

// Validate checks the shape of the conversation before dispatch.
func (r QueryRequest) Validate() error {
	if len(r.Conversation) == 0 {
		return &ConfigurationError{Reason: "conversation is empty"}
	}
	if last := r.Conversation[len(r.Conversation)-1]; last.Role != RoleUser {
		return &ConfigurationError{Reason: fmt.Sprintf("last turn must be from the user, got %q", last.Role)}
	}
	return nil
}

// hasCredential reports whether a usable, non-blank key is present.
func (r QueryRequest) hasCredential() bool {
	return r.Credential != nil && *r.Credential != ""
}

func (r QueryRequest) credential() string {
	if r.Credential == nil {
		return ""
	}
	return *r.Credential
}
