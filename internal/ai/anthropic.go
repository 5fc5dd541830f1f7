package ai

// AnthropicAdapter is a placeholder for the Anthropic Messages API. Build
// always fails with ErrProviderUnavailable; the engine reports that as an
// informational reply without touching the network.
type AnthropicAdapter struct{}

const anthropicUnavailableText = "Anthropic integration is coming soon."

func (AnthropicAdapter) Name() string { return "Anthropic" }

func (AnthropicAdapter) Streaming() bool { return false }

func (AnthropicAdapter) NewDecoder() FrameDecoder { return DocumentDecoder{} }

func (AnthropicAdapter) Build(QueryRequest) (*WireRequest, error) {
	return nil, ErrProviderUnavailable
}
