package ai

import "strings"

// StreamDelta is one step of a streamed reply.
type StreamDelta struct {
	// Token is the text fragment. Fragment boundaries carry no meaning.
	Token string
	// Done is true on the final delta of a reply.
	Done bool
	// Err is set only on the trailing error fragment. Token already holds
	// its user-facing rendering.
	Err error
}

// Collect drains ch and returns the concatenated reply together with the
// error of the trailing error fragment, if any.
func Collect(ch <-chan StreamDelta) (string, error) {
	var sb strings.Builder
	var err error
	for delta := range ch {
		sb.WriteString(delta.Token)
		if delta.Err != nil {
			err = delta.Err
		}
	}
	return sb.String(), err
}
