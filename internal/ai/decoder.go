package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FrameDecoder turns raw response chunks into text fragments. A decoder is
// single-use and owned by one request.
type FrameDecoder interface {
	// Feed consumes one raw chunk and returns the fragments completed by it.
	// done reports that the upstream signalled the end of the reply and no
	// further chunks need to be read.
	Feed(chunk []byte) (fragments []string, done bool, err error)
	// Finish is called at end of stream. Any incomplete residual is dropped.
	Finish() []string
}

const (
	sseDataPrefix = "data: "
	sseSentinel   = "[DONE]"
)

// SSEDecoder decodes the OpenAI-compatible chat/completions event stream.
// Input is newline-delimited; only "data: " lines carry payloads.
type SSEDecoder struct {
	buf  []byte
	done bool
}

type sseChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// NewSSEDecoder returns a decoder with an empty line buffer.
func NewSSEDecoder() *SSEDecoder {
	return &SSEDecoder{}
}

// Feed never returns an error: payloads that fail to decode are treated
// as partial or keep-alive frames and skipped.
func (d *SSEDecoder) Feed(chunk []byte) ([]string, bool, error) {
	if d.done {
		return nil, true, nil
	}
	d.buf = append(d.buf, chunk...)

	var out []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := d.buf[:i]
		d.buf = d.buf[i+1:]

		text, ok, done := decodeSSELine(line)
		if done {
			d.done = true
			d.buf = nil
			return out, true, nil
		}
		if ok {
			out = append(out, text)
		}
	}
	// Reclaim the consumed prefix so long streams don't pin old chunks.
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return out, false, nil
}

// Finish drops a trailing line that never saw its newline.
func (d *SSEDecoder) Finish() []string {
	d.buf = nil
	return nil
}

func decodeSSELine(line []byte) (text string, ok bool, done bool) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if !bytes.HasPrefix(line, []byte(sseDataPrefix)) {
		return "", false, false
	}
	payload := line[len(sseDataPrefix):]
	if string(payload) == sseSentinel {
		return "", false, true
	}
	var chunk sseChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", false, false
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return "", false, false
	}
	return chunk.Choices[0].Delta.Content, true, false
}

// DocumentDecoder extracts the reply from a single-shot Gemini
// generateContent response. The whole body arrives in one Feed.
type DocumentDecoder struct{}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (DocumentDecoder) Feed(chunk []byte) ([]string, bool, error) {
	var resp geminiResponse
	if err := json.Unmarshal(chunk, &resp); err != nil {
		return nil, true, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, true, nil
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return nil, true, nil
	}
	return []string{text}, true, nil
}

func (DocumentDecoder) Finish() []string {
	return nil
}
