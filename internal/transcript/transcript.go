// internal/transcript/transcript.go
package transcript

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/overseer/internal/types"
)

// Builder renders event slices as token-budgeted text transcripts. It is
// used to hand a conversation excerpt to a secondary analysis runtime
// without overflowing its context window.
type Builder struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
}

// New creates a transcript builder for the given model's tokenizer.
// maxTokens bounds the rendered transcript; 0 means unbounded.
func New(model string, maxTokens int) (*Builder, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Fallback to cl100k_base for unknown models
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Builder{
		tokenizer: enc,
		maxTokens: maxTokens,
	}, nil
}

// countTokens returns the token count for a string.
func (b *Builder) countTokens(text string) int {
	return len(b.tokenizer.Encode(text, nil, nil))
}

// Render formats events as "role: text" lines, one per event. Events with
// no text content are skipped. When the result would exceed the token
// budget, the oldest lines are dropped first.
func (b *Builder) Render(events []*types.Event) string {
	lines := make([]string, 0, len(events))
	for _, event := range events {
		text := event.Text()
		if text == "" {
			continue
		}
		lines = append(lines, event.Role+": "+text)
	}
	if len(lines) == 0 {
		return ""
	}

	if b.maxTokens > 0 {
		budget := b.maxTokens
		kept := 0
		// Walk backwards so the newest lines survive trimming.
		for i := len(lines) - 1; i >= 0; i-- {
			cost := b.countTokens(lines[i]) + 1
			if cost > budget {
				break
			}
			budget -= cost
			kept++
		}
		if kept == 0 {
			kept = 1
		}
		lines = lines[len(lines)-kept:]
	}

	return strings.Join(lines, "\n")
}
