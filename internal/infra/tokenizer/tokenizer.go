package tokenizer

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// Counter counts model tokens with tiktoken, or estimates them when the
// encoding could not be loaded.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// New loads the encoding for model. tiktoken fetches BPE ranks on first use;
// when that fails the counter falls back to an estimate and logs a warning.
func New(model string, logger *slog.Logger) *Counter {
	enc, err := encodingFor(model)
	if err != nil {
		logger.Warn("tokenizer unavailable, estimating token counts", "model", model, "error", err)
		return &Counter{}
	}
	return &Counter{enc: enc}
}

func encodingFor(model string) (*tiktoken.Tiktoken, error) {
	if strings.TrimSpace(model) != "" {
		if enc, err := tiktoken.EncodingForModel(model); err == nil {
			return enc, nil
		}
	}
	return tiktoken.GetEncoding(defaultEncoding)
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if c.enc != nil {
		return len(c.enc.Encode(text, nil, nil))
	}
	return estimate(text)
}

// estimate assumes about four characters per token, never fewer tokens than words.
func estimate(text string) int {
	if text == "" {
		return 0
	}
	byChars := (utf8.RuneCountInString(text) + 3) / 4
	if words := len(strings.Fields(text)); words > byChars {
		return words
	}
	return byChars
}
