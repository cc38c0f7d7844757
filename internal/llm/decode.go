package llm

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// ErrNullResponse is returned when a model answers with a bare JSON null.
var ErrNullResponse = errors.New("model response is null")

// StripCodeFence removes a surrounding ``` or ```json fence.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// DecodeJSON unmarshals a model response into out. Code fences are stripped and,
// if the text is not valid JSON as a whole, the outermost {...} span is tried.
// Empty and null responses are errors rather than zero values.
func DecodeJSON(text string, out any) error {
	text = StripCodeFence(text)
	if text == "" {
		return io.ErrUnexpectedEOF
	}
	if text == "null" {
		return ErrNullResponse
	}
	err := json.Unmarshal([]byte(text), out)
	if err == nil {
		return nil
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return err
	}
	return json.Unmarshal([]byte(text[start:end+1]), out)
}
