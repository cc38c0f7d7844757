// Package transcript parses chat transcript files into conversations.
//
// A file holds conversations separated by a line of the form
//
//	========== Conversation ==========
//
// and each message is a line "[timestamp] User: text" or "[timestamp] AI: text".
// Lines that do not match are ignored.
package transcript

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/hyperjump/carelens/internal/models"
)

// Separator divides conversations in a transcript file.
const Separator = "========== Conversation =========="

var messageLine = regexp.MustCompile(`^\[([^\]]+)\] (User|AI): (.+)`)

// ConversationID returns the identifier of the n-th (1-based) conversation in a file.
func ConversationID(n int) string {
	return fmt.Sprintf("conv-%03d", n)
}

// ParseFile reads and parses the transcript at path.
func ParseFile(path string) ([]*models.Conversation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads every conversation from r. Blocks without any message line are
// skipped and do not consume an ID.
func Parse(r io.Reader) ([]*models.Conversation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	content := strings.ToValidUTF8(string(data), "�")

	var conversations []*models.Conversation
	for _, block := range strings.Split(content, Separator) {
		messages := parseBlock(block)
		if len(messages) == 0 {
			continue
		}
		id := ConversationID(len(conversations) + 1)
		conversations = append(conversations, models.NewConversation(id, messages))
	}
	return conversations, nil
}

func parseBlock(block string) []models.Message {
	var messages []models.Message
	for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
		m := messageLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[3])
		if text == "" {
			continue
		}
		messages = append(messages, models.Message{
			Timestamp: m[1],
			Role:      models.Role(m[2]),
			Text:      text,
		})
	}
	return messages
}
