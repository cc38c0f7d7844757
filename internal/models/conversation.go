package models

import "strings"

// Role identifies who sent a message.
type Role string

const (
	RoleUser Role = "User"
	RoleAI   Role = "AI"
)

// Message is a single transcript line.
type Message struct {
	Timestamp string `json:"timestamp"`
	Role      Role   `json:"role"`
	Text      string `json:"text"`
}

// Conversation is a parsed transcript. Build it with NewConversation so the
// derived texts stay consistent with Messages.
type Conversation struct {
	ID           string    `json:"id"`
	Messages     []Message `json:"messages"`
	FullText     string    `json:"full_text"`
	UserText     string    `json:"user_text"`
	MessageCount int       `json:"message_count"`
}

// NewConversation derives FullText (all messages) and UserText (user messages only),
// each joined with a single space.
func NewConversation(id string, messages []Message) *Conversation {
	msgs := append([]Message(nil), messages...)
	all := make([]string, 0, len(msgs))
	user := make([]string, 0, len(msgs))
	for _, m := range msgs {
		all = append(all, m.Text)
		if m.Role == RoleUser {
			user = append(user, m.Text)
		}
	}
	return &Conversation{
		ID:           id,
		Messages:     msgs,
		FullText:     strings.Join(all, " "),
		UserText:     strings.Join(user, " "),
		MessageCount: len(msgs),
	}
}

// ConversationFromText wraps raw text (e.g. from an API request) as a one-message conversation.
func ConversationFromText(id, text string) *Conversation {
	if strings.TrimSpace(text) == "" {
		return &Conversation{ID: id}
	}
	return NewConversation(id, []Message{{Role: RoleUser, Text: text}})
}
