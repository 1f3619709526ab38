package model

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem is used only when assembling prompts; it never appears in
	// the persisted conversation history.
	RoleSystem Role = "system"
)

// Message is a single conversation entry. Immutable once created; the
// chronological history is append-only and owned by the caller across turns.
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Date    time.Time `json:"date"`
}

// UserMessage creates a user message stamped with the current time.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Date: time.Now().UTC()}
}

// AssistantMessage creates an assistant message stamped with the current time.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Date: time.Now().UTC()}
}

// SystemMessage creates a system message for prompt assembly.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Date: time.Now().UTC()}
}
