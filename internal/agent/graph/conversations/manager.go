package conversations

import (
	"context"
	"strings"

	"github.com/finsight-agent/server/internal/agent/model"
)

// MessagesManager mediates between the workflow and the caller-owned
// conversation history.
type MessagesManager struct {
	conversationRepo model.ConversationRepository
	maxTurns         int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{
		conversationRepo: conversationRepo,
		maxTurns:         config.Context.MaxTurns,
	}
}

// ProcessUserMessage appends the new user message to the history and
// returns the full updated message sequence for this turn's state.
func (cm *MessagesManager) ProcessUserMessage(ctx context.Context, conversationID string, query string) ([]model.Message, error) {
	userMsg := model.UserMessage(query)
	if err := cm.conversationRepo.AddMessage(ctx, conversationID, userMsg); err != nil {
		return nil, err
	}

	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return history.Messages, nil
}

// SaveResponse appends the assistant's final message to the history.
func (cm *MessagesManager) SaveResponse(ctx context.Context, conversationID string, content string) error {
	return cm.conversationRepo.AddMessage(ctx, conversationID, model.AssistantMessage(content))
}

// FormatWindow renders the most recent turns as prompt context.
func (cm *MessagesManager) FormatWindow(messages []model.Message) string {
	recent := trimTail(messages, cm.maxTurns)

	var b strings.Builder
	for _, msg := range recent {
		if msg.Content == "" {
			continue
		}
		b.WriteString(strings.ToUpper(string(msg.Role)))
		b.WriteString(" (" + msg.Date.Format("15:04:05") + "): ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func trimTail(messages []model.Message, maxTurns int) []model.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
