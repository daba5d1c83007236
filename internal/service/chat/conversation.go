package chat

import (
	"errors"

	"github.com/dialysiscare/carebot/internal/model/chat"
)

// WelcomeID identifies the assistant message every conversation starts with.
const WelcomeID = "welcome"

var ErrDuplicateMessage = errors.New("duplicate message id")

// Conversation is the ordered, append-only record of one session. It is not safe for
// concurrent use; a Session owns it from a single goroutine.
type Conversation struct {
	messages []chat.Message
	ids      map[string]struct{}
	typing   bool
}

// NewConversation seeds the store with the assistant welcome message.
func NewConversation(welcome chat.Message) *Conversation {
	welcome.Role = chat.RoleAssistant
	if welcome.ID == "" {
		welcome.ID = WelcomeID
	}
	return &Conversation{
		messages: []chat.Message{welcome},
		ids:      map[string]struct{}{welcome.ID: {}},
	}
}

// Append adds msg to the end of the conversation.
func (c *Conversation) Append(msg chat.Message) error {
	if _, exists := c.ids[msg.ID]; exists {
		return ErrDuplicateMessage
	}
	c.ids[msg.ID] = struct{}{}
	c.messages = append(c.messages, msg)
	return nil
}

// Messages returns a copy of the conversation in creation order.
func (c *Conversation) Messages() []chat.Message {
	copied := make([]chat.Message, len(c.messages))
	copy(copied, c.messages)
	return copied
}

func (c *Conversation) Len() int { return len(c.messages) }

func (c *Conversation) Typing() bool { return c.typing }

func (c *Conversation) SetTyping(typing bool) { c.typing = typing }
