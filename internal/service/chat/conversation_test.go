package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dialysiscare/carebot/internal/model/chat"
)

func TestConversationSeedsWelcome(t *testing.T) {
	req := require.New(t)
	conv := NewConversation(chat.Message{Content: "hi there", CreatedAt: time.Now()})

	req.Equal(1, conv.Len())
	req.False(conv.Typing())
	msgs := conv.Messages()
	req.Equal(WelcomeID, msgs[0].ID)
	req.Equal(chat.RoleAssistant, msgs[0].Role)
	req.Equal("hi there", msgs[0].Content)
}

func TestConversationAppendKeepsOrderAndRejectsDuplicates(t *testing.T) {
	req := require.New(t)
	conv := NewConversation(chat.Message{Content: "welcome"})

	req.NoError(conv.Append(chat.Message{ID: "1", Role: chat.RoleUser, Content: "diet"}))
	req.NoError(conv.Append(chat.Message{ID: "2", Role: chat.RoleAssistant, Content: "reply"}))
	req.ErrorIs(conv.Append(chat.Message{ID: "1", Role: chat.RoleUser, Content: "again"}), ErrDuplicateMessage)
	req.ErrorIs(conv.Append(chat.Message{ID: WelcomeID, Role: chat.RoleUser}), ErrDuplicateMessage)

	msgs := conv.Messages()
	req.Len(msgs, 3)
	req.Equal([]string{WelcomeID, "1", "2"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}

func TestConversationMessagesReturnsCopy(t *testing.T) {
	conv := NewConversation(chat.Message{Content: "welcome"})
	msgs := conv.Messages()
	msgs[0].Content = "mutated"

	require.Equal(t, "welcome", conv.Messages()[0].Content)
}
