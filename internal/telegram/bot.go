// Package telegram relays DialysisCareBot conversations to Telegram chats.
package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/dialysiscare/carebot/internal/model/chat"
	chatService "github.com/dialysiscare/carebot/internal/service/chat"
)

const (
	startCmd = "start"
	resetCmd = "reset"

	resetNotice   = "Conversation reset. Starting fresh."
	tooLongNotice = "That message is too long. Please keep it shorter."
	failureNotice = "Sorry, something went wrong. Please try again."
)

// Bot maps every Telegram chat to one chat session.
type Bot struct {
	api     *tgbotapi.BotAPI
	s       sender
	chatSvc *chatService.Service
	log     *zap.Logger

	mu      sync.Mutex
	chats   map[int64]string
	relays  sync.WaitGroup
	stopped bool
}

// New connects to the Bot API with token.
func New(token string, debug bool, chatSvc *chatService.Service, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = debug

	b := newBot(botAPISender{api: api}, chatSvc, log)
	b.api = api
	b.log.Info("telegram bot authorized", zap.String("username", api.Self.UserName))
	return b, nil
}

func newBot(s sender, chatSvc *chatService.Service, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		s:       s,
		chatSvc: chatSvc,
		log:     log.Named("telegram"),
		chats:   make(map[int64]string),
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	b.serve(ctx, updates)
	return nil
}

func (b *Bot) serve(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.drain()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleIncomingMessage(ctx, update.Message)
			}
		}
	}
}

// drain closes every chat's session so replies still pending are delivered before the
// relays finish.
func (b *Bot) drain() {
	b.mu.Lock()
	b.stopped = true
	ids := make([]string, 0, len(b.chats))
	for _, id := range b.chats {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	for _, id := range ids {
		if err := b.chatSvc.CloseSession(context.Background(), id); err != nil && !errors.Is(err, chatService.ErrSessionNotFound) {
			b.log.Warn("close session", zap.String("session", id), zap.Error(err))
		}
	}
	b.relays.Wait()
	b.log.Debug("telegram relays drained", zap.Int("sessions", len(ids)))
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	switch msg.Command() {
	case startCmd:
		b.startSession(ctx, chatID, "")
		return
	case resetCmd:
		b.startSession(ctx, chatID, resetNotice)
		return
	}

	text := msg.Text
	if strings.TrimSpace(text) == "" {
		return
	}
	b.log.Debug("incoming message", zap.Int64("chat", chatID), zap.Int("length", len(text)))

	sessionID, ok := b.sessionFor(chatID)
	if !ok {
		if sessionID, ok = b.openSession(ctx, chatID, false); !ok {
			b.sendMessage(chatID, failureNotice)
			return
		}
	}

	_, err := b.chatSvc.Submit(ctx, sessionID, text)
	if errors.Is(err, chatService.ErrSessionNotFound) || errors.Is(err, chatService.ErrSessionClosed) {
		// evicted while idle
		if sessionID, ok = b.openSession(ctx, chatID, false); ok {
			_, err = b.chatSvc.Submit(ctx, sessionID, text)
		}
	}
	switch {
	case err == nil:
	case errors.Is(err, chatService.ErrContentTooLong):
		b.sendMessage(chatID, tooLongNotice)
	default:
		b.log.Error("submit failed", zap.Int64("chat", chatID), zap.Error(err))
		b.sendMessage(chatID, failureNotice)
	}
}

// startSession replaces the chat's session and sends the welcome message.
func (b *Bot) startSession(ctx context.Context, chatID int64, notice string) {
	if old, ok := b.sessionFor(chatID); ok {
		b.mu.Lock()
		delete(b.chats, chatID)
		b.mu.Unlock()
		if err := b.chatSvc.CloseSession(ctx, old); err != nil && !errors.Is(err, chatService.ErrSessionNotFound) {
			b.log.Warn("close session", zap.String("session", old), zap.Error(err))
		}
	}
	if notice != "" {
		b.sendMessage(chatID, notice)
	}
	if _, ok := b.openSession(ctx, chatID, true); !ok {
		b.sendMessage(chatID, failureNotice)
	}
}

func (b *Bot) sessionFor(chatID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.chats[chatID]
	return id, ok
}

// openSession creates a session for chatID and starts relaying its replies.
func (b *Bot) openSession(ctx context.Context, chatID int64, welcome bool) (string, bool) {
	session, err := b.chatSvc.CreateSession(ctx, "")
	if err != nil {
		b.log.Error("create session", zap.Int64("chat", chatID), zap.Error(err))
		return "", false
	}
	events, cancel, err := session.Subscribe()
	if err != nil {
		b.log.Error("subscribe session", zap.Int64("chat", chatID), zap.Error(err))
		return "", false
	}

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		cancel()
		return "", false
	}
	b.chats[chatID] = session.Info().ID
	b.relays.Add(1)
	b.mu.Unlock()

	if welcome {
		snap, err := session.Snapshot()
		if err == nil && len(snap.Messages) > 0 {
			b.sendMessage(chatID, snap.Messages[0].Content)
		}
	}

	go b.relay(chatID, session.Info().ID, events, cancel)
	return session.Info().ID, true
}

// relay forwards assistant replies and typing state until the session stops, including
// the replies a closing session still delivers.
func (b *Bot) relay(chatID int64, sessionID string, events <-chan chat.Event, cancel func()) {
	defer b.relays.Done()
	defer cancel()
	defer func() {
		b.mu.Lock()
		if b.chats[chatID] == sessionID {
			delete(b.chats, chatID)
		}
		b.mu.Unlock()
	}()

	for ev := range events {
		switch {
		case ev.Kind == chat.EventTyping && ev.Typing:
			if _, err := b.s.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
				b.log.Debug("chat action failed", zap.Int64("chat", chatID), zap.Error(err))
			}
		case ev.Kind == chat.EventMessage && ev.Message != nil && ev.Message.Role == chat.RoleAssistant:
			b.sendMessage(chatID, ev.Message.Content)
		}
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, plainText(text))
	if _, err := b.s.Send(msg); err != nil {
		b.log.Warn("failed to send message", zap.Int64("chat", chatID), zap.Error(err))
	}
}

// plainText drops markdown emphasis markers Telegram would otherwise show literally.
func plainText(s string) string {
	return strings.ReplaceAll(s, "**", "")
}
