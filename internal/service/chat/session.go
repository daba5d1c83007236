package chat

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dialysiscare/carebot/internal/model/chat"
)

// DefaultReplyDelay is the simulated typing latency before an assistant reply lands.
const DefaultReplyDelay = time.Second

const subscriberBuffer = 32

// Responder turns one user input into one assistant reply.
type Responder interface {
	Respond(input string) string
}

// ResponderFunc adapts a plain function to Responder.
type ResponderFunc func(input string) string

func (f ResponderFunc) Respond(input string) string { return f(input) }

// SessionOptions tunes a Session. Zero values fall back to production defaults.
type SessionOptions struct {
	Delay  time.Duration
	Now    func() time.Time
	NewID  func() string
	Logger *zap.Logger
}

// Session runs the interaction loop for one conversation. A single goroutine owns the
// conversation, the pending input buffer and the typing flag; every other goroutine
// talks to it through commands.
type Session struct {
	info      chat.Session
	responder Responder
	delay     time.Duration
	now       func() time.Time
	newID     func() string
	log       *zap.Logger

	cmds       chan func()
	quit       chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
	lastActive atomic.Int64

	// owned by run
	conv    *Conversation
	input   string
	queue   []string
	closing bool
	subs    map[int]chan chat.Event
	nextSub int
}

// NewSession starts the interaction loop seeded with the welcome message.
func NewSession(info chat.Session, welcome string, responder Responder, opts SessionOptions) *Session {
	s := &Session{
		info:      info,
		responder: responder,
		delay:     opts.Delay,
		now:       opts.Now,
		newID:     opts.NewID,
		log:       opts.Logger,
		cmds:      make(chan func()),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		subs:      make(map[int]chan chat.Event),
	}
	if s.delay < 0 {
		s.delay = 0
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.info.CreatedAt.IsZero() {
		s.info.CreatedAt = s.now()
	}

	s.conv = NewConversation(chat.Message{
		ID:        WelcomeID,
		Role:      chat.RoleAssistant,
		Content:   welcome,
		CreatedAt: s.now(),
	})
	s.lastActive.Store(s.info.CreatedAt.UnixNano())

	go s.run()
	return s
}

func (s *Session) run() {
	defer close(s.done)

	quit := s.quit
	for {
		select {
		case fn := <-s.cmds:
			fn()
		case <-quit:
			quit = nil
			s.closing = true
		}

		// pending replies always land before the loop exits
		if s.closing && len(s.queue) == 0 {
			for id, ch := range s.subs {
				close(ch)
				delete(s.subs, id)
			}
			s.log.Debug("session loop stopped", zap.String("session", s.info.ID))
			return
		}
	}
}

// do runs fn on the loop goroutine and waits for it to finish.
func (s *Session) do(fn func()) error {
	finished := make(chan struct{})
	select {
	case s.cmds <- func() { fn(); close(finished) }:
	case <-s.done:
		return ErrSessionClosed
	}
	<-finished
	return nil
}

// post schedules fn on the loop goroutine without waiting.
func (s *Session) post(fn func()) {
	select {
	case s.cmds <- fn:
	case <-s.done:
	}
}

// Info returns the session identity.
func (s *Session) Info() chat.Session { return s.info }

// LastActive reports when the session last accepted a submission or was touched.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load()).UTC()
}

// Touch marks the session as in use without a submission, e.g. while a view is open.
func (s *Session) Touch() {
	s.lastActive.Store(s.now().UnixNano())
}

// Done is closed once the loop has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Submit appends a user message and schedules exactly one assistant reply after the
// configured delay. Blank input is ignored and reported as not accepted.
func (s *Session) Submit(text string) (bool, error) {
	var (
		accepted bool
		err      error
	)
	if doErr := s.do(func() { accepted, err = s.accept(text) }); doErr != nil {
		return false, doErr
	}
	return accepted, err
}

// SetInput replaces the pending input buffer.
func (s *Session) SetInput(text string) error {
	return s.do(func() { s.input = text })
}

// Input returns the pending input buffer.
func (s *Session) Input() (string, error) {
	var input string
	err := s.do(func() { input = s.input })
	return input, err
}

// SubmitInput submits the pending input buffer, the equivalent of pressing Enter.
func (s *Session) SubmitInput() (bool, error) {
	var (
		accepted bool
		err      error
	)
	if doErr := s.do(func() { accepted, err = s.accept(s.input) }); doErr != nil {
		return false, doErr
	}
	return accepted, err
}

// Snapshot returns the ordered messages and the typing flag.
func (s *Session) Snapshot() (chat.Snapshot, error) {
	var snap chat.Snapshot
	err := s.do(func() {
		snap = chat.Snapshot{
			Session:  s.info,
			Messages: s.conv.Messages(),
			Typing:   s.conv.Typing(),
		}
	})
	return snap, err
}

// Subscribe registers a listener for conversation changes. The channel is closed when
// the session stops, when cancel is called, or when the listener falls too far behind.
func (s *Session) Subscribe() (<-chan chat.Event, func(), error) {
	ch := make(chan chat.Event, subscriberBuffer)
	var id int
	if err := s.do(func() {
		id = s.nextSub
		s.nextSub++
		s.subs[id] = ch
	}); err != nil {
		return nil, func() {}, err
	}
	s.Touch()

	cancel := func() {
		_ = s.do(func() {
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel, nil
}

// Close stops accepting submissions, waits for pending replies and stops the loop.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
}

func (s *Session) accept(text string) (bool, error) {
	if s.closing {
		return false, ErrSessionClosed
	}
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	msg := chat.Message{
		ID:        s.newID(),
		Role:      chat.RoleUser,
		Content:   text,
		CreatedAt: s.now(),
	}
	if err := s.conv.Append(msg); err != nil {
		return false, err
	}
	s.input = ""
	s.queue = append(s.queue, text)
	s.conv.SetTyping(true)
	s.lastActive.Store(msg.CreatedAt.UnixNano())

	s.publish(chat.Event{Kind: chat.EventMessage, Message: &msg, Typing: true})
	s.publish(chat.Event{Kind: chat.EventTyping, Typing: true})

	time.AfterFunc(s.delay, func() { s.post(s.reply) })
	return true, nil
}

// reply answers the oldest pending submission. Every timer pops exactly one entry, so
// replies land in submission order even if two timers fire out of order.
func (s *Session) reply() {
	if len(s.queue) == 0 {
		return
	}
	text := s.queue[0]
	s.queue = s.queue[1:]

	msg := chat.Message{
		ID:        s.newID(),
		Role:      chat.RoleAssistant,
		Content:   s.responder.Respond(text),
		CreatedAt: s.now(),
	}
	if err := s.conv.Append(msg); err != nil {
		s.log.Error("append assistant reply", zap.String("session", s.info.ID), zap.Error(err))
	}
	typing := len(s.queue) > 0
	s.conv.SetTyping(typing)

	s.publish(chat.Event{Kind: chat.EventMessage, Message: &msg, Typing: typing})
	s.publish(chat.Event{Kind: chat.EventTyping, Typing: typing})
}

func (s *Session) publish(ev chat.Event) {
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn("dropping slow session subscriber", zap.String("session", s.info.ID), zap.Int("subscriber", id))
			delete(s.subs, id)
			close(ch)
		}
	}
}
