package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dialysiscare/carebot/internal/model/chat"
	"github.com/dialysiscare/carebot/internal/model/persona"
)

var (
	ErrPersonaNotFound = errors.New("persona not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrContentTooLong  = errors.New("message content too long")
)

// Options configures the chat service.
type Options struct {
	ReplyDelay       time.Duration
	MaxMessageLength int
	Now              func() time.Time
}

// Service keeps the live sessions of every connected surface.
type Service struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	personas  persona.Store
	responder Responder
	opts      Options
	log       *zap.Logger
}

// NewService bootstraps the in-memory chat service.
func NewService(personas persona.Store, responder Responder, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		sessions:  make(map[string]*Session),
		personas:  personas,
		responder: responder,
		opts:      opts,
		log:       log,
	}
}

// CreateSession starts a conversation bound to a persona. An empty persona id selects
// the default assistant.
func (s *Service) CreateSession(_ context.Context, personaID string) (*Session, error) {
	p, ok := s.personas.FindByID(personaID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPersonaNotFound, personaID)
	}

	info := chat.Session{
		ID:        uuid.NewString(),
		PersonaID: p.ID,
		CreatedAt: s.opts.Now(),
	}
	session := NewSession(info, p.OpeningLine, s.responder, SessionOptions{
		Delay:  s.opts.ReplyDelay,
		Now:    s.opts.Now,
		Logger: s.log,
	})

	s.mu.Lock()
	s.sessions[info.ID] = session
	s.mu.Unlock()

	s.log.Info("session created", zap.String("session", info.ID), zap.String("persona", p.ID))
	return session, nil
}

// GetSession retrieves a live session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Submit forwards user text to the session's interaction loop.
func (s *Service) Submit(ctx context.Context, sessionID, content string) (bool, error) {
	if s.opts.MaxMessageLength > 0 && utf8.RuneCountInString(content) > s.opts.MaxMessageLength {
		return false, ErrContentTooLong
	}
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return session.Submit(content)
}

// LoadTranscript returns the ordered messages of a session.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	snap, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return snap.Messages, nil
}

// Snapshot returns messages and typing state of a session.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (chat.Snapshot, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Snapshot{}, err
	}
	return session.Snapshot()
}

// CloseSession removes a session after its pending replies have landed.
func (s *Service) CloseSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Close()
	return nil
}

// EvictIdle closes sessions whose last submission is older than ttl and returns how
// many were removed.
func (s *Service) EvictIdle(_ context.Context, ttl time.Duration) int {
	cutoff := s.opts.Now().Add(-ttl)

	s.mu.Lock()
	var idle []*Session
	for id, session := range s.sessions {
		if session.LastActive().Before(cutoff) {
			idle = append(idle, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range idle {
		session.Close()
		s.log.Info("session evicted", zap.String("session", session.Info().ID))
	}
	return len(idle)
}

// Len reports the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops every session, draining pending replies first.
func (s *Service) Close() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for id, session := range s.sessions {
		sessions = append(sessions, session)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
