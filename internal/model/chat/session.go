package chat

import "time"

// Session captures a transient anonymous conversation.
type Session struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"personaId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is the read-only view of a session handed to renderers.
type Snapshot struct {
	Session  Session   `json:"session"`
	Messages []Message `json:"messages"`
	Typing   bool      `json:"typing"`
}

// EventKind names a change pushed to session subscribers.
type EventKind string

const (
	EventMessage EventKind = "message"
	EventTyping  EventKind = "typing"
)

// Event notifies a view that it should re-render.
type Event struct {
	Kind    EventKind `json:"event"`
	Message *Message  `json:"message,omitempty"`
	Typing  bool      `json:"typing"`
}
