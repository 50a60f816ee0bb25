package model

import (
	"time"
)

// EventType represents the type of session event.
type EventType string

const (
	EventTypeTurn  EventType = "turn"
	EventTypeError EventType = "error"
	EventTypeClear EventType = "clear"
)

// TurnEvent is published to the audit stream for session activity: a
// completed turn, a failed turn, or a history clear.
type TurnEvent struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Type      EventType `json:"type"`
	Role      Role      `json:"role,omitempty"`
	Model     string    `json:"model,omitempty"`
	TokensIn  int       `json:"tokens_in,omitempty"`
	TokensOut int       `json:"tokens_out,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenEvent represents a streaming token event.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// ErrorEvent represents an error event on a stream.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
