// Package conversation holds per-session chat history and the persistent
// file selection reused across turns.
package conversation

import (
	"sync"

	"github.com/codechat-ai/codebase-chat/internal/model"
)

// State is the ordered message history of one session plus the file
// selection carried over between turns. The per-request system message is
// synthesized at send time and never stored here.
//
// All methods are safe for concurrent use.
type State struct {
	mu       sync.Mutex
	messages []model.ChatMessage
	files    []string
}

// NewState creates an empty conversation state.
func NewState() *State {
	return &State{}
}

// Append adds a message to the end of the history.
func (s *State) Append(role model.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, model.ChatMessage{Role: role, Content: content})
}

// Clear resets the message history and the persistent file selection as a
// single atomic operation. Calling Clear on an empty state is a no-op.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.files = nil
}

// SetPersistentFiles replaces the file selection reused on later turns.
func (s *State) SetPersistentFiles(files []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append([]string(nil), files...)
}

// PersistentFiles returns a copy of the persistent file selection. The
// caller owns the returned slice.
func (s *State) PersistentFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.files...)
}

// Messages returns a copy of the message history in chronological order.
func (s *State) Messages() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ChatMessage(nil), s.messages...)
}

// Len returns the number of messages in the history.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Replace swaps in a full history, preserving the file selection. Used by
// history import.
func (s *State) Replace(messages []model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append([]model.ChatMessage(nil), messages...)
}
