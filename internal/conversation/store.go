package conversation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/codechat-ai/codebase-chat/internal/model"
)

// SaveHistory writes the state's message history to path as an indented
// JSON array of {role, content} objects.
func SaveHistory(path string, s *State) error {
	data, err := json.MarshalIndent(s.Messages(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// LoadHistory reads a JSON history file written by SaveHistory and replaces
// the state's message sequence with its contents, preserving order. Unknown
// keys in the file are ignored for forward compatibility.
func LoadHistory(path string, s *State) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("failed to decode history file: %w", err)
	}
	s.Replace(messages)
	return nil
}
