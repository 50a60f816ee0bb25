package conversation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codechat-ai/codebase-chat/internal/model"
)

func TestHistory_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	src := NewState()
	src.Append(model.RoleUser, "what does a.py do?")
	src.Append(model.RoleAssistant, "it sets x to 1")
	src.Append(model.RoleUser, "and .env?")

	require.NoError(t, SaveHistory(path, src))

	dst := NewState()
	require.NoError(t, LoadHistory(path, dst))

	assert.Equal(t, src.Messages(), dst.Messages())
}

func TestHistory_SaveIsIndentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	s := NewState()
	s.Append(model.RoleUser, "hello")
	require.NoError(t, SaveHistory(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {")
	assert.Contains(t, string(data), `"role": "user"`)
	assert.Contains(t, string(data), `"content": "hello"`)
}

func TestHistory_LoadIgnoresUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	doc := `[
  {"role": "user", "content": "hi", "timestamp": "2024-01-01T00:00:00Z"},
  {"role": "assistant", "content": "hello", "model": "claude-3-5-sonnet-20241022"}
]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s := NewState()
	require.NoError(t, LoadHistory(path, s))

	assert.Equal(t, []model.ChatMessage{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
	}, s.Messages())
}

func TestHistory_LoadMissingFile(t *testing.T) {
	s := NewState()
	err := LoadHistory(filepath.Join(t.TempDir(), "nope.json"), s)
	assert.Error(t, err)
}
