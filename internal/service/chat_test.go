package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/codechat-ai/codebase-chat/internal/codebase"
	"github.com/codechat-ai/codebase-chat/internal/config"
	"github.com/codechat-ai/codebase-chat/internal/conversation"
	"github.com/codechat-ai/codebase-chat/internal/llm"
	"github.com/codechat-ai/codebase-chat/internal/model"
	"github.com/codechat-ai/codebase-chat/pkg/logger"
)

// fakeClient records the requests it receives and returns a canned reply.
type fakeClient struct {
	calls   atomic.Int64
	lastReq *llm.CompletionRequest
	reply   string
	err     error
}

func (f *fakeClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls.Add(1)
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply, Model: req.Model}, nil
}

func (f *fakeClient) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	f.calls.Add(1)
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	for i, token := range strings.SplitAfter(f.reply, " ") {
		if err := callback(token, i); err != nil {
			return nil, err
		}
	}
	return &llm.CompletionResponse{Content: f.reply, Model: req.Model}, nil
}

func (f *fakeClient) Name() string     { return "fake" }
func (f *fakeClient) Models() []string { return []string{"fake-1"} }

func testChatConfig() *config.Config {
	return &config.Config{
		SupportedExtensions: []string{".py"},
		SpecialFiles:        []string{".env"},
		IgnoreFolders:       []string{"venv"},
		AnthropicAPIKey:     "test-key",
		DefaultLLM:          "anthropic",
		DefaultModel:        "default-model",
		DefaultMaxTokens:    4096,
		DefaultTemperature:  1.0,
		LLMRequestTimeout:   5 * time.Second,
		SystemPreamble:      "You are analyzing a codebase:\n",
	}
}

func nopLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func newTestChat(cfg *config.Config, client llm.Client) *ChatService {
	assembler := codebase.NewAssembler(cfg, nil)
	return NewChatService(cfg, client, assembler, nil, nopLogger())
}

func TestChatService_NoCredentialFailsBeforeNetwork(t *testing.T) {
	cfg := testChatConfig()
	cfg.AnthropicAPIKey = ""
	client := &fakeClient{reply: "hi"}
	chat := newTestChat(cfg, client)
	state := conversation.NewState()

	_, err := chat.Send(context.Background(), "s1", state, &model.SendMessageRequest{Content: "q"})
	require.Error(t, err)
	assert.Equal(t, model.CodeConfiguration, model.CodeOf(err))
	assert.EqualValues(t, 0, client.calls.Load(), "no network call may be attempted")
	assert.Equal(t, 0, state.Len())
}

func TestChatService_SendRecordsBothTurns(t *testing.T) {
	client := &fakeClient{reply: "the answer"}
	chat := newTestChat(testChatConfig(), client)
	state := conversation.NewState()

	resp, err := chat.Send(context.Background(), "s1", state, &model.SendMessageRequest{Content: "the question"})
	require.NoError(t, err)
	assert.Equal(t, "the answer", resp.Reply)

	msgs := state.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.ChatMessage{Role: model.RoleUser, Content: "the question"}, msgs[0])
	assert.Equal(t, model.ChatMessage{Role: model.RoleAssistant, Content: "the answer"}, msgs[1])
}

func TestChatService_FailedSendKeepsOnlyUserTurn(t *testing.T) {
	client := &fakeClient{err: model.NewError(model.CodeRateLimited, "slow down")}
	chat := newTestChat(testChatConfig(), client)
	state := conversation.NewState()

	_, err := chat.Send(context.Background(), "s1", state, &model.SendMessageRequest{Content: "q"})
	require.Error(t, err)
	assert.Equal(t, model.CodeRateLimited, model.CodeOf(err))

	msgs := state.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
}

func TestChatService_SystemMessageEmbedsAssembledContent(t *testing.T) {
	cfg := testChatConfig()
	root := t.TempDir()
	path := filepath.Join(root, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o644))

	client := &fakeClient{reply: "ok"}
	chat := newTestChat(cfg, client)
	state := conversation.NewState()
	state.SetPersistentFiles([]string{path})
	state.Append(model.RoleAssistant, "earlier reply")

	_, err := chat.Send(context.Background(), "s1", state, &model.SendMessageRequest{Content: "q"})
	require.NoError(t, err)

	req := client.lastReq
	require.NotNil(t, req)
	require.NotEmpty(t, req.Messages)
	assert.Equal(t, model.RoleSystem, req.Messages[0].Role)
	assert.True(t, strings.HasPrefix(req.Messages[0].Content, cfg.SystemPreamble))
	assert.Contains(t, req.Messages[0].Content, "=== File: a.py ===\nx=1")

	// Full prior history follows, in chronological order, ending with the
	// new user turn.
	assert.Equal(t, model.RoleAssistant, req.Messages[1].Role)
	assert.Equal(t, model.RoleUser, req.Messages[2].Role)
	assert.Equal(t, "q", req.Messages[2].Content)
}

func TestChatService_DefaultsUsePresenceNotTruthiness(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	chat := newTestChat(testChatConfig(), client)

	t.Run("absent values fall back to config", func(t *testing.T) {
		state := conversation.NewState()
		_, err := chat.Send(context.Background(), "s1", state, &model.SendMessageRequest{Content: "q"})
		require.NoError(t, err)

		assert.Equal(t, "default-model", client.lastReq.Model)
		assert.Equal(t, 4096, client.lastReq.MaxTokens)
		require.NotNil(t, client.lastReq.Temperature)
		assert.Equal(t, 1.0, *client.lastReq.Temperature)
	})

	t.Run("explicit zero temperature survives", func(t *testing.T) {
		state := conversation.NewState()
		zero := 0.0
		_, err := chat.Send(context.Background(), "s1", state, &model.SendMessageRequest{
			Content:     "q",
			Temperature: &zero,
		})
		require.NoError(t, err)

		require.NotNil(t, client.lastReq.Temperature)
		assert.Equal(t, 0.0, *client.lastReq.Temperature)
	})

	t.Run("explicit model and max tokens are used", func(t *testing.T) {
		state := conversation.NewState()
		maxTokens := 128
		_, err := chat.Send(context.Background(), "s1", state, &model.SendMessageRequest{
			Content:   "q",
			Model:     "custom-model",
			MaxTokens: &maxTokens,
		})
		require.NoError(t, err)

		assert.Equal(t, "custom-model", client.lastReq.Model)
		assert.Equal(t, 128, client.lastReq.MaxTokens)
	})
}

func TestChatService_SendAsyncFiresCallbackOnce(t *testing.T) {
	client := &fakeClient{reply: "async answer"}
	chat := newTestChat(testChatConfig(), client)
	state := conversation.NewState()

	var fired atomic.Int64
	done := make(chan struct{})
	chat.SendAsync(context.Background(), "s1", state, &model.SendMessageRequest{Content: "q"}, func(resp *model.SendMessageResponse, err error) {
		fired.Add(1)
		assert.NoError(t, err)
		assert.Equal(t, "async answer", resp.Reply)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("callback did not fire")
	}
	assert.EqualValues(t, 1, fired.Load())
}

func TestChatService_SendStreamDeliversTokens(t *testing.T) {
	client := &fakeClient{reply: "a b c"}
	chat := newTestChat(testChatConfig(), client)
	state := conversation.NewState()

	var tokens []string
	resp, err := chat.SendStream(context.Background(), "s1", state, &model.SendMessageRequest{Content: "q"}, func(token string, index int) error {
		tokens = append(tokens, token)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "a b c", resp.Reply)
	assert.Equal(t, "a b c", strings.Join(tokens, ""))
}
