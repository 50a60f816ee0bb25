package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codechat-ai/codebase-chat/internal/codebase"
	"github.com/codechat-ai/codebase-chat/internal/llm"
	"github.com/codechat-ai/codebase-chat/internal/model"
	"github.com/codechat-ai/codebase-chat/internal/service"
)

// stubClient answers every completion with a fixed reply.
type stubClient struct {
	reply   string
	block   chan struct{} // when set, Complete waits until closed
	started chan struct{} // when set, closed once Complete is entered
}

func (s *stubClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if s.started != nil {
		select {
		case <-s.started:
		default:
			close(s.started)
		}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &llm.CompletionResponse{Content: s.reply, Model: req.Model}, nil
}

func (s *stubClient) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	if err := callback(s.reply, 0); err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: s.reply, Model: req.Model}, nil
}

func (s *stubClient) Name() string     { return "stub" }
func (s *stubClient) Models() []string { return []string{"stub-1"} }

func newTestRouter(t *testing.T, client llm.Client) (*chi.Mux, *service.SessionService) {
	t.Helper()
	cfg := testConfig()
	cfg.AnthropicAPIKey = "test-key"
	cfg.DefaultMaxTokens = 4096
	cfg.DefaultTemperature = 1.0
	cfg.LLMRequestTimeout = 5 * time.Second
	cfg.SystemPreamble = "preamble:\n"

	log := nopLogger()
	assembler := codebase.NewAssembler(cfg, nil)
	sessions := service.NewSessionService(nil, log)
	chat := service.NewChatService(cfg, client, assembler, nil, log)

	sessionHandler := NewSessionHandler(sessions, log)
	messageHandler := NewMessageHandler(chat, sessions, log)

	r := chi.NewRouter()
	r.Post("/sessions", sessionHandler.Create)
	r.Get("/sessions", sessionHandler.List)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", sessionHandler.Get)
		r.Delete("/", sessionHandler.Delete)
		r.Post("/clear", sessionHandler.Clear)
		r.Post("/files", sessionHandler.SetFiles)
		r.Get("/messages", messageHandler.List)
		r.Post("/messages", messageHandler.Send)
		r.Post("/history/export", sessionHandler.ExportHistory)
		r.Post("/history/import", sessionHandler.ImportHistory)
	})
	return r, sessions
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/sessions", model.CreateSessionRequest{Title: "t"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var session model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	return session.ID
}

func TestSessionEndpoints_SendAndHistory(t *testing.T) {
	r, _ := newTestRouter(t, &stubClient{reply: "a reply"})
	id := createSession(t, r)

	rec := doJSON(t, r, http.MethodPost, "/sessions/"+id+"/messages", model.SendMessageRequest{Content: "a question"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.SendMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a reply", resp.Reply)

	rec = doJSON(t, r, http.MethodGet, "/sessions/"+id+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history model.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Messages, 2)
	assert.Equal(t, model.RoleUser, history.Messages[0].Role)
	assert.Equal(t, model.RoleAssistant, history.Messages[1].Role)
}

func TestSessionEndpoints_ConcurrentSendRejected(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	r, _ := newTestRouter(t, &stubClient{reply: "slow", block: block, started: started})
	id := createSession(t, r)

	first := make(chan int)
	go func() {
		rec := doJSON(t, r, http.MethodPost, "/sessions/"+id+"/messages", model.SendMessageRequest{Content: "one"})
		first <- rec.Code
	}()

	// Wait until the first send is holding the in-flight slot.
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first send never reached the provider")
	}

	rec := doJSON(t, r, http.MethodPost, "/sessions/"+id+"/messages", model.SendMessageRequest{Content: "two"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(block)
	assert.Equal(t, http.StatusOK, <-first)
}

func TestSessionEndpoints_ClearIsIdempotent(t *testing.T) {
	r, sessions := newTestRouter(t, &stubClient{reply: "r"})
	id := createSession(t, r)

	rec := doJSON(t, r, http.MethodPost, "/sessions/"+id+"/messages", model.SendMessageRequest{Content: "q"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/sessions/"+id+"/clear", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, r, http.MethodPost, "/sessions/"+id+"/clear", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	state, err := sessions.State(id)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Len())
}

func TestSessionEndpoints_HistoryExportImport(t *testing.T) {
	r, _ := newTestRouter(t, &stubClient{reply: "answer"})
	id := createSession(t, r)

	rec := doJSON(t, r, http.MethodPost, "/sessions/"+id+"/messages", model.SendMessageRequest{Content: "question"})
	require.Equal(t, http.StatusOK, rec.Code)

	path := filepath.Join(t.TempDir(), "history.json")
	rec = doJSON(t, r, http.MethodPost, "/sessions/"+id+"/history/export", model.HistoryRequest{Path: path})
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Import into a fresh session and compare histories.
	other := createSession(t, r)
	rec = doJSON(t, r, http.MethodPost, "/sessions/"+other+"/history/import", model.HistoryRequest{Path: path})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/sessions/"+other+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history model.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "question", history.Messages[0].Content)
}

func TestSessionEndpoints_InvalidID(t *testing.T) {
	r, _ := newTestRouter(t, &stubClient{reply: "r"})

	rec := doJSON(t, r, http.MethodGet, "/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/sessions/00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
