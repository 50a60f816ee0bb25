package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codechat-ai/codebase-chat/internal/codebase"
	"github.com/codechat-ai/codebase-chat/internal/config"
	"github.com/codechat-ai/codebase-chat/internal/conversation"
	"github.com/codechat-ai/codebase-chat/internal/llm"
	"github.com/codechat-ai/codebase-chat/internal/model"
	"github.com/codechat-ai/codebase-chat/pkg/logger"
	"github.com/codechat-ai/codebase-chat/pkg/metrics"
)

// TurnPublisher publishes session events to the audit stream.
// *nats.StreamManager implements it; a nil publisher disables publishing.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, event *model.TurnEvent) (uint64, error)
}

// ChatService orchestrates a conversation turn: assemble the persistent
// file selection, build the provider request, record the exchange.
type ChatService struct {
	cfg       *config.Config
	llmClient llm.Client
	assembler *codebase.Assembler
	publisher TurnPublisher // nil when NATS is disabled
	logger    *logger.Logger
}

// NewChatService creates a new chat service. publisher may be nil.
func NewChatService(
	cfg *config.Config,
	llmClient llm.Client,
	assembler *codebase.Assembler,
	publisher TurnPublisher,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		cfg:       cfg,
		llmClient: llmClient,
		assembler: assembler,
		publisher: publisher,
		logger:    log,
	}
}

// Send runs one conversation turn against the provider. The user turn is
// recorded before the call; a failed call leaves the history with exactly
// that turn and nothing else.
func (s *ChatService) Send(ctx context.Context, sessionID string, state *conversation.State, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	return s.send(ctx, sessionID, state, req, nil)
}

// SendStream runs one conversation turn, invoking onToken for each token
// as the provider streams it.
func (s *ChatService) SendStream(ctx context.Context, sessionID string, state *conversation.State, req *model.SendMessageRequest, onToken llm.StreamCallback) (*model.SendMessageResponse, error) {
	return s.send(ctx, sessionID, state, req, onToken)
}

// SendAsync runs Send on a worker goroutine. done fires exactly once,
// after completion, with the final response or the classified failure.
func (s *ChatService) SendAsync(ctx context.Context, sessionID string, state *conversation.State, req *model.SendMessageRequest, done func(*model.SendMessageResponse, error)) {
	go func() {
		resp, err := s.send(ctx, sessionID, state, req, nil)
		done(resp, err)
	}()
}

func (s *ChatService) send(ctx context.Context, sessionID string, state *conversation.State, req *model.SendMessageRequest, onToken llm.StreamCallback) (*model.SendMessageResponse, error) {
	// Checked before any network activity and before the turn is recorded.
	if s.cfg.Credential() == "" {
		return nil, model.NewError(model.CodeConfiguration,
			"no API key configured; set the provider credential in the environment")
	}
	if s.llmClient == nil {
		return nil, model.NewError(model.CodeConfiguration, "no LLM client configured")
	}

	// A selection passed with the message replaces the persistent one.
	if len(req.Files) > 0 {
		state.SetPersistentFiles(req.Files)
	}

	state.Append(model.RoleUser, req.Content)
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()

	assembled, _ := s.assembler.Assemble(state.PersistentFiles())

	// System message is synthesized per request, never stored.
	history := state.Messages()
	messages := make([]model.ChatMessage, 0, len(history)+1)
	messages = append(messages, model.ChatMessage{
		Role:    model.RoleSystem,
		Content: s.cfg.SystemPreamble + assembled,
	})
	messages = append(messages, history...)

	completion := &llm.CompletionRequest{
		Model:       s.cfg.DefaultModel,
		Messages:    messages,
		MaxTokens:   s.cfg.DefaultMaxTokens,
		Temperature: req.Temperature,
		Stream:      onToken != nil,
	}
	// Absence, not zero, selects the defaults.
	if req.Model != "" {
		completion.Model = req.Model
	}
	if req.MaxTokens != nil {
		completion.MaxTokens = *req.MaxTokens
	}
	if req.Temperature == nil {
		temp := s.cfg.DefaultTemperature
		completion.Temperature = &temp
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.LLMRequestTimeout)
	defer cancel()

	start := time.Now()
	var resp *llm.CompletionResponse
	var err error
	if onToken != nil {
		resp, err = s.llmClient.CompleteStream(callCtx, completion, onToken)
	} else {
		resp, err = s.llmClient.Complete(callCtx, completion)
	}
	if err != nil {
		code := model.CodeOf(err)
		metrics.RecordLLMError(string(code))
		metrics.RecordLLMRequest(completion.Model, "error", time.Since(start).Seconds(), 0, 0)
		s.logger.Error("LLM request failed",
			zap.String("session_id", sessionID),
			zap.String("model", completion.Model),
			zap.String("code", string(code)),
			zap.Error(err),
		)
		s.publishTurn(sessionID, &model.TurnEvent{
			Type:   model.EventTypeError,
			Model:  completion.Model,
			Reason: model.UserMessage(err),
		})
		return nil, err
	}

	state.Append(model.RoleAssistant, resp.Content)
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()
	metrics.RecordLLMRequest(resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)

	s.logger.Info("turn completed",
		zap.String("session_id", sessionID),
		zap.String("model", resp.Model),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Int64("latency_ms", resp.LatencyMs),
	)

	s.publishTurn(sessionID, &model.TurnEvent{
		Type:      model.EventTypeTurn,
		Role:      model.RoleAssistant,
		Model:     resp.Model,
		TokensIn:  resp.TokensIn,
		TokensOut: resp.TokensOut,
	})

	return &model.SendMessageResponse{
		Reply:      resp.Content,
		Model:      resp.Model,
		TokensIn:   resp.TokensIn,
		TokensOut:  resp.TokensOut,
		LatencyMs:  resp.LatencyMs,
		StopReason: resp.StopReason,
	}, nil
}

// publishTurn emits a turn event to the audit stream. Publishing is best
// effort; an unreachable stream never fails the turn.
func (s *ChatService) publishTurn(sessionID string, event *model.TurnEvent) {
	publishEvent(s.publisher, s.logger, sessionID, event)
}

// publishEvent stamps and publishes an audit event. Shared by the chat and
// session services; a nil publisher makes it a no-op.
func publishEvent(p TurnPublisher, log *logger.Logger, sessionID string, event *model.TurnEvent) {
	if p == nil {
		return
	}
	event.ID = uuid.Must(uuid.NewV7()).String()
	event.SessionID = sessionID
	event.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := p.PublishTurn(ctx, event); err != nil {
		log.Warn("failed to publish audit event",
			zap.String("session_id", sessionID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}
