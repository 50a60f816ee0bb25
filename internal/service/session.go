// Package service provides business logic for the codebase chat service.
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codechat-ai/codebase-chat/internal/conversation"
	"github.com/codechat-ai/codebase-chat/internal/model"
	"github.com/codechat-ai/codebase-chat/pkg/logger"
	"github.com/codechat-ai/codebase-chat/pkg/metrics"
)

type sessionEntry struct {
	meta  model.Session
	state *conversation.State

	// inFlight guards against concurrent sends on the same session.
	inFlight bool
}

// SessionService is an in-memory registry of conversation sessions.
type SessionService struct {
	logger    *logger.Logger
	publisher TurnPublisher // nil when NATS is disabled

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// NewSessionService creates a new session service. publisher may be nil.
func NewSessionService(publisher TurnPublisher, log *logger.Logger) *SessionService {
	return &SessionService{
		logger:    log,
		publisher: publisher,
		sessions:  make(map[string]*sessionEntry),
	}
}

// Create creates a new session with an optional initial file selection.
func (s *SessionService) Create(ctx context.Context, userID string, req *model.CreateSessionRequest) (*model.Session, error) {
	now := time.Now()

	entry := &sessionEntry{
		meta: model.Session{
			ID:        uuid.Must(uuid.NewV7()).String(),
			UserID:    userID,
			Title:     req.Title,
			CreatedAt: now,
			UpdatedAt: now,
		},
		state: conversation.NewState(),
	}
	if len(req.Files) > 0 {
		entry.state.SetPersistentFiles(req.Files)
	}

	s.mu.Lock()
	s.sessions[entry.meta.ID] = entry
	s.mu.Unlock()

	metrics.SessionsTotal.Inc()
	s.logger.Info("session created",
		zap.String("session_id", entry.meta.ID),
		zap.String("user_id", userID),
	)

	meta := s.snapshot(entry)
	return &meta, nil
}

// Get retrieves session metadata by ID.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}
	meta := s.snapshot(entry)
	return &meta, nil
}

// State returns the conversation state owned by a session.
func (s *SessionService) State(sessionID string) (*conversation.State, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}
	return entry.state, nil
}

// List retrieves all sessions for a user, newest first.
func (s *SessionService) List(ctx context.Context, userID string) (*model.ListSessionsResponse, error) {
	s.mu.RLock()
	var matched []*sessionEntry
	for _, entry := range s.sessions {
		if userID == "" || entry.meta.UserID == userID {
			matched = append(matched, entry)
		}
	}
	s.mu.RUnlock()

	sessions := make([]model.Session, 0, len(matched))
	for _, entry := range matched {
		sessions = append(sessions, s.snapshot(entry))
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	return &model.ListSessionsResponse{
		Sessions: sessions,
		Total:    len(sessions),
	}, nil
}

// Clear resets a session's message history and persistent file selection
// as one atomic operation.
func (s *SessionService) Clear(ctx context.Context, sessionID string) error {
	entry, err := s.entry(sessionID)
	if err != nil {
		return err
	}
	entry.state.Clear()
	s.touch(sessionID)
	publishEvent(s.publisher, s.logger, sessionID, &model.TurnEvent{
		Type: model.EventTypeClear,
	})
	return nil
}

// Delete removes a session from the registry.
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sessionID]; !exists {
		return model.NewError(model.CodeNotFound, "session not found")
	}
	delete(s.sessions, sessionID)
	return nil
}

// SetFiles replaces a session's persistent file selection.
func (s *SessionService) SetFiles(ctx context.Context, sessionID string, files []string) error {
	entry, err := s.entry(sessionID)
	if err != nil {
		return err
	}
	entry.state.SetPersistentFiles(files)
	s.touch(sessionID)
	return nil
}

// BeginSend marks a session as having a send in flight. It reports false
// when another send is already outstanding; callers must reject the new
// request rather than queue it.
func (s *SessionService) BeginSend(sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, exists := s.sessions[sessionID]
	if !exists {
		return false, model.NewError(model.CodeNotFound, "session not found")
	}
	if entry.inFlight {
		return false, nil
	}
	entry.inFlight = true
	return true, nil
}

// EndSend clears the in-flight marker set by BeginSend.
func (s *SessionService) EndSend(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, exists := s.sessions[sessionID]; exists {
		entry.inFlight = false
		entry.meta.UpdatedAt = time.Now()
	}
}

func (s *SessionService) entry(sessionID string) (*sessionEntry, error) {
	s.mu.RLock()
	entry, exists := s.sessions[sessionID]
	s.mu.RUnlock()
	if !exists {
		return nil, model.NewError(model.CodeNotFound, "session not found")
	}
	return entry, nil
}

func (s *SessionService) touch(sessionID string) {
	s.mu.Lock()
	if entry, exists := s.sessions[sessionID]; exists {
		entry.meta.UpdatedAt = time.Now()
	}
	s.mu.Unlock()
}

// snapshot copies session metadata with live counters filled in. It takes
// the registry read lock itself; callers must not already hold it, since
// EndSend and touch mutate meta under the write lock.
func (s *SessionService) snapshot(entry *sessionEntry) model.Session {
	s.mu.RLock()
	meta := entry.meta
	s.mu.RUnlock()
	meta.MessageCount = entry.state.Len()
	meta.Files = entry.state.PersistentFiles()
	return meta
}
