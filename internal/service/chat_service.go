package service

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"studytrack/backend/internal/ai"
	apperrors "studytrack/backend/internal/errors"
	"studytrack/backend/internal/model"
	"studytrack/backend/internal/repository"
)

// Conversation context sent to the completion endpoint is capped at the last
// historyWindow messages regardless of session length.
const historyWindow = 10

const defaultSessionTitle = "New Chat"

type ChatService struct {
	chatRepo *repository.ChatRepository
	userRepo *repository.UserRepository
	gateway  ai.Gateway

	// pause waits for the identity-override pacing delay. It runs on the
	// request's own goroutine, so it never holds up other sessions.
	pause      func(ctx context.Context, d time.Duration)
	pickIndex  func(n int) int
	delayRange func() time.Duration
	now        func() time.Time
}

type PostMessageResult struct {
	UserMessage      model.ChatMessage `json:"userMessage"`
	AssistantMessage model.ChatMessage `json:"assistantMessage"`
}

func NewChatService(
	chatRepo *repository.ChatRepository,
	userRepo *repository.UserRepository,
	gateway ai.Gateway,
) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		gateway:  gateway,
		pause: func(ctx context.Context, d time.Duration) {
			select {
			case <-time.After(d):
			case <-ctx.Done():
			}
		},
		pickIndex: rand.Intn,
		delayRange: func() time.Duration {
			// 3-7 seconds, uniform.
			return 3*time.Second + time.Duration(rand.Int63n(int64(4*time.Second)))
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *ChatService) CreateSession(ctx context.Context, userID, title string) (*model.ChatSession, *apperrors.APIError) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultSessionTitle
	}

	now := s.now()
	session := model.ChatSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.chatRepo.CreateSession(ctx, &session); err != nil {
		return nil, apperrors.Internal("failed to create session")
	}
	return &session, nil
}

// ListSessions returns the user's sessions newest-activity first, each with
// at most its latest message attached as a preview.
func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]model.ChatSessionPreview, *apperrors.APIError) {
	sessions, err := s.chatRepo.ListSessions(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch sessions")
	}

	previews := make([]model.ChatSessionPreview, 0, len(sessions))
	for _, session := range sessions {
		preview := model.ChatSessionPreview{
			ChatSession: session,
			Messages:    []model.ChatMessage{},
		}
		latest, err := s.chatRepo.LatestMessage(ctx, session.ID)
		if err != nil {
			return nil, apperrors.Internal("failed to fetch sessions")
		}
		if latest != nil {
			preview.Messages = append(preview.Messages, *latest)
		}
		previews = append(previews, preview)
	}
	return previews, nil
}

func (s *ChatService) GetSession(ctx context.Context, sessionID, userID string) (*model.ChatSessionDetail, *apperrors.APIError) {
	session, err := s.chatRepo.GetSessionForUser(ctx, sessionID, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("session_not_found", "chat session not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to fetch session")
	}

	messages, err := s.chatRepo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch session")
	}
	return &model.ChatSessionDetail{
		ChatSession: *session,
		Messages:    messages,
	}, nil
}

// DeleteSession is idempotent: deleting an absent or foreign session still
// reports success to the caller, with the anomaly logged.
func (s *ChatService) DeleteSession(ctx context.Context, sessionID, userID string) *apperrors.APIError {
	deleted, err := s.chatRepo.DeleteSessionForUser(ctx, sessionID, userID)
	if err != nil {
		return apperrors.Internal("failed to delete session")
	}
	if deleted == 0 {
		log.Printf("chat: delete of session %s for user %s removed nothing", sessionID, userID)
	}
	return nil
}

// PostMessage appends the user's message, produces an assistant reply (local
// override or completion call), appends that too, and returns both.
func (s *ChatService) PostMessage(ctx context.Context, sessionID, userID, content string) (*PostMessageResult, *apperrors.APIError) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.BadRequest("invalid_content", "message content is required")
	}

	if _, err := s.chatRepo.GetSessionForUser(ctx, sessionID, userID); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("session_not_found", "chat session not found")
		}
		return nil, apperrors.Internal("failed to fetch session")
	}

	// The user's message must be durable before any AI step runs; unlike
	// timer records, a failed write here propagates.
	userMessage := model.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.chatRepo.CreateMessage(ctx, &userMessage); err != nil {
		return nil, apperrors.Internal("failed to save message")
	}

	window, err := s.chatRepo.ListRecentMessages(ctx, sessionID, historyWindow)
	if err != nil {
		return nil, apperrors.Internal("failed to load conversation context")
	}

	examType := ""
	if user, err := s.userRepo.GetByID(ctx, userID); err == nil {
		examType = user.ExamType
	}

	reply := s.produceReply(ctx, window, examType)

	assistantMessage := model.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      model.RoleAssistant,
		Content:   reply,
		CreatedAt: s.now(),
	}
	if err := s.chatRepo.CreateMessage(ctx, &assistantMessage); err != nil {
		return nil, apperrors.Internal("failed to save message")
	}

	if err := s.chatRepo.TouchSession(ctx, sessionID, s.now().Format(time.RFC3339Nano)); err != nil {
		return nil, apperrors.Internal("failed to update session")
	}

	return &PostMessageResult{
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
	}, nil
}

// produceReply evaluates the override rules against the latest user-role
// message; only if none fires does it call the completion endpoint.
func (s *ChatService) produceReply(ctx context.Context, window []model.ChatMessage, examType string) string {
	if last := lastUserMessage(window); last != nil {
		if override := ai.EvaluateOverrides(last.Content, examType, s.pickIndex); override != nil {
			if override.Delayed {
				s.pause(ctx, s.delayRange())
			}
			return override.Reply
		}
	}

	messages := make([]ai.Message, 0, len(window))
	for _, msg := range window {
		messages = append(messages, ai.Message{Role: msg.Role, Content: msg.Content})
	}

	reply, err := s.gateway.Complete(ctx, ai.SystemPrompt(examType), messages)
	if err != nil {
		log.Printf("chat: completion call failed: %v", err)
		return ai.FallbackReply
	}
	return reply
}

// lastUserMessage filters by role before taking the last element: assistant
// turns may interleave, and the persisted sequence is authoritative.
func lastUserMessage(window []model.ChatMessage) *model.ChatMessage {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Role == model.RoleUser {
			return &window[i]
		}
	}
	return nil
}
