package service

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"studytrack/backend/internal/ai"
	"studytrack/backend/internal/db"
	"studytrack/backend/internal/model"
	"studytrack/backend/internal/repository"
)

type fakeGateway struct {
	calls         int
	systemPrompts []string
	messages      [][]ai.Message
	reply         string
	err           error
}

func (g *fakeGateway) Complete(ctx context.Context, systemPrompt string, messages []ai.Message) (string, error) {
	g.calls++
	g.systemPrompts = append(g.systemPrompts, systemPrompt)
	g.messages = append(g.messages, messages)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type chatFixture struct {
	svc      *ChatService
	gateway  *fakeGateway
	chatRepo *repository.ChatRepository
	userRepo *repository.UserRepository
	delays   []time.Duration
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if err := db.RunMigrations(database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	fx := &chatFixture{
		gateway:  &fakeGateway{reply: "assistant says hi"},
		chatRepo: repository.NewChatRepository(database),
		userRepo: repository.NewUserRepository(database),
	}
	fx.svc = NewChatService(fx.chatRepo, fx.userRepo, fx.gateway)
	fx.svc.pause = func(ctx context.Context, d time.Duration) {
		fx.delays = append(fx.delays, d)
	}
	fx.svc.pickIndex = func(n int) int { return 0 }
	return fx
}

func (fx *chatFixture) createUser(t *testing.T, examType string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: string(hash),
		ExamType:     examType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := fx.userRepo.Create(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

func (fx *chatFixture) createSession(t *testing.T, userID string) string {
	t.Helper()
	session, apiErr := fx.svc.CreateSession(context.Background(), userID, "")
	if apiErr != nil {
		t.Fatalf("create session: %v", apiErr)
	}
	if session.Title != "New Chat" {
		t.Fatalf("default title = %q", session.Title)
	}
	return session.ID
}

func TestPostMessageForeignSessionNotFound(t *testing.T) {
	fx := newChatFixture(t)
	owner := fx.createUser(t, "")
	intruder := fx.createUser(t, "")
	sessionID := fx.createSession(t, owner)

	_, apiErr := fx.svc.PostMessage(context.Background(), sessionID, intruder, "hello")
	if apiErr == nil || apiErr.Code != "session_not_found" {
		t.Fatalf("expected session_not_found, got %v", apiErr)
	}
	if fx.gateway.calls != 0 {
		t.Fatal("gateway must not be called for foreign sessions")
	}
}

func TestPostMessageCallsGatewayWithExamPrompt(t *testing.T) {
	fx := newChatFixture(t)
	userID := fx.createUser(t, model.ExamCoding)
	sessionID := fx.createSession(t, userID)

	result, apiErr := fx.svc.PostMessage(context.Background(), sessionID, userID, "explain quicksort")
	if apiErr != nil {
		t.Fatalf("post message: %v", apiErr)
	}
	if fx.gateway.calls != 1 {
		t.Fatalf("gateway calls = %d, want 1", fx.gateway.calls)
	}
	if !strings.Contains(fx.gateway.systemPrompts[0], "coding interview") {
		t.Fatal("coding system prompt not selected")
	}
	if result.UserMessage.Content != "explain quicksort" || result.UserMessage.Role != model.RoleUser {
		t.Fatalf("user message: %+v", result.UserMessage)
	}
	if result.AssistantMessage.Content != "assistant says hi" || result.AssistantMessage.Role != model.RoleAssistant {
		t.Fatalf("assistant message: %+v", result.AssistantMessage)
	}

	// Both messages visible in the stored history, in order.
	detail, apiErr := fx.svc.GetSession(context.Background(), sessionID, userID)
	if apiErr != nil {
		t.Fatalf("get session: %v", apiErr)
	}
	if len(detail.Messages) != 2 {
		t.Fatalf("history length = %d", len(detail.Messages))
	}
	if detail.Messages[0].Role != model.RoleUser || detail.Messages[1].Role != model.RoleAssistant {
		t.Fatalf("history order wrong: %s then %s", detail.Messages[0].Role, detail.Messages[1].Role)
	}
}

func TestPostMessageDomainRedirectSkipsGateway(t *testing.T) {
	fx := newChatFixture(t)
	userID := fx.createUser(t, model.ExamUPSC)
	sessionID := fx.createSession(t, userID)

	result, apiErr := fx.svc.PostMessage(context.Background(), sessionID, userID, "who will win the cricket match today")
	if apiErr != nil {
		t.Fatalf("post message: %v", apiErr)
	}
	if fx.gateway.calls != 0 {
		t.Fatal("off-topic message must not reach the gateway")
	}
	if !strings.Contains(result.AssistantMessage.Content, "UPSC CSE and general academic topics") {
		t.Fatalf("redirect reply: %q", result.AssistantMessage.Content)
	}
	if len(fx.delays) != 0 {
		t.Fatal("domain redirect must not be delayed")
	}
}

func TestPostMessageIdentityOverrideDelayed(t *testing.T) {
	fx := newChatFixture(t)
	userID := fx.createUser(t, "")
	sessionID := fx.createSession(t, userID)

	result, apiErr := fx.svc.PostMessage(context.Background(), sessionID, userID, "who created you?")
	if apiErr != nil {
		t.Fatalf("post message: %v", apiErr)
	}
	if fx.gateway.calls != 0 {
		t.Fatal("identity question must not reach the gateway")
	}
	if !strings.Contains(result.AssistantMessage.Content, "Adarsh Tiwari") {
		t.Fatalf("reply lacks attribution: %q", result.AssistantMessage.Content)
	}
	if len(fx.delays) != 1 {
		t.Fatalf("expected one pacing delay, got %d", len(fx.delays))
	}
	if fx.delays[0] < 3*time.Second || fx.delays[0] > 7*time.Second {
		t.Fatalf("delay %v outside 3-7s", fx.delays[0])
	}
}

func TestPostMessageGatewayFailureFallsBack(t *testing.T) {
	fx := newChatFixture(t)
	fx.gateway.err = errors.New("upstream exploded")
	userID := fx.createUser(t, model.ExamDSA)
	sessionID := fx.createSession(t, userID)

	result, apiErr := fx.svc.PostMessage(context.Background(), sessionID, userID, "explain heaps")
	if apiErr != nil {
		t.Fatalf("gateway failure must not surface: %v", apiErr)
	}
	if result.AssistantMessage.Content != ai.FallbackReply {
		t.Fatalf("expected fallback reply, got %q", result.AssistantMessage.Content)
	}
}

func TestPostMessageHistoryWindowCapped(t *testing.T) {
	fx := newChatFixture(t)
	userID := fx.createUser(t, model.ExamAIML)
	sessionID := fx.createSession(t, userID)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 15; i++ {
		msg := model.ChatMessage{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Role:      model.RoleUser,
			Content:   "old message",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := fx.chatRepo.CreateMessage(context.Background(), &msg); err != nil {
			t.Fatalf("seed message %d: %v", i, err)
		}
	}

	if _, apiErr := fx.svc.PostMessage(context.Background(), sessionID, userID, "latest question"); apiErr != nil {
		t.Fatalf("post message: %v", apiErr)
	}

	sent := fx.gateway.messages[0]
	if len(sent) != 10 {
		t.Fatalf("window size = %d, want 10", len(sent))
	}
	if sent[len(sent)-1].Content != "latest question" {
		t.Fatalf("window must end with the newest message, got %q", sent[len(sent)-1].Content)
	}
}

func TestListSessionsOrderAndPreview(t *testing.T) {
	fx := newChatFixture(t)
	userID := fx.createUser(t, "")

	first := fx.createSession(t, userID)
	fx.createSession(t, userID)
	fx.createSession(t, userID)

	// Activity on the oldest session moves it to the front.
	if _, apiErr := fx.svc.PostMessage(context.Background(), first, userID, "hello there"); apiErr != nil {
		t.Fatalf("post message: %v", apiErr)
	}

	previews, apiErr := fx.svc.ListSessions(context.Background(), userID)
	if apiErr != nil {
		t.Fatalf("list sessions: %v", apiErr)
	}
	if len(previews) != 3 {
		t.Fatalf("session count = %d", len(previews))
	}
	if previews[0].ID != first {
		t.Fatalf("most recently active session should lead, got %s", previews[0].ID)
	}
	for _, p := range previews {
		if len(p.Messages) > 1 {
			t.Fatalf("preview for %s carries %d messages", p.ID, len(p.Messages))
		}
	}
	if len(previews[0].Messages) != 1 || previews[0].Messages[0].Role != model.RoleAssistant {
		t.Fatal("active session preview should be its latest (assistant) message")
	}
}

func TestDeleteSessionIdempotent(t *testing.T) {
	fx := newChatFixture(t)
	userID := fx.createUser(t, "")
	other := fx.createUser(t, "")
	sessionID := fx.createSession(t, userID)

	// A foreign delete succeeds without removing anything.
	if apiErr := fx.svc.DeleteSession(context.Background(), sessionID, other); apiErr != nil {
		t.Fatalf("foreign delete: %v", apiErr)
	}
	if _, apiErr := fx.svc.GetSession(context.Background(), sessionID, userID); apiErr != nil {
		t.Fatal("foreign delete must not remove the session")
	}

	if apiErr := fx.svc.DeleteSession(context.Background(), sessionID, userID); apiErr != nil {
		t.Fatalf("first delete: %v", apiErr)
	}
	if apiErr := fx.svc.DeleteSession(context.Background(), sessionID, userID); apiErr != nil {
		t.Fatalf("second delete: %v", apiErr)
	}
	if _, apiErr := fx.svc.GetSession(context.Background(), sessionID, userID); apiErr == nil || apiErr.Code != "session_not_found" {
		t.Fatalf("session should be gone, got %v", apiErr)
	}
}
