package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"studytrack/backend/internal/ai"
	"studytrack/backend/internal/db"
	"studytrack/backend/internal/handler"
	"studytrack/backend/internal/repository"
	"studytrack/backend/internal/router"
	"studytrack/backend/internal/service"
)

type stubGateway struct {
	calls int64
	reply string
}

func (g *stubGateway) Complete(ctx context.Context, systemPrompt string, messages []ai.Message) (string, error) {
	atomic.AddInt64(&g.calls, 1)
	return g.reply, nil
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type stateEnvelope struct {
	State struct {
		Phase            string `json:"phase"`
		Running          bool   `json:"running"`
		RemainingSeconds int    `json:"remainingSeconds"`
		WorkCycleCount   int    `json:"workCycleCount"`
		Subject          string `json:"subject"`
	} `json:"state"`
}

type sessionEnvelope struct {
	Session struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"session"`
}

type sessionListEnvelope struct {
	Sessions []struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	} `json:"sessions"`
}

type sessionDetailEnvelope struct {
	Session struct {
		ID       string `json:"id"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	} `json:"session"`
}

type postMessageResponse struct {
	UserMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"userMessage"`
	AssistantMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"assistantMessage"`
}

type taskEnvelope struct {
	Task struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Status   string `json:"status"`
		Priority string `json:"priority"`
	} `json:"task"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestTimerEndpoints(t *testing.T) {
	engine, _ := setupTestEngine(t)

	user1 := registerUser(t, engine, "timer1@example.com", "123456")
	user2 := registerUser(t, engine, "timer2@example.com", "123456")

	state := getState(t, engine, user1.Token)
	if state.State.Phase != "WORK" || state.State.Running {
		t.Fatalf("initial state: %+v", state.State)
	}
	if state.State.RemainingSeconds != 25*60 {
		t.Fatalf("initial remaining = %d", state.State.RemainingSeconds)
	}

	// Work phase refuses to start without a subject.
	status, raw := requestJSON(t, engine, http.MethodPost, "/api/timer/start", user1.Token, map[string]string{})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 on subjectless start, got %d", status)
	}
	var errResp apiErrorEnvelope
	if err := json.Unmarshal(raw, &errResp); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if errResp.Error.Code != "subject_required" {
		t.Fatalf("expected subject_required, got %s", errResp.Error.Code)
	}

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/timer/start", user1.Token, map[string]string{
		"subject": "Physics",
		"topic":   "Kinematics",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d: %s", status, string(raw))
	}
	var started stateEnvelope
	if err := json.Unmarshal(raw, &started); err != nil {
		t.Fatalf("unmarshal start response: %v", err)
	}
	if !started.State.Running || started.State.Subject != "Physics" {
		t.Fatalf("state after start: %+v", started.State)
	}

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/timer/pause", user1.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on pause, got %d", status)
	}
	var paused stateEnvelope
	if err := json.Unmarshal(raw, &paused); err != nil {
		t.Fatalf("unmarshal pause response: %v", err)
	}
	if paused.State.Running {
		t.Fatal("pause left the timer running")
	}

	// User isolation: user2's timer is untouched by user1's activity.
	state2 := getState(t, engine, user2.Token)
	if state2.State.Running || state2.State.Subject != "" {
		t.Fatalf("user2 state leaked: %+v", state2.State)
	}

	status, _ = requestJSON(t, engine, http.MethodPut, "/api/timer/settings", user1.Token, map[string]int{
		"workMinutes":       50,
		"shortBreakMinutes": 10,
		"longBreakMinutes":  20,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on settings update, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodGet, "/api/timer/state", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
}

func TestChatSessionLifecycle(t *testing.T) {
	engine, gateway := setupTestEngine(t)
	gateway.reply = "Quicksort is a divide and conquer algorithm."

	user := registerUser(t, engine, "chat@example.com", "123456")
	setExamType(t, engine, user.Token, "CODING")

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/chat/sessions", user.Token, map[string]string{})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on create session, got %d", status)
	}
	var created sessionEnvelope
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	if created.Session.Title != "New Chat" {
		t.Fatalf("default title = %q", created.Session.Title)
	}

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/chat/messages", user.Token, map[string]string{
		"sessionId": created.Session.ID,
		"content":   "explain quicksort",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on message, got %d: %s", status, string(raw))
	}
	var posted postMessageResponse
	if err := json.Unmarshal(raw, &posted); err != nil {
		t.Fatalf("unmarshal message response: %v", err)
	}
	if posted.AssistantMessage.Content != gateway.reply {
		t.Fatalf("assistant reply = %q", posted.AssistantMessage.Content)
	}
	if atomic.LoadInt64(&gateway.calls) != 1 {
		t.Fatalf("gateway calls = %d, want 1", atomic.LoadInt64(&gateway.calls))
	}

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/chat/sessions/"+created.Session.ID, user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on get session, got %d", status)
	}
	var detail sessionDetailEnvelope
	if err := json.Unmarshal(raw, &detail); err != nil {
		t.Fatalf("unmarshal session detail: %v", err)
	}
	if len(detail.Session.Messages) != 2 {
		t.Fatalf("message count = %d", len(detail.Session.Messages))
	}
	if detail.Session.Messages[0].Role != "user" || detail.Session.Messages[1].Role != "assistant" {
		t.Fatalf("message order: %s then %s", detail.Session.Messages[0].Role, detail.Session.Messages[1].Role)
	}

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/chat/sessions", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on list sessions, got %d", status)
	}
	var list sessionListEnvelope
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("unmarshal session list: %v", err)
	}
	if len(list.Sessions) != 1 || len(list.Sessions[0].Messages) != 1 {
		t.Fatalf("session list: %+v", list.Sessions)
	}

	// Ownership: a second user cannot see or post into the session.
	intruder := registerUser(t, engine, "intruder@example.com", "123456")
	status, _ = requestJSON(t, engine, http.MethodGet, "/api/chat/sessions/"+created.Session.ID, intruder.Token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign session, got %d", status)
	}

	// Delete is idempotent: the second call succeeds too.
	for i := 0; i < 2; i++ {
		status, _ = requestJSON(t, engine, http.MethodDelete, "/api/chat/sessions/"+created.Session.ID, user.Token, nil)
		if status != http.StatusOK {
			t.Fatalf("delete attempt %d: expected 200, got %d", i+1, status)
		}
	}
	status, _ = requestJSON(t, engine, http.MethodGet, "/api/chat/sessions/"+created.Session.ID, user.Token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
}

func TestChatDomainRestriction(t *testing.T) {
	engine, gateway := setupTestEngine(t)

	user := registerUser(t, engine, "upsc@example.com", "123456")
	setExamType(t, engine, user.Token, "UPSC")

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/chat/sessions", user.Token, map[string]string{})
	if status != http.StatusCreated {
		t.Fatalf("create session: %d", status)
	}
	var created sessionEnvelope
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/chat/messages", user.Token, map[string]string{
		"sessionId": created.Session.ID,
		"content":   "who will win the cricket match today",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, string(raw))
	}
	var posted postMessageResponse
	if err := json.Unmarshal(raw, &posted); err != nil {
		t.Fatalf("unmarshal message response: %v", err)
	}
	if !strings.Contains(posted.AssistantMessage.Content, "UPSC CSE") {
		t.Fatalf("expected a study redirect, got %q", posted.AssistantMessage.Content)
	}
	if atomic.LoadInt64(&gateway.calls) != 0 {
		t.Fatal("off-topic message must not reach the completion endpoint")
	}
}

func TestTaskCRUD(t *testing.T) {
	engine, _ := setupTestEngine(t)
	user := registerUser(t, engine, "tasks@example.com", "123456")

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/tasks", user.Token, map[string]string{
		"title": "Revise modern history",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on create task, got %d: %s", status, string(raw))
	}
	var created taskEnvelope
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}
	if created.Task.Status != "TODO" || created.Task.Priority != "MEDIUM" {
		t.Fatalf("task defaults: %+v", created.Task)
	}

	status, raw = requestJSON(t, engine, http.MethodPut, "/api/tasks/"+created.Task.ID, user.Token, map[string]string{
		"title":  "Revise modern history",
		"status": "COMPLETED",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", status, string(raw))
	}
	var updated taskEnvelope
	if err := json.Unmarshal(raw, &updated); err != nil {
		t.Fatalf("unmarshal updated task: %v", err)
	}
	if updated.Task.Status != "COMPLETED" {
		t.Fatalf("status after update = %s", updated.Task.Status)
	}

	// Updates are ownership-scoped.
	other := registerUser(t, engine, "tasks2@example.com", "123456")
	status, _ = requestJSON(t, engine, http.MethodPut, "/api/tasks/"+created.Task.ID, other.Token, map[string]string{
		"title": "hijack",
	})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign update, got %d", status)
	}

	// Deletes succeed even when repeated.
	for i := 0; i < 2; i++ {
		status, _ = requestJSON(t, engine, http.MethodDelete, "/api/tasks/"+created.Task.ID, user.Token, nil)
		if status != http.StatusOK {
			t.Fatalf("delete attempt %d: expected 200, got %d", i+1, status)
		}
	}
}

func TestAuthFlow(t *testing.T) {
	engine, _ := setupTestEngine(t)

	registerUser(t, engine, "dup@example.com", "123456")

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "dup@example.com",
		"password": "123456",
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", status)
	}
	var errResp apiErrorEnvelope
	if err := json.Unmarshal(raw, &errResp); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if errResp.Error.Code != "email_exists" {
		t.Fatalf("expected email_exists, got %s", errResp.Error.Code)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "dup@example.com",
		"password": "wrong-password",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "DUP@example.com",
		"password": "123456",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 for case-insensitive email login, got %d", status)
	}
}

func TestCORSPreflight(t *testing.T) {
	engine, _ := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func setupTestEngine(t *testing.T) (http.Handler, *stubGateway) {
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

	userRepo := repository.NewUserRepository(database)
	timerRepo := repository.NewTimerRepository(database)
	chatRepo := repository.NewChatRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	noteRepo := repository.NewNoteRepository(database)

	gateway := &stubGateway{reply: "stub reply"}

	authService := service.NewAuthService(userRepo, timerRepo, "test-secret", 24*time.Hour)
	h := router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Profile: handler.NewProfileHandler(service.NewProfileService(userRepo)),
		Timer:   handler.NewTimerHandler(service.NewTimerService(timerRepo, nil)),
		Chat:    handler.NewChatHandler(service.NewChatService(chatRepo, userRepo, gateway)),
		Task:    handler.NewTaskHandler(service.NewTaskService(taskRepo)),
		Note:    handler.NewNoteHandler(service.NewNoteService(noteRepo)),
	}

	return router.New(authService, h, []string{"http://localhost:5173"}), gateway
}

func registerUser(t *testing.T, server http.Handler, email, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func setExamType(t *testing.T, server http.Handler, token, examType string) {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPut, "/api/profile", token, map[string]string{
		"examType": examType,
	})
	if status != http.StatusOK {
		t.Fatalf("set exam type failed with status %d: %s", status, string(body))
	}
}

func getState(t *testing.T, server http.Handler, token string) stateEnvelope {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodGet, "/api/timer/state", token, nil)
	if status != http.StatusOK {
		t.Fatalf("get state failed with status %d: %s", status, string(body))
	}
	var stateResp stateEnvelope
	if err := json.Unmarshal(body, &stateResp); err != nil {
		t.Fatalf("unmarshal state response: %v", err)
	}
	return stateResp
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
