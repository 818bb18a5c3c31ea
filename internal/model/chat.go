package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChatMessage is append-only; a session's messages are ordered by insertion.
type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatSessionPreview is a session with at most its single most recent message,
// used by the session list so clients never pull full histories there.
type ChatSessionPreview struct {
	ChatSession
	Messages []ChatMessage `json:"messages"`
}

// ChatSessionDetail is a session with its full history in creation order.
type ChatSessionDetail struct {
	ChatSession
	Messages []ChatMessage `json:"messages"`
}
