package repository

import (
	"context"
	"database/sql"
	"fmt"

	"studytrack/backend/internal/model"
)

type ChatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) CreateSession(ctx context.Context, session *model.ChatSession) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO chat_sessions (id, user_id, title, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.Title,
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create chat session: %w", err)
	}
	return nil
}

// GetSessionForUser fetches a session only when it belongs to userID;
// anything else is ErrNotFound.
func (r *ChatRepository) GetSessionForUser(ctx context.Context, sessionID, userID string) (*model.ChatSession, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, title, created_at, updated_at
		 FROM chat_sessions
		 WHERE id = ? AND user_id = ?`,
		sessionID,
		userID,
	)
	return scanChatSession(row)
}

func (r *ChatRepository) ListSessions(ctx context.Context, userID string) ([]model.ChatSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, title, created_at, updated_at
		 FROM chat_sessions
		 WHERE user_id = ?
		 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.ChatSession, 0)
	for rows.Next() {
		session, scanErr := scanChatSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSessionForUser removes the session and its messages when owned by
// userID. Returns the number of sessions deleted; zero is not an error.
func (r *ChatRepository) DeleteSessionForUser(ctx context.Context, sessionID, userID string) (int64, error) {
	if _, err := r.db.ExecContext(
		ctx,
		`DELETE FROM chat_messages
		 WHERE session_id IN (SELECT id FROM chat_sessions WHERE id = ? AND user_id = ?)`,
		sessionID,
		userID,
	); err != nil {
		return 0, fmt.Errorf("delete chat messages: %w", err)
	}

	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM chat_sessions WHERE id = ? AND user_id = ?`,
		sessionID,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete chat session: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete chat session rows: %w", err)
	}
	return deleted, nil
}

func (r *ChatRepository) TouchSession(ctx context.Context, sessionID, updatedAt string) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE chat_sessions SET updated_at = ? WHERE id = ?`,
		updatedAt,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("touch chat session: %w", err)
	}
	return nil
}

func (r *ChatRepository) CreateMessage(ctx context.Context, message *model.ChatMessage) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO chat_messages (id, session_id, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		message.ID,
		message.SessionID,
		message.Role,
		message.Content,
		formatTime(message.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}
	return nil
}

// ListMessages returns a session's full history in insertion order. Timestamp
// collisions are broken by rowid, so the persisted sequence stays
// authoritative.
func (r *ChatRepository) ListMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM chat_messages
		 WHERE session_id = ?
		 ORDER BY created_at ASC, rowid ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

// ListRecentMessages returns the newest limit messages in oldest-to-newest
// order, the window sent to the completion endpoint.
func (r *ChatRepository) ListRecentMessages(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM chat_messages
		 WHERE session_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		sessionID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent chat messages: %w", err)
	}
	defer rows.Close()

	messages, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// LatestMessage returns the most recent message of a session, or nil when the
// session is empty.
func (r *ChatRepository) LatestMessage(ctx context.Context, sessionID string) (*model.ChatMessage, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM chat_messages
		 WHERE session_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT 1`,
		sessionID,
	)
	message, err := scanChatMessage(row)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return message, nil
}

func collectMessages(rows *sql.Rows) ([]model.ChatMessage, error) {
	messages := make([]model.ChatMessage, 0)
	for rows.Next() {
		message, err := scanChatMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return messages, nil
}

func scanChatSession(s scanner) (*model.ChatSession, error) {
	var session model.ChatSession
	var createdAt, updatedAt string
	err := s.Scan(&session.ID, &session.UserID, &session.Title, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan chat session: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse session updated_at: %w", err)
	}
	return &session, nil
}

func scanChatMessage(s scanner) (*model.ChatMessage, error) {
	var message model.ChatMessage
	var createdAt string
	err := s.Scan(&message.ID, &message.SessionID, &message.Role, &message.Content, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan chat message: %w", err)
	}
	if message.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse message created_at: %w", err)
	}
	return &message, nil
}
