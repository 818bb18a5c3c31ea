package repository

import (
	"context"
	"database/sql"
	"fmt"

	"studytrack/backend/internal/model"
)

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *model.Note) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO notes (id, user_id, title, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.UserID,
		note.Title,
		note.Content,
		formatTime(note.CreatedAt),
		formatTime(note.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

func (r *NoteRepository) List(ctx context.Context, userID string) ([]model.Note, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, title, content, created_at, updated_at
		 FROM notes
		 WHERE user_id = ?
		 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		note, scanErr := scanNote(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func (r *NoteRepository) Update(ctx context.Context, note *model.Note) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		note.Title,
		note.Content,
		formatTime(note.UpdatedAt),
		note.ID,
		note.UserID,
	)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update note rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NoteRepository) GetForUser(ctx context.Context, noteID, userID string) (*model.Note, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, title, content, created_at, updated_at
		 FROM notes
		 WHERE id = ? AND user_id = ?`,
		noteID,
		userID,
	)
	return scanNote(row)
}

func (r *NoteRepository) Delete(ctx context.Context, noteID, userID string) (int64, error) {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM notes WHERE id = ? AND user_id = ?`,
		noteID,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete note: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete note rows: %w", err)
	}
	return deleted, nil
}

func scanNote(s scanner) (*model.Note, error) {
	var note model.Note
	var createdAt, updatedAt string
	err := s.Scan(&note.ID, &note.UserID, &note.Title, &note.Content, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}
	if note.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse note created_at: %w", err)
	}
	if note.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse note updated_at: %w", err)
	}
	return &note, nil
}
