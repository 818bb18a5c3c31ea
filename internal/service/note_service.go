package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "studytrack/backend/internal/errors"
	"studytrack/backend/internal/model"
	"studytrack/backend/internal/repository"
)

type NoteService struct {
	repo *repository.NoteRepository
}

func NewNoteService(repo *repository.NoteRepository) *NoteService {
	return &NoteService{repo: repo}
}

func (s *NoteService) Create(ctx context.Context, userID, title, content string) (*model.Note, *apperrors.APIError) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.BadRequest("invalid_title", "title is required")
	}

	now := time.Now().UTC()
	note := model.Note{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &note); err != nil {
		return nil, apperrors.Internal("failed to create note")
	}
	return &note, nil
}

func (s *NoteService) List(ctx context.Context, userID string) ([]model.Note, *apperrors.APIError) {
	notes, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch notes")
	}
	return notes, nil
}

func (s *NoteService) Update(ctx context.Context, noteID, userID, title, content string) (*model.Note, *apperrors.APIError) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.BadRequest("invalid_title", "title is required")
	}

	note := model.Note{
		ID:        noteID,
		UserID:    userID,
		Title:     title,
		Content:   content,
		UpdatedAt: time.Now().UTC(),
	}
	err := s.repo.Update(ctx, &note)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("note_not_found", "note not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to update note")
	}

	updated, err := s.repo.GetForUser(ctx, noteID, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch note")
	}
	return updated, nil
}

func (s *NoteService) Delete(ctx context.Context, noteID, userID string) *apperrors.APIError {
	deleted, err := s.repo.Delete(ctx, noteID, userID)
	if err != nil {
		return apperrors.Internal("failed to delete note")
	}
	if deleted == 0 {
		log.Printf("notes: delete of note %s for user %s removed nothing", noteID, userID)
	}
	return nil
}
