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

type TaskService struct {
	repo *repository.TaskRepository
}

type TaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	Subject     string
	DueDate     *time.Time
}

func NewTaskService(repo *repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) Create(ctx context.Context, userID string, input TaskInput) (*model.Task, *apperrors.APIError) {
	if apiErr := validateTaskInput(&input); apiErr != nil {
		return nil, apiErr
	}

	now := time.Now().UTC()
	task := model.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		Subject:     input.Subject,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, apperrors.Internal("failed to create task")
	}
	return &task, nil
}

func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, *apperrors.APIError) {
	tasks, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch tasks")
	}
	return tasks, nil
}

func (s *TaskService) Update(ctx context.Context, taskID, userID string, input TaskInput) (*model.Task, *apperrors.APIError) {
	if apiErr := validateTaskInput(&input); apiErr != nil {
		return nil, apiErr
	}

	task := model.Task{
		ID:          taskID,
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		Subject:     input.Subject,
		DueDate:     input.DueDate,
		UpdatedAt:   time.Now().UTC(),
	}
	err := s.repo.Update(ctx, &task)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to update task")
	}

	updated, err := s.repo.GetForUser(ctx, taskID, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch task")
	}
	return updated, nil
}

// Delete is idempotent like chat-session delete: removing an absent or
// foreign task still succeeds from the caller's point of view.
func (s *TaskService) Delete(ctx context.Context, taskID, userID string) *apperrors.APIError {
	deleted, err := s.repo.Delete(ctx, taskID, userID)
	if err != nil {
		return apperrors.Internal("failed to delete task")
	}
	if deleted == 0 {
		log.Printf("tasks: delete of task %s for user %s removed nothing", taskID, userID)
	}
	return nil
}

func validateTaskInput(input *TaskInput) *apperrors.APIError {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return apperrors.BadRequest("invalid_title", "title is required")
	}
	if input.Status == "" {
		input.Status = model.TaskStatusTodo
	}
	if !model.IsValidTaskStatus(input.Status) {
		return apperrors.BadRequest("invalid_status", "status must be one of TODO, IN_PROGRESS, COMPLETED")
	}
	if input.Priority == "" {
		input.Priority = model.TaskPriorityMedium
	}
	if !model.IsValidTaskPriority(input.Priority) {
		return apperrors.BadRequest("invalid_priority", "priority must be one of LOW, MEDIUM, HIGH")
	}
	return nil
}
