package repository

import (
	"context"
	"database/sql"
	"fmt"

	"studytrack/backend/internal/model"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, user_id, title, description, status, priority, subject, due_date, created_at, updated_at`

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	var dueDate interface{}
	if task.DueDate != nil {
		dueDate = formatTime(*task.DueDate)
	}
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.Subject,
		dueDate,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetForUser(ctx context.Context, taskID, userID string) (*model.Task, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`,
		taskID,
		userID,
	)
	return scanTask(row)
}

func (r *TaskRepository) List(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// Update writes the task only when owned by its UserID; returns ErrNotFound
// for foreign or absent tasks.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	var dueDate interface{}
	if task.DueDate != nil {
		dueDate = formatTime(*task.DueDate)
	}
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE tasks
		 SET title = ?, description = ?, status = ?, priority = ?, subject = ?, due_date = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.Subject,
		dueDate,
		formatTime(task.UpdatedAt),
		task.ID,
		task.UserID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, taskID, userID string) (int64, error) {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`,
		taskID,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete task: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete task rows: %w", err)
	}
	return deleted, nil
}

func scanTask(s scanner) (*model.Task, error) {
	var task model.Task
	var dueDate sql.NullString
	var createdAt, updatedAt string
	err := s.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.Subject,
		&dueDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	if dueDate.Valid {
		parsed, parseErr := parseTime(dueDate.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse task due_date: %w", parseErr)
		}
		task.DueDate = &parsed
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse task created_at: %w", err)
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse task updated_at: %w", err)
	}
	return &task, nil
}
