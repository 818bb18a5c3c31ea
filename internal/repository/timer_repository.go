package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"studytrack/backend/internal/model"
	"studytrack/backend/internal/timer"
)

// TimerState is one user's persisted countdown machine plus the wall-clock
// instant it was last synchronized against.
type TimerState struct {
	UserID       string
	Machine      timer.Machine
	LastSyncedAt time.Time
	UpdatedAt    time.Time
}

type TimerRepository struct {
	db *sql.DB
}

func NewTimerRepository(db *sql.DB) *TimerRepository {
	return &TimerRepository{db: db}
}

func (r *TimerRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func (r *TimerRepository) CreateInitialState(ctx context.Context, userID string, now time.Time) error {
	m := timer.New()
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO timer_states (
			user_id, phase, running, remaining_seconds,
			work_duration_seconds, short_break_duration_seconds, long_break_duration_seconds,
			work_cycle_count, cycle_day, started_at, last_synced_at,
			subject, topic, subtopic, task_id, updated_at
		) VALUES (?, ?, 0, ?, ?, ?, ?, 0, '', NULL, ?, '', '', '', NULL, ?)`,
		userID,
		string(m.Phase),
		m.RemainingSeconds,
		m.Durations.WorkSeconds,
		m.Durations.ShortBreakSeconds,
		m.Durations.LongBreakSeconds,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("create initial timer state: %w", err)
	}
	return nil
}

const timerStateColumns = `user_id, phase, running, remaining_seconds,
	work_duration_seconds, short_break_duration_seconds, long_break_duration_seconds,
	work_cycle_count, cycle_day, started_at, last_synced_at,
	subject, topic, subtopic, task_id, updated_at`

func (r *TimerRepository) GetStateTx(ctx context.Context, tx *sql.Tx, userID string) (*TimerState, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT `+timerStateColumns+` FROM timer_states WHERE user_id = ?`,
		userID,
	)
	return scanTimerState(row)
}

func (r *TimerRepository) UpdateStateTx(ctx context.Context, tx *sql.Tx, state *TimerState) error {
	var startedAt interface{}
	if state.Machine.StartedAt != nil {
		startedAt = formatTime(*state.Machine.StartedAt)
	}
	var taskID interface{}
	if state.Machine.TaskID != "" {
		taskID = state.Machine.TaskID
	}

	running := 0
	if state.Machine.Running {
		running = 1
	}

	_, err := tx.ExecContext(
		ctx,
		`UPDATE timer_states
		 SET phase = ?,
		     running = ?,
		     remaining_seconds = ?,
		     work_duration_seconds = ?,
		     short_break_duration_seconds = ?,
		     long_break_duration_seconds = ?,
		     work_cycle_count = ?,
		     cycle_day = ?,
		     started_at = ?,
		     last_synced_at = ?,
		     subject = ?,
		     topic = ?,
		     subtopic = ?,
		     task_id = ?,
		     updated_at = ?
		 WHERE user_id = ?`,
		string(state.Machine.Phase),
		running,
		state.Machine.RemainingSeconds,
		state.Machine.Durations.WorkSeconds,
		state.Machine.Durations.ShortBreakSeconds,
		state.Machine.Durations.LongBreakSeconds,
		state.Machine.WorkCycleCount,
		state.Machine.CycleDay,
		startedAt,
		formatTime(state.LastSyncedAt),
		state.Machine.Subject,
		state.Machine.Topic,
		state.Machine.Subtopic,
		taskID,
		formatTime(state.UpdatedAt),
		state.UserID,
	)
	if err != nil {
		return fmt.Errorf("update timer state: %w", err)
	}
	return nil
}

func (r *TimerRepository) InsertRecordTx(ctx context.Context, tx *sql.Tx, record *model.PomodoroRecord) error {
	var taskID interface{}
	if record.TaskID != nil {
		taskID = *record.TaskID
	}
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO pomodoro_records (
			id, user_id, phase, duration_minutes, subject, topic, subtopic, task_id, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		record.Phase,
		record.DurationMinutes,
		record.Subject,
		record.Topic,
		record.Subtopic,
		taskID,
		formatTime(record.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert pomodoro record: %w", err)
	}
	return nil
}

func (r *TimerRepository) InsertTimeEntryTx(ctx context.Context, tx *sql.Tx, entry *model.TimeEntry) error {
	var taskID interface{}
	if entry.TaskID != nil {
		taskID = *entry.TaskID
	}
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO time_entries (
			id, user_id, task_id, duration_minutes, start_time, end_time,
			subject, topic, subtopic, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		taskID,
		entry.DurationMinutes,
		formatTime(entry.StartTime),
		formatTime(entry.EndTime),
		entry.Subject,
		entry.Topic,
		entry.Subtopic,
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert time entry: %w", err)
	}
	return nil
}

func (r *TimerRepository) ListRecords(ctx context.Context, userID string, limit int) ([]model.PomodoroRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, phase, duration_minutes, subject, topic, subtopic, task_id, completed_at
		 FROM pomodoro_records
		 WHERE user_id = ?
		 ORDER BY completed_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pomodoro records: %w", err)
	}
	defer rows.Close()

	records := make([]model.PomodoroRecord, 0, limit)
	for rows.Next() {
		var record model.PomodoroRecord
		var taskID sql.NullString
		var completedAt string
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Phase,
			&record.DurationMinutes,
			&record.Subject,
			&record.Topic,
			&record.Subtopic,
			&taskID,
			&completedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pomodoro record: %w", err)
		}
		if taskID.Valid {
			value := taskID.String
			record.TaskID = &value
		}
		if record.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, fmt.Errorf("parse record completed_at: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pomodoro records: %w", err)
	}
	return records, nil
}

func (r *TimerRepository) ListTimeEntries(ctx context.Context, userID string, limit int) ([]model.TimeEntry, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, task_id, duration_minutes, start_time, end_time,
		        subject, topic, subtopic, created_at
		 FROM time_entries
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.TimeEntry, 0, limit)
	for rows.Next() {
		var entry model.TimeEntry
		var taskID sql.NullString
		var startTime, endTime, createdAt string
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&taskID,
			&entry.DurationMinutes,
			&startTime,
			&endTime,
			&entry.Subject,
			&entry.Topic,
			&entry.Subtopic,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		if taskID.Valid {
			value := taskID.String
			entry.TaskID = &value
		}
		if entry.StartTime, err = parseTime(startTime); err != nil {
			return nil, fmt.Errorf("parse entry start_time: %w", err)
		}
		if entry.EndTime, err = parseTime(endTime); err != nil {
			return nil, fmt.Errorf("parse entry end_time: %w", err)
		}
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse entry created_at: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time entries: %w", err)
	}
	return entries, nil
}

func scanTimerState(s scanner) (*TimerState, error) {
	var state TimerState
	var phase string
	var running int
	var startedAt, taskID sql.NullString
	var lastSyncedAt, updatedAt string
	err := s.Scan(
		&state.UserID,
		&phase,
		&running,
		&state.Machine.RemainingSeconds,
		&state.Machine.Durations.WorkSeconds,
		&state.Machine.Durations.ShortBreakSeconds,
		&state.Machine.Durations.LongBreakSeconds,
		&state.Machine.WorkCycleCount,
		&state.Machine.CycleDay,
		&startedAt,
		&lastSyncedAt,
		&state.Machine.Subject,
		&state.Machine.Topic,
		&state.Machine.Subtopic,
		&taskID,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan timer state: %w", err)
	}

	state.Machine.Phase = timer.Phase(phase)
	state.Machine.Running = running != 0
	if startedAt.Valid {
		parsed, parseErr := parseTime(startedAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse timer started_at: %w", parseErr)
		}
		state.Machine.StartedAt = &parsed
	}
	if taskID.Valid {
		state.Machine.TaskID = taskID.String
	}
	if state.LastSyncedAt, err = parseTime(lastSyncedAt); err != nil {
		return nil, fmt.Errorf("parse timer last_synced_at: %w", err)
	}
	if state.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse timer updated_at: %w", err)
	}
	return &state, nil
}
