package service

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "studytrack/backend/internal/errors"
	"studytrack/backend/internal/model"
	"studytrack/backend/internal/repository"
	"studytrack/backend/internal/timer"
)

// Notifier receives phase-completion events. Implementations must not block;
// delivery is best effort and failures are ignored.
type Notifier interface {
	PhaseCompleted(userID string, phase timer.Phase)
}

// LogNotifier writes completion events to the process log.
type LogNotifier struct{}

func (LogNotifier) PhaseCompleted(userID string, phase timer.Phase) {
	log.Printf("timer: %s session completed for user %s", strings.ReplaceAll(string(phase), "_", " "), userID)
}

type TimerService struct {
	repo     *repository.TimerRepository
	notifier Notifier
	now      func() time.Time
}

type TimerStateView struct {
	Phase                     timer.Phase `json:"phase"`
	Running                   bool        `json:"running"`
	RemainingSeconds          int         `json:"remainingSeconds"`
	DurationSeconds           int         `json:"durationSeconds"`
	WorkDurationSeconds       int         `json:"workDurationSeconds"`
	ShortBreakDurationSeconds int         `json:"shortBreakDurationSeconds"`
	LongBreakDurationSeconds  int         `json:"longBreakDurationSeconds"`
	WorkCycleCount            int         `json:"workCycleCount"`
	StartedAt                 *time.Time  `json:"startedAt,omitempty"`
	Subject                   string      `json:"subject"`
	Topic                     string      `json:"topic"`
	Subtopic                  string      `json:"subtopic"`
	TaskID                    string      `json:"taskId,omitempty"`
	ServerTime                time.Time   `json:"serverTime"`
}

type StartTimerInput struct {
	Subject  string
	Topic    string
	Subtopic string
	TaskID   string
}

type TimerSettingsInput struct {
	WorkMinutes       int
	ShortBreakMinutes int
	LongBreakMinutes  int
}

func NewTimerService(repo *repository.TimerRepository, notifier Notifier) *TimerService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &TimerService{
		repo:     repo,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *TimerService) GetState(ctx context.Context, userID string) (*TimerStateView, *apperrors.APIError) {
	return s.mutate(ctx, userID, func(state *repository.TimerState, now time.Time) *apperrors.APIError {
		return nil
	})
}

// Start begins (or resumes) the countdown. A work phase without a study
// subject is rejected with a re-prompt condition, not a hard failure.
func (s *TimerService) Start(ctx context.Context, userID string, input StartTimerInput) (*TimerStateView, *apperrors.APIError) {
	return s.mutate(ctx, userID, func(state *repository.TimerState, now time.Time) *apperrors.APIError {
		if subject := strings.TrimSpace(input.Subject); subject != "" {
			state.Machine.Subject = subject
			state.Machine.Topic = strings.TrimSpace(input.Topic)
			state.Machine.Subtopic = strings.TrimSpace(input.Subtopic)
			state.Machine.TaskID = strings.TrimSpace(input.TaskID)
		}
		if err := state.Machine.Start(now); err != nil {
			if err == timer.ErrSubjectRequired {
				return apperrors.BadRequest("subject_required", "select a study subject before starting a work session")
			}
			return apperrors.Internal("failed to start timer")
		}
		return nil
	})
}

func (s *TimerService) Pause(ctx context.Context, userID string) (*TimerStateView, *apperrors.APIError) {
	return s.mutate(ctx, userID, func(state *repository.TimerState, now time.Time) *apperrors.APIError {
		state.Machine.Pause()
		return nil
	})
}

func (s *TimerService) Reset(ctx context.Context, userID string) (*TimerStateView, *apperrors.APIError) {
	return s.mutate(ctx, userID, func(state *repository.TimerState, now time.Time) *apperrors.APIError {
		state.Machine.Reset()
		return nil
	})
}

func (s *TimerService) SwitchPhase(ctx context.Context, userID string, phase timer.Phase) (*TimerStateView, *apperrors.APIError) {
	if !timer.IsValidPhase(phase) {
		return nil, apperrors.BadRequest("invalid_phase", "phase must be one of WORK, SHORT_BREAK, LONG_BREAK")
	}
	return s.mutate(ctx, userID, func(state *repository.TimerState, now time.Time) *apperrors.APIError {
		state.Machine.SwitchPhase(phase)
		return nil
	})
}

func (s *TimerService) UpdateSettings(ctx context.Context, userID string, input TimerSettingsInput) (*TimerStateView, *apperrors.APIError) {
	if input.WorkMinutes <= 0 || input.ShortBreakMinutes <= 0 || input.LongBreakMinutes <= 0 {
		return nil, apperrors.BadRequest("invalid_duration", "all durations must be positive minutes")
	}
	return s.mutate(ctx, userID, func(state *repository.TimerState, now time.Time) *apperrors.APIError {
		state.Machine.SetDurations(timer.Durations{
			WorkSeconds:       input.WorkMinutes * 60,
			ShortBreakSeconds: input.ShortBreakMinutes * 60,
			LongBreakSeconds:  input.LongBreakMinutes * 60,
		})
		return nil
	})
}

func (s *TimerService) GetHistory(ctx context.Context, userID string, limit int) ([]model.PomodoroRecord, *apperrors.APIError) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	records, err := s.repo.ListRecords(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get history")
	}
	return records, nil
}

func (s *TimerService) GetTimeEntries(ctx context.Context, userID string, limit int) ([]model.TimeEntry, *apperrors.APIError) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries, err := s.repo.ListTimeEntries(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get time entries")
	}
	return entries, nil
}

// mutate loads the user's machine, replays wall-clock time through it,
// applies op, and persists the result. Completions discovered during the
// replay are recorded before op runs.
func (s *TimerService) mutate(
	ctx context.Context,
	userID string,
	op func(state *repository.TimerState, now time.Time) *apperrors.APIError,
) (*TimerStateView, *apperrors.APIError) {
	now := s.now()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	state, err := s.repo.GetStateTx(ctx, tx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("timer_state_not_found", "timer state not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get timer state")
	}

	completion := s.sync(ctx, tx, state, now)

	if apiErr := op(state, now); apiErr != nil {
		return nil, apiErr
	}

	state.UpdatedAt = now
	if err := s.repo.UpdateStateTx(ctx, tx, state); err != nil {
		return nil, apperrors.Internal("failed to update timer state")
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	if completion != nil {
		go s.notifier.PhaseCompleted(userID, completion.Phase)
	}

	view := s.toView(state, now)
	return &view, nil
}

// sync replays elapsed wall-clock seconds into the machine. A completion
// persists one pomodoro record and, for work phases, one time entry; both
// writes are best effort — a storage error is logged and the state
// transition proceeds, so the user's timer is never blocked by persistence.
func (s *TimerService) sync(ctx context.Context, tx *sql.Tx, state *repository.TimerState, now time.Time) *timer.Completion {
	var completion *timer.Completion
	if state.Machine.Running {
		elapsed := int(now.Sub(state.LastSyncedAt).Seconds())
		completion = state.Machine.Advance(elapsed, now)
	}
	state.LastSyncedAt = now

	if completion == nil {
		return nil
	}

	var taskID *string
	if completion.TaskID != "" {
		value := completion.TaskID
		taskID = &value
	}

	record := model.PomodoroRecord{
		ID:              uuid.NewString(),
		UserID:          state.UserID,
		Phase:           string(completion.Phase),
		DurationMinutes: completion.DurationSeconds / 60,
		Subject:         completion.Subject,
		Topic:           completion.Topic,
		Subtopic:        completion.Subtopic,
		TaskID:          taskID,
		CompletedAt:     completion.CompletedAt,
	}
	if record.Subject == "" {
		record.Subject = "General Study"
	}
	if err := s.repo.InsertRecordTx(ctx, tx, &record); err != nil {
		log.Printf("timer: failed to save pomodoro record for user %s: %v", state.UserID, err)
	}

	if completion.Phase == timer.PhaseWork && completion.StartedAt != nil {
		entry := model.TimeEntry{
			ID:              uuid.NewString(),
			UserID:          state.UserID,
			TaskID:          taskID,
			DurationMinutes: completion.DurationSeconds / 60,
			StartTime:       *completion.StartedAt,
			EndTime:         completion.CompletedAt,
			Subject:         record.Subject,
			Topic:           completion.Topic,
			Subtopic:        completion.Subtopic,
			CreatedAt:       now,
		}
		if err := s.repo.InsertTimeEntryTx(ctx, tx, &entry); err != nil {
			log.Printf("timer: failed to save time entry for user %s: %v", state.UserID, err)
		}
	}

	return completion
}

func (s *TimerService) toView(state *repository.TimerState, now time.Time) TimerStateView {
	m := &state.Machine
	return TimerStateView{
		Phase:                     m.Phase,
		Running:                   m.Running,
		RemainingSeconds:          m.RemainingSeconds,
		DurationSeconds:           m.Durations.For(m.Phase),
		WorkDurationSeconds:       m.Durations.WorkSeconds,
		ShortBreakDurationSeconds: m.Durations.ShortBreakSeconds,
		LongBreakDurationSeconds:  m.Durations.LongBreakSeconds,
		WorkCycleCount:            m.WorkCycleCount,
		StartedAt:                 m.StartedAt,
		Subject:                   m.Subject,
		Topic:                     m.Topic,
		Subtopic:                  m.Subtopic,
		TaskID:                    m.TaskID,
		ServerTime:                now,
	}
}
