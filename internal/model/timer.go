package model

import "time"

// PomodoroRecord is one completed timer phase. Break phases are recorded too,
// not only work phases.
type PomodoroRecord struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Phase           string    `json:"type"`
	DurationMinutes int       `json:"duration"`
	Subject         string    `json:"subject"`
	Topic           string    `json:"topic"`
	Subtopic        string    `json:"subtopic"`
	TaskID          *string   `json:"taskId,omitempty"`
	CompletedAt     time.Time `json:"completedAt"`
}

// TimeEntry is written only when a work phase completes, spanning the phase's
// actual start to its completion.
type TimeEntry struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	TaskID          *string   `json:"taskId,omitempty"`
	DurationMinutes int       `json:"duration"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Subject         string    `json:"subject"`
	Topic           string    `json:"topic"`
	Subtopic        string    `json:"subtopic"`
	CreatedAt       time.Time `json:"createdAt"`
}
