// Package timer implements the Pomodoro countdown as a pure state machine.
// The machine never touches a clock or a scheduler on its own: callers feed it
// elapsed seconds through Advance, so it can be driven by a real ticker, a
// lazy wall-clock sync, or a test.
package timer

import (
	"errors"
	"strings"
	"time"
)

type Phase string

const (
	PhaseWork       Phase = "WORK"
	PhaseShortBreak Phase = "SHORT_BREAK"
	PhaseLongBreak  Phase = "LONG_BREAK"
)

// Every fourth completed work phase in a day earns a long break.
const workCyclesPerLongBreak = 4

const (
	DefaultWorkSeconds       = 25 * 60
	DefaultShortBreakSeconds = 5 * 60
	DefaultLongBreakSeconds  = 15 * 60
)

var ErrSubjectRequired = errors.New("study subject is required to start a work phase")

func IsValidPhase(phase Phase) bool {
	return phase == PhaseWork || phase == PhaseShortBreak || phase == PhaseLongBreak
}

type Durations struct {
	WorkSeconds       int
	ShortBreakSeconds int
	LongBreakSeconds  int
}

func DefaultDurations() Durations {
	return Durations{
		WorkSeconds:       DefaultWorkSeconds,
		ShortBreakSeconds: DefaultShortBreakSeconds,
		LongBreakSeconds:  DefaultLongBreakSeconds,
	}
}

func (d Durations) For(phase Phase) int {
	switch phase {
	case PhaseShortBreak:
		return d.ShortBreakSeconds
	case PhaseLongBreak:
		return d.LongBreakSeconds
	default:
		return d.WorkSeconds
	}
}

// Machine holds the countdown state for one user. It is not safe for
// concurrent use; the owning service serializes access.
type Machine struct {
	Phase            Phase
	Running          bool
	RemainingSeconds int
	Durations        Durations

	// WorkCycleCount counts work phases completed on CycleDay and resets
	// when the calendar day changes.
	WorkCycleCount int
	CycleDay       string

	StartedAt *time.Time

	Subject  string
	Topic    string
	Subtopic string
	TaskID   string
}

// Completion describes the single phase-completion event an Advance call can
// produce. StartedAt is the wall-clock start of the phase attempt;
// CompletedAt is backdated to the instant the countdown actually hit zero.
type Completion struct {
	Phase           Phase
	DurationSeconds int
	StartedAt       *time.Time
	CompletedAt     time.Time
	NextPhase       Phase
	Subject         string
	Topic           string
	Subtopic        string
	TaskID          string
}

func New() *Machine {
	d := DefaultDurations()
	return &Machine{
		Phase:            PhaseWork,
		RemainingSeconds: d.WorkSeconds,
		Durations:        d,
	}
}

// Start begins ticking. A work phase without a subject is rejected and the
// machine stays stopped; callers re-prompt for a subject and retry. Starting
// a running machine is a no-op.
func (m *Machine) Start(now time.Time) error {
	if m.Running {
		return nil
	}
	if m.Phase == PhaseWork && strings.TrimSpace(m.Subject) == "" {
		return ErrSubjectRequired
	}
	m.rollCycleDay(now)
	if m.RemainingSeconds <= 0 || m.RemainingSeconds > m.Durations.For(m.Phase) {
		m.RemainingSeconds = m.Durations.For(m.Phase)
	}
	startedAt := now
	m.StartedAt = &startedAt
	m.Running = true
	return nil
}

// Pause halts the countdown, preserving the remaining seconds exactly.
func (m *Machine) Pause() {
	m.Running = false
}

// Reset stops the countdown and restores the current phase's full duration.
func (m *Machine) Reset() {
	m.Running = false
	m.RemainingSeconds = m.Durations.For(m.Phase)
	m.StartedAt = nil
}

// SwitchPhase moves to the target phase, stopping any active countdown as a
// side effect.
func (m *Machine) SwitchPhase(target Phase) {
	m.Running = false
	m.Phase = target
	m.RemainingSeconds = m.Durations.For(target)
	m.StartedAt = nil
}

// SetDurations applies new phase lengths. While stopped the current phase's
// remaining time snaps to its new full duration; a running countdown keeps
// its remaining time.
func (m *Machine) SetDurations(d Durations) {
	m.Durations = d
	if !m.Running {
		m.RemainingSeconds = d.For(m.Phase)
	}
}

// Advance consumes elapsed seconds of running time. It returns a Completion
// when the countdown reaches zero, at most once per phase: completion stops
// the machine, so surplus elapsed time beyond zero is discarded and the next
// phase starts idle at its full duration. Remaining time never goes negative.
func (m *Machine) Advance(elapsedSeconds int, now time.Time) *Completion {
	if !m.Running || elapsedSeconds <= 0 {
		return nil
	}
	if elapsedSeconds < m.RemainingSeconds {
		m.RemainingSeconds -= elapsedSeconds
		return nil
	}

	overshoot := elapsedSeconds - m.RemainingSeconds
	completedAt := now.Add(-time.Duration(overshoot) * time.Second)
	m.rollCycleDay(completedAt)

	completed := &Completion{
		Phase:           m.Phase,
		DurationSeconds: m.Durations.For(m.Phase),
		StartedAt:       m.StartedAt,
		CompletedAt:     completedAt,
		Subject:         m.Subject,
		Topic:           m.Topic,
		Subtopic:        m.Subtopic,
		TaskID:          m.TaskID,
	}

	next := PhaseWork
	if m.Phase == PhaseWork {
		if (m.WorkCycleCount+1)%workCyclesPerLongBreak == 0 {
			next = PhaseLongBreak
		} else {
			next = PhaseShortBreak
		}
		m.WorkCycleCount++
	}
	completed.NextPhase = next

	m.Running = false
	m.Phase = next
	m.RemainingSeconds = m.Durations.For(next)
	m.StartedAt = nil
	return completed
}

func (m *Machine) rollCycleDay(now time.Time) {
	day := now.UTC().Format("2006-01-02")
	if m.CycleDay != day {
		m.CycleDay = day
		m.WorkCycleCount = 0
	}
}
