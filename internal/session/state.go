package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status reports whether the loop is still taking turns.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Snapshot is a copy of the session state safe to hand to the HTTP surface.
type Snapshot struct {
	ID             string    `json:"session_id"`
	Status         Status    `json:"status"`
	Stage          string    `json:"stage"`
	VoiceMode      string    `json:"voice_mode"`
	TurnsCompleted int       `json:"turns_completed"`
	TurnsFailed    int       `json:"turns_failed"`
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// State is the process-wide session record: one session per process lifetime,
// created at startup and ended at termination-phrase detection or exit. The
// turn loop writes it, the HTTP surface reads it.
type State struct {
	mu             sync.RWMutex
	id             string
	status         Status
	stage          string
	voiceMode      string
	turnsCompleted int
	turnsFailed    int
	startedAt      time.Time
	lastActivityAt time.Time
}

func NewState(voiceMode string) *State {
	now := time.Now().UTC()
	return &State{
		id:             uuid.NewString(),
		status:         StatusActive,
		stage:          "awaiting_start",
		voiceMode:      voiceMode,
		startedAt:      now,
		lastActivityAt: now,
	}
}

// ID returns the session identifier.
func (s *State) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// SetStage records which loop stage is active.
func (s *State) SetStage(stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = stage
	s.lastActivityAt = time.Now().UTC()
}

// TurnCompleted bumps the completed-turn counter.
func (s *State) TurnCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turnsCompleted++
	s.lastActivityAt = time.Now().UTC()
}

// TurnFailed bumps the failed-turn counter.
func (s *State) TurnFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turnsFailed++
	s.lastActivityAt = time.Now().UTC()
}

// End marks the session terminated.
func (s *State) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusEnded
	s.stage = "session_ended"
	s.lastActivityAt = time.Now().UTC()
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:             s.id,
		Status:         s.status,
		Stage:          s.stage,
		VoiceMode:      s.voiceMode,
		TurnsCompleted: s.turnsCompleted,
		TurnsFailed:    s.turnsFailed,
		StartedAt:      s.startedAt,
		LastActivityAt: s.lastActivityAt,
	}
}
