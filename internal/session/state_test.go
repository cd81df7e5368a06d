package session

import "testing"

func TestStateLifecycle(t *testing.T) {
	s := NewState("emoji")
	if s.ID() == "" {
		t.Fatalf("session ID should not be empty")
	}

	snap := s.Snapshot()
	if snap.Status != StatusActive || snap.Stage != "awaiting_start" {
		t.Fatalf("unexpected initial state: %+v", snap)
	}
	if snap.VoiceMode != "emoji" {
		t.Fatalf("voice mode = %q, want emoji", snap.VoiceMode)
	}

	s.SetStage("recording")
	s.TurnCompleted()
	s.TurnCompleted()
	s.TurnFailed()

	snap = s.Snapshot()
	if snap.Stage != "recording" {
		t.Fatalf("stage = %q, want recording", snap.Stage)
	}
	if snap.TurnsCompleted != 2 || snap.TurnsFailed != 1 {
		t.Fatalf("counters = %d/%d, want 2/1", snap.TurnsCompleted, snap.TurnsFailed)
	}

	s.End()
	snap = s.Snapshot()
	if snap.Status != StatusEnded || snap.Stage != "session_ended" {
		t.Fatalf("ended state = %+v", snap)
	}
}
