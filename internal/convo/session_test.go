package convo

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type scriptedBrain struct {
	replies []string
	errs    []error
	calls   int

	lastDirective string
	lastHistory   []Message
	lastUserText  string
}

func (b *scriptedBrain) Respond(_ context.Context, directive string, history []Message, userText string) (string, error) {
	i := b.calls
	b.calls++
	b.lastDirective = directive
	b.lastHistory = history
	b.lastUserText = userText
	if i < len(b.errs) && b.errs[i] != nil {
		return "", b.errs[i]
	}
	if i < len(b.replies) {
		return b.replies[i], nil
	}
	return fmt.Sprintf("reply %d", i), nil
}

func TestSessionAppendsBothSidesOnSuccess(t *testing.T) {
	brain := &scriptedBrain{replies: []string{"hi there 🙂"}}
	s := NewSession(brain, "be brief")

	reply, err := s.Respond(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if reply != "hi there 🙂" {
		t.Fatalf("reply = %q", reply)
	}

	got := s.History()
	if len(got) != 2 {
		t.Fatalf("history len = %d, want 2", len(got))
	}
	if got[0].Role != RoleUser || got[0].Content != "hello" {
		t.Fatalf("history[0] = %+v", got[0])
	}
	if got[1].Role != RoleAssistant || got[1].Content != "hi there 🙂" {
		t.Fatalf("history[1] = %+v", got[1])
	}
}

func TestSessionHistoryGrowsTwoPerTurn(t *testing.T) {
	brain := &scriptedBrain{}
	s := NewSession(brain, "be brief")

	const turns = 5
	for i := 0; i < turns; i++ {
		if _, err := s.Respond(context.Background(), fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatalf("turn %d error = %v", i, err)
		}
	}
	if s.Len() != 2*turns {
		t.Fatalf("history len = %d, want %d", s.Len(), 2*turns)
	}

	// Entries alternate user/assistant in turn order.
	for i, msg := range s.History() {
		wantRole := RoleUser
		if i%2 == 1 {
			wantRole = RoleAssistant
		}
		if msg.Role != wantRole {
			t.Fatalf("history[%d].Role = %q, want %q", i, msg.Role, wantRole)
		}
	}
}

func TestSessionNoPartialAppendOnFailure(t *testing.T) {
	brain := &scriptedBrain{
		replies: []string{"first reply", "", "third reply"},
		errs:    []error{nil, errors.New("model unreachable"), nil},
	}
	s := NewSession(brain, "be brief")

	if _, err := s.Respond(context.Background(), "one"); err != nil {
		t.Fatalf("first turn error = %v", err)
	}
	before := s.Len()

	if _, err := s.Respond(context.Background(), "two"); err == nil {
		t.Fatalf("expected error from failing model call")
	}
	if s.Len() != before {
		t.Fatalf("history len after failed turn = %d, want %d", s.Len(), before)
	}

	// The retry replays cleanly against the unchanged history.
	if _, err := s.Respond(context.Background(), "two"); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if len(brain.lastHistory) != before {
		t.Fatalf("retry saw history len %d, want %d", len(brain.lastHistory), before)
	}
}

func TestSessionPassesDirectiveOutsideHistory(t *testing.T) {
	brain := &scriptedBrain{}
	s := NewSession(brain, "you are a robot designed to help humans")

	if _, err := s.Respond(context.Background(), "hey"); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if brain.lastDirective != "you are a robot designed to help humans" {
		t.Fatalf("directive = %q", brain.lastDirective)
	}
	for _, msg := range s.History() {
		if msg.Content == s.Directive() {
			t.Fatalf("system directive leaked into history")
		}
	}
}

func TestSessionRejectsEmptyUserText(t *testing.T) {
	s := NewSession(&scriptedBrain{}, "be brief")
	if _, err := s.Respond(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for whitespace-only user text")
	}
	if s.Len() != 0 {
		t.Fatalf("history len = %d, want 0", s.Len())
	}
}
