package convo

import (
	"context"
	"fmt"
	"strings"
)

// Brain is the language-model collaborator. Implementations receive the fixed
// system directive, the prior history in order, and the new user message, and
// return a single assistant reply.
type Brain interface {
	Respond(ctx context.Context, directive string, history []Message, userText string) (string, error)
}

// Session owns the conversation history for one run of the loop and drives the
// language-model collaborator. History is only mutated after a successful
// model call, so a failed turn replays cleanly.
type Session struct {
	brain     Brain
	directive string
	history   History
}

func NewSession(brain Brain, directive string) *Session {
	return &Session{brain: brain, directive: directive}
}

// Respond sends the user text to the model with the accumulated context. On
// success both the user message and the reply are appended to history. On
// failure history is left unmodified.
func (s *Session) Respond(ctx context.Context, userText string) (string, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return "", fmt.Errorf("empty user text")
	}

	reply, err := s.brain.Respond(ctx, s.directive, s.history.Messages(), userText)
	if err != nil {
		return "", fmt.Errorf("model call: %w", err)
	}

	s.history.Append(RoleUser, userText)
	s.history.Append(RoleAssistant, reply)
	return reply, nil
}

// History returns a copy of the accumulated exchanges.
func (s *Session) History() []Message {
	return s.history.Messages()
}

// Len reports the number of history entries.
func (s *Session) Len() int {
	return s.history.Len()
}

// Directive returns the fixed system directive.
func (s *Session) Directive() string {
	return s.directive
}
