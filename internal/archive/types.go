package archive

import (
	"context"
	"time"
)

// TurnRecord stores one completed loop cycle for operator review. Completed
// turns are append-only; the record never feeds back into the conversation.
type TurnRecord struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	TurnIndex      int       `json:"turn_index"`
	Transcript     string    `json:"transcript"`
	Reply          string    `json:"reply"`
	SanitizedReply string    `json:"sanitized_reply"`
	VoiceID        int       `json:"voice_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists and retrieves completed turns.
type Store interface {
	SaveTurn(ctx context.Context, record TurnRecord) error
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]TurnRecord, error)
	Close() error
}
