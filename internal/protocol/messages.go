package protocol

// MessageType identifies feed payload variants. The feed is observe-only:
// subscribers watch the loop, they never drive it.
type MessageType string

const (
	TypeTurnStarted         MessageType = "turn_started"
	TypeTranscriptCommitted MessageType = "transcript_committed"
	TypeReplyResolved       MessageType = "reply_resolved"
	TypeTurnEnded           MessageType = "turn_ended"
	TypeSystemEvent         MessageType = "system_event"
	TypeErrorEvent          MessageType = "error_event"
)

type TurnStarted struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	TurnID    string      `json:"turn_id"`
	TurnIndex int         `json:"turn_index"`
	TSMs      int64       `json:"ts_ms"`
}

type TranscriptCommitted struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	TurnID    string      `json:"turn_id"`
	Text      string      `json:"text"`
	TSMs      int64       `json:"ts_ms"`
}

type ReplyResolved struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	TurnID    string      `json:"turn_id"`
	Reply     string      `json:"reply"`
	Sanitized string      `json:"sanitized"`
	VoiceID   int         `json:"voice_id"`
	TSMs      int64       `json:"ts_ms"`
}

type TurnEnded struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	TurnID    string      `json:"turn_id"`
	Outcome   string      `json:"outcome"`
	TSMs      int64       `json:"ts_ms"`
}

type SystemEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Stage     string      `json:"stage"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}
