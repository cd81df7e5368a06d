package voice

import (
	"context"

	"github.com/paige-robotics/feelme/internal/audio"
	"github.com/paige-robotics/feelme/internal/emotion"
)

// Transcriber converts a recorded clip to raw text. An empty string with a
// nil error means the speech model heard nothing usable.
type Transcriber interface {
	Transcribe(ctx context.Context, clip *audio.Clip) (string, error)
}

// Synthesizer renders sanitized text with the given speaker profile. The text
// must not contain emotion markers or parentheses.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice emotion.VoiceID) (audio.Waveform, error)
	Close() error
}

// Player plays a waveform to completion before returning, so the next capture
// cannot pick up the assistant's own voice.
type Player interface {
	Play(ctx context.Context, w audio.Waveform) error
}
