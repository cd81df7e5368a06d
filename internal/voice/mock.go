package voice

import (
	"context"
	"sync"

	"github.com/paige-robotics/feelme/internal/audio"
	"github.com/paige-robotics/feelme/internal/emotion"
)

// MockTranscriber returns scripted transcripts in order, then empty strings.
type MockTranscriber struct {
	mu      sync.Mutex
	Scripts []string
	Err     error
	Calls   int
}

var _ Transcriber = (*MockTranscriber)(nil)

func (m *MockTranscriber) Transcribe(_ context.Context, _ *audio.Clip) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.Calls
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	if i < len(m.Scripts) {
		return m.Scripts[i], nil
	}
	return "", nil
}

// MockSynthesizer turns text into its bytes so tests can assert what reached
// the synthesis boundary.
type MockSynthesizer struct {
	mu     sync.Mutex
	Err    error
	Texts  []string
	Voices []emotion.VoiceID
}

var _ Synthesizer = (*MockSynthesizer)(nil)

func (m *MockSynthesizer) Synthesize(_ context.Context, text string, voice emotion.VoiceID) (audio.Waveform, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return audio.Waveform{}, m.Err
	}
	m.Texts = append(m.Texts, text)
	m.Voices = append(m.Voices, voice)
	return audio.Waveform{SampleRate: SynthSampleRate, PCM: []byte(text)}, nil
}

func (m *MockSynthesizer) Close() error { return nil }

// MockPlayer records played waveforms.
type MockPlayer struct {
	mu     sync.Mutex
	Err    error
	Played []audio.Waveform
}

var _ Player = (*MockPlayer)(nil)

func (m *MockPlayer) Play(_ context.Context, w audio.Waveform) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Played = append(m.Played, w)
	return nil
}
