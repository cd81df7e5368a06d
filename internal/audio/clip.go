package audio

import (
	"encoding/binary"
	"time"
)

// Clip is one recorded audio segment bounded by explicit start/stop signals.
// Samples are signed 16-bit PCM in arrival order.
type Clip struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Duration reports the playable length of the clip.
func (c *Clip) Duration() time.Duration {
	if c == nil || c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	frames := len(c.Samples) / c.Channels
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// PCMBytes returns the samples as little-endian PCM16 bytes.
func (c *Clip) PCMBytes() []byte {
	if c == nil || len(c.Samples) == 0 {
		return nil
	}
	out := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// Waveform is synthesized assistant audio ready for playback, PCM16LE mono.
type Waveform struct {
	SampleRate int
	PCM        []byte
}

// Duration reports the playable length of the waveform.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 || len(w.PCM) == 0 {
		return 0
	}
	frames := len(w.PCM) / 2
	return time.Duration(frames) * time.Second / time.Duration(w.SampleRate)
}
