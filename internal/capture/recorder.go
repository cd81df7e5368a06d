package capture

import (
	"sync"

	"github.com/paige-robotics/feelme/internal/audio"
)

// recorder accumulates sample batches while recording is in progress. The
// recording flag and the frame buffer are guarded by one mutex: a batch
// delivered concurrently with the stop transition is either fully appended
// (flag still set) or fully dropped (flag cleared), never split.
type recorder struct {
	mu        sync.Mutex
	recording bool
	frames    [][]int16
}

func newRecorder() *recorder {
	return &recorder{recording: true}
}

// append copies the batch into the buffer. Returns false when the batch
// arrived after the stop transition and was dropped.
func (r *recorder) append(batch []int16) bool {
	if len(batch) == 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return false
	}
	frame := make([]int16, len(batch))
	copy(frame, batch)
	r.frames = append(r.frames, frame)
	return true
}

// stop clears the recording flag. Happens-before finalize.
func (r *recorder) stop() {
	r.mu.Lock()
	r.recording = false
	r.mu.Unlock()
}

// finalize concatenates the accumulated batches in arrival order. Returns nil
// when nothing was captured so the caller can distinguish "no audio" from
// silence that transcribes to empty text.
func (r *recorder) finalize(sampleRate, channels int) *audio.Clip {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false

	total := 0
	for _, f := range r.frames {
		total += len(f)
	}
	if total == 0 {
		return nil
	}

	samples := make([]int16, 0, total)
	for _, f := range r.frames {
		samples = append(samples, f...)
	}
	return &audio.Clip{SampleRate: sampleRate, Channels: channels, Samples: samples}
}
