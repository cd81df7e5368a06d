package capture

import (
	"context"
	"fmt"
	"strings"

	"github.com/paige-robotics/feelme/internal/audio"
	"github.com/paige-robotics/feelme/pkg/logger"
)

// Source produces PCM16 mono sample batches from a microphone. Start returns
// a channel that is closed when the source stops producing.
type Source interface {
	Start(ctx context.Context) (<-chan []int16, error)
	Close() error
}

// Config holds capture settings.
type Config struct {
	SampleRate int
	Channels   int
	// ClipPath, when set, also persists each finalized clip as a WAV file.
	// Transcription consumes the in-memory clip; the file is a debugging aid.
	ClipPath string
}

// Capture records microphone input into a buffer until a stop signal arrives.
type Capture struct {
	src Source
	cfg Config
	log *logger.Logger
}

func New(src Source, cfg Config, log *logger.Logger) *Capture {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Capture{src: src, cfg: cfg, log: log.Named("capture")}
}

// Record samples the source until stop fires or ctx is canceled, then returns
// the finalized clip. A nil clip with nil error means zero samples arrived
// before the stop signal.
func (c *Capture) Record(ctx context.Context, stop <-chan struct{}) (*audio.Clip, error) {
	frames, err := c.src.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("start capture source: %w", err)
	}

	rec := newRecorder()

	// The producer keeps delivering batches on its own notification; the flag
	// check inside append decides inclusion, not this goroutine's timing.
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for batch := range frames {
			rec.append(batch)
		}
	}()

	select {
	case <-stop:
	case <-ctx.Done():
		rec.stop()
		_ = c.src.Close()
		<-consumerDone
		return nil, ctx.Err()
	}

	// Flag transition first: batches still in flight after this point are
	// dropped by append. Only then tear down the producer and drain it.
	rec.stop()
	if err := c.src.Close(); err != nil {
		c.log.Warn("capture source close", logger.Error(err))
	}
	<-consumerDone

	clip := rec.finalize(c.cfg.SampleRate, c.cfg.Channels)
	if clip == nil {
		return nil, nil
	}

	if strings.TrimSpace(c.cfg.ClipPath) != "" {
		if err := clip.WriteWAVFile(c.cfg.ClipPath); err != nil {
			c.log.Warn("persist clip", logger.String("path", c.cfg.ClipPath), logger.Error(err))
		}
	}

	c.log.Debug("clip finalized",
		logger.Int("samples", len(clip.Samples)),
		logger.Duration("duration", clip.Duration()))
	return clip, nil
}
