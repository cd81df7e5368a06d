package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/paige-robotics/feelme/internal/audio"
)

// FFplayPlayer plays PCM16LE mono audio by piping it to ffplay. One process
// per waveform: closing stdin and waiting on the process is what makes Play
// block until playback actually finishes.
type FFplayPlayer struct{}

var _ Player = (*FFplayPlayer)(nil)

func NewFFplayPlayer() (*FFplayPlayer, error) {
	if _, err := exec.LookPath("ffplay"); err != nil {
		return nil, errors.New("ffplay is required for playback (install ffmpeg/ffplay and ensure it is in PATH)")
	}
	return &FFplayPlayer{}, nil
}

func (p *FFplayPlayer) Play(ctx context.Context, w audio.Waveform) error {
	if len(w.PCM) == 0 {
		return nil
	}
	rate := w.SampleRate
	if rate <= 0 {
		rate = SynthSampleRate
	}

	cmd := exec.CommandContext(ctx, "ffplay",
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", "1",
		"-i", "pipe:0",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open ffplay stdin: %w", err)
	}
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffplay: %w", err)
	}

	if _, err := stdin.Write(w.PCM); err != nil {
		_ = stdin.Close()
		_ = cmd.Wait()
		return fmt.Errorf("write playback audio: %w", err)
	}
	if err := stdin.Close(); err != nil {
		_ = cmd.Wait()
		return err
	}
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("playback: %w", err)
	}
	return nil
}
