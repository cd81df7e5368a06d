package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
)

const micReadChunkBytes = 4096

// FFmpegSource captures microphone PCM by piping ffmpeg's stdout. One process
// per recording; Close kills it and the frame channel closes on EOF.
type FFmpegSource struct {
	sampleRate int

	mu  sync.Mutex
	cmd *exec.Cmd
	out io.ReadCloser
}

func NewFFmpegSource(sampleRate int) (*FFmpegSource, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, errors.New("ffmpeg is required for microphone capture (install ffmpeg and ensure it is in PATH)")
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &FFmpegSource{sampleRate: sampleRate}, nil
}

func micFFmpegArgs(goos string, sampleRate int) ([]string, error) {
	rate := strconv.Itoa(sampleRate)
	switch goos {
	case "darwin":
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "avfoundation", "-i", ":0",
			"-ac", "1", "-ar", rate,
			"-f", "s16le", "-",
		}, nil
	case "linux":
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "pulse", "-i", "default",
			"-ac", "1", "-ar", rate,
			"-f", "s16le", "-",
		}, nil
	default:
		return nil, fmt.Errorf("microphone capture is not implemented for %s; supported platforms: darwin, linux", goos)
	}
}

func (s *FFmpegSource) Start(ctx context.Context) (<-chan []int16, error) {
	args, err := micFFmpegArgs(runtime.GOOS, s.sampleRate)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open ffmpeg stdout: %w", err)
	}
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg mic capture: %w", err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.out = stdout
	s.mu.Unlock()

	frames := make(chan []int16, 16)
	go pumpFrames(stdout, frames)
	return frames, nil
}

// pumpFrames reads s16le bytes and delivers them as int16 batches. Pipe reads
// land on arbitrary boundaries, so a trailing odd byte is carried into the
// next read; truncating it would shift every later sample by one byte.
func pumpFrames(r io.Reader, frames chan<- []int16) {
	defer close(frames)
	buf := make([]byte, micReadChunkBytes)
	carry := 0
	for {
		n, readErr := r.Read(buf[carry:])
		n += carry
		whole := n - n%2
		if whole > 0 {
			frames <- bytesToSamples(buf[:whole])
		}
		carry = n - whole
		if carry > 0 {
			buf[0] = buf[whole]
		}
		if readErr != nil {
			return
		}
	}
}

func (s *FFmpegSource) Close() error {
	s.mu.Lock()
	cmd := s.cmd
	out := s.out
	s.cmd = nil
	s.out = nil
	s.mu.Unlock()

	if out != nil {
		_ = out.Close()
	}
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
	return nil
}

func bytesToSamples(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}
