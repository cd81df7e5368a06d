package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paige-robotics/feelme/internal/audio"
)

// WhisperConfig holds settings for the whisper.cpp CLI transcriber.
type WhisperConfig struct {
	CLI       string
	ModelPath string
	Language  string
	Threads   int
}

// WhisperCLI transcribes clips by shelling out to whisper.cpp. Implements
// Transcriber.
type WhisperCLI struct {
	cliPath   string
	modelPath string
	language  string
	threads   int
}

var _ Transcriber = (*WhisperCLI)(nil)

// NewWhisperCLI validates that the binary and model exist. Missing resources
// are a startup failure, not a per-turn one.
func NewWhisperCLI(cfg WhisperConfig) (*WhisperCLI, error) {
	cli := strings.TrimSpace(cfg.CLI)
	if cli == "" {
		cli = "whisper-cli"
	}
	cliPath, err := exec.LookPath(cli)
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp CLI not found: %s", cli)
	}

	modelPath := strings.TrimSpace(cfg.ModelPath)
	if modelPath == "" {
		return nil, fmt.Errorf("whisper model path is required")
	}
	if !filepath.IsAbs(modelPath) {
		if wd, err := os.Getwd(); err == nil {
			modelPath = filepath.Join(wd, modelPath)
		}
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("whisper model not found: %s", modelPath)
	}

	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = "en"
	}

	return &WhisperCLI{
		cliPath:   cliPath,
		modelPath: modelPath,
		language:  language,
		threads:   cfg.Threads,
	}, nil
}

func (w *WhisperCLI) Transcribe(ctx context.Context, clip *audio.Clip) (string, error) {
	if clip == nil || len(clip.Samples) == 0 {
		return "", nil
	}

	tmpDir, err := os.MkdirTemp("", "feelme-stt-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	wavPath := filepath.Join(tmpDir, "clip.wav")
	if err := clip.WriteWAVFile(wavPath); err != nil {
		return "", fmt.Errorf("write clip: %w", err)
	}
	outPrefix := filepath.Join(tmpDir, "out")

	// whisper.cpp CLI flag set varies slightly across builds; keep this conservative.
	args := []string{
		"-m", w.modelPath,
		"-f", wavPath,
		"-l", w.language,
		"-otxt",
		"-of", outPrefix,
		"-nt",
	}
	if w.threads > 0 {
		args = append(args, "-t", strconv.Itoa(w.threads))
	}

	cmd := exec.CommandContext(ctx, w.cliPath, args...)
	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", context.Canceled
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("whisper.cpp timed out; use a smaller model or shorten the utterance")
		}
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 8<<10 {
			detail = strings.TrimSpace(detail[len(detail)-(8<<10):])
		}
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("whisper.cpp failed: %s", detail)
	}

	b, err := os.ReadFile(outPrefix + ".txt")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
