package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/paige-robotics/feelme/internal/audio"
	"github.com/paige-robotics/feelme/internal/emotion"
)

// SynthSampleRate is the output rate of the emotive synthesis checkpoint.
const SynthSampleRate = 22050

// MatchaConfig holds settings for the local synthesis worker, a long-lived
// python process hosting the Matcha-TTS acoustic model and its vocoder.
type MatchaConfig struct {
	Python       string
	WorkerScript string
	Steps        int
	Temperature  float64
	SpeakingRate float64
}

// MatchaSynthesizer renders text through the worker. Implements Synthesizer.
type MatchaSynthesizer struct {
	worker       *matchaWorker
	steps        int
	temperature  float64
	speakingRate float64
}

var _ Synthesizer = (*MatchaSynthesizer)(nil)

// NewMatchaSynthesizer starts the worker and fires a warmup request so model
// and vocoder loading errors surface at startup, before any turn begins.
func NewMatchaSynthesizer(cfg MatchaConfig) (*MatchaSynthesizer, error) {
	py := strings.TrimSpace(cfg.Python)
	if py == "" {
		for _, candidate := range []string{".venv/bin/python3", ".venv/bin/python", "python3"} {
			if p, err := exec.LookPath(candidate); err == nil && strings.TrimSpace(p) != "" {
				py = p
				break
			}
		}
	}
	if strings.TrimSpace(py) == "" {
		return nil, fmt.Errorf("python3 not found on PATH and no interpreter configured")
	}

	script := strings.TrimSpace(cfg.WorkerScript)
	if script == "" {
		script = "scripts/matcha_worker.py"
	}
	if !filepath.IsAbs(script) {
		if wd, err := os.Getwd(); err == nil {
			script = filepath.Join(wd, script)
		}
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("synthesis worker script not found: %s", script)
	}

	steps := cfg.Steps
	if steps <= 0 {
		steps = 10
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.667
	}
	speakingRate := cfg.SpeakingRate
	if speakingRate <= 0 {
		speakingRate = 0.5
	}

	worker, err := startMatchaWorker(py, script)
	if err != nil {
		return nil, err
	}

	return &MatchaSynthesizer{
		worker:       worker,
		steps:        steps,
		temperature:  temperature,
		speakingRate: speakingRate,
	}, nil
}

func (s *MatchaSynthesizer) Synthesize(ctx context.Context, text string, voice emotion.VoiceID) (audio.Waveform, error) {
	pcm, rate, err := s.worker.Synthesize(ctx, matchaRequest{
		Text:         strings.TrimSpace(text),
		Speaker:      int(voice),
		Steps:        s.steps,
		Temperature:  s.temperature,
		SpeakingRate: s.speakingRate,
	})
	if err != nil {
		return audio.Waveform{}, err
	}
	if rate <= 0 {
		rate = SynthSampleRate
	}
	return audio.Waveform{SampleRate: rate, PCM: pcm}, nil
}

func (s *MatchaSynthesizer) Close() error {
	return s.worker.Close()
}

// matchaWorker talks a line-JSON protocol over the worker's stdin/stdout:
// one request line in, exactly one response object out, single-flight.
type matchaWorker struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	dec    *json.Decoder
	closed bool
}

type matchaRequest struct {
	Text         string  `json:"text"`
	Speaker      int     `json:"spk"`
	Steps        int     `json:"steps"`
	Temperature  float64 `json:"temperature"`
	SpeakingRate float64 `json:"speaking_rate"`
}

type matchaResponse struct {
	ID          string `json:"id"`
	OK          bool   `json:"ok"`
	Format      string `json:"format"`
	SampleRate  int    `json:"sample_rate"`
	AudioBase64 string `json:"audio_base64"`
	Error       string `json:"error"`
}

func startMatchaWorker(pythonPath, scriptPath string) (*matchaWorker, error) {
	cmd := exec.Command(pythonPath, "-u", scriptPath)
	cmd.Env = append(os.Environ(), "PYTORCH_ENABLE_MPS_FALLBACK=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	w := &matchaWorker{cmd: cmd, stdin: stdin, dec: json.NewDecoder(stdout)}

	// Checkpoint and vocoder loading can take a while; the warmup bound is generous.
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if _, _, err := w.Synthesize(ctx, matchaRequest{
		Text:         "warmup",
		Speaker:      int(emotion.DefaultVoice),
		Steps:        2,
		Temperature:  0.667,
		SpeakingRate: 0.5,
	}); err != nil {
		_ = stdin.Close()
		_ = cmd.Process.Kill()
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("synthesis worker failed to start: %s", msg)
	}

	return w, nil
}

func (w *matchaWorker) Synthesize(ctx context.Context, req matchaRequest) ([]byte, int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, 0, fmt.Errorf("synthesis worker closed")
	}
	if ctx.Err() != nil {
		return nil, 0, ctx.Err()
	}

	type requestLine struct {
		ID string `json:"id"`
		matchaRequest
	}
	id := fmt.Sprintf("req-%d", time.Now().UnixNano())
	b, _ := json.Marshal(requestLine{ID: id, matchaRequest: req})
	b = append(b, '\n')
	if _, err := w.stdin.Write(b); err != nil {
		return nil, 0, err
	}

	// Decode exactly one response; the mutex keeps the protocol in lockstep.
	var resp matchaResponse
	if err := w.dec.Decode(&resp); err != nil {
		return nil, 0, err
	}
	if resp.ID != id {
		return nil, 0, fmt.Errorf("synthesis worker out-of-sync (got %q, expected %q)", resp.ID, id)
	}
	if !resp.OK {
		msg := strings.TrimSpace(resp.Error)
		if msg == "" {
			msg = "unknown synthesis error"
		}
		return nil, 0, fmt.Errorf("%s", msg)
	}

	if strings.TrimSpace(resp.AudioBase64) == "" {
		return []byte{}, resp.SampleRate, nil
	}
	pcm, err := base64.StdEncoding.DecodeString(resp.AudioBase64)
	if err != nil {
		return nil, 0, fmt.Errorf("decode audio_base64: %w", err)
	}
	return pcm, resp.SampleRate, nil
}

func (w *matchaWorker) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	stdin := w.stdin
	cmd := w.cmd
	w.stdin = nil
	w.cmd = nil
	w.mu.Unlock()

	if stdin != nil {
		_ = stdin.Close()
	}
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	_ = cmd.Process.Signal(os.Interrupt)
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-time.After(1200 * time.Millisecond):
		_ = cmd.Process.Kill()
		<-done
	case <-done:
	}
	return nil
}
