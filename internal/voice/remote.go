package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/paige-robotics/feelme/internal/audio"
	"github.com/paige-robotics/feelme/internal/emotion"
	"github.com/paige-robotics/feelme/internal/reliability"
)

// RemoteConfig holds settings for a hosted streaming synthesis endpoint that
// speaks the stream-input websocket protocol.
type RemoteConfig struct {
	APIKey     string
	WSBaseURL  string
	ModelID    string
	SampleRate int
}

// RemoteSynthesizer renders text on a remote vocoder over a websocket, one
// stream per turn. Implements Synthesizer.
type RemoteSynthesizer struct {
	cfg RemoteConfig
}

var _ Synthesizer = (*RemoteSynthesizer)(nil)

func NewRemoteSynthesizer(cfg RemoteConfig) (*RemoteSynthesizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("remote synthesis API key is required")
	}
	if strings.TrimSpace(cfg.WSBaseURL) == "" {
		return nil, fmt.Errorf("remote synthesis websocket URL is required")
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = SynthSampleRate
	}
	return &RemoteSynthesizer{cfg: cfg}, nil
}

func (s *RemoteSynthesizer) Synthesize(ctx context.Context, text string, voice emotion.VoiceID) (audio.Waveform, error) {
	u, err := url.Parse(strings.TrimRight(s.cfg.WSBaseURL, "/") + "/v1/text-to-speech/" + strconv.Itoa(int(voice)) + "/stream-input")
	if err != nil {
		return audio.Waveform{}, err
	}
	q := u.Query()
	if strings.TrimSpace(s.cfg.ModelID) != "" {
		q.Set("model_id", s.cfg.ModelID)
	}
	q.Set("output_format", fmt.Sprintf("pcm_%d", s.cfg.SampleRate))
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("xi-api-key", s.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("dial synthesis websocket: %w", err)
	}
	defer conn.Close()

	// Prime the stream, send the whole turn, then close input; the reply is
	// short enough that per-turn streams beat keeping a connection warm.
	if err := conn.WriteJSON(map[string]any{"text": " "}); err != nil {
		return audio.Waveform{}, err
	}
	if err := conn.WriteJSON(map[string]any{"text": text, "try_trigger_generation": true}); err != nil {
		return audio.Waveform{}, err
	}
	if err := conn.WriteJSON(map[string]any{"text": ""}); err != nil {
		return audio.Waveform{}, err
	}

	var pcm []byte
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if len(pcm) > 0 {
				break
			}
			return audio.Waveform{}, fmt.Errorf("synthesis stream: %w", err)
		}
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			continue
		}

		if errMsg := asString(raw["error"]); errMsg != "" {
			code := asString(raw["message_type"])
			return audio.Waveform{}, fmt.Errorf("synthesis stream %s: %s (retryable=%v)",
				code, errMsg, reliability.IsRetryableStreamMessageType(code))
		}
		if chunk := asString(raw["audio"]); chunk != "" {
			decoded, err := base64.StdEncoding.DecodeString(chunk)
			if err != nil {
				return audio.Waveform{}, fmt.Errorf("decode audio chunk: %w", err)
			}
			pcm = append(pcm, decoded...)
		}
		if asBool(raw["isFinal"]) || asBool(raw["is_final"]) {
			break
		}
	}

	return audio.Waveform{SampleRate: s.cfg.SampleRate, PCM: pcm}, nil
}

func (s *RemoteSynthesizer) Close() error { return nil }

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func asBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
