package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the companion loop.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool

	LogLevel  string
	LogFormat string

	// VoiceMode selects speaker behavior: emoji, default, or base.
	VoiceMode string
	Directive string

	CaptureSampleRate int
	CaptureClipPath   string

	WhisperCLI       string
	WhisperModelPath string
	WhisperLanguage  string
	WhisperThreads   int

	BrainBaseURL     string
	BrainAPIKey      string
	BrainModel       string
	BrainTemperature float64
	BrainMaxAttempts int
	BrainRetryBase   time.Duration
	BrainRetryCap    time.Duration

	SynthProvider      string
	MatchaPython       string
	MatchaWorkerScript string
	MatchaSteps        int
	MatchaTemperature  float64
	MatchaSpeakingRate float64

	RemoteTTSAPIKey    string
	RemoteTTSWSBaseURL string
	RemoteTTSModelID   string

	TranscribeTimeout time.Duration
	RespondTimeout    time.Duration
	SynthesizeTimeout time.Duration
	PlayTimeout       time.Duration

	DatabaseURL        string
	ArchiveRecentLimit int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:           envOrDefault("APP_BIND_ADDR", ":8090"),
		MetricsNamespace:   envOrDefault("APP_METRICS_NAMESPACE", "feelme"),
		AllowAnyOrigin:     false,
		LogLevel:           envOrDefault("APP_LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("APP_LOG_FORMAT", "console"),
		VoiceMode:          envOrDefault("FEELME_VOICE_MODE", "emoji"),
		Directive:          os.Getenv("FEELME_DIRECTIVE"),
		CaptureSampleRate:  44100,
		CaptureClipPath:    stringsTrimSpace("FEELME_CLIP_PATH"),
		WhisperCLI:         envOrDefault("WHISPER_CLI", "whisper-cli"),
		WhisperModelPath:   envOrDefault("WHISPER_MODEL_PATH", ".models/whisper/ggml-tiny.en.bin"),
		WhisperLanguage:    envOrDefault("WHISPER_LANGUAGE", "en"),
		WhisperThreads:     0,
		BrainBaseURL:       envOrDefault("BRAIN_BASE_URL", "http://localhost:11434/v1"),
		BrainAPIKey:        envOrDefault("BRAIN_API_KEY", "ollama"),
		BrainModel:         envOrDefault("BRAIN_MODEL", "llama3"),
		BrainTemperature:   0.6,
		BrainMaxAttempts:   3,
		BrainRetryBase:     250 * time.Millisecond,
		BrainRetryCap:      2 * time.Second,
		SynthProvider:      envOrDefault("FEELME_TTS_PROVIDER", "local"),
		MatchaPython:       stringsTrimSpace("MATCHA_PYTHON"),
		MatchaWorkerScript: envOrDefault("MATCHA_WORKER_SCRIPT", "scripts/matcha_worker.py"),
		MatchaSteps:        10,
		MatchaTemperature:  0.667,
		MatchaSpeakingRate: 0.5,
		RemoteTTSAPIKey:    stringsTrimSpace("REMOTE_TTS_API_KEY"),
		RemoteTTSWSBaseURL: envOrDefault("REMOTE_TTS_WS_BASE_URL", "wss://api.elevenlabs.io"),
		RemoteTTSModelID:   stringsTrimSpace("REMOTE_TTS_MODEL_ID"),
		TranscribeTimeout:  30 * time.Second,
		RespondTimeout:     60 * time.Second,
		SynthesizeTimeout:  60 * time.Second,
		PlayTimeout:        2 * time.Minute,
		DatabaseURL:        stringsTrimSpace("DATABASE_URL"),
		ArchiveRecentLimit: 50,
		ShutdownTimeout:    15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.CaptureSampleRate, err = intFromEnv("FEELME_CAPTURE_SAMPLE_RATE", cfg.CaptureSampleRate)
	if err != nil {
		return Config{}, err
	}
	cfg.WhisperThreads, err = intFromEnv("WHISPER_THREADS", cfg.WhisperThreads)
	if err != nil {
		return Config{}, err
	}
	cfg.BrainTemperature, err = floatFromEnv("BRAIN_TEMPERATURE", cfg.BrainTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.BrainMaxAttempts, err = intFromEnv("BRAIN_MAX_ATTEMPTS", cfg.BrainMaxAttempts)
	if err != nil {
		return Config{}, err
	}
	cfg.MatchaSteps, err = intFromEnv("MATCHA_STEPS", cfg.MatchaSteps)
	if err != nil {
		return Config{}, err
	}
	cfg.MatchaTemperature, err = floatFromEnv("MATCHA_TEMPERATURE", cfg.MatchaTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.MatchaSpeakingRate, err = floatFromEnv("MATCHA_SPEAKING_RATE", cfg.MatchaSpeakingRate)
	if err != nil {
		return Config{}, err
	}
	cfg.TranscribeTimeout, err = durationFromEnv("FEELME_TRANSCRIBE_TIMEOUT", cfg.TranscribeTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.RespondTimeout, err = durationFromEnv("FEELME_RESPOND_TIMEOUT", cfg.RespondTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SynthesizeTimeout, err = durationFromEnv("FEELME_SYNTHESIZE_TIMEOUT", cfg.SynthesizeTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.PlayTimeout, err = durationFromEnv("FEELME_PLAY_TIMEOUT", cfg.PlayTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ArchiveRecentLimit, err = intFromEnv("FEELME_ARCHIVE_RECENT_LIMIT", cfg.ArchiveRecentLimit)
	if err != nil {
		return Config{}, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.VoiceMode)) {
	case "emoji", "default", "base":
		cfg.VoiceMode = strings.ToLower(strings.TrimSpace(cfg.VoiceMode))
	default:
		return Config{}, fmt.Errorf("FEELME_VOICE_MODE must be one of emoji, default, base")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.SynthProvider)) {
	case "local", "remote", "mock":
		cfg.SynthProvider = strings.ToLower(strings.TrimSpace(cfg.SynthProvider))
	default:
		return Config{}, fmt.Errorf("FEELME_TTS_PROVIDER must be one of local, remote, mock")
	}
	if cfg.SynthProvider == "remote" && cfg.RemoteTTSAPIKey == "" {
		return Config{}, fmt.Errorf("REMOTE_TTS_API_KEY is required when FEELME_TTS_PROVIDER=remote")
	}
	if cfg.CaptureSampleRate <= 0 {
		return Config{}, fmt.Errorf("FEELME_CAPTURE_SAMPLE_RATE must be positive")
	}
	if cfg.WhisperThreads < 0 {
		return Config{}, fmt.Errorf("WHISPER_THREADS must be >= 0")
	}
	if cfg.BrainTemperature < 0 || cfg.BrainTemperature > 2 {
		return Config{}, fmt.Errorf("BRAIN_TEMPERATURE must be in [0, 2]")
	}
	if cfg.BrainMaxAttempts <= 0 {
		return Config{}, fmt.Errorf("BRAIN_MAX_ATTEMPTS must be positive")
	}
	if cfg.MatchaSteps <= 0 {
		return Config{}, fmt.Errorf("MATCHA_STEPS must be positive")
	}
	if cfg.ArchiveRecentLimit <= 0 {
		return Config{}, fmt.Errorf("FEELME_ARCHIVE_RECENT_LIMIT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
