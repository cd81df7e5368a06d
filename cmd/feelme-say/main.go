package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/paige-robotics/feelme/internal/config"
	"github.com/paige-robotics/feelme/internal/emotion"
	"github.com/paige-robotics/feelme/internal/voice"
)

type options struct {
	text    string
	mode    string
	outPath string
	play    bool
	timeout time.Duration
}

// feelme-say renders one reply through the same resolver and synthesizer the
// loop uses: paste a model reply with its marker and hear the voice it picks.
func main() {
	var opts options
	flag.StringVar(&opts.text, "text", "", "reply text to render, emotion marker included")
	flag.StringVar(&opts.mode, "mode", "emoji", "voice mode: emoji, default, or base")
	flag.StringVar(&opts.outPath, "out", "", "write the rendered waveform as WAV to this path")
	flag.BoolVar(&opts.play, "play", false, "play the rendered waveform with ffplay")
	flag.DurationVar(&opts.timeout, "timeout", 120*time.Second, "overall deadline")
	flag.Parse()

	if strings.TrimSpace(opts.text) == "" {
		fmt.Fprintln(os.Stderr, "usage: feelme-say -text \"I am doing great 😎\" [-out reply.wav] [-play]")
		os.Exit(2)
	}
	if !opts.play && strings.TrimSpace(opts.outPath) == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -out, -play, or both")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fail("config error: %v", err)
	}

	var mode emotion.Mode
	switch strings.ToLower(strings.TrimSpace(opts.mode)) {
	case "emoji":
		mode = emotion.ModeEmoji
	case "default":
		mode = emotion.ModeDefault
	case "base":
		mode = emotion.ModeBase
	default:
		fail("unknown mode %q", opts.mode)
	}

	resolver := emotion.NewResolver(emotion.DefaultVocabulary(), mode)
	text, voiceID := resolver.Resolve(opts.text)
	fmt.Printf("voice=%d text=%q\n", voiceID, text)

	synth, err := newSynthesizer(cfg)
	if err != nil {
		fail("synthesizer init failed: %v", err)
	}
	defer synth.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	started := time.Now()
	waveform, err := synth.Synthesize(ctx, text, voiceID)
	if err != nil {
		fail("synthesis failed: %v", err)
	}
	fmt.Printf("rendered %.2fs of audio in %s\n", waveform.Duration().Seconds(), time.Since(started).Round(time.Millisecond))

	if strings.TrimSpace(opts.outPath) != "" {
		if err := waveform.WriteWAVFile(opts.outPath); err != nil {
			fail("write wav: %v", err)
		}
		fmt.Printf("wrote %s\n", opts.outPath)
	}

	if opts.play {
		player, err := voice.NewFFplayPlayer()
		if err != nil {
			fail("player init failed: %v", err)
		}
		if err := player.Play(ctx, waveform); err != nil {
			fail("playback failed: %v", err)
		}
	}
}

func newSynthesizer(cfg config.Config) (voice.Synthesizer, error) {
	switch cfg.SynthProvider {
	case "local":
		return voice.NewMatchaSynthesizer(voice.MatchaConfig{
			Python:       cfg.MatchaPython,
			WorkerScript: cfg.MatchaWorkerScript,
			Steps:        cfg.MatchaSteps,
			Temperature:  cfg.MatchaTemperature,
			SpeakingRate: cfg.MatchaSpeakingRate,
		})
	case "remote":
		return voice.NewRemoteSynthesizer(voice.RemoteConfig{
			APIKey:    cfg.RemoteTTSAPIKey,
			WSBaseURL: cfg.RemoteTTSWSBaseURL,
			ModelID:   cfg.RemoteTTSModelID,
		})
	case "mock":
		return &voice.MockSynthesizer{}, nil
	default:
		return nil, fmt.Errorf("unknown synthesis provider: %s", cfg.SynthProvider)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
