package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/paige-robotics/feelme/internal/archive"
	"github.com/paige-robotics/feelme/internal/brain"
	"github.com/paige-robotics/feelme/internal/capture"
	"github.com/paige-robotics/feelme/internal/config"
	"github.com/paige-robotics/feelme/internal/console"
	"github.com/paige-robotics/feelme/internal/convo"
	"github.com/paige-robotics/feelme/internal/emotion"
	"github.com/paige-robotics/feelme/internal/httpapi"
	"github.com/paige-robotics/feelme/internal/observability"
	"github.com/paige-robotics/feelme/internal/protocol"
	"github.com/paige-robotics/feelme/internal/session"
	"github.com/paige-robotics/feelme/internal/turnloop"
	"github.com/paige-robotics/feelme/internal/voice"
	"github.com/paige-robotics/feelme/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal("config error: %v", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fatal("logger init failed: %v", err)
	}
	defer log.Sync()

	ctx := context.Background()

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	window := observability.NewStageWindow(256)
	feed := protocol.NewFeed()

	store, err := archive.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("turn archive init failed", logger.Error(err))
	}
	defer store.Close()

	transcriber, err := voice.NewWhisperCLI(voice.WhisperConfig{
		CLI:       cfg.WhisperCLI,
		ModelPath: cfg.WhisperModelPath,
		Language:  cfg.WhisperLanguage,
		Threads:   cfg.WhisperThreads,
	})
	if err != nil {
		log.Fatal("transcriber init failed", logger.Error(err))
	}

	synth, err := newSynthesizer(cfg)
	if err != nil {
		log.Fatal("synthesizer init failed", logger.Error(err))
	}
	defer synth.Close()

	player, err := voice.NewFFplayPlayer()
	if err != nil {
		log.Fatal("player init failed", logger.Error(err))
	}

	source, err := capture.NewFFmpegSource(cfg.CaptureSampleRate)
	if err != nil {
		log.Fatal("microphone init failed", logger.Error(err))
	}
	recorder := capture.New(source, capture.Config{
		SampleRate: cfg.CaptureSampleRate,
		Channels:   1,
		ClipPath:   cfg.CaptureClipPath,
	}, log)

	modelBrain, err := brain.New(brain.Config{
		BaseURL:     cfg.BrainBaseURL,
		APIKey:      cfg.BrainAPIKey,
		Model:       cfg.BrainModel,
		Temperature: cfg.BrainTemperature,
		MaxAttempts: cfg.BrainMaxAttempts,
		RetryBase:   cfg.BrainRetryBase,
		RetryCap:    cfg.BrainRetryCap,
	}, log)
	if err != nil {
		log.Fatal("model client init failed", logger.Error(err))
	}

	directive := strings.TrimSpace(cfg.Directive)
	if directive == "" {
		directive = convo.DefaultDirective
	}

	state := session.NewState(cfg.VoiceMode)
	metrics.SessionActive.Set(1)

	loop, err := turnloop.New(turnloop.Deps{
		Recorder:    recorder,
		Transcriber: transcriber,
		Session:     convo.NewSession(modelBrain, directive),
		Resolver:    emotion.NewResolver(emotion.DefaultVocabulary(), emotion.Mode(cfg.VoiceMode)),
		Synthesizer: synth,
		Player:      player,
		Operator:    console.New(os.Stdin, os.Stdout),
		Archive:     store,
		State:       state,
		Feed:        feed,
		Metrics:     metrics,
		Window:      window,
		Deadlines: turnloop.Deadlines{
			Transcribe: cfg.TranscribeTimeout,
			Respond:    cfg.RespondTimeout,
			Synthesize: cfg.SynthesizeTimeout,
			Play:       cfg.PlayTimeout,
		},
		Log: log,
	})
	if err != nil {
		log.Fatal("loop init failed", logger.Error(err))
	}

	api := httpapi.New(cfg, state, store, feed, window, log)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Info("operator surface listening", logger.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen error", logger.Error(err))
		}
	}()

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		runCancel()
	}()

	loopErr := loop.Run(runCtx)
	if loopErr != nil && !errors.Is(loopErr, context.Canceled) {
		log.Error("loop stopped", logger.Error(loopErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", logger.Error(err))
		_ = httpServer.Close()
	}

	log.Info("shutdown complete")
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
		return nil, errors.New("unknown synthesis provider: " + cfg.SynthProvider)
	}
}

// fatal covers failures that happen before the logger exists.
func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
