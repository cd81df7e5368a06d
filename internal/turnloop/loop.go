package turnloop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paige-robotics/feelme/internal/archive"
	"github.com/paige-robotics/feelme/internal/audio"
	"github.com/paige-robotics/feelme/internal/convo"
	"github.com/paige-robotics/feelme/internal/emotion"
	"github.com/paige-robotics/feelme/internal/observability"
	"github.com/paige-robotics/feelme/internal/protocol"
	"github.com/paige-robotics/feelme/internal/session"
	"github.com/paige-robotics/feelme/internal/voice"
	"github.com/paige-robotics/feelme/pkg/logger"
)

// ReadyPrompt is shown before every recording.
const ReadyPrompt = "Press Enter when you're ready to record 🎙️"

// TerminationPhrase ends the session when heard anywhere in a transcript,
// case-insensitively, before the model is consulted.
const TerminationPhrase = "end session"

// Stage names as written into session state while a turn progresses.
const (
	StateAwaitingStart = "awaiting_start"
	StateRecording     = "recording"
	StateTranscribing  = "transcribing"
	StateResponding    = "responding"
	StateResolving     = "resolving"
	StateSynthesizing  = "synthesizing"
	StatePlaying       = "playing"
	StateSessionEnded  = "session_ended"
)

// Recorder captures one clip per call, ending at the stop signal.
type Recorder interface {
	Record(ctx context.Context, stop <-chan struct{}) (*audio.Clip, error)
}

// Operator is the human in front of the machine: prompt, stop control, and
// status lines.
type Operator interface {
	AwaitReady(ctx context.Context, prompt string) error
	StopSignal(ctx context.Context) <-chan struct{}
	Notify(format string, args ...any)
}

// Deadlines bound the collaborator stages. Zero means unbounded.
type Deadlines struct {
	Transcribe time.Duration
	Respond    time.Duration
	Synthesize time.Duration
	Play       time.Duration
}

// Deps gathers the loop's collaborators.
type Deps struct {
	Recorder    Recorder
	Transcriber voice.Transcriber
	Session     *convo.Session
	Resolver    *emotion.Resolver
	Synthesizer voice.Synthesizer
	Player      voice.Player
	Operator    Operator
	Archive     archive.Store
	State       *session.State
	Feed        *protocol.Feed
	Metrics     *observability.Metrics
	Window      *observability.StageWindow
	Deadlines   Deadlines
	Log         *logger.Logger
}

// Loop drives the record → transcribe → respond → resolve → synthesize →
// play cycle until the termination phrase is heard or the context ends.
type Loop struct {
	d         Deps
	log       *logger.Logger
	turnIndex int
}

func New(d Deps) (*Loop, error) {
	if d.Recorder == nil || d.Transcriber == nil || d.Session == nil || d.Resolver == nil ||
		d.Synthesizer == nil || d.Player == nil || d.Operator == nil || d.State == nil {
		return nil, fmt.Errorf("missing loop dependency")
	}
	if d.Feed == nil {
		d.Feed = protocol.NewFeed()
	}
	if d.Window == nil {
		d.Window = observability.NewStageWindow(256)
	}
	log := d.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &Loop{d: d, log: log.Named("turnloop")}, nil
}

// Run blocks taking turns. It returns nil after the termination phrase or
// operator EOF, and the context error if the context ends first.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.d.State.SetStage(StateAwaitingStart)
		if err := l.d.Operator.AwaitReady(ctx, ReadyPrompt); err != nil {
			if errors.Is(err, io.EOF) {
				l.endSession("operator_eof")
				return nil
			}
			return err
		}

		ended, err := l.runTurn(ctx)
		if err != nil {
			var rte *RecoverableTurnError
			if !errors.As(err, &rte) {
				return err
			}
			l.log.Warn("turn abandoned",
				logger.String("stage", rte.Stage),
				logger.Error(rte.Err))
			l.d.Operator.Notify("Something went wrong (%s), try recording again...", rte.Stage)
			l.d.State.TurnFailed()
			if l.d.Metrics != nil {
				l.d.Metrics.TurnsTotal.WithLabelValues("failed").Inc()
				l.d.Metrics.ProviderErrors.WithLabelValues(rte.Stage).Inc()
			}
			l.d.Feed.Publish(protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: l.d.State.ID(),
				Stage:     rte.Stage,
				Retryable: true,
				Detail:    rte.Err.Error(),
			})
			continue
		}
		if ended {
			return nil
		}
	}
}

func (l *Loop) runTurn(ctx context.Context) (bool, error) {
	l.turnIndex++
	turnID := uuid.NewString()
	turnStart := time.Now()
	sessionID := l.d.State.ID()

	l.d.Feed.Publish(protocol.TurnStarted{
		Type:      protocol.TypeTurnStarted,
		SessionID: sessionID,
		TurnID:    turnID,
		TurnIndex: l.turnIndex,
		TSMs:      time.Now().UnixMilli(),
	})

	// Capture. The stop channel is armed before the recorder starts so an
	// immediate Enter press still lands.
	l.d.State.SetStage(StateRecording)
	stop := l.d.Operator.StopSignal(ctx)
	l.d.Operator.Notify("Recording... Press Enter to stop recording.")
	captureStart := time.Now()
	clip, err := l.d.Recorder.Record(ctx, stop)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, recoverable(observability.StageCapture, err)
	}
	l.observe(observability.StageCapture, captureStart)
	l.d.Operator.Notify("Recording stopped.")

	if clip == nil {
		l.d.Operator.Notify("No audio data recorded.")
		return false, l.emptyTurn(sessionID, turnID)
	}

	// Transcribe.
	l.d.State.SetStage(StateTranscribing)
	transcript, err := l.timedTranscribe(ctx, clip)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, recoverable(observability.StageTranscribe, err)
	}
	transcript = strings.TrimSpace(transcript)
	l.d.Operator.Notify("speaker said: %s", transcript)

	if transcript == "" {
		return false, l.emptyTurn(sessionID, turnID)
	}

	l.d.Feed.Publish(protocol.TranscriptCommitted{
		Type:      protocol.TypeTranscriptCommitted,
		SessionID: sessionID,
		TurnID:    turnID,
		Text:      transcript,
		TSMs:      time.Now().UnixMilli(),
	})

	// Termination check happens before any model or synthesis call.
	if strings.Contains(strings.ToLower(transcript), TerminationPhrase) {
		l.d.Feed.Publish(protocol.TurnEnded{
			Type:      protocol.TypeTurnEnded,
			SessionID: sessionID,
			TurnID:    turnID,
			Outcome:   "session_ended",
			TSMs:      time.Now().UnixMilli(),
		})
		l.endSession("termination_phrase")
		return true, nil
	}

	// Respond.
	l.d.State.SetStage(StateResponding)
	respondStart := time.Now()
	reply, err := l.timedRespond(ctx, transcript)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, recoverable(observability.StageRespond, err)
	}
	l.observe(observability.StageRespond, respondStart)
	l.d.Operator.Notify("%s", reply)

	// Resolve emotion and sanitize.
	l.d.State.SetStage(StateResolving)
	resolveStart := time.Now()
	text, voiceID := l.d.Resolver.Resolve(reply)
	l.observe(observability.StageResolve, resolveStart)
	if l.d.Metrics != nil {
		l.d.Metrics.CountVoice(int(voiceID))
	}
	l.d.Feed.Publish(protocol.ReplyResolved{
		Type:      protocol.TypeReplyResolved,
		SessionID: sessionID,
		TurnID:    turnID,
		Reply:     reply,
		Sanitized: text,
		VoiceID:   int(voiceID),
		TSMs:      time.Now().UnixMilli(),
	})

	// Synthesize.
	l.d.State.SetStage(StateSynthesizing)
	synthStart := time.Now()
	waveform, err := l.timedSynthesize(ctx, text, voiceID)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, recoverable(observability.StageSynthesize, err)
	}
	l.observe(observability.StageSynthesize, synthStart)

	// Play. Blocks until the reply has been heard in full.
	l.d.State.SetStage(StatePlaying)
	playStart := time.Now()
	if err := l.timedPlay(ctx, waveform); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, recoverable(observability.StagePlay, err)
	}
	l.observe(observability.StagePlay, playStart)

	if l.d.Archive != nil {
		rec := archive.TurnRecord{
			SessionID:      sessionID,
			TurnIndex:      l.turnIndex,
			Transcript:     transcript,
			Reply:          reply,
			SanitizedReply: text,
			VoiceID:        int(voiceID),
		}
		if err := l.d.Archive.SaveTurn(ctx, rec); err != nil {
			// The archive is an operator aid; losing a record never fails a turn.
			l.log.Warn("archive save failed", logger.Error(err))
		}
	}

	l.d.State.TurnCompleted()
	l.observe(observability.StageTurnTotal, turnStart)
	if l.d.Metrics != nil {
		l.d.Metrics.TurnsTotal.WithLabelValues("completed").Inc()
	}
	l.d.Feed.Publish(protocol.TurnEnded{
		Type:      protocol.TypeTurnEnded,
		SessionID: sessionID,
		TurnID:    turnID,
		Outcome:   "completed",
		TSMs:      time.Now().UnixMilli(),
	})
	return false, nil
}

// emptyTurn handles the no-audio and no-speech cases: not a failure, just a
// prompt to try again.
func (l *Loop) emptyTurn(sessionID, turnID string) error {
	l.d.Operator.Notify("I didn't hear anything, try recording again...")
	if l.d.Metrics != nil {
		l.d.Metrics.TurnsTotal.WithLabelValues("empty").Inc()
	}
	l.d.Feed.Publish(protocol.TurnEnded{
		Type:      protocol.TypeTurnEnded,
		SessionID: sessionID,
		TurnID:    turnID,
		Outcome:   "empty",
		TSMs:      time.Now().UnixMilli(),
	})
	return nil
}

func (l *Loop) endSession(reason string) {
	l.d.State.SetStage(StateSessionEnded)
	l.d.State.End()
	if l.d.Metrics != nil {
		l.d.Metrics.SessionActive.Set(0)
	}
	l.d.Feed.Publish(protocol.SystemEvent{
		Type:      protocol.TypeSystemEvent,
		SessionID: l.d.State.ID(),
		Code:      "session_ended",
		Detail:    reason,
	})
	l.log.Info("session ended", logger.String("reason", reason))
}

func (l *Loop) timedTranscribe(ctx context.Context, clip *audio.Clip) (string, error) {
	ctx, cancel := stageContext(ctx, l.d.Deadlines.Transcribe)
	defer cancel()
	start := time.Now()
	text, err := l.d.Transcriber.Transcribe(ctx, clip)
	if err != nil {
		return "", err
	}
	l.observe(observability.StageTranscribe, start)
	return text, nil
}

func (l *Loop) timedRespond(ctx context.Context, transcript string) (string, error) {
	ctx, cancel := stageContext(ctx, l.d.Deadlines.Respond)
	defer cancel()
	return l.d.Session.Respond(ctx, transcript)
}

func (l *Loop) timedSynthesize(ctx context.Context, text string, voiceID emotion.VoiceID) (audio.Waveform, error) {
	ctx, cancel := stageContext(ctx, l.d.Deadlines.Synthesize)
	defer cancel()
	return l.d.Synthesizer.Synthesize(ctx, text, voiceID)
}

func (l *Loop) timedPlay(ctx context.Context, waveform audio.Waveform) error {
	ctx, cancel := stageContext(ctx, l.d.Deadlines.Play)
	defer cancel()
	return l.d.Player.Play(ctx, waveform)
}

func (l *Loop) observe(stage string, start time.Time) {
	d := time.Since(start)
	if l.d.Metrics != nil {
		l.d.Metrics.ObserveStage(stage, d)
	}
	l.d.Window.ObserveDuration(stage, d)
}

func stageContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
