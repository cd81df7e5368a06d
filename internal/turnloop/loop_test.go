package turnloop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/paige-robotics/feelme/internal/audio"
	"github.com/paige-robotics/feelme/internal/convo"
	"github.com/paige-robotics/feelme/internal/emotion"
	"github.com/paige-robotics/feelme/internal/session"
	"github.com/paige-robotics/feelme/internal/voice"
)

type scriptedOperator struct {
	mu     sync.Mutex
	readys int
	lines  []string
}

func (o *scriptedOperator) AwaitReady(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.readys <= 0 {
		return io.EOF
	}
	o.readys--
	return nil
}

func (o *scriptedOperator) StopSignal(_ context.Context) <-chan struct{} {
	stop := make(chan struct{})
	close(stop)
	return stop
}

func (o *scriptedOperator) Notify(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, fmt.Sprintf(format, args...))
}

func (o *scriptedOperator) notified(substr string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, line := range o.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

type fakeRecorder struct {
	clips []*audio.Clip
	calls int
}

func (r *fakeRecorder) Record(_ context.Context, _ <-chan struct{}) (*audio.Clip, error) {
	i := r.calls
	r.calls++
	if i < len(r.clips) {
		return r.clips[i], nil
	}
	return testClip(), nil
}

type scriptedBrain struct {
	replies []string
	errs    []error
	calls   int
}

func (b *scriptedBrain) Respond(_ context.Context, _ string, _ []convo.Message, _ string) (string, error) {
	i := b.calls
	b.calls++
	if i < len(b.errs) && b.errs[i] != nil {
		return "", b.errs[i]
	}
	if i < len(b.replies) {
		return b.replies[i], nil
	}
	return "ok", nil
}

func testClip() *audio.Clip {
	return &audio.Clip{SampleRate: 44100, Channels: 1, Samples: make([]int16, 4410)}
}

type loopFixture struct {
	loop     *Loop
	operator *scriptedOperator
	brain    *scriptedBrain
	sess     *convo.Session
	synth    *voice.MockSynthesizer
	player   *voice.MockPlayer
	state    *session.State
}

func newLoopFixture(t *testing.T, readys int, transcripts []string, clips []*audio.Clip, brain *scriptedBrain) *loopFixture {
	t.Helper()
	if brain == nil {
		brain = &scriptedBrain{}
	}
	operator := &scriptedOperator{readys: readys}
	sess := convo.NewSession(brain, convo.DefaultDirective)
	synth := &voice.MockSynthesizer{}
	player := &voice.MockPlayer{}
	state := session.NewState("emoji")

	loop, err := New(Deps{
		Recorder:    &fakeRecorder{clips: clips},
		Transcriber: &voice.MockTranscriber{Scripts: transcripts},
		Session:     sess,
		Resolver:    emotion.NewResolver(emotion.DefaultVocabulary(), emotion.ModeEmoji),
		Synthesizer: synth,
		Player:      player,
		Operator:    operator,
		State:       state,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &loopFixture{loop: loop, operator: operator, brain: brain, sess: sess, synth: synth, player: player, state: state}
}

func TestLoopFullTurnResolvesVoiceAndPlays(t *testing.T) {
	brain := &scriptedBrain{replies: []string{"I am doing great 😎"}}
	f := newLoopFixture(t, 2, []string{"how are you", "end session"}, nil, brain)

	if err := f.loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(f.synth.Texts) != 1 {
		t.Fatalf("expected one synthesis call, got %d", len(f.synth.Texts))
	}
	if f.synth.Texts[0] != "I am doing great" {
		t.Fatalf("unexpected synthesized text %q", f.synth.Texts[0])
	}
	if f.synth.Voices[0] != 3 {
		t.Fatalf("expected voice 3 for 😎, got %d", f.synth.Voices[0])
	}
	if len(f.player.Played) != 1 {
		t.Fatalf("expected one playback, got %d", len(f.player.Played))
	}
	if got := f.sess.Len(); got != 2 {
		t.Fatalf("expected 2 history entries, got %d", got)
	}
	snap := f.state.Snapshot()
	if snap.Status != session.StatusEnded {
		t.Fatalf("expected ended session, got %s", snap.Status)
	}
	if snap.TurnsCompleted != 1 {
		t.Fatalf("expected 1 completed turn, got %d", snap.TurnsCompleted)
	}
}

func TestLoopTerminationSkipsModelAndSynthesis(t *testing.T) {
	brain := &scriptedBrain{}
	f := newLoopFixture(t, 1, []string{"ok End Session now"}, nil, brain)

	if err := f.loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if brain.calls != 0 {
		t.Fatalf("expected no model calls, got %d", brain.calls)
	}
	if len(f.synth.Texts) != 0 {
		t.Fatalf("expected no synthesis calls, got %d", len(f.synth.Texts))
	}
	if f.sess.Len() != 0 {
		t.Fatalf("expected empty history, got %d entries", f.sess.Len())
	}
	if f.state.Snapshot().Status != session.StatusEnded {
		t.Fatal("expected ended session")
	}
}

func TestLoopEmptyTranscriptPromptsRetry(t *testing.T) {
	brain := &scriptedBrain{}
	f := newLoopFixture(t, 2, []string{"", "end session"}, nil, brain)

	if err := f.loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if brain.calls != 0 {
		t.Fatalf("expected no model calls for empty transcript, got %d", brain.calls)
	}
	if !f.operator.notified("I didn't hear anything") {
		t.Fatal("expected retry prompt for empty transcript")
	}
}

func TestLoopNilClipPromptsRetry(t *testing.T) {
	brain := &scriptedBrain{}
	f := newLoopFixture(t, 2, []string{"end session"}, []*audio.Clip{nil, testClip()}, brain)

	if err := f.loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if brain.calls != 0 {
		t.Fatalf("expected no model calls, got %d", brain.calls)
	}
	if !f.operator.notified("No audio data recorded.") {
		t.Fatal("expected no-audio notice")
	}
}

func TestLoopModelFailureLeavesHistoryClean(t *testing.T) {
	brain := &scriptedBrain{
		errs:    []error{errors.New("model unavailable"), nil},
		replies: []string{"", "Glad you are back 🙂"},
	}
	f := newLoopFixture(t, 3, []string{"hello", "hello again", "end session"}, nil, brain)

	if err := f.loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.sess.Len() != 2 {
		t.Fatalf("expected 2 history entries after one good turn, got %d", f.sess.Len())
	}
	msgs := f.sess.History()
	if msgs[0].Content != "hello again" {
		t.Fatalf("failed turn leaked into history: %q", msgs[0].Content)
	}
	snap := f.state.Snapshot()
	if snap.TurnsFailed != 1 || snap.TurnsCompleted != 1 {
		t.Fatalf("expected 1 failed and 1 completed turn, got %d/%d", snap.TurnsFailed, snap.TurnsCompleted)
	}
}

func TestLoopEmojiOnlyReplyFallsBackToNice(t *testing.T) {
	brain := &scriptedBrain{replies: []string{"🤣"}}
	f := newLoopFixture(t, 2, []string{"tell me a joke", "end session"}, nil, brain)

	if err := f.loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.synth.Texts) != 1 || f.synth.Texts[0] != "nice" {
		t.Fatalf("expected fallback utterance, got %v", f.synth.Texts)
	}
	if f.synth.Voices[0] != 8 {
		t.Fatalf("expected voice 8 for 🤣, got %d", f.synth.Voices[0])
	}
}

func TestLoopOperatorEOFEndsSession(t *testing.T) {
	f := newLoopFixture(t, 0, nil, nil, nil)
	if err := f.loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.state.Snapshot().Status != session.StatusEnded {
		t.Fatal("expected ended session on operator EOF")
	}
}

func TestLoopContextCancel(t *testing.T) {
	f := newLoopFixture(t, 100, []string{"hello"}, nil, &scriptedBrain{replies: []string{"hi 🙂"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.loop.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
