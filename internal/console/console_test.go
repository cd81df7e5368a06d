package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestAwaitReadyReturnsOnEnter(t *testing.T) {
	var out strings.Builder
	c := New(strings.NewReader("\n"), &out)

	if err := c.AwaitReady(context.Background(), "ready?"); err != nil {
		t.Fatalf("AwaitReady: %v", err)
	}
	if !strings.Contains(out.String(), "ready?") {
		t.Fatalf("prompt not written, got %q", out.String())
	}
}

func TestAwaitReadyEOF(t *testing.T) {
	c := New(strings.NewReader(""), io.Discard)
	err := c.AwaitReady(context.Background(), "ready?")
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestAwaitReadyContextCancelled(t *testing.T) {
	r, _ := io.Pipe()
	c := New(r, io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.AwaitReady(ctx, "ready?"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStopSignalFiresOnEnter(t *testing.T) {
	c := New(strings.NewReader("\n"), io.Discard)
	stop := c.StopSignal(context.Background())
	select {
	case <-stop:
	case <-time.After(time.Second):
		t.Fatal("stop signal never fired")
	}
}
