package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// Console is the operator surface: prompts and status lines on stdout,
// Enter presses on stdin. One background goroutine owns the reader so
// ready-waits and stop-waits never race over partial lines.
type Console struct {
	w     io.Writer
	lines chan struct{}
	once  sync.Once
	r     io.Reader
}

func New(r io.Reader, w io.Writer) *Console {
	return &Console{r: r, w: w, lines: make(chan struct{})}
}

func (c *Console) startReader() {
	c.once.Do(func() {
		go func() {
			scanner := bufio.NewScanner(c.r)
			for scanner.Scan() {
				c.lines <- struct{}{}
			}
			close(c.lines)
		}()
	})
}

// AwaitReady blocks until the operator presses Enter.
func (c *Console) AwaitReady(ctx context.Context, prompt string) error {
	c.startReader()
	fmt.Fprintln(c.w, prompt)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-c.lines:
		if !ok {
			return io.EOF
		}
		return nil
	}
}

// StopSignal returns a channel that closes on the next Enter press. Used to
// end an in-flight recording.
func (c *Console) StopSignal(ctx context.Context) <-chan struct{} {
	c.startReader()
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-c.lines:
		}
		close(stop)
	}()
	return stop
}

// Notify writes one status line for the operator.
func (c *Console) Notify(format string, args ...any) {
	fmt.Fprintf(c.w, format+"\n", args...)
}
