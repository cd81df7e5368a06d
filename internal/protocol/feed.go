package protocol

import "sync"

// Feed fans loop events out to websocket subscribers. Publish never blocks
// the loop: slow subscribers drop messages instead of stalling a turn.
type Feed struct {
	mu   sync.Mutex
	subs map[chan any]struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[chan any]struct{})}
}

func (f *Feed) Subscribe() chan any {
	ch := make(chan any, 256)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *Feed) Unsubscribe(ch chan any) {
	f.mu.Lock()
	if _, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(ch)
	}
	f.mu.Unlock()
}

func (f *Feed) Publish(msg any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// MessageTypeOf reports the declared type of a feed payload.
func MessageTypeOf(v any) (MessageType, bool) {
	switch m := v.(type) {
	case TurnStarted:
		return m.Type, true
	case TranscriptCommitted:
		return m.Type, true
	case ReplyResolved:
		return m.Type, true
	case TurnEnded:
		return m.Type, true
	case SystemEvent:
		return m.Type, true
	case ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
