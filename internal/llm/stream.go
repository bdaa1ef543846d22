package llm

import (
	"context"
	"io"
	"strings"
	"sync"
)

// eventStream is a Stream fed by a producer goroutine.
type eventStream struct {
	events <-chan Event
	cancel context.CancelFunc
	once   sync.Once
}

// newEventStream runs produce in a goroutine and streams what it sends.
// A non-nil error from produce becomes a final EventError. Close cancels
// the context passed to produce.
func newEventStream(ctx context.Context, produce func(ctx context.Context, events chan<- Event) error) *eventStream {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan Event, 16)

	go func() {
		defer close(ch)
		if err := produce(ctx, ch); err != nil {
			select {
			case ch <- Event{Type: EventError, Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return &eventStream{events: ch, cancel: cancel}
}

// Recv returns the next event. Error events are returned together with
// their error; io.EOF follows the last event.
func (s *eventStream) Recv() (Event, error) {
	event, ok := <-s.events
	if !ok {
		return Event{}, io.EOF
	}
	if event.Type == EventError {
		return event, event.Err
	}
	return event, nil
}

func (s *eventStream) Close() error {
	s.once.Do(func() {
		s.cancel()
		// let the producer finish its pending send
		go func() {
			for range s.events {
			}
		}()
	})
	return nil
}

// send delivers event unless ctx is done first.
func send(ctx context.Context, events chan<- Event, event Event) error {
	select {
	case events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadAll drains s, returning the concatenated text and the last usage
// report. s is closed on return.
func ReadAll(s Stream) (string, *Usage, error) {
	defer s.Close()

	var sb strings.Builder
	var usage *Usage
	for {
		event, err := s.Recv()
		if err == io.EOF {
			return sb.String(), usage, nil
		}
		if err != nil {
			return sb.String(), usage, err
		}
		switch event.Type {
		case EventTextDelta:
			sb.WriteString(event.Text)
		case EventUsage:
			usage = event.Use
		}
	}
}
