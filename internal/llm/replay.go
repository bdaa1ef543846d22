package llm

import (
	"context"
	"time"
	"unicode/utf8"
)

// ReplayChunks splits text into pieces of at most size runes. A size of
// zero or less returns text as a single chunk. Chunks never split a
// UTF-8 sequence.
func ReplayChunks(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}

	chunks := make([]string, 0, utf8.RuneCountInString(text)/size+1)
	start, runes := 0, 0
	for i := range text {
		if runes == size {
			chunks = append(chunks, text[start:i])
			start, runes = i, 0
		}
		runes++
	}
	return append(chunks, text[start:])
}

// NewReplayStream streams text as text deltas of chunkSize runes, pausing
// delay between them. The same input always yields the same chunks.
func NewReplayStream(text string, chunkSize int, delay time.Duration) Stream {
	return newReplayStream(context.Background(), text, chunkSize, delay)
}

func newReplayStream(ctx context.Context, text string, chunkSize int, delay time.Duration) Stream {
	chunks := ReplayChunks(text, chunkSize)
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		for i, chunk := range chunks {
			if i > 0 && delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}
			if err := send(ctx, events, Event{Type: EventTextDelta, Text: chunk}); err != nil {
				return err
			}
		}
		return send(ctx, events, Event{Type: EventDone})
	})
}

// ReplayProvider answers every request with the same text, streamed like
// a model response. It stands in for a real provider in demos and tests.
type ReplayProvider struct {
	Text      string
	ChunkSize int
	Delay     time.Duration
}

func (p *ReplayProvider) Name() string {
	return "replay"
}

func (p *ReplayProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	return newReplayStream(ctx, p.Text, p.ChunkSize, p.Delay), nil
}

// TimedChunk is a piece of text and when it arrived, measured from the
// start of the stream.
type TimedChunk struct {
	At   time.Duration `json:"at"`
	Text string        `json:"text"`
}

// NewTimedStream replays chunks at their recorded offsets, scaled by speed.
// A speed of 2 plays twice as fast; zero or less sends everything at once.
func NewTimedStream(ctx context.Context, chunks []TimedChunk, speed float64) Stream {
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		start := time.Now()
		for _, chunk := range chunks {
			if speed > 0 {
				due := time.Duration(float64(chunk.At) / speed)
				if wait := due - time.Since(start); wait > 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(wait):
					}
				}
			}
			if err := send(ctx, events, Event{Type: EventTextDelta, Text: chunk.Text}); err != nil {
				return err
			}
		}
		return send(ctx, events, Event{Type: EventDone})
	})
}
