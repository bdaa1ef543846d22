// Package llm streams markdown from model providers and from local text.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrNoAPIKey is returned when the selected provider has no API key.
	ErrNoAPIKey = errors.New("no API key configured")
	// ErrUnknownProvider is returned for provider names NewProvider does not know.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Provider streams model output events for a request.
type Provider interface {
	Name() string
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Stream yields events until io.EOF.
type Stream interface {
	Recv() (Event, error)
	Close() error
}

// Request represents a single model turn.
type Request struct {
	System          string
	Prompt          string
	MaxOutputTokens int
}

// EventType describes streaming events.
type EventType string

const (
	EventTextDelta EventType = "text_delta"
	EventUsage     EventType = "usage"
	EventDone      EventType = "done"
	EventError     EventType = "error"
	EventRetry     EventType = "retry" // Emitted when retrying after a transient error
)

// Event represents a streamed output update.
type Event struct {
	Type EventType
	Text string
	Use  *Usage
	Err  error

	// For EventRetry
	RetryAttempt     int
	RetryMaxAttempts int
	RetryWaitSecs    float64
}

// Usage captures token usage if available.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

func maxTokens(requested, fallback int) int64 {
	if requested > 0 {
		return int64(requested)
	}
	return int64(fallback)
}
