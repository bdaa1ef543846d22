package cmd

import (
	"errors"
	"io"
	"log/slog"

	"github.com/samsaffron/mdstream/internal/llm"
	"github.com/samsaffron/mdstream/internal/ui/streaming"
)

// pumpStream copies text events from s into sr until the stream ends.
// The renderer is closed on a clean end and aborted on error, so the
// partial document stays on screen either way.
func pumpStream(s llm.Stream, sr *streaming.StreamRenderer, onChunk func(string)) (*llm.Usage, error) {
	defer s.Close()

	var usage *llm.Usage
	for {
		event, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return usage, sr.Close()
		}
		if err != nil {
			if abortErr := sr.Abort(err); abortErr != nil {
				slog.Debug("abort render", "error", abortErr)
			}
			return usage, err
		}

		switch event.Type {
		case llm.EventTextDelta:
			if onChunk != nil {
				onChunk(event.Text)
			}
			if _, err := sr.WriteString(event.Text); err != nil {
				return usage, err
			}
		case llm.EventUsage:
			usage = event.Use
		case llm.EventRetry:
			slog.Warn("retrying stream",
				"attempt", event.RetryAttempt,
				"max_attempts", event.RetryMaxAttempts,
				"wait_secs", event.RetryWaitSecs)
		case llm.EventDone:
			slog.Debug("stream done")
		}
	}
}
