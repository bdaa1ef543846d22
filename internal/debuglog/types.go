// Package debuglog records LLM streams to JSONL files and reads them back,
// so a response can be replayed with its original chunk boundaries.
package debuglog

import (
	"time"

	"github.com/samsaffron/mdstream/internal/llm"
)

// Entry types written to a session file.
const (
	typeSessionStart = "session_start"
	typeRequest      = "request"
	typeEvent        = "event"
)

// logEntry is the common structure for all log entries
type logEntry struct {
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
}

type sessionStartEntry struct {
	logEntry
	Command string   `json:"command"`
	Args    []string `json:"args"`
	Cwd     string   `json:"cwd"`
}

type requestEntry struct {
	logEntry
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Request  requestData `json:"request"`
}

type requestData struct {
	System          string `json:"system,omitempty"`
	Prompt          string `json:"prompt"`
	MaxOutputTokens int    `json:"max_output_tokens,omitempty"`
}

type eventEntry struct {
	logEntry
	EventType string `json:"event_type"`
	Data      any    `json:"data,omitempty"`
}

// SessionSummary is the list view of one recording.
type SessionSummary struct {
	ID        string
	FilePath  string
	FileSize  int64
	StartTime time.Time
	Provider  string
	Model     string
	Prompt    string
	Chunks    int
	Input     int
	Output    int
	HasErrors bool
}

// Session is a fully parsed recording.
type Session struct {
	ID        string
	FilePath  string
	StartTime time.Time
	EndTime   time.Time
	Command   string
	Args      []string
	Cwd       string
	Provider  string
	Model     string
	Request   llm.Request

	// Chunks are the text deltas, timed from the request.
	Chunks []llm.TimedChunk
	Usage  llm.Usage
	Errors []string
}

// Text is the full response text.
func (s *Session) Text() string {
	n := 0
	for _, c := range s.Chunks {
		n += len(c.Text)
	}
	b := make([]byte, 0, n)
	for _, c := range s.Chunks {
		b = append(b, c.Text...)
	}
	return string(b)
}

// Duration is the time from the request to the last chunk.
func (s *Session) Duration() time.Duration {
	if len(s.Chunks) == 0 {
		return 0
	}
	return s.Chunks[len(s.Chunks)-1].At
}
