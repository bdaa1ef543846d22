package debuglog

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/samsaffron/mdstream/internal/llm"
)

// Logger writes one session to a JSONL file. A nil *Logger is valid and
// logs nothing.
type Logger struct {
	sessionID string
	path      string
	mu        sync.Mutex
	file      *os.File
	writer    *bufio.Writer
	closeOnce sync.Once
	closed    bool
	now       func() time.Time
}

// NewSessionID returns a sortable, unique-enough session name.
func NewSessionID() string {
	var b [3]byte
	_, _ = rand.Read(b[:])
	return time.Now().Format("20060102-150405") + "-" + hex.EncodeToString(b[:])
}

// NewLogger creates <baseDir>/<sessionID>.jsonl. Recordings older than
// retention are removed first; zero keeps everything.
func NewLogger(baseDir, sessionID string, retention time.Duration) (*Logger, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}
	if retention > 0 {
		_ = CleanupOldLogs(baseDir, retention)
	}

	path := filepath.Join(baseDir, sessionID+".jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return &Logger{
		sessionID: sessionID,
		path:      path,
		file:      file,
		writer:    bufio.NewWriter(file),
		now:       time.Now,
	}, nil
}

// Path returns the file the logger writes to.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Logger) header(entryType string) logEntry {
	return logEntry{
		Timestamp: l.now().UTC().Format(time.RFC3339Nano),
		SessionID: l.sessionID,
		Type:      entryType,
	}
}

// LogSessionStart records the command line that started the session.
func (l *Logger) LogSessionStart(command string, args []string, cwd string) {
	if l == nil {
		return
	}
	l.writeEntry(sessionStartEntry{
		logEntry: l.header(typeSessionStart),
		Command:  command,
		Args:     args,
		Cwd:      cwd,
	})
	l.Flush()
}

// LogRequest records the request sent to provider.
func (l *Logger) LogRequest(provider, model string, req llm.Request) {
	if l == nil {
		return
	}
	l.writeEntry(requestEntry{
		logEntry: l.header(typeRequest),
		Provider: provider,
		Model:    model,
		Request: requestData{
			System:          req.System,
			Prompt:          req.Prompt,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	})
}

// LogEvent records one stream event.
func (l *Logger) LogEvent(event llm.Event) {
	if l == nil {
		return
	}
	entry := eventEntry{
		logEntry:  l.header(typeEvent),
		EventType: string(event.Type),
	}
	switch event.Type {
	case llm.EventTextDelta:
		entry.Data = map[string]string{"text": event.Text}
	case llm.EventUsage:
		if event.Use != nil {
			entry.Data = map[string]int{
				"input_tokens":  event.Use.InputTokens,
				"output_tokens": event.Use.OutputTokens,
			}
		}
	case llm.EventError:
		if event.Err != nil {
			entry.Data = map[string]string{"error": event.Err.Error()}
		}
	case llm.EventRetry:
		entry.Data = map[string]any{
			"attempt":      event.RetryAttempt,
			"max_attempts": event.RetryMaxAttempts,
			"wait_secs":    event.RetryWaitSecs,
		}
	}
	l.writeEntry(entry)

	// Text deltas are frequent; flush when a response ends
	if event.Type == llm.EventDone || event.Type == llm.EventError {
		l.Flush()
	}
}

// Flush writes buffered entries to disk.
func (l *Logger) Flush() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		_ = l.writer.Flush()
	}
}

// Close flushes and closes the file. It is safe to call more than once.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	var closeErr error
	l.closeOnce.Do(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := l.writer.Flush(); err != nil {
			closeErr = err
		}
		if err := l.file.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		l.closed = true
	})
	return closeErr
}

// writeEntry writes a single entry as a JSON line without flushing.
func (l *Logger) writeEntry(entry any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	l.writer.Write(data)
	l.writer.WriteByte('\n')
}

// CleanupOldLogs removes .jsonl files in dir last modified before maxAge.
func CleanupOldLogs(dir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-maxAge)
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// recordingStream logs every event it passes on.
type recordingStream struct {
	inner  llm.Stream
	logger *Logger
	done   bool
}

// Record wraps s so that every event read from it is logged. Closing the
// returned stream closes s but not the logger.
func Record(s llm.Stream, logger *Logger) llm.Stream {
	if logger == nil {
		return s
	}
	return &recordingStream{inner: s, logger: logger}
}

func (r *recordingStream) Recv() (llm.Event, error) {
	event, err := r.inner.Recv()
	switch {
	case err == io.EOF:
		if !r.done {
			r.done = true
			r.logger.Flush()
		}
	case err != nil:
		logged := event
		if logged.Type != llm.EventError || logged.Err == nil {
			logged = llm.Event{Type: llm.EventError, Err: err}
		}
		r.logger.LogEvent(logged)
	default:
		r.logger.LogEvent(event)
	}
	return event, err
}

func (r *recordingStream) Close() error {
	r.logger.Flush()
	return r.inner.Close()
}
