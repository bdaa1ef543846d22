package debuglog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samsaffron/mdstream/internal/llm"
)

// rawEntry is the union of every entry type, for parsing
type rawEntry struct {
	Timestamp string          `json:"timestamp"`
	SessionID string          `json:"session_id"`
	Type      string          `json:"type"`
	Provider  string          `json:"provider,omitempty"`
	Model     string          `json:"model,omitempty"`
	Request   *requestData    `json:"request,omitempty"`
	EventType string          `json:"event_type,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Command   string          `json:"command,omitempty"`
	Args      []string        `json:"args,omitempty"`
	Cwd       string          `json:"cwd,omitempty"`
}

type eventData struct {
	Text         string `json:"text"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Error        string `json:"error"`
}

// ListSessions returns summaries of all recordings in dir, most recent
// first. A missing dir has no sessions.
func ListSessions(dir string) ([]SessionSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []SessionSummary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jsonl" {
			continue
		}
		session, err := ParseSession(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue // skip unreadable files
		}
		sessions = append(sessions, session.Summary())
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	return sessions, nil
}

// Summary condenses s for listing.
func (s *Session) Summary() SessionSummary {
	summary := SessionSummary{
		ID:        s.ID,
		FilePath:  s.FilePath,
		StartTime: s.StartTime,
		Provider:  s.Provider,
		Model:     s.Model,
		Prompt:    s.Request.Prompt,
		Chunks:    len(s.Chunks),
		Input:     s.Usage.InputTokens,
		Output:    s.Usage.OutputTokens,
		HasErrors: len(s.Errors) > 0,
	}
	if info, err := os.Stat(s.FilePath); err == nil {
		summary.FileSize = info.Size()
	}
	return summary
}

// ParseSession reads a recording. Malformed lines are skipped. Chunk times
// are measured from the request, or from the first entry when the request
// is missing.
func ParseSession(filePath string) (*Session, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	session := &Session{
		ID:       strings.TrimSuffix(filepath.Base(filePath), ".jsonl"),
		FilePath: filePath,
	}

	scanner := bufio.NewScanner(file)
	// text deltas can be long
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var origin time.Time
	for scanner.Scan() {
		var entry rawEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, entry.Timestamp)
		if err != nil {
			continue
		}
		if session.StartTime.IsZero() || ts.Before(session.StartTime) {
			session.StartTime = ts
		}
		if ts.After(session.EndTime) {
			session.EndTime = ts
		}
		if origin.IsZero() {
			origin = ts
		}

		switch entry.Type {
		case typeSessionStart:
			session.Command = entry.Command
			session.Args = entry.Args
			session.Cwd = entry.Cwd

		case typeRequest:
			if session.Provider == "" {
				session.Provider = entry.Provider
				session.Model = entry.Model
				origin = ts
			}
			if entry.Request != nil {
				session.Request.System = entry.Request.System
				session.Request.Prompt = entry.Request.Prompt
				session.Request.MaxOutputTokens = entry.Request.MaxOutputTokens
			}

		case typeEvent:
			var data eventData
			if len(entry.Data) > 0 {
				if err := json.Unmarshal(entry.Data, &data); err != nil {
					continue
				}
			}
			switch llm.EventType(entry.EventType) {
			case llm.EventTextDelta:
				session.Chunks = append(session.Chunks, llm.TimedChunk{At: ts.Sub(origin), Text: data.Text})
			case llm.EventUsage:
				// reports are cumulative, keep the last
				session.Usage.InputTokens = data.InputTokens
				session.Usage.OutputTokens = data.OutputTokens
			case llm.EventError:
				session.Errors = append(session.Errors, data.Error)
			}
		}
	}
	return session, scanner.Err()
}

// ResolveSession finds a recording by 1-based position in the list (1 is
// the most recent) or by ID.
func ResolveSession(dir, identifier string) (*SessionSummary, error) {
	sessions, err := ListSessions(dir)
	if err != nil {
		return nil, err
	}
	if num, err := strconv.Atoi(identifier); err == nil {
		if num < 1 || num > len(sessions) {
			return nil, fmt.Errorf("no session %d (have %d)", num, len(sessions))
		}
		return &sessions[num-1], nil
	}
	for i := range sessions {
		if sessions[i].ID == identifier {
			return &sessions[i], nil
		}
	}
	return nil, fmt.Errorf("no session %q", identifier)
}
