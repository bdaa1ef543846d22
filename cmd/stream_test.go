package cmd

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/samsaffron/mdstream/internal/llm"
	"github.com/samsaffron/mdstream/internal/markdown"
	"github.com/samsaffron/mdstream/internal/render/chat"
	"github.com/samsaffron/mdstream/internal/ui"
	"github.com/samsaffron/mdstream/internal/ui/streaming"
)

func asciiRegistry() *ui.Registry {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return ui.NewRegistry(ui.DefaultTheme()).WithRenderer(r)
}

// scriptedStream returns events in order, then err (io.EOF when nil).
type scriptedStream struct {
	events []llm.Event
	err    error
	closed bool
}

func (s *scriptedStream) Recv() (llm.Event, error) {
	if len(s.events) > 0 {
		ev := s.events[0]
		s.events = s.events[1:]
		return ev, nil
	}
	if s.err != nil {
		return llm.Event{}, s.err
	}
	return llm.Event{}, io.EOF
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

func TestPumpStream(t *testing.T) {
	text := "# Title\n\nFirst paragraph.\n\n- one\n- two\n"
	var out bytes.Buffer
	sr := streaming.NewStreamRenderer(&out, asciiRegistry(), streaming.WithTerminalWidth(60))

	var chunks []string
	usage, err := pumpStream(llm.NewReplayStream(text, 5, 0), sr, func(s string) {
		chunks = append(chunks, s)
	})
	if err != nil {
		t.Fatalf("pumpStream: %v", err)
	}
	if usage != nil {
		t.Errorf("usage = %+v", usage)
	}
	if strings.Join(chunks, "") != text {
		t.Errorf("chunks = %q", chunks)
	}
	if sr.Text() != text {
		t.Errorf("renderer text = %q", sr.Text())
	}
	for _, want := range []string{"Title", "First paragraph.", "one", "two"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestPumpStreamUsageAndError(t *testing.T) {
	boom := errors.New("boom")
	s := &scriptedStream{
		events: []llm.Event{
			{Type: llm.EventRetry, RetryAttempt: 1, RetryMaxAttempts: 3, RetryWaitSecs: 0.5},
			{Type: llm.EventTextDelta, Text: "partial answer"},
			{Type: llm.EventUsage, Use: &llm.Usage{InputTokens: 3, OutputTokens: 4}},
		},
		err: boom,
	}
	var out bytes.Buffer
	sr := streaming.NewStreamRenderer(&out, asciiRegistry(), streaming.WithTerminalWidth(60))

	usage, err := pumpStream(s, sr, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if usage == nil || usage.OutputTokens != 4 {
		t.Errorf("usage = %+v", usage)
	}
	if !s.closed {
		t.Error("stream not closed")
	}
	if !strings.Contains(out.String(), "partial answer") {
		t.Errorf("partial text not rendered:\n%s", out.String())
	}
}

func TestExplainUpdate(t *testing.T) {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	styles := ui.NewStyles(r, ui.DefaultTheme())

	t.Run("kind change", func(t *testing.T) {
		var buf bytes.Buffer
		explainUpdate(&buf, styles, 3, streaming.Update{
			Stats:  chat.Stats{Kept: 1, Destroyed: 1, Created: 1},
			Before: []markdown.Block{{Kind: markdown.Header, Level: 1, Content: "T"}, {Kind: markdown.Paragraph, Content: "a"}},
			After:  []markdown.Block{{Kind: markdown.Header, Level: 1, Content: "T"}, {Kind: markdown.Table, Content: "a\n|-|"}},
		})
		out := buf.String()
		if !strings.Contains(out, "update 3, block 1: paragraph -> table") {
			t.Errorf("label missing:\n%s", out)
		}
		if !strings.Contains(out, "|-|") {
			t.Errorf("diff missing:\n%s", out)
		}
	})

	t.Run("attributes only", func(t *testing.T) {
		var buf bytes.Buffer
		explainUpdate(&buf, styles, 1, streaming.Update{
			Stats:  chat.Stats{Destroyed: 1, Created: 1},
			Before: []markdown.Block{{Kind: markdown.CodeBlock, Content: "x", IsStreaming: true}},
			After:  []markdown.Block{{Kind: markdown.CodeBlock, Content: "x"}},
		})
		if !strings.Contains(buf.String(), "content unchanged") {
			t.Errorf("output:\n%s", buf.String())
		}
	})

	t.Run("pure append is silent", func(t *testing.T) {
		var buf bytes.Buffer
		explainUpdate(&buf, styles, 1, streaming.Update{
			Stats: chat.Stats{Kept: 1, Created: 1},
			After: []markdown.Block{{Kind: markdown.Paragraph, Content: "a"}, {Kind: markdown.Paragraph, Content: "b"}},
		})
		if buf.Len() != 0 {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})
}
