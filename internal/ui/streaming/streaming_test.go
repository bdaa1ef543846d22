package streaming

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"
)

// testRenderer creates a StreamRenderer with a plain-text registry.
func testRenderer(t *testing.T, w *bytes.Buffer, opts ...StreamRendererOption) *StreamRenderer {
	t.Helper()
	return NewStreamRenderer(w, asciiRegistry(t), opts...)
}

// renderFull renders markdown in one write.
func renderFull(t *testing.T, input string) string {
	t.Helper()
	var buf bytes.Buffer
	sr := testRenderer(t, &buf)
	sr.Write([]byte(input))
	sr.Close()
	return buf.String()
}

// renderChunked renders markdown byte by byte.
func renderChunked(t *testing.T, input string) string {
	t.Helper()
	var buf bytes.Buffer
	sr := testRenderer(t, &buf)
	for i := 0; i < len(input); i++ {
		sr.Write([]byte{input[i]})
	}
	sr.Close()
	return buf.String()
}

// renderRandomChunks renders markdown with random chunk sizes.
func renderRandomChunks(t *testing.T, input string, maxChunkSize int, rng *rand.Rand) string {
	t.Helper()
	var buf bytes.Buffer
	sr := testRenderer(t, &buf)
	for pos := 0; pos < len(input); {
		n := min(rng.Intn(maxChunkSize)+1, len(input)-pos)
		sr.Write([]byte(input[pos : pos+n]))
		pos += n
	}
	sr.Close()
	return buf.String()
}

// assertChunkingInvariant verifies that chunked output matches full output.
func assertChunkingInvariant(t *testing.T, name, input string) {
	t.Helper()

	full := renderFull(t, input)
	if chunked := renderChunked(t, input); chunked != full {
		t.Errorf("%s: byte-by-byte output differs\nInput:\n%s\n\nFull:\n%q\n\nChunked:\n%q", name, input, full, chunked)
	}
	rng := rand.New(rand.NewSource(int64(len(input))))
	for range 5 {
		if chunked := renderRandomChunks(t, input, 7, rng); chunked != full {
			t.Errorf("%s: random chunk output differs\nFull:\n%q\n\nChunked:\n%q", name, full, chunked)
			return
		}
	}
}

func TestChunkingInvariant(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"heading", "# Hello World\n"},
		{"paragraphs", "This is a paragraph.\n\nLine one.\nLine two.\n"},
		{"no trailing newline", "Hello **world**"},
		{"fenced code", "```go\nfmt.Println(\"hello\")\n```\n"},
		{"unterminated code", "```py\nprint(1)\n"},
		{"nested fence", "````\n```\nnested\n```\n````\n"},
		{"lists", "- Item 1\n  - Nested A\n- Item 2\n\n1. First\n2. Second\n"},
		{"blockquote", "> Line 1\n>> Line 2\n\nAfter.\n"},
		{"thematic breaks", "---\n***\n___\n"},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |\n\nAfter table.\n"},
		{"table at end", "| a | b |\n|---|---|\n| 1 | 2 |"},
		{"mixed", "# Title\n\nSome *text* with `code` and [a link](http://x).\n\n```sh\necho hi\n```\n> quote\n\n---\n- done\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertChunkingInvariant(t, tt.name, tt.input)
		})
	}
}

func TestFlowingModePrintsFinishedBlocks(t *testing.T) {
	var buf bytes.Buffer
	sr := testRenderer(t, &buf)

	sr.Write([]byte("Hello\n"))
	if buf.Len() != 0 {
		t.Errorf("last block printed early: %q", buf.String())
	}

	sr.Write([]byte("Wor"))
	sr.Write([]byte("ld\n"))
	if got := buf.String(); got != "Hello\n" {
		t.Errorf("after second line: %q", got)
	}

	if err := sr.Close(); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "Hello\nWorld\n" {
		t.Errorf("after close: %q", got)
	}
}

func TestPartialRenderingRepaintsTail(t *testing.T) {
	var buf bytes.Buffer
	sr := testRenderer(t, &buf, WithPartialRendering(), WithTerminalWidth(40))

	sr.Write([]byte("Hello **wor"))
	sr.Write([]byte("ld**"))
	sr.Close()

	want := "Hello **wor\n" + clearSeq(1) + "Hello world\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestPartialRenderingKeepsStablePrefix(t *testing.T) {
	var buf bytes.Buffer
	sr := testRenderer(t, &buf, WithPartialRendering(), WithTerminalWidth(40))

	sr.Write([]byte("first\nsecond\nthi"))
	buf.Reset()
	sr.Write([]byte("rd\n"))

	// only the last line is erased
	want := clearSeq(1) + "third\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestPartialRenderingWithoutWidthFlows(t *testing.T) {
	var buf bytes.Buffer
	sr := testRenderer(t, &buf, WithPartialRendering())
	if sr.termCtrl != nil {
		t.Fatal("partial rendering without a width should flow")
	}
	sr.Write([]byte("a\nb"))
	sr.Close()
	if got := buf.String(); got != "a\nb\n" {
		t.Errorf("output = %q", got)
	}
}

func TestHoldUnstable(t *testing.T) {
	var buf bytes.Buffer
	sr := testRenderer(t, &buf, WithPartialRendering(), WithTerminalWidth(40), WithHoldUnstable())

	sr.Write([]byte("Hi **bo"))
	if buf.Len() != 0 {
		t.Errorf("unbalanced line shown: %q", buf.String())
	}
	sr.Write([]byte("ld**"))
	if got := buf.String(); got != "Hi bold\n" {
		t.Errorf("output = %q", got)
	}
}

func TestUpdateHook(t *testing.T) {
	var updates []Update
	var buf bytes.Buffer
	sr := testRenderer(t, &buf,
		WithPartialRendering(),
		WithTerminalWidth(40),
		WithUpdateHook(func(u Update) { updates = append(updates, u) }),
	)

	sr.Write([]byte("a\n"))
	sr.Write([]byte("b"))

	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}
	u := updates[1]
	if len(u.Before) != 1 || len(u.After) != 2 || u.Stats.Kept != 1 || u.Stats.Created != 1 {
		t.Errorf("second update = %+v", u)
	}
}

func TestResizeRepaintsEverything(t *testing.T) {
	var buf bytes.Buffer
	sr := testRenderer(t, &buf, WithPartialRendering(), WithTerminalWidth(40))

	sr.Write([]byte("one\ntwo\n"))
	if err := sr.Resize(20); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "one\ntwo\none\ntwo\n" {
		t.Errorf("output = %q", got)
	}
	if sr.Adapter().Width() != 20 {
		t.Errorf("adapter width = %d", sr.Adapter().Width())
	}
	if n := sr.Totals().FullRebuilds; n != 1 {
		t.Errorf("FullRebuilds = %d, want 1", n)
	}
}

func TestAbortClosesOpenCode(t *testing.T) {
	var buf bytes.Buffer
	sr := testRenderer(t, &buf, WithPartialRendering(), WithTerminalWidth(40))

	sr.Write([]byte("```go\nx := 1"))
	if !sr.Widgets()[0].Block.IsStreaming {
		t.Fatal("open fence not streaming")
	}
	if err := sr.Abort(errors.New("connection reset")); err != nil {
		t.Fatal(err)
	}
	if sr.Widgets()[0].Block.IsStreaming {
		t.Error("code block still streaming after abort")
	}
	if !strings.HasSuffix(buf.String(), "x := 1\n") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteAfterClose(t *testing.T) {
	var buf bytes.Buffer
	sr := testRenderer(t, &buf)
	sr.Write([]byte("text"))
	sr.Close()
	if _, err := sr.Write([]byte("more")); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after Close = %v, want ErrClosed", err)
	}
	if err := sr.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if sr.Text() != "text" {
		t.Errorf("Text() = %q", sr.Text())
	}
}
