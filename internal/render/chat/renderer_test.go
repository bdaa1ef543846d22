package chat

import (
	"errors"
	"testing"

	"github.com/samsaffron/mdstream/internal/markdown"
)

func TestRenderer_StreamLifecycle(t *testing.T) {
	adapter := &fakeAdapter{}
	r := NewRenderer[*fakeWidget](adapter)

	r.HandleEvent(NewStreamStartEvent())
	if !r.Streaming() {
		t.Fatal("not streaming after start")
	}
	for _, chunk := range []string{"```py\n", "print(1)\n"} {
		r.HandleEvent(NewStreamTextEvent(chunk))
	}
	widgets := r.Widgets()
	if len(widgets) != 1 || !widgets[0].block.IsStreaming {
		t.Fatalf("want one streaming code widget, got %+v", widgets)
	}

	stats := r.HandleEvent(NewStreamEndEvent())
	if stats.Created != 1 || stats.Destroyed != 1 {
		t.Errorf("end of stream stats = %+v, want the code widget replaced", stats)
	}
	if r.Widgets()[0].block.IsStreaming {
		t.Error("code block still marked streaming after end")
	}
	if got := r.Text(); got != "```py\nprint(1)\n" {
		t.Errorf("Text() = %q", got)
	}
	if totals := r.Totals(); totals.Updates != 3 {
		t.Errorf("Totals().Updates = %d, want 3", totals.Updates)
	}
}

func TestRenderer_HoldUnstable(t *testing.T) {
	adapter := &fakeAdapter{}
	r := NewRenderer[*fakeWidget](adapter, WithHoldUnstable())
	r.HandleEvent(NewStreamStartEvent())

	r.HandleEvent(NewStreamTextEvent("Done.\nSome **bo"))
	if n := len(r.Widgets()); n != 1 {
		t.Fatalf("%d widgets, want only the complete line", n)
	}

	r.HandleEvent(NewStreamTextEvent("ld** text"))
	widgets := r.Widgets()
	if len(widgets) != 2 || widgets[1].markup != "Some <bold>bold</> text" {
		t.Fatalf("widgets after closing marker: %+v", widgets)
	}

	// Ending the stream renders whatever is left, balanced or not.
	r.HandleEvent(NewStreamTextEvent(" and *more"))
	r.HandleEvent(NewStreamEndEvent())
	if got := r.Widgets()[1].block.Content; got != "Some **bold** text and *more" {
		t.Errorf("final content = %q", got)
	}
}

func TestRenderer_ResizeRebuilds(t *testing.T) {
	adapter := &fakeAdapter{}
	r := NewRenderer[*fakeWidget](adapter)
	r.HandleEvent(NewStreamStartEvent())
	r.HandleEvent(NewStreamTextEvent("a\nb\n"))

	stats := r.HandleEvent(NewResizeEvent(100, 40))
	if !stats.FullRebuild || stats.Destroyed != 2 || stats.Created != 2 {
		t.Errorf("resize stats = %+v", stats)
	}
	if adapter.width != 100 {
		t.Errorf("adapter width = %d, want 100", adapter.width)
	}
	if w, h := r.Size(); w != 100 || h != 40 {
		t.Errorf("Size() = %d, %d", w, h)
	}

	// Same width again is a no-op.
	if stats := r.HandleEvent(NewResizeEvent(100, 20)); stats != (Stats{}) {
		t.Errorf("repeated resize stats = %+v", stats)
	}
}

func TestRenderer_ErrorEndsStream(t *testing.T) {
	adapter := &fakeAdapter{}
	r := NewRenderer[*fakeWidget](adapter)
	r.HandleEvent(NewStreamStartEvent())
	r.HandleEvent(NewStreamTextEvent("```\nhalf"))

	boom := errors.New("connection reset")
	r.HandleEvent(NewStreamErrorEvent(boom))
	if !errors.Is(r.Err(), boom) {
		t.Errorf("Err() = %v", r.Err())
	}
	if r.Streaming() {
		t.Error("still streaming after error")
	}
	blocks := r.Document().Blocks()
	if len(blocks) != 1 || blocks[0].Kind != markdown.CodeBlock || blocks[0].IsStreaming {
		t.Errorf("blocks after error = %+v", blocks)
	}
}

func TestRenderer_ResetAndRestart(t *testing.T) {
	adapter := &fakeAdapter{}
	r := NewRenderer[*fakeWidget](adapter)
	r.HandleEvent(NewStreamStartEvent())
	r.HandleEvent(NewStreamTextEvent("one\ntwo"))

	r.HandleEvent(NewResetEvent())
	if len(r.Widgets()) != 0 || r.Text() != "" {
		t.Errorf("after reset: %d widgets, text %q", len(r.Widgets()), r.Text())
	}

	r.HandleEvent(NewStreamStartEvent())
	r.HandleEvent(NewStreamTextEvent("three"))
	if len(r.Widgets()) != 1 {
		t.Errorf("after restart: %d widgets", len(r.Widgets()))
	}
}

func TestRenderEventType_String(t *testing.T) {
	if got := RenderEventStreamText.String(); got != "stream_text" {
		t.Errorf("String() = %q", got)
	}
	if got := RenderEventType(99).String(); got != "unknown" {
		t.Errorf("String() = %q", got)
	}
}
