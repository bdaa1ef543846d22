package chat

import (
	"strings"

	"github.com/samsaffron/mdstream/internal/markdown"
)

// Resizer is implemented by adapters whose widget output depends on the
// terminal width. The renderer calls SetWidth on resize and rebuilds.
type Resizer interface {
	SetWidth(width int)
}

// Totals accumulates Stats across updates.
type Totals struct {
	Updates      int `json:"updates" yaml:"updates"`
	Kept         int `json:"kept" yaml:"kept"`
	Destroyed    int `json:"destroyed" yaml:"destroyed"`
	Created      int `json:"created" yaml:"created"`
	FullRebuilds int `json:"full_rebuilds" yaml:"full_rebuilds"`
}

func (t *Totals) add(s Stats) {
	t.Updates++
	t.Kept += s.Kept
	t.Destroyed += s.Destroyed
	t.Created += s.Created
	if s.FullRebuild {
		t.FullRebuilds++
	}
}

// RendererOption configures a Renderer.
type RendererOption func(*rendererConfig)

type rendererConfig struct {
	holdUnstable bool
}

// WithHoldUnstable renders streamed text only up to markdown.StableBoundary,
// so a half-typed "**bo" is not shown with literal markers first.
func WithHoldUnstable() RendererOption {
	return func(c *rendererConfig) {
		c.holdUnstable = true
	}
}

// Renderer feeds render events into a Document. It owns the accumulated
// text of one streamed response.
type Renderer[W any] struct {
	doc     *Document[W]
	adapter Adapter[W]
	cfg     rendererConfig

	text              strings.Builder
	streaming         bool
	rendered          string // text passed to the last update
	renderedStreaming bool

	width  int
	height int
	err    error
	totals Totals
	last   Stats
}

// NewRenderer creates a renderer drawing through adapter.
func NewRenderer[W any](adapter Adapter[W], opts ...RendererOption) *Renderer[W] {
	r := &Renderer[W]{
		doc:     NewDocument(adapter),
		adapter: adapter,
	}
	for _, opt := range opts {
		opt(&r.cfg)
	}
	return r
}

// HandleEvent processes a render event and returns what the document did.
// Events that do not touch the document return a zero Stats.
func (r *Renderer[W]) HandleEvent(event RenderEvent) Stats {
	switch event.Type {
	case RenderEventStreamStart:
		r.doc.Reset()
		r.text.Reset()
		r.rendered = ""
		r.err = nil
		r.streaming = true
		return Stats{}

	case RenderEventStreamText:
		if event.Text == "" {
			return Stats{}
		}
		r.text.WriteString(event.Text)
		return r.update(false)

	case RenderEventStreamEnd:
		r.streaming = false
		return r.update(false)

	case RenderEventStreamError:
		r.err = event.Err
		r.streaming = false
		return r.update(false)

	case RenderEventResize:
		r.height = event.Height
		if event.Width == r.width || event.Width <= 0 {
			return Stats{}
		}
		r.width = event.Width
		resizer, ok := r.adapter.(Resizer)
		if !ok {
			return Stats{}
		}
		resizer.SetWidth(event.Width)
		return r.update(true)

	case RenderEventReset:
		r.doc.Reset()
		r.text.Reset()
		r.rendered = ""
		r.err = nil
		r.streaming = false
		return Stats{}
	}
	return Stats{}
}

func (r *Renderer[W]) update(rebuild bool) Stats {
	text := r.text.String()
	if r.streaming && r.cfg.holdUnstable {
		text = text[:markdown.StableBoundary(text)]
	}
	if !rebuild && text == r.rendered && r.streaming == r.renderedStreaming && r.doc.Len() > 0 {
		return Stats{Kept: r.doc.Len()}
	}
	var stats Stats
	if rebuild {
		stats = r.doc.Rebuild(text, r.streaming)
	} else {
		stats = r.doc.Update(text, r.streaming)
	}
	r.rendered = text
	r.renderedStreaming = r.streaming
	r.totals.add(stats)
	r.last = stats
	return stats
}

// Document returns the underlying document.
func (r *Renderer[W]) Document() *Document[W] {
	return r.doc
}

// Widgets returns the live widgets in document order.
func (r *Renderer[W]) Widgets() []W {
	return r.doc.Widgets()
}

// Text returns everything received since the stream started.
func (r *Renderer[W]) Text() string {
	return r.text.String()
}

// Streaming reports whether a stream is in progress.
func (r *Renderer[W]) Streaming() bool {
	return r.streaming
}

// Size returns the last width and height seen in a resize event.
func (r *Renderer[W]) Size() (int, int) {
	return r.width, r.height
}

// Err returns the error that ended the stream, if any.
func (r *Renderer[W]) Err() error {
	return r.err
}

// Totals returns the accumulated update statistics.
func (r *Renderer[W]) Totals() Totals {
	return r.totals
}

// LastStats returns the statistics of the most recent update.
func (r *Renderer[W]) LastStats() Stats {
	return r.last
}
