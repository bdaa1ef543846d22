// Package streaming writes a token stream of markdown to a terminal as it
// arrives. Text is parsed into blocks on every write and the block document
// is reconciled, so only the blocks that changed are laid out again.
//
// Two output modes exist. With partial rendering and a known terminal
// width, the changed tail of the output is erased and repainted in place.
// Otherwise output flows append-only: a block is printed once a later
// block proves it finished, and the rest is printed on Flush.
package streaming

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/samsaffron/mdstream/internal/render/chat"
	"github.com/samsaffron/mdstream/internal/ui"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("streaming: renderer closed")

// StreamRenderer renders streamed markdown to an output writer.
// It implements io.WriteCloser and is not safe for concurrent use.
type StreamRenderer struct {
	output   io.Writer
	adapter  *Adapter
	renderer *chat.Renderer[*Widget]

	rendererOpts []chat.RendererOption
	adapterOpts  []AdapterOption

	// Partial rendering configuration
	partialEnabled bool
	termWidth      int
	termHeight     int
	termCtrl       *terminalController

	// repaint mode: lines currently on screen
	screen []string

	// flowing mode: blocks already printed, and the unfinished line
	printed int
	lineBuf strings.Builder

	started bool
	closed  bool

	onUpdate func(Update)
}

// NewStreamRenderer creates a renderer drawing blocks with registry.
func NewStreamRenderer(w io.Writer, registry *ui.Registry, opts ...StreamRendererOption) *StreamRenderer {
	sr := &StreamRenderer{output: w}
	for _, opt := range opts {
		opt(sr)
	}

	sr.adapter = NewAdapter(registry, sr.termWidth, sr.adapterOpts...)
	sr.renderer = chat.NewRenderer[*Widget](sr.adapter, sr.rendererOpts...)

	// Without a terminal width there is no way to count rows to erase, so
	// partial rendering falls back to flowing mode.
	if sr.partialEnabled && sr.termWidth > 0 {
		sr.termCtrl = newTerminalController(w, sr.termWidth, sr.termHeight)
	}
	return sr
}

// Write accepts a chunk of markdown. It implements io.Writer.
func (sr *StreamRenderer) Write(p []byte) (int, error) {
	if sr.closed {
		return 0, ErrClosed
	}
	sr.start()
	if len(p) == 0 {
		return 0, nil
	}

	if sr.termCtrl != nil {
		sr.handle(chat.NewStreamTextEvent(string(p)))
		return len(p), sr.repaint()
	}

	// Flowing mode parses complete lines only; a partial line could still
	// turn into a different block.
	sr.lineBuf.Write(p)
	buffered := sr.lineBuf.String()
	cut := strings.LastIndexByte(buffered, '\n')
	if cut < 0 {
		return len(p), nil
	}
	sr.lineBuf.Reset()
	sr.lineBuf.WriteString(buffered[cut+1:])
	sr.handle(chat.NewStreamTextEvent(buffered[:cut+1]))
	return len(p), sr.printFinished(false)
}

// WriteString is Write for strings.
func (sr *StreamRenderer) WriteString(s string) (int, error) {
	return sr.Write([]byte(s))
}

// Flush ends the stream: an open code block is closed and everything left
// is rendered.
func (sr *StreamRenderer) Flush() error {
	return sr.finish(chat.NewStreamEndEvent())
}

// Abort ends the stream after a source error, rendering what arrived.
func (sr *StreamRenderer) Abort(err error) error {
	return sr.finish(chat.NewStreamErrorEvent(err))
}

func (sr *StreamRenderer) finish(event chat.RenderEvent) error {
	if sr.closed || !sr.started {
		return nil
	}
	if sr.lineBuf.Len() > 0 {
		sr.handle(chat.NewStreamTextEvent(sr.lineBuf.String()))
		sr.lineBuf.Reset()
	}
	sr.handle(event)
	sr.started = false
	if sr.termCtrl != nil {
		return sr.repaint()
	}
	return sr.printFinished(true)
}

// Close flushes any remaining content. Later writes fail with ErrClosed.
func (sr *StreamRenderer) Close() error {
	if sr.closed {
		return nil
	}
	err := sr.Flush()
	sr.closed = true
	return err
}

// Resize lays the document out again at newWidth. In repaint mode the
// caller should clear the screen first; everything is written again.
func (sr *StreamRenderer) Resize(newWidth int) error {
	if newWidth <= 0 || newWidth == sr.termWidth {
		return nil
	}
	sr.termWidth = newWidth
	sr.handle(chat.NewResizeEvent(newWidth, sr.termHeight))
	if sr.termCtrl == nil {
		return nil
	}
	sr.termCtrl.width = newWidth
	sr.screen = nil
	return sr.repaint()
}

// Totals returns the accumulated reconcile statistics.
func (sr *StreamRenderer) Totals() chat.Totals {
	return sr.renderer.Totals()
}

// Widgets returns the live widgets in document order.
func (sr *StreamRenderer) Widgets() []*Widget {
	return sr.renderer.Widgets()
}

// Text returns the markdown received so far.
func (sr *StreamRenderer) Text() string {
	return sr.renderer.Text() + sr.lineBuf.String()
}

// Adapter returns the terminal adapter.
func (sr *StreamRenderer) Adapter() *Adapter {
	return sr.adapter
}

func (sr *StreamRenderer) start() {
	if sr.started {
		return
	}
	sr.started = true
	sr.printed = 0
	sr.screen = nil
	sr.handle(chat.NewStreamStartEvent())
}

func (sr *StreamRenderer) handle(event chat.RenderEvent) chat.Stats {
	before := sr.renderer.Document().Blocks()
	stats := sr.renderer.HandleEvent(event)
	if stats.Kept < sr.printed && sr.termCtrl == nil {
		// printed output cannot be taken back in flowing mode
		slog.Debug("streaming: printed block changed", "kept", stats.Kept, "printed", sr.printed)
	}
	if sr.onUpdate != nil && (stats.Created > 0 || stats.Destroyed > 0) {
		sr.onUpdate(Update{
			Stats:  stats,
			Before: before,
			After:  sr.renderer.Document().Blocks(),
		})
	}
	return stats
}

func (sr *StreamRenderer) lines() []string {
	var lines []string
	for _, w := range sr.renderer.Widgets() {
		lines = append(lines, w.Lines()...)
	}
	return lines
}

func (sr *StreamRenderer) repaint() error {
	screen, err := sr.termCtrl.Repaint(sr.screen, sr.lines())
	sr.screen = screen
	return err
}

// printFinished writes blocks not yet printed. The last block may still
// grow, so it waits for all.
func (sr *StreamRenderer) printFinished(all bool) error {
	widgets := sr.renderer.Widgets()
	end := len(widgets)
	if !all {
		end--
	}
	var sb strings.Builder
	for i := sr.printed; i < end; i++ {
		sb.WriteString(widgets[i].Rendered)
		sb.WriteByte('\n')
	}
	sr.printed = max(sr.printed, end)
	if sb.Len() == 0 {
		return nil
	}
	_, err := io.WriteString(sr.output, sb.String())
	return err
}
