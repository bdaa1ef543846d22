package streaming

import (
	"github.com/samsaffron/mdstream/internal/markdown"
	"github.com/samsaffron/mdstream/internal/render/chat"
)

// StreamRendererOption configures a StreamRenderer.
type StreamRendererOption func(*StreamRenderer)

// WithPartialRendering repaints the tail of the output as blocks change.
// It needs a terminal width (WithTerminalWidth); without one the renderer
// stays in flowing mode and only prints finished blocks.
func WithPartialRendering() StreamRendererOption {
	return func(sr *StreamRenderer) {
		sr.partialEnabled = true
	}
}

// WithTerminalWidth sets the layout width and the width used to count
// wrapped rows when repainting.
func WithTerminalWidth(width int) StreamRendererOption {
	return func(sr *StreamRenderer) {
		sr.termWidth = width
	}
}

// WithTerminalHeight limits repaints to rows still on screen.
func WithTerminalHeight(height int) StreamRendererOption {
	return func(sr *StreamRenderer) {
		sr.termHeight = height
	}
}

// WithHoldUnstable holds back a trailing line with unbalanced inline
// markers until it settles.
func WithHoldUnstable() StreamRendererOption {
	return func(sr *StreamRenderer) {
		sr.rendererOpts = append(sr.rendererOpts, chat.WithHoldUnstable())
	}
}

// WithAdapterOptions passes options to the terminal adapter.
func WithAdapterOptions(opts ...AdapterOption) StreamRendererOption {
	return func(sr *StreamRenderer) {
		sr.adapterOpts = append(sr.adapterOpts, opts...)
	}
}

// Update describes one reconcile pass of the live document.
type Update struct {
	Stats  chat.Stats
	Before []markdown.Block
	After  []markdown.Block
}

// WithUpdateHook calls fn after every update that touched the document.
func WithUpdateHook(fn func(Update)) StreamRendererOption {
	return func(sr *StreamRenderer) {
		sr.onUpdate = fn
	}
}
