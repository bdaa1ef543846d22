package chat

import (
	"log/slog"
	"slices"

	"github.com/samsaffron/mdstream/internal/markdown"
	"github.com/samsaffron/mdstream/internal/markup"
	"github.com/samsaffron/mdstream/internal/reconcile"
)

// Adapter creates and destroys the widgets that display blocks. W is the
// adapter's widget handle; the document stores handles but never looks
// inside them.
type Adapter[W any] interface {
	CreateWidget(block markdown.Block, markup string) W
	DestroyWidget(widget W)
}

// Stats describes what one Update did.
type Stats struct {
	Kept        int  `json:"kept" yaml:"kept"`
	Destroyed   int  `json:"destroyed" yaml:"destroyed"`
	Created     int  `json:"created" yaml:"created"`
	FullRebuild bool `json:"full_rebuild,omitempty" yaml:"full_rebuild,omitempty"`
}

// Document keeps a widget per block in sync with a growing markdown text.
// Each Update re-parses the whole text, keeps widgets for the unchanged
// leading blocks and replaces the rest.
//
// A Document is not safe for concurrent use.
type Document[W any] struct {
	adapter Adapter[W]
	blocks  []markdown.Block
	widgets []W
}

// NewDocument returns an empty document rendering through adapter.
func NewDocument[W any](adapter Adapter[W]) *Document[W] {
	return &Document[W]{adapter: adapter}
}

// MarkupFor returns the inline markup passed to CreateWidget. Code blocks,
// tables, rules and blank lines are rendered from the raw block and get none.
func MarkupFor(block markdown.Block) string {
	if !block.IsInline() {
		return ""
	}
	return markup.FormatInline(block.Content)
}

// Update parses text and applies the difference to the widgets.
func (d *Document[W]) Update(text string, streaming bool) Stats {
	current := markdown.Parse(text, streaming)
	plan := reconcile.ReconcileRendered(d.blocks, current, len(d.widgets))
	if plan.FullRebuild {
		slog.Warn("widgets out of sync with blocks, rebuilding",
			"blocks", len(d.blocks), "widgets", len(d.widgets))
	}
	return d.apply(plan, current)
}

// Rebuild destroys every widget and renders text from scratch. Hosts call
// it when widget output depends on something other than the blocks, such
// as the terminal width.
func (d *Document[W]) Rebuild(text string, streaming bool) Stats {
	current := markdown.Parse(text, streaming)
	return d.apply(reconcile.Plan{
		ToDestroy:   d.blocks,
		ToCreate:    current,
		FullRebuild: true,
	}, current)
}

// Restore replaces the document state with blocks and widgets rendered
// elsewhere. The lists are taken as given; if their lengths disagree the
// next Update rebuilds everything.
func (d *Document[W]) Restore(blocks []markdown.Block, widgets []W) {
	d.blocks = slices.Clone(blocks)
	d.widgets = slices.Clone(widgets)
}

// Reset destroys every widget and forgets the text.
func (d *Document[W]) Reset() {
	d.destroyFrom(0)
	d.blocks = nil
}

func (d *Document[W]) apply(plan reconcile.Plan, current []markdown.Block) Stats {
	stats := Stats{
		Kept:        plan.KeepCount,
		FullRebuild: plan.FullRebuild,
	}
	stats.Destroyed = len(d.widgets) - plan.KeepCount
	d.destroyFrom(plan.KeepCount)

	for _, block := range plan.ToCreate {
		d.widgets = append(d.widgets, d.adapter.CreateWidget(block, MarkupFor(block)))
	}
	stats.Created = len(plan.ToCreate)

	// Swap in the new parse only once the widgets match it.
	d.blocks = current
	slog.Debug("document updated",
		"kept", stats.Kept, "destroyed", stats.Destroyed, "created", stats.Created)
	return stats
}

// destroyFrom destroys widgets[from:] last to first, so adapters that paint
// sequentially always remove from the end.
func (d *Document[W]) destroyFrom(from int) {
	for i := len(d.widgets) - 1; i >= from; i-- {
		d.adapter.DestroyWidget(d.widgets[i])
	}
	clear(d.widgets[from:])
	d.widgets = d.widgets[:from]
}

// Blocks returns the blocks of the last update.
func (d *Document[W]) Blocks() []markdown.Block {
	return d.blocks
}

// Widgets returns the live widgets, one per block, in document order.
func (d *Document[W]) Widgets() []W {
	return d.widgets
}

// Len returns the number of live widgets.
func (d *Document[W]) Len() int {
	return len(d.widgets)
}
