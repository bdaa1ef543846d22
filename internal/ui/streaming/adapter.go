package streaming

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
	"github.com/muesli/termenv"

	"github.com/samsaffron/mdstream/internal/markdown"
	"github.com/samsaffron/mdstream/internal/markup"
	"github.com/samsaffron/mdstream/internal/render/chat"
	"github.com/samsaffron/mdstream/internal/ui"
)

// DefaultWidth is used when no terminal width is known.
const DefaultWidth = 80

const codeMargin = 2

// Widget is the terminal rendering of one block.
type Widget struct {
	Block    markdown.Block
	Markup   string
	Rendered string // no trailing newline
	Height   int    // lines, before terminal soft wrapping
}

// Lines returns the rendered output split into lines.
func (w *Widget) Lines() []string {
	return strings.Split(w.Rendered, "\n")
}

// Adapter renders blocks to styled terminal text. It implements
// chat.Adapter[*Widget] and chat.Resizer.
type Adapter struct {
	registry       *ui.Registry
	width          int
	highlightStyle string
	highlight      bool
	cache          *chat.BlockCache
	variant        string // cache key part for the options above

	live int
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithHighlightStyle selects the chroma style for code blocks.
func WithHighlightStyle(name string) AdapterOption {
	return func(a *Adapter) {
		a.highlightStyle = name
	}
}

// WithoutHighlight renders code blocks without syntax colours.
func WithoutHighlight() AdapterOption {
	return func(a *Adapter) {
		a.highlight = false
	}
}

// WithCache shares a rendered block cache between adapters. Adapters with
// different registries or highlight settings keep separate entries.
func WithCache(cache *chat.BlockCache) AdapterOption {
	return func(a *Adapter) {
		a.cache = cache
	}
}

// NewAdapter creates a terminal adapter drawing with registry at width.
// Highlighting is off when the registry renders without colour.
func NewAdapter(registry *ui.Registry, width int, opts ...AdapterOption) *Adapter {
	if width <= 0 {
		width = DefaultWidth
	}
	a := &Adapter{
		registry:  registry,
		width:     width,
		highlight: registry.Renderer().ColorProfile() != termenv.Ascii,
		cache:     chat.NewBlockCache(256),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.variant = fmt.Sprintf("%p/%s/%t", a.registry, a.highlightStyle, a.highlight)
	return a
}

// CreateWidget renders block. markup is the inline markup of the block, or
// empty for kinds rendered from raw content.
func (a *Adapter) CreateWidget(block markdown.Block, markup string) *Widget {
	a.live++
	key := chat.KeyFor(block, a.width)
	key.Variant = a.variant
	rb := a.cache.GetOrRender(key, block, func() *chat.RenderedBlock {
		rendered := a.RenderBlock(block, markup)
		return &chat.RenderedBlock{
			Rendered: rendered,
			Height:   strings.Count(rendered, "\n") + 1,
		}
	})
	return &Widget{
		Block:    block,
		Markup:   markup,
		Rendered: rb.Rendered,
		Height:   rb.Height,
	}
}

// DestroyWidget releases a widget. Terminal output is immutable once
// written, so the live writer repaints instead.
func (a *Adapter) DestroyWidget(*Widget) {
	a.live--
}

// SetWidth changes the layout width. Cached renderings for other widths
// stay valid and are kept.
func (a *Adapter) SetWidth(width int) {
	if width > 0 {
		a.width = width
	}
}

// Width returns the layout width.
func (a *Adapter) Width() int {
	return a.width
}

// Live returns the number of widgets created and not yet destroyed.
func (a *Adapter) Live() int {
	return a.live
}

// Cache returns the rendered block cache.
func (a *Adapter) Cache() *chat.BlockCache {
	return a.cache
}

// RenderBlock renders one block without caching.
func (a *Adapter) RenderBlock(block markdown.Block, mk string) string {
	switch block.Kind {
	case markdown.Header:
		return a.renderHeader(block, mk)
	case markdown.CodeBlock:
		return a.renderCode(block)
	case markdown.Table:
		return a.renderTable(block)
	case markdown.Blockquote:
		return a.renderBlockquote(block, mk)
	case markdown.HorizontalRule:
		return a.registry.Render(ui.StyleHR, strings.Repeat("─", a.width))
	case markdown.BulletItem:
		return a.renderListItem(block, mk, "• ")
	case markdown.NumberedItem:
		return a.renderListItem(block, mk, strconv.Itoa(block.Number)+". ")
	case markdown.EmptyLine:
		return ""
	default:
		return a.fill(a.inline(mk, a.registry.Lipgloss(ui.StyleDefault)), a.width)
	}
}

// inline renders flat markup runs on top of base.
func (a *Adapter) inline(mk string, base lipgloss.Style) string {
	var sb strings.Builder
	for _, run := range markup.ParseRuns(mk) {
		if run.Style == "" {
			sb.WriteString(base.Render(run.Text))
			continue
		}
		st := a.registry.Lipgloss(run.Style).Inherit(base)
		sb.WriteString(st.Render(run.Text))
		if run.Href != "" && run.Href != run.Text {
			sb.WriteString(a.registry.Lipgloss(ui.StyleCodeLang).Inherit(base).Render(" (" + run.Href + ")"))
		}
	}
	return sb.String()
}

// fill word wraps styled text, hard breaking words longer than width.
func (a *Adapter) fill(s string, width int) string {
	if width < 1 {
		return s
	}
	return wrap.String(wordwrap.String(s, width), width)
}

func (a *Adapter) renderHeader(block markdown.Block, mk string) string {
	name := ui.StyleH3
	switch block.Level {
	case 1:
		name = ui.StyleH1
	case 2:
		name = ui.StyleH2
	}
	base := a.registry.Lipgloss(name)
	prefix := strings.Repeat("#", max(block.Level, 1)) + " "
	text := base.Render(prefix) + a.inline(mk, base)
	return a.fill(text, a.width)
}

func (a *Adapter) renderBlockquote(block markdown.Block, mk string) string {
	level := max(block.Level, 1)
	bar := strings.Repeat(a.registry.Render(ui.StyleBlockquoteAccent, "│")+" ", level)
	body := a.fill(a.inline(mk, a.registry.Lipgloss(ui.StyleBlockquote)), a.width-2*level)
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = bar + line
	}
	return strings.Join(lines, "\n")
}

func (a *Adapter) renderListItem(block markdown.Block, mk, marker string) string {
	pad := strings.Repeat("  ", block.Level)
	markerWidth := runewidth.StringWidth(marker)
	body := a.fill(a.inline(mk, a.registry.Lipgloss(ui.StyleListItem)), a.width-len(pad)-markerWidth)
	lines := strings.Split(body, "\n")
	styledMarker := a.registry.Render(ui.StyleListItem, marker)
	hang := strings.Repeat(" ", markerWidth)
	for i, line := range lines {
		if i == 0 {
			lines[i] = pad + styledMarker + line
		} else {
			lines[i] = pad + hang + line
		}
	}
	return strings.Join(lines, "\n")
}

func (a *Adapter) renderCode(block markdown.Block) string {
	var lines []string
	if block.Language != "" {
		lines = append(lines, a.registry.Render(ui.StyleCodeLang, block.Language))
	}

	code := a.registry.Lipgloss(ui.StyleCodeBlock)
	var body []string
	if h := a.highlighter(block); h != nil {
		body = h.Highlight(block.Content)
	} else {
		for _, line := range strings.Split(block.Content, "\n") {
			body = append(body, code.Render(line))
		}
	}

	limit := a.width - codeMargin
	for _, line := range body {
		if limit > 0 && xansi.StringWidth(line) > limit {
			line = xansi.Truncate(line, limit, "…")
		}
		lines = append(lines, line)
	}
	return indent.String(strings.Join(lines, "\n"), codeMargin)
}

func (a *Adapter) highlighter(block markdown.Block) *ui.Highlighter {
	if !a.highlight {
		return nil
	}
	h := ui.NewHighlighter(block.Language, block.Content, a.highlightStyle)
	if bg, ok := ui.ParseHexColor(a.registry.Style(ui.StyleCodeBlock).Background); ok {
		h = h.WithBackground(bg)
	}
	return h
}

type tableCell struct {
	styled string
	width  int
}

func (a *Adapter) renderTable(block markdown.Block) string {
	cols := block.ColumnCount()
	if cols == 0 {
		return ""
	}

	header := a.registry.Lipgloss(ui.StyleTableHeader)
	body := a.registry.Lipgloss(ui.StyleDefault)
	widths := make([]int, cols)
	rows := make([][]tableCell, len(block.TableRows))
	for r, row := range block.TableRows {
		if r == block.TableSeparatorRow {
			continue
		}
		base := body
		if r < block.TableSeparatorRow {
			base = header
		}
		cells := make([]tableCell, cols)
		for c := range cols {
			if c >= len(row) {
				continue
			}
			// cells are shown as written, like code
			cells[c] = tableCell{
				styled: base.Render(row[c]),
				width:  runewidth.StringWidth(row[c]),
			}
			widths[c] = max(widths[c], cells[c].width)
		}
		rows[r] = cells
	}
	shrinkColumns(widths, a.width-(3*cols+1))

	border := func(s string) string { return a.registry.Render(ui.StyleTable, s) }
	rule := func(left, mid, right string) string {
		parts := make([]string, cols)
		for c, w := range widths {
			parts[c] = strings.Repeat("─", w+2)
		}
		return border(left + strings.Join(parts, mid) + right)
	}

	lines := []string{rule("┌", "┬", "┐")}
	for r, cells := range rows {
		if r == block.TableSeparatorRow {
			lines = append(lines, rule("├", "┼", "┤"))
			continue
		}
		var sb strings.Builder
		sb.WriteString(border("│"))
		for c, cell := range cells {
			text, w := cell.styled, cell.width
			if w > widths[c] {
				text = xansi.Truncate(text, widths[c], "…")
				w = xansi.StringWidth(text)
			}
			sb.WriteString(" " + text + strings.Repeat(" ", widths[c]-w) + " ")
			sb.WriteString(border("│"))
		}
		lines = append(lines, sb.String())
	}
	lines = append(lines, rule("└", "┴", "┘"))
	return strings.Join(lines, "\n")
}

// shrinkColumns narrows the widest columns until they fit avail. Columns
// never go below one cell.
func shrinkColumns(widths []int, avail int) {
	total := 0
	for _, w := range widths {
		total += w
	}
	for total > avail {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= 1 {
			return
		}
		widths[widest]--
		total--
	}
}
