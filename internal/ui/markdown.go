package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
)

// GlamourRenderer renders whole documents with glamour, styled from a
// registry. It is the reference output the block adapter is compared with.
type GlamourRenderer struct {
	registry *Registry

	// width-keyed; creating a glamour renderer is expensive
	cache sync.Map // map[int]*glamour.TermRenderer
}

// NewGlamourRenderer creates a reference renderer for registry.
func NewGlamourRenderer(registry *Registry) *GlamourRenderer {
	return &GlamourRenderer{registry: registry}
}

func (g *GlamourRenderer) renderer(width int) (*glamour.TermRenderer, error) {
	if cached, ok := g.cache.Load(width); ok {
		return cached.(*glamour.TermRenderer), nil
	}

	style := GlamourStyle(g.registry)
	margin := uint(0)
	style.Document.Margin = &margin
	style.Document.BlockPrefix = ""
	style.Document.BlockSuffix = ""
	style.CodeBlock.Margin = &margin

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	// race-safe: if another goroutine stored first, ours is discarded
	actual, _ := g.cache.LoadOrStore(width, renderer)
	return actual.(*glamour.TermRenderer), nil
}

// Render renders markdown content, returning the content unchanged when
// glamour fails.
func (g *GlamourRenderer) Render(content string, width int) string {
	if content == "" {
		return ""
	}
	rendered, err := g.RenderWithError(content, width)
	if err != nil {
		return content
	}
	return rendered
}

// RenderWithError renders markdown content and returns any errors.
func (g *GlamourRenderer) RenderWithError(content string, width int) (string, error) {
	renderer, err := g.renderer(width)
	if err != nil {
		return "", err
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(rendered), nil
}

// GlamourStyle converts registry entries to a glamour style config.
func GlamourStyle(r *Registry) ansi.StyleConfig {
	prim := func(name string) ansi.StylePrimitive {
		s := r.Style(name)
		p := ansi.StylePrimitive{}
		if s.Foreground != "" {
			p.Color = stringPtr(s.Foreground)
		}
		if s.Background != "" {
			p.BackgroundColor = stringPtr(s.Background)
		}
		if s.Bold {
			p.Bold = boolPtr(true)
		}
		if s.Italic {
			p.Italic = boolPtr(true)
		}
		if s.Underline {
			p.Underline = boolPtr(true)
		}
		return p
	}
	heading := func(name, prefix string) ansi.StyleBlock {
		p := prim(name)
		p.Prefix = prefix
		return ansi.StyleBlock{StylePrimitive: p}
	}

	doc := prim(StyleDefault)
	doc.BlockPrefix = "\n"
	doc.BlockSuffix = "\n"

	hr := prim(StyleHR)
	hr.Format = "\n--------\n"

	item := prim(StyleListItem)
	item.BlockPrefix = "• "

	enum := prim(StyleListItem)
	enum.BlockPrefix = ". "

	codeBlock := prim(StyleCodeBlock)
	muted := r.Style(StyleCodeLang).Foreground
	keyword := r.Style(StyleBold).Foreground
	str := r.Style(StyleItalic).Foreground
	accent := r.Style(StyleLink).Foreground

	colored := func(c string) ansi.StylePrimitive {
		if c == "" {
			return ansi.StylePrimitive{}
		}
		return ansi.StylePrimitive{Color: stringPtr(c)}
	}

	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: doc,
			Margin:         uintPtr(2),
		},
		BlockQuote: ansi.StyleBlock{
			StylePrimitive: prim(StyleBlockquote),
			Indent:         uintPtr(2),
		},
		List: ansi.StyleList{
			LevelIndent: 2,
			StyleBlock:  ansi.StyleBlock{StylePrimitive: prim(StyleListItem)},
		},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{BlockPrefix: "\n"},
		},
		H1: heading(StyleH1, "# "),
		H2: heading(StyleH2, "## "),
		H3: heading(StyleH3, "### "),
		H4: heading(StyleH3, "#### "),
		H5: heading(StyleH3, "##### "),
		H6: heading(StyleH3, "###### "),
		Strikethrough: ansi.StylePrimitive{
			CrossedOut: boolPtr(true),
		},
		Emph:           prim(StyleItalic),
		Strong:         prim(StyleBold),
		HorizontalRule: hr,
		Item:           item,
		Enumeration:    enum,
		Task: ansi.StyleTask{
			Ticked:   "[✓] ",
			Unticked: "[ ] ",
		},
		Link:     prim(StyleLink),
		LinkText: prim(StyleLink),
		Code:     ansi.StyleBlock{StylePrimitive: prim(StyleCode)},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: codeBlock,
				Margin:         uintPtr(2),
			},
			Chroma: &ansi.Chroma{
				Text:             colored(r.Style(StyleCodeBlock).Foreground),
				Comment:          colored(muted),
				CommentPreproc:   colored(muted),
				Keyword:          colored(keyword),
				KeywordReserved:  colored(keyword),
				KeywordNamespace: colored(keyword),
				KeywordType:      colored(accent),
				NameBuiltin:      colored(accent),
				NameTag:          colored(keyword),
				NameConstant:     colored(accent),
				LiteralNumber:    colored(accent),
				LiteralString:    colored(str),
				GenericDeleted:   colored(muted),
			},
		},
		Table: ansi.StyleTable{
			StyleBlock: ansi.StyleBlock{StylePrimitive: prim(StyleTable)},
		},
	}
}

func boolPtr(b bool) *bool       { return &b }
func stringPtr(s string) *string { return &s }
func uintPtr(u uint) *uint       { return &u }
