package ui

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// Style names shared by the markup tags and the renderers.
const (
	StyleDefault          = "default"
	StyleBold             = "bold"
	StyleItalic           = "italic"
	StyleBoldItalic       = "bolditalic"
	StyleCode             = "code"
	StyleCodeBlock        = "codeblock"
	StyleH1               = "h1"
	StyleH2               = "h2"
	StyleH3               = "h3"
	StyleListItem         = "listitem"
	StyleLink             = "link"
	StyleBlockquote       = "blockquote"
	StyleBlockquoteAccent = "blockquoteaccent"
	StyleHR               = "hr"
	StyleTableHeader      = "tableheader"
	StyleTable            = "table"
	StyleCodeLang         = "codelang"
)

// StyleNames lists every registry entry in display order.
var StyleNames = []string{
	StyleDefault, StyleBold, StyleItalic, StyleBoldItalic, StyleCode,
	StyleCodeBlock, StyleH1, StyleH2, StyleH3, StyleListItem, StyleLink,
	StyleBlockquote, StyleBlockquoteAccent, StyleHR, StyleTableHeader,
	StyleTable, StyleCodeLang,
}

// Style is the visual record behind one style name. Size is relative to
// body text; terminals cannot scale fonts, so the terminal adapter turns
// sizes above 1 into heading decorations instead.
type Style struct {
	Bold       bool    `yaml:"bold,omitempty"`
	Italic     bool    `yaml:"italic,omitempty"`
	Underline  bool    `yaml:"underline,omitempty"`
	Size       float64 `yaml:"size,omitempty"`
	Foreground string  `yaml:"fg,omitempty"`
	Background string  `yaml:"bg,omitempty"`
}

// StyleOverride changes selected fields of a registry entry. Nil fields
// keep the preset value.
type StyleOverride struct {
	Bold       *bool
	Italic     *bool
	Underline  *bool
	Size       *float64
	Foreground *string
	Background *string
}

func (o StyleOverride) apply(s Style) Style {
	if o.Bold != nil {
		s.Bold = *o.Bold
	}
	if o.Italic != nil {
		s.Italic = *o.Italic
	}
	if o.Underline != nil {
		s.Underline = *o.Underline
	}
	if o.Size != nil {
		s.Size = *o.Size
	}
	if o.Foreground != nil {
		s.Foreground = *o.Foreground
	}
	if o.Background != nil {
		s.Background = *o.Background
	}
	return s
}

// Registry maps style names to visual attributes. It is built once from a
// theme and handed to renderers; nothing reads it through globals.
type Registry struct {
	styles   map[string]Style
	renderer *lipgloss.Renderer
}

// NewRegistry derives the 17 named styles from theme.
func NewRegistry(theme *Theme) *Registry {
	fg := func(c lipgloss.Color) string { return string(c) }
	styles := map[string]Style{
		StyleDefault:          {Foreground: fg(theme.Text), Size: 1},
		StyleBold:             {Bold: true, Foreground: fg(theme.Primary), Size: 1},
		StyleItalic:           {Italic: true, Foreground: fg(theme.Warning), Size: 1},
		StyleBoldItalic:       {Bold: true, Italic: true, Foreground: fg(theme.Primary), Size: 1},
		StyleCode:             {Foreground: fg(theme.Primary), Background: fg(theme.CodeBg), Size: 1},
		StyleCodeBlock:        {Foreground: fg(theme.Text), Background: fg(theme.CodeBg), Size: 1},
		StyleH1:               {Bold: true, Underline: true, Foreground: fg(theme.Secondary), Size: 1.6},
		StyleH2:               {Bold: true, Foreground: fg(theme.Secondary), Size: 1.3},
		StyleH3:               {Bold: true, Foreground: fg(theme.Secondary), Size: 1.1},
		StyleListItem:         {Foreground: fg(theme.Text), Size: 1},
		StyleLink:             {Underline: true, Foreground: fg(theme.Secondary), Size: 1},
		StyleBlockquote:       {Italic: true, Foreground: fg(theme.Warning), Size: 1},
		StyleBlockquoteAccent: {Foreground: fg(theme.Border), Size: 1},
		StyleHR:               {Foreground: fg(theme.Muted), Size: 1},
		StyleTableHeader:      {Bold: true, Foreground: fg(theme.Text), Size: 1},
		StyleTable:            {Foreground: fg(theme.Border), Size: 1},
		StyleCodeLang:         {Italic: true, Foreground: fg(theme.Muted), Size: 0.9},
	}
	return &Registry{
		styles:   styles,
		renderer: lipgloss.DefaultRenderer(),
	}
}

// WithRenderer returns a copy of the registry producing lipgloss styles for
// renderer r, which fixes the colour profile.
func (r *Registry) WithRenderer(lr *lipgloss.Renderer) *Registry {
	return &Registry{styles: maps.Clone(r.styles), renderer: lr}
}

// Renderer returns the lipgloss renderer the registry styles for.
func (r *Registry) Renderer() *lipgloss.Renderer {
	return r.renderer
}

// Style returns the record for name, falling back to the default style for
// names the registry does not know.
func (r *Registry) Style(name string) Style {
	if s, ok := r.styles[name]; ok {
		return s
	}
	return r.styles[StyleDefault]
}

// Set replaces one entry.
func (r *Registry) Set(name string, s Style) error {
	if _, ok := r.styles[name]; !ok {
		return unknownStyleError(name)
	}
	r.styles[name] = s
	return nil
}

// Apply merges overrides into the registry. Every unknown name is
// reported; known names are applied regardless.
func (r *Registry) Apply(overrides map[string]StyleOverride) error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(overrides)) {
		current, ok := r.styles[name]
		if !ok {
			errs = append(errs, unknownStyleError(name))
			continue
		}
		r.styles[name] = overrides[name].apply(current)
	}
	return errors.Join(errs...)
}

// All returns a copy of every entry, keyed by name.
func (r *Registry) All() map[string]Style {
	return maps.Clone(r.styles)
}

// Lipgloss converts the named style to a lipgloss style.
func (r *Registry) Lipgloss(name string) lipgloss.Style {
	s := r.Style(name)
	st := r.renderer.NewStyle().
		Bold(s.Bold).
		Italic(s.Italic).
		Underline(s.Underline)
	if s.Foreground != "" {
		st = st.Foreground(lipgloss.Color(s.Foreground))
	}
	if s.Background != "" {
		st = st.Background(lipgloss.Color(s.Background))
	}
	return st
}

// Render applies the named style to text.
func (r *Registry) Render(name, text string) string {
	return r.Lipgloss(name).Render(text)
}

func unknownStyleError(name string) error {
	return fmt.Errorf("unknown style %q%s", name, didYouMean(name, StyleNames))
}

// Suggest returns the closest known name to an unknown one, or "".
func Suggest(name string, candidates []string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	if matches := fuzzy.Find(name, candidates); len(matches) > 0 {
		return matches[0].Str
	}
	// Typos that are not subsequences: fall back to shared prefixes.
	for n := len(name) - 1; n >= 2; n-- {
		for _, c := range candidates {
			if strings.HasPrefix(c, name[:n]) {
				return c
			}
		}
	}
	return ""
}

func didYouMean(name string, candidates []string) string {
	if s := Suggest(name, candidates); s != "" {
		return fmt.Sprintf(" (did you mean %q?)", s)
	}
	return ""
}
