package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	xansi "github.com/charmbracelet/x/ansi"
)

// DefaultHighlightStyle is the chroma style used when the config names none.
// Monokai has good contrast on dark backgrounds.
const DefaultHighlightStyle = "monokai"

// Highlighter colours code block lines for one language.
type Highlighter struct {
	lexer chroma.Lexer
	style *chroma.Style
	bg    *[3]int
}

// NewHighlighter creates a highlighter for a fence language tag. An empty
// tag falls back to content analysis of sample. Returns nil if the
// language is not recognized.
func NewHighlighter(lang, sample, styleName string) *Highlighter {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	} else if sample != "" {
		lexer = lexers.Analyse(sample)
	}
	if lexer == nil {
		return nil
	}
	lexer = chroma.Coalesce(lexer)

	if styleName == "" {
		styleName = DefaultHighlightStyle
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	return &Highlighter{
		lexer: lexer,
		style: style,
	}
}

// WithBackground makes every token carry bg as a true colour background.
func (h *Highlighter) WithBackground(bg [3]int) *Highlighter {
	if h == nil {
		return nil
	}
	cp := *h
	cp.bg = &bg
	return &cp
}

// Highlight colours each line of code independently, so the result can be
// wrapped or clipped per line. Lexing failures return the lines unchanged.
func (h *Highlighter) Highlight(code string) []string {
	lines := strings.Split(code, "\n")
	if h == nil {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = h.HighlightLine(line)
	}
	return out
}

// HighlightLine applies syntax highlighting to a single line.
func (h *Highlighter) HighlightLine(line string) string {
	if h == nil || line == "" {
		return line
	}

	iterator, err := h.lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	var buf strings.Builder
	formatter := &lineFormatter{style: h.style, bg: h.bg}
	if err := formatter.Format(&buf, iterator); err != nil {
		return line
	}
	return buf.String()
}

// lineFormatter is a chroma formatter that writes true colour SGR codes,
// with an optional fixed background.
type lineFormatter struct {
	style *chroma.Style
	bg    *[3]int
}

func (f *lineFormatter) Format(w io.Writer, iterator chroma.Iterator) error {
	for token := iterator(); token != chroma.EOF; token = iterator() {
		// lexers may produce trailing newline tokens
		value := strings.TrimRight(token.Value, "\n")
		if value == "" {
			continue
		}

		entry := f.style.Get(token.Type)

		var codes []string
		if f.bg != nil {
			codes = append(codes, fmt.Sprintf("48;2;%d;%d;%d", f.bg[0], f.bg[1], f.bg[2]))
		}
		if entry.Colour.IsSet() {
			codes = append(codes, fmt.Sprintf("38;2;%d;%d;%d", entry.Colour.Red(), entry.Colour.Green(), entry.Colour.Blue()))
		}
		if entry.Bold == chroma.Yes {
			codes = append(codes, "1")
		}
		if entry.Italic == chroma.Yes {
			codes = append(codes, "3")
		}
		if entry.Underline == chroma.Yes {
			codes = append(codes, "4")
		}

		if len(codes) > 0 {
			fmt.Fprintf(w, "\x1b[%sm%s\x1b[0m", strings.Join(codes, ";"), value)
		} else {
			fmt.Fprint(w, value)
		}
	}
	return nil
}

// ParseHexColor converts "#rrggbb" to RGB. ok is false for anything else,
// including ANSI palette indexes.
func ParseHexColor(s string) (rgb [3]int, ok bool) {
	if len(s) != 7 || s[0] != '#' {
		return rgb, false
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &rgb[0], &rgb[1], &rgb[2]); err != nil {
		return rgb, false
	}
	return rgb, true
}

// StripANSI removes all ANSI escape codes from a string
func StripANSI(s string) string {
	return xansi.Strip(s)
}

// ANSILen returns the display width of a string, ignoring ANSI codes
func ANSILen(s string) int {
	return xansi.StringWidth(s)
}
