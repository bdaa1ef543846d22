package markup

import "strings"

// Run is one decoded styled run of flat markup. Style is empty for plain
// text and Href is only set for links.
type Run struct {
	Style string `json:"style,omitempty" yaml:"style,omitempty"`
	Href  string `json:"href,omitempty" yaml:"href,omitempty"`
	Text  string `json:"text" yaml:"text"`
}

// ParseRuns splits flat markup back into runs with entities decoded.
// Unknown or stray tags are kept as text.
func ParseRuns(markup string) []Run {
	var (
		runs []Run
		cur  Run
		text strings.Builder
	)
	emit := func() {
		if text.Len() > 0 {
			cur.Text = xmlUnescaper.Replace(text.String())
			runs = append(runs, cur)
			text.Reset()
		}
	}
	for i := 0; i < len(markup); {
		if markup[i] != '<' {
			j := strings.IndexByte(markup[i:], '<')
			if j < 0 {
				j = len(markup) - i
			}
			text.WriteString(markup[i : i+j])
			i += j
			continue
		}
		n := strings.IndexByte(markup[i:], '>')
		if n < 0 {
			text.WriteString(markup[i:])
			break
		}
		t := parseTag(markup[i+1:i+n], i+n+1)
		if t == nil {
			text.WriteString(markup[i : i+n+1])
			i += n + 1
			continue
		}
		emit()
		if t.close {
			cur = Run{}
		} else {
			cur = Run{Style: t.style, Href: xmlUnescaper.Replace(t.href)}
		}
		i = t.end
	}
	emit()
	return runs
}

// PlainText strips all tags from markup and decodes entities.
func PlainText(markup string) string {
	var sb strings.Builder
	for _, r := range ParseRuns(markup) {
		sb.WriteString(r.Text)
	}
	return sb.String()
}
