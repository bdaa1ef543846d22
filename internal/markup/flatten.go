package markup

import "strings"

// run is a flat styled run whose text is still escaped markup, kept as
// pieces so merging neighbours stays linear.
type run struct {
	style string
	href  string
	text  []string
}

// flatten walks the span forest and emits non-nested runs, merging
// neighbours that end up with the same style.
func flatten(nodes []*node, style, href string, out []run) []run {
	for _, n := range nodes {
		if n.isText() {
			out = appendRun(out, run{style: style, href: href, text: append([]string(nil), n.text...)})
			continue
		}
		s, h := combine(style, href, n.style, n.href)
		out = flatten(n.children, s, h, out)
	}
	return out
}

func appendRun(out []run, r run) []run {
	if len(r.text) == 0 {
		return out
	}
	if len(out) > 0 {
		last := &out[len(out)-1]
		if last.style == r.style && last.href == r.href {
			last.text = append(last.text, r.text...)
			return out
		}
	}
	return append(out, r)
}

// combine resolves a span nested inside another into a single style.
// Links win so the run stays clickable, code beats emphasis, and bold and
// italic in any nesting order add up to bolditalic.
func combine(outer, outerHref, inner, innerHref string) (string, string) {
	switch {
	case outer == "":
		return inner, innerHref
	case inner == StyleLink:
		return StyleLink, innerHref
	case outer == StyleLink:
		return StyleLink, outerHref
	case outer == StyleCode || inner == StyleCode:
		return StyleCode, ""
	}
	bold := hasBold(outer) || hasBold(inner)
	italic := hasItalic(outer) || hasItalic(inner)
	switch {
	case bold && italic:
		return StyleBoldItalic, ""
	case bold:
		return StyleBold, ""
	default:
		return StyleItalic, ""
	}
}

func hasBold(style string) bool   { return style == StyleBold || style == StyleBoldItalic }
func hasItalic(style string) bool { return style == StyleItalic || style == StyleBoldItalic }

func renderRuns(runs []run) string {
	var sb strings.Builder
	for _, r := range runs {
		switch r.style {
		case "":
			writePieces(&sb, r.text)
		case StyleLink:
			sb.WriteString(linkOpenTag(r.href))
			writePieces(&sb, r.text)
			sb.WriteString(CloseTag)
		default:
			sb.WriteString("<" + r.style + ">")
			writePieces(&sb, r.text)
			sb.WriteString(CloseTag)
		}
	}
	return sb.String()
}

func writePieces(sb *strings.Builder, pieces []string) {
	for _, p := range pieces {
		sb.WriteString(p)
	}
}
