package markup

import (
	"sort"
	"strings"
)

// node is either a text leaf (style == "") holding escaped markup text as
// pieces to be joined on output, or a styled span with children.
type node struct {
	text     []string
	style    string
	href     string
	children []*node
}

func (n *node) isText() bool { return n.style == "" }

// tag is one markup tag found in the escaped input.
type tag struct {
	end   int // offset just past '>'
	style string
	href  string
	close bool
	match int // offset of the matching close tag, or -1
}

// scanner tokenizes the escaped input once. Delimiter offsets are collected
// up front so each opener finds its closer with a binary search, keeping the
// whole conversion O(n log n) however many unmatched markers a block holds.
type scanner struct {
	s string

	tags    map[int]*tag
	escaped []bool // byte is a literal: inside a tag or after a backslash

	stars3      []int // "***"
	stars2      []int // "**"
	singleStars []int // lone '*' after non-space text, may close italic
	unders2     []int // "__"
	underClose  []int // lone '_' that may close italic
	codeEnd     map[int]int // opening backtick -> closing backtick
	brackets    []int // ']'
	parens      []int // ')'
}

func newScanner(s string) *scanner {
	sc := &scanner{
		s:       s,
		tags:    make(map[int]*tag),
		codeEnd: make(map[int]int),
		escaped: make([]bool, len(s)),
	}
	sc.scanTags()
	sc.scanDelimiters()
	return sc
}

// scanTags records every markup tag and pairs opens with closes on a stack.
// Unpaired tags stay literal.
func (sc *scanner) scanTags() {
	s := sc.s
	var stack []int
	for i := 0; i < len(s); i++ {
		if s[i] != '<' {
			continue
		}
		n := strings.IndexByte(s[i:], '>')
		if n < 0 {
			break
		}
		t := parseTag(s[i+1:i+n], i+n+1)
		if t == nil {
			continue
		}
		sc.tags[i] = t
		for j := i; j < t.end; j++ {
			sc.escaped[j] = true
		}
		if t.close {
			if len(stack) > 0 {
				open := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				sc.tags[open].match = i
			}
		} else {
			stack = append(stack, i)
		}
		i = t.end - 1
	}
}

func parseTag(body string, end int) *tag {
	switch body {
	case "/":
		return &tag{end: end, close: true, match: -1}
	case StyleBold, StyleItalic, StyleBoldItalic, StyleCode:
		return &tag{end: end, style: body, match: -1}
	}
	const prefix = `a id="` + StyleLink + `" href="`
	if strings.HasPrefix(body, prefix) && strings.HasSuffix(body, `"`) && len(body) > len(prefix) {
		return &tag{end: end, style: StyleLink, href: body[len(prefix) : len(body)-1], match: -1}
	}
	return nil
}

func isBackslashEscapable(c byte) bool {
	return strings.IndexByte("*_`[]()#\\", c) >= 0
}

func (sc *scanner) scanDelimiters() {
	s := sc.s
	at := func(p int) byte {
		if p < 0 || p >= len(s) {
			return 0
		}
		return s[p]
	}

	// Backslash escapes and code spans come first; nothing inside a code
	// span is a delimiter.
	var ticks []int
	for p := 0; p < len(s); p++ {
		if sc.escaped[p] {
			continue
		}
		switch s[p] {
		case '\\':
			if isBackslashEscapable(at(p + 1)) {
				sc.escaped[p+1] = true
				p++
			}
		case '`':
			ticks = append(ticks, p)
		}
	}
	sc.pairCodeSpans(ticks)

	for p := 0; p < len(s); p++ {
		if sc.escaped[p] {
			continue
		}
		switch s[p] {
		case '*':
			if at(p+1) == '*' && at(p+2) == '*' {
				sc.stars3 = append(sc.stars3, p)
			}
			if at(p+1) == '*' {
				sc.stars2 = append(sc.stars2, p)
			}
			if at(p-1) != '*' && at(p+1) != '*' && at(p-1) != ' ' {
				sc.singleStars = append(sc.singleStars, p)
			}
		case '_':
			if at(p+1) == '_' {
				sc.unders2 = append(sc.unders2, p)
			} else if at(p-1) != '_' && at(p-1) != ' ' && !isWordByte(at(p+1)) {
				sc.underClose = append(sc.underClose, p)
			}
		case ']':
			sc.brackets = append(sc.brackets, p)
		case ')':
			sc.parens = append(sc.parens, p)
		}
	}
}

// pairCodeSpans pairs backticks left to right and marks each span,
// backticks included, as literal. An empty pair stays literal and its
// second backtick may open the next span.
func (sc *scanner) pairCodeSpans(ticks []int) {
	for k := 0; k+1 < len(ticks); {
		open, closing := ticks[k], ticks[k+1]
		if closing == open+1 {
			k++
			continue
		}
		sc.codeEnd[open] = closing
		for j := open; j <= closing; j++ {
			sc.escaped[j] = true
		}
		k += 2
	}
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

// next returns the first offset in list that is >= from and < limit, or -1.
func next(list []int, from, limit int) int {
	i := sort.SearchInts(list, from)
	if i < len(list) && list[i] < limit {
		return list[i]
	}
	return -1
}

// parse builds the span forest for s[lo:hi].
func (sc *scanner) parse(lo, hi int) []*node {
	var out []*node
	textStart := lo
	flush := func(end int) {
		if end > textStart {
			out = appendText(out, sc.s[textStart:end])
		}
	}

	for i := lo; i < hi; {
		var (
			n    *node
			end  int
			ok   bool
			s    = sc.s
			char = s[i]
		)
		switch {
		case char == '\\' && i+1 < hi && sc.escaped[i+1] && isBackslashEscapable(s[i+1]):
			flush(i)
			out = appendText(out, s[i+1:i+2])
			i += 2
			textStart = i
			continue
		case char == '<':
			if t, found := sc.tags[i]; found {
				n, end, ok = sc.tagSpan(i, t, hi)
				if !ok {
					flush(i)
					out = appendText(out, tagLiteralEscaper.Replace(s[i:t.end]))
					i = t.end
					textStart = i
					continue
				}
			}
		case char == '`':
			n, end, ok = sc.codeSpan(i, hi)
		case sc.escaped[i]:
		case char == '*':
			n, end, ok = sc.starSpan(i, hi)
		case char == '_':
			n, end, ok = sc.underscoreSpan(i, hi)
		case char == '[':
			n, end, ok = sc.linkSpan(i, hi)
		}
		if ok {
			flush(i)
			out = append(out, n)
			i = end
			textStart = i
			continue
		}
		i++
	}
	flush(hi)
	return out
}

func appendText(out []*node, text string) []*node {
	if text == "" {
		return out
	}
	if len(out) > 0 && out[len(out)-1].isText() {
		last := out[len(out)-1]
		last.text = append(last.text, text)
		return out
	}
	return append(out, &node{text: []string{text}})
}

// tagSpan turns a paired markup tag into a span. Code tags keep their
// content literal, re-escaping any tags found inside.
func (sc *scanner) tagSpan(i int, t *tag, hi int) (*node, int, bool) {
	if t.close || t.match < 0 || t.match >= hi {
		return nil, 0, false
	}
	end := sc.tags[t.match].end
	n := &node{style: t.style, href: t.href}
	if t.style == StyleCode {
		n.children = appendText(nil, tagLiteralEscaper.Replace(sc.s[t.end:t.match]))
	} else {
		n.children = sc.parse(t.end, t.match)
	}
	return n, end, true
}

func (sc *scanner) codeSpan(i, hi int) (*node, int, bool) {
	j, found := sc.codeEnd[i]
	if !found || j >= hi {
		return nil, 0, false
	}
	n := &node{style: StyleCode}
	n.children = appendText(nil, tagLiteralEscaper.Replace(sc.s[i+1:j]))
	return n, j + 1, true
}

func (sc *scanner) starSpan(i, hi int) (*node, int, bool) {
	s := sc.s
	if i+2 < hi && s[i+1] == '*' && s[i+2] == '*' {
		if j := next(sc.stars3, i+4, hi-2); j >= 0 {
			return sc.span(StyleBoldItalic, i+3, j), j + 3, true
		}
	}
	if i+1 < hi && s[i+1] == '*' {
		if j := next(sc.stars2, i+3, hi-1); j >= 0 {
			return sc.span(StyleBold, i+2, j), j + 2, true
		}
		return nil, 0, false
	}
	if i > 0 && s[i-1] == '*' || i+1 >= hi || s[i+1] == ' ' {
		return nil, 0, false
	}
	if j := next(sc.singleStars, i+2, hi); j >= 0 {
		return sc.span(StyleItalic, i+1, j), j + 1, true
	}
	return nil, 0, false
}

// underscoreSpan handles __bold__ and _italic_. Underscores inside words
// (snake_case) never open emphasis.
func (sc *scanner) underscoreSpan(i, hi int) (*node, int, bool) {
	s := sc.s
	if i > 0 && isWordByte(s[i-1]) {
		return nil, 0, false
	}
	if i+1 < hi && s[i+1] == '_' {
		for from := i + 3; ; {
			j := next(sc.unders2, from, hi-1)
			if j < 0 {
				return nil, 0, false
			}
			if j+2 >= len(s) || !isWordByte(s[j+2]) {
				return sc.span(StyleBold, i+2, j), j + 2, true
			}
			from = j + 1
		}
	}
	if i+1 >= hi || s[i+1] == ' ' {
		return nil, 0, false
	}
	if j := next(sc.underClose, i+2, hi); j >= 0 {
		return sc.span(StyleItalic, i+1, j), j + 1, true
	}
	return nil, 0, false
}

// linkSpan handles [text](url). The url is taken verbatim up to the first
// ')'.
func (sc *scanner) linkSpan(i, hi int) (*node, int, bool) {
	s := sc.s
	k := next(sc.brackets, i+1, hi)
	if k <= i+1 || k+1 >= hi || s[k+1] != '(' {
		return nil, 0, false
	}
	p := next(sc.parens, k+2, hi)
	if p <= k+2 {
		return nil, 0, false
	}
	href := s[k+2 : p]
	if strings.ContainsAny(href, "<> ") {
		return nil, 0, false
	}
	n := sc.span(StyleLink, i+1, k)
	n.href = href
	return n, p + 1, true
}

func (sc *scanner) span(style string, lo, hi int) *node {
	return &node{style: style, children: sc.parse(lo, hi)}
}
