package markup

import (
	"regexp"
	"strings"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

var xmlUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&amp;", "&",
)

// tagLiteralEscaper re-escapes tag text that ends up as literal content. Only
// tags carry raw '<', '>' and '"' once escapeXML has run; '&' inside an href
// is already escaped.
var tagLiteralEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// Pseudo-tags arrive either singly escaped ("&lt;bold&gt;" after escapeXML
// turned "<bold>" into it) or doubly escaped (the generator itself emitted
// "&lt;bold&gt;"). Both forms are recovered.
const (
	escLT   = `&(?:amp;)?lt;`
	escGT   = `&(?:amp;)?gt;`
	escQuot = `&(?:amp;)?quot;`
	// Attribute values: anything up to the closing quote entity. Ampersands
	// only appear as entities at this point.
	escValue = `((?:[^&]|&amp;(?:amp;)?)*?)`
)

var (
	styleTagRe = regexp.MustCompile(escLT + `(/?)(bold|italic|bolditalic|code)` + escGT)
	closeTagRe = regexp.MustCompile(escLT + `/a?` + escGT)
	linkTagRe  = regexp.MustCompile(escLT + `a id=` + escQuot + escValue + escQuot +
		`(?: href=` + escQuot + escValue + escQuot + `)?` + escGT)
)

// normalizeTags turns escaped pseudo-tags back into markup. Every closing
// form becomes the generic </>, and a hyperlink that only names its target
// in id is rewritten to the canonical <a id="link" href="...">.
func normalizeTags(s string) string {
	if !strings.Contains(s, "lt;") {
		return s
	}
	s = styleTagRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := styleTagRe.FindStringSubmatch(m)
		if sub[1] == "/" {
			return CloseTag
		}
		return "<" + sub[2] + ">"
	})
	s = closeTagRe.ReplaceAllLiteralString(s, CloseTag)
	s = linkTagRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := linkTagRe.FindStringSubmatch(m)
		href := sub[2]
		if href == "" {
			href = sub[1]
		}
		return linkOpenTag(strings.ReplaceAll(href, "&amp;amp;", "&amp;"))
	})
	return s
}

// linkOpenTag builds the canonical hyperlink tag. href must already be
// escaped.
func linkOpenTag(href string) string {
	return `<a id="` + StyleLink + `" href="` + href + `">`
}
