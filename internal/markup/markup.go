// Package markup converts the inline markdown of one block into flat styled
// markup for renderers that only support non-nested style runs.
//
// The markup vocabulary is small:
//
//	plain text               unstyled, XML-escaped
//	<bold>text</>            a run in the named registry style
//	<a id="link" href="u">   a hyperlink run, closed with </>
//
// Runs never nest. Nested emphasis in the source is resolved into sibling
// runs, so "**a *b* c**" becomes "<bold>a </><bolditalic>b</><bold> c</>".
package markup

// Style names emitted in markup tags. They are a subset of the style
// registry names; renderers map them to visual attributes.
const (
	StyleBold       = "bold"
	StyleItalic     = "italic"
	StyleBoldItalic = "bolditalic"
	StyleCode       = "code"
	StyleLink       = "link"
)

// CloseTag ends any run.
const CloseTag = "</>"

// FormatInline converts one block's raw text into flat markup. Steps run in
// a fixed order: XML escaping, recovery of escaped pseudo-tags from upstream
// generators, then code spans, emphasis and links, and finally flattening of
// nested spans.
//
// FormatInline is not idempotent. Its output is already escaped, so feeding
// it back in escapes the entities a second time ("&amp;" becomes
// "&amp;amp;"). Apply it exactly once to raw block content.
func FormatInline(text string) string {
	if text == "" {
		return ""
	}
	s := normalizeTags(escapeXML(text))
	tree := newScanner(s).parse(0, len(s))
	return renderRuns(flatten(tree, "", "", nil))
}
