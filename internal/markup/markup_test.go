package markup

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFormatInline(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "plain text", "plain text"},
		{"xml escaped", `a < b & c > "d"`, "a &lt; b &amp; c &gt; &quot;d&quot;"},
		{"bold", "**bold**", "<bold>bold</>"},
		{"italic star", "*it*", "<italic>it</>"},
		{"italic underscore", "_it_", "<italic>it</>"},
		{"bold underscore", "__b__", "<bold>b</>"},
		{"bold italic", "***x***", "<bolditalic>x</>"},
		{"italic inside bold", "**a *b* c**", "<bold>a </><bolditalic>b</><bold> c</>"},
		{"bold inside italic", "*a **b** c*", "<italic>a </><bolditalic>b</><italic> c</>"},
		{"code", "`code`", "<code>code</>"},
		{"markers inside code stay literal", "`**not bold**`", "<code>**not bold**</>"},
		{"angle brackets inside code", "`a <b> c`", "<code>a &lt;b&gt; c</>"},
		{"tags inside code re-escaped", "`<bold>x</bold>`", "<code>&lt;bold&gt;x&lt;/&gt;</>"},
		{"empty backticks", "``", "``"},
		{"link", "[docs](https://x.y/?a=1&b=2)", `<a id="link" href="https://x.y/?a=1&amp;b=2">docs</>`},
		{"code inside link", "[`fmt`](u)", `<a id="link" href="u">fmt</>`},
		{"link inside bold", "**[a](u)**", `<a id="link" href="u">a</>`},
		{"emphasis inside link text merges", "[**b** c](u)", `<a id="link" href="u">b c</>`},
		{"link with space is literal", "[a](b c)", "[a](b c)"},
		{"unclosed bold", "**open", "**open"},
		{"spaced stars", "2 * 3 * 4", "2 * 3 * 4"},
		{"snake case", "call some_func_name now", "call some_func_name now"},
		{"intraword underscore", "_a_b", "_a_b"},
		{"escaped stars", `\*not italic\*`, "*not italic*"},
		{"mixed", "Use `go test` and **read** the [docs](d).", `Use <code>go test</> and <bold>read</> the <a id="link" href="d">docs</>.`},
		{"code inside bold", "**a `**` b**", "<bold>a </><code>**</><bold> b</>"},
		{"star inside code is not a closer", "*a `b* c`", "*a <code>b* c</>"},
		{"code inside italic", "*see `a*b` here*", "<italic>see </><code>a*b</><italic> here</>"},
		{"underscore inside code", "_x `a_` y_", "<italic>x </><code>a_</><italic> y</>"},
		{"bracket inside code in link", "[a `]` b](u)", `<a id="link" href="u">a ] b</>`},
		{"empty backticks then code", "``x`", "`<code>x</>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatInline(tt.in); got != tt.want {
				t.Errorf("FormatInline(%q)\n got: %s\nwant: %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatInline_PseudoTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"style tag", "<bold>x</bold>", "<bold>x</>"},
		{"generic close", "<italic>x</>", "<italic>x</>"},
		{"double escaped", "&lt;italic&gt;y&lt;/italic&gt;", "<italic>y</>"},
		{"bare link id", `<a id="https://e.com">site</a>`, `<a id="link" href="https://e.com">site</>`},
		{"canonical link", `<a id="link" href="https://e.com">site</>`, `<a id="link" href="https://e.com">site</>`},
		{"double escaped link", "&lt;a id=&quot;u&quot;&gt;t&lt;/a&gt;", `<a id="link" href="u">t</>`},
		{"dangling open", "<bold>dangling", "&lt;bold&gt;dangling"},
		{"stray close", "a</>b", "a&lt;/&gt;b"},
		{"unknown tag", "<span>x</span>", "&lt;span&gt;x&lt;/span&gt;"},
		{"tag around emphasis", "<bold>a *b*</bold>", "<bold>a </><bolditalic>b</>"},
		{"tag crossing emphasis", "*a <bold>b* c</>", "<italic>a &lt;bold&gt;b</> c&lt;/&gt;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatInline(tt.in); got != tt.want {
				t.Errorf("FormatInline(%q)\n got: %s\nwant: %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatInline_NotIdempotent(t *testing.T) {
	once := FormatInline("a & b")
	if once != "a &amp; b" {
		t.Fatalf("first pass = %q", once)
	}
	twice := FormatInline(once)
	if twice != "a &amp;amp; b" {
		t.Errorf("second pass = %q, want entities escaped again", twice)
	}
}

// checkWellFormed verifies that runs never nest, every open tag is closed,
// and no raw markup characters leak outside tags.
func checkWellFormed(t *testing.T, in, out string) {
	t.Helper()
	open := false
	for i := 0; i < len(out); i++ {
		switch out[i] {
		case '<':
			n := strings.IndexByte(out[i:], '>')
			if n < 0 {
				t.Fatalf("FormatInline(%q) = %q: unterminated tag", in, out)
			}
			tg := parseTag(out[i+1:i+n], i+n+1)
			if tg == nil {
				t.Fatalf("FormatInline(%q) = %q: unknown tag %q", in, out, out[i:i+n+1])
			}
			if tg.close == !open {
				t.Fatalf("FormatInline(%q) = %q: misnested tag at %d", in, out, i)
			}
			open = !tg.close
			i += n
		case '>', '"':
			t.Fatalf("FormatInline(%q) = %q: raw %q outside tag", in, out, out[i])
		}
	}
	if open {
		t.Fatalf("FormatInline(%q) = %q: unclosed run", in, out)
	}
}

func TestFormatInline_AlwaysWellFormed(t *testing.T) {
	alphabet := []string{"*", "_", "`", "[", "]", "(", ")", "a", " ", "<", `\`}
	var gen func(prefix string, depth int)
	count := 0
	gen = func(prefix string, depth int) {
		checkWellFormed(t, prefix, FormatInline(prefix))
		count++
		if depth == 0 {
			return
		}
		for _, c := range alphabet {
			gen(prefix+c, depth-1)
		}
	}
	gen("", 4)
	if count == 0 {
		t.Fatal("no inputs generated")
	}

	extra := []string{
		"<bold>**x**</bold>",
		"<code>*x*</code> *y*",
		"***a** b*",
		"*<italic>x</italic>*",
		`<a id="u">[l](v)</a>`,
		"&lt;bold&gt;unclosed *x",
		"`<a id=\"u\">x</a>`",
	}
	for _, in := range extra {
		checkWellFormed(t, in, FormatInline(in))
	}
}

func TestFormatInline_PlainTextPreserved(t *testing.T) {
	for _, in := range []string{
		"nothing special here",
		"x < y && y > z",
		"some_snake_case and 2 * 3",
		`quotes "inside" text`,
	} {
		if got := PlainText(FormatInline(in)); got != in {
			t.Errorf("PlainText(FormatInline(%q)) = %q", in, got)
		}
	}
}

func TestFormatInline_LongUnmatched(t *testing.T) {
	in := strings.Repeat("*a _b [d (e ", 2000)
	out := FormatInline(in)
	checkWellFormed(t, "long input", out)
	if PlainText(out) != in {
		t.Error("unmatched markers were not kept literally")
	}
}

// TestFormatInline_MergingScalesLinearly guards against re-copying run text
// when many adjacent runs share a style.
func TestFormatInline_MergingScalesLinearly(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	inputs := map[string]string{
		"adjacent tags": "<bold>a</bold>",
		"escapes":       `\*`,
	}
	for name, unit := range inputs {
		t.Run(name, func(t *testing.T) {
			best := func(n int) time.Duration {
				in := strings.Repeat(unit, n)
				fastest := time.Duration(1<<63 - 1)
				for range 3 {
					start := time.Now()
					FormatInline(in)
					fastest = min(fastest, time.Since(start))
				}
				return fastest
			}
			small, large := best(10000), best(40000)
			// linear growth is 4x; quadratic would be 16x
			if small > 0 && large > small*10 {
				t.Errorf("4x input took %v vs %v (%.1fx)", large, small, float64(large)/float64(small))
			}
		})
	}
	if got := FormatInline(strings.Repeat("<bold>a</bold>", 3)); got != "<bold>aaa</>" {
		t.Errorf("adjacent runs not merged: %q", got)
	}
	if got := FormatInline(`\*\*`); got != "**" {
		t.Errorf("escapes = %q", got)
	}
}

func TestParseRuns(t *testing.T) {
	in := `a <bold>b</> <a id="link" href="u?x=1&amp;y">c</> &lt;d&gt;`
	want := []Run{
		{Text: "a "},
		{Style: StyleBold, Text: "b"},
		{Text: " "},
		{Style: StyleLink, Href: "u?x=1&y", Text: "c"},
		{Text: " <d>"},
	}
	if diff := cmp.Diff(want, ParseRuns(in)); diff != "" {
		t.Errorf("ParseRuns mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRuns_RoundTripsFormatInline(t *testing.T) {
	got := ParseRuns(FormatInline("**a *b* c**"))
	want := []Run{
		{Style: StyleBold, Text: "a "},
		{Style: StyleBoldItalic, Text: "b"},
		{Style: StyleBold, Text: " c"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
}
