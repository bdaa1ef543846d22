package markdown

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Block
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "horizontal rule beats bullet",
			input: "---",
			want:  []Block{{Kind: HorizontalRule}},
		},
		{
			name:  "spaced rule",
			input: "* * *",
			want:  []Block{{Kind: HorizontalRule}},
		},
		{
			name:  "underscore rule",
			input: "___",
			want:  []Block{{Kind: HorizontalRule}},
		},
		{
			name:  "headers fold past level three",
			input: "# One\n## Two\n### Three\n#### Four\n###### Six",
			want: []Block{
				{Kind: Header, Level: 1, Content: "One"},
				{Kind: Header, Level: 2, Content: "Two"},
				{Kind: Header, Level: 3, Content: "Three"},
				{Kind: Header, Level: 3, Content: "Four"},
				{Kind: Header, Level: 3, Content: "Six"},
			},
		},
		{
			name:  "hashtag and seven hashes are paragraphs",
			input: "#hashtag\n####### seven",
			want: []Block{
				{Kind: Paragraph, Content: "#hashtag"},
				{Kind: Paragraph, Content: "####### seven"},
			},
		},
		{
			name:  "closing hash sequence stripped",
			input: "## Title ##",
			want:  []Block{{Kind: Header, Level: 2, Content: "Title"}},
		},
		{
			name:  "blockquote levels",
			input: "> one\n>> two\n> > also two\n>",
			want: []Block{
				{Kind: Blockquote, Level: 1, Content: "one"},
				{Kind: Blockquote, Level: 2, Content: "two"},
				{Kind: Blockquote, Level: 2, Content: "also two"},
				{Kind: Blockquote, Level: 1, Content: ""},
			},
		},
		{
			name:  "bullets and nesting",
			input: "- first\n* second\n  - nested\n\t- tabbed",
			want: []Block{
				{Kind: BulletItem, Content: "first"},
				{Kind: BulletItem, Content: "second"},
				{Kind: BulletItem, Level: 1, Content: "nested"},
				{Kind: BulletItem, Level: 1, Content: "tabbed"},
			},
		},
		{
			name:  "numbered items keep literal numbers",
			input: "1. one\n7.   seven\n10. ten",
			want: []Block{
				{Kind: NumberedItem, Number: 1, Content: "one"},
				{Kind: NumberedItem, Number: 7, Content: "seven"},
				{Kind: NumberedItem, Number: 10, Content: "ten"},
			},
		},
		{
			name:  "number without space is a paragraph",
			input: "3.14 is pi",
			want:  []Block{{Kind: Paragraph, Content: "3.14 is pi"}},
		},
		{
			name:  "emphasis line is not a bullet",
			input: "*emphasis* here",
			want:  []Block{{Kind: Paragraph, Content: "*emphasis* here"}},
		},
		{
			name:  "blank lines become empty line blocks",
			input: "a\n\n  \nb\n",
			want: []Block{
				{Kind: Paragraph, Content: "a"},
				{Kind: EmptyLine},
				{Kind: EmptyLine},
				{Kind: Paragraph, Content: "b"},
			},
		},
		{
			name:  "paragraph keeps line verbatim",
			input: "  indented text  ",
			want:  []Block{{Kind: Paragraph, Content: "  indented text  "}},
		},
		{
			name:  "crlf line endings",
			input: "# Title\r\nbody\r\n",
			want: []Block{
				{Kind: Header, Level: 1, Content: "Title"},
				{Kind: Paragraph, Content: "body"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input, false)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParse_CodeBlocks(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		streaming bool
		want      []Block
	}{
		{
			name:  "closed fence",
			input: "```go\nfunc main() {}\n```\nafter",
			want: []Block{
				{Kind: CodeBlock, Language: "go", Content: "func main() {}"},
				{Kind: Paragraph, Content: "after"},
			},
		},
		{
			name:      "streaming open fence",
			input:     "```py\ndef f():\n",
			streaming: true,
			want:      []Block{{Kind: CodeBlock, Language: "py", Content: "def f():", IsStreaming: true}},
		},
		{
			name:  "open fence without streaming is emitted closed",
			input: "```py\ndef f():\n",
			want:  []Block{{Kind: CodeBlock, Language: "py", Content: "def f():"}},
		},
		{
			name:  "empty language tag",
			input: "```\nplain\n```",
			want:  []Block{{Kind: CodeBlock, Content: "plain"}},
		},
		{
			name:  "markdown inside code is verbatim",
			input: "```md\n# not a header\n---\n| a | b |\n```",
			want:  []Block{{Kind: CodeBlock, Language: "md", Content: "# not a header\n---\n| a | b |"}},
		},
		{
			name:  "fence with info after language",
			input: "```rust title=\"x\"\nfn x() {}\n```",
			want:  []Block{{Kind: CodeBlock, Language: "rust", Content: "fn x() {}"}},
		},
		{
			name:  "tilde fence ignores backtick lines",
			input: "~~~\n```\ncode\n~~~",
			want:  []Block{{Kind: CodeBlock, Content: "```\ncode"}},
		},
		{
			name:  "fence with language inside code is content",
			input: "```\na\n```go\nb\n```",
			want:  []Block{{Kind: CodeBlock, Content: "a\n```go\nb"}},
		},
		{
			name:  "longer closing fence closes",
			input: "```\nx\n`````",
			want:  []Block{{Kind: CodeBlock, Content: "x"}},
		},
		{
			name:      "empty streaming fence",
			input:     "```",
			streaming: true,
			want:      []Block{{Kind: CodeBlock, IsStreaming: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input, tt.streaming)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q, %v) mismatch (-want +got):\n%s", tt.input, tt.streaming, diff)
			}
		})
	}
}

func TestParse_Tables(t *testing.T) {
	t.Run("flush on plain text", func(t *testing.T) {
		got := Parse("| a | b |\n|---|---|\n| 1 | 2 |\nplain text", false)
		want := []Block{
			{
				Kind:              Table,
				Content:           "| a | b |\n|---|---|\n| 1 | 2 |",
				TableRows:         [][]string{{"a", "b"}, {"---", "---"}, {"1", "2"}},
				TableSeparatorRow: 1,
			},
			{Kind: Paragraph, Content: "plain text"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("table at end of input", func(t *testing.T) {
		got := Parse("| x |\n| y |", false)
		if len(got) != 1 || got[0].Kind != Table {
			t.Fatalf("got %v, want one table", got)
		}
		if got[0].TableSeparatorRow != NoSeparator {
			t.Errorf("TableSeparatorRow = %d, want NoSeparator", got[0].TableSeparatorRow)
		}
		if len(got[0].TableRows) != 2 {
			t.Errorf("rows = %d, want 2", len(got[0].TableRows))
		}
	})

	t.Run("bare separator is ignored", func(t *testing.T) {
		got := Parse("|---|:--:|\ntext", false)
		want := []Block{{Kind: Paragraph, Content: "text"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ragged rows are kept as is", func(t *testing.T) {
		got := Parse("| a | b | c |\n|:-|-:|\n| 1 |", false)
		if len(got) != 1 {
			t.Fatalf("got %d blocks, want 1", len(got))
		}
		tbl := got[0]
		if tbl.ColumnCount() != 3 {
			t.Errorf("ColumnCount() = %d, want 3", tbl.ColumnCount())
		}
		if len(tbl.TableRows[2]) != 1 {
			t.Errorf("short row was padded: %v", tbl.TableRows[2])
		}
		if tbl.TableSeparatorRow != 1 {
			t.Errorf("TableSeparatorRow = %d, want 1", tbl.TableSeparatorRow)
		}
	})

	t.Run("escaped pipe stays in cell", func(t *testing.T) {
		got := Parse(`| a \| b | c |`, false)
		want := [][]string{{"a | b", "c"}}
		if diff := cmp.Diff(want, got[0].TableRows); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("rule and fence flush the table first", func(t *testing.T) {
		got := Parse("| a |\n---\n| b |\n```\nc\n```", false)
		var kinds []Kind
		for _, b := range got {
			kinds = append(kinds, b.Kind)
		}
		want := []Kind{Table, HorizontalRule, Table, CodeBlock}
		if diff := cmp.Diff(want, kinds); diff != "" {
			t.Errorf("kinds mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestParse_TotalCoverage checks that every non-blank source line outside
// code fences and tables appears in exactly one block, in order.
func TestParse_TotalCoverage(t *testing.T) {
	inputs := []string{
		"# Title\n\nSome *text* here.\n- item\n1. one\n> quote\n---\nplain",
		"a\nb\nc",
		"## h\n\n\n\n### h3\ntext",
		"> > nested\n* star\n  * nested star\n2. two",
	}
	for _, input := range inputs {
		var want []string
		for _, line := range strings.Split(input, "\n") {
			if strings.TrimSpace(line) != "" {
				want = append(want, line)
			}
		}

		blocks := Parse(input, false)
		var covered int
		for _, b := range blocks {
			if b.Kind == EmptyLine {
				continue
			}
			if covered >= len(want) {
				t.Fatalf("more content blocks than source lines for %q", input)
			}
			line := want[covered]
			if b.Kind != HorizontalRule && !strings.Contains(line, b.Content) {
				t.Errorf("block %d content %q not found in source line %q", covered, b.Content, line)
			}
			covered++
		}
		if covered != len(want) {
			t.Errorf("covered %d lines, want %d for %q", covered, len(want), input)
		}
	}
}

func TestParse_NeverPanics(t *testing.T) {
	inputs := []string{
		"|", "||", "| |", "```", "~~~~", ">", "#", "-", "*", "1.", "\n\n\n", "\r\n",
		"| a |\n|", "```\n```\n```", "> ```", "#\t", "- ", "99999999999. x",
	}
	for _, input := range inputs {
		for _, streaming := range []bool{false, true} {
			blocks := Parse(input, streaming)
			for _, b := range blocks {
				if b.Kind == Table && len(b.TableRows) == 0 {
					t.Errorf("Parse(%q) produced empty table", input)
				}
			}
		}
	}
}

func TestBlock_EqualAndFingerprint(t *testing.T) {
	a := Block{Kind: Table, TableRows: [][]string{{"a", "b"}}, TableSeparatorRow: NoSeparator}
	b := Block{Kind: Table, TableRows: [][]string{{"a", "b"}}, TableSeparatorRow: NoSeparator}
	c := Block{Kind: Table, TableRows: [][]string{{"a", "c"}}, TableSeparatorRow: NoSeparator}

	if !a.Equal(b) {
		t.Error("identical tables should be equal")
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical tables should share a fingerprint")
	}
	if a.Equal(c) {
		t.Error("tables with different cells should differ")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("tables with different cells should have different fingerprints")
	}

	open := Block{Kind: CodeBlock, Content: "x", IsStreaming: true}
	closed := Block{Kind: CodeBlock, Content: "x"}
	if open.Equal(closed) {
		t.Error("streaming flag must take part in equality")
	}
}

func TestKind_RoundTrip(t *testing.T) {
	for k := Paragraph; k <= EmptyLine; k++ {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if _, err := ParseKind("nope"); err == nil {
		t.Error("ParseKind(nope) should fail")
	}
}
