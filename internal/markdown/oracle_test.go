package markdown

import (
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type shapeCounts struct {
	headings      map[int]int
	codeBlocks    int
	languages     []string
	thematicBreak int
}

// goldmarkShape counts the block constructs this parser shares with
// CommonMark, using goldmark as the reference.
func goldmarkShape(t *testing.T, src string) shapeCounts {
	t.Helper()
	root := goldmark.New().Parser().Parse(text.NewReader([]byte(src)))
	got := shapeCounts{headings: map[int]int{}}
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			got.headings[min(node.Level, 3)]++
		case *ast.FencedCodeBlock:
			got.codeBlocks++
			got.languages = append(got.languages, string(node.Language([]byte(src))))
		case *ast.ThematicBreak:
			got.thematicBreak++
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return got
}

func parsedShape(src string) shapeCounts {
	got := shapeCounts{headings: map[int]int{}}
	for _, b := range Parse(src, false) {
		switch b.Kind {
		case Header:
			got.headings[b.Level]++
		case CodeBlock:
			got.codeBlocks++
			got.languages = append(got.languages, b.Language)
		case HorizontalRule:
			got.thematicBreak++
		}
	}
	return got
}

// Documents are kept to the subset where line-level parsing and CommonMark
// agree: ATX headings, fences, and rules separated from paragraphs by blank
// lines (a rule directly under text is a setext heading in CommonMark).
func TestParse_AgreesWithGoldmark(t *testing.T) {
	docs := []string{
		"# Title\n\nIntro paragraph.\n\n## Section\n\n```go\nfmt.Println(1)\n```\n\n---\n\n### Deep\n\n#### Deeper\n",
		"Text\n\n***\n\n```\nno language\n```\n\n~~~python\nprint()\n~~~\n",
		"# a\n## b\n### c\n\n```sh\n# comment, not a heading\n```\n",
		"- item\n- item\n\n___\n\n1. one\n2. two\n\n```js\nlet x\n",
	}
	for i, doc := range docs {
		want := goldmarkShape(t, doc)
		got := parsedShape(doc)
		if len(want.headings) != len(got.headings) {
			t.Errorf("doc %d: heading levels = %v, goldmark %v", i, got.headings, want.headings)
		}
		for level, n := range want.headings {
			if got.headings[level] != n {
				t.Errorf("doc %d: level %d headings = %d, goldmark %d", i, level, got.headings[level], n)
			}
		}
		if got.codeBlocks != want.codeBlocks {
			t.Errorf("doc %d: code blocks = %d, goldmark %d", i, got.codeBlocks, want.codeBlocks)
		}
		for j := range min(len(got.languages), len(want.languages)) {
			if got.languages[j] != want.languages[j] {
				t.Errorf("doc %d: code block %d language = %q, goldmark %q", i, j, got.languages[j], want.languages[j])
			}
		}
		if got.thematicBreak != want.thematicBreak {
			t.Errorf("doc %d: rules = %d, goldmark %d", i, got.thematicBreak, want.thematicBreak)
		}
	}
}
