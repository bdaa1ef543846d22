package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/samsaffron/mdstream/internal/markdown"
)

func TestDescribeBlock(t *testing.T) {
	tests := []struct {
		name  string
		block markdown.Block
		want  string
	}{
		{"header", markdown.Block{Kind: markdown.Header, Level: 2, Content: "Setup"}, `header h2: "Setup"`},
		{"numbered", markdown.Block{Kind: markdown.NumberedItem, Number: 3, Content: "third"}, `numbered_item 3.: "third"`},
		{"nested bullet", markdown.Block{Kind: markdown.BulletItem, Level: 1, Content: "child"}, `bullet_item level=1: "child"`},
		{"streaming code", markdown.Block{Kind: markdown.CodeBlock, Language: "go", Content: "x := 1", IsStreaming: true}, `code_block go (streaming): "x := 1"`},
		{"table", markdown.Block{Kind: markdown.Table, Content: "|a|b|", TableRows: [][]string{{"a", "b"}, {"1", "2"}}}, "table 2x2"},
		{"rule", markdown.Block{Kind: markdown.HorizontalRule}, "horizontal_rule"},
		{"quote", markdown.Block{Kind: markdown.Blockquote, Level: 2, Content: "deep"}, `blockquote level=2: "deep"`},
		{"long", markdown.Block{Kind: markdown.Paragraph, Content: strings.Repeat("é", 70)}, `paragraph: "` + strings.Repeat("é", 59) + `…"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeBlock(tt.block); got != tt.want {
				t.Errorf("describeBlock() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWriteBlocks(t *testing.T) {
	blocks := markdown.Parse("# Title\n\nSome text\n", false)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeBlocks(&buf, blocks, "json"); err != nil {
			t.Fatal(err)
		}
		var got []markdown.Block
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid json: %v\n%s", err, buf.String())
		}
		if len(got) != len(blocks) || got[0].Kind != markdown.Header || got[0].Level != 1 {
			t.Errorf("decoded = %+v", got)
		}
		if !strings.Contains(buf.String(), `"kind": "header"`) {
			t.Errorf("kind not written by name:\n%s", buf.String())
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeBlocks(&buf, blocks, "yaml"); err != nil {
			t.Fatal(err)
		}
		var got []markdown.Block
		if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid yaml: %v\n%s", err, buf.String())
		}
		if len(got) != len(blocks) || got[0].Kind != markdown.Header {
			t.Errorf("decoded = %+v", got)
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeBlocks(&buf, blocks, "text"); err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(buf.String(), `  0 header h1: "Title"`) {
			t.Errorf("text output:\n%s", buf.String())
		}
	})

	t.Run("empty json is a list", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeBlocks(&buf, nil, "json"); err != nil {
			t.Fatal(err)
		}
		if strings.TrimSpace(buf.String()) != "[]" {
			t.Errorf("got %q", buf.String())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if err := writeBlocks(&bytes.Buffer{}, blocks, "toml"); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestWriteMarkup(t *testing.T) {
	blocks := markdown.Parse("Some **bold** text\n\n```\ncode\n```\n", false)

	run := func(runs, plain bool) string {
		t.Helper()
		markupRuns, markupPlain = runs, plain
		t.Cleanup(func() { markupRuns, markupPlain = false, false })
		var buf bytes.Buffer
		if err := writeMarkup(&buf, blocks); err != nil {
			t.Fatal(err)
		}
		return buf.String()
	}

	if got := run(false, false); !strings.Contains(got, "paragraph Some <bold>bold</> text") || strings.Contains(got, "code_block") {
		t.Errorf("markup output:\n%s", got)
	}
	if got := run(false, true); !strings.Contains(got, "paragraph Some bold text") {
		t.Errorf("plain output:\n%s", got)
	}
	if got := run(true, false); !strings.Contains(got, `"style":"bold"`) || !strings.Contains(got, `"text":"bold"`) {
		t.Errorf("runs output:\n%s", got)
	}
}
