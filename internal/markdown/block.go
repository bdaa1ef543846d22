// Package markdown splits assistant markdown into an ordered list of layout
// blocks. Parsing is a single left-to-right scan over lines and is total: any
// input, including unterminated fences and ragged tables, yields a valid
// block sequence.
package markdown

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Kind identifies the layout role of a Block.
type Kind int

const (
	Paragraph Kind = iota
	Header
	CodeBlock
	Table
	Blockquote
	HorizontalRule
	BulletItem
	NumberedItem
	EmptyLine
)

var kindNames = [...]string{
	Paragraph:      "paragraph",
	Header:         "header",
	CodeBlock:      "code_block",
	Table:          "table",
	Blockquote:     "blockquote",
	HorizontalRule: "horizontal_rule",
	BulletItem:     "bullet_item",
	NumberedItem:   "numbered_item",
	EmptyLine:      "empty_line",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind maps a name produced by Kind.String back to its Kind.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown block kind %q", name)
}

// MarshalText implements encoding.TextMarshaler so blocks dump with readable kinds.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// NoSeparator is the TableSeparatorRow value of a table without an
// alignment row. Non-table blocks leave the field at zero.
const NoSeparator = -1

// Block is one layout unit of parsed markdown. Blocks are values: the parser
// returns a fresh slice on every call and nothing points back into it.
type Block struct {
	Kind Kind `json:"kind" yaml:"kind"`

	// Content is the raw (not inline-formatted) text. For CodeBlock it is the
	// code body, for Table the source lines of the table.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Level is the header depth (1-3), the blockquote depth, or the list
	// nesting depth (0-based) for list items.
	Level int `json:"level,omitempty" yaml:"level,omitempty"`

	// Number is the literal index of a numbered list item.
	Number int `json:"number,omitempty" yaml:"number,omitempty"`

	// Language is the code fence info word; empty when absent.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	TableRows         [][]string `json:"table_rows,omitempty" yaml:"table_rows,omitempty"`
	TableSeparatorRow int        `json:"table_separator_row,omitempty" yaml:"table_separator_row,omitempty"`

	// IsStreaming marks a trailing code block whose closing fence has not
	// arrived yet.
	IsStreaming bool `json:"is_streaming,omitempty" yaml:"is_streaming,omitempty"`
}

// Equal reports whether b and o are structurally identical, table contents
// included.
func (b Block) Equal(o Block) bool {
	if b.Kind != o.Kind ||
		b.Content != o.Content ||
		b.Level != o.Level ||
		b.Number != o.Number ||
		b.Language != o.Language ||
		b.TableSeparatorRow != o.TableSeparatorRow ||
		b.IsStreaming != o.IsStreaming {
		return false
	}
	return slices.EqualFunc(b.TableRows, o.TableRows, slices.Equal[[]string])
}

// Fingerprint hashes every field of the block. Equal blocks always share a
// fingerprint; the converse holds only with overwhelming probability, so
// callers that need certainty follow up with Equal.
func (b Block) Fingerprint() uint64 {
	d := xxhash.New()
	var num [8]byte
	writeInt := func(v int) {
		u := uint64(v)
		for i := range num {
			num[i] = byte(u >> (8 * i))
		}
		_, _ = d.Write(num[:])
	}
	writeStr := func(s string) {
		writeInt(len(s))
		_, _ = d.WriteString(s)
	}

	writeInt(int(b.Kind))
	writeStr(b.Content)
	writeInt(b.Level)
	writeInt(b.Number)
	writeStr(b.Language)
	writeInt(b.TableSeparatorRow)
	if b.IsStreaming {
		writeInt(1)
	} else {
		writeInt(0)
	}
	writeInt(len(b.TableRows))
	for _, row := range b.TableRows {
		writeInt(len(row))
		for _, cell := range row {
			writeStr(cell)
		}
	}
	return d.Sum64()
}

// ColumnCount returns the widest row of a table. Short rows are padded by
// renderers, never by the parser.
func (b Block) ColumnCount() int {
	n := 0
	for _, row := range b.TableRows {
		n = max(n, len(row))
	}
	return n
}

// IsInline reports whether the block's content goes through the inline
// formatter. Code and tables are rendered from raw content.
func (b Block) IsInline() bool {
	switch b.Kind {
	case Paragraph, Header, Blockquote, BulletItem, NumberedItem:
		return true
	}
	return false
}
