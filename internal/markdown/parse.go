package markdown

import (
	"strconv"
	"strings"
)

// state is the accumulation mode of the scanner. Code and table
// accumulation are mutually exclusive.
type state int

const (
	stateReady state = iota
	stateInFencedCode
	stateInTable
)

type parser struct {
	blocks []Block
	state  state

	// Fenced code block state
	fenceChar   rune
	fenceLen    int
	fenceIndent int
	language    string
	codeLines   []string

	// Table state
	tableRows  [][]string
	tableLines []string
	separator  int
}

// Parse splits text into blocks. When streaming is true an unterminated code
// fence at the end of input is marked IsStreaming so renderers can show an
// in-progress indicator; otherwise it is emitted as if closed.
func Parse(text string, streaming bool) []Block {
	p := &parser{separator: NoSeparator}
	for _, line := range splitLines(text) {
		p.processLine(line)
	}
	p.finish(streaming)
	return p.blocks
}

// splitLines splits on '\n', drops a trailing '\r' from each line, and does
// not report an empty line after a final newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func (p *parser) processLine(line string) {
	if p.state == stateInFencedCode {
		p.handleFencedCode(line)
		return
	}

	if isFenceLine(line) {
		p.flushTable()
		p.state = stateInFencedCode
		p.fenceChar, p.fenceLen, p.fenceIndent = parseFence(line)
		p.language = fenceLanguage(line)
		p.codeLines = nil
		return
	}

	trimmed := strings.TrimSpace(line)

	// Rules come before bullets: "---" and "* * *" would otherwise read as
	// list items.
	if isThematicBreak(trimmed) {
		p.flushTable()
		p.emit(Block{Kind: HorizontalRule})
		return
	}

	if isTableRow(trimmed) {
		p.handleTableRow(line, trimmed)
		return
	}
	p.flushTable()

	if level, rest, ok := parseBlockquote(line); ok {
		p.emit(Block{Kind: Blockquote, Level: level, Content: rest})
		return
	}

	if level, rest, ok := parseHeading(trimmed); ok {
		p.emit(Block{Kind: Header, Level: level, Content: rest})
		return
	}

	if depth, rest, ok := parseBullet(line); ok {
		p.emit(Block{Kind: BulletItem, Level: depth, Content: rest})
		return
	}

	if depth, number, rest, ok := parseNumbered(line); ok {
		p.emit(Block{Kind: NumberedItem, Level: depth, Number: number, Content: rest})
		return
	}

	if trimmed == "" {
		p.emit(Block{Kind: EmptyLine})
		return
	}

	p.emit(Block{Kind: Paragraph, Content: line})
}

func (p *parser) handleFencedCode(line string) {
	if isClosingFence(line, p.fenceChar, p.fenceLen, p.fenceIndent) {
		p.emitCode(false)
		return
	}
	p.codeLines = append(p.codeLines, line)
}

func (p *parser) handleTableRow(line, trimmed string) {
	cells := splitTableRow(trimmed)
	if isSeparatorRow(cells) {
		if p.state != stateInTable {
			// A bare alignment row with nothing above it carries no content.
			return
		}
		if p.separator == NoSeparator {
			p.separator = len(p.tableRows)
		}
	}
	p.state = stateInTable
	p.tableRows = append(p.tableRows, cells)
	p.tableLines = append(p.tableLines, line)
}

func (p *parser) flushTable() {
	if p.state != stateInTable {
		return
	}
	p.emit(Block{
		Kind:              Table,
		Content:           strings.Join(p.tableLines, "\n"),
		TableRows:         p.tableRows,
		TableSeparatorRow: p.separator,
	})
	p.state = stateReady
	p.tableRows = nil
	p.tableLines = nil
	p.separator = NoSeparator
}

func (p *parser) emitCode(streaming bool) {
	p.emit(Block{
		Kind:        CodeBlock,
		Content:     strings.TrimSuffix(strings.Join(p.codeLines, "\n"), "\n"),
		Language:    p.language,
		IsStreaming: streaming,
	})
	p.state = stateReady
	p.codeLines = nil
	p.language = ""
	p.fenceChar = 0
	p.fenceLen = 0
	p.fenceIndent = 0
}

func (p *parser) finish(streaming bool) {
	switch p.state {
	case stateInTable:
		p.flushTable()
	case stateInFencedCode:
		p.emitCode(streaming)
	}
}

func (p *parser) emit(b Block) {
	p.blocks = append(p.blocks, b)
}

// isFenceLine reports whether line opens a fenced code block: up to three
// spaces of indentation then three or more backticks or tildes.
func isFenceLine(line string) bool {
	if countLeadingSpaces(line) > 3 {
		return false
	}
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "```") && !strings.HasPrefix(trimmed, "~~~") {
		return false
	}
	// Backtick info strings may not contain backticks.
	if trimmed[0] == '`' {
		rest := strings.TrimLeft(trimmed, "`")
		return !strings.Contains(rest, "`")
	}
	return true
}

// fenceLanguage returns the first word of the fence info string.
func fenceLanguage(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	info := strings.TrimSpace(strings.TrimLeft(trimmed, string(trimmed[0])))
	if i := strings.IndexAny(info, " \t{"); i >= 0 {
		info = info[:i]
	}
	return info
}

// parseFence extracts fence info from a fence opening line.
func parseFence(line string) (char rune, length int, indent int) {
	indent = countLeadingSpaces(line)
	trimmed := strings.TrimLeft(line, " \t")
	if len(trimmed) == 0 {
		return 0, 0, 0
	}
	char = rune(trimmed[0])
	for _, c := range trimmed {
		if c != char {
			break
		}
		length++
	}
	return char, length, indent
}

// isClosingFence returns true if the line is a valid closing fence.
func isClosingFence(line string, openChar rune, openLen int, openIndent int) bool {
	indent := countLeadingSpaces(line)
	if indent > 3 && indent > openIndent+3 {
		return false
	}

	trimmed := strings.TrimLeft(line, " \t")
	if len(trimmed) == 0 || rune(trimmed[0]) != openChar {
		return false
	}

	fenceLen := 0
	for _, c := range trimmed {
		if c == openChar {
			fenceLen++
		} else if c == ' ' || c == '\t' {
			break
		} else {
			return false
		}
	}
	if strings.TrimSpace(trimmed[fenceLen:]) != "" {
		return false
	}
	return fenceLen >= openLen
}

// isThematicBreak returns true if the trimmed line is a rule (---, ***, ___).
func isThematicBreak(trimmed string) bool {
	if len(trimmed) < 3 {
		return false
	}
	char := rune(trimmed[0])
	if char != '-' && char != '*' && char != '_' {
		return false
	}
	count := 0
	for _, c := range trimmed {
		if c == char {
			count++
		} else if c != ' ' && c != '\t' {
			return false
		}
	}
	return count >= 3
}

func isTableRow(trimmed string) bool {
	return len(trimmed) >= 2 && trimmed[0] == '|' && trimmed[len(trimmed)-1] == '|'
}

// splitTableRow strips the outer pipes and splits on unescaped '|'.
func splitTableRow(trimmed string) []string {
	inner := trimmed[1 : len(trimmed)-1]
	var cells []string
	var cell strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) && inner[i+1] == '|' {
			cell.WriteByte('|')
			i++
			continue
		}
		if c == '|' {
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
			continue
		}
		cell.WriteByte(c)
	}
	return append(cells, strings.TrimSpace(cell.String()))
}

// isSeparatorRow reports whether every cell looks like :?-+:?.
func isSeparatorRow(cells []string) bool {
	for _, cell := range cells {
		c := strings.TrimPrefix(cell, ":")
		c = strings.TrimSuffix(c, ":")
		if c == "" || strings.Trim(c, "-") != "" {
			return false
		}
	}
	return len(cells) > 0
}

// parseBlockquote counts leading '>' markers, each optionally followed by a
// single space.
func parseBlockquote(line string) (level int, rest string, ok bool) {
	if countLeadingSpaces(line) > 3 {
		return 0, "", false
	}
	s := strings.TrimLeft(line, " \t")
	for strings.HasPrefix(s, ">") {
		level++
		s = strings.TrimPrefix(s[1:], " ")
	}
	if level == 0 {
		return 0, "", false
	}
	return level, s, true
}

// parseHeading accepts 1-6 '#' followed by a space or end of line. Levels
// deeper than 3 are folded into 3.
func parseHeading(trimmed string) (level int, rest string, ok bool) {
	n := 0
	for n < len(trimmed) && trimmed[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0, "", false
	}
	if n < len(trimmed) && trimmed[n] != ' ' && trimmed[n] != '\t' {
		return 0, "", false
	}
	rest = strings.TrimSpace(trimmed[n:])
	// Optional closing sequence: "## Title ##".
	if stripped := strings.TrimRight(rest, "#"); stripped != rest {
		if stripped == "" {
			rest = ""
		} else if strings.HasSuffix(stripped, " ") || strings.HasSuffix(stripped, "\t") {
			rest = strings.TrimSpace(stripped)
		}
	}
	return min(n, 3), rest, true
}

// parseBullet accepts "- " and "* " after optional indentation.
func parseBullet(line string) (depth int, rest string, ok bool) {
	indent := leadingIndentWidth(line)
	s := strings.TrimLeft(line, " \t")
	if len(s) < 2 || (s[0] != '-' && s[0] != '*') || (s[1] != ' ' && s[1] != '\t') {
		return 0, "", false
	}
	return indent / 2, strings.TrimLeft(s[2:], " \t"), true
}

// parseNumbered accepts digits, a '.', and at least one space.
func parseNumbered(line string) (depth, number int, rest string, ok bool) {
	indent := leadingIndentWidth(line)
	s := strings.TrimLeft(line, " \t")
	i := 0
	for i < len(s) && i < 9 && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(s) || s[i] != '.' || (s[i+1] != ' ' && s[i+1] != '\t') {
		return 0, 0, "", false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, 0, "", false
	}
	return indent / 2, n, strings.TrimLeft(s[i+1:], " \t"), true
}

// countLeadingSpaces returns the number of leading space characters.
// Tabs are counted as 1 for simplicity.
func countLeadingSpaces(line string) int {
	count := 0
	for _, c := range line {
		if c != ' ' && c != '\t' {
			break
		}
		count++
	}
	return count
}

// leadingIndentWidth measures indentation for list nesting: a tab counts as
// two columns so one tab equals one nesting level.
func leadingIndentWidth(line string) int {
	width := 0
	for _, c := range line {
		switch c {
		case ' ':
			width++
		case '\t':
			width += 2
		default:
			return width
		}
	}
	return width
}
