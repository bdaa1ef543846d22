package ui

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	diff "github.com/shogoki/gotextdiff"
)

var hunkRe = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// WriteUnifiedDiff writes a compact, line-numbered diff between two
// versions of a block's source. Nothing is written when they are equal.
func WriteUnifiedDiff(w io.Writer, styles *Styles, label, oldContent, newContent string) error {
	if oldContent == newContent {
		return nil
	}
	_, err := io.WriteString(w, UnifiedDiff(styles, label, oldContent, newContent))
	return err
}

// UnifiedDiff renders the diff as a string. Removed lines are numbered by
// the position they would have had in the new text.
func UnifiedDiff(styles *Styles, label, oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}
	// gotextdiff wants newline-terminated input to avoid "no newline" markers
	if !strings.HasSuffix(oldContent, "\n") {
		oldContent += "\n"
	}
	if !strings.HasSuffix(newContent, "\n") {
		newContent += "\n"
	}
	diffText := string(diff.Diff(label, []byte(oldContent), label, []byte(newContent)))
	if diffText == "" {
		return ""
	}

	maxLine := max(strings.Count(oldContent, "\n"), strings.Count(newContent, "\n"))
	lineNumWidth := max(len(strconv.Itoa(maxLine)), 3)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", styles.DiffHeader.Render("Block:"), label)

	var newLineNum int
	var deletionOffset int // position within a deletion run
	hunkCount := 0

	for _, line := range strings.Split(diffText, "\n") {
		if line == "" ||
			strings.HasPrefix(line, "diff ") ||
			strings.HasPrefix(line, "--- ") ||
			strings.HasPrefix(line, "+++ ") ||
			strings.HasPrefix(line, `\ `) {
			continue
		}

		content := line[1:]
		switch line[0] {
		case '@':
			if m := hunkRe.FindStringSubmatch(line); m != nil {
				newLineNum, _ = strconv.Atoi(m[2])
			}
			if hunkCount > 0 {
				b.WriteString(styles.DiffContext.Render(strings.Repeat(" ", lineNumWidth)+"  ...") + "\n")
			}
			hunkCount++
		case '-':
			gutter := fmt.Sprintf("%*d- ", lineNumWidth, newLineNum+deletionOffset)
			b.WriteString(styles.DiffRemove.Render(gutter+content) + "\n")
			deletionOffset++
		case '+':
			deletionOffset = 0
			gutter := fmt.Sprintf("%*d+ ", lineNumWidth, newLineNum)
			b.WriteString(styles.DiffAdd.Render(gutter+content) + "\n")
			newLineNum++
		case ' ':
			deletionOffset = 0
			gutter := fmt.Sprintf("%*d  ", lineNumWidth, newLineNum)
			b.WriteString(styles.DiffContext.Render(gutter) + content + "\n")
			newLineNum++
		default:
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}
