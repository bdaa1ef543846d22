package streaming

import (
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// terminalController moves the cursor and erases the screen so the live
// region of a stream can be repainted in place.
type terminalController struct {
	output io.Writer
	width  int
	height int // 0 means unknown
}

func newTerminalController(output io.Writer, width, height int) *terminalController {
	return &terminalController{
		output: output,
		width:  width,
		height: height,
	}
}

// ClearLines moves the cursor up n lines and clears from cursor to end of screen.
func (tc *terminalController) ClearLines(n int) error {
	if n <= 0 {
		return nil
	}

	seq := ansi.CursorUp(n)
	seq += ansi.CursorHorizontalAbsolute(1)
	// mode 0: cursor to end of screen
	seq += ansi.EraseDisplay(0)

	_, err := tc.output.Write([]byte(seq))
	return err
}

// CountLines calculates how many terminal rows the rendered string
// occupies, including soft wraps at the terminal width.
func (tc *terminalController) CountLines(rendered string) int {
	if len(rendered) == 0 {
		return 0
	}

	lines := strings.Split(rendered, "\n")
	// the empty string after a final newline is not a row
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return tc.rows(lines)
}

// rows counts the terminal rows of already split lines.
func (tc *terminalController) rows(lines []string) int {
	total := 0
	for _, line := range lines {
		total += tc.lineRows(line)
	}
	return total
}

func (tc *terminalController) lineRows(line string) int {
	w := ansi.StringWidth(line)
	if w == 0 || tc.width <= 0 {
		return 1
	}
	return (w + tc.width - 1) / tc.width
}

// repaintFrom returns the first line index at or after from whose rows,
// together with everything after it, still fit on screen. Rows that have
// scrolled off cannot be reached by cursor movement.
func (tc *terminalController) repaintFrom(lines []string, from int) int {
	if tc.height <= 0 {
		return from
	}
	budget := tc.height - 1
	rows := 0
	start := len(lines)
	for i := len(lines) - 1; i >= from; i-- {
		rows += tc.lineRows(lines[i])
		if rows > budget {
			break
		}
		start = i
	}
	return start
}

// Repaint replaces the previously written lines old with lines, touching
// only the rows from the first differing line on. The cursor is assumed to
// sit at the start of the row below old, and is left below lines.
// It returns what is now on screen.
func (tc *terminalController) Repaint(old, lines []string) ([]string, error) {
	common := 0
	for common < len(old) && common < len(lines) && old[common] == lines[common] {
		common++
	}
	if common == len(old) && common == len(lines) {
		return lines, nil
	}

	from := tc.repaintFrom(old, common)
	if err := tc.ClearLines(tc.rows(old[from:])); err != nil {
		return old, err
	}

	var sb strings.Builder
	for _, line := range lines[min(from, len(lines)):] {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if _, err := io.WriteString(tc.output, sb.String()); err != nil {
		return old, err
	}
	return lines, nil
}
