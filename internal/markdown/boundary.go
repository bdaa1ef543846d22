package markdown

import "strings"

// StableBoundary returns the byte offset up to which streamed text can be
// rendered without showing half-typed inline markup. A trailing partial line
// (no newline yet) is held back while it has an unclosed code span or
// emphasis marker, so "**bo" does not flash as literal asterisks before the
// closing "**" arrives. Text inside an open code fence is never held back.
func StableBoundary(text string) int {
	lineStart := strings.LastIndexByte(text, '\n') + 1
	if lineStart == len(text) {
		return len(text)
	}
	if isInCodeBlock(text[:lineStart]) {
		return len(text)
	}
	tail := text[lineStart:]
	if _, rest, ok := parseBullet(tail); ok {
		tail = rest
	}
	if isThematicBreak(strings.TrimSpace(tail)) || areInlineMarkersBalanced(tail) {
		return len(text)
	}
	return lineStart
}

// isInCodeBlock reports whether text ends inside an unclosed fence.
func isInCodeBlock(text string) bool {
	open := false
	var fenceChar rune
	var fenceLen, fenceIndent int
	for _, line := range splitLines(text) {
		if !open {
			if isFenceLine(line) {
				open = true
				fenceChar, fenceLen, fenceIndent = parseFence(line)
			}
			continue
		}
		if isClosingFence(line, fenceChar, fenceLen, fenceIndent) {
			open = false
		}
	}
	return open
}

// areInlineMarkersBalanced checks that **, *, _ and ` markers are paired.
// Code spans escape the other markers.
func areInlineMarkersBalanced(text string) bool {
	inBold := false
	inItalicAsterisk := false
	inItalicUnderscore := false

	i := 0
	for i < len(text) {
		if text[i] == '`' {
			closeIdx := strings.IndexByte(text[i+1:], '`')
			if closeIdx == -1 {
				return false
			}
			i += closeIdx + 2
			continue
		}

		if text[i] == '*' {
			if i+1 < len(text) && text[i+1] == '*' {
				inBold = !inBold
				i += 2
				continue
			}
			inItalicAsterisk = !inItalicAsterisk
			i++
			continue
		}

		// Only word-boundary underscores count; snake_case is plain text.
		if text[i] == '_' && (i == 0 || !isWordByte(text[i-1]) || i+1 == len(text) || !isWordByte(text[i+1])) {
			inItalicUnderscore = !inItalicUnderscore
		}
		i++
	}

	return !inBold && !inItalicAsterisk && !inItalicUnderscore
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}
