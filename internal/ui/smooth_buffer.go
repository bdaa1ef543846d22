package ui

import (
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// Pacing for the viewer: chunks from a source arrive in bursts and are
// released a few words per frame so the reconciler sees a steady stream.
const (
	SmoothFrameInterval    = 16 * time.Millisecond // 60fps
	SmoothBufferCapacity   = 500                   // bytes
	SmoothMinWordsPerFrame = 1
	SmoothMaxWordsPerFrame = 8
	SmoothMaxWordLength    = 12 // longer words are released in pieces
)

// SmoothTickMsg is sent to trigger the next frame.
type SmoothTickMsg struct{}

// SmoothBuffer holds streamed text and releases it word by word at a rate
// that grows with the backlog. A newline ends a frame, so a finished line
// (often a finished block) reaches the renderer on its own.
type SmoothBuffer struct {
	mu        sync.Mutex
	pending   string
	inputDone bool
}

// NewSmoothBuffer creates an empty buffer.
func NewSmoothBuffer() *SmoothBuffer {
	return &SmoothBuffer{}
}

// Write appends incoming text.
func (b *SmoothBuffer) Write(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending += text
}

// MarkDone signals that the input stream has ended.
func (b *SmoothBuffer) MarkDone() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inputDone = true
}

// IsDrained reports whether the stream is done and nothing is pending.
func (b *SmoothBuffer) IsDrained() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inputDone && b.pending == ""
}

// Len returns the pending size in bytes.
func (b *SmoothBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// IsEmpty reports whether nothing is pending.
func (b *SmoothBuffer) IsEmpty() bool {
	return b.Len() == 0
}

// wordsPerFrame scales linearly with the backlog. Caller holds mu.
func (b *SmoothBuffer) wordsPerFrame() int {
	fill := float64(len(b.pending)) / float64(SmoothBufferCapacity)
	switch {
	case fill < 0.2:
		return SmoothMinWordsPerFrame
	case fill > 0.8:
		return SmoothMaxWordsPerFrame
	}
	return SmoothMinWordsPerFrame + int(float64(SmoothMaxWordsPerFrame-SmoothMinWordsPerFrame)*fill)
}

// NextWords releases the next frame's worth of text.
func (b *SmoothBuffer) NextWords() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending == "" {
		return ""
	}
	n := splitWords(b.pending, b.wordsPerFrame())
	out := b.pending[:n]
	b.pending = b.pending[n:]
	return out
}

// FlushAll returns everything pending.
func (b *SmoothBuffer) FlushAll() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = ""
	return out
}

// Reset clears the buffer and the done flag.
func (b *SmoothBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = ""
	b.inputDone = false
}

// SmoothTick returns a tea.Cmd that sends a SmoothTickMsg after one frame.
func SmoothTick() tea.Cmd {
	return tea.Tick(SmoothFrameInterval, func(time.Time) tea.Msg {
		return SmoothTickMsg{}
	})
}

// splitWords returns the byte length of the prefix of s holding up to n
// words with their leading whitespace. It stops after a newline, and after
// SmoothMaxWordLength runes of a long word.
func splitWords(s string, n int) int {
	pos := 0
	for words := 0; words < n && pos < len(s); {
		// leading whitespace
		for pos < len(s) {
			r, size := utf8.DecodeRuneInString(s[pos:])
			if !unicode.IsSpace(r) {
				break
			}
			pos += size
			if r == '\n' {
				return pos
			}
		}
		if pos >= len(s) {
			break
		}

		runes := 0
		for pos < len(s) {
			r, size := utf8.DecodeRuneInString(s[pos:])
			if unicode.IsSpace(r) {
				break
			}
			if runes == SmoothMaxWordLength {
				return pos
			}
			pos += size
			runes++
		}
		words++
	}
	return pos
}
