package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// StreamStats tracks how a streamed response was rendered.
type StreamStats struct {
	StartTime time.Time
	Chunks    int
	Bytes     int

	// Reconcile totals across all updates
	Updates   int
	Kept      int
	Destroyed int
	Created   int
	Rebuilds  int

	FirstChunk time.Duration // time to first chunk
	Elapsed    time.Duration
}

// NewStreamStats creates a new StreamStats with StartTime set to now.
func NewStreamStats() *StreamStats {
	return &StreamStats{StartTime: time.Now()}
}

// AddChunk records one received chunk of n bytes.
func (s *StreamStats) AddChunk(n int) {
	if s.Chunks == 0 {
		s.FirstChunk = time.Since(s.StartTime)
	}
	s.Chunks++
	s.Bytes += n
}

// AddUpdate records the outcome of one reconcile pass.
func (s *StreamStats) AddUpdate(kept, destroyed, created int, rebuild bool) {
	s.Updates++
	s.Kept += kept
	s.Destroyed += destroyed
	s.Created += created
	if rebuild {
		s.Rebuilds++
	}
}

// Finalize records the total elapsed time.
func (s *StreamStats) Finalize() {
	s.Elapsed = time.Since(s.StartTime)
}

// Reuse is the fraction of widgets kept rather than recreated, over all
// updates. 1 means every update only appended.
func (s StreamStats) Reuse() float64 {
	if s.Kept+s.Created == 0 {
		return 1
	}
	return float64(s.Kept) / float64(s.Kept+s.Created)
}

// Render returns the stats as a compact single-line string.
func (s StreamStats) Render() string {
	elapsed := s.Elapsed
	if elapsed == 0 {
		elapsed = time.Since(s.StartTime)
	}

	timeStr := fmt.Sprintf("%.1fs", elapsed.Seconds())
	if s.Chunks > 0 {
		timeStr = fmt.Sprintf("%.1fs (first chunk %dms)", elapsed.Seconds(), s.FirstChunk.Milliseconds())
	}

	line := fmt.Sprintf("Stats: %s | %s chunks, %s | %s updates | %s kept / %s destroyed / %s created (%.0f%% reuse)",
		timeStr,
		humanize.Comma(int64(s.Chunks)),
		humanize.Bytes(uint64(s.Bytes)),
		humanize.Comma(int64(s.Updates)),
		humanize.Comma(int64(s.Kept)),
		humanize.Comma(int64(s.Destroyed)),
		humanize.Comma(int64(s.Created)),
		s.Reuse()*100)
	if s.Rebuilds > 0 {
		line += fmt.Sprintf(" | %d rebuilds", s.Rebuilds)
	}
	return line
}
