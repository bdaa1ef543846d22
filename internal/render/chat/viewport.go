package chat

// VirtualViewport picks which widgets of a long document need to be drawn.
// Instead of joining every rendered block, the viewer asks for the range
// that fills the screen and joins only those.
type VirtualViewport struct {
	height int
	// slack lines rendered beyond the screen for smooth scrolling
	slack int
}

// NewVirtualViewport creates a new virtual viewport.
func NewVirtualViewport(height int) *VirtualViewport {
	return &VirtualViewport{
		height: height,
		slack:  10,
	}
}

// VisibleRange returns the start and end indices (exclusive) of the blocks
// that should be drawn, given their rendered heights.
//
// scrollOffset is the number of blocks scrolled up from the bottom.
func (v *VirtualViewport) VisibleRange(heights []int, scrollOffset int) (int, int) {
	total := len(heights)
	if total == 0 {
		return 0, 0
	}

	// Blocks needed to fill the screen from the bottom.
	needed := 0
	acc := 0
	for i := total - 1; i >= 0 && acc < v.height+v.slack; i-- {
		acc += heights[i]
		needed++
	}
	needed = max(needed, 1)

	end := min(total-max(scrollOffset, 0), total)
	// Keep the screen full when scrolled to the top.
	end = max(end, min(needed, total))

	start := end
	acc = 0
	for i := end - 1; i >= 0 && acc < v.height+v.slack; i-- {
		acc += heights[i]
		start = i
	}
	return start, end
}

// ViewportInfo contains information about the current viewport state.
type ViewportInfo struct {
	StartBlock   int  // First visible block index
	EndBlock     int  // Last visible block index (exclusive)
	TotalHeight  int  // Total height of all blocks
	VisibleStart int  // First visible line (from top of all content)
	VisibleEnd   int  // Last visible line (from top of all content)
	AtTop        bool // True if showing the first block
	AtBottom     bool // True if showing the last block
}

// Info returns detailed information about the current viewport.
func (v *VirtualViewport) Info(heights []int, scrollOffset int) ViewportInfo {
	start, end := v.VisibleRange(heights, scrollOffset)

	total := 0
	for _, h := range heights {
		total += h
	}
	visibleStart := 0
	for _, h := range heights[:start] {
		visibleStart += h
	}
	visibleEnd := visibleStart
	for _, h := range heights[start:end] {
		visibleEnd += h
	}

	return ViewportInfo{
		StartBlock:   start,
		EndBlock:     end,
		TotalHeight:  total,
		VisibleStart: visibleStart,
		VisibleEnd:   visibleEnd,
		AtTop:        start == 0,
		AtBottom:     end >= len(heights),
	}
}
