// Package reconcile decides which rendered blocks survive a re-parse.
//
// The strategy is longest common prefix: blocks equal to the previous parse
// up to the first difference are kept, everything after it is destroyed and
// recreated. Streaming output only ever appends, so in practice only the
// last block or two change per update. An edit earlier in the document
// rebuilds everything after it; moved or reordered blocks are not detected.
package reconcile

import "github.com/samsaffron/mdstream/internal/markdown"

// Plan is the outcome of reconciling two parses.
type Plan struct {
	// KeepCount blocks at the front keep their existing widgets.
	KeepCount int
	// ToDestroy are the previous blocks after the common prefix, in order.
	ToDestroy []markdown.Block
	// ToCreate are the current blocks after the common prefix, in order.
	ToCreate []markdown.Block
	// FullRebuild is set when the caller's widget list no longer matched the
	// previous parse and everything had to be thrown away.
	FullRebuild bool
}

// Noop reports whether applying the plan changes nothing.
func (p Plan) Noop() bool {
	return len(p.ToDestroy) == 0 && len(p.ToCreate) == 0 && !p.FullRebuild
}

// Reconcile compares previous against current and returns the plan that
// turns one into the other.
func Reconcile(previous, current []markdown.Block) Plan {
	k := CommonPrefix(previous, current)
	return Plan{
		KeepCount: k,
		ToDestroy: previous[k:],
		ToCreate:  current[k:],
	}
}

// ReconcileRendered is Reconcile for a caller that also tracks how many
// widgets are actually on screen. If that count disagrees with previous the
// two lists have drifted apart and the plan rebuilds everything: every
// previous block is destroyed and every current block created.
func ReconcileRendered(previous, current []markdown.Block, rendered int) Plan {
	if rendered != len(previous) {
		return Plan{
			ToDestroy:   previous,
			ToCreate:    current,
			FullRebuild: true,
		}
	}
	return Reconcile(previous, current)
}

// CommonPrefix returns the number of leading blocks that are equal in a
// and b, comparing every field including table cells.
func CommonPrefix(a, b []markdown.Block) int {
	n := min(len(a), len(b))
	for i := range n {
		if !a[i].Equal(b[i]) {
			return i
		}
	}
	return n
}
