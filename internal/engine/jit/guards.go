package jit

import (
	"golang.org/x/tools/container/intsets"

	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
)

// fixGuards replaces every floating guard with a FixedGuard in the block of
// its anchor, right after the last fixed node its condition reads.
func fixGuards(g *ir.Graph) int {
	guards := g.NodesOf(ir.OpcodeGuard)
	for _, guard := range guards {
		cond := guard.Input(0)
		deps := fixedInputs(cond)
		pos := guard.Guard()
		for cur := pos; ; {
			if deps.Has(int(cur.ID())) {
				pos = cur
			}
			next := cur.Next()
			if next == nil || !next.Opcode().IsFixedWithNext() || next.Opcode().IsBegin() {
				break
			}
			cur = next
		}
		fixed := g.FixedGuard(cond, guard.Reason(), guard.Action(), guard.IsNegated())
		g.AddAfterFixed(pos, fixed)
		guard.ReplaceAtUsages(fixed)
		guard.SafeDelete()
	}
	return len(guards)
}

// fixedInputs returns the fixed nodes n reads through floating nodes.
func fixedInputs(n *ir.Node) *intsets.Sparse {
	var deps, visited intsets.Sparse
	var walk func(n *ir.Node)
	walk = func(n *ir.Node) {
		if n == nil || !visited.Insert(int(n.ID())) {
			return
		}
		if n.Opcode().IsFixed() {
			deps.Insert(int(n.ID()))
			return
		}
		for _, in := range n.Inputs() {
			walk(in)
		}
	}
	walk(n)
	return &deps
}
