package ir

import (
	"golang.org/x/tools/container/intsets"
)

// Block is a maximal chain of fixed nodes starting at a begin node.
type Block struct {
	id          int
	begin, end  *Node
	preds       []*Block
	succs       []*Block
	loopHeader  bool
	reversePost int
}

// ID returns the index of the block in reverse postorder.
func (b *Block) ID() int { return b.id }

// Begin returns the first node of the block.
func (b *Block) Begin() *Node { return b.begin }

// End returns the last fixed node of the block.
func (b *Block) End() *Node { return b.end }

// Preds returns the predecessor blocks, forward ends before loop ends.
func (b *Block) Preds() []*Block { return b.preds }

// Succs returns the successor blocks.
func (b *Block) Succs() []*Block { return b.succs }

// IsLoopHeader returns true if the block begins with a LoopBegin.
func (b *Block) IsLoopHeader() bool { return b.loopHeader }

// ControlFlowGraph is a snapshot of the block structure of a Graph. It is invalid
// once the control flow of the graph changes.
type ControlFlowGraph struct {
	blocks  []*Block
	blockOf map[NodeID]*Block
	doms    []*Block
	// loops maps a loop header to the IDs of the blocks in the loop body.
	loops map[*Block]*intsets.Sparse
}

// ComputeCFG builds the blocks, dominators and natural loops of g.
func ComputeCFG(g *Graph) *ControlFlowGraph {
	cfg := &ControlFlowGraph{blockOf: map[NodeID]*Block{}, loops: map[*Block]*intsets.Sparse{}}
	var all []*Block
	var blockAt func(begin *Node) *Block
	blockAt = func(begin *Node) *Block {
		if b, ok := cfg.blockOf[begin.id]; ok {
			return b
		}
		b := &Block{begin: begin, loopHeader: begin.is(OpcodeLoopBegin), reversePost: -1}
		all = append(all, b)
		n := begin
		for {
			cfg.blockOf[n.id] = b
			if !n.op.IsFixedWithNext() {
				break
			}
			next := n.Next()
			if next == nil || next.op.IsBegin() {
				if next != nil && next.op.IsMerge() {
					panic("BUG: merge " + next.String() + " linked as the next of " + n.String())
				}
				break
			}
			n = next
		}
		b.end = n
		return b
	}

	stack := []*Node{g.Start()}
	for len(stack) > 0 {
		begin := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := cfg.blockOf[begin.id]; ok {
			continue
		}
		b := blockAt(begin)
		switch end := b.end; {
		case end.is(OpcodeIf):
			for i := len(end.succs) - 1; i >= 0; i-- {
				if s := end.Successor(i); s != nil {
					stack = append(stack, s)
				}
			}
		case end.op.IsEnd():
			if m := end.Merge(); m != nil {
				stack = append(stack, m)
			}
		case end.op.IsFixedWithNext():
			// A begin without a split, such as a LoopExit hoisted above its If.
			if next := end.Next(); next != nil {
				stack = append(stack, next)
			}
		}
	}
	for _, b := range all {
		switch end := b.end; {
		case end.is(OpcodeIf):
			for _, s := range end.Successors() {
				b.succs = append(b.succs, cfg.blockOf[s.id])
			}
		case end.op.IsEnd():
			if m := end.Merge(); m != nil {
				b.succs = append(b.succs, cfg.blockOf[m.id])
			}
		case end.op.IsFixedWithNext():
			if next := end.Next(); next != nil {
				b.succs = append(b.succs, cfg.blockOf[next.id])
			}
		}
		if b.begin.op.IsMerge() {
			for _, e := range b.begin.ForwardEnds() {
				b.preds = append(b.preds, cfg.blockOf[e.id])
			}
			for _, e := range b.begin.LoopEnds() {
				b.preds = append(b.preds, cfg.blockOf[e.id])
			}
		} else if p := b.begin.Predecessor(); p != nil {
			b.preds = append(b.preds, cfg.blockOf[p.id])
		}
	}
	cfg.computeReversePostOrder(all)
	cfg.computeDominators()
	cfg.computeLoops()
	return cfg
}

// Blocks returns the reachable blocks in reverse postorder.
func (cfg *ControlFlowGraph) Blocks() []*Block { return cfg.blocks }

// BlockOf returns the block containing the fixed node n, or nil if n is unreachable.
func (cfg *ControlFlowGraph) BlockOf(n *Node) *Block { return cfg.blockOf[n.id] }

func (cfg *ControlFlowGraph) computeReversePostOrder(all []*Block) {
	if len(all) == 0 {
		return
	}
	const unseen, seen, done = 0, 1, 2
	state := map[*Block]int{}
	order := make([]*Block, 0, len(all))
	explore := []*Block{all[0]}
	state[all[0]] = seen
	for len(explore) > 0 {
		tail := len(explore) - 1
		b := explore[tail]
		explore = explore[:tail]
		switch state[b] {
		case seen:
			// Revisit b once all of its successors are done.
			explore = append(explore, b)
			for i := len(b.succs) - 1; i >= 0; i-- {
				if s := b.succs[i]; state[s] == unseen {
					state[s] = seen
					explore = append(explore, s)
				}
			}
			state[b] = done
		case done:
			order = append(order, b)
		}
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	for i, b := range order {
		b.id, b.reversePost = i, i
	}
	cfg.blocks = order
}

// computeDominators is "A Simple, Fast Dominance Algorithm" by Cooper, Harvey and Kennedy.
func (cfg *ControlFlowGraph) computeDominators() {
	if len(cfg.blocks) == 0 {
		return
	}
	doms := make([]*Block, len(cfg.blocks))
	entry := cfg.blocks[0]
	doms[entry.id] = entry
	for changed := true; changed; {
		changed = false
		for _, b := range cfg.blocks[1:] {
			var u *Block
			for _, p := range b.preds {
				// Unreachable or not yet processed.
				if p == nil || p.reversePost < 0 || doms[p.id] == nil {
					continue
				}
				if u == nil {
					u = p
				} else {
					u = intersect(doms, u, p)
				}
			}
			if doms[b.id] != u {
				doms[b.id] = u
				changed = true
			}
		}
	}
	cfg.doms = doms
}

func intersect(doms []*Block, b1, b2 *Block) *Block {
	f1, f2 := b1, b2
	for f1 != f2 {
		for f1.reversePost > f2.reversePost {
			f1 = doms[f1.id]
		}
		for f2.reversePost > f1.reversePost {
			f2 = doms[f2.id]
		}
	}
	return f1
}

// Dominator returns the immediate dominator of b, or nil for the entry block.
func (cfg *ControlFlowGraph) Dominator(b *Block) *Block {
	if b.id == 0 {
		return nil
	}
	return cfg.doms[b.id]
}

// Dominates returns true if every path from the entry to b passes through a.
func (cfg *ControlFlowGraph) Dominates(a, b *Block) bool {
	for cur := b; cur != nil; cur = cfg.Dominator(cur) {
		if cur == a {
			return true
		}
	}
	return false
}

func (cfg *ControlFlowGraph) computeLoops() {
	for _, h := range cfg.blocks {
		if !h.loopHeader {
			continue
		}
		body := &intsets.Sparse{}
		body.Insert(h.id)
		var work []*Block
		for _, p := range h.preds {
			if p != nil && p.end.is(OpcodeLoopEnd) {
				work = append(work, p)
			}
		}
		for len(work) > 0 {
			b := work[len(work)-1]
			work = work[:len(work)-1]
			if !body.Insert(b.id) {
				continue
			}
			for _, p := range b.preds {
				if p != nil && p.reversePost >= 0 {
					work = append(work, p)
				}
			}
		}
		cfg.loops[h] = body
	}
}

// InLoop returns true if b belongs to the body of the loop headed by header.
func (cfg *ControlFlowGraph) InLoop(b, header *Block) bool {
	body, ok := cfg.loops[header]
	return ok && body.Has(b.id)
}

// LoopHeaders returns the loop header blocks in reverse postorder.
func (cfg *ControlFlowGraph) LoopHeaders() []*Block {
	var ret []*Block
	for _, b := range cfg.blocks {
		if b.loopHeader {
			ret = append(ret, b)
		}
	}
	return ret
}
