package ir

import (
	"golang.org/x/tools/container/intsets"
)

// maxFrameStateSearchDepth bounds the number of splits checkFrameState looks through.
const maxFrameStateSearchDepth = 4

// PrevBegin returns the closest begin node dominating n in its block, n included.
func PrevBegin(n *Node) *Node {
	for cur := n; cur != nil; cur = cur.Predecessor() {
		if cur.op.IsBegin() {
			return cur
		}
	}
	return nil
}

// anchored returns the nodes using n through their guard edge.
func (n *Node) anchored() []*Node {
	var ret []*Node
	for _, u := range n.Usages() {
		if u.edges[edgeGuard] == n.id {
			ret = append(ret, u)
		}
	}
	return ret
}

// prepareDelete moves the nodes anchored at the begin node n to the block
// starting at the begin node dominating from.
func (n *Node) prepareDelete(from *Node) {
	anchored := n.anchored()
	if len(anchored) == 0 {
		return
	}
	target := PrevBegin(from)
	if target == nil || target == n {
		panic("BUG: no begin to evacuate the anchored usages of " + n.String())
	}
	for _, u := range anchored {
		u.SetGuard(target)
	}
}

// unlinkFixed removes n from the control flow, connecting its predecessor to its next.
func unlinkFixed(n *Node) {
	next := n.Next()
	n.SetNext(nil)
	n.ReplaceAtPredecessor(next)
}

// RemoveFixed deletes the fixed-with-next node n, which must not be used by
// anything but anchored nodes.
func (g *Graph) RemoveFixed(n *Node) {
	if n.op.IsBegin() {
		n.prepareDelete(n.Predecessor())
	}
	unlinkFixed(n)
	n.SafeDelete()
}

// ReplaceFixedWithFixed puts replacement, which is not linked yet, in place of n
// and deletes n.
func (g *Graph) ReplaceFixedWithFixed(n, replacement *Node) {
	next := n.Next()
	n.SetNext(nil)
	replacement.SetNext(next)
	wasStart := g.start == n.id
	n.ReplaceAndDelete(replacement)
	if wasStart {
		g.SetStart(replacement)
	}
}

// ReplaceFixedWithFloating removes n from the control flow and makes its
// usages use the floating replacement.
func (g *Graph) ReplaceFixedWithFloating(n, replacement *Node) {
	unlinkFixed(n)
	n.ReplaceAtUsages(replacement)
	n.SafeDelete()
}

// RemoveSplit deletes the split node and links its predecessor to survivor.
// The other successors are left detached.
func (g *Graph) RemoveSplit(split, survivor *Node) {
	split.ClearSuccessors()
	split.ReplaceAtPredecessor(survivor)
	split.SafeDelete()
}

// RemoveSplitPropagate is RemoveSplit followed by the removal of the code only
// reachable from the other successors.
func (g *Graph) RemoveSplitPropagate(split, survivor *Node) {
	others := split.Successors()
	g.RemoveSplit(split, survivor)
	for _, s := range others {
		if s != survivor && s.IsAlive() {
			g.KillCFG(s)
		}
	}
}

// AddAfterFixed links the unlinked fixed-with-next node newNode right after n.
func (g *Graph) AddAfterFixed(n, newNode *Node) {
	next := n.Next()
	n.SetNext(newNode)
	newNode.SetNext(next)
}

// AddBeforeFixed links the unlinked fixed-with-next node newNode right before n.
func (g *Graph) AddBeforeFixed(n, newNode *Node) {
	pred := n.Predecessor()
	if pred == nil {
		panic("BUG: adding a node before " + n.String() + " which has no predecessor")
	}
	pred.ReplaceFirstSuccessor(n, newNode)
	newNode.SetNext(n)
}

// removeExits turns the exits of loopBegin into plain begins, replacing their
// proxies with the proxied values.
func (g *Graph) removeExits(loopBegin *Node) {
	for _, exit := range loopBegin.LoopExits() {
		for _, proxy := range exit.Proxies() {
			proxy.ReplaceAtUsages(proxy.ProxyValue())
			proxy.SafeDelete()
		}
		state := exit.StateAfter()
		exit.SetInput(0, nil)
		g.ReplaceFixedWithFixed(exit, g.Begin())
		if state != nil {
			TryKillUnused(state)
		}
	}
}

// ReduceTrivialMerge removes a merge with a single predecessor, replacing its
// phis with their only value.
func (g *Graph) ReduceTrivialMerge(merge *Node) {
	if merge.PhiPredecessorCount() != 1 || merge.ForwardEndCount() != 1 {
		panic("BUG: merge is not trivial: " + merge.String())
	}
	for _, phi := range merge.Phis() {
		v := phi.ValueAt(0)
		if phi.HasUsages() {
			phi.ReplaceAtUsages(v)
			phi.SafeDelete()
		} else {
			phi.SafeDelete()
			TryKillUnused(v)
		}
	}
	if merge.is(OpcodeLoopBegin) {
		g.removeExits(merge)
	}
	end := merge.ForwardEndAt(0)
	sux := merge.Next()
	merge.SetNext(nil)
	merge.prepareDelete(end.Predecessor())
	state := merge.StateAfter()
	merge.SafeDelete()
	if state != nil {
		TryKillUnused(state)
	}
	if sux == nil {
		end.ReplaceAtPredecessor(nil)
		end.SafeDelete()
	} else {
		end.ReplaceAndDelete(sux)
	}
}

// ReduceDegenerateLoopBegin turns a loop without back edges into a merge, or
// removes it if it has a single predecessor.
func (g *Graph) ReduceDegenerateLoopBegin(loopBegin *Node) {
	if len(loopBegin.LoopEnds()) != 0 {
		panic("BUG: loop still has back edges: " + loopBegin.String())
	}
	if loopBegin.ForwardEndCount() == 1 {
		g.ReduceTrivialMerge(loopBegin)
		return
	}
	g.removeExits(loopBegin)
	merge := g.Merge()
	for _, end := range loopBegin.ForwardEnds() {
		merge.AddForwardEnd(end)
	}
	merge.SetStateAfter(loopBegin.StateAfter())
	loopBegin.SetStateAfter(nil)
	g.ReplaceFixedWithFixed(loopBegin, merge)
}

// ShouldKillUnused returns true for a live floating node nothing uses anymore.
// Guards are only removed together with their anchor.
func ShouldKillUnused(n *Node) bool {
	return n.IsAlive() && !n.op.IsFixed() && n.HasNoUsages() && !n.is(OpcodeGuard)
}

// TryKillUnused deletes n and its transitively unused floating inputs if n is unused.
func TryKillUnused(n *Node) bool {
	if ShouldKillUnused(n) {
		KillWithUnusedFloatingInputs(n)
		return true
	}
	return false
}

// isDegeneratedPhi returns true for a phi that only feeds itself.
func isDegeneratedPhi(n *Node) bool {
	if !n.is(OpcodePhi) {
		return false
	}
	for _, u := range n.Usages() {
		if u != n {
			return false
		}
	}
	return true
}

// KillWithUnusedFloatingInputs deletes n, which must be unused and detached
// from the control flow, together with every floating input left unused.
func KillWithUnusedFloatingInputs(n *Node) {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !cur.IsAlive() {
			continue
		}
		if cur.HasUsages() || cur.pred != nilNode {
			panic("BUG: cannot kill " + cur.String() + " which is still in use")
		}
		var inputs []*Node
		cur.forEachInput(func(in *Node) { inputs = append(inputs, in) })
		cur.ClearInputs()
		cur.ClearSuccessors()
		cur.markDeleted()
		for _, in := range inputs {
			if !in.IsAlive() || in.op.IsFixed() {
				continue
			}
			switch {
			case in.HasNoUsages():
				if in.is(OpcodeGuard) {
					continue
				}
			case isDegeneratedPhi(in):
				in.ReplaceAtUsages(nil)
			default:
				continue
			}
			stack = append(stack, in)
		}
	}
}

// killState collects the nodes a KillCFG removes.
type killState struct {
	marked intsets.Sparse
	// mergeOrder keeps the surviving merges in discovery order.
	mergeOrder []*Node
	endsSeen   map[NodeID][]*Node
}

func (k *killState) mark(n *Node) { k.marked.Insert(int(n.id)) }

func (k *killState) isMarked(n *Node) bool { return k.marked.Has(int(n.id)) }

// KillCFG deletes the fixed node n and everything only reachable from it,
// fixing up the merges that lose some but not all of their predecessors.
func (g *Graph) KillCFG(n *Node) {
	n.ReplaceAtPredecessor(nil)
	k := &killState{endsSeen: map[NodeID][]*Node{}}
	k.markFixedNodes(n)
	k.fixSurvivingAffectedMerges(g)
	k.markUsages(g)

	ids := k.marked.AppendTo(nil)
	for _, id := range ids {
		m := g.Node(NodeID(id))
		var outside []*Node
		m.forEachInput(func(in *Node) {
			if !k.isMarked(in) {
				outside = append(outside, in)
			}
		})
		for _, in := range outside {
			m.ReplaceAllInputs(in, nil)
			TryKillUnused(in)
		}
	}
	for _, id := range ids {
		if m := g.Node(NodeID(id)); m.IsAlive() {
			m.markDeleted()
		}
	}
}

func (k *killState) markFixedNodes(start *Node) {
	stack := []*Node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		k.mark(n)
		if n.op.IsMerge() {
			delete(k.endsSeen, n.id)
		}
		for n != nil && n.op.IsFixedWithNext() {
			n = n.Next()
			if n != nil {
				k.mark(n)
			}
		}
		switch {
		case n == nil:
		case n.is(OpcodeIf):
			stack = append(stack, n.Successors()...)
		case n.op.IsEnd():
			merge := n.Merge()
			if merge == nil {
				continue
			}
			if merge.is(OpcodeLoopBegin) {
				if n.is(OpcodeEnd) {
					stack = append(stack, merge)
					continue
				}
				if k.isMarked(merge) {
					continue
				}
			}
			seen, ok := k.endsSeen[merge.id]
			if !ok {
				k.mergeOrder = append(k.mergeOrder, merge)
			}
			seen = append(seen, n)
			k.endsSeen[merge.id] = seen
			if n.is(OpcodeEnd) && len(seen) == merge.ForwardEndCount() {
				stack = append(stack, merge)
			}
		}
	}
}

func (k *killState) fixSurvivingAffectedMerges(g *Graph) {
	for _, merge := range k.mergeOrder {
		ends, ok := k.endsSeen[merge.id]
		if !ok {
			continue
		}
		for _, end := range ends {
			merge.RemoveEnd(end)
		}
		if merge.PhiPredecessorCount() != 1 {
			continue
		}
		if merge.is(OpcodeLoopBegin) {
			for _, exit := range merge.LoopExits() {
				if k.isMarked(exit) {
					exit.SetInput(0, nil)
				}
			}
			g.ReduceDegenerateLoopBegin(merge)
		} else {
			g.ReduceTrivialMerge(merge)
		}
	}
}

func (k *killState) markUsages(g *Graph) {
	stack := make([]*Node, 0, k.marked.Len())
	for _, id := range k.marked.AppendTo(nil) {
		stack = append(stack, g.Node(NodeID(id)))
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, u := range n.Usages() {
			if !k.isMarked(u) {
				k.mark(u)
				stack = append(stack, u)
			}
		}
	}
}

// checkFrameState returns true if every path from start reaches a frame state
// or a sink within maxDepth splits.
func checkFrameState(start *Node, maxDepth int) bool {
	if maxDepth == 0 {
		return false
	}
	for n := start; n != nil; {
		switch {
		case n.op.IsMerge():
			return n.StateAfter() != nil
		case n.op.IsStateSplit() && n.StateAfter() != nil:
			return true
		}
		switch {
		case n.is(OpcodeIf):
			for _, s := range n.Successors() {
				if checkFrameState(s, maxDepth-1) {
					return true
				}
			}
			return false
		case n.op.IsFixedWithNext():
			n = n.Next()
		case n.op.IsEnd():
			n = n.Merge()
		case n.op.has(opSink):
			return true
		default:
			return false
		}
	}
	return false
}

// MayRemoveSplit returns true if both successors of the If find a frame state to
// deoptimize to once the split is gone.
func MayRemoveSplit(ifNode *Node) bool {
	return checkFrameState(ifNode.TrueSuccessor(), maxFrameStateSearchDepth) &&
		checkFrameState(ifNode.FalseSuccessor(), maxFrameStateSearchDepth)
}
