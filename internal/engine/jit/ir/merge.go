package ir

import (
	"fmt"
	"sort"
)

// ForwardEndCount returns the number of forward End nodes of a merge.
func (n *Node) ForwardEndCount() int {
	n.mustBeMerge()
	return len(n.inputs)
}

// ForwardEndAt returns the i-th forward End of a merge.
func (n *Node) ForwardEndAt(i int) *Node {
	n.mustBeMerge()
	return n.Input(i)
}

// ForwardEnds returns the forward End nodes of a merge in phi order.
func (n *Node) ForwardEnds() []*Node {
	n.mustBeMerge()
	return n.Inputs()
}

// ForwardEndIndex returns the position of end among the forward ends, or -1.
func (n *Node) ForwardEndIndex(end *Node) int {
	for i, id := range n.inputs {
		if id == end.id {
			return i
		}
	}
	return -1
}

// AddForwardEnd appends end to a merge. Phis must be extended by the caller.
func (n *Node) AddForwardEnd(end *Node) {
	n.mustBeMerge()
	if !end.is(OpcodeEnd) {
		panic("BUG: forward end must be an End: " + end.String())
	}
	n.AddInput(end)
}

// LoopEnds returns the back edges of a LoopBegin ordered by end index.
func (n *Node) LoopEnds() []*Node {
	if !n.is(OpcodeLoopBegin) {
		return nil
	}
	var ret []*Node
	for _, u := range n.Usages() {
		if u.is(OpcodeLoopEnd) && u.Input(0) == n {
			ret = append(ret, u)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].c < ret[j].c })
	return ret
}

// LoopExits returns the exits of a LoopBegin.
func (n *Node) LoopExits() []*Node {
	var ret []*Node
	for _, u := range n.Usages() {
		if u.is(OpcodeLoopExit) && u.Input(0) == n {
			ret = append(ret, u)
		}
	}
	return ret
}

// PhiPredecessorCount returns the number of values each phi of the merge has.
func (n *Node) PhiPredecessorCount() int {
	return n.ForwardEndCount() + len(n.LoopEnds())
}

// PhiPredecessorIndex returns the phi value index of the given End or LoopEnd.
func (n *Node) PhiPredecessorIndex(end *Node) int {
	if end.is(OpcodeLoopEnd) {
		return n.ForwardEndCount() + int(end.c)
	}
	if i := n.ForwardEndIndex(end); i >= 0 {
		return i
	}
	panic(fmt.Sprintf("BUG: %s is not an end of %s", end, n))
}

// Phis returns the phis of a merge ordered by ID.
func (n *Node) Phis() []*Node {
	var ret []*Node
	for _, u := range n.Usages() {
		if u.is(OpcodePhi) && u.inputs[0] == n.id {
			ret = append(ret, u)
		}
	}
	return ret
}

// Merge returns the merge an End or LoopEnd flows into.
func (n *Node) Merge() *Node {
	switch n.op {
	case OpcodeEnd:
		for _, u := range n.Usages() {
			if u.op.IsMerge() {
				return u
			}
		}
		return nil
	case OpcodeLoopEnd:
		return n.Input(0)
	case OpcodePhi:
		return n.Input(0)
	default:
		panic("BUG: Merge on " + n.String())
	}
}

// LoopBeginOf returns the loop left by a LoopExit or closed by a LoopEnd.
func (n *Node) LoopBeginOf() *Node {
	if !n.is(OpcodeLoopExit) && !n.is(OpcodeLoopEnd) {
		panic("BUG: LoopBeginOf on " + n.String())
	}
	return n.Input(0)
}

// RemoveEnd detaches end from the merge and drops the matching value of every phi.
func (n *Node) RemoveEnd(end *Node) {
	n.mustBeMerge()
	index := n.PhiPredecessorIndex(end)
	for _, phi := range n.Phis() {
		phi.RemoveInputAt(index + 1)
	}
	if end.is(OpcodeLoopEnd) {
		end.SetInput(0, nil)
		for _, le := range n.LoopEnds() {
			if le.c > end.c {
				le.c--
			}
		}
		return
	}
	n.RemoveInputAt(index)
}

func (n *Node) mustBeMerge() {
	if !n.op.IsMerge() {
		panic("BUG: not a merge: " + n.String())
	}
}

// ---- phis and proxies ----

// ValueCount returns the number of values of a phi.
func (n *Node) ValueCount() int {
	n.mustBePhi()
	return len(n.inputs) - 1
}

// ValueAt returns the i-th value of a phi.
func (n *Node) ValueAt(i int) *Node {
	n.mustBePhi()
	return n.Input(i + 1)
}

// Values returns the values of a phi.
func (n *Node) Values() []*Node {
	n.mustBePhi()
	ret := make([]*Node, len(n.inputs)-1)
	for i := range ret {
		ret[i] = n.Input(i + 1)
	}
	return ret
}

// SetValueAt replaces the i-th value of a phi.
func (n *Node) SetValueAt(i int, v *Node) {
	n.mustBePhi()
	n.SetInput(i+1, v)
}

// ValueAtEnd returns the value of a phi flowing in through end.
func (n *Node) ValueAtEnd(end *Node) *Node {
	return n.ValueAt(n.Merge().PhiPredecessorIndex(end))
}

// SetValueAtEnd replaces the value of a phi flowing in through end.
func (n *Node) SetValueAtEnd(end, v *Node) {
	n.SetValueAt(n.Merge().PhiPredecessorIndex(end), v)
}

// SingleValueOrThis returns the only distinct value of a phi, ignoring the phi
// itself, or the phi if it has several.
func (n *Node) SingleValueOrThis() *Node {
	var single *Node
	for _, v := range n.Values() {
		if v == n || v == single {
			continue
		}
		if single != nil {
			return n
		}
		single = v
	}
	if single == nil {
		return n
	}
	return single
}

func (n *Node) mustBePhi() {
	if !n.is(OpcodePhi) {
		panic("BUG: not a phi: " + n.String())
	}
}

// ProxyValue returns the proxied value of a ValueProxy.
func (n *Node) ProxyValue() *Node { return n.Input(0) }

// ProxyPoint returns the LoopExit of a ValueProxy.
func (n *Node) ProxyPoint() *Node { return n.Input(1) }

// Proxies returns the value proxies anchored at a LoopExit.
func (n *Node) Proxies() []*Node {
	var ret []*Node
	for _, u := range n.Usages() {
		if u.is(OpcodeValueProxy) && u.ProxyPoint() == n {
			ret = append(ret, u)
		}
	}
	return ret
}

// ---- if ----

// Condition returns the logic input of an If, FixedGuard or Guard.
func (n *Node) Condition() *Node { return n.Input(0) }

// SetCondition replaces the logic input of an If, FixedGuard or Guard.
func (n *Node) SetCondition(c *Node) { n.SetInput(0, c) }

// TrueSuccessor returns the true successor of an If.
func (n *Node) TrueSuccessor() *Node { return n.Successor(0) }

// FalseSuccessor returns the false successor of an If.
func (n *Node) FalseSuccessor() *Node { return n.Successor(1) }

// SetTrueSuccessor replaces the true successor of an If.
func (n *Node) SetTrueSuccessor(s *Node) { n.SetSuccessor(0, s) }

// SetFalseSuccessor replaces the false successor of an If.
func (n *Node) SetFalseSuccessor(s *Node) { n.SetSuccessor(1, s) }

// SuccessorFor returns the successor taken when the condition is v.
func (n *Node) SuccessorFor(v bool) *Node {
	if v {
		return n.TrueSuccessor()
	}
	return n.FalseSuccessor()
}

// SetProbabilityOf sets the probability of reaching successor s of an If.
func (n *Node) SetProbabilityOf(s *Node, p BranchProbability) bool {
	switch s {
	case n.TrueSuccessor():
		n.prob = p
		return true
	case n.FalseSuccessor():
		n.prob = p.Negated()
		return true
	}
	return false
}

// Result returns the returned value of a Return, or nil.
func (n *Node) Result() *Node {
	if !n.is(OpcodeReturn) {
		panic("BUG: Result on " + n.String())
	}
	return n.Input(0)
}
