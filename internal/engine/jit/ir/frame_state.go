package ir

import "fmt"

func (n *Node) mustBeFrameState() {
	if !n.is(OpcodeFrameState) {
		panic("BUG: not a frame state: " + n.String())
	}
}

// LocalsSize returns the number of local slots of a frame state.
func (n *Node) LocalsSize() int {
	n.mustBeFrameState()
	return int(n.frame.locals)
}

// StackSize returns the number of operand stack slots of a frame state.
func (n *Node) StackSize() int {
	n.mustBeFrameState()
	return int(n.frame.stack)
}

// LocksSize returns the number of monitors held in a frame state.
func (n *Node) LocksSize() int {
	n.mustBeFrameState()
	return int(n.frame.locks)
}

// LocalAt returns the value of local i, nil for dead or second-slot locals.
func (n *Node) LocalAt(i int) *Node {
	if i < 0 || i >= n.LocalsSize() {
		panic(fmt.Sprintf("BUG: local %d out of range in %s", i, n))
	}
	return n.Input(i)
}

// StackAt returns the value of operand stack slot i.
func (n *Node) StackAt(i int) *Node {
	if i < 0 || i >= n.StackSize() {
		panic(fmt.Sprintf("BUG: stack slot %d out of range in %s", i, n))
	}
	return n.Input(int(n.frame.locals) + i)
}

// LockAt returns the object locked by monitor i.
func (n *Node) LockAt(i int) *Node {
	if i < 0 || i >= n.LocksSize() {
		panic(fmt.Sprintf("BUG: lock %d out of range in %s", i, n))
	}
	return n.Input(int(n.frame.locals) + int(n.frame.stack) + i)
}

// Duplicate returns a copy of the frame state sharing all values.
func (n *Node) Duplicate() *Node {
	return n.DuplicateReplacing(nil, nil)
}

// DuplicateReplacing returns a copy of the frame state where every occurrence of
// old is replaced by cur.
func (n *Node) DuplicateReplacing(old, cur *Node) *Node {
	n.mustBeFrameState()
	dup := n.g.add(OpcodeFrameState, n.stamp, n.payload)
	for _, id := range n.inputs {
		v := n.g.Node(id)
		if old != nil && v == old {
			v = cur
		}
		dup.AddInput(v)
	}
	return dup
}
