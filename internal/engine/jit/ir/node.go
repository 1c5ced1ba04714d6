package ir

import (
	"fmt"
	"strconv"

	"golang.org/x/tools/container/intsets"
)

// NodeID is a stable handle of a Node within its Graph. IDs are never reused.
type NodeID uint32

// nilNode is the absent node. Slot 0 of every graph arena is reserved for it.
const nilNode NodeID = 0

// String implements fmt.Stringer.
func (id NodeID) String() string { return "n" + strconv.Itoa(int(id)) }

type edgeSlot byte

const (
	edgeStateAfter edgeSlot = iota
	edgeStateDuring
	edgeGuard
	edgeCount
)

type nodeFlags uint16

const (
	flagNegated nodeFlags = 1 << iota
	flagXNegated
	flagYNegated
	flagUnsigned
	flagAllowsNull
	flagPolymorphic
	flagCanDeopt
	flagTrue
	flagVolatile
)

// frameLayout is the shape of a FrameState: its inputs are locals, then stack
// slots, then locked objects.
type frameLayout struct {
	locals, stack, locks uint16
}

// payload holds the non-edge data of a Node. Its meaning depends on the Opcode.
// payload is comparable so that it can be part of a value-numbering key.
type payload struct {
	c       int64
	c2      int64
	flags   nodeFlags
	kind    JavaKind
	prob    BranchProbability
	loc     LocationIdentity
	barrier BarrierType
	order   MemoryOrder
	reason  DeoptReason
	action  DeoptAction
	exKind  BytecodeExceptionKind
	invoke  InvokeKind
	frame   frameLayout
	typ     *Type
	method  *Method
	field   *Field
	call    *ForeignCallDescriptor
	tag     string
}

// Node is a vertex of the graph. Since Go doesn't have union types, a single
// flattened struct is used for all kinds of nodes and each payload field has a
// different meaning depending on Opcode.
type Node struct {
	g     *Graph
	id    NodeID
	op    Opcode
	dead  bool
	stamp Stamp
	payload

	inputs []NodeID
	edges  [edgeCount]NodeID
	succs  []NodeID
	pred   NodeID
	// usages holds the IDs of the nodes having this node as an input.
	usages intsets.Sparse
}

func idOf(n *Node) NodeID {
	if n == nil {
		return nilNode
	}
	return n.id
}

// ID returns the handle of this node.
func (n *Node) ID() NodeID { return n.id }

// Opcode returns the kind of this node.
func (n *Node) Opcode() Opcode { return n.op }

// Graph returns the graph owning this node.
func (n *Node) Graph() *Graph { return n.g }

// IsAlive returns false once the node has been deleted.
func (n *Node) IsAlive() bool { return n != nil && !n.dead }

// Stamp returns the abstract value of this node.
func (n *Node) Stamp() Stamp { return n.stamp }

// SetStamp replaces the abstract value of this node.
func (n *Node) SetStamp(s Stamp) { n.stamp = s }

// String implements fmt.Stringer.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s|%s", n.id, n.op)
}

func (n *Node) is(op Opcode) bool { return n != nil && n.op == op }

func (n *Node) has(f nodeFlags) bool { return n.flags&f != 0 }

func (n *Node) setFlag(f nodeFlags, on bool) {
	if on {
		n.flags |= f
	} else {
		n.flags &^= f
	}
}

// ---- inputs ----

// InputCount returns the number of positional inputs.
func (n *Node) InputCount() int { return len(n.inputs) }

// Input returns the i-th positional input, which may be nil.
func (n *Node) Input(i int) *Node { return n.g.Node(n.inputs[i]) }

// Inputs returns all non-nil positional inputs.
func (n *Node) Inputs() []*Node {
	ret := make([]*Node, 0, len(n.inputs))
	for _, id := range n.inputs {
		if id != nilNode {
			ret = append(ret, n.g.Node(id))
		}
	}
	return ret
}

// SetInput replaces the i-th positional input.
func (n *Node) SetInput(i int, v *Node) {
	old := n.inputs[i]
	n.inputs[i] = idOf(v)
	n.inputChanged(old, n.inputs[i])
}

// AddInput appends a positional input.
func (n *Node) AddInput(v *Node) {
	n.inputs = append(n.inputs, idOf(v))
	n.inputChanged(nilNode, idOf(v))
}

// RemoveInputAt removes the i-th positional input, shifting the following ones.
func (n *Node) RemoveInputAt(i int) {
	old := n.inputs[i]
	n.inputs = append(n.inputs[:i], n.inputs[i+1:]...)
	n.inputChanged(old, nilNode)
}

func (n *Node) edge(e edgeSlot) *Node { return n.g.Node(n.edges[e]) }

func (n *Node) setEdge(e edgeSlot, v *Node) {
	old := n.edges[e]
	n.edges[e] = idOf(v)
	n.inputChanged(old, n.edges[e])
}

// StateAfter returns the frame state describing the state after this node's side effect.
func (n *Node) StateAfter() *Node { return n.edge(edgeStateAfter) }

// SetStateAfter sets the frame state after this node.
func (n *Node) SetStateAfter(fs *Node) { n.setEdge(edgeStateAfter, fs) }

// StateDuring returns the frame state used to deoptimize while this node executes.
func (n *Node) StateDuring() *Node { return n.edge(edgeStateDuring) }

// SetStateDuring sets the frame state during this node.
func (n *Node) SetStateDuring(fs *Node) { n.setEdge(edgeStateDuring, fs) }

// Guard returns the node guarding this one: a guard, or the anchoring begin node.
func (n *Node) Guard() *Node { return n.edge(edgeGuard) }

// SetGuard sets the guarding node.
func (n *Node) SetGuard(g *Node) { n.setEdge(edgeGuard, g) }

// references returns true if id is any input or edge of n.
func (n *Node) references(id NodeID) bool {
	for _, in := range n.inputs {
		if in == id {
			return true
		}
	}
	for _, in := range n.edges {
		if in == id {
			return true
		}
	}
	return false
}

func (n *Node) inputChanged(old, cur NodeID) {
	if old == cur {
		return
	}
	if old != nilNode && !n.references(old) {
		n.g.Node(old).usages.Remove(int(n.id))
	}
	if cur != nilNode {
		n.g.Node(cur).usages.Insert(int(n.id))
	}
	n.g.notifyChanged(n.id, old, cur)
}

// forEachInput calls fn for every non-nil input and edge, in order.
func (n *Node) forEachInput(fn func(in *Node)) {
	for _, id := range n.inputs {
		if id != nilNode {
			fn(n.g.Node(id))
		}
	}
	for _, id := range n.edges {
		if id != nilNode {
			fn(n.g.Node(id))
		}
	}
}

// ReplaceAllInputs replaces every occurrence of old among the inputs and edges of n.
func (n *Node) ReplaceAllInputs(old, cur *Node) {
	oldID, curID := idOf(old), idOf(cur)
	if oldID == curID {
		return
	}
	changed := false
	for i, id := range n.inputs {
		if id == oldID {
			n.inputs[i] = curID
			changed = true
		}
	}
	for i, id := range n.edges {
		if id == oldID {
			n.edges[i] = curID
			changed = true
		}
	}
	if changed {
		old.usages.Remove(int(n.id))
		if cur != nil {
			cur.usages.Insert(int(n.id))
		}
		n.g.notifyChanged(n.id, oldID, curID)
	}
}

// ReplaceFirstInput replaces the first positional occurrence of old.
func (n *Node) ReplaceFirstInput(old, cur *Node) {
	for i, id := range n.inputs {
		if id == old.id {
			n.SetInput(i, cur)
			return
		}
	}
}

// ClearInputs detaches all inputs and edges.
func (n *Node) ClearInputs() {
	for i := range n.inputs {
		n.SetInput(i, nil)
	}
	n.inputs = n.inputs[:0]
	for e := edgeSlot(0); e < edgeCount; e++ {
		n.setEdge(e, nil)
	}
}

// ---- usages ----

// Usages returns the nodes using this node, ordered by ID.
func (n *Node) Usages() []*Node {
	ids := n.usages.AppendTo(nil)
	ret := make([]*Node, len(ids))
	for i, id := range ids {
		ret[i] = n.g.Node(NodeID(id))
	}
	return ret
}

// UsageCount returns the number of distinct users.
func (n *Node) UsageCount() int { return n.usages.Len() }

// HasNoUsages returns true if nothing uses this node.
func (n *Node) HasNoUsages() bool { return n.usages.IsEmpty() }

// HasUsages returns true if something uses this node.
func (n *Node) HasUsages() bool { return !n.usages.IsEmpty() }

// HasExactlyOneUsage returns true if exactly one node uses this node.
func (n *Node) HasExactlyOneUsage() bool { return n.usages.Len() == 1 }

// SingleUsage returns the only user, or nil.
func (n *Node) SingleUsage() *Node {
	if n.usages.Len() != 1 {
		return nil
	}
	return n.g.Node(NodeID(n.usages.Min()))
}

// IsUsedBy returns true if u has n as an input.
func (n *Node) IsUsedBy(u *Node) bool { return n.usages.Has(int(u.id)) }

// ReplaceAtUsages makes every user of n use other instead (nil detaches).
func (n *Node) ReplaceAtUsages(other *Node) {
	n.ReplaceAtUsagesIf(other, nil)
}

// ReplaceAtUsagesIf is ReplaceAtUsages restricted to users accepted by filter.
func (n *Node) ReplaceAtUsagesIf(other *Node, filter func(*Node) bool) {
	if other == n {
		return
	}
	for _, u := range n.Usages() {
		if filter == nil || filter(u) {
			u.ReplaceAllInputs(n, other)
		}
	}
}

// ---- control flow ----

// Predecessor returns the control flow predecessor of a fixed node.
func (n *Node) Predecessor() *Node { return n.g.Node(n.pred) }

// SuccessorCount returns the number of successor slots.
func (n *Node) SuccessorCount() int { return len(n.succs) }

// Successor returns the i-th successor, which may be nil.
func (n *Node) Successor(i int) *Node { return n.g.Node(n.succs[i]) }

// Successors returns all non-nil successors.
func (n *Node) Successors() []*Node {
	ret := make([]*Node, 0, len(n.succs))
	for _, id := range n.succs {
		if id != nilNode {
			ret = append(ret, n.g.Node(id))
		}
	}
	return ret
}

// SetSuccessor sets the i-th successor and updates predecessor links. The new
// successor must not have a predecessor yet.
func (n *Node) SetSuccessor(i int, s *Node) {
	old := n.succs[i]
	if o := n.g.Node(old); o != nil && o.pred == n.id {
		o.pred = nilNode
	}
	n.succs[i] = idOf(s)
	if s != nil {
		if s.pred != nilNode {
			panic(fmt.Sprintf("BUG: %s already has predecessor %s", s, s.Predecessor()))
		}
		s.pred = n.id
	}
	if old != n.succs[i] {
		n.g.notifyChanged(n.id, old, n.succs[i])
	}
}

// Next returns the successor of a fixed-with-next node.
func (n *Node) Next() *Node {
	if !n.op.IsFixedWithNext() {
		panic("BUG: Next on " + n.String())
	}
	return n.Successor(0)
}

// SetNext sets the successor of a fixed-with-next node.
func (n *Node) SetNext(s *Node) {
	if !n.op.IsFixedWithNext() {
		panic("BUG: SetNext on " + n.String())
	}
	n.SetSuccessor(0, s)
}

// ReplaceFirstSuccessor replaces the slot holding old with cur.
func (n *Node) ReplaceFirstSuccessor(old, cur *Node) {
	for i, id := range n.succs {
		if id == old.id {
			n.SetSuccessor(i, cur)
			return
		}
	}
}

// ReplaceAtPredecessor links the predecessor of n to other instead of n.
func (n *Node) ReplaceAtPredecessor(other *Node) {
	if p := n.Predecessor(); p != nil {
		p.ReplaceFirstSuccessor(n, other)
	}
}

// ClearSuccessors detaches all successors.
func (n *Node) ClearSuccessors() {
	for i := range n.succs {
		n.SetSuccessor(i, nil)
	}
}

// SafeDelete deletes a node that has no usages and no predecessor.
func (n *Node) SafeDelete() {
	if n.HasUsages() {
		panic(fmt.Sprintf("BUG: deleting %s which is still used by %v", n, n.Usages()))
	}
	if n.pred != nilNode {
		panic(fmt.Sprintf("BUG: deleting %s which still has predecessor %s", n, n.Predecessor()))
	}
	n.ClearInputs()
	n.ClearSuccessors()
	n.markDeleted()
}

// ReplaceAndDelete replaces n with other at its usages and predecessor, then deletes n.
func (n *Node) ReplaceAndDelete(other *Node) {
	n.ReplaceAtUsages(other)
	n.ReplaceAtPredecessor(other)
	n.SafeDelete()
}

func (n *Node) markDeleted() {
	if n.dead {
		panic("BUG: deleting " + n.String() + " twice")
	}
	n.dead = true
	n.usages.Clear()
	n.g.live--
}

// ---- payload accessors ----

// AsInt returns the value of an integer constant.
func (n *Node) AsInt() int64 {
	if n.op != OpcodeConstant || !n.stamp.IsInt() {
		panic("BUG: AsInt on " + n.String())
	}
	return n.c
}

// IsConstant returns true for Constant nodes.
func (n *Node) IsConstant() bool { return n.is(OpcodeConstant) }

// IsIntConstant returns true for integer Constant nodes.
func (n *Node) IsIntConstant() bool { return n.is(OpcodeConstant) && n.stamp.IsInt() }

// IsNullConstant returns true for the null reference constant.
func (n *Node) IsNullConstant() bool { return n.is(OpcodeConstant) && n.stamp.AlwaysNull() }

// IsDefaultConstant returns true for null and for integer zero.
func (n *Node) IsDefaultConstant() bool {
	return n.IsNullConstant() || (n.IsIntConstant() && n.c == 0)
}

// LogicValue returns the value of a LogicConstant.
func (n *Node) LogicValue() bool {
	if n.op != OpcodeLogicConstant {
		panic("BUG: LogicValue on " + n.String())
	}
	return n.has(flagTrue)
}

// Index returns the index payload of Parameter, OSRLocal and OSRLock nodes.
func (n *Node) Index() int { return int(n.c) }

// LockDepth returns the lock depth of monitor nodes.
func (n *Node) LockDepth() int { return int(n.c) }

// ProfileData returns the branch probability of an If.
func (n *Node) ProfileData() BranchProbability { return n.prob }

// TrueSuccessorProbability returns the probability of the true successor of an If.
func (n *Node) TrueSuccessorProbability() float64 { return n.prob.P }

// SetTrueSuccessorProbability replaces the branch probability of an If.
func (n *Node) SetTrueSuccessorProbability(p BranchProbability) { n.prob = p }

// Location returns the location identity of a memory access.
func (n *Node) Location() LocationIdentity { return n.loc }

// Barrier returns the barrier type of a memory access.
func (n *Node) Barrier() BarrierType { return n.barrier }

// MemoryOrder returns the ordering of a memory access.
func (n *Node) MemoryOrder() MemoryOrder { return n.order }

// Reason returns the deoptimization reason of a guard or Deoptimize.
func (n *Node) Reason() DeoptReason { return n.reason }

// Action returns the deoptimization action of a guard or Deoptimize.
func (n *Node) Action() DeoptAction { return n.action }

// IsNegated returns true for guards that fail when their condition holds.
func (n *Node) IsNegated() bool { return n.has(flagNegated) }

// IsUnsigned returns true for unsigned NormalizeCompare nodes.
func (n *Node) IsUnsigned() bool { return n.has(flagUnsigned) }

// AllowsNull returns true for InstanceOf nodes that accept null.
func (n *Node) AllowsNull() bool { return n.has(flagAllowsNull) }

// IsPolymorphic returns true for invokes whose receiver type profile saw more than one type.
func (n *Node) IsPolymorphic() bool { return n.has(flagPolymorphic) }

// SetPolymorphic marks an invoke as polymorphic.
func (n *Node) SetPolymorphic(v bool) { n.setFlag(flagPolymorphic, v) }

// CanDeopt returns true for fixed divisions that may still raise a deoptimization.
func (n *Node) CanDeopt() bool { return n.has(flagCanDeopt) }

// SetCanDeopt sets whether a fixed division may trap on a zero divisor.
func (n *Node) SetCanDeopt(v bool) { n.setFlag(flagCanDeopt, v) }

// IsVolatile returns true for volatile field accesses.
func (n *Node) IsVolatile() bool { return n.has(flagVolatile) }

// JavaKind returns the kind payload: element kind, boxed kind or local kind.
func (n *Node) JavaKind() JavaKind { return n.kind }

// TypeRef returns the type payload.
func (n *Node) TypeRef() *Type { return n.typ }

// Method returns the method payload.
func (n *Node) Method() *Method { return n.method }

// Field returns the field payload.
func (n *Node) Field() *Field { return n.field }

// ForeignCall returns the runtime routine of a ForeignCall.
func (n *Node) ForeignCall() *ForeignCallDescriptor { return n.call }

// ExtensionTag returns the external kind of an Extension node.
func (n *Node) ExtensionTag() string { return n.tag }

// ExceptionKind returns the kind of a BytecodeException.
func (n *Node) ExceptionKind() BytecodeExceptionKind { return n.exKind }

// InvokeKind returns the dispatch kind of a call target.
func (n *Node) InvokeKind() InvokeKind { return n.invoke }

// BCI returns the bytecode index of a FrameState.
func (n *Node) BCI() int { return int(n.c) }
