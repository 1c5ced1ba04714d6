// Package ir is the sea-of-nodes graph the lowering and canonicalization code
// operates on: an arena of nodes with def-use tracking, value numbering of
// floating nodes, and the control flow editing primitives every rewrite uses.
package ir

import "fmt"

// GuardsStage tracks how far guards have been lowered.
type GuardsStage byte

const (
	// GuardsFloating means guards may float and frame states sit at side effects.
	GuardsFloating GuardsStage = iota
	// GuardsFixedDeopts means guards are fixed in the control flow.
	GuardsFixedDeopts
	// GuardsAfterFSA means frame states have been assigned to deoptimization points.
	GuardsAfterFSA
)

// String implements fmt.Stringer.
func (s GuardsStage) String() string {
	switch s {
	case GuardsFloating:
		return "FLOATING_GUARDS"
	case GuardsFixedDeopts:
		return "FIXED_DEOPTS"
	case GuardsAfterFSA:
		return "AFTER_FSA"
	default:
		panic("invalid guards stage")
	}
}

// AllowsFloatingGuards returns true while guards may still float.
func (s GuardsStage) AllowsFloatingGuards() bool { return s == GuardsFloating }

// AreDeoptsFixed returns true once every deoptimization is a fixed node.
func (s GuardsStage) AreDeoptsFixed() bool { return s >= GuardsFixedDeopts }

// AreFrameStatesAtDeopts returns true once frame states have moved to deoptimization points.
func (s GuardsStage) AreFrameStatesAtDeopts() bool { return s == GuardsAfterFSA }

// AreFrameStatesAtSideEffects returns true while frame states sit after side effects.
func (s GuardsStage) AreFrameStatesAtSideEffects() bool { return !s.AreFrameStatesAtDeopts() }

// StageFlag marks a pipeline milestone the graph has passed.
type StageFlag uint16

const (
	StageHighTierLowering StageFlag = 1 << iota
	StageFloatingReads
	StageMidTierLowering
	StageFixedReads
	StageExpandLogic
	StageValueProxyRemoval
	StageLowTierLowering
)

// String implements fmt.Stringer.
func (f StageFlag) String() string {
	switch f {
	case StageHighTierLowering:
		return "HIGH_TIER_LOWERING"
	case StageFloatingReads:
		return "FLOATING_READS"
	case StageMidTierLowering:
		return "MID_TIER_LOWERING"
	case StageFixedReads:
		return "FIXED_READS"
	case StageExpandLogic:
		return "EXPAND_LOGIC"
	case StageValueProxyRemoval:
		return "VALUE_PROXY_REMOVAL"
	case StageLowTierLowering:
		return "LOW_TIER_LOWERING"
	default:
		return fmt.Sprintf("StageFlag(%d)", uint16(f))
	}
}

const maxValueNumberInputs = 3

// valueKey is the structural identity of a value-numberable node.
type valueKey struct {
	op     Opcode
	stamp  Stamp
	p      payload
	n      uint8
	inputs [maxValueNumberInputs]NodeID
	guard  NodeID
}

// Graph is a method's intermediate representation. A Graph is owned by a single
// compilation and is not safe for concurrent use.
type Graph struct {
	nodes  arena[Node]
	live   int
	start  NodeID
	method *Method
	// values maps structural keys to the representative floating node. Entries can
	// be stale after in-place input changes and are validated on lookup.
	values      map[valueKey]NodeID
	stages      StageFlag
	guardsStage GuardsStage
	// newNodeListener is notified of every added node while set.
	newNodeListener func(*Node)
	// changeListener is notified of every node gaining or losing an edge while set.
	changeListener func(*Node)
}

// NewGraph returns a graph for method with a Start node.
func NewGraph(method *Method) *Graph {
	g := &Graph{nodes: newArena[Node](), method: method, values: map[valueKey]NodeID{}}
	sentinel, _ := g.nodes.allocate()
	sentinel.dead = true
	start := g.add(OpcodeStart, VoidStamp(), payload{})
	g.start = start.id
	return g
}

// Method returns the method compiled in this graph.
func (g *Graph) Method() *Method { return g.method }

// Start returns the entry node.
func (g *Graph) Start() *Node { return g.Node(g.start) }

// SetStart replaces the entry node.
func (g *Graph) SetStart(n *Node) {
	if !n.op.IsBegin() || n.pred != nilNode {
		panic("BUG: invalid start node " + n.String())
	}
	g.start = n.id
}

// Node returns the node with the given ID, or nil for the absent node.
func (g *Graph) Node(id NodeID) *Node {
	if id == nilNode {
		return nil
	}
	return g.nodes.view(int(id))
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int { return g.live }

// Nodes returns the live nodes in ID order.
func (g *Graph) Nodes() []*Node {
	ret := make([]*Node, 0, g.live)
	for i := 1; i < g.nodes.len(); i++ {
		if n := g.nodes.view(i); !n.dead {
			ret = append(ret, n)
		}
	}
	return ret
}

// NodesOf returns the live nodes of the given kind in ID order.
func (g *Graph) NodesOf(op Opcode) []*Node {
	var ret []*Node
	for i := 1; i < g.nodes.len(); i++ {
		if n := g.nodes.view(i); !n.dead && n.op == op {
			ret = append(ret, n)
		}
	}
	return ret
}

// GuardsStage returns the guard lowering progress.
func (g *Graph) GuardsStage() GuardsStage { return g.guardsStage }

// SetGuardsStage advances the guard lowering progress. Stages never go back.
func (g *Graph) SetGuardsStage(s GuardsStage) {
	if s < g.guardsStage {
		panic(fmt.Sprintf("BUG: guards stage going back from %s to %s", g.guardsStage, s))
	}
	g.guardsStage = s
}

// IsAfterStage returns true if the graph passed f.
func (g *Graph) IsAfterStage(f StageFlag) bool { return g.stages&f != 0 }

// IsBeforeStage returns true if the graph did not pass f yet.
func (g *Graph) IsBeforeStage(f StageFlag) bool { return g.stages&f == 0 }

// SetAfterStage records that the graph passed f.
func (g *Graph) SetAfterStage(f StageFlag) { g.stages |= f }

// SetNewNodeListener registers fn to be called for every node added from now on.
// nil removes the listener.
func (g *Graph) SetNewNodeListener(fn func(*Node)) { g.newNodeListener = fn }

// SetChangeListener registers fn to be called for both ends of every input or
// successor edge that is added or removed from now on. nil removes the listener.
func (g *Graph) SetChangeListener(fn func(*Node)) { g.changeListener = fn }

func (g *Graph) notifyChanged(ids ...NodeID) {
	if g.changeListener == nil {
		return
	}
	for _, id := range ids {
		if id != nilNode {
			g.changeListener(g.Node(id))
		}
	}
}

func successorCount(op Opcode) int {
	switch {
	case op == OpcodeIf:
		return 2
	case op.IsFixedWithNext():
		return 1
	default:
		return 0
	}
}

// add allocates a node that is not value numbered.
func (g *Graph) add(op Opcode, stamp Stamp, p payload, inputs ...*Node) *Node {
	n, index := g.nodes.allocate()
	n.g, n.id, n.op, n.stamp, n.payload = g, NodeID(index), op, stamp, p
	if c := successorCount(op); c > 0 {
		n.succs = make([]NodeID, c)
	}
	n.inputs = make([]NodeID, 0, len(inputs))
	for _, in := range inputs {
		n.AddInput(in)
	}
	g.live++
	if g.newNodeListener != nil {
		g.newNodeListener(n)
	}
	return n
}

func keyOf(op Opcode, stamp Stamp, p payload, guard NodeID, inputs []NodeID) valueKey {
	if len(inputs) > maxValueNumberInputs {
		panic(fmt.Sprintf("BUG: %s has too many inputs to be value numbered", op))
	}
	k := valueKey{op: op, stamp: stamp, p: p, n: uint8(len(inputs)), guard: guard}
	copy(k.inputs[:], inputs)
	return k
}

func (n *Node) valueKey() valueKey {
	return keyOf(n.op, n.stamp, n.payload, n.edges[edgeGuard], n.inputs)
}

// unique returns an existing live node structurally equal to the described one,
// or adds a new one.
func (g *Graph) unique(op Opcode, stamp Stamp, p payload, guard *Node, inputs ...*Node) *Node {
	if !op.valueNumberable() {
		panic("BUG: " + op.String() + " is not value numberable")
	}
	ids := make([]NodeID, len(inputs))
	for i, in := range inputs {
		ids[i] = idOf(in)
	}
	k := keyOf(op, stamp, p, idOf(guard), ids)
	if id, ok := g.values[k]; ok {
		if n := g.Node(id); n.IsAlive() && n.valueKey() == k {
			return n
		}
	}
	n := g.add(op, stamp, p, inputs...)
	if guard != nil {
		n.SetGuard(guard)
	}
	g.values[k] = n.id
	return n
}

// FindDuplicate returns a live node other than n that is structurally equal to
// n, or nil. If none exists n becomes the representative of its key.
func (g *Graph) FindDuplicate(n *Node) *Node {
	if !n.op.valueNumberable() || len(n.inputs) > maxValueNumberInputs {
		return nil
	}
	k := n.valueKey()
	if id, ok := g.values[k]; ok && id != n.id {
		if other := g.Node(id); other.IsAlive() && other.valueKey() == k {
			return other
		}
	}
	g.values[k] = n.id
	return nil
}

// AddFixed adds a fixed node outside of the control flow; the caller links it.
func (g *Graph) AddFixed(op Opcode, stamp Stamp, inputs ...*Node) *Node {
	if !op.IsFixed() {
		panic("BUG: AddFixed with floating " + op.String())
	}
	return g.add(op, stamp, payload{}, inputs...)
}
