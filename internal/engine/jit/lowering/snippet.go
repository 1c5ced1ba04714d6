package lowering

import (
	"sync"

	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
)

// SnippetKind names a snippet template.
type SnippetKind string

const (
	SnippetInstanceOf   SnippetKind = "instanceof"
	SnippetNewInstance  SnippetKind = "newInstance"
	SnippetNewArray     SnippetKind = "newArray"
	SnippetMonitorEnter SnippetKind = "monitorenter"
	SnippetMonitorExit  SnippetKind = "monitorexit"
)

// SnippetService expands a node into the subgraph of a snippet template.
type SnippetService interface {
	Instantiate(kind SnippetKind, n *ir.Node, tool Tool) ir.Outcome
}

// RuntimeCallSnippets expands every snippet to its runtime slow path: a
// foreign call taking the node's operands.
type RuntimeCallSnippets struct{}

// Instantiate implements SnippetService.
func (RuntimeCallSnippets) Instantiate(kind SnippetKind, n *ir.Node, tool Tool) ir.Outcome {
	g := tool.Graph()
	switch kind {
	case SnippetInstanceOf:
		return instantiateInstanceOf(n, tool)
	case SnippetNewInstance:
		hub := g.ConstantObject(n.TypeRef(), n.TypeRef().Name+".hub")
		return replaceWithCall(g, n, jitapi.NewInstance, hub)
	case SnippetNewArray:
		hub := g.ConstantObject(n.TypeRef(), n.TypeRef().Name+".hub")
		return replaceWithCall(g, n, jitapi.NewArray, hub, n.Input(0))
	case SnippetMonitorEnter, SnippetMonitorExit:
		desc := jitapi.MonitorEnter
		if kind == SnippetMonitorExit {
			desc = jitapi.MonitorExit
		}
		lock := g.BeginLockScope(n.LockDepth(), tool.Options().WordBits())
		g.AddBeforeFixed(n, lock)
		return replaceWithCall(g, n, desc, n.Input(0), lock)
	default:
		return ir.FatalOutcome(ir.Fatalf([]*ir.Node{n}, "no snippet %s", kind))
	}
}

// instantiateInstanceOf replaces a floating instanceof with a runtime type
// check placed at the last fixed node.
func instantiateInstanceOf(n *ir.Node, tool Tool) ir.Outcome {
	g := tool.Graph()
	last := tool.LastFixedNode()
	if last == nil {
		return ir.FatalOutcome(ir.Fatalf([]*ir.Node{n}, "instanceof snippet needs a fixed position"))
	}
	hub := g.ConstantObject(n.TypeRef(), n.TypeRef().Name+".hub")
	call := g.ForeignCall(jitapi.InstanceOf, ir.IntStamp(32, 0, 1), n.Input(0), hub)
	g.AddAfterFixed(last, call)
	test := g.IntegerEquals(call, g.ConstantInt(32, 1))
	if n.AllowsNull() {
		test = g.ShortCircuitOr(g.IsNull(n.Input(0)), false, test, false, ir.NotLikely)
	}
	n.ReplaceAtUsages(test)
	n.SafeDelete()
	return ir.OutcomeApplied
}

func replaceWithCall(g *ir.Graph, n *ir.Node, desc *jitapi.ForeignCallDescriptor, args ...*ir.Node) ir.Outcome {
	call := g.ForeignCall(desc, n.Stamp(), args...)
	call.SetStateAfter(n.StateAfter())
	g.ReplaceFixedWithFixed(n, call)
	return ir.OutcomeApplied
}

// SnippetRecord is one instantiation seen by RecordingSnippets.
type SnippetRecord struct {
	Kind  SnippetKind
	Node  ir.NodeID
	Stage Stage
}

// RecordingSnippets records every instantiation before handing it to Next,
// or leaves the node alone if Next is nil.
type RecordingSnippets struct {
	Next SnippetService

	mu      sync.Mutex
	records []SnippetRecord
}

// Instantiate implements SnippetService.
func (r *RecordingSnippets) Instantiate(kind SnippetKind, n *ir.Node, tool Tool) ir.Outcome {
	r.mu.Lock()
	r.records = append(r.records, SnippetRecord{Kind: kind, Node: n.ID(), Stage: tool.Stage()})
	r.mu.Unlock()
	if r.Next == nil {
		return ir.OutcomeDeferred
	}
	return r.Next.Instantiate(kind, n, tool)
}

// Records returns the instantiations so far.
func (r *RecordingSnippets) Records() []SnippetRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SnippetRecord(nil), r.records...)
}
