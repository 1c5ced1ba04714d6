package hotspot

import (
	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/lowering"
)

func (p *Provider) lowerInvoke(n *ir.Node, tool lowering.Tool) ir.Outcome {
	target := n.Input(0)
	if target.Opcode() != ir.OpcodeMethodCallTarget {
		return ir.OutcomeDeferred
	}
	g := tool.Graph()
	opts := p.Options()
	kind, method := target.InvokeKind(), target.Method()

	var receiver *ir.Node
	if kind.HasReceiver() {
		if target.InputCount() == 0 {
			return ir.FatalOutcome(ir.Fatalf([]*ir.Node{n, target}, "%s call of %s has no receiver", kind, method))
		}
		receiver = target.Input(0)
		if receiver.Stamp().IsObject() && !receiver.Stamp().NonNull() {
			receiver = p.CreateNullCheckedValue(receiver, n, tool)
			target.SetInput(0, receiver)
		}
	}
	args := target.Inputs()

	var lowered *ir.Node
	if opts.InlineVTableStubs && kind.IsIndirect() && (opts.AlwaysInlineVTableStubs || n.IsPolymorphic()) &&
		method.IsInVirtualMethodTable(receiver.Stamp().Type()) {
		hub := p.CreateReadHub(g, receiver, tool)
		// Neither the vtable entry nor the compiled entry is final.
		metaspaceMethod := p.createReadVirtualMethod(g, hub, method)
		address := p.CreateOffsetAddress(g, metaspaceMethod, p.Offsets().MethodCompiledEntryOffset.I64())
		compiledEntry := g.Read(address, ir.LocationAny, p.wordStamp(false), ir.BarrierNone, ir.OrderPlain)
		g.AddBeforeFixed(n, metaspaceMethod)
		g.AddAfterFixed(metaspaceMethod, compiledEntry)
		lowered = g.IndirectCallTarget(compiledEntry, metaspaceMethod, kind, method, target.Stamp(), args...)
	} else {
		lowered = g.DirectCallTarget(kind, method, target.Stamp(), args...)
	}
	target.ReplaceAndDelete(lowered)
	return ir.OutcomeApplied
}

func (p *Provider) lowerLoadMethod(n *ir.Node, tool lowering.Tool) ir.Outcome {
	g := tool.Graph()
	if n.Method().VTableIndex < 0 {
		return ir.FatalOutcome(ir.Fatalf([]*ir.Node{n}, "%s is not in a vtable", n.Method()))
	}
	g.ReplaceFixedWithFixed(n, p.createReadVirtualMethod(g, n.Input(0), n.Method()))
	return ir.OutcomeApplied
}

// createReadVirtualMethod returns an unlinked read of the vtable entry of method in hub.
func (p *Provider) createReadVirtualMethod(g *ir.Graph, hub *ir.Node, method *ir.Method) *ir.Node {
	address := p.CreateOffsetAddress(g, hub, p.Offsets().VTableEntryOffset(method.VTableIndex).I64())
	return g.Read(address, ir.LocationAny, p.wordStamp(true), ir.BarrierNone, ir.OrderPlain)
}
