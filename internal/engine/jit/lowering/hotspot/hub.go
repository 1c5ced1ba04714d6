package hotspot

import (
	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/lowering"
)

func (p *Provider) lowerGetClass(n *ir.Node, tool lowering.Tool) ir.Outcome {
	g := tool.Graph()
	hub := g.LoadHub(n.Input(0), p.wordStamp(true), nil)
	class := g.HubGetClass(hub, n.Stamp())
	n.ReplaceAtUsages(class)
	n.SafeDelete()
	if out, _ := p.LowerBuiltin(hub, tool); out.Kind == ir.Fatal {
		return out
	}
	if tool.Stage() != lowering.StageHigh {
		return p.lowerHubGetClass(class, tool)
	}
	return ir.OutcomeApplied
}

func (p *Provider) lowerStoreHub(n *ir.Node, tool lowering.Tool) ir.Outcome {
	g := tool.Graph()
	obj, hub := n.Input(0), n.Input(1)
	if p.Options().UseCompressedClassPointers {
		hub = g.Compress(hub, hub.Stamp().Compressed())
	}
	address := p.CreateOffsetAddress(g, obj, p.Offsets().HubOffset.I64())
	write := g.Write(address, hub, ir.LocationHub, ir.BarrierNone, ir.OrderPlain)
	write.SetStateAfter(n.StateAfter())
	g.ReplaceFixedWithFixed(n, write)
	return ir.OutcomeApplied
}

// lowerHubGetClass reads the class mirror handle out of the hub, then the
// mirror out of the handle.
func (p *Provider) lowerHubGetClass(n *ir.Node, tool lowering.Tool) ir.Outcome {
	g := tool.Graph()
	hub := n.Input(0)
	if hub.IsConstant() {
		return ir.FatalOutcome(ir.Fatalf([]*ir.Node{n}, "constant hub %s reached lowering", hub))
	}
	address := p.CreateOffsetAddress(g, hub, p.Offsets().ClassMirrorOffset.I64())
	handle := g.FloatingRead(address, ir.LocationClassMirror, p.wordStamp(false), nil, ir.BarrierNone)
	mirror := g.FloatingRead(p.CreateOffsetAddress(g, handle, 0), ir.LocationClassMirrorHandle, n.Stamp(), nil, ir.BarrierNone)
	n.ReplaceAtUsages(mirror)
	n.SafeDelete()
	return ir.OutcomeApplied
}

func (p *Provider) lowerClassGetHub(n *ir.Node, tool lowering.Tool) ir.Outcome {
	return p.replaceWithFloatingRead(n, tool, p.Offsets().KlassOffset.I64(), ir.LocationClassKlass)
}

func (p *Provider) lowerKlassLayoutHelper(n *ir.Node, tool lowering.Tool) ir.Outcome {
	return p.replaceWithFloatingRead(n, tool, p.Offsets().KlassLayoutHelperOffset.I64(), ir.LocationKlassLayoutHelper)
}

func (p *Provider) replaceWithFloatingRead(n *ir.Node, tool lowering.Tool, offset int64, loc ir.LocationIdentity) ir.Outcome {
	g := tool.Graph()
	base := n.Input(0)
	if base.IsConstant() {
		return ir.FatalOutcome(ir.Fatalf([]*ir.Node{n}, "constant input %s reached lowering", base))
	}
	read := g.FloatingRead(p.CreateOffsetAddress(g, base, offset), loc, n.Stamp(), nil, ir.BarrierNone)
	n.ReplaceAtUsages(read)
	n.SafeDelete()
	return ir.OutcomeApplied
}
