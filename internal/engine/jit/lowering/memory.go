package lowering

import (
	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
)

func (p *DefaultProvider) lowerLoadField(n *ir.Node, tool Tool) ir.Outcome {
	g := tool.Graph()
	f := n.Field()
	obj := n.Input(0)
	if f.IsStatic {
		obj = staticFieldBase(g, f)
	}
	obj = p.CreateNullCheckedValue(obj, n, tool)
	address, err := p.CreateFieldAddress(g, obj, f)
	if err != nil {
		return ir.FatalOutcome(err)
	}
	barrier := p.barriers.FieldReadBarrierType(f, f.Kind)
	read := g.Read(address, ir.FieldLocation(f), p.loadStamp(n.Stamp(), f.Kind), barrier, memoryOrder(n))
	replaceWithRead(g, n, read, p.implicitLoadConvert(g, f.Kind, read, n.Stamp()))
	return ir.OutcomeApplied
}

func (p *DefaultProvider) lowerStoreField(n *ir.Node, tool Tool) ir.Outcome {
	g := tool.Graph()
	f := n.Field()
	obj, value := n.Input(0), n.Input(1)
	if f.IsStatic {
		obj = staticFieldBase(g, f)
	}
	obj = p.CreateNullCheckedValue(obj, n, tool)
	address, err := p.CreateFieldAddress(g, obj, f)
	if err != nil {
		return ir.FatalOutcome(err)
	}
	barrier := p.barriers.FieldWriteBarrierType(f, f.Kind, value)
	write := g.Write(address, p.implicitStoreConvert(g, f.Kind, value), ir.FieldLocation(f), barrier, memoryOrder(n))
	write.SetStateAfter(n.StateAfter())
	g.ReplaceFixedWithFixed(n, write)
	return ir.OutcomeApplied
}

// boundsCheck returns a guard for 0 <= index < array.length placed before n,
// or nil if the index is known to be in bounds.
func (p *DefaultProvider) boundsCheck(n, array, index *ir.Node, tool Tool) *ir.Node {
	g := tool.Graph()
	if existing := n.Guard(); existing != nil {
		return existing
	}
	length := p.createReadArrayLength(array, n, tool)
	return tool.CreateGuard(n, g.IntegerBelow(index, length), ir.ReasonBoundsCheckException, ir.ActionInvalidateReprofile, false)
}

// createReadArrayLength inserts a read of the length of array before the fixed node before.
func (p *DefaultProvider) createReadArrayLength(array, before *ir.Node, tool Tool) *ir.Node {
	g := tool.Graph()
	array = p.CreateNullCheckedValue(array, before, tool)
	address := p.CreateOffsetAddress(g, array, p.offsets.ArrayLengthOffset.I64())
	read := g.Read(address, ir.LocationArrayLength, ir.IntStamp(32, 0, ir.MaxValue(32)), ir.BarrierNone, ir.OrderPlain)
	g.AddBeforeFixed(before, read)
	return read
}

func (p *DefaultProvider) arrayIndexAddress(g *ir.Graph, array, index, boundsCheck *ir.Node, kind ir.JavaKind) *ir.Node {
	return p.CreateArrayAddress(g, array, p.CreatePositiveIndex(g, index, boundsCheck), kind)
}

func (p *DefaultProvider) lowerLoadIndexed(n *ir.Node, tool Tool) ir.Outcome {
	g := tool.Graph()
	kind := n.JavaKind()
	array := p.CreateNullCheckedValue(n.Input(0), n, tool)
	check := p.boundsCheck(n, array, n.Input(1), tool)
	address := p.arrayIndexAddress(g, array, n.Input(1), check, kind)
	read := g.Read(address, ir.ArrayLocation(kind), p.loadStamp(n.Stamp(), kind), ir.BarrierNone, ir.OrderPlain)
	read.SetGuard(check)
	replaceWithRead(g, n, read, p.implicitLoadConvert(g, kind, read, n.Stamp()))
	return ir.OutcomeApplied
}

func (p *DefaultProvider) lowerStoreIndexed(n *ir.Node, tool Tool) ir.Outcome {
	g := tool.Graph()
	kind := n.JavaKind()
	value := n.Input(2)
	array := p.CreateNullCheckedValue(n.Input(0), n, tool)
	check := p.boundsCheck(n, array, n.Input(1), tool)
	if kind == ir.KindObject {
		p.storeCheck(n, array, value, tool)
	}
	address := p.arrayIndexAddress(g, array, n.Input(1), check, kind)
	barrier := p.barriers.ArrayWriteBarrierType(kind, value)
	write := g.Write(address, p.implicitStoreConvert(g, kind, value), ir.ArrayLocation(kind), barrier, ir.OrderPlain)
	write.SetGuard(check)
	write.SetStateAfter(n.StateAfter())
	g.ReplaceFixedWithFixed(n, write)
	return ir.OutcomeApplied
}

// storeCheck guards that value can be stored into the object array array.
func (p *DefaultProvider) storeCheck(n, array, value *ir.Node, tool Tool) {
	at := array.Stamp().Type()
	if at == nil || at.Component == nil || value.Stamp().AlwaysNull() {
		return
	}
	if vt := value.Stamp().Type(); at.Component.IsAssignableFrom(vt) && array.Stamp().IsExact() {
		return
	}
	g := tool.Graph()
	tool.CreateGuard(n, g.InstanceOf(value, at.Component, true), ir.ReasonArrayStoreException, ir.ActionInvalidateReprofile, false)
}

func (p *DefaultProvider) lowerArrayLength(n *ir.Node, tool Tool) ir.Outcome {
	g := tool.Graph()
	length := p.createReadArrayLength(n.Input(0), n, tool)
	n.ReplaceAtUsages(length)
	g.RemoveFixed(n)
	return ir.OutcomeApplied
}

func (p *DefaultProvider) lowerLoadHub(n *ir.Node, tool Tool) ir.Outcome {
	hub := p.readHub(tool.Graph(), n.Input(0), n.Stamp(), n.Guard())
	n.ReplaceAtUsages(hub)
	n.SafeDelete()
	return ir.OutcomeApplied
}

// CreateReadHub returns the hub of obj: a LoadHub until the LOW tier runs
// with fixed guards, the read of the object header from then on.
func (p *DefaultProvider) CreateReadHub(g *ir.Graph, obj *ir.Node, tool Tool) *ir.Node {
	stamp := ir.PointerStamp(p.wordBits(), true)
	if tool.Stage() != StageLow || g.GuardsStage().AllowsFloatingGuards() {
		return g.LoadHub(obj, stamp, nil)
	}
	return p.readHub(g, obj, stamp, nil)
}

func (p *DefaultProvider) readHub(g *ir.Graph, obj *ir.Node, stamp ir.Stamp, guard *ir.Node) *ir.Node {
	readStamp := stamp
	if p.opts.UseCompressedClassPointers {
		readStamp = stamp.Compressed()
	}
	address := p.CreateOffsetAddress(g, obj, p.offsets.HubOffset.I64())
	hub := g.FloatingRead(address, ir.LocationHub, readStamp, guard, ir.BarrierNone)
	if p.opts.UseCompressedClassPointers {
		hub = g.Uncompress(hub, stamp)
	}
	return hub
}

func (p *DefaultProvider) lowerUnbox(n *ir.Node, tool Tool) ir.Outcome {
	g := tool.Graph()
	kind := n.JavaKind()
	box := p.CreateNullCheckedValue(n.Input(0), n, tool)
	address := p.CreateOffsetAddress(g, box, p.offsets.BoxValueOffset(kind).I64())
	read := g.Read(address, ir.LocationBoxValue, p.loadStamp(n.Stamp(), kind), ir.BarrierNone, ir.OrderPlain)
	replaceWithRead(g, n, read, p.implicitLoadConvert(g, kind, read, n.Stamp()))
	return ir.OutcomeApplied
}
