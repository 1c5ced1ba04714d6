package lowering

import (
	"math/bits"

	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
)

// DefaultProvider lowers the VM-independent memory access nodes to reads and
// writes of computed addresses. VM providers embed it and consult it after
// their own dispatch chain.
type DefaultProvider struct {
	opts     *jitapi.Options
	offsets  jitapi.OffsetData
	barriers BarrierSet
}

// DefaultKinds are the node kinds DefaultProvider owns.
var DefaultKinds = []ir.Opcode{
	ir.OpcodeLoadField,
	ir.OpcodeStoreField,
	ir.OpcodeLoadIndexed,
	ir.OpcodeStoreIndexed,
	ir.OpcodeArrayLength,
	ir.OpcodeLoadHub,
	ir.OpcodeUnbox,
}

// NewDefaultProvider returns a DefaultProvider for a VM with the given configuration.
func NewDefaultProvider(opts *jitapi.Options, offsets jitapi.OffsetData) (*DefaultProvider, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	barriers, err := NewBarrierSet(opts.BarrierSet)
	if err != nil {
		return nil, err
	}
	return &DefaultProvider{opts: opts, offsets: offsets, barriers: barriers}, nil
}

// Options returns the compiler configuration.
func (p *DefaultProvider) Options() *jitapi.Options { return p.opts }

// Offsets returns the VM layout.
func (p *DefaultProvider) Offsets() *jitapi.OffsetData { return &p.offsets }

// BarrierSet returns the barrier classification in use.
func (p *DefaultProvider) BarrierSet() BarrierSet { return p.barriers }

// Lower implements Provider.
func (p *DefaultProvider) Lower(n *ir.Node, tool Tool) ir.Outcome {
	out, _ := p.LowerBuiltin(n, tool)
	return out
}

// LowerBuiltin lowers n if its kind is one of DefaultKinds. The second result
// tells whether the kind is owned by DefaultProvider, whatever the outcome.
func (p *DefaultProvider) LowerBuiltin(n *ir.Node, tool Tool) (ir.Outcome, bool) {
	switch n.Opcode() {
	case ir.OpcodeLoadField:
		return p.lowerLoadField(n, tool), true
	case ir.OpcodeStoreField:
		return p.lowerStoreField(n, tool), true
	case ir.OpcodeLoadIndexed:
		return p.lowerLoadIndexed(n, tool), true
	case ir.OpcodeStoreIndexed:
		return p.lowerStoreIndexed(n, tool), true
	case ir.OpcodeArrayLength:
		return p.lowerArrayLength(n, tool), true
	case ir.OpcodeLoadHub:
		if tool.Stage() != StageLow || tool.Graph().GuardsStage().AllowsFloatingGuards() {
			return ir.OutcomeDeferred, true
		}
		return p.lowerLoadHub(n, tool), true
	case ir.OpcodeUnbox:
		if tool.Stage() != StageMid {
			return ir.OutcomeDeferred, true
		}
		return p.lowerUnbox(n, tool), true
	default:
		return ir.OutcomeDeferred, false
	}
}

func (p *DefaultProvider) wordBits() int { return p.opts.WordBits() }

// CreateOffsetAddress returns the address base + offset.
func (p *DefaultProvider) CreateOffsetAddress(g *ir.Graph, base *ir.Node, offset int64) *ir.Node {
	return g.OffsetAddress(base, g.ConstantInt(p.wordBits(), offset))
}

// CreateAddress returns the address base + offset, converting offset to the
// word width first.
func (p *DefaultProvider) CreateAddress(g *ir.Graph, base, offset *ir.Node) *ir.Node {
	w := p.wordBits()
	switch b := offset.Stamp().Bits(); {
	case b < w:
		offset = g.SignExtend(offset, w)
	case b > w:
		offset = g.Narrow(offset, w)
	}
	return g.OffsetAddress(base, offset)
}

// CreateFieldAddress returns the address of f in obj, or of the static f in
// the class mirror obj.
func (p *DefaultProvider) CreateFieldAddress(g *ir.Graph, obj *ir.Node, f *ir.Field) (*ir.Node, *ir.InternalError) {
	if f.Offset < 0 {
		return nil, ir.Fatalf([]*ir.Node{obj}, "field %s has negative offset %d", f, f.Offset)
	}
	return p.CreateOffsetAddress(g, obj, int64(f.Offset)), nil
}

// CreateArrayAddress returns the address of array[index] for elements of kind,
// that is array + (index << log2(scale)) + base.
func (p *DefaultProvider) CreateArrayAddress(g *ir.Graph, array, index *ir.Node, kind ir.JavaKind) *ir.Node {
	w := p.wordBits()
	wordIndex := index
	if p.opts.WordSize > 4 {
		wordIndex = g.SignExtend(index, w)
	}
	scale := kind.ByteCount(p.opts.ReferenceSize())
	shift := bits.TrailingZeros(uint(scale))
	scaled := g.LeftShift(wordIndex, shift)
	offset := g.Add(scaled, g.ConstantInt(w, p.offsets.ArrayBaseOffset(kind).I64()))
	return g.OffsetAddress(array, offset)
}

// CreatePositiveIndex returns index narrowed to [0, MaxInt-1], valid once
// boundsCheck has passed.
func (p *DefaultProvider) CreatePositiveIndex(g *ir.Graph, index, boundsCheck *ir.Node) *ir.Node {
	if boundsCheck == nil {
		return index
	}
	return g.Pi(index, ir.IntStamp(32, 0, ir.MaxValue(32)-1), boundsCheck)
}

// CreateNullCheckedValue returns obj proven non-null by a guard placed before
// the fixed node before.
func (p *DefaultProvider) CreateNullCheckedValue(obj, before *ir.Node, tool Tool) *ir.Node {
	if obj.Stamp().NonNull() {
		return obj
	}
	g := tool.Graph()
	guard := tool.CreateGuard(before, g.IsNull(obj), ir.ReasonNullCheckException, ir.ActionInvalidateReprofile, true)
	return g.Pi(obj, obj.Stamp().WithNonNull(), guard)
}

// staticFieldBase returns the class mirror static fields of f's holder live in.
func staticFieldBase(g *ir.Graph, f *ir.Field) *ir.Node {
	return g.ConstantObject(f.Holder, f.Holder.Name+".class")
}

func memoryOrder(n *ir.Node) ir.MemoryOrder {
	if n.IsVolatile() {
		return ir.OrderVolatile
	}
	return ir.OrderPlain
}

// loadStamp returns the stamp of the value of kind as it sits in memory.
func (p *DefaultProvider) loadStamp(stamp ir.Stamp, kind ir.JavaKind) ir.Stamp {
	switch kind {
	case ir.KindBoolean, ir.KindByte, ir.KindShort, ir.KindChar:
		return ir.IntStampUnrestricted(kind.Bits())
	case ir.KindObject:
		if p.opts.UseCompressedOops {
			return stamp.Compressed()
		}
	}
	return stamp
}

// implicitLoadConvert widens a value of kind read from memory to its stack form.
func (p *DefaultProvider) implicitLoadConvert(g *ir.Graph, kind ir.JavaKind, v *ir.Node, stamp ir.Stamp) *ir.Node {
	switch kind {
	case ir.KindBoolean, ir.KindChar:
		return g.ZeroExtend(v, 32)
	case ir.KindByte, ir.KindShort:
		return g.SignExtend(v, 32)
	case ir.KindObject:
		if p.opts.UseCompressedOops {
			return g.Uncompress(v, stamp)
		}
	}
	return v
}

// implicitStoreConvert narrows a stack value to the memory form of kind.
func (p *DefaultProvider) implicitStoreConvert(g *ir.Graph, kind ir.JavaKind, v *ir.Node) *ir.Node {
	switch kind {
	case ir.KindBoolean, ir.KindByte, ir.KindShort, ir.KindChar:
		return g.Narrow(v, kind.Bits())
	case ir.KindObject:
		if p.opts.UseCompressedOops {
			return g.Compress(v, v.Stamp().Compressed())
		}
	}
	return v
}

// replaceWithRead puts the unlinked read in place of n, with n's usages using value.
func replaceWithRead(g *ir.Graph, n, read, value *ir.Node) {
	n.ReplaceAtUsages(value)
	g.ReplaceFixedWithFixed(n, read)
}
