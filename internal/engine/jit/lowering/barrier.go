package lowering

import (
	"fmt"

	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
)

// BarrierSet classifies the GC barriers memory accesses need.
type BarrierSet interface {
	FieldReadBarrierType(f *ir.Field, kind ir.JavaKind) ir.BarrierType
	FieldWriteBarrierType(f *ir.Field, kind ir.JavaKind, value *ir.Node) ir.BarrierType
	ArrayWriteBarrierType(kind ir.JavaKind, value *ir.Node) ir.BarrierType
	HasWriteBarrier() bool
	HasReadBarrier() bool
}

// NewBarrierSet returns the BarrierSet selected by kind.
func NewBarrierSet(kind jitapi.BarrierSet) (BarrierSet, error) {
	switch kind {
	case jitapi.BarrierSetNone:
		return noBarrierSet{}, nil
	case jitapi.BarrierSetCardTable:
		return cardTableBarrierSet{}, nil
	case jitapi.BarrierSetG1:
		return g1BarrierSet{}, nil
	default:
		return nil, fmt.Errorf("unknown barrier set %q", kind)
	}
}

type noBarrierSet struct{}

func (noBarrierSet) FieldReadBarrierType(*ir.Field, ir.JavaKind) ir.BarrierType {
	return ir.BarrierNone
}

func (noBarrierSet) FieldWriteBarrierType(*ir.Field, ir.JavaKind, *ir.Node) ir.BarrierType {
	return ir.BarrierNone
}

func (noBarrierSet) ArrayWriteBarrierType(ir.JavaKind, *ir.Node) ir.BarrierType {
	return ir.BarrierNone
}

func (noBarrierSet) HasWriteBarrier() bool { return false }
func (noBarrierSet) HasReadBarrier() bool  { return false }

// cardTableBarrierSet dirties a card after every reference store.
type cardTableBarrierSet struct{}

func (cardTableBarrierSet) FieldReadBarrierType(*ir.Field, ir.JavaKind) ir.BarrierType {
	return ir.BarrierNone
}

func (cardTableBarrierSet) FieldWriteBarrierType(_ *ir.Field, kind ir.JavaKind, value *ir.Node) ir.BarrierType {
	if storesReference(kind, value) {
		return ir.BarrierField
	}
	return ir.BarrierNone
}

func (cardTableBarrierSet) ArrayWriteBarrierType(kind ir.JavaKind, value *ir.Node) ir.BarrierType {
	if storesReference(kind, value) {
		return ir.BarrierArray
	}
	return ir.BarrierNone
}

func (cardTableBarrierSet) HasWriteBarrier() bool { return true }
func (cardTableBarrierSet) HasReadBarrier() bool  { return false }

// g1BarrierSet is cardTableBarrierSet plus a keep-alive barrier on loads of
// weak referents.
type g1BarrierSet struct{ cardTableBarrierSet }

func (g1BarrierSet) FieldReadBarrierType(f *ir.Field, kind ir.JavaKind) ir.BarrierType {
	if kind == ir.KindObject && isReferent(f) {
		return ir.BarrierReferenceGet
	}
	return ir.BarrierNone
}

func (g1BarrierSet) HasReadBarrier() bool { return true }

// storesReference returns true if a store of value with kind may put a non-null
// reference into the heap.
func storesReference(kind ir.JavaKind, value *ir.Node) bool {
	return kind == ir.KindObject && (value == nil || !value.Stamp().AlwaysNull())
}

const (
	referenceClassName = "java.lang.ref.Reference"
	referentFieldName  = "referent"
)

func isReferent(f *ir.Field) bool {
	if f == nil || f.IsStatic || f.Name != referentFieldName {
		return false
	}
	for t := f.Holder; t != nil; t = t.Super {
		if t.Name == referenceClassName {
			return true
		}
	}
	return false
}
