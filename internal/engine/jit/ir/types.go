package ir

import "fmt"

// JavaKind is the VM-level kind of a value.
type JavaKind byte

const (
	KindVoid JavaKind = iota
	KindBoolean
	KindByte
	KindShort
	KindChar
	KindInt
	KindLong
	KindObject
)

// String implements fmt.Stringer.
func (k JavaKind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindBoolean:
		return "boolean"
	case KindByte:
		return "byte"
	case KindShort:
		return "short"
	case KindChar:
		return "char"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindObject:
		return "object"
	default:
		panic("invalid java kind")
	}
}

// Bits returns the width of a value of this kind in memory.
func (k JavaKind) Bits() int {
	switch k {
	case KindBoolean, KindByte:
		return 8
	case KindShort, KindChar:
		return 16
	case KindInt:
		return 32
	case KindLong:
		return 64
	default:
		return 0
	}
}

// ByteCount returns the number of bytes an element of this kind occupies in an array.
// Object elements use the reference size.
func (k JavaKind) ByteCount(referenceSize int) int {
	if k == KindObject {
		return referenceSize
	}
	return k.Bits() / 8
}

// SlotCount returns the number of interpreter slots a value of this kind occupies.
func (k JavaKind) SlotCount() int {
	switch k {
	case KindVoid:
		return 0
	case KindLong:
		return 2
	default:
		return 1
	}
}

// StackKind returns the kind the value is widened to on the operand stack.
func (k JavaKind) StackKind() JavaKind {
	switch k {
	case KindBoolean, KindByte, KindShort, KindChar:
		return KindInt
	default:
		return k
	}
}

// Type is a resolved VM class.
type Type struct {
	Name        string
	Super       *Type
	Interfaces  []*Type
	IsInterface bool
	IsArray     bool
	// Component is the element type of an object array.
	Component *Type
	// Boxes is the primitive kind wrapped by this box class, or KindVoid.
	Boxes JavaKind
	// VTableLength is the number of entries in the vtable of this class.
	VTableLength int
}

// String implements fmt.Stringer.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// IsAssignableFrom returns true if every instance of o is an instance of t.
func (t *Type) IsAssignableFrom(o *Type) bool {
	if t == nil || o == nil {
		return false
	}
	for c := o; c != nil; c = c.Super {
		if c == t {
			return true
		}
		for _, i := range c.Interfaces {
			if t.IsAssignableFrom(i) {
				return true
			}
		}
	}
	return false
}

// Method is a resolved VM method.
type Method struct {
	Name   string
	Holder *Type
	// VTableIndex is the vtable slot of this method, or -1 if it is not in the vtable.
	VTableIndex int
	IsStatic    bool
	// MaxLocals is the number of interpreter local slots of this method.
	MaxLocals int
}

// String implements fmt.Stringer.
func (m *Method) String() string {
	if m == nil {
		return "<nil>"
	}
	if m.Holder == nil {
		return m.Name
	}
	return m.Holder.Name + "." + m.Name
}

// IsInVirtualMethodTable returns true if calls of m on a receiver of type receiver
// can be dispatched through the vtable.
func (m *Method) IsInVirtualMethodTable(receiver *Type) bool {
	if m.IsStatic || m.VTableIndex < 0 || receiver == nil || receiver.IsInterface {
		return false
	}
	return m.VTableIndex < receiver.VTableLength
}

// Field is a resolved VM field.
type Field struct {
	Name     string
	Holder   *Type
	Kind     JavaKind
	Type     *Type
	Offset   int
	IsStatic bool
	Volatile bool
}

// String implements fmt.Stringer.
func (f *Field) String() string {
	if f == nil {
		return "<nil>"
	}
	return f.Holder.String() + "." + f.Name
}

// LocationIdentity classifies the memory touched by an access. Accesses with
// different identities never alias, except that LocationAny aliases everything.
type LocationIdentity string

const (
	LocationNone LocationIdentity = ""
	LocationAny  LocationIdentity = "any"
	LocationInit LocationIdentity = "init"

	// VM header locations.
	LocationHub               LocationIdentity = "hub"
	LocationArrayLength       LocationIdentity = "arrayLength"
	LocationDisplacedMarkWord LocationIdentity = "displacedMarkWord"
	LocationClassMirror       LocationIdentity = "classMirror"
	LocationClassMirrorHandle LocationIdentity = "classMirrorHandle"
	LocationKlassLayoutHelper LocationIdentity = "klassLayoutHelper"
	LocationClassKlass        LocationIdentity = "classKlass"
	LocationBoxValue          LocationIdentity = "boxValue"
)

// FieldLocation returns the location of the given field.
func FieldLocation(f *Field) LocationIdentity {
	return LocationIdentity("field:" + f.String())
}

// ArrayLocation returns the location of array elements of kind k.
func ArrayLocation(k JavaKind) LocationIdentity {
	return LocationIdentity("array:" + k.String())
}

// IsAny returns true if l aliases every other location.
func (l LocationIdentity) IsAny() bool { return l == LocationAny }

// BarrierType classifies the GC barrier an access needs.
type BarrierType byte

const (
	BarrierNone BarrierType = iota
	BarrierField
	BarrierArray
	BarrierImprecise
	BarrierUnknown
	// BarrierReferenceGet keeps the referent of a weak reference alive.
	BarrierReferenceGet
)

// String implements fmt.Stringer.
func (b BarrierType) String() string {
	switch b {
	case BarrierNone:
		return "none"
	case BarrierField:
		return "field"
	case BarrierArray:
		return "array"
	case BarrierImprecise:
		return "imprecise"
	case BarrierUnknown:
		return "unknown"
	case BarrierReferenceGet:
		return "referenceGet"
	default:
		panic("invalid barrier type")
	}
}

// MemoryOrder is the ordering constraint of a memory access.
type MemoryOrder byte

const (
	OrderPlain MemoryOrder = iota
	OrderOpaque
	OrderRelease
	OrderAcquire
	OrderVolatile
)

// String implements fmt.Stringer.
func (o MemoryOrder) String() string {
	switch o {
	case OrderPlain:
		return "plain"
	case OrderOpaque:
		return "opaque"
	case OrderRelease:
		return "release"
	case OrderAcquire:
		return "acquire"
	case OrderVolatile:
		return "volatile"
	default:
		panic("invalid memory order")
	}
}

// DeoptReason records why compiled code was left.
type DeoptReason byte

const (
	ReasonNone DeoptReason = iota
	ReasonNullCheckException
	ReasonBoundsCheckException
	ReasonClassCastException
	ReasonArithmeticException
	ReasonUnreachedCode
	ReasonTypeCheckedInliningViolated
	ReasonOptimizedTypeCheckViolated
	ReasonTransferToInterpreter
	ReasonUnresolved
	ReasonArrayStoreException
)

// String implements fmt.Stringer.
func (r DeoptReason) String() string {
	switch r {
	case ReasonNone:
		return "None"
	case ReasonNullCheckException:
		return "NullCheckException"
	case ReasonBoundsCheckException:
		return "BoundsCheckException"
	case ReasonClassCastException:
		return "ClassCastException"
	case ReasonArithmeticException:
		return "ArithmeticException"
	case ReasonUnreachedCode:
		return "UnreachedCode"
	case ReasonTypeCheckedInliningViolated:
		return "TypeCheckedInliningViolated"
	case ReasonOptimizedTypeCheckViolated:
		return "OptimizedTypeCheckViolated"
	case ReasonTransferToInterpreter:
		return "TransferToInterpreter"
	case ReasonUnresolved:
		return "Unresolved"
	case ReasonArrayStoreException:
		return "ArrayStoreException"
	default:
		panic("invalid deoptimization reason")
	}
}

// DeoptAction is what the runtime does with the compiled code after a deoptimization.
type DeoptAction byte

const (
	ActionNone DeoptAction = iota
	ActionRecompileIfTooManyDeopts
	ActionInvalidateReprofile
	ActionInvalidateRecompile
	ActionInvalidateStopCompiling
)

// String implements fmt.Stringer.
func (a DeoptAction) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionRecompileIfTooManyDeopts:
		return "RecompileIfTooManyDeopts"
	case ActionInvalidateReprofile:
		return "InvalidateReprofile"
	case ActionInvalidateRecompile:
		return "InvalidateRecompile"
	case ActionInvalidateStopCompiling:
		return "InvalidateStopCompiling"
	default:
		panic("invalid deoptimization action")
	}
}

// BytecodeExceptionKind is the kind of implicit exception a bytecode can throw.
type BytecodeExceptionKind byte

const (
	ExceptionNullPointer BytecodeExceptionKind = iota
	ExceptionOutOfBounds
	ExceptionClassCast
	ExceptionArrayStore
	ExceptionDivisionByZero
	ExceptionIntegerExactOverflow
	ExceptionLongExactOverflow
	ExceptionNegativeArraySize
)

// String implements fmt.Stringer.
func (k BytecodeExceptionKind) String() string {
	switch k {
	case ExceptionNullPointer:
		return "NullPointer"
	case ExceptionOutOfBounds:
		return "OutOfBounds"
	case ExceptionClassCast:
		return "ClassCast"
	case ExceptionArrayStore:
		return "ArrayStore"
	case ExceptionDivisionByZero:
		return "DivisionByZero"
	case ExceptionIntegerExactOverflow:
		return "IntegerExactOverflow"
	case ExceptionLongExactOverflow:
		return "LongExactOverflow"
	case ExceptionNegativeArraySize:
		return "NegativeArraySize"
	default:
		panic("invalid bytecode exception kind")
	}
}

// InvokeKind is the dispatch kind of a call site.
type InvokeKind byte

const (
	InvokeStatic InvokeKind = iota
	InvokeSpecial
	InvokeVirtual
	InvokeInterface
)

// IsIndirect returns true if the call target is selected by the receiver at run time.
func (k InvokeKind) IsIndirect() bool {
	return k == InvokeVirtual || k == InvokeInterface
}

// HasReceiver returns true if the first argument is the receiver.
func (k InvokeKind) HasReceiver() bool {
	return k != InvokeStatic
}

// String implements fmt.Stringer.
func (k InvokeKind) String() string {
	switch k {
	case InvokeStatic:
		return "static"
	case InvokeSpecial:
		return "special"
	case InvokeVirtual:
		return "virtual"
	case InvokeInterface:
		return "interface"
	default:
		panic("invalid invoke kind")
	}
}

// ForeignCallDescriptor names a runtime routine callable from compiled code.
type ForeignCallDescriptor struct {
	Name   string
	Result JavaKind
	// Args is the number of arguments of the routine.
	Args int
}

// String implements fmt.Stringer.
func (d *ForeignCallDescriptor) String() string {
	return fmt.Sprintf("%s/%d", d.Name, d.Args)
}
