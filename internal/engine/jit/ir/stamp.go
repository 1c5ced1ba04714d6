package ir

import (
	"fmt"
	"math"
)

// StampKind is the category of values a Stamp describes.
type StampKind byte

const (
	StampVoid StampKind = iota
	StampInt
	StampObject
	// StampPointer is a raw word-sized VM pointer such as a hub or a method.
	StampPointer
)

// Stamp is the abstract value of a node: an integer range of a given width, an
// object of a given type and nullness, a VM pointer, or void.
//
// Stamp is comparable and is part of the value-numbering key of floating nodes.
type Stamp struct {
	kind StampKind
	bits uint8
	// nonZero excludes zero from an integer range that straddles it.
	nonZero    bool
	nonNull    bool
	alwaysNull bool
	exact      bool
	compressed bool
	lo, hi     int64
	typ        *Type
}

// VoidStamp is the stamp of nodes producing no value.
func VoidStamp() Stamp { return Stamp{kind: StampVoid} }

// IntStamp returns the integer stamp [lo, hi] of the given width.
func IntStamp(bits int, lo, hi int64) Stamp {
	checkBits(bits)
	return Stamp{kind: StampInt, bits: uint8(bits), lo: lo, hi: hi}
}

// IntStampUnrestricted returns the stamp of all integers of the given width.
func IntStampUnrestricted(bits int) Stamp {
	return IntStamp(bits, MinValue(bits), MaxValue(bits))
}

// ConstantStamp returns the stamp of the single integer v.
func ConstantStamp(bits int, v int64) Stamp {
	v = SignExtend(v, bits)
	return IntStamp(bits, v, v)
}

// ObjectStamp returns the stamp of references to instances of t (nil meaning any type).
func ObjectStamp(t *Type, nonNull bool) Stamp {
	return Stamp{kind: StampObject, typ: t, nonNull: nonNull}
}

// ExactObjectStamp returns the stamp of references to instances of exactly t.
func ExactObjectStamp(t *Type, nonNull bool) Stamp {
	return Stamp{kind: StampObject, typ: t, nonNull: nonNull, exact: true}
}

// NullStamp is the stamp of the null constant.
func NullStamp() Stamp { return Stamp{kind: StampObject, alwaysNull: true} }

// PointerStamp returns the stamp of a VM pointer of the given width.
func PointerStamp(bits int, nonNull bool) Stamp {
	checkBits(bits)
	return Stamp{kind: StampPointer, bits: uint8(bits), nonNull: nonNull}
}

func checkBits(bits int) {
	switch bits {
	case 1, 8, 16, 32, 64:
	default:
		panic(fmt.Sprintf("BUG: invalid integer width %d", bits))
	}
}

// MinValue returns the smallest signed integer of the given width.
func MinValue(bits int) int64 {
	if bits == 64 {
		return math.MinInt64
	}
	return -(int64(1) << (bits - 1))
}

// MaxValue returns the largest signed integer of the given width.
func MaxValue(bits int) int64 {
	if bits == 64 {
		return math.MaxInt64
	}
	return int64(1)<<(bits-1) - 1
}

// UnsignedMax returns the largest unsigned integer of the given width.
func UnsignedMax(bits int) uint64 {
	if bits == 64 {
		return math.MaxUint64
	}
	return uint64(1)<<bits - 1
}

// SignExtend truncates v to bits and sign-extends it back to 64 bits.
func SignExtend(v int64, bits int) int64 {
	if bits == 64 {
		return v
	}
	shift := 64 - bits
	return v << shift >> shift
}

// ZeroExtend truncates v to bits as an unsigned value.
func ZeroExtend(v int64, bits int) uint64 {
	return uint64(v) & UnsignedMax(bits)
}

func (s Stamp) Kind() StampKind { return s.kind }
func (s Stamp) Bits() int       { return int(s.bits) }
func (s Stamp) Lo() int64       { return s.lo }
func (s Stamp) Hi() int64       { return s.hi }
func (s Stamp) Type() *Type     { return s.typ }
func (s Stamp) IsExact() bool   { return s.exact }
func (s Stamp) IsInt() bool     { return s.kind == StampInt }
func (s Stamp) IsObject() bool  { return s.kind == StampObject }
func (s Stamp) IsPointer() bool { return s.kind == StampPointer }

// NonNull returns true if the object or pointer is never null.
func (s Stamp) NonNull() bool { return s.nonNull }

// AlwaysNull returns true if the object is always null.
func (s Stamp) AlwaysNull() bool { return s.alwaysNull }

// IsCompressed returns true for narrow references.
func (s Stamp) IsCompressed() bool { return s.compressed }

// IsEmpty returns true if no value has this stamp.
func (s Stamp) IsEmpty() bool {
	switch s.kind {
	case StampInt:
		return s.lo > s.hi || (s.lo == 0 && s.hi == 0 && s.nonZero)
	case StampObject, StampPointer:
		return s.nonNull && s.alwaysNull
	default:
		return false
	}
}

// StackKind returns the operand stack kind of values with this stamp.
func (s Stamp) StackKind() JavaKind {
	switch s.kind {
	case StampInt:
		if s.bits == 64 {
			return KindLong
		}
		return KindInt
	case StampObject:
		return KindObject
	case StampPointer:
		if s.bits == 64 {
			return KindLong
		}
		return KindInt
	default:
		return KindVoid
	}
}

// Contains returns true if the integer v is in this stamp.
func (s Stamp) Contains(v int64) bool {
	if s.kind != StampInt {
		return false
	}
	if v == 0 && s.nonZero {
		return false
	}
	return s.lo <= v && v <= s.hi
}

// IsPositive returns true if every value is non-negative.
func (s Stamp) IsPositive() bool { return s.kind == StampInt && s.lo >= 0 }

// IsStrictlyPositive returns true if every value is greater than zero.
func (s Stamp) IsStrictlyPositive() bool { return s.kind == StampInt && s.lo > 0 }

// AsConstant returns the single integer of this stamp, if any.
func (s Stamp) AsConstant() (int64, bool) {
	if s.kind == StampInt && s.lo == s.hi {
		return s.lo, true
	}
	return 0, false
}

// IsCompatible returns true if values of both stamps can flow into the same phi.
func (s Stamp) IsCompatible(o Stamp) bool {
	if s.kind != o.kind {
		return false
	}
	switch s.kind {
	case StampInt, StampPointer:
		return s.bits == o.bits
	case StampObject:
		return s.compressed == o.compressed
	}
	return true
}

// Unrestricted returns the widest stamp of the same kind and width.
func (s Stamp) Unrestricted() Stamp {
	switch s.kind {
	case StampInt:
		return IntStampUnrestricted(int(s.bits))
	case StampObject:
		return Stamp{kind: StampObject, compressed: s.compressed}
	case StampPointer:
		return PointerStamp(int(s.bits), false)
	}
	return s
}

// Join returns the intersection of s and o.
func (s Stamp) Join(o Stamp) Stamp {
	if !s.IsCompatible(o) {
		panic(fmt.Sprintf("BUG: joining incompatible stamps %s and %s", s, o))
	}
	switch s.kind {
	case StampInt:
		ret := IntStamp(int(s.bits), max(s.lo, o.lo), min(s.hi, o.hi))
		ret.nonZero = s.nonZero || o.nonZero
		return ret.normalize()
	case StampObject, StampPointer:
		ret := s
		ret.nonNull = s.nonNull || o.nonNull
		ret.alwaysNull = s.alwaysNull || o.alwaysNull
		switch {
		case s.typ == nil:
			ret.typ, ret.exact = o.typ, o.exact
		case o.typ == nil:
		case s.typ.IsAssignableFrom(o.typ):
			ret.typ, ret.exact = o.typ, o.exact
		}
		return ret
	}
	return s
}

// Meet returns the union of s and o.
func (s Stamp) Meet(o Stamp) Stamp {
	if !s.IsCompatible(o) {
		panic(fmt.Sprintf("BUG: meeting incompatible stamps %s and %s", s, o))
	}
	switch s.kind {
	case StampInt:
		if s.IsEmpty() {
			return o
		} else if o.IsEmpty() {
			return s
		}
		ret := IntStamp(int(s.bits), min(s.lo, o.lo), max(s.hi, o.hi))
		ret.nonZero = s.nonZero && o.nonZero
		return ret.normalize()
	case StampObject, StampPointer:
		ret := s
		ret.nonNull = s.nonNull && o.nonNull
		ret.alwaysNull = s.alwaysNull && o.alwaysNull
		ret.exact = s.exact && o.exact && s.typ == o.typ
		switch {
		case s.alwaysNull:
			ret.typ, ret.exact = o.typ, o.exact
		case o.alwaysNull:
		case s.typ == nil || o.typ == nil:
			ret.typ = nil
		case s.typ.IsAssignableFrom(o.typ):
		case o.typ.IsAssignableFrom(s.typ):
			ret.typ = o.typ
		default:
			ret.typ = nil
		}
		return ret
	}
	return s
}

// AlwaysDistinct returns true if no value can have both stamps.
func (s Stamp) AlwaysDistinct(o Stamp) bool {
	if !s.IsCompatible(o) {
		return false
	}
	switch s.kind {
	case StampInt:
		return s.Join(o).IsEmpty()
	case StampObject, StampPointer:
		return (s.nonNull && o.alwaysNull) || (s.alwaysNull && o.nonNull)
	}
	return false
}

// ExcludeZero returns s without the value zero.
func (s Stamp) ExcludeZero() Stamp {
	if s.kind != StampInt {
		panic("BUG: ExcludeZero on a non-integer stamp")
	}
	s.nonZero = true
	return s.normalize()
}

// WithNonNull returns s restricted to non-null references.
func (s Stamp) WithNonNull() Stamp {
	s.nonNull = true
	return s
}

// Compressed returns the narrow-reference form of an object stamp.
func (s Stamp) Compressed() Stamp {
	s.compressed = true
	return s
}

// Uncompressed returns the full-width form of an object stamp.
func (s Stamp) Uncompressed() Stamp {
	s.compressed = false
	return s
}

func (s Stamp) normalize() Stamp {
	if s.nonZero {
		if s.lo == 0 && s.hi > 0 {
			s.lo = 1
		} else if s.hi == 0 && s.lo < 0 {
			s.hi = -1
		}
		if s.lo > 0 || s.hi < 0 {
			s.nonZero = false
		}
	}
	return s
}

// String implements fmt.Stringer.
func (s Stamp) String() string {
	switch s.kind {
	case StampVoid:
		return "void"
	case StampInt:
		nz := ""
		if s.nonZero {
			nz = "!0"
		}
		if s.lo == s.hi {
			return fmt.Sprintf("i%d[%d]", s.bits, s.lo)
		}
		if s.lo == MinValue(int(s.bits)) && s.hi == MaxValue(int(s.bits)) && !s.nonZero {
			return fmt.Sprintf("i%d", s.bits)
		}
		return fmt.Sprintf("i%d[%d..%d]%s", s.bits, s.lo, s.hi, nz)
	case StampObject:
		if s.alwaysNull {
			return "null"
		}
		ret := "a"
		if s.typ != nil {
			ret += "(" + s.typ.Name + ")"
		}
		if s.exact {
			ret += "="
		}
		if s.nonNull {
			ret += "!"
		}
		if s.compressed {
			ret = "n" + ret
		}
		return ret
	case StampPointer:
		ret := fmt.Sprintf("ptr%d", s.bits)
		if s.nonNull {
			ret += "!"
		}
		return ret
	default:
		panic("invalid stamp kind")
	}
}
