package ir

// This file holds the node constructors. Floating nodes are value numbered and
// simple algebraic identities are folded on creation; fixed nodes are always new
// and are linked into the control flow by the caller.

// ConstantInt returns the bits-wide integer constant v.
func (g *Graph) ConstantInt(bits int, v int64) *Node {
	v = SignExtend(v, bits)
	return g.unique(OpcodeConstant, ConstantStamp(bits, v), payload{c: v}, nil)
}

// ConstantNull returns the null reference.
func (g *Graph) ConstantNull() *Node {
	return g.unique(OpcodeConstant, NullStamp(), payload{}, nil)
}

// ConstantObject returns a named, non-null object constant of type t.
func (g *Graph) ConstantObject(t *Type, name string) *Node {
	return g.unique(OpcodeConstant, ExactObjectStamp(t, true), payload{tag: name}, nil)
}

// LogicConstant returns the boolean condition constant v.
func (g *Graph) LogicConstant(v bool) *Node {
	var p payload
	if v {
		p.flags = flagTrue
	}
	return g.unique(OpcodeLogicConstant, VoidStamp(), p, nil)
}

// Parameter returns the index-th argument of the method.
func (g *Graph) Parameter(index int, stamp Stamp) *Node {
	return g.unique(OpcodeParameter, stamp, payload{c: int64(index)}, nil)
}

// Pi returns value narrowed to stamp, valid under guard.
func (g *Graph) Pi(value *Node, stamp Stamp, guard *Node) *Node {
	joined := value.stamp.Join(stamp)
	if joined == value.stamp {
		return value
	}
	return g.unique(OpcodePi, joined, payload{}, guard, value)
}

// Add returns x + y.
func (g *Graph) Add(x, y *Node) *Node {
	bits := x.stamp.Bits()
	if x.IsIntConstant() && !y.IsIntConstant() {
		x, y = y, x
	}
	switch {
	case x.IsIntConstant() && y.IsIntConstant():
		return g.ConstantInt(bits, x.c+y.c)
	case y.IsIntConstant() && y.c == 0:
		return x
	}
	return g.unique(OpcodeAdd, addStamp(x.stamp, y.stamp), payload{}, nil, x, y)
}

// Sub returns x - y.
func (g *Graph) Sub(x, y *Node) *Node {
	bits := x.stamp.Bits()
	switch {
	case x.IsIntConstant() && y.IsIntConstant():
		return g.ConstantInt(bits, x.c-y.c)
	case y.IsIntConstant() && y.c == 0:
		return x
	case x == y:
		return g.ConstantInt(bits, 0)
	}
	neg := IntStampUnrestricted(bits)
	if y.stamp.lo != MinValue(bits) {
		neg = IntStamp(bits, -y.stamp.hi, -y.stamp.lo)
	}
	return g.unique(OpcodeSub, addStamp(x.stamp, neg), payload{}, nil, x, y)
}

func addStamp(a, b Stamp) Stamp {
	bits := a.Bits()
	lo, hi := a.lo+b.lo, a.hi+b.hi
	// Overflow of either bound, in 64 bits or in the stamp width, loses all information.
	if (b.lo < 0 && lo > a.lo) || (b.lo > 0 && lo < a.lo) || (b.hi < 0 && hi > a.hi) || (b.hi > 0 && hi < a.hi) ||
		lo < MinValue(bits) || hi > MaxValue(bits) {
		return IntStampUnrestricted(bits)
	}
	return IntStamp(bits, lo, hi)
}

// LeftShift returns x << shift.
func (g *Graph) LeftShift(x *Node, shift int) *Node {
	bits := x.stamp.Bits()
	if shift == 0 {
		return x
	}
	if x.IsIntConstant() {
		return g.ConstantInt(bits, x.c<<uint(shift))
	}
	s := g.ConstantInt(32, int64(shift))
	return g.unique(OpcodeLeftShift, IntStampUnrestricted(bits), payload{}, nil, x, s)
}

// SignExtend widens x to bits.
func (g *Graph) SignExtend(x *Node, bits int) *Node {
	if x.stamp.Bits() == bits {
		return x
	}
	if x.stamp.Bits() > bits {
		panic("BUG: SignExtend narrowing " + x.String())
	}
	if x.IsIntConstant() {
		return g.ConstantInt(bits, x.c)
	}
	stamp := IntStamp(bits, x.stamp.lo, x.stamp.hi)
	stamp.nonZero = x.stamp.nonZero
	return g.unique(OpcodeSignExtend, stamp, payload{}, nil, x)
}

// ZeroExtend widens x to bits, treating it as unsigned.
func (g *Graph) ZeroExtend(x *Node, bits int) *Node {
	from := x.stamp.Bits()
	if from == bits {
		return x
	}
	if from > bits {
		panic("BUG: ZeroExtend narrowing " + x.String())
	}
	if x.IsIntConstant() {
		return g.ConstantInt(bits, int64(ZeroExtend(x.c, from)))
	}
	stamp := IntStamp(bits, 0, int64(UnsignedMax(from)))
	if x.stamp.lo >= 0 {
		stamp = IntStamp(bits, x.stamp.lo, x.stamp.hi)
	}
	return g.unique(OpcodeZeroExtend, stamp, payload{}, nil, x)
}

// Narrow truncates x to bits.
func (g *Graph) Narrow(x *Node, bits int) *Node {
	from := x.stamp.Bits()
	if from == bits {
		return x
	}
	if from < bits {
		panic("BUG: Narrow widening " + x.String())
	}
	if x.IsIntConstant() {
		return g.ConstantInt(bits, x.c)
	}
	if x.is(OpcodeSignExtend) || x.is(OpcodeZeroExtend) {
		if in := x.Input(0); in.stamp.Bits() == bits {
			return in
		}
	}
	stamp := IntStampUnrestricted(bits)
	if x.stamp.lo >= MinValue(bits) && x.stamp.hi <= MaxValue(bits) {
		stamp = IntStamp(bits, x.stamp.lo, x.stamp.hi)
	}
	return g.unique(OpcodeNarrow, stamp, payload{}, nil, x)
}

// IntegerEquals returns the condition x == y.
func (g *Graph) IntegerEquals(x, y *Node) *Node {
	if x.IsIntConstant() && !y.IsIntConstant() {
		x, y = y, x
	}
	if c := foldCompare(OpcodeIntegerEquals, x, y); c != TriUnknown {
		return g.LogicConstant(c == TriTrue)
	}
	return g.unique(OpcodeIntegerEquals, VoidStamp(), payload{}, nil, x, y)
}

// IntegerLessThan returns the condition x < y (signed).
func (g *Graph) IntegerLessThan(x, y *Node) *Node {
	if c := foldCompare(OpcodeIntegerLessThan, x, y); c != TriUnknown {
		return g.LogicConstant(c == TriTrue)
	}
	return g.unique(OpcodeIntegerLessThan, VoidStamp(), payload{}, nil, x, y)
}

// IntegerBelow returns the condition x < y (unsigned).
func (g *Graph) IntegerBelow(x, y *Node) *Node {
	if c := foldCompare(OpcodeIntegerBelow, x, y); c != TriUnknown {
		return g.LogicConstant(c == TriTrue)
	}
	return g.unique(OpcodeIntegerBelow, VoidStamp(), payload{}, nil, x, y)
}

// ObjectEquals returns the reference comparison x == y.
func (g *Graph) ObjectEquals(x, y *Node) *Node {
	if x.IsNullConstant() && !y.IsNullConstant() {
		x, y = y, x
	}
	if y.IsNullConstant() {
		return g.IsNull(x)
	}
	if c := foldCompare(OpcodeObjectEquals, x, y); c != TriUnknown {
		return g.LogicConstant(c == TriTrue)
	}
	return g.unique(OpcodeObjectEquals, VoidStamp(), payload{}, nil, x, y)
}

// Compare returns the compare node of kind op over x and y.
func (g *Graph) Compare(op Opcode, x, y *Node) *Node {
	switch op {
	case OpcodeIntegerEquals:
		return g.IntegerEquals(x, y)
	case OpcodeIntegerLessThan:
		return g.IntegerLessThan(x, y)
	case OpcodeIntegerBelow:
		return g.IntegerBelow(x, y)
	case OpcodeObjectEquals:
		return g.ObjectEquals(x, y)
	default:
		panic("BUG: not a compare opcode: " + op.String())
	}
}

// IsNull returns the condition x == null.
func (g *Graph) IsNull(x *Node) *Node {
	switch {
	case x.stamp.AlwaysNull():
		return g.LogicConstant(true)
	case x.stamp.NonNull():
		return g.LogicConstant(false)
	}
	return g.unique(OpcodeIsNull, VoidStamp(), payload{}, nil, x)
}

// InstanceOf returns the type test `x instanceof t`. With allowsNull, null passes the test.
func (g *Graph) InstanceOf(x *Node, t *Type, allowsNull bool) *Node {
	var p payload
	p.typ = t
	if allowsNull && !x.stamp.NonNull() {
		p.flags = flagAllowsNull
	}
	if x.stamp.AlwaysNull() {
		return g.LogicConstant(allowsNull)
	}
	if st := x.stamp.Type(); st != nil && t.IsAssignableFrom(st) && (x.stamp.NonNull() || allowsNull) {
		return g.LogicConstant(true)
	}
	return g.unique(OpcodeInstanceOf, VoidStamp(), p, nil, x)
}

// LogicNegation returns the negation of the condition x.
func (g *Graph) LogicNegation(x *Node) *Node {
	switch x.op {
	case OpcodeLogicNegation:
		return x.Input(0)
	case OpcodeLogicConstant:
		return g.LogicConstant(!x.LogicValue())
	}
	return g.unique(OpcodeLogicNegation, VoidStamp(), payload{}, nil, x)
}

// ShortCircuitOr returns `(x ^ xNegated) || (y ^ yNegated)` where p is the
// probability of the first operand being true.
func (g *Graph) ShortCircuitOr(x *Node, xNegated bool, y *Node, yNegated bool, p BranchProbability) *Node {
	var pl payload
	pl.prob = p
	if xNegated {
		pl.flags |= flagXNegated
	}
	if yNegated {
		pl.flags |= flagYNegated
	}
	return g.unique(OpcodeShortCircuitOr, VoidStamp(), pl, nil, x, y)
}

// Conditional returns `cond ? t : f`.
func (g *Graph) Conditional(cond, t, f *Node) *Node {
	if v := CanonicalizeConditional(cond, t, f); v != nil {
		return v
	}
	return g.unique(OpcodeConditional, t.stamp.Meet(f.stamp), payload{}, nil, cond, t, f)
}

// NormalizeCompare returns -1, 0 or 1 as x is less than, equal to or greater than y.
func (g *Graph) NormalizeCompare(x, y *Node, kind JavaKind, unsigned bool) *Node {
	var p payload
	p.kind = kind
	if unsigned {
		p.flags = flagUnsigned
	}
	bits := 32
	if kind == KindLong {
		bits = 64
	}
	return g.unique(OpcodeNormalizeCompare, IntStamp(bits, -1, 1), p, nil, x, y)
}

// FloatingDiv returns a reorderable x / y, valid under guard.
func (g *Graph) FloatingDiv(x, y, guard *Node) *Node {
	return g.unique(OpcodeFloatingDiv, IntStampUnrestricted(x.stamp.Bits()), payload{}, guard, x, y)
}

// FloatingRem returns a reorderable x % y, valid under guard.
func (g *Graph) FloatingRem(x, y, guard *Node) *Node {
	return g.unique(OpcodeFloatingRem, IntStampUnrestricted(x.stamp.Bits()), payload{}, guard, x, y)
}

// OffsetAddress returns the address base + offset.
func (g *Graph) OffsetAddress(base, offset *Node) *Node {
	return g.unique(OpcodeOffsetAddress, PointerStamp(offset.stamp.Bits(), false), payload{}, nil, base, offset)
}

// FloatingRead returns a read of an immutable location, valid under guard.
func (g *Graph) FloatingRead(address *Node, loc LocationIdentity, stamp Stamp, guard *Node, barrier BarrierType) *Node {
	return g.unique(OpcodeFloatingRead, stamp, payload{loc: loc, barrier: barrier}, guard, address)
}

// Guard returns a floating guard that deoptimizes unless cond holds (or, if
// negated, when cond holds). The guard floats but may not rise above anchor.
func (g *Graph) Guard(cond, anchor *Node, reason DeoptReason, action DeoptAction, negated bool) *Node {
	p := payload{reason: reason, action: action}
	if negated {
		p.flags = flagNegated
	}
	return g.unique(OpcodeGuard, VoidStamp(), p, anchor, cond)
}

// LoadHub returns the hub of the object x, valid under guard.
func (g *Graph) LoadHub(x *Node, stamp Stamp, guard *Node) *Node {
	return g.unique(OpcodeLoadHub, stamp, payload{}, guard, x)
}

// GetClass returns the class mirror of x.
func (g *Graph) GetClass(x *Node, stamp Stamp) *Node {
	return g.unique(OpcodeGetClass, stamp, payload{}, nil, x)
}

// HubGetClass returns the class mirror of the hub.
func (g *Graph) HubGetClass(hub *Node, stamp Stamp) *Node {
	return g.unique(OpcodeHubGetClass, stamp, payload{}, nil, hub)
}

// ClassGetHub returns the hub of the class mirror.
func (g *Graph) ClassGetHub(class *Node, stamp Stamp) *Node {
	return g.unique(OpcodeClassGetHub, stamp, payload{}, nil, class)
}

// KlassLayoutHelper returns the layout helper word of the hub.
func (g *Graph) KlassLayoutHelper(hub *Node) *Node {
	return g.unique(OpcodeKlassLayoutHelper, IntStampUnrestricted(32), payload{}, nil, hub)
}

// Compress returns the narrow form of the reference or pointer v.
func (g *Graph) Compress(v *Node, stamp Stamp) *Node {
	if v.is(OpcodeUncompress) && v.Input(0).stamp == stamp {
		return v.Input(0)
	}
	return g.unique(OpcodeCompress, stamp, payload{}, nil, v)
}

// Uncompress returns the full-width form of the narrow reference or pointer v.
func (g *Graph) Uncompress(v *Node, stamp Stamp) *Node {
	if v.is(OpcodeCompress) && v.Input(0).stamp == stamp {
		return v.Input(0)
	}
	return g.unique(OpcodeUncompress, stamp, payload{}, nil, v)
}

// OSRLocal returns the placeholder for the interpreter local index of the given kind.
func (g *Graph) OSRLocal(index int, kind JavaKind, stamp Stamp) *Node {
	return g.unique(OpcodeOSRLocal, stamp, payload{c: int64(index), kind: kind}, nil)
}

// OSRLock returns the placeholder for the object locked by the interpreter monitor index.
func (g *Graph) OSRLock(index int, stamp Stamp) *Node {
	return g.unique(OpcodeOSRLock, stamp, payload{c: int64(index)}, nil)
}

// Phi returns a new value phi of merge with the given per-end values.
func (g *Graph) Phi(merge *Node, stamp Stamp, values ...*Node) *Node {
	if !merge.op.IsMerge() {
		panic("BUG: phi of non-merge " + merge.String())
	}
	return g.add(OpcodePhi, stamp, payload{}, append([]*Node{merge}, values...)...)
}

// ValueProxy returns a new proxy of value at the loop exit.
func (g *Graph) ValueProxy(value, exit *Node) *Node {
	if !exit.is(OpcodeLoopExit) {
		panic("BUG: proxy at non loop exit " + exit.String())
	}
	return g.add(OpcodeValueProxy, value.stamp, payload{}, value, exit)
}

// FrameState returns a new interpreter state snapshot at bci.
func (g *Graph) FrameState(bci int, locals, stack, locks []*Node) *Node {
	p := payload{c: int64(bci), frame: frameLayout{locals: uint16(len(locals)), stack: uint16(len(stack)), locks: uint16(len(locks))}}
	inputs := make([]*Node, 0, len(locals)+len(stack)+len(locks))
	inputs = append(inputs, locals...)
	inputs = append(inputs, stack...)
	inputs = append(inputs, locks...)
	return g.add(OpcodeFrameState, VoidStamp(), p, inputs...)
}

// MethodCallTarget returns a new unresolved call target.
func (g *Graph) MethodCallTarget(kind InvokeKind, method *Method, returnStamp Stamp, args ...*Node) *Node {
	return g.add(OpcodeMethodCallTarget, returnStamp, payload{invoke: kind, method: method}, args...)
}

// DirectCallTarget returns a new call target bound to the entry of method.
func (g *Graph) DirectCallTarget(kind InvokeKind, method *Method, returnStamp Stamp, args ...*Node) *Node {
	return g.add(OpcodeDirectCallTarget, returnStamp, payload{invoke: kind, method: method}, args...)
}

// IndirectCallTarget returns a new call target that jumps to entry with
// metaspaceMethod in the method register.
func (g *Graph) IndirectCallTarget(entry, metaspaceMethod *Node, kind InvokeKind, method *Method, returnStamp Stamp, args ...*Node) *Node {
	inputs := append([]*Node{entry, metaspaceMethod}, args...)
	return g.add(OpcodeIndirectCallTarget, returnStamp, payload{invoke: kind, method: method}, inputs...)
}

// ---- fixed nodes ----

// Begin returns a new Begin.
func (g *Graph) Begin() *Node { return g.add(OpcodeBegin, VoidStamp(), payload{}) }

// LoopExit returns a new exit of loopBegin.
func (g *Graph) LoopExit(loopBegin *Node) *Node {
	return g.add(OpcodeLoopExit, VoidStamp(), payload{}, loopBegin)
}

// Merge returns a new Merge without ends.
func (g *Graph) Merge() *Node { return g.add(OpcodeMerge, VoidStamp(), payload{}) }

// LoopBegin returns a new LoopBegin without ends.
func (g *Graph) LoopBegin() *Node { return g.add(OpcodeLoopBegin, VoidStamp(), payload{}) }

// End returns a new End.
func (g *Graph) End() *Node { return g.add(OpcodeEnd, VoidStamp(), payload{}) }

// LoopEnd returns a new back edge of loopBegin.
func (g *Graph) LoopEnd(loopBegin *Node) *Node {
	index := int64(len(loopBegin.LoopEnds()))
	return g.add(OpcodeLoopEnd, VoidStamp(), payload{c: index}, loopBegin)
}

// If returns a new If on cond with the given successors.
func (g *Graph) If(cond, trueSucc, falseSucc *Node, p BranchProbability) *Node {
	n := g.add(OpcodeIf, VoidStamp(), payload{prob: p}, cond)
	n.SetSuccessor(0, trueSucc)
	n.SetSuccessor(1, falseSucc)
	return n
}

// Return returns a new Return of the optional result.
func (g *Graph) Return(result *Node) *Node {
	return g.add(OpcodeReturn, VoidStamp(), payload{}, result)
}

// Deoptimize returns a new Deoptimize.
func (g *Graph) Deoptimize(reason DeoptReason, action DeoptAction, state *Node) *Node {
	n := g.add(OpcodeDeoptimize, VoidStamp(), payload{reason: reason, action: action})
	n.SetStateBefore(state)
	return n
}

// SetStateBefore sets the frame state a Deoptimize resumes at.
func (n *Node) SetStateBefore(fs *Node) { n.setEdge(edgeStateDuring, fs) }

// StateBefore returns the frame state a Deoptimize resumes at.
func (n *Node) StateBefore() *Node { return n.edge(edgeStateDuring) }

// FixedGuard returns a new fixed guard on cond.
func (g *Graph) FixedGuard(cond *Node, reason DeoptReason, action DeoptAction, negated bool) *Node {
	p := payload{reason: reason, action: action}
	if negated {
		p.flags = flagNegated
	}
	return g.add(OpcodeFixedGuard, VoidStamp(), p, cond)
}

// Read returns a new fixed read.
func (g *Graph) Read(address *Node, loc LocationIdentity, stamp Stamp, barrier BarrierType, order MemoryOrder) *Node {
	return g.add(OpcodeRead, stamp, payload{loc: loc, barrier: barrier, order: order}, address)
}

// Write returns a new fixed write of value.
func (g *Graph) Write(address, value *Node, loc LocationIdentity, barrier BarrierType, order MemoryOrder) *Node {
	return g.add(OpcodeWrite, VoidStamp(), payload{loc: loc, barrier: barrier, order: order}, address, value)
}

// ForeignCall returns a new call of a runtime routine.
func (g *Graph) ForeignCall(desc *ForeignCallDescriptor, stamp Stamp, args ...*Node) *Node {
	return g.add(OpcodeForeignCall, stamp, payload{call: desc}, args...)
}

// BeginLockScope returns a new lock record allocation at depth.
func (g *Graph) BeginLockScope(depth, wordBits int) *Node {
	return g.add(OpcodeBeginLockScope, PointerStamp(wordBits, true), payload{c: int64(depth)})
}

// Invoke returns a new call of target.
func (g *Graph) Invoke(target *Node) *Node {
	return g.add(OpcodeInvoke, target.stamp, payload{}, target)
}

// SignedDiv returns a new fixed x / y.
func (g *Graph) SignedDiv(x, y *Node) *Node {
	return g.add(OpcodeSignedDiv, IntStampUnrestricted(x.stamp.Bits()), payload{flags: flagCanDeopt}, x, y)
}

// SignedRem returns a new fixed x % y.
func (g *Graph) SignedRem(x, y *Node) *Node {
	return g.add(OpcodeSignedRem, IntStampUnrestricted(x.stamp.Bits()), payload{flags: flagCanDeopt}, x, y)
}

// LoadField returns a new load of f from obj (nil for static fields).
func (g *Graph) LoadField(obj *Node, f *Field, stamp Stamp) *Node {
	p := payload{field: f}
	if f.Volatile {
		p.flags = flagVolatile
	}
	return g.add(OpcodeLoadField, stamp, p, obj)
}

// StoreField returns a new store of value to f in obj.
func (g *Graph) StoreField(obj *Node, f *Field, value *Node) *Node {
	p := payload{field: f}
	if f.Volatile {
		p.flags = flagVolatile
	}
	return g.add(OpcodeStoreField, VoidStamp(), p, obj, value)
}

// LoadIndexed returns a new load of array[index].
func (g *Graph) LoadIndexed(array, index *Node, kind JavaKind, stamp Stamp) *Node {
	return g.add(OpcodeLoadIndexed, stamp, payload{kind: kind}, array, index)
}

// StoreIndexed returns a new store of value to array[index].
func (g *Graph) StoreIndexed(array, index *Node, kind JavaKind, value *Node) *Node {
	return g.add(OpcodeStoreIndexed, VoidStamp(), payload{kind: kind}, array, index, value)
}

// ArrayLength returns a new load of the length of array.
func (g *Graph) ArrayLength(array *Node) *Node {
	return g.add(OpcodeArrayLength, IntStamp(32, 0, MaxValue(32)), payload{}, array)
}

// Unbox returns a new unboxing of value into kind.
func (g *Graph) Unbox(value *Node, kind JavaKind) *Node {
	bits := kind.StackKind().Bits()
	return g.add(OpcodeUnbox, IntStampUnrestricted(bits), payload{kind: kind}, value)
}

// NewInstance returns a new allocation of t.
func (g *Graph) NewInstance(t *Type) *Node {
	return g.add(OpcodeNewInstance, ExactObjectStamp(t, true), payload{typ: t})
}

// NewArray returns a new allocation of an array of t with length.
func (g *Graph) NewArray(t *Type, length *Node) *Node {
	return g.add(OpcodeNewArray, ExactObjectStamp(t, true), payload{typ: t}, length)
}

// MonitorEnter returns a new lock of obj at depth.
func (g *Graph) MonitorEnter(obj *Node, depth int) *Node {
	return g.add(OpcodeMonitorEnter, VoidStamp(), payload{c: int64(depth)}, obj, nil)
}

// MonitorExit returns a new unlock of obj at depth.
func (g *Graph) MonitorExit(obj *Node, depth int) *Node {
	return g.add(OpcodeMonitorExit, VoidStamp(), payload{c: int64(depth)}, obj)
}

// OSRMonitorEnter returns a new re-lock of obj at depth after an OSR entry.
func (g *Graph) OSRMonitorEnter(obj *Node, depth int) *Node {
	return g.add(OpcodeOSRMonitorEnter, VoidStamp(), payload{c: int64(depth)}, obj)
}

// StoreHub returns a new write of hub into the header of obj.
func (g *Graph) StoreHub(obj, hub *Node) *Node {
	return g.add(OpcodeStoreHub, VoidStamp(), payload{}, obj, hub)
}

// LoadMethod returns a new load of the vtable entry of method from hub.
func (g *Graph) LoadMethod(hub *Node, method *Method, receiver *Type, stamp Stamp) *Node {
	return g.add(OpcodeLoadMethod, stamp, payload{method: method, typ: receiver}, hub)
}

// BytecodeException returns a new implicit exception creation.
func (g *Graph) BytecodeException(kind BytecodeExceptionKind, stamp Stamp, args ...*Node) *Node {
	return g.add(OpcodeBytecodeException, stamp, payload{exKind: kind}, args...)
}

// Extension returns a new fixed node of the external kind tag.
func (g *Graph) Extension(tag string, stamp Stamp, args ...*Node) *Node {
	return g.add(OpcodeExtension, stamp, payload{tag: tag}, args...)
}

// OSRStart returns a new OSR entry node, not yet installed as the start.
func (g *Graph) OSRStart() *Node {
	return g.add(OpcodeOSRStart, VoidStamp(), payload{})
}
