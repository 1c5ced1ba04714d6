package ir

// Opcode represents the kind of a Node. Node is a flattened struct and the
// meaning of its payload fields depends on the Opcode.
type Opcode uint16

const (
	OpcodeInvalid Opcode = iota

	// OpcodeStart is the entry of the graph: `Start -> next`. Carries the entry frame state.
	OpcodeStart

	// OpcodeOSRStart is the entry of an on-stack-replacement compilation. Locals and locks are
	// OSRLocal/OSRLock placeholders until the OSR entry is lowered.
	OpcodeOSRStart

	// OpcodeBegin starts a straight-line control flow region after a split.
	OpcodeBegin

	// OpcodeLoopExit is a Begin that leaves the loop given by input 0.
	OpcodeLoopExit

	// OpcodeMerge joins its input End nodes: `Merge(end0, end1, ...)`.
	OpcodeMerge

	// OpcodeLoopBegin is a Merge whose back edges are LoopEnd nodes referring to it.
	OpcodeLoopBegin

	// OpcodeEnd is a forward edge into the Merge that uses it.
	OpcodeEnd

	// OpcodeLoopEnd is a back edge into the LoopBegin given by input 0.
	OpcodeLoopEnd

	// OpcodeIf branches on the logic input 0 to successors (true, false).
	OpcodeIf

	// OpcodeReturn returns the optional input 0.
	OpcodeReturn

	// OpcodeDeoptimize unconditionally leaves compiled code with a reason and action.
	OpcodeDeoptimize

	// OpcodeFixedGuard deoptimizes unless the condition (input 0) holds, or fails when negated.
	OpcodeFixedGuard

	// OpcodeRead is a fixed memory read from the address input 0.
	OpcodeRead

	// OpcodeWrite writes input 1 to the address input 0.
	OpcodeWrite

	// OpcodeForeignCall invokes a runtime routine with the inputs as arguments.
	OpcodeForeignCall

	// OpcodeBeginLockScope allocates a lock record slot and produces its address.
	OpcodeBeginLockScope

	// OpcodeInvoke calls the call target in input 0.
	OpcodeInvoke

	// OpcodeSignedDiv is a fixed `x / y` that may fault on a zero divisor.
	OpcodeSignedDiv

	// OpcodeSignedRem is a fixed `x % y` that may fault on a zero divisor.
	OpcodeSignedRem

	// OpcodeLoadField loads a field from the object input 0 (nil input for static fields).
	OpcodeLoadField

	// OpcodeStoreField stores input 1 into a field of the object input 0.
	OpcodeStoreField

	// OpcodeLoadIndexed loads array[index] (inputs 0, 1).
	OpcodeLoadIndexed

	// OpcodeStoreIndexed stores input 2 to array[index] (inputs 0, 1).
	OpcodeStoreIndexed

	// OpcodeArrayLength produces the length of the array input 0.
	OpcodeArrayLength

	// OpcodeUnbox unboxes the object input 0 into a primitive of the payload kind.
	OpcodeUnbox

	// OpcodeNewInstance allocates an instance of the payload type.
	OpcodeNewInstance

	// OpcodeNewArray allocates an array with the length input 0.
	OpcodeNewArray

	// OpcodeMonitorEnter locks the object input 0; input 1 is an optional pre-loaded hub.
	OpcodeMonitorEnter

	// OpcodeMonitorExit unlocks the object input 0.
	OpcodeMonitorExit

	// OpcodeOSRMonitorEnter re-establishes a lock held by the interpreter at an OSR entry.
	OpcodeOSRMonitorEnter

	// OpcodeStoreHub overwrites the hub of the object input 0 with input 1.
	OpcodeStoreHub

	// OpcodeLoadMethod loads a method pointer from the vtable of the hub input 0.
	OpcodeLoadMethod

	// OpcodeBytecodeException creates and throws an implicit exception of the payload kind.
	OpcodeBytecodeException

	// OpcodeExtension is a fixed node whose kind is only known to an externally registered lowering.
	OpcodeExtension

	// OpcodeConstant is an integer, null or word constant.
	OpcodeConstant

	// OpcodeLogicConstant is a boolean condition constant.
	OpcodeLogicConstant

	// OpcodeParameter is the incoming argument with the payload index.
	OpcodeParameter

	// OpcodePhi selects a value by incoming edge: `Phi(merge, v0, v1, ...)`.
	OpcodePhi

	// OpcodeValueProxy anchors input 0 to the LoopExit input 1.
	OpcodeValueProxy

	// OpcodePi narrows the stamp of input 0 under the guard edge.
	OpcodePi

	OpcodeAdd
	OpcodeSub
	OpcodeLeftShift

	// OpcodeSignExtend widens input 0 to the stamp width.
	OpcodeSignExtend

	// OpcodeZeroExtend widens input 0 to the stamp width, filling with zeros.
	OpcodeZeroExtend

	// OpcodeNarrow truncates input 0 to the stamp width.
	OpcodeNarrow

	OpcodeIntegerEquals
	OpcodeIntegerLessThan

	// OpcodeIntegerBelow is the unsigned `x < y`.
	OpcodeIntegerBelow

	OpcodeObjectEquals
	OpcodeIsNull

	// OpcodeInstanceOf tests input 0 against the payload type; the allowsNull flag makes null pass.
	OpcodeInstanceOf

	OpcodeLogicNegation

	// OpcodeShortCircuitOr is `(x ^ xNeg) || (y ^ yNeg)` with a probability for x.
	OpcodeShortCircuitOr

	// OpcodeConditional is `cond ? t : f`.
	OpcodeConditional

	// OpcodeNormalizeCompare produces -1, 0 or 1 comparing inputs 0 and 1.
	OpcodeNormalizeCompare

	// OpcodeFloatingDiv is a reorderable `x / y` protected by the guard edge.
	OpcodeFloatingDiv

	// OpcodeFloatingRem is a reorderable `x % y` protected by the guard edge.
	OpcodeFloatingRem

	// OpcodeOffsetAddress is `base + offset`.
	OpcodeOffsetAddress

	// OpcodeFloatingRead reads an immutable or non-aliased location from the address input 0.
	OpcodeFloatingRead

	// OpcodeGuard is a floating deoptimization check anchored by the guard edge.
	OpcodeGuard

	// OpcodeLoadHub loads the type metadata pointer of the object input 0.
	OpcodeLoadHub

	// OpcodeGetClass produces the class mirror of the object input 0.
	OpcodeGetClass

	OpcodeHubGetClass
	OpcodeClassGetHub
	OpcodeKlassLayoutHelper

	OpcodeCompress
	OpcodeUncompress

	// OpcodeFrameState is an interpreter state snapshot: `FrameState(locals..., stack..., locks...)`.
	OpcodeFrameState

	// OpcodeOSRLocal is a placeholder for the interpreter local with the payload index.
	OpcodeOSRLocal

	// OpcodeOSRLock is a placeholder for the object locked by the interpreter monitor with the payload index.
	OpcodeOSRLock

	// OpcodeMethodCallTarget is the unresolved target of an Invoke: `MethodCallTarget(args...)`.
	OpcodeMethodCallTarget

	// OpcodeDirectCallTarget is a call target resolved to a method entry.
	OpcodeDirectCallTarget

	// OpcodeIndirectCallTarget calls through the compiled entry in input 0: `IndirectCallTarget(entry, method, args...)`.
	OpcodeIndirectCallTarget

	opcodeEnd
)

type opcodeFlags uint32

const (
	opFixed opcodeFlags = 1 << iota
	opFixedWithNext
	opBegin
	opMerge
	opEnd
	opSplit
	opSink
	opLogic
	opCompare
	opValueNumberable
	opControlFlowAnchored
	opStateSplit
)

type opcodeInfo struct {
	name  string
	flags opcodeFlags
}

const (
	fixedWithNext = opFixed | opFixedWithNext
	begin         = fixedWithNext | opBegin
	floating      = opValueNumberable
	logic         = opLogic | opValueNumberable
	compare       = logic | opCompare
)

var opcodeInfos = [opcodeEnd]opcodeInfo{
	OpcodeInvalid:            {"Invalid", 0},
	OpcodeStart:              {"Start", begin | opStateSplit},
	OpcodeOSRStart:           {"OSRStart", begin | opStateSplit},
	OpcodeBegin:              {"Begin", begin},
	OpcodeLoopExit:           {"LoopExit", begin | opStateSplit},
	OpcodeMerge:              {"Merge", begin | opMerge | opStateSplit},
	OpcodeLoopBegin:          {"LoopBegin", begin | opMerge | opStateSplit},
	OpcodeEnd:                {"End", opFixed | opEnd},
	OpcodeLoopEnd:            {"LoopEnd", opFixed | opEnd},
	OpcodeIf:                 {"If", opFixed | opSplit},
	OpcodeReturn:             {"Return", opFixed | opSink},
	OpcodeDeoptimize:         {"Deoptimize", opFixed | opSink},
	OpcodeFixedGuard:         {"FixedGuard", fixedWithNext},
	OpcodeRead:               {"Read", fixedWithNext},
	OpcodeWrite:              {"Write", fixedWithNext | opStateSplit},
	OpcodeForeignCall:        {"ForeignCall", fixedWithNext | opStateSplit},
	OpcodeBeginLockScope:     {"BeginLockScope", fixedWithNext | opControlFlowAnchored},
	OpcodeInvoke:             {"Invoke", fixedWithNext | opStateSplit},
	OpcodeSignedDiv:          {"SignedDiv", fixedWithNext},
	OpcodeSignedRem:          {"SignedRem", fixedWithNext},
	OpcodeLoadField:          {"LoadField", fixedWithNext},
	OpcodeStoreField:         {"StoreField", fixedWithNext | opStateSplit},
	OpcodeLoadIndexed:        {"LoadIndexed", fixedWithNext},
	OpcodeStoreIndexed:       {"StoreIndexed", fixedWithNext | opStateSplit},
	OpcodeArrayLength:        {"ArrayLength", fixedWithNext},
	OpcodeUnbox:              {"Unbox", fixedWithNext},
	OpcodeNewInstance:        {"NewInstance", fixedWithNext | opStateSplit},
	OpcodeNewArray:           {"NewArray", fixedWithNext | opStateSplit},
	OpcodeMonitorEnter:       {"MonitorEnter", fixedWithNext | opStateSplit | opControlFlowAnchored},
	OpcodeMonitorExit:        {"MonitorExit", fixedWithNext | opStateSplit | opControlFlowAnchored},
	OpcodeOSRMonitorEnter:    {"OSRMonitorEnter", fixedWithNext | opControlFlowAnchored},
	OpcodeStoreHub:           {"StoreHub", fixedWithNext},
	OpcodeLoadMethod:         {"LoadMethod", fixedWithNext},
	OpcodeBytecodeException:  {"BytecodeException", fixedWithNext | opStateSplit},
	OpcodeExtension:          {"Extension", fixedWithNext | opStateSplit | opControlFlowAnchored},
	OpcodeConstant:           {"Constant", floating},
	OpcodeLogicConstant:      {"LogicConstant", logic},
	OpcodeParameter:          {"Parameter", floating},
	OpcodePhi:                {"Phi", 0},
	OpcodeValueProxy:         {"ValueProxy", 0},
	OpcodePi:                 {"Pi", floating},
	OpcodeAdd:                {"Add", floating},
	OpcodeSub:                {"Sub", floating},
	OpcodeLeftShift:          {"LeftShift", floating},
	OpcodeSignExtend:         {"SignExtend", floating},
	OpcodeZeroExtend:         {"ZeroExtend", floating},
	OpcodeNarrow:             {"Narrow", floating},
	OpcodeIntegerEquals:      {"IntegerEquals", compare},
	OpcodeIntegerLessThan:    {"IntegerLessThan", compare},
	OpcodeIntegerBelow:       {"IntegerBelow", compare},
	OpcodeObjectEquals:       {"ObjectEquals", compare},
	OpcodeIsNull:             {"IsNull", logic},
	OpcodeInstanceOf:         {"InstanceOf", logic},
	OpcodeLogicNegation:      {"LogicNegation", logic},
	OpcodeShortCircuitOr:     {"ShortCircuitOr", logic},
	OpcodeConditional:        {"Conditional", floating},
	OpcodeNormalizeCompare:   {"NormalizeCompare", floating},
	OpcodeFloatingDiv:        {"FloatingDiv", floating},
	OpcodeFloatingRem:        {"FloatingRem", floating},
	OpcodeOffsetAddress:      {"OffsetAddress", floating},
	OpcodeFloatingRead:       {"FloatingRead", floating},
	OpcodeGuard:              {"Guard", floating},
	OpcodeLoadHub:            {"LoadHub", floating},
	OpcodeGetClass:           {"GetClass", floating},
	OpcodeHubGetClass:        {"HubGetClass", floating},
	OpcodeClassGetHub:        {"ClassGetHub", floating},
	OpcodeKlassLayoutHelper:  {"KlassLayoutHelper", floating},
	OpcodeCompress:           {"Compress", floating},
	OpcodeUncompress:         {"Uncompress", floating},
	OpcodeFrameState:         {"FrameState", 0},
	OpcodeOSRLocal:           {"OSRLocal", floating},
	OpcodeOSRLock:            {"OSRLock", floating},
	OpcodeMethodCallTarget:   {"MethodCallTarget", 0},
	OpcodeDirectCallTarget:   {"DirectCallTarget", 0},
	OpcodeIndirectCallTarget: {"IndirectCallTarget", 0},
}

// String implements fmt.Stringer.
func (o Opcode) String() string {
	if o >= opcodeEnd {
		panic("invalid opcode")
	}
	return opcodeInfos[o].name
}

func (o Opcode) has(f opcodeFlags) bool { return opcodeInfos[o].flags&f != 0 }

// IsFixed returns true if nodes of this kind are ordered in the control flow.
func (o Opcode) IsFixed() bool { return o.has(opFixed) }

// IsFixedWithNext returns true if nodes of this kind have exactly one successor, the next node.
func (o Opcode) IsFixedWithNext() bool { return o.has(opFixedWithNext) }

// IsBegin returns true for Start, Begin, LoopExit, Merge and LoopBegin.
func (o Opcode) IsBegin() bool { return o.has(opBegin) }

// IsMerge returns true for Merge and LoopBegin.
func (o Opcode) IsMerge() bool { return o.has(opMerge) }

// IsEnd returns true for End and LoopEnd.
func (o Opcode) IsEnd() bool { return o.has(opEnd) }

// IsLogic returns true if the node produces a condition consumable by If and guards.
func (o Opcode) IsLogic() bool { return o.has(opLogic) }

// IsCompare returns true for binary comparisons `x cond y`.
func (o Opcode) IsCompare() bool { return o.has(opCompare) }

// IsControlFlowAnchored returns true for kinds that must never be moved across control flow.
func (o Opcode) IsControlFlowAnchored() bool { return o.has(opControlFlowAnchored) }

// IsStateSplit returns true for kinds carrying a frame state after their side effect.
func (o Opcode) IsStateSplit() bool { return o.has(opStateSplit) }

func (o Opcode) valueNumberable() bool { return o.has(opValueNumberable) }
