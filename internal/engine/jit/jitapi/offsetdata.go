package jitapi

import "github.com/oracle/graal-sub160/internal/engine/jit/ir"

// OffsetData holds the offsets into VM-owned memory that lowered code reads and
// writes directly: object headers, hubs, class mirrors, lock records and the OSR
// migration buffer.
//
// This must match the layout of the VM the code is compiled for.
type OffsetData struct {
	// HubOffset is the offset of the hub (klass pointer) in an object header.
	HubOffset Offset
	// ArrayLengthOffset is the offset of the length field in an array header.
	ArrayLengthOffset Offset
	// InstanceHeaderSize is the offset of the first field of an instance.
	InstanceHeaderSize Offset
	// ArrayBaseOffsets is the offset of element 0 in an array, per element kind.
	ArrayBaseOffsets [ir.KindObject + 1]Offset

	// VTableStartOffset is the offset of the first vtable entry in a hub.
	VTableStartOffset Offset
	// VTableEntrySize is the size of a vtable entry.
	VTableEntrySize Offset
	// VTableEntryMethodOffset is the offset of the method pointer in a vtable entry.
	VTableEntryMethodOffset Offset
	// MethodCompiledEntryOffset is the offset of the compiled code entry point in a method.
	MethodCompiledEntryOffset Offset

	// KlassLayoutHelperOffset is the offset of the layout helper word in a hub.
	KlassLayoutHelperOffset Offset
	// ClassMirrorOffset is the offset of the OopHandle of the class mirror in a hub.
	ClassMirrorOffset Offset
	// KlassOffset is the offset of the hub pointer in a class mirror.
	KlassOffset Offset

	// BasicLockDisplacedHeaderOffset is the offset of the displaced mark word in a lock record.
	BasicLockDisplacedHeaderOffset Offset
	// OSRSlotSize is the width of a slot in the OSR migration buffer.
	OSRSlotSize Offset
}

// Offset represents an offset of a field in VM memory.
type Offset int32

// I64 widens an Offset for use as a constant.
func (o Offset) I64() int64 {
	return int64(o)
}

// ArrayBaseOffset returns the offset of element 0 of an array of kind k.
func (d *OffsetData) ArrayBaseOffset(k ir.JavaKind) Offset {
	return d.ArrayBaseOffsets[k]
}

// BoxValueOffset returns the offset of the value field of the box class of kind k.
func (d *OffsetData) BoxValueOffset(k ir.JavaKind) Offset {
	size := Offset(k.ByteCount(0))
	return (d.InstanceHeaderSize + size - 1) / size * size
}

// VTableEntryOffset returns the offset in a hub of the method pointer of vtable slot index.
func (d *OffsetData) VTableEntryOffset(index int) Offset {
	return d.VTableStartOffset + Offset(index)*d.VTableEntrySize + d.VTableEntryMethodOffset
}

// NewOffsetData creates the OffsetData of a VM configured by opts.
func NewOffsetData(opts *Options) OffsetData {
	w := Offset(opts.WordSize)
	d := OffsetData{
		HubOffset:                      w,
		VTableEntrySize:                w,
		VTableStartOffset:              56 * w,
		MethodCompiledEntryOffset:      7 * w,
		KlassLayoutHelperOffset:        w,
		ClassMirrorOffset:              14 * w,
		KlassOffset:                    9 * w,
		BasicLockDisplacedHeaderOffset: 0,
		OSRSlotSize:                    w,
	}

	// The mark word comes first, then the hub. A compressed hub leaves a
	// 4 byte gap the length field can use.
	hubSize := w
	if opts.UseCompressedClassPointers {
		hubSize = 4
	}
	d.InstanceHeaderSize = d.HubOffset + hubSize
	d.ArrayLengthOffset = d.InstanceHeaderSize
	headerEnd := d.ArrayLengthOffset + 4
	for k := ir.KindBoolean; k <= ir.KindObject; k++ {
		size := Offset(k.ByteCount(opts.ReferenceSize()))
		d.ArrayBaseOffsets[k] = (headerEnd + size - 1) / size * size
	}
	return d
}
