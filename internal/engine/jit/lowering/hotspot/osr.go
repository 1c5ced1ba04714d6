package hotspot

import (
	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
	"github.com/oracle/graal-sub160/internal/engine/jit/lowering"
)

// lowerOSRStart replaces the OSR entry with a regular start that reads the
// interpreter locals and locks out of the OSR buffer passed as the only
// argument, then releases the buffer.
//
// The buffer holds the locals in reverse order followed by two words per
// lock, the displaced mark word then the object:
//
//	buffer + (maxLocals-1)*w                   local 0
//	buffer + (maxLocals+2*locks-1-2*i)*w       lock i object
//	buffer + (maxLocals+2*locks-1-2*i-1)*w     lock i displaced mark
func (p *Provider) lowerOSRStart(osrStart *ir.Node, tool lowering.Tool) ir.Outcome {
	g := tool.Graph()
	state := osrStart.StateAfter()
	if state == nil {
		return ir.FatalOutcome(ir.Fatalf([]*ir.Node{osrStart}, "OSR entry without a frame state"))
	}
	method := g.Method()
	w := p.Offsets().OSRSlotSize.I64()

	newStart := g.AddFixed(ir.OpcodeStart, ir.VoidStamp())
	buffer := g.Parameter(0, p.wordStamp(false))
	migrationEnd := g.ForeignCall(jitapi.OSRMigrationEnd, ir.VoidStamp(), buffer)
	migrationEnd.SetStateAfter(state)
	next := osrStart.Next()
	osrStart.SetNext(nil)
	migrationEnd.SetNext(next)
	newStart.SetNext(migrationEnd)
	g.SetStart(newStart)

	localsOffset := int64(method.MaxLocals-1) * w
	for _, local := range g.NodesOf(ir.OpcodeOSRLocal) {
		size := int64(local.JavaKind().SlotCount())
		offset := localsOffset - (int64(local.Index())+size-1)*w
		load := g.Read(p.CreateOffsetAddress(g, buffer, offset), ir.LocationAny, local.Stamp(), ir.BarrierNone, ir.OrderPlain)
		local.ReplaceAtUsages(load)
		local.SafeDelete()
		g.AddBeforeFixed(migrationEnd, load)
	}

	lockCount := int64(state.LocksSize())
	locksOffset := (int64(method.MaxLocals) + lockCount*2 - 1) * w
	for _, enter := range g.NodesOf(ir.OpcodeOSRMonitorEnter) {
		lock := enter.Input(0)
		if lock.Opcode() != ir.OpcodeOSRLock {
			return ir.FatalOutcome(ir.Fatalf([]*ir.Node{enter, lock}, "OSR monitor enter of %s", lock))
		}
		index := int64(lock.Index())
		displacedOffset := locksOffset - (index*2+1)*w
		objectOffset := locksOffset - index*2*w

		displaced := g.Read(p.CreateOffsetAddress(g, buffer, displacedOffset), ir.LocationAny, p.wordStamp(false), ir.BarrierNone, ir.OrderPlain)
		g.AddBeforeFixed(migrationEnd, displaced)
		scope := g.BeginLockScope(enter.LockDepth(), p.Options().WordBits())
		g.AddBeforeFixed(migrationEnd, scope)
		slot := p.CreateOffsetAddress(g, scope, p.Offsets().BasicLockDisplacedHeaderOffset.I64())
		g.AddBeforeFixed(migrationEnd, g.Write(slot, displaced, ir.LocationDisplacedMarkWord, ir.BarrierNone, ir.OrderPlain))

		object := g.Read(p.CreateOffsetAddress(g, buffer, objectOffset), ir.LocationAny, lock.Stamp(), ir.BarrierNone, ir.OrderPlain)
		lock.ReplaceAtUsages(object)
		lock.SafeDelete()
		g.AddBeforeFixed(migrationEnd, object)
	}

	osrStart.ReplaceAtUsages(newStart)
	osrStart.SafeDelete()
	return ir.OutcomeApplied
}
