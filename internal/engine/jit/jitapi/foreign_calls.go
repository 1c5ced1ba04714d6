package jitapi

import "github.com/oracle/graal-sub160/internal/engine/jit/ir"

// ForeignCallDescriptor names a runtime routine callable from compiled code.
type ForeignCallDescriptor = ir.ForeignCallDescriptor

var (
	// OSRMigrationEnd frees the interpreter's OSR buffer once compiled code has read it.
	OSRMigrationEnd = &ForeignCallDescriptor{Name: "OSR_MIGRATION_END", Result: ir.KindVoid, Args: 1}

	CreateNullPointerException       = &ForeignCallDescriptor{Name: "createNullPointerException", Result: ir.KindObject}
	CreateOutOfBoundsException       = &ForeignCallDescriptor{Name: "createOutOfBoundsException", Result: ir.KindObject, Args: 2}
	CreateClassCastException         = &ForeignCallDescriptor{Name: "createClassCastException", Result: ir.KindObject, Args: 2}
	CreateArrayStoreException        = &ForeignCallDescriptor{Name: "createArrayStoreException", Result: ir.KindObject, Args: 1}
	CreateDivisionByZeroException    = &ForeignCallDescriptor{Name: "createDivisionByZeroException", Result: ir.KindObject}
	CreateIntegerOverflowException   = &ForeignCallDescriptor{Name: "createIntegerOverflowException", Result: ir.KindObject}
	CreateLongOverflowException      = &ForeignCallDescriptor{Name: "createLongOverflowException", Result: ir.KindObject}
	CreateNegativeArraySizeException = &ForeignCallDescriptor{Name: "createNegativeArraySizeException", Result: ir.KindObject, Args: 1}

	// NewInstance, NewArray, MonitorEnter and MonitorExit are the slow paths
	// of the allocation and locking snippets.
	NewInstance  = &ForeignCallDescriptor{Name: "new_instance", Result: ir.KindObject, Args: 1}
	NewArray     = &ForeignCallDescriptor{Name: "new_array", Result: ir.KindObject, Args: 2}
	MonitorEnter = &ForeignCallDescriptor{Name: "monitorenter", Result: ir.KindVoid, Args: 2}
	MonitorExit  = &ForeignCallDescriptor{Name: "monitorexit", Result: ir.KindVoid, Args: 2}
	// InstanceOf is the out-of-line type check used by the instanceof snippet.
	InstanceOf = &ForeignCallDescriptor{Name: "instanceof", Result: ir.KindBoolean, Args: 2}
)

// BytecodeExceptionCall returns the runtime routine that creates exceptions of kind k.
func BytecodeExceptionCall(k ir.BytecodeExceptionKind) *ForeignCallDescriptor {
	switch k {
	case ir.ExceptionNullPointer:
		return CreateNullPointerException
	case ir.ExceptionOutOfBounds:
		return CreateOutOfBoundsException
	case ir.ExceptionClassCast:
		return CreateClassCastException
	case ir.ExceptionArrayStore:
		return CreateArrayStoreException
	case ir.ExceptionDivisionByZero:
		return CreateDivisionByZeroException
	case ir.ExceptionIntegerExactOverflow:
		return CreateIntegerOverflowException
	case ir.ExceptionLongExactOverflow:
		return CreateLongOverflowException
	case ir.ExceptionNegativeArraySize:
		return CreateNegativeArraySizeException
	default:
		panic("BUG: unknown bytecode exception kind " + k.String())
	}
}
