package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Format returns a debug dump of the live nodes of g in ID order, one node per line.
func (g *Graph) Format() string {
	var sb strings.Builder
	for _, n := range g.Nodes() {
		sb.WriteString(n.Format())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Format returns a one-line description of n with its inputs, edges and successors.
func (n *Node) Format() string {
	var sb strings.Builder
	sb.WriteString(n.id.String())
	sb.WriteString(" = ")
	sb.WriteString(n.op.String())
	if detail := n.formatPayload(); detail != "" {
		sb.WriteByte('[')
		sb.WriteString(detail)
		sb.WriteByte(']')
	}
	sb.WriteByte('(')
	for i, id := range n.inputs {
		if i > 0 {
			sb.WriteString(", ")
		}
		if id == nilNode {
			sb.WriteString("-")
		} else {
			sb.WriteString(id.String())
		}
	}
	sb.WriteByte(')')
	for e, name := range [edgeCount]string{"stateAfter", "stateDuring", "guard"} {
		if id := n.edges[e]; id != nilNode {
			fmt.Fprintf(&sb, " %s=%s", name, id)
		}
	}
	if len(n.succs) > 0 {
		sb.WriteString(" -> [")
		for i, id := range n.succs {
			if i > 0 {
				sb.WriteString(", ")
			}
			if id == nilNode {
				sb.WriteString("-")
			} else {
				sb.WriteString(id.String())
			}
		}
		sb.WriteByte(']')
	}
	if n.stamp.kind != StampVoid {
		sb.WriteString(" : ")
		sb.WriteString(n.stamp.String())
	}
	return sb.String()
}

func (n *Node) formatPayload() string {
	switch n.op {
	case OpcodeConstant:
		switch {
		case n.stamp.AlwaysNull():
			return "null"
		case n.stamp.IsInt():
			return strconv.FormatInt(n.c, 10)
		default:
			return n.tag
		}
	case OpcodeLogicConstant:
		return strconv.FormatBool(n.LogicValue())
	case OpcodeParameter, OpcodeOSRLock:
		return strconv.Itoa(n.Index())
	case OpcodeOSRLocal:
		return fmt.Sprintf("%d %s", n.Index(), n.kind)
	case OpcodeIf:
		return n.prob.String()
	case OpcodeShortCircuitOr:
		return fmt.Sprintf("%t %t %s", n.has(flagXNegated), n.has(flagYNegated), n.prob)
	case OpcodeGuard, OpcodeFixedGuard:
		return fmt.Sprintf("%s %s negated=%t", n.reason, n.action, n.IsNegated())
	case OpcodeDeoptimize:
		return fmt.Sprintf("%s %s", n.reason, n.action)
	case OpcodeRead, OpcodeWrite, OpcodeFloatingRead:
		return fmt.Sprintf("%s %s %s", n.loc, n.barrier, n.order)
	case OpcodeForeignCall:
		return n.call.String()
	case OpcodeLoadField, OpcodeStoreField:
		return n.field.String()
	case OpcodeLoadIndexed, OpcodeStoreIndexed, OpcodeUnbox:
		return n.kind.String()
	case OpcodeInstanceOf, OpcodeNewInstance, OpcodeNewArray:
		return n.typ.String()
	case OpcodeMethodCallTarget, OpcodeDirectCallTarget, OpcodeIndirectCallTarget:
		return fmt.Sprintf("%s %s", n.invoke, n.method)
	case OpcodeLoadMethod:
		return n.method.String()
	case OpcodeBytecodeException:
		return n.exKind.String()
	case OpcodeExtension:
		return n.tag
	case OpcodeMonitorEnter, OpcodeMonitorExit, OpcodeOSRMonitorEnter, OpcodeBeginLockScope:
		return strconv.Itoa(n.LockDepth())
	case OpcodeFrameState:
		return fmt.Sprintf("bci=%d locals=%d stack=%d locks=%d", n.BCI(), n.frame.locals, n.frame.stack, n.frame.locks)
	case OpcodeNormalizeCompare:
		if n.IsUnsigned() {
			return "unsigned"
		}
	}
	return ""
}
