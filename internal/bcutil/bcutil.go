/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package bcutil is component A of the engine: the small bytecode utility
// functions every injector and the inline code generator build on top of —
// recognizing and reading constant-load instructions, boxing/unboxing
// between a primitive and its wrapper, emitting a parameter load or a
// descriptor-correct return, and parsing the "owner/Class.name(desc)"
// member-reference strings directive targets are written in.
package bcutil

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/relay-cn/mixforge/internal/classfile"
	"github.com/relay-cn/mixforge/internal/classtree"
	"github.com/relay-cn/mixforge/internal/types"
)

// IsConstant reports whether insn pushes a compile-time constant: the
// iconst/lconst/fconst/dconst family, aconst_null, bipush/sipush, or any
// form of ldc.
func IsConstant(insn classtree.Insn) bool {
	switch v := insn.(type) {
	case *classtree.Plain:
		switch v.Opcode {
		case classtree.OpAconstNull,
			classtree.OpIconstM1, classtree.OpIconst0, classtree.OpIconst1,
			classtree.OpIconst2, classtree.OpIconst3, classtree.OpIconst4, classtree.OpIconst5,
			classtree.OpLconst0, classtree.OpLconst1,
			classtree.OpFconst0, classtree.OpFconst1, classtree.OpFconst2,
			classtree.OpDconst0, classtree.OpDconst1:
			return true
		}
		return false
	case *classtree.IntOperand:
		return v.Opcode == classtree.OpBipush || v.Opcode == classtree.OpSipush
	case *classtree.Ldc:
		return true
	default:
		return false
	}
}

// ConstantValue extracts the Go value a constant-load instruction pushes.
// For ldc of a class literal, the value is the internal class name; ldc of
// a string is a Go string; everything numeric is the matching Go numeric
// type.
func ConstantValue(insn classtree.Insn) (interface{}, bool) {
	switch v := insn.(type) {
	case *classtree.Plain:
		switch v.Opcode {
		case classtree.OpAconstNull:
			return nil, true
		case classtree.OpIconstM1:
			return int32(-1), true
		case classtree.OpIconst0:
			return int32(0), true
		case classtree.OpIconst1:
			return int32(1), true
		case classtree.OpIconst2:
			return int32(2), true
		case classtree.OpIconst3:
			return int32(3), true
		case classtree.OpIconst4:
			return int32(4), true
		case classtree.OpIconst5:
			return int32(5), true
		case classtree.OpLconst0:
			return int64(0), true
		case classtree.OpLconst1:
			return int64(1), true
		case classtree.OpFconst0:
			return float32(0), true
		case classtree.OpFconst1:
			return float32(1), true
		case classtree.OpFconst2:
			return float32(2), true
		case classtree.OpDconst0:
			return float64(0), true
		case classtree.OpDconst1:
			return float64(1), true
		}
		return nil, false
	case *classtree.IntOperand:
		if v.Opcode == classtree.OpBipush || v.Opcode == classtree.OpSipush {
			return v.Operand, true
		}
		return nil, false
	case *classtree.Ldc:
		return v.Value, true
	default:
		return nil, false
	}
}

// ConstantType returns the descriptor of the value a constant-load
// instruction produces, used by ModifyConstantInjector to validate a
// replacement's type against the original's.
func ConstantType(insn classtree.Insn) (string, bool) {
	val, ok := ConstantValue(insn)
	if !ok {
		return "", false
	}
	switch val.(type) {
	case nil:
		return "L" + types.ObjectClassName + ";", true
	case int32:
		return types.Int, true
	case int64:
		return types.Long, true
	case float32:
		return types.Float, true
	case float64:
		return types.Double, true
	case string:
		return "Ljava/lang/String;", true
	default:
		return "", false
	}
}

// LoadParam builds the instruction that loads local-variable slot for a
// value of descriptor desc (an xLOAD opcode picked by category).
func LoadParam(slot int, desc string) classtree.Insn {
	return &classtree.VarOperand{Opcode: classtree.LoadOpcodeFor(desc), Var: slot}
}

// StoreParam builds the instruction that stores the top of the operand
// stack into local-variable slot for a value of descriptor desc.
func StoreParam(slot int, desc string) classtree.Insn {
	return &classtree.VarOperand{Opcode: classtree.StoreOpcodeFor(desc), Var: slot}
}

// MakeReturn builds the descriptor-correct RETURN-family instruction.
func MakeReturn(desc string) classtree.Insn {
	return &classtree.Plain{Opcode: classtree.ReturnOpcodeFor(desc)}
}

// Box returns the instruction sequence that converts a primitive value on
// top of the operand stack into its wrapper type, via the wrapper's static
// valueOf(prim) method — the standard javac autoboxing idiom. desc must be
// a primitive descriptor; non-primitives are returned unchanged (boxing a
// reference is a no-op).
func Box(cp *classfile.ConstantPool, desc string) []classtree.Insn {
	if !types.IsPrimitive(desc) || desc == types.Void {
		return nil
	}
	wrapper := types.WrapperClass[desc]
	_ = cp // interning happens lazily at encode time via MethodRef.Owner/Name/Desc
	return []classtree.Insn{
		&classtree.MethodRef{
			Opcode: classtree.OpInvokestatic,
			Owner:  wrapper,
			Name:   "valueOf",
			Desc:   "(" + desc + ")L" + wrapper + ";",
		},
	}
}

// Unbox returns the instruction sequence that converts a boxed wrapper
// reference on top of the operand stack back into its primitive value: a
// checkcast to the wrapper type followed by its instance unboxing method.
// desc must be a primitive descriptor.
func Unbox(desc string) []classtree.Insn {
	if !types.IsPrimitive(desc) || desc == types.Void {
		return nil
	}
	wrapper := types.WrapperClass[desc]
	m := types.UnboxMethod[desc]
	return []classtree.Insn{
		&classtree.TypeOperand{Opcode: classtree.OpCheckcast, Type: wrapper},
		&classtree.MethodRef{Opcode: classtree.OpInvokevirtual, Owner: wrapper, Name: m.Name, Desc: m.Desc},
	}
}

// MemberRef is a parsed "owner/Class.name(descriptor)returnDesc" reference,
// the form directive targets (redirect/accessor/invoker targets, shadow
// field/method bindings) are written in.
type MemberRef struct {
	Owner string
	Name  string
	Desc  string // method descriptor "(...)" + return, or field descriptor
}

// MethodDescriptorParse parses a member-reference string of the form
// "owner/pkg/Class.name(Ldesc;)V" (methods) or "owner/pkg/Class.name:T"
// (fields, descriptor after a colon) into its owner/name/descriptor parts.
func MethodDescriptorParse(ref string) (MemberRef, error) {
	dot := strings.LastIndexByte(ref, '.')
	if dot < 0 {
		return MemberRef{}, errors.Errorf("member reference %q missing owner separator '.'", ref)
	}
	owner := ref[:dot]
	rest := ref[dot+1:]

	if paren := strings.IndexByte(rest, '('); paren >= 0 {
		name := rest[:paren]
		if name == "" {
			return MemberRef{}, errors.Errorf("member reference %q missing method name", ref)
		}
		return MemberRef{Owner: owner, Name: name, Desc: rest[paren:]}, nil
	}
	if colon := strings.IndexByte(rest, ':'); colon >= 0 {
		return MemberRef{Owner: owner, Name: rest[:colon], Desc: rest[colon+1:]}, nil
	}
	return MemberRef{}, errors.Errorf("member reference %q missing method '(' or field ':' descriptor", ref)
}

// SplitParams re-exports classtree's descriptor splitter so callers that
// only need bcutil don't have to import classtree directly for it.
func SplitParams(desc string) []string { return classtree.SplitParams(desc) }

// SplitMethodDescriptor re-exports classtree's descriptor splitter.
func SplitMethodDescriptor(desc string) ([]string, string) {
	return classtree.SplitMethodDescriptor(desc)
}
