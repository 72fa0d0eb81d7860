/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package inject

import (
	"github.com/relay-cn/mixforge/internal/classtree"
	"github.com/relay-cn/mixforge/internal/diag"
	"github.com/relay-cn/mixforge/internal/directive"
)

// AccessorGenerator implements @Accessor: synthesizes a public getter or
// setter for a target field that has no accessor of its own, named and
// shaped by the directive's Method ("name()desc" for a getter, "name(desc)V"
// for a setter).
func AccessorGenerator(target *classtree.ClassTree, d *directive.Accessor, sink *diag.Sink) error {
	fd := target.FindField(d.Field)
	if fd == nil {
		reportMissing(sink, target.Name, d.Field, "accessor target field not found")
		return nil
	}
	name, desc := splitHandlerName(d.Method)
	access := uint16(classtree.AccPublic)
	if fd.IsStatic() {
		access |= classtree.AccStatic
	}

	insns := classtree.NewInsnList()
	readOp := classtree.OpGetfield
	writeOp := classtree.OpPutfield
	if fd.IsStatic() {
		readOp, writeOp = classtree.OpGetstatic, classtree.OpPutstatic
	}

	if d.Getter {
		if !fd.IsStatic() {
			insns.Append(&classtree.VarOperand{Opcode: classtree.OpAload, Var: 0})
		}
		insns.Append(&classtree.FieldRef{Opcode: readOp, Owner: target.Name, Name: fd.Name, Desc: fd.Desc})
		insns.Append(&classtree.Plain{Opcode: classtree.ReturnOpcodeFor(fd.Desc)})
	} else {
		slot := 0
		if !fd.IsStatic() {
			insns.Append(&classtree.VarOperand{Opcode: classtree.OpAload, Var: 0})
			slot = 1
		}
		insns.Append(&classtree.VarOperand{Opcode: classtree.LoadOpcodeFor(fd.Desc), Var: slot})
		insns.Append(&classtree.FieldRef{Opcode: writeOp, Owner: target.Name, Name: fd.Name, Desc: fd.Desc})
		insns.Append(&classtree.Plain{Opcode: classtree.OpReturn})
	}

	maxLocals := 1
	if !fd.IsStatic() {
		maxLocals++
	}
	target.AddMethod(&classtree.MethodNode{
		Access:       access,
		Name:         name,
		Desc:         desc,
		Instructions: insns,
		MaxLocals:    maxLocals + classtree.SlotSize(fd.Desc),
		MaxStack:     classtree.SlotSize(fd.Desc) + 1,
	})
	return nil
}

// InvokerGenerator implements @Invoker: synthesizes a public trampoline
// that calls a private or protected target method directly, giving outside
// code (typically another mixin) a way to reach it.
func InvokerGenerator(target *classtree.ClassTree, d *directive.Invoker, sink *diag.Sink) error {
	tm := target.FindMethod(d.Target.Name, d.Target.Desc)
	if tm == nil {
		reportMissing(sink, target.Name, d.Target.String(), "invoker target method not found")
		return nil
	}
	name, desc := splitHandlerName(d.Method)
	if desc == "" {
		desc = tm.Desc
	}

	insns := classtree.NewInsnList()
	insns.Append(loadArgs(tm.IsStatic(), tm.Desc)...)
	invoke := classtree.OpInvokespecial
	if tm.IsStatic() {
		invoke = classtree.OpInvokestatic
	}
	insns.Append(&classtree.MethodRef{Opcode: invoke, Owner: target.Name, Name: tm.Name, Desc: tm.Desc})
	insns.Append(&classtree.Plain{Opcode: classtree.ReturnOpcodeFor(tm.ReturnDescriptor())})

	access := uint16(classtree.AccPublic)
	if tm.IsStatic() {
		access |= classtree.AccStatic
	}
	target.AddMethod(&classtree.MethodNode{
		Access:       access,
		Name:         name,
		Desc:         desc,
		Instructions: insns,
		MaxLocals:    tm.ParamSlotCount(),
		MaxStack:     tm.ParamSlotCount() + 1,
	})
	return nil
}
