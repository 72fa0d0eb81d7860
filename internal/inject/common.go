/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package inject is component E: one function per directive family, each
// taking a target class tree, the mixin class tree supplying the source
// code, and the parsed directive, and mutating the target in place. Every
// injector reports a non-fatal diagnostic (rather than erroring out the
// whole transform) when its target can't be found, per spec §7 — a single
// bad directive must not abort every other directive's work.
package inject

import (
	"fmt"
	"sync/atomic"

	"github.com/relay-cn/mixforge/internal/bcutil"
	"github.com/relay-cn/mixforge/internal/classtree"
	"github.com/relay-cn/mixforge/internal/diag"
	"github.com/relay-cn/mixforge/internal/inline"
)

// CallbackInfoClass is the runtime support class every HEAD/TAIL/RETURN
// handler communicates through. Like the classfile parser, the
// redirection-manager runtime spec §1 scopes out of this engine, this
// class is assumed present on the eventual runtime classpath; mixforge
// only ever emits references to it, never defines it.
const CallbackInfoClass = "org/mixforge/runtime/CallbackInfo"

var handlerSeq int64

// freshHandlerName mints a unique synthetic method name for a materialized
// handler, so splicing the same mixin method in at two different
// injection points never collides.
func freshHandlerName(kind, targetMethod string) string {
	n := atomic.AddInt64(&handlerSeq, 1)
	return fmt.Sprintf("mixforge$%s$%s$%d", kind, sanitize(targetMethod), n)
}

func sanitize(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

// materializeHandler copies a mixin method's body onto the target class
// under a fresh private name, rebinding shadow/copy members along the way,
// and returns the new MethodNode already appended to target.Methods.
func materializeHandler(target, mixin *classtree.ClassTree, handler *classtree.MethodNode, name string, rebindings []inline.Rebinding) (*classtree.MethodNode, error) {
	plan := inline.Plan{
		MixinClass:  mixin.Name,
		TargetClass: target.Name,
		Rebindings:  rebindings,
		LocalBase:   0,
	}
	body, maxLocals, err := inline.Splice(handler, plan)
	if err != nil {
		return nil, err
	}
	access := classtree.AccPrivate
	if handler.IsStatic() {
		access |= classtree.AccStatic
	}
	mn := &classtree.MethodNode{
		Access:       uint16(access),
		Name:         name,
		Desc:         handler.Desc,
		Instructions: body,
		TryCatch:     cloneTryCatch(handler.TryCatch),
		MaxLocals:    maxLocals,
		MaxStack:     handler.MaxStack + 4,
	}
	target.AddMethod(mn)
	return mn, nil
}

func cloneTryCatch(tc []classtree.TryCatchBlock) []classtree.TryCatchBlock {
	return append([]classtree.TryCatchBlock(nil), tc...)
}

// loadArgs emits the instructions that push `this` (if !static) followed by
// every declared parameter of desc, in slot order — the call prologue every
// materialized-handler call site shares.
func loadArgs(static bool, desc string) []classtree.Insn {
	var out []classtree.Insn
	slot := 0
	if !static {
		out = append(out, &classtree.VarOperand{Opcode: classtree.OpAload, Var: 0})
		slot = 1
	}
	for _, p := range bcutil.SplitParams(desc) {
		out = append(out, bcutil.LoadParam(slot, p))
		slot += classtree.SlotSize(p)
	}
	return out
}

// newCallbackInfo emits `new CallbackInfo; dup; iconst_<cancellable>;
// [default boxed return value, if retDesc isn't void]; invokespecial <init>`
// followed by storing the instance into ciSlot.
func newCallbackInfo(cancellable bool, retDesc string, ciSlot int) []classtree.Insn {
	flag := classtree.OpIconst0
	if cancellable {
		flag = classtree.OpIconst1
	}
	out := []classtree.Insn{
		&classtree.TypeOperand{Opcode: classtree.OpNew, Type: CallbackInfoClass},
		&classtree.Plain{Opcode: classtree.OpDup},
		&classtree.Plain{Opcode: flag},
	}
	ctorDesc := "(Z)V"
	if retDesc != "" && retDesc != "V" {
		out = append(out, &classtree.Plain{Opcode: classtree.OpAconstNull})
		ctorDesc = "(ZLjava/lang/Object;)V"
	}
	out = append(out,
		&classtree.MethodRef{Opcode: classtree.OpInvokespecial, Owner: CallbackInfoClass, Name: "<init>", Desc: ctorDesc},
		&classtree.VarOperand{Opcode: classtree.OpAstore, Var: ciSlot},
	)
	return out
}

// cancelCheck emits the `if (ci.isCancelled()) return [ci.getReturnValue()]`
// sequence that follows every materialized-handler call, jumping to after
// label when the callback did not cancel.
func cancelCheck(ciSlot int, retDesc string, after *classtree.Label) []classtree.Insn {
	out := []classtree.Insn{
		&classtree.VarOperand{Opcode: classtree.OpAload, Var: ciSlot},
		&classtree.MethodRef{Opcode: classtree.OpInvokevirtual, Owner: CallbackInfoClass, Name: "isCancelled", Desc: "()Z"},
		&classtree.Jump{Opcode: classtree.OpIfeq, Target: after},
	}
	if retDesc == "" || retDesc == "V" {
		out = append(out, bcutil.MakeReturn("V"))
		return out
	}
	out = append(out,
		&classtree.VarOperand{Opcode: classtree.OpAload, Var: ciSlot},
		&classtree.MethodRef{Opcode: classtree.OpInvokevirtual, Owner: CallbackInfoClass, Name: "getReturnValue", Desc: "()Ljava/lang/Object;"},
	)
	out = append(out, bcutil.Unbox(retDesc)...)
	out = append(out, bcutil.MakeReturn(retDesc))
	return out
}

// reportMissing records the common "directive target not found on class"
// diagnostic every injector raises the same way.
func reportMissing(sink *diag.Sink, class, member, what string) {
	sink.Report(diag.DirectiveTargetMissing, class, member, what, nil)
}
