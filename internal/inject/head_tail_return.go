/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package inject

import (
	"github.com/relay-cn/mixforge/internal/classtree"
	"github.com/relay-cn/mixforge/internal/diag"
	"github.com/relay-cn/mixforge/internal/directive"
	"github.com/relay-cn/mixforge/internal/inline"
)

// HeadInjector implements @Inject(at = HEAD): materialize the handler onto
// the target class, then splice a call prologue at the very first
// instruction of the target method, before anything else runs.
func HeadInjector(target, mixin *classtree.ClassTree, d *directive.Inject, rebindings []inline.Rebinding, sink *diag.Sink) error {
	tm := target.FindMethod(d.Target.Name, d.Target.Desc)
	if tm == nil {
		reportMissing(sink, target.Name, d.Target.String(), "HEAD inject target not found")
		return nil
	}
	handler := mixin.FindMethod(splitHandlerName(d.Method))
	if handler == nil {
		reportMissing(sink, mixin.Name, d.Method, "HEAD inject handler not found on mixin")
		return nil
	}

	prologue, err := buildCallbackPrologue(target, mixin, tm, handler, "head", rebindings, d.Cancellable)
	if err != nil {
		return diag.Wrap(err, "HEAD inject on "+tm.Key())
	}
	idx := tm.Instructions.IndexOf(tm.Instructions.First())
	tm.Instructions.InsertBefore(idx, prologue...)
	return nil
}

// TailInjector implements @Inject(at = TAIL): the callback fires once, right
// before the method's final RETURN — the last return instruction the
// decoder found, not every return in the body (that's RETURN, not TAIL).
func TailInjector(target, mixin *classtree.ClassTree, d *directive.Inject, rebindings []inline.Rebinding, sink *diag.Sink) error {
	tm := target.FindMethod(d.Target.Name, d.Target.Desc)
	if tm == nil {
		reportMissing(sink, target.Name, d.Target.String(), "TAIL inject target not found")
		return nil
	}
	handler := mixin.FindMethod(splitHandlerName(d.Method))
	if handler == nil {
		reportMissing(sink, mixin.Name, d.Method, "TAIL inject handler not found on mixin")
		return nil
	}
	returns := tm.Instructions.ReturnIndexes()
	if len(returns) == 0 {
		reportMissing(sink, target.Name, tm.Key(), "TAIL inject: method has no return instruction")
		return nil
	}
	last := returns[len(returns)-1]

	prologue, err := buildCallbackPrologue(target, mixin, tm, handler, "tail", rebindings, d.Cancellable)
	if err != nil {
		return diag.Wrap(err, "TAIL inject on "+tm.Key())
	}
	tm.Instructions.InsertBefore(last, prologue...)
	return nil
}

// ReturnInjector implements @Inject(at = RETURN): the callback fires before
// every matching RETURN instruction (or just the one at d.Ordinal, when
// Ordinal >= 0), unlike TAIL which only ever fires once.
func ReturnInjector(target, mixin *classtree.ClassTree, d *directive.Inject, rebindings []inline.Rebinding, sink *diag.Sink) error {
	tm := target.FindMethod(d.Target.Name, d.Target.Desc)
	if tm == nil {
		reportMissing(sink, target.Name, d.Target.String(), "RETURN inject target not found")
		return nil
	}
	handler := mixin.FindMethod(splitHandlerName(d.Method))
	if handler == nil {
		reportMissing(sink, mixin.Name, d.Method, "RETURN inject handler not found on mixin")
		return nil
	}
	returns := tm.Instructions.ReturnIndexes()
	if len(returns) == 0 {
		reportMissing(sink, target.Name, tm.Key(), "RETURN inject: method has no return instruction")
		return nil
	}
	if d.Ordinal >= 0 && d.Ordinal >= len(returns) {
		reportMissing(sink, target.Name, tm.Key(), "RETURN inject: ordinal out of range")
		return nil
	}

	// Insert back-to-front so earlier indexes stay valid as later ones shift
	// the list rightward.
	targets := returns
	if d.Ordinal >= 0 {
		targets = []int{returns[d.Ordinal]}
	}
	for i := len(targets) - 1; i >= 0; i-- {
		prologue, err := buildCallbackPrologue(target, mixin, tm, handler, "return", rebindings, d.Cancellable)
		if err != nil {
			return diag.Wrap(err, "RETURN inject on "+tm.Key())
		}
		tm.Instructions.InsertBefore(targets[i], prologue...)
	}
	return nil
}

// buildCallbackPrologue materializes a fresh copy of handler onto target on
// every call (so ReturnInjector adds one copy per return it instruments)
// and returns the per-call-site instruction sequence: construct
// CallbackInfo, call that materialized copy, and act on cancellation.
func buildCallbackPrologue(target, mixin *classtree.ClassTree, tm, handler *classtree.MethodNode, kind string, rebindings []inline.Rebinding, cancellable bool) ([]classtree.Insn, error) {
	retDesc := tm.ReturnDescriptor()
	name := freshHandlerName(kind, tm.Key())
	synthetic, err := materializeHandler(target, mixin, handler, name, rebindings)
	if err != nil {
		return nil, err
	}

	ciSlot := tm.MaxLocals
	tm.MaxLocals++

	var out []classtree.Insn
	out = append(out, newCallbackInfo(cancellable, retDesc, ciSlot)...)
	out = append(out, loadArgs(tm.IsStatic(), tm.Desc)...)
	out = append(out, &classtree.VarOperand{Opcode: classtree.OpAload, Var: ciSlot})

	invoke := classtree.OpInvokespecial
	if tm.IsStatic() {
		invoke = classtree.OpInvokestatic
	}
	out = append(out, &classtree.MethodRef{Opcode: invoke, Owner: target.Name, Name: synthetic.Name, Desc: synthetic.Desc})

	if !cancellable {
		return out, nil
	}
	after := classtree.NewLabel("after-" + kind)
	out = append(out, cancelCheck(ciSlot, retDesc, after)...)
	out = append(out, &classtree.LabelMark{L: after})
	return out, nil
}

// splitHandlerName splits a mixin source-method reference of the form
// "name(desc)" into its two parts, the way directive.Inject.Method is
// written.
func splitHandlerName(ref string) (name, desc string) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == '(' {
			return ref[:i], ref[i:]
		}
	}
	return ref, ""
}
