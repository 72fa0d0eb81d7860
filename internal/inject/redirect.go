/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package inject

import (
	"github.com/relay-cn/mixforge/internal/bcutil"
	"github.com/relay-cn/mixforge/internal/classtree"
	"github.com/relay-cn/mixforge/internal/diag"
	"github.com/relay-cn/mixforge/internal/directive"
	"github.com/relay-cn/mixforge/internal/inline"
)

// RedirectInjector implements @Redirect: a matched call site or field
// access is rerouted to a materialized static handler instead of its
// original target. Because the operand stack already holds exactly the
// values the original instruction needed — receiver then arguments for an
// instance call, just arguments for a static one, the owner reference for a
// field get, owner-then-value for a field put — redirecting never needs to
// move anything: it is a pure in-place rewrite of the one instruction into
// an invokestatic call to the handler with the equivalent descriptor.
func RedirectInjector(target, mixin *classtree.ClassTree, d *directive.Redirect, rebindings []inline.Rebinding, sink *diag.Sink) error {
	tm := target.FindMethod(d.Target.Name, d.Target.Desc)
	if tm == nil {
		reportMissing(sink, target.Name, d.Target.String(), "redirect target not found")
		return nil
	}
	handler := mixin.FindMethod(splitHandlerName(d.Method))
	if handler == nil {
		reportMissing(sink, mixin.Name, d.Method, "redirect handler not found on mixin")
		return nil
	}
	ref, err := bcutil.MethodDescriptorParse(d.At)
	if err != nil {
		sink.Report(diag.DirectiveShapeInvalid, target.Name, tm.Key(), "redirect 'at' member reference invalid", err)
		return nil
	}
	sites := findCallSites(tm.Instructions, ref)
	idx, err := selectOrdinal(sites, d.Ordinal)
	if err != nil {
		sink.Report(diag.DirectiveTargetMissing, target.Name, tm.Key(), "redirect call site "+d.At+" not found", err)
		return nil
	}

	name := freshHandlerName("redirect", tm.Key())
	synthetic, err := materializeHandler(target, mixin, handler, name, rebindings)
	if err != nil {
		return diag.Wrap(err, "redirect on "+tm.Key())
	}
	synthetic.Access = classtree.AccPrivate | classtree.AccStatic

	items := tm.Instructions.All()
	switch v := items[idx].(type) {
	case *classtree.MethodRef:
		v.Opcode = classtree.OpInvokestatic
		v.Owner, v.Name, v.Desc, v.IsInterface = target.Name, synthetic.Name, synthetic.Desc, false
	case *classtree.FieldRef:
		// A field access becomes a one-instruction call: drop the
		// FieldRef and splice in the equivalent invokestatic.
		call := &classtree.MethodRef{Opcode: classtree.OpInvokestatic, Owner: target.Name, Name: synthetic.Name, Desc: synthetic.Desc}
		items[idx] = call
	default:
		sink.Report(diag.DirectiveShapeInvalid, target.Name, tm.Key(), "redirect: matched instruction is neither a call nor a field access", nil)
	}
	return nil
}
