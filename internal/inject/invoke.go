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

// InvokeInjector implements @Inject(at = INVOKE): the callback fires
// immediately before the matched call site's operands are consumed — the
// operand stack at that point belongs entirely to the upcoming call, so the
// handler runs cleanly in between without having to thread the call's own
// arguments through.
func InvokeInjector(target, mixin *classtree.ClassTree, d *directive.Inject, rebindings []inline.Rebinding, sink *diag.Sink) error {
	tm := target.FindMethod(d.Target.Name, d.Target.Desc)
	if tm == nil {
		reportMissing(sink, target.Name, d.Target.String(), "INVOKE inject target not found")
		return nil
	}
	handler := mixin.FindMethod(splitHandlerName(d.Method))
	if handler == nil {
		reportMissing(sink, mixin.Name, d.Method, "INVOKE inject handler not found on mixin")
		return nil
	}
	ref, err := bcutil.MethodDescriptorParse(d.At)
	if err != nil {
		sink.Report(diag.DirectiveShapeInvalid, target.Name, tm.Key(), "INVOKE inject 'at' member reference invalid", err)
		return nil
	}
	sites := findCallSites(tm.Instructions, ref)
	idx, err := selectOrdinal(sites, d.Ordinal)
	if err != nil {
		sink.Report(diag.DirectiveTargetMissing, target.Name, tm.Key(), "INVOKE inject call site "+d.At+" not found", err)
		return nil
	}

	prologue, err := buildCallbackPrologue(target, mixin, tm, handler, "invoke", rebindings, d.Cancellable)
	if err != nil {
		return diag.Wrap(err, "INVOKE inject on "+tm.Key())
	}
	tm.Instructions.InsertBefore(idx, prologue...)
	return nil
}
