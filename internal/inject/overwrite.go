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

// OverwriteInjector implements @Overwrite: a target method's entire body is
// replaced by the mixin's implementation. Unlike the inject family this
// never calls into a materialized copy — the spliced body becomes the
// method's only body, so it runs with the mixin method's own local-variable
// slot numbering (LocalBase 0, matching the target's own parameter layout,
// which @Overwrite requires to match exactly — spec §4.5).
func OverwriteInjector(target, mixin *classtree.ClassTree, d *directive.Overwrite, rebindings []inline.Rebinding, sink *diag.Sink) error {
	tm := target.FindMethod(d.Target.Name, d.Target.Desc)
	if tm == nil {
		reportMissing(sink, target.Name, d.Target.String(), "overwrite target not found")
		return nil
	}
	handler := mixin.FindMethod(splitHandlerName(d.Method))
	if handler == nil {
		reportMissing(sink, mixin.Name, d.Method, "overwrite source method not found on mixin")
		return nil
	}
	if handler.Desc != tm.Desc {
		sink.Report(diag.SignatureMismatch, target.Name, tm.Key(),
			"overwrite source "+handler.Key()+" does not match target descriptor", nil)
		return nil
	}

	plan := inline.Plan{MixinClass: mixin.Name, TargetClass: target.Name, Rebindings: rebindings, LocalBase: 0}
	body, maxLocals, err := inline.Splice(handler, plan)
	if err != nil {
		return diag.Wrap(err, "overwrite on "+tm.Key())
	}
	tm.Instructions = body
	tm.TryCatch = cloneTryCatch(handler.TryCatch)
	tm.MaxLocals = maxLocals
	tm.MaxStack = handler.MaxStack
	return nil
}
