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

// RemoveMethodDirective implements @RemoveMethod: deletes the target method
// outright.
func RemoveMethodDirective(target *classtree.ClassTree, d *directive.RemoveMethod, sink *diag.Sink) error {
	if !target.RemoveMethod(d.Target.Name, d.Target.Desc) {
		reportMissing(sink, target.Name, d.Target.String(), "remove-method target not found")
	}
	return nil
}

// RemoveSynchronizedDirective implements @RemoveSynchronized: clears a
// target method's ACC_SYNCHRONIZED flag.
func RemoveSynchronizedDirective(target *classtree.ClassTree, d *directive.RemoveSynchronized, sink *diag.Sink) error {
	tm := target.FindMethod(d.Target.Name, d.Target.Desc)
	if tm == nil {
		reportMissing(sink, target.Name, d.Target.String(), "remove-synchronized target not found")
		return nil
	}
	tm.Access &^= classtree.AccSynchronized
	return nil
}

// ReplaceAllMethodsInjector implements @ReplaceAllMethods: every target
// method whose name (and descriptor, if given) matches d.Target is replaced
// with the mixin's implementation. Run before every other directive in the
// three-pass driver (spec §4.6) so later passes always see the replaced
// shape, not the original.
func ReplaceAllMethodsInjector(target, mixin *classtree.ClassTree, d *directive.ReplaceAllMethods, rebindings []inline.Rebinding, sink *diag.Sink) error {
	handler := mixin.FindMethod(splitHandlerName(d.Method))
	if handler == nil {
		reportMissing(sink, mixin.Name, d.Method, "replace-all-methods source not found on mixin")
		return nil
	}
	matched := 0
	for _, tm := range target.Methods {
		if !d.Target.Matches(tm.Name, tm.Desc) {
			continue
		}
		plan := inline.Plan{MixinClass: mixin.Name, TargetClass: target.Name, Rebindings: rebindings, LocalBase: 0}
		body, maxLocals, err := inline.Splice(handler, plan)
		if err != nil {
			return diag.Wrap(err, "replace-all-methods on "+tm.Key())
		}
		tm.Instructions = body
		tm.TryCatch = cloneTryCatch(handler.TryCatch)
		tm.MaxLocals = maxLocals
		tm.MaxStack = handler.MaxStack
		matched++
	}
	if matched == 0 {
		reportMissing(sink, target.Name, d.Target.String(), "replace-all-methods matched no method")
	}
	return nil
}

// MutableDirective implements @Mutable: clears a target field's ACC_FINAL
// flag.
func MutableDirective(target *classtree.ClassTree, d *directive.Mutable, sink *diag.Sink) error {
	fd := target.FindField(d.Field)
	if fd == nil {
		reportMissing(sink, target.Name, d.Field, "mutable target field not found")
		return nil
	}
	fd.Access &^= classtree.AccFinal
	return nil
}

// FinalDirective implements @Final: sets a target field's ACC_FINAL flag.
func FinalDirective(target *classtree.ClassTree, d *directive.Final, sink *diag.Sink) error {
	fd := target.FindField(d.Field)
	if fd == nil {
		reportMissing(sink, target.Name, d.Field, "final target field not found")
		return nil
	}
	fd.Access |= classtree.AccFinal
	return nil
}
