/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package inject

import (
	"github.com/pkg/errors"

	"github.com/relay-cn/mixforge/internal/bcutil"
	"github.com/relay-cn/mixforge/internal/classtree"
	"github.com/relay-cn/mixforge/internal/diag"
	"github.com/relay-cn/mixforge/internal/directive"
	"github.com/relay-cn/mixforge/internal/inline"
)

// ModifyArgInjector implements @ModifyArg: passes one argument of a matched
// call site through a mixin method before the call proceeds. Locating
// exactly where one argument's push sequence begins and ends in arbitrary
// bytecode is undecidable in general (an argument can be any expression);
// this injector handles the overwhelming common case compilers actually
// emit — each argument produced by exactly one instruction immediately
// preceding the call — and reports DirectiveShapeInvalid rather than
// guessing when a target's argument count doesn't line up.
func ModifyArgInjector(target, mixin *classtree.ClassTree, d *directive.ModifyArg, rebindings []inline.Rebinding, sink *diag.Sink) error {
	tm := target.FindMethod(d.Target.Name, d.Target.Desc)
	if tm == nil {
		reportMissing(sink, target.Name, d.Target.String(), "modify-arg target not found")
		return nil
	}
	handler := mixin.FindMethod(splitHandlerName(d.Method))
	if handler == nil {
		reportMissing(sink, mixin.Name, d.Method, "modify-arg handler not found on mixin")
		return nil
	}
	ref, err := bcutil.MethodDescriptorParse(d.At)
	if err != nil {
		sink.Report(diag.DirectiveShapeInvalid, target.Name, tm.Key(), "modify-arg 'at' member reference invalid", err)
		return nil
	}
	sites := findCallSites(tm.Instructions, ref)
	callIdx, err := selectOrdinal(sites, -1)
	if err != nil {
		sink.Report(diag.DirectiveTargetMissing, target.Name, tm.Key(), "modify-arg call site "+d.At+" not found", err)
		return nil
	}

	argDescs := bcutil.SplitParams(ref.Desc)
	if d.Index < 0 || d.Index >= len(argDescs) {
		sink.Report(diag.DirectiveShapeInvalid, target.Name, tm.Key(), "modify-arg index out of range for "+d.At, nil)
		return nil
	}
	producer := callIdx - len(argDescs) + d.Index
	if producer < 0 {
		sink.Report(diag.DirectiveShapeInvalid, target.Name, tm.Key(),
			"modify-arg: fewer than N one-instruction argument producers precede "+d.At, errors.New("insufficient preceding instructions"))
		return nil
	}

	name := freshHandlerName("modifyarg", tm.Key())
	synthetic, err := materializeHandler(target, mixin, handler, name, rebindings)
	if err != nil {
		return diag.Wrap(err, "modify-arg on "+tm.Key())
	}
	// Forced static: the producer instruction leaves only the argument
	// value on the stack, with no room to also thread `this` through
	// without reordering the call site itself.
	synthetic.Access = classtree.AccPrivate | classtree.AccStatic
	tm.Instructions.InsertAfter(producer, &classtree.MethodRef{
		Opcode: classtree.OpInvokestatic, Owner: target.Name, Name: synthetic.Name, Desc: synthetic.Desc,
	})
	return nil
}
