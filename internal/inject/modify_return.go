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

// ModifyReturnValueInjector implements @ModifyReturnValue: every RETURN
// instruction in the target method has its return value passed through a
// materialized static handler before the actual xRETURN executes. A void
// target method has nothing to modify and is rejected with
// DirectiveShapeInvalid.
func ModifyReturnValueInjector(target, mixin *classtree.ClassTree, d *directive.ModifyReturnValue, rebindings []inline.Rebinding, sink *diag.Sink) error {
	tm := target.FindMethod(d.Target.Name, d.Target.Desc)
	if tm == nil {
		reportMissing(sink, target.Name, d.Target.String(), "modify-return target not found")
		return nil
	}
	if ret := tm.ReturnDescriptor(); ret == "" || ret == "V" {
		sink.Report(diag.DirectiveShapeInvalid, target.Name, tm.Key(), "modify-return: target method is void", nil)
		return nil
	}
	handler := mixin.FindMethod(splitHandlerName(d.Method))
	if handler == nil {
		reportMissing(sink, mixin.Name, d.Method, "modify-return handler not found on mixin")
		return nil
	}
	returns := tm.Instructions.ReturnIndexes()
	if len(returns) == 0 {
		reportMissing(sink, target.Name, tm.Key(), "modify-return: method has no return instruction")
		return nil
	}

	name := freshHandlerName("modifyreturn", tm.Key())
	synthetic, err := materializeHandler(target, mixin, handler, name, rebindings)
	if err != nil {
		return diag.Wrap(err, "modify-return on "+tm.Key())
	}
	synthetic.Access = classtree.AccPrivate | classtree.AccStatic

	for i := len(returns) - 1; i >= 0; i-- {
		tm.Instructions.InsertBefore(returns[i], &classtree.MethodRef{
			Opcode: classtree.OpInvokestatic, Owner: target.Name, Name: synthetic.Name, Desc: synthetic.Desc,
		})
	}
	return nil
}
