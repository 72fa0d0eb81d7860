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

// ModifyConstantInjector implements @ModifyConstant: finds a constant-load
// instruction in the target method (optionally filtered to a specific
// value, then selected by ordinal among the remaining matches) and routes
// it through a materialized handler before the constant reaches the stack
// consumer.
func ModifyConstantInjector(target, mixin *classtree.ClassTree, d *directive.ModifyConstant, rebindings []inline.Rebinding, sink *diag.Sink) error {
	tm := target.FindMethod(d.Target.Name, d.Target.Desc)
	if tm == nil {
		reportMissing(sink, target.Name, d.Target.String(), "modify-constant target not found")
		return nil
	}
	handler := mixin.FindMethod(splitHandlerName(d.Method))
	if handler == nil {
		reportMissing(sink, mixin.Name, d.Method, "modify-constant handler not found on mixin")
		return nil
	}

	var matches []int
	for i, insn := range tm.Instructions.All() {
		if !bcutil.IsConstant(insn) {
			continue
		}
		if d.HasMatch {
			val, ok := bcutil.ConstantValue(insn)
			if !ok || val != d.MatchValue {
				continue
			}
		}
		matches = append(matches, i)
	}
	idx, err := selectOrdinal(matches, d.Ordinal)
	if err != nil {
		sink.Report(diag.DirectiveTargetMissing, target.Name, tm.Key(), "modify-constant: no matching constant found", err)
		return nil
	}

	constType, ok := bcutil.ConstantType(tm.Instructions.All()[idx])
	if !ok {
		sink.Report(diag.DirectiveShapeInvalid, target.Name, tm.Key(), "modify-constant: unrecognized constant type", nil)
		return nil
	}
	if _, ret := bcutil.SplitMethodDescriptor(handler.Desc); handler.Desc != "" && ret != constType {
		sink.Report(diag.SignatureMismatch, target.Name, tm.Key(), "modify-constant: handler returns "+ret+" but the constant is "+constType, nil)
		return nil
	}

	name := freshHandlerName("modifyconstant", tm.Key())
	synthetic, err := materializeHandler(target, mixin, handler, name, rebindings)
	if err != nil {
		return diag.Wrap(err, "modify-constant on "+tm.Key())
	}
	synthetic.Access = classtree.AccPrivate | classtree.AccStatic
	if synthetic.Desc == "" {
		synthetic.Desc = "(" + constType + ")" + constType
	}

	tm.Instructions.InsertAfter(idx, &classtree.MethodRef{
		Opcode: classtree.OpInvokestatic, Owner: target.Name, Name: synthetic.Name, Desc: synthetic.Desc,
	})
	return nil
}
