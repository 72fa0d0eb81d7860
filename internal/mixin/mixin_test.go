/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package mixin

import (
	"testing"

	"github.com/relay-cn/mixforge/internal/classtree"
	"github.com/relay-cn/mixforge/internal/diag"
	"github.com/relay-cn/mixforge/internal/directive"
	"github.com/relay-cn/mixforge/internal/registry"
)

func simpleMethod(name, desc string) *classtree.MethodNode {
	list := classtree.NewInsnList()
	list.Append(&classtree.Plain{Opcode: classtree.OpReturn})
	return &classtree.MethodNode{Access: classtree.AccPublic, Name: name, Desc: desc, Instructions: list, MaxLocals: 1, MaxStack: 1}
}

func TestApplyRunsFieldAndMethodDirectives(t *testing.T) {
	target := &classtree.ClassTree{Name: "com/example/Foo"}
	target.AddField(&classtree.FieldNode{Access: classtree.AccPrivate | classtree.AccFinal, Name: "count", Desc: "I"})
	target.AddMethod(simpleMethod("old", "()V"))

	m := &registry.Mixin{
		Name:  "mixins/FooMixin",
		Class: &classtree.ClassTree{Name: "mixins/FooMixin"},
		Directives: []directive.Directive{
			&directive.Mutable{Field: "count"},
			&directive.RemoveMethod{Target: directive.MethodKey{Name: "old", Desc: "()V"}},
		},
	}

	sink := diag.NewSink()
	ctx := NewContext(target, sink)
	if err := ctx.Apply([]*registry.Mixin{m}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if target.FindField("count").IsFinal() {
		t.Error("count should no longer be final")
	}
	if target.FindMethod("old", "()V") != nil {
		t.Error("old should have been removed")
	}
	if len(sink.Items) != 0 {
		t.Errorf("unexpected diagnostics: %v", sink.Items)
	}
}

func TestApplyEmptyMixinListIsNoop(t *testing.T) {
	target := &classtree.ClassTree{Name: "com/example/Foo"}
	sink := diag.NewSink()
	ctx := NewContext(target, sink)
	if err := ctx.Apply(nil); err != nil {
		t.Fatalf("Apply(nil): %v", err)
	}
}

func TestApplyReplaceAllMethodsReplacesOnlyMatchingName(t *testing.T) {
	target := &classtree.ClassTree{Name: "com/example/Foo"}
	target.AddMethod(simpleMethod("getValue", "()I"))
	target.AddMethod(simpleMethod("getOther", "()I"))

	mixinClass := &classtree.ClassTree{Name: "mixins/FooMixin"}
	body := classtree.NewInsnList()
	body.Append(&classtree.IntOperand{Opcode: classtree.OpBipush, Operand: 7}, &classtree.Plain{Opcode: classtree.OpIreturn})
	mixinClass.AddMethod(&classtree.MethodNode{Name: "replacement", Desc: "()I", Instructions: body, MaxLocals: 0, MaxStack: 1})

	m := &registry.Mixin{
		Name:  "mixins/FooMixin",
		Class: mixinClass,
		Directives: []directive.Directive{
			&directive.ReplaceAllMethods{Target: directive.MethodKey{Name: "getValue"}, Method: "replacement()I"},
		},
	}

	sink := diag.NewSink()
	ctx := NewContext(target, sink)
	if err := ctx.Apply([]*registry.Mixin{m}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	replaced := target.FindMethod("getValue", "()I")
	first := replaced.Instructions.First().(*classtree.IntOperand)
	if first.Operand != 7 {
		t.Errorf("getValue should have been replaced with the mixin body, got first operand %d", first.Operand)
	}
	other := target.FindMethod("getOther", "()I")
	if _, ok := other.Instructions.First().(*classtree.Plain); !ok {
		t.Error("getOther should not have been touched (name-only key didn't match it)")
	}
}
