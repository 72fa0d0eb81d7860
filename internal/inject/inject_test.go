/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package inject

import (
	"testing"

	"github.com/relay-cn/mixforge/internal/classtree"
	"github.com/relay-cn/mixforge/internal/diag"
	"github.com/relay-cn/mixforge/internal/directive"
)

func newTargetMethod(name, desc string, static bool) *classtree.MethodNode {
	access := uint16(classtree.AccPublic)
	if static {
		access |= classtree.AccStatic
	}
	list := classtree.NewInsnList()
	list.Append(&classtree.Plain{Opcode: classtree.OpReturn})
	return &classtree.MethodNode{Access: access, Name: name, Desc: desc, Instructions: list, MaxLocals: 1, MaxStack: 1}
}

func TestRemoveMethodDirective(t *testing.T) {
	target := &classtree.ClassTree{Name: "com/example/Foo"}
	target.AddMethod(newTargetMethod("doStuff", "()V", false))
	sink := diag.NewSink()

	if err := RemoveMethodDirective(target, &directive.RemoveMethod{Target: directive.MethodKey{Name: "doStuff", Desc: "()V"}}, sink); err != nil {
		t.Fatalf("RemoveMethodDirective: %v", err)
	}
	if target.FindMethod("doStuff", "()V") != nil {
		t.Error("method should have been removed")
	}
	if len(sink.Items) != 0 {
		t.Errorf("unexpected diagnostics: %v", sink.Items)
	}
}

func TestRemoveMethodDirectiveMissingReportsDiagnostic(t *testing.T) {
	target := &classtree.ClassTree{Name: "com/example/Foo"}
	sink := diag.NewSink()
	_ = RemoveMethodDirective(target, &directive.RemoveMethod{Target: directive.MethodKey{Name: "missing", Desc: "()V"}}, sink)
	if len(sink.Items) != 1 || sink.Items[0].Kind != diag.DirectiveTargetMissing {
		t.Fatalf("expected one DirectiveTargetMissing diagnostic, got %v", sink.Items)
	}
}

func TestMutableAndFinalDirectives(t *testing.T) {
	target := &classtree.ClassTree{Name: "com/example/Foo"}
	target.AddField(&classtree.FieldNode{Access: classtree.AccPrivate | classtree.AccFinal, Name: "count", Desc: "I"})
	sink := diag.NewSink()

	if err := MutableDirective(target, &directive.Mutable{Field: "count"}, sink); err != nil {
		t.Fatalf("MutableDirective: %v", err)
	}
	if target.FindField("count").IsFinal() {
		t.Error("field should no longer be final")
	}
	if err := FinalDirective(target, &directive.Final{Field: "count"}, sink); err != nil {
		t.Fatalf("FinalDirective: %v", err)
	}
	if !target.FindField("count").IsFinal() {
		t.Error("field should be final again")
	}
}

func TestRemoveSynchronizedDirective(t *testing.T) {
	target := &classtree.ClassTree{Name: "com/example/Foo"}
	tm := newTargetMethod("locked", "()V", false)
	tm.Access |= classtree.AccSynchronized
	target.AddMethod(tm)
	sink := diag.NewSink()

	if err := RemoveSynchronizedDirective(target, &directive.RemoveSynchronized{Target: directive.MethodKey{Name: "locked", Desc: "()V"}}, sink); err != nil {
		t.Fatalf("RemoveSynchronizedDirective: %v", err)
	}
	if tm.Access&classtree.AccSynchronized != 0 {
		t.Error("ACC_SYNCHRONIZED should have been cleared")
	}
}

func TestCopyFieldRenamesOnCollision(t *testing.T) {
	target := &classtree.ClassTree{Name: "com/example/Foo"}
	target.AddField(&classtree.FieldNode{Access: classtree.AccPrivate, Name: "cache", Desc: "I"})
	mixin := &classtree.ClassTree{Name: "mixins/FooMixin"}
	mixin.AddField(&classtree.FieldNode{Access: classtree.AccPrivate, Name: "cache", Desc: "I"})
	sink := diag.NewSink()

	newName, err := CopyInjector(target, mixin, &directive.Copy{Method: "cache"}, nil, sink)
	if err != nil {
		t.Fatalf("CopyInjector: %v", err)
	}
	if newName == "cache" {
		t.Error("copy colliding with an existing field should have been renamed")
	}
	if target.FindField(newName) == nil {
		t.Error("renamed copy should exist on the target")
	}
}

func TestHeadInjectorInsertsPrologueAtStart(t *testing.T) {
	target := &classtree.ClassTree{Name: "com/example/Foo"}
	tm := newTargetMethod("doStuff", "()V", false)
	target.AddMethod(tm)

	mixin := &classtree.ClassTree{Name: "mixins/FooMixin"}
	handlerList := classtree.NewInsnList()
	handlerList.Append(&classtree.Plain{Opcode: classtree.OpReturn})
	handler := &classtree.MethodNode{Name: "onHead", Desc: "(Lorg/mixforge/runtime/CallbackInfo;)V", Instructions: handlerList, MaxLocals: 1, MaxStack: 0}
	mixin.AddMethod(handler)

	sink := diag.NewSink()
	d := &directive.Inject{Target: directive.MethodKey{Name: "doStuff", Desc: "()V"}, Point: directive.PointHead, Method: "onHead(Lorg/mixforge/runtime/CallbackInfo;)V", Cancellable: true}
	if err := HeadInjector(target, mixin, d, nil, sink); err != nil {
		t.Fatalf("HeadInjector: %v", err)
	}

	first := tm.Instructions.First()
	typ, ok := first.(*classtree.TypeOperand)
	if !ok || typ.Opcode != classtree.OpNew || typ.Type != CallbackInfoClass {
		t.Fatalf("expected the prologue to start with `new CallbackInfo`, got %#v", first)
	}
	if len(target.Methods) != 2 {
		t.Fatalf("expected the handler to be materialized as a second method, got %d methods", len(target.Methods))
	}
	if tm.MaxLocals <= 1 {
		t.Errorf("MaxLocals should have grown to hold the CallbackInfo local, got %d", tm.MaxLocals)
	}
}

func TestHeadInjectorMissingTargetReportsDiagnostic(t *testing.T) {
	target := &classtree.ClassTree{Name: "com/example/Foo"}
	mixin := &classtree.ClassTree{Name: "mixins/FooMixin"}
	sink := diag.NewSink()
	d := &directive.Inject{Target: directive.MethodKey{Name: "missing", Desc: "()V"}, Point: directive.PointHead, Method: "onHead(Lorg/mixforge/runtime/CallbackInfo;)V"}
	if err := HeadInjector(target, mixin, d, nil, sink); err != nil {
		t.Fatalf("HeadInjector: %v", err)
	}
	if len(sink.Items) != 1 || sink.Items[0].Kind != diag.DirectiveTargetMissing {
		t.Fatalf("expected one DirectiveTargetMissing diagnostic, got %v", sink.Items)
	}
}
