/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package inline

import (
	"testing"

	"github.com/relay-cn/mixforge/internal/classtree"
)

func TestRemapLocalsShiftsEverySlot(t *testing.T) {
	list := classtree.NewInsnList()
	list.Append(
		&classtree.VarOperand{Opcode: classtree.OpIload, Var: 0},
		&classtree.VarOperand{Opcode: classtree.OpLstore, Var: 1},
		&classtree.Iinc{Var: 0, Incr: 1},
	)
	high := remapLocals(list, 10)
	items := list.All()
	if items[0].(*classtree.VarOperand).Var != 10 {
		t.Errorf("iload: got slot %d, want 10", items[0].(*classtree.VarOperand).Var)
	}
	if items[1].(*classtree.VarOperand).Var != 11 {
		t.Errorf("lstore: got slot %d, want 11", items[1].(*classtree.VarOperand).Var)
	}
	if items[2].(*classtree.Iinc).Var != 10 {
		t.Errorf("iinc: got slot %d, want 10", items[2].(*classtree.Iinc).Var)
	}
	// lstore at 11 is a category-2 write, occupying slots 11 and 12.
	if high != 13 {
		t.Errorf("high water mark: got %d, want 13", high)
	}
}

func TestRebindRewritesShadowedMember(t *testing.T) {
	list := classtree.NewInsnList()
	fr := &classtree.FieldRef{Opcode: classtree.OpGetfield, Owner: "mixins/FooMixin", Name: "count", Desc: "I"}
	list.Append(fr)
	plan := Plan{
		MixinClass:  "mixins/FooMixin",
		TargetClass: "com/example/Foo",
		Rebindings:  []Rebinding{{Owner: "mixins/FooMixin", Name: "count", NewOwner: "com/example/Foo", NewName: "count"}},
	}
	rebind(list, plan)
	if fr.Owner != "com/example/Foo" {
		t.Errorf("shadowed field owner: got %q, want %q", fr.Owner, "com/example/Foo")
	}
}

func TestRebindRewritesBareMixinSelfCall(t *testing.T) {
	list := classtree.NewInsnList()
	mr := &classtree.MethodRef{Opcode: classtree.OpInvokespecial, Owner: "mixins/FooMixin", Name: "helper", Desc: "()V"}
	list.Append(mr)
	plan := Plan{MixinClass: "mixins/FooMixin", TargetClass: "com/example/Foo"}
	rebind(list, plan)
	if mr.Owner != "com/example/Foo" {
		t.Errorf("un-shadowed self call: got owner %q, want %q", mr.Owner, "com/example/Foo")
	}
}

func TestSpliceRemapsAndRebinds(t *testing.T) {
	list := classtree.NewInsnList()
	list.Append(
		&classtree.VarOperand{Opcode: classtree.OpAload, Var: 0},
		&classtree.FieldRef{Opcode: classtree.OpGetfield, Owner: "mixins/FooMixin", Name: "count", Desc: "I"},
		&classtree.Plain{Opcode: classtree.OpIreturn},
	)
	m := &classtree.MethodNode{Name: "getCount", Desc: "()I", Instructions: list, MaxLocals: 1, MaxStack: 1}
	plan := Plan{
		MixinClass:  "mixins/FooMixin",
		TargetClass: "com/example/Foo",
		Rebindings:  []Rebinding{{Owner: "mixins/FooMixin", Name: "count", NewOwner: "com/example/Foo", NewName: "count"}},
		LocalBase:   3,
	}
	clone, high, err := Splice(m, plan)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	if high != 4 {
		t.Errorf("high water mark: got %d, want 4", high)
	}
	items := clone.All()
	if items[0].(*classtree.VarOperand).Var != 3 {
		t.Errorf("aload: got slot %d, want 3", items[0].(*classtree.VarOperand).Var)
	}
	if items[1].(*classtree.FieldRef).Owner != "com/example/Foo" {
		t.Errorf("field rebind: got owner %q, want com/example/Foo", items[1].(*classtree.FieldRef).Owner)
	}
	// The original list must be untouched — Splice clones, it never mutates
	// the mixin's own method in place.
	if list.All()[0].(*classtree.VarOperand).Var != 0 {
		t.Error("Splice mutated the source instruction list")
	}
}

func TestPromoteKotlinSingletonCall(t *testing.T) {
	list := classtree.NewInsnList()
	getInstance := &classtree.FieldRef{Opcode: classtree.OpGetstatic, Owner: "kotlin/Util", Name: "INSTANCE", Desc: "Lkotlin/Util;"}
	call := &classtree.MethodRef{Opcode: classtree.OpInvokevirtual, Owner: "kotlin/Util", Name: "helper", Desc: "()V"}
	list.Append(getInstance, call)

	promoteKotlinSingletonCalls(list)

	items := list.All()
	if p, ok := items[0].(*classtree.Plain); !ok || p.Opcode != classtree.OpNop {
		t.Errorf("GETSTATIC INSTANCE should be replaced with a NOP, got %#v", items[0])
	}
	if call.Opcode != classtree.OpInvokestatic {
		t.Errorf("call should be promoted to invokestatic, got opcode %#x", call.Opcode)
	}
}

func TestPromoteKotlinSingletonCallBailsOnControlFlow(t *testing.T) {
	list := classtree.NewInsnList()
	getInstance := &classtree.FieldRef{Opcode: classtree.OpGetstatic, Owner: "kotlin/Util", Name: "INSTANCE", Desc: "Lkotlin/Util;"}
	label := classtree.NewLabel("l")
	call := &classtree.MethodRef{Opcode: classtree.OpInvokevirtual, Owner: "kotlin/Util", Name: "helper", Desc: "()V"}
	list.Append(getInstance, &classtree.LabelMark{L: label}, call)

	promoteKotlinSingletonCalls(list)

	items := list.All()
	if _, ok := items[0].(*classtree.FieldRef); !ok {
		t.Error("a label between the push and the call should prevent promotion")
	}
	if call.Opcode != classtree.OpInvokevirtual {
		t.Error("call should remain invokevirtual when promotion bails out")
	}
}
