/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package bcutil

import (
	"testing"

	"github.com/relay-cn/mixforge/internal/classtree"
)

func TestIsConstant(t *testing.T) {
	cases := []struct {
		name string
		insn classtree.Insn
		want bool
	}{
		{"iconst_0", &classtree.Plain{Opcode: classtree.OpIconst0}, true},
		{"aconst_null", &classtree.Plain{Opcode: classtree.OpAconstNull}, true},
		{"bipush", &classtree.IntOperand{Opcode: classtree.OpBipush, Operand: 42}, true},
		{"ldc", &classtree.Ldc{Opcode: classtree.OpLdc, Value: "hi"}, true},
		{"dup is not constant", &classtree.Plain{Opcode: classtree.OpDup}, false},
		{"aload is not constant", &classtree.VarOperand{Opcode: classtree.OpAload, Var: 0}, false},
	}
	for _, c := range cases {
		if got := IsConstant(c.insn); got != c.want {
			t.Errorf("%s: IsConstant() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestConstantValue(t *testing.T) {
	v, ok := ConstantValue(&classtree.Plain{Opcode: classtree.OpIconst5})
	if !ok || v != int32(5) {
		t.Errorf("iconst_5: got (%v, %v), want (5, true)", v, ok)
	}
	v, ok = ConstantValue(&classtree.IntOperand{Opcode: classtree.OpSipush, Operand: 1000})
	if !ok || v != int32(1000) {
		t.Errorf("sipush 1000: got (%v, %v), want (1000, true)", v, ok)
	}
	v, ok = ConstantValue(&classtree.Ldc{Opcode: classtree.OpLdc, Value: "hello"})
	if !ok || v != "hello" {
		t.Errorf("ldc string: got (%v, %v), want (hello, true)", v, ok)
	}
	if _, ok := ConstantValue(&classtree.Plain{Opcode: classtree.OpPop}); ok {
		t.Error("pop should not be a constant value")
	}
}

func TestBoxUnboxRoundTrip(t *testing.T) {
	for _, desc := range []string{"I", "J", "Z", "D"} {
		boxed := Box(nil, desc)
		if len(boxed) != 1 {
			t.Fatalf("Box(%s): got %d instructions, want 1", desc, len(boxed))
		}
		mr, ok := boxed[0].(*classtree.MethodRef)
		if !ok || mr.Name != "valueOf" {
			t.Fatalf("Box(%s): expected a valueOf call, got %#v", desc, boxed[0])
		}
		unboxed := Unbox(desc)
		if len(unboxed) != 2 {
			t.Fatalf("Unbox(%s): got %d instructions, want 2 (checkcast + unbox call)", desc, len(unboxed))
		}
		if _, ok := unboxed[0].(*classtree.TypeOperand); !ok {
			t.Errorf("Unbox(%s): first instruction should be checkcast, got %#v", desc, unboxed[0])
		}
	}
}

func TestBoxUnboxReferenceIsNoop(t *testing.T) {
	if got := Box(nil, "Ljava/lang/String;"); got != nil {
		t.Errorf("Box of a reference type should be a no-op, got %#v", got)
	}
	if got := Unbox("Ljava/lang/String;"); got != nil {
		t.Errorf("Unbox of a reference type should be a no-op, got %#v", got)
	}
}

func TestMethodDescriptorParseMethod(t *testing.T) {
	ref, err := MethodDescriptorParse("com/example/Foo.bar(ILjava/lang/String;)V")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Owner != "com/example/Foo" || ref.Name != "bar" || ref.Desc != "(ILjava/lang/String;)V" {
		t.Errorf("got %+v", ref)
	}
}

func TestMethodDescriptorParseField(t *testing.T) {
	ref, err := MethodDescriptorParse("com/example/Foo.count:I")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Owner != "com/example/Foo" || ref.Name != "count" || ref.Desc != "I" {
		t.Errorf("got %+v", ref)
	}
}

func TestMethodDescriptorParseInvalid(t *testing.T) {
	cases := []string{
		"noOwnerSeparator",
		"com/example/Foo.",
		"com/example/Foo.bar",
	}
	for _, ref := range cases {
		if _, err := MethodDescriptorParse(ref); err == nil {
			t.Errorf("MethodDescriptorParse(%q): expected error, got nil", ref)
		}
	}
}
