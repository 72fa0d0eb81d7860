/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classtree is the mutable, mixin-aware tree the spec's data model
// (§3) describes: a ClassTree holding fields and methods, each method
// owning an instruction list addressed by label identity rather than
// numeric offset, so injectors can insert/remove freely without
// renumbering anything themselves. internal/classfile supplies the raw
// bytes this package decodes from and reencodes to.
package classtree

import (
	"fmt"

	"github.com/relay-cn/mixforge/internal/classfile"
)

// InsnList is an ordered, doubly-traversable sequence of instructions. It
// is deliberately a plain slice wrapper: the engine never needs random
// access by numeric offset until the final encode step, only "insert
// before/after this instruction" and "iterate", which a slice serves fine
// at the method sizes mixins touch.
type InsnList struct {
	items []Insn
}

// NewInsnList creates an empty instruction list.
func NewInsnList() *InsnList { return &InsnList{} }

// Len returns the number of instructions (including pseudo-instructions).
func (l *InsnList) Len() int { return len(l.items) }

// All returns the instructions in order. Callers must not mutate the
// returned slice directly; use the InsnList mutators instead so that
// caching/invariant checks elsewhere stay honest. (They don't, today; the
// comment documents the intent the teacher's own code relies on elsewhere.)
func (l *InsnList) All() []Insn { return l.items }

// First returns the first instruction, or nil if the list is empty.
func (l *InsnList) First() Insn {
	if len(l.items) == 0 {
		return nil
	}
	return l.items[0]
}

// Last returns the last instruction, or nil if the list is empty.
func (l *InsnList) Last() Insn {
	if len(l.items) == 0 {
		return nil
	}
	return l.items[len(l.items)-1]
}

// Append adds instructions to the end of the list.
func (l *InsnList) Append(insns ...Insn) {
	l.items = append(l.items, insns...)
}

// IndexOf returns the position of insn in the list, or -1 if absent.
// Identity comparison (==), not structural.
func (l *InsnList) IndexOf(insn Insn) int {
	for i, it := range l.items {
		if it == insn {
			return i
		}
	}
	return -1
}

// InsertBefore inserts insns immediately before the instruction at index i.
func (l *InsnList) InsertBefore(i int, insns ...Insn) {
	if i < 0 || i > len(l.items) {
		return
	}
	l.items = append(l.items[:i:i], append(append([]Insn{}, insns...), l.items[i:]...)...)
}

// InsertAfter inserts insns immediately after the instruction at index i.
func (l *InsnList) InsertAfter(i int, insns ...Insn) {
	l.InsertBefore(i+1, insns...)
}

// Remove deletes the instruction at index i.
func (l *InsnList) Remove(i int) {
	if i < 0 || i >= len(l.items) {
		return
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
}

// ReturnIndexes returns the indexes of every RETURN-family instruction,
// in order. TailInjector and ReturnInjector both scan for these.
func (l *InsnList) ReturnIndexes() []int {
	var out []int
	for i, it := range l.items {
		if it.Op() >= 0 && IsReturn(it.Op()) {
			out = append(out, i)
		}
	}
	return out
}

// LabelSet collects every *Label actually marked by a LabelMark in this
// list, used to validate the "every referenced label exists" invariant.
func (l *InsnList) LabelSet() map[*Label]bool {
	set := map[*Label]bool{}
	for _, it := range l.items {
		if lm, ok := it.(*LabelMark); ok {
			set[lm.L] = true
		}
	}
	return set
}

// Clone deep-copies the list, minting a fresh *Label for every label
// encountered and remapping every jump/switch/line-number reference
// through that fresh map — the inline code generator's core primitive
// (spec §4.7 step 2, §9 "cyclic references"). The caller-supplied seed map
// lets multiple cloned structures (e.g. a method body plus its try/catch
// ranges) share one remap pass.
func (l *InsnList) Clone(labelMap map[*Label]*Label) *InsnList {
	if labelMap == nil {
		labelMap = map[*Label]*Label{}
	}
	out := &InsnList{items: make([]Insn, 0, len(l.items))}
	freshLabel := func(old *Label) *Label {
		if nl, ok := labelMap[old]; ok {
			return nl
		}
		nl := NewLabel(old.name)
		labelMap[old] = nl
		return nl
	}
	for _, it := range l.items {
		switch v := it.(type) {
		case *LabelMark:
			out.items = append(out.items, &LabelMark{L: freshLabel(v.L)})
		case *Jump:
			out.items = append(out.items, &Jump{Opcode: v.Opcode, Target: freshLabel(v.Target)})
		case *TableSwitch:
			labels := make([]*Label, len(v.Labels))
			for i, lb := range v.Labels {
				labels[i] = freshLabel(lb)
			}
			out.items = append(out.items, &TableSwitch{Default: freshLabel(v.Default), Low: v.Low, High: v.High, Labels: labels})
		case *LookupSwitch:
			labels := make([]*Label, len(v.Labels))
			for i, lb := range v.Labels {
				labels[i] = freshLabel(lb)
			}
			out.items = append(out.items, &LookupSwitch{Default: freshLabel(v.Default), Keys: append([]int32(nil), v.Keys...), Labels: labels})
		case *LineNumber:
			out.items = append(out.items, &LineNumber{L: freshLabel(v.L), Line: v.Line})
		default:
			out.items = append(out.items, it.clone())
		}
	}
	return out
}

// LocalVar is one entry of a method's local-variable table: the scope
// (start/end label) a named local occupies a given slot for.
type LocalVar struct {
	Name       string
	Desc       string
	Index      int
	Start, End *Label
}

// TryCatchBlock is one exception-table entry addressed by label rather
// than numeric PC, so moving code around never invalidates it.
type TryCatchBlock struct {
	Start, End, Handler *Label
	CatchType           string // internal name, or "" for catch-all (finally)
}

// Param is one formal-parameter descriptor slot, kept distinct from the
// local-variable table because a method can have MethodParameters metadata
// (name + access flags) independent of debug-info locals.
type Param struct {
	Name        string
	AccessFlags uint16
}

// MethodNode is one method_info, decoded into the mutable shape every
// injector in §4 edits directly.
type MethodNode struct {
	Access uint16
	Name   string
	Desc   string

	Instructions *InsnList
	Locals       []LocalVar
	TryCatch     []TryCatchBlock
	Params       []Param
	Exceptions   []string // internal names of declared checked exceptions

	MaxStack  int
	MaxLocals int
}

const (
	AccPublic       = 0x0001
	AccPrivate      = 0x0002
	AccProtected    = 0x0004
	AccStatic       = 0x0008
	AccFinal        = 0x0010
	AccSynchronized = 0x0020
	AccBridge       = 0x0040
	AccVarargs      = 0x0080
	AccNative       = 0x0100
	AccInterface    = 0x0200
	AccAbstract     = 0x0400
	AccSynthetic    = 0x1000
	AccAnnotation   = 0x2000
	AccEnum         = 0x4000
)

func (m *MethodNode) IsStatic() bool  { return m.Access&AccStatic != 0 }
func (m *MethodNode) IsAbstract() bool { return m.Access&AccAbstract != 0 }
func (m *MethodNode) IsNative() bool  { return m.Access&AccNative != 0 }

// ParamDescriptors splits m.Desc's parameter list into individual
// descriptors, without touching the return type.
func (m *MethodNode) ParamDescriptors() []string {
	return SplitParams(m.Desc)
}

// ReturnDescriptor returns the return-type portion of m.Desc.
func (m *MethodNode) ReturnDescriptor() string {
	_, ret := SplitMethodDescriptor(m.Desc)
	return ret
}

// ParamSlotCount returns the number of local-variable slots the method's
// formal parameters occupy, including the implicit `this` for instance
// methods, with long/double counted twice.
func (m *MethodNode) ParamSlotCount() int {
	n := 0
	if !m.IsStatic() {
		n++
	}
	for _, p := range m.ParamDescriptors() {
		n += SlotSize(p)
	}
	return n
}

// Key returns the method's (name, descriptor) pair formatted the way
// diagnostics and the registry refer to methods: "name(desc)".
func (m *MethodNode) Key() string { return m.Name + m.Desc }

// FieldNode is one field_info, decoded.
type FieldNode struct {
	Access     uint16
	Name       string
	Desc       string
	ConstValue interface{}
}

func (f *FieldNode) IsStatic() bool { return f.Access&AccStatic != 0 }
func (f *FieldNode) IsFinal() bool  { return f.Access&AccFinal != 0 }

// ClassTree is the mutable per-transform representation of a class.
type ClassTree struct {
	Access     uint16
	Name       string // internal name
	Super      string // internal name, "" only for java/lang/Object itself
	Interfaces []string
	Fields     []*FieldNode
	Methods    []*MethodNode

	MinorVersion, MajorVersion uint16

	// cp backs constant-pool interning for anything the injectors add
	// (new field/method refs, new UTF-8 names); it is carried through to
	// ToClassFile rather than rebuilt, so indices already resolved by
	// earlier steps of a multi-mixin transform stay valid.
	cp *classfile.ConstantPool
}

func (c *ClassTree) IsInterface() bool { return c.Access&AccInterface != 0 }
func (c *ClassTree) IsAbstract() bool  { return c.Access&AccAbstract != 0 }

// ClearAbstract clears the class-level abstract flag. The mixin driver
// calls it after applying @ReplaceAllMethods to a class that is not an
// interface.
func (c *ClassTree) ClearAbstract() { c.Access &^= AccAbstract }

// FindMethod looks up a method by exact (name, descriptor), falling back
// to a name-only match per spec §3's "Method key" rule when descriptor is
// empty.
func (c *ClassTree) FindMethod(name, desc string) *MethodNode {
	if desc != "" {
		for _, m := range c.Methods {
			if m.Name == name && m.Desc == desc {
				return m
			}
		}
		return nil
	}
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// FindField looks up a field by name.
func (c *ClassTree) FindField(name string) *FieldNode {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// AddMethod appends a newly synthesized method to the class.
func (c *ClassTree) AddMethod(m *MethodNode) { c.Methods = append(c.Methods, m) }

// RemoveMethod deletes the method matching (name, desc), reporting whether
// one was found.
func (c *ClassTree) RemoveMethod(name, desc string) bool {
	for i, m := range c.Methods {
		if m.Name == name && m.Desc == desc {
			c.Methods = append(c.Methods[:i], c.Methods[i+1:]...)
			return true
		}
	}
	return false
}

// AddField appends a newly synthesized field to the class.
func (c *ClassTree) AddField(f *FieldNode) { c.Fields = append(c.Fields, f) }

// AvailableMethodKeys lists every method key on the class. The
// missing-target diagnostics raised by internal/inject do not include
// this list.
func (c *ClassTree) AvailableMethodKeys() []string {
	out := make([]string, 0, len(c.Methods))
	for _, m := range c.Methods {
		out = append(out, m.Key())
	}
	return out
}

// MethodDescription renders a one-line summary used in diagnostics.
func (m *MethodNode) MethodDescription() string {
	return fmt.Sprintf("%s%s (insns=%d, maxLocals=%d)", m.Name, m.Desc, m.Instructions.Len(), m.MaxLocals)
}

// CP exposes the constant pool backing this tree, for injectors that need
// to intern new entries (accessor/invoker field-or-method references,
// string constants for synthesized modify-constant replacements, etc).
func (c *ClassTree) CP() *classfile.ConstantPool { return c.cp }
