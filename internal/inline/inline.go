/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package inline is component D: the inline code generator every injector
// in internal/inject calls to splice a mixin method's body into a target
// method. It clones the source instruction list with fresh label identity,
// shifts local-variable slots so the clone doesn't collide with the
// target's own locals, rebinds shadow and @Copy member references from the
// mixin class onto the target class, and runs a narrow Kotlin
// object-singleton-to-static call promotion pass (spec §4.7).
package inline

import (
	"github.com/relay-cn/mixforge/internal/classtree"
	"github.com/relay-cn/mixforge/internal/trace"
)

// Rebinding names one mixin member (field or method) that, once spliced
// into the target, must resolve against the target class rather than the
// mixin class — shadow members rebind to the target member they mirror;
// @Copy members rebind to whatever name the copy was given on the target
// (identity if it didn't collide).
type Rebinding struct {
	Owner string // mixin class internal name to match against
	Name  string
	Desc  string // "" matches Name regardless of descriptor (field-vs-method ambiguity never arises in practice since fields and methods have disjoint instruction shapes)

	NewOwner string
	NewName  string
}

// Plan carries everything Splice needs to adapt a cloned mixin method body
// for its new home.
type Plan struct {
	MixinClass  string
	TargetClass string
	Rebindings  []Rebinding

	// LocalBase is the first free local-variable slot in the target
	// method; the source method's own slot 0 maps to LocalBase, slot 1 to
	// LocalBase+1 (before category-2 widening), and so on.
	LocalBase int
}

// Splice clones method's body, remaps its local-variable slots into the
// target's free slot range, rebinds shadow/copy member references, and
// runs the Kotlin singleton-promotion pass, returning the list ready to
// insert into the target method plus the number of local slots the clone
// now occupies (so the caller can bump MaxLocals).
func Splice(method *classtree.MethodNode, plan Plan) (*classtree.InsnList, int, error) {
	clone := method.Instructions.Clone(nil)
	highSlot := remapLocals(clone, plan.LocalBase)
	rebind(clone, plan)
	promoteKotlinSingletonCalls(clone)
	return clone, highSlot, nil
}

// remapLocals shifts every VarOperand/Iinc local index in list by base,
// and returns one past the highest slot referenced (i.e. the clone's own
// local-variable footprint), so a category-2 write to the last slot is
// accounted for.
func remapLocals(list *classtree.InsnList, base int) int {
	high := base
	for _, insn := range list.All() {
		switch v := insn.(type) {
		case *classtree.VarOperand:
			v.Var += base
			if end := v.Var + slotWidth(v.Opcode); end > high {
				high = end
			}
		case *classtree.Iinc:
			v.Var += base
			if v.Var+1 > high {
				high = v.Var + 1
			}
		}
	}
	return high
}

// slotWidth reports how many local slots an xLOAD/xSTORE opcode's operand
// occupies: 2 for the long/double forms, 1 otherwise.
func slotWidth(op int) int {
	switch op {
	case classtree.OpLload, classtree.OpDload, classtree.OpLstore, classtree.OpDstore:
		return 2
	default:
		return 1
	}
}

// rebind rewrites field/method references that target a shadow or @Copy
// mixin member so they resolve against the target class under its new
// name, and rewrites every remaining bare reference to the mixin class
// itself (an un-shadowed self-call, e.g. a private helper the mixin
// expects to still exist on itself) onto the target class unchanged in
// name — the common case once a mixin's whole body has been merged onto
// the target.
func rebind(list *classtree.InsnList, plan Plan) {
	find := func(owner, name, desc string) (Rebinding, bool) {
		for _, r := range plan.Rebindings {
			if r.Owner == owner && r.Name == name && (r.Desc == "" || r.Desc == desc) {
				return r, true
			}
		}
		return Rebinding{}, false
	}
	for _, insn := range list.All() {
		switch v := insn.(type) {
		case *classtree.FieldRef:
			if r, ok := find(v.Owner, v.Name, v.Desc); ok {
				v.Owner, v.Name = r.NewOwner, r.NewName
			} else if v.Owner == plan.MixinClass {
				v.Owner = plan.TargetClass
			}
		case *classtree.MethodRef:
			if r, ok := find(v.Owner, v.Name, v.Desc); ok {
				v.Owner, v.Name = r.NewOwner, r.NewName
			} else if v.Owner == plan.MixinClass {
				v.Owner = plan.TargetClass
			}
		}
	}
}

// promoteKotlinSingletonCalls recognizes the idiom Kotlin emits for a call
// through an object-declaration singleton — `GETSTATIC Owner.INSTANCE`
// serving as the receiver of one virtual/interface call on Owner, matched
// when the tracked depth equals one plus that call's argument count; a
// Companion field is not recognized — and collapses it to a direct static dispatch,
// since a copied mixin method that captured a reference to its own
// companion object has no such object once spliced onto a plain Java
// target. The scan is bounded (100 instructions) and tracks only the
// abstract depth contributed by the instructions between the GETSTATIC and
// its consuming call, bailing out the moment anything could have consumed
// or reordered the pushed receiver.
func promoteKotlinSingletonCalls(list *classtree.InsnList) {
	const lookahead = 100
	items := list.All()
outer:
	for i, insn := range items {
		fr, ok := insn.(*classtree.FieldRef)
		if !ok || fr.Opcode != classtree.OpGetstatic || fr.Name != "INSTANCE" {
			continue
		}
		depth := 1
		for j := i + 1; j < len(items) && j-i <= lookahead; j++ {
			switch v := items[j].(type) {
			case *classtree.MethodRef:
				nargs := len(classtree.SplitParams(v.Desc))
				if (v.Opcode == classtree.OpInvokevirtual || v.Opcode == classtree.OpInvokeinterface) && v.Owner == fr.Owner && depth == 1+nargs {
					// Replace in place rather than removing, so the slice
					// this scan is iterating over never shifts underfoot.
					items[i] = &classtree.Plain{Opcode: classtree.OpNop}
					v.Opcode = classtree.OpInvokestatic
					trace.Trace("promoted kotlin singleton call to " + v.Owner + "." + v.Name + v.Desc)
				}
				continue outer
			case *classtree.LabelMark, *classtree.Jump, *classtree.TableSwitch, *classtree.LookupSwitch:
				continue outer // control flow between push and use: bail, too risky to reason about
			default:
				depth += stackDelta(items[j])
				if depth <= 0 {
					continue outer
				}
			}
		}
	}
}

// stackDelta is a coarse, deliberately conservative operand-stack delta
// estimate used only to decide whether the pushed singleton reference could
// still be sitting untouched under whatever the intervening instruction
// did; it does not need to be exact for opcodes that can never appear
// between a GETSTATIC and its consuming call in compiler-generated code.
func stackDelta(insn classtree.Insn) int {
	switch v := insn.(type) {
	case *classtree.Plain:
		switch v.Opcode {
		case classtree.OpDup, classtree.OpDupX1, classtree.OpDupX2:
			return 1
		case classtree.OpPop:
			return -1
		default:
			return 0
		}
	case *classtree.FieldRef:
		if v.Opcode == classtree.OpGetstatic || v.Opcode == classtree.OpGetfield {
			return 1
		}
		return -1
	case *classtree.Ldc, *classtree.IntOperand, *classtree.VarOperand:
		return 1
	default:
		return 0
	}
}
