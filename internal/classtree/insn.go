/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classtree

// Insn is the typed sum spec §3 describes: "plain opcode, int-operand,
// var-operand, type-operand, field-ref, method-ref, invoke-dynamic, jump,
// label, load-constant, iinc, tableswitch/lookupswitch, multi-new-array,
// frame, line-number." Each concrete type below is one variant; Op()
// returns the JVM opcode for variants that have one (labels, frames, and
// line numbers are pseudo-instructions with no opcode of their own).
type Insn interface {
	Op() int
	clone() Insn
}

// Label is an identity, never compared structurally: two labels are the
// same label only if they are the same *Label pointer. Cloning a method's
// instruction list must mint fresh labels and remap every reference
// through a map keyed by old *Label — see spec §4.7 step 2 and §9's note
// on cyclic references.
type Label struct {
	name string // diagnostic only, never used for identity
}

// NewLabel creates a fresh, uniquely-identified label.
func NewLabel(name string) *Label { return &Label{name: name} }

// Plain is a zero-operand opcode: aconst_null, iadd, pop, dup, areturn, ...
type Plain struct{ Opcode int }

func (i *Plain) Op() int    { return i.Opcode }
func (i *Plain) clone() Insn { return &Plain{Opcode: i.Opcode} }

// IntOperand carries a numeric literal operand: bipush/sipush and iinc's
// increment share this shape conceptually, but iinc also needs a var index
// so it gets its own type (Iinc, below).
type IntOperand struct {
	Opcode  int
	Operand int32
}

func (i *IntOperand) Op() int    { return i.Opcode }
func (i *IntOperand) clone() Insn { return &IntOperand{Opcode: i.Opcode, Operand: i.Operand} }

// VarOperand addresses a local-variable slot: the xLOAD/xSTORE/ret family.
type VarOperand struct {
	Opcode int
	Var    int
}

func (i *VarOperand) Op() int    { return i.Opcode }
func (i *VarOperand) clone() Insn { return &VarOperand{Opcode: i.Opcode, Var: i.Var} }

// TypeOperand names a class: new, anewarray, checkcast, instanceof.
type TypeOperand struct {
	Opcode int
	Type   string // internal name
}

func (i *TypeOperand) Op() int    { return i.Opcode }
func (i *TypeOperand) clone() Insn { return &TypeOperand{Opcode: i.Opcode, Type: i.Type} }

// FieldRef is getfield/putfield/getstatic/putstatic.
type FieldRef struct {
	Opcode int
	Owner  string
	Name   string
	Desc   string
}

func (i *FieldRef) Op() int    { return i.Opcode }
func (i *FieldRef) clone() Insn { return &FieldRef{Opcode: i.Opcode, Owner: i.Owner, Name: i.Name, Desc: i.Desc} }

// MethodRef is one of the invoke* family (invokedynamic excluded, see
// InvokeDynamic below).
type MethodRef struct {
	Opcode      int
	Owner       string
	Name        string
	Desc        string
	IsInterface bool
}

func (i *MethodRef) Op() int { return i.Opcode }
func (i *MethodRef) clone() Insn {
	return &MethodRef{Opcode: i.Opcode, Owner: i.Owner, Name: i.Name, Desc: i.Desc, IsInterface: i.IsInterface}
}

// InvokeDynamic carries a bootstrap-method-attr index plus the invoked
// name/descriptor; mixforge never synthesizes invokedynamic call sites but
// must round-trip ones already present in a target class untouched.
type InvokeDynamic struct {
	Name                     string
	Desc                     string
	BootstrapMethodAttrIndex uint16
}

func (i *InvokeDynamic) Op() int { return OpInvokedynamic }
func (i *InvokeDynamic) clone() Insn {
	return &InvokeDynamic{Name: i.Name, Desc: i.Desc, BootstrapMethodAttrIndex: i.BootstrapMethodAttrIndex}
}

// Jump is goto/if*/jsr, referencing the label it branches to.
type Jump struct {
	Opcode int
	Target *Label
}

func (i *Jump) Op() int    { return i.Opcode }
func (i *Jump) clone() Insn { return &Jump{Opcode: i.Opcode, Target: i.Target} }

// LabelMark is a pseudo-instruction marking a position other instructions
// (jumps, switches, try/catch ranges, local-variable ranges, line numbers)
// can refer to. Every label referenced anywhere in a method must have
// exactly one LabelMark with that identity (spec §8 "quantified
// invariants").
type LabelMark struct{ L *Label }

func (i *LabelMark) Op() int    { return -1 }
func (i *LabelMark) clone() Insn { return &LabelMark{L: i.L} }

// Ldc loads a constant from the constant pool: an int32, int64, float32,
// float64, string, or a Type (Class constant, for `ldc Foo.class`).
type Ldc struct {
	Opcode int // Ldc, LdcW, or Ldc2W
	Value  interface{}
}

func (i *Ldc) Op() int    { return i.Opcode }
func (i *Ldc) clone() Insn { return &Ldc{Opcode: i.Opcode, Value: i.Value} }

// Iinc increments local variable Var by Incr in place.
type Iinc struct {
	Var  int
	Incr int
}

func (i *Iinc) Op() int    { return OpIinc }
func (i *Iinc) clone() Insn { return &Iinc{Var: i.Var, Incr: i.Incr} }

// TableSwitch is the dense-range switch form.
type TableSwitch struct {
	Default *Label
	Low     int32
	High    int32
	Labels  []*Label
}

func (i *TableSwitch) Op() int { return OpTableswitch }
func (i *TableSwitch) clone() Insn {
	return &TableSwitch{Default: i.Default, Low: i.Low, High: i.High, Labels: append([]*Label(nil), i.Labels...)}
}

// LookupSwitch is the sparse-key switch form.
type LookupSwitch struct {
	Default *Label
	Keys    []int32
	Labels  []*Label
}

func (i *LookupSwitch) Op() int { return OpLookupswitch }
func (i *LookupSwitch) clone() Insn {
	return &LookupSwitch{Default: i.Default, Keys: append([]int32(nil), i.Keys...), Labels: append([]*Label(nil), i.Labels...)}
}

// MultiANewArray is multianewarray: an array type and a dimension count.
type MultiANewArray struct {
	Type string
	Dims int
}

func (i *MultiANewArray) Op() int    { return OpMultianewarray }
func (i *MultiANewArray) clone() Insn { return &MultiANewArray{Type: i.Type, Dims: i.Dims} }

// FrameInsn is a stack-map frame pseudo-instruction. mixforge never hand-
// authors these, and the decoder does not produce them (the StackMapTable
// attribute is not read). The encoder drops any FrameInsn it meets and
// writes no StackMapTable; frames are not recomputed.
type FrameInsn struct {
	// Raw is an opaque frame payload; mixforge never interprets it.
	Raw interface{}
}

func (i *FrameInsn) Op() int    { return -1 }
func (i *FrameInsn) clone() Insn { return &FrameInsn{Raw: i.Raw} }

// LineNumber maps a label to a source line number, purely informational.
type LineNumber struct {
	L    *Label
	Line int
}

func (i *LineNumber) Op() int    { return -1 }
func (i *LineNumber) clone() Insn { return &LineNumber{L: i.L, Line: i.Line} }
