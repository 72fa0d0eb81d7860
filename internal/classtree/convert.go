/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classtree

import (
	"encoding/binary"

	"github.com/relay-cn/mixforge/internal/classfile"
	"github.com/relay-cn/mixforge/internal/diag"
)

// FromClassFile disassembles a flat, still-encoded *classfile.ClassFile into
// a *ClassTree whose methods carry label-addressed instruction lists. This
// is the boundary spec §4.8 step 1 describes: "decode the target's methods
// into the tree form before any directive runs."
func FromClassFile(cf *classfile.ClassFile) (*ClassTree, error) {
	ct := &ClassTree{
		Access:       cf.AccessFlags,
		Name:         cf.ThisClassName(),
		Super:        cf.SuperClassName(),
		MinorVersion: cf.MinorVersion,
		MajorVersion: cf.MajorVersion,
		cp:           cf.ConstantPool,
	}
	for _, ifIdx := range cf.Interfaces {
		if name, ok := cf.ConstantPool.ClassName(ifIdx); ok {
			ct.Interfaces = append(ct.Interfaces, name)
		}
	}
	for _, f := range cf.Fields {
		name, _ := cf.ConstantPool.Utf8(f.NameIndex)
		desc, _ := cf.ConstantPool.Utf8(f.DescIndex)
		ct.Fields = append(ct.Fields, &FieldNode{Access: f.AccessFlags, Name: name, Desc: desc})
	}
	for _, m := range cf.Methods {
		name, _ := cf.ConstantPool.Utf8(m.NameIndex)
		desc, _ := cf.ConstantPool.Utf8(m.DescIndex)
		mn := &MethodNode{
			Access:    m.AccessFlags,
			Name:      name,
			Desc:      desc,
			MaxStack:  int(m.MaxStack),
			MaxLocals: int(m.MaxLocals),
		}
		if len(m.Code) > 0 {
			list, labelAt, err := decodeCode(m.Code, cf.ConstantPool, m.ExcTable)
			if err != nil {
				return nil, diag.Wrap(err, "decoding "+ct.Name+"#"+name+desc)
			}
			mn.Instructions = list
			mn.TryCatch = buildTryCatch(m.ExcTable, labelAt, cf.ConstantPool)
		} else {
			mn.Instructions = NewInsnList()
		}
		mn.Params = synthesizeParams(mn)
		ct.Methods = append(ct.Methods, mn)
	}
	return ct, nil
}

// synthesizeParams builds placeholder parameter metadata (p0, p1, ...) since
// the parse path does not carry a MethodParameters attribute through; real
// names are cosmetic only, injectors address parameters by slot index.
func synthesizeParams(m *MethodNode) []Param {
	descs := m.ParamDescriptors()
	out := make([]Param, len(descs))
	for i := range descs {
		out[i] = Param{Name: "p" + itoa(i)}
	}
	return out
}

// buildTryCatch converts offset-addressed exception-table entries into
// label-addressed ones. decodeCode is given the exception table up front so
// every StartPC/EndPC/HandlerPC offset already has a LabelMark in the
// decoded list by the time this runs.
func buildTryCatch(raw []classfile.ExceptionTableEntry, labelAt map[int]*Label, cp *classfile.ConstantPool) []TryCatchBlock {
	out := make([]TryCatchBlock, 0, len(raw))
	for _, et := range raw {
		catch := ""
		if et.CatchType != 0 {
			catch, _ = cp.ClassName(et.CatchType)
		}
		out = append(out, TryCatchBlock{
			Start:     labelAt[int(et.StartPC)],
			End:       labelAt[int(et.EndPC)],
			Handler:   labelAt[int(et.HandlerPC)],
			CatchType: catch,
		})
	}
	return out
}

// ToClassFile reassembles a *ClassTree back into a flat *classfile.ClassFile
// ready for classfile.Serialize. Stack-map frames are not recomputed,
// here or anywhere else in the engine: any FrameInsn left in a method's
// list is dropped and StackMapTable is omitted; a JVM that
// recomputes frames on load (-Xverify or a splitVerifier fallback) accepts
// the result, matching this engine's "output loads, even if it isn't
// StackMapTable-adorned" contract.
func ToClassFile(ct *ClassTree) (*classfile.ClassFile, error) {
	cp := ct.cp
	cf := &classfile.ClassFile{
		MinorVersion: ct.MinorVersion,
		MajorVersion: ct.MajorVersion,
		ConstantPool: cp,
		AccessFlags:  ct.Access,
		ThisClass:    cp.InternClass(ct.Name),
	}
	if ct.Super != "" {
		cf.SuperClass = cp.InternClass(ct.Super)
	}
	for _, ifc := range ct.Interfaces {
		cf.Interfaces = append(cf.Interfaces, cp.InternClass(ifc))
	}
	for _, f := range ct.Fields {
		cf.Fields = append(cf.Fields, classfile.FieldInfo{
			AccessFlags: f.Access,
			NameIndex:   cp.InternUtf8(f.Name),
			DescIndex:   cp.InternUtf8(f.Desc),
		})
	}
	for _, m := range ct.Methods {
		mi := classfile.MethodInfo{
			AccessFlags: m.Access,
			NameIndex:   cp.InternUtf8(m.Name),
			DescIndex:   cp.InternUtf8(m.Desc),
		}
		if !m.IsAbstract() && !m.IsNative() {
			code, excTable, err := encodeCode(m, cp)
			if err != nil {
				return nil, diag.Wrap(err, "encoding "+ct.Name+"#"+m.Name+m.Desc)
			}
			mi.Code = code
			mi.ExcTable = excTable
			mi.MaxLocals = uint16(m.MaxLocals)
			mi.MaxStack = uint16(m.MaxStack)
		}
		cf.Methods = append(cf.Methods, mi)
	}
	return cf, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// --- decode ---------------------------------------------------------------

// decodeCode turns a method's raw Code bytes into a label-addressed
// instruction list, minting one *Label per unique branch target offset plus
// one per exception-table boundary, and returns the offset->label map so
// buildTryCatch can address try/catch ranges by label instead of offset.
func decodeCode(code []byte, cp *classfile.ConstantPool, excTable []classfile.ExceptionTableEntry) (*InsnList, map[int]*Label, error) {
	targets, err := scanBranchTargets(code)
	if err != nil {
		return nil, nil, err
	}
	for _, et := range excTable {
		targets[int(et.StartPC)] = true
		targets[int(et.EndPC)] = true
		targets[int(et.HandlerPC)] = true
	}
	labelAt := make(map[int]*Label, len(targets))
	for off := range targets {
		labelAt[off] = NewLabel("L")
	}
	label := func(off int) *Label {
		if l, ok := labelAt[off]; ok {
			return l
		}
		l := NewLabel("L")
		labelAt[off] = l
		return l
	}

	list := NewInsnList()
	pos := 0
	for pos < len(code) {
		if l, ok := labelAt[pos]; ok {
			list.Append(&LabelMark{L: l})
		}
		op := int(code[pos])
		start := pos
		switch {
		case op == OpWide:
			insn, n, err := decodeWide(code, pos)
			if err != nil {
				return nil, nil, err
			}
			list.Append(insn)
			pos += n
		case op == OpTableswitch:
			insn, n := decodeTableSwitch(code, pos, label)
			list.Append(insn)
			pos += n
		case op == OpLookupswitch:
			insn, n := decodeLookupSwitch(code, pos, label)
			list.Append(insn)
			pos += n
		default:
			insn, n, err := decodeOne(code, pos, cp, label)
			if err != nil {
				return nil, nil, err
			}
			list.Append(insn)
			pos += n
		}
		if pos == start {
			return nil, nil, diag.Wrap(nil, "decoder made no progress")
		}
	}
	if l, ok := labelAt[len(code)]; ok {
		list.Append(&LabelMark{L: l})
	}
	return list, labelAt, nil
}

// scanBranchTargets makes a pass over the code to find every offset a
// branch, switch, or jsr can land on, without building any Insn yet — this
// lets the real decode pass know up front which offsets need a LabelMark.
func scanBranchTargets(code []byte) (map[int]bool, error) {
	targets := map[int]bool{}
	pos := 0
	for pos < len(code) {
		op := int(code[pos])
		switch op {
		case OpIfeq, OpIfne, OpIflt, OpIfge, OpIfgt, OpIfle,
			OpIfIcmpeq, 0xa0, 0xa1, 0xa2, 0xa3, 0xa4, 0xa5, OpIfAcmpne,
			OpGoto, OpJsr, OpIfnull, OpIfnonnull:
			off := int(int16(binary.BigEndian.Uint16(code[pos+1:])))
			targets[pos+off] = true
			pos += 3
		case OpGotoW, OpJsrW:
			off := int(int32(binary.BigEndian.Uint32(code[pos+1:])))
			targets[pos+off] = true
			pos += 5
		case OpTableswitch:
			base := pos
			p := pos + 1
			for (p-0)%4 != 0 {
				p++
			}
			def := int(int32(binary.BigEndian.Uint32(code[p:])))
			targets[base+def] = true
			low := int32(binary.BigEndian.Uint32(code[p+4:]))
			high := int32(binary.BigEndian.Uint32(code[p+8:]))
			p += 12
			n := int(high - low + 1)
			for i := 0; i < n; i++ {
				off := int(int32(binary.BigEndian.Uint32(code[p:])))
				targets[base+off] = true
				p += 4
			}
			pos = p
		case OpLookupswitch:
			base := pos
			p := pos + 1
			for (p-0)%4 != 0 {
				p++
			}
			def := int(int32(binary.BigEndian.Uint32(code[p:])))
			targets[base+def] = true
			npairs := int(int32(binary.BigEndian.Uint32(code[p+4:])))
			p += 8
			for i := 0; i < npairs; i++ {
				off := int(int32(binary.BigEndian.Uint32(code[p+4:])))
				targets[base+off] = true
				p += 8
			}
			pos = p
		case OpWide:
			_, n, err := decodeWide(code, pos)
			if err != nil {
				return nil, err
			}
			pos += n
		default:
			n, err := plainSize(code, pos)
			if err != nil {
				return nil, err
			}
			pos += n
		}
	}
	return targets, nil
}

// plainSize returns the byte length of the instruction at pos, for opcodes
// not handled specially by the switch statements above (i.e. everything but
// wide/tableswitch/lookupswitch, which compute their own size).
func plainSize(code []byte, pos int) (int, error) {
	op := int(code[pos])
	switch op {
	case OpBipush, OpNewarray, OpLdc, OpRet:
		return 2, nil
	case OpIload, OpLload, OpFload, OpDload, OpAload,
		OpIstore, OpLstore, OpFstore, OpDstore, OpAstore:
		return 2, nil
	case OpSipush, OpLdcW, OpLdc2W,
		OpIfeq, OpIfne, OpIflt, OpIfge, OpIfgt, OpIfle,
		OpIfIcmpeq, 0xa0, 0xa1, 0xa2, 0xa3, 0xa4, 0xa5, OpIfAcmpne,
		OpGoto, OpJsr,
		OpGetstatic, OpPutstatic, OpGetfield, OpPutfield,
		OpInvokevirtual, OpInvokespecial, OpInvokestatic,
		OpNew, OpAnewarray, OpCheckcast, OpInstanceof,
		OpIfnull, OpIfnonnull, OpIinc:
		return 3, nil
	case OpMultianewarray:
		return 4, nil
	case OpInvokeinterface, OpInvokedynamic, OpGotoW, OpJsrW:
		return 5, nil
	default:
		return 1, nil
	}
}

// isVarSlotOp reports whether op is one of the explicit-operand
// xLOAD/xSTORE opcodes (iload, istore, ...) as opposed to their _0.._3
// shorthand forms, which are zero-operand.
func isVarSlotOp(op int) bool {
	switch op {
	case OpIload, OpLload, OpFload, OpDload, OpAload,
		OpIstore, OpLstore, OpFstore, OpDstore, OpAstore:
		return true
	default:
		return false
	}
}

// decodeOne decodes a single non-wide, non-switch instruction at pos,
// returning the Insn and its byte length.
func decodeOne(code []byte, pos int, cp *classfile.ConstantPool, label func(int) *Label) (Insn, int, error) {
	op := int(code[pos])
	switch {
	case op == OpInvokeinterface:
		idx := binary.BigEndian.Uint16(code[pos+1:])
		ref := resolveMethodRef(cp, idx, true)
		ref.Opcode = op
		return ref, 5, nil
	case op == OpInvokedynamic:
		idx := binary.BigEndian.Uint16(code[pos+1:])
		e, _ := cp.Get(idx)
		name, desc := "", ""
		if nat, ok := cp.Get(e.NameAndTypeIndex); ok {
			name, _ = cp.Utf8(nat.NameIndex)
			desc, _ = cp.Utf8(nat.DescIndex)
		}
		return &InvokeDynamic{Name: name, Desc: desc, BootstrapMethodAttrIndex: e.BootstrapMethodAttrIndex}, 5, nil
	case op == OpMultianewarray:
		idx := binary.BigEndian.Uint16(code[pos+1:])
		ty, _ := cp.ClassName(idx)
		dims := int(code[pos+3])
		return &MultiANewArray{Type: ty, Dims: dims}, 4, nil
	case op == OpBipush:
		return &IntOperand{Opcode: op, Operand: int32(int8(code[pos+1]))}, 2, nil
	case op == OpSipush:
		return &IntOperand{Opcode: op, Operand: int32(int16(binary.BigEndian.Uint16(code[pos+1:])))}, 3, nil
	case op == OpNewarray:
		return &IntOperand{Opcode: op, Operand: int32(code[pos+1])}, 2, nil
	case op == OpLdc:
		return &Ldc{Opcode: op, Value: resolveLdc(cp, uint16(code[pos+1]))}, 2, nil
	case op == OpLdcW || op == OpLdc2W:
		idx := binary.BigEndian.Uint16(code[pos+1:])
		return &Ldc{Opcode: op, Value: resolveLdc(cp, idx)}, 3, nil
	case op == OpIinc:
		return &Iinc{Var: int(code[pos+1]), Incr: int(int8(code[pos+2]))}, 3, nil
	case isVarSlotOp(op) || op == OpRet:
		return &VarOperand{Opcode: op, Var: int(code[pos+1])}, 2, nil
	case op == OpIfeq, op == OpIfne, op == OpIflt, op == OpIfge, op == OpIfgt, op == OpIfle,
		op == OpIfIcmpeq, (op >= 0xa0 && op <= 0xa5), op == OpIfAcmpne,
		op == OpGoto, op == OpJsr, op == OpIfnull, op == OpIfnonnull:
		off := int(int16(binary.BigEndian.Uint16(code[pos+1:])))
		return &Jump{Opcode: op, Target: label(pos + off)}, 3, nil
	case op == OpGotoW || op == OpJsrW:
		off := int(int32(binary.BigEndian.Uint32(code[pos+1:])))
		return &Jump{Opcode: op, Target: label(pos + off)}, 5, nil
	case op == OpGetstatic, op == OpPutstatic, op == OpGetfield, op == OpPutfield:
		idx := binary.BigEndian.Uint16(code[pos+1:])
		return resolveFieldRef(cp, idx, op), 3, nil
	case op == OpInvokevirtual, op == OpInvokespecial, op == OpInvokestatic:
		idx := binary.BigEndian.Uint16(code[pos+1:])
		ref := resolveMethodRef(cp, idx, false)
		ref.Opcode = op
		return ref, 3, nil
	case op == OpNew, op == OpAnewarray, op == OpCheckcast, op == OpInstanceof:
		idx := binary.BigEndian.Uint16(code[pos+1:])
		ty, _ := cp.ClassName(idx)
		return &TypeOperand{Opcode: op, Type: ty}, 3, nil
	default:
		return &Plain{Opcode: op}, 1, nil
	}
}

func resolveFieldRef(cp *classfile.ConstantPool, idx uint16, op int) *FieldRef {
	e, _ := cp.Get(idx)
	owner, _ := cp.ClassName(e.ClassIndex)
	name, desc := "", ""
	if nat, ok := cp.Get(e.NameAndTypeIndex); ok {
		name, _ = cp.Utf8(nat.NameIndex)
		desc, _ = cp.Utf8(nat.DescIndex)
	}
	return &FieldRef{Opcode: op, Owner: owner, Name: name, Desc: desc}
}

func resolveMethodRef(cp *classfile.ConstantPool, idx uint16, isInterface bool) *MethodRef {
	e, _ := cp.Get(idx)
	owner, _ := cp.ClassName(e.ClassIndex)
	name, desc := "", ""
	if nat, ok := cp.Get(e.NameAndTypeIndex); ok {
		name, _ = cp.Utf8(nat.NameIndex)
		desc, _ = cp.Utf8(nat.DescIndex)
	}
	return &MethodRef{Owner: owner, Name: name, Desc: desc, IsInterface: isInterface || e.Tag == classfile.TagInterfaceMethodref}
}

func resolveLdc(cp *classfile.ConstantPool, idx uint16) interface{} {
	e, ok := cp.Get(idx)
	if !ok {
		return nil
	}
	switch e.Tag {
	case classfile.TagInteger:
		return e.Int32
	case classfile.TagFloat:
		return e.Float
	case classfile.TagLong:
		return e.Int64
	case classfile.TagDouble:
		return e.Double
	case classfile.TagString:
		s, _ := cp.Utf8(e.NameIndex)
		return s
	case classfile.TagClass:
		name, _ := cp.ClassName(idx)
		return classRef(name)
	default:
		return nil
	}
}

// classRef marks an ldc operand as a Class constant (`Foo.class`) rather
// than a string, so the encoder can tell the two apart.
type classRef string

func decodeWide(code []byte, pos int) (Insn, int, error) {
	sub := int(code[pos+1])
	if sub == OpIinc {
		v := int(binary.BigEndian.Uint16(code[pos+2:]))
		incr := int(int16(binary.BigEndian.Uint16(code[pos+4:])))
		return &Iinc{Var: v, Incr: incr}, 6, nil
	}
	v := int(binary.BigEndian.Uint16(code[pos+2:]))
	return &VarOperand{Opcode: sub, Var: v}, 4, nil
}

func decodeTableSwitch(code []byte, pos int, label func(int) *Label) (Insn, int) {
	base := pos
	p := pos + 1
	for (p-0)%4 != 0 {
		p++
	}
	def := int(int32(binary.BigEndian.Uint32(code[p:])))
	low := int32(binary.BigEndian.Uint32(code[p+4:]))
	high := int32(binary.BigEndian.Uint32(code[p+8:]))
	p += 12
	n := int(high - low + 1)
	labels := make([]*Label, n)
	for i := 0; i < n; i++ {
		off := int(int32(binary.BigEndian.Uint32(code[p:])))
		labels[i] = label(base + off)
		p += 4
	}
	return &TableSwitch{Default: label(base + def), Low: low, High: high, Labels: labels}, p - base
}

func decodeLookupSwitch(code []byte, pos int, label func(int) *Label) (Insn, int) {
	base := pos
	p := pos + 1
	for (p-0)%4 != 0 {
		p++
	}
	def := int(int32(binary.BigEndian.Uint32(code[p:])))
	npairs := int(int32(binary.BigEndian.Uint32(code[p+4:])))
	p += 8
	keys := make([]int32, npairs)
	labels := make([]*Label, npairs)
	for i := 0; i < npairs; i++ {
		keys[i] = int32(binary.BigEndian.Uint32(code[p:]))
		labels[i] = label(base + int(int32(binary.BigEndian.Uint32(code[p+4:]))))
		p += 8
	}
	return &LookupSwitch{Default: label(base + def), Keys: keys, Labels: labels}, p - base
}

// --- encode ---------------------------------------------------------------

// encodeCode reassembles a method's instruction list into raw bytecode,
// resolving label references to branch offsets in a single forward pass:
// every opcode's encoded size is fixed given its identity (the decoder never
// widens a short branch into goto_w or vice versa), so each instruction's
// offset is known by the time a later instruction needs to reference it
// relative to its own position, and no second offset-fixup pass is needed.
func encodeCode(m *MethodNode, cp *classfile.ConstantPool) ([]byte, []classfile.ExceptionTableEntry, error) {
	insns := m.Instructions.All()
	offsets := make(map[Insn]int, len(insns))
	labelOffsets := map[*Label]int{}
	pos := 0
	for _, insn := range insns {
		offsets[insn] = pos
		if lm, ok := insn.(*LabelMark); ok {
			labelOffsets[lm.L] = pos
			continue
		}
		pos += instrSize(insn, pos)
	}
	total := pos

	buf := make([]byte, 0, total)
	put8 := func(v byte) { buf = append(buf, v) }
	put16 := func(v int) { buf = append(buf, byte(v>>8), byte(v)) }
	put32 := func(v int) { buf = append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v)) }

	for _, insn := range insns {
		here := offsets[insn]
		switch v := insn.(type) {
		case *LabelMark:
			continue
		case *Plain:
			put8(byte(v.Opcode))
		case *IntOperand:
			put8(byte(v.Opcode))
			switch v.Opcode {
			case OpBipush, OpNewarray:
				put8(byte(v.Operand))
			default:
				put16(int(v.Operand))
			}
		case *VarOperand:
			put8(byte(v.Opcode))
			put8(byte(v.Var))
		case *TypeOperand:
			put8(byte(v.Opcode))
			put16(int(cp.InternClass(v.Type)))
		case *FieldRef:
			put8(byte(v.Opcode))
			put16(int(internFieldRef(cp, v)))
		case *MethodRef:
			put8(byte(v.Opcode))
			idx := internMethodRef(cp, v)
			put16(int(idx))
			if v.Opcode == OpInvokeinterface {
				nargs := 1
				for _, p := range SplitParams(v.Desc) {
					nargs += SlotSize(p)
				}
				put8(byte(nargs))
				put8(0)
			}
		case *InvokeDynamic:
			natIdx := cp.InternNameAndType(v.Name, v.Desc)
			idx := cp.Append(classfile.CPEntry{Tag: classfile.TagInvokeDynamic, BootstrapMethodAttrIndex: v.BootstrapMethodAttrIndex, NameAndTypeIndex: natIdx})
			put8(byte(OpInvokedynamic))
			put16(int(idx))
			put16(0)
		case *Jump:
			put8(byte(v.Opcode))
			target := labelOffsets[v.Target]
			delta := target - here
			if v.Opcode == OpGotoW || v.Opcode == OpJsrW {
				put32(delta)
			} else {
				put16(delta)
			}
		case *Ldc:
			idx := internLdc(cp, v.Value)
			put8(byte(v.Opcode))
			if v.Opcode == OpLdc {
				put8(byte(idx))
			} else {
				put16(int(idx))
			}
		case *Iinc:
			put8(byte(OpIinc))
			put8(byte(v.Var))
			put8(byte(v.Incr))
		case *TableSwitch:
			put8(byte(OpTableswitch))
			pad := (4 - (here+1)%4) % 4
			for i := 0; i < pad; i++ {
				put8(0)
			}
			put32(labelOffsets[v.Default] - here)
			put32(int(v.Low))
			put32(int(v.High))
			for _, lb := range v.Labels {
				put32(labelOffsets[lb] - here)
			}
		case *LookupSwitch:
			put8(byte(OpLookupswitch))
			pad := (4 - (here+1)%4) % 4
			for i := 0; i < pad; i++ {
				put8(0)
			}
			put32(labelOffsets[v.Default] - here)
			put32(len(v.Keys))
			for i, k := range v.Keys {
				put32(int(k))
				put32(labelOffsets[v.Labels[i]] - here)
			}
		case *MultiANewArray:
			put8(byte(OpMultianewarray))
			put16(int(cp.InternClass(v.Type)))
			put8(byte(v.Dims))
		case *FrameInsn:
			continue
		case *LineNumber:
			continue
		default:
			return nil, nil, diag.Wrap(nil, "unhandled instruction kind during encode")
		}
	}
	if len(buf) != total {
		return nil, nil, diag.Wrap(nil, "encoded length mismatch")
	}

	var excTable []classfile.ExceptionTableEntry
	for _, tc := range m.TryCatch {
		catchIdx := uint16(0)
		if tc.CatchType != "" {
			catchIdx = cp.InternClass(tc.CatchType)
		}
		excTable = append(excTable, classfile.ExceptionTableEntry{
			StartPC:   uint16(labelOffsets[tc.Start]),
			EndPC:     uint16(labelOffsets[tc.End]),
			HandlerPC: uint16(labelOffsets[tc.Handler]),
			CatchType: catchIdx,
		})
	}
	return buf, excTable, nil
}

func internFieldRef(cp *classfile.ConstantPool, f *FieldRef) uint16 {
	return cp.InternMemberRef(classfile.TagFieldref, f.Owner, f.Name, f.Desc)
}

func internMethodRef(cp *classfile.ConstantPool, m *MethodRef) uint16 {
	tag := classfile.Tag(classfile.TagMethodref)
	if m.IsInterface {
		tag = classfile.TagInterfaceMethodref
	}
	return cp.InternMemberRef(tag, m.Owner, m.Name, m.Desc)
}

func internLdc(cp *classfile.ConstantPool, value interface{}) uint16 {
	switch v := value.(type) {
	case int32:
		return cp.Append(classfile.CPEntry{Tag: classfile.TagInteger, Int32: v})
	case float32:
		return cp.Append(classfile.CPEntry{Tag: classfile.TagFloat, Float: v})
	case int64:
		return cp.Append(classfile.CPEntry{Tag: classfile.TagLong, Int64: v})
	case float64:
		return cp.Append(classfile.CPEntry{Tag: classfile.TagDouble, Double: v})
	case string:
		return cp.Append(classfile.CPEntry{Tag: classfile.TagString, NameIndex: cp.InternUtf8(v)})
	case classRef:
		return cp.InternClass(string(v))
	default:
		return 0
	}
}

// instrSize returns the encoded byte length of insn, given its own offset
// (needed only so tableswitch/lookupswitch can compute their padding).
func instrSize(insn Insn, offset int) int {
	switch v := insn.(type) {
	case *Plain:
		return 1
	case *IntOperand:
		if v.Opcode == OpBipush || v.Opcode == OpNewarray {
			return 2
		}
		return 3
	case *VarOperand:
		return 2
	case *TypeOperand, *FieldRef:
		return 3
	case *MethodRef:
		if v.Opcode == OpInvokeinterface {
			return 5
		}
		return 3
	case *InvokeDynamic:
		return 5
	case *Jump:
		if v.Opcode == OpGotoW || v.Opcode == OpJsrW {
			return 5
		}
		return 3
	case *Ldc:
		if v.Opcode == OpLdc {
			return 2
		}
		return 3
	case *Iinc:
		return 3
	case *TableSwitch:
		pad := (4 - (offset+1)%4) % 4
		return 1 + pad + 12 + 4*len(v.Labels)
	case *LookupSwitch:
		pad := (4 - (offset+1)%4) % 4
		return 1 + pad + 8 + 8*len(v.Keys)
	case *MultiANewArray:
		return 4
	case *FrameInsn, *LineNumber:
		return 0
	default:
		return 0
	}
}
