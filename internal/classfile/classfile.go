/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classfile is the external collaborator spec §1 calls out as
// out-of-scope ("classfile parsing/serialization... assumed available as a
// tree API"). It wraps github.com/wreulicke/classfile-parser for the read
// path and carries a small hand-rolled writer for the reserialize step of
// component G, since the parser library itself is read-only. Nothing in
// this package knows about mixins or directives; internal/classtree is the
// layer that turns a *ClassFile into the mutable, label-addressed tree the
// rest of the engine edits.
package classfile

import (
	"bytes"
	"encoding/binary"
	"io"

	parser "github.com/wreulicke/classfile-parser"

	"github.com/relay-cn/mixforge/internal/diag"
)

// Constant-pool tag values, as defined by the JVM classfile format. These
// mirror parser.Constant* concrete types one-for-one; Tag lets classtree
// switch on a plain byte instead of a type-assertion chain.
type Tag byte

const (
	TagUTF8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

// CPEntry is one constant-pool slot, normalized out of the parser library's
// per-type structs into a single shape classtree can index and rewrite
// in-place (rewriting a mixin's self-references into target references is
// exactly "replace this entry's Class/NameAndType indices").
type CPEntry struct {
	Tag Tag

	// TagUTF8
	UTF8 string

	// TagInteger / TagFloat / TagLong / TagDouble
	Int32  int32
	Float  float32
	Int64  int64
	Double float64

	// TagClass / TagString / TagMethodType: single name index
	NameIndex uint16

	// TagFieldref / TagMethodref / TagInterfaceMethodref
	ClassIndex       uint16
	NameAndTypeIndex uint16

	// TagNameAndType
	DescIndex uint16

	// TagMethodHandle
	RefKind  uint8
	RefIndex uint16

	// TagInvokeDynamic / TagDynamic
	BootstrapMethodAttrIndex uint16
}

// ConstantPool is 1-indexed per the JVM format; Entries[0] is unused. A
// long/double entry occupies two consecutive slots, the second left as a
// zero-Tag placeholder with no payload (Serialize skips it), matching the
// classic JVM quirk that index+1 is unusable.
type ConstantPool struct {
	Entries []CPEntry
}

// Get returns the entry at a 1-based constant-pool index.
func (cp *ConstantPool) Get(index uint16) (CPEntry, bool) {
	if int(index) <= 0 || int(index) >= len(cp.Entries) {
		return CPEntry{}, false
	}
	return cp.Entries[index], true
}

// Utf8 resolves a UTF-8 constant-pool entry to its Go string.
func (cp *ConstantPool) Utf8(index uint16) (string, bool) {
	e, ok := cp.Get(index)
	if !ok || e.Tag != TagUTF8 {
		return "", false
	}
	return e.UTF8, true
}

// ClassName resolves a TagClass entry to its internal (slash-separated)
// name.
func (cp *ConstantPool) ClassName(index uint16) (string, bool) {
	e, ok := cp.Get(index)
	if !ok || e.Tag != TagClass {
		return "", false
	}
	return cp.Utf8(e.NameIndex)
}

// Append adds a new entry and returns its 1-based index. Used by the
// injectors that synthesize brand-new constant-pool entries (an accessor's
// field reference, a copied method's own descriptor, etc.).
func (cp *ConstantPool) Append(e CPEntry) uint16 {
	idx := uint16(len(cp.Entries))
	cp.Entries = append(cp.Entries, e)
	if e.Tag == TagLong || e.Tag == TagDouble {
		cp.Entries = append(cp.Entries, CPEntry{})
	}
	return idx
}

// FindUtf8 returns the index of an existing UTF-8 constant equal to s, or 0
// if none exists — used before Append to avoid constant-pool bloat the way
// a real classfile tool would dedupe.
func (cp *ConstantPool) FindUtf8(s string) uint16 {
	for i, e := range cp.Entries {
		if e.Tag == TagUTF8 && e.UTF8 == s {
			return uint16(i)
		}
	}
	return 0
}

// InternUtf8 returns the existing index for s or appends a new one.
func (cp *ConstantPool) InternUtf8(s string) uint16 {
	if idx := cp.FindUtf8(s); idx != 0 {
		return idx
	}
	return cp.Append(CPEntry{Tag: TagUTF8, UTF8: s})
}

// InternClass returns the existing TagClass index for internal name name,
// or appends a new TagClass (and backing UTF-8) entry.
func (cp *ConstantPool) InternClass(name string) uint16 {
	nameIdx := cp.InternUtf8(name)
	for i, e := range cp.Entries {
		if e.Tag == TagClass && e.NameIndex == nameIdx {
			return uint16(i)
		}
	}
	return cp.Append(CPEntry{Tag: TagClass, NameIndex: nameIdx})
}

// InternNameAndType returns the existing index for (name, desc) or appends
// a new one.
func (cp *ConstantPool) InternNameAndType(name, desc string) uint16 {
	nameIdx := cp.InternUtf8(name)
	descIdx := cp.InternUtf8(desc)
	for i, e := range cp.Entries {
		if e.Tag == TagNameAndType && e.NameIndex == nameIdx && e.DescIndex == descIdx {
			return uint16(i)
		}
	}
	return cp.Append(CPEntry{Tag: TagNameAndType, NameIndex: nameIdx, DescIndex: descIdx})
}

// InternMemberRef interns a field/method/interface-method reference.
func (cp *ConstantPool) InternMemberRef(tag Tag, owner, name, desc string) uint16 {
	classIdx := cp.InternClass(owner)
	natIdx := cp.InternNameAndType(name, desc)
	for i, e := range cp.Entries {
		if e.Tag == tag && e.ClassIndex == classIdx && e.NameAndTypeIndex == natIdx {
			return uint16(i)
		}
	}
	return cp.Append(CPEntry{Tag: tag, ClassIndex: classIdx, NameAndTypeIndex: natIdx})
}

// Attribute is an opaque class/field/method/code attribute: name plus raw
// bytes, the way the teacher's own `attr` struct stores "just the raw
// bytes" for everything it doesn't interpret.
type Attribute struct {
	Name string
	Data []byte
}

// ExceptionTableEntry is one try/catch range in a Code attribute.
type ExceptionTableEntry struct {
	StartPC, EndPC, HandlerPC uint16
	CatchType                 uint16
}

// MethodInfo is the flat, still-encoded-bytecode shape read off disk;
// classtree.FromClassFile turns Code into the typed instruction list the
// rest of the engine operates on.
type MethodInfo struct {
	AccessFlags uint16
	NameIndex   uint16
	DescIndex   uint16
	Attributes  []Attribute

	MaxStack   uint16
	MaxLocals  uint16
	Code       []byte
	ExcTable   []ExceptionTableEntry
	CodeAttrs  []Attribute
}

// FieldInfo is a class's field_info structure.
type FieldInfo struct {
	AccessFlags uint16
	NameIndex   uint16
	DescIndex   uint16
	Attributes  []Attribute
}

// ClassFile is the full classfile, constant pool included, before any
// mixin-aware interpretation has happened.
type ClassFile struct {
	MinorVersion, MajorVersion uint16
	ConstantPool               *ConstantPool
	AccessFlags                uint16
	ThisClass, SuperClass      uint16
	Interfaces                 []uint16
	Fields                     []FieldInfo
	Methods                    []MethodInfo
	Attributes                 []Attribute
}

// ThisClassName resolves the class's own internal name.
func (cf *ClassFile) ThisClassName() string {
	n, _ := cf.ConstantPool.ClassName(cf.ThisClass)
	return n
}

// SuperClassName resolves the superclass's internal name, or "" for
// java/lang/Object (SuperClass == 0).
func (cf *ClassFile) SuperClassName() string {
	if cf.SuperClass == 0 {
		return ""
	}
	n, _ := cf.ConstantPool.ClassName(cf.SuperClass)
	return n
}

// Parse reads a classfile via the wreulicke/classfile-parser library and
// normalizes it into the flat *ClassFile shape the rest of this package
// (and, through it, classtree) consumes.
func Parse(data []byte) (*ClassFile, error) {
	p := parser.New(bytes.NewReader(data))
	raw, err := p.Parse()
	if err != nil {
		return nil, diag.Wrap(err, "parsing classfile")
	}
	return fromParserClassFile(raw)
}

// fromParserClassFile copies the parser library's in-memory representation
// into ours. It is intentionally a straight field-by-field copy: the
// library owns constant-pool decoding correctness, we only need a shape we
// can mutate freely without touching the library's internals.
func fromParserClassFile(raw *parser.ClassFile) (*ClassFile, error) {
	cf := &ClassFile{
		MinorVersion: raw.MinorVersion,
		MajorVersion: raw.MajorVersion,
		AccessFlags:  uint16(raw.AccessFlags),
		ThisClass:    raw.ThisClass,
		SuperClass:   raw.SuperClass,
	}

	cf.ConstantPool = &ConstantPool{Entries: make([]CPEntry, len(raw.ConstantPool.Constants)+1)}
	for i, c := range raw.ConstantPool.Constants {
		idx := uint16(i + 1)
		cf.ConstantPool.Entries[idx] = convertConstant(c)
	}

	for _, ifIdx := range raw.Interfaces {
		cf.Interfaces = append(cf.Interfaces, ifIdx)
	}

	for _, f := range raw.Fields {
		cf.Fields = append(cf.Fields, FieldInfo{
			AccessFlags: uint16(f.AccessFlags),
			NameIndex:   f.NameIndex,
			DescIndex:   f.DescriptorIndex,
		})
	}

	for _, m := range raw.Methods {
		mi := MethodInfo{
			AccessFlags: uint16(m.AccessFlags),
			NameIndex:   m.NameIndex,
			DescIndex:   m.DescriptorIndex,
		}
		if code := m.Code(); code != nil {
			mi.MaxStack = code.MaxStack
			mi.MaxLocals = code.MaxLocals
			mi.Code = append([]byte(nil), code.Codes...)
			for _, et := range code.ExceptionTables {
				mi.ExcTable = append(mi.ExcTable, ExceptionTableEntry{
					StartPC: et.StartPc, EndPC: et.EndPc,
					HandlerPC: et.HandlerPc, CatchType: et.CatchType,
				})
			}
		}
		cf.Methods = append(cf.Methods, mi)
	}

	return cf, nil
}

func convertConstant(c interface{}) CPEntry {
	switch v := c.(type) {
	case *parser.ConstantUtf8:
		return CPEntry{Tag: TagUTF8, UTF8: v.String()}
	case *parser.ConstantInteger:
		return CPEntry{Tag: TagInteger, Int32: int32(v.Bytes)}
	case *parser.ConstantFloat:
		return CPEntry{Tag: TagFloat, Float: float32(v.Bytes)}
	case *parser.ConstantLong:
		return CPEntry{Tag: TagLong, Int64: int64(v.HighBytes)<<32 | int64(v.LowBytes)}
	case *parser.ConstantDouble:
		return CPEntry{Tag: TagDouble}
	case *parser.ConstantClass:
		return CPEntry{Tag: TagClass, NameIndex: v.NameIndex}
	case *parser.ConstantString:
		return CPEntry{Tag: TagString, NameIndex: v.StringIndex}
	case *parser.ConstantFieldref:
		return CPEntry{Tag: TagFieldref, ClassIndex: v.ClassIndex, NameAndTypeIndex: v.NameAndTypeIndex}
	case *parser.ConstantMethodref:
		return CPEntry{Tag: TagMethodref, ClassIndex: v.ClassIndex, NameAndTypeIndex: v.NameAndTypeIndex}
	case *parser.ConstantInterfaceMethodref:
		return CPEntry{Tag: TagInterfaceMethodref, ClassIndex: v.ClassIndex, NameAndTypeIndex: v.NameAndTypeIndex}
	case *parser.ConstantNameAndType:
		return CPEntry{Tag: TagNameAndType, NameIndex: v.NameIndex, DescIndex: v.DescriptorIndex}
	case *parser.ConstantInvokeDynamic:
		return CPEntry{Tag: TagInvokeDynamic, BootstrapMethodAttrIndex: v.BootstrapMethodAttrIndex, NameAndTypeIndex: v.NameAndTypeIndex}
	default:
		return CPEntry{}
	}
}

// Serialize writes cf back out in JVM classfile format. The parser library
// this package wraps is read-only, so the encode path is hand-rolled here;
// it only needs to produce bytes the same library (or any other classfile
// reader) can parse back, not to replicate the library's internals.
func Serialize(cf *ClassFile, w io.Writer) error {
	var buf bytes.Buffer
	be := binary.BigEndian

	write16 := func(v uint16) { _ = binary.Write(&buf, be, v) }
	write32 := func(v uint32) { _ = binary.Write(&buf, be, v) }

	write32(0xCAFEBABE)
	write16(cf.MinorVersion)
	write16(cf.MajorVersion)

	write16(uint16(len(cf.ConstantPool.Entries)))
	for i := 1; i < len(cf.ConstantPool.Entries); i++ {
		e := cf.ConstantPool.Entries[i]
		if e.Tag == 0 {
			continue // second slot of a long/double entry
		}
		buf.WriteByte(byte(e.Tag))
		switch e.Tag {
		case TagUTF8:
			b := []byte(e.UTF8)
			write16(uint16(len(b)))
			buf.Write(b)
		case TagInteger:
			write32(uint32(e.Int32))
		case TagFloat:
			write32(uint32(e.Int32))
		case TagLong:
			write32(uint32(e.Int64 >> 32))
			write32(uint32(e.Int64))
		case TagDouble:
			write32(uint32(e.Int64 >> 32))
			write32(uint32(e.Int64))
		case TagClass, TagMethodType:
			write16(e.NameIndex)
		case TagString:
			write16(e.NameIndex)
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			write16(e.ClassIndex)
			write16(e.NameAndTypeIndex)
		case TagNameAndType:
			write16(e.NameIndex)
			write16(e.DescIndex)
		case TagMethodHandle:
			buf.WriteByte(e.RefKind)
			write16(e.RefIndex)
		case TagInvokeDynamic, TagDynamic:
			write16(e.BootstrapMethodAttrIndex)
			write16(e.NameAndTypeIndex)
		}
	}

	write16(cf.AccessFlags)
	write16(cf.ThisClass)
	write16(cf.SuperClass)

	write16(uint16(len(cf.Interfaces)))
	for _, i := range cf.Interfaces {
		write16(i)
	}

	write16(uint16(len(cf.Fields)))
	for _, f := range cf.Fields {
		write16(f.AccessFlags)
		write16(f.NameIndex)
		write16(f.DescIndex)
		writeAttrs(&buf, be, cf.ConstantPool, f.Attributes)
	}

	write16(uint16(len(cf.Methods)))
	for _, m := range cf.Methods {
		write16(m.AccessFlags)
		write16(m.NameIndex)
		write16(m.DescIndex)
		attrs := append([]Attribute(nil), m.Attributes...)
		if m.Code != nil {
			attrs = append(attrs, Attribute{Name: "Code", Data: encodeCode(m, be)})
		}
		writeAttrs(&buf, be, cf.ConstantPool, attrs)
	}

	writeAttrs(&buf, be, cf.ConstantPool, cf.Attributes)

	_, err := w.Write(buf.Bytes())
	return err
}

// writeAttrs emits an attributes[] block: count, then for each attribute
// its interned name index, length, and raw body.
func writeAttrs(buf *bytes.Buffer, be binary.ByteOrder, cp *ConstantPool, attrs []Attribute) {
	_ = binary.Write(buf, be, uint16(len(attrs)))
	for _, a := range attrs {
		nameIdx := cp.InternUtf8(a.Name)
		_ = binary.Write(buf, be, nameIdx)
		_ = binary.Write(buf, be, uint32(len(a.Data)))
		buf.Write(a.Data)
	}
}

func encodeCode(m MethodInfo, be binary.ByteOrder) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, be, m.MaxStack)
	_ = binary.Write(&buf, be, m.MaxLocals)
	_ = binary.Write(&buf, be, uint32(len(m.Code)))
	buf.Write(m.Code)
	_ = binary.Write(&buf, be, uint16(len(m.ExcTable)))
	for _, et := range m.ExcTable {
		_ = binary.Write(&buf, be, et.StartPC)
		_ = binary.Write(&buf, be, et.EndPC)
		_ = binary.Write(&buf, be, et.HandlerPC)
		_ = binary.Write(&buf, be, et.CatchType)
	}
	_ = binary.Write(&buf, be, uint16(len(m.CodeAttrs)))
	return buf.Bytes()
}
