/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package types holds the small, shared vocabulary of JVM type descriptors
// and wrapper-class names used across the transformation engine, the way
// the teacher's jacobin/types package centralizes its own JVM primitives.
package types

// Primitive and reference descriptor prefixes, as they appear in a JVM
// method or field descriptor.
const (
	Byte      = "B"
	Char      = "C"
	Double    = "D"
	Float     = "F"
	Int       = "I"
	Long      = "J"
	Short     = "S"
	Boolean   = "Z"
	Void      = "V"
	ArrayPfx  = "["
	RefPfx    = "L"
	RefSuffix = ";"
)

// ObjectClassName is the internal name of java.lang.Object.
const ObjectClassName = "java/lang/Object"

// WrapperClass maps a primitive descriptor to the internal name of its
// boxed wrapper class, fixed the way the spec (§4.1) requires.
var WrapperClass = map[string]string{
	Byte:    "java/lang/Byte",
	Char:    "java/lang/Character",
	Double:  "java/lang/Double",
	Float:   "java/lang/Float",
	Int:     "java/lang/Integer",
	Long:    "java/lang/Long",
	Short:   "java/lang/Short",
	Boolean: "java/lang/Boolean",
}

// UnboxMethod maps a primitive descriptor to the name+descriptor of the
// instance method on its wrapper class that yields the primitive value.
var UnboxMethod = map[string]struct {
	Name string
	Desc string
}{
	Byte:    {"byteValue", "()B"},
	Char:    {"charValue", "()C"},
	Double:  {"doubleValue", "()D"},
	Float:   {"floatValue", "()F"},
	Int:     {"intValue", "()I"},
	Long:    {"longValue", "()J"},
	Short:   {"shortValue", "()S"},
	Boolean: {"booleanValue", "()Z"},
}

// IsPrimitive reports whether descriptor d names a primitive type.
func IsPrimitive(d string) bool {
	switch d {
	case Byte, Char, Double, Float, Int, Long, Short, Boolean, Void:
		return true
	default:
		return false
	}
}

// IsReference reports whether descriptor d names an object or array type.
func IsReference(d string) bool {
	if d == "" {
		return false
	}
	return d[0] == 'L' || d[0] == '['
}

// Category64 reports whether a descriptor occupies two local-variable slots
// / two operand-stack words (long and double), per JVM category-2 typing.
func Category64(d string) bool {
	return d == Long || d == Double
}

// SlotSize returns 2 for long/double, 1 for everything else — the JVM's
// "computational category" used throughout local-variable and stack-map
// bookkeeping.
func SlotSize(d string) int {
	if Category64(d) {
		return 2
	}
	return 1
}
