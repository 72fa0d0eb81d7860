/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classtree

import "github.com/relay-cn/mixforge/internal/types"

// SplitMethodDescriptor splits a method descriptor "(Ljava/lang/String;I)V"
// into its parameter list and return type.
func SplitMethodDescriptor(desc string) (params []string, ret string) {
	params = SplitParams(desc)
	if close := indexByte(desc, ')'); close >= 0 && close+1 <= len(desc) {
		ret = desc[close+1:]
	}
	return
}

// SplitParams extracts the individual parameter descriptors from a method
// descriptor, ignoring the return type.
func SplitParams(desc string) []string {
	if len(desc) == 0 || desc[0] != '(' {
		return nil
	}
	var out []string
	i := 1
	for i < len(desc) && desc[i] != ')' {
		start := i
		for desc[i] == '[' {
			i++
		}
		switch desc[i] {
		case 'L':
			for desc[i] != ';' {
				i++
			}
			i++
		default:
			i++
		}
		out = append(out, desc[start:i])
	}
	return out
}

// SlotSize returns the number of local-variable slots a descriptor
// occupies: 2 for long/double, 1 for everything else including arrays and
// references.
func SlotSize(desc string) int {
	if types.Category64(desc) {
		return 2
	}
	return 1
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
