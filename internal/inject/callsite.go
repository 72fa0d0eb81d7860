/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package inject

import (
	"github.com/pkg/errors"

	"github.com/relay-cn/mixforge/internal/bcutil"
	"github.com/relay-cn/mixforge/internal/classtree"
)

// findCallSites returns the indexes, in order, of every MethodRef or
// FieldRef instruction in list matching ref's owner/name (and descriptor,
// when ref.Desc is non-empty) — the "At" member reference every
// INVOKE/ModifyArg/Redirect/ModifyConstant directive resolves against.
func findCallSites(list *classtree.InsnList, ref bcutil.MemberRef) []int {
	var out []int
	for i, insn := range list.All() {
		switch v := insn.(type) {
		case *classtree.MethodRef:
			if v.Owner == ref.Owner && v.Name == ref.Name && (ref.Desc == "" || ref.Desc == v.Desc) {
				out = append(out, i)
			}
		case *classtree.FieldRef:
			if v.Owner == ref.Owner && v.Name == ref.Name && (ref.Desc == "" || ref.Desc == v.Desc) {
				out = append(out, i)
			}
		}
	}
	return out
}

// selectOrdinal picks one index out of sites by ordinal, -1 meaning "the
// only one expected" (erroring if there isn't exactly one).
func selectOrdinal(sites []int, ordinal int) (int, error) {
	if len(sites) == 0 {
		return 0, errors.New("call site not found")
	}
	if ordinal < 0 {
		if len(sites) != 1 {
			return 0, errors.Errorf("call site is ambiguous: %d matches, need an ordinal", len(sites))
		}
		return sites[0], nil
	}
	if ordinal >= len(sites) {
		return 0, errors.Errorf("ordinal %d out of range (%d matches)", ordinal, len(sites))
	}
	return sites[ordinal], nil
}
