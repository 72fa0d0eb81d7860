/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package transform is component G: the single entry point the rest of the
// engine exists to support — transform(class_name, bytes) -> bytes, wiring
// internal/classfile's parser, internal/classtree's decode/encode,
// internal/registry's lookup, and internal/mixin's three-pass driver into
// one call. A malformed input classfile is the one fatal error (spec §7);
// everything a directive raises along the way is collected into the
// returned diagnostic sink instead of aborting the call.
package transform

import (
	"bytes"

	"github.com/relay-cn/mixforge/internal/classfile"
	"github.com/relay-cn/mixforge/internal/classtree"
	"github.com/relay-cn/mixforge/internal/diag"
	"github.com/relay-cn/mixforge/internal/mixin"
	"github.com/relay-cn/mixforge/internal/registry"
	"github.com/relay-cn/mixforge/internal/trace"
)

// Result carries the transformed bytes alongside the diagnostics collected
// while applying mixins, so a caller can decide whether a non-fatal
// diagnostic (a missing directive target, say) should still fail a build.
type Result struct {
	Bytes       []byte
	Diagnostics *diag.Sink
	Mixins      int // number of mixins the registry found for this class
}

// Transform decodes classBytes, applies every mixin reg.Lookup finds for
// the decoded class's own name, and reencodes the result. If no mixin
// applies, the input bytes are returned unchanged, once the decode has
// shown they form a well-formed classfile; className only labels errors.
func Transform(className string, classBytes []byte, reg *registry.Registry) (*Result, error) {
	cf, err := classfile.Parse(classBytes)
	if err != nil {
		return nil, diag.Fatal(className, err)
	}
	tree, err := classtree.FromClassFile(cf)
	if err != nil {
		return nil, diag.Fatal(className, err)
	}

	mixins := reg.Lookup(tree.Name)
	sink := diag.NewSink()
	if len(mixins) == 0 {
		return &Result{Bytes: classBytes, Diagnostics: sink}, nil
	}
	if len(mixins) > 0 {
		trace.Info("transforming " + tree.Name + " with " + pluralMixins(len(mixins)))
		ctx := mixin.NewContext(tree, sink)
		if err := ctx.Apply(mixins); err != nil {
			return nil, diag.Fatal(className, err)
		}
	}

	out, err := classtree.ToClassFile(tree)
	if err != nil {
		return nil, diag.Fatal(className, err)
	}
	var buf bytes.Buffer
	if err := classfile.Serialize(out, &buf); err != nil {
		return nil, diag.Fatal(className, err)
	}
	return &Result{Bytes: buf.Bytes(), Diagnostics: sink, Mixins: len(mixins)}, nil
}

func pluralMixins(n int) string {
	if n == 1 {
		return "1 mixin"
	}
	return itoa(n) + " mixins"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
