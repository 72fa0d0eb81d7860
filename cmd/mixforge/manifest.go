/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/relay-cn/mixforge/internal/directive"
)

// manifest is the on-disk description of one or more mixins to apply — the
// CLI's stand-in for the annotation scanner a full build-tool integration
// would have; discovering directives from annotations on an already-loaded
// mixin class is explicitly out of scope (spec §1), so the CLI instead
// reads them from this JSON file. encoding/json is the standard library's
// own boundary-parsing tool for exactly this shape of input; nothing in
// the example pack offers a directive-manifest format to ground a
// third-party parser against.
type manifest struct {
	Mixins []mixinEntry `json:"mixins"`
}

type mixinEntry struct {
	Class      string           `json:"class"`      // path to the mixin's compiled .class file
	Targets    []string         `json:"targets"`    // target class internal names
	Directives []directiveEntry `json:"directives"`
}

type directiveEntry struct {
	Kind   string `json:"kind"`
	Target string `json:"target,omitempty"` // "name(desc)"
	Method string `json:"method,omitempty"` // mixin source method "name(desc)"
	Field  string `json:"field,omitempty"`

	Point       string      `json:"point,omitempty"`
	At          string      `json:"at,omitempty"`
	Index       int         `json:"index,omitempty"`
	Ordinal     int         `json:"ordinal"`
	Cancellable bool        `json:"cancellable,omitempty"`
	MatchValue  interface{} `json:"matchValue,omitempty"`
	HasMatch    bool        `json:"hasMatch,omitempty"`
	Getter      bool        `json:"getter,omitempty"`
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading manifest")
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}
	return &m, nil
}

// buildDirective converts one manifest entry into its concrete
// directive.Directive, defaulting Ordinal to -1 ("all"/"the only one")
// when the manifest didn't set it, since JSON's zero value for an
// unspecified int is indistinguishable from an explicit 0.
func buildDirective(e directiveEntry) (directive.Directive, error) {
	ordinal := e.Ordinal
	target := parseKey(e.Target)

	switch directive.Kind(e.Kind) {
	case directive.KindInject:
		return &directive.Inject{
			Target: target, Point: directive.InjectPoint(e.Point), Method: e.Method,
			At: e.At, Ordinal: defaultOrdinal(ordinal), Cancellable: e.Cancellable,
		}, nil
	case directive.KindOverwrite:
		return &directive.Overwrite{Target: target, Method: e.Method}, nil
	case directive.KindModifyArg:
		return &directive.ModifyArg{Target: target, At: e.At, Index: e.Index, Method: e.Method}, nil
	case directive.KindModifyReturn:
		return &directive.ModifyReturnValue{Target: target, Method: e.Method}, nil
	case directive.KindModifyConstant:
		return &directive.ModifyConstant{
			Target: target, Method: e.Method, MatchValue: e.MatchValue, HasMatch: e.HasMatch, Ordinal: defaultOrdinal(ordinal),
		}, nil
	case directive.KindRedirect:
		return &directive.Redirect{Target: target, At: e.At, Ordinal: defaultOrdinal(ordinal), Method: e.Method}, nil
	case directive.KindAccessor:
		return &directive.Accessor{Field: e.Field, Getter: e.Getter, Method: e.Method}, nil
	case directive.KindInvoker:
		return &directive.Invoker{Target: target, Method: e.Method}, nil
	case directive.KindShadow:
		name, desc := parseMember(e.Method)
		return &directive.Shadow{Member: name, Desc: desc}, nil
	case directive.KindCopy:
		return &directive.Copy{Method: e.Method}, nil
	case directive.KindRemoveMethod:
		return &directive.RemoveMethod{Target: target}, nil
	case directive.KindRemoveSynchronized:
		return &directive.RemoveSynchronized{Target: target}, nil
	case directive.KindReplaceAllMethods:
		return &directive.ReplaceAllMethods{Target: target, Method: e.Method}, nil
	case directive.KindMutable:
		return &directive.Mutable{Field: e.Field}, nil
	case directive.KindFinal:
		return &directive.Final{Field: e.Field}, nil
	default:
		return nil, errors.Errorf("unknown directive kind %q", e.Kind)
	}
}

// buildDirectives converts every entry in a mixin manifest entry, stopping
// at the first one that fails to parse.
func buildDirectives(entries []directiveEntry) ([]directive.Directive, error) {
	out := make([]directive.Directive, 0, len(entries))
	for _, e := range entries {
		d, err := buildDirective(e)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func defaultOrdinal(o int) int {
	if o == 0 {
		return -1
	}
	return o
}

// parseKey splits a manifest "name(desc)" target into a MethodKey, leaving
// Desc empty (matching any overload) when no '(' is present.
func parseKey(ref string) directive.MethodKey {
	name, desc := parseMember(ref)
	return directive.MethodKey{Name: name, Desc: desc}
}

func parseMember(ref string) (name, desc string) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == '(' {
			return ref[:i], ref[i:]
		}
	}
	return ref, ""
}
