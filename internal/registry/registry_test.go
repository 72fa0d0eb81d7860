/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package registry

import (
	"strings"
	"testing"

	"github.com/relay-cn/mixforge/internal/classtree"
)

func TestRegisterAndLookupExact(t *testing.T) {
	r := New()
	m := &Mixin{Name: "mixins/FooMixin", Class: &classtree.ClassTree{Name: "mixins/FooMixin"}, Targets: []string{"com/example/Foo"}}
	if err := r.Register(m); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got := r.Lookup("com/example/Foo")
	if len(got) != 1 || got[0] != m {
		t.Fatalf("Lookup: got %v, want [%v]", got, m)
	}
	if got := r.Lookup("com/example/Bar"); got != nil {
		t.Errorf("Lookup of unregistered target: got %v, want nil", got)
	}
}

func TestRegisterRejectsTargetless(t *testing.T) {
	r := New()
	m := &Mixin{Name: "mixins/FooMixin"}
	if err := r.Register(m); err == nil {
		t.Error("expected an error registering a mixin with no targets and no path matcher")
	}
}

func TestLookupPredicateBeforeExact(t *testing.T) {
	r := New()
	exact := &Mixin{Name: "mixins/ExactMixin", Targets: []string{"com/example/Foo"}}
	predicated := &Mixin{Name: "mixins/PathMixin"}
	if err := r.Register(exact); err != nil {
		t.Fatalf("Register(exact): %v", err)
	}
	if err := r.RegisterWithPathMatcher(predicated, func(name string) bool {
		return strings.HasPrefix(name, "com/example/")
	}); err != nil {
		t.Fatalf("RegisterWithPathMatcher: %v", err)
	}
	got := r.Lookup("com/example/Foo")
	if len(got) != 2 || got[0] != predicated || got[1] != exact {
		t.Fatalf("Lookup: got %v, want predicate match first then exact match", got)
	}
}

func TestLookupDedupesMixinMatchedBothWays(t *testing.T) {
	r := New()
	m := &Mixin{Name: "mixins/Both", Targets: []string{"com/example/Foo"}}
	if err := r.Register(m); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.RegisterWithPathMatcher(m, func(string) bool { return true }); err != nil {
		t.Fatalf("RegisterWithPathMatcher: %v", err)
	}
	got := r.Lookup("com/example/Foo")
	if len(got) != 1 {
		t.Fatalf("Lookup: got %d entries, want exactly 1 (deduped)", len(got))
	}
}

func TestStats(t *testing.T) {
	r := New()
	_ = r.Register(&Mixin{Name: "a", Targets: []string{"T1"}})
	_ = r.Register(&Mixin{Name: "b", Targets: []string{"T1", "T2"}})
	_ = r.RegisterWithPathMatcher(&Mixin{Name: "c"}, func(string) bool { return false })

	s := r.Stats()
	if s.ExactMixins != 2 {
		t.Errorf("ExactMixins: got %d, want 2", s.ExactMixins)
	}
	if s.PredicateMixins != 1 {
		t.Errorf("PredicateMixins: got %d, want 1", s.PredicateMixins)
	}
	if s.TargetClassCount != 2 {
		t.Errorf("TargetClassCount: got %d, want 2", s.TargetClassCount)
	}
}

func TestClear(t *testing.T) {
	r := New()
	_ = r.Register(&Mixin{Name: "a", Targets: []string{"T1"}})
	r.Clear()
	if got := r.Lookup("T1"); got != nil {
		t.Errorf("Lookup after Clear: got %v, want nil", got)
	}
}
