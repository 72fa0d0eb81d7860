/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package registry is component C: the mixin registry a transform call
// consults to find which mixins apply to a given target class. Discovering
// mixins (scanning a classpath for annotated classes) is out of scope —
// callers build *Mixin values themselves and Register them; this package
// only owns the exact-name map plus the predicate-matched list, and the
// lock serializing concurrent registration against concurrent lookup.
package registry

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/relay-cn/mixforge/internal/classtree"
	"github.com/relay-cn/mixforge/internal/directive"
	"github.com/relay-cn/mixforge/internal/trace"
)

// Mixin is one mixin class: its decoded class tree, the directives its
// methods/fields carry, and which target class(es) it applies to.
type Mixin struct {
	Name       string
	Class      *classtree.ClassTree
	Directives []directive.Directive

	// Targets lists target class internal names this mixin applies to
	// exactly. Used when the mixin names its target directly (the common
	// case — spec §3's MixinClass.target).
	Targets []string

	// PathMatcher, if set, applies this mixin to every target class whose
	// internal name it accepts, instead of (or in addition to) Targets.
	PathMatcher func(targetClassName string) bool
}

type predicateEntry struct {
	matcher func(string) bool
	mixin   *Mixin
}

// Registry holds every registered mixin, keyed for fast exact-name lookup
// plus a predicate list for path-matched mixins.
type Registry struct {
	mu         sync.RWMutex
	exact      map[string][]*Mixin
	predicated []predicateEntry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{exact: map[string][]*Mixin{}}
}

// Register adds m under each of its exact Targets. It is an error to
// register a mixin with neither Targets nor a PathMatcher — it would never
// match anything.
func (r *Registry) Register(m *Mixin) error {
	if len(m.Targets) == 0 && m.PathMatcher == nil {
		return errors.Errorf("mixin %s declares no target and no path matcher", m.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range m.Targets {
		r.exact[t] = append(r.exact[t], m)
	}
	if m.PathMatcher != nil {
		r.predicated = append(r.predicated, predicateEntry{matcher: m.PathMatcher, mixin: m})
	}
	trace.Info("registered mixin " + m.Name)
	return nil
}

// RegisterWithPathMatcher registers m purely as a predicate-matched mixin,
// ignoring any Targets it may also carry — used when a caller wants to
// override a mixin's declared targets with a different matching rule (e.g.
// applying a test mixin to every class under a package prefix).
func (r *Registry) RegisterWithPathMatcher(m *Mixin, matcher func(string) bool) error {
	if matcher == nil {
		return errors.Errorf("mixin %s: nil path matcher", m.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.predicated = append(r.predicated, predicateEntry{matcher: matcher, mixin: m})
	trace.Info("registered path-matched mixin " + m.Name)
	return nil
}

// Clear removes every registered mixin.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact = map[string][]*Mixin{}
	r.predicated = nil
}

// Lookup returns every mixin that applies to targetClassName: predicate
// matches first (in registration order), then exact-name matches, with any
// mixin already yielded by a predicate match skipped the second time.
func (r *Registry) Lookup(targetClassName string) []*Mixin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Mixin
	seen := map[*Mixin]bool{}
	for _, pe := range r.predicated {
		if pe.matcher(targetClassName) && !seen[pe.mixin] {
			out = append(out, pe.mixin)
			seen[pe.mixin] = true
		}
	}
	for _, m := range r.exact[targetClassName] {
		if !seen[m] {
			out = append(out, m)
			seen[m] = true
		}
	}
	return out
}

// Stats summarizes the registry's contents for diagnostics and the CLI's
// `list` subcommand.
type Stats struct {
	ExactMixins      int
	PredicateMixins  int
	TargetClassCount int
}

// Stats returns a snapshot of the registry's size.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exactCount := 0
	seen := map[*Mixin]bool{}
	for _, ms := range r.exact {
		for _, m := range ms {
			if !seen[m] {
				seen[m] = true
				exactCount++
			}
		}
	}
	return Stats{
		ExactMixins:      exactCount,
		PredicateMixins:  len(r.predicated),
		TargetClassCount: len(r.exact),
	}
}
