/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package mixin is component F: the TargetClassContext that applies every
// mixin the registry found for one target class, in the fixed three-pass
// order spec §4.6 requires so that directive interactions (a @Shadow
// rebind feeding a later @Inject, a @ReplaceAllMethods reshaping what a
// later @Redirect sees) always resolve the same way regardless of the
// order directives were declared in.
package mixin

import (
	"github.com/relay-cn/mixforge/internal/classtree"
	"github.com/relay-cn/mixforge/internal/diag"
	"github.com/relay-cn/mixforge/internal/directive"
	"github.com/relay-cn/mixforge/internal/inject"
	"github.com/relay-cn/mixforge/internal/inline"
	"github.com/relay-cn/mixforge/internal/registry"
	"github.com/relay-cn/mixforge/internal/trace"
)

// Context drives every mixin registered against a single target class
// through the engine's three passes: shape first (replace-all-methods,
// copies and shadows), then the body-rewriting directives, then the
// callback injectors, HEAD always last.
type Context struct {
	Target *classtree.ClassTree
	Sink   *diag.Sink
}

// NewContext creates a driver for target, reporting into sink.
func NewContext(target *classtree.ClassTree, sink *diag.Sink) *Context {
	return &Context{Target: target, Sink: sink}
}

// applicable pairs a directive with the mixin class tree that supplied it,
// since every injector call needs both.
type applicable struct {
	mixin *classtree.ClassTree
	d     directive.Directive
}

// Apply runs every directive carried by mixins against c.Target, in order.
func (c *Context) Apply(mixins []*registry.Mixin) error {
	var all []applicable
	for _, m := range mixins {
		for _, d := range m.Directives {
			all = append(all, applicable{mixin: m.Class, d: d})
		}
	}
	if len(all) == 0 {
		return nil
	}
	trace.Trace("applying " + itoa(len(all)) + " directives to " + c.Target.Name)

	// Pass 1: reshape. @ReplaceAllMethods first so every later pass sees
	// the replaced bodies, not the originals.
	for _, a := range all {
		if ra, ok := a.d.(*directive.ReplaceAllMethods); ok {
			if err := inject.ReplaceAllMethodsInjector(c.Target, a.mixin, ra, nil, c.Sink); err != nil {
				return err
			}
			if !c.Target.IsInterface() {
				c.Target.ClearAbstract()
			}
		}
	}

	// Pass 2: member rebinding. @Copy materializes its member onto the
	// target and records where it landed; @Shadow just records the
	// existing target member it mirrors. Both become Rebindings so every
	// later-spliced handler resolves mixin-self-references correctly.
	rebindings := map[string][]inline.Rebinding{} // keyed by mixin internal name
	for _, a := range all {
		switch d := a.d.(type) {
		case *directive.Copy:
			newName, err := inject.CopyInjector(c.Target, a.mixin, d, rebindings[a.mixin.Name], c.Sink)
			if err != nil {
				return err
			}
			if newName == "" {
				continue
			}
			name, desc := splitRef(d.Method)
			rebindings[a.mixin.Name] = append(rebindings[a.mixin.Name], inline.Rebinding{
				Owner: a.mixin.Name, Name: name, Desc: desc, NewOwner: c.Target.Name, NewName: newName,
			})
		case *directive.Shadow:
			name, desc := splitRef(d.Member)
			rebindings[a.mixin.Name] = append(rebindings[a.mixin.Name], inline.Rebinding{
				Owner: a.mixin.Name, Name: name, Desc: desc, NewOwner: c.Target.Name, NewName: name,
			})
		}
	}

	// Pass 3: body-rewriting directives that don't splice a callback in —
	// these run before the inject family so @Redirect/@ModifyArg/etc. see
	// the shape @ReplaceAllMethods and @Copy already settled.
	for _, a := range all {
		rb := rebindings[a.mixin.Name]
		var err error
		switch d := a.d.(type) {
		case *directive.Overwrite:
			err = inject.OverwriteInjector(c.Target, a.mixin, d, rb, c.Sink)
		case *directive.ModifyArg:
			err = inject.ModifyArgInjector(c.Target, a.mixin, d, rb, c.Sink)
		case *directive.ModifyReturnValue:
			err = inject.ModifyReturnValueInjector(c.Target, a.mixin, d, rb, c.Sink)
		case *directive.ModifyConstant:
			err = inject.ModifyConstantInjector(c.Target, a.mixin, d, rb, c.Sink)
		case *directive.Redirect:
			err = inject.RedirectInjector(c.Target, a.mixin, d, rb, c.Sink)
		case *directive.Accessor:
			err = inject.AccessorGenerator(c.Target, d, c.Sink)
		case *directive.Invoker:
			err = inject.InvokerGenerator(c.Target, d, c.Sink)
		case *directive.RemoveMethod:
			err = inject.RemoveMethodDirective(c.Target, d, c.Sink)
		case *directive.RemoveSynchronized:
			err = inject.RemoveSynchronizedDirective(c.Target, d, c.Sink)
		case *directive.Mutable:
			err = inject.MutableDirective(c.Target, d, c.Sink)
		case *directive.Final:
			err = inject.FinalDirective(c.Target, d, c.Sink)
		}
		if err != nil {
			return err
		}
	}

	// Pass 4: callback injectors. INVOKE/RETURN/TAIL before HEAD, so that
	// HEAD's prologue — inserted at the very first instruction — is the
	// last thing to move anything at method offset zero.
	late := []string{string(directive.PointInvoke), string(directive.PointReturn), string(directive.PointTail)}
	for _, point := range late {
		for _, a := range all {
			in, ok := a.d.(*directive.Inject)
			if !ok || string(in.Point) != point {
				continue
			}
			if err := runInject(c, a.mixin, in, rebindings[a.mixin.Name]); err != nil {
				return err
			}
		}
	}
	for _, a := range all {
		in, ok := a.d.(*directive.Inject)
		if !ok || in.Point != directive.PointHead {
			continue
		}
		if err := runInject(c, a.mixin, in, rebindings[a.mixin.Name]); err != nil {
			return err
		}
	}
	return nil
}

func runInject(c *Context, mixinClass *classtree.ClassTree, d *directive.Inject, rb []inline.Rebinding) error {
	switch d.Point {
	case directive.PointHead:
		return inject.HeadInjector(c.Target, mixinClass, d, rb, c.Sink)
	case directive.PointTail:
		return inject.TailInjector(c.Target, mixinClass, d, rb, c.Sink)
	case directive.PointReturn:
		return inject.ReturnInjector(c.Target, mixinClass, d, rb, c.Sink)
	case directive.PointInvoke:
		return inject.InvokeInjector(c.Target, mixinClass, d, rb, c.Sink)
	default:
		c.Sink.Report(diag.DirectiveShapeInvalid, c.Target.Name, d.Target.String(), "inject: unknown point "+string(d.Point), nil)
		return nil
	}
}

// splitRef splits a "name(desc)" or "name:desc" member reference the way
// @Copy/@Shadow directives name their member.
func splitRef(ref string) (name, desc string) {
	for i := 0; i < len(ref); i++ {
		switch ref[i] {
		case '(':
			return ref[:i], ref[i:]
		case ':':
			return ref[:i], ref[i+1:]
		}
	}
	return ref, ""
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
