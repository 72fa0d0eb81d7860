/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package directive is component B: the declarative directive model a
// mixin class attaches to its own methods and fields. Discovering these
// from annotations on a parsed mixin class is explicitly out of scope (the
// engine is handed an already-built MixinClass, directives included); this
// package only defines the directive shapes themselves and the method-key
// matching rule every injector uses to find its target.
package directive

// Kind identifies which of the fifteen directive families a Directive
// value belongs to.
type Kind string

const (
	KindInject             Kind = "inject"
	KindOverwrite          Kind = "overwrite"
	KindModifyArg          Kind = "modify-arg"
	KindModifyReturn       Kind = "modify-return"
	KindModifyConstant     Kind = "modify-constant"
	KindRedirect           Kind = "redirect"
	KindAccessor           Kind = "accessor"
	KindInvoker            Kind = "invoker"
	KindShadow             Kind = "shadow"
	KindCopy               Kind = "copy"
	KindRemoveMethod       Kind = "remove-method"
	KindRemoveSynchronized Kind = "remove-synchronized"
	KindReplaceAllMethods  Kind = "replace-all-methods"
	KindMutable            Kind = "mutable"
	KindFinal              Kind = "final"
)

// InjectPoint names where in a target method an Inject directive's
// callback fires.
type InjectPoint string

const (
	PointHead   InjectPoint = "HEAD"
	PointTail   InjectPoint = "TAIL"
	PointReturn InjectPoint = "RETURN"
	PointInvoke InjectPoint = "INVOKE"
)

// MethodKey identifies a target method by name and, optionally,
// descriptor. An empty Desc matches every overload of Name — directives
// that don't care which overload they touch (rare, but the spec's method
// key rule allows it) leave it blank.
type MethodKey struct {
	Name string
	Desc string
}

// Matches reports whether this key selects (name, desc).
func (k MethodKey) Matches(name, desc string) bool {
	if k.Name != name {
		return false
	}
	return k.Desc == "" || k.Desc == desc
}

func (k MethodKey) String() string {
	if k.Desc == "" {
		return k.Name
	}
	return k.Name + k.Desc
}

// Directive is the common shape every directive family satisfies: which
// kind it is, which mixin method supplies its source code (empty for
// directives that don't clone a body, like RemoveMethod), and a one-line
// description for diagnostics.
type Directive interface {
	Kind() Kind
	MixinMethod() string
	String() string
}

// Inject is @Inject: splice a mixin method's body in at HEAD, TAIL, every
// RETURN, or every call matching At, optionally with a cancellable
// CallbackInfo (spec §4.3).
type Inject struct {
	Target      MethodKey
	Point       InjectPoint
	Method      string // mixin source method "name(desc)"
	At          string // call-site member reference, only meaningful for PointInvoke
	Ordinal     int     // which matching call site/return; -1 = every return for RETURN, the single matching call site for INVOKE
	Cancellable bool
}

func (d *Inject) Kind() Kind          { return KindInject }
func (d *Inject) MixinMethod() string { return d.Method }
func (d *Inject) String() string      { return string(d.Point) + " inject into " + d.Target.String() }

// Overwrite is @Overwrite: replace a target method's body outright (spec
// §4.5).
type Overwrite struct {
	Target MethodKey
	Method string
}

func (d *Overwrite) Kind() Kind          { return KindOverwrite }
func (d *Overwrite) MixinMethod() string { return d.Method }
func (d *Overwrite) String() string      { return "overwrite " + d.Target.String() }

// ModifyArg is @ModifyArg: pass one call-site argument through a mixin
// method before the call proceeds (spec §4.4).
type ModifyArg struct {
	Target MethodKey
	At     string // call site this directive's argument belongs to
	Index  int    // zero-based argument position
	Method string
}

func (d *ModifyArg) Kind() Kind          { return KindModifyArg }
func (d *ModifyArg) MixinMethod() string { return d.Method }
func (d *ModifyArg) String() string      { return "modify-arg " + d.Target.String() }

// ModifyReturnValue is @ModifyReturnValue: pass a target method's return
// value through a mixin method before it reaches the caller (spec §4.4).
type ModifyReturnValue struct {
	Target MethodKey
	Method string
}

func (d *ModifyReturnValue) Kind() Kind          { return KindModifyReturn }
func (d *ModifyReturnValue) MixinMethod() string { return d.Method }
func (d *ModifyReturnValue) String() string      { return "modify-return " + d.Target.String() }

// ModifyConstant is @ModifyConstant: replace a specific constant-load
// instruction's value inside a target method (spec §4.4).
type ModifyConstant struct {
	Target      MethodKey
	Method      string
	MatchValue  interface{} // the constant to find, compared only when HasMatch is set; otherwise every constant load is a candidate
	HasMatch    bool
	Ordinal     int
}

func (d *ModifyConstant) Kind() Kind          { return KindModifyConstant }
func (d *ModifyConstant) MixinMethod() string { return d.Method }
func (d *ModifyConstant) String() string      { return "modify-constant " + d.Target.String() }

// Redirect is @Redirect: replace a call site (method call or field access)
// inside a target method with a call to the mixin's own method (spec
// §4.5).
type Redirect struct {
	Target  MethodKey
	At      string
	Ordinal int
	Method  string
}

func (d *Redirect) Kind() Kind          { return KindRedirect }
func (d *Redirect) MixinMethod() string { return d.Method }
func (d *Redirect) String() string      { return "redirect " + d.At + " in " + d.Target.String() }

// Accessor is @Accessor: synthesize a getter or setter for a target field
// that has no public accessor (spec §4.5).
type Accessor struct {
	Field  string
	Getter bool // false => setter
	Method string // synthesized method's own "name(desc)"
}

func (d *Accessor) Kind() Kind          { return KindAccessor }
func (d *Accessor) MixinMethod() string { return d.Method }
func (d *Accessor) String() string      { return "accessor for " + d.Field }

// Invoker is @Invoker: synthesize a public trampoline for a private or
// protected target method (spec §4.5).
type Invoker struct {
	Target MethodKey
	Method string
}

func (d *Invoker) Kind() Kind          { return KindInvoker }
func (d *Invoker) MixinMethod() string { return d.Method }
func (d *Invoker) String() string      { return "invoker for " + d.Target.String() }

// Shadow is @Shadow: a mixin field or method that mirrors a member already
// present on the target, rebound rather than copied when the mixin's own
// code is spliced in (spec §4.7 step 4).
type Shadow struct {
	Member string
	Desc   string // field descriptor, or method descriptor; "" for a field shadow with unknown type
	Final  bool
}

func (d *Shadow) Kind() Kind          { return KindShadow }
func (d *Shadow) MixinMethod() string { return "" }
func (d *Shadow) String() string      { return "shadow " + d.Member }

// Copy is @Copy: a mixin method or field copied onto the target verbatim,
// renamed only if it collides (spec §4.5).
type Copy struct {
	Method string
}

func (d *Copy) Kind() Kind          { return KindCopy }
func (d *Copy) MixinMethod() string { return d.Method }
func (d *Copy) String() string      { return "copy " + d.Method }

// RemoveMethod deletes a target method outright (spec §4.5).
type RemoveMethod struct {
	Target MethodKey
}

func (d *RemoveMethod) Kind() Kind          { return KindRemoveMethod }
func (d *RemoveMethod) MixinMethod() string { return "" }
func (d *RemoveMethod) String() string      { return "remove-method " + d.Target.String() }

// RemoveSynchronized clears a target method's ACC_SYNCHRONIZED flag (spec
// §4.5).
type RemoveSynchronized struct {
	Target MethodKey
}

func (d *RemoveSynchronized) Kind() Kind          { return KindRemoveSynchronized }
func (d *RemoveSynchronized) MixinMethod() string { return "" }
func (d *RemoveSynchronized) String() string      { return "remove-synchronized " + d.Target.String() }

// ReplaceAllMethods is @ReplaceAllMethods: replace every method on the
// target matching Target (typically a name-only key spanning overloads)
// with the mixin's implementation, run before any other directive so later
// passes see the replaced shape (spec §4.6 pass ordering).
type ReplaceAllMethods struct {
	Target MethodKey
	Method string
}

func (d *ReplaceAllMethods) Kind() Kind          { return KindReplaceAllMethods }
func (d *ReplaceAllMethods) MixinMethod() string { return d.Method }
func (d *ReplaceAllMethods) String() string      { return "replace-all-methods " + d.Target.String() }

// Mutable clears a target field's ACC_FINAL flag (spec §4.5).
type Mutable struct {
	Field string
}

func (d *Mutable) Kind() Kind          { return KindMutable }
func (d *Mutable) MixinMethod() string { return "" }
func (d *Mutable) String() string      { return "mutable " + d.Field }

// Final sets a target field's ACC_FINAL flag (spec §4.5).
type Final struct {
	Field string
}

func (d *Final) Kind() Kind          { return KindFinal }
func (d *Final) MixinMethod() string { return "" }
func (d *Final) String() string      { return "final " + d.Field }
