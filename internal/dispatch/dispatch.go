/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package dispatch is component H: the runtime-side counterpart to the
// bytecode internal/inject emits. A transformed class calls into a handful
// of support members that don't exist in the bytes mixforge ever produces
// itself — CallbackInfo.isCancelled/getReturnValue, and whatever a host
// embedding mixforge wires up as a native fallback for an @Invoker or
// @Accessor trampoline it would rather not actually execute bytecode for.
// dispatch is the table such a host registers those against and the two
// calling conventions (invoke, invokeIgnore) it calls them through, grounded
// on the teacher's gfunction.MethodSignatures/GMeth native-method table.
package dispatch

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/relay-cn/mixforge/internal/trace"
)

// Func is a dispatch target: given the call's arguments in source order
// (receiver first for an instance call), it returns the call's result, or
// an error if the arguments don't satisfy it.
type Func func(args []interface{}) (interface{}, error)

// Entry is one registered dispatch target: the function plus how many
// operand-stack slots (category-2 values counting twice) the caller is
// expected to have pushed, for a host that wants to validate a call site
// against the table before emitting it.
type Entry struct {
	ParamSlots int
	Fn         Func
}

// Table is a (owner.name(desc) -> Entry) map, safe for concurrent
// registration and lookup — multiple Transform calls may run concurrently
// against a single shared table (spec §5).
type Table struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewTable creates an empty dispatch table.
func NewTable() *Table {
	return &Table{entries: map[string]Entry{}}
}

// Register adds or replaces the entry for "owner.name(desc)", in the same
// string form bcutil.MemberRef.String-equivalent callers already build
// their directive targets from.
func (t *Table) Register(key string, e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key] = e
	trace.Trace("dispatch: registered " + key)
}

// Lookup returns the entry for key, if any.
func (t *Table) Lookup(key string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key]
	return e, ok
}

// Invoke calls key's registered function and returns its result, erroring
// if nothing is registered for it — the path an @Accessor/@Invoker caller
// that needs the value takes.
func (t *Table) Invoke(key string, args []interface{}) (interface{}, error) {
	e, ok := t.Lookup(key)
	if !ok {
		return nil, errors.Errorf("dispatch: no runtime replacement registered for %s", key)
	}
	return e.Fn(args)
}

// InvokeIgnore calls key's registered function the same way but discards
// both the return value and a not-found error, logging it instead — the
// path a void @Inject callback handler's CallbackInfo bookkeeping call
// takes, where a missing registration shouldn't abort the caller's own
// method.
func (t *Table) InvokeIgnore(key string, args []interface{}) {
	e, ok := t.Lookup(key)
	if !ok {
		trace.Warn("dispatch: no runtime replacement registered for " + key)
		return
	}
	if _, err := e.Fn(args); err != nil {
		trace.Warn("dispatch: " + key + ": " + err.Error())
	}
}

// CallbackInfo is the Go-side mirror of org/mixforge/runtime/CallbackInfo,
// the cancellable-flag-plus-return-value carrier every HEAD/TAIL/RETURN/
// INVOKE handler constructs (internal/inject.CallbackInfoClass). A host
// that wants to run transformed classes under its own interpreter rather
// than a full JVM registers Go closures over one of these against the
// table instead of loading a real class.
type CallbackInfo struct {
	Cancellable bool
	cancelled   bool
	returnValue interface{}
}

// RegisterCallbackInfo installs the CallbackInfoClass method table into t,
// backed by ci.
func RegisterCallbackInfo(t *Table, ci *CallbackInfo) {
	t.Register("org/mixforge/runtime/CallbackInfo.isCancelled()Z", Entry{Fn: func([]interface{}) (interface{}, error) {
		return ci.cancelled, nil
	}})
	t.Register("org/mixforge/runtime/CallbackInfo.getReturnValue()Ljava/lang/Object;", Entry{Fn: func([]interface{}) (interface{}, error) {
		return ci.returnValue, nil
	}})
	t.Register("org/mixforge/runtime/CallbackInfo.cancel()V", Entry{Fn: func([]interface{}) (interface{}, error) {
		if !ci.Cancellable {
			return nil, errors.New("callback is not cancellable")
		}
		ci.cancelled = true
		return nil, nil
	}})
	t.Register("org/mixforge/runtime/CallbackInfo.setReturnValue(Ljava/lang/Object;)V", Entry{Fn: func(args []interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, errors.New("setReturnValue expects exactly one argument")
		}
		ci.returnValue = args[0]
		ci.cancelled = true
		return nil, nil
	}})
}
