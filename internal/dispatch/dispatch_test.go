/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package dispatch

import "testing"

func TestRegisterAndInvoke(t *testing.T) {
	tab := NewTable()
	tab.Register("com/example/Foo.bar(I)I", Entry{
		ParamSlots: 1,
		Fn: func(args []interface{}) (interface{}, error) {
			return args[0].(int32) + 1, nil
		},
	})
	result, err := tab.Invoke("com/example/Foo.bar(I)I", []interface{}{int32(41)})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result != int32(42) {
		t.Errorf("got %v, want 42", result)
	}
}

func TestInvokeUnregisteredErrors(t *testing.T) {
	tab := NewTable()
	if _, err := tab.Invoke("com/example/Foo.missing()V", nil); err == nil {
		t.Error("expected an error invoking an unregistered key")
	}
}

func TestInvokeIgnoreNeverPanicsOnMissing(t *testing.T) {
	tab := NewTable()
	tab.InvokeIgnore("com/example/Foo.missing()V", nil) // must not panic
}

func TestCallbackInfoLifecycle(t *testing.T) {
	tab := NewTable()
	ci := &CallbackInfo{Cancellable: true}
	RegisterCallbackInfo(tab, ci)

	cancelled, err := tab.Invoke("org/mixforge/runtime/CallbackInfo.isCancelled()Z", nil)
	if err != nil || cancelled != false {
		t.Fatalf("expected fresh CallbackInfo to report not cancelled, got (%v, %v)", cancelled, err)
	}

	if _, err := tab.Invoke("org/mixforge/runtime/CallbackInfo.setReturnValue(Ljava/lang/Object;)V", []interface{}{"replacement"}); err != nil {
		t.Fatalf("setReturnValue: %v", err)
	}

	cancelled, err = tab.Invoke("org/mixforge/runtime/CallbackInfo.isCancelled()Z", nil)
	if err != nil || cancelled != true {
		t.Fatalf("expected cancelled after setReturnValue, got (%v, %v)", cancelled, err)
	}
	value, err := tab.Invoke("org/mixforge/runtime/CallbackInfo.getReturnValue()Ljava/lang/Object;", nil)
	if err != nil || value != "replacement" {
		t.Fatalf("got (%v, %v), want (replacement, nil)", value, err)
	}
}

func TestCallbackInfoCancelRejectsWhenNotCancellable(t *testing.T) {
	tab := NewTable()
	ci := &CallbackInfo{Cancellable: false}
	RegisterCallbackInfo(tab, ci)
	if _, err := tab.Invoke("org/mixforge/runtime/CallbackInfo.cancel()V", nil); err == nil {
		t.Error("expected an error cancelling a non-cancellable callback")
	}
}
