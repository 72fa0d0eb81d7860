/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package directive

import "testing"

func TestMethodKeyMatchesExact(t *testing.T) {
	k := MethodKey{Name: "doStuff", Desc: "(I)V"}
	if !k.Matches("doStuff", "(I)V") {
		t.Error("expected exact match to succeed")
	}
	if k.Matches("doStuff", "(J)V") {
		t.Error("different descriptor should not match")
	}
	if k.Matches("other", "(I)V") {
		t.Error("different name should not match")
	}
}

func TestMethodKeyMatchesAnyOverload(t *testing.T) {
	k := MethodKey{Name: "doStuff"}
	if !k.Matches("doStuff", "(I)V") || !k.Matches("doStuff", "()V") {
		t.Error("empty descriptor should match every overload of the name")
	}
	if k.Matches("other", "()V") {
		t.Error("name must still match")
	}
}

func TestMethodKeyString(t *testing.T) {
	if got := (MethodKey{Name: "m"}).String(); got != "m" {
		t.Errorf("name-only key: got %q, want %q", got, "m")
	}
	if got := (MethodKey{Name: "m", Desc: "()V"}).String(); got != "m()V" {
		t.Errorf("full key: got %q, want %q", got, "m()V")
	}
}

// Every directive family must implement Directive with a non-empty Kind
// and a non-empty String, the minimum a diagnostic needs to describe it.
func TestDirectiveKinds(t *testing.T) {
	directives := []Directive{
		&Inject{Target: MethodKey{Name: "m"}, Point: PointHead, Method: "h()V"},
		&Overwrite{Target: MethodKey{Name: "m"}, Method: "h()V"},
		&ModifyArg{Target: MethodKey{Name: "m"}},
		&ModifyReturnValue{Target: MethodKey{Name: "m"}},
		&ModifyConstant{Target: MethodKey{Name: "m"}},
		&Redirect{Target: MethodKey{Name: "m"}},
		&Accessor{Field: "f"},
		&Invoker{Target: MethodKey{Name: "m"}},
		&Shadow{Member: "f"},
		&Copy{Method: "f"},
		&RemoveMethod{Target: MethodKey{Name: "m"}},
		&RemoveSynchronized{Target: MethodKey{Name: "m"}},
		&ReplaceAllMethods{Target: MethodKey{Name: "m"}},
		&Mutable{Field: "f"},
		&Final{Field: "f"},
	}
	seen := map[Kind]bool{}
	for _, d := range directives {
		if d.Kind() == "" {
			t.Errorf("%T: Kind() is empty", d)
		}
		if d.String() == "" {
			t.Errorf("%T: String() is empty", d)
		}
		seen[d.Kind()] = true
	}
	if len(seen) != len(directives) {
		t.Errorf("expected %d distinct kinds, got %d", len(directives), len(seen))
	}
}
