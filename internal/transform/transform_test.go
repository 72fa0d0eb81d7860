/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package transform

import (
	"testing"

	"github.com/relay-cn/mixforge/internal/registry"
)

func TestTransformRejectsMalformedClassfile(t *testing.T) {
	reg := registry.New()
	if _, err := Transform("garbage", []byte("not a classfile"), reg); err == nil {
		t.Error("expected an error decoding a malformed classfile")
	}
}

func TestTransformRejectsTruncatedInput(t *testing.T) {
	reg := registry.New()
	if _, err := Transform("empty", nil, reg); err == nil {
		t.Error("expected an error decoding empty input")
	}
}
