/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package inject

import (
	"github.com/relay-cn/mixforge/internal/classtree"
	"github.com/relay-cn/mixforge/internal/diag"
	"github.com/relay-cn/mixforge/internal/directive"
	"github.com/relay-cn/mixforge/internal/inline"
)

// CopyInjector implements @Copy: a mixin member (method or field) is copied
// onto the target verbatim, renamed only if its name already collides with
// something the target declares. Returns the name the member ended up
// with, so callers building a Rebinding for later-spliced handlers know
// where the copy landed (spec §4.7 step 4).
func CopyInjector(target, mixin *classtree.ClassTree, d *directive.Copy, rebindings []inline.Rebinding, sink *diag.Sink) (string, error) {
	name, desc := splitHandlerName(d.Method)
	if desc != "" {
		return copyMethod(target, mixin, name, desc, rebindings, sink)
	}
	return copyField(target, mixin, name, sink)
}

func copyMethod(target, mixin *classtree.ClassTree, name, desc string, rebindings []inline.Rebinding, sink *diag.Sink) (string, error) {
	src := mixin.FindMethod(name, desc)
	if src == nil {
		reportMissing(sink, mixin.Name, name+desc, "copy source method not found on mixin")
		return "", nil
	}
	newName := name
	if target.FindMethod(name, desc) != nil {
		newName = freshHandlerName("copy", name+desc)
	}
	mn, err := materializeHandler(target, mixin, src, newName, rebindings)
	if err != nil {
		return "", diag.Wrap(err, "copy "+name+desc)
	}
	mn.Access = src.Access
	return mn.Name, nil
}

func copyField(target, mixin *classtree.ClassTree, name string, sink *diag.Sink) (string, error) {
	src := mixin.FindField(name)
	if src == nil {
		reportMissing(sink, mixin.Name, name, "copy source field not found on mixin")
		return "", nil
	}
	newName := name
	if target.FindField(name) != nil {
		newName = freshHandlerName("copy", name)
	}
	target.AddField(&classtree.FieldNode{Access: src.Access, Name: newName, Desc: src.Desc, ConstValue: src.ConstValue})
	return newName, nil
}
