/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package diag implements the error-handling design of spec §7: a fatal
// classfile-malformed error aborts transform(); everything else (a missing
// directive target, an invalid directive shape, a signature mismatch, a
// clone failure, or unsafe output) is recorded here and the remaining
// directives still run.
package diag

import (
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/relay-cn/mixforge/internal/trace"
)

// Kind identifies one of the seven error kinds enumerated in spec §7.
type Kind int

const (
	// ClassfileMalformed is the only fatal kind; it aborts Transform.
	ClassfileMalformed Kind = iota
	DirectiveTargetMissing
	DirectiveShapeInvalid
	SignatureMismatch
	InstructionCloneFailure
	VerifierUnsafeOutput
	RuntimeReplacementMissing
)

func (k Kind) String() string {
	switch k {
	case ClassfileMalformed:
		return "classfile-malformed"
	case DirectiveTargetMissing:
		return "directive-target-missing"
	case DirectiveShapeInvalid:
		return "directive-shape-invalid"
	case SignatureMismatch:
		return "signature-mismatch"
	case InstructionCloneFailure:
		return "instruction-clone-failure"
	case VerifierUnsafeOutput:
		return "verifier-unsafe-output"
	case RuntimeReplacementMissing:
		return "runtime-replacement-missing"
	default:
		return "unknown"
	}
}

// Fatal reports whether a diagnostic of this kind must abort the whole
// Transform call, rather than just the one directive that raised it.
func (k Kind) Fatal() bool { return k == ClassfileMalformed }

// Diagnostic is one reported problem: what kind it was, which class/member
// it concerns, and the underlying cause if any.
type Diagnostic struct {
	Kind    Kind
	Class   string
	Member  string // method or field key the directive concerned, if any
	Message string
	Cause   error
}

func (d *Diagnostic) Error() string {
	loc := d.Class
	if d.Member != "" {
		loc += "#" + d.Member
	}
	if d.Cause != nil {
		return fmt.Sprintf("[%s] %s (%s): %v", d.Kind, loc, d.Message, d.Cause)
	}
	return fmt.Sprintf("[%s] %s (%s)", d.Kind, loc, d.Message)
}

// Sink accumulates diagnostics raised during a single Transform call. It is
// not safe for concurrent use — spec §5 scopes one Transform call to one
// goroutine.
type Sink struct {
	ID    string
	Items []*Diagnostic
}

// NewSink creates a sink tagged with a fresh correlation id, so the
// diagnostics of one Transform call can be told apart from another's in the
// logs even when both touch the same class concurrently (spec §5 permits
// concurrent Transform calls on distinct class trees).
func NewSink() *Sink {
	return &Sink{ID: uuid.NewString()}
}

// Report records a diagnostic and, unless it is fatal, logs it at WARNING
// and lets the caller continue with the remaining directives. Fatal
// diagnostics are logged at SEVERE; the caller is still responsible for
// aborting.
func (s *Sink) Report(kind Kind, class, member, message string, cause error) *Diagnostic {
	d := &Diagnostic{Kind: kind, Class: class, Member: member, Message: message, Cause: cause}
	s.Items = append(s.Items, d)
	if kind.Fatal() {
		trace.Error(fmt.Sprintf("[%s] %s", s.ID, d.Error()))
	} else {
		trace.Warn(fmt.Sprintf("[%s] %s", s.ID, d.Error()))
	}
	return d
}

// Wrap attaches a Go-caller location to an error, the way the teacher's
// cfe() helper tags a class-format error with the file/line of the code
// that detected it, except generalized into a real error chain via
// github.com/pkg/errors so the fatal case can still print a stack trace.
func Wrap(err error, msg string) error {
	if err == nil {
		return errors.New(msg)
	}
	wrapped := errors.Wrap(err, msg)
	if _, file, line, ok := runtime.Caller(1); ok {
		return errors.WithMessage(wrapped, fmt.Sprintf("(%s:%d)", file, line))
	}
	return wrapped
}

// Fatal builds the one fatal diagnostic kind this package defines —
// classfile-malformed — as a plain error for callers that just need to
// abort Transform and surface a message.
func Fatal(class string, cause error) error {
	return Wrap(cause, "class format error in "+class)
}
