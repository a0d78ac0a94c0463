package fault

import (
	"fmt"
	"io"
	"strings"
)

// Error is a typed failure value carrying its declaration, the fields
// attached at the call site, and an optional cause. Ownership moves
// upward along the call chain; a value is never shared between requests
// and is consumed exactly once, by the envelope builder at the boundary.
type Error struct {
	def    *Definition
	fields []Field
	cause  error
}

var (
	_ error         = (*Error)(nil)
	_ fmt.Formatter = (*Error)(nil)
)

// New creates a new error value from this definition with the given
// fields.
func (d *Definition) New(fields ...Field) error {
	return &Error{def: d, fields: fields}
}

// Newf creates a new error value from positional fields, a shorthand
// for New(Pos(values...)...).
func (d *Definition) Newf(values ...any) error {
	return &Error{def: d, fields: Pos(values...)}
}

// Wrap composes a new error value that opaquely owns cause: the cause
// is retained purely as a diagnostic and never contributes
// classification or context. Returns nil if cause is nil.
func (d *Definition) Wrap(cause error, fields ...Field) error {
	if cause == nil {
		return nil
	}
	return &Error{def: d, fields: fields, cause: cause}
}

// Forward composes a transparent pass-through of inner. The definition
// must have been declared with ForwardTo; resolution then recurses into
// inner and this wrapper contributes nothing observable to the final
// envelope. Returns nil if inner is nil.
func (d *Definition) Forward(inner error) error {
	if inner == nil {
		return nil
	}
	return &Error{def: d, cause: inner}
}

// Definition returns the declaration this value was created from.
func (e *Error) Definition() *Definition { return e.def }

// Fields returns a copy of the fields attached at the call site.
func (e *Error) Fields() []Field {
	out := make([]Field, len(e.fields))
	copy(out, e.fields)
	return out
}

// Field returns the value of the named field, if attached.
func (e *Error) Field(key string) (any, bool) {
	return fieldValue(e.fields, key)
}

// Message renders the variant's message template against the value's
// own fields. It never includes the cause.
func (e *Error) Message() string {
	if e.def.template == "" {
		return e.def.Error()
	}
	return renderTemplate(e.def.template, e.fields)
}

// Error renders "message: cause" chains for plain logging.
func (e *Error) Error() string {
	msg := e.Message()
	if e.cause == nil {
		return msg
	}
	if e.def.IsForward() {
		return e.cause.Error()
	}
	return msg + ": " + e.cause.Error()
}

// Unwrap exposes the cause for errors.Is / errors.As traversal.
func (e *Error) Unwrap() error { return e.cause }

// Is matches the value against a *Definition target, so call sites can
// pattern-match without serializing:
//
//	errors.Is(err, faults.ErrItemNotFound)
func (e *Error) Is(target error) bool {
	d, ok := target.(*Definition)
	return ok && e.def == d
}

// Format implements fmt.Formatter. %+v prints the full diagnostic
// representation: identifier, fields (including opaque ones) and the
// complete cause chain. This rendering is what the incident sink logs;
// it must never be written into an envelope.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			writeDiagnostic(s, e, 0)
			return
		}
		_, _ = io.WriteString(s, e.Error())
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

func writeDiagnostic(w io.Writer, err error, depth int) {
	indent := strings.Repeat("\t", depth)
	e, ok := err.(*Error)
	if !ok {
		_, _ = fmt.Fprintf(w, "%s%v", indent, err)
		return
	}
	_, _ = fmt.Fprintf(w, "%s%s: %s", indent, e.def.Identifier(), e.Message())
	for _, f := range e.fields {
		_, _ = fmt.Fprintf(w, "\n%s\t%s=%v", indent, f.Key, f.Value)
	}
	if e.cause != nil {
		_, _ = fmt.Fprintf(w, "\n%scaused by:\n", indent)
		writeDiagnostic(w, e.cause, depth+1)
	}
}
