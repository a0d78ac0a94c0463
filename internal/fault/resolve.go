package fault

import (
	"errors"
	"fmt"
)

// MaxForwardDepth bounds transparent forwarding resolution. The
// declaration graph is checked for cycles at registry build time, so
// the bound only guards against hand-built value chains that bypass
// declared links.
const MaxForwardDepth = 32

// Unclassified adopts errors that reach the boundary without a
// declaration: plain errors, leaked stdlib errors, upstream failures
// nobody wrapped. They are never parsed or decomposed, always treated
// as Internal.
var Unclassified = Define("Unclassified",
	Internal(),
	Message("unexpected internal error"),
)

// Resolve walks transparent forward links until it reaches the terminal
// non-forwarding variant whose declaration decides the envelope.
// Untyped errors anywhere in the forward chain are adopted under
// Unclassified. Resolve returns an error only when the forward chain
// exceeds MaxForwardDepth.
func Resolve(err error) (*Error, error) {
	if err == nil {
		return nil, errors.New("fault: resolve of nil error")
	}
	e, ok := err.(*Error)
	if !ok {
		return adopt(err), nil
	}
	for depth := 0; e.def.IsForward(); depth++ {
		if depth >= MaxForwardDepth {
			return nil, fmt.Errorf("fault: forward depth exceeds %d resolving %s (declared at %s)",
				MaxForwardDepth, e.def.Identifier(), e.def.Site())
		}
		inner, ok := e.cause.(*Error)
		if !ok {
			return adopt(e.cause), nil
		}
		e = inner
	}
	return e, nil
}

func adopt(cause error) *Error {
	if cause == nil {
		cause = errors.New("forwarding variant wrapped no inner error")
	}
	return &Error{def: Unclassified, cause: cause}
}
