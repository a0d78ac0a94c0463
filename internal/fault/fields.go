package fault

import (
	"fmt"
	"strconv"
	"strings"
)

// Field is a single named value attached to an error at its call site.
// Positional fields use stringified indexes ("0", "1", ...) as keys.
type Field struct {
	Key   string
	Value any

	opaque bool
}

// F creates a named, serializable field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Opaque creates a field that is kept for diagnostics (incident logs)
// but never serialized into an envelope context. Use it for handles,
// raw payloads and anything else that must not cross the boundary.
func Opaque(key string, value any) Field {
	return Field{Key: key, Value: value, opaque: true}
}

// Pos creates positional fields keyed "0", "1", ... in argument order.
func Pos(values ...any) []Field {
	fs := make([]Field, len(values))
	for i, v := range values {
		fs[i] = Field{Key: strconv.Itoa(i), Value: v}
	}
	return fs
}

// IsOpaque reports whether the field is excluded from serialization.
func (f Field) IsOpaque() bool { return f.opaque }

// renderTemplate interpolates {key} placeholders from fields. Unknown
// placeholders are left verbatim so a malformed template still yields a
// readable message instead of failing at the boundary.
func renderTemplate(template string, fields []Field) string {
	if !strings.Contains(template, "{") {
		return template
	}
	var b strings.Builder
	b.Grow(len(template))
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		close := strings.IndexByte(rest[open:], '}')
		if close < 0 {
			b.WriteString(rest)
			return b.String()
		}
		close += open
		key := rest[open+1 : close]
		b.WriteString(rest[:open])
		if v, ok := fieldValue(fields, key); ok {
			fmt.Fprintf(&b, "%v", v)
		} else {
			b.WriteString(rest[open : close+1])
		}
		rest = rest[close+1:]
	}
}

func fieldValue(fields []Field, key string) (any, bool) {
	// Last write wins, matching map-like semantics at call sites.
	for i := len(fields) - 1; i >= 0; i-- {
		if fields[i].Key == key {
			return fields[i].Value, true
		}
	}
	return nil, false
}
