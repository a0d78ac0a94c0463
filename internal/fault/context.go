package fault

// contextRule decides which of an error value's fields become the
// machine-readable context of its envelope. Context is computed lazily,
// only when an envelope is built, never at construction time.
type contextRule struct {
	mode     contextMode
	selected []ExposedField
	provider ContextProvider
	// providerName keys the schema fingerprint for provider rules, since
	// a function value has no stable identity across declaration sites.
	providerName string
}

type contextMode int

const (
	contextEmpty contextMode = iota
	contextAllFields
	contextSelected
	contextProvider
)

// ContextProvider computes an arbitrary context mapping from the full
// error value. It must be pure: no I/O, no mutation of the error.
type ContextProvider func(e *Error) map[string]any

// ExposedField maps a source field to the name it is exposed under.
type ExposedField struct {
	Source  string
	Exposed string
}

// Expose pairs a source field with its exposed context key.
func Expose(source, exposed string) ExposedField {
	return ExposedField{Source: source, Exposed: exposed}
}

// NoContext declares the empty context rule. This is the default; it is
// spelled out only for readability at declaration sites.
func NoContext() Option {
	return func(d *Definition) { d.ctx = contextRule{mode: contextEmpty} }
}

// AllFields declares that every serializable field is included in the
// context, keyed by its field name or position. Opaque fields are
// skipped silently.
func AllFields() Option {
	return func(d *Definition) { d.ctx = contextRule{mode: contextAllFields} }
}

// SelectFields declares an explicit allow-list: only the listed source
// fields appear in the context, under their exposed names. Fields not
// listed are never included, even when serializable.
func SelectFields(pairs ...ExposedField) Option {
	return func(d *Definition) {
		d.ctx = contextRule{mode: contextSelected, selected: pairs}
	}
}

// ContextFunc declares a provider rule: fn computes the whole context
// mapping from the error value, overriding the field-based modes
// entirely. The name identifies the provider in the registry's schema
// fingerprint and must be stable across declaration sites sharing an
// identifier.
func ContextFunc(name string, fn ContextProvider) Option {
	return func(d *Definition) {
		d.ctx = contextRule{mode: contextProvider, provider: fn, providerName: name}
	}
}

// Context computes the serializable context map for this value
// according to its variant's declared rule. The returned map is freshly
// allocated and never nil.
func (e *Error) Context() map[string]any {
	rule := e.def.ctx
	switch rule.mode {
	case contextAllFields:
		ctx := make(map[string]any, len(e.fields))
		for _, f := range e.fields {
			if f.opaque {
				continue
			}
			ctx[f.Key] = f.Value
		}
		return ctx
	case contextSelected:
		ctx := make(map[string]any, len(rule.selected))
		for _, p := range rule.selected {
			v, ok := fieldValue(e.fields, p.Source)
			if !ok {
				continue
			}
			if f := fieldByKey(e.fields, p.Source); f != nil && f.opaque {
				continue
			}
			ctx[p.Exposed] = v
		}
		return ctx
	case contextProvider:
		if ctx := rule.provider(e); ctx != nil {
			return ctx
		}
		return map[string]any{}
	default:
		return map[string]any{}
	}
}

// explicitContext reports whether the variant's rule is an explicit
// whitelist (selected fields or provider). Only explicit context
// survives the Internal-kind suppression at the boundary.
func (d *Definition) explicitContext() bool {
	return d.ctx.mode == contextSelected || d.ctx.mode == contextProvider
}

func fieldByKey(fields []Field, key string) *Field {
	for i := len(fields) - 1; i >= 0; i-- {
		if fields[i].Key == key {
			return &fields[i]
		}
	}
	return nil
}
