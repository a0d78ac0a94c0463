package fault

import (
	"fmt"
	"runtime"
)

// Kind categorizes a declared error variant.
type Kind int

const (
	// KindUnspecified marks a definition whose kind was never declared.
	// Terminal definitions with an unspecified kind are rejected by the
	// registry consistency check.
	KindUnspecified Kind = iota
	// KindUser marks caller-safe errors (4xx). Message and declared
	// context are always part of the envelope.
	KindUser
	// KindInternal marks caller-unsafe errors (5xx). The envelope carries
	// a generic message and an incident id; full detail goes to the
	// incident log only.
	KindInternal
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindUser:
		return "User"
	case KindInternal:
		return "Internal"
	default:
		return "Unspecified"
	}
}

// DefaultStatus returns the status code used when no explicit override
// is declared: 400 for User, 500 for Internal.
func (k Kind) DefaultStatus() int {
	if k == KindUser {
		return 400
	}
	return 500
}

// servicePrefix is the fixed service tag prepended to every default
// identifier. It is set once at startup, before any envelope is built
// or registry published, and never changed afterward.
var servicePrefix = "svc"

// SetServicePrefix overrides the service tag used in default
// identifiers. Call it once during startup, before building the
// registry or serving traffic.
func SetServicePrefix(prefix string) {
	if prefix != "" {
		servicePrefix = prefix
	}
}

// ServicePrefix returns the current service tag.
func ServicePrefix() string {
	return servicePrefix
}

// Definition declares a single error variant: its message template,
// kind, status, identifier, field schema and context rule. Definitions
// are created once, as package-level variables, and are immutable after
// declaration.
type Definition struct {
	typeName string // declaring type, empty for standalone variants
	name     string
	site     string // file:line of the Define call

	kind     Kind
	status   int    // explicit override, 0 means defaulted from kind
	ident    string // explicit override, empty means defaulted
	template string

	fieldNames []string // declared serializable field schema

	ctx     contextRule
	forward *Definition // transparent forwarding target, nil for terminal variants
}

// Type groups variants under one declaring type name. Variants defined
// through a Type get identifiers of the form <svc>:<Type>::<Variant>.
type Type struct {
	name string
}

// NewType creates a declaring type for grouped error variants.
func NewType(name string) *Type {
	return &Type{name: name}
}

// Name returns the declaring type name.
func (t *Type) Name() string { return t.name }

// Define declares a variant inside this declaring type.
func (t *Type) Define(name string, opts ...Option) *Definition {
	return define(t.name, name, opts)
}

// Define declares a standalone error variant. Its default identifier is
// <svc>:<Name>, with no variant segment.
func Define(name string, opts ...Option) *Definition {
	return define("", name, opts)
}

func define(typeName, name string, opts []Option) *Definition {
	d := &Definition{
		typeName: typeName,
		name:     name,
		site:     callSite(3),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// Name returns the variant name.
func (d *Definition) Name() string { return d.name }

// TypeName returns the declaring type name, or empty for standalone
// variants.
func (d *Definition) TypeName() string { return d.typeName }

// Kind returns the declared kind. Forward variants report the kind of
// nothing; their terminal target decides.
func (d *Definition) Kind() Kind { return d.kind }

// Site returns the declaration site (file:line) captured at Define time.
func (d *Definition) Site() string { return d.site }

// IsForward reports whether this variant transparently forwards to
// another definition.
func (d *Definition) IsForward() bool { return d.forward != nil }

// ForwardTarget returns the declared forwarding target, or nil.
func (d *Definition) ForwardTarget() *Definition { return d.forward }

// Identifier returns the full error identifier: the explicit override
// when declared, otherwise <svc>:<Type>::<Variant> (or <svc>:<Name> for
// standalone variants).
func (d *Definition) Identifier() string {
	if d.ident != "" {
		return d.ident
	}
	if d.typeName == "" {
		return servicePrefix + ":" + d.name
	}
	return servicePrefix + ":" + d.typeName + "::" + d.name
}

// Error makes Definition usable as an errors.Is target, so call sites
// can match typed values against their declarations:
//
//	if errors.Is(err, faults.ErrItemNotFound) { ... }
func (d *Definition) Error() string {
	if d.typeName == "" {
		return d.name
	}
	return d.typeName + "::" + d.name
}

// Option configures a Definition at declaration time.
type Option func(*Definition)

// User declares the variant caller-safe (4xx, default 400).
func User() Option {
	return func(d *Definition) { d.kind = KindUser }
}

// Internal declares the variant caller-unsafe (5xx, default 500).
func Internal() Option {
	return func(d *Definition) { d.kind = KindInternal }
}

// Status sets an explicit status code override.
func Status(code int) Option {
	return func(d *Definition) { d.status = code }
}

// Identifier sets an explicit identifier override. Required when the
// default identifier would collide with a differently shaped variant.
func Identifier(id string) Option {
	return func(d *Definition) { d.ident = id }
}

// Message sets the message template. Placeholders of the form {name}
// (or {0}, {1}, ... for positional fields) are interpolated from the
// error value's own fields when the message is rendered.
func Message(template string) Option {
	return func(d *Definition) { d.template = template }
}

// FieldNames declares the serializable field schema of the variant.
// The registry derives the all-fields context shape from this list, so
// it must name every field an all-fields variant attaches at its call
// sites (opaque fields excluded).
func FieldNames(names ...string) Option {
	return func(d *Definition) { d.fieldNames = names }
}

// ForwardTo declares the variant as a transparent pass-through of
// target: resolution recurses into the wrapped value and this variant
// contributes no status, identifier or context of its own. It exists so
// distinct call sites can share one logical error case instead of each
// declaring their own.
func ForwardTo(target *Definition) Option {
	return func(d *Definition) { d.forward = target }
}
