package fault

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// RegistryState tracks the build pass over declared errors.
type RegistryState int

const (
	StateCollecting RegistryState = iota
	StateValidating
	StatePublished
	StateRejected
)

// String returns the string representation of the state.
func (s RegistryState) String() string {
	switch s {
	case StateCollecting:
		return "Collecting"
	case StateValidating:
		return "Validating"
	case StatePublished:
		return "Published"
	case StateRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// Schema describes one published identifier for downstream
// documentation generation.
type Schema struct {
	Identifier string `json:"identifier"`
	Kind       string `json:"kind"`
	Status     int    `json:"status"`
	Shape      string `json:"context_shape"`
	Site       string `json:"declared_at"`
}

// ConflictError reports an identifier declared with two different
// context schema shapes. Both declaration sites are included so the
// build log points at the exact collision.
type ConflictError struct {
	Identifier string
	ShapeA     string
	SiteA      string
	ShapeB     string
	SiteB      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("fault: identifier %q declared with conflicting context shapes: %s (%s) vs %s (%s)",
		e.Identifier, e.ShapeA, e.SiteA, e.ShapeB, e.SiteB)
}

// DeclarationError reports an invalid single declaration: a forward
// variant carrying its own classification or context, a terminal
// variant without a kind, or a forward cycle.
type DeclarationError struct {
	Site   string
	Reason string
}

func (e *DeclarationError) Error() string {
	return fmt.Sprintf("fault: invalid declaration at %s: %s", e.Site, e.Reason)
}

// RegistryBuilder collects entry points and the error definitions
// declared reachable from them. It is used once, single-threaded,
// during startup or documentation generation.
type RegistryBuilder struct {
	state   RegistryState
	order   []string
	entries map[string][]*Definition
}

// NewRegistryBuilder creates an empty builder in the Collecting state.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{
		state:   StateCollecting,
		entries: make(map[string][]*Definition),
	}
}

// Register declares that entryPoint can produce the given error
// definitions. Registering the same entry point again appends to its
// set. Forward links are expanded during Build; only the declared roots
// need to be listed.
func (b *RegistryBuilder) Register(entryPoint string, defs ...*Definition) {
	if _, ok := b.entries[entryPoint]; !ok {
		b.order = append(b.order, entryPoint)
	}
	b.entries[entryPoint] = append(b.entries[entryPoint], defs...)
}

// State returns the builder's current state. After Build it is either
// Published or Rejected; Rejected is terminal and fatal.
func (b *RegistryBuilder) State() RegistryState { return b.state }

// Build runs Collecting -> Validating -> {Published | Rejected}. On
// success it returns the immutable Registry; on any conflict it returns
// a *ConflictError or *DeclarationError and no partial registry.
func (b *RegistryBuilder) Build() (*Registry, error) {
	// Collecting: expand every declared definition through its forward
	// links to the terminal variants each entry point can surface.
	terminalsByEntry := make(map[string][]*Definition, len(b.entries))
	var allTerminals []*Definition
	for _, entry := range b.order {
		for _, d := range b.entries[entry] {
			terminal, err := b.expand(d)
			if err != nil {
				b.state = StateRejected
				return nil, err
			}
			terminalsByEntry[entry] = append(terminalsByEntry[entry], terminal)
			allTerminals = append(allTerminals, terminal)
		}
	}

	b.state = StateValidating
	schemas := make(map[string]Schema)
	for _, d := range allTerminals {
		if d.kind == KindUnspecified {
			b.state = StateRejected
			return nil, &DeclarationError{
				Site:   d.site,
				Reason: fmt.Sprintf("terminal variant %s has no declared kind", d.Error()),
			}
		}
		cls := classifyDefinition(d)
		shape := d.contextShape()
		if existing, ok := schemas[cls.Identifier]; ok {
			if existing.Shape != shape {
				b.state = StateRejected
				return nil, &ConflictError{
					Identifier: cls.Identifier,
					ShapeA:     existing.Shape,
					SiteA:      existing.Site,
					ShapeB:     shape,
					SiteB:      d.site,
				}
			}
			// Identical shape at both sites: intentional sharing. The
			// first declaration site stays on record.
			continue
		}
		schemas[cls.Identifier] = Schema{
			Identifier: cls.Identifier,
			Kind:       cls.Kind.String(),
			Status:     cls.Status,
			Shape:      shape,
			Site:       d.site,
		}
	}

	entryPoints := make(map[string][]string, len(terminalsByEntry))
	for entry, defs := range terminalsByEntry {
		idents := make([]string, 0, len(defs))
		for _, d := range defs {
			idents = append(idents, d.Identifier())
		}
		sort.Strings(idents)
		entryPoints[entry] = slices.Compact(idents)
	}

	b.state = StatePublished
	return &Registry{
		entryOrder:  slices.Clone(b.order),
		entryPoints: entryPoints,
		schemas:     schemas,
	}, nil
}

// expand follows forward links from d to its terminal variant, checking
// that forward declarations stay pure and acyclic.
func (b *RegistryBuilder) expand(d *Definition) (*Definition, error) {
	seen := make(map[*Definition]bool)
	cur := d
	for cur.IsForward() {
		if err := checkForwardPurity(cur); err != nil {
			return nil, err
		}
		if seen[cur] {
			return nil, &DeclarationError{
				Site:   cur.site,
				Reason: fmt.Sprintf("forwarding cycle through %s", cur.Error()),
			}
		}
		seen[cur] = true
		if len(seen) > MaxForwardDepth {
			return nil, &DeclarationError{
				Site:   d.site,
				Reason: fmt.Sprintf("forward chain longer than %d", MaxForwardDepth),
			}
		}
		cur = cur.ForwardTarget()
	}
	return cur, nil
}

// checkForwardPurity rejects forward variants that declare their own
// status, identifier, kind or context, since those would never be
// observable.
func checkForwardPurity(d *Definition) error {
	var extras []string
	if d.kind != KindUnspecified {
		extras = append(extras, "kind")
	}
	if d.status != 0 {
		extras = append(extras, "status")
	}
	if d.ident != "" {
		extras = append(extras, "identifier")
	}
	if d.ctx.mode != contextEmpty {
		extras = append(extras, "context rule")
	}
	if len(extras) > 0 {
		return &DeclarationError{
			Site: d.site,
			Reason: fmt.Sprintf("forwarding variant %s declares %s of its own",
				d.Error(), strings.Join(extras, ", ")),
		}
	}
	return nil
}

// contextShape is the structural fingerprint of a variant's context
// schema. Two declarations may share an identifier only when their
// fingerprints are byte-for-byte identical.
func (d *Definition) contextShape() string {
	switch d.ctx.mode {
	case contextAllFields:
		names := slices.Clone(d.fieldNames)
		sort.Strings(names)
		return "all(" + strings.Join(names, ",") + ")"
	case contextSelected:
		exposed := make([]string, len(d.ctx.selected))
		for i, p := range d.ctx.selected {
			exposed[i] = p.Exposed
		}
		sort.Strings(exposed)
		return "select(" + strings.Join(exposed, ",") + ")"
	case contextProvider:
		return "provider(" + d.ctx.providerName + ")"
	default:
		return "empty"
	}
}

// Registry is the process-wide, read-only catalog published by a
// successful build. It needs no locks at request time.
type Registry struct {
	entryOrder  []string
	entryPoints map[string][]string
	schemas     map[string]Schema
}

// EntryPoints returns the registered entry point names in registration
// order.
func (r *Registry) EntryPoints() []string {
	return slices.Clone(r.entryOrder)
}

// Identifiers returns the sorted identifier set entryPoint can produce.
func (r *Registry) Identifiers(entryPoint string) []string {
	return slices.Clone(r.entryPoints[entryPoint])
}

// Schema returns the published schema for an identifier.
func (r *Registry) Schema(identifier string) (Schema, bool) {
	s, ok := r.schemas[identifier]
	return s, ok
}

// Schemas returns every published schema sorted by identifier.
func (r *Registry) Schemas() []Schema {
	out := make([]Schema, 0, len(r.schemas))
	for _, s := range r.schemas {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

// Table returns the entryPoint -> identifier-set mapping consumed by
// external API-schema generation.
func (r *Registry) Table() map[string][]string {
	out := make(map[string][]string, len(r.entryPoints))
	for entry, idents := range r.entryPoints {
		out[entry] = slices.Clone(idents)
	}
	return out
}
