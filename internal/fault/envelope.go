package fault

// Envelope is the terminal wire value returned to callers. It is
// produced exactly once per failed request and immutable once built.
// Incident is present iff Status >= 500.
type Envelope struct {
	ErrorType string         `json:"error_type"`
	Status    int            `json:"status"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context"`
	Incident  string         `json:"incident,omitempty"`
}

// Builder converts resolved, classified errors into envelopes. One
// builder lives at the request boundary; intermediate call sites never
// convert to the wire format.
type Builder struct {
	reporter   IncidentReporter
	newID      func() string
	genericMsg string
	debug      bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithReporter wires the out-of-band incident reporter for Internal
// failures.
func WithReporter(r IncidentReporter) BuilderOption {
	return func(b *Builder) { b.reporter = r }
}

// WithIncidentIDFunc overrides incident id generation, mainly for
// tests.
func WithIncidentIDFunc(fn func() string) BuilderOption {
	return func(b *Builder) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// WithGenericMessage overrides the substitute message for Internal
// envelopes.
func WithGenericMessage(msg string) BuilderOption {
	return func(b *Builder) {
		if msg != "" {
			b.genericMsg = msg
		}
	}
}

// WithDebug surfaces the real message and context of Internal errors
// instead of the generic substitution. Honored only here, at the
// boundary, and intended for local development only.
func WithDebug(debug bool) BuilderOption {
	return func(b *Builder) { b.debug = debug }
}

// NewBuilder creates an envelope builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		newID:      NewIncidentID,
		genericMsg: "an internal error occurred",
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build consumes err and produces its envelope: resolve forwarding,
// classify the terminal variant, extract context, and for Internal
// failures generate an incident id and report the full chain
// out-of-band. The original typed value is discarded after this point.
func (b *Builder) Build(err error) Envelope {
	terminal, rerr := Resolve(err)
	if rerr != nil {
		terminal = adopt(rerr)
	}
	cls := Classify(terminal)

	env := Envelope{
		ErrorType: cls.Identifier,
		Status:    cls.Status,
		Message:   terminal.Message(),
		Context:   terminal.Context(),
	}

	if cls.Status < 500 {
		return env
	}

	env.Incident = b.newID()
	if b.reporter != nil {
		// Report the outermost chain, not just the terminal: opaque
		// causes belong in the incident log.
		b.reporter.Report(env.Incident, cls, err)
	}
	if b.debug {
		return env
	}
	env.Message = b.genericMsg
	if !terminal.def.explicitContext() {
		env.Context = map[string]any{}
	}
	return env
}
