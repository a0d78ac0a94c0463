package fault_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultline/internal/fault"
)

func TestResolveTerminal(t *testing.T) {
	def := fault.Define("ResolveTerminalProbe", fault.User())
	err := def.New(fault.F("id", 1))

	e, rerr := fault.Resolve(err)
	require.NoError(t, rerr)
	assert.Same(t, def, e.Definition())
}

func TestResolveForwardChain(t *testing.T) {
	shared := fault.Define("SharedNotFound", fault.User(), fault.Status(404),
		fault.FieldNames("id"), fault.AllFields(),
		fault.Message("resource {id} not found"))
	hop1 := fault.Define("GetFailedHop", fault.ForwardTo(shared))
	hop2 := fault.Define("OuterHop", fault.ForwardTo(hop1))

	inner := shared.New(fault.F("id", "doc-1"))
	wrapped := hop2.Forward(hop1.Forward(inner))

	e, rerr := fault.Resolve(wrapped)
	require.NoError(t, rerr)
	assert.Same(t, shared, e.Definition())
	assert.Equal(t, "resource doc-1 not found", e.Message())
}

// Forwarding transparency: the envelope of a forwarded value is
// structurally identical to classifying the inner value directly.
func TestForwardingTransparency(t *testing.T) {
	shared := fault.Define("TransparencyTarget", fault.User(), fault.Status(404),
		fault.FieldNames("id"), fault.AllFields(),
		fault.Message("resource {id} not found"))
	fwd := fault.Define("TransparencyHop", fault.ForwardTo(shared))

	inner := shared.New(fault.F("id", 41))
	b := fault.NewBuilder()

	direct := b.Build(inner)
	forwarded := b.Build(fwd.Forward(inner))
	assert.Equal(t, direct, forwarded)
}

func TestResolveAdoptsUntypedErrors(t *testing.T) {
	plain := errors.New("sql: connection refused")

	e, rerr := fault.Resolve(plain)
	require.NoError(t, rerr)
	assert.Same(t, fault.Unclassified, e.Definition())
	assert.ErrorIs(t, e.Unwrap(), plain)
}

func TestResolveAdoptsUntypedForwardCause(t *testing.T) {
	target := fault.Define("AdoptTarget", fault.User())
	fwd := fault.Define("AdoptHop", fault.ForwardTo(target))

	plain := errors.New("leaked driver error")
	e, rerr := fault.Resolve(fwd.Forward(plain))
	require.NoError(t, rerr)
	assert.Same(t, fault.Unclassified, e.Definition())
}

func TestResolveDepthBound(t *testing.T) {
	target := fault.Define("DepthTarget", fault.User())
	fwd := fault.Define("DepthHop", fault.ForwardTo(target))

	err := fwd.Forward(target.New())
	for i := 0; i < fault.MaxForwardDepth+1; i++ {
		err = fwd.Forward(err)
	}

	_, rerr := fault.Resolve(err)
	require.Error(t, rerr)
	assert.Contains(t, rerr.Error(), "forward depth")
}

func TestResolveNil(t *testing.T) {
	_, rerr := fault.Resolve(nil)
	assert.Error(t, rerr)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		def        *fault.Definition
		wantStatus int
		wantIdent  string
		wantKind   fault.Kind
	}{
		{
			name:       "user default",
			def:        fault.Define("ClassifyUserProbe", fault.User()),
			wantStatus: 400,
			wantIdent:  "svc:ClassifyUserProbe",
			wantKind:   fault.KindUser,
		},
		{
			name:       "internal default",
			def:        fault.Define("ClassifyInternalProbe", fault.Internal()),
			wantStatus: 500,
			wantIdent:  "svc:ClassifyInternalProbe",
			wantKind:   fault.KindInternal,
		},
		{
			name:       "explicit status wins",
			def:        fault.Define("ClassifyStatusProbe", fault.User(), fault.Status(409)),
			wantStatus: 409,
			wantIdent:  "svc:ClassifyStatusProbe",
			wantKind:   fault.KindUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rerr := fault.Resolve(tt.def.New())
			require.NoError(t, rerr)

			cls := fault.Classify(e)
			assert.Equal(t, tt.wantStatus, cls.Status)
			assert.Equal(t, tt.wantIdent, cls.Identifier)
			assert.Equal(t, tt.wantKind, cls.Kind)
		})
	}
}
