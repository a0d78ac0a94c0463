package fault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Declaration cycles cannot be produced by well-formed package-level
// declarations, so the cycle check is exercised white-box by wiring
// forward links directly.
func TestRegistryRejectsForwardCycle(t *testing.T) {
	a := &Definition{name: "CycleA", site: "cycle_a.go:1"}
	c := &Definition{name: "CycleB", site: "cycle_b.go:1"}
	a.forward = c
	c.forward = a

	b := NewRegistryBuilder()
	b.Register("GET /cycle", a)

	reg, err := b.Build()
	require.Error(t, err)
	assert.Nil(t, reg)
	assert.Equal(t, StateRejected, b.State())

	var decl *DeclarationError
	require.ErrorAs(t, err, &decl)
	assert.Contains(t, decl.Reason, "cycle")
}

func TestSetServicePrefix(t *testing.T) {
	old := ServicePrefix()
	defer SetServicePrefix(old)

	SetServicePrefix("billing")
	d := Define("PrefixProbe", User())
	assert.Equal(t, "billing:PrefixProbe", d.Identifier())

	// Empty prefixes are ignored rather than producing ":Name" ids.
	SetServicePrefix("")
	assert.Equal(t, "billing:PrefixProbe", d.Identifier())
}
