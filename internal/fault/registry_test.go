package fault_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultline/internal/fault"
)

func TestRegistryPublish(t *testing.T) {
	notFound := fault.Define("RegNotFound", fault.User(), fault.Status(404),
		fault.FieldNames("id"), fault.AllFields())
	invalid := fault.Define("RegInvalid", fault.User(),
		fault.SelectFields(fault.Expose("field", "field")))
	queryFailed := fault.NewType("RegStorage").Define("QueryFailed", fault.Internal())

	b := fault.NewRegistryBuilder()
	assert.Equal(t, fault.StateCollecting, b.State())

	b.Register("GET /items/:id", notFound, queryFailed)
	b.Register("POST /items", invalid, queryFailed)

	reg, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, fault.StatePublished, b.State())

	assert.Equal(t, []string{"GET /items/:id", "POST /items"}, reg.EntryPoints())
	assert.Equal(t, []string{"svc:RegNotFound", "svc:RegStorage::QueryFailed"},
		reg.Identifiers("GET /items/:id"))
	assert.Equal(t, []string{"svc:RegInvalid", "svc:RegStorage::QueryFailed"},
		reg.Identifiers("POST /items"))

	schema, ok := reg.Schema("svc:RegNotFound")
	require.True(t, ok)
	assert.Equal(t, "all(id)", schema.Shape)
	assert.Equal(t, 404, schema.Status)
	assert.Equal(t, "User", schema.Kind)
	assert.Contains(t, schema.Site, "registry_test.go")

	assert.Len(t, reg.Schemas(), 3)
	assert.Len(t, reg.Table(), 2)
}

// Scenario: two call sites forward to one shared variant. Both entry
// points surface identical identifiers and the registry records exactly
// one declaration site for the shared identifier.
func TestRegistrySharedForwardTarget(t *testing.T) {
	shared := fault.Define("RegResourceNotFound", fault.User(), fault.Status(404),
		fault.FieldNames("id"), fault.AllFields())
	getHop := fault.Define("RegGetFailed", fault.ForwardTo(shared))
	removeHop := fault.Define("RegRemoveFailed", fault.ForwardTo(shared))

	b := fault.NewRegistryBuilder()
	b.Register("GET /docs/:id", getHop)
	b.Register("DELETE /docs/:id", removeHop)

	reg, err := b.Build()
	require.NoError(t, err)

	getIdents := reg.Identifiers("GET /docs/:id")
	assert.Equal(t, []string{"svc:RegResourceNotFound"}, getIdents)
	assert.Equal(t, getIdents, reg.Identifiers("DELETE /docs/:id"))

	schema, ok := reg.Schema("svc:RegResourceNotFound")
	require.True(t, ok)
	assert.Equal(t, shared.Site(), schema.Site)
	assert.Len(t, reg.Schemas(), 1)
}

func TestRegistryConflictReportsBothSites(t *testing.T) {
	a := fault.Define("Conflicting", fault.User(),
		fault.Identifier("svc:RegConflict"),
		fault.FieldNames("id"), fault.AllFields())
	b2 := fault.Define("Conflicting", fault.User(),
		fault.Identifier("svc:RegConflict"),
		fault.SelectFields(fault.Expose("id", "id")))

	b := fault.NewRegistryBuilder()
	b.Register("GET /a", a)
	b.Register("GET /b", b2)

	reg, err := b.Build()
	require.Error(t, err)
	assert.Nil(t, reg, "no partial registry is ever published")
	assert.Equal(t, fault.StateRejected, b.State())

	var conflict *fault.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "svc:RegConflict", conflict.Identifier)
	assert.Equal(t, "all(id)", conflict.ShapeA)
	assert.Equal(t, "select(id)", conflict.ShapeB)
	assert.Contains(t, conflict.SiteA, "registry_test.go")
	assert.Contains(t, conflict.SiteB, "registry_test.go")
	assert.NotEqual(t, conflict.SiteA, conflict.SiteB)
}

func TestRegistryIntentionalSharing(t *testing.T) {
	// Same identifier, byte-identical shape: deliberate reuse, accepted.
	a := fault.Define("SharedShape", fault.User(),
		fault.Identifier("svc:RegShared"),
		fault.FieldNames("id"), fault.AllFields())
	b2 := fault.Define("SharedShape", fault.User(),
		fault.Identifier("svc:RegShared"),
		fault.FieldNames("id"), fault.AllFields())

	b := fault.NewRegistryBuilder()
	b.Register("GET /a", a)
	b.Register("GET /b", b2)

	reg, err := b.Build()
	require.NoError(t, err)
	assert.Len(t, reg.Schemas(), 1)
}

func TestRegistryRejectsMissingKind(t *testing.T) {
	kindless := fault.Define("RegKindless")

	b := fault.NewRegistryBuilder()
	b.Register("GET /broken", kindless)

	_, err := b.Build()
	require.Error(t, err)
	assert.Equal(t, fault.StateRejected, b.State())

	var decl *fault.DeclarationError
	require.ErrorAs(t, err, &decl)
	assert.Contains(t, decl.Reason, "no declared kind")
}

func TestRegistryRejectsImpureForward(t *testing.T) {
	target := fault.Define("RegPurityTarget", fault.User())
	impure := fault.Define("RegImpureHop",
		fault.ForwardTo(target),
		fault.Internal(),
		fault.Status(502),
	)

	b := fault.NewRegistryBuilder()
	b.Register("GET /impure", impure)

	_, err := b.Build()
	require.Error(t, err)

	var decl *fault.DeclarationError
	require.ErrorAs(t, err, &decl)
	assert.Contains(t, decl.Reason, "kind")
	assert.Contains(t, decl.Reason, "status")
}

func TestRegistryStateStrings(t *testing.T) {
	assert.Equal(t, "Collecting", fault.StateCollecting.String())
	assert.Equal(t, "Validating", fault.StateValidating.String())
	assert.Equal(t, "Published", fault.StatePublished.String())
	assert.Equal(t, "Rejected", fault.StateRejected.String())
}
