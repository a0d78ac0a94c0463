package faults_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultline/internal/faults"
)

func TestBuildRegistry(t *testing.T) {
	reg, err := faults.BuildRegistry()
	require.NoError(t, err, "the declared error set must always publish")

	entries := reg.EntryPoints()
	assert.Equal(t, []string{
		"GET /items/:id",
		"POST /items",
		"DELETE /items/:id",
		"GET /items/:id/quote",
	}, entries)

	// Forward wrappers surface their shared target's identifier.
	assert.Contains(t, reg.Identifiers("GET /items/:id"), "svc:ResourceNotFound")
	assert.Contains(t, reg.Identifiers("DELETE /items/:id"), "svc:ResourceNotFound")

	// One declaration site for the shared case, wherever it is reachable.
	schema, ok := reg.Schema("svc:ResourceNotFound")
	require.True(t, ok)
	assert.Equal(t, faults.ErrResourceNotFound.Site(), schema.Site)
	assert.Equal(t, "all(id,kind)", schema.Shape)

	quote := reg.Identifiers("GET /items/:id/quote")
	assert.Contains(t, quote, "svc:UpstreamError::CallFailed")
	assert.Contains(t, quote, "svc:QuoteUnavailable")
	assert.Contains(t, quote, "svc:StorageError::QueryFailed")
}
