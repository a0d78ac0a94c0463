// Package faults holds every error declaration of the service and the
// one registry assembly pass that ties declarations to entry points.
// Declarations are centralized here; per-module ad hoc registration at
// arbitrary times is not allowed.
package faults

import "faultline/internal/fault"

// Declaring types group related variants under one identifier prefix.
var (
	Storage  = fault.NewType("StorageError")
	Upstream = fault.NewType("UpstreamError")
)

var (
	// ErrResourceNotFound is the shared not-found case. Endpoint-specific
	// wrappers forward here instead of declaring their own variant.
	ErrResourceNotFound = fault.Define("ResourceNotFound",
		fault.User(),
		fault.Status(404),
		fault.Message("{kind} {id} not found"),
		fault.FieldNames("kind", "id"),
		fault.AllFields(),
	)

	// ErrGetItemFailed and ErrRemoveItemFailed exist so their call sites
	// read naturally; both resolve to ErrResourceNotFound.
	ErrGetItemFailed    = fault.Define("GetItemFailed", fault.ForwardTo(ErrResourceNotFound))
	ErrRemoveItemFailed = fault.Define("RemoveItemFailed", fault.ForwardTo(ErrResourceNotFound))

	// ErrInvalidItem rejects malformed item payloads. Only the offending
	// field and reason are exposed.
	ErrInvalidItem = fault.Define("InvalidItem",
		fault.User(),
		fault.Status(422),
		fault.Message("invalid item: {reason}"),
		fault.SelectFields(
			fault.Expose("field", "field"),
			fault.Expose("reason", "reason"),
		),
	)

	// ErrDuplicateSKU signals a unique-constraint conflict on item SKUs.
	ErrDuplicateSKU = fault.Define("DuplicateSKU",
		fault.User(),
		fault.Status(409),
		fault.Message("item with sku {sku} already exists"),
		fault.FieldNames("sku"),
		fault.AllFields(),
	)

	// ErrQueryFailed wraps storage driver errors opaquely. The driver
	// error is diagnostic cause only; it never reaches the caller.
	ErrQueryFailed = Storage.Define("QueryFailed",
		fault.Internal(),
		fault.Message("storage query failed"),
	)

	// ErrUpstreamCall wraps failures of external collaborators. The raw
	// response is attached as an opaque field and logged in full, but the
	// envelope stays generic.
	ErrUpstreamCall = Upstream.Define("CallFailed",
		fault.Internal(),
		fault.Message("call to {endpoint} failed"),
		fault.FieldNames("endpoint"),
	)

	// ErrQuoteUnavailable is Internal but whitelists the sku so callers
	// can tell which item had no price.
	ErrQuoteUnavailable = fault.Define("QuoteUnavailable",
		fault.Internal(),
		fault.Status(502),
		fault.Message("no price quote for {sku}"),
		fault.SelectFields(fault.Expose("sku", "sku")),
	)
)

// RegisterAll declares which errors each entry point can surface.
// Both app startup and the errcheck tool replay this exact assembly.
func RegisterAll(b *fault.RegistryBuilder) {
	b.Register("GET /items/:id",
		ErrGetItemFailed, ErrQueryFailed)
	b.Register("POST /items",
		ErrInvalidItem, ErrDuplicateSKU, ErrQueryFailed)
	b.Register("DELETE /items/:id",
		ErrRemoveItemFailed, ErrQueryFailed)
	b.Register("GET /items/:id/quote",
		ErrGetItemFailed, ErrQueryFailed, ErrUpstreamCall, ErrQuoteUnavailable)
}

// BuildRegistry runs the full collect/validate/publish pass. A non-nil
// error means the declaration set is inconsistent; the service must not
// start.
func BuildRegistry() (*fault.Registry, error) {
	b := fault.NewRegistryBuilder()
	RegisterAll(b)
	return b.Build()
}
