// Package fault is a structured error classification and serialization
// framework for layered service backends.
//
// Every internal failure is a typed value created from a declared
// Definition. Values propagate up the call chain by ordinary error
// returns, optionally composed (opaque wrap) or forwarded (transparent
// delegation) across module boundaries. Exactly one canonical wire
// envelope is produced per failed request, at the request boundary,
// by a Builder.
//
// The package also ships a build-time Registry that catalogs every
// declared error reachable from each entry point and rejects
// conflicting identifier declarations before the service starts.
//
// Typical declaration:
//
//	var Storage = fault.NewType("StorageError")
//
//	var (
//	    ErrItemNotFound = fault.Define("ItemNotFound",
//	        fault.User(),
//	        fault.Status(404),
//	        fault.Message("item {id} not found"),
//	        fault.FieldNames("id"),
//	        fault.AllFields(),
//	    )
//	    ErrQueryFailed = Storage.Define("QueryFailed",
//	        fault.Internal(),
//	        fault.Message("storage query failed"),
//	    )
//	)
//
// Typical use at a failure site:
//
//	if errors.Is(err, sql.ErrNoRows) {
//	    return faults.ErrItemNotFound.New(fault.F("id", id))
//	}
//	return faults.ErrQueryFailed.Wrap(err)
package fault
