package executor

import (
	"context"
)

// Runtime defines the host integration surface used by the Executor: field
// resolution, depth-wise batching of remote work and leaf serialization.
//
// General contract
//   - The Executor runs breadth-first. At each depth it drains all synchronous
//     fields first via ResolveSync, then calls BatchResolveAsync ONCE with all
//     async tasks collected at that depth. The next depth does not begin until
//     BatchResolveAsync returns and those results are completed.
//   - ResolveSync is never invoked for fields marked async, and
//     BatchResolveAsync is only invoked when there is at least one async task.
//   - Errors returned from any method become located GraphQL errors. Errors
//     that implement Extensions() map[string]any contribute their extensions.
//   - Implementations must be concurrency-safe; the Executor may be used by
//     many requests at once.
//   - Implementations must not mutate source or args values.
//
// Object/field identifiers
//   - objectType is the GraphQL type name (e.g. "User").
//   - field is the GraphQL field name on that type (e.g. "company").
//   - For root fields, objectType is the root type name and source is the
//     initial value passed to ExecuteRequest (usually nil).
//   - args holds already-coerced argument values. Required arguments are
//     guaranteed present; resolvers are not invoked otherwise.
type Runtime interface {
	// ResolveSync resolves a field that needs no remote I/O, typically a
	// projection of an attribute already present on source.
	// Return (nil, nil) to produce a GraphQL null for nullable fields.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves one execution depth of async field tasks.
	//
	// Requirements:
	// - Return len(results) == len(tasks).
	// - results[i] corresponds to tasks[i].
	// - Return independent errors per element without failing the whole batch.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// SerializeLeafValue coerces a scalar or enum value into a JSON-safe Go
	// value (string, int, float64, bool). Enums serialize to their name.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

type AsyncResolveTask struct {
	// ObjectType is the parent GraphQL object type name for the field.
	ObjectType string
	// Field is the GraphQL field name to resolve.
	Field string
	// Source is the parent object value (nil for root fields).
	Source any
	// Args are the field arguments, coerced to Go values per the schema.
	Args map[string]any
}

type AsyncResolveResult struct {
	// Value is the resolved raw value prior to completion, or nil on error.
	Value any
	// Error contains a failure specific to this element; other elements in the
	// same batch are unaffected.
	Error error
}
