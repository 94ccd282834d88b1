// Package executor implements a breadth-first GraphQL executor that drives an
// injected Runtime.
//
// # Execution model
//
// Fields are classified by schema.Field.Async:
//   - synchronous fields are projections of the parent value; they are
//     resolved immediately through Runtime.ResolveSync and never add depth;
//   - asynchronous fields need a resolver with remote I/O; they are queued and
//     resolved together through one Runtime.BatchResolveAsync call per depth.
//
// After a batch returns, each result is completed (lists, objects, leaves,
// Non-Null checks) and written at its response path. Object completion
// collects the child selection set; async children are queued for the next
// batch. For a graph with asynchronous depth d, BatchResolveAsync is invoked
// exactly d times for a query.
//
// Mutation operations run their root fields serially: each root field and its
// whole subtree complete before the next root field starts.
//
// # Response shape
//
// Objects are built as *ResultMap values which keep the client's selection
// order (aliases included) independently of the order in which resolvers
// finished.
//
// # Errors and partial success
//
// Errors are accumulated as located GraphQL errors (message, path and
// optional extensions). A failing nullable field becomes null while its
// siblings keep resolving. A Non-Null violation below the root nullifies the
// enclosing root field and drops any queued task below it.
//
// Arguments are coerced before a resolver runs. A missing required argument
// or an argument that cannot be coerced produces a located error and the
// resolver is not invoked.
package executor
