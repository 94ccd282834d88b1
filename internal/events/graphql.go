package events

import "time"

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// ResolverPanic is emitted when a field resolver panics. The panic is
// reported to the client as a field error.
type ResolverPanic struct {
	ObjectType string
	Field      string
	Value      any
}
