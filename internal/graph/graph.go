// Package graph declares GraphQL object types in Go and binds their fields to
// resolvers.
//
// Object fields are supplied by a deferred accessor so that types may refer
// to each other in any order:
//
//	var User = &graph.Object{Name: "User", Fields: func() []*graph.Field {
//		return []*graph.Field{{Name: "company", Type: graph.Ref(Company), Resolve: resolveCompany}}
//	}}
//	var Company = &graph.Object{Name: "Company", Fields: func() []*graph.Field {
//		return []*graph.Field{{Name: "users", Type: graph.ListOf(graph.Ref(User)), Resolve: resolveUsers}}
//	}}
//
// Accessors run during Build, after every package-level declaration is bound.
package graph

import (
	"context"
	"fmt"
)

// Named is a declaration that can be referenced by name: *Object, *Enum or *Scalar.
type Named interface {
	graphName() string
}

// FieldsFunc returns the fields of an object. It may be called more than
// once and must return an equivalent set every time.
type FieldsFunc func() []*Field

// Resolver computes a field value that requires outside work, typically a
// data service call. Resolver-backed fields run concurrently per depth.
type Resolver func(ctx context.Context, source any, args map[string]any) (any, error)

// Projector reads a stored attribute from the parent value.
type Projector func(source any, args map[string]any) (any, error)

// Object is a GraphQL object type.
type Object struct {
	Name        string
	Description string
	Fields      FieldsFunc
}

func (o *Object) graphName() string { return o.Name }

// Field is one field of an Object. At most one of Resolve and Project may be
// set; with neither, the value is read from the parent by field name.
type Field struct {
	Name              string
	Description       string
	Type              *Type
	Args              []*Arg
	Resolve           Resolver
	Project           Projector
	DeprecationReason string
}

// Arg is a field argument.
type Arg struct {
	Name        string
	Description string
	Type        *Type
	Default     any
}

// Enum is a GraphQL enum type. Values serialize by name.
type Enum struct {
	Name        string
	Description string
	Values      []*EnumValue
}

func (e *Enum) graphName() string { return e.Name }

type EnumValue struct {
	Name              string
	Description       string
	DeprecationReason string
}

// Scalar is a leaf type with a custom serializer.
type Scalar struct {
	Name        string
	Description string
	Serialize   func(v any) (any, error)
}

func (s *Scalar) graphName() string { return s.Name }

// Type is a reference to a declared type, possibly wrapped in list or
// non-null modifiers.
type Type struct {
	named   Named
	name    string
	list    bool
	nonNull bool
	ofType  *Type
}

// Ref refers to a declaration. It reads only the declaration's pointer, so
// the referenced variable must be bound when the enclosing accessor runs.
func Ref(n Named) *Type { return &Type{named: n} }

// NamedRef refers to a type by name. Build fails if no such type is declared.
func NamedRef(name string) *Type { return &Type{name: name} }

func ListOf(t *Type) *Type  { return &Type{list: true, ofType: t} }
func NonNull(t *Type) *Type { return &Type{nonNull: true, ofType: t} }

// Name returns the innermost type name.
func (t *Type) Name() string {
	for cur := t; cur != nil; cur = cur.ofType {
		if cur.named != nil {
			return cur.named.graphName()
		}
		if cur.name != "" {
			return cur.name
		}
	}
	return ""
}

func (t *Type) String() string {
	switch {
	case t == nil:
		return "<nil>"
	case t.nonNull:
		return t.ofType.String() + "!"
	case t.list:
		return "[" + t.ofType.String() + "]"
	default:
		return t.Name()
	}
}

// Attr returns a Projector that applies fn to a parent of type T.
func Attr[T any](fn func(T) any) Projector {
	return func(source any, _ map[string]any) (any, error) {
		v, ok := source.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("expected source %T, got %T", zero, source)
		}
		return fn(v), nil
	}
}

// ResolveWith returns a Resolver that receives the parent as T.
func ResolveWith[T any](fn func(ctx context.Context, source T, args map[string]any) (any, error)) Resolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		v, ok := source.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("expected source %T, got %T", zero, source)
		}
		return fn(ctx, v, args)
	}
}
