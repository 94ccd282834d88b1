package introspection

import (
	"github.com/hanpama/usergraph/internal/graph"
	schema "github.com/hanpama/usergraph/internal/schema"
)

var typeKindEnum = &graph.Enum{
	Name:        "__TypeKind",
	Description: "An enum describing what kind of type a given `__Type` is.",
	Values: enumValues(
		"SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL",
	),
}

var directiveLocationEnum = &graph.Enum{
	Name:        "__DirectiveLocation",
	Description: "A Directive can be adjacent to many parts of the GraphQL language.",
	Values: enumValues(
		"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION", "FRAGMENT_SPREAD",
		"INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA", "SCALAR", "OBJECT", "FIELD_DEFINITION",
		"ARGUMENT_DEFINITION", "INTERFACE", "UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT",
		"INPUT_FIELD_DEFINITION",
	),
}

func enumValues(names ...string) []*graph.EnumValue {
	out := make([]*graph.EnumValue, len(names))
	for i, n := range names {
		out[i] = &graph.EnumValue{Name: n}
	}
	return out
}

// The introspection objects refer to each other and to themselves, so their
// accessors are attached in init.
var (
	schemaObject     = &graph.Object{Name: "__Schema", Description: "A GraphQL Schema defines the capabilities of a GraphQL server."}
	typeObject       = &graph.Object{Name: "__Type"}
	fieldObject      = &graph.Object{Name: "__Field"}
	inputValueObject = &graph.Object{Name: "__InputValue"}
	enumValueObject  = &graph.Object{Name: "__EnumValue"}
	directiveObject  = &graph.Object{Name: "__Directive"}
)

func init() {
	schemaObject.Fields = schemaFields
	typeObject.Fields = typeFields
	fieldObject.Fields = fieldFields
	inputValueObject.Fields = inputValueFields
	enumValueObject.Fields = enumValueFields
	directiveObject.Fields = directiveFields
}

var includeDeprecatedArg = &graph.Arg{Name: "includeDeprecated", Type: graph.Boolean, Default: false}

func schemaFields() []*graph.Field {
	return []*graph.Field{
		{Name: "description", Type: graph.String, Project: graph.Attr(func(s *schema.Schema) any { return nonEmpty(s.Description) })},
		{Name: "types", Type: graph.NonNull(graph.ListOf(graph.NonNull(graph.Ref(typeObject)))), Project: graph.Attr(func(s *schema.Schema) any { return schemaTypes(s) })},
		{Name: "queryType", Type: graph.NonNull(graph.Ref(typeObject)), Project: graph.Attr(func(s *schema.Schema) any { return namedNode(s, s.GetQueryType()) })},
		{Name: "mutationType", Type: graph.Ref(typeObject), Project: graph.Attr(func(s *schema.Schema) any { return namedNode(s, s.GetMutationType()) })},
		{Name: "subscriptionType", Type: graph.Ref(typeObject), Project: graph.Attr(func(s *schema.Schema) any { return nil })},
		{Name: "directives", Type: graph.NonNull(graph.ListOf(graph.NonNull(graph.Ref(directiveObject)))), Project: graph.Attr(func(s *schema.Schema) any { return schemaDirectives(s) })},
	}
}

func typeFields() []*graph.Field {
	return []*graph.Field{
		{Name: "kind", Type: graph.NonNull(graph.Ref(typeKindEnum)), Project: graph.Attr(typeKind)},
		{Name: "name", Type: graph.String, Project: graph.Attr(func(n *typeNode) any {
			if d := n.def(); d != nil {
				return d.Name
			}
			return nil
		})},
		{Name: "description", Type: graph.String, Project: graph.Attr(func(n *typeNode) any {
			if d := n.def(); d != nil {
				return nonEmpty(d.Description)
			}
			return nil
		})},
		{Name: "specifiedByURL", Type: graph.String, Project: graph.Attr(func(*typeNode) any { return nil })},
		{
			Name: "fields", Type: graph.ListOf(graph.NonNull(graph.Ref(fieldObject))),
			Args: []*graph.Arg{includeDeprecatedArg},
			Project: func(src any, args map[string]any) (any, error) {
				return listFields(src.(*typeNode), args), nil
			},
		},
		{Name: "interfaces", Type: graph.ListOf(graph.NonNull(graph.Ref(typeObject))), Project: graph.Attr(func(n *typeNode) any {
			if d := n.def(); d != nil && d.Kind == schema.TypeKindObject {
				return []*typeNode{}
			}
			return nil
		})},
		{Name: "possibleTypes", Type: graph.ListOf(graph.NonNull(graph.Ref(typeObject))), Project: graph.Attr(func(*typeNode) any { return nil })},
		{
			Name: "enumValues", Type: graph.ListOf(graph.NonNull(graph.Ref(enumValueObject))),
			Args: []*graph.Arg{includeDeprecatedArg},
			Project: func(src any, args map[string]any) (any, error) {
				return typeEnumValues(src.(*typeNode), args), nil
			},
		},
		{Name: "inputFields", Type: graph.ListOf(graph.NonNull(graph.Ref(inputValueObject))), Project: graph.Attr(func(*typeNode) any { return nil })},
		{Name: "ofType", Type: graph.Ref(typeObject), Project: graph.Attr(func(n *typeNode) any {
			if n.ref.Kind == schema.TypeRefKindNamed {
				return nil
			}
			return &typeNode{s: n.s, ref: n.ref.OfType}
		})},
	}
}

func fieldFields() []*graph.Field {
	return []*graph.Field{
		{Name: "name", Type: graph.NonNull(graph.String), Project: graph.Attr(func(n *fieldNode) any { return n.f.Name })},
		{Name: "description", Type: graph.String, Project: graph.Attr(func(n *fieldNode) any { return nonEmpty(n.f.Description) })},
		{
			Name: "args", Type: graph.NonNull(graph.ListOf(graph.NonNull(graph.Ref(inputValueObject)))),
			Args:    []*graph.Arg{includeDeprecatedArg},
			Project: graph.Attr(func(n *fieldNode) any { return inputValues(n.s, n.f.Arguments) }),
		},
		{Name: "type", Type: graph.NonNull(graph.Ref(typeObject)), Project: graph.Attr(func(n *fieldNode) any { return &typeNode{s: n.s, ref: n.f.Type} })},
		{Name: "isDeprecated", Type: graph.NonNull(graph.Boolean), Project: graph.Attr(func(n *fieldNode) any { return n.f.IsDeprecated })},
		{Name: "deprecationReason", Type: graph.String, Project: graph.Attr(func(n *fieldNode) any {
			return deprecationReason(n.f.IsDeprecated, n.f.DeprecationReason)
		})},
	}
}

func inputValueFields() []*graph.Field {
	return []*graph.Field{
		{Name: "name", Type: graph.NonNull(graph.String), Project: graph.Attr(func(n *inputNode) any { return n.iv.Name })},
		{Name: "description", Type: graph.String, Project: graph.Attr(func(n *inputNode) any { return nonEmpty(n.iv.Description) })},
		{Name: "type", Type: graph.NonNull(graph.Ref(typeObject)), Project: graph.Attr(func(n *inputNode) any { return &typeNode{s: n.s, ref: n.iv.Type} })},
		{Name: "defaultValue", Type: graph.String, Project: graph.Attr(func(n *inputNode) any {
			if n.iv.DefaultValue == nil {
				return nil
			}
			return schema.ValueString(n.iv.DefaultValue)
		})},
		{Name: "isDeprecated", Type: graph.NonNull(graph.Boolean), Project: graph.Attr(func(*inputNode) any { return false })},
		{Name: "deprecationReason", Type: graph.String, Project: graph.Attr(func(*inputNode) any { return nil })},
	}
}

func enumValueFields() []*graph.Field {
	return []*graph.Field{
		{Name: "name", Type: graph.NonNull(graph.String)},
		{Name: "description", Type: graph.String, Project: graph.Attr(func(ev *schema.EnumValue) any { return nonEmpty(ev.Description) })},
		{Name: "isDeprecated", Type: graph.NonNull(graph.Boolean)},
		{Name: "deprecationReason", Type: graph.String, Project: graph.Attr(func(ev *schema.EnumValue) any {
			return deprecationReason(ev.IsDeprecated, ev.DeprecationReason)
		})},
	}
}

func directiveFields() []*graph.Field {
	return []*graph.Field{
		{Name: "name", Type: graph.NonNull(graph.String), Project: graph.Attr(func(n *directiveNode) any { return n.d.Name })},
		{Name: "description", Type: graph.String, Project: graph.Attr(func(n *directiveNode) any { return nonEmpty(n.d.Description) })},
		{Name: "isRepeatable", Type: graph.NonNull(graph.Boolean), Project: graph.Attr(func(n *directiveNode) any { return n.d.IsRepeatable })},
		{Name: "locations", Type: graph.NonNull(graph.ListOf(graph.NonNull(graph.Ref(directiveLocationEnum)))), Project: graph.Attr(func(n *directiveNode) any { return n.d.Locations })},
		{
			Name: "args", Type: graph.NonNull(graph.ListOf(graph.NonNull(graph.Ref(inputValueObject)))),
			Args:    []*graph.Arg{includeDeprecatedArg},
			Project: graph.Attr(func(n *directiveNode) any { return inputValues(n.s, n.d.Arguments) }),
		},
	}
}
