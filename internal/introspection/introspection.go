// Package introspection adds the __schema and __type query fields and the
// introspection object types to a graph.
package introspection

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/hanpama/usergraph/internal/graph"
	schema "github.com/hanpama/usergraph/internal/schema"
)

// Wrap returns cfg with introspection fields appended to the query root. The
// original declarations are not modified.
func Wrap(cfg graph.Config) graph.Config {
	q := cfg.Query
	if q == nil {
		return cfg
	}
	wrapped := &graph.Object{
		Name:        q.Name,
		Description: q.Description,
		Fields: func() []*graph.Field {
			var fields []*graph.Field
			if q.Fields != nil {
				fields = append(fields, q.Fields()...)
			}
			return append(fields, rootFields()...)
		},
	}
	out := cfg
	out.Query = wrapped
	out.Types = append(append([]graph.Named(nil), cfg.Types...), typeKindEnum, directiveLocationEnum)
	return out
}

var errNoSchema = errors.New("introspection: no graph in context")

func rootFields() []*graph.Field {
	return []*graph.Field{
		{
			Name:        "__schema",
			Description: "Access the current type schema of this server.",
			Type:        graph.NonNull(graph.Ref(schemaObject)),
			Resolve: func(ctx context.Context, _ any, _ map[string]any) (any, error) {
				g, ok := graph.FromContext(ctx)
				if !ok {
					return nil, errNoSchema
				}
				return g.Schema(), nil
			},
		},
		{
			Name:        "__type",
			Description: "Request the type information of a single type.",
			Type:        graph.Ref(typeObject),
			Args:        []*graph.Arg{{Name: "name", Type: graph.NonNull(graph.String)}},
			Resolve: func(ctx context.Context, _ any, args map[string]any) (any, error) {
				g, ok := graph.FromContext(ctx)
				if !ok {
					return nil, errNoSchema
				}
				name, _ := args["name"].(string)
				if g.Schema().Types[name] == nil {
					return nil, nil
				}
				return &typeNode{s: g.Schema(), ref: schema.NamedType(name)}, nil
			},
		},
	}
}

// typeNode is a __Type: a named type or a LIST/NON_NULL wrapper.
type typeNode struct {
	s   *schema.Schema
	ref *schema.TypeRef
}

func (n *typeNode) def() *schema.Type {
	if n.ref.Kind != schema.TypeRefKindNamed {
		return nil
	}
	return n.s.Types[n.ref.Named]
}

type fieldNode struct {
	s *schema.Schema
	f *schema.Field
}

type inputNode struct {
	s  *schema.Schema
	iv *schema.InputValue
}

type directiveNode struct {
	s *schema.Schema
	d *schema.Directive
}

func namedNode(s *schema.Schema, t *schema.Type) *typeNode {
	if t == nil {
		return nil
	}
	return &typeNode{s: s, ref: schema.NamedType(t.Name)}
}

func schemaTypes(s *schema.Schema) []*typeNode {
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*typeNode, len(names))
	for i, name := range names {
		out[i] = &typeNode{s: s, ref: schema.NamedType(name)}
	}
	return out
}

func schemaDirectives(s *schema.Schema) []*directiveNode {
	out := make([]*directiveNode, 0, len(s.Directives))
	for _, d := range s.Directives {
		out = append(out, &directiveNode{s: s, d: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].d.Name < out[j].d.Name })
	return out
}

func typeKind(n *typeNode) any {
	switch n.ref.Kind {
	case schema.TypeRefKindList:
		return "LIST"
	case schema.TypeRefKindNonNull:
		return "NON_NULL"
	}
	if d := n.def(); d != nil {
		return string(d.Kind)
	}
	return nil
}

func listFields(n *typeNode, args map[string]any) any {
	d := n.def()
	if d == nil || d.Kind != schema.TypeKindObject {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated")
	out := []*fieldNode{}
	for _, f := range d.Fields {
		if strings.HasPrefix(f.Name, "__") || (f.IsDeprecated && !includeDeprecated) {
			continue
		}
		out = append(out, &fieldNode{s: n.s, f: f})
	}
	return out
}

func typeEnumValues(n *typeNode, args map[string]any) any {
	d := n.def()
	if d == nil || d.Kind != schema.TypeKindEnum {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated")
	out := []*schema.EnumValue{}
	for _, ev := range d.EnumValues {
		if ev.IsDeprecated && !includeDeprecated {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func inputValues(s *schema.Schema, ivs []*schema.InputValue) []*inputNode {
	out := make([]*inputNode, len(ivs))
	for i, iv := range ivs {
		out[i] = &inputNode{s: s, iv: iv}
	}
	return out
}

func deprecationReason(deprecated bool, reason string) any {
	if !deprecated {
		return nil
	}
	return reason
}

func boolArg(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}

func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
