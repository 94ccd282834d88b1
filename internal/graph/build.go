package graph

import (
	"errors"
	"fmt"

	schema "github.com/hanpama/usergraph/internal/schema"
)

// Config lists the roots and any declarations not reachable from them.
type Config struct {
	Description string
	Query       *Object
	Mutation    *Object
	Objects     []*Object
	Types       []Named
}

// Graph is a built type graph: the executable schema plus the field bindings
// the Runtime dispatches to.
type Graph struct {
	schema *schema.Schema
	fields map[string]map[string]*Field
	leaves map[string]Named
}

// Schema returns the executable schema.
func (g *Graph) Schema() *schema.Schema { return g.schema }

// Field returns the binding of objectType.field, or nil.
func (g *Graph) Field(objectType, field string) *Field { return g.fields[objectType][field] }

var ErrNoQuery = errors.New("graph: query root is required")

type builder struct {
	byName  map[string]Named
	order   []Named
	objects []*Object
	fields  map[string][]*Field
}

// Build resolves every deferred accessor and produces the Graph. Objects are
// registered before any accessor runs, so declaration order is irrelevant.
func Build(cfg Config) (*Graph, error) {
	if cfg.Query == nil {
		return nil, ErrNoQuery
	}
	b := &builder{byName: map[string]Named{}, fields: map[string][]*Field{}}
	for _, s := range builtinScalars {
		if err := b.register(s); err != nil {
			return nil, err
		}
	}
	roots := []Named{cfg.Query}
	if cfg.Mutation != nil {
		roots = append(roots, cfg.Mutation)
	}
	for _, o := range cfg.Objects {
		roots = append(roots, o)
	}
	roots = append(roots, cfg.Types...)
	for _, n := range roots {
		if err := b.register(n); err != nil {
			return nil, err
		}
	}

	// Accessors may reveal further objects; b.objects grows while iterating.
	for i := 0; i < len(b.objects); i++ {
		if err := b.expand(b.objects[i]); err != nil {
			return nil, err
		}
	}
	for _, o := range b.objects {
		for _, f := range b.fields[o.Name] {
			if err := b.checkRef(o.Name+"."+f.Name, f.Type, false); err != nil {
				return nil, err
			}
			for _, a := range f.Args {
				if err := b.checkRef(o.Name+"."+f.Name+"("+a.Name+")", a.Type, true); err != nil {
					return nil, err
				}
			}
		}
	}
	return b.graph(cfg), nil
}

func (b *builder) register(n Named) error {
	if n == nil {
		return errors.New("graph: nil declaration")
	}
	name := n.graphName()
	if name == "" {
		return fmt.Errorf("graph: %T declared without a name", n)
	}
	if prev, ok := b.byName[name]; ok {
		if prev != n {
			return fmt.Errorf("graph: type %q declared twice", name)
		}
		return nil
	}
	b.byName[name] = n
	b.order = append(b.order, n)
	if o, ok := n.(*Object); ok {
		b.objects = append(b.objects, o)
	}
	return nil
}

func (b *builder) expand(o *Object) error {
	if o.Fields == nil {
		return fmt.Errorf("graph: object %q has no fields accessor", o.Name)
	}
	fields := o.Fields()
	if len(fields) == 0 {
		return fmt.Errorf("graph: object %q has no fields", o.Name)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f == nil || f.Name == "" {
			return fmt.Errorf("graph: object %q has an unnamed field", o.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("graph: field %s.%s declared twice", o.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Type == nil {
			return fmt.Errorf("graph: field %s.%s has no type", o.Name, f.Name)
		}
		if f.Resolve != nil && f.Project != nil {
			return fmt.Errorf("graph: field %s.%s has both a resolver and a projection", o.Name, f.Name)
		}
		if err := b.discover(f.Type); err != nil {
			return err
		}
		argSeen := map[string]bool{}
		for _, a := range f.Args {
			if a == nil || a.Name == "" || a.Type == nil {
				return fmt.Errorf("graph: field %s.%s has an incomplete argument", o.Name, f.Name)
			}
			if argSeen[a.Name] {
				return fmt.Errorf("graph: argument %s.%s(%s) declared twice", o.Name, f.Name, a.Name)
			}
			argSeen[a.Name] = true
			if err := b.discover(a.Type); err != nil {
				return err
			}
		}
	}
	b.fields[o.Name] = fields
	return nil
}

// discover registers declarations referenced by pointer.
func (b *builder) discover(t *Type) error {
	for cur := t; cur != nil; cur = cur.ofType {
		if cur.named != nil {
			return b.register(cur.named)
		}
	}
	return nil
}

func (b *builder) checkRef(where string, t *Type, input bool) error {
	for cur := t; cur != nil; cur = cur.ofType {
		if (cur.list || cur.nonNull) && cur.ofType == nil {
			return fmt.Errorf("graph: %s has an empty type modifier", where)
		}
	}
	name := t.Name()
	n, ok := b.byName[name]
	if !ok {
		return fmt.Errorf("graph: %s refers to undeclared type %q", where, name)
	}
	if _, isObject := n.(*Object); isObject && input {
		return fmt.Errorf("graph: %s cannot take object type %q as input", where, name)
	}
	return nil
}

func (b *builder) graph(cfg Config) *Graph {
	sch := schema.NewSchema(cfg.Description)
	sch.SetQueryType(cfg.Query.Name)
	if cfg.Mutation != nil {
		sch.SetMutationType(cfg.Mutation.Name)
	}
	g := &Graph{schema: sch, fields: map[string]map[string]*Field{}, leaves: map[string]Named{}}
	for _, n := range b.order {
		switch d := n.(type) {
		case *Object:
			t := schema.NewType(d.Name, schema.TypeKindObject, d.Description)
			bound := make(map[string]*Field, len(b.fields[d.Name]))
			for _, f := range b.fields[d.Name] {
				t.AddField(schemaField(f))
				bound[f.Name] = f
			}
			sch.AddType(t)
			g.fields[d.Name] = bound
		case *Enum:
			t := schema.NewType(d.Name, schema.TypeKindEnum, d.Description)
			for _, v := range d.Values {
				ev := schema.NewEnumValue(v.Name, v.Description)
				if v.DeprecationReason != "" {
					ev.IsDeprecated = true
					ev.DeprecationReason = v.DeprecationReason
				}
				t.AddEnumValue(ev)
			}
			sch.AddType(t)
			g.leaves[d.Name] = d
		case *Scalar:
			if !schema.IsBuiltinScalar(d.Name) {
				sch.AddType(schema.NewType(d.Name, schema.TypeKindScalar, d.Description))
			}
			g.leaves[d.Name] = d
		}
	}
	return g
}

func schemaField(f *Field) *schema.Field {
	sf := schema.NewField(f.Name, f.Description, typeRef(f.Type)).SetAsync(f.Resolve != nil)
	for _, a := range f.Args {
		in := schema.NewInputValue(a.Name, a.Description, typeRef(a.Type))
		if a.Default != nil {
			in.SetDefault(a.Default)
		}
		sf.AddArgument(in)
	}
	if f.DeprecationReason != "" {
		sf.Deprecate(f.DeprecationReason)
	}
	return sf
}

func typeRef(t *Type) *schema.TypeRef {
	switch {
	case t.nonNull:
		return schema.NonNullType(typeRef(t.ofType))
	case t.list:
		return schema.ListType(typeRef(t.ofType))
	default:
		return schema.NamedType(t.Name())
	}
}
