package schema

// NewSchema returns an empty schema that already knows the built-in scalars
// and the @skip/@include directives.
func NewSchema(description string) *Schema {
	s := &Schema{
		Types:       make(map[string]*Type),
		Directives:  make(map[string]*Directive),
		Description: description,
	}
	for _, t := range builtinScalars {
		s.AddType(t)
	}
	s.AddDirective(includeDirective).
		AddDirective(skipDirective)
	return s
}

func (s *Schema) SetQueryType(name string) *Schema {
	s.QueryType = name
	return s
}

func (s *Schema) SetMutationType(name string) *Schema {
	s.MutationType = name
	return s
}

// AddType registers t under its name, replacing any previous type with that name.
func (s *Schema) AddType(t *Type) *Schema {
	s.Types[t.Name] = t
	return s
}

func (s *Schema) AddDirective(d *Directive) *Schema {
	s.Directives[d.Name] = d
	return s
}

func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

func (t *Type) AddField(f *Field) *Type {
	t.Fields = append(t.Fields, f)
	return t
}

func (t *Type) AddEnumValue(v *EnumValue) *Type {
	t.EnumValues = append(t.EnumValues, v)
	return t
}

// FieldByName returns the field with the given name or nil.
func (t *Type) FieldByName(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func NewField(name, description string, typ *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typ}
}

func (f *Field) SetAsync(async bool) *Field {
	f.Async = async
	return f
}

func (f *Field) AddArgument(in *InputValue) *Field {
	f.Arguments = append(f.Arguments, in)
	return f
}

func (f *Field) Deprecate(reason string) *Field {
	f.IsDeprecated = true
	f.DeprecationReason = reason
	return f
}

func NewInputValue(name, description string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Description: description, Type: typ}
}

func (in *InputValue) SetDefault(v any) *InputValue {
	in.DefaultValue = v
	return in
}

func NewEnumValue(name, description string) *EnumValue {
	return &EnumValue{Name: name, Description: description}
}

// IsBuiltinScalar reports whether name is one of the specified scalars.
func IsBuiltinScalar(name string) bool {
	for _, t := range builtinScalars {
		if t.Name == name {
			return true
		}
	}
	return false
}
