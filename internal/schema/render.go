package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render produces SDL from the Schema.
// Deterministic ordering: type names sorted lexicographically, fields in
// declaration order. Built-in scalars, built-in directives and introspection
// types/fields (names starting with "__") are omitted so the output can be
// loaded by any spec-compliant parser.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder

	renderSchemaDefinition(&b, s)

	typeNames := make([]string, 0, len(s.Types))
	for name := range s.Types {
		if IsBuiltinScalar(name) || isIntrospectionName(name) {
			continue
		}
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	for _, name := range typeNames {
		typ := s.Types[name]
		switch typ.Kind {
		case TypeKindScalar:
			renderScalar(&b, typ)
		case TypeKindEnum:
			renderEnum(&b, typ)
		case TypeKindObject:
			renderObject(&b, typ)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func isIntrospectionName(name string) bool { return strings.HasPrefix(name, "__") }

func renderSchemaDefinition(b *strings.Builder, s *Schema) {
	if s.QueryType == "Query" && (s.MutationType == "" || s.MutationType == "Mutation") {
		return
	}
	renderDescription(b, s.Description)
	b.WriteString("schema {\n")
	if s.QueryType != "" {
		b.WriteString("  query: ")
		b.WriteString(s.QueryType)
		b.WriteString("\n")
	}
	if s.MutationType != "" {
		b.WriteString("  mutation: ")
		b.WriteString(s.MutationType)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func renderDescription(b *strings.Builder, desc string) {
	if desc == "" {
		return
	}
	b.WriteString("\"\"\"\n")
	b.WriteString(strings.ReplaceAll(desc, "\"", "\\\""))
	b.WriteString("\n\"\"\"\n")
}

func renderScalar(b *strings.Builder, typ *Type) {
	renderDescription(b, typ.Description)
	b.WriteString("scalar ")
	b.WriteString(typ.Name)
	b.WriteString("\n\n")
}

func renderEnum(b *strings.Builder, typ *Type) {
	renderDescription(b, typ.Description)
	b.WriteString("enum ")
	b.WriteString(typ.Name)
	b.WriteString(" {\n")
	for _, val := range typ.EnumValues {
		b.WriteString("  ")
		b.WriteString(val.Name)
		renderDeprecation(b, val.IsDeprecated, val.DeprecationReason)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func renderObject(b *strings.Builder, typ *Type) {
	renderDescription(b, typ.Description)
	b.WriteString("type ")
	b.WriteString(typ.Name)
	b.WriteString(" {\n")
	for _, field := range typ.Fields {
		if isIntrospectionName(field.Name) {
			continue
		}
		renderField(b, field)
	}
	b.WriteString("}\n\n")
}

func renderField(b *strings.Builder, field *Field) {
	b.WriteString("  ")
	b.WriteString(field.Name)
	if len(field.Arguments) > 0 {
		b.WriteString("(")
		for i, arg := range field.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(arg.Name)
			b.WriteString(": ")
			b.WriteString(renderTypeRef(arg.Type))
			if arg.DefaultValue != nil {
				b.WriteString(" = ")
				b.WriteString(renderValue(arg.DefaultValue))
			}
		}
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(renderTypeRef(field.Type))
	renderDeprecation(b, field.IsDeprecated, field.DeprecationReason)
	b.WriteString("\n")
}

func renderDeprecation(b *strings.Builder, deprecated bool, reason string) {
	if !deprecated {
		return
	}
	b.WriteString(" @deprecated")
	if reason != "" {
		b.WriteString("(reason: ")
		b.WriteString(strconv.Quote(reason))
		b.WriteString(")")
	}
}

func renderTypeRef(typeRef *TypeRef) string {
	if typeRef == nil {
		return ""
	}
	switch typeRef.Kind {
	case TypeRefKindNamed:
		return typeRef.Named
	case TypeRefKindList:
		return "[" + renderTypeRef(typeRef.OfType) + "]"
	case TypeRefKindNonNull:
		return renderTypeRef(typeRef.OfType) + "!"
	default:
		return ""
	}
}

// renderValue renders a default value literal.
func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = renderValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

// ValueString renders v as a GraphQL value literal.
func ValueString(v any) string { return renderValue(v) }
