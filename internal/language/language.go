package language

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadSchema parses and validates SDL into a schema usable by Validate.
// The gqlparser prelude (built-in scalars, directives and introspection
// types) is added automatically.
func LoadSchema(name, sdl string) (*SchemaDefinition, error) {
	s, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks doc against s using the standard validation rules. A nil
// list means the document is valid.
func Validate(s *SchemaDefinition, doc *QueryDocument) ErrorList {
	return validator.Validate(s, doc)
}
