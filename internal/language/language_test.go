package language

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testSDL = `
schema { query: Root }
type Root { item(id: String!): Item }
type Item { id: String name: String }
`

func TestValidateRejectsMissingRequiredArgument(t *testing.T) {
	s, err := LoadSchema("test.graphql", testSDL)
	require.NoError(t, err)

	doc, err := ParseQuery(`{ item { name } }`)
	require.NoError(t, err)

	errs := Validate(s, doc)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, `argument "id" of type "String!" is required`)
}

func TestValidateAcceptsWellFormedQuery(t *testing.T) {
	s, err := LoadSchema("test.graphql", testSDL)
	require.NoError(t, err)

	doc, err := ParseQuery(`query Q($id: String!) { a: item(id: $id) { id } b: item(id: "2") { ...f } } fragment f on Item { name }`)
	require.NoError(t, err)
	require.Empty(t, Validate(s, doc))
}

func TestParseQuerySyntaxError(t *testing.T) {
	_, err := ParseQuery(`{ item(`)
	require.Error(t, err)
}
