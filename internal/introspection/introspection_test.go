package introspection

import (
	"context"
	"testing"

	executor "github.com/hanpama/usergraph/internal/executor"
	"github.com/hanpama/usergraph/internal/graph"
	language "github.com/hanpama/usergraph/internal/language"
	schema "github.com/hanpama/usergraph/internal/schema"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
)

func testConfig() graph.Config {
	var item *graph.Object
	item = &graph.Object{Name: "Item", Description: "A thing.", Fields: func() []*graph.Field {
		return []*graph.Field{
			{Name: "id", Type: graph.NonNull(graph.ID)},
			{Name: "next", Type: graph.ListOf(graph.Ref(item))},
			{Name: "old", Type: graph.String, DeprecationReason: "gone"},
		}
	}}
	query := &graph.Object{Name: "Query", Fields: func() []*graph.Field {
		return []*graph.Field{
			{Name: "item", Type: graph.Ref(item), Args: []*graph.Arg{{Name: "limit", Type: graph.Int, Default: 10}}},
		}
	}}
	return graph.Config{Query: query}
}

func run(t *testing.T, cfg graph.Config, query string) string {
	t.Helper()
	g, err := graph.Build(cfg)
	require.NoError(t, err)
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	sdl, err := language.LoadSchema("test", schema.Render(g.Schema()))
	require.NoError(t, err)
	require.Empty(t, language.Validate(sdl, doc))
	res := executor.NewExecutor(g.Runtime(), g.Schema()).ExecuteRequest(context.Background(), doc, "", nil, nil)
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(res)
	require.NoError(t, err)
	return string(out)
}

func TestSchemaRoots(t *testing.T) {
	got := run(t, Wrap(testConfig()), `{ __schema { queryType { name kind } mutationType { name } } }`)
	require.JSONEq(t, `{"data":{"__schema":{"queryType":{"name":"Query","kind":"OBJECT"},"mutationType":null}}}`, got)
}

func TestTypeWrappers(t *testing.T) {
	got := run(t, Wrap(testConfig()), `{
		__type(name: "Item") {
			kind name description
			fields { name type { kind name ofType { kind name ofType { kind name } } } }
		}
	}`)
	require.JSONEq(t, `{"data":{"__type":{"kind":"OBJECT","name":"Item","description":"A thing.","fields":[
		{"name":"id","type":{"kind":"NON_NULL","name":null,"ofType":{"kind":"SCALAR","name":"ID","ofType":null}}},
		{"name":"next","type":{"kind":"LIST","name":null,"ofType":{"kind":"OBJECT","name":"Item","ofType":null}}}
	]}}}`, got)
}

func TestDeprecatedAndArguments(t *testing.T) {
	got := run(t, Wrap(testConfig()), `{
		item: __type(name: "Item") { fields(includeDeprecated: true) { name isDeprecated deprecationReason } }
		query: __type(name: "Query") { fields { name args { name defaultValue type { name } } } }
		missing: __type(name: "Nope") { name }
	}`)
	require.JSONEq(t, `{"data":{
		"item":{"fields":[
			{"name":"id","isDeprecated":false,"deprecationReason":null},
			{"name":"next","isDeprecated":false,"deprecationReason":null},
			{"name":"old","isDeprecated":true,"deprecationReason":"gone"}
		]},
		"query":{"fields":[{"name":"item","args":[{"name":"limit","defaultValue":"10","type":{"name":"Int"}}]}]},
		"missing":null
	}}`, got)
}

func TestEnumsAndDirectives(t *testing.T) {
	got := run(t, Wrap(testConfig()), `{
		kinds: __type(name: "__TypeKind") { kind enumValues { name } }
		__schema { directives { name locations args { name type { kind ofType { name } } } } }
	}`)
	require.JSONEq(t, `{"data":{
		"kinds":{"kind":"ENUM","enumValues":[
			{"name":"SCALAR"},{"name":"OBJECT"},{"name":"INTERFACE"},{"name":"UNION"},
			{"name":"ENUM"},{"name":"INPUT_OBJECT"},{"name":"LIST"},{"name":"NON_NULL"}
		]},
		"__schema":{"directives":[
			{"name":"include","locations":["FIELD","FRAGMENT_SPREAD","INLINE_FRAGMENT"],"args":[{"name":"if","type":{"kind":"NON_NULL","ofType":{"name":"Boolean"}}}]},
			{"name":"skip","locations":["FIELD","FRAGMENT_SPREAD","INLINE_FRAGMENT"],"args":[{"name":"if","type":{"kind":"NON_NULL","ofType":{"name":"Boolean"}}}]}
		]}
	}}`, got)
}

func TestFullIntrospectionQuery(t *testing.T) {
	got := run(t, Wrap(testConfig()), introspectionQuery)
	var res struct {
		Data struct {
			Schema struct {
				Types []struct {
					Name string `json:"name"`
				} `json:"types"`
			} `json:"__schema"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal([]byte(got), &res))
	require.Empty(t, res.Errors)
	var names []string
	for _, typ := range res.Data.Schema.Types {
		names = append(names, typ.Name)
	}
	require.Subset(t, names, []string{"Boolean", "ID", "Int", "Item", "Query", "String", "__Schema", "__Type", "__TypeKind"})
}

func TestWrapLeavesSDLUnchanged(t *testing.T) {
	plain, err := graph.Build(testConfig())
	require.NoError(t, err)
	wrapped, err := graph.Build(Wrap(testConfig()))
	require.NoError(t, err)
	require.Equal(t, schema.Render(plain.Schema()), schema.Render(wrapped.Schema()))
	require.Nil(t, plain.Schema().Types["__Schema"])
	require.NotNil(t, wrapped.Schema().Types["__Schema"])
}

func TestTypenameWithoutIntrospection(t *testing.T) {
	got := run(t, testConfig(), `{ __typename }`)
	require.Equal(t, `{"data":{"__typename":"Query"}}`, got)
}

const introspectionQuery = `
query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types { ...FullType }
    directives { name description locations args { ...InputValue } }
  }
}
fragment FullType on __Type {
  kind name description
  fields(includeDeprecated: true) {
    name description
    args { ...InputValue }
    type { ...TypeRef }
    isDeprecated deprecationReason
  }
  inputFields { ...InputValue }
  interfaces { ...TypeRef }
  enumValues(includeDeprecated: true) { name description isDeprecated deprecationReason }
  possibleTypes { ...TypeRef }
}
fragment InputValue on __InputValue { name description type { ...TypeRef } defaultValue }
fragment TypeRef on __Type {
  kind name
  ofType { kind name ofType { kind name ofType { kind name ofType { kind name } } } }
}
`
