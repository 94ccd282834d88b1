package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	schema "github.com/hanpama/usergraph/internal/schema"
)

// Pattern: Result comparison
func TestOrdering_SelectionOrder_Result(t *testing.T) {
	sch := newSchemaWithQueryType(newObjectType("Query",
		schema.NewField("a", "", schema.NamedType("String")),
		schema.NewField("b", "", schema.NamedType("String")).SetAsync(true),
		schema.NewField("c", "", schema.NamedType("String")),
	))
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
		"Query.b": NewMockValueResolver("B"),
		"Query.c": NewMockValueResolver("C"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ c b a }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	gotCalls := rt.GetCalls()

	wantRes := &ExecutionResult{Data: NewResultMap("c", "C", "b", "B", "a", "A"), Errors: []GraphQLError{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	wantCalls := []Call{
		{Kind: "sync", ObjectType: "Query", Field: "c", Args: map[string]any{}},
		{Kind: "sync", ObjectType: "Query", Field: "a", Args: map[string]any{}},
		{Kind: "async", ObjectType: "Query", Field: "b", Args: map[string]any{}, BatchID: 1},
	}
	if diff := cmp.Diff(wantCalls, gotCalls); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestOrdering_AliasesAndFragments_Result(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("obj", "", schema.NamedType("Obj")).SetAsync(true).
			AddArgument(schema.NewInputValue("id", "", schema.NonNullType(schema.NamedType("String"))))),
		newObjectType("Obj",
			schema.NewField("id", "", schema.NamedType("String")),
			schema.NewField("name", "", schema.NamedType("String"))),
	)
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.obj": func(ctx context.Context, src any, args map[string]any) (any, error) {
			return map[string]any{"id": args["id"], "name": "n" + args["id"].(string)}, nil
		},
		"Obj.id": func(ctx context.Context, src any, args map[string]any) (any, error) {
			return src.(map[string]any)["id"], nil
		},
		"Obj.name": func(ctx context.Context, src any, args map[string]any) (any, error) {
			return src.(map[string]any)["name"], nil
		},
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, `{
		second: obj(id: "2") { ...details }
		first: obj(id: "1") { name ... on Obj { id } }
	}
	fragment details on Obj { id name }`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	wantRes := &ExecutionResult{
		Data: NewResultMap(
			"second", NewResultMap("id", "2", "name", "n2"),
			"first", NewResultMap("name", "n1", "id", "1"),
		),
		Errors: []GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Calls comparison
func TestOrdering_DepthBatches_Calls(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("list", "", schema.ListType(schema.NamedType("Obj"))).SetAsync(true)),
		newObjectType("Obj", schema.NewField("next", "", schema.NamedType("String")).SetAsync(true)),
	)
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.list": NewMockValueResolver([]any{"x", "y"}),
		"Obj.next": func(ctx context.Context, src any, args map[string]any) (any, error) {
			return src.(string) + "!", nil
		},
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ list { next } }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	gotCalls := rt.GetCalls()

	wantRes := &ExecutionResult{
		Data:   NewResultMap("list", []any{NewResultMap("next", "x!"), NewResultMap("next", "y!")}),
		Errors: []GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	wantCalls := []Call{
		{Kind: "async", ObjectType: "Query", Field: "list", Args: map[string]any{}, BatchID: 1},
		{Kind: "async", ObjectType: "Obj", Field: "next", Source: "x", Args: map[string]any{}, BatchID: 2},
		{Kind: "async", ObjectType: "Obj", Field: "next", Source: "y", Args: map[string]any{}, BatchID: 2},
	}
	if diff := cmp.Diff(wantCalls, gotCalls); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

func TestTypenameAndSkipInclude(t *testing.T) {
	sch := newSchemaWithQueryType(newObjectType("Query",
		schema.NewField("a", "", schema.NamedType("String")),
		schema.NewField("b", "", schema.NamedType("String")),
	))
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
		"Query.b": NewMockValueResolver("B"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "query Q($skipA: Boolean!) { __typename a @skip(if: $skipA) b @include(if: false) }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "Q", map[string]any{"skipA": true}, nil)

	wantRes := &ExecutionResult{Data: NewResultMap("__typename", "Query"), Errors: []GraphQLError{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}
