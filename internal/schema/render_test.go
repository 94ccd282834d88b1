package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRenderSkipsBuiltinsAndIntrospection(t *testing.T) {
	s := NewSchema("").SetQueryType("Root")
	s.AddType(NewType("Root", TypeKindObject, "").
		AddField(NewField("__schema", "", NonNullType(NamedType("__Schema")))).
		AddField(NewField("thing", "", NamedType("Thing")).
			AddArgument(NewInputValue("id", "", NonNullType(NamedType("String")))).
			AddArgument(NewInputValue("limit", "", NamedType("Int")).SetDefault(10))))
	s.AddType(NewType("Thing", TypeKindObject, "A thing.").
		AddField(NewField("tags", "", ListType(NonNullType(NamedType("String"))))).
		AddField(NewField("old", "", NamedType("Int")).Deprecate("use tags")))
	s.AddType(NewType("__Schema", TypeKindObject, ""))

	want := `schema {
  query: Root
}

type Root {
  thing(id: String!, limit: Int = 10): Thing
}

"""
A thing.
"""
type Thing {
  tags: [String!]
  old: Int @deprecated(reason: "use tags")
}
`
	if diff := cmp.Diff(want, Render(s)); diff != "" {
		t.Fatalf("Render mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderOmitsSchemaBlockForConventionalRoots(t *testing.T) {
	s := NewSchema("").SetQueryType("Query")
	s.AddType(NewType("Query", TypeKindObject, "").AddField(NewField("hello", "", NamedType("String"))))
	want := "type Query {\n  hello: String\n}\n"
	if got := Render(s); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestTypeRefString(t *testing.T) {
	ref := NonNullType(ListType(NamedType("User")))
	if got := ref.String(); got != "[User]!" {
		t.Fatalf("got %q", got)
	}
	if ref.GetNamedType() != "User" || !ref.IsList() || !IsNonNull(ref) {
		t.Fatalf("unexpected helpers result for %s", ref)
	}
}
