// Package usergraph declares the User and Company graph and binds its fields
// to the data service.
package usergraph

import (
	"context"

	"github.com/hanpama/usergraph/internal/graph"
	"go.uber.org/zap"
)

// DataService is the subset of *datasvc.Client the resolvers use.
type DataService interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Types holds the object declarations. User and Company refer to each other;
// their field lists are produced on demand, so neither needs the other to
// exist when it is declared.
type Types struct {
	User     *graph.Object
	Company  *graph.Object
	Query    *graph.Object
	Mutation *graph.Object

	ds  DataService
	log *zap.Logger
}

type Option func(*Types)

func WithLogger(l *zap.Logger) Option { return func(t *Types) { t.log = l } }

func New(ds DataService, opts ...Option) *Types {
	t := &Types{ds: ds, log: zap.NewNop()}
	for _, o := range opts {
		o(t)
	}
	t.User = &graph.Object{Name: "User", Fields: t.userFields}
	t.Company = &graph.Object{Name: "Company", Fields: t.companyFields}
	t.Query = &graph.Object{Name: "RootQueryType", Fields: t.queryFields}
	t.Mutation = &graph.Object{Name: "Mutation", Fields: t.mutationFields}
	return t
}

// Config returns the graph roots for graph.Build.
func (t *Types) Config() graph.Config {
	return graph.Config{Query: t.Query, Mutation: t.Mutation}
}

func (t *Types) userFields() []*graph.Field {
	return []*graph.Field{
		{Name: "id", Type: graph.String},
		{Name: "firstName", Type: graph.String},
		{Name: "age", Type: graph.Int},
		{Name: "company", Type: graph.Ref(t.Company), Resolve: graph.ResolveWith(t.userCompany)},
	}
}

func (t *Types) companyFields() []*graph.Field {
	return []*graph.Field{
		{Name: "id", Type: graph.String},
		{Name: "name", Type: graph.String},
		{Name: "description", Type: graph.String},
		{Name: "users", Type: graph.ListOf(graph.Ref(t.User)), Resolve: graph.ResolveWith(t.companyUsers)},
	}
}

func (t *Types) queryFields() []*graph.Field {
	return []*graph.Field{
		{
			Name:    "user",
			Type:    graph.Ref(t.User),
			Args:    []*graph.Arg{{Name: "id", Type: graph.NonNull(graph.String)}},
			Resolve: t.user,
		},
		{
			Name:    "company",
			Type:    graph.Ref(t.Company),
			Args:    []*graph.Arg{{Name: "id", Type: graph.NonNull(graph.String)}},
			Resolve: t.company,
		},
	}
}

func (t *Types) mutationFields() []*graph.Field {
	return []*graph.Field{
		{
			Name: "addUser",
			Type: graph.Ref(t.User),
			Args: []*graph.Arg{
				{Name: "firstName", Type: graph.NonNull(graph.String)},
				{Name: "age", Type: graph.Int},
				{Name: "companyId", Type: graph.String},
			},
			Resolve: t.addUser,
		},
		{
			Name: "updateUser",
			Type: graph.Ref(t.User),
			Args: []*graph.Arg{
				{Name: "id", Type: graph.NonNull(graph.String)},
				{Name: "firstName", Type: graph.NonNull(graph.String)},
				{Name: "age", Type: graph.Int},
				{Name: "companyId", Type: graph.String},
			},
			Resolve: t.updateUser,
		},
		{
			Name: "deleteUser",
			Type: graph.Ref(t.User),
			Args: []*graph.Arg{
				{Name: "id", Type: graph.NonNull(graph.String)},
			},
			Resolve: t.deleteUser,
		},
	}
}
