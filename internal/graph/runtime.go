package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/hanpama/usergraph/internal/eventbus"
	"github.com/hanpama/usergraph/internal/events"
	executor "github.com/hanpama/usergraph/internal/executor"
)

// Runtime dispatches executor calls to the bound fields of a Graph.
type Runtime struct {
	graph *Graph
}

var _ executor.Runtime = (*Runtime)(nil)

// Runtime returns an executor.Runtime over g.
func (g *Graph) Runtime() *Runtime { return &Runtime{graph: g} }

type graphKey struct{}

// FromContext returns the Graph whose resolver is running.
func FromContext(ctx context.Context) (*Graph, bool) {
	g, ok := ctx.Value(graphKey{}).(*Graph)
	return g, ok
}

func (r *Runtime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (value any, err error) {
	f := r.graph.Field(objectType, field)
	if f == nil {
		return nil, fmt.Errorf("no binding for %s.%s", objectType, field)
	}
	defer recoverResolver(ctx, objectType, field, &err)
	switch {
	case f.Project != nil:
		return f.Project(source, args)
	case f.Resolve != nil:
		return f.Resolve(context.WithValue(ctx, graphKey{}, r.graph), source, args)
	default:
		return project(source, field)
	}
}

// BatchResolveAsync runs every task on its own goroutine and waits for all of
// them. results[i] belongs to tasks[i].
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}
	ctx = context.WithValue(ctx, graphKey{}, r.graph)

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func() {
			defer wg.Done()
			v, err := r.resolve(ctx, task)
			results[i] = executor.AsyncResolveResult{Value: v, Error: err}
		}()
	}
	wg.Wait()
	return results
}

func (r *Runtime) resolve(ctx context.Context, task executor.AsyncResolveTask) (value any, err error) {
	f := r.graph.Field(task.ObjectType, task.Field)
	if f == nil || f.Resolve == nil {
		return nil, fmt.Errorf("no resolver for %s.%s", task.ObjectType, task.Field)
	}
	defer recoverResolver(ctx, task.ObjectType, task.Field, &err)
	return f.Resolve(ctx, task.Source, task.Args)
}

func recoverResolver(ctx context.Context, objectType, field string, err *error) {
	if p := recover(); p != nil {
		eventbus.Publish(ctx, events.ResolverPanic{ObjectType: objectType, Field: field, Value: p})
		*err = fmt.Errorf("resolver panic: %v", p)
	}
}

// SerializeLeafValue serializes scalars with their Serialize function and
// enums by value name.
func (r *Runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch d := r.graph.leaves[typeName].(type) {
	case *Scalar:
		if d.Serialize == nil {
			return value, nil
		}
		return d.Serialize(value)
	case *Enum:
		return serializeEnum(d, value)
	}
	return nil, fmt.Errorf("unknown leaf type %q", typeName)
}
