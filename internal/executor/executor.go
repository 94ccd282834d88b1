package executor

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	language "github.com/hanpama/usergraph/internal/language"
	schema "github.com/hanpama/usergraph/internal/schema"
)

type Path []PathElement

// PathElement is a response key (string) or a list index (int).
type PathElement any

type taskID uint64

// executionState holds the state of one ExecuteRequest call.
type executionState struct {
	runtime        Runtime
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	context        context.Context
	errors         []GraphQLError

	// queued async work for the current depth
	pending []asyncTask
	nextID  uint64
	// root-level paths nullified by a Non-Null violation
	nullified map[string]struct{}
}

// asyncTask is a queued resolver-backed field.
type asyncTask struct {
	ID           taskID
	Task         AsyncResolveTask
	ResponsePath Path
	FieldType    *schema.TypeRef
	Fields       []*language.Field
}

// asyncPending is the placeholder written for a field until its batch returns.
type asyncPending struct{}

type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

func (e *Executor) Schema() *schema.Schema { return e.schema }

func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation := getOperation(document, operationName)
	if operation == nil {
		if operationName != "" {
			return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("unknown operation named %q", operationName)}}}
		}
		return &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}}
	}

	coercedVariableValues, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error()}}}
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	default:
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("unsupported operation type: %s", operation.Operation)}}}
	}
	if rootType == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("schema does not support %s operations", operation.Operation)}}}
	}

	state := &executionState{
		runtime:        e.runtime,
		schema:         e.schema,
		document:       document,
		variableValues: coercedVariableValues,
		context:        ctx,
		errors:         []GraphQLError{},
		nextID:         1,
		nullified:      make(map[string]struct{}),
	}

	var data *ResultMap
	if operation.Operation == language.Mutation {
		data = executeSerially(state, rootType, operation.SelectionSet, initialValue)
	} else {
		data = executeSelectionSet(state, rootType, operation.SelectionSet, initialValue, Path{})
		state.drain(data)
	}
	return &ExecutionResult{Data: data, Errors: state.errors}
}

// executeSerially runs each root field and drains its async subtree before
// starting the next one.
func executeSerially(state *executionState, rootType *schema.Type, selectionSet language.SelectionSet, rootValue any) *ResultMap {
	data := &ResultMap{}
	for _, cf := range collectFields(state, rootType, selectionSet).orderedFields() {
		path := Path{cf.ResponseName}
		v := executeFieldGroup(state, rootType, rootValue, cf.Fields, path)
		if cf.Fields[0].Name != "__typename" && getFieldDefinition(rootType, cf.Fields[0].Name) == nil {
			continue
		}
		data.Set(cf.ResponseName, nullIfNullish(v))
		state.drain(data)
	}
	return data
}

// drain flushes queued async tasks depth by depth until none remain.
func (s *executionState) drain(root *ResultMap) {
	for len(s.pending) > 0 {
		tasks, results := s.flush()
		for i, r := range results {
			completeAsyncField(s, tasks[i], r, root)
		}
	}
}

// executeSelectionSet executes a selection set, resolving sync fields in place
// and queuing async ones.
func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path Path) *ResultMap {
	result := &ResultMap{}
	for _, cf := range collectFields(state, objectType, selectionSet).orderedFields() {
		fields := cf.Fields
		fieldPath := appendPath(path, cf.ResponseName)
		v := executeFieldGroup(state, objectType, objectValue, fields, fieldPath)

		if fields[0].Name == "__typename" {
			result.Set(cf.ResponseName, v)
			continue
		}
		fieldDef := getFieldDefinition(objectType, fields[0].Name)
		if fieldDef == nil {
			continue
		}
		if schema.IsNonNull(fieldDef.Type) && isNullish(v) {
			if len(path) > 0 {
				return nil
			}
			result.Set(cf.ResponseName, nil)
			continue
		}
		result.Set(cf.ResponseName, nullIfNullish(v))
	}
	return result
}

func executeFieldGroup(state *executionState, objectType *schema.Type, objectValue any, fields []*language.Field, path Path) any {
	field := fields[0]
	if field.Name == "__typename" {
		return objectType.Name
	}

	fieldDef := getFieldDefinition(objectType, field.Name)
	if fieldDef == nil {
		state.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", field.Name, objectType.Name), path)
		return nil
	}

	args, ok := coerceArgumentValues(fieldDef, field.Arguments, state.variableValues, state, path)
	if !ok {
		return nil
	}

	if !fieldDef.Async {
		value, err := state.runtime.ResolveSync(state.context, objectType.Name, field.Name, objectValue, args)
		if err != nil {
			state.errors = append(state.errors, locatedError(err, path))
			value = nil
		}
		return completeValue(state, fieldDef.Type, fields, value, path)
	}

	at := asyncTask{
		ID: taskID(state.nextID),
		Task: AsyncResolveTask{
			ObjectType: objectType.Name,
			Field:      field.Name,
			Source:     objectValue,
			Args:       args,
		},
		ResponsePath: path,
		FieldType:    fieldDef.Type,
		Fields:       fields,
	}
	state.nextID++
	state.pending = append(state.pending, at)
	return asyncPending{}
}

// flush hands the live queued tasks to the runtime in a single batch.
func (s *executionState) flush() ([]asyncTask, []AsyncResolveResult) {
	live := make([]asyncTask, 0, len(s.pending))
	for _, at := range s.pending {
		if s.isNullified(at.ResponsePath) {
			continue
		}
		live = append(live, at)
	}
	s.pending = nil
	if len(live) == 0 {
		return nil, nil
	}

	tasks := make([]AsyncResolveTask, len(live))
	for i, at := range live {
		tasks[i] = at.Task
	}
	results := s.runtime.BatchResolveAsync(s.context, tasks)
	if len(results) != len(tasks) {
		fixed := make([]AsyncResolveResult, len(tasks))
		for i := range fixed {
			if i < len(results) {
				fixed[i] = results[i]
			} else {
				fixed[i] = AsyncResolveResult{Error: fmt.Errorf("runtime returned %d results for %d tasks", len(results), len(tasks))}
			}
		}
		results = fixed
	}
	return live, results
}

// completeAsyncField writes one batch result into the response tree.
func completeAsyncField(state *executionState, at asyncTask, res AsyncResolveResult, root *ResultMap) {
	path := at.ResponsePath
	if state.isNullified(path) {
		return
	}

	if res.Error != nil {
		state.errors = append(state.errors, locatedError(res.Error, path))
		if schema.IsNonNull(at.FieldType) {
			state.nullifyRoot(root, path)
			return
		}
		setValueAtPath(root, path, nil)
		return
	}

	completed := completeValue(state, at.FieldType, at.Fields, res.Value, path)
	if schema.IsNonNull(at.FieldType) && isNullish(completed) {
		state.nullifyRoot(root, path)
		return
	}
	setValueAtPath(root, path, nullIfNullish(completed))
}

func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)), path)
			}
			return nil
		}
		completed := completeValue(state, schema.Unwrap(fieldType), fields, result, path)
		if isNullish(completed) {
			return nil
		}
		return completed
	}

	if isNullish(result) {
		return nil
	}
	if schema.IsList(fieldType) {
		return completeListValue(state, fieldType, fields, result, path)
	}

	namedType := schema.GetNamedType(fieldType)
	typeObj := state.schema.Types[namedType]
	if typeObj == nil {
		state.addError(fmt.Sprintf("Unknown type: %s", namedType), path)
		return nil
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := state.runtime.SerializeLeafValue(state.context, namedType, result)
		if err != nil {
			state.errors = append(state.errors, locatedError(err, path))
			return nil
		}
		return serialized
	case schema.TypeKindObject:
		return executeSelectionSet(state, typeObj, mergeSelectionSets(fields), result, path)
	default:
		state.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), path)
		return nil
	}
}

func completeListValue(state *executionState, listType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	for i, item := range items {
		v := completeValue(state, inner, fields, item, appendPath(path, i))
		if schema.IsNonNull(inner) && isNullish(v) {
			return nil
		}
		completed[i] = nullIfNullish(v)
	}
	return completed
}

func pathToString(path Path) string {
	var b strings.Builder
	for i, elem := range path {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(v))
			b.WriteByte(']')
		}
	}
	return b.String()
}

func appendPath(path Path, elem PathElement) Path {
	out := make(Path, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}

// nullifyRoot sets the root field enclosing p to null and tombstones it so
// queued tasks below it are dropped.
func (s *executionState) nullifyRoot(root *ResultMap, p Path) {
	if len(p) == 0 {
		return
	}
	top := p[:1]
	setValueAtPath(root, top, nil)
	s.nullified[pathToString(top)] = struct{}{}
}

func (s *executionState) isNullified(p Path) bool {
	if len(s.nullified) == 0 || len(p) == 0 {
		return false
	}
	_, ok := s.nullified[pathToString(p[:1])]
	return ok
}

// getOperation retrieves the operation from the document
func getOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0]
		}
		return nil
	}
	return document.Operations.ForName(operationName)
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return schema.NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}

func (s *executionState) addError(message string, path Path) {
	s.errors = append(s.errors, GraphQLError{Message: message, Path: path})
}

func (s *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range s.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

// setValueAtPath overwrites an existing slot in the response tree. Missing
// intermediate containers mean an ancestor was nulled; the write is dropped.
func setValueAtPath(root *ResultMap, path Path, value any) {
	if len(path) == 0 {
		return
	}
	var current any = root
	for _, elem := range path[:len(path)-1] {
		switch e := elem.(type) {
		case string:
			m, ok := current.(*ResultMap)
			if !ok || m == nil {
				return
			}
			current, _ = m.Get(e)
		case int:
			list, ok := current.([]any)
			if !ok || e >= len(list) {
				return
			}
			current = list[e]
		}
	}
	switch last := path[len(path)-1].(type) {
	case string:
		if m, ok := current.(*ResultMap); ok && m != nil {
			m.Set(last, value)
		}
	case int:
		if list, ok := current.([]any); ok && last < len(list) {
			list[last] = value
		}
	}
}

// mergeSelectionSets merges selection sets from multiple fields
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func nullIfNullish(v any) any {
	if isNullish(v) {
		return nil
	}
	return v
}
