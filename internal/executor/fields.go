package executor

import (
	language "github.com/hanpama/usergraph/internal/language"
	schema "github.com/hanpama/usergraph/internal/schema"
)

// collectedFieldMap groups fields by response name in first-seen order.
type collectedFieldMap struct {
	fields []collectedField
	index  map[string]int
}

type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

func (cfm *collectedFieldMap) add(responseName string, field *language.Field) {
	if idx, ok := cfm.index[responseName]; ok {
		cfm.fields[idx].Fields = append(cfm.fields[idx].Fields, field)
		return
	}
	cfm.index[responseName] = len(cfm.fields)
	cfm.fields = append(cfm.fields, collectedField{ResponseName: responseName, Fields: []*language.Field{field}})
}

func (cfm *collectedFieldMap) orderedFields() []collectedField {
	return cfm.fields
}

// collectFields flattens fragments and applies @skip/@include.
func collectFields(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet) *collectedFieldMap {
	grouped := &collectedFieldMap{index: make(map[string]int)}
	collectFieldsInto(state, objectType, selectionSet, grouped, make(map[string]bool))
	return grouped
}

func collectFieldsInto(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, grouped *collectedFieldMap, visited map[string]bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			responseName := sel.Alias
			if responseName == "" {
				responseName = sel.Name
			}
			grouped.add(responseName, sel)

		case *language.InlineFragment:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			if sel.TypeCondition != "" && sel.TypeCondition != objectType.Name {
				continue
			}
			collectFieldsInto(state, objectType, sel.SelectionSet, grouped, visited)

		case *language.FragmentSpread:
			if !shouldIncludeNode(state, sel.Directives) || visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true
			fragment := state.document.Fragments.ForName(sel.Name)
			if fragment == nil {
				continue
			}
			if fragment.TypeCondition != "" && fragment.TypeCondition != objectType.Name {
				continue
			}
			collectFieldsInto(state, objectType, fragment.SelectionSet, grouped, visited)
		}
	}
}

// shouldIncludeNode evaluates @skip(if:) and @include(if:).
func shouldIncludeNode(state *executionState, directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := directiveArgument(state, skip, "if").(bool); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := directiveArgument(state, include, "if").(bool); ok && !v {
			return false
		}
	}
	return true
}

func directiveArgument(state *executionState, directive *language.Directive, name string) any {
	if arg := directive.Arguments.ForName(name); arg != nil {
		return valueFromASTWithVars(arg.Value, state.variableValues)
	}
	return nil
}

func getFieldDefinition(objectType *schema.Type, fieldName string) *schema.Field {
	return objectType.FieldByName(fieldName)
}
