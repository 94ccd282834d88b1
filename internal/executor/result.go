package executor

import (
	"bytes"
	"errors"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GraphQLError represents an error that occurred during execution
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// ExecutionResult represents the result of executing a GraphQL query
type ExecutionResult struct {
	Data   *ResultMap     `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// extensionsError is implemented by errors that carry GraphQL error extensions.
type extensionsError interface {
	Extensions() map[string]any
}

func locatedError(err error, path Path) GraphQLError {
	var ge GraphQLError
	if errors.As(err, &ge) {
		if ge.Path == nil {
			ge.Path = path
		}
		return ge
	}
	out := GraphQLError{Message: err.Error(), Path: path}
	var ee extensionsError
	if errors.As(err, &ee) {
		out.Extensions = ee.Extensions()
	}
	return out
}

// ResultMap is a response object whose keys keep the order in which the
// client selected them.
type ResultMap struct {
	Keys   []string
	Values map[string]any
}

// NewResultMap builds a ResultMap from alternating key/value pairs.
func NewResultMap(kv ...any) *ResultMap {
	m := &ResultMap{Values: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1])
	}
	return m
}

// Set stores v under key, appending key on first use.
func (m *ResultMap) Set(key string, v any) {
	if m.Values == nil {
		m.Values = make(map[string]any)
	}
	if _, ok := m.Values[key]; !ok {
		m.Keys = append(m.Keys, key)
	}
	m.Values[key] = v
}

// Get returns the value stored under key.
func (m *ResultMap) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.Values[key]
	return v, ok
}

func (m *ResultMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Keys)
}

func (m *ResultMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.Values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
