package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	eventbus "github.com/hanpama/usergraph/internal/eventbus"
	events "github.com/hanpama/usergraph/internal/events"
	executor "github.com/hanpama/usergraph/internal/executor"
	reqid "github.com/hanpama/usergraph/internal/reqid"
	schema "github.com/hanpama/usergraph/internal/schema"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

func testSchema() *schema.Schema {
	query := schema.NewType("Query", schema.TypeKindObject, "").
		AddField(schema.NewField("hello", "", schema.NamedType("String"))).
		AddField(schema.NewField("greet", "", schema.NamedType("String")).
			AddArgument(schema.NewInputValue("name", "", schema.NonNullType(schema.NamedType("String")))))
	mutation := schema.NewType("Mutation", schema.TypeKindObject, "").
		AddField(schema.NewField("touch", "", schema.NamedType("Int")))
	return schema.NewSchema("").
		AddType(query).
		AddType(mutation).
		SetQueryType("Query").
		SetMutationType("Mutation")
}

func newTestHandler(t *testing.T, rt executor.Runtime, opts ...Option) *Handler {
	t.Helper()
	h, err := New(rt, testSchema(), opts...)
	require.NoError(t, err)
	return h
}

func helloRuntime() *executor.MockRuntime {
	return executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
		"Query.greet": func(ctx context.Context, src any, args map[string]any) (any, error) {
			return "hi " + args["name"].(string), nil
		},
		"Mutation.touch": executor.NewMockValueResolver(1),
	})
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/graphql", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestForwardedHeaders(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	var captured metadata.MD
	rt.SetResolver("Query", "hello", func(ctx context.Context, src any, args map[string]any) (any, error) {
		captured, _ = metadata.FromOutgoingContext(ctx)
		return "world", nil
	})
	h := newTestHandler(t, rt, WithForwardHeaders("X-Test"))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test", "abc")
	req.Header.Set("X-Other", "nope")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"abc"}, captured.Get("x-test"))
	require.Empty(t, captured.Get("x-other"))
}

func TestForwardedHeadersDefaultEmpty(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	var captured metadata.MD
	rt.SetResolver("Query", "hello", func(ctx context.Context, src any, args map[string]any) (any, error) {
		captured, _ = metadata.FromOutgoingContext(ctx)
		return "world", nil
	})
	h := newTestHandler(t, rt)

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test", "abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, captured.Get("x-test"))
}

func TestCORSAndPreflight(t *testing.T) {
	h := newTestHandler(t, helloRuntime(), WithCORS("*"))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	pre := httptest.NewRequest("OPTIONS", "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	require.Equal(t, http.StatusNoContent, pw.Code)
	require.Equal(t, "*", pw.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "X-Test", pw.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSSpecificOrigin(t *testing.T) {
	h := newTestHandler(t, helloRuntime(), WithCORS("http://allowed.test"))

	for origin, want := range map[string]string{
		"http://allowed.test": "http://allowed.test",
		"http://other.test":   "",
	} {
		req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, want, w.Header().Get("Access-Control-Allow-Origin"), origin)
	}
}

func TestMaxBodyBytes(t *testing.T) {
	h := newTestHandler(t, helloRuntime(), WithMaxBodyBytes(10))
	w := post(h, `{"query":"1234567890"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.JSONEq(t, `{"data":null,"errors":[{"message":"body too large"}]}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	var capturedMD metadata.MD
	var capturedID int64
	rt.SetResolver("Query", "hello", func(ctx context.Context, src any, args map[string]any) (any, error) {
		capturedMD, _ = metadata.FromOutgoingContext(ctx)
		capturedID, _ = reqid.FromContext(ctx)
		return "world", nil
	})
	h := newTestHandler(t, rt)

	w := post(h, `{"query":"{ hello }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotZero(t, capturedID)
	require.Equal(t, []string{reqid.String(capturedID)}, capturedMD.Get(reqid.Header))
	require.Equal(t, reqid.String(capturedID), w.Header().Get(reqid.Header))
}

func TestPostExecutes(t *testing.T) {
	h := newTestHandler(t, helloRuntime())
	w := post(h, `{"query":"query G($n: String!) { greet(name: $n) hello }","variables":{"n":"bob"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	require.Equal(t, `{"data":{"greet":"hi bob","hello":"world"}}`+"\n", w.Body.String())
}

func TestValidationErrorSkipsExecution(t *testing.T) {
	rt := helloRuntime()
	h := newTestHandler(t, rt)

	w := post(h, `{"query":"{ greet }"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	require.Contains(t, body, `"data":null`)
	require.Contains(t, body, `argument \"name\" of type \"String!\" is required`)
	require.Contains(t, body, `"locations":[{"line":1,"column":3}]`)
	require.Empty(t, rt.GetCalls())
}

func TestUnknownFieldRejected(t *testing.T) {
	h := newTestHandler(t, helloRuntime())
	w := post(h, `{"query":"{ nope }"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), `Cannot query field \"nope\" on type \"Query\".`)
}

func TestSyntaxError(t *testing.T) {
	h := newTestHandler(t, helloRuntime())
	w := post(h, `{"query":"{ hello "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), `"locations":[{"line":1,`)
	require.Contains(t, w.Body.String(), `"data":null`)
}

func TestMalformedRequests(t *testing.T) {
	h := newTestHandler(t, helloRuntime())
	cases := []struct {
		name, body, message string
	}{
		{"invalid json", `{"query":`, "invalid JSON"},
		{"missing query", `{"variables":{}}`, "missing 'query'"},
		{"empty batch", `[]`, "empty batch"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := post(h, tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.JSONEq(t, `{"data":null,"errors":[{"message":"`+tc.message+`"}]}`, w.Body.String())
		})
	}

	req := httptest.NewRequest("POST", "/", strings.NewReader("query=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "unsupported Content-Type")
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, helloRuntime())
	req := httptest.NewRequest("PUT", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Allow"))
}

func TestGetQuery(t *testing.T) {
	h := newTestHandler(t, helloRuntime())
	q := url.Values{}
	q.Set("query", "query G($n: String!) { greet(name: $n) }")
	q.Set("variables", `{"n":"ann"}`)
	req := httptest.NewRequest("GET", "/graphql?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":{"greet":"hi ann"}}`, w.Body.String())
}

func TestGetRejectsMutation(t *testing.T) {
	rt := helloRuntime()
	h := newTestHandler(t, rt)
	req := httptest.NewRequest("GET", "/graphql?query="+url.QueryEscape("mutation { touch }"), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.JSONEq(t, `{"data":null,"errors":[{"message":"can only perform a mutation operation from a POST request"}]}`, w.Body.String())
	require.Empty(t, rt.GetCalls())
}

func TestGraphiQL(t *testing.T) {
	h := newTestHandler(t, helloRuntime())
	req := httptest.NewRequest("GET", "/graphql", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	require.Contains(t, w.Body.String(), "<title>GraphiQL</title>")
	require.Contains(t, w.Body.String(), `graphql";`)

	off := newTestHandler(t, helloRuntime(), WithGraphiQL(false))
	w = httptest.NewRecorder()
	off.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatch(t *testing.T) {
	h := newTestHandler(t, helloRuntime())
	w := post(h, `[{"query":"{ hello }"},{"query":"{ nope }"},{"query":"mutation { touch }"}]`)
	require.Equal(t, http.StatusOK, w.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 3)
	require.Equal(t, map[string]any{"hello": "world"}, got[0]["data"])
	require.Nil(t, got[1]["data"])
	require.NotEmpty(t, got[1]["errors"])
	require.Equal(t, map[string]any{"touch": float64(1)}, got[2]["data"])
}

func TestPretty(t *testing.T) {
	h := newTestHandler(t, helloRuntime(), WithPretty())
	w := post(h, `{"query":"{ hello }"}`)
	require.Equal(t, "{\n  \"data\": {\n    \"hello\": \"world\"\n  }\n}\n", w.Body.String())
}

func TestTimeoutAppliedToContext(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	var hasDeadline bool
	rt.SetResolver("Query", "hello", func(ctx context.Context, src any, args map[string]any) (any, error) {
		_, hasDeadline = ctx.Deadline()
		return "world", nil
	})

	post(newTestHandler(t, rt), `{"query":"{ hello }"}`)
	require.True(t, hasDeadline)

	post(newTestHandler(t, rt, WithTimeout(0)), `{"query":"{ hello }"}`)
	require.False(t, hasDeadline)
}

func TestEventsPublished(t *testing.T) {
	bus := eventbus.New()
	eventbus.Use(bus)
	t.Cleanup(func() { eventbus.Use(nil) })

	var seen []string
	var gqlFinish events.GraphQLFinish
	var httpFinish events.HTTPFinish
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPStart) { seen = append(seen, "http.start") })
	eventbus.Subscribe(func(ctx context.Context, e events.GraphQLStart) {
		seen = append(seen, "graphql.start:"+e.OperationType)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
		seen = append(seen, "graphql.finish")
		gqlFinish = e
	})
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		seen = append(seen, "http.finish")
		httpFinish = e
	})

	rt := helloRuntime()
	rt.SetResolver("Query", "hello", executor.NewMockErrorResolver(context.Canceled))
	h := newTestHandler(t, rt)
	post(h, `{"query":"query Q { hello }","operationName":"Q"}`)

	require.Equal(t, []string{"http.start", "graphql.start:query", "graphql.finish", "http.finish"}, seen)
	require.Equal(t, "Q", gqlFinish.OperationName)
	require.Len(t, gqlFinish.Errors, 1)
	require.Equal(t, http.StatusOK, httpFinish.Status)
}
