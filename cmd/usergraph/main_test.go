package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hanpama/usergraph/internal/datasvc/datasvctest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"help"}, &stdout, &stderr))
	require.Equal(t, rootUsage, stdout.String())

	stdout.Reset()
	require.NoError(t, run([]string{"help", "serve"}, &stdout, &stderr))
	require.Equal(t, serveUsage, stdout.String())

	require.EqualError(t, run([]string{"help", "nope"}, &stdout, &stderr), `unknown help topic "nope"`)
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.EqualError(t, run(nil, &stdout, &stderr), "missing command")
	require.EqualError(t, run([]string{"launch"}, &stdout, &stderr), `unknown command "launch"`)
	require.Contains(t, stderr.String(), "COMMANDS:")
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"version"}, &stdout, &stderr))
	require.Contains(t, stdout.String(), "usergraph")
	require.Contains(t, stdout.String(), "dev")
}

func TestPrintSchema(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"print-schema"}, &stdout, &stderr))
	require.Contains(t, stdout.String(), "type RootQueryType {\n  user(id: String!): User\n  company(id: String!): Company\n}")
	require.NotContains(t, stdout.String(), "__schema")

	out := filepath.Join(t.TempDir(), "schema.graphql")
	require.NoError(t, run([]string{"print-schema", "-out", out}, &stdout, &stderr))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, stdout.String(), string(b))
}

func TestParseServe(t *testing.T) {
	c, err := parseServe(nil)
	require.NoError(t, err)
	require.Equal(t, ":4000", c.addr)
	require.Equal(t, 10*time.Second, c.timeout)
	require.Equal(t, 3*time.Second, c.datasvcTimeout)
	require.Equal(t, "http://localhost:3000", c.datasvcURL)
	require.True(t, c.introspection)
	require.True(t, c.graphiql)

	c, err = parseServe([]string{
		"-server.addr", ":9000",
		"-server.cors", "http://a.test", "-server.cors", "http://b.test",
		"-server.forward-header", "Authorization",
		"-graphql.introspection=false",
		"-datasvc.url", "http://data:3000",
		"-datasvc.max-conns", "4",
		"-log.format", "json",
	})
	require.NoError(t, err)
	require.Equal(t, ":9000", c.addr)
	require.Equal(t, stringListFlag{"http://a.test", "http://b.test"}, c.cors)
	require.Equal(t, stringListFlag{"Authorization"}, c.forwardHeaders)
	require.False(t, c.introspection)
	require.Equal(t, "http://data:3000", c.datasvcURL)
	require.Equal(t, 4, c.datasvcConns)
	require.Equal(t, "json", c.logFormat)

	_, err = parseServe([]string{"-server.timeout", "soon"})
	require.Error(t, err)
	_, err = parseServe([]string{"extra"})
	require.EqualError(t, err, `unexpected argument "extra"`)
}

func TestServeRejectsBadConfig(t *testing.T) {
	var stderr bytes.Buffer
	require.Error(t, cmdServe([]string{"-log.level", "loud"}, &stderr))
	require.Error(t, cmdServe([]string{"-nope"}, &stderr))
	require.Contains(t, stderr.String(), "serve FLAGS:")
}

func TestHandlerServesUserGraph(t *testing.T) {
	backend := datasvctest.NewServer(datasvctest.Fixture())
	t.Cleanup(backend.Close)

	for _, introspect := range []bool{true, false} {
		c, err := parseServe([]string{"-datasvc.url", backend.URL})
		require.NoError(t, err)
		c.introspection = introspect
		g, err := buildGraph(c, zap.NewNop())
		require.NoError(t, err)
		h, err := newHandler(c, g)
		require.NoError(t, err)

		post := func(body string) (int, string) {
			req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			return w.Code, w.Body.String()
		}

		code, body := post(`{"query":"{ user(id: \"40\") { firstName company { name } } }"}`)
		require.Equal(t, http.StatusOK, code)
		require.JSONEq(t, `{"data":{"user":{"firstName":"Alex","company":{"name":"Google"}}}}`, body)

		_, body = post(`{"query":"{ __schema { queryType { name } } }"}`)
		if introspect {
			require.JSONEq(t, `{"data":{"__schema":{"queryType":{"name":"RootQueryType"}}}}`, body)
		} else {
			require.Contains(t, body, `Cannot query field '__schema' on type 'RootQueryType'`)
		}
	}
}
