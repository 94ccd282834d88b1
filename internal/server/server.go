package server

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	eventbus "github.com/hanpama/usergraph/internal/eventbus"
	events "github.com/hanpama/usergraph/internal/events"
	executor "github.com/hanpama/usergraph/internal/executor"
	language "github.com/hanpama/usergraph/internal/language"
	reqid "github.com/hanpama/usergraph/internal/reqid"
	schema "github.com/hanpama/usergraph/internal/schema"
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/grpc/metadata"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses and validates requests, runs the executor, and formats responses
// as GraphQL-over-HTTP JSON.
type Handler struct {
	exec *executor.Executor
	sdl  *language.SchemaDefinition
	opt  Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// ForwardHeaders lists HTTP headers passed on to the data service.
	// Header names are case-insensitive. Default is none.
	ForwardHeaders []string

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithForwardHeaders(headers ...string) Option {
	return func(o *Options) { o.ForwardHeaders = headers }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

func WithGraphiQL(enable bool) Option { return func(o *Options) { o.GraphiQL = enable } }

// New creates a new GraphQL HTTP handler using the given runtime and schema.
// The schema is rendered and loaded once so every request can be validated
// before execution.
func New(runtime executor.Runtime, sch *schema.Schema, opts ...Option) (*Handler, error) {
	sdl, err := language.LoadSchema("schema.graphql", schema.Render(sch))
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	op := Options{Timeout: 10 * time.Second, GraphiQL: true}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{exec: executor.NewExecutor(runtime, sch), sdl: sdl, opt: op}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.NewContext(ctx)
	w.Header().Set(reqid.Header, reqid.String(rid))
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		writeJSON(w, status, errorResponse(&language.Error{Message: "method not allowed"}), h.opt.Pretty)
		return
	}

	// Serve GraphiQL IDE when enabled and the client expects HTML.
	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		if err := renderGraphiQL(w, r.URL.Path); err != nil {
			status = http.StatusInternalServerError
			http.Error(w, err.Error(), status)
		}
		return
	}

	ctx = metadata.NewOutgoingContext(ctx, h.forwarded(r, rid))

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse(berr), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch != nil {
		out := make([]any, len(batch))
		for i := range batch {
			out[i], _ = h.executeOne(ctx, r.Method, batch[i])
		}
		writeJSON(w, status, out, h.opt.Pretty)
		return
	}

	res, rejected := h.executeOne(ctx, r.Method, req)
	if rejected != 0 {
		status = rejected
	}
	writeJSON(w, status, res, h.opt.Pretty)
}

// forwarded collects the configured request headers into outgoing metadata.
func (h *Handler) forwarded(r *http.Request, rid int64) metadata.MD {
	md := metadata.MD{}
	if len(h.opt.ForwardHeaders) > 0 {
		allowed := make(map[string]struct{}, len(h.opt.ForwardHeaders))
		for _, hdr := range h.opt.ForwardHeaders {
			allowed[strings.ToLower(hdr)] = struct{}{}
		}
		for k, v := range r.Header {
			if _, ok := allowed[strings.ToLower(k)]; ok {
				md[strings.ToLower(k)] = v
			}
		}
	}
	md[reqid.Header] = []string{reqid.String(rid)}
	return md
}

// executeOne runs a single request. A non-zero status reports that the
// request was rejected before execution.
func (h *Handler) executeOne(ctx context.Context, method string, req GraphQLRequest) (any, int) {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		var ge *language.Error
		if errors.As(err, &ge) {
			return errorResponse(ge), http.StatusBadRequest
		}
		return errorResponse(&language.Error{Message: err.Error()}), http.StatusBadRequest
	}
	if errs := language.Validate(h.sdl, doc); len(errs) > 0 {
		return errorResponse(errs...), http.StatusBadRequest
	}

	opDef := doc.Operations.ForName(req.OperationName)
	if opDef == nil && req.OperationName == "" && len(doc.Operations) == 1 {
		opDef = doc.Operations[0]
	}
	opType := ""
	if opDef != nil {
		opType = string(opDef.Operation)
	}
	if method == http.MethodGet && opDef != nil && opDef.Operation != language.Query {
		return errorResponse(&language.Error{
			Message: fmt.Sprintf("can only perform a %s operation from a POST request", opType),
		}), http.StatusMethodNotAllowed
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	result := h.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, nil)
	errs := make([]error, len(result.Errors))
	for i := range result.Errors {
		errs[i] = result.Errors[i]
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errs,
		Duration:      time.Since(start),
	})
	return result, 0
}

// ------------------ Request parsing ------------------

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

func parseRequest(r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, *language.Error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return GraphQLRequest{}, nil, &language.Error{Message: "missing 'query'"}
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return GraphQLRequest{}, nil, &language.Error{Message: "invalid 'variables' JSON"}
			}
		}
		op := r.URL.Query().Get("operationName")
		return GraphQLRequest{Query: q, Variables: vars, OperationName: op}, nil, nil
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return GraphQLRequest{}, nil, &language.Error{Message: "unsupported Content-Type"}
	}
	defer r.Body.Close()
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return GraphQLRequest{}, nil, &language.Error{Message: "failed to read body"}
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return GraphQLRequest{}, nil, &language.Error{Message: errBodyTooLargeMessage}
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var arr []GraphQLRequest
		if err := json.Unmarshal(body, &arr); err != nil {
			return GraphQLRequest{}, nil, &language.Error{Message: "invalid JSON"}
		}
		if len(arr) == 0 {
			return GraphQLRequest{}, nil, &language.Error{Message: "empty batch"}
		}
		return GraphQLRequest{}, arr, nil
	}
	var req GraphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return GraphQLRequest{}, nil, &language.Error{Message: "invalid JSON"}
	}
	if req.Query == "" {
		return GraphQLRequest{}, nil, &language.Error{Message: "missing 'query'"}
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return req, nil, nil
}

// ------------------ Response formatting ------------------

type errorLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type requestError struct {
	Message    string          `json:"message"`
	Locations  []errorLocation `json:"locations,omitempty"`
	Extensions map[string]any  `json:"extensions,omitempty"`
}

// errorResult is a response for a request that never reached execution.
type errorResult struct {
	Data   any            `json:"data"`
	Errors []requestError `json:"errors"`
}

func errorResponse(errs ...*language.Error) errorResult {
	out := errorResult{Errors: make([]requestError, len(errs))}
	for i, e := range errs {
		se := requestError{Message: e.Message, Extensions: e.Extensions}
		for _, l := range e.Locations {
			se.Locations = append(se.Locations, errorLocation{Line: l.Line, Column: l.Column})
		}
		out.Errors[i] = se
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b, _ = json.Marshal(errorResponse(&language.Error{Message: err.Error()}))
	}
	if pretty {
		var buf bytes.Buffer
		if stdjson.Indent(&buf, b, "", "  ") == nil {
			b = buf.Bytes()
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

const errBodyTooLargeMessage = "body too large"

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func acceptsHTML(accept string) bool {
	if accept == "" {
		return false
	}
	for _, p := range strings.Split(accept, ",") {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "text/html") || p == "*/*" {
			return true
		}
	}
	return false
}
