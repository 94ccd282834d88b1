// Package datasvc is the HTTP client for the REST data service that stores
// users and companies.
package datasvc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/hanpama/usergraph/internal/eventbus"
	"github.com/hanpama/usergraph/internal/events"
	"github.com/hanpama/usergraph/internal/reqid"
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/grpc/metadata"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var callSeq atomic.Uint64

// Client issues JSON requests against one base URL. It is safe for
// concurrent use.
type Client struct {
	base *url.URL
	opts *Options
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("datasvc: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("datasvc: base url %q must be http or https", baseURL)
	}
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: o.MaxConnsPerHost,
			MaxConnsPerHost:     o.MaxConnsPerHost,
			IdleConnTimeout:     90 * time.Second,
		}}
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return &Client{base: u, opts: o}, nil
}

// Target returns the base URL requests are sent to.
func (c *Client) Target() string { return c.base.String() }

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends one request. body, when non-nil, is encoded as JSON; a 2xx
// response body is decoded into out when out is non-nil. Non-2xx responses
// yield *StatusError, everything else that fails yields *CallError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (err error) {
	if _, ok := ctx.Deadline(); !ok && c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return &CallError{Method: method, Path: path, Err: err}
	}

	call := callSeq.Add(1)
	start := time.Now()
	status := 0
	eventbus.Publish(ctx, events.DataServiceStart{Call: call, Method: method, Path: path, Target: c.Target()})
	defer func() {
		eventbus.Publish(ctx, events.DataServiceFinish{
			Call:     call,
			Method:   method,
			Path:     path,
			Target:   c.Target(),
			Status:   status,
			Err:      err,
			Duration: time.Since(start),
		})
	}()

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return &CallError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBodyBytes+1))
	if err != nil {
		return &CallError{Method: method, Path: path, Err: err}
	}
	if int64(len(data)) > c.opts.MaxBodyBytes {
		return &CallError{Method: method, Path: path, Err: fmt.Errorf("response body exceeds %d bytes", c.opts.MaxBodyBytes)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: snippet(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &CallError{Method: method, Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	for k, vs := range c.opts.Header {
		req.Header[k] = append([]string(nil), vs...)
	}
	// Headers the server chose to forward travel as outgoing metadata.
	if md, ok := metadata.FromOutgoingContext(ctx); ok {
		for k, vs := range md {
			req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
		}
	}
	if id, ok := reqid.FromContext(ctx); ok {
		req.Header.Set(reqid.Header, reqid.String(id))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func snippet(b []byte) string {
	const max = 256
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
