package datasvc

import (
	"net/http"
	"time"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Options configures the data service client.
//
// Defaults:
// - HTTPClient:   a dedicated *http.Client with pooled keep-alive connections
// - Timeout:      3s (used only if the incoming context has no deadline)
// - MaxBodyBytes: 4 MiB per response
// - MaxConnsPerHost: 16, applied to the default HTTPClient only
type Options struct {
	HTTPClient      Doer
	Timeout         time.Duration
	MaxBodyBytes    int64
	MaxConnsPerHost int
	Header          http.Header
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Timeout:         3 * time.Second,
		MaxBodyBytes:    4 << 20,
		MaxConnsPerHost: 16,
		Header:          http.Header{},
	}
}

func WithHTTPClient(c Doer) Option        { return func(o *Options) { o.HTTPClient = c } }
func WithTimeout(d time.Duration) Option  { return func(o *Options) { o.Timeout = d } }
func WithMaxBodyBytes(n int64) Option     { return func(o *Options) { o.MaxBodyBytes = n } }
func WithMaxConnsPerHost(n int) Option    { return func(o *Options) { o.MaxConnsPerHost = n } }
func WithHeader(key, value string) Option { return func(o *Options) { o.Header.Add(key, value) } }
