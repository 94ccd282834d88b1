package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goversion "github.com/caarlos0/go-version"
	"go.uber.org/zap"

	"github.com/hanpama/usergraph/internal/datasvc"
	"github.com/hanpama/usergraph/internal/eventbus"
	"github.com/hanpama/usergraph/internal/graph"
	"github.com/hanpama/usergraph/internal/introspection"
	"github.com/hanpama/usergraph/internal/logging"
	"github.com/hanpama/usergraph/internal/otel"
	"github.com/hanpama/usergraph/internal/schema"
	"github.com/hanpama/usergraph/internal/server"
	"github.com/hanpama/usergraph/internal/usergraph"
)

var (
	version   = "dev"
	commit    = ""
	treeState = ""
	date      = ""
	builtBy   = ""
)

const rootUsage = `usergraph - GraphQL API over the users and companies data service

USAGE:
  usergraph <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL server
  print-schema     Print the GraphQL schema in SDL
  version          Print build information
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -server.addr <addr>             HTTP listen address (default: :4000)
  -server.pretty                  Pretty-print JSON responses
  -server.timeout <duration>      Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body-bytes N        Request body limit in bytes (default: 1048576)
  -server.cors <origin>           Allow CORS from origin, or * for any. Repeatable
  -server.forward-header <name>   Forward HTTP header to the data service. Repeatable
  -graphql.introspection <bool>   Enable GraphQL introspection (default: true)
  -graphql.graphiql <bool>        Serve GraphiQL to browsers (default: true)
  -datasvc.url <url>              Data service base URL (default: http://localhost:3000)
  -datasvc.timeout <duration>     Data service call timeout (default: 3s)
  -datasvc.max-conns N            Max TCP conns to the data service (default: 16)
  -otel.endpoint <addr>           OTLP collector endpoint
  -otel.service <name>            OpenTelemetry service name (default: usergraph)
  -log.level <level>              debug, info, warn or error (default: info)
  -log.format <format>            console or json (default: console)
`

const printSchemaUsage = `print-schema FLAGS:
  -out <file>   Write SDL to file (default: stdout)
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return errors.New("missing command")
	}

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs, stderr)
	case "print-schema":
		return cmdPrintSchema(cmdArgs, stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, buildVersion().String())
		return nil
	case "help", "-h", "-help", "--help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	case "print-schema":
		fmt.Fprint(stdout, printSchemaUsage)
	case "version":
		fmt.Fprintln(stdout, "version: print build information")
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func buildVersion() goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails("usergraph", "GraphQL API over the users and companies data service", "https://github.com/hanpama/usergraph"),
		func(i *goversion.Info) {
			if commit != "" {
				i.GitCommit = commit
			}
			if version != "" {
				i.GitVersion = version
			}
			if treeState != "" {
				i.GitTreeState = treeState
			}
			if date != "" {
				i.BuildDate = date
			}
			if builtBy != "" {
				i.BuiltBy = builtBy
			}
		},
	)
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type serveConfig struct {
	addr           string
	pretty         bool
	timeout        time.Duration
	maxBodyBytes   int64
	cors           stringListFlag
	forwardHeaders stringListFlag
	introspection  bool
	graphiql       bool
	datasvcURL     string
	datasvcTimeout time.Duration
	datasvcConns   int
	otelEndpoint   string
	otelService    string
	logLevel       string
	logFormat      string
}

func parseServe(args []string) (*serveConfig, error) {
	c := &serveConfig{
		addr:           ":4000",
		timeout:        10 * time.Second,
		maxBodyBytes:   1 << 20,
		introspection:  true,
		graphiql:       true,
		datasvcURL:     "http://localhost:3000",
		datasvcTimeout: 3 * time.Second,
		datasvcConns:   16,
		otelService:    "usergraph",
		logLevel:       "info",
		logFormat:      "console",
	}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&c.addr, "server.addr", c.addr, "HTTP listen address")
	fs.BoolVar(&c.pretty, "server.pretty", c.pretty, "Pretty-print JSON responses")
	fs.DurationVar(&c.timeout, "server.timeout", c.timeout, "Per-request timeout")
	fs.Int64Var(&c.maxBodyBytes, "server.max-body-bytes", c.maxBodyBytes, "Request body limit")
	fs.Var(&c.cors, "server.cors", "Allowed CORS origin")
	fs.Var(&c.forwardHeaders, "server.forward-header", "Forward HTTP header to the data service")
	fs.BoolVar(&c.introspection, "graphql.introspection", c.introspection, "Enable GraphQL introspection")
	fs.BoolVar(&c.graphiql, "graphql.graphiql", c.graphiql, "Serve GraphiQL")
	fs.StringVar(&c.datasvcURL, "datasvc.url", c.datasvcURL, "Data service base URL")
	fs.DurationVar(&c.datasvcTimeout, "datasvc.timeout", c.datasvcTimeout, "Data service call timeout")
	fs.IntVar(&c.datasvcConns, "datasvc.max-conns", c.datasvcConns, "Max conns to the data service")
	fs.StringVar(&c.otelEndpoint, "otel.endpoint", c.otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&c.otelService, "otel.service", c.otelService, "OpenTelemetry service name")
	fs.StringVar(&c.logLevel, "log.level", c.logLevel, "Log level")
	fs.StringVar(&c.logFormat, "log.format", c.logFormat, "Log format")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	return c, nil
}

// buildGraph wires the data service client into the user graph.
func buildGraph(c *serveConfig, log *zap.Logger) (*graph.Graph, error) {
	client, err := datasvc.New(c.datasvcURL,
		datasvc.WithTimeout(c.datasvcTimeout),
		datasvc.WithMaxConnsPerHost(c.datasvcConns),
	)
	if err != nil {
		return nil, fmt.Errorf("data service: %w", err)
	}
	cfg := usergraph.New(client, usergraph.WithLogger(log)).Config()
	if c.introspection {
		cfg = introspection.Wrap(cfg)
	}
	g, err := graph.Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	return g, nil
}

func newHandler(c *serveConfig, g *graph.Graph) (http.Handler, error) {
	sopts := []server.Option{
		server.WithTimeout(c.timeout),
		server.WithMaxBodyBytes(c.maxBodyBytes),
		server.WithGraphiQL(c.graphiql),
	}
	if c.pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if len(c.cors) > 0 {
		sopts = append(sopts, server.WithCORS(c.cors...))
	}
	if len(c.forwardHeaders) > 0 {
		sopts = append(sopts, server.WithForwardHeaders(c.forwardHeaders...))
	}
	h, err := server.New(g.Runtime(), g.Schema(), sopts...)
	if err != nil {
		return nil, fmt.Errorf("server init: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	return mux, nil
}

func cmdServe(args []string, stderr io.Writer) error {
	c, err := parseServe(args)
	if err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}

	log, err := logging.New(c.logLevel, c.logFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	eventbus.Use(eventbus.New())
	defer logging.Subscribe(log)()
	shutdown, err := otel.Setup(c.otelEndpoint, c.otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	g, err := buildGraph(c, log)
	if err != nil {
		return err
	}
	h, err := newHandler(c, g)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: c.addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info("GraphQL server listening",
		zap.String("addr", c.addr),
		zap.String("datasvc", c.datasvcURL),
		zap.String("version", buildVersion().GitVersion),
	)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func cmdPrintSchema(args []string, stdout, stderr io.Writer) error {
	outFile := ""
	fs := flag.NewFlagSet("print-schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, printSchemaUsage)
		return err
	}

	g, err := buildGraph(&serveConfig{datasvcURL: "http://localhost:3000"}, zap.NewNop())
	if err != nil {
		return err
	}
	sdl := schema.Render(g.Schema())
	if outFile == "" {
		_, err := io.WriteString(stdout, sdl)
		return err
	}
	return os.WriteFile(outFile, []byte(sdl), 0o644)
}
