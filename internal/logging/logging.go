// Package logging builds the process logger and logs the events published
// on the event bus.
package logging

import (
	"context"
	"fmt"

	eventbus "github.com/hanpama/usergraph/internal/eventbus"
	events "github.com/hanpama/usergraph/internal/events"
	reqid "github.com/hanpama/usergraph/internal/reqid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr. format is "console" or "json".
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	var cfg zap.Config
	switch format {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("log format %q: want console or json", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// Subscribe logs requests, operations, data service calls and resolver
// panics. Every entry carries the request id when one is in the context.
func Subscribe(log *zap.Logger) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			with(ctx, log).Info("http request",
				zap.String("method", e.Request.Method),
				zap.String("path", e.Request.URL.Path),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration),
			)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			fields := []zap.Field{
				zap.String("operation", e.OperationName),
				zap.String("type", e.OperationType),
				zap.Duration("duration", e.Duration),
			}
			if len(e.Errors) > 0 {
				with(ctx, log).Warn("graphql operation", append(fields, zap.Errors("errors", e.Errors))...)
				return
			}
			with(ctx, log).Debug("graphql operation", fields...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.DataServiceFinish) {
			fields := []zap.Field{
				zap.String("method", e.Method),
				zap.String("path", e.Path),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration),
			}
			if e.Err != nil {
				with(ctx, log).Warn("data service call", append(fields, zap.Error(e.Err))...)
				return
			}
			with(ctx, log).Debug("data service call", fields...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.ResolverPanic) {
			with(ctx, log).Error("resolver panic",
				zap.String("field", e.ObjectType+"."+e.Field),
				zap.Any("value", e.Value),
			)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func with(ctx context.Context, log *zap.Logger) *zap.Logger {
	if id, ok := reqid.FromContext(ctx); ok {
		return log.With(zap.String("request_id", reqid.String(id)))
	}
	return log
}
