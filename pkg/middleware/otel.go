package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vmodel/pkg/model"
)

const defaultTracerName = "vmodel"

// OTelConfig configures the OpenTelemetry interceptor.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "vmodel").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// IncludeArgs records the number of action arguments.
	IncludeArgs bool

	// Filter decides which calls are traced. If nil, all are.
	Filter func(call model.Call) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(call model.Call) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry interceptor.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeArgs enables recording the argument count.
func WithIncludeArgs(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeArgs = include
	}
}

// WithCallFilter sets a filter function for calls.
func WithCallFilter(filter func(call model.Call) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(call model.Call) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry returns an interceptor that runs every action inside a span
// named "<model>.<action>". The span's context is passed to the action, so
// spans the action starts become its children.
//
// Example:
//
//	m := model.New(cart, model.WithInterceptors(
//	    middleware.OpenTelemetry(middleware.WithTracerName("shop")),
//	))
//
// Configure the global tracer provider in main before creating models:
//
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) model.Interceptor {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	tracer := config.TracerProvider.Tracer(config.TracerName)

	return func(ctx context.Context, call model.Call, next func(context.Context) error) error {
		if config.Filter != nil && !config.Filter(call) {
			return next(ctx)
		}

		attrs := []attribute.KeyValue{
			attribute.String("vmodel.model", call.Model),
			attribute.String("vmodel.action", call.Action),
			attribute.Bool("vmodel.async", call.Async),
		}
		if config.IncludeArgs {
			attrs = append(attrs, attribute.Int("vmodel.arg_count", len(call.Args)))
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(call)...)
		}

		spanCtx, span := tracer.Start(ctx, fmt.Sprintf("%s.%s", call.Model, call.Action),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		err := next(spanCtx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	}
}
