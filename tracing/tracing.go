// Package tracing offers support for distributed tracing utilizing OpenTelemetry (OTEL).
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package tracing

import (
	"context"
	"net/http"
	"os"

	"github.com/NVIDIA/dss/cmn"
	"github.com/NVIDIA/dss/cmn/nlog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	tracerName  = "github.com/NVIDIA/dss"
	serviceName = "dss-client"
)

var (
	tp *trace.TracerProvider

	propagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
)

var newExporter = func(conf *cmn.TracingConf) (trace.SpanExporter, error) {
	options := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(conf.ExporterEndpoint),
		otlptracegrpc.WithRetry(otlptracegrpc.RetryConfig{Enabled: true}),
	}
	if conf.Insecure {
		options = append(options, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(context.Background(), options...)
}

// newResource returns a resource describing this application.
func newResource(version string) *resource.Resource {
	host, _ := os.Hostname()
	r, _ := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", serviceName),
			attribute.String("version", version),
			attribute.String("host", host),
		),
	)
	return r
}

func IsEnabled() bool { return tp != nil }

// Init is a no-op when tracing is disabled
func Init(conf *cmn.TracingConf, version string) error {
	if conf == nil || !conf.Enabled {
		return nil
	}
	if conf.ExporterEndpoint == "" {
		return errors.New("tracing: exporter endpoint can't be empty")
	}
	exp, err := newExporter(conf)
	if err != nil {
		return errors.Wrap(err, "tracing: failed to create exporter")
	}
	tp = trace.NewTracerProvider(
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(conf.SamplerProbability))),
		trace.WithBatcher(exp),
		trace.WithResource(newResource(version)),
	)
	otel.SetTextMapPropagator(propagator)
	otel.SetTracerProvider(tp)
	nlog.Infof("tracing enabled: exporting to %s (sampling %.2f)", conf.ExporterEndpoint, conf.SamplerProbability)
	return nil
}

func Shutdown() {
	if tp == nil {
		return
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		nlog.Errorln("tracing shutdown:", err)
	}
	tp = nil
}

func tracer() oteltrace.Tracer {
	if tp == nil {
		return noop.NewTracerProvider().Tracer(tracerName)
	}
	return tp.Tracer(tracerName)
}

// StartSpan starts a client span per DSS operation
func StartSpan(ctx context.Context, action, path string) (context.Context, oteltrace.Span) {
	return tracer().Start(ctx, "dss."+action,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(attribute.String("dss.action", action), attribute.String("dss.path", path)),
	)
}

// AddEvent records an intermediate step (redirect, busy retry, job poll)
func AddEvent(ctx context.Context, name string, kvs ...attribute.KeyValue) {
	oteltrace.SpanFromContext(ctx).AddEvent(name, oteltrace.WithAttributes(kvs...))
}

func EndSpan(span oteltrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Inject propagates the span context into outbound request headers
func Inject(ctx context.Context, hdr http.Header) {
	if tp == nil {
		return
	}
	propagator.Inject(ctx, propagation.HeaderCarrier(hdr))
}
