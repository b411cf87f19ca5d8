// Package tracing offers support for distributed tracing utilizing OpenTelemetry (OTEL).
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package tracing

import (
	"context"
	"errors"
	"net/http"

	"github.com/NVIDIA/dss/cmn"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var _ = Describe("Tracing", func() {
	const version = "3.1.0"

	var (
		exporter     *tracetest.InMemoryExporter
		origExporter = newExporter
	)

	BeforeEach(func() {
		exporter = tracetest.NewInMemoryExporter()
		newExporter = func(*cmn.TracingConf) (trace.SpanExporter, error) {
			return exporter, nil
		}
	})

	AfterEach(func() {
		Shutdown()
		newExporter = origExporter
	})

	It("should export operation spans when tracing enabled", func() {
		err := Init(&cmn.TracingConf{Enabled: true, ExporterEndpoint: "dummy", SamplerProbability: 1.0}, version)
		Expect(err).NotTo(HaveOccurred())
		Expect(IsEnabled()).To(BeTrue())

		ctx, span := StartSpan(context.Background(), "STORE", "/data/a.fits")
		AddEvent(ctx, "redirect")
		hdr := make(http.Header)
		Inject(ctx, hdr)
		EndSpan(span, errors.New("server busy"))

		Expect(hdr.Get("Traceparent")).NotTo(BeEmpty())
		Expect(tp.ForceFlush(context.Background())).To(Succeed())

		spans := exporter.GetSpans()
		Expect(spans).To(HaveLen(1))
		Expect(spans[0].Name).To(Equal("dss.STORE"))
		Expect(spans[0].Status.Code).To(Equal(codes.Error))
		Expect(spans[0].Events).To(HaveLen(2)) // redirect + recorded error

		var found bool
		for _, kv := range spans[0].Resource.Attributes() {
			if string(kv.Key) == "service.name" {
				Expect(kv.Value.AsString()).To(Equal(serviceName))
				found = true
			}
		}
		Expect(found).To(BeTrue())
	})

	It("should do nothing when tracing disabled", func() {
		Expect(Init(&cmn.TracingConf{Enabled: false}, version)).To(Succeed())
		Expect(IsEnabled()).To(BeFalse())

		ctx, span := StartSpan(context.Background(), "GET", "/data/a.fits")
		hdr := make(http.Header)
		Inject(ctx, hdr)
		EndSpan(span, nil)

		Expect(hdr).To(BeEmpty())
		Expect(exporter.GetSpans()).To(BeEmpty())
	})

	It("should require exporter endpoint", func() {
		Expect(Init(&cmn.TracingConf{Enabled: true}, version)).NotTo(Succeed())
	})
})
