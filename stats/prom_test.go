// Package stats provides methods and functionality to register, track, and export
// client-side metrics that, for the most part, include "counter" and "latency" kinds.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats_test

import (
	"testing"
	"time"

	"github.com/NVIDIA/dss/stats"
	"github.com/NVIDIA/dss/tools/tassert"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := stats.NewProm(reg)
	tassert.CheckFatal(t, err)

	p.Add(stats.SentSize, 100)
	p.Add(stats.SentSize, 28)
	p.Inc(stats.Redirects)
	p.IncWith(stats.Requests, "STORE")
	p.IncWith(stats.Requests, "STORE")
	p.IncWith(stats.Requests, "GET")
	p.Observe(stats.Latency, "GET", 20*time.Millisecond)

	tassert.Errorf(t, p.Get(stats.SentSize) == 128, "sent %d", p.Get(stats.SentSize))
	tassert.Errorf(t, p.Get(stats.Redirects) == 1, "redirects %d", p.Get(stats.Redirects))
	tassert.Errorf(t, p.Get(stats.Requests) == 3, "requests %d", p.Get(stats.Requests))
	tassert.Errorf(t, p.Get(stats.Latency) == 1, "latency samples %d", p.Get(stats.Latency))

	n, err := testutil.GatherAndCount(reg, "dss_req_n")
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, n == 2, "expecting 2 labeled series, got %d", n)

	n, err = testutil.GatherAndCount(reg, "dss_op_seconds")
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, n == 1, "expecting 1 histogram series, got %d", n)
}

func TestPromPrivateRegistries(t *testing.T) {
	// two trackers, two private registries: no duplicate registration
	_, err := stats.NewProm(nil)
	tassert.CheckFatal(t, err)
	_, err = stats.NewProm(nil)
	tassert.CheckFatal(t, err)

	// same registry twice: must fail
	reg := prometheus.NewRegistry()
	_, err = stats.NewProm(reg)
	tassert.CheckFatal(t, err)
	_, err = stats.NewProm(reg)
	tassert.Fatal(t, err != nil, "expecting duplicate registration error")
}
