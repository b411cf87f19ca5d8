// Package stats provides methods and functionality to register, track, and export
// client-side metrics that, for the most part, include "counter" and "latency" kinds.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"strings"
	ratomic "sync/atomic"
	"time"

	"github.com/NVIDIA/dss/cmn/debug"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dss"

type (
	iprom interface {
		inc(parent *statsValue)
		add(parent *statsValue, val int64)
		incWith(parent *statsValue, action string)
		observe(parent *statsValue, action string, val float64)
		collector() prometheus.Collector
	}

	counter    struct{ prometheus.Counter }
	counterVec struct{ *prometheus.CounterVec }
	histVec    struct{ *prometheus.HistogramVec }

	statsValue struct {
		iprom
		kind  string
		Value int64
	}

	// Prom tracks client metrics in memory and exports them via Prometheus registry
	Prom struct {
		tracker map[string]*statsValue
		reg     prometheus.Registerer
	}
)

// interface guard
var (
	_ iprom = (*counter)(nil)
	_ iprom = (*counterVec)(nil)
	_ iprom = (*histVec)(nil)

	_ Tracker = (*Prom)(nil)
)

func (v counter) inc(parent *statsValue) {
	ratomic.AddInt64(&parent.Value, 1)
	v.Inc()
}

func (v counter) add(parent *statsValue, val int64) {
	ratomic.AddInt64(&parent.Value, val)
	v.Add(float64(val))
}

func (v counter) collector() prometheus.Collector { return v.Counter }

func (v counterVec) incWith(parent *statsValue, action string) {
	ratomic.AddInt64(&parent.Value, 1)
	v.WithLabelValues(action).Inc()
}

func (v counterVec) collector() prometheus.Collector { return v.CounterVec }

func (v histVec) observe(parent *statsValue, action string, val float64) {
	ratomic.AddInt64(&parent.Value, 1)
	v.WithLabelValues(action).Observe(val)
}

func (v histVec) collector() prometheus.Collector { return v.HistogramVec }

// illegal impl. placeholders

func (counter) incWith(*statsValue, string)             { debug.Assert(false) }
func (counter) observe(*statsValue, string, float64)    { debug.Assert(false) }
func (counterVec) inc(*statsValue)                      { debug.Assert(false) }
func (counterVec) add(*statsValue, int64)               { debug.Assert(false) }
func (counterVec) observe(*statsValue, string, float64) { debug.Assert(false) }
func (histVec) inc(*statsValue)                         { debug.Assert(false) }
func (histVec) add(*statsValue, int64)                  { debug.Assert(false) }
func (histVec) incWith(*statsValue, string)             { debug.Assert(false) }

//////////
// Prom //
//////////

// NewProm registers all metrics with `reg`; nil means a private registry
// (so that multiple clients in the same process do not collide)
func NewProm(reg prometheus.Registerer) (*Prom, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	p := &Prom{tracker: make(map[string]*statsValue, 16), reg: reg}
	p.regCounter(SentSize, "total size (bytes) sent")
	p.regCounter(RecvSize, "total size (bytes) received")
	p.regCounter(Connects, "total number of new connections")
	p.regCounter(Redirects, "total number of redirects")
	p.regCounter(BusyRetries, "total number of busy (503) retries")
	p.regCounter(JobPolls, "total number of job status polls")
	p.regCounterVec(Requests, "total number of requests")
	p.regCounterVec(Errors, "total number of failed operations")
	p.regHistVec(Latency, "operation latency (seconds)")

	for _, v := range p.tracker {
		if err := reg.Register(v.collector()); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prom) Registerer() prometheus.Registerer { return p.reg }

func (p *Prom) regCounter(name, help string) {
	c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: promName(name), Help: help})
	p.tracker[name] = &statsValue{iprom: counter{c}, kind: "counter"}
}

func (p *Prom) regCounterVec(name, help string) {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: promName(name), Help: help},
		[]string{actionLabel})
	p.tracker[name] = &statsValue{iprom: counterVec{c}, kind: "counter"}
}

func (p *Prom) regHistVec(name, help string) {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      promName(name),
		Help:      help,
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{actionLabel})
	p.tracker[name] = &statsValue{iprom: histVec{h}, kind: "latency"}
}

// e.g. `sent.size` => `sent_size`; `op.ns` => `op_seconds`
func promName(name string) string {
	if n, ok := strings.CutSuffix(name, ".ns"); ok {
		name = n + ".seconds"
	}
	return strings.ReplaceAll(name, ".", "_")
}

func (p *Prom) get(name string) *statsValue {
	v, ok := p.tracker[name]
	debug.Assertf(ok, "invalid metric name %q", name)
	return v
}

func (p *Prom) Inc(name string) {
	if v := p.get(name); v != nil {
		v.inc(v)
	}
}

func (p *Prom) Add(name string, val int64) {
	if v := p.get(name); v != nil {
		v.add(v, val)
	}
}

func (p *Prom) IncWith(name, action string) {
	if v := p.get(name); v != nil {
		v.incWith(v, action)
	}
}

func (p *Prom) Observe(name, action string, d time.Duration) {
	if v := p.get(name); v != nil {
		v.observe(v, action, d.Seconds())
	}
}

// for latencies, the number of samples
func (p *Prom) Get(name string) int64 {
	if v := p.get(name); v != nil {
		return ratomic.LoadInt64(&v.Value)
	}
	return 0
}
