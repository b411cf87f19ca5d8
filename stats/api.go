// Package stats provides methods and functionality to register, track, and export
// client-side metrics that, for the most part, include "counter" and "latency" kinds.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import "time"

// metric names
const (
	Requests    = "req.n"      // by action
	Errors      = "err.n"      // ditto
	SentSize    = "sent.size"  // bytes on the wire, including retransmits
	RecvSize    = "recv.size"  // ditto
	Connects    = "connect.n"  // new connections (keep-alive misses)
	Redirects   = "redirect.n" // 301, 302, 303, 307
	BusyRetries = "busy.n"     // 503 followed by sleep
	JobPolls    = "jobpoll.n"
	Latency     = "op.ns" // operation latency, by action
)

const actionLabel = "action"

type Tracker interface {
	Inc(name string)
	Add(name string, val int64)
	IncWith(name, action string)
	Observe(name, action string, d time.Duration)
	Get(name string) int64
}
