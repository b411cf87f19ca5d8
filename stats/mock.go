// Package stats provides methods and functionality to register, track, and export
// client-side metrics that, for the most part, include "counter" and "latency" kinds.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import "time"

type TrackerMock struct{}

// interface guard
var _ Tracker = (*TrackerMock)(nil)

func NewTrackerMock() Tracker { return &TrackerMock{} }

func (*TrackerMock) Inc(string)                            {}
func (*TrackerMock) Add(string, int64)                     {}
func (*TrackerMock) IncWith(string, string)                {}
func (*TrackerMock) Observe(string, string, time.Duration) {}
func (*TrackerMock) Get(string) int64                      { return 0 }
