// Package mono_test contains monotonic clock tests and benchmarks
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package mono_test

import (
	"testing"
	"time"

	"github.com/NVIDIA/dss/cmn/mono"
	"github.com/NVIDIA/dss/tools/tassert"
)

func TestSince(t *testing.T) {
	started := mono.NanoTime()
	time.Sleep(10 * time.Millisecond)
	elapsed := mono.Since(started)
	tassert.Errorf(t, elapsed >= 10*time.Millisecond, "elapsed %v", elapsed)
}

func BenchmarkMono(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			mono.Since(mono.NanoTime())
		}
	})
}

func BenchmarkStd(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			time.Since(time.Now())
		}
	})
}
