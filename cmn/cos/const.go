// Package cos provides common low-level types and utilities for all dss packages
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import "time"

const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
)

// permissions
const (
	PermRWR       = 0o640
	PermRWRR      = 0o644
	configDirMode = 0o755
)

// suffix of a download that is still in progress (see `StagedFile`)
const SuffIncomplete = ".INCOMPLETE"

func NonZero[T int | int64 | time.Duration](v, dflt T) T {
	if v != 0 {
		return v
	}
	return dflt
}

// SHead returns a short prefix of a (long) checksum or token for logging
func SHead(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:16] + "..."
}

func Plural(num int) (s string) {
	if num != 1 {
		s = "s"
	}
	return
}
