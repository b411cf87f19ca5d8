// Package cos provides common low-level types and utilities for all dss packages
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"

	"github.com/NVIDIA/dss/cmn/nlog"
)

const assertMsg = "assertion failed"

// NOTE: not to be used in the datapath
func Assertf(cond bool, f string, a ...any) {
	if !cond {
		AssertMsg(cond, fmt.Sprintf(f, a...))
	}
}

func Assert(cond bool) {
	if !cond {
		nlog.Flush()
		panic(assertMsg)
	}
}

func AssertMsg(cond bool, msg string) {
	if !cond {
		nlog.Flush()
		panic(assertMsg + ": " + msg)
	}
}
