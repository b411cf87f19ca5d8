//go:build debug

// Package debug provides debug utilities
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import (
	"fmt"
	"sync"

	"github.com/NVIDIA/dss/cmn/nlog"
)

func ON() bool { return true }

func Infof(f string, a ...any) {
	nlog.Infof("[DEBUG] "+f, a...)
}

func Func(f func()) { f() }

func _panic(a ...any) {
	msg := "DEBUG PANIC: "
	if len(a) > 0 {
		msg += fmt.Sprint(a...)
	}
	nlog.Errorln(msg)
	nlog.Flush()
	panic(msg)
}

func Assert(cond bool, a ...any) {
	if !cond {
		_panic(a...)
	}
}

func AssertFunc(f func() bool, a ...any) {
	if !f() {
		_panic(a...)
	}
}

func AssertNoErr(err error) {
	if err != nil {
		_panic(err)
	}
}

func Assertf(cond bool, f string, a ...any) {
	if !cond {
		_panic(fmt.Sprintf(f, a...))
	}
}

func AssertMutexLocked(m *sync.Mutex) {
	if m.TryLock() {
		m.Unlock()
		_panic("mutex not locked")
	}
}
