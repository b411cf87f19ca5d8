// Package session implements a single-connection, keep-alive capable HTTP(S) transport
// for the DSS protocol: one request in flight, fixed-size chunked send and receive.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package session

import (
	"errors"
)

// body shorter than declared, or premature connection close
var ErrTruncated = errors.New("transfer truncated")

// ErrLocalIO: failure to read the local source or write the local destination
type ErrLocalIO struct {
	Err error
	Op  string
}

func (e *ErrLocalIO) Error() string { return "local " + e.Op + " failed: " + e.Err.Error() }
func (e *ErrLocalIO) Unwrap() error { return e.Err }

func IsErrLocalIO(err error) bool {
	var e *ErrLocalIO
	return errors.As(err, &e)
}

func IsErrTruncated(err error) bool { return errors.Is(err, ErrTruncated) }
