// Package cmn provides common constants, types, and utilities for DSS clients
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

const redacted = "**redacted**"

// headers never logged or returned in clear
var secretHeaders = []string{"Authorization", "Cookie", "Set-Cookie"}

type (
	// ErrOp is returned by mutating operations that fail terminally
	ErrOp struct {
		Host    string
		Port    int
		DSTID   string
		Action  string
		Path    string
		Message string
		ReqHdr  http.Header // sanitized
		RespHdr http.Header // ditto
		Status  int
		cause   error
	}
)

func NewErrOp(action, path string, status int, cause error) *ErrOp {
	return &ErrOp{Action: action, Path: path, Status: status, cause: cause}
}

func (e *ErrOp) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Action)
	if e.Path != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Path)
	}
	fmt.Fprintf(&sb, " failed [%s:%d, dstid %s", e.Host, e.Port, e.DSTID)
	if e.Status != 0 {
		fmt.Fprintf(&sb, ", status %d", e.Status)
	}
	sb.WriteString("]")
	switch {
	case e.Message != "":
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	case e.cause != nil:
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

func (e *ErrOp) Unwrap() error { return e.cause }

// request and response headers, one per line
func (e *ErrOp) Details() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	writeHdr(&sb, "request", e.ReqHdr)
	writeHdr(&sb, "response", e.RespHdr)
	return sb.String()
}

func writeHdr(sb *strings.Builder, tag string, hdr http.Header) {
	if len(hdr) == 0 {
		return
	}
	keys := make([]string, 0, len(hdr))
	for k := range hdr {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(sb, "\n%s:", tag)
	for _, k := range keys {
		fmt.Fprintf(sb, "\n  %s: %s", k, strings.Join(hdr[k], ", "))
	}
}

func IsErrOp(err error) bool {
	var e *ErrOp
	return errors.As(err, &e)
}

func AsErrOp(err error) (*ErrOp, bool) {
	var e *ErrOp
	ok := errors.As(err, &e)
	return e, ok
}

// StatusOf returns HTTP status carried by ErrOp, or 0
func StatusOf(err error) int {
	if e, ok := AsErrOp(err); ok {
		return e.Status
	}
	return 0
}

// SanitizeHeader returns a copy of the header with secrets redacted
func SanitizeHeader(hdr http.Header) http.Header {
	if hdr == nil {
		return nil
	}
	out := hdr.Clone()
	for _, k := range secretHeaders {
		if _, ok := out[k]; ok {
			out[k] = []string{redacted}
		}
	}
	return out
}
