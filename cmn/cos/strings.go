// Package cos provides common low-level types and utilities for all dss packages
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"strconv"
	"strings"
)

// ParseBool converts string to bool (case-insensitive):
//
//	y, yes, on -> true
//	n, no, off, <empty value> -> false
//
// strconv handles the following:
//
//	1, true, t -> true
//	0, false, f -> false
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "y", "yes", "on":
		return true, nil
	case "n", "no", "off", "":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func IsParseBool(s string) (yes bool) { yes, _ = ParseBool(s); return }

// SplitLines splits a text body on newlines, trims, and drops empty lines
func SplitLines(s string) []string {
	var (
		lines = strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
		out   = make([]string, 0, len(lines))
	)
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Left returns `left` unless empty
func Left(left, right string) string {
	if left != "" {
		return left
	}
	return right
}
