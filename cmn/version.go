// Package cmn provides common constants, types, and utilities for DSS clients
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

const (
	ClientName    = "dss-go"
	ClientVersion = "3.1.0"
)

// set by build flags (-ldflags "-X github.com/NVIDIA/dss/cmn.GitHash=...")
var GitHash string

func VersionString() string {
	if GitHash == "" {
		return ClientVersion
	}
	return ClientVersion + "." + GitHash
}
