// Package main for the `dss` command-line client
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NVIDIA/dss/cmd/dss/cli"
	"github.com/NVIDIA/dss/cmn"
)

var build string

func main() {
	// interrupt cancels the operation in progress (staged downloads are removed)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	version := cmn.VersionString()
	if build != "" {
		version += "." + build
	}
	err := cli.Run(ctx, version, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.ExitCode(err))
}
