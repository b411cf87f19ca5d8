// Package nlog - dss logger: leveled, timestamped, written to stderr or a file
/*
 * Copyright (c) 2023-2026, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import "flag"

func InitFlags(flset *flag.FlagSet) {
	flset.BoolVar(&toStderr, "logtostderr", true, "log to standard error instead of a file")
	flset.BoolVar(&verbose, "v", false, "verbose: include protocol traces")
}

func Infoln(args ...any)                  { log(sevInfo, "", args...) }
func Infof(format string, args ...any)    { log(sevInfo, format, args...) }
func Warningln(args ...any)               { log(sevWarn, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, format, args...) }
func Errorln(args ...any)                 { log(sevErr, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, format, args...) }

// protocol traces, verbose only
func Debugf(format string, args ...any) {
	if verbose {
		log(sevDebug, format, args...)
	}
}

func Verbose() bool     { return verbose }
func SetVerbose(v bool) { verbose = v; setLevel() }
func SetTitle(s string) { title = s }
func Flush()            { flush() }
