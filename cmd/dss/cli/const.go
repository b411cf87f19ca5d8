// Package cli provides the `dss` command-line client.
// This file contains command names and flags.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cli

import (
	"github.com/NVIDIA/dss/api/apc"
	"github.com/urfave/cli"
)

// commands
const (
	commandGet       = "get"
	commandPut       = "put"
	commandRemove    = "rm"
	commandLocate    = "locate"
	commandStat      = "stat"
	commandMD5       = "md5sum"
	commandSHA1      = "sha1sum"
	commandTest      = "test"
	commandPing      = "ping"
	commandStats     = "stats"
	commandLog       = "log"
	commandWait      = "wait"
	commandMakeLocal = "makelocal"
	commandRegister  = "register"
	commandRelease   = "release"
	commandTakeover  = "takeover"
	commandCacheFile = "cachefile"
	commandMirror    = "mirror"
	commandInit      = "init"
	commandTicket    = "ticket"
)

// argument placeholders in help messages
const (
	pathArgument     = "PATH"
	pathsArgument    = "PATH [PATH...]"
	getArgument      = "PATH [DST]"
	putArgument      = "SRC PATH"
	jobIDArgument    = "JOB_ID"
	bulkGetArgument  = "PATH [PATH...] --dir DIR"
	bulkPutArgument  = "SRC [SRC...] --prefix PREFIX"
	stdioPlaceholder = "-"
)

const (
	bulkNote     = " (parallel, one connection per worker)"
	getArgsUsage = getArgument + "\n   " + cliName + " " + commandGet + " " + bulkGetArgument + bulkNote
	putArgsUsage = putArgument + "\n   " + cliName + " " + commandPut + " " + bulkPutArgument + bulkNote
)

//
// global flags
//

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "configuration file (default: $DSS_CONFIG or ~/.config/dss/config.yaml)",
	}
	endpointFlag = cli.StringFlag{
		Name:  "endpoint,e",
		Usage: "DSS server `HOST[:PORT]` (overrides configuration and $DSS_ENDPOINT)",
	}
	plainFlag = cli.BoolFlag{
		Name:  "plain",
		Usage: "use plain HTTP instead of HTTPS",
	}
	standardFlag = cli.BoolFlag{
		Name:  "standard",
		Usage: "standard mode: send all actions as POST ?action=NAME",
	}
	userFlag = cli.StringFlag{
		Name:  "user,u",
		Usage: "DSS user name",
	}
	authorFlag = cli.StringFlag{
		Name:  "author",
		Usage: "value of the Author header",
	}
	ticketFileFlag = cli.StringFlag{
		Name:  "ticket-file",
		Usage: "ticket store pathname",
	}
	timeoutFlag = cli.DurationFlag{
		Name:  "timeout",
		Usage: "per-operation timeout, e.g. 30s, 5m (0: no timeout)",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose,v",
		Usage: "log protocol traces",
	}
	logFileFlag = cli.StringFlag{
		Name:  "log-file",
		Usage: "append log records to this file instead of stderr",
	}
	noColorFlag = cli.BoolFlag{
		Name:  "no-color",
		Usage: "disable colored output",
	}
	sessionStatsFlag = cli.BoolFlag{
		Name:  "session-stats",
		Usage: "print session counters (bytes, requests, connections) upon completion",
	}
	metricsFileFlag = cli.StringFlag{
		Name:  "metrics-file",
		Usage: "write Prometheus metrics (text format) to this file upon completion",
	}
)

//
// command flags
//

var (
	scopeFlag = cli.StringFlag{
		Name: "scope",
		Usage: "where to look for the file: " + apc.ScopeAny + ", " + apc.ScopeLocal + ", " +
			apc.ScopeRemote + ", or " + apc.ScopeExact,
	}
	checksumFlag = cli.BoolFlag{
		Name:  "checksum,c",
		Usage: "verify checksums: MD5 after download, read-back (MD5 and SHA1) after upload",
	}
	dirFlag = cli.StringFlag{
		Name:  "dir,d",
		Usage: "destination directory (enables multi-file download)",
	}
	prefixFlag = cli.StringFlag{
		Name:  "prefix,p",
		Usage: "destination path prefix (enables multi-file upload)",
	}
	workersFlag = cli.IntFlag{
		Name:  "workers,w",
		Usage: "number of parallel transfers, each with its own connection",
		Value: 4,
	}
	locateLocalFlag  = cli.BoolFlag{Name: "local", Usage: "only local servers"}
	locateRemoteFlag = cli.BoolFlag{Name: "remote", Usage: "only remote servers"}
	locateFileFlag   = cli.BoolFlag{Name: "file", Usage: "full file locations (server and path)"}

	headFlag      = cli.BoolFlag{Name: "head", Usage: "show the head of the file instead of its status"}
	headLocalFlag = cli.BoolFlag{Name: "head-local", Usage: "same as --head, local servers only"}
	sizeFlag      = cli.BoolFlag{Name: "size", Usage: "show the size only"}

	testCacheFlag = cli.BoolFlag{Name: "cache", Usage: "test whether the file is cached"}
	testStoreFlag = cli.BoolFlag{Name: "store", Usage: "test whether the file can be stored"}

	jsonFlag  = cli.BoolFlag{Name: "json,j", Usage: "json output"}
	asyncFlag = cli.BoolFlag{Name: "async", Usage: "submit all paths as a single asynchronous job"}
	uriFlag   = cli.StringFlag{Name: "uri", Usage: "source URI for indirect fetch"}
	forceFlag = cli.BoolFlag{Name: "force,f", Usage: "force re-initialization"}
)
