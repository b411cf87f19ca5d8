// Package cli provides the `dss` command-line client.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/NVIDIA/dss/api"
	"github.com/NVIDIA/dss/api/authn"
	"github.com/NVIDIA/dss/api/env"
	"github.com/NVIDIA/dss/cmn"
	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/NVIDIA/dss/cmn/nlog"
	"github.com/NVIDIA/dss/stats"
	"github.com/NVIDIA/dss/tracing"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
)

const (
	cliName  = "dss"
	cliDescr = `Transfers files to and from DSS servers, runs and monitors server-side jobs.
   Server, credentials, and tunables come from ~/.config/dss/config.yaml ($DSS_CONFIG),
   environment ($DSS_ENDPOINT, $DSS_USER, ...), and the global options below, in that order.`
)

type (
	acli struct {
		app       *cli.App
		ctx       context.Context
		outWriter io.Writer
		errWriter io.Writer
		version   string

		// initialized upon the first command that needs a server (see `connect`)
		config  *cmn.Config
		tickets *authn.TicketStore
		reg     *prometheus.Registry
		prom    *stats.Prom
		client  *api.Client
		clients []*api.Client // bulk transfers
	}
)

// color
var (
	fred   = color.New(color.FgHiRed).SprintFunc()
	fcyan  = color.New(color.FgHiCyan).SprintFunc()
	fgreen = color.New(color.FgHiGreen).SprintFunc()
)

// main method
func Run(ctx context.Context, version string, args []string) error {
	a := newACLI(ctx, version, os.Stdout, os.Stderr)
	return a.run(args)
}

// ExitCode maps the error returned by `Run` to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *errUsage
	if errors.As(err, &e) {
		return 1
	}
	return api.ResultOf(err).Code()
}

func newACLI(ctx context.Context, version string, out, errw io.Writer) *acli {
	a := &acli{app: cli.NewApp(), ctx: ctx, outWriter: out, errWriter: errw, version: version}
	a.init()
	return a
}

func (a *acli) run(args []string) error {
	err := a.app.Run(args)
	return a.formatErr(err)
}

func redErr(err error) error {
	msg := strings.TrimRight(err.Error(), "\n")
	return &errFormatted{msg: fred("Error: ") + msg, cause: err}
}

func (a *acli) formatErr(err error) error {
	if err == nil {
		return nil
	}
	var e *errUsage
	if errors.As(err, &e) {
		return err
	}
	if hint := a.hint(err); hint != "" {
		return &errFormatted{msg: fred("Error: ") + hint, cause: err}
	}
	// verbose: include (sanitized) request and response headers
	if eop, ok := cmn.AsErrOp(err); ok && nlog.Verbose() {
		return &errFormatted{msg: fred("Error: ") + eop.Details(), cause: err}
	}
	return redErr(err)
}

func (a *acli) hint(err error) string {
	var server string
	if a.config != nil {
		server = fmt.Sprintf(" at %s:%d", a.config.Server.Host, a.config.Server.Port)
	}
	switch {
	case cos.IsRetriableConnErr(err), cos.IsErrDNSLookup(err):
		return fmt.Sprintf("DSS server cannot be reached%s.\n"+
			"Make sure that %s, %s, or server.host in the config point to a running server (%v)",
			server, fcyan("--"+fl1n(endpointFlag.Name)), fcyan("$"+env.DSS.Endpoint), err)
	case cos.IsClientTimeout(err):
		return fmt.Sprintf("DSS server%s timed out (%v).\nConsider increasing %s", server, err, fcyan("--"+fl1n(timeoutFlag.Name)))
	case cos.IsErrTLS(err):
		return fmt.Sprintf("TLS handshake with DSS server%s failed (%v).\n"+
			"Use %s for a plain connection, or set tls.skip_verify (%s)", server, err,
			fcyan("--"+fl1n(plainFlag.Name)), fcyan("$"+env.DSS.SkipVerifyCrt))
	case cos.IsErrOOS(err):
		return fmt.Sprintf("no space left on the local device: %v", err)
	}
	return ""
}

func (a *acli) onBefore(c *cli.Context) error {
	// the library disables coloring when stdout is not a terminal;
	// here we only ever disable it
	if flagIsSet(c, noColorFlag) {
		color.NoColor = true
	}
	if flagIsSet(c, verboseFlag) {
		nlog.SetVerbose(true)
	}
	if fname := parseStrFlag(c, logFileFlag); fname != "" {
		if err := nlog.SetLogFile(fname); err != nil {
			return fmt.Errorf("failed to open log file %q: %v", fname, err)
		}
	}
	return nil
}

// runs after any command, including failed ones
func (a *acli) onAfter(c *cli.Context) error {
	defer nlog.Flush()
	if a.client != nil && flagIsSet(c, sessionStatsFlag) {
		s := a.client.Stats()
		fmt.Fprintf(a.errWriter, "%s sent %d, received %d bytes; %d request%s, %d connection%s\n",
			fcyan("Session:"), s.BytesSent, s.BytesRecv, s.Requests, plural(s.Requests), s.Connects, plural(s.Connects))
	}
	for _, client := range a.clients {
		client.Close()
	}
	if a.client != nil {
		a.client.Close()
	}
	if a.tickets != nil {
		if err := a.tickets.Close(); err != nil {
			nlog.Warningln("failed to close", a.tickets.String()+":", err)
		}
	}
	tracing.Shutdown()
	if fname := parseStrFlag(c, metricsFileFlag); fname != "" && a.reg != nil {
		if err := prometheus.WriteToTextfile(fname, a.reg); err != nil {
			return fmt.Errorf("failed to write metrics to %q: %v", fname, err)
		}
	}
	return nil
}

func (a *acli) init() {
	app := a.app

	app.Name = cliName
	app.Usage = "DSS client: transfer files to and from DSS servers"
	app.Version = a.version
	app.HideHelp = true
	app.Flags = []cli.Flag{
		cli.HelpFlag,
		configFlag,
		endpointFlag,
		plainFlag,
		standardFlag,
		userFlag,
		authorFlag,
		ticketFileFlag,
		timeoutFlag,
		verboseFlag,
		logFileFlag,
		noColorFlag,
		sessionStatsFlag,
		metricsFileFlag,
	}
	app.Action = defaultAction
	app.OnUsageError = incorrectUsageHandler
	app.Writer = a.outWriter
	app.ErrWriter = a.errWriter
	app.Before = a.onBefore
	app.After = a.onAfter
	app.Description = cliDescr
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version, V",
		Usage: "print only the version",
	}
	a.setupCommands()
}

func (a *acli) setupCommands() {
	app := a.app
	app.Commands = append(a.objectCmds(), a.queryCmds()...)
	app.Commands = append(app.Commands, a.jobCmds()...)
	app.Commands = append(app.Commands, a.authCmds()...)
	for i := range app.Commands {
		app.Commands[i].OnUsageError = incorrectUsageHandler
	}
}

// no command or unknown command
func defaultAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowAppHelp(c)
	}
	return &errUsage{context: c, message: fmt.Sprintf("unknown command %q", c.Args().First())}
}

func incorrectUsageHandler(c *cli.Context, err error, _ bool) error {
	return &errUsage{context: c, message: err.Error()}
}
