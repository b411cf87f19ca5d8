// Package cli provides the `dss` command-line client.
// This file contains util functions.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/NVIDIA/dss/api"
	"github.com/NVIDIA/dss/api/apc"
	"github.com/NVIDIA/dss/api/authn"
	"github.com/NVIDIA/dss/cmn"
	"github.com/NVIDIA/dss/cmn/nlog"
	"github.com/NVIDIA/dss/stats"
	"github.com/NVIDIA/dss/tracing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
	"golang.org/x/term"
)

// returned by `connect` when no server is configured
var errNoServer = errors.New("DSS server is not configured (use --endpoint, $DSS_ENDPOINT, or server.host in config)")

// take the first of multiple names, e.g. "verbose,v"
func fl1n(flagName string) string {
	if strings.IndexByte(flagName, ',') < 0 {
		return flagName
	}
	l := strings.Split(flagName, ",")
	return strings.TrimSpace(l[0])
}

// flag may be either global or local
func flagIsSet(c *cli.Context, flag cli.Flag) (v bool) {
	name := fl1n(flag.GetName())
	switch flag.(type) {
	case cli.BoolFlag:
		v = c.GlobalBool(name) || c.Bool(name)
	default:
		v = c.GlobalIsSet(name) || c.IsSet(name)
	}
	return
}

func parseStrFlag(c *cli.Context, flag cli.Flag) string {
	name := fl1n(flag.GetName())
	if c.GlobalIsSet(name) {
		return c.GlobalString(name)
	}
	return c.String(name)
}

func plural[T int | int64](n T) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func actionDone(c *cli.Context, msg string) { fmt.Fprintln(c.App.Writer, msg) }
func actionWarn(c *cli.Context, msg string) { fmt.Fprintln(c.App.ErrWriter, fcyan("Warning: ")+msg) }

// loadConfig: file, then environment, then global flags
func loadConfig(c *cli.Context) (*cmn.Config, error) {
	config, err := cmn.LoadConfig(parseStrFlag(c, configFlag))
	if err != nil {
		return nil, err
	}
	if s := parseStrFlag(c, endpointFlag); s != "" {
		host, port, err := cmn.SplitHostPort(s, config.Server.Port)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s %q: %v", fl1n(endpointFlag.Name), s, err)
		}
		config.Server.Host, config.Server.Port = host, port
	}
	if flagIsSet(c, plainFlag) {
		config.Server.Secure = false
	}
	if flagIsSet(c, standardFlag) {
		config.Server.Standard = true
	}
	if s := parseStrFlag(c, userFlag); s != "" {
		config.Auth.User = s
	}
	if s := parseStrFlag(c, authorFlag); s != "" {
		config.Client.Author = s
	}
	if s := parseStrFlag(c, ticketFileFlag); s != "" {
		config.Auth.TicketFile = s
	}
	if config.Log.Verbose {
		nlog.SetVerbose(true)
	}
	if config.Log.File != "" && !flagIsSet(c, logFileFlag) {
		if err := nlog.SetLogFile(config.Log.File); err != nil {
			return nil, errors.Wrapf(err, "failed to open log file %q", config.Log.File)
		}
	}
	if config.Server.Host == "" {
		return nil, errNoServer
	}
	return config, nil
}

// connect initializes configuration, tracing, metrics, tickets, and the client - once
func (a *acli) connect(c *cli.Context) (*api.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	config, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	a.config = config
	if err := tracing.Init(&config.Tracing, a.version); err != nil {
		return nil, err
	}
	a.reg = prometheus.NewRegistry()
	if a.prom, err = stats.NewProm(a.reg); err != nil {
		return nil, errors.Wrap(err, "failed to register metrics")
	}
	if config.Auth.TicketFile != "" {
		tickets, err := authn.OpenStore(config.Auth.TicketBackend, config.Auth.TicketFile)
		if err != nil {
			actionWarn(c, fmt.Sprintf("ticket store disabled: %v", err))
		} else {
			a.tickets = tickets
		}
	}
	a.promptPassword(c)
	if a.client, err = a.newClient(); err != nil {
		return nil, err
	}
	return a.client, nil
}

// independent client (and connection) sharing configuration, tickets, and metrics
func (a *acli) newClient() (*api.Client, error) {
	return api.NewClient(api.Args{Config: a.config, Tickets: a.tickets, Tracker: a.prom})
}

// bulk transfers: one client per worker, all closed upon exit
func (a *acli) workerClient() (*api.Client, error) {
	client, err := a.newClient()
	if err == nil {
		a.clients = append(a.clients, client)
	}
	return client, err
}

// ask for password when there's a user, no password, and no valid ticket
func (a *acli) promptPassword(c *cli.Context) {
	auth := &a.config.Auth
	if auth.User == "" || auth.Password != "" {
		return
	}
	if a.tickets != nil {
		if _, ok := a.tickets.Find(a.config.Server.Host, auth.User); ok {
			return
		}
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	fmt.Fprintf(c.App.ErrWriter, "Password for %s@%s: ", auth.User, a.config.Server.Host)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(c.App.ErrWriter)
	if err != nil {
		actionWarn(c, fmt.Sprintf("failed to read password: %v", err))
		return
	}
	auth.Password = string(b)
}

// per-call options from command flags
func opts(c *cli.Context) *api.Opts {
	o := &api.Opts{}
	if flagIsSet(c, timeoutFlag) {
		o.Timeout = parseDurationFlag(c, timeoutFlag)
	}
	if c.IsSet(fl1n(scopeFlag.Name)) {
		o.Scope = c.String(fl1n(scopeFlag.Name))
	}
	o.Checksum = c.Bool(fl1n(checksumFlag.Name))
	o.URI = c.String(fl1n(uriFlag.Name))
	return o
}

func parseDurationFlag(c *cli.Context, flag cli.DurationFlag) time.Duration {
	name := fl1n(flag.Name)
	if c.GlobalIsSet(name) {
		return c.GlobalDuration(name)
	}
	return c.Duration(name)
}

func validateScope(c *cli.Context) error {
	if s := c.String(fl1n(scopeFlag.Name)); !apc.ValidScope(s) {
		return &errUsage{context: c, message: fmt.Sprintf("invalid --%s %q", fl1n(scopeFlag.Name), s)}
	}
	return nil
}

// soft (read-only) operations return zero values; the error is kept by the client
func softErr(client *api.Client, what string) error {
	if err := client.LastErr(); err != nil {
		return errors.Wrap(err, what)
	}
	return nil
}
