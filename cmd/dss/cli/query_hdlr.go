// Package cli provides the `dss` command-line client.
// This file handles read-only commands.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/NVIDIA/dss/api"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli"
)

func (a *acli) queryCmds() []cli.Command {
	return []cli.Command{
		{
			Name:      commandLocate,
			Usage:     "list servers (or full locations) holding the file",
			ArgsUsage: pathArgument,
			Flags:     []cli.Flag{locateLocalFlag, locateRemoteFlag, locateFileFlag},
			Action:    a.locateHandler,
		},
		{
			Name:      commandStat,
			Usage:     "show file status, head, or size",
			ArgsUsage: pathArgument,
			Flags:     []cli.Flag{headFlag, headLocalFlag, sizeFlag},
			Action:    a.statHandler,
		},
		{
			Name:      commandMD5,
			Usage:     "show MD5 checksum of the stored file",
			ArgsUsage: pathArgument,
			Action:    a.digestHandler((*api.Client).MD5Sum),
		},
		{
			Name:      commandSHA1,
			Usage:     "show SHA1 checksum of the stored file",
			ArgsUsage: pathArgument,
			Action:    a.digestHandler((*api.Client).SHA1Sum),
		},
		{
			Name:      commandTest,
			Usage:     "test whether the file exists (exit status 1 if it does not)",
			ArgsUsage: pathArgument,
			Flags:     []cli.Flag{testCacheFlag, testStoreFlag},
			Action:    a.testHandler,
		},
		{
			Name:   commandPing,
			Usage:  "check that the server is alive",
			Action: a.pingHandler,
		},
		{
			Name:   commandStats,
			Usage:  "show server statistics",
			Flags:  []cli.Flag{jsonFlag},
			Action: a.statsHandler,
		},
	}
}

func onePath(c *cli.Context) (string, error) {
	switch c.NArg() {
	case 0:
		return "", missingArgumentsError(c, "file path")
	case 1:
		return c.Args().First(), nil
	default:
		return "", tooManyArgumentsError(c, 1)
	}
}

func (a *acli) locateHandler(c *cli.Context) error {
	p, err := onePath(c)
	if err != nil {
		return err
	}
	var (
		local  = flagIsSet(c, locateLocalFlag)
		remote = flagIsSet(c, locateRemoteFlag)
	)
	if local && remote {
		return exclusiveFlagsError(c, "--"+locateLocalFlag.Name, "--"+locateRemoteFlag.Name)
	}
	client, err := a.connect(c)
	if err != nil {
		return err
	}
	var hosts []string
	switch {
	case local:
		hosts = client.LocateLocal(a.ctx, p, opts(c))
	case remote:
		hosts = client.LocateRemote(a.ctx, p, opts(c))
	case flagIsSet(c, locateFileFlag):
		hosts = client.LocateFile(a.ctx, p, opts(c))
	default:
		hosts = client.Locate(a.ctx, p, opts(c))
	}
	if len(hosts) == 0 {
		if err := softErr(client, "locate "+p); err != nil {
			return err
		}
		return fmt.Errorf("%s: not found", p)
	}
	for _, h := range hosts {
		fmt.Fprintln(c.App.Writer, h)
	}
	return nil
}

func (a *acli) statHandler(c *cli.Context) error {
	p, err := onePath(c)
	if err != nil {
		return err
	}
	client, err := a.connect(c)
	if err != nil {
		return err
	}
	var text string
	switch {
	case flagIsSet(c, sizeFlag):
		size := client.Size(a.ctx, p, opts(c))
		if err := softErr(client, "size "+p); err != nil {
			return err
		}
		text = strconv.FormatInt(size, 10)
	case flagIsSet(c, headLocalFlag):
		text = client.HeadLocal(a.ctx, p, opts(c))
	case flagIsSet(c, headFlag):
		text = client.Head(a.ctx, p, opts(c))
	default:
		text = client.Stat(a.ctx, p, opts(c))
	}
	if text == "" {
		if err := softErr(client, "stat "+p); err != nil {
			return err
		}
	}
	fmt.Fprintln(c.App.Writer, strings.TrimRight(text, "\n"))
	return nil
}

type digestFunc func(c *api.Client, ctx context.Context, path string, opts *api.Opts) string

func (a *acli) digestHandler(f digestFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		p, err := onePath(c)
		if err != nil {
			return err
		}
		client, err := a.connect(c)
		if err != nil {
			return err
		}
		digest := f(client, a.ctx, p, opts(c))
		if digest == "" {
			if err := softErr(client, c.Command.Name+" "+p); err != nil {
				return err
			}
			return fmt.Errorf("%s: no checksum", p)
		}
		fmt.Fprintf(c.App.Writer, "%s  %s\n", digest, p)
		return nil
	}
}

func (a *acli) testHandler(c *cli.Context) error {
	p, err := onePath(c)
	if err != nil {
		return err
	}
	if flagIsSet(c, testCacheFlag) && flagIsSet(c, testStoreFlag) {
		return exclusiveFlagsError(c, "--"+testCacheFlag.Name, "--"+testStoreFlag.Name)
	}
	client, err := a.connect(c)
	if err != nil {
		return err
	}
	var ok bool
	switch {
	case flagIsSet(c, testCacheFlag):
		ok = client.TestCache(a.ctx, p, opts(c))
	case flagIsSet(c, testStoreFlag):
		ok = client.TestStore(a.ctx, p, opts(c))
	default:
		ok = client.TestFile(a.ctx, p, opts(c))
	}
	if !ok {
		if err := softErr(client, p); err != nil {
			return err
		}
		return fmt.Errorf("%s: no", p)
	}
	actionDone(c, fgreen("yes"))
	return nil
}

func (a *acli) pingHandler(c *cli.Context) error {
	client, err := a.connect(c)
	if err != nil {
		return err
	}
	if !client.Ping(a.ctx, opts(c)) {
		host, port, _ := client.Target()
		if err := softErr(client, "ping"); err != nil {
			return err
		}
		return fmt.Errorf("%s:%d is not responding", host, port)
	}
	actionDone(c, fgreen("alive"))
	return nil
}

func (a *acli) statsHandler(c *cli.Context) error {
	client, err := a.connect(c)
	if err != nil {
		return err
	}
	if !flagIsSet(c, jsonFlag) {
		text := client.GetStats(a.ctx, opts(c))
		if err := softErr(client, "stats"); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, strings.TrimRight(text, "\n"))
		return nil
	}
	var v map[string]any
	if err := client.GetStatsJSON(a.ctx, &v, opts(c)); err != nil {
		return err
	}
	b, err := jsoniter.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(b))
	return nil
}
