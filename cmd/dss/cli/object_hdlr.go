// Package cli provides the `dss` command-line client.
// This file handles commands that transfer or modify files.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cli

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/NVIDIA/dss/api"
	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/NVIDIA/dss/storage"

	"github.com/urfave/cli"
)

type mutateFunc func(ctx context.Context, path string, opts *api.Opts) error

func (a *acli) objectCmds() []cli.Command {
	return []cli.Command{
		{
			Name:      commandGet,
			Usage:     "download a file (to stdout when DST is '" + stdioPlaceholder + "')",
			ArgsUsage: getArgsUsage,
			Flags:     []cli.Flag{scopeFlag, checksumFlag, dirFlag, workersFlag},
			Action:    a.getHandler,
		},
		{
			Name:      commandPut,
			Usage:     "upload a file",
			ArgsUsage: putArgsUsage,
			Flags:     []cli.Flag{checksumFlag, prefixFlag, workersFlag},
			Action:    a.putHandler,
		},
		{
			Name:      commandRemove,
			Usage:     "delete files",
			ArgsUsage: pathsArgument,
			Action:    a.mutateHandler(commandRemove, func(c *api.Client) mutateFunc { return c.Delete }),
		},
		{
			Name:      commandRegister,
			Usage:     "register files with the server",
			ArgsUsage: pathsArgument,
			Action:    a.mutateHandler(commandRegister, func(c *api.Client) mutateFunc { return c.Register }),
		},
		{
			Name:      commandRelease,
			Usage:     "release files",
			ArgsUsage: pathsArgument,
			Action:    a.mutateHandler(commandRelease, func(c *api.Client) mutateFunc { return c.Release }),
		},
		{
			Name:      commandTakeover,
			Usage:     "take over files",
			ArgsUsage: pathsArgument,
			Action:    a.mutateHandler(commandTakeover, func(c *api.Client) mutateFunc { return c.Takeover }),
		},
		{
			Name:      commandCacheFile,
			Usage:     "cache files on the server (waits for the job to finish)",
			ArgsUsage: pathsArgument,
			Flags:     []cli.Flag{uriFlag},
			Action:    a.mutateHandler(commandCacheFile, func(c *api.Client) mutateFunc { return c.CacheFile }),
		},
		{
			Name:      commandMirror,
			Usage:     "mirror files to other servers",
			ArgsUsage: pathsArgument,
			Action:    a.mutateHandler(commandMirror, func(c *api.Client) mutateFunc { return c.MirrorPut }),
		},
	}
}

func (a *acli) getHandler(c *cli.Context) error {
	if c.NArg() == 0 {
		return missingArgumentsError(c, "file path")
	}
	if err := validateScope(c); err != nil {
		return err
	}
	if dir := c.String(fl1n(dirFlag.Name)); dir != "" {
		return a.bulkGet(c, dir)
	}
	if c.NArg() > 2 {
		return tooManyArgumentsError(c, 2)
	}
	client, err := a.connect(c)
	if err != nil {
		return err
	}
	var (
		src = c.Args().Get(0)
		dst = c.Args().Get(1)
	)
	if dst == stdioPlaceholder {
		_, err := client.GetWriter(a.ctx, src, c.App.Writer, opts(c))
		return err
	}
	if dst == "" {
		dst = path.Base(src)
	}
	n, err := client.Get(a.ctx, src, dst, opts(c))
	if err != nil {
		return err
	}
	actionDone(c, fmt.Sprintf("GET %s => %s (%s)", src, dst, cos.ToSizeIEC(n, 2)))
	return nil
}

func (a *acli) bulkGet(c *cli.Context, dir string) error {
	if _, err := a.connect(c); err != nil {
		return err
	}
	if err := cos.CreateDir(dir); err != nil {
		return err
	}
	objs := make([]storage.Object, 0, c.NArg())
	for _, src := range c.Args() {
		objs = append(objs, storage.Object{Path: src, Local: filepath.Join(dir, path.Base(src))})
	}
	stats, err := storage.RetrieveAll(a.ctx, a.workerClient, objs, c.Int(fl1n(workersFlag.Name)), opts(c))
	if err != nil {
		return err
	}
	actionDone(c, fmt.Sprintf("GET %d file%s => %s (%s)", stats.Objects, plural(stats.Objects), dir,
		cos.ToSizeIEC(stats.Bytes, 2)))
	return nil
}

func (a *acli) putHandler(c *cli.Context) error {
	if prefix := c.String(fl1n(prefixFlag.Name)); prefix != "" {
		if c.NArg() == 0 {
			return missingArgumentsError(c, "source file(s)")
		}
		return a.bulkPut(c, prefix)
	}
	switch {
	case c.NArg() == 0:
		return missingArgumentsError(c, "source file", "destination path")
	case c.NArg() == 1:
		return missingArgumentsError(c, "destination path")
	case c.NArg() > 2:
		return tooManyArgumentsError(c, 2)
	}
	client, err := a.connect(c)
	if err != nil {
		return err
	}
	var (
		src = c.Args().Get(0)
		dst = c.Args().Get(1)
	)
	cksum, err := client.Put(a.ctx, dst, src, opts(c))
	if err != nil {
		return err
	}
	actionDone(c, fmt.Sprintf("PUT %s => %s (%s)", src, dst, cksum))
	return nil
}

func (a *acli) bulkPut(c *cli.Context, prefix string) error {
	if _, err := a.connect(c); err != nil {
		return err
	}
	objs := make([]storage.Object, 0, c.NArg())
	for _, src := range c.Args() {
		objs = append(objs, storage.Object{Path: path.Join(prefix, filepath.Base(src)), Local: src})
	}
	stats, err := storage.StoreAll(a.ctx, a.workerClient, objs, c.Int(fl1n(workersFlag.Name)), opts(c))
	if err != nil {
		return err
	}
	actionDone(c, fmt.Sprintf("PUT %d file%s => %s (%s)", stats.Objects, plural(stats.Objects), prefix,
		cos.ToSizeIEC(stats.Bytes, 2)))
	return nil
}

// single round trip per path; stops at the first failure
func (a *acli) mutateHandler(name string, op func(*api.Client) mutateFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() == 0 {
			return missingArgumentsError(c, "file path")
		}
		client, err := a.connect(c)
		if err != nil {
			return err
		}
		f := op(client)
		for _, p := range c.Args() {
			if err := f(a.ctx, p, opts(c)); err != nil {
				return err
			}
			actionDone(c, fmt.Sprintf("%s %s: done", name, p))
		}
		return nil
	}
}
