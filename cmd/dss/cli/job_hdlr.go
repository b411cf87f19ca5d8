// Package cli provides the `dss` command-line client.
// This file handles server-side jobs.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"
)

func (a *acli) jobCmds() []cli.Command {
	return []cli.Command{
		{
			Name:      commandMakeLocal,
			Usage:     "stage files on the local server and wait for the job to finish",
			ArgsUsage: pathsArgument,
			Flags:     []cli.Flag{asyncFlag},
			Action:    a.makeLocalHandler,
		},
		{
			Name:      commandWait,
			Usage:     "wait for a job to finish",
			ArgsUsage: jobIDArgument,
			Action:    a.waitHandler,
		},
		{
			Name:      commandLog,
			Usage:     "show job log",
			ArgsUsage: jobIDArgument,
			Action:    a.logHandler,
		},
	}
}

func (a *acli) makeLocalHandler(c *cli.Context) error {
	if c.NArg() == 0 {
		return missingArgumentsError(c, "file path")
	}
	client, err := a.connect(c)
	if err != nil {
		return err
	}
	if flagIsSet(c, asyncFlag) {
		paths := []string(c.Args())
		if err := client.MakeLocalAsy(a.ctx, paths, opts(c)); err != nil {
			return err
		}
		actionDone(c, fmt.Sprintf("%s: %d file%s staged", commandMakeLocal, len(paths), plural(len(paths))))
		return nil
	}
	for _, p := range c.Args() {
		if err := client.MakeLocal(a.ctx, p, opts(c)); err != nil {
			return err
		}
		actionDone(c, fmt.Sprintf("%s %s: done", commandMakeLocal, p))
	}
	return nil
}

func jobID(c *cli.Context) (string, error) {
	switch c.NArg() {
	case 0:
		return "", missingArgumentsError(c, "job ID")
	case 1:
		return c.Args().First(), nil
	default:
		return "", tooManyArgumentsError(c, 1)
	}
}

func (a *acli) waitHandler(c *cli.Context) error {
	id, err := jobID(c)
	if err != nil {
		return err
	}
	client, err := a.connect(c)
	if err != nil {
		return err
	}
	if err := client.WaitJob(a.ctx, id, opts(c)); err != nil {
		return err
	}
	actionDone(c, fmt.Sprintf("job %s: %s", id, fgreen("finished")))
	return nil
}

func (a *acli) logHandler(c *cli.Context) error {
	id, err := jobID(c)
	if err != nil {
		return err
	}
	client, err := a.connect(c)
	if err != nil {
		return err
	}
	text := client.GetLog(a.ctx, id, opts(c))
	if err := softErr(client, "job "+id); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, strings.TrimRight(text, "\n"))
	return nil
}
