// Package cli provides the `dss` command-line client.
// This file contains error types and handlers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"
)

type (
	errUsage struct {
		context *cli.Context
		message string
	}
	// colored message; keeps the original error for `ExitCode`
	errFormatted struct {
		cause error
		msg   string
	}
)

func (e *errUsage) Error() string {
	var (
		sb   strings.Builder
		name = cliName
	)
	if e.context != nil && e.context.Command.Name != "" {
		name += " " + e.context.Command.Name
	}
	sb.WriteString("Incorrect usage of \"")
	sb.WriteString(name)
	sb.WriteString("\": ")
	sb.WriteString(e.message)
	sb.WriteString(".\nSee '")
	sb.WriteString(name)
	sb.WriteString(" --help'.")
	return sb.String()
}

func (e *errFormatted) Error() string { return e.msg }
func (e *errFormatted) Unwrap() error { return e.cause }

func missingArgumentsError(c *cli.Context, missing ...string) error {
	return &errUsage{context: c, message: "missing " + strings.Join(missing, ", ")}
}

func tooManyArgumentsError(c *cli.Context, expected int) error {
	return &errUsage{
		context: c,
		message: fmt.Sprintf("expecting at most %d argument%s, got %d", expected, plural(expected), c.NArg()),
	}
}

func exclusiveFlagsError(c *cli.Context, names ...string) error {
	return &errUsage{context: c, message: "flags " + strings.Join(names, ", ") + " are mutually exclusive"}
}
