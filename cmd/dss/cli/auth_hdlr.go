// Package cli provides the `dss` command-line client.
// This file handles tickets.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cli

import (
	"fmt"
	"time"

	"github.com/NVIDIA/dss/api/authn"
	"github.com/NVIDIA/dss/cmn/cos"

	"github.com/urfave/cli"
)

func (a *acli) authCmds() []cli.Command {
	return []cli.Command{
		{
			Name:   commandInit,
			Usage:  "exchange user name and password for a ticket and store it",
			Flags:  []cli.Flag{forceFlag},
			Action: a.initHandler,
		},
		{
			Name:   commandTicket,
			Usage:  "renew the ticket",
			Action: a.ticketHandler,
		},
	}
}

func (a *acli) initHandler(c *cli.Context) error {
	client, err := a.connect(c)
	if err != nil {
		return err
	}
	var t *authn.Ticket
	if flagIsSet(c, forceFlag) {
		t, err = client.DSSInitForce(a.ctx, opts(c))
	} else {
		t, err = client.DSSInit(a.ctx, opts(c))
	}
	if err != nil {
		return err
	}
	a.ticketDone(c, t)
	return nil
}

func (a *acli) ticketHandler(c *cli.Context) error {
	client, err := a.connect(c)
	if err != nil {
		return err
	}
	t, err := client.DSSGetTicket(a.ctx, opts(c))
	if err != nil {
		return err
	}
	a.ticketDone(c, t)
	return nil
}

func (a *acli) ticketDone(c *cli.Context, t *authn.Ticket) {
	where := "not stored"
	if a.tickets != nil {
		where = "stored in " + a.tickets.String()
	}
	actionDone(c, fmt.Sprintf("ticket %s for %s@%s, expires %s (%s)", cos.SHead(t.Token), t.User, t.Server,
		t.Expiry.Format(time.RFC3339), where))
}
