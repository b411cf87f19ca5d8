// Package authn provides DSS ticket (authentication token) management
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package authn

import (
	"github.com/NVIDIA/dss/cmn/nlog"
	"github.com/NVIDIA/dss/dbdriver"

	jsoniter "github.com/json-iterator/go"
)

const ticketCollection = "tickets"

type dbPersister struct {
	driver dbdriver.Driver
}

func (*dbPersister) String() string  { return "ticket db" }
func (dp *dbPersister) close() error { return dp.driver.Close() }

func dbKey(t *Ticket) string { return t.Server + "|" + t.User }

func (dp *dbPersister) load() ([]*Ticket, error) {
	all, err := dp.driver.GetAll(ticketCollection, "")
	if err != nil {
		return nil, err
	}
	tickets := make([]*Ticket, 0, len(all))
	for k, v := range all {
		t := &Ticket{}
		if err := jsoniter.UnmarshalFromString(v, t); err != nil {
			nlog.Warningf("ticket db: %q: %v - skipping", k, err)
			continue
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

func (dp *dbPersister) save(tickets []*Ticket) error {
	if err := dp.driver.DeleteCollection(ticketCollection); err != nil {
		return err
	}
	for _, t := range tickets {
		if err := dp.driver.Set(ticketCollection, dbKey(t), t); err != nil {
			return err
		}
	}
	return nil
}
