// Package authn provides DSS ticket (authentication token) management
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package authn

import (
	"sort"
	"sync"
	"time"

	"github.com/NVIDIA/dss/cmn"
	"github.com/NVIDIA/dss/cmn/nlog"
	"github.com/NVIDIA/dss/dbdriver"

	"github.com/pkg/errors"
)

type (
	persister interface {
		load() ([]*Ticket, error)
		save([]*Ticket) error
		close() error
		String() string
	}

	// TicketStore is a persisted (server, user) => ticket table, safe for concurrent use
	TicketStore struct {
		p       persister
		tickets map[key]*Ticket
		now     func() time.Time
		mu      sync.Mutex
	}
)

func newStore(p persister) *TicketStore {
	return &TicketStore{p: p, tickets: make(map[key]*Ticket, 4), now: time.Now}
}

// flat-file backend: one `server,username,ticket,expiry` line per ticket
func NewFileStore(path string) *TicketStore { return newStore(&filePersister{path: path}) }

// key-value backend (e.g., buntdb)
func NewDBStore(driver dbdriver.Driver) *TicketStore { return newStore(&dbPersister{driver: driver}) }

// OpenStore creates the configured backend, loads it, and purges expired tickets
func OpenStore(backend, path string) (*TicketStore, error) {
	var ts *TicketStore
	switch backend {
	case cmn.TicketBackendBunt:
		driver, err := dbdriver.NewBuntDB(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open ticket db %q", path)
		}
		ts = NewDBStore(driver)
	case cmn.TicketBackendFile, "":
		ts = NewFileStore(path)
	default:
		return nil, errors.Errorf("unknown ticket backend %q", backend)
	}
	if err := ts.Load(); err != nil {
		return nil, err
	}
	if _, err := ts.DeleteExpired(); err != nil {
		nlog.Warningln("failed to purge expired tickets:", err)
	}
	return ts, nil
}

// for tests
func (ts *TicketStore) SetClock(now func() time.Time) {
	ts.mu.Lock()
	ts.now = now
	ts.mu.Unlock()
}

func (ts *TicketStore) String() string { return ts.p.String() }

func (ts *TicketStore) Load() error {
	tickets, err := ts.p.load()
	if err != nil {
		return errors.Wrapf(err, "failed to load %s", ts.p)
	}
	ts.mu.Lock()
	clear(ts.tickets)
	for _, t := range tickets {
		ts.tickets[t.key()] = t
	}
	ts.mu.Unlock()
	return nil
}

func (ts *TicketStore) Save() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts._save()
}

func (ts *TicketStore) _save() error {
	if err := ts.p.save(ts._list()); err != nil {
		return errors.Wrapf(err, "failed to save %s", ts.p)
	}
	return nil
}

// sorted by (server, user)
func (ts *TicketStore) _list() []*Ticket {
	list := make([]*Ticket, 0, len(ts.tickets))
	for _, t := range ts.tickets {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Server != list[j].Server {
			return list[i].Server < list[j].Server
		}
		return list[i].User < list[j].User
	})
	return list
}

func (ts *TicketStore) List() []*Ticket {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts._list()
}

// Find returns a non-expired ticket; an expired one is purged
func (ts *TicketStore) Find(server, user string) (*Ticket, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	k := key{server, user}
	t, ok := ts.tickets[k]
	if !ok {
		return nil, false
	}
	if t.Expired(ts.now()) {
		delete(ts.tickets, k)
		if err := ts._save(); err != nil {
			nlog.Warningln(err)
		}
		return nil, false
	}
	tcopy := *t
	return &tcopy, true
}

// Add upserts by (server, user) and saves
func (ts *TicketStore) Add(t *Ticket) error {
	if t.Server == "" || t.User == "" || t.Token == "" {
		return errors.Errorf("invalid ticket %+v: server, user, and token are required", *t)
	}
	tcopy := *t
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tickets[t.key()] = &tcopy
	return ts._save()
}

func (ts *TicketStore) Remove(server, user string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	k := key{server, user}
	if _, ok := ts.tickets[k]; !ok {
		return ErrNoTicket
	}
	delete(ts.tickets, k)
	return ts._save()
}

// DeleteExpired purges all expired tickets; saves when anything was removed
func (ts *TicketStore) DeleteExpired() (int, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	var (
		n   int
		now = ts.now()
	)
	for k, t := range ts.tickets {
		if t.Expired(now) {
			delete(ts.tickets, k)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, ts._save()
}

func (ts *TicketStore) Close() error { return ts.p.close() }
