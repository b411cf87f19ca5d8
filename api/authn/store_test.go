// Package authn provides DSS ticket (authentication token) management
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package authn_test

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NVIDIA/dss/api/authn"
	"github.com/NVIDIA/dss/cmn"
	"github.com/NVIDIA/dss/dbdriver"
	"github.com/NVIDIA/dss/tools/tassert"

	"github.com/golang-jwt/jwt/v5"
)

func TestFileStoreRoundTrip(t *testing.T) {
	var (
		path   = filepath.Join(t.TempDir(), "dss", "tickets")
		ts     = authn.NewFileStore(path)
		expiry = time.Now().Add(time.Hour).Truncate(time.Second)
	)
	tassert.CheckFatal(t, ts.Load()) // missing file is fine
	tassert.CheckFatal(t, ts.Add(&authn.Ticket{Server: "dss1", User: "alice", Token: "t1", Expiry: expiry}))
	tassert.CheckFatal(t, ts.Add(&authn.Ticket{Server: "dss2", User: "alice", Token: "t2", Expiry: expiry}))
	// upsert
	tassert.CheckFatal(t, ts.Add(&authn.Ticket{Server: "dss1", User: "alice", Token: "t3", Expiry: expiry}))

	b, err := os.ReadFile(path)
	tassert.CheckFatal(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	tassert.Fatalf(t, len(lines) == 2, "expecting 2 lines, got %q", b)
	want := "dss1,alice,t3," + strconv.FormatInt(expiry.Unix(), 10)
	tassert.Errorf(t, lines[0] == want, "line %q, expecting %q", lines[0], want)

	ts2 := authn.NewFileStore(path)
	tassert.CheckFatal(t, ts2.Load())
	tk, ok := ts2.Find("dss1", "alice")
	tassert.Fatalf(t, ok, "ticket not found after reload")
	tassert.Errorf(t, tk.Token == "t3" && tk.Expiry.Equal(expiry), "got %s", tk)
	_, ok = ts2.Find("dss1", "bob")
	tassert.Errorf(t, !ok, "unexpected ticket for bob")
}

func TestFileStoreSkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets")
	content := "dss1,alice,tok,4102444800\n" + // 2100-01-01
		"garbage line\n" +
		"dss2,bob,tok2,not-a-number\n" +
		"dss3,carol,tok3,4102444800.5\n"
	tassert.CheckFatal(t, os.WriteFile(path, []byte(content), 0o600))

	ts := authn.NewFileStore(path)
	tassert.CheckFatal(t, ts.Load())
	list := ts.List()
	tassert.Fatalf(t, len(list) == 2, "expecting 2 valid tickets, got %d", len(list))
	tassert.Errorf(t, list[0].Server == "dss1" && list[1].Server == "dss3", "got %v", list)
}

func TestExpiredPurge(t *testing.T) {
	var (
		path = filepath.Join(t.TempDir(), "tickets")
		ts   = authn.NewFileStore(path)
		now  = time.Now()
	)
	tassert.CheckFatal(t, ts.Add(&authn.Ticket{Server: "dss1", User: "alice", Token: "old", Expiry: now.Add(-time.Minute)}))
	tassert.CheckFatal(t, ts.Add(&authn.Ticket{Server: "dss1", User: "bob", Token: "new", Expiry: now.Add(time.Hour)}))

	n, err := ts.DeleteExpired()
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, n == 1, "purged %d", n)
	_, ok := ts.Find("dss1", "alice")
	tassert.Errorf(t, !ok, "expired ticket must be gone")

	// persisted
	ts2 := authn.NewFileStore(path)
	tassert.CheckFatal(t, ts2.Load())
	tassert.Errorf(t, len(ts2.List()) == 1, "expecting 1 ticket on disk, got %d", len(ts2.List()))

	// expires while in memory: Find purges
	clock := now
	ts2.SetClock(func() time.Time { return clock })
	_, ok = ts2.Find("dss1", "bob")
	tassert.Fatalf(t, ok, "expecting valid ticket")
	clock = now.Add(2 * time.Hour)
	_, ok = ts2.Find("dss1", "bob")
	tassert.Errorf(t, !ok, "expecting expired ticket to be purged on lookup")
	tassert.Errorf(t, len(ts2.List()) == 0, "expecting empty store")
}

func TestOpenStorePurges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets")
	content := "dss1,alice,old,1000\ndss1,bob,new,4102444800\n"
	tassert.CheckFatal(t, os.WriteFile(path, []byte(content), 0o600))

	ts, err := authn.OpenStore(cmn.TicketBackendFile, path)
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, len(ts.List()) == 1, "expecting expired ticket purged at open")
	b, err := os.ReadFile(path)
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, !strings.Contains(string(b), "old"), "file not rewritten: %q", b)

	_, err = authn.OpenStore("redis", path)
	tassert.Errorf(t, err != nil, "expecting unknown backend error")
}

func TestDBStore(t *testing.T) {
	var (
		driver = dbdriver.NewDBMock()
		ts     = authn.NewDBStore(driver)
		expiry = time.Now().Add(time.Hour).Truncate(time.Second)
	)
	tassert.CheckFatal(t, ts.Add(&authn.Ticket{Server: "dss1", User: "alice", Token: "t1", Expiry: expiry}))
	tassert.CheckFatal(t, ts.Add(&authn.Ticket{Server: "dss1", User: "bob", Token: "t2", Expiry: expiry}))
	tassert.CheckFatal(t, ts.Remove("dss1", "bob"))
	tassert.Errorf(t, ts.Remove("dss1", "bob") == authn.ErrNoTicket, "expecting ErrNoTicket")

	ts2 := authn.NewDBStore(driver)
	tassert.CheckFatal(t, ts2.Load())
	tk, ok := ts2.Find("dss1", "alice")
	tassert.Fatalf(t, ok, "ticket not found")
	tassert.Errorf(t, tk.Token == "t1" && tk.Expiry.Equal(expiry), "got %s", tk)
	tassert.Errorf(t, len(ts2.List()) == 1, "expecting 1 ticket")
}

func TestBuntStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.db")
	ts, err := authn.OpenStore(cmn.TicketBackendBunt, path)
	tassert.CheckFatal(t, err)
	tassert.CheckFatal(t, ts.Add(&authn.Ticket{Server: "dss1", User: "alice", Token: "t1", Expiry: time.Now().Add(time.Hour)}))
	tassert.CheckFatal(t, ts.Close())

	ts, err = authn.OpenStore(cmn.TicketBackendBunt, path)
	tassert.CheckFatal(t, err)
	defer ts.Close()
	_, ok := ts.Find("dss1", "alice")
	tassert.Errorf(t, ok, "ticket not persisted in buntdb")
}

func TestConcurrentAccess(t *testing.T) {
	var (
		ts = authn.NewDBStore(dbdriver.NewDBMock())
		wg sync.WaitGroup
	)
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := "user" + strconv.Itoa(i)
			for range 20 {
				ts.Add(&authn.Ticket{Server: "dss", User: user, Token: "tok", Expiry: time.Now().Add(time.Hour)})
				ts.Find("dss", user)
			}
		}(i)
	}
	wg.Wait()
	tassert.Errorf(t, len(ts.List()) == 8, "expecting 8 tickets, got %d", len(ts.List()))
}

func TestExpiryFromToken(t *testing.T) {
	exp := time.Now().Add(90 * time.Minute).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := tok.SignedString([]byte("server-secret"))
	tassert.CheckFatal(t, err)

	got, ok := authn.ExpiryFromToken(signed)
	tassert.Fatalf(t, ok, "expecting exp claim")
	tassert.Errorf(t, got.Equal(exp), "exp %v, expecting %v", got, exp)

	_, ok = authn.ExpiryFromToken("opaque-ticket-value")
	tassert.Errorf(t, !ok, "opaque ticket has no exp")
}
