// Package api_test: DSS client API tests against an in-memory server
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package api_test

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NVIDIA/dss/api"
	"github.com/NVIDIA/dss/api/apc"
	"github.com/NVIDIA/dss/api/authn"
	"github.com/NVIDIA/dss/cmn"
	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/NVIDIA/dss/tools/dssmock"
	"github.com/NVIDIA/dss/tools/trand"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pierrec/lz4/v4"
)

type sleeper struct {
	all []time.Duration
	mu  sync.Mutex
}

func (s *sleeper) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	s.all = append(s.all, d)
	s.mu.Unlock()
	return nil
}

func (s *sleeper) durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.all...)
}

type fakeResolver map[string][]string

func (r fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if addrs, ok := r[host]; ok {
		return addrs, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func hostPort(rawURL string) (string, int) {
	u, err := url.Parse(rawURL)
	Expect(err).NotTo(HaveOccurred())
	port, err := strconv.Atoi(u.Port())
	Expect(err).NotTo(HaveOccurred())
	return u.Hostname(), port
}

func newConfig(ts *httptest.Server, dir string) *cmn.Config {
	config := cmn.DefaultConfig()
	config.Server.Host, config.Server.Port = hostPort(ts.URL)
	config.Server.Secure = false
	config.Auth.User, config.Auth.Password = "alice", "secret"
	config.Auth.TicketFile = filepath.Join(dir, cmn.TicketFname)
	config.Retry.JobPollInterval = 3 * time.Second
	return config
}

func newClient(config *cmn.Config, tickets *authn.TicketStore, resolver api.Resolver) (*api.Client, *sleeper) {
	c, err := api.NewClient(api.Args{Config: config, Tickets: tickets, Resolver: resolver, MachineID: "test-machine"})
	Expect(err).NotTo(HaveOccurred())
	sl := &sleeper{}
	api.SetSleep(c, sl.sleep)
	return c, sl
}

func md5hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

func sha1hex(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

func fileOf(mock *dssmock.Server, path string) []byte {
	b, ok := mock.File(path)
	Expect(ok).To(BeTrue(), path)
	return b
}

func last(reqs []dssmock.Request) dssmock.Request {
	Expect(reqs).NotTo(BeEmpty())
	return reqs[len(reqs)-1]
}

var _ = Describe("Client", func() {
	var (
		ctx     = context.Background()
		mock    *dssmock.Server
		ts      *httptest.Server
		config  *cmn.Config
		client  *api.Client
		sl      *sleeper
		tickets *authn.TicketStore
		dir     string
		host    string
		data    []byte
	)

	BeforeEach(func() {
		mock = dssmock.New()
		ts = httptest.NewServer(mock)
		dir = GinkgoT().TempDir()
		config = newConfig(ts, dir)
		host = config.Server.Host
		tickets = authn.NewFileStore(config.Auth.TicketFile)
		client, sl = newClient(config, tickets, nil)
		data = trand.Bytes(300*cos.KiB + 17)
	})

	AfterEach(func() {
		client.Close()
		ts.Close()
	})

	Describe("Get", func() {
		It("should publish the destination only when complete", func() {
			mock.PutFile("/d/f", data)
			dst := filepath.Join(dir, "f")

			var (
				partial atomic.Int64
				stop    = make(chan struct{})
				wg      sync.WaitGroup
			)
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
						if fi, err := os.Stat(dst); err == nil && fi.Size() != int64(len(data)) {
							partial.Add(1)
						}
					}
				}
			}()
			n, err := client.Get(ctx, "/d/f", dst, nil)
			close(stop)
			wg.Wait()

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(len(data)))
			Expect(partial.Load()).To(BeZero())
			Expect(os.ReadFile(dst)).To(Equal(data))
			Expect(dst + cos.SuffIncomplete).NotTo(BeAnExistingFile())
		})

		It("should remove the staging file and keep the original when truncated", func() {
			mock.PutFile("/d/f", data)
			mock.Truncate("/d/f", 1000)
			dst := filepath.Join(dir, "f")
			Expect(os.WriteFile(dst, []byte("original"), 0o644)).To(Succeed())

			_, err := client.Get(ctx, "/d/f", dst, nil)
			Expect(err).To(HaveOccurred())
			Expect(api.ResultOf(err)).To(Equal(api.Truncated))
			Expect(dst + cos.SuffIncomplete).NotTo(BeAnExistingFile())
			Expect(os.ReadFile(dst)).To(Equal([]byte("original")))

			// the session recovers
			Expect(client.Ping(ctx, nil)).To(BeTrue())
		})

		It("should validate MD5 when requested", func() {
			mock.PutFile("/d/f", data)
			dst := filepath.Join(dir, "f")
			_, err := client.Get(ctx, "/d/f", dst, &api.Opts{Checksum: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(mock.RequestsFor(apc.ActMD5Sum)).To(HaveLen(1))
		})

		It("should return ErrOp with redacted headers on 404", func() {
			dst := filepath.Join(dir, "missing")
			_, err := client.Get(ctx, "/d/missing", dst, nil)
			Expect(err).To(HaveOccurred())
			Expect(cmn.StatusOf(err)).To(Equal(404))
			e, ok := cmn.AsErrOp(err)
			Expect(ok).To(BeTrue())
			Expect(e.DSTID).To(Equal(client.DSTID()))
			Expect(e.Message).To(ContainSubstring("no such file"))
			Expect(e.ReqHdr.Get(apc.HdrAuthorization)).To(Equal("**redacted**"))
			Expect(dst).NotTo(BeAnExistingFile())
			Expect(dst + cos.SuffIncomplete).NotTo(BeAnExistingFile())
		})

		It("should replace the destination with a link on link-name", func() {
			mock.Link("/d/l", "/mnt/archive/l")
			dst := filepath.Join(dir, "l")
			_, err := client.Get(ctx, "/d/l", dst, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Readlink(dst)).To(Equal("/mnt/archive/l"))
		})

		It("should decode an alternate (303) representation", func() {
			var zbuf bytes.Buffer
			zw := lz4.NewWriter(&zbuf)
			_, err := zw.Write(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(zw.Close()).To(Succeed())
			mock.PutFile("/d/z.lz4", zbuf.Bytes())
			mock.Alternate("/d/z", "/d/z.lz4")

			dst := filepath.Join(dir, "z")
			_, err = client.Get(ctx, "/d/z", dst, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(os.ReadFile(dst)).To(Equal(data))
		})

		It("should pass the scope", func() {
			mock.PutFile("/d/f", []byte("hello"))
			var buf bytes.Buffer
			_, err := client.GetWriter(ctx, "/d/f", &buf, &api.Opts{Scope: apc.ScopeLocal})
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(Equal("hello"))
			Expect(last(mock.RequestsFor(apc.ActGet)).RawQry).To(Equal("scope=local"))

			_, err = client.GetWriter(ctx, "/d/f", &buf, &api.Opts{Scope: "nearby"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Put", func() {
		It("should round-trip checksums", func() {
			cksum, err := client.PutSource(ctx, "/u/f", cos.NewBytesOpener(data), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(cksum.Value()).To(Equal(md5hex(data)))
			Expect(client.MD5Sum(ctx, "/u/f", nil)).To(Equal(md5hex(data)))
			Expect(client.SHA1Sum(ctx, "/u/f", nil)).To(Equal(sha1hex(data)))

			stores := mock.RequestsFor(apc.ActStore)
			Expect(stores).To(HaveLen(2))
			Expect(stores[0].BodyLen).To(BeZero())
			Expect(stores[0].Method).To(Equal("POST"))
			Expect(stores[1].BodyLen).To(Equal(len(data)))
			Expect(stores[1].Header.Get(apc.HdrStoreCheck)).NotTo(BeEmpty())
		})

		It("should upload a local file", func() {
			src := filepath.Join(dir, "src")
			Expect(os.WriteFile(src, data, 0o644)).To(Succeed())
			_, err := client.Put(ctx, "/u/file", src, &api.Opts{Checksum: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(fileOf(mock, "/u/file")).To(Equal(data))
		})

		It("should fail with local I/O error when the source is missing", func() {
			_, err := client.Put(ctx, "/u/f", filepath.Join(dir, "none"), nil)
			Expect(api.ResultOf(err)).To(Equal(api.LocalIOFailure))
			Expect(mock.Requests()).To(BeEmpty())
		})

		It("should accept a 201 handshake", func() {
			mock.HandshakeStatus = 201
			_, err := client.PutSource(ctx, "/u/f", cos.NewBytesOpener(data), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(fileOf(mock, "/u/f")).To(Equal(data))
		})

		It("should verify stored bytes by reading them back", func() {
			mock.ReadBack = true
			_, err := client.PutSource(ctx, "/u/f", cos.NewBytesOpener(data), &api.Opts{Checksum: true})
			Expect(err).NotTo(HaveOccurred())
			gets := mock.RequestsFor(apc.ActGet)
			Expect(gets).To(HaveLen(1))
			Expect(gets[0].Header.Get(apc.HdrReceive)).NotTo(BeEmpty())
			Expect(gets[0].Header.Get(apc.HdrDataPath)).NotTo(BeEmpty())
		})

		It("should detect corruption on read-back", func() {
			mock.ReadBack, mock.Corrupt = true, true
			_, err := client.PutSource(ctx, "/u/f", cos.NewBytesOpener(data), &api.Opts{Checksum: true})
			Expect(cos.IsErrBadCksum(err)).To(BeTrue())
		})

		It("should verify the storecheck digest", func() {
			mock.StoreCheck = true
			_, err := client.PutSource(ctx, "/u/f", cos.NewBytesOpener(data), nil)
			Expect(err).NotTo(HaveOccurred())

			mock.Corrupt = true
			_, err = client.PutSource(ctx, "/u/g", cos.NewBytesOpener(data), nil)
			Expect(cos.IsErrBadCksum(err)).To(BeTrue())
		})

		It("should wait for the store job", func() {
			mock.StoreJob = true
			mock.Script("", apc.JobRunning, apc.JobFinished)
			_, err := client.PutSource(ctx, "/u/f", cos.NewBytesOpener(data), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(mock.RequestsFor(apc.ActGetLog)).To(HaveLen(2))
			Expect(sl.durations()).To(Equal([]time.Duration{config.Retry.JobPollInterval}))
		})
	})

	Describe("redirects", func() {
		var (
			mock2 *dssmock.Server
			ts2   *httptest.Server
		)
		BeforeEach(func() {
			mock2 = dssmock.New()
			ts2 = httptest.NewServer(mock2)
			mock2.PutFile("/r/f", data)
		})
		AfterEach(func() {
			client.Close()
			ts2.Close()
		})

		It("should follow 301 and stick to the new target", func() {
			mock.Redirect(apc.ActGet, 1, 301, ts2.URL)

			var via bytes.Buffer
			_, err := client.GetWriter(ctx, "/r/f", &via, nil)
			Expect(err).NotTo(HaveOccurred())
			host2, port2 := hostPort(ts2.URL)
			h, p, secure := client.Target()
			Expect(h).To(Equal(host2))
			Expect(p).To(Equal(port2))
			Expect(secure).To(BeFalse())

			direct, _ := newClient(newConfig(ts2, dir), nil, nil)
			defer direct.Close()
			var buf bytes.Buffer
			_, err = direct.GetWriter(ctx, "/r/f", &buf, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(via.Bytes()).To(Equal(buf.Bytes()))

			// straight to the new target
			Expect(client.Size(ctx, "/r/f", nil)).To(BeEquivalentTo(len(data)))
			Expect(mock.Requests()).To(HaveLen(1))
			Expect(mock2.RequestsFor(apc.ActSize)).To(HaveLen(1))
		})

		It("should not stick to a 302 target", func() {
			mock.PutFile("/r/f", []byte("local"))
			mock.Redirect(apc.ActGet, 1, 302, ts2.URL)
			var buf bytes.Buffer
			_, err := client.GetWriter(ctx, "/r/f", &buf, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.Bytes()).To(Equal(data))

			h, _, _ := client.Target()
			Expect(h).To(Equal(host))
			Expect(client.Size(ctx, "/r/f", nil)).To(BeEquivalentTo(len("local")))
		})

		It("should bound redirect chains", func() {
			mock.PutFile("/r/f", data)
			mock.Redirect(apc.ActStat, 100, 307, ts.URL)
			Expect(client.Stat(ctx, "/r/f", nil)).To(BeEmpty())
			Expect(client.LastErr()).To(MatchError(ContainSubstring("too many redirects")))
			Expect(mock.RequestsFor(apc.ActStat)).To(HaveLen(config.Retry.MaxRedirects + 1))
		})
	})

	Describe("busy", func() {
		BeforeEach(func() {
			mock.PutFile("/b/f", data)
		})

		It("should retry exactly N times sleeping as advised", func() {
			mock.Busy(apc.ActSize, 3, "0.25")
			Expect(client.Size(ctx, "/b/f", nil)).To(BeEquivalentTo(len(data)))
			Expect(sl.durations()).To(Equal([]time.Duration{250 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond}))
			Expect(mock.RequestsFor(apc.ActSize)).To(HaveLen(4))
			Expect(client.LastErr()).NotTo(HaveOccurred())
		})

		It("should sleep the default interval when not advised", func() {
			mock.Busy(apc.ActSize, 2, "")
			Expect(client.Size(ctx, "/b/f", nil)).To(BeEquivalentTo(len(data)))
			Expect(sl.durations()).To(Equal([]time.Duration{cmn.DfltBusySleep, cmn.DfltBusySleep}))
		})

		It("should give up after the configured number of retries", func() {
			client.Close()
			config.Retry.BusyRetries = 2
			client, sl = newClient(config, tickets, nil)
			mock.Busy(apc.ActSize, 10, "1")
			Expect(client.Size(ctx, "/b/f", nil)).To(BeZero())
			Expect(client.LastErr()).To(HaveOccurred())
			Expect(sl.durations()).To(HaveLen(2))
			Expect(mock.RequestsFor(apc.ActSize)).To(HaveLen(3))
		})
	})

	Describe("tickets", func() {
		BeforeEach(func() {
			mock.PutFile("/t/f", data)
			mock.RequireAuth = true
		})

		It("should send a stored ticket instead of Basic credentials", func() {
			mock.AddTicket("T1", "alice")
			Expect(tickets.Add(&authn.Ticket{Server: host, User: "alice", Token: "T1", Expiry: time.Now().Add(time.Hour)})).To(Succeed())

			Expect(client.Stat(ctx, "/t/f", nil)).NotTo(BeEmpty())
			req := last(mock.Requests())
			Expect(req.Header.Get(apc.HdrCookie)).To(ContainSubstring(apc.CookieTicket + "=T1"))
			Expect(req.Header.Get(apc.HdrAuthorization)).To(BeEmpty())
		})

		It("should purge an expired ticket and fall back to Basic", func() {
			mock.AddUser("alice", "secret")
			Expect(tickets.Add(&authn.Ticket{Server: host, User: "alice", Token: "OLD", Expiry: time.Now().Add(-time.Minute)})).To(Succeed())

			Expect(client.Stat(ctx, "/t/f", nil)).NotTo(BeEmpty())
			req := last(mock.Requests())
			Expect(req.Header.Get(apc.HdrAuthorization)).To(HavePrefix("Basic "))
			Expect(req.Header.Get(apc.HdrCookie)).NotTo(ContainSubstring(apc.CookieTicket))
			Expect(tickets.List()).To(BeEmpty())

			reloaded := authn.NewFileStore(config.Auth.TicketFile)
			Expect(reloaded.Load()).To(Succeed())
			Expect(reloaded.List()).To(BeEmpty())
		})

		It("should bootstrap a ticket with DSSINIT", func() {
			mock.AddUser("alice", "secret")
			mock.Ticket, mock.TicketMaxAge = "T9", 3600
			Expect(tickets.Add(&authn.Ticket{Server: host, User: "alice", Token: "T0", Expiry: time.Now().Add(time.Hour)})).To(Succeed())

			t, err := client.DSSInit(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Token).To(Equal("T9"))
			Expect(t.Expiry).To(BeTemporally("~", time.Now().Add(time.Hour), time.Minute))

			init := last(mock.RequestsFor(apc.ActDSSInit))
			Expect(init.Header.Get(apc.HdrAuthorization)).To(HavePrefix("Basic "))
			Expect(init.Header.Get(apc.HdrCookie)).NotTo(ContainSubstring(apc.CookieTicket))

			found, ok := tickets.Find(host, "alice")
			Expect(ok).To(BeTrue())
			Expect(found.Token).To(Equal("T9"))

			Expect(client.Stat(ctx, "/t/f", nil)).NotTo(BeEmpty())
			req := last(mock.RequestsFor(apc.ActStat))
			Expect(req.Header.Get(apc.HdrCookie)).To(ContainSubstring(apc.CookieTicket + "=T9"))
			Expect(req.Header.Get(apc.HdrAuthorization)).To(BeEmpty())
		})

		It("should stop sending a ticket that expires during the session", func() {
			mock.AddUser("alice", "secret")
			mock.Ticket, mock.TicketMaxAge = "T9", 60

			_, err := client.DSSInit(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(client.Stat(ctx, "/t/f", nil)).NotTo(BeEmpty())
			req := last(mock.RequestsFor(apc.ActStat))
			Expect(req.Header.Get(apc.HdrCookie)).To(ContainSubstring(apc.CookieTicket + "=T9"))

			later := time.Now().Add(2 * time.Hour)
			tickets.SetClock(func() time.Time { return later })

			Expect(client.Stat(ctx, "/t/f", nil)).NotTo(BeEmpty())
			req = last(mock.RequestsFor(apc.ActStat))
			Expect(req.Header.Get(apc.HdrCookie)).NotTo(ContainSubstring(apc.CookieTicket))
			Expect(req.Header.Get(apc.HdrAuthorization)).To(HavePrefix("Basic "))
			Expect(tickets.List()).To(BeEmpty())
		})

		It("should keep the ticket in the session when there is no ticket store", func() {
			client.Close()
			client, sl = newClient(config, nil, nil)
			mock.AddUser("alice", "secret")
			mock.Ticket, mock.TicketMaxAge = "T9", 60

			_, err := client.DSSInit(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(client.Stat(ctx, "/t/f", nil)).NotTo(BeEmpty())
			req := last(mock.RequestsFor(apc.ActStat))
			Expect(req.Header.Get(apc.HdrCookie)).To(ContainSubstring(apc.CookieTicket + "=T9"))
			Expect(req.Header.Get(apc.HdrAuthorization)).To(BeEmpty())
		})

		It("should take the expiry from a JWT ticket", func() {
			exp := time.Now().Add(90 * time.Minute).Truncate(time.Second)
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(exp),
			}).SignedString([]byte("test-key"))
			Expect(err).NotTo(HaveOccurred())
			mock.AddUser("alice", "secret")
			mock.Ticket = token

			t, err := client.DSSInitForce(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Expiry).To(BeTemporally("==", exp))
		})

		It("should reject bad credentials", func() {
			mock.AddUser("alice", "other")
			_, err := client.DSSInit(ctx, nil)
			Expect(cmn.StatusOf(err)).To(Equal(401))
			Expect(tickets.List()).To(BeEmpty())
		})
	})

	Describe("jobs", func() {
		It("should poll until FINISHED", func() {
			mock.Script("", apc.JobRunning, apc.JobRunning, apc.JobFinished)
			Expect(client.MakeLocal(ctx, "/j/f", nil)).To(Succeed())
			iv := config.Retry.JobPollInterval
			Expect(sl.durations()).To(Equal([]time.Duration{iv, iv}))
			Expect(mock.RequestsFor(apc.ActGetLog)).To(HaveLen(3))
		})

		It("should stop on FAILED with the server message", func() {
			mock.Script("tape offline", apc.JobRunning, apc.JobFailed, apc.JobRunning)
			err := client.MakeLocal(ctx, "/j/f", nil)
			var ej *api.ErrJob
			Expect(errors.As(err, &ej)).To(BeTrue())
			Expect(ej.Message).To(Equal("tape offline"))
			Expect(mock.RequestsFor(apc.ActGetLog)).To(HaveLen(2))
			Expect(sl.durations()).To(HaveLen(1))
		})

		It("should accept a terminal status on submission regardless of case", func() {
			mock.SubmitStatus = "finished"
			Expect(client.MakeLocal(ctx, "/j/f", nil)).To(Succeed())
			Expect(mock.RequestsFor(apc.ActGetLog)).To(BeEmpty())

			mock.SubmitStatus = "Failed"
			Expect(api.IsErrJob(client.MakeLocal(ctx, "/j/f", nil))).To(BeTrue())
			Expect(mock.RequestsFor(apc.ActGetLog)).To(BeEmpty())
		})

		It("should send one Data-Path per path", func() {
			paths := []string{"/j/a", "/j/b", "/j/c"}
			Expect(client.MakeLocalAsy(ctx, paths, nil)).To(Succeed())
			req := last(mock.RequestsFor(apc.ActMakeLocalAsy))
			Expect(req.Header.Values(apc.HdrDataPath)).To(Equal(paths))
		})

		It("should stop polling when canceled", func() {
			mock.Script("", apc.JobRunning)
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			var n int
			api.SetSleep(client, func(ctx context.Context, _ time.Duration) error {
				if n++; n == 3 {
					cancel()
				}
				return ctx.Err()
			})
			err := client.MakeLocal(cctx, "/j/f", nil)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(mock.RequestsFor(apc.ActGetLog)).To(HaveLen(3))
		})

		It("should return the job log", func() {
			mock.Script("", apc.JobFinished)
			Expect(client.MakeLocal(ctx, "/j/f", nil)).To(Succeed())
			id := last(mock.RequestsFor(apc.ActGetLog)).Header.Get(apc.HdrJobID)
			Expect(client.GetLog(ctx, id, nil)).To(ContainSubstring(id))
		})
	})

	Describe("queries", func() {
		BeforeEach(func() {
			mock.PutFile("/q/f", data)
			mock.PutFile("/q/g", []byte("g"))
		})

		It("should locate", func() {
			mock.Locations("/q/f", "dss1:/q/f", "dss2:/q/f")
			Expect(client.Locate(ctx, "/q/f", nil)).To(Equal([]string{"dss1:/q/f", "dss2:/q/f"}))
			Expect(client.LocateRemote(ctx, "/q/g", nil)).To(HaveLen(1))
		})

		It("should probe", func() {
			Expect(client.TestFile(ctx, "/q/f", nil)).To(BeTrue())
			Expect(client.TestCache(ctx, "/q/none", nil)).To(BeFalse())
			Expect(cmn.StatusOf(client.LastErr())).To(Equal(404))
			Expect(client.Ping(ctx, nil)).To(BeTrue())
			Expect(client.LastErr()).NotTo(HaveOccurred())
		})

		It("should return zero values on failure", func() {
			Expect(client.Size(ctx, "/q/none", nil)).To(BeZero())
			Expect(client.MD5Sum(ctx, "/q/none", nil)).To(BeEmpty())
			Expect(client.Locate(ctx, "/q/none", nil)).To(BeEmpty())
			Expect(client.LastErr()).To(HaveOccurred())
		})

		It("should decode GETSTATS", func() {
			var st struct {
				Files int `json:"files"`
			}
			Expect(client.GetStatsJSON(ctx, &st, nil)).To(Succeed())
			Expect(st.Files).To(Equal(2))
		})

		It("should delete, and fail to delete twice", func() {
			Expect(client.Delete(ctx, "/q/g", nil)).To(Succeed())
			err := client.Delete(ctx, "/q/g", nil)
			Expect(cmn.IsErrOp(err)).To(BeTrue())
			Expect(cmn.StatusOf(err)).To(Equal(404))
		})

		It("should run the remaining mutating actions", func() {
			Expect(client.Register(ctx, "/q/f", nil)).To(Succeed())
			Expect(client.Release(ctx, "/q/f", nil)).To(Succeed())
			Expect(client.Takeover(ctx, "/q/f", nil)).To(Succeed())
			Expect(client.MirrorPut(ctx, "/q/f", nil)).To(Succeed())
			Expect(client.CacheFile(ctx, "/q/f", &api.Opts{URI: "https://origin/q/f"})).To(Succeed())
			Expect(last(mock.RequestsFor(apc.ActCacheFile)).Header.Get(apc.HdrURI)).To(Equal("https://origin/q/f"))
		})
	})

	Describe("protocol", func() {
		It("should send identity headers", func() {
			Expect(client.Ping(ctx, nil)).To(BeTrue())
			req := last(mock.Requests())
			Expect(req.Method).To(Equal("GET"))
			Expect(req.Header.Get(apc.HdrAction)).To(Equal(apc.ActPing))
			Expect(req.Header.Get(apc.HdrClient)).To(Equal(cmn.ClientName))
			Expect(req.Header.Get(apc.HdrClientVersion)).To(Equal(cmn.ClientVersion))
			Expect(req.Header.Get(apc.HdrDSTID)).To(Equal(client.DSTID()))
			Expect(req.Header.Get(apc.HdrUserID)).To(Equal("alice"))
			Expect(req.Header.Get(apc.HdrMachineID)).To(Equal("test-machine"))
			_, err := time.Parse(apc.TimeStampLayout, req.Header.Get(apc.HdrTimeStamp))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should POST with ?action= in standard mode", func() {
			client.Close()
			config.Server.Standard = true
			client, sl = newClient(config, tickets, nil)
			mock.PutFile("/p/f", data)
			Expect(client.Stat(ctx, "/p/f", nil)).NotTo(BeEmpty())
			req := last(mock.Requests())
			Expect(req.Method).To(Equal("POST"))
			Expect(req.RawQry).To(Equal("action=STAT"))
		})

		It("should reuse the keep-alive connection", func() {
			for range 3 {
				Expect(client.Ping(ctx, nil)).To(BeTrue())
			}
			snap := client.Stats()
			Expect(snap.Connects).To(BeEquivalentTo(1))
			Expect(snap.Requests).To(BeEquivalentTo(3))
			Expect(snap.LastStatus).To(Equal(204))
		})

		It("should reconnect when the server has closed the keep-alive connection", func() {
			Expect(client.Ping(ctx, nil)).To(BeTrue())
			ts.CloseClientConnections()
			Expect(client.Ping(ctx, nil)).To(BeTrue())
			Expect(client.Stats().Connects).To(BeEquivalentTo(2))
		})

		It("should not re-send a request that timed out on a reused connection", func() {
			client.Close()
			config.Net.Timeout = 250 * time.Millisecond
			client, sl = newClient(config, tickets, nil)
			mock.PutFile("/d/f", data)
			Expect(client.Ping(ctx, nil)).To(BeTrue())

			mock.Delay(apc.ActDelete, 400*time.Millisecond)
			Expect(client.Delete(ctx, "/d/f", nil)).NotTo(Succeed())
			Consistently(func() int { return len(mock.RequestsFor(apc.ActDelete)) }, 500*time.Millisecond, 50*time.Millisecond).
				Should(Equal(1))
		})

		It("should not time out a slow but steady download", func() {
			client.Close()
			config.Net.Timeout = 300 * time.Millisecond
			config.Net.BufSize = cos.KiB
			client, sl = newClient(config, tickets, nil)
			slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Length", strconv.Itoa(6*cos.KiB))
				for range 6 {
					w.Write(data[:cos.KiB])
					w.(http.Flusher).Flush()
					time.Sleep(100 * time.Millisecond)
				}
			}))
			defer slow.Close()
			shost, sport := hostPort(slow.URL)

			var buf bytes.Buffer
			n, err := client.GetWriter(ctx, "/s/f", &buf, &api.Opts{Host: shost, Port: sport})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(6 * cos.KiB))
			Expect(buf.Len()).To(Equal(6 * cos.KiB))
		})

		It("should fail over across resolved addresses", func() {
			client.Close()
			config.Server.Host = "dss.test"
			config.Net.DialTimeout = time.Second
			resolver := fakeResolver{"dss.test": {"127.0.0.2", host}}
			for range 4 {
				c, _ := newClient(config, tickets, resolver)
				Expect(c.Ping(ctx, nil)).To(BeTrue())
				c.Close()
			}
		})

		It("should fail to resolve an unknown host", func() {
			client.Close()
			config.Server.Host = "nowhere.test"
			client, sl = newClient(config, tickets, fakeResolver{})
			Expect(client.Ping(ctx, nil)).To(BeFalse())
			var dnsErr *net.DNSError
			Expect(errors.As(client.LastErr(), &dnsErr)).To(BeTrue())
		})
	})
})
