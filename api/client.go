// Package api provides DSS client API over HTTP(S)
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package api

import (
	"context"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/NVIDIA/dss/api/authn"
	"github.com/NVIDIA/dss/cmn"
	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/NVIDIA/dss/cmn/mono"
	"github.com/NVIDIA/dss/cmn/nlog"
	"github.com/NVIDIA/dss/session"
	"github.com/NVIDIA/dss/stats"
	"github.com/NVIDIA/dss/tracing"

	"github.com/pkg/errors"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type (
	Resolver interface {
		LookupHost(ctx context.Context, host string) ([]string, error)
	}

	Args struct {
		Config    *cmn.Config        // nil: defaults
		Tickets   *authn.TicketStore // nil: tickets are kept for the session only
		Resolver  Resolver           // nil: net.DefaultResolver
		Tracker   stats.Tracker      // nil: no metrics
		Dial      session.DialFunc   // nil: net.Dialer
		MachineID string             // empty: hostname
	}

	// Opts: per-call options; zero value means defaults from config
	Opts struct {
		Header   http.Header // extra request headers
		Query    url.Values
		Secure   *bool  // target override
		Host     string // ditto
		Scope    string // GET: any | local | remote | exact
		Author   string
		UserID   string
		URI      string // indirect-fetch jobs
		Port     int
		Timeout  time.Duration
		Checksum bool // GET: validate against MD5SUM; STORE: read-back verification
	}

	// Client is a DSS protocol client owning a single Session;
	// it is not safe for concurrent use (use one Client per goroutine).
	Client struct {
		config    *cmn.Config
		sess      *session.Session
		tickets   *authn.TicketStore
		resolver  Resolver
		tstats    stats.Tracker
		lastErr   error
		sleep     func(ctx context.Context, d time.Duration) error
		rnd       *rand.Rand
		cookies   map[string]*http.Cookie // session cookie jar (Set-Cookie)
		machineID string
		target    target // default target; updated by 301
	}
)

func NewClient(args Args) (*Client, error) {
	config := args.Config
	if config == nil {
		config = cmn.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	sargs := session.Args{
		TransportArgs: config.TransportArgs(),
		Dial:          args.Dial,
		Tracker:       args.Tracker,
		AllowFallback: config.Server.AllowFallback,
	}
	tlsConf, err := cmn.NewTLS(config.TLS)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize TLS")
	}
	sargs.TLS = tlsConf
	c := &Client{
		config:    config,
		sess:      session.New(sargs),
		tickets:   args.Tickets,
		resolver:  args.Resolver,
		tstats:    args.Tracker,
		sleep:     cos.SleepCtx,
		rnd:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		cookies:   make(map[string]*http.Cookie, 2),
		machineID: args.MachineID,
		target:    target{host: config.Server.Host, port: config.Server.Port, secure: config.Server.Secure},
	}
	if c.resolver == nil {
		c.resolver = net.DefaultResolver
	}
	if c.tstats == nil {
		c.tstats = stats.NewTrackerMock()
	}
	if c.machineID == "" {
		c.machineID, _ = os.Hostname()
	}
	return c, nil
}

func (c *Client) Config() *cmn.Config { return c.config }
func (c *Client) DSTID() string       { return c.sess.DSTID() }

// Stats returns session counters
func (c *Client) Stats() session.Snap { return c.sess.Snap() }

// LastErr returns the most recent soft (read-only operation) failure, if any
func (c *Client) LastErr() error { return c.lastErr }

// Target returns the current default (host, port, secure)
func (c *Client) Target() (string, int, bool) { return c.target.host, c.target.port, c.target.secure }

func (c *Client) Close() { c.sess.Close() }

// per-operation bracket: span, timeout, metrics
func (c *Client) begin(ctx context.Context, action, path string, opts *Opts) (context.Context, context.CancelFunc, oteltrace.Span, int64) {
	cancel := context.CancelFunc(func() {})
	if opts != nil && opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	ctx, span := tracing.StartSpan(ctx, action, path)
	c.tstats.IncWith(stats.Requests, action)
	return ctx, cancel, span, mono.NanoTime()
}

func (c *Client) end(action string, cancel context.CancelFunc, span oteltrace.Span, started int64, err error) {
	c.tstats.Observe(stats.Latency, action, mono.Since(started))
	if err != nil {
		c.tstats.IncWith(stats.Errors, action)
	}
	tracing.EndSpan(span, err)
	cancel()
}

// read-only operations never raise: the error is logged and kept
func (c *Client) soft(err error) {
	c.lastErr = err
	if err != nil {
		nlog.Warningln(err)
	}
}

func (c *Client) errOp(rp *reqParams, resp *http.Response, msg string, cause error) *cmn.ErrOp {
	e := cmn.NewErrOp(rp.action.Name, rp.path, 0, cause)
	e.Host, e.Port, e.DSTID, e.Message = rp.tgt.host, rp.tgt.port, c.sess.DSTID(), msg
	if rp.lastHdr != nil {
		e.ReqHdr = cmn.SanitizeHeader(rp.lastHdr)
	}
	if resp != nil {
		e.Status = resp.StatusCode
		e.RespHdr = cmn.SanitizeHeader(resp.Header)
		if e.Message == "" && cause == nil {
			e.Message = resp.Status
		}
	}
	return e
}

func (o *Opts) orDefault() *Opts {
	if o == nil {
		return &Opts{}
	}
	return o
}
