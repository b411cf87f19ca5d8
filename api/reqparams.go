/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/NVIDIA/dss/api/apc"
	"github.com/NVIDIA/dss/cmn"
	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/NVIDIA/dss/cmn/nlog"
	"github.com/NVIDIA/dss/session"
	"github.com/NVIDIA/dss/stats"
	"github.com/NVIDIA/dss/tracing"
	"github.com/NVIDIA/dss/transcode"

	"go.opentelemetry.io/otel/attribute"
)

const maxErrBody = 64 * cos.KiB

// reqParams: one logical request; redirects re-target it in place
type reqParams struct {
	action    apc.Action
	opts      *Opts
	header    http.Header // action-specific (StoreCheck, RECEIVE, jobid)
	query     url.Values  // ditto
	body      session.Source
	plan      *transcode.Plan // set by 303
	hashes    *cos.CksumHashes
	lastHdr   http.Header // as sent (error reporting)
	tgt       target
	path      string
	origPath  string
	dataPaths []string
	cksums    []string
	phase     int
}

var rpPool sync.Pool

func (c *Client) allocRp(action, path string, opts *Opts) *reqParams {
	a, ok := apc.Lookup(action)
	cos.Assertf(ok, "unknown action %q", action)
	var rp *reqParams
	if v := rpPool.Get(); v != nil {
		rp = v.(*reqParams)
	} else {
		rp = &reqParams{}
	}
	opts = opts.orDefault()
	rp.action, rp.opts, rp.path, rp.origPath = a, opts, path, path
	rp.tgt = c.targetOf(opts)
	return rp
}

func freeRp(rp *reqParams) {
	*rp = reqParams{}
	rpPool.Put(rp)
}

func (rp *reqParams) setHeader(key, value string) {
	if rp.header == nil {
		rp.header = make(http.Header, 2)
	}
	rp.header.Set(key, value)
}

//
// request headers
//

func (c *Client) newRequest(ctx context.Context, rp *reqParams) *session.Request {
	var (
		opts = rp.opts
		hdr  = make(http.Header, 16)
		req  = &session.Request{Header: hdr, Path: rp.path, Body: rp.body, Cksums: rp.cksums}
	)
	for k, vs := range opts.Header {
		hdr[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	for k, vs := range rp.header {
		hdr[k] = vs
	}
	hdr.Set(apc.HdrAction, rp.action.Name)
	hdr.Set(apc.HdrAuthor, cos.Left(opts.Author, c.config.Client.Author))
	hdr.Set(apc.HdrClient, c.config.Client.Name)
	hdr.Set(apc.HdrClientVersion, cmn.ClientVersion)
	hdr.Set(apc.HdrDSTID, c.sess.DSTID())
	hdr.Set(apc.HdrTimeStamp, time.Now().UTC().Format(apc.TimeStampLayout))
	hdr.Set(apc.HdrUserID, cos.Left(opts.UserID, c.config.Auth.User))
	hdr.Set(apc.HdrMachineID, c.machineID)
	if opts.URI != "" {
		hdr.Set(apc.HdrURI, opts.URI)
	}
	for _, dp := range rp.dataPaths {
		hdr.Add(apc.HdrDataPath, dp)
	}
	c.setAuth(rp, hdr)

	query := make(url.Values, len(opts.Query)+len(rp.query)+1)
	for k, vs := range opts.Query {
		query[k] = vs
	}
	for k, vs := range rp.query {
		query[k] = vs
	}
	standard := c.config.Server.Standard
	if standard {
		query.Set(apc.QparamAction, rp.action.Name)
	}
	req.Query = query
	req.Verb = rp.action.Verb(standard)
	tracing.Inject(ctx, hdr)
	return req
}

// either the ticket cookie or Basic credentials, never both;
// bootstrap actions never carry a ticket
func (c *Client) setAuth(rp *reqParams, hdr http.Header) {
	var (
		cookies = make([]string, 0, len(c.cookies)+1)
		ticket  string
		user    = cos.Left(rp.opts.UserID, c.config.Auth.User)
	)
	if !rp.action.IsBootstrap() {
		ticket = c.ticket(rp.tgt.host, user)
	}
	if ticket != "" {
		cookies = append(cookies, (&http.Cookie{Name: apc.CookieTicket, Value: ticket}).String())
	}
	for name, ck := range c.cookies {
		if name == apc.CookieTicket {
			continue
		}
		cookies = append(cookies, (&http.Cookie{Name: ck.Name, Value: ck.Value}).String())
	}
	if len(cookies) > 0 {
		hdr.Set(apc.HdrCookie, strings.Join(cookies, "; "))
	}
	if ticket == "" && user != "" && c.config.Auth.Password != "" {
		r := http.Request{Header: hdr}
		r.SetBasicAuth(user, c.config.Auth.Password)
	}
}

// the ticket store, when configured, is the only source of tickets;
// otherwise the session jar, until the ticket expires
func (c *Client) ticket(server, user string) string {
	if c.tickets != nil {
		delete(c.cookies, apc.CookieTicket)
		if user == "" {
			return ""
		}
		if t, ok := c.tickets.Find(server, user); ok {
			return t.Token
		}
		return ""
	}
	ck, ok := c.cookies[apc.CookieTicket]
	if !ok {
		return ""
	}
	if !ck.Expires.IsZero() && !time.Now().Before(ck.Expires) {
		delete(c.cookies, apc.CookieTicket)
		return ""
	}
	return ck.Value
}

// Set-Cookie => session jar
func (c *Client) mergeCookies(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		if ck.Name == apc.CookieTicket {
			ck.Expires = c.ticketExpiry(ck, ck.Value)
		}
		c.cookies[ck.Name] = ck
	}
}

//
// request loop
//

// do issues the request and follows redirects (bounded by MaxRedirects);
// busy responses are absorbed by `attempt`. On success the response head
// has been read and the body is pending: the caller must consume it.
func (c *Client) do(ctx context.Context, rp *reqParams) (*outcome, *http.Response, error) {
	for redirects := 0; ; redirects++ {
		out, resp, err := c.attempt(ctx, rp)
		if err != nil {
			return nil, nil, err
		}
		switch out.result {
		case Success:
			return out, resp, nil
		case RedirectPermanent, RedirectAlternate:
			c.sess.Discard()
			if redirects >= c.config.Retry.MaxRedirects {
				msg := fmt.Sprintf("too many redirects (%d)", redirects+1)
				return out, nil, c.errOp(rp, resp, msg, nil)
			}
			c.redirect(ctx, rp, out)
		default:
			msg := c.failMsg(out, resp)
			return out, nil, c.errOp(rp, resp, msg, nil)
		}
	}
}

func (c *Client) redirect(ctx context.Context, rp *reqParams, out *outcome) {
	c.tstats.Inc(stats.Redirects)
	tracing.AddEvent(ctx, "redirect", attribute.Int("status", out.status), attribute.String("target", out.target.String()))
	if out.result == RedirectAlternate {
		rp.plan = transcode.NewPlan(rp.origPath, out.path)
		nlog.Infof("%s %s: alternate representation %s (%s)", rp.action, rp.path, out.path, rp.plan)
		rp.path = out.path
	}
	if out.permanent && c.target != out.target {
		nlog.Infof("%s moved permanently to %s", c.target, out.target)
		c.target = out.target
	}
	rp.tgt = out.target
}

// attempt iterates resolved addresses; a busy address is retried up to
// BusyRetries times (sleeping as advised) before moving to the next one
func (c *Client) attempt(ctx context.Context, rp *reqParams) (*outcome, *http.Response, error) {
	addrs, err := c.addrs(ctx, rp.tgt)
	if err != nil {
		return nil, nil, c.errOp(rp, nil, "", err)
	}
	var lastErr error
	for _, addr := range addrs {
		for retries := 0; ; retries++ {
			out, resp, err := c.roundTrip(ctx, rp, addr)
			if err != nil {
				if ctx.Err() != nil || session.IsErrLocalIO(err) || errors.Is(err, session.ErrSessionBusy) {
					return nil, nil, c.errOp(rp, nil, "", err)
				}
				nlog.Warningf("%s %s via %s: %v", rp.action, rp.path, addr, err)
				lastErr = err
				break
			}
			if out.result != Busy {
				return out, resp, nil
			}
			c.sess.Discard()
			if retries >= c.config.Retry.BusyRetries {
				lastErr = fmt.Errorf("%s is busy (%d retries)", addr, retries)
				break
			}
			c.tstats.Inc(stats.BusyRetries)
			tracing.AddEvent(ctx, "busy", attribute.String("addr", addr), attribute.Int64("sleep_ms", out.sleep.Milliseconds()))
			if nlog.Verbose() {
				nlog.Debugf("%s busy, sleeping %v (retry %d)", addr, out.sleep, retries+1)
			}
			if err := c.sleep(ctx, out.sleep); err != nil {
				return nil, nil, c.errOp(rp, nil, "", err)
			}
		}
	}
	return nil, nil, c.errOp(rp, nil, fmt.Sprintf("all %d address(es) failed", len(addrs)), lastErr)
}

// a request is re-sent on a new connection only when it never reached the server
// (failed to send) or the server closed the connection without responding
func staleConn(ctx context.Context, err error, sent bool) bool {
	if ctx.Err() != nil || session.IsErrLocalIO(err) || cos.IsClientTimeout(err) {
		return false
	}
	return !sent || errors.Is(err, session.ErrPeerClosed)
}

// single request-response exchange; a stale keep-alive connection is retried once
func (c *Client) roundTrip(ctx context.Context, rp *reqParams, addr string) (*outcome, *http.Response, error) {
	for i := 0; ; i++ {
		reused := c.sess.Matches(rp.tgt.host, rp.tgt.port, rp.tgt.secure)
		if err := c.sess.Connect(ctx, rp.tgt.host, addr, rp.tgt.port, rp.tgt.secure); err != nil {
			return nil, nil, err
		}
		req := c.newRequest(ctx, rp)
		rp.lastHdr = req.Header
		hashes, err := c.sess.Send(ctx, req)
		sent := err == nil
		var resp *http.Response
		if sent {
			resp, err = c.sess.ReadHead(ctx)
		}
		if err != nil {
			if reused && i == 0 && staleConn(ctx, err, sent) {
				nlog.Warningf("keep-alive connection to %s: %v - reconnecting", addr, err)
				continue
			}
			return nil, nil, err
		}
		rp.hashes = hashes
		c.mergeCookies(resp)
		out := interpret(rp.action, rp.phase, resp.StatusCode, resp.Header, rp.tgt, c.config.Retry.BusySleep)
		return out, resp, nil
	}
}

// failure message: server body (bounded), else reason, else status line
func (c *Client) failMsg(out *outcome, resp *http.Response) string {
	if resp == nil {
		return out.reason
	}
	if resp.ContentLength <= 0 || resp.ContentLength > maxErrBody {
		c.sess.Discard()
		return out.reason
	}
	b, err := c.sess.ReadBody()
	if err != nil || len(b) == 0 {
		return out.reason
	}
	return strings.TrimSpace(string(b))
}
