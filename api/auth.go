/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/NVIDIA/dss/api/apc"
	"github.com/NVIDIA/dss/api/authn"
	"github.com/NVIDIA/dss/cmn/cos"

	"github.com/pkg/errors"
)

// DSSInit exchanges user credentials (Basic) for a ticket and stores it
// in the ticket store under (server, user)
func (c *Client) DSSInit(ctx context.Context, opts *Opts) (*authn.Ticket, error) {
	return c.getTicket(ctx, apc.ActDSSInit, opts)
}

// DSSInitForce: same as DSSInit, server-side re-initialization
func (c *Client) DSSInitForce(ctx context.Context, opts *Opts) (*authn.Ticket, error) {
	return c.getTicket(ctx, apc.ActDSSInitForce, opts)
}

// DSSGetTicket renews the ticket (authenticating with the current one, if any)
func (c *Client) DSSGetTicket(ctx context.Context, opts *Opts) (*authn.Ticket, error) {
	return c.getTicket(ctx, apc.ActDSSGetTicket, opts)
}

func (c *Client) getTicket(ctx context.Context, action string, opts *Opts) (t *authn.Ticket, err error) {
	opts = opts.orDefault()
	ctx, cancel, span, started := c.begin(ctx, action, "", opts)
	defer func() { c.end(action, cancel, span, started, err) }()

	user := cos.Left(opts.UserID, c.config.Auth.User)
	if user == "" {
		return nil, errors.Errorf("%s: user name is required", action)
	}
	rp := c.allocRp(action, "", opts)
	defer freeRp(rp)
	_, resp, err := c.do(ctx, rp)
	if err != nil {
		return nil, err
	}
	body, err := c.sess.ReadBody()
	if err != nil {
		return nil, c.errOp(rp, resp, "", err)
	}
	var ck *http.Cookie
	for _, k := range resp.Cookies() {
		if k.Name == apc.CookieTicket {
			ck = k
		}
	}
	t = &authn.Ticket{Server: rp.tgt.host, User: user}
	if ck != nil {
		t.Token = ck.Value
	} else {
		t.Token = strings.TrimSpace(string(body))
	}
	if t.Token == "" {
		return nil, c.errOp(rp, resp, "no ticket in response", nil)
	}
	t.Expiry = c.ticketExpiry(ck, t.Token)
	if c.tickets == nil {
		c.cookies[apc.CookieTicket] = &http.Cookie{Name: apc.CookieTicket, Value: t.Token, Expires: t.Expiry}
		return t, nil
	}
	if err := c.tickets.Add(t); err != nil {
		return t, errors.Wrapf(err, "%s: failed to store ticket", action)
	}
	return t, nil
}

// cookie Max-Age, cookie Expires, JWT `exp`, configured TTL - in that order
func (c *Client) ticketExpiry(ck *http.Cookie, token string) time.Time {
	now := time.Now()
	if ck != nil {
		if ck.MaxAge > 0 {
			return now.Add(time.Duration(ck.MaxAge) * time.Second)
		}
		if !ck.Expires.IsZero() {
			return ck.Expires
		}
	}
	if exp, ok := authn.ExpiryFromToken(token); ok {
		return exp
	}
	return now.Add(c.config.Auth.TicketTTL)
}
