/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package api

import (
	"context"
	"errors"
	"net"
	"strconv"

	"github.com/NVIDIA/dss/cmn/nlog"
)

var errNoHost = errors.New("no DSS host configured (see server.host or DSS_ENDPOINT)")

type target struct {
	host   string
	port   int
	secure bool
}

func (t target) String() string {
	scheme := "http"
	if t.secure {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

// per-call target: client default overridden by opts
func (c *Client) targetOf(opts *Opts) target {
	tgt := c.target
	if opts.Host != "" {
		tgt.host = opts.Host
	}
	if opts.Port != 0 {
		tgt.port = opts.Port
	}
	if opts.Secure != nil {
		tgt.secure = *opts.Secure
	}
	return tgt
}

// addrs resolves the target unless the keep-alive connection matches it;
// multiple addresses are returned rotated by a random offset
func (c *Client) addrs(ctx context.Context, tgt target) ([]string, error) {
	if tgt.host == "" {
		return nil, errNoHost
	}
	if c.sess.Matches(tgt.host, tgt.port, tgt.secure) {
		return []string{c.sess.Addr()}, nil
	}
	if net.ParseIP(tgt.host) != nil {
		return []string{tgt.host}, nil
	}
	addrs, err := c.resolver.LookupHost(ctx, tgt.host)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, &net.DNSError{Err: "no addresses", Name: tgt.host, IsNotFound: true}
	}
	if len(addrs) > 1 {
		addrs = rotate(addrs, c.rnd.IntN(len(addrs)))
		if nlog.Verbose() {
			nlog.Debugf("%s resolves to %v", tgt.host, addrs)
		}
	}
	return addrs, nil
}

func rotate(addrs []string, off int) []string {
	out := make([]string, 0, len(addrs))
	out = append(out, addrs[off:]...)
	return append(out, addrs[:off]...)
}
