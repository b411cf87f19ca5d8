/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/NVIDIA/dss/api/apc"
	"github.com/NVIDIA/dss/cmn/cos"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// Read-only operations never fail: on error they return the zero value,
// log the error, and keep it in LastErr().

func (c *Client) Locate(ctx context.Context, path string, opts *Opts) []string {
	return cos.SplitLines(c.softQuery(ctx, apc.ActLocate, path, opts))
}

func (c *Client) LocateFile(ctx context.Context, path string, opts *Opts) []string {
	return cos.SplitLines(c.softQuery(ctx, apc.ActLocateFile, path, opts))
}

func (c *Client) LocateLocal(ctx context.Context, path string, opts *Opts) []string {
	return cos.SplitLines(c.softQuery(ctx, apc.ActLocateLocal, path, opts))
}

func (c *Client) LocateRemote(ctx context.Context, path string, opts *Opts) []string {
	return cos.SplitLines(c.softQuery(ctx, apc.ActLocateRemote, path, opts))
}

func (c *Client) Head(ctx context.Context, path string, opts *Opts) string {
	return c.softQuery(ctx, apc.ActHead, path, opts)
}

func (c *Client) HeadLocal(ctx context.Context, path string, opts *Opts) string {
	return c.softQuery(ctx, apc.ActHeadLocal, path, opts)
}

func (c *Client) Stat(ctx context.Context, path string, opts *Opts) string {
	return c.softQuery(ctx, apc.ActStat, path, opts)
}

// Size returns the size in bytes, or 0 if unknown
func (c *Client) Size(ctx context.Context, path string, opts *Opts) int64 {
	text := strings.TrimSpace(c.softQuery(ctx, apc.ActSize, path, opts))
	if text == "" {
		return 0
	}
	size, err := strconv.ParseInt(firstToken(text), 10, 64)
	if err != nil {
		c.soft(errors.Wrapf(err, "%s %s: invalid size %q", apc.ActSize, path, cos.SHead(text)))
		return 0
	}
	return size
}

// MD5Sum returns lowercase hex digest, or "" if unknown
func (c *Client) MD5Sum(ctx context.Context, path string, opts *Opts) string {
	return firstToken(c.softQuery(ctx, apc.ActMD5Sum, path, opts))
}

func (c *Client) SHA1Sum(ctx context.Context, path string, opts *Opts) string {
	return firstToken(c.softQuery(ctx, apc.ActSHA1Sum, path, opts))
}

func (c *Client) GetStats(ctx context.Context, opts *Opts) string {
	return c.softQuery(ctx, apc.ActGetStats, "", opts)
}

// GetStatsJSON decodes GETSTATS into `v`
func (c *Client) GetStatsJSON(ctx context.Context, v any, opts *Opts) error {
	text := c.GetStats(ctx, opts)
	if err := c.lastErr; err != nil {
		return err
	}
	if err := jsoniter.UnmarshalFromString(text, v); err != nil {
		err = errors.Wrapf(err, "%s: failed to decode", apc.ActGetStats)
		c.soft(err)
		return err
	}
	return nil
}

// GetLog returns the job log (text)
func (c *Client) GetLog(ctx context.Context, jobID string, opts *Opts) string {
	opts = opts.orDefault()
	hdr := opts.Header.Clone()
	if hdr == nil {
		hdr = make(http.Header, 1)
	}
	hdr.Set(apc.HdrJobID, jobID)
	o := *opts
	o.Header = hdr
	return c.softQuery(ctx, apc.ActGetLog, "", &o)
}

//
// probes: 200 and 204 => true
//

func (c *Client) TestFile(ctx context.Context, path string, opts *Opts) bool {
	return c.probe(ctx, apc.ActTestFile, path, opts)
}

func (c *Client) TestCache(ctx context.Context, path string, opts *Opts) bool {
	return c.probe(ctx, apc.ActTestCache, path, opts)
}

func (c *Client) TestStore(ctx context.Context, path string, opts *Opts) bool {
	return c.probe(ctx, apc.ActTestStore, path, opts)
}

func (c *Client) Ping(ctx context.Context, opts *Opts) bool {
	return c.probe(ctx, apc.ActPing, "", opts)
}

func (c *Client) probe(ctx context.Context, action, path string, opts *Opts) (ok bool) {
	opts = opts.orDefault()
	ctx, cancel, span, started := c.begin(ctx, action, path, opts)
	rp := c.allocRp(action, path, opts)
	out, _, err := c.do(ctx, rp)
	if err == nil {
		c.sess.Discard()
		ok = out.status == http.StatusOK || out.status == http.StatusNoContent
	}
	freeRp(rp)
	c.end(action, cancel, span, started, err)
	c.soft(err)
	return ok
}

//
// internal
//

func (c *Client) softQuery(ctx context.Context, action, path string, opts *Opts) string {
	opts = opts.orDefault()
	ctx, cancel, span, started := c.begin(ctx, action, path, opts)
	text, err := c.query(ctx, action, path, opts)
	c.end(action, cancel, span, started, err)
	c.soft(err)
	return text
}

// query returns the buffered response body (bounded by Content-Length)
func (c *Client) query(ctx context.Context, action, path string, opts *Opts) (string, error) {
	rp := c.allocRp(action, path, opts)
	defer freeRp(rp)
	_, resp, err := c.do(ctx, rp)
	if err != nil {
		return "", err
	}
	b, err := c.sess.ReadBody()
	if err != nil {
		return "", c.errOp(rp, resp, "", err)
	}
	return string(b), nil
}

// first whitespace-separated token, lowercase ("<digest>  <path>" => "<digest>")
func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
