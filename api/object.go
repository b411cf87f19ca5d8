/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/NVIDIA/dss/api/apc"
	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/NVIDIA/dss/cmn/nlog"
	"github.com/NVIDIA/dss/session"

	"github.com/pkg/errors"
)

var errLinkToWriter = errors.New("link-name response requires a file destination")

// narrows per-call options to the target and identity (follow-up requests)
func (o *Opts) derive() *Opts {
	return &Opts{Host: o.Host, Port: o.Port, Secure: o.Secure, Author: o.Author, UserID: o.UserID}
}

/////////
// GET //
/////////

// Get downloads `path` into the local file `dst`. Bytes are staged in
// `dst.INCOMPLETE`; `dst` appears only once complete (and, with opts.Checksum,
// validated against MD5SUM). On failure the staging file is removed.
func (c *Client) Get(ctx context.Context, path, dst string, opts *Opts) (n int64, err error) {
	opts = opts.orDefault()
	ctx, cancel, span, started := c.begin(ctx, apc.ActGet, path, opts)
	n, err = c.getFile(ctx, path, cos.ExpandPath(dst), opts)
	c.end(apc.ActGet, cancel, span, started, err)
	return n, err
}

// GetWriter streams `path` into `w` (no staging)
func (c *Client) GetWriter(ctx context.Context, path string, w io.Writer, opts *Opts) (n int64, err error) {
	opts = opts.orDefault()
	ctx, cancel, span, started := c.begin(ctx, apc.ActGet, path, opts)
	n, err = c.getWriter(ctx, path, w, opts)
	c.end(apc.ActGet, cancel, span, started, err)
	return n, err
}

func (c *Client) getFile(ctx context.Context, path, dst string, opts *Opts) (int64, error) {
	rp := c.allocRp(apc.ActGet, path, opts)
	defer freeRp(rp)
	out, resp, err := c.fetch(ctx, rp)
	if err != nil {
		return 0, err
	}
	sf, err := cos.NewStagedFile(dst)
	if err != nil {
		c.sess.Discard()
		return 0, c.errOp(rp, resp, "", &session.ErrLocalIO{Op: "create", Err: err})
	}
	if out.linkName != "" {
		c.sess.Discard()
		if err := sf.PublishLink(out.linkName); err != nil {
			return 0, c.errOp(rp, resp, "", &session.ErrLocalIO{Op: "link", Err: err})
		}
		nlog.Infof("%s => %s (link)", dst, out.linkName)
		return 0, nil
	}
	n, err := c.receive(ctx, rp, resp, sf)
	if err != nil {
		sf.Abort()
		return n, err
	}
	if err := sf.Publish(); err != nil {
		return n, c.errOp(rp, resp, "", &session.ErrLocalIO{Op: "rename", Err: err})
	}
	return n, nil
}

func (c *Client) getWriter(ctx context.Context, path string, w io.Writer, opts *Opts) (int64, error) {
	rp := c.allocRp(apc.ActGet, path, opts)
	defer freeRp(rp)
	out, resp, err := c.fetch(ctx, rp)
	if err != nil {
		return 0, err
	}
	if out.linkName != "" {
		c.sess.Discard()
		return 0, c.errOp(rp, resp, "", errLinkToWriter)
	}
	return c.receive(ctx, rp, resp, w)
}

func (c *Client) fetch(ctx context.Context, rp *reqParams) (*outcome, *http.Response, error) {
	if scope := rp.opts.Scope; scope != "" {
		if !apc.ValidScope(scope) {
			return nil, nil, errors.Errorf("invalid scope %q (expecting one of: %s, %s, %s, %s)",
				scope, apc.ScopeAny, apc.ScopeLocal, apc.ScopeRemote, apc.ScopeExact)
		}
		rp.query = url.Values{apc.QparamScope: []string{scope}}
	}
	return c.do(ctx, rp)
}

// receive streams the pending body through the transcoding plan (if any) into `w`
func (c *Client) receive(ctx context.Context, rp *reqParams, resp *http.Response, w io.Writer) (int64, error) {
	var hashes *cos.CksumHashes
	if rp.opts.Checksum {
		hashes = cos.NewCksumHashes(cos.ChecksumMD5)
		w = io.MultiWriter(w, hashes)
	}
	wc, err := rp.plan.WrapSink(w)
	if err != nil {
		c.sess.Discard()
		return 0, c.errOp(rp, resp, "", &session.ErrLocalIO{Op: "transcode", Err: err})
	}
	n, err := c.sess.Receive(wc, resp.ContentLength)
	if errC := wc.Close(); err == nil && errC != nil {
		err = &session.ErrLocalIO{Op: "transcode", Err: errC}
	}
	if err != nil {
		return n, c.errOp(rp, resp, "", err)
	}
	if hashes == nil {
		return n, nil
	}
	hashes.Finalize()
	return n, c.verifyMD5(ctx, rp.origPath, rp.opts, hashes.Get(cos.ChecksumMD5))
}

// verifyMD5 compares the local digest with the server's MD5SUM
func (c *Client) verifyMD5(ctx context.Context, path string, opts *Opts, local *cos.Cksum) error {
	text, err := c.query(ctx, apc.ActMD5Sum, path, opts.derive())
	if err != nil {
		return err
	}
	remote := firstToken(text)
	if remote == "" {
		return errors.Errorf("%s: server returned no MD5 checksum", path)
	}
	return local.Verify(cos.NewCksum(cos.ChecksumMD5, remote), path)
}

///////////
// STORE //
///////////

// Put uploads the local file `src` to `path`
func (c *Client) Put(ctx context.Context, path, src string, opts *Opts) (*cos.Cksum, error) {
	fo, err := cos.NewFileOpener(cos.ExpandPath(src))
	if err != nil {
		return nil, &session.ErrLocalIO{Op: "open", Err: err}
	}
	return c.PutSource(ctx, path, fo, opts)
}

// PutSource uploads `src` with the two-phase STORE handshake and returns
// the MD5 of the bytes sent. With opts.Checksum, the stored bytes are
// verified (MD5 and SHA1) by reading them back, or else by MD5SUM.
// If the server returns a job id the call waits for the job to finish.
func (c *Client) PutSource(ctx context.Context, path string, src session.Source, opts *Opts) (cksum *cos.Cksum, err error) {
	opts = opts.orDefault()
	ctx, cancel, span, started := c.begin(ctx, apc.ActStore, path, opts)
	cksum, err = c.put(ctx, path, src, opts)
	c.end(apc.ActStore, cancel, span, started, err)
	return cksum, err
}

func (c *Client) put(ctx context.Context, path string, src session.Source, opts *Opts) (*cos.Cksum, error) {
	rp := c.allocRp(apc.ActStore, path, opts)
	defer freeRp(rp)

	// 1. handshake: Content-Length 0
	rp.phase = phaseHandshake
	hs, _, err := c.do(ctx, rp)
	if err != nil {
		return nil, err
	}
	c.sess.Discard()

	// 2. body
	body, cleanup, err := rp.plan.Source(src)
	if err != nil {
		return nil, c.errOp(rp, nil, "", &session.ErrLocalIO{Op: "transcode", Err: err})
	}
	defer cleanup()
	rp.phase = phaseBody
	rp.body = body
	rp.cksums = []string{cos.ChecksumMD5}
	if opts.Checksum {
		rp.cksums = append(rp.cksums, cos.ChecksumSHA1)
	}
	if hs.storeKey != "" {
		rp.setHeader(apc.HdrStoreCheck, hs.storeKey)
	}
	out, _, err := c.do(ctx, rp)
	if err != nil {
		return nil, err
	}
	c.sess.Discard()
	sent := rp.hashes
	cksum := sent.Get(cos.ChecksumMD5)

	// storecheck on => server reports its digest of the received body
	if hs.storeCheckOn() && isHexDigest(out.storeCheck) {
		if err := cksum.Verify(cos.NewCksum(cos.ChecksumMD5, out.storeCheck), path); err != nil {
			return cksum, err
		}
	}
	if out.jobID != "" || out.jobStatus != "" {
		if err := c.waitJob(ctx, path, out, opts.derive()); err != nil {
			return cksum, err
		}
	}
	if !opts.Checksum {
		return cksum, nil
	}
	if out.status == http.StatusNoContent && out.dataPath != "" && out.storeKey != "" {
		return cksum, c.readBack(ctx, path, opts.derive(), out, sent)
	}
	if rp.plan.IsNoop() {
		return cksum, c.verifyMD5(ctx, path, opts, cksum)
	}
	return cksum, nil
}

// readBack fetches the stored bytes (RECEIVE: storekey) and compares MD5 and SHA1
func (c *Client) readBack(ctx context.Context, path string, opts *Opts, out *outcome, sent *cos.CksumHashes) error {
	rp := c.allocRp(apc.ActGet, path, opts)
	defer freeRp(rp)
	rp.setHeader(apc.HdrReceive, out.storeKey)
	rp.dataPaths = []string{out.dataPath}
	_, resp, err := c.do(ctx, rp)
	if err != nil {
		return err
	}
	got := cos.NewCksumHashes(cos.ChecksumMD5, cos.ChecksumSHA1)
	if _, err := c.sess.Receive(got, resp.ContentLength); err != nil {
		return c.errOp(rp, resp, "read-back", err)
	}
	got.Finalize()
	for _, ty := range []string{cos.ChecksumMD5, cos.ChecksumSHA1} {
		if err := got.Get(ty).Verify(sent.Get(ty), path+" (read-back)"); err != nil {
			return err
		}
	}
	return nil
}

func isHexDigest(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, c := range strings.ToLower(s) {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

//////////////
// mutating //
//////////////

func (c *Client) Delete(ctx context.Context, path string, opts *Opts) error {
	return c.mutate(ctx, apc.ActDelete, path, opts)
}

func (c *Client) Register(ctx context.Context, path string, opts *Opts) error {
	return c.mutate(ctx, apc.ActRegister, path, opts)
}

func (c *Client) Release(ctx context.Context, path string, opts *Opts) error {
	return c.mutate(ctx, apc.ActRelease, path, opts)
}

func (c *Client) Takeover(ctx context.Context, path string, opts *Opts) error {
	return c.mutate(ctx, apc.ActTakeover, path, opts)
}

// CacheFile asks the server to cache `path` (opts.URI: indirect source)
func (c *Client) CacheFile(ctx context.Context, path string, opts *Opts) error {
	return c.mutate(ctx, apc.ActCacheFile, path, opts)
}

func (c *Client) MirrorPut(ctx context.Context, path string, opts *Opts) error {
	return c.mutate(ctx, apc.ActMirrorPut, path, opts)
}

// single round trip; a returned job id is waited upon
func (c *Client) mutate(ctx context.Context, action, path string, opts *Opts) (err error) {
	opts = opts.orDefault()
	ctx, cancel, span, started := c.begin(ctx, action, path, opts)
	defer func() { c.end(action, cancel, span, started, err) }()

	rp := c.allocRp(action, path, opts)
	defer freeRp(rp)
	out, _, err := c.do(ctx, rp)
	if err != nil {
		return err
	}
	c.sess.Discard()
	if out.jobID != "" || out.jobStatus != "" {
		return c.waitJob(ctx, path, out, opts.derive())
	}
	return nil
}
