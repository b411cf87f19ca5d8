// Package session implements a single-connection, keep-alive capable HTTP(S) transport
// for the DSS protocol: one request in flight, fixed-size chunked send and receive.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package session

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/NVIDIA/dss/cmn"
	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/NVIDIA/dss/cmn/nlog"
	"github.com/NVIDIA/dss/stats"

	"github.com/pkg/errors"
)

type Request struct {
	Header http.Header
	Query  url.Values
	Body   Source // nil: Content-Length 0
	Verb   string
	Path   string
	// checksums computed over the bytes sent (e.g., md5, sha1)
	Cksums []string
}

func (r *Request) URI() string {
	path := r.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{Path: path}
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}
	return u.RequestURI()
}

func (r *Request) ContentLength() int64 {
	if r.Body == nil {
		return 0
	}
	return r.Body.Size()
}

// Send writes the request line and headers and then streams the body (if any) in
// fixed-size chunks. Returns the checksums of the bytes sent, if requested.
// The caller must then ReadHead and consume the response (Receive, ReadBody, Discard).
func (s *Session) Send(ctx context.Context, req *Request) (*cos.CksumHashes, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	if !s.inflight.CompareAndSwap(false, true) {
		return nil, ErrSessionBusy
	}
	s.arm(ctx)
	s.nreq.Add(1)

	size := req.ContentLength()
	n, err := s.writeHead(req, size)
	s.sent.Add(int64(n))
	s.tstats.Add(stats.SentSize, int64(n))
	if err != nil {
		return nil, s.fail(s.ctxErr(ctx, err))
	}
	if nlog.Verbose() {
		nlog.Debugf("[%s] => %s %s %s", s.dstid, req.Verb, req.URI(), fmtHdr(req.Header))
	}
	var hashes *cos.CksumHashes
	if len(req.Cksums) > 0 {
		hashes = cos.NewCksumHashes(req.Cksums...)
	}
	if size > 0 {
		if err := s.writeBody(req.Body, size, hashes); err != nil {
			return nil, s.fail(s.ctxErr(ctx, err))
		}
	}
	if err := s.bw.Flush(); err != nil {
		return nil, s.fail(s.ctxErr(ctx, err))
	}
	if hashes != nil {
		hashes.Finalize()
	}
	return hashes, nil
}

func (s *Session) writeHead(req *Request, size int64) (int, error) {
	var sb strings.Builder
	sb.WriteString(req.Verb)
	sb.WriteByte(' ')
	sb.WriteString(req.URI())
	sb.WriteString(" HTTP/1.1\r\nHost: ")
	sb.WriteString(s.hostHeader())
	sb.WriteString("\r\n")
	hdr := req.Header.Clone()
	if hdr == nil {
		hdr = make(http.Header)
	}
	hdr.Del("Host")
	hdr.Set("Content-Length", strconv.FormatInt(size, 10))
	if err := hdr.Write(&sb); err != nil {
		return 0, err
	}
	sb.WriteString("\r\n")
	return s.bw.WriteString(sb.String())
}

func (s *Session) hostHeader() string {
	if (s.secure && s.port == 443) || (!s.secure && s.port == 80) {
		return s.host
	}
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

func (s *Session) writeBody(src Source, size int64, hashes *cos.CksumHashes) error {
	r, err := src.Open()
	if err != nil {
		return &ErrLocalIO{Op: "open", Err: err}
	}
	defer r.Close()
	var written int64
	for written < size {
		chunk := s.buf
		if rem := size - written; rem < int64(len(chunk)) {
			chunk = chunk[:rem]
		}
		nr, rerr := io.ReadFull(r, chunk)
		if nr > 0 {
			if hashes != nil {
				hashes.Write(chunk[:nr])
			}
			nw, werr := s.bw.Write(chunk[:nr])
			written += int64(nw)
			s.sent.Add(int64(nw))
			s.tstats.Add(stats.SentSize, int64(nw))
			if werr != nil {
				return werr
			}
		}
		if rerr != nil {
			if written < size {
				return &ErrLocalIO{Op: "read", Err: fmt.Errorf("source short by %d bytes: %w", size-written, rerr)}
			}
			break
		}
	}
	return nil
}

// ctx cancellation shows up as a deadline error from the socket
func (*Session) ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return errors.Wrap(cerr, err.Error())
	}
	return err
}

func fmtHdr(hdr http.Header) string {
	var sb strings.Builder
	cmn.SanitizeHeader(hdr).Write(&sb)
	return strings.ReplaceAll(strings.TrimSpace(sb.String()), "\r\n", "; ")
}
