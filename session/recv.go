// Package session implements a single-connection, keep-alive capable HTTP(S) transport
// for the DSS protocol: one request in flight, fixed-size chunked send and receive.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package session

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/NVIDIA/dss/cmn/nlog"
	"github.com/NVIDIA/dss/stats"

	"github.com/pkg/errors"
)

// ReadHead parses the response status line and headers; the body (if any)
// remains pending until Receive, ReadBody, or Discard.
func (s *Session) ReadHead(ctx context.Context) (*http.Response, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	if _, err := s.br.Peek(1); err != nil {
		if err == io.EOF || cos.IsErrConnectionReset(err) {
			err = errors.Wrap(ErrPeerClosed, err.Error())
		}
		return nil, s.fail(s.ctxErr(ctx, errors.Wrap(err, "failed to read response")))
	}
	resp, err := http.ReadResponse(s.br, nil)
	if err != nil {
		return nil, s.fail(s.ctxErr(ctx, errors.Wrap(err, "failed to read response")))
	}
	s.resp = resp
	s.status.Store(int32(resp.StatusCode))
	if nlog.Verbose() {
		nlog.Debugf("[%s] <= %s (content-length %d) %s", s.dstid, resp.Status, resp.ContentLength, fmtHdr(resp.Header))
	}
	return resp, nil
}

// Do sends the request and reads the response head
func (s *Session) Do(ctx context.Context, req *Request) (*http.Response, error) {
	if _, err := s.Send(ctx, req); err != nil {
		return nil, err
	}
	return s.ReadHead(ctx)
}

// Receive copies the response body into `sink` in fixed-size chunks.
//   - expected >= 0: exactly `expected` bytes; fewer bytes or early close => ErrTruncated
//   - expected < 0 and sink != nil: until EOF
//   - expected < 0 and sink == nil: no body read; the connection is reused only when
//     the response declared zero length
//
// Sink write failure returns *ErrLocalIO; the connection is then drained (bounded) or closed.
func (s *Session) Receive(sink io.Writer, expected int64) (int64, error) {
	resp := s.resp
	if resp == nil {
		return 0, ErrNoResponse
	}
	if expected < 0 && sink == nil {
		s.done(resp.ContentLength == 0)
		return 0, nil
	}
	if sink == nil {
		sink = io.Discard
	}
	var (
		n    int64 // received
		body = resp.Body
	)
	for expected < 0 || n < expected {
		chunk := s.buf
		if expected >= 0 {
			if rem := expected - n; rem < int64(len(chunk)) {
				chunk = chunk[:rem]
			}
		}
		nr, rerr := body.Read(chunk)
		if nr > 0 {
			n += int64(nr)
			s.recv.Add(int64(nr))
			s.tstats.Add(stats.RecvSize, int64(nr))
			nw, werr := sink.Write(chunk[:nr])
			if werr == nil && nw < nr {
				werr = io.ErrShortWrite
			}
			if werr != nil {
				s.drain(expected, n)
				return n - int64(nr-nw), &ErrLocalIO{Op: "write", Err: werr}
			}
		}
		if rerr == nil {
			continue
		}
		if rerr == io.EOF && (expected < 0 || n == expected) {
			break
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			s.done(false)
			return n, errors.Wrapf(ErrTruncated, "received %d of %d bytes", n, expected)
		}
		s.Close()
		return n, errors.Wrapf(rerr, "failed to receive (%d of %d bytes)", n, expected)
	}
	// the body must be exhausted for the connection to be reused
	s.done(expected < 0 || resp.ContentLength == n)
	return n, nil
}

// ReadBody buffers the entire body (bounded by its declared length)
func (s *Session) ReadBody() ([]byte, error) {
	if s.resp == nil {
		return nil, ErrNoResponse
	}
	var (
		buf      bytes.Buffer
		expected = s.resp.ContentLength
	)
	if expected > 0 {
		buf.Grow(int(min(expected, int64(len(s.buf)))))
	}
	_, err := s.Receive(&buf, expected)
	return buf.Bytes(), err
}

// Discard drains the response body (redirect, busy, and error paths)
func (s *Session) Discard() {
	resp := s.resp
	if resp == nil {
		s.inflight.Store(false)
		return
	}
	if resp.ContentLength == 0 {
		s.done(true)
		return
	}
	s.drain(resp.ContentLength, 0)
}

// drain what's left of a known-length body, or give up on the connection
func (s *Session) drain(expected, n int64) {
	resp := s.resp
	if resp == nil || expected < 0 || resp.ContentLength < 0 || resp.ContentLength-n > maxDrain {
		s.done(false)
		return
	}
	m, err := io.CopyN(io.Discard, resp.Body, resp.ContentLength-n)
	s.recv.Add(m)
	s.tstats.Add(stats.RecvSize, m)
	s.done(err == nil)
}
