// Package transcode provides the pluggable (de)compression step around transfers
// redirected (303) to an alternate representation of the same file.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package transcode

import (
	"fmt"
	"io"
	"os"

	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/NVIDIA/dss/cmn/nlog"

	"github.com/pkg/errors"
)

// Plan converts between the requested representation (`Local`) and the one the
// server redirected to (`Remote`). Zero-value Plan is a no-op.
type Plan struct {
	Local  Codec // nil: plain
	Remote Codec // ditto
	From   string
	To     string
}

// NewPlan compares compression suffixes of the requested and redirected paths.
// Unregistered suffixes are treated as plain (no transcoding).
func NewPlan(requested, redirected string) *Plan {
	lsuf, lc := Suffix(requested)
	rsuf, rc := Suffix(redirected)
	p := &Plan{From: requested, To: redirected}
	if lsuf == rsuf {
		return p
	}
	p.Local, p.Remote = lc, rc
	if lc == nil && rc == nil {
		nlog.Infof("%s => %s: no codec registered, transferring as is", requested, redirected)
	}
	return p
}

func (p *Plan) IsNoop() bool { return p == nil || (p.Local == nil && p.Remote == nil) }

func (p *Plan) String() string {
	if p.IsNoop() {
		return "transcode[none]"
	}
	return fmt.Sprintf("transcode[%s => %s]", ext(p.Local), ext(p.Remote))
}

func ext(c Codec) string {
	if c == nil {
		return "plain"
	}
	return c.Ext()
}

// download: server (remote representation) => sink (local representation)
func (p *Plan) WrapSink(sink io.Writer) (io.WriteCloser, error) {
	if p.IsNoop() {
		return nopWriteCloser{sink}, nil
	}
	w := io.WriteCloser(nopWriteCloser{sink})
	if p.Local != nil {
		enc, err := p.Local.Encode(sink)
		if err != nil {
			return nil, err
		}
		w = enc
	}
	if p.Remote == nil {
		return w, nil
	}
	// decode on the fly
	pr, pw := io.Pipe()
	dec, err := p.Remote.Decode(pr)
	if err != nil {
		return nil, err
	}
	ds := &decodingSink{pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := io.Copy(w, dec)
		dec.Close()
		if errC := w.Close(); err == nil {
			err = errC
		}
		pr.CloseWithError(err)
		ds.done <- err
	}()
	return ds, nil
}

// upload: source (local representation) => temporary file (remote representation)
// The caller must call `cleanup` when done.
func (p *Plan) Source(src cos.Opener) (out cos.Opener, cleanup func(), err error) {
	cleanup = func() {}
	if p.IsNoop() {
		return src, cleanup, nil
	}
	r, err := src.Open()
	if err != nil {
		return nil, cleanup, err
	}
	defer r.Close()
	var rd io.Reader = r
	if p.Local != nil {
		dec, err := p.Local.Decode(r)
		if err != nil {
			return nil, cleanup, err
		}
		defer dec.Close()
		rd = dec
	}
	fh, err := os.CreateTemp("", "dss-transcode-*")
	if err != nil {
		return nil, cleanup, err
	}
	cleanup = func() { os.Remove(fh.Name()) }
	var w io.WriteCloser = nopWriteCloser{fh}
	if p.Remote != nil {
		if w, err = p.Remote.Encode(fh); err != nil {
			fh.Close()
			cleanup()
			return nil, func() {}, err
		}
	}
	_, err = io.Copy(w, rd)
	if errC := w.Close(); err == nil {
		err = errC
	}
	if errC := fh.Close(); err == nil {
		err = errC
	}
	if err != nil {
		cleanup()
		return nil, func() {}, errors.Wrapf(err, "%s: failed to transcode %s", p, p.From)
	}
	fo, err := cos.NewFileOpener(fh.Name())
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return fo, cleanup, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type decodingSink struct {
	pw   *io.PipeWriter
	done chan error
}

func (ds *decodingSink) Write(b []byte) (int, error) { return ds.pw.Write(b) }

// Close waits for the decoder to drain
func (ds *decodingSink) Close() error {
	ds.pw.Close()
	return <-ds.done
}
