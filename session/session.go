// Package session implements a single-connection, keep-alive capable HTTP(S) transport
// for the DSS protocol: one request in flight, fixed-size chunked send and receive.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package session

import (
	"bufio"
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/NVIDIA/dss/cmn"
	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/NVIDIA/dss/cmn/nlog"
	"github.com/NVIDIA/dss/stats"

	"github.com/pkg/errors"
)

// upper bound on the bytes drained to keep a connection alive after a failure
const maxDrain = 4 * cos.MiB

type (
	// byte source with known length
	Source = cos.Opener

	DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

	Args struct {
		cmn.TransportArgs
		TLS           *tls.Config // nil: default (system roots)
		Dial          DialFunc    // nil: net.Dialer
		Tracker       stats.Tracker
		AllowFallback bool // plain => secure when plain fails
	}

	// Snap is a point-in-time copy of session counters
	Snap struct {
		BytesSent  int64 `json:"bytes_sent"`
		BytesRecv  int64 `json:"bytes_recv"`
		Requests   int64 `json:"requests"`
		Connects   int64 `json:"connects"`
		LastStatus int   `json:"last_status"`
	}

	Session struct {
		args   Args
		tstats stats.Tracker
		dial   DialFunc
		conn   *idleConn
		br     *bufio.Reader
		bw     *bufio.Writer
		resp   *http.Response // current response (head read, body pending)
		stop   func() bool    // ctx => deadline hook
		dstid  string
		host   string // logical host name (Host header, SNI)
		addr   string // dialed address
		buf    []byte
		// counters
		sent     atomic.Int64
		recv     atomic.Int64
		nreq     atomic.Int64
		nconn    atomic.Int64
		status   atomic.Int32
		port     int
		inflight atomic.Bool
		// keep-alive
		secure    bool // negotiated
		reqSecure bool // requested
		keepalive bool
	}
)

var (
	ErrSessionBusy  = errors.New("session busy: request already in flight")
	ErrNotConnected = errors.New("session not connected")
	ErrNoResponse   = errors.New("no response to receive")
	ErrPeerClosed   = errors.New("connection closed by peer before response")
)

func New(args Args) *Session {
	s := &Session{args: args, dstid: cmn.GenDSTID()}
	s.args.BufSize = cos.NonZero(args.BufSize, cmn.DfltBufSize)
	s.buf = make([]byte, s.args.BufSize)
	s.tstats = args.Tracker
	if s.tstats == nil {
		s.tstats = stats.NewTrackerMock()
	}
	s.dial = args.Dial
	if s.dial == nil {
		s.dial = cmn.NewDialer(args.TransportArgs).DialContext
	}
	return s
}

func (s *Session) DSTID() string   { return s.dstid }
func (s *Session) Host() string    { return s.host }
func (s *Session) Addr() string    { return s.addr }
func (s *Session) Port() int       { return s.port }
func (s *Session) Secure() bool    { return s.secure }
func (s *Session) KeepAlive() bool { return s.keepalive && s.conn != nil }

func (s *Session) Snap() Snap {
	return Snap{
		BytesSent:  s.sent.Load(),
		BytesRecv:  s.recv.Load(),
		Requests:   s.nreq.Load(),
		Connects:   s.nconn.Load(),
		LastStatus: int(s.status.Load()),
	}
}

// Matches returns true if the open keep-alive connection can serve (host, port, secure)
func (s *Session) Matches(host string, port int, secure bool) bool {
	return s.KeepAlive() && s.host == host && s.port == port && s.reqSecure == secure
}

// Connect reuses the open keep-alive connection when it matches (host, port, secure);
// otherwise, dials `addr` (one of the resolved addresses of `host`).
// Secure failure falls back once to plain; plain failure falls back to secure only
// when allowed.
func (s *Session) Connect(ctx context.Context, host, addr string, port int, secure bool) error {
	if s.inflight.Load() {
		return ErrSessionBusy
	}
	if s.Matches(host, port, secure) {
		return nil
	}
	s.Close()
	if addr == "" {
		addr = host
	}
	conn, err := s.dialOne(ctx, host, addr, port, secure)
	negotiated := secure
	if err != nil {
		if secure || s.args.AllowFallback {
			nlog.Warningf("%s:%d (secure=%t): %v - falling back to secure=%t", addr, port, secure, err, !secure)
			var err2 error
			conn, err2 = s.dialOne(ctx, host, addr, port, !secure)
			if err2 != nil {
				s.keepalive = false
				return errors.Wrapf(err2, "failed to connect to %s:%d (both %v and fallback)", addr, port, err)
			}
			negotiated = !secure
		} else {
			s.keepalive = false
			return errors.Wrapf(err, "failed to connect to %s:%d", addr, port)
		}
	}
	s.conn = &idleConn{Conn: conn, timeout: s.args.Timeout}
	s.br = bufio.NewReaderSize(s.conn, s.args.BufSize)
	s.bw = bufio.NewWriterSize(s.conn, s.args.BufSize)
	s.host, s.addr, s.port = host, addr, port
	s.secure, s.reqSecure = negotiated, secure
	s.keepalive = true
	s.nconn.Add(1)
	s.tstats.Inc(stats.Connects)
	if nlog.Verbose() {
		nlog.Debugf("[%s] connected to %s (%s:%d, secure=%t)", s.dstid, host, addr, port, negotiated)
	}
	return nil
}

func (s *Session) dialOne(ctx context.Context, host, addr string, port int, secure bool) (net.Conn, error) {
	conn, err := s.dial(ctx, "tcp", net.JoinHostPort(addr, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	if !secure {
		return conn, nil
	}
	var tconf *tls.Config
	if s.args.TLS != nil {
		tconf = s.args.TLS.Clone()
	} else {
		tconf = &tls.Config{} //nolint:gosec // system roots, default min version
	}
	if tconf.ServerName == "" && net.ParseIP(host) == nil {
		tconf.ServerName = host
	}
	tc := tls.Client(conn, tconf)
	if err := tc.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tc, nil
}

// Close drops the connection (if any) along with keep-alive state
func (s *Session) Close() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn, s.br, s.bw, s.resp = nil, nil, nil, nil
	s.keepalive = false
	s.inflight.Store(false)
}

// on socket errors
func (s *Session) fail(err error) error {
	s.Close()
	return err
}

// arm deadlines: Timeout is per read and per write (see idleConn);
// ctx deadline bounds the exchange, ctx cancellation unblocks socket I/O
func (s *Session) arm(ctx context.Context) {
	conn := s.conn
	conn.reset()
	conn.deadline, _ = ctx.Deadline()
	s.stop = context.AfterFunc(ctx, conn.cancel)
}

// end of the current exchange
func (s *Session) done(reuse bool) {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	if s.resp != nil && s.resp.Close {
		reuse = false
	}
	if !reuse || !s.keepalive {
		s.Close()
		return
	}
	if s.resp != nil {
		s.resp.Body.Close()
		s.resp = nil
	}
	s.conn.reset()
	s.inflight.Store(false)
}
