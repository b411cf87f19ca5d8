// Package session implements a single-connection, keep-alive capable HTTP(S) transport
// for the DSS protocol: one request in flight, fixed-size chunked send and receive.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package session

import (
	"net"
	"sync/atomic"
	"time"
)

var expired = time.Unix(1, 0)

// idleConn re-arms the deadline before every read and every write:
// `timeout` bounds inactivity, not the exchange. The ctx deadline, when
// present, still caps the whole exchange.
type idleConn struct {
	net.Conn
	deadline time.Time // ctx
	timeout  time.Duration
	canceled atomic.Bool
}

func (c *idleConn) next() time.Time {
	var d time.Time
	if c.timeout > 0 {
		d = time.Now().Add(c.timeout)
	}
	if !c.deadline.IsZero() && (d.IsZero() || c.deadline.Before(d)) {
		d = c.deadline
	}
	return d
}

func (c *idleConn) Read(b []byte) (int, error) {
	c.Conn.SetReadDeadline(c.next())
	// cancellation may race with the re-arm above
	if c.canceled.Load() {
		c.Conn.SetReadDeadline(expired)
	}
	return c.Conn.Read(b)
}

func (c *idleConn) Write(b []byte) (int, error) {
	c.Conn.SetWriteDeadline(c.next())
	if c.canceled.Load() {
		c.Conn.SetWriteDeadline(expired)
	}
	return c.Conn.Write(b)
}

func (c *idleConn) cancel() {
	c.canceled.Store(true)
	c.Conn.SetDeadline(expired)
}

// between exchanges
func (c *idleConn) reset() {
	c.deadline = time.Time{}
	c.canceled.Store(false)
	c.Conn.SetDeadline(time.Time{})
}
