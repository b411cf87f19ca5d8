// Package authn provides DSS ticket (authentication token) management
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package authn

import (
	"errors"
	"fmt"
	"time"

	"github.com/NVIDIA/dss/cmn/cos"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoTicket = errors.New("no valid ticket")

// Ticket is unique per (server, user)
type Ticket struct {
	Expiry time.Time `json:"expiry"`
	Server string    `json:"server"`
	User   string    `json:"user"`
	Token  string    `json:"ticket"`
}

type key struct {
	server, user string
}

func (t *Ticket) key() key { return key{t.Server, t.User} }

func (t *Ticket) Expired(now time.Time) bool { return !t.Expiry.After(now) }

func (t *Ticket) String() string {
	return fmt.Sprintf("ticket[%s@%s %s, expires %s]", t.User, t.Server, cos.SHead(t.Token), t.Expiry.Format(time.RFC3339))
}

// ExpiryFromToken returns the `exp` claim of a JWT-shaped ticket.
// The signature is not verified: the server does that.
func ExpiryFromToken(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
