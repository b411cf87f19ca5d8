// Package cmn provides common constants, types, and utilities for DSS clients
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/NVIDIA/dss/api/env"
	"github.com/NVIDIA/dss/cmn/cos"
)

const (
	DfltDialupTimeout = 10 * time.Second
	DfltKeepaliveTCP  = 30 * time.Second
)

type (
	// assorted session options
	TransportArgs struct {
		DialTimeout time.Duration
		Timeout     time.Duration // idle: re-armed on every read and write
		BufSize     int           // send/receive chunk
	}
	TLSArgs struct {
		ClientCA    string `yaml:"client_ca" json:"client_ca"`
		Certificate string `yaml:"certificate" json:"certificate"`
		Key         string `yaml:"key" json:"key"`
		SkipVerify  bool   `yaml:"skip_verify" json:"skip_verify"`
	}
)

func (c *Config) TransportArgs() TransportArgs {
	return TransportArgs{DialTimeout: c.Net.DialTimeout, Timeout: c.Net.Timeout, BufSize: c.Net.BufSize}
}

// {TransportArgs + defaults} => dialer
func NewDialer(cargs TransportArgs) *net.Dialer {
	return &net.Dialer{
		Timeout:   cos.NonZero(cargs.DialTimeout, DfltDialupTimeout),
		KeepAlive: DfltKeepaliveTCP,
	}
}

func NewTLS(sargs TLSArgs) (tlsConf *tls.Config, err error) {
	var pool *x509.CertPool
	if sargs.ClientCA != "" {
		cert, err := os.ReadFile(sargs.ClientCA)
		if err != nil {
			return nil, err
		}
		pool, err = x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("client tls: failed to load system cert pool, err: %w", err)
		}
		if ok := pool.AppendCertsFromPEM(cert); !ok {
			return nil, fmt.Errorf("client tls: failed to append CA certs from PEM: %q", sargs.ClientCA)
		}
	}
	tlsConf = &tls.Config{RootCAs: pool, InsecureSkipVerify: sargs.SkipVerify} //nolint:gosec // user's choice

	if sargs.Certificate == "" && sargs.Key == "" {
		return tlsConf, nil
	}
	var (
		cert tls.Certificate
		hint string
	)
	if cert, err = tls.LoadX509KeyPair(sargs.Certificate, sargs.Key); err == nil {
		tlsConf.Certificates = []tls.Certificate{cert}
		return tlsConf, nil
	}
	if os.IsNotExist(err) {
		hint = "\n(hint: check the two filenames for existence/accessibility)"
	}
	return nil, fmt.Errorf("client tls: failed to load public/private key pair: (%q, %q)%s", sargs.Certificate, sargs.Key, hint)
}

func EnvToTLS(sargs *TLSArgs) {
	if s := os.Getenv(env.DSS.Certificate); s != "" {
		sargs.Certificate = s
	}
	if s := os.Getenv(env.DSS.CertKey); s != "" {
		sargs.Key = s
	}
	if s := os.Getenv(env.DSS.ClientCA); s != "" {
		sargs.ClientCA = s
	}
	if s := os.Getenv(env.DSS.SkipVerifyCrt); s != "" {
		sargs.SkipVerify = cos.IsParseBool(s)
	}
}
