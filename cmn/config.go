// Package cmn provides common constants, types, and utilities for DSS clients
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/NVIDIA/dss/api/env"
	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// default pathnames: $HOME/.config/dss/{config.yaml,tickets}
const (
	AppName        = "dss"
	ConfigFname    = "config.yaml"
	TicketFname    = "tickets"
	TicketBuntName = "tickets.db"
)

const (
	TicketBackendFile = "file"
	TicketBackendBunt = "buntdb"
)

// defaults
const (
	DfltPort            = 8443
	DfltBufSize         = 64 * cos.KiB
	DfltBusySleep       = 5 * time.Second
	DfltBusyRetries     = 10
	DfltMaxRedirects    = 8
	DfltJobPollInterval = 2 * time.Second
	DfltTicketTTL       = 24 * time.Hour
	DfltTimeout         = 5 * time.Minute
)

type (
	ServerConf struct {
		Host          string `yaml:"host" json:"host"`
		Port          int    `yaml:"port" json:"port"`
		Secure        bool   `yaml:"secure" json:"secure"`
		AllowFallback bool   `yaml:"allow_fallback" json:"allow_fallback"` // plain => https when plain fails
		Standard      bool   `yaml:"standard" json:"standard"`             // all actions via POST ?action=
	}
	AuthConf struct {
		User          string        `yaml:"user" json:"user"`
		Password      string        `yaml:"password" json:"-"`
		TicketFile    string        `yaml:"ticket_file" json:"ticket_file"`
		TicketBackend string        `yaml:"ticket_backend" json:"ticket_backend"`
		TicketTTL     time.Duration `yaml:"ticket_ttl" json:"ticket_ttl"`
	}
	NetConf struct {
		DialTimeout time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
		Timeout     time.Duration `yaml:"timeout" json:"timeout"` // idle read/write timeout
		BufSize     int           `yaml:"buf_size" json:"buf_size"`
	}
	RetryConf struct {
		BusySleep       time.Duration `yaml:"busy_sleep" json:"busy_sleep"`
		BusyRetries     int           `yaml:"busy_retries" json:"busy_retries"`
		MaxRedirects    int           `yaml:"max_redirects" json:"max_redirects"`
		JobPollInterval time.Duration `yaml:"job_poll_interval" json:"job_poll_interval"`
	}
	LogConf struct {
		File    string `yaml:"file" json:"file"`
		Verbose bool   `yaml:"verbose" json:"verbose"`
	}
	TracingConf struct {
		Enabled            bool    `yaml:"enabled" json:"enabled"`
		ExporterEndpoint   string  `yaml:"exporter_endpoint" json:"exporter_endpoint"`
		Insecure           bool    `yaml:"insecure" json:"insecure"`
		SamplerProbability float64 `yaml:"sampler_probability" json:"sampler_probability"`
	}
	ClientConf struct {
		Name   string `yaml:"name" json:"name"`
		Author string `yaml:"author" json:"author"`
	}

	// all of the above
	Config struct {
		Server  ServerConf  `yaml:"server" json:"server"`
		Auth    AuthConf    `yaml:"auth" json:"auth"`
		Net     NetConf     `yaml:"net" json:"net"`
		Retry   RetryConf   `yaml:"retry" json:"retry"`
		TLS     TLSArgs     `yaml:"tls" json:"tls"`
		Log     LogConf     `yaml:"log" json:"log"`
		Tracing TracingConf `yaml:"tracing" json:"tracing"`
		Client  ClientConf  `yaml:"client" json:"client"`
	}
)

func ConfigDir() string { return cos.HomeConfigDir(AppName) }

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConf{Port: DfltPort, Secure: true},
		Auth: AuthConf{
			TicketFile:    filepath.Join(ConfigDir(), TicketFname),
			TicketBackend: TicketBackendFile,
			TicketTTL:     DfltTicketTTL,
		},
		Net:   NetConf{DialTimeout: DfltDialupTimeout, Timeout: DfltTimeout, BufSize: DfltBufSize},
		Retry: RetryConf{
			BusySleep:       DfltBusySleep,
			BusyRetries:     DfltBusyRetries,
			MaxRedirects:    DfltMaxRedirects,
			JobPollInterval: DfltJobPollInterval,
		},
		Tracing: TracingConf{SamplerProbability: 1.0},
		Client:  ClientConf{Name: ClientName},
	}
}

// LoadConfig reads YAML config (missing file is not an error), applies env overrides, and validates
func LoadConfig(fpath string) (*Config, error) {
	config := DefaultConfig()
	if fpath == "" {
		fpath = os.Getenv(env.DSS.Config)
	}
	if fpath == "" {
		fpath = filepath.Join(ConfigDir(), ConfigFname)
	}
	b, err := os.ReadFile(cos.ExpandPath(fpath))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, config); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config %q", fpath)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrapf(err, "failed to load config %q", fpath)
	}
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, config.Validate()
}

func SaveConfig(fpath string, config *Config) error {
	b, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	if err := cos.CreateDir(filepath.Dir(fpath)); err != nil {
		return err
	}
	return os.WriteFile(fpath, b, cos.PermRWR)
}

// env overrides config file
func (c *Config) ApplyEnv() error {
	if s := os.Getenv(env.DSS.Endpoint); s != "" {
		host, port, err := SplitHostPort(s, c.Server.Port)
		if err != nil {
			return errors.Wrapf(err, "invalid %s=%q", env.DSS.Endpoint, s)
		}
		c.Server.Host, c.Server.Port = host, port
	}
	if s := os.Getenv(env.DSS.UseHTTPS); s != "" {
		c.Server.Secure = cos.IsParseBool(s)
	}
	if s := os.Getenv(env.DSS.Standard); s != "" {
		c.Server.Standard = cos.IsParseBool(s)
	}
	if s := os.Getenv(env.DSS.User); s != "" {
		c.Auth.User = s
	}
	if s := os.Getenv(env.DSS.Password); s != "" {
		c.Auth.Password = s
	}
	if s := os.Getenv(env.DSS.TicketFile); s != "" {
		c.Auth.TicketFile = s
	}
	if s := os.Getenv(env.DSS.LogFile); s != "" {
		c.Log.File = s
	}
	if s := os.Getenv(env.DSS.Verbose); s != "" {
		c.Log.Verbose = cos.IsParseBool(s)
	}
	EnvToTLS(&c.TLS)
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port >= 1<<16 {
		return fmt.Errorf("invalid server.port %d (expecting 1..65535)", c.Server.Port)
	}
	switch c.Auth.TicketBackend {
	case "":
		c.Auth.TicketBackend = TicketBackendFile
	case TicketBackendFile, TicketBackendBunt:
	default:
		return fmt.Errorf("invalid auth.ticket_backend %q (expecting %q or %q)",
			c.Auth.TicketBackend, TicketBackendFile, TicketBackendBunt)
	}
	if c.Retry.BusyRetries < 0 || c.Retry.MaxRedirects < 0 {
		return errors.New("retry.busy_retries and retry.max_redirects must be non-negative")
	}
	if c.Tracing.Enabled && c.Tracing.ExporterEndpoint == "" {
		return errors.New("tracing.exporter_endpoint is required when tracing is enabled")
	}
	c.Net.BufSize = cos.NonZero(c.Net.BufSize, DfltBufSize)
	c.Retry.BusySleep = cos.NonZero(c.Retry.BusySleep, DfltBusySleep)
	c.Retry.MaxRedirects = cos.NonZero(c.Retry.MaxRedirects, DfltMaxRedirects)
	c.Retry.JobPollInterval = cos.NonZero(c.Retry.JobPollInterval, DfltJobPollInterval)
	c.Auth.TicketTTL = cos.NonZero(c.Auth.TicketTTL, DfltTicketTTL)
	if c.Client.Name == "" {
		c.Client.Name = ClientName
	}
	return nil
}

// SplitHostPort accepts "host", "host:port", "[v6]:port"
func SplitHostPort(s string, dfltPort int) (string, int, error) {
	host, sport, err := net.SplitHostPort(s)
	if err != nil {
		// no port
		return s, dfltPort, nil
	}
	port, err := strconv.Atoi(sport)
	if err != nil || port <= 0 || port >= 1<<16 {
		return "", 0, fmt.Errorf("invalid port %q", sport)
	}
	return host, port, nil
}
