// Package env contains environment variables
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package env

var (
	DSS = struct {
		Config   string
		Endpoint string
		UseHTTPS string
		Standard string
		// credentials
		User       string
		Password   string
		TicketFile string
		// TLS: client side
		Certificate   string
		CertKey       string
		ClientCA      string
		SkipVerifyCrt string
		// logging
		LogFile string
		Verbose string
	}{
		Config:   "DSS_CONFIG",
		Endpoint: "DSS_ENDPOINT", // host[:port]
		UseHTTPS: "DSS_USE_HTTPS",
		Standard: "DSS_STANDARD", // all actions via POST ?action=NAME

		User:       "DSS_USER",
		Password:   "DSS_PASSWORD",
		TicketFile: "DSS_TICKET_FILE",

		Certificate:   "DSS_CRT",
		CertKey:       "DSS_CRT_KEY",
		ClientCA:      "DSS_CLIENT_CA",
		SkipVerifyCrt: "DSS_SKIP_VERIFY_CRT",

		LogFile: "DSS_LOG_FILE",
		Verbose: "DSS_VERBOSE",
	}
)
