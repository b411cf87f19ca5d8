// Package apc: DSS protocol actions, headers, and query parameters
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package apc

// request headers
const (
	HdrAction        = "Action"
	HdrAuthor        = "Author"
	HdrClient        = "Client"
	HdrClientVersion = "Client-Version"
	HdrDSTID         = "DSTID"
	HdrHost          = "Host"
	HdrTimeStamp     = "TimeStamp"
	HdrCookie        = "Cookie"
	HdrAuthorization = "Authorization"
	HdrDataPath      = "Data-Path" // one value per path (MAKELOCALASY)
	HdrUserID        = "User-ID"
	HdrMachineID     = "Machine-ID"
	HdrURI           = "URI"        // indirect-fetch jobs
	HdrStoreCheck    = "StoreCheck" // phase 2 of STORE: echoes storekey
	HdrReceive       = "RECEIVE"    // read-back of a stored upload: echoes storekey
	HdrContentLength = "Content-Length"
)

// response headers
const (
	HdrContentType  = "Content-Type"
	HdrSetCookie    = "Set-Cookie"
	HdrRespCheck    = "storecheck"
	HdrRespKey      = "storekey"
	HdrRespDataPath = "datapath"
	HdrLinkName     = "link-name"
	HdrJobStatus    = "jobstatus"
	HdrJobID        = "jobid" // also request header (GETLOG)
	HdrJobMessage   = "jobmessage"
	HdrLocation     = "Location"
	HdrSleepTime    = "sleep-time" // 503 hint, seconds (float)
)

// cookies
const (
	CookieTicket = "DSSTICKET"
)

// TimeStamp header format
const TimeStampLayout = "2006-01-02T15:04:05.000Z07:00"
