// Package apc: DSS protocol actions, headers, and query parameters
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package apc

import (
	"net/http"
	"sort"
)

// actions (carried in the `Action` header, distinct from the HTTP method)
const (
	ActGet          = "GET"
	ActStore        = "STORE"
	ActDelete       = "DELETE"
	ActLocate       = "LOCATE"
	ActLocateFile   = "LOCATEFILE"
	ActLocateLocal  = "LOCATELOCAL"
	ActLocateRemote = "LOCATEREMOTE"
	ActHead         = "HEAD"
	ActHeadLocal    = "HEADLOCAL"
	ActStat         = "STAT"
	ActSize         = "SIZE"
	ActMD5Sum       = "MD5SUM"
	ActSHA1Sum      = "SHA1SUM"
	ActTestFile     = "TESTFILE"
	ActTestCache    = "TESTCACHE"
	ActTestStore    = "TESTSTORE"
	ActRegister     = "REGISTER"
	ActRelease      = "RELEASE"
	ActTakeover     = "TAKEOVER"
	ActCacheFile    = "CACHEFILE"
	ActMirrorPut    = "MIRRORPUT"
	ActPing         = "PING"
	ActGetStats     = "GETSTATS"
	ActGetLog       = "GETLOG"
	ActMakeLocal    = "MAKELOCAL"
	ActMakeLocalAsy = "MAKELOCALASY"
	ActDSSInit      = "DSSINIT"
	ActDSSInitForce = "DSSINITFORCE"
	ActDSSGetTicket = "DSSGETTICKET"
)

// action kinds
const (
	KindQuery    = iota // buffered text response
	KindProbe           // boolean: 200/204 => true
	KindDownload        // body streamed into a sink
	KindUpload          // two-phase STORE
	KindMutate          // single round trip, raises on failure
	KindJob             // submit and poll
	KindAuth            // ticket bootstrap
)

type Action struct {
	Name string
	Kind int
}

var actions = map[string]Action{
	ActGet:          {ActGet, KindDownload},
	ActStore:        {ActStore, KindUpload},
	ActDelete:       {ActDelete, KindMutate},
	ActLocate:       {ActLocate, KindQuery},
	ActLocateFile:   {ActLocateFile, KindQuery},
	ActLocateLocal:  {ActLocateLocal, KindQuery},
	ActLocateRemote: {ActLocateRemote, KindQuery},
	ActHead:         {ActHead, KindQuery},
	ActHeadLocal:    {ActHeadLocal, KindQuery},
	ActStat:         {ActStat, KindQuery},
	ActSize:         {ActSize, KindQuery},
	ActMD5Sum:       {ActMD5Sum, KindQuery},
	ActSHA1Sum:      {ActSHA1Sum, KindQuery},
	ActTestFile:     {ActTestFile, KindProbe},
	ActTestCache:    {ActTestCache, KindProbe},
	ActTestStore:    {ActTestStore, KindProbe},
	ActRegister:     {ActRegister, KindMutate},
	ActRelease:      {ActRelease, KindMutate},
	ActTakeover:     {ActTakeover, KindMutate},
	ActCacheFile:    {ActCacheFile, KindMutate},
	ActMirrorPut:    {ActMirrorPut, KindMutate},
	ActPing:         {ActPing, KindProbe},
	ActGetStats:     {ActGetStats, KindQuery},
	ActGetLog:       {ActGetLog, KindQuery},
	ActMakeLocal:    {ActMakeLocal, KindJob},
	ActMakeLocalAsy: {ActMakeLocalAsy, KindJob},
	ActDSSInit:      {ActDSSInit, KindAuth},
	ActDSSInitForce: {ActDSSInitForce, KindAuth},
	ActDSSGetTicket: {ActDSSGetTicket, KindAuth},
}

func Lookup(name string) (Action, bool) {
	a, ok := actions[name]
	return a, ok
}

func Actions() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// upload-class actions use POST; everything else GET
// (standard mode: everything POST, with ?action=NAME)
func (a Action) Verb(standard bool) string {
	if standard || a.Kind == KindUpload {
		return http.MethodPost
	}
	return http.MethodGet
}

func (a Action) IsUpload() bool { return a.Kind == KindUpload }

// read-only: soft failure (zero value) instead of error
func (a Action) IsReadOnly() bool { return a.Kind == KindQuery || a.Kind == KindProbe }

// the two bootstrap actions that establish a ticket never carry one
func (a Action) IsBootstrap() bool { return a.Name == ActDSSInit || a.Name == ActDSSInitForce }

func (a Action) String() string { return a.Name }

// job states (`jobstatus` header)
const (
	JobRunning  = "RUNNING"
	JobFinished = "FINISHED"
	JobFailed   = "FAILED"
)
