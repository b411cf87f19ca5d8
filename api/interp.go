/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/NVIDIA/dss/api/apc"
	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/NVIDIA/dss/session"
)

// Result classifies a single response (or transfer). Redirects and Busy are
// consumed by the request loop and never returned to callers.
type Result int

// RedirectPermanent: new target (301 sticky, 302 and 307 for the current operation only);
// RedirectAlternate: 303, alternate representation (path);
// LocalIOFailure: local source or destination failed; Truncated: body shorter than Content-Length.
const (
	Success Result = iota
	RedirectPermanent
	RedirectAlternate
	Busy
	Failure
	LocalIOFailure
	Truncated
)

// upload phases
const (
	phaseHandshake = 1 // POST with Content-Length: 0
	phaseBody      = 2 // StoreCheck + body
)

var resultNames = [...]string{"success", "redirect", "redirect-alternate", "busy", "failure", "local-io-failure", "truncated"}

func (r Result) String() string {
	if int(r) < len(resultNames) {
		return resultNames[r]
	}
	return "result(" + strconv.Itoa(int(r)) + ")"
}

// Code returns the legacy numeric status (e.g. CLI exit codes)
func (r Result) Code() int {
	switch r {
	case Success:
		return 0
	case RedirectPermanent:
		return 2
	case RedirectAlternate:
		return 3
	case LocalIOFailure:
		return -1
	case Truncated:
		return -2
	default:
		return 1
	}
}

// ResultOf reduces an operation error to its Result class
func ResultOf(err error) Result {
	switch {
	case err == nil:
		return Success
	case session.IsErrLocalIO(err):
		return LocalIOFailure
	case session.IsErrTruncated(err):
		return Truncated
	default:
		return Failure
	}
}

type outcome struct {
	target     target        // redirect
	path       string        // 303
	sleep      time.Duration // busy
	storeCheck string
	storeKey   string
	dataPath   string
	linkName   string
	jobID      string
	jobStatus  string
	jobMessage string
	reason     string // failure without a server message
	result     Result
	status     int
	permanent  bool // 301
	awaitBody  bool // 201
}

func (o *outcome) String() string {
	return fmt.Sprintf("%d(%s)", o.status, o.result)
}

// handshake says "send the body with checksums on"
func (o *outcome) storeCheckOn() bool { return cos.IsParseBool(o.storeCheck) }

// interpret classifies the response head; it has no side effects
func interpret(action apc.Action, phase, status int, hdr http.Header, cur target, dfltBusy time.Duration) *outcome {
	out := &outcome{status: status, target: cur}
	switch status {
	case http.StatusOK:
		out.result = Success
		if action.IsUpload() {
			out.storeCheck = hdr.Get(apc.HdrRespCheck)
			out.storeKey = hdr.Get(apc.HdrRespKey)
		}
	case http.StatusCreated:
		out.result = Success
		out.awaitBody = true
		out.storeKey = hdr.Get(apc.HdrRespKey)
		out.storeCheck = hdr.Get(apc.HdrRespCheck)
	case http.StatusNoContent:
		out.result = Success
		out.dataPath = hdr.Get(apc.HdrRespDataPath)
		out.storeKey = hdr.Get(apc.HdrRespKey)
		out.storeCheck = hdr.Get(apc.HdrRespCheck)
		out.linkName = hdr.Get(apc.HdrLinkName)
	case http.StatusMovedPermanently, http.StatusFound, http.StatusTemporaryRedirect:
		tgt, err := parseLocation(hdr.Get(apc.HdrLocation), cur)
		if err != nil {
			out.result, out.reason = Failure, err.Error()
			break
		}
		out.result = RedirectPermanent
		out.target = tgt
		out.permanent = status == http.StatusMovedPermanently
	case http.StatusSeeOther:
		u, err := url.Parse(hdr.Get(apc.HdrLocation))
		if err != nil || u.Path == "" {
			out.result, out.reason = Failure, fmt.Sprintf("invalid 303 location %q", hdr.Get(apc.HdrLocation))
			break
		}
		out.result = RedirectAlternate
		out.path = u.Path
		if u.Host != "" {
			if tgt, err := parseLocation(u.String(), cur); err == nil {
				out.target = tgt
			}
		}
	case http.StatusServiceUnavailable:
		out.result = Busy
		out.sleep = busySleep(hdr.Get(apc.HdrSleepTime), dfltBusy)
	default:
		// 400, 404, 501, and everything else
		out.result = Failure
	}
	if phase == phaseBody && out.awaitBody {
		out.result, out.reason = Failure, "unexpected 201 in response to upload body"
	}
	out.jobID = hdr.Get(apc.HdrJobID)
	out.jobStatus = hdr.Get(apc.HdrJobStatus)
	out.jobMessage = hdr.Get(apc.HdrJobMessage)
	return out
}

// sleep-time: seconds, possibly fractional
func busySleep(s string, dflt time.Duration) time.Duration {
	if s == "" {
		return dflt
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return dflt
	}
	return time.Duration(f * float64(time.Second))
}

var errNoLocation = errors.New("redirect without absolute Location")

// absolute Location => (host, port, secure); missing port: same scheme keeps the
// current port, otherwise the scheme's default
func parseLocation(loc string, cur target) (target, error) {
	u, err := url.Parse(loc)
	if err != nil {
		return cur, err
	}
	if u.Host == "" {
		return cur, errNoLocation
	}
	tgt := target{host: u.Hostname(), port: cur.port, secure: cur.secure}
	switch u.Scheme {
	case "https":
		tgt.secure = true
	case "http":
		tgt.secure = false
	}
	if sport := u.Port(); sport != "" {
		port, err := strconv.Atoi(sport)
		if err != nil || port <= 0 || port >= 1<<16 {
			return cur, fmt.Errorf("invalid port in Location %q", loc)
		}
		tgt.port = port
	} else if tgt.secure != cur.secure {
		tgt.port = 80
		if tgt.secure {
			tgt.port = 443
		}
	}
	return tgt, nil
}
