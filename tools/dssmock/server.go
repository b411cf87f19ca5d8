// Package dssmock provides an in-memory DSS server for tests: two-phase STORE,
// GET (including read-back and truncation), checksums, locate, probes, jobs,
// ticket bootstrap, and busy/redirect injection.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dssmock

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NVIDIA/dss/api/apc"
	"github.com/NVIDIA/dss/cmn/cos"

	jsoniter "github.com/json-iterator/go"
)

type (
	// Request is what the server received
	Request struct {
		Header  http.Header
		Action  string
		Method  string
		Path    string
		RawQry  string
		BodyLen int
	}

	// Job scripts the statuses returned by consecutive GETLOG polls
	Job struct {
		Message  string
		Statuses []string
		polls    int
	}

	injection struct {
		location string
		sleep    string
		status   int
		n        int
	}

	Server struct {
		files      map[string][]byte
		stored     map[string][]byte // storekey => bytes (read-back)
		pending    map[string]string // storekey => path
		links      map[string]string
		locations  map[string][]string
		alternates map[string]string // path => 303 location
		truncate   map[string]int    // path => bytes actually sent
		jobs       map[string]*Job
		script     []*Job
		busy       map[string]*injection // by action
		redirects  map[string]*injection // ditto
		users      map[string]string     // user => password
		tickets    map[string]string     // token => user
		delays     map[string]time.Duration
		requests   []Request

		// ticket issued by DSSINIT (empty: generated)
		Ticket       string
		TicketMaxAge int

		// handshake response: 200 (default) or 201
		HandshakeStatus int

		mu  sync.Mutex
		seq int

		// storecheck=1 on handshake; digest on completion
		StoreCheck bool

		// complete uploads with 204 + datapath + storekey
		ReadBack bool

		// upload returns a job id (scripted via Script)
		StoreJob bool

		// job status on submission (empty: RUNNING)
		SubmitStatus string

		// every request (except PING) must carry a valid ticket or Basic credentials
		RequireAuth bool

		// corrupt stored bytes (checksum tests)
		Corrupt bool
	}
)

func New() *Server {
	return &Server{
		files:      make(map[string][]byte),
		stored:     make(map[string][]byte),
		pending:    make(map[string]string),
		links:      make(map[string]string),
		locations:  make(map[string][]string),
		alternates: make(map[string]string),
		truncate:   make(map[string]int),
		jobs:       make(map[string]*Job),
		busy:       make(map[string]*injection),
		redirects:  make(map[string]*injection),
		users:      make(map[string]string),
		tickets:    make(map[string]string),
		delays:     make(map[string]time.Duration),
	}
}

//
// setup
//

func (s *Server) PutFile(path string, b []byte) {
	s.mu.Lock()
	s.files[path] = b
	s.mu.Unlock()
}

func (s *Server) File(path string) ([]byte, bool) {
	s.mu.Lock()
	b, ok := s.files[path]
	s.mu.Unlock()
	return b, ok
}

func (s *Server) Link(path, target string) {
	s.mu.Lock()
	s.links[path] = target
	s.mu.Unlock()
}

func (s *Server) Locations(path string, hosts ...string) {
	s.mu.Lock()
	s.locations[path] = hosts
	s.mu.Unlock()
}

// Alternate answers requests for `path` with 303 to `location`
func (s *Server) Alternate(path, location string) {
	s.mu.Lock()
	s.alternates[path] = location
	s.mu.Unlock()
}

// Truncate declares the full length of `path` but sends only `n` bytes
func (s *Server) Truncate(path string, n int) {
	s.mu.Lock()
	s.truncate[path] = n
	s.mu.Unlock()
}

// Busy answers the next `n` requests carrying `action` with 503 (and
// `sleep-time: sleep` unless empty)
func (s *Server) Busy(action string, n int, sleep string) {
	s.mu.Lock()
	s.busy[action] = &injection{n: n, sleep: sleep}
	s.mu.Unlock()
}

// Redirect answers the next `n` requests carrying `action` with `status` and `location`
func (s *Server) Redirect(action string, n, status int, location string) {
	s.mu.Lock()
	s.redirects[action] = &injection{n: n, status: status, location: location}
	s.mu.Unlock()
}

// Script queues a job for the next job-creating request
func (s *Server) Script(message string, statuses ...string) {
	s.mu.Lock()
	s.script = append(s.script, &Job{Statuses: statuses, Message: message})
	s.mu.Unlock()
}

// Delay holds every response to `action` for `d` (the request is recorded first)
func (s *Server) Delay(action string, d time.Duration) {
	s.mu.Lock()
	s.delays[action] = d
	s.mu.Unlock()
}

func (s *Server) AddUser(user, password string) {
	s.mu.Lock()
	s.users[user] = password
	s.mu.Unlock()
}

func (s *Server) AddTicket(token, user string) {
	s.mu.Lock()
	s.tickets[token] = user
	s.mu.Unlock()
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsFor filters by action
func (s *Server) RequestsFor(action string) (out []Request) {
	for _, r := range s.Requests() {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) Polls(jobID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[jobID]; ok {
		return j.polls
	}
	return 0
}

//
// http.Handler
//

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := r.Header.Get(apc.HdrAction)
	if a := r.URL.Query().Get(apc.QparamAction); a != "" {
		action = a
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Header:  r.Header.Clone(),
		Action:  action,
		Method:  r.Method,
		Path:    r.URL.Path,
		RawQry:  r.URL.RawQuery,
		BodyLen: len(body),
	})
	delay := s.delays[action]
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inject(w, action) {
		return
	}
	if s.RequireAuth && !s.authorized(r, action) {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	path := r.URL.Path
	if loc, ok := s.alternates[path]; ok {
		w.Header().Set(apc.HdrLocation, loc)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	switch action {
	case apc.ActStore:
		s.store(w, r, path, body)
	case apc.ActGet:
		s.get(w, r, path)
	case apc.ActMD5Sum, apc.ActSHA1Sum:
		s.digest(w, action, path)
	case apc.ActSize:
		s.withFile(w, path, func(b []byte) { writeText(w, strconv.Itoa(len(b))+"\n") })
	case apc.ActStat:
		s.withFile(w, path, func(b []byte) { writeText(w, fmt.Sprintf("%s\nsize: %d\n", path, len(b))) })
	case apc.ActHead, apc.ActHeadLocal:
		s.withFile(w, path, func(b []byte) { writeText(w, fmt.Sprintf("SIMPLE  = T\nNAXIS   = %d\nEND\n", len(b)%3)) })
	case apc.ActLocate, apc.ActLocateFile, apc.ActLocateLocal, apc.ActLocateRemote:
		s.locate(w, r, path)
	case apc.ActTestFile, apc.ActTestCache, apc.ActTestStore:
		if _, ok := s.files[path]; ok {
			w.WriteHeader(http.StatusNoContent)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case apc.ActDelete:
		s.withFile(w, path, func([]byte) { delete(s.files, path); w.WriteHeader(http.StatusOK) })
	case apc.ActRegister, apc.ActRelease, apc.ActTakeover, apc.ActMirrorPut:
		s.withFile(w, path, func([]byte) { w.WriteHeader(http.StatusOK) })
	case apc.ActCacheFile:
		s.submit(w)
	case apc.ActPing:
		w.WriteHeader(http.StatusNoContent)
	case apc.ActGetStats:
		s.stats(w)
	case apc.ActMakeLocal, apc.ActMakeLocalAsy:
		if action == apc.ActMakeLocalAsy && len(r.Header.Values(apc.HdrDataPath)) == 0 {
			http.Error(w, "no data paths", http.StatusBadRequest)
			return
		}
		s.submit(w)
	case apc.ActGetLog:
		s.poll(w, r)
	case apc.ActDSSInit, apc.ActDSSInitForce, apc.ActDSSGetTicket:
		s.issue(w, r, action)
	default:
		http.Error(w, "unsupported action "+strconv.Quote(action), http.StatusNotImplemented)
	}
}

func (s *Server) inject(w http.ResponseWriter, action string) bool {
	if in, ok := s.busy[action]; ok && in.n > 0 {
		in.n--
		if in.sleep != "" {
			w.Header().Set(apc.HdrSleepTime, in.sleep)
		}
		http.Error(w, "busy", http.StatusServiceUnavailable)
		return true
	}
	if in, ok := s.redirects[action]; ok && in.n > 0 {
		in.n--
		w.Header().Set(apc.HdrLocation, in.location)
		w.WriteHeader(in.status)
		return true
	}
	return false
}

func (s *Server) authorized(r *http.Request, action string) bool {
	if ck, err := r.Cookie(apc.CookieTicket); err == nil {
		if _, ok := s.tickets[ck.Value]; ok {
			return true
		}
	}
	if action == apc.ActPing {
		return true
	}
	user, pass, ok := r.BasicAuth()
	return ok && pass != "" && s.users[user] == pass
}

func (s *Server) withFile(w http.ResponseWriter, path string, f func(b []byte)) {
	b, ok := s.files[path]
	if !ok {
		http.Error(w, "no such file: "+path, http.StatusNotFound)
		return
	}
	f(b)
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set(apc.HdrContentType, "text/plain")
	w.Header().Set(apc.HdrContentLength, strconv.Itoa(len(text)))
	io.WriteString(w, text)
}

//
// STORE
//

func (s *Server) store(w http.ResponseWriter, r *http.Request, path string, body []byte) {
	key := r.Header.Get(apc.HdrStoreCheck)
	if key == "" {
		// handshake
		s.seq++
		key = "sk" + strconv.Itoa(s.seq)
		s.pending[key] = path
		w.Header().Set(apc.HdrRespKey, key)
		if s.StoreCheck {
			w.Header().Set(apc.HdrRespCheck, "1")
		}
		w.WriteHeader(cos.NonZero(s.HandshakeStatus, http.StatusOK))
		return
	}
	pending, ok := s.pending[key]
	if !ok {
		http.Error(w, "unknown store key "+key, http.StatusBadRequest)
		return
	}
	delete(s.pending, key)
	if s.Corrupt && len(body) > 0 {
		body = append([]byte(nil), body...)
		body[0] ^= 0xff
	}
	s.files[pending] = body
	s.stored[key] = body
	if s.StoreCheck {
		sum := md5.Sum(body)
		w.Header().Set(apc.HdrRespCheck, hex.EncodeToString(sum[:]))
	}
	if s.StoreJob {
		s.newJob(w)
	}
	if s.ReadBack {
		w.Header().Set(apc.HdrRespDataPath, "/data/"+key)
		w.Header().Set(apc.HdrRespKey, key)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusOK)
}

//
// GET
//

func (s *Server) get(w http.ResponseWriter, r *http.Request, path string) {
	if key := r.Header.Get(apc.HdrReceive); key != "" {
		b, ok := s.stored[key]
		if !ok || r.Header.Get(apc.HdrDataPath) != "/data/"+key {
			http.Error(w, "no such upload "+key, http.StatusNotFound)
			return
		}
		writeBytes(w, b)
		return
	}
	if target, ok := s.links[path]; ok {
		w.Header().Set(apc.HdrLinkName, target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	b, ok := s.files[path]
	if !ok {
		http.Error(w, "no such file: "+path, http.StatusNotFound)
		return
	}
	if n, ok := s.truncate[path]; ok {
		s.truncated(w, b, n)
		return
	}
	writeBytes(w, b)
}

func writeBytes(w http.ResponseWriter, b []byte) {
	w.Header().Set(apc.HdrContentType, "application/octet-stream")
	w.Header().Set(apc.HdrContentLength, strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// declare len(b), send b[:n], close the connection
func (*Server) truncated(w http.ResponseWriter, b []byte, n int) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "cannot hijack", http.StatusInternalServerError)
		return
	}
	conn, bufrw, err := hj.Hijack()
	if err != nil {
		return
	}
	defer conn.Close()
	fmt.Fprintf(bufrw, "HTTP/1.1 200 OK\r\nContent-Length: %d\r\n\r\n", len(b))
	bufrw.Write(b[:min(n, len(b))])
	bufrw.Flush()
}

func (s *Server) digest(w http.ResponseWriter, action, path string) {
	s.withFile(w, path, func(b []byte) {
		var sum string
		if action == apc.ActMD5Sum {
			h := md5.Sum(b)
			sum = hex.EncodeToString(h[:])
		} else {
			h := sha1.Sum(b)
			sum = hex.EncodeToString(h[:])
		}
		writeText(w, sum+"  "+path+"\n")
	})
}

func (s *Server) locate(w http.ResponseWriter, r *http.Request, path string) {
	if hosts, ok := s.locations[path]; ok {
		writeText(w, strings.Join(hosts, "\n")+"\n")
		return
	}
	s.withFile(w, path, func([]byte) { writeText(w, r.Host+":"+path+"\n") })
}

func (s *Server) stats(w http.ResponseWriter) {
	var size int
	for _, b := range s.files {
		size += len(b)
	}
	b, _ := jsoniter.Marshal(map[string]any{"files": len(s.files), "bytes": size, "requests": len(s.requests)})
	w.Header().Set(apc.HdrContentType, "application/json")
	w.Header().Set(apc.HdrContentLength, strconv.Itoa(len(b)))
	w.Write(b)
}

//
// jobs
//

func (s *Server) submit(w http.ResponseWriter) {
	s.newJob(w)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) newJob(w http.ResponseWriter) {
	job := &Job{Statuses: []string{apc.JobFinished}}
	if len(s.script) > 0 {
		job, s.script = s.script[0], s.script[1:]
	}
	s.seq++
	id := "job" + strconv.Itoa(s.seq)
	s.jobs[id] = job
	w.Header().Set(apc.HdrJobID, id)
	w.Header().Set(apc.HdrJobStatus, cos.Left(s.SubmitStatus, apc.JobRunning))
}

func (s *Server) poll(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(apc.HdrJobID)
	job, ok := s.jobs[id]
	if !ok {
		http.Error(w, "no such job "+id, http.StatusNotFound)
		return
	}
	status := apc.JobFinished
	if len(job.Statuses) > 0 {
		i := min(job.polls, len(job.Statuses)-1)
		status = job.Statuses[i]
	}
	job.polls++
	w.Header().Set(apc.HdrJobID, id)
	w.Header().Set(apc.HdrJobStatus, status)
	if status == apc.JobFailed && job.Message != "" {
		w.Header().Set(apc.HdrJobMessage, job.Message)
	}
	writeText(w, fmt.Sprintf("%s: poll %d: %s\n", id, job.polls, status))
}

//
// tickets
//

func (s *Server) issue(w http.ResponseWriter, r *http.Request, action string) {
	var user string
	if action == apc.ActDSSGetTicket {
		if ck, err := r.Cookie(apc.CookieTicket); err == nil {
			user = s.tickets[ck.Value]
		}
	}
	if user == "" {
		u, pass, ok := r.BasicAuth()
		if !ok || s.users[u] == "" || s.users[u] != pass {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		user = u
	}
	token := s.Ticket
	if token == "" {
		s.seq++
		token = "tkt" + strconv.Itoa(s.seq)
	}
	s.tickets[token] = user
	ck := &http.Cookie{Name: apc.CookieTicket, Value: token, Path: "/", MaxAge: s.TicketMaxAge}
	http.SetCookie(w, ck)
	writeText(w, "ok\n")
}
