/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dssmock_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NVIDIA/dss/api/apc"
	"github.com/NVIDIA/dss/tools/dssmock"
	"github.com/NVIDIA/dss/tools/tassert"
)

func do(t *testing.T, url, action string, body []byte, hdr map[string]string) *http.Response {
	method := http.MethodGet
	if action == apc.ActStore {
		method = http.MethodPost
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	tassert.CheckFatal(t, err)
	req.Header.Set(apc.HdrAction, action)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	tassert.CheckFatal(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStoreHandshake(t *testing.T) {
	mock := dssmock.New()
	ts := httptest.NewServer(mock)
	defer ts.Close()

	resp := do(t, ts.URL+"/a/b", apc.ActStore, nil, nil)
	tassert.Fatalf(t, resp.StatusCode == http.StatusOK, "handshake: %d", resp.StatusCode)
	key := resp.Header.Get(apc.HdrRespKey)
	tassert.Fatalf(t, key != "", "no storekey")

	resp = do(t, ts.URL+"/a/b", apc.ActStore, []byte("payload"), map[string]string{apc.HdrStoreCheck: key})
	tassert.Fatalf(t, resp.StatusCode == http.StatusOK, "body: %d", resp.StatusCode)
	b, ok := mock.File("/a/b")
	tassert.Fatalf(t, ok && string(b) == "payload", "stored %q", b)

	// key is single use
	resp = do(t, ts.URL+"/a/b", apc.ActStore, []byte("again"), map[string]string{apc.HdrStoreCheck: key})
	tassert.Errorf(t, resp.StatusCode == http.StatusBadRequest, "reused key: %d", resp.StatusCode)
}

func TestBusyAndRedirect(t *testing.T) {
	mock := dssmock.New()
	mock.PutFile("/f", []byte("x"))
	ts := httptest.NewServer(mock)
	defer ts.Close()

	mock.Busy(apc.ActSize, 2, "0.5")
	for range 2 {
		resp := do(t, ts.URL+"/f", apc.ActSize, nil, nil)
		tassert.Errorf(t, resp.StatusCode == http.StatusServiceUnavailable, "expected 503, got %d", resp.StatusCode)
		tassert.Errorf(t, resp.Header.Get(apc.HdrSleepTime) == "0.5", "sleep-time %q", resp.Header.Get(apc.HdrSleepTime))
	}
	resp := do(t, ts.URL+"/f", apc.ActSize, nil, nil)
	b, _ := io.ReadAll(resp.Body)
	tassert.Errorf(t, string(b) == "1\n", "size %q", b)

	mock.Redirect(apc.ActSize, 1, http.StatusMovedPermanently, "http://example.invalid:1")
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/f", http.NoBody)
	req.Header.Set(apc.HdrAction, apc.ActSize)
	resp, err := client.Do(req)
	tassert.CheckFatal(t, err)
	resp.Body.Close()
	tassert.Errorf(t, resp.StatusCode == http.StatusMovedPermanently, "expected 301, got %d", resp.StatusCode)
	tassert.Errorf(t, len(mock.RequestsFor(apc.ActSize)) == 4, "recorded %d", len(mock.RequestsFor(apc.ActSize)))
}

func TestJobScript(t *testing.T) {
	mock := dssmock.New()
	mock.Script("", apc.JobRunning, apc.JobFinished)
	ts := httptest.NewServer(mock)
	defer ts.Close()

	resp := do(t, ts.URL+"/f", apc.ActMakeLocal, nil, nil)
	id := resp.Header.Get(apc.HdrJobID)
	tassert.Fatalf(t, id != "", "no job id")
	for _, expected := range []string{apc.JobRunning, apc.JobFinished, apc.JobFinished} {
		resp := do(t, ts.URL+"/f", apc.ActGetLog, nil, map[string]string{apc.HdrJobID: id})
		tassert.Errorf(t, resp.Header.Get(apc.HdrJobStatus) == expected, "expected %s, got %s", expected, resp.Header.Get(apc.HdrJobStatus))
	}
	tassert.Errorf(t, mock.Polls(id) == 3, "polls %d", mock.Polls(id))
}
