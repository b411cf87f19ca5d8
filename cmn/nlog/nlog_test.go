// Package nlog - dss logger: leveled, timestamped, written to stderr or a file
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package nlog_test

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/NVIDIA/dss/cmn/nlog"
	"github.com/NVIDIA/dss/tools/tassert"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	nlog.SetOutput(&buf)
	defer nlog.SetOutput(os.Stderr)

	nlog.Infof("stored %s", "/a/b")
	nlog.Warningln("busy", 3)
	nlog.Debugf("hidden %d", 1)

	out := buf.String()
	tassert.Errorf(t, strings.Contains(out, "stored /a/b"), "missing info record: %q", out)
	tassert.Errorf(t, strings.Contains(out, "busy 3"), "missing warning record: %q", out)
	tassert.Errorf(t, !strings.Contains(out, "hidden"), "debug record leaked: %q", out)

	nlog.SetVerbose(true)
	defer nlog.SetVerbose(false)
	nlog.Debugf("shown %d", 2)
	tassert.Errorf(t, strings.Contains(buf.String(), "shown 2"), "missing debug record")
}

func TestLogFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "dss.log")
	tassert.CheckFatal(t, nlog.SetLogFile(fname))
	nlog.Errorf("failed: %v", "boom")
	nlog.Flush()
	tassert.CheckFatal(t, nlog.SetLogFile(""))

	b, err := os.ReadFile(fname)
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, strings.Contains(string(b), "failed: boom"), "log file: %q", string(b))
}

func TestMicroseconds(t *testing.T) {
	var buf bytes.Buffer
	nlog.SetOutput(&buf)
	defer nlog.SetOutput(os.Stderr)

	for i := range 3 {
		nlog.Infof("record %d", i)
	}
	stamps := regexp.MustCompile(`\d{2}:\d{2}:\d{2}\.(\d{6})`).FindAllStringSubmatch(buf.String(), -1)
	tassert.Fatalf(t, len(stamps) == 3, "expecting 3 timestamps: %q", buf.String())
	var nonzero bool
	for _, m := range stamps {
		nonzero = nonzero || m[1] != "000000"
	}
	tassert.Errorf(t, nonzero, "sub-second precision lost: %q", buf.String())
}
