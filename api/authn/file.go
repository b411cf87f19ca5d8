// Package authn provides DSS ticket (authentication token) management
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package authn

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/NVIDIA/dss/cmn/nlog"

	"github.com/pkg/errors"
)

const numFields = 4 // server,username,ticket,expiry

type filePersister struct {
	path string
}

func (fp *filePersister) String() string { return "ticket file " + fp.path }
func (*filePersister) close() error      { return nil }

// missing file is not an error; malformed lines are skipped
func (fp *filePersister) load() ([]*Ticket, error) {
	fh, err := os.Open(fp.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	var tickets []*Ticket
	for line := 1; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t, err := parseRecord(rec)
		if err != nil {
			nlog.Warningf("%s:%d: %v - skipping", fp.path, line, err)
			continue
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

func parseRecord(rec []string) (*Ticket, error) {
	if len(rec) != numFields {
		return nil, errors.Errorf("expecting %d fields, got %d", numFields, len(rec))
	}
	// float: tolerate fractional seconds
	secs, err := strconv.ParseFloat(rec[3], 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid expiry")
	}
	whole, frac := math.Modf(secs)
	expiry := time.Unix(int64(whole), int64(frac*float64(time.Second)))
	return &Ticket{Server: rec[0], User: rec[1], Token: rec[2], Expiry: expiry}, nil
}

// write-temp-then-rename
func (fp *filePersister) save(tickets []*Ticket) error {
	if err := cos.CreateDir(filepath.Dir(fp.path)); err != nil {
		return err
	}
	tmp := fp.path + ".tmp"
	fh, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	w := csv.NewWriter(fh)
	for _, t := range tickets {
		w.Write([]string{t.Server, t.User, t.Token, strconv.FormatInt(t.Expiry.Unix(), 10)})
	}
	w.Flush()
	err = w.Error()
	if errC := fh.Close(); err == nil {
		err = errC
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, fp.path)
}
