/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NVIDIA/dss/api/apc"
	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/NVIDIA/dss/cmn/nlog"
	"github.com/NVIDIA/dss/stats"
	"github.com/NVIDIA/dss/tracing"

	"go.opentelemetry.io/otel/attribute"
)

type (
	JobStatus struct {
		ID      string `json:"id"`
		Status  string `json:"status"` // RUNNING | FINISHED | FAILED
		Message string `json:"message,omitempty"`
	}

	// ErrJob: the job reported FAILED
	ErrJob struct {
		ID      string
		Path    string
		Message string
	}
)

func (e *ErrJob) Error() string {
	var sb strings.Builder
	sb.WriteString("job ")
	sb.WriteString(e.ID)
	if e.Path != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Path)
		sb.WriteString(")")
	}
	sb.WriteString(" failed")
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

func IsErrJob(err error) bool {
	var e *ErrJob
	return errors.As(err, &e)
}

func normStatus(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func (js *JobStatus) Finished() bool { return js.Status == apc.JobFinished }
func (js *JobStatus) Failed() bool   { return js.Status == apc.JobFailed }

// MakeLocal stages `path` on the server and waits for the job to finish
func (c *Client) MakeLocal(ctx context.Context, path string, opts *Opts) error {
	return c.submit(ctx, apc.ActMakeLocal, path, nil, opts)
}

// MakeLocalAsy stages multiple paths as one job (one Data-Path header per path)
func (c *Client) MakeLocalAsy(ctx context.Context, paths []string, opts *Opts) error {
	if len(paths) == 0 {
		return errors.New("makelocalasy: no paths")
	}
	return c.submit(ctx, apc.ActMakeLocalAsy, "", paths, opts)
}

// WaitJob polls a previously submitted job until it terminates
func (c *Client) WaitJob(ctx context.Context, jobID string, opts *Opts) (err error) {
	opts = opts.orDefault()
	ctx, cancel, span, started := c.begin(ctx, apc.ActGetLog, "", opts)
	err = c.waitJob(ctx, "", &outcome{jobID: jobID, jobStatus: apc.JobRunning}, opts.derive())
	c.end(apc.ActGetLog, cancel, span, started, err)
	return err
}

func (c *Client) submit(ctx context.Context, action, path string, dataPaths []string, opts *Opts) (err error) {
	opts = opts.orDefault()
	ctx, cancel, span, started := c.begin(ctx, action, path, opts)
	defer func() { c.end(action, cancel, span, started, err) }()

	rp := c.allocRp(action, path, opts)
	defer freeRp(rp)
	rp.dataPaths = dataPaths
	out, _, err := c.do(ctx, rp)
	if err != nil {
		return err
	}
	c.sess.Discard()
	return c.waitJob(ctx, path, out, opts.derive())
}

// waitJob polls GETLOG until FINISHED or FAILED: the first poll is immediate,
// subsequent ones every JobPollInterval. RUNNING (or unknown) keeps polling,
// bounded only by ctx.
func (c *Client) waitJob(ctx context.Context, path string, out *outcome, opts *Opts) error {
	js := JobStatus{ID: out.jobID, Status: normStatus(out.jobStatus), Message: out.jobMessage}
	for polls := 0; ; polls++ {
		switch js.Status {
		case apc.JobFinished:
			if polls > 0 {
				nlog.Infof("job %s finished (%d poll%s)", js.ID, polls, cos.Plural(polls))
			}
			return nil
		case apc.JobFailed:
			return &ErrJob{ID: js.ID, Path: path, Message: js.Message}
		}
		if js.ID == "" {
			if js.Status == "" {
				return nil // completed synchronously
			}
			return fmt.Errorf("job status %q without job id", js.Status)
		}
		if polls > 0 {
			if err := c.sleep(ctx, c.config.Retry.JobPollInterval); err != nil {
				return fmt.Errorf("job %s: %w", js.ID, err)
			}
		}
		next, err := c.pollJob(ctx, js.ID, path, opts)
		if err != nil {
			return err
		}
		switch next.Status {
		case apc.JobRunning, apc.JobFinished, apc.JobFailed:
		default:
			nlog.Warningf("job %s: unexpected status %q, continuing to poll", js.ID, next.Status)
		}
		js = next
	}
}

func (c *Client) pollJob(ctx context.Context, id, path string, opts *Opts) (JobStatus, error) {
	c.tstats.Inc(stats.JobPolls)
	tracing.AddEvent(ctx, "job.poll", attribute.String("jobid", id))

	rp := c.allocRp(apc.ActGetLog, path, opts)
	defer freeRp(rp)
	rp.setHeader(apc.HdrJobID, id)
	out, resp, err := c.do(ctx, rp)
	if err != nil {
		return JobStatus{}, err
	}
	b, err := c.sess.ReadBody()
	if err != nil {
		return JobStatus{}, c.errOp(rp, resp, "", err)
	}
	js := JobStatus{ID: id, Status: normStatus(out.jobStatus), Message: out.jobMessage}
	if js.Message == "" && js.Status == apc.JobFailed {
		js.Message = strings.TrimSpace(string(b))
	}
	if out.jobID != "" {
		js.ID = out.jobID
	}
	return js, nil
}
