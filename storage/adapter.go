// Package storage binds DSS client operations to data objects (remote path + local file)
// for pipeline code, and runs bulk transfers with one client per worker.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package storage

import (
	"context"
	"os"
	"sync/atomic"

	"github.com/NVIDIA/dss/api"
	"github.com/NVIDIA/dss/cmn/cos"
	"github.com/NVIDIA/dss/cmn/nlog"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const DfltWorkers = 4

type (
	Object struct {
		Path  string `json:"path"`  // DSS path
		Local string `json:"local"` // local file
	}

	// Adapter holds (does not extend) a client
	Adapter struct {
		client *api.Client
		opts   *api.Opts
	}

	// NewClientFunc creates an independent client (and session) per worker
	NewClientFunc func() (*api.Client, error)

	Stats struct {
		Objects int64
		Bytes   int64
	}
)

func NewAdapter(client *api.Client, opts *api.Opts) *Adapter {
	return &Adapter{client: client, opts: opts}
}

func (a *Adapter) Client() *api.Client { return a.client }

// Retrieve downloads obj.Path into obj.Local
func (a *Adapter) Retrieve(ctx context.Context, obj *Object) (int64, error) {
	n, err := a.client.Get(ctx, obj.Path, obj.Local, a.opts)
	return n, errors.Wrapf(err, "retrieve %s", obj.Path)
}

// Store uploads obj.Local to obj.Path
func (a *Adapter) Store(ctx context.Context, obj *Object) (*cos.Cksum, error) {
	cksum, err := a.client.Put(ctx, obj.Path, obj.Local, a.opts)
	return cksum, errors.Wrapf(err, "store %s", obj.Path)
}

func (a *Adapter) Exists(ctx context.Context, obj *Object) bool {
	return a.client.TestFile(ctx, obj.Path, a.opts)
}

func (a *Adapter) Remove(ctx context.Context, obj *Object) error {
	return errors.Wrapf(a.client.Delete(ctx, obj.Path, a.opts), "remove %s", obj.Path)
}

//
// bulk
//

// RetrieveAll downloads all objects using `workers` independent clients;
// the first failure cancels the rest
func RetrieveAll(ctx context.Context, newClient NewClientFunc, objs []Object, workers int, opts *api.Opts) (Stats, error) {
	return runAll(ctx, newClient, objs, workers, opts, func(ctx context.Context, a *Adapter, obj *Object) (int64, error) {
		return a.Retrieve(ctx, obj)
	})
}

// StoreAll: upload counterpart of RetrieveAll
func StoreAll(ctx context.Context, newClient NewClientFunc, objs []Object, workers int, opts *api.Opts) (Stats, error) {
	return runAll(ctx, newClient, objs, workers, opts, func(ctx context.Context, a *Adapter, obj *Object) (int64, error) {
		if _, err := a.Store(ctx, obj); err != nil {
			return 0, err
		}
		fi, err := os.Stat(obj.Local)
		if err != nil {
			return 0, nil // stored; size unknown
		}
		return fi.Size(), nil
	})
}

type xferFunc func(ctx context.Context, a *Adapter, obj *Object) (int64, error)

func runAll(ctx context.Context, newClient NewClientFunc, objs []Object, workers int, opts *api.Opts, xfer xferFunc) (Stats, error) {
	var (
		stats   Stats
		nobjs   atomic.Int64
		nbytes  atomic.Int64
		workCh  = make(chan *Object)
		g, gctx = errgroup.WithContext(ctx)
	)
	workers = min(cos.NonZero(workers, DfltWorkers), max(len(objs), 1))
	for range workers {
		client, err := newClient()
		if err != nil {
			close(workCh)
			g.Wait()
			return stats, errors.Wrap(err, "failed to create client")
		}
		a := NewAdapter(client, opts)
		g.Go(func() error {
			defer client.Close()
			for obj := range workCh {
				n, err := xfer(gctx, a, obj)
				if err != nil {
					return err
				}
				nobjs.Add(1)
				nbytes.Add(n)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(workCh)
		for i := range objs {
			select {
			case workCh <- &objs[i]:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})
	err := g.Wait()
	stats.Objects, stats.Bytes = nobjs.Load(), nbytes.Load()
	if err == nil {
		nlog.Infof("transferred %d object%s (%s)", stats.Objects, cos.Plural(int(stats.Objects)), cos.ToSizeIEC(stats.Bytes, 1))
	}
	return stats, err
}
