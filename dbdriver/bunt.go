// Package dbdriver provides a local key-value store for DSS client state (e.g., tickets).
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dbdriver

import (
	"errors"
	"sort"
	"strings"

	"github.com/NVIDIA/dss/cmn/cos"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/buntdb"
)

const memoryDB = ":memory:"

type BuntDriver struct {
	driver *buntdb.DB
}

// interface guard
var _ Driver = (*BuntDriver)(nil)

// NewBuntDB opens (or creates) the database file; ":memory:" for in-memory
func NewBuntDB(path string) (*BuntDriver, error) {
	if path != memoryDB {
		if err := cos.CreateDir(parentDir(path)); err != nil {
			return nil, err
		}
	}
	driver, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	// persist every write: ticket updates are rare
	cfg := buntdb.Config{}
	if err := driver.ReadConfig(&cfg); err != nil {
		driver.Close()
		return nil, err
	}
	cfg.SyncPolicy = buntdb.Always
	if err := driver.SetConfig(cfg); err != nil {
		driver.Close()
		return nil, err
	}
	return &BuntDriver{driver: driver}, nil
}

func parentDir(path string) string {
	if i := strings.LastIndexByte(path, '/'); i > 0 {
		return path[:i]
	}
	return "."
}

func (bd *BuntDriver) Close() error { return bd.driver.Close() }

func (bd *BuntDriver) Set(collection, key string, object any) error {
	b, err := jsoniter.Marshal(object)
	if err != nil {
		return err
	}
	return bd.SetString(collection, key, string(b))
}

func (bd *BuntDriver) Get(collection, key string, object any) error {
	s, err := bd.GetString(collection, key)
	if err != nil {
		return err
	}
	return jsoniter.Unmarshal([]byte(s), object)
}

func (bd *BuntDriver) SetString(collection, key, data string) error {
	return bd.driver.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(makePath(collection, key), data, nil)
		return err
	})
}

func (bd *BuntDriver) GetString(collection, key string) (value string, err error) {
	err = bd.driver.View(func(tx *buntdb.Tx) error {
		var err error
		value, err = tx.Get(makePath(collection, key))
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		err = NewErrNotFound(collection, key)
	}
	return value, err
}

func (bd *BuntDriver) Delete(collection, key string) error {
	err := bd.driver.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(makePath(collection, key))
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		err = NewErrNotFound(collection, key)
	}
	return err
}

func (bd *BuntDriver) List(collection, pattern string) ([]string, error) {
	var keys []string
	err := bd.driver.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(makePath(collection, pattern)+"*", func(path, _ string) bool {
			if _, key := ParsePath(path); key != "" {
				keys = append(keys, key)
			}
			return true
		})
	})
	sort.Strings(keys)
	return keys, err
}

func (bd *BuntDriver) DeleteCollection(collection string) error {
	keys, err := bd.List(collection, "")
	if err != nil || len(keys) == 0 {
		return err
	}
	return bd.driver.Update(func(tx *buntdb.Tx) error {
		for _, key := range keys {
			if _, err := tx.Delete(makePath(collection, key)); err != nil && !errors.Is(err, buntdb.ErrNotFound) {
				return err
			}
		}
		return nil
	})
}

func (bd *BuntDriver) GetAll(collection, pattern string) (map[string]string, error) {
	values := make(map[string]string)
	err := bd.driver.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(makePath(collection, pattern)+"*", func(path, val string) bool {
			if _, key := ParsePath(path); key != "" {
				values[key] = val
			}
			return true
		})
	})
	return values, err
}
