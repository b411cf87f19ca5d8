// Package cmn provides common constants, types, and utilities for DSS clients
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"math/rand/v2"
	"sync"
	"time"

	// NOTE: BEWARE: `shortid` uses hardcoded 01/2016 as a starting timestamp
	"github.com/teris-io/shortid"
)

const (
	// Alphabet for generating DSTIDs similar to the shortid.DEFAULT_ABC
	uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

	lettersABC = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	sids     [16]*shortid.Shortid
	sidsOnce sync.Once
)

func InitShortid(seed uint64) {
	for i := range sids {
		sids[i] = shortid.MustNew(uint8(i+1) /*worker*/, uuidABC, seed)
	}
}

// GenDSTID generates unique and user-friendly per-session client IDs
func GenDSTID() (id string) {
	sidsOnce.Do(func() {
		if sids[0] == nil {
			InitShortid(uint64(time.Now().UnixNano()))
		}
	})
	var err error
	for _, sid := range sids {
		id, err = sid.Generate()
		if err == nil &&
			id[0] != '-' && id[0] != '_' && id[len(id)-1] != '-' && id[len(id)-1] != '_' {
			return
		}
	}
	return RandString(9)
}

func RandString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = lettersABC[rand.IntN(len(lettersABC))]
	}
	return string(b)
}
