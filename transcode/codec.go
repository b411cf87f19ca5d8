// Package transcode provides the pluggable (de)compression step around transfers
// redirected (303) to an alternate representation of the same file.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package transcode

import (
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// Codec compresses (Encode) and decompresses (Decode) one representation, keyed by file extension
type Codec interface {
	Ext() string // including the leading '.', e.g. ".lz4"
	Encode(w io.Writer) (io.WriteCloser, error)
	Decode(r io.Reader) (io.ReadCloser, error)
}

var (
	registry = map[string]Codec{}
	mu       sync.RWMutex
)

func init() {
	Register(lz4Codec{})
}

// Register adds or replaces the codec for its extension
func Register(c Codec) {
	mu.Lock()
	registry[strings.ToLower(c.Ext())] = c
	mu.Unlock()
}

func Unregister(ext string) {
	mu.Lock()
	delete(registry, strings.ToLower(ext))
	mu.Unlock()
}

func Lookup(ext string) (Codec, bool) {
	mu.RLock()
	c, ok := registry[strings.ToLower(ext)]
	mu.RUnlock()
	return c, ok
}

func Registered() []string {
	mu.RLock()
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	mu.RUnlock()
	sort.Strings(exts)
	return exts
}

// Suffix returns the registered compression suffix of the path, if any
func Suffix(path string) (string, Codec) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", nil
	}
	if c, ok := Lookup(ext); ok {
		return strings.ToLower(ext), c
	}
	return "", nil
}

/////////
// lz4 //
/////////

type lz4Codec struct{}

func (lz4Codec) Ext() string { return ".lz4" }

func (lz4Codec) Encode(w io.Writer) (io.WriteCloser, error) { return lz4.NewWriter(w), nil }

func (lz4Codec) Decode(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}
