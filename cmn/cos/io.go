// Package cos provides common low-level types and utilities for all dss packages
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"time"
)

type (
	// source of known length that can be (re)opened - e.g., to resend an upload after redirect
	Opener interface {
		Open() (io.ReadCloser, error)
		Size() int64
	}
	FileOpener struct {
		fqn  string
		size int64
	}
	BytesOpener struct {
		b []byte
	}

	// hides `ReadFrom` of the wrapped writer
	WriterOnly struct {
		io.Writer
	}

	// stage-then-publish: writes go to <fqn>.INCOMPLETE, rename is the only publish point
	StagedFile struct {
		file *os.File
		fqn  string
		tmp  string
		n    int64
	}
)

// interface guard
var (
	_ Opener    = (*FileOpener)(nil)
	_ Opener    = (*BytesOpener)(nil)
	_ io.Writer = (*StagedFile)(nil)
)

////////////////
// FileOpener //
////////////////

func NewFileOpener(fqn string) (*FileOpener, error) {
	finfo, err := os.Stat(fqn)
	if err != nil {
		return nil, err
	}
	if finfo.IsDir() {
		return nil, &os.PathError{Op: "open", Path: fqn, Err: errors.New("is a directory")}
	}
	return &FileOpener{fqn: fqn, size: finfo.Size()}, nil
}

func (f *FileOpener) Open() (io.ReadCloser, error) { return os.Open(f.fqn) }
func (f *FileOpener) Size() int64                  { return f.size }
func (f *FileOpener) Name() string                 { return f.fqn }

/////////////////
// BytesOpener //
/////////////////

func NewBytesOpener(b []byte) *BytesOpener { return &BytesOpener{b} }

func (b *BytesOpener) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.b)), nil
}
func (b *BytesOpener) Size() int64 { return int64(len(b.b)) }

////////////////
// StagedFile //
////////////////

func NewStagedFile(fqn string) (*StagedFile, error) {
	tmp := fqn + SuffIncomplete
	file, err := CreateFile(tmp)
	if err != nil {
		return nil, err
	}
	return &StagedFile{file: file, fqn: fqn, tmp: tmp}, nil
}

func (sf *StagedFile) Write(b []byte) (n int, err error) {
	n, err = sf.file.Write(b)
	sf.n += int64(n)
	return
}

func (sf *StagedFile) Size() int64  { return sf.n }
func (sf *StagedFile) Tmp() string  { return sf.tmp }
func (sf *StagedFile) Name() string { return sf.fqn }

// Publish closes the staging file and renames it to the final name
func (sf *StagedFile) Publish() error {
	if err := sf.file.Close(); err != nil {
		RemoveFile(sf.tmp)
		return err
	}
	if err := Rename(sf.tmp, sf.fqn); err != nil {
		RemoveFile(sf.tmp)
		return err
	}
	return nil
}

// PublishLink replaces the final name with a symbolic link to `target` (staging bytes are discarded)
func (sf *StagedFile) PublishLink(target string) error {
	sf.file.Close()
	if err := RemoveFile(sf.tmp); err != nil {
		return err
	}
	if err := os.Symlink(target, sf.tmp); err != nil {
		return err
	}
	if err := Rename(sf.tmp, sf.fqn); err != nil {
		RemoveFile(sf.tmp)
		return err
	}
	return nil
}

// Abort removes the staging file; the original (if any) is never touched
func (sf *StagedFile) Abort() {
	sf.file.Close()
	RemoveFile(sf.tmp)
}

//
// misc
//

// ExpandPath replaces common abbreviations in file path (eg. `~` with absolute
// path to the current user home directory) and cleans the path.
func ExpandPath(path string) string {
	if path == "" || path[0] != '~' {
		return filepath.Clean(path)
	}
	if len(path) > 1 && path[1] != '/' {
		return filepath.Clean(path)
	}
	currentUser, err := user.Current()
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(currentUser.HomeDir, path[1:]))
}

// CreateDir creates directory if does not exist.
func CreateDir(dir string) error {
	return os.MkdirAll(dir, configDirMode)
}

// CreateFile creates a new write-only file with default cos.PermRWR permissions.
// NOTE: if the file already exists it'll be silently truncated.
func CreateFile(fqn string) (*os.File, error) {
	if err := CreateDir(filepath.Dir(fqn)); err != nil {
		return nil, err
	}
	return os.OpenFile(fqn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, PermRWR)
}

// (creates destination directory if doesn't exist)
func Rename(src, dst string) (err error) {
	err = os.Rename(src, dst)
	if err == nil || !os.IsNotExist(err) {
		return
	}
	// create and retry (slow path)
	err = CreateDir(filepath.Dir(dst))
	if err == nil {
		err = os.Rename(src, dst)
	}
	return
}

// RemoveFile removes path; returns nil upon success or if the path does not exist.
func RemoveFile(path string) (err error) {
	err = os.Remove(path)
	if os.IsNotExist(err) {
		err = nil
	}
	return
}

// SleepCtx sleeps for `d` or until the context is done, whichever comes first
func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
