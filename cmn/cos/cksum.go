// Package cos provides common low-level types and utilities for all dss packages
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"sort"
	"strings"

	"github.com/OneOfOne/xxhash"
)

// checksums
const (
	ChecksumNone   = "none"
	ChecksumXXHash = "xxhash"
	ChecksumMD5    = "md5"
	ChecksumSHA1   = "sha1" // store read-back verification (paired with md5)
	ChecksumCRC32C = "crc32c"
	ChecksumSHA256 = "sha256"
	ChecksumSHA512 = "sha512"
)

const badDataCksumPrefix = "BAD DATA CHECKSUM:"

type (
	noopHash struct{}

	ErrBadCksum struct {
		prefix  string
		a, b    any
		context string
	}
	Cksum struct {
		ty    string
		value string
	}
	CksumHash struct {
		Cksum
		H   hash.Hash
		sum []byte
	}
	// writes into several hashes at once, counts bytes
	CksumHashes struct {
		hashes []*CksumHash
		Size   int64
	}
)

var checksums = map[string]struct{}{
	ChecksumNone:   {},
	ChecksumXXHash: {},
	ChecksumMD5:    {},
	ChecksumSHA1:   {},
	ChecksumCRC32C: {},
	ChecksumSHA256: {},
	ChecksumSHA512: {},
}

// interface guard
var (
	_ hash.Hash = (*noopHash)(nil)
	_ io.Writer = (*CksumHashes)(nil)
)

///////////////
// CksumHash //
///////////////

func NewCksumHash(ty string) (ck *CksumHash) {
	ck = &CksumHash{}
	ck.Init(ty)
	return
}

func (ck *CksumHash) Init(ty string) {
	Assert(ck.H == nil)
	ck.ty = ty
	switch ty {
	case ChecksumNone, "":
		ck.ty, ck.H = ChecksumNone, newNoopHash()
	case ChecksumXXHash:
		ck.H = xxhash.New64()
	case ChecksumMD5:
		ck.H = md5.New()
	case ChecksumSHA1:
		ck.H = sha1.New()
	case ChecksumCRC32C:
		ck.H = crc32.New(crc32.MakeTable(crc32.Castagnoli))
	case ChecksumSHA256:
		ck.H = sha256.New()
	case ChecksumSHA512:
		ck.H = sha512.New()
	default:
		AssertMsg(false, "unknown checksum type: "+ty)
	}
}

func (ck *CksumHash) Equal(to *Cksum) bool { return ck.Cksum.Equal(to) }
func (ck *CksumHash) Sum() []byte          { return ck.sum }

func (ck *CksumHash) Finalize() {
	ck.sum = ck.H.Sum(nil)
	ck.value = hex.EncodeToString(ck.sum)
}

/////////////////
// CksumHashes //
/////////////////

func NewCksumHashes(types ...string) *CksumHashes {
	hs := &CksumHashes{hashes: make([]*CksumHash, 0, len(types))}
	for _, ty := range types {
		hs.hashes = append(hs.hashes, NewCksumHash(ty))
	}
	return hs
}

func (hs *CksumHashes) Write(b []byte) (int, error) {
	for _, ck := range hs.hashes {
		ck.H.Write(b)
	}
	hs.Size += int64(len(b))
	return len(b), nil
}

func (hs *CksumHashes) Finalize() {
	for _, ck := range hs.hashes {
		ck.Finalize()
	}
}

// returns nil when the type was not requested
func (hs *CksumHashes) Get(ty string) *Cksum {
	for _, ck := range hs.hashes {
		if ck.ty == ty {
			return &ck.Cksum
		}
	}
	return nil
}

///////////
// Cksum //
///////////

func (ck *Cksum) IsEmpty() bool { return ck == nil || ck.ty == "" || ck.ty == ChecksumNone }

func NewCksum(ty, value string) *Cksum {
	if err := ValidateCksumType(ty, true /*empty OK*/); err != nil {
		AssertMsg(false, err.Error())
	}
	return &Cksum{ty, strings.ToLower(value)}
}

func (ck *Cksum) Equal(to *Cksum) bool {
	if ck.IsEmpty() || to.IsEmpty() {
		return false
	}
	return ck.ty == to.ty && ck.value == to.value
}

func (ck *Cksum) Type() string {
	if ck == nil {
		return ChecksumNone
	}
	return ck.ty
}

func (ck *Cksum) Value() string {
	if ck == nil {
		return ""
	}
	return ck.value
}

func (ck *Cksum) String() string {
	if ck == nil {
		return "checksum <nil>"
	}
	if ck.ty == "" || ck.ty == ChecksumNone {
		return "checksum <none>"
	}
	return ck.ty + "[" + SHead(ck.value) + "]"
}

// Verify returns *ErrBadCksum when the two checksums differ
func (ck *Cksum) Verify(expected *Cksum, context string) error {
	if ck.Equal(expected) {
		return nil
	}
	return NewErrDataCksum(expected, ck, context)
}

func SupportedChecksums() (types []string) {
	types = make([]string, 0, len(checksums))
	for ty := range checksums {
		types = append(types, ty)
	}
	sort.Strings(types)
	return
}

func ValidateCksumType(ty string, emptyOK ...bool) (err error) {
	if ty == "" && len(emptyOK) > 0 && emptyOK[0] {
		return
	}
	if _, ok := checksums[ty]; !ok {
		err = fmt.Errorf("invalid checksum type %q (expecting %v)", ty, SupportedChecksums())
	}
	return
}

// ChecksumBytes computes checksum of the given bytes
func ChecksumBytes(b []byte, ty string) *Cksum {
	ck := NewCksumHash(ty)
	ck.H.Write(b)
	ck.Finalize()
	return &ck.Cksum
}

/////////////////
// ErrBadCksum //
/////////////////

func NewErrDataCksum(a, b *Cksum, context ...string) error {
	err := &ErrBadCksum{prefix: badDataCksumPrefix, a: a, b: b}
	if len(context) > 0 {
		err.context = context[0]
	}
	return err
}

func (e *ErrBadCksum) Error() string {
	var context string
	if e.context != "" {
		context = " (context: " + e.context + ")"
	}
	cka, ok1 := e.a.(*Cksum)
	ckb, ok2 := e.b.(*Cksum)
	if ok1 && ok2 && cka != nil && ckb != nil {
		return fmt.Sprintf("%s %s(%s) != %s(%s)%s", e.prefix, cka.Type(), cka.Value(), ckb.Type(), ckb.Value(), context)
	}
	return fmt.Sprintf("%s %v != %v%s", e.prefix, e.a, e.b, context)
}

func IsErrBadCksum(err error) bool {
	var e *ErrBadCksum
	return errors.As(err, &e)
}

//
// noopHash
//

func newNoopHash() hash.Hash                  { return &noopHash{} }
func (*noopHash) Write(b []byte) (int, error) { return len(b), nil }
func (*noopHash) Sum([]byte) []byte           { return nil }
func (*noopHash) Reset()                      {}
func (*noopHash) Size() int                   { return 0 }
func (*noopHash) BlockSize() int              { return KiB }
