// Package header implements the header record codec and the backward
// scanner that locates the most recently written valid header in a file.
// Headers are the document database's commit points: every write_header
// call is a candidate new "most recent header", and find_header is how a
// freshly opened file decides where the database's state actually is.
//
// Grounded on the teacher's wal package: wal.Append's checksum-then-length
// framing and wal/recover.go's backward-scanning, checksum-verifying replay
// loop, reworked from a WAL of typed mutation records into a single
// MD5-signed opaque payload addressed by block prefix rather than by a
// sequence of fixed-size log files.
package header

import (
	"encoding/binary"
	"io"

	"github.com/emberstore/emberfile/block"
	"github.com/emberstore/emberfile/constant"
	"github.com/emberstore/emberfile/errmsg"
	"github.com/emberstore/emberfile/sum"
)

// Encode builds the on-disk bytes for a header record with payload
// user bytes, to be written starting at the given eof. It returns the full
// byte sequence (zero padding, if any, followed by the framed header block)
// and the new eof after writing it.
func Encode(eof int64, payload []byte) (out []byte, newEOF int64, err error) {
	digest := sum.Sum(payload)
	signed := make([]byte, sum.Size+len(payload))
	copy(signed, digest[:])
	copy(signed[sum.Size:], payload)

	if uint64(len(signed)) > constant.HeaderMaxLen {
		return nil, 0, &errmsg.TooLarge{Kind: "header", Size: uint64(len(signed)), Limit: constant.HeaderMaxLen}
	}

	off := block.Offset(eof)
	var padding []byte
	if off != 0 {
		padding = make([]byte, block.Size-off)
	}

	lenWord := make([]byte, constant.HeaderLenSize)
	binary.BigEndian.PutUint32(lenWord, uint32(len(signed)))

	framed := block.Concat(block.Frame(constant.HeaderPrefixLen, signed, constant.PrefixData))

	out = make([]byte, 0, len(padding)+1+constant.HeaderLenSize+len(framed))
	out = append(out, padding...)
	out = append(out, constant.PrefixHeader)
	out = append(out, lenWord...)
	out = append(out, framed...)

	return out, eof + int64(len(out)), nil
}

// Find scans blocks backward from eof looking for the most recent valid
// header, returning its payload. It returns errmsg.NoValidHeader if no
// block validates.
func Find(ra io.ReaderAt, eof int64) ([]byte, error) {
	for b := eof / block.Size; b >= 0; b-- {
		if payload, ok := tryBlock(ra, b, eof); ok {
			return payload, nil
		}
	}
	return nil, errmsg.NoValidHeader
}

// tryBlock attempts to parse and validate a header beginning at block b. It
// never returns an error: any failure (short read, wrong prefix, truncated
// length, bad MD5) is reported as ok=false so the caller keeps scanning.
func tryBlock(ra io.ReaderAt, b, eof int64) (payload []byte, ok bool) {
	base := b * block.Size
	avail := eof - base
	if avail < constant.HeaderPrefixLen {
		return nil, false
	}
	if avail > block.Size {
		avail = block.Size
	}

	head := make([]byte, avail)
	if n, _ := ra.ReadAt(head, base); n != len(head) {
		return nil, false
	}
	if head[0] != constant.PrefixHeader {
		return nil, false
	}

	n := int64(binary.BigEndian.Uint32(head[1:constant.HeaderPrefixLen]))
	need := block.RawReadLen(constant.HeaderPrefixLen, n)

	haveInBlock := avail - constant.HeaderPrefixLen
	raw := make([]byte, need)
	copy(raw, head[constant.HeaderPrefixLen:])
	if need > haveInBlock {
		extra := raw[haveInBlock:]
		if _, err := io.ReadFull(sectionReader{ra, base + avail}, extra); err != nil {
			return nil, false
		}
	}

	signed := block.Unframe(constant.HeaderPrefixLen, raw)
	if int64(len(signed)) != n || n < sum.Size {
		return nil, false
	}

	digest, body := signed[:sum.Size], signed[sum.Size:]
	if !sum.Equal(digest, body) {
		return nil, false
	}
	return body, true
}

type sectionReader struct {
	ra  io.ReaderAt
	off int64
}

func (s sectionReader) Read(p []byte) (int, error) {
	n, err := s.ra.ReadAt(p, s.off)
	s.off += int64(n)
	return n, err
}
