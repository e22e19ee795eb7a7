// Package block implements the pure, I/O-free half of the on-disk block
// framing scheme: splicing a one-byte prefix into a payload every time it
// crosses a 4 KiB boundary, and undoing that splice on read. It has no
// knowledge of chunks or headers; those layers call into it.
//
// Grounded on the block/page abstractions in the teacher's disk and wal
// packages (fixed block size, prefix/header byte carried in-band), reworked
// from a whole-block-size-header scheme into the spec's single-byte,
// boundary-crossing prefix scheme.
package block

import "github.com/emberstore/emberfile/constant"

// Size is the fixed block size in bytes.
const Size = constant.BlockSize

// Offset returns the intra-block byte offset of an absolute file position.
func Offset(pos int64) int64 {
	return pos % Size
}

// Frame splices block-prefix bytes into payload as it crosses block
// boundaries, given the intra-block offset the write begins at. The result
// is a list of byte segments suitable for a single vectored write; callers
// that only need a flat buffer can pass the result to Concat.
//
// prefix is the byte inserted only when the write begins exactly on a block
// boundary (off == 0); every further boundary the payload crosses gets
// constant.PrefixData regardless of prefix.
func Frame(off int64, payload []byte, prefix byte) [][]byte {
	if len(payload) == 0 {
		return nil
	}
	if off == 0 {
		return append([][]byte{{prefix}}, Frame(1, payload, constant.PrefixData)...)
	}
	remaining := Size - off
	if int64(len(payload)) <= remaining {
		return [][]byte{payload}
	}
	first, rest := payload[:remaining], payload[remaining:]
	segs := [][]byte{first, {constant.PrefixData}}
	return append(segs, Frame(1, rest, constant.PrefixData)...)
}

// Unframe strips the block-prefix bytes out of a raw read, given the
// intra-block offset the read began at, recovering the original payload.
func Unframe(off int64, raw []byte) []byte {
	if len(raw) == 0 {
		return []byte{}
	}
	if off == 0 {
		return Unframe(1, raw[1:])
	}
	remaining := Size - off
	if int64(len(raw)) <= remaining {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out
	}
	first, rest := raw[:remaining], raw[remaining+1:]
	out := make([]byte, len(first))
	copy(out, first)
	return append(out, Unframe(1, rest)...)
}

// RawReadLen returns the number of raw bytes that must be read starting at
// off to recover exactly payloadLen payload bytes, accounting for the
// prefix bytes interleaved along the way.
func RawReadLen(off int64, payloadLen int64) int64 {
	if payloadLen == 0 {
		return 0
	}
	if off == 0 {
		return RawReadLen(1, payloadLen) + 1
	}
	remaining := Size - off
	if payloadLen <= remaining {
		return payloadLen
	}
	overflow := payloadLen - remaining
	extraBlocks := (overflow + (Size - 1 - 1)) / (Size - 1) // ceil(overflow / (Size-1))
	return payloadLen + extraBlocks
}

// Concat flattens a list of segments produced by Frame into one buffer. Most
// callers should prefer writing the segments with a vectored write; Concat
// exists for callers (like the header padding path) that need one buffer.
func Concat(segs [][]byte) []byte {
	var n int
	for _, s := range segs {
		n += len(s)
	}
	out := make([]byte, 0, n)
	for _, s := range segs {
		out = append(out, s...)
	}
	return out
}
