package constant

import "time"

// Block layer. Every block on disk is BlockSize bytes; byte 0 of each block
// is a prefix that is not part of any chunk or header payload.
const (
	BlockSize         = 4096 // 4k
	BlockPayloadBytes = BlockSize - 1 // usable bytes per block once the prefix is stripped
)

const (
	PrefixData   = byte(0x00) // block holds chunk payload
	PrefixHeader = byte(0x01) // block begins a header record
)

// Chunk layer. Length is tagged into the top bit of a 4-byte big-endian word.
const (
	ChunkHeaderSize = 4
	ChunkMD5Flag    = uint32(1) << 31
	ChunkLenMask    = ChunkMD5Flag - 1
	ChunkMaxLen     = ChunkLenMask
	MD5Size         = 16
)

// Header layer. Length is a plain 4-byte big-endian word.
const (
	HeaderLenSize   = 4
	HeaderPrefixLen = 1 + HeaderLenSize // prefix byte + length word
	HeaderMaxLen    = uint64(1)<<32 - 1
)

// Idle-close timings (spec.md section 4.4).
var (
	InitialWait  = 60 * time.Second
	MonitorCheck = 10 * time.Second
)
