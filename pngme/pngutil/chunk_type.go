package pngutil

import (
	"encoding/binary"
	"strconv"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
)

// Property bits of a chunk type: bit 5 of each of the four bytes, read as a
// big-endian uint32.
const (
	safeToCopyBit = 0x00000020
	reservedBit   = 0x00002000
	privateBit    = 0x00200000
	ancillaryBit  = 0x20000000
)

// ChunkType is a 4-byte PNG chunk type code. Each byte is an ASCII letter and
// its case carries one property flag. The zero value holds no type code and is
// rejected by NewChunk; build values with NewChunkType or ParseChunkType.
type ChunkType struct {
	code uint32
}

// NewChunkType validates b and returns the chunk type it spells.
func NewChunkType(b [4]byte) (ChunkType, error) {
	for i, c := range b {
		if !isASCIILetter(c) {
			return ChunkType{}, pngerrors.ErrInvalidTypeBytes.
				WithDetail("bytes", b).
				WithDetail("index", i)
		}
	}
	return ChunkType{code: binary.BigEndian.Uint32(b[:])}, nil
}

// ParseChunkType parses a 4-character chunk type such as "IHDR" or "ruSt".
func ParseChunkType(s string) (ChunkType, error) {
	if len(s) != 4 {
		return ChunkType{}, pngerrors.ErrInvalidLength.
			WithDetail("chunkType", s).
			WithDetail("length", len(s))
	}
	var b [4]byte
	copy(b[:], s)
	return NewChunkType(b)
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// Bytes returns the raw type code.
func (t ChunkType) Bytes() [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], t.code)
	return b
}

// IsValid reports whether the type conforms to the current PNG revision.
// Only the reserved bit is checked.
func (t ChunkType) IsValid() bool {
	return t.IsReservedBitValid()
}

// IsCritical reports whether decoders must understand the chunk.
func (t ChunkType) IsCritical() bool {
	return t.code&ancillaryBit == 0
}

// IsPublic reports whether the type is defined by the PNG specification
// rather than privately.
func (t ChunkType) IsPublic() bool {
	return t.code&privateBit == 0
}

func (t ChunkType) IsReservedBitValid() bool {
	return t.code&reservedBit == 0
}

// IsSafeToCopy reports whether editors that do not recognise the chunk may
// copy it into a modified file.
func (t ChunkType) IsSafeToCopy() bool {
	return t.code&safeToCopyBit != 0
}

func (t ChunkType) String() string {
	b := t.Bytes()
	return string(b[:])
}

// Quoted renders the type as a quoted string, e.g. "ruSt".
func (t ChunkType) Quoted() string {
	return strconv.Quote(t.String())
}
