package pngutil

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
)

const (
	lengthSize = 4
	typeSize   = 4
	crcSize    = 4

	// MinChunkSize is the size of a chunk frame with an empty payload.
	MinChunkSize = lengthSize + typeSize + crcSize
)

// Chunk is a single length-prefixed, CRC-protected PNG chunk.
type Chunk struct {
	length    uint32
	chunkType ChunkType
	data      []byte
	crc       uint32
}

// NewChunk builds a chunk of the given type around a copy of data.
func NewChunk(chunkType ChunkType, data []byte) (*Chunk, error) {
	if chunkType.code == 0 {
		return nil, pngerrors.ErrInvalidTypeBytes.WithDetail("chunkType", "zero value")
	}
	if err := checkPayloadLength(len(data)); err != nil {
		return nil, err
	}

	payload := append([]byte(nil), data...)
	return &Chunk{
		length:    uint32(len(payload)),
		chunkType: chunkType,
		data:      payload,
		crc:       checksum(chunkType, payload),
	}, nil
}

func checkPayloadLength(n int) error {
	if uint64(n) > math.MaxUint32 {
		return pngerrors.ErrPayloadTooLarge.WithDetail("size", n)
	}
	return nil
}

// ParseChunk decodes the chunk at the start of b. Bytes after the chunk frame
// are left alone; EncodedLen tells the caller how many bytes were used.
func ParseChunk(b []byte) (*Chunk, error) {
	if len(b) < MinChunkSize {
		return nil, pngerrors.ErrBufferTooShort.
			WithDetail("have", len(b)).
			WithDetail("need", MinChunkSize)
	}

	length := binary.BigEndian.Uint32(b[0:lengthSize])

	var typeBytes [4]byte
	copy(typeBytes[:], b[lengthSize:lengthSize+typeSize])
	chunkType, err := NewChunkType(typeBytes)
	if err != nil {
		return nil, err
	}
	if !chunkType.IsValid() {
		return nil, pngerrors.ErrInvalidChunkType.WithDetail("chunkType", chunkType.String())
	}

	need := uint64(MinChunkSize) + uint64(length)
	if uint64(len(b)) < need {
		return nil, pngerrors.ErrBufferTooShort.
			WithDetail("chunkType", chunkType.String()).
			WithDetail("have", len(b)).
			WithDetail("need", need)
	}

	dataStart := lengthSize + typeSize
	dataEnd := dataStart + int(length)
	data := append([]byte(nil), b[dataStart:dataEnd]...)

	stored := binary.BigEndian.Uint32(b[dataEnd : dataEnd+crcSize])
	computed := checksum(chunkType, data)
	if stored != computed {
		return nil, pngerrors.ErrCrcMismatch.
			WithDetail("chunkType", chunkType.String()).
			WithDetail("stored", fmt.Sprintf("%08x", stored)).
			WithDetail("computed", fmt.Sprintf("%08x", computed))
	}

	return &Chunk{
		length:    length,
		chunkType: chunkType,
		data:      data,
		crc:       computed,
	}, nil
}

// checksum is the PNG chunk CRC: CRC-32 (IEEE) over the type code and payload.
func checksum(chunkType ChunkType, data []byte) uint32 {
	typeBytes := chunkType.Bytes()
	crc := crc32.Update(0, crc32.IEEETable, typeBytes[:])
	return crc32.Update(crc, crc32.IEEETable, data)
}

// Length returns the payload length.
func (c *Chunk) Length() uint32 {
	return c.length
}

func (c *Chunk) Type() ChunkType {
	return c.chunkType
}

// Data returns a copy of the payload.
func (c *Chunk) Data() []byte {
	return append([]byte(nil), c.data...)
}

func (c *Chunk) CRC() uint32 {
	return c.crc
}

// EncodedLen is the number of bytes the chunk occupies on the wire.
func (c *Chunk) EncodedLen() int {
	return MinChunkSize + int(c.length)
}

// DataAsString returns the payload as text. It fails if the payload is not
// valid UTF-8.
func (c *Chunk) DataAsString() (string, error) {
	if !utf8.Valid(c.data) {
		return "", pngerrors.ErrInvalidEncoding.WithDetail("chunkType", c.chunkType.String())
	}
	return string(c.data), nil
}

// Bytes returns the wire encoding of the chunk.
func (c *Chunk) Bytes() []byte {
	b := make([]byte, 0, c.EncodedLen())
	return c.appendTo(b)
}

func (c *Chunk) appendTo(b []byte) []byte {
	typeBytes := c.chunkType.Bytes()
	b = binary.BigEndian.AppendUint32(b, c.length)
	b = append(b, typeBytes[:]...)
	b = append(b, c.data...)
	return binary.BigEndian.AppendUint32(b, c.crc)
}

// WriteTo writes the wire encoding of the chunk to w.
func (c *Chunk) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Bytes())
	return int64(n), err
}

func (c *Chunk) String() string {
	var sb strings.Builder
	sb.WriteString("Chunk {\n")
	fmt.Fprintf(&sb, "  length: %d\n", c.length)
	fmt.Fprintf(&sb, "  chunk_type: %s\n", c.chunkType.Quoted())
	fmt.Fprintf(&sb, "  data: %d bytes\n", len(c.data))
	fmt.Fprintf(&sb, "  crc: %08x\n", c.crc)
	sb.WriteString("}")
	return sb.String()
}
