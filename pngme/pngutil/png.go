package pngutil

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
)

// Signature is the fixed 8-byte prefix of every PNG file.
var Signature = [8]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// Png is a PNG file viewed as its signature and an ordered list of chunks.
// Chunk order is kept exactly as parsed or appended.
type Png struct {
	chunks []*Chunk
}

// FromChunks builds a Png holding chunks in the given order.
func FromChunks(chunks []*Chunk) *Png {
	return &Png{chunks: append([]*Chunk(nil), chunks...)}
}

// Parse decodes a complete PNG file. Every chunk must be well formed and
// every byte after the signature must belong to a chunk.
func Parse(b []byte) (*Png, error) {
	if len(b) < len(Signature) || !bytes.Equal(b[:len(Signature)], Signature[:]) {
		n := len(b)
		if n > len(Signature) {
			n = len(Signature)
		}
		return nil, pngerrors.ErrBadSignature.WithDetail("header", fmt.Sprintf("%x", b[:n]))
	}

	var chunks []*Chunk
	offset := len(Signature)
	for offset < len(b) {
		c, err := ParseChunk(b[offset:])
		if err != nil {
			return nil, annotate(err, len(chunks), offset)
		}
		chunks = append(chunks, c)
		offset += c.EncodedLen()
	}

	return &Png{chunks: chunks}, nil
}

// annotate records where in the file a chunk failed to parse.
func annotate(err error, index, offset int) error {
	pngErr, ok := err.(*pngerrors.PngError)
	if !ok {
		return err
	}
	return pngErr.WithDetail("chunkIndex", index).WithDetail("offset", offset)
}

// Header returns the PNG signature.
func (p *Png) Header() [8]byte {
	return Signature
}

// Chunks returns the chunks in file order. The returned slice is a copy.
func (p *Png) Chunks() []*Chunk {
	return append([]*Chunk(nil), p.chunks...)
}

func (p *Png) Len() int {
	return len(p.chunks)
}

// AppendChunk adds c after the last chunk. No placement rules are applied, so
// appending after IEND is allowed.
func (p *Png) AppendChunk(c *Chunk) {
	p.chunks = append(p.chunks, c)
}

// ChunkByType returns the first chunk whose type equals chunkType exactly.
func (p *Png) ChunkByType(chunkType string) (*Chunk, error) {
	i := p.indexOf(chunkType)
	if i < 0 {
		return nil, pngerrors.ErrChunkNotFound.WithDetail("chunkType", chunkType)
	}
	return p.chunks[i], nil
}

// RemoveFirstChunk removes and returns the first chunk of the given type.
// The chunk list is unchanged when no chunk matches.
func (p *Png) RemoveFirstChunk(chunkType string) (*Chunk, error) {
	i := p.indexOf(chunkType)
	if i < 0 {
		return nil, pngerrors.ErrChunkNotFound.WithDetail("chunkType", chunkType)
	}
	c := p.chunks[i]
	p.chunks = append(p.chunks[:i:i], p.chunks[i+1:]...)
	return c, nil
}

// RemoveAllChunks removes every chunk of the given type and returns them in
// file order.
func (p *Png) RemoveAllChunks(chunkType string) ([]*Chunk, error) {
	var removed []*Chunk
	kept := make([]*Chunk, 0, len(p.chunks))
	for _, c := range p.chunks {
		if c.Type().String() == chunkType {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	if len(removed) == 0 {
		return nil, pngerrors.ErrChunkNotFound.WithDetail("chunkType", chunkType)
	}
	p.chunks = kept
	return removed, nil
}

func (p *Png) indexOf(chunkType string) int {
	for i, c := range p.chunks {
		if c.Type().String() == chunkType {
			return i
		}
	}
	return -1
}

// Bytes returns the complete file: signature followed by every chunk.
func (p *Png) Bytes() []byte {
	size := len(Signature)
	for _, c := range p.chunks {
		size += c.EncodedLen()
	}

	b := make([]byte, 0, size)
	b = append(b, Signature[:]...)
	for _, c := range p.chunks {
		b = c.appendTo(b)
	}
	return b
}

// WriteTo writes the complete file to w.
func (p *Png) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}

func (p *Png) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PNG signature: %x (valid)\n", Signature[:])
	fmt.Fprintf(&sb, "Chunks: %d\n", len(p.chunks))
	for i, c := range p.chunks {
		fmt.Fprintf(&sb, "  [%d] type=%s length=%d data=%d bytes crc=%08x\n",
			i, c.Type().Quoted(), c.Length(), len(c.data), c.CRC())
	}
	return sb.String()
}
