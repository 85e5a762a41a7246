package pngme

import (
	"bytes"
	"io"
	"unicode/utf8"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
	"github.com/flaneur2020/pngme/pngme/pngutil"
	"github.com/klauspost/compress/zlib"
)

// EncodeMessage turns a message into a chunk payload, zlib-compressing it
// when compress is set.
func EncodeMessage(msg string, compress bool) ([]byte, error) {
	if !compress {
		return []byte(msg), nil
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, pngerrors.ErrMessageCodec.WithCause(err)
	}
	if _, err := io.WriteString(zw, msg); err != nil {
		zw.Close()
		return nil, pngerrors.ErrMessageCodec.WithCause(err)
	}
	if err := zw.Close(); err != nil {
		return nil, pngerrors.ErrMessageCodec.WithCause(err)
	}
	return buf.Bytes(), nil
}

// DecodeMessage recovers the message stored in c.
func DecodeMessage(c *pngutil.Chunk, compressed bool) (string, error) {
	if !compressed {
		return c.DataAsString()
	}

	zr, err := zlib.NewReader(bytes.NewReader(c.Data()))
	if err != nil {
		return "", pngerrors.ErrMessageCodec.
			WithDetail("chunkType", c.Type().String()).
			WithCause(err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return "", pngerrors.ErrMessageCodec.
			WithDetail("chunkType", c.Type().String()).
			WithCause(err)
	}
	if !utf8.Valid(raw) {
		return "", pngerrors.ErrInvalidEncoding.WithDetail("chunkType", c.Type().String())
	}
	return string(raw), nil
}
