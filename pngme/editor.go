package pngme

import (
	"context"
	"fmt"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
	"github.com/flaneur2020/pngme/pngme/logger"
	"github.com/flaneur2020/pngme/pngme/pngutil"
	"github.com/flaneur2020/pngme/pngme/storage"
)

// EncodeRequest describes a message to hide in a PNG file.
type EncodeRequest struct {
	Path      string
	ChunkType string
	Message   string
	// Output is where the modified file is written. When empty the file is
	// written back to Path if InPlace is set, and not written at all otherwise.
	Output   string
	InPlace  bool
	Compress bool
}

// Editor implements the pngme commands on top of a Storage.
type Editor interface {
	Encode(ctx context.Context, req EncodeRequest) (*pngutil.Png, error)
	Decode(ctx context.Context, path string, chunkType string, compressed bool) (string, error)
	// Remove deletes the first chunk of the given type, or every such chunk
	// when all is set, and writes the file back.
	Remove(ctx context.Context, path string, chunkType string, all bool) ([]*pngutil.Chunk, error)
	Print(ctx context.Context, path string) (string, error)
}

type editor struct {
	storage storage.Storage
}

func NewEditor(s storage.Storage) Editor {
	return &editor{storage: s}
}

func (e *editor) load(ctx context.Context, path string) (*pngutil.Png, error) {
	data, err := e.storage.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	png, err := pngutil.Parse(data)
	if err != nil {
		logger.Debug("Failed to parse %s: %v", path, err)
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	logger.Debug("Parsed %s: %d chunks", path, png.Len())
	return png, nil
}

func (e *editor) Encode(ctx context.Context, req EncodeRequest) (*pngutil.Png, error) {
	chunkType, err := pngutil.ParseChunkType(req.ChunkType)
	if err != nil {
		return nil, err
	}
	// Parse rejects reserved-bit types; never write a file we cannot reopen
	if !chunkType.IsValid() {
		return nil, pngerrors.ErrInvalidChunkType.WithDetail("chunkType", req.ChunkType)
	}

	png, err := e.load(ctx, req.Path)
	if err != nil {
		return nil, err
	}

	payload, err := EncodeMessage(req.Message, req.Compress)
	if err != nil {
		return nil, err
	}
	chunk, err := pngutil.NewChunk(chunkType, payload)
	if err != nil {
		return nil, err
	}
	png.AppendChunk(chunk)
	logger.Info("Appended %s chunk (%d bytes) to %s", chunkType, chunk.Length(), req.Path)

	output := req.Output
	if output == "" && req.InPlace {
		output = req.Path
	}
	if output == "" {
		return png, nil
	}

	desc, err := e.storage.WriteFile(ctx, output, png.Bytes())
	if err != nil {
		return nil, err
	}
	logger.Info("Wrote %s (%d bytes, %s)", desc.Path, desc.Size, desc.Digest)
	return png, nil
}

func (e *editor) Decode(ctx context.Context, path string, chunkType string, compressed bool) (string, error) {
	if _, err := pngutil.ParseChunkType(chunkType); err != nil {
		return "", err
	}

	png, err := e.load(ctx, path)
	if err != nil {
		return "", err
	}

	chunk, err := png.ChunkByType(chunkType)
	if err != nil {
		return "", err
	}
	return DecodeMessage(chunk, compressed)
}

func (e *editor) Remove(ctx context.Context, path string, chunkType string, all bool) ([]*pngutil.Chunk, error) {
	if _, err := pngutil.ParseChunkType(chunkType); err != nil {
		return nil, err
	}

	png, err := e.load(ctx, path)
	if err != nil {
		return nil, err
	}

	var removed []*pngutil.Chunk
	if all {
		removed, err = png.RemoveAllChunks(chunkType)
	} else {
		var c *pngutil.Chunk
		c, err = png.RemoveFirstChunk(chunkType)
		removed = []*pngutil.Chunk{c}
	}
	if err != nil {
		return nil, err
	}

	if _, err := e.storage.WriteFile(ctx, path, png.Bytes()); err != nil {
		return nil, err
	}
	logger.Info("Removed %d %s chunk(s) from %s", len(removed), chunkType, path)
	return removed, nil
}

func (e *editor) Print(ctx context.Context, path string) (string, error) {
	desc, err := e.storage.Stat(ctx, path)
	if err != nil {
		return "", err
	}

	png, err := e.load(ctx, path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("File: %s (%d bytes, %s)\n%s", desc.Path, desc.Size, desc.Digest, png), nil
}
