package storage

import (
	"context"

	"github.com/opencontainers/go-digest"
)

// FileDescriptor describes a file available from storage.
type FileDescriptor struct {
	Path   string
	Digest digest.Digest
	Size   int64
}

// Storage abstracts whole-file reads and writes.
type Storage interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) (FileDescriptor, error)
	Stat(ctx context.Context, path string) (FileDescriptor, error)
}
