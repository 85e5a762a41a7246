package storage

import (
	"context"
	"os"
	"path/filepath"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
	"github.com/flaneur2020/pngme/pngme/logger"
	"github.com/opencontainers/go-digest"
)

// LocalStorage reads and writes files on the local filesystem.
type LocalStorage struct {
	perm os.FileMode
}

// NewLocalStorage creates a LocalStorage that creates new files with mode 0644.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{perm: 0644}
}

func (s *LocalStorage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageError("read", path, err)
	}

	logger.Debug("Reading %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, storageError("read", path, err)
	}
	return data, nil
}

// WriteFile replaces path with data. The data is written to a temporary file
// in the same directory and renamed into place, so readers never observe a
// half-written PNG.
func (s *LocalStorage) WriteFile(ctx context.Context, path string, data []byte) (FileDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return FileDescriptor{}, storageError("write", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return FileDescriptor{}, storageError("write", path, err)
	}

	perm := s.perm
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return FileDescriptor{}, storageError("write", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return FileDescriptor{}, storageError("write", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return FileDescriptor{}, storageError("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		return FileDescriptor{}, storageError("write", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return FileDescriptor{}, storageError("write", path, err)
	}

	desc := FileDescriptor{
		Path:   path,
		Digest: digest.FromBytes(data),
		Size:   int64(len(data)),
	}
	logger.Debug("Wrote %s (%d bytes, %s)", path, desc.Size, desc.Digest)
	return desc, nil
}

func (s *LocalStorage) Stat(ctx context.Context, path string) (FileDescriptor, error) {
	data, err := s.ReadFile(ctx, path)
	if err != nil {
		return FileDescriptor{}, err
	}
	return FileDescriptor{
		Path:   path,
		Digest: digest.FromBytes(data),
		Size:   int64(len(data)),
	}, nil
}

func storageError(op, path string, cause error) error {
	return pngerrors.ErrStorage.
		WithDetail("op", op).
		WithDetail("path", path).
		WithCause(cause)
}
