package pngme

import (
	"context"
	"sync"

	"github.com/flaneur2020/pngme/pngme/logger"
	"golang.org/x/sync/errgroup"
)

// ProgressCallback is called after each file in a batch finishes
// current: files finished so far
// total: files in the batch
type ProgressCallback func(current int64, total int64)

// BatchJob is one file of a batch encode.
type BatchJob struct {
	Path       string
	OutputPath string
}

// BatchStats contains statistics about a batch encode
type BatchStats struct {
	TotalFiles   int
	EncodedFiles int
	FailedFiles  int
	TotalBytes   int64 // size of the written files
}

// BatchOptions controls a batch encode
type BatchOptions struct {
	ChunkType string
	Message   string
	Compress  bool
	// Jobs bounds how many files are processed at once; values below 1 mean 1.
	Jobs int
}

// BatchEncoder hides the same message in many files concurrently.
type BatchEncoder struct {
	editor Editor
}

func NewBatchEncoder(editor Editor) *BatchEncoder {
	return &BatchEncoder{editor: editor}
}

// Encode runs every job. A failing file is logged and counted without
// stopping the others; an error is returned only when no file succeeded.
func (b *BatchEncoder) Encode(ctx context.Context, jobs []*BatchJob, opts BatchOptions, progress ProgressCallback) (*BatchStats, error) {
	stats := &BatchStats{TotalFiles: len(jobs)}
	if len(jobs) == 0 {
		return stats, nil
	}

	limit := opts.Jobs
	if limit < 1 {
		limit = 1
	}

	var (
		mu       sync.Mutex
		done     int64
		firstErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			png, err := b.editor.Encode(gctx, EncodeRequest{
				Path:      job.Path,
				ChunkType: opts.ChunkType,
				Message:   opts.Message,
				Output:    job.OutputPath,
				Compress:  opts.Compress,
			})

			mu.Lock()
			defer mu.Unlock()

			done++
			if err != nil {
				logger.Warn("Failed to encode %s: %v", job.Path, err)
				stats.FailedFiles++
				if firstErr == nil {
					firstErr = err
				}
			} else {
				stats.EncodedFiles++
				stats.TotalBytes += int64(len(png.Bytes()))
			}
			if progress != nil {
				progress(done, int64(len(jobs)))
			}
			// a non-nil error here would cancel the remaining files
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}

	if stats.EncodedFiles == 0 {
		return stats, firstErr
	}
	return stats, nil
}
