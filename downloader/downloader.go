// Package downloader plans and executes the parallel, chunk-by-chunk
// download of one file to disk.
package downloader

import (
	"context"
	"os"

	"github.com/SirWaddles/wickdl/chunkcodec"
	"github.com/SirWaddles/wickdl/httpclient"
	"github.com/SirWaddles/wickdl/logger"
	"github.com/SirWaddles/wickdl/manifest"
	"github.com/SirWaddles/wickdl/spool"
)

// DefaultSpoolLimit is K, the bounded concurrency for chunk downloads.
const DefaultSpoolLimit = 20

// ChunkDownload is one planned chunk fetch-and-place operation.
type ChunkDownload struct {
	FilePosition  int64
	Length        int64
	URL           string
	Part          manifest.ChunkPart
	SequenceIndex int
}

// Plan tiles [0, total_size) with one ChunkDownload per ChunkPart, in
// order, assigning URLs round-robin across distributions.
func Plan(m *manifest.BuildManifest, file manifest.FileEntry, distributions []string) ([]ChunkDownload, int64, error) {
	plan := make([]ChunkDownload, 0, len(file.Parts))
	var filePosition int64

	for i, part := range file.Parts {
		chunkPath, err := m.ChunkURL(part)
		if err != nil {
			return nil, 0, err
		}
		dist := distributions[i%len(distributions)]

		plan = append(plan, ChunkDownload{
			FilePosition:  filePosition,
			Length:        int64(part.Size),
			URL:           dist + chunkPath,
			Part:          part,
			SequenceIndex: i,
		})
		filePosition += int64(part.Size)
	}

	return plan, filePosition, nil
}

type downloadResult struct {
	plan    ChunkDownload
	payload []byte
}

// Options configures a Download run.
type Options struct {
	SpoolLimit int

	// OnProgress, if set, is called on the writer goroutine after each
	// chunk is written to disk, with the number of bytes just written.
	OnProgress func(n int64)
}

// Download executes plan against targetPath: a bounded-concurrency
// producer fetches and decodes each chunk; a single writer goroutine
// preallocates the file and writes each arrival at its computed offset.
// Writes are disjoint and position-addressed, so no reassembly buffering
// is needed even though chunks may complete out of order.
func Download(ctx context.Context, client *httpclient.Client, plan []ChunkDownload, totalSize int64, targetPath string, opts Options) error {
	limit := opts.SpoolLimit
	if limit <= 0 {
		limit = DefaultSpoolLimit
	}

	results := make(chan downloadResult, len(plan))

	tasks := make([]func(context.Context) error, len(plan))
	for i, dl := range plan {
		dl := dl
		tasks[i] = func(ctx context.Context) error {
			raw, err := client.Get(ctx, dl.URL, nil)
			if err != nil {
				return err
			}
			payload, err := chunkcodec.Decode(raw, dl.Part)
			if err != nil {
				return err
			}
			results <- downloadResult{plan: dl, payload: payload}
			return nil
		}
	}

	errCh := make(chan error, 1)
	go func() {
		err := spool.Run(ctx, tasks, limit)
		close(results)
		errCh <- err
	}()

	writeErr := writeResults(targetPath, totalSize, results, opts.OnProgress)
	spoolErr := <-errCh

	if spoolErr != nil {
		return spoolErr
	}
	return writeErr
}

func writeResults(targetPath string, totalSize int64, results <-chan downloadResult, onProgress func(n int64)) error {
	f, err := os.Create(targetPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Truncate(totalSize); err != nil {
		return err
	}

	var written int64
	for r := range results {
		if _, err := f.WriteAt(r.payload, r.plan.FilePosition); err != nil {
			return err
		}
		written += int64(len(r.payload))
		logger.Debug("wrote chunk", "sequence", r.plan.SequenceIndex, "offset", r.plan.FilePosition, "size", len(r.payload))
		if onProgress != nil {
			onProgress(int64(len(r.payload)))
		}
	}

	logger.Info("download complete", "path", targetPath, "bytes", written)
	return nil
}
