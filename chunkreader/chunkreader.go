// Package chunkreader provides random-access reading of a file whose bytes
// are served on demand from content-addressed chunks, without downloading
// the whole file first.
package chunkreader

import (
	"context"
	"io"

	"github.com/SirWaddles/wickdl/chunkcodec"
	"github.com/SirWaddles/wickdl/httpclient"
	"github.com/SirWaddles/wickdl/manifest"
	"github.com/SirWaddles/wickdl/wickerr"
)

// Plan is the immutable, ordered list of chunk windows composing a file,
// shared by a Reader and any Reset copy of it.
type Plan struct {
	Downloads []planEntry
	TotalSize int64
}

type planEntry struct {
	filePosition int64
	length       int64
	url          string
	part         manifest.ChunkPart
}

// BuildPlan derives a Plan from a file's ChunkParts and the round-robin
// distribution list, the same tiling rule the downloader's planning pass
// uses.
func BuildPlan(m *manifest.BuildManifest, file manifest.FileEntry, distributions []string) (*Plan, error) {
	entries := make([]planEntry, 0, len(file.Parts))
	var pos int64

	for i, part := range file.Parts {
		chunkPath, err := m.ChunkURL(part)
		if err != nil {
			return nil, err
		}
		dist := distributions[i%len(distributions)]

		entries = append(entries, planEntry{
			filePosition: pos,
			length:       int64(part.Size),
			url:          dist + chunkPath,
			part:         part,
		})
		pos += int64(part.Size)
	}

	return &Plan{Downloads: entries, TotalSize: pos}, nil
}

type fetchResult struct {
	data []byte
	err  error
}

type decodedChunk struct {
	entry int
	data  []byte
}

// Reader is an io.ReadSeeker over a Plan. Exactly one chunk is resident or
// being fetched at a time; seeking within the currently resident chunk
// never triggers a new fetch.
type Reader struct {
	ctx    context.Context
	cancel context.CancelFunc
	client *httpclient.Client
	plan   *Plan

	position int64

	// pending is non-nil while a fetch is outstanding ("resolving"); it
	// yields exactly one fetchResult. current is non-nil while a decoded
	// chunk is resident ("idle"). The two are mutually exclusive.
	pending <-chan fetchResult
	current *decodedChunk
}

// New constructs a Reader positioned at the start of the file.
func New(ctx context.Context, client *httpclient.Client, plan *Plan) *Reader {
	rctx, cancel := context.WithCancel(ctx)
	return &Reader{ctx: rctx, cancel: cancel, client: client, plan: plan}
}

// Reset returns a fresh Reader sharing the same immutable plan, positioned
// at the start. Any in-flight fetch on the receiver is abandoned.
func (r *Reader) Reset() *Reader {
	return New(r.ctx, r.client, r.plan)
}

// Close abandons any in-flight fetch. It does not block waiting for the
// fetch goroutine to observe cancellation.
func (r *Reader) Close() error {
	r.cancel()
	r.pending = nil
	r.current = nil
	return nil
}

// Read implements io.Reader, fetching and decoding chunks on demand.
func (r *Reader) Read(p []byte) (int, error) {
	if r.position >= r.plan.TotalSize {
		return 0, io.EOF
	}

	idx, offsetInChunk := r.locate(r.position)
	if r.current == nil || r.current.entry != idx {
		data, err := r.resolve(idx)
		if err != nil {
			return 0, err
		}
		r.current = &decodedChunk{entry: idx, data: data}
	}

	n := copy(p, r.current.data[offsetInChunk:])
	r.position += int64(n)
	return n, nil
}

// resolve fetches and decodes the chunk at plan index idx, blocking until
// the result is available. It drives the pending/current state machine:
// a goroutine performs the HTTP GET and decode and sends exactly one
// result.
func (r *Reader) resolve(idx int) ([]byte, error) {
	entry := r.plan.Downloads[idx]
	result := make(chan fetchResult, 1)
	r.pending = result

	go func() {
		raw, err := r.client.Get(r.ctx, entry.url, nil)
		if err != nil {
			result <- fetchResult{err: err}
			return
		}
		payload, err := chunkcodec.Decode(raw, entry.part)
		result <- fetchResult{data: payload, err: err}
	}()

	res := <-r.pending
	r.pending = nil
	if res.err != nil {
		return nil, res.err
	}
	return res.data, nil
}

// locate returns the plan index and in-chunk offset for a file position.
func (r *Reader) locate(pos int64) (int, int64) {
	for i, e := range r.plan.Downloads {
		if pos < e.filePosition+e.length {
			return i, pos - e.filePosition
		}
	}
	last := len(r.plan.Downloads) - 1
	return last, r.plan.Downloads[last].length
}

// Seek implements io.Seeker. Seeking never itself triggers a fetch; the
// next Read resolves whichever chunk the new position falls in.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = r.position + offset
	case io.SeekEnd:
		newPos = r.plan.TotalSize + offset
	default:
		return 0, wickerr.New(wickerr.KindIO, "invalid whence %d", whence)
	}

	if newPos < 0 || newPos > r.plan.TotalSize {
		return 0, wickerr.New(wickerr.KindIO, "seek to %d out of range [0, %d]", newPos, r.plan.TotalSize)
	}

	r.position = newPos
	return r.position, nil
}
