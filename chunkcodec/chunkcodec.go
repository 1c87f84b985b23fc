// Package chunkcodec decodes the wire format of a single downloaded chunk
// object: a fixed header followed by a raw or zlib-compressed payload, from
// which a ChunkPart's requested byte window is sliced.
package chunkcodec

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/SirWaddles/wickdl/manifest"
	"github.com/SirWaddles/wickdl/wickerr"
)

const (
	headerFixedSize = 4 + 4 + 4 + 4 + 16 + 8 + 1 + 20 + 1 // magic..hashType
	storedCompressed = 0x01
)

// header is the fixed-size prefix of a chunk object. Magic is read but
// never validated: some producers stamp build-specific values into it, and
// nothing downstream depends on its contents.
type header struct {
	magic      uint32
	version    uint32
	size       uint32 // offset, from the start of the chunk, where payload begins
	dataSize   uint32 // length of the (possibly compressed) payload on disk
	guid       [16]byte
	rollingHash uint64
	stored     uint8
	sha1       [20]byte
	hashType   uint8
}

func parseHeader(raw []byte) (header, error) {
	if len(raw) < headerFixedSize {
		return header{}, wickerr.New(wickerr.KindCorrupt, "chunk too short for header: %d bytes", len(raw))
	}

	var h header
	le := binary.LittleEndian
	off := 0
	h.magic = le.Uint32(raw[off:])
	off += 4
	h.version = le.Uint32(raw[off:])
	off += 4
	h.size = le.Uint32(raw[off:])
	off += 4
	h.dataSize = le.Uint32(raw[off:])
	off += 4
	copy(h.guid[:], raw[off:off+16])
	off += 16
	h.rollingHash = le.Uint64(raw[off:])
	off += 8
	h.stored = raw[off]
	off++
	copy(h.sha1[:], raw[off:off+20])
	off += 20
	h.hashType = raw[off]

	return h, nil
}

// Decode parses a raw chunk object and returns the decompressed bytes for
// the window described by part.
func Decode(raw []byte, part manifest.ChunkPart) ([]byte, error) {
	h, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}

	start := int(h.size)
	end := start + int(h.dataSize)
	if start < 0 || end < start || end > len(raw) {
		return nil, wickerr.New(wickerr.KindCorrupt, "chunk payload [%d:%d] exceeds object length %d", start, end, len(raw))
	}
	payload := raw[start:end]

	var decoded []byte
	if h.stored&storedCompressed != 0 {
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, wickerr.Wrap(wickerr.KindCorrupt, err, "opening zlib stream for chunk")
		}
		defer zr.Close()
		decoded, err = io.ReadAll(zr)
		if err != nil {
			return nil, wickerr.Wrap(wickerr.KindCorrupt, err, "inflating chunk payload")
		}
	} else {
		decoded = payload
	}

	lo := int(part.Offset)
	hi := lo + int(part.Size)
	if lo < 0 || hi < lo || hi > len(decoded) {
		return nil, wickerr.New(wickerr.KindCorrupt, "chunk part [%d:%d] exceeds decoded length %d", lo, hi, len(decoded))
	}

	out := make([]byte, part.Size)
	copy(out, decoded[lo:hi])
	return out, nil
}
