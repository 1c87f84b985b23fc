package manifest

import (
	"strconv"

	"github.com/SirWaddles/wickdl/wickerr"
)

// The text manifest dialect encodes ChunkPart's numeric fields as
// "int-blobs": a string whose every 3 ASCII characters is the decimal,
// zero-padded representation of one little-endian byte. decodeIntBlobU32
// and decodeIntBlobU64 are the inverse of encodeIntBlob, used by tests to
// verify the roundtrip (§8 property 3).

const (
	maxIntBlobLenU32 = 12 // 4 bytes * 3 chars
	maxIntBlobLenU64 = 24 // 8 bytes * 3 chars
)

func decodeIntBlobBytes(s string, maxLen int) ([]byte, error) {
	if len(s) > maxLen {
		return nil, wickerr.New(wickerr.KindParse, "int-blob %q exceeds max length %d", s, maxLen)
	}
	if len(s)%3 != 0 {
		return nil, wickerr.New(wickerr.KindParse, "int-blob %q is not a multiple of 3 characters", s)
	}

	n := len(s) / 3
	bytes := make([]byte, n)
	for i := 0; i < n; i++ {
		chunk := s[i*3 : i*3+3]
		v, err := strconv.Atoi(chunk)
		if err != nil || v < 0 || v > 255 {
			return nil, wickerr.New(wickerr.KindParse, "int-blob byte %q out of range", chunk)
		}
		bytes[i] = byte(v)
	}
	return bytes, nil
}

// decodeIntBlobU32 decodes a little-endian int-blob string into a uint32.
// Strings shorter than 4 bytes are zero-extended on the high end.
func decodeIntBlobU32(s string) (uint32, error) {
	b, err := decodeIntBlobBytes(s, maxIntBlobLenU32)
	if err != nil {
		return 0, err
	}
	var v uint32
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint32(b[i])
	}
	return v, nil
}

// decodeIntBlobU64 decodes a little-endian int-blob string into a uint64.
func decodeIntBlobU64(s string) (uint64, error) {
	b, err := decodeIntBlobBytes(s, maxIntBlobLenU64)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

// encodeIntBlob encodes raw little-endian bytes as an int-blob string; used
// by tests to build fixtures and to verify the roundtrip property.
func encodeIntBlob(b []byte) string {
	out := make([]byte, 0, len(b)*3)
	for _, v := range b {
		s := strconv.Itoa(int(v))
		for len(s) < 3 {
			s = "0" + s
		}
		out = append(out, s...)
	}
	return string(out)
}
