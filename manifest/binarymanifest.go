package manifest

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/google/uuid"

	"github.com/SirWaddles/wickdl/wickerr"
)

// The binary dialect is a length-prefixed form: every variable-length
// field (strings, repeated sections) is preceded by a uint32 count/byte
// length. All integers are little-endian. This module owns both the
// encoder and decoder for it — there is no dependency on an external
// manifest-parsing library in this repo's domain, unlike the upstream
// project this spec was distilled from, which delegated to one.

const binaryManifestMagic = 0x57_49_43_4B // "WICK"

func parseBinaryManifest(body []byte) (*BuildManifest, error) {
	r := bytes.NewReader(body)

	var magic, version uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, wickerr.Wrap(wickerr.KindParse, err, "reading binary manifest magic")
	}
	if magic != binaryManifestMagic {
		return nil, wickerr.New(wickerr.KindParse, "binary manifest has unrecognized magic 0x%08X", magic)
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, wickerr.Wrap(wickerr.KindParse, err, "reading binary manifest version")
	}

	appName, err := readString(r)
	if err != nil {
		return nil, err
	}
	buildVersion, err := readString(r)
	if err != nil {
		return nil, err
	}

	var chunkCount uint32
	if err := binary.Read(r, binary.LittleEndian, &chunkCount); err != nil {
		return nil, wickerr.Wrap(wickerr.KindParse, err, "reading chunk count")
	}

	chunks := make(map[uuid.UUID]ChunkInfo, chunkCount)
	for i := uint32(0); i < chunkCount; i++ {
		var id uuid.UUID
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return nil, wickerr.Wrap(wickerr.KindParse, err, "reading chunk %d GUID", i)
		}
		var group uint8
		if err := binary.Read(r, binary.LittleEndian, &group); err != nil {
			return nil, wickerr.Wrap(wickerr.KindParse, err, "reading chunk %d group", i)
		}
		var rollingHash, size uint64
		if err := binary.Read(r, binary.LittleEndian, &rollingHash); err != nil {
			return nil, wickerr.Wrap(wickerr.KindParse, err, "reading chunk %d rolling hash", i)
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, wickerr.Wrap(wickerr.KindParse, err, "reading chunk %d size", i)
		}
		var sha1 [20]byte
		if _, err := io.ReadFull(r, sha1[:]); err != nil {
			return nil, wickerr.Wrap(wickerr.KindParse, err, "reading chunk %d SHA-1", i)
		}

		chunks[id] = ChunkInfo{
			GUID:        id,
			Group:       group,
			RollingHash: rollingHash,
			Size:        size,
			SHA1:        sha1,
		}
	}

	var fileCount uint32
	if err := binary.Read(r, binary.LittleEndian, &fileCount); err != nil {
		return nil, wickerr.Wrap(wickerr.KindParse, err, "reading file count")
	}

	files := make([]FileEntry, 0, fileCount)
	for i := uint32(0); i < fileCount; i++ {
		filename, err := readString(r)
		if err != nil {
			return nil, err
		}
		var fileHash [20]byte
		if _, err := io.ReadFull(r, fileHash[:]); err != nil {
			return nil, wickerr.Wrap(wickerr.KindParse, err, "reading file %d hash", i)
		}

		var tagCount uint32
		if err := binary.Read(r, binary.LittleEndian, &tagCount); err != nil {
			return nil, wickerr.Wrap(wickerr.KindParse, err, "reading file %d tag count", i)
		}
		tags := make([]string, 0, tagCount)
		for t := uint32(0); t < tagCount; t++ {
			tag, err := readString(r)
			if err != nil {
				return nil, err
			}
			tags = append(tags, tag)
		}

		var partCount uint32
		if err := binary.Read(r, binary.LittleEndian, &partCount); err != nil {
			return nil, wickerr.Wrap(wickerr.KindParse, err, "reading file %d part count", i)
		}
		parts := make([]ChunkPart, 0, partCount)
		for p := uint32(0); p < partCount; p++ {
			var guid uuid.UUID
			if _, err := io.ReadFull(r, guid[:]); err != nil {
				return nil, wickerr.Wrap(wickerr.KindParse, err, "reading file %d part %d GUID", i, p)
			}
			var offset, size uint32
			if err := binary.Read(r, binary.LittleEndian, &offset); err != nil {
				return nil, wickerr.Wrap(wickerr.KindParse, err, "reading file %d part %d offset", i, p)
			}
			if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
				return nil, wickerr.Wrap(wickerr.KindParse, err, "reading file %d part %d size", i, p)
			}
			parts = append(parts, ChunkPart{GUID: guid, Offset: offset, Size: size})
		}

		files = append(files, FileEntry{
			Filename: filename,
			FileHash: fileHash,
			Tags:     tags,
			Parts:    parts,
		})
	}

	return &BuildManifest{
		AppName:      appName,
		BuildVersion: buildVersion,
		Dialect:      DialectBinary,
		Files:        files,
		chunks:       chunks,
	}, nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", wickerr.Wrap(wickerr.KindParse, err, "reading string length")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", wickerr.Wrap(wickerr.KindParse, err, "reading string body")
	}
	return string(buf), nil
}

// EncodeBinaryManifest serializes a BuildManifest back into the binary
// dialect's wire form. It exists primarily for tests exercising the
// roundtrip, and for offline fixture generation.
func EncodeBinaryManifest(m *BuildManifest) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(binaryManifestMagic))
	binary.Write(&buf, binary.LittleEndian, uint32(1))
	writeString(&buf, m.AppName)
	writeString(&buf, m.BuildVersion)

	binary.Write(&buf, binary.LittleEndian, uint32(len(m.chunks)))
	for id, info := range m.chunks {
		buf.Write(id[:])
		binary.Write(&buf, binary.LittleEndian, info.Group)
		binary.Write(&buf, binary.LittleEndian, info.RollingHash)
		binary.Write(&buf, binary.LittleEndian, info.Size)
		buf.Write(info.SHA1[:])
	}

	binary.Write(&buf, binary.LittleEndian, uint32(len(m.Files)))
	for _, f := range m.Files {
		writeString(&buf, f.Filename)
		buf.Write(f.FileHash[:])
		binary.Write(&buf, binary.LittleEndian, uint32(len(f.Tags)))
		for _, tag := range f.Tags {
			writeString(&buf, tag)
		}
		binary.Write(&buf, binary.LittleEndian, uint32(len(f.Parts)))
		for _, p := range f.Parts {
			buf.Write(p.GUID[:])
			binary.Write(&buf, binary.LittleEndian, p.Offset)
			binary.Write(&buf, binary.LittleEndian, p.Size)
		}
	}

	return buf.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint32(len(s)))
	buf.WriteString(s)
}

// NewBuildManifest constructs a BuildManifest from parts, for tests and for
// service.FromManifests when the caller has already materialized the
// model rather than raw bytes.
func NewBuildManifest(appName, buildVersion string, dialect Dialect, files []FileEntry, chunks map[uuid.UUID]ChunkInfo) *BuildManifest {
	return &BuildManifest{
		AppName:      appName,
		BuildVersion: buildVersion,
		Dialect:      dialect,
		Files:        files,
		chunks:       chunks,
	}
}
