package manifest

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/SirWaddles/wickdl/wickerr"
)

// textChunkPart is the wire shape of one ChunkPart in the text/int-blob
// dialect: PascalCase field names, numeric fields as int-blob strings.
type textChunkPart struct {
	Guid   string `json:"Guid"`
	Offset string `json:"Offset"`
	Size   string `json:"Size"`
}

type textFileManifest struct {
	Filename       string          `json:"Filename"`
	FileHash       string          `json:"FileHash"`
	FileTags       []string        `json:"FileTags"`
	FileChunkParts []textChunkPart `json:"FileChunkParts"`
}

// textManifest is the wire shape of the whole text-dialect build manifest,
// modelled on the PascalCase JSON format used by older builds: per-file
// chunk-part lists, plus three parallel GUID-keyed maps carrying the
// per-chunk rolling hash, data group, and size that the binary dialect
// instead stores inline on each ChunkInfo.
type textManifest struct {
	AppNameString      string            `json:"AppNameString"`
	BuildVersionString string            `json:"BuildVersionString"`
	FileManifestList   []textFileManifest `json:"FileManifestList"`
	ChunkHashList      map[string]string `json:"ChunkHashList"`
	DataGroupList      map[string]string `json:"DataGroupList"`
	ChunkFilesizeList  map[string]string `json:"ChunkFilesizeList"`
}

func parseTextManifest(body []byte) (*BuildManifest, error) {
	var wire textManifest
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, wickerr.Wrap(wickerr.KindParse, err, "decoding text manifest").WithContext(body)
	}

	chunks := make(map[uuid.UUID]ChunkInfo, len(wire.DataGroupList))
	for guidHex, dataGroup := range wire.DataGroupList {
		id, err := parseGUIDHex(guidHex)
		if err != nil {
			return nil, wickerr.Wrap(wickerr.KindParse, err, "parsing chunk GUID %q", guidHex)
		}

		var rollingHash uint64
		if hashBlob, ok := wire.ChunkHashList[guidHex]; ok {
			rollingHash, err = decodeIntBlobU64(hashBlob)
			if err != nil {
				return nil, err
			}
		}

		var size uint64
		if sizeBlob, ok := wire.ChunkFilesizeList[guidHex]; ok {
			size, err = decodeIntBlobU64(sizeBlob)
			if err != nil {
				return nil, err
			}
		}

		chunks[id] = ChunkInfo{
			GUID:        id,
			RollingHash: rollingHash,
			Size:        size,
			DataGroup:   dataGroup,
		}
	}

	files := make([]FileEntry, 0, len(wire.FileManifestList))
	for _, wf := range wire.FileManifestList {
		parts := make([]ChunkPart, 0, len(wf.FileChunkParts))
		for _, wp := range wf.FileChunkParts {
			id, err := parseGUIDHex(wp.Guid)
			if err != nil {
				return nil, wickerr.Wrap(wickerr.KindParse, err, "parsing chunk part GUID %q", wp.Guid)
			}
			offset, err := decodeIntBlobU32(wp.Offset)
			if err != nil {
				return nil, err
			}
			size, err := decodeIntBlobU32(wp.Size)
			if err != nil {
				return nil, err
			}
			parts = append(parts, ChunkPart{GUID: id, Offset: offset, Size: size})
		}

		files = append(files, FileEntry{
			Filename: wf.Filename,
			Tags:     wf.FileTags,
			Parts:    parts,
		})
	}

	return &BuildManifest{
		AppName:      wire.AppNameString,
		BuildVersion: wire.BuildVersionString,
		Dialect:      DialectText,
		Files:        files,
		chunks:       chunks,
	}, nil
}

// parseGUIDHex parses a 32-character upper/lower hex string (no dashes, the
// on-wire form used by both manifest dialects) into a uuid.UUID.
func parseGUIDHex(s string) (uuid.UUID, error) {
	if len(s) != 32 {
		return uuid.UUID{}, wickerr.New(wickerr.KindParse, "GUID %q is not 32 hex characters", s)
	}
	var id uuid.UUID
	for i := 0; i < 16; i++ {
		b, err := hexByte(s[i*2], s[i*2+1])
		if err != nil {
			return uuid.UUID{}, wickerr.Wrap(wickerr.KindParse, err, "GUID %q has invalid hex digit", s)
		}
		id[i] = b
	}
	return id, nil
}

func hexByte(hi, lo byte) (byte, error) {
	h, err := hexNibble(hi)
	if err != nil {
		return 0, err
	}
	l, err := hexNibble(lo)
	if err != nil {
		return 0, err
	}
	return h<<4 | l, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, wickerr.New(wickerr.KindParse, "invalid hex digit %q", string(c))
	}
}
