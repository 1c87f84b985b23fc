// Package manifest parses the application descriptor and build manifest
// that together describe which chunks compose each file in a build, and
// resolves chunks to CDN URLs.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SirWaddles/wickdl/httpclient"
	"github.com/SirWaddles/wickdl/wickerr"
)

// ItemEntry describes one named item (notably "MANIFEST") inside an
// application descriptor: where to fetch it and how to authenticate the
// fetch.
type ItemEntry struct {
	Signature                string   `json:"signature"`
	DistributionPointBaseURL string   `json:"distribution"`
	Path                     string   `json:"path"`
	AdditionalDistributions  []string `json:"additionalDistributions"`
}

// Distributions returns the full, order-preserved list of CDN base URLs
// for this item: additional distributions first, then the primary one.
// Callers round-robin over this list by index.
func (e *ItemEntry) Distributions() []string {
	out := make([]string, 0, len(e.AdditionalDistributions)+1)
	out = append(out, e.AdditionalDistributions...)
	out = append(out, e.DistributionPointBaseURL)
	return out
}

// ApplicationDescriptor identifies a build and its distribution endpoints.
type ApplicationDescriptor struct {
	AppName   string               `json:"appName"`
	LabelName string               `json:"labelName"`
	BuildVersion string            `json:"buildVersion"`
	CatalogItemID string           `json:"catalogItemId"`
	Expires   string               `json:"expires"`
	Items     map[string]ItemEntry `json:"items"`
}

// Manifest looks up the "MANIFEST" item, the only one this module consumes.
func (d *ApplicationDescriptor) Manifest() (*ItemEntry, error) {
	item, ok := d.Items["MANIFEST"]
	if !ok {
		return nil, wickerr.New(wickerr.KindNotFound, `application descriptor missing "MANIFEST" item`)
	}
	if len(item.Distributions()) == 0 {
		return nil, wickerr.New(wickerr.KindNotFound, `"MANIFEST" item has no distribution URLs`)
	}
	return &item, nil
}

// FetchApplicationDescriptor issues the authenticated GET described in §6
// and parses the JSON response.
func FetchApplicationDescriptor(ctx context.Context, client *httpclient.Client, descriptorURL, accessToken string) (*ApplicationDescriptor, error) {
	body, err := client.Get(ctx, descriptorURL, map[string]string{
		"Authorization": "bearer " + accessToken,
	})
	if err != nil {
		return nil, err
	}

	var desc ApplicationDescriptor
	if err := json.Unmarshal(body, &desc); err != nil {
		return nil, wickerr.Wrap(wickerr.KindParse, err, "decoding application descriptor").WithContext(body)
	}

	return &desc, nil
}

// Dialect identifies which of the two manifest encodings a BuildManifest
// was parsed from, since chunk URL construction depends on it (§3's Open
// Question on ChunksV3 vs ChunksV4).
type Dialect int

const (
	// DialectBinary is the length-prefixed binary manifest form.
	DialectBinary Dialect = iota
	// DialectText is the int-blob-encoded PascalCase JSON form.
	DialectText
)

// ChunkInfo describes one content-addressed chunk object.
type ChunkInfo struct {
	GUID        uuid.UUID
	Group       uint8
	RollingHash uint64
	Size        uint64
	SHA1        [20]byte
	// DataGroup is the raw data-group string from the text dialect, used
	// only to derive the ChunksV3 directory (its last two characters).
	DataGroup string
}

// ChunkPart is a (chunk, offset, length) window into a chunk's decompressed
// payload. File bytes are the concatenation of parts in order.
type ChunkPart struct {
	GUID   uuid.UUID
	Offset uint32
	Size   uint32
}

// FileEntry is a logical file composed of an ordered list of ChunkParts.
type FileEntry struct {
	Filename string
	FileHash [20]byte
	Tags     []string
	Parts    []ChunkPart
}

// BuildManifest is the per-build catalogue of files and their chunk
// composition.
type BuildManifest struct {
	AppName      string
	BuildVersion string
	Dialect      Dialect

	Files  []FileEntry
	chunks map[uuid.UUID]ChunkInfo
}

// Chunk looks up a ChunkInfo by GUID.
func (m *BuildManifest) Chunk(id uuid.UUID) (ChunkInfo, error) {
	info, ok := m.chunks[id]
	if !ok {
		return ChunkInfo{}, wickerr.New(wickerr.KindNotFound, "chunk %s not found in manifest", formatGUID(id))
	}
	return info, nil
}

// FetchBuildManifest resolves the "MANIFEST" item's URL as
// distribution + path + "?" + signature, fetches it, and parses it into a
// BuildManifest, trying the binary dialect first and falling back to the
// text dialect (the two are distinguished by a magic byte, see
// decodeDialect).
func FetchBuildManifest(ctx context.Context, client *httpclient.Client, desc *ApplicationDescriptor) (*BuildManifest, error) {
	item, err := desc.Manifest()
	if err != nil {
		return nil, err
	}

	dists := item.Distributions()
	url := dists[len(dists)-1] + item.Path + "?" + item.Signature

	body, err := client.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	if looksLikeJSON(body) {
		return parseTextManifest(body)
	}
	return parseBinaryManifest(body)
}

func looksLikeJSON(body []byte) bool {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

// Suffixes returns a filter predicate matching filenames with the given
// prefix (forward-slash path) and any of the given extensions — the
// distilled spec's "*.pak under Fortnite/…" example.
func Suffixes(prefix string, exts ...string) func(string) bool {
	return func(name string) bool {
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			return false
		}
		for _, ext := range exts {
			if strings.HasSuffix(name, ext) {
				return true
			}
		}
		return false
	}
}

// FilterFiles returns a stable list of FileEntries whose filename satisfies
// predicate.
func (m *BuildManifest) FilterFiles(predicate func(string) bool) []FileEntry {
	var out []FileEntry
	for _, f := range m.Files {
		if predicate(f.Filename) {
			out = append(out, f)
		}
	}
	return out
}

func formatGUID(id uuid.UUID) string {
	return fmt.Sprintf("%X", id[:])
}
