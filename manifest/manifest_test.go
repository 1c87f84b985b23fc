package manifest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/SirWaddles/wickdl/httpclient"
	"github.com/SirWaddles/wickdl/wickerr"
)

func TestItemEntryDistributionsOrder(t *testing.T) {
	item := ItemEntry{
		DistributionPointBaseURL: "https://primary.example",
		AdditionalDistributions:  []string{"https://alt1.example", "https://alt2.example"},
	}

	got := item.Distributions()
	want := []string{"https://alt1.example", "https://alt2.example", "https://primary.example"}

	if len(got) != len(want) {
		t.Fatalf("Distributions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Distributions()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestApplicationDescriptorManifestMissing(t *testing.T) {
	desc := &ApplicationDescriptor{Items: map[string]ItemEntry{}}
	_, err := desc.Manifest()
	if !wickerr.Is(err, wickerr.KindNotFound) {
		t.Errorf("expected KindNotFound, got %v", err)
	}
}

func TestApplicationDescriptorManifestRequiresDistribution(t *testing.T) {
	desc := &ApplicationDescriptor{Items: map[string]ItemEntry{
		"MANIFEST": {},
	}}
	_, err := desc.Manifest()
	if !wickerr.Is(err, wickerr.KindNotFound) {
		t.Errorf("expected KindNotFound for empty distributions, got %v", err)
	}
}

func TestIntBlobRoundtripU32(t *testing.T) {
	values := []uint32{0, 1, 255, 256, 65535, 197121, 0xFFFFFFFF}
	for _, v := range values {
		b := []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
		blob := encodeIntBlob(b)

		got, err := decodeIntBlobU32(blob)
		if err != nil {
			t.Fatalf("decodeIntBlobU32(%q) error = %v", blob, err)
		}
		if got != v {
			t.Errorf("decodeIntBlobU32(%q) = %d, want %d", blob, got, v)
		}
	}
}

func TestIntBlobRoundtripU64(t *testing.T) {
	var v uint64 = 0x0102030405060708
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	blob := encodeIntBlob(b)

	got, err := decodeIntBlobU64(blob)
	if err != nil {
		t.Fatalf("decodeIntBlobU64(%q) error = %v", blob, err)
	}
	if got != v {
		t.Errorf("decodeIntBlobU64(%q) = %#x, want %#x", blob, got, v)
	}
}

func TestIntBlobScenarioS3(t *testing.T) {
	// "001,002,003" stripped of separators to "001002003" decodes as
	// u32 = 0x00030201 = 197121 (distilled spec §8, scenario S3).
	got, err := decodeIntBlobU32("001002003")
	if err != nil {
		t.Fatalf("decodeIntBlobU32() error = %v", err)
	}
	if got != 197121 {
		t.Errorf("decodeIntBlobU32(\"001002003\") = %d, want 197121", got)
	}
}

func TestIntBlobRejectsOverlength(t *testing.T) {
	tooLongU32 := encodeIntBlob(make([]byte, 5)) // 15 chars > 12
	if _, err := decodeIntBlobU32(tooLongU32); !wickerr.Is(err, wickerr.KindParse) {
		t.Errorf("expected KindParse for overlength u32 blob, got %v", err)
	}

	tooLongU64 := encodeIntBlob(make([]byte, 9)) // 27 chars > 24
	if _, err := decodeIntBlobU64(tooLongU64); !wickerr.Is(err, wickerr.KindParse) {
		t.Errorf("expected KindParse for overlength u64 blob, got %v", err)
	}
}

func TestParseGUIDHexRoundtrip(t *testing.T) {
	want := uuid.New()
	hex := formatGUID(want)

	got, err := parseGUIDHex(hex)
	if err != nil {
		t.Fatalf("parseGUIDHex(%q) error = %v", hex, err)
	}
	if got != want {
		t.Errorf("parseGUIDHex roundtrip = %v, want %v", got, want)
	}
}

func TestParseTextManifest(t *testing.T) {
	guid := uuid.New()
	guidHex := formatGUID(guid)

	body := []byte(`{
		"AppNameString": "Fortnite",
		"BuildVersionString": "++Fortnite+Release-1.0",
		"FileManifestList": [
			{
				"Filename": "FortniteGame/Content/Paks/pakchunk0-WindowsClient.pak",
				"FileTags": [],
				"FileChunkParts": [
					{"Guid": "` + guidHex + `", "Offset": "000000000", "Size": "001000000"}
				]
			}
		],
		"ChunkHashList": {"` + guidHex + `": "042000000000000000000000000000000000000000000000000000"},
		"DataGroupList": {"` + guidHex + `": "42"},
		"ChunkFilesizeList": {"` + guidHex + `": "000004000000000000000000000000000000000000000000000000"}
	}`)

	m, err := parseTextManifest(body)
	if err != nil {
		t.Fatalf("parseTextManifest() error = %v", err)
	}
	if m.Dialect != DialectText {
		t.Errorf("Dialect = %v, want DialectText", m.Dialect)
	}
	if len(m.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1", len(m.Files))
	}
	if len(m.Files[0].Parts) != 1 {
		t.Fatalf("len(Parts) = %d, want 1", len(m.Files[0].Parts))
	}
	if m.Files[0].Parts[0].GUID != guid {
		t.Errorf("part GUID = %v, want %v", m.Files[0].Parts[0].GUID, guid)
	}

	info, err := m.Chunk(guid)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if info.DataGroup != "42" {
		t.Errorf("DataGroup = %q, want 42", info.DataGroup)
	}
}

func TestBinaryManifestRoundtrip(t *testing.T) {
	guid := uuid.New()
	chunks := map[uuid.UUID]ChunkInfo{
		guid: {GUID: guid, Group: 7, RollingHash: 0xDEADBEEF, Size: 1 << 20, SHA1: [20]byte{1, 2, 3}},
	}
	files := []FileEntry{
		{
			Filename: "Fortnite/Content/Paks/pakchunk0.pak",
			FileHash: [20]byte{9, 9, 9},
			Tags:     []string{"client"},
			Parts:    []ChunkPart{{GUID: guid, Offset: 0, Size: 1 << 20}},
		},
	}
	want := NewBuildManifest("Fortnite", "v1", DialectBinary, files, chunks)

	encoded := EncodeBinaryManifest(want)
	got, err := parseBinaryManifest(encoded)
	if err != nil {
		t.Fatalf("parseBinaryManifest() error = %v", err)
	}

	if got.AppName != want.AppName || got.BuildVersion != want.BuildVersion {
		t.Errorf("AppName/BuildVersion mismatch: got %q/%q", got.AppName, got.BuildVersion)
	}
	if len(got.Files) != 1 || got.Files[0].Filename != files[0].Filename {
		t.Fatalf("Files mismatch: %+v", got.Files)
	}
	gotInfo, err := got.Chunk(guid)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if gotInfo.Group != 7 || gotInfo.RollingHash != 0xDEADBEEF || gotInfo.Size != 1<<20 {
		t.Errorf("ChunkInfo mismatch: %+v", gotInfo)
	}
}

func TestParseBinaryManifestRejectsBadMagic(t *testing.T) {
	_, err := parseBinaryManifest([]byte{0, 0, 0, 0, 1, 0, 0, 0})
	if !wickerr.Is(err, wickerr.KindParse) {
		t.Errorf("expected KindParse for bad magic, got %v", err)
	}
}

func TestChunkURLSelectsDialect(t *testing.T) {
	guid := uuid.New()

	binManifest := NewBuildManifest("Fortnite", "v1", DialectBinary,
		nil, map[uuid.UUID]ChunkInfo{guid: {GUID: guid, Group: 5, RollingHash: 0x1122334455667788}})
	binURL, err := binManifest.ChunkURL(ChunkPart{GUID: guid})
	if err != nil {
		t.Fatalf("ChunkURL() error = %v", err)
	}
	if want := "/Builds/Fortnite/CloudDir/ChunksV4/05/"; !contains(binURL, want) {
		t.Errorf("binary dialect URL %q should contain %q", binURL, want)
	}

	textManifest := NewBuildManifest("Fortnite", "v1", DialectText,
		nil, map[uuid.UUID]ChunkInfo{guid: {GUID: guid, DataGroup: "42", RollingHash: 0x1122334455667788}})
	textURL, err := textManifest.ChunkURL(ChunkPart{GUID: guid})
	if err != nil {
		t.Fatalf("ChunkURL() error = %v", err)
	}
	if want := "/Builds/Fortnite/CloudDir/ChunksV3/42/"; !contains(textURL, want) {
		t.Errorf("text dialect URL %q should contain %q", textURL, want)
	}
}

func TestChunkURLNotFound(t *testing.T) {
	m := NewBuildManifest("Fortnite", "v1", DialectBinary, nil, map[uuid.UUID]ChunkInfo{})
	_, err := m.ChunkURL(ChunkPart{GUID: uuid.New()})
	if !wickerr.Is(err, wickerr.KindNotFound) {
		t.Errorf("expected KindNotFound, got %v", err)
	}
}

func TestFilterFilesWithSuffixes(t *testing.T) {
	m := NewBuildManifest("Fortnite", "v1", DialectBinary, []FileEntry{
		{Filename: "Fortnite/Content/Paks/pakchunk0.pak"},
		{Filename: "Fortnite/Content/Paks/global.utoc"},
		{Filename: "Fortnite/Content/Paks/global.ucas"},
		{Filename: "OtherApp/readme.txt"},
	}, map[uuid.UUID]ChunkInfo{})

	got := m.FilterFiles(Suffixes("Fortnite", ".pak", ".utoc", ".ucas"))
	if len(got) != 3 {
		t.Fatalf("FilterFiles() returned %d entries, want 3", len(got))
	}
}

func TestFetchApplicationDescriptor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "bearer tok-123" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{
			"appName": "Fortnite",
			"items": {
				"MANIFEST": {
					"signature": "sig",
					"distribution": "https://dist.example",
					"path": "/path/to.manifest",
					"additionalDistributions": []
				}
			}
		}`))
	}))
	defer server.Close()

	client := httpclient.New(1)
	desc, err := FetchApplicationDescriptor(context.Background(), client, server.URL, "tok-123")
	if err != nil {
		t.Fatalf("FetchApplicationDescriptor() error = %v", err)
	}
	item, err := desc.Manifest()
	if err != nil {
		t.Fatalf("Manifest() error = %v", err)
	}
	if item.Path != "/path/to.manifest" {
		t.Errorf("Path = %q", item.Path)
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}
