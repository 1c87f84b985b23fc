package chunkreader

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/SirWaddles/wickdl/httpclient"
	"github.com/SirWaddles/wickdl/manifest"
)

const headerFixedSize = 4 + 4 + 4 + 4 + 16 + 8 + 1 + 20 + 1

func chunkObject(payload []byte) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	writeU32 := func(v uint32) { binary.Write(&buf, le, v) }
	writeU32(1)
	writeU32(1)
	writeU32(uint32(headerFixedSize))
	writeU32(uint32(len(payload)))
	buf.Write(make([]byte, 16))
	binary.Write(&buf, le, uint64(1))
	buf.WriteByte(0)
	buf.Write(make([]byte, 20))
	buf.WriteByte(0)
	buf.Write(payload)
	return buf.Bytes()
}

// newFixture builds a two-chunk plan: X sized 100, Y sized 200 — spec's
// scenario S2 — served by an httptest server keyed on chunk identity via
// request path.
func newFixture(t *testing.T) (*Plan, *httptest.Server, func()) {
	t.Helper()

	xPayload := bytes.Repeat([]byte{0xAA}, 100)
	yPayload := make([]byte, 200)
	for i := range yPayload {
		yPayload[i] = byte(i)
	}

	guidX, guidY := uuid.New(), uuid.New()
	chunks := map[uuid.UUID]manifest.ChunkInfo{
		guidX: {GUID: guidX, Group: 0},
		guidY: {GUID: guidY, Group: 1},
	}
	file := manifest.FileEntry{
		Filename: "combo.bin",
		Parts: []manifest.ChunkPart{
			{GUID: guidX, Offset: 0, Size: 100},
			{GUID: guidY, Offset: 0, Size: 200},
		},
	}
	m := manifest.NewBuildManifest("App", "v1", manifest.DialectBinary, []manifest.FileEntry{file}, chunks)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if bytes.Contains([]byte(r.URL.Path), []byte("/00/")) {
			w.Write(chunkObject(xPayload))
			return
		}
		w.Write(chunkObject(yPayload))
	}))

	plan, err := BuildPlan(m, file, []string{server.URL})
	if err != nil {
		server.Close()
		t.Fatalf("BuildPlan() error = %v", err)
	}

	return plan, server, func() {
		server.Close()
	}
}

func TestReadFromStartYieldsAllBytes(t *testing.T) {
	plan, server, cleanup := newFixture(t)
	defer cleanup()
	_ = server

	client := httpclient.New(1)
	r := New(context.Background(), client, plan)
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if int64(len(got)) != plan.TotalSize {
		t.Fatalf("len(got) = %d, want %d", len(got), plan.TotalSize)
	}
}

func TestSeekIdempotence(t *testing.T) {
	plan, _, cleanup := newFixture(t)
	defer cleanup()

	client := httpclient.New(1)
	r := New(context.Background(), client, plan)
	defer r.Close()

	for _, p := range []int64{0, 50, 100, 150, 300} {
		if _, err := r.Seek(p, io.SeekStart); err != nil {
			t.Fatalf("Seek(Start(%d)) error = %v", p, err)
		}
		got, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			t.Fatalf("Seek(Current(0)) error = %v", err)
		}
		if got != p {
			t.Errorf("position after Seek(Current(0)) = %d, want %d", got, p)
		}
	}
}

func TestSeekThenReadReturnsExpectedWindow(t *testing.T) {
	// S2: reader at position 150 (50 bytes into chunk Y) returns bytes
	// corresponding to Y_decompressed[50..50+k].
	plan, _, cleanup := newFixture(t)
	defer cleanup()

	client := httpclient.New(1)
	r := New(context.Background(), client, plan)
	defer r.Close()

	if _, err := r.Seek(150, io.SeekStart); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	buf := make([]byte, 10)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if n != 10 {
		t.Fatalf("Read() = %d bytes, want 10", n)
	}
	for i, b := range buf {
		want := byte(50 + i)
		if b != want {
			t.Errorf("byte %d = %d, want %d", i, b, want)
		}
	}
}

func TestSeekEndNegativeOffset(t *testing.T) {
	// S6: Seek(End(-N)) followed by read(N) returns the last N bytes.
	plan, _, cleanup := newFixture(t)
	defer cleanup()

	client := httpclient.New(1)
	r := New(context.Background(), client, plan)
	defer r.Close()

	const n = 20
	if _, err := r.Seek(-n, io.SeekEnd); err != nil {
		t.Fatalf("Seek(End(-N)) error = %v", err)
	}

	got := make([]byte, n)
	if _, err := io.ReadFull(r, got); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}

	want := make([]byte, n)
	for i := range want {
		want[i] = byte(180 + i) // last 20 bytes of the 200-byte Y chunk
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSeekOutOfRange(t *testing.T) {
	plan, _, cleanup := newFixture(t)
	defer cleanup()

	client := httpclient.New(1)
	r := New(context.Background(), client, plan)
	defer r.Close()

	if _, err := r.Seek(plan.TotalSize+1, io.SeekStart); err == nil {
		t.Error("Seek() beyond end expected error, got nil")
	}
	if _, err := r.Seek(-1, io.SeekStart); err == nil {
		t.Error("Seek() before start expected error, got nil")
	}
}

func TestResetSharesPlan(t *testing.T) {
	plan, _, cleanup := newFixture(t)
	defer cleanup()

	client := httpclient.New(1)
	r := New(context.Background(), client, plan)
	defer r.Close()

	if _, err := r.Seek(150, io.SeekStart); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}

	fresh := r.Reset()
	defer fresh.Close()
	if fresh.position != 0 {
		t.Errorf("Reset() position = %d, want 0", fresh.position)
	}
	if fresh.plan != r.plan {
		t.Errorf("Reset() plan should be the same shared plan")
	}
}
