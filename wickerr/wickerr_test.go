package wickerr

import (
	"errors"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "bare error",
			err:  New(KindNotFound, "chunk %s missing", "abc"),
			want: "not_found: chunk abc missing",
		},
		{
			name: "wrapped error",
			err:  Wrap(KindNetwork, errors.New("dial tcp: timeout"), "GET %s", "http://x"),
			want: "network: GET http://x: dial tcp: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := Wrap(KindIO, inner, "writing file")

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}
}

func TestKindOf(t *testing.T) {
	err := New(KindCorrupt, "zlib inflate failed")

	k, ok := KindOf(err)
	if !ok || k != KindCorrupt {
		t.Errorf("KindOf() = (%v, %v), want (%v, true)", k, ok, KindCorrupt)
	}

	_, ok = KindOf(errors.New("plain error"))
	if ok {
		t.Error("KindOf() should report ok=false for a plain error")
	}
}

func TestIs(t *testing.T) {
	err := New(KindNotFound, "missing")
	if !Is(err, KindNotFound) {
		t.Error("Is() should match the same Kind")
	}
	if Is(err, KindCorrupt) {
		t.Error("Is() should not match a different Kind")
	}
}

func TestWithContext(t *testing.T) {
	payload := make([]byte, 500)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}

	err := New(KindParse, "bad json").WithContext(payload)
	if len(err.Context) != 200 {
		t.Errorf("Context length = %d, want 200", len(err.Context))
	}
	if string(err.Context) != string(payload[:200]) {
		t.Error("Context should be the first 200 bytes of the payload")
	}
}
