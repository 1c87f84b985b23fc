// Package verify checks downloaded bytes against the manifest's SHA-1
// hashes. Verification is never on the core download path (per the
// distilled spec's Non-goals, no integrity enforcement is mandatory); it
// is an opt-in pass invoked explicitly by the CLI.
package verify

import (
	"crypto/sha1"
	"io"
	"os"
)

// Chunk reports whether data's SHA-1 matches want.
func Chunk(data []byte, want [20]byte) bool {
	return sha1.Sum(data) == want
}

// File streams path through SHA-1 and reports whether the digest matches
// want, without holding the whole file in memory.
func File(path string, want [20]byte) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, err
	}

	var sum [20]byte
	copy(sum[:], h.Sum(nil))
	return sum == want, nil
}
