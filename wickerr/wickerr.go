// Package wickerr defines the unified error taxonomy shared across the
// chunk-backed virtual file layer. Every fallible operation in this module
// returns (or wraps) an *Error so callers can branch on Kind instead of
// string-matching.
package wickerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure into one of the categories the module's
// components are allowed to surface.
type Kind int

const (
	// KindNetwork covers transport failures, non-success HTTP statuses,
	// header decoding, and UTF-8 body decoding.
	KindNetwork Kind = iota
	// KindParse covers JSON schema mismatches, binary manifest decode
	// failures, and chunk header decode failures.
	KindParse
	// KindNotFound covers a missing "MANIFEST" item, an unknown chunk
	// GUID, or an unknown filename.
	KindNotFound
	// KindCorrupt covers zlib failures and out-of-range windowed slices.
	KindCorrupt
	// KindCrypto covers invalid key lengths, decrypt failures, and hex
	// decoding errors in downstream pak-index handling.
	KindCrypto
	// KindIO covers local file open/seek/write/read failures.
	KindIO
	// KindChannelClosed covers sends on an internal queue after its
	// receiver has gone away.
	KindChannelClosed
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindNotFound:
		return "not_found"
	case KindCorrupt:
		return "corrupt"
	case KindCrypto:
		return "crypto"
	case KindIO:
		return "io"
	case KindChannelClosed:
		return "channel_closed"
	default:
		return "unknown"
	}
}

// Error is the module's unified error type.
type Error struct {
	Kind Kind
	Msg  string
	// Context holds a truncated prefix of an offending payload, populated
	// for parse errors (e.g. the first 200 bytes of unparseable JSON).
	Context []byte
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, wickerr.KindNotFound) style matching against a
// bare Kind value wrapped as an error via KindError.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Kind == te.Kind
	}
	return false
}

// New builds a new *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds a new *Error of the given kind, wrapping an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// WithContext attaches a truncated payload prefix to an existing error, for
// JSON/binary parse diagnostics. At most 200 bytes are retained.
func (e *Error) WithContext(payload []byte) *Error {
	n := len(payload)
	if n > 200 {
		n = 200
	}
	ctx := make([]byte, n)
	copy(ctx, payload[:n])
	e.Context = ctx
	return e
}

// KindOf reports the Kind of err if it (or something it wraps) is an *Error,
// and ok=true. Otherwise ok is false.
func KindOf(err error) (k Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err's Kind matches kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
