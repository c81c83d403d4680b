// Package packet implements the RFC 4880 OpenPGP packet stream: header
// and length decoding, the layered reader stack, packet-body parsing
// and serialization, signature-hash coverage accounting, and the
// compression reader layer.
package packet

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Kind classifies an Error per the OpenPGP packet stream's failure modes.
type Kind int

// Error kinds, per spec section 7.
const (
	KindIO Kind = iota
	KindMalformed
	KindPacketConsumed
	KindPacketNotConsumed
	KindUnsupportedAlg
	KindUnsupportedPacket
	KindBadArmor
	KindBadCompression
	KindBadCrypto
	KindAlloc
	KindCallbackAbort
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindMalformed:
		return "malformed"
	case KindPacketConsumed:
		return "packet-consumed"
	case KindPacketNotConsumed:
		return "packet-not-consumed"
	case KindUnsupportedAlg:
		return "unsupported-alg"
	case KindUnsupportedPacket:
		return "unsupported-packet"
	case KindBadArmor:
		return "bad-armor"
	case KindBadCompression:
		return "bad-compression"
	case KindBadCrypto:
		return "bad-crypto"
	case KindAlloc:
		return "alloc"
	case KindCallbackAbort:
		return "callback-abort"
	default:
		return "unknown"
	}
}

// Error is a single link in a parse_info error chain (spec section 3,
// "Error"). Recoverable kinds are appended and parsing continues;
// unrecoverable kinds unwind the reader stack.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	chain   error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the chained cause, if any, for errors.Is/As.
func (e *Error) Unwrap() error { return e.chain }

// newError builds a chain-capable Error, wrapping cause (if non-nil)
// with xerrors so %w-style chains survive through errors.Is/As.
func newError(kind Kind, code, format string, cause error, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	var chained error
	if cause != nil {
		chained = xerrors.Errorf("%s: %w", msg, cause)
	}
	return &Error{Kind: kind, Code: code, Message: msg, chain: chained}
}

// Recoverable reports whether parsing may continue after this error,
// per spec section 7: unsupported non-critical kinds are recoverable.
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case KindUnsupportedPacket, KindUnsupportedAlg:
		return true
	default:
		return false
	}
}

// Chain is an ordered list of errors accumulated during a single parse.
type Chain struct {
	errs []*Error
}

// Append records err in the chain.
func (c *Chain) Append(err *Error) {
	c.errs = append(c.errs, err)
}

// Errors returns the accumulated chain in occurrence order.
func (c *Chain) Errors() []*Error {
	return c.errs
}

// Err returns the most recently appended error, or nil if the chain is
// empty. Earlier errors are only available through Errors.
func (c *Chain) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs[len(c.errs)-1]
}

var (
	// ErrUnsupportedAlg indicates an algorithm this module does not
	// implement (spec kind UNSUPPORTED_ALG).
	ErrUnsupportedAlg = newError(KindUnsupportedAlg, "ALG", "unsupported algorithm", nil)

	// ErrUnsupportedPacket indicates an unrecognized packet tag.
	ErrUnsupportedPacket = newError(KindUnsupportedPacket, "PKT", "unsupported packet type", nil)

	// ErrPacketNotConsumed indicates length_read != length at region exit.
	ErrPacketNotConsumed = newError(KindPacketNotConsumed, "LEN", "region not fully consumed", nil)

	// ErrPacketConsumed indicates a read attempted to cross a region boundary.
	ErrPacketConsumed = newError(KindPacketConsumed, "LEN", "read would cross region boundary", nil)

	// ErrBadCompression indicates region end and decompressor EOF did not coincide.
	ErrBadCompression = newError(KindBadCompression, "ZIP", "decompressed stream did not end at region boundary", nil)

	// ErrCallbackAbort indicates a callback returned Abort.
	ErrCallbackAbort = newError(KindCallbackAbort, "CB", "callback aborted parse", nil)

	// ErrBadCrypto indicates a signature or MAC failed verification.
	ErrBadCrypto = newError(KindBadCrypto, "SIG", "cryptographic verification failed", nil)
)
