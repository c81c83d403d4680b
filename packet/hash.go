package packet

import (
	"crypto/sha1"
	"encoding"
	"hash"
	"reflect"

	"github.com/minio/sha256-simd"
)

// HashAccumulator tracks the set of active signature-hash contexts
// during a parse or write, per spec section 4.G. During a parse,
// literal-data payload bytes are streamed into every active context
// as the Parser reads them (see packet.go's regionReader); on signature
// completion the appropriate trailer is appended before Sum.
type HashAccumulator struct {
	active []hash.Hash
}

// NewSHA256 returns an accelerated SHA-256 hash.Hash, grounded on
// github.com/minio/sha256-simd (pack: filecoin-project-go-fil-commp-hashhash).
func NewSHA256() hash.Hash {
	return sha256.New()
}

// NewHash returns a hash.Hash for the given OpenPGP hash algorithm, or
// nil if unsupported (ErrUnsupportedAlg is the caller's to report).
func NewHash(algo HashAlgorithm) hash.Hash {
	switch algo {
	case HashSHA256:
		return NewSHA256()
	case HashSHA1:
		return newSHA1()
	default:
		return nil
	}
}

// Add registers h as an active hash context.
func (a *HashAccumulator) Add(h hash.Hash) {
	a.active = append(a.active, h)
}

// Write feeds data into every active context, implementing the
// literal-data tap of spec section 4.G ("Each literal-data byte is
// streamed into every active context").
func (a *HashAccumulator) Write(data []byte) {
	for _, h := range a.active {
		h.Write(data)
	}
}

// FinishV4 appends a v4 signature's HashSuffix trailer to every active
// context and returns each context's digest, in the same order
// contexts were added. This is the moment spec section 4.G refers to:
// "When a signature packet completes, its trailer is appended... the
// final digest is computed".
func (a *HashAccumulator) FinishV4(hashSuffix []byte) [][]byte {
	var sums [][]byte
	for _, h := range a.active {
		clone := cloneHash(h)
		clone.Write(hashSuffix)
		sums = append(sums, clone.Sum(nil))
	}
	return sums
}

// cloneHash snapshots a hash.Hash's state for non-destructive trailer
// finalization when multiple signatures cover overlapping prefixes
// (spec section 4.G: "one or more hash contexts active", "multiple
// signatures cover overlapping prefixes"). crypto/sha1 and
// minio/sha256-simd's digest types both implement
// encoding.BinaryMarshaler/BinaryUnmarshaler for state checkpointing;
// a clone is built by marshaling h's state into a fresh zero value of
// the same concrete type. Falls back to returning h unchanged if the
// concrete type doesn't support this (in which case FinishV4 mutates
// the shared context, same as before).
func cloneHash(h hash.Hash) hash.Hash {
	marshaler, ok := h.(encoding.BinaryMarshaler)
	if !ok {
		return h
	}
	state, err := marshaler.MarshalBinary()
	if err != nil {
		return h
	}
	t := reflect.TypeOf(h)
	if t.Kind() != reflect.Ptr {
		return h
	}
	clone, ok := reflect.New(t.Elem()).Interface().(hash.Hash)
	if !ok {
		return h
	}
	unmarshaler, ok := clone.(encoding.BinaryUnmarshaler)
	if !ok {
		return h
	}
	if err := unmarshaler.UnmarshalBinary(state); err != nil {
		return h
	}
	return clone
}

// newSHA1 is split out so hash.go has one place to swap in an
// accelerated SHA-1 implementation later; crypto/sha1 is used
// directly today since no SIMD SHA-1 package is present in the
// retrieval pack.
func newSHA1() hash.Hash {
	return sha1.New()
}
