// Package s2k implements OpenPGP's String-to-Key passphrase-derivation
// specifiers (RFC 4880 section 3.7): simple, salted, and
// iterated-salted. Grounded directly on
// KAction-passphrase2pgp/openpgp/signkey.go's decodeS2K/s2k functions,
// which implement S2K "as it is actually used in practice by both
// GnuPG and PGP" rather than the RFC's own (subtly incorrect)
// pseudocode — that behavioral note is carried forward here.
package s2k

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

// Mode identifies which S2K specifier form is in use.
type Mode byte

const (
	ModeSimple         Mode = 0
	ModeSalted         Mode = 1
	ModeIteratedSalted Mode = 3
)

// Specifier is a decoded S2K specifier.
type Specifier struct {
	Mode     Mode
	HashAlgo byte
	Salt     []byte // Salted, IteratedSalted
	Count    byte   // IteratedSalted: encoded octet count
}

func newHash(algo byte) hash.Hash {
	switch algo {
	case 1:
		return md5.New()
	case 2:
		return sha1.New()
	case 8:
		return sha256.New()
	case 10:
		return sha512.New()
	default:
		return nil
	}
}

// DecodeCount expands an encoded iteration-count octet into the
// actual byte count to be hashed, per RFC 4880 section 3.7.1.3 as
// implemented by GnuPG (signkey.go's decodeS2K).
func DecodeCount(c byte) int {
	return (16 + int(c&15)) << (uint(c>>4) + 6)
}

// EncodeCount finds the encoded octet whose decoded count is >= want,
// used when constructing a new Specifier at a target strength.
func EncodeCount(want int) byte {
	for c := 0; c < 256; c++ {
		if DecodeCount(byte(c)) >= want {
			return byte(c)
		}
	}
	return 0xff
}

// Parse decodes a Specifier from its wire bytes (type byte first).
func Parse(data []byte) (*Specifier, []byte, error) {
	if len(data) < 2 {
		return nil, nil, errTruncated
	}
	sp := &Specifier{Mode: Mode(data[0]), HashAlgo: data[1]}
	rest := data[2:]
	switch sp.Mode {
	case ModeSimple:
		return sp, rest, nil
	case ModeSalted:
		if len(rest) < 8 {
			return nil, nil, errTruncated
		}
		sp.Salt = append([]byte{}, rest[:8]...)
		return sp, rest[8:], nil
	case ModeIteratedSalted:
		if len(rest) < 9 {
			return nil, nil, errTruncated
		}
		sp.Salt = append([]byte{}, rest[:8]...)
		sp.Count = rest[8]
		return sp, rest[9:], nil
	default:
		return nil, nil, errUnsupportedMode
	}
}

// Encode serializes the Specifier to its wire form.
func (sp *Specifier) Encode() []byte {
	out := []byte{byte(sp.Mode), sp.HashAlgo}
	switch sp.Mode {
	case ModeSalted:
		out = append(out, sp.Salt...)
	case ModeIteratedSalted:
		out = append(out, sp.Salt...)
		out = append(out, sp.Count)
	}
	return out
}

// Derive runs the specifier against passphrase, producing keySize
// bytes of key material. Mirrors signkey.go's s2k() for the iterated
// case and extends it to simple/salted per RFC 4880.
func (sp *Specifier) Derive(passphrase []byte, keySize int) []byte {
	h := newHash(sp.HashAlgo)
	if h == nil {
		return nil
	}
	var out []byte
	for pass := 0; len(out) < keySize; pass++ {
		h.Reset()
		// Each pass prepends `pass` zero bytes, per RFC 4880 section
		// 3.7.1.4, to extend output beyond one hash's digest size.
		for i := 0; i < pass; i++ {
			h.Write([]byte{0})
		}
		switch sp.Mode {
		case ModeSimple:
			h.Write(passphrase)
		case ModeSalted:
			h.Write(sp.Salt)
			h.Write(passphrase)
		case ModeIteratedSalted:
			full := make([]byte, 0, len(sp.Salt)+len(passphrase))
			full = append(full, sp.Salt...)
			full = append(full, passphrase...)
			count := DecodeCount(sp.Count)
			iterations := count / len(full)
			for i := 0; i < iterations; i++ {
				h.Write(full)
			}
			tail := count - iterations*len(full)
			h.Write(full[:tail])
		}
		out = append(out, h.Sum(nil)...)
	}
	return out[:keySize]
}

// SimpleIteratedSalted derives a key the same way
// KAction-passphrase2pgp/openpgp/signkey.go's package-level s2k()
// function does: SHA-256, a single digest-length output, no
// multi-pass extension. It is kept separate from Derive's generic
// multi-pass loop because the teacher's own packets (and this
// package's default strength) never need more than one SHA-256
// digest of key material.
func SimpleIteratedSalted(passphrase, salt []byte, count int) []byte {
	h := sha256.New()
	full := make([]byte, 0, len(salt)+len(passphrase))
	full = append(full, salt...)
	full = append(full, passphrase...)
	iterations := count / len(full)
	for i := 0; i < iterations; i++ {
		h.Write(full)
	}
	tail := count - iterations*len(full)
	h.Write(full[:tail])
	return h.Sum(nil)
}

type s2kError string

func (e s2kError) Error() string { return string(e) }

const (
	errTruncated       s2kError = "s2k: specifier truncated"
	errUnsupportedMode s2kError = "s2k: unsupported mode"
)
