package packet

import (
	"encoding/binary"
	"io"
)

// Tag identifies a packet's content type, per spec section 3. Old
// format headers carry it in 4 bits, new format in 6.
type Tag uint8

// Standardized packet tags, RFC 4880 section 4.3.
const (
	TagNone                  Tag = 0
	TagPKESK                 Tag = 1 // Public-Key Encrypted Session Key
	TagSignature             Tag = 2
	TagSKESK                 Tag = 3 // Symmetric-Key Encrypted Session Key
	TagOnePassSignature      Tag = 4
	TagSecretKey             Tag = 5
	TagPublicKey             Tag = 6
	TagSecretSubkey          Tag = 7
	TagCompressed            Tag = 8
	TagSymmetricallyEncrypted Tag = 9
	TagMarker                Tag = 10
	TagLiteral               Tag = 11
	TagTrust                 Tag = 12
	TagUserID                Tag = 13
	TagPublicSubkey          Tag = 14
	TagUserAttribute         Tag = 17
	TagSymEncryptedIntegrity Tag = 18 // Sym. Encrypted Integrity Protected Data
	TagMDC                   Tag = 19 // Modification Detection Code
)

// length sentinel used internally to mark an indeterminate-length
// old-format packet (length type 3).
const lengthIndeterminate = ^uint64(0)

// header is a decoded packet header: tag, declared length (meaningless
// if indeterminate), and whether length is indeterminate/partial.
type header struct {
	tag           Tag
	length        uint64
	indeterminate bool
	oldFormat     bool
}

// readHeader decodes one packet header (old or new format) from r,
// per spec section 4.D. New-format partial-body lengths after the
// first are read by partialBodyLayer (stack.go); this function
// reports only the first chunk/length.
func readHeader(r io.Reader) (header, error) {
	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		return header{}, newError(KindIO, "HDR", "reading packet header", err)
	}
	b0 := first[0]
	if b0&0x80 == 0 {
		return header{}, newError(KindMalformed, "HDR", "tag byte missing MSB", nil)
	}

	if b0&0x40 == 0 {
		// Old format: 10TTTTLL
		tag := Tag((b0 & 0x3c) >> 2)
		lengthType := b0 & 0x3
		if lengthType == 3 {
			return header{tag: tag, indeterminate: true, oldFormat: true}, nil
		}
		n := 1 << lengthType
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return header{}, newError(KindIO, "HDR", "reading old-format length", err)
		}
		var length uint64
		for i := 0; i < n; i++ {
			length = length<<8 | uint64(buf[i])
		}
		return header{tag: tag, length: length, oldFormat: true}, nil
	}

	// New format: 11TTTTTT
	tag := Tag(b0 & 0x3f)
	length, indeterminate, err := readNewLength(r)
	if err != nil {
		return header{}, err
	}
	return header{tag: tag, length: length, indeterminate: indeterminate}, nil
}

// readNewLength decodes one new-format length field. A partial-body
// length (224..254) is indicated by returning indeterminate=true with
// length set to the size of the first chunk; the reader stack is
// responsible for transparently following the chunk chain (see
// partialBodyLayer in stack.go).
func readNewLength(r io.Reader) (length uint64, indeterminate bool, err error) {
	var b [4]byte
	if _, err = io.ReadFull(r, b[:1]); err != nil {
		return 0, false, newError(KindIO, "HDR", "reading new-format length", err)
	}
	switch {
	case b[0] < 192:
		return uint64(b[0]), false, nil
	case b[0] < 224:
		if _, err = io.ReadFull(r, b[1:2]); err != nil {
			return 0, false, newError(KindIO, "HDR", "reading new-format length tail", err)
		}
		return (uint64(b[0]-192) << 8) + uint64(b[1]) + 192, false, nil
	case b[0] < 255:
		return 1 << (b[0] & 0x1f), true, nil
	default:
		if _, err = io.ReadFull(r, b[:4]); err != nil {
			return 0, false, newError(KindIO, "HDR", "reading 4-byte length", err)
		}
		return uint64(binary.BigEndian.Uint32(b[:4])), false, nil
	}
}

// encodeNewHeader produces the shortest valid new-format header for a
// determinate length, per spec section 4.D.
func encodeNewHeader(tag Tag, length int) []byte {
	out := []byte{0xc0 | byte(tag)}
	return append(out, encodeNewLength(length)...)
}

func encodeNewLength(length int) []byte {
	switch {
	case length < 192:
		return []byte{byte(length)}
	case length < 8384:
		length -= 192
		return []byte{byte(length>>8) + 192, byte(length)}
	default:
		var b [5]byte
		b[0] = 255
		binary.BigEndian.PutUint32(b[1:], uint32(length))
		return b[:]
	}
}

// encodeOldHeader produces an old-format header, used where RFC 4880
// or GnuPG compatibility favors it (the teacher's own secret/public
// key packets use old-format-shaped single-byte lengths via the
// 0xc0|tag convention is actually new format; kept here for packets
// that must be old-format, e.g. indeterminate-length streaming).
func encodeOldHeader(tag Tag, length int, indeterminate bool) []byte {
	tagBits := (byte(tag) & 0x0f) << 2
	if indeterminate {
		return []byte{0x80 | tagBits | 3}
	}
	switch {
	case length < 256:
		return []byte{0x80 | tagBits | 0, byte(length)}
	case length < 65536:
		var b [3]byte
		b[0] = 0x80 | tagBits | 1
		binary.BigEndian.PutUint16(b[1:], uint16(length))
		return b[:]
	default:
		var b [5]byte
		b[0] = 0x80 | tagBits | 2
		binary.BigEndian.PutUint32(b[1:], uint32(length))
		return b[:]
	}
}

// encodePartialLength emits one partial-body length octet for a chunk
// size that must be an exact power of two, per spec section 4.D.
func encodePartialLength(power uint) byte {
	return 0xe0 | byte(power)
}
