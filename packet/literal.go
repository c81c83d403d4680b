package packet

import (
	"bytes"
	"encoding/binary"
	"io"
)

// LiteralFormat is the literal-data packet's format octet, RFC 4880
// section 5.9.
type LiteralFormat byte

const (
	LiteralBinary LiteralFormat = 'b'
	LiteralText   LiteralFormat = 't'
	LiteralUTF8   LiteralFormat = 'u'
)

// LiteralPacket is the decoded body of a tag-11 packet: format byte,
// filename, timestamp, and payload — spec section 4.E. Body is read
// eagerly here; during a parse, packet.go's regionReader feeds the
// payload bytes (and only those) into the Parser's active signature
// hashes as they are read.
type LiteralPacket struct {
	Format   LiteralFormat
	Filename string
	Time     uint32
	Body     []byte
}

func (LiteralPacket) contentTag() Tag { return TagLiteral }

// ParseLiteralBody is the exported form of parseLiteral, used by the
// openpgp facade to decode a literal-data packet body recovered from
// a decrypted SEIP payload without going through the full Parser.
func ParseLiteralBody(body []byte) (*LiteralPacket, error) {
	return parseLiteral(bytes.NewReader(body))
}

func parseLiteral(r io.Reader) (*LiteralPacket, error) {
	var hdr [1]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, newError(KindIO, "LIT", "reading literal format byte", err)
	}
	lp := &LiteralPacket{Format: LiteralFormat(hdr[0])}

	var nameLen [1]byte
	if _, err := io.ReadFull(r, nameLen[:]); err != nil {
		return nil, newError(KindIO, "LIT", "reading filename length", err)
	}
	name := make([]byte, nameLen[0])
	if len(name) > 0 {
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, newError(KindIO, "LIT", "reading filename", err)
		}
	}
	lp.Filename = string(name)

	var ts [4]byte
	if _, err := io.ReadFull(r, ts[:]); err != nil {
		return nil, newError(KindIO, "LIT", "reading literal timestamp", err)
	}
	lp.Time = binary.BigEndian.Uint32(ts[:])

	// Only payload bytes read from here on should feed the active
	// signature hash contexts, not the format/filename/timestamp
	// fields just read above.
	if g, ok := r.(interface{ startPayload() }); ok {
		g.startPayload()
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(KindIO, "LIT", "reading literal payload", err)
	}
	lp.Body = body
	return lp, nil
}

func writeLiteral(lp *LiteralPacket) []byte {
	var b buffer
	b.addByte(byte(lp.Format))
	b.addByte(byte(len(lp.Filename)))
	b.addBytes([]byte(lp.Filename))
	b.addUint(lp.Time, 4)
	b.addBytes(lp.Body)
	return b.Bytes()
}

// OnePassSignaturePacket is the decoded body of a tag-4 packet: a
// forward announcement of the signature that follows the
// literal-data packet it precedes, letting a streaming verifier set
// up its hash context before seeing the signature itself. A
// SUPPLEMENTED FEATURE per SPEC_FULL.md.
type OnePassSignaturePacket struct {
	Version    uint8
	SigType    SignatureType
	HashAlgo   HashAlgorithm
	PubKeyAlgo PublicKeyAlgorithm
	KeyID      [8]byte
	IsNested   bool
}

func (OnePassSignaturePacket) contentTag() Tag { return TagOnePassSignature }

func parseOnePassSignature(r io.Reader) (*OnePassSignaturePacket, error) {
	var buf [13]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, newError(KindIO, "OPS", "reading one-pass signature body", err)
	}
	ops := &OnePassSignaturePacket{
		Version:    buf[0],
		SigType:    SignatureType(buf[1]),
		HashAlgo:   HashAlgorithm(buf[2]),
		PubKeyAlgo: PublicKeyAlgorithm(buf[3]),
	}
	copy(ops.KeyID[:], buf[4:12])
	ops.IsNested = buf[12] == 0
	return ops, nil
}

func writeOnePassSignature(ops *OnePassSignaturePacket) []byte {
	var b buffer
	b.addByte(ops.Version)
	b.addByte(byte(ops.SigType))
	b.addByte(byte(ops.HashAlgo))
	b.addByte(byte(ops.PubKeyAlgo))
	b.addBytes(ops.KeyID[:])
	if ops.IsNested {
		b.addByte(0)
	} else {
		b.addByte(1)
	}
	return b.Bytes()
}

// MarkerPacket is the decoded body of a tag-10 packet: always the
// literal three bytes "PGP", ignored by readers. A SUPPLEMENTED
// FEATURE (named in spec.md's tag enumeration but not detailed).
type MarkerPacket struct{}

func (MarkerPacket) contentTag() Tag { return TagMarker }

// TrustPacket is the decoded body of a tag-12 packet: opaque,
// implementation-defined trust data never transmitted between
// systems. A SUPPLEMENTED FEATURE.
type TrustPacket struct {
	Body []byte
}

func (TrustPacket) contentTag() Tag { return TagTrust }

// UserIDPacket is the decoded body of a tag-13 packet: a UTF-8 string
// identifying the key's owner.
type UserIDPacket struct {
	ID []byte
}

func (UserIDPacket) contentTag() Tag { return TagUserID }

func writeUserID(id []byte) []byte {
	return append([]byte{}, id...)
}

// UserAttributeSubpacketType identifies a user-attribute subpacket's
// content, RFC 4880 section 5.12.
type UserAttributeSubpacketType uint8

// SubImage is the only standardized user-attribute subpacket type.
const SubImage UserAttributeSubpacketType = 1

// UserAttributeImage is a decoded Image Attribute subpacket: a JPEG
// image associated with the key, RFC 4880 section 5.12.1. A
// SUPPLEMENTED FEATURE per SPEC_FULL.md.
type UserAttributeImage struct {
	Version uint8
	Format  uint8 // 1 == JPEG
	Data    []byte
}

// UserAttributePacket is the decoded body of a tag-17 packet: one or
// more subpackets, each a self-describing attribute blob.
type UserAttributePacket struct {
	Images []UserAttributeImage
	Other  [][]byte
}

func (UserAttributePacket) contentTag() Tag { return TagUserAttribute }

func parseUserAttribute(r io.Reader) (*UserAttributePacket, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(KindIO, "UAT", "reading user attribute body", err)
	}
	ua := &UserAttributePacket{}
	for len(body) > 0 {
		length, n, err := decodeSubpacketLength(body)
		if err != nil {
			return nil, err
		}
		body = body[n:]
		if uint64(len(body)) < length {
			return nil, newError(KindMalformed, "UAT", "user attribute subpacket truncated", nil)
		}
		sub := body[:length]
		body = body[length:]
		if len(sub) == 0 {
			continue
		}
		subType := UserAttributeSubpacketType(sub[0])
		data := sub[1:]
		if subType == SubImage && len(data) >= 16 {
			hdrLen := int(binary.LittleEndian.Uint16(data[0:2]))
			if hdrLen <= len(data) {
				ua.Images = append(ua.Images, UserAttributeImage{
					Version: data[2],
					Format:  data[3],
					Data:    data[hdrLen:],
				})
				continue
			}
		}
		ua.Other = append(ua.Other, data)
	}
	return ua, nil
}
