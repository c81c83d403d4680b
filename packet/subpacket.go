package packet

import "encoding/binary"

// SubpacketType identifies a signature subpacket's content, RFC 4880
// section 5.2.3.1.
type SubpacketType uint8

const (
	SubCreationTime        SubpacketType = 2
	SubExpirationTime      SubpacketType = 3
	SubExportable          SubpacketType = 4
	SubTrustSignature      SubpacketType = 5
	SubRegex               SubpacketType = 6
	SubRevocable           SubpacketType = 7
	SubKeyExpiration       SubpacketType = 9
	SubPreferredSymmetric  SubpacketType = 11
	SubRevocationKey       SubpacketType = 12
	SubIssuer              SubpacketType = 16
	SubPreferredHash       SubpacketType = 21
	SubPreferredCompress   SubpacketType = 22
	SubKeyServerPrefs      SubpacketType = 23
	SubPreferredKeyServer  SubpacketType = 24
	SubPrimaryUserID       SubpacketType = 25
	SubPolicyURI           SubpacketType = 26
	SubKeyFlags            SubpacketType = 27
	SubSignerUserID        SubpacketType = 28
	SubRevocationReason    SubpacketType = 29
	SubFeatures            SubpacketType = 30
	SubSignatureTarget     SubpacketType = 31
	SubEmbeddedSignature   SubpacketType = 32
	SubIssuerFingerprint   SubpacketType = 33
)

// Subpacket is one decoded element of a signature's hashed or
// unhashed area, per spec section 3 (GLOSSARY: Subpacket) and
// section 4.E's sub-packet recursion.
type Subpacket struct {
	Type     SubpacketType
	Critical bool
	Data     []byte

	// Embedded holds the recursively-parsed signature for
	// SubEmbeddedSignature subpackets (spec section 9: "mutually
	// recursive with signature parsing").
	Embedded *SignaturePacket
}

// maxRecursionDepth bounds embedded-signature recursion, per spec
// section 9, to prevent stack exhaustion from hostile input.
const maxRecursionDepth = 8

// parseSubpackets decodes a sequence of length-prefixed subpackets
// from data, per spec section 4.E. An unknown critical subpacket
// fails the parse; an unknown non-critical one is kept as opaque Data
// (the caller's UNSUPPORTED callback is the packet-body decoder's
// responsibility, not this helper's).
func parseSubpackets(data []byte, depth int) ([]Subpacket, error) {
	var out []Subpacket
	for len(data) > 0 {
		length, n, err := decodeSubpacketLength(data)
		if err != nil {
			return nil, err
		}
		data = data[n:]
		if uint64(len(data)) < length {
			return nil, newError(KindMalformed, "SUB", "subpacket truncated", nil)
		}
		if length == 0 {
			return nil, newError(KindMalformed, "SUB", "zero-length subpacket", nil)
		}
		body := data[:length]
		data = data[length:]

		typeByte := body[0]
		critical := typeByte&0x80 != 0
		subType := SubpacketType(typeByte & 0x7f)
		sp := Subpacket{Type: subType, Critical: critical, Data: body[1:]}

		if subType == SubEmbeddedSignature {
			if depth+1 > maxRecursionDepth {
				return nil, newError(KindMalformed, "SUB", "embedded signature recursion too deep", nil)
			}
			embedded, err := parseSignatureBody(sp.Data, depth+1)
			if err != nil {
				if critical {
					return nil, err
				}
			} else {
				sp.Embedded = embedded
			}
		} else if !knownSubpacketType(subType) && critical {
			return nil, newError(KindUnsupportedPacket, "SUB", "unknown critical subpacket type %d", nil, subType)
		}

		out = append(out, sp)
	}
	return out, nil
}

func knownSubpacketType(t SubpacketType) bool {
	switch t {
	case SubCreationTime, SubExpirationTime, SubExportable, SubTrustSignature,
		SubRegex, SubRevocable, SubKeyExpiration, SubPreferredSymmetric,
		SubRevocationKey, SubIssuer, SubPreferredHash, SubPreferredCompress,
		SubKeyServerPrefs, SubPreferredKeyServer, SubPrimaryUserID, SubPolicyURI,
		SubKeyFlags, SubSignerUserID, SubRevocationReason, SubFeatures,
		SubSignatureTarget, SubEmbeddedSignature, SubIssuerFingerprint:
		return true
	default:
		return false
	}
}

// decodeSubpacketLength decodes one subpacket's new-format-style
// length prefix (spec section 4.D's scheme, reused inside the
// signature's subpacket area), returning the body length and the
// number of bytes the length field itself occupied.
func decodeSubpacketLength(data []byte) (length uint64, consumed int, err error) {
	if len(data) == 0 {
		return 0, 0, newError(KindMalformed, "SUB", "subpacket length missing", nil)
	}
	switch {
	case data[0] < 192:
		return uint64(data[0]), 1, nil
	case data[0] < 255:
		if len(data) < 2 {
			return 0, 0, newError(KindMalformed, "SUB", "subpacket length truncated", nil)
		}
		return (uint64(data[0]-192) << 8) + uint64(data[1]) + 192, 2, nil
	default:
		if len(data) < 5 {
			return 0, 0, newError(KindMalformed, "SUB", "subpacket length truncated", nil)
		}
		return uint64(binary.BigEndian.Uint32(data[1:5])), 5, nil
	}
}

// encodeSubpackets serializes a list of subpackets using the same
// length scheme, for the writer.
func encodeSubpackets(subs []Subpacket) []byte {
	var out []byte
	for _, sp := range subs {
		typeByte := byte(sp.Type)
		if sp.Critical {
			typeByte |= 0x80
		}
		bodyLen := len(sp.Data) + 1
		out = append(out, encodeSubpacketLength(bodyLen)...)
		out = append(out, typeByte)
		out = append(out, sp.Data...)
	}
	return out
}

func encodeSubpacketLength(n int) []byte {
	switch {
	case n < 192:
		return []byte{byte(n)}
	case n < 8384:
		n -= 192
		return []byte{byte(n>>8) + 192, byte(n)}
	default:
		var b [5]byte
		b[0] = 255
		binary.BigEndian.PutUint32(b[1:], uint32(n))
		return b[:]
	}
}

// Uint32 decodes a SubCreationTime/SubExpirationTime/
// SubKeyExpiration subpacket's 4-byte big-endian value.
func (s Subpacket) Uint32() (uint32, bool) {
	if len(s.Data) != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(s.Data), true
}

// IssuerKeyID decodes a SubIssuer subpacket's 8-byte key ID.
func (s Subpacket) IssuerKeyID() ([8]byte, bool) {
	var id [8]byte
	if len(s.Data) != 8 {
		return id, false
	}
	copy(id[:], s.Data)
	return id, true
}

// RevocationReason decodes a SubRevocationReason subpacket: a 1-byte
// reason code followed by a human-readable UTF-8 string (spec's
// SUPPLEMENTED FEATURES: "Revocation Reason subpacket body decode").
type RevocationReason struct {
	Code uint8
	Text string
}

func (s Subpacket) RevocationReason() (RevocationReason, bool) {
	if len(s.Data) < 1 {
		return RevocationReason{}, false
	}
	return RevocationReason{Code: s.Data[0], Text: string(s.Data[1:])}, true
}
