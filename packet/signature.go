package packet

import (
	"encoding/binary"
	"io"
)

// SignaturePacket is the decoded body of a tag-2 packet, spec section
// 4.E. Version 3 and version 4 gate two distinct layouts; fields not
// present in v3 are zero-valued.
type SignaturePacket struct {
	Version      uint8
	SigType      SignatureType
	PubKeyAlgo   PublicKeyAlgorithm
	HashAlgo     HashAlgorithm
	CreationTime uint32 // v3 field; for v4, copied from the hashed creation-time subpacket

	HashedSubpackets   []Subpacket
	UnhashedSubpackets []Subpacket

	// HashSuffix is the exact byte sequence (for v4: the first six body
	// bytes and the hashed subpacket region, then the 6-byte trailer
	// 0x04, 0xff, 4-byte length; for v3: the 5-byte tail) that must be
	// appended to every ongoing signature hash this packet covers —
	// spec section 4.E / 4.G's "coverage" requirement.
	HashSuffix []byte

	LeftHashBits [2]byte
	MPIs         []*MPI // algorithm-specific signature MPIs: [r,s] DSA/ECDSA/EdDSA, [s] RSA

	// V3Signer is the 8-byte key ID, v3 signatures only.
	V3Signer [8]byte
}

func (SignaturePacket) contentTag() Tag { return TagSignature }

// IssuerKeyID returns the signer's key ID from the Issuer subpacket
// (v4) or the V3Signer field (v3), if present.
func (s *SignaturePacket) IssuerKeyID() ([8]byte, bool) {
	if s.Version == 3 {
		return s.V3Signer, true
	}
	for _, sp := range append(append([]Subpacket{}, s.HashedSubpackets...), s.UnhashedSubpackets...) {
		if sp.Type == SubIssuer {
			return sp.IssuerKeyID()
		}
	}
	return [8]byte{}, false
}

// parseSignature decodes a signature packet body from r, limited to
// the packet's region. depth tracks embedded-signature recursion.
func parseSignature(r io.Reader, depth int) (*SignaturePacket, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(KindIO, "SIG", "reading signature body", err)
	}
	return parseSignatureBody(body, depth)
}

func parseSignatureBody(body []byte, depth int) (*SignaturePacket, error) {
	if len(body) < 1 {
		return nil, newError(KindMalformed, "SIG", "empty signature packet", nil)
	}
	sig := &SignaturePacket{Version: body[0]}

	switch sig.Version {
	case 3:
		return parseSignatureV3(sig, body)
	case 4:
		return parseSignatureV4(sig, body, depth)
	default:
		// v5 (and anything else) is out of scope: parseSignatureV4
		// hardcodes the v4 {4, 0xff, <4-byte length>} HashSuffix
		// trailer, which is wrong for v5's layout. Reject rather than
		// silently computing the wrong hash.
		return nil, newError(KindUnsupportedPacket, "SIG", "unsupported signature version %d", nil, sig.Version)
	}
}

func parseSignatureV3(sig *SignaturePacket, body []byte) (*SignaturePacket, error) {
	// version(1) hashed-material-len(1, must be 5) sigtype(1) created(4)
	// keyid(8) pkalgo(1) hashalgo(1) left16(2) mpis...
	if len(body) < 19 {
		return nil, newError(KindMalformed, "SIG", "v3 signature too short", nil)
	}
	if body[1] != 5 {
		return nil, newError(KindMalformed, "SIG", "v3 signature hashed length must be 5", nil)
	}
	sig.SigType = SignatureType(body[2])
	sig.CreationTime = binary.BigEndian.Uint32(body[3:7])
	copy(sig.V3Signer[:], body[7:15])
	sig.PubKeyAlgo = PublicKeyAlgorithm(body[15])
	sig.HashAlgo = HashAlgorithm(body[16])
	copy(sig.LeftHashBits[:], body[17:19])

	// The trailer covering v3 material is (sigtype, creation-time)
	// only, per spec section 4.G: "no subpackets".
	sig.HashSuffix = append([]byte{byte(sig.SigType)}, body[3:7]...)

	mpis, err := readAllMPIs(body[19:])
	if err != nil {
		return nil, err
	}
	sig.MPIs = mpis
	return sig, nil
}

func parseSignatureV4(sig *SignaturePacket, body []byte, depth int) (*SignaturePacket, error) {
	if len(body) < 6 {
		return nil, newError(KindMalformed, "SIG", "v4 signature too short", nil)
	}
	sig.SigType = SignatureType(body[1])
	sig.PubKeyAlgo = PublicKeyAlgorithm(body[2])
	sig.HashAlgo = HashAlgorithm(body[3])
	hashedLen := int(binary.BigEndian.Uint16(body[4:6]))
	if len(body) < 6+hashedLen {
		return nil, newError(KindMalformed, "SIG", "hashed subpacket region truncated", nil)
	}
	hashedRegion := body[6 : 6+hashedLen]
	hashed, err := parseSubpackets(hashedRegion, depth)
	if err != nil {
		return nil, err
	}
	sig.HashedSubpackets = hashed

	// HashSuffix: version..hashed-subpacket-bytes plus the 6-byte
	// trailer (0x04, 0xff, four-octet big-endian length of everything
	// hashed so far).
	prefix := body[:6+hashedLen]
	trailLen := uint32(len(prefix))
	trailer := []byte{4, 0xff, byte(trailLen >> 24), byte(trailLen >> 16), byte(trailLen >> 8), byte(trailLen)}
	sig.HashSuffix = append(append([]byte{}, prefix...), trailer...)

	rest := body[6+hashedLen:]
	if len(rest) < 2 {
		return nil, newError(KindMalformed, "SIG", "missing unhashed subpacket length", nil)
	}
	unhashedLen := int(binary.BigEndian.Uint16(rest[:2]))
	rest = rest[2:]
	if len(rest) < unhashedLen {
		return nil, newError(KindMalformed, "SIG", "unhashed subpacket region truncated", nil)
	}
	unhashed, err := parseSubpackets(rest[:unhashedLen], depth)
	if err != nil {
		return nil, err
	}
	sig.UnhashedSubpackets = unhashed
	rest = rest[unhashedLen:]

	if len(rest) < 2 {
		return nil, newError(KindMalformed, "SIG", "missing hash preview", nil)
	}
	copy(sig.LeftHashBits[:], rest[:2])
	rest = rest[2:]

	for _, sp := range hashed {
		if sp.Type == SubCreationTime {
			if v, ok := sp.Uint32(); ok {
				sig.CreationTime = v
			}
		}
	}

	mpis, err := readAllMPIs(rest)
	if err != nil {
		return nil, err
	}
	sig.MPIs = mpis
	return sig, nil
}

// readMPIsWithChecksum reads MPIs from data until exactly two bytes
// remain, which are returned separately as a plain 16-bit checksum
// (the cleartext secret-key trailer, spec section 4.E).
func readMPIsWithChecksum(data []byte) ([]*MPI, [2]byte, error) {
	r := newByteReader(data)
	var out []*MPI
	for r.remaining() > 2 {
		m, err := readMPI(r)
		if err != nil {
			return nil, [2]byte{}, err
		}
		out = append(out, m)
	}
	var checksum [2]byte
	if r.remaining() != 2 {
		return nil, checksum, newError(KindMalformed, "SEC", "secret key checksum misaligned", nil)
	}
	io.ReadFull(r, checksum[:])
	return out, checksum, nil
}

func readAllMPIs(data []byte) ([]*MPI, error) {
	r := newByteReader(data)
	var out []*MPI
	for r.remaining() > 0 {
		m, err := readMPI(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// byteReader is a minimal io.Reader over a byte slice that reports
// remaining length, used where MPI counts vary by algorithm and must
// be read until the region is exhausted.
type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader { return &byteReader{data: data} }

func (b *byteReader) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

func (b *byteReader) remaining() int { return len(b.data) - b.pos }

// writeSignature serializes a SignaturePacket body (not including the
// packet header), mirroring parseSignatureV4's layout in reverse.
func writeSignature(sig *SignaturePacket) []byte {
	var b buffer
	b.addByte(4)
	b.addByte(byte(sig.SigType))
	b.addByte(byte(sig.PubKeyAlgo))
	b.addByte(byte(sig.HashAlgo))
	hashedBytes := encodeSubpackets(sig.HashedSubpackets)
	b.addUint(uint32(len(hashedBytes)), 2)
	b.addBytes(hashedBytes)
	unhashedBytes := encodeSubpackets(sig.UnhashedSubpackets)
	b.addUint(uint32(len(unhashedBytes)), 2)
	b.addBytes(unhashedBytes)
	b.addBytes(sig.LeftHashBits[:])
	for _, m := range sig.MPIs {
		b.data = m.Encode(b.data)
	}
	return b.Bytes()
}
