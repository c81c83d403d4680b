package packet

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/binary"
	"io"
)

// PublicKeyPacket is the decoded body of a tag-6 (or tag-14 subkey)
// packet, spec section 4.E. V3 keys additionally carry ValidityDays;
// v4 keys do not.
type PublicKeyPacket struct {
	IsSubkey     bool
	Version      uint8
	CreationTime uint32
	ValidityDays uint16 // v3 only
	PubKeyAlgo   PublicKeyAlgorithm
	MPIs         []*MPI // algorithm-specific public parameters

	// CurveOID and KDFParams are set only for ECDH/ECDSA/EdDSA keys
	// (RFC 4880bis section 9.2/13.3): the algorithm byte is followed by
	// a length-prefixed curve OID instead of a second MPI, and ECDH
	// additionally trails a length-prefixed KDF parameter block after
	// its single MPI point.
	CurveOID  []byte
	KDFParams []byte

	// Fingerprint is computed eagerly on parse: SHA-1 for v4 (RFC 4880
	// section 12.2), MD5 for v3 (RFC 4880 section 12.2's legacy rule) —
	// the v3 path is a SUPPLEMENTED FEATURE per SPEC_FULL.md.
	Fingerprint []byte
}

func (p *PublicKeyPacket) contentTag() Tag {
	if p.IsSubkey {
		return TagPublicSubkey
	}
	return TagPublicKey
}

// KeyID returns the low 8 bytes of the fingerprint (v4) or the low 8
// bytes of the RSA/DSA modulus-derived v3 key ID.
func (p *PublicKeyPacket) KeyID() []byte {
	if p.Version == 3 {
		if len(p.MPIs) == 0 || len(p.MPIs[0].Bytes()) < 8 {
			return nil
		}
		n := p.MPIs[0].Bytes()
		return n[len(n)-8:]
	}
	if len(p.Fingerprint) >= 8 {
		return p.Fingerprint[len(p.Fingerprint)-8:]
	}
	return nil
}

func parsePublicKey(r io.Reader, tag Tag) (*PublicKeyPacket, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(KindIO, "PUB", "reading public key body", err)
	}
	return parsePublicKeyBody(body, tag)
}

func parsePublicKeyBody(body []byte, tag Tag) (*PublicKeyPacket, error) {
	if len(body) < 5 {
		return nil, newError(KindMalformed, "PUB", "public key packet too short", nil)
	}
	pk := &PublicKeyPacket{IsSubkey: tag == TagPublicSubkey, Version: body[0]}
	pk.CreationTime = binary.BigEndian.Uint32(body[1:5])
	rest := body[5:]

	switch pk.Version {
	case 3:
		if len(rest) < 3 {
			return nil, newError(KindMalformed, "PUB", "v3 public key too short", nil)
		}
		pk.ValidityDays = binary.BigEndian.Uint16(rest[:2])
		pk.PubKeyAlgo = PublicKeyAlgorithm(rest[2])
		rest = rest[3:]
		mpis, err := readAllMPIs(rest)
		if err != nil {
			return nil, err
		}
		pk.MPIs = mpis
		pk.Fingerprint = fingerprintV3(pk)
	case 4:
		if len(rest) < 1 {
			return nil, newError(KindMalformed, "PUB", "v4 public key too short", nil)
		}
		pk.PubKeyAlgo = PublicKeyAlgorithm(rest[0])
		rest = rest[1:]
		if pk.PubKeyAlgo.isECC() {
			if len(rest) < 1 {
				return nil, newError(KindMalformed, "PUB", "missing curve OID length", nil)
			}
			oidLen := int(rest[0])
			rest = rest[1:]
			if len(rest) < oidLen {
				return nil, newError(KindMalformed, "PUB", "curve OID truncated", nil)
			}
			pk.CurveOID = append([]byte{}, rest[:oidLen]...)
			rest = rest[oidLen:]

			m, tail, err := readOneMPI(rest)
			if err != nil {
				return nil, err
			}
			pk.MPIs = []*MPI{m}
			rest = tail

			if pk.PubKeyAlgo == PubKeyECDH {
				if len(rest) < 1 {
					return nil, newError(KindMalformed, "PUB", "missing ECDH KDF parameter length", nil)
				}
				kdfLen := int(rest[0])
				rest = rest[1:]
				if len(rest) < kdfLen {
					return nil, newError(KindMalformed, "PUB", "ECDH KDF parameters truncated", nil)
				}
				pk.KDFParams = append([]byte{}, rest[:kdfLen]...)
				rest = rest[kdfLen:]
			}
		} else {
			mpis, err := readAllMPIs(rest)
			if err != nil {
				return nil, err
			}
			pk.MPIs = mpis
		}
		pk.Fingerprint = fingerprintV4(body)
	default:
		return nil, newError(KindUnsupportedPacket, "PUB", "unsupported public key version %d", nil, pk.Version)
	}
	return pk, nil
}

// fingerprintV4 computes the SHA-1 fingerprint over a synthetic
// 0x99-tagged header plus the packet body, RFC 4880 section 12.2.
// Grounded on a8a4ecf1_perkeep-perkeep's readPublicKeyPacket.
func fingerprintV4(body []byte) []byte {
	h := sha1.New()
	var hdr [3]byte
	hdr[0] = 0x99
	binary.BigEndian.PutUint16(hdr[1:], uint16(len(body)))
	h.Write(hdr[:])
	h.Write(body)
	return h.Sum(nil)
}

// fingerprintV3 computes the legacy MD5 fingerprint over the
// concatenated MPI magnitudes only (no length header), per RFC 4880
// section 12.2's v3 rule. This is a SUPPLEMENTED FEATURE.
func fingerprintV3(pk *PublicKeyPacket) []byte {
	h := md5.New()
	for _, m := range pk.MPIs {
		h.Write(m.Bytes())
	}
	return h.Sum(nil)
}

func writePublicKey(pk *PublicKeyPacket) []byte {
	var b buffer
	b.addByte(pk.Version)
	b.addUint(pk.CreationTime, 4)
	if pk.Version == 3 {
		b.addUint(uint32(pk.ValidityDays), 2)
	}
	b.addByte(byte(pk.PubKeyAlgo))
	if pk.PubKeyAlgo.isECC() {
		b.addByte(byte(len(pk.CurveOID)))
		b.addBytes(pk.CurveOID)
		if len(pk.MPIs) > 0 {
			b.data = pk.MPIs[0].Encode(b.data)
		}
		if pk.PubKeyAlgo == PubKeyECDH {
			b.addByte(byte(len(pk.KDFParams)))
			b.addBytes(pk.KDFParams)
		}
		return b.Bytes()
	}
	for _, m := range pk.MPIs {
		b.data = m.Encode(b.data)
	}
	return b.Bytes()
}
