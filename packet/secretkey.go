package packet

import "io"

// S2KUsage selects how a secret key packet's secret material is
// protected, spec section 4.E.
type S2KUsage uint8

const (
	S2KUsageCleartext       S2KUsage = 0
	S2KUsageChecksummed     S2KUsage = 255 // simple checksum (legacy)
	S2KUsageSHA1Checksummed S2KUsage = 254 // SHA-1 "MAC"
)

// SecretKeyPacket is the decoded body of a tag-5 (or tag-7 subkey)
// packet: the public portion plus optionally-encrypted secret MPIs.
// Per spec section 3, once decrypted the secret MPIs form an
// in-memory shadow that must be zeroized on release.
type SecretKeyPacket struct {
	IsSubkey bool
	Public   *PublicKeyPacket

	S2KUsage  S2KUsage
	CipherAlgo SymmetricAlgorithm
	S2K        *S2KSpecifier
	IV         []byte

	// PlainSecretMPIs holds the secret MPIs of an unencrypted
	// (S2KUsageCleartext) key; their trailing checksum is kept apart.
	// It is empty for encrypted keys, which this package does not
	// decrypt.
	PlainSecretMPIs []*MPI

	// EncryptedData holds the opaque ciphertext that follows the IV
	// for encrypted secret material; callers decrypt it themselves.
	EncryptedData []byte

	checksum [2]byte
}

func (s *SecretKeyPacket) contentTag() Tag {
	if s.IsSubkey {
		return TagSecretSubkey
	}
	return TagSecretKey
}

// S2KSpecifier mirrors the openpgp/s2k package's wire type but is
// re-declared here to avoid an import cycle (s2k depends on nothing
// in packet and is a sibling package; packet exposes only the raw
// bytes the caller decodes with s2k.Parse).
type S2KSpecifier struct {
	Type byte
	Raw  []byte // whole specifier: type, hash-algo[, salt][, count]
}

func parseSecretKey(r io.Reader, tag Tag) (*SecretKeyPacket, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(KindIO, "SEC", "reading secret key body", err)
	}
	return parseSecretKeyBody(body, tag)
}

// ParseSecretKeyBody is the exported form of parseSecretKeyBody, used
// by openpgp.SignKey.Load to decode a secret-key packet body it
// already holds in memory without going through the full Parser.
func ParseSecretKeyBody(body []byte, tag Tag) (*SecretKeyPacket, error) {
	return parseSecretKeyBody(body, tag)
}

func parseSecretKeyBody(body []byte, tag Tag) (*SecretKeyPacket, error) {
	pub, err := parsePublicKeyBody(body, publicTagFor(tag))
	if err != nil {
		return nil, err
	}
	sk := &SecretKeyPacket{IsSubkey: tag == TagSecretSubkey, Public: pub}

	// Re-derive how many bytes the public portion consumed by
	// re-encoding it; simpler than threading an offset through
	// parsePublicKeyBody, and exact because encode/decode round-trip.
	pubLen := len(writePublicKey(pub))
	rest := body[pubLen:]
	if len(rest) < 1 {
		return nil, newError(KindMalformed, "SEC", "secret key missing s2k-usage byte", nil)
	}
	sk.S2KUsage = S2KUsage(rest[0])
	rest = rest[1:]

	switch sk.S2KUsage {
	case S2KUsageCleartext:
		mpis, checksum, err := readMPIsWithChecksum(rest)
		if err != nil {
			return nil, err
		}
		sk.PlainSecretMPIs = mpis
		sk.checksum = checksum
	case S2KUsageChecksummed, S2KUsageSHA1Checksummed:
		if len(rest) < 1 {
			return nil, newError(KindMalformed, "SEC", "missing symmetric algorithm", nil)
		}
		sk.CipherAlgo = SymmetricAlgorithm(rest[0])
		rest = rest[1:]
		if len(rest) < 1 {
			return nil, newError(KindMalformed, "SEC", "missing s2k specifier", nil)
		}
		s2kType := rest[0]
		s2kLen, err := s2kWireLength(rest)
		if err != nil {
			return nil, err
		}
		sk.S2K = &S2KSpecifier{Type: s2kType, Raw: append([]byte{}, rest[:s2kLen]...)}
		rest = rest[s2kLen:]
		blockSize := sk.CipherAlgo.BlockSize()
		if blockSize == 0 {
			return nil, newError(KindUnsupportedAlg, "SEC", "unknown cipher algorithm %d", nil, sk.CipherAlgo)
		}
		if len(rest) < blockSize {
			return nil, newError(KindMalformed, "SEC", "secret key IV truncated", nil)
		}
		sk.IV = append([]byte{}, rest[:blockSize]...)
		sk.EncryptedData = append([]byte{}, rest[blockSize:]...)
	default:
		return nil, newError(KindUnsupportedPacket, "SEC", "unsupported s2k-usage %d", nil, sk.S2KUsage)
	}
	return sk, nil
}

func publicTagFor(tag Tag) Tag {
	if tag == TagSecretSubkey {
		return TagPublicSubkey
	}
	return TagPublicKey
}

// s2kWireLength reports how many bytes an S2K specifier occupies,
// given its leading type byte and trailing bytes. Mirrors the
// openpgp/s2k package's own decoder; duplicated narrowly here so
// secretkey.go need not import s2k for parsing purposes (it only
// needs lengths, not key derivation).
func s2kWireLength(data []byte) (int, error) {
	if len(data) < 2 {
		return 0, newError(KindMalformed, "S2K", "s2k specifier truncated", nil)
	}
	switch data[0] {
	case 0: // simple: type, hash-algo
		return 2, nil
	case 1: // salted: type, hash-algo, 8-byte salt
		if len(data) < 10 {
			return 0, newError(KindMalformed, "S2K", "salted s2k truncated", nil)
		}
		return 10, nil
	case 3: // iterated-salted: type, hash-algo, 8-byte salt, 1-byte count
		if len(data) < 11 {
			return 0, newError(KindMalformed, "S2K", "iterated s2k truncated", nil)
		}
		return 11, nil
	default:
		return 0, newError(KindUnsupportedAlg, "S2K", "unknown s2k type %d", nil, data[0])
	}
}
