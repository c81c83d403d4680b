package packet

import (
	"bytes"
	"io"
)

// PKESKPacket is the decoded body of a tag-1 packet: a session key
// encrypted to a specific recipient's public key. A SUPPLEMENTED
// FEATURE (spec.md names the tag but defers detail to "secret-key S2K
// reuse").
type PKESKPacket struct {
	Version    uint8
	KeyID      [8]byte
	PubKeyAlgo PublicKeyAlgorithm
	// EncryptedMPIs holds the algorithm-specific encrypted session-key
	// MPI(s): one (RSA) or two (ElGamal: g^k mod p, m*y^k mod p).
	EncryptedMPIs []*MPI
}

func (PKESKPacket) contentTag() Tag { return TagPKESK }

func parsePKESK(r io.Reader) (*PKESKPacket, error) {
	var hdr [10]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, newError(KindIO, "PKESK", "reading PKESK header", err)
	}
	p := &PKESKPacket{Version: hdr[0], PubKeyAlgo: PublicKeyAlgorithm(hdr[9])}
	copy(p.KeyID[:], hdr[1:9])
	if p.Version != 3 {
		return nil, newError(KindUnsupportedPacket, "PKESK", "unsupported PKESK version %d", nil, p.Version)
	}
	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(KindIO, "PKESK", "reading PKESK session key", err)
	}
	mpis, err := readAllMPIs(rest)
	if err != nil {
		return nil, err
	}
	p.EncryptedMPIs = mpis
	return p, nil
}

func writePKESK(p *PKESKPacket) []byte {
	var b buffer
	b.addByte(p.Version)
	b.addBytes(p.KeyID[:])
	b.addByte(byte(p.PubKeyAlgo))
	for _, m := range p.EncryptedMPIs {
		b.data = m.Encode(b.data)
	}
	return b.Bytes()
}

// SKESKPacket is the decoded body of a tag-3 packet: a passphrase-
// derived session key, optionally itself encrypting a randomly
// generated session key. A SUPPLEMENTED FEATURE.
type SKESKPacket struct {
	Version    uint8
	CipherAlgo SymmetricAlgorithm
	S2K        *S2KSpecifier
	// EncryptedSessionKey is present when a random session key (rather
	// than the S2K-derived key itself) is used; empty otherwise.
	EncryptedSessionKey []byte
}

func (SKESKPacket) contentTag() Tag { return TagSKESK }

// ParseSKESKBody is the exported form of parseSKESK, used by the
// openpgp facade to decode an SKESK packet body it already holds in
// memory, mirroring ParseSecretKeyBody.
func ParseSKESKBody(body []byte) (*SKESKPacket, error) {
	return parseSKESK(bytes.NewReader(body))
}

func parseSKESK(r io.Reader) (*SKESKPacket, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(KindIO, "SKESK", "reading SKESK body", err)
	}
	if len(body) < 2 {
		return nil, newError(KindMalformed, "SKESK", "SKESK packet too short", nil)
	}
	p := &SKESKPacket{Version: body[0], CipherAlgo: SymmetricAlgorithm(body[1])}
	if p.Version != 4 {
		return nil, newError(KindUnsupportedPacket, "SKESK", "unsupported SKESK version %d", nil, p.Version)
	}
	rest := body[2:]
	s2kLen, err := s2kWireLength(rest)
	if err != nil {
		return nil, err
	}
	p.S2K = &S2KSpecifier{Type: rest[0], Raw: append([]byte{}, rest[:s2kLen]...)}
	p.EncryptedSessionKey = append([]byte{}, rest[s2kLen:]...)
	return p, nil
}

func writeSKESK(p *SKESKPacket) []byte {
	var b buffer
	b.addByte(p.Version)
	b.addByte(byte(p.CipherAlgo))
	b.addBytes(p.S2K.Raw)
	b.addBytes(p.EncryptedSessionKey)
	return b.Bytes()
}

// SymmetricallyEncryptedPacket is the decoded body of a tag-9 (legacy,
// no integrity) or tag-18 (MDC-protected) packet. The opaque
// ciphertext is left for the caller to decrypt with the session key;
// the decrypted plaintext is itself a packet stream. The Parser does
// not decrypt or re-parse it; openpgp.Decrypt decrypts it in memory
// and parses the result.
type SymmetricallyEncryptedPacket struct {
	MDC        bool // true for tag 18
	Ciphertext []byte
}

func (s SymmetricallyEncryptedPacket) contentTag() Tag {
	if s.MDC {
		return TagSymEncryptedIntegrity
	}
	return TagSymmetricallyEncrypted
}

// ParseSymmetricallyEncryptedBody is the exported form of
// parseSymmetricallyEncrypted, used by the openpgp facade to decode a
// tag-9/18 packet body it already holds in memory.
func ParseSymmetricallyEncryptedBody(body []byte, mdc bool) (*SymmetricallyEncryptedPacket, error) {
	return parseSymmetricallyEncrypted(bytes.NewReader(body), mdc)
}

func parseSymmetricallyEncrypted(r io.Reader, mdc bool) (*SymmetricallyEncryptedPacket, error) {
	p := &SymmetricallyEncryptedPacket{MDC: mdc}
	if mdc {
		var ver [1]byte
		if _, err := io.ReadFull(r, ver[:]); err != nil {
			return nil, newError(KindIO, "SEIP", "reading SEIP version", err)
		}
		if ver[0] != 1 {
			return nil, newError(KindUnsupportedPacket, "SEIP", "unsupported SEIP version %d", nil, ver[0])
		}
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(KindIO, "SEIP", "reading ciphertext", err)
	}
	p.Ciphertext = body
	return p, nil
}

func writeSymmetricallyEncrypted(p *SymmetricallyEncryptedPacket) []byte {
	if !p.MDC {
		return append([]byte{}, p.Ciphertext...)
	}
	out := make([]byte, 0, 1+len(p.Ciphertext))
	out = append(out, 1)
	return append(out, p.Ciphertext...)
}

// MDCPacket is the decoded body of a tag-19 packet: a 20-byte SHA-1
// hash of the preceding plaintext (including its own tag+length
// prefix), terminating a tag-18 payload. A SUPPLEMENTED FEATURE,
// grounded on symmetrically_encrypted.go's seMDCReader.
type MDCPacket struct {
	Hash [20]byte
}

func (MDCPacket) contentTag() Tag { return TagMDC }

func parseMDC(r io.Reader) (*MDCPacket, error) {
	m := &MDCPacket{}
	if _, err := io.ReadFull(r, m.Hash[:]); err != nil {
		return nil, newError(KindMalformed, "MDC", "reading MDC hash", err)
	}
	return m, nil
}

func writeMDC(m *MDCPacket) []byte {
	return append([]byte{}, m.Hash[:]...)
}

// CompressedPacket is the decoded body of a tag-8 packet: an
// algorithm byte followed by a compressed substream holding further
// packets. The parser (Parser.parseCompressedBody, in packet.go)
// pushes a decompression reader layer over the remaining region and
// recursively invokes itself (spec section 4.E), dispatching the
// decompressed packets through the usual Handlers chain rather than
// buffering them here — CompressedPacket itself only records which
// algorithm was used.
type CompressedPacket struct {
	Algo CompressionAlgorithm
}

func (CompressedPacket) contentTag() Tag { return TagCompressed }

func writeCompressedHeader(algo CompressionAlgorithm) []byte {
	return []byte{byte(algo)}
}
