// Package openpgp is the consumer-facing facade over the
// packet/s2k/armor packages: Sign, Verify, Encrypt, Decrypt,
// Clearsign and Dearmor, shaped after spec.md section 6's "Consumer
// API (shape, not signature)" and grounded on
// KAction-passphrase2pgp/openpgp/signkey.go's concrete EdDSA
// implementation, generalized to the algorithm-dispatch table in
// pubkey.go.
package openpgp

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"nullprogram.com/x/openpgp/armor"
	"nullprogram.com/x/openpgp/packet"
)

// Sign produces a detached binary-document signature packet for src
// under key, armored as a PGP SIGNATURE block.
func Sign(key *SignKey, src io.Reader) ([]byte, error) {
	sig, err := key.Sign(src)
	if err != nil {
		return nil, errors.Wrap(err, "openpgp: sign")
	}
	var buf bytes.Buffer
	if err := armor.Encode(&buf, armor.TypeSignature, nil, sig); err != nil {
		return nil, errors.Wrap(err, "openpgp: armor signature")
	}
	return buf.Bytes(), nil
}

// Clearsign wraps src in a cleartext-signed message, armored
// detached-signature trailer included.
func Clearsign(key *SignKey, src io.Reader) (io.ReadCloser, error) {
	return key.Clearsign(src), nil
}

// Dearmor strips ASCII armor from data, returning the decoded block.
// A detached-signature caller typically wants block.Bytes fed to
// Verify alongside the original signed data.
func Dearmor(data []byte) (*armor.Block, error) {
	block, _, err := armor.Decode(data)
	if err != nil {
		return nil, errors.Wrap(err, "openpgp: dearmor")
	}
	if block == nil {
		return nil, errors.New("openpgp: no armor data found")
	}
	return block, nil
}

// ParseSignature decodes a single (possibly armored) signature packet.
func ParseSignature(data []byte) (*packet.SignaturePacket, error) {
	if bytes.HasPrefix(bytes.TrimLeft(data, "\r\n\t "), []byte("-----BEGIN")) {
		block, err := Dearmor(data)
		if err != nil {
			return nil, err
		}
		data = block.Bytes
	}
	raw, _, err := packet.ParsePacket(data)
	if err != nil {
		return nil, errors.Wrap(err, "openpgp: parse signature packet")
	}
	if raw.Tag != packet.TagSignature {
		return nil, errors.New("openpgp: not a signature packet")
	}
	var collected *packet.SignaturePacket
	p := packet.NewParser()
	p.SetSource(bytes.NewReader(data))
	p.SetCallback(func(ev packet.Event) packet.Disposition {
		if ev.Kind == packet.EventContent {
			if sig, ok := ev.Content.(*packet.SignaturePacket); ok {
				collected = sig
			}
		}
		return packet.Continue
	})
	if err := p.Parse(); err != nil {
		return nil, errors.Wrap(err, "openpgp: parse signature packet")
	}
	if collected == nil {
		return nil, errors.New("openpgp: no signature packet found")
	}
	return collected, nil
}

// ParsePublicKey decodes a single (possibly armored) public key packet.
func ParsePublicKey(data []byte) (*packet.PublicKeyPacket, error) {
	if bytes.HasPrefix(bytes.TrimLeft(data, "\r\n\t "), []byte("-----BEGIN")) {
		block, err := Dearmor(data)
		if err != nil {
			return nil, err
		}
		data = block.Bytes
	}
	var collected *packet.PublicKeyPacket
	p := packet.NewParser()
	p.SetSource(bytes.NewReader(data))
	p.SetCallback(func(ev packet.Event) packet.Disposition {
		if ev.Kind == packet.EventContent {
			if pk, ok := ev.Content.(*packet.PublicKeyPacket); ok && collected == nil {
				collected = pk
			}
		}
		return packet.Continue
	})
	if err := p.Parse(); err != nil {
		return nil, errors.Wrap(err, "openpgp: parse public key packet")
	}
	if collected == nil {
		return nil, errors.New("openpgp: no public key packet found")
	}
	return collected, nil
}

// Verify checks sig against data using pub, recomputing the digest
// the same way SignKey.sign does at sign time (and
// packet.HashAccumulator.FinishV4 does during a parse): hash the
// message, then append the signature's HashSuffix trailer before the
// final Sum.
func Verify(pub *packet.PublicKeyPacket, sig *packet.SignaturePacket, data io.Reader) error {
	h := packet.NewHash(sig.HashAlgo)
	if h == nil {
		return packet.ErrUnsupportedAlg
	}
	if _, err := io.Copy(h, data); err != nil {
		return errors.Wrap(err, "openpgp: hashing signed data")
	}
	h.Write(sig.HashSuffix)
	digest := h.Sum(nil)
	if digest[0] != sig.LeftHashBits[0] || digest[1] != sig.LeftHashBits[1] {
		return packet.ErrBadCrypto
	}
	if err := VerifySignature(pub, sig, digest); err != nil {
		return errors.Wrap(err, "openpgp: verify signature")
	}
	return nil
}

// VerifyClearsigned checks a cleartext-signed message produced by
// SignKey.Clearsign, returning the (dash-unescaped) signed text on
// success.
func VerifyClearsigned(pub *packet.PublicKeyPacket, data []byte) (string, error) {
	_, text, sigArmor, err := armor.CleartextSplit(data)
	if err != nil {
		return "", errors.Wrap(err, "openpgp: split cleartext message")
	}
	sig, err := ParseSignature(sigArmor)
	if err != nil {
		return "", err
	}
	if err := Verify(pub, sig, bytes.NewReader(clearsignDigestInput(text))); err != nil {
		return "", err
	}
	return text, nil
}

// clearsignDigestInput reproduces the CRLF line-ending, trailing-
// whitespace-stripped byte stream SignKey.Clearsign hashed, from the
// dash-unescaped text CleartextSplit recovers.
func clearsignDigestInput(text string) []byte {
	lines := bytes.Split([]byte(text), []byte("\n"))
	if len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	var out bytes.Buffer
	for i, line := range lines {
		for len(line) > 0 && (line[len(line)-1] == ' ' || line[len(line)-1] == '\t') {
			line = line[:len(line)-1]
		}
		if i > 0 {
			out.WriteString("\r\n")
		}
		out.Write(line)
	}
	return out.Bytes()
}
