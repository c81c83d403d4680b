package openpgp

import (
	"crypto"
	"crypto/dsa"
	"crypto/rand"
	"crypto/rsa"
	"math/big"

	"golang.org/x/crypto/ed25519"
	"golang.org/x/crypto/openpgp/elgamal"

	"nullprogram.com/x/openpgp/packet"
)

// Verifier checks a signature's MPIs against a digest for one
// PublicKeyAlgorithm. The module treats crypto primitives as opaque
// (spec.md §1's "algorithm primitives... are external black boxes");
// this file is the one place those black boxes are named concretely,
// dispatched by algorithm ID rather than hardcoded to Ed25519 the way
// signkey.go's sign()/Load() are.
type Verifier func(pub *packet.PublicKeyPacket, hashAlgo packet.HashAlgorithm, digest []byte, sigMPIs []*packet.MPI) error

var verifiers = map[packet.PublicKeyAlgorithm]Verifier{
	packet.PubKeyRSAEncryptSign: verifyRSA,
	packet.PubKeyRSASignOnly:    verifyRSA,
	packet.PubKeyDSA:            verifyDSA,
	packet.PubKeyEdDSA:          verifyEdDSA,
}

// VerifySignature checks a signature packet's MPIs against a
// pre-computed digest, dispatching on the public key's algorithm.
// Returns packet.ErrUnsupportedAlg for algorithms with no wired
// primitive (e.g. ECDSA, EdDSA over Curve448).
func VerifySignature(pub *packet.PublicKeyPacket, sig *packet.SignaturePacket, digest []byte) error {
	v, ok := verifiers[pub.PubKeyAlgo]
	if !ok {
		return packet.ErrUnsupportedAlg
	}
	return v(pub, sig.HashAlgo, digest, sig.MPIs)
}

func verifyRSA(pub *packet.PublicKeyPacket, _ packet.HashAlgorithm, digest []byte, sigMPIs []*packet.MPI) error {
	if len(pub.MPIs) != 2 || len(sigMPIs) != 1 {
		return packet.ErrUnsupportedAlg
	}
	key := &rsa.PublicKey{
		N: pub.MPIs[0].Int(),
		E: int(pub.MPIs[1].Int().Int64()),
	}
	// The MPI drops leading zero bytes; crypto/rsa needs the signature
	// at the modulus's full byte length.
	sig := leftPad(sigMPIs[0].Bytes(), (key.N.BitLen()+7)/8)
	return rsa.VerifyPKCS1v15(key, cryptoHashFor(len(digest)), digest, sig)
}

func cryptoHashFor(digestLen int) crypto.Hash {
	switch digestLen {
	case 20:
		return crypto.SHA1
	case 28:
		return crypto.SHA224
	case 32:
		return crypto.SHA256
	case 48:
		return crypto.SHA384
	case 64:
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}

func verifyDSA(pub *packet.PublicKeyPacket, _ packet.HashAlgorithm, digest []byte, sigMPIs []*packet.MPI) error {
	if len(pub.MPIs) != 4 || len(sigMPIs) != 2 {
		return packet.ErrUnsupportedAlg
	}
	key := &dsa.PublicKey{
		Parameters: dsa.Parameters{
			P: pub.MPIs[0].Int(),
			Q: pub.MPIs[1].Int(),
			G: pub.MPIs[2].Int(),
		},
		Y: pub.MPIs[3].Int(),
	}
	// DSA verification hashes at most Q's bit length; truncate per
	// RFC 4880 section 5.2.2.
	qBytes := (key.Q.BitLen() + 7) / 8
	if len(digest) > qBytes {
		digest = digest[:qBytes]
	}
	if !dsa.Verify(key, digest, sigMPIs[0].Int(), sigMPIs[1].Int()) {
		return packet.ErrBadCrypto
	}
	return nil
}

func verifyEdDSA(pub *packet.PublicKeyPacket, _ packet.HashAlgorithm, digest []byte, sigMPIs []*packet.MPI) error {
	if len(pub.MPIs) != 1 || len(sigMPIs) != 2 {
		return packet.ErrUnsupportedAlg
	}
	point := leftPad(pub.MPIs[0].Bytes(), 33)
	if len(point) != 33 || point[0] != 0x40 {
		return packet.ErrUnsupportedAlg
	}
	pubkey := ed25519.PublicKey(point[1:])
	r := leftPad(sigMPIs[0].Bytes(), 32)
	s := leftPad(sigMPIs[1].Bytes(), 32)
	sig := append(append([]byte{}, r...), s...)
	if !ed25519.Verify(pubkey, digest, sig) {
		return packet.ErrBadCrypto
	}
	return nil
}

// ElgamalEncryptSessionKey encrypts a symmetric session key to an
// ElGamal public key, used by PKESK construction for recipients whose
// encryption subkey uses algorithm 16. Grounded on
// golang.org/x/crypto/openpgp/elgamal, part of the teacher's own
// module (golang.org/x/crypto) though not exercised by the vendored
// signkey.go, which only ever produces Ed25519/X25519 keys.
func ElgamalEncryptSessionKey(pub *packet.PublicKeyPacket, sessionKey []byte) (c1, c2 *big.Int, err error) {
	if len(pub.MPIs) != 3 {
		return nil, nil, packet.ErrUnsupportedAlg
	}
	key := &elgamal.PublicKey{
		P: pub.MPIs[0].Int(),
		G: pub.MPIs[1].Int(),
		Y: pub.MPIs[2].Int(),
	}
	return elgamal.Encrypt(rand.Reader, key, sessionKey)
}
