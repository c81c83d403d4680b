package openpgp

import (
	"crypto"
	"crypto/dsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	"nullprogram.com/x/openpgp/packet"
)

func TestVerifyRSADispatch(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("payload"))
	sigBytes, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	require.NoError(t, err)

	pub := &packet.PublicKeyPacket{
		PubKeyAlgo: packet.PubKeyRSAEncryptSign,
		MPIs: []*packet.MPI{
			packet.NewMPI(priv.PublicKey.N),
			packet.NewMPI(big.NewInt(int64(priv.PublicKey.E))),
		},
	}
	sig := &packet.SignaturePacket{
		PubKeyAlgo: packet.PubKeyRSAEncryptSign,
		HashAlgo:   packet.HashSHA256,
		MPIs:       []*packet.MPI{mpiFromBytes(sigBytes)},
	}
	require.NoError(t, VerifySignature(pub, sig, digest[:]))
}

func TestVerifyDSADispatch(t *testing.T) {
	var params dsa.Parameters
	require.NoError(t, dsa.GenerateParameters(&params, rand.Reader, dsa.L1024N160))
	var priv dsa.PrivateKey
	priv.Parameters = params
	require.NoError(t, dsa.GenerateKey(&priv, rand.Reader))

	digest := sha256.Sum256([]byte("payload"))
	r, s, err := dsa.Sign(rand.Reader, &priv, digest[:20])
	require.NoError(t, err)

	pub := &packet.PublicKeyPacket{
		PubKeyAlgo: packet.PubKeyDSA,
		MPIs: []*packet.MPI{
			packet.NewMPI(priv.P),
			packet.NewMPI(priv.Q),
			packet.NewMPI(priv.G),
			packet.NewMPI(priv.Y),
		},
	}
	sig := &packet.SignaturePacket{
		PubKeyAlgo: packet.PubKeyDSA,
		HashAlgo:   packet.HashSHA256,
		MPIs:       []*packet.MPI{packet.NewMPI(r), packet.NewMPI(s)},
	}
	require.NoError(t, VerifySignature(pub, sig, digest[:]))
}

func TestVerifyEdDSADispatch(t *testing.T) {
	pubkey, privkey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("payload"))
	sigBytes := ed25519.Sign(privkey, digest[:])

	point := append([]byte{0x40}, pubkey...)
	pub := &packet.PublicKeyPacket{
		PubKeyAlgo: packet.PubKeyEdDSA,
		MPIs:       []*packet.MPI{mpiFromBytes(point)},
	}
	sig := &packet.SignaturePacket{
		PubKeyAlgo: packet.PubKeyEdDSA,
		HashAlgo:   packet.HashSHA256,
		MPIs:       []*packet.MPI{mpiFromBytes(sigBytes[:32]), mpiFromBytes(sigBytes[32:])},
	}
	require.NoError(t, VerifySignature(pub, sig, digest[:]))
}

func TestVerifySignatureUnsupportedAlgorithm(t *testing.T) {
	pub := &packet.PublicKeyPacket{PubKeyAlgo: packet.PubKeyElgamal}
	sig := &packet.SignaturePacket{PubKeyAlgo: packet.PubKeyElgamal}
	require.ErrorIs(t, VerifySignature(pub, sig, []byte("digest")), packet.ErrUnsupportedAlg)
}

func mpiFromBytes(b []byte) *packet.MPI {
	return packet.NewMPI(new(big.Int).SetBytes(b))
}
