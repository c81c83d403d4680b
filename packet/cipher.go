package packet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"

	"golang.org/x/crypto/cast5"
)

// NewBlockCipher builds the cipher.Block for algo, the step every
// SKESK/PKESK session-key decrypt and SEIP encrypt/decrypt shares.
// AES comes from the standard library; CAST5 is RFC 4880's mandatory
// algorithm and has no standard-library implementation, so it comes
// from golang.org/x/crypto/cast5. Triple-DES is carried for legacy
// interoperability via crypto/des.
func NewBlockCipher(algo SymmetricAlgorithm, key []byte) (cipher.Block, error) {
	switch algo {
	case CipherCAST5:
		return cast5.NewCipher(key)
	case CipherAES128, CipherAES192, CipherAES256:
		return aes.NewCipher(key)
	case Cipher3DES:
		return des.NewTripleDESCipher(key)
	default:
		return nil, newError(KindUnsupportedAlg, "CIPHER", "unsupported symmetric algorithm %d", nil, algo)
	}
}
