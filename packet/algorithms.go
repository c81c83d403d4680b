package packet

// PublicKeyAlgorithm identifies an OpenPGP public-key algorithm,
// RFC 4880 section 9.1.
type PublicKeyAlgorithm uint8

const (
	PubKeyRSAEncryptSign PublicKeyAlgorithm = 1
	PubKeyRSAEncryptOnly PublicKeyAlgorithm = 2
	PubKeyRSASignOnly    PublicKeyAlgorithm = 3
	PubKeyElgamal        PublicKeyAlgorithm = 16
	PubKeyDSA            PublicKeyAlgorithm = 17
	PubKeyECDH           PublicKeyAlgorithm = 18 // RFC 4880bis ECC encryption, curve-OID-prefixed MPI + KDF params
	PubKeyECDSA          PublicKeyAlgorithm = 19 // RFC 4880bis ECC signing, curve-OID-prefixed MPI
	PubKeyEdDSA          PublicKeyAlgorithm = 22 // RFC 4880bis, as used by the teacher's Ed25519 keys
)

// isECC reports whether a public-key algorithm's public material is
// encoded as a curve OID followed by an MPI point, rather than a plain
// sequence of MPIs.
func (a PublicKeyAlgorithm) isECC() bool {
	return a == PubKeyECDH || a == PubKeyECDSA || a == PubKeyEdDSA
}

// SymmetricAlgorithm identifies an OpenPGP symmetric cipher,
// RFC 4880 section 9.2.
type SymmetricAlgorithm uint8

const (
	CipherPlaintext SymmetricAlgorithm = 0
	CipherIDEA      SymmetricAlgorithm = 1
	Cipher3DES      SymmetricAlgorithm = 2
	CipherCAST5     SymmetricAlgorithm = 3
	CipherAES128    SymmetricAlgorithm = 7
	CipherAES192    SymmetricAlgorithm = 8
	CipherAES256    SymmetricAlgorithm = 9
)

// KeySize returns the cipher's key size in bytes, or 0 if unknown.
func (c SymmetricAlgorithm) KeySize() int {
	switch c {
	case CipherCAST5:
		return 16
	case CipherAES128:
		return 16
	case CipherAES192:
		return 24
	case CipherAES256:
		return 32
	case Cipher3DES:
		return 24
	default:
		return 0
	}
}

// BlockSize returns the cipher's block size in bytes, or 0 if unknown.
func (c SymmetricAlgorithm) BlockSize() int {
	switch c {
	case CipherCAST5, Cipher3DES, CipherIDEA:
		return 8
	case CipherAES128, CipherAES192, CipherAES256:
		return 16
	default:
		return 0
	}
}

// HashAlgorithm identifies an OpenPGP hash function, RFC 4880 section 9.4.
type HashAlgorithm uint8

const (
	HashMD5    HashAlgorithm = 1
	HashSHA1   HashAlgorithm = 2
	HashRIPEMD HashAlgorithm = 3
	HashSHA256 HashAlgorithm = 8
	HashSHA384 HashAlgorithm = 9
	HashSHA512 HashAlgorithm = 10
	HashSHA224 HashAlgorithm = 11
)

// CompressionAlgorithm identifies an OpenPGP compression method,
// RFC 4880 section 9.3.
type CompressionAlgorithm uint8

const (
	CompressionNone CompressionAlgorithm = 0
	CompressionZIP  CompressionAlgorithm = 1
	CompressionZLIB CompressionAlgorithm = 2
)

// SignatureType identifies what a signature packet covers,
// RFC 4880 section 5.2.1.
type SignatureType uint8

const (
	SigBinary              SignatureType = 0x00
	SigText                SignatureType = 0x01
	SigStandalone          SignatureType = 0x02
	SigGenericCert         SignatureType = 0x10
	SigPersonaCert         SignatureType = 0x11
	SigCasualCert          SignatureType = 0x12
	SigPositiveCert        SignatureType = 0x13
	SigSubkeyBinding       SignatureType = 0x18
	SigPrimaryKeyBinding   SignatureType = 0x19
	SigDirectKey           SignatureType = 0x1f
	SigKeyRevocation       SignatureType = 0x20
	SigSubkeyRevocation    SignatureType = 0x28
	SigCertRevocation      SignatureType = 0x30
	SigTimestamp           SignatureType = 0x40
	SigThirdPartyConfirm   SignatureType = 0x50
)
