package packet

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildV4SignatureBody(sigType SignatureType, pkAlgo PublicKeyAlgorithm, hashAlgo HashAlgorithm, created uint32) []byte {
	var hashed buffer
	hashed.addByte(5) // subpacket length (1 type byte + 4 data bytes)
	hashed.addByte(byte(SubCreationTime))
	hashed.addUint(created, 4)

	var b buffer
	b.addByte(4)
	b.addByte(byte(sigType))
	b.addByte(byte(pkAlgo))
	b.addByte(byte(hashAlgo))
	b.addUint(uint32(hashed.Len()), 2)
	b.addBytes(hashed.Bytes())
	b.addUint(0, 2) // no unhashed subpackets
	b.addBytes([]byte{0xaa, 0xbb})
	b.addMPI([]byte{0x01, 0x02, 0x03})
	return b.Bytes()
}

func TestParseSignatureV4HashSuffixMatchesRFCTrailer(t *testing.T) {
	body := buildV4SignatureBody(SigBinary, PubKeyRSAEncryptSign, HashSHA256, 1_700_000_000)

	sig, err := parseSignatureBody(body, 0)
	require.NoError(t, err)
	require.Equal(t, SigBinary, sig.SigType)
	require.Equal(t, PubKeyRSAEncryptSign, sig.PubKeyAlgo)
	require.Equal(t, HashSHA256, sig.HashAlgo)
	require.Equal(t, uint32(1_700_000_000), sig.CreationTime)
	require.Equal(t, [2]byte{0xaa, 0xbb}, sig.LeftHashBits)

	const hashedRegionLen = 6 // one subpacket: 1 length byte + 1 type byte + 4 data bytes
	wantPrefix := body[:6+hashedRegionLen]
	wantLen := uint32(len(wantPrefix))
	wantTrailer := []byte{4, 0xff, byte(wantLen >> 24), byte(wantLen >> 16), byte(wantLen >> 8), byte(wantLen)}
	require.Equal(t, append(append([]byte{}, wantPrefix...), wantTrailer...), sig.HashSuffix)
}

func TestParseSignatureV4RejectsTruncatedHashedRegion(t *testing.T) {
	body := buildV4SignatureBody(SigBinary, PubKeyRSAEncryptSign, HashSHA256, 1_700_000_000)
	binary.BigEndian.PutUint16(body[4:6], 200) // claim far more hashed data than present
	_, err := parseSignatureBody(body, 0)
	require.Error(t, err)
}

func TestParseSignatureV3(t *testing.T) {
	var b buffer
	b.addByte(3)
	b.addByte(5) // hashed material length, fixed
	b.addByte(byte(SigBinary))
	b.addUint(1_700_000_000, 4)
	b.addBytes([]byte{1, 2, 3, 4, 5, 6, 7, 8}) // key id
	b.addByte(byte(PubKeyRSAEncryptSign))
	b.addByte(byte(HashSHA256))
	b.addBytes([]byte{0xaa, 0xbb})
	b.addMPI([]byte{0x01})

	sig, err := parseSignatureBody(b.Bytes(), 0)
	require.NoError(t, err)
	require.Equal(t, uint8(3), sig.Version)
	require.Equal(t, [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, sig.V3Signer)
	keyID, ok := sig.IssuerKeyID()
	require.True(t, ok)
	require.Equal(t, [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, keyID)
}

func TestParseSignatureUnsupportedVersion(t *testing.T) {
	_, err := parseSignatureBody([]byte{9, 1, 2, 3}, 0)
	require.Error(t, err)
}

func TestParseSignatureRejectsV5RatherThanMishash(t *testing.T) {
	// v5's layout differs from v4's (notably a larger hash preview and
	// a different HashSuffix trailer); feeding it through
	// parseSignatureV4 would compute the wrong digest silently, so v5
	// must be rejected outright instead.
	body := buildV4SignatureBody(SigBinary, PubKeyRSAEncryptSign, HashSHA256, 1_700_000_000)
	body[0] = 5

	_, err := parseSignatureBody(body, 0)
	require.Error(t, err)

	perr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, KindUnsupportedPacket, perr.Kind)
}
