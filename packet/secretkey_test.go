package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func rsaPublicKeyBody(created uint32) []byte {
	pub := &PublicKeyPacket{
		Version:      4,
		CreationTime: created,
		PubKeyAlgo:   PubKeyRSAEncryptSign,
		MPIs: []*MPI{
			{bytes: []byte{0x01, 0x02, 0x03}, bitLen: bitLen([]byte{0x01, 0x02, 0x03})},
			{bytes: []byte{0x03}, bitLen: bitLen([]byte{0x03})},
		},
	}
	return writePublicKey(pub)
}

func TestParseSecretKeyBodyCleartext(t *testing.T) {
	body := rsaPublicKeyBody(1_700_000_000)

	var b buffer
	b.addBytes(body)
	b.addByte(byte(S2KUsageCleartext))
	b.addMPI([]byte{0x0a, 0x0b})
	b.addBytes([]byte{0x00, 0x00}) // checksum, value irrelevant for this test

	sk, err := parseSecretKeyBody(b.Bytes(), TagSecretKey)
	require.NoError(t, err)
	require.Equal(t, S2KUsageCleartext, sk.S2KUsage)
	require.Len(t, sk.PlainSecretMPIs, 1)
	require.Equal(t, []byte{0x0a, 0x0b}, sk.PlainSecretMPIs[0].Bytes())
	require.Equal(t, PubKeyRSAEncryptSign, sk.Public.PubKeyAlgo)
}

func TestParseSecretKeyBodySHA1ChecksummedIteratedSalted(t *testing.T) {
	body := rsaPublicKeyBody(1_700_000_000)
	salt := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	var b buffer
	b.addBytes(body)
	b.addByte(byte(S2KUsageSHA1Checksummed))
	b.addByte(byte(CipherAES256))
	b.addByte(3) // iterated-salted
	b.addByte(8) // SHA-256
	b.addBytes(salt)
	b.addByte(0x60) // encoded count
	b.addBytes(make([]byte, 16)) // IV, AES block size
	b.addBytes([]byte{0xde, 0xad, 0xbe, 0xef})

	sk, err := parseSecretKeyBody(b.Bytes(), TagSecretKey)
	require.NoError(t, err)
	require.Equal(t, S2KUsageSHA1Checksummed, sk.S2KUsage)
	require.Equal(t, CipherAES256, sk.CipherAlgo)
	require.NotNil(t, sk.S2K)
	require.Equal(t, byte(3), sk.S2K.Type)
	require.Len(t, sk.S2K.Raw, 11)
	require.Equal(t, byte(8), sk.S2K.Raw[1])
	require.Equal(t, salt, sk.S2K.Raw[2:10])
	require.Equal(t, byte(0x60), sk.S2K.Raw[10])
	require.Len(t, sk.IV, 16)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, sk.EncryptedData)
}

func TestParseSecretKeyBodyUnsupportedUsage(t *testing.T) {
	body := rsaPublicKeyBody(1_700_000_000)
	var b buffer
	b.addBytes(body)
	b.addByte(42) // not a recognized S2KUsage value
	_, err := parseSecretKeyBody(b.Bytes(), TagSecretKey)
	require.Error(t, err)
}
