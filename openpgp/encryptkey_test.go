package openpgp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptKeyGenerateAndPackets(t *testing.T) {
	k := &EncryptKey{}
	require.NoError(t, k.Generate(bytes.Repeat([]byte{0x7}, 32)))
	k.SetCreated(1_700_000_000)

	pub := k.PubPacket()
	require.Equal(t, byte(0xc0|14), pub[0])
	require.Equal(t, byte(len(pub)-2), pub[1])

	sec := k.Packet()
	require.Equal(t, byte(0xc0|7), sec[0])
	require.Equal(t, byte(len(sec)-2), sec[1])
}

func TestEncryptKeyBindProducesSubkeyBindingSignature(t *testing.T) {
	signKey := &SignKey{}
	signKey.Seed(bytes.Repeat([]byte{0x1}, 32))
	signKey.SetCreated(1_700_000_000)

	enc := &EncryptKey{}
	require.NoError(t, enc.Generate(bytes.Repeat([]byte{0x2}, 32)))
	enc.SetCreated(signKey.Created())

	sig := signKey.Bind(enc, signKey.Created())
	require.NotEmpty(t, sig)
	require.Equal(t, byte(0xc0|2), sig[0]) // Signature Packet
}
