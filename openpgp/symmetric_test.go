package openpgp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	passphrase := []byte("correct horse battery staple")
	plaintext := []byte("the treasure is buried under the old oak tree")

	armored, err := Encrypt(passphrase, bytes.NewReader(plaintext))
	require.NoError(t, err)
	require.Contains(t, string(armored), "BEGIN PGP MESSAGE")

	recovered, err := Decrypt(passphrase, armored)
	require.NoError(t, err)
	require.Equal(t, plaintext, recovered)
}

func TestDecryptRejectsWrongPassphrase(t *testing.T) {
	armored, err := Encrypt([]byte("right one"), bytes.NewReader([]byte("payload")))
	require.NoError(t, err)

	_, err = Decrypt([]byte("wrong one"), armored)
	require.Error(t, err)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	armored, err := Encrypt([]byte("passphrase"), bytes.NewReader([]byte("payload")))
	require.NoError(t, err)

	block, err := Dearmor(armored)
	require.NoError(t, err)
	tampered := append([]byte{}, block.Bytes...)
	tampered[len(tampered)-1] ^= 0xff

	_, err = Decrypt([]byte("passphrase"), tampered)
	require.Error(t, err)
}
