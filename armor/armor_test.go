package armor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC24KnownVector(t *testing.T) {
	// RFC 4880 section 6.1's example: CRC-24 of an empty string is the
	// init value itself.
	require.Equal(t, uint32(crc24Init), CRC24(nil))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 5)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, TypeMessage, map[string]string{"Version": "pgpkit"}, payload))

	block, rest, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Empty(t, bytes.TrimSpace(rest))
	require.Equal(t, TypeMessage, block.Type)
	require.Equal(t, "pgpkit", block.Headers["Version"])
	require.Equal(t, payload, block.Bytes)
}

func TestDecodeNoArmorFound(t *testing.T) {
	block, rest, err := Decode([]byte("just some plain text"))
	require.NoError(t, err)
	require.Nil(t, block)
	require.Equal(t, []byte("just some plain text"), rest)
}

func TestDecodeRejectsBadCRC(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, TypeMessage, nil, []byte("hello")))
	// Flip the first base64 body character (just after the blank line
	// separating headers from data) without touching the CRC trailer.
	corrupted := bytes.Replace(buf.Bytes(), []byte("aGVsbG8="), []byte("bGVsbG8="), 1)
	require.NotEqual(t, buf.Bytes(), corrupted)
	_, _, err := Decode(corrupted)
	require.Error(t, err)
	var badArmor *ErrBadArmor
	require.ErrorAs(t, err, &badArmor)
}

func TestCleartextSplitReversesDashEscaping(t *testing.T) {
	msg := "-----BEGIN PGP SIGNED MESSAGE-----\n" +
		"Hash: SHA256\n" +
		"\n" +
		"- this line was dash-escaped\n" +
		"a normal line\n" +
		"-----BEGIN PGP SIGNATURE-----\n" +
		"\n" +
		"=AAAA\n" +
		"-----END PGP SIGNATURE-----\n"

	hashHeader, text, sigArmor, err := CleartextSplit([]byte(msg))
	require.NoError(t, err)
	require.Equal(t, "Hash: SHA256", hashHeader)
	require.Contains(t, text, "this line was dash-escaped")
	require.NotContains(t, text, "- this line")
	require.Contains(t, string(sigArmor), "BEGIN PGP SIGNATURE")
}

func TestCleartextSplitMissingHeaderIsBadArmor(t *testing.T) {
	_, _, _, err := CleartextSplit([]byte("not a cleartext message"))
	require.Error(t, err)
}
