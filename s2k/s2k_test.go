package s2k

import (
	"crypto/sha1"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeCountKnownValues(t *testing.T) {
	// Spot-check the formula at both ends of the octet range against
	// hand-computed values.
	require.Equal(t, (16+0)<<(0+6), DecodeCount(0x00))
	require.Equal(t, (16+15)<<(15+6), DecodeCount(0xff))
}

func TestEncodeCountRoundTripsAboveTarget(t *testing.T) {
	for _, want := range []int{1024, 65536, 1 << 20} {
		c := EncodeCount(want)
		require.GreaterOrEqual(t, DecodeCount(c), want)
	}
}

func TestParseEncodeSimple(t *testing.T) {
	wire := []byte{byte(ModeSimple), 2}
	sp, rest, err := Parse(wire)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, wire, sp.Encode())
}

func TestParseEncodeSalted(t *testing.T) {
	salt := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	wire := append([]byte{byte(ModeSalted), 8}, salt...)
	sp, rest, err := Parse(wire)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, salt, sp.Salt)
	require.Equal(t, wire, sp.Encode())
}

func TestParseEncodeIteratedSalted(t *testing.T) {
	salt := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	wire := append(append([]byte{byte(ModeIteratedSalted), 8}, salt...), 0x60)
	sp, rest, err := Parse(wire)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, byte(0x60), sp.Count)
	require.Equal(t, wire, sp.Encode())
}

func TestParseTruncated(t *testing.T) {
	_, _, err := Parse([]byte{byte(ModeSalted), 8, 1, 2})
	require.Error(t, err)
}

func TestParseUnsupportedMode(t *testing.T) {
	_, _, err := Parse([]byte{42, 8})
	require.Error(t, err)
}

func TestDeriveSimpleMatchesOneDigest(t *testing.T) {
	sp := &Specifier{Mode: ModeSimple, HashAlgo: 2} // SHA-1, 20-byte digest
	out := sp.Derive([]byte("hunter2"), 20)
	require.Len(t, out, 20)
	want := sha1.Sum([]byte("hunter2"))
	require.Equal(t, want[:], out)
}

func TestDeriveExtendsAcrossMultipleDigests(t *testing.T) {
	sp := &Specifier{Mode: ModeSimple, HashAlgo: 2} // SHA-1, 20-byte digest
	out := sp.Derive([]byte("hunter2"), 32)
	require.Len(t, out, 32)
}

func TestSimpleIteratedSaltedMatchesDeriveForEquivalentInput(t *testing.T) {
	passphrase := []byte("correct horse battery staple")
	salt := []byte{9, 8, 7, 6, 5, 4, 3, 2}
	count := DecodeCount(0x60)

	got := SimpleIteratedSalted(passphrase, salt, count)

	sp := &Specifier{Mode: ModeIteratedSalted, HashAlgo: 8, Salt: salt, Count: 0x60}
	want := sp.Derive(passphrase, 32)
	require.Equal(t, want, got)
}
