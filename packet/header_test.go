package packet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFormatLengthRoundTrip(t *testing.T) {
	cases := []int{0, 1, 191, 192, 223, 224, 8383, 8384, 65535, 1 << 20}
	for _, n := range cases {
		enc := encodeNewLength(n)
		got, indeterminate, err := readNewLength(bytes.NewReader(enc))
		require.NoError(t, err)
		require.False(t, indeterminate)
		require.Equal(t, uint64(n), got)
	}
}

func TestReadHeaderNewFormat(t *testing.T) {
	hdr := encodeNewHeader(TagLiteral, 42)
	h, err := readHeader(bytes.NewReader(hdr))
	require.NoError(t, err)
	require.Equal(t, TagLiteral, h.tag)
	require.Equal(t, uint64(42), h.length)
	require.False(t, h.indeterminate)
	require.False(t, h.oldFormat)
}

func TestReadHeaderOldFormat(t *testing.T) {
	for _, length := range []int{5, 300, 70000} {
		hdr := encodeOldHeader(TagSignature, length, false)
		h, err := readHeader(bytes.NewReader(hdr))
		require.NoError(t, err)
		require.Equal(t, TagSignature, h.tag)
		require.Equal(t, uint64(length), h.length)
		require.True(t, h.oldFormat)
	}
}

func TestReadHeaderOldFormatIndeterminate(t *testing.T) {
	hdr := encodeOldHeader(TagLiteral, 0, true)
	h, err := readHeader(bytes.NewReader(hdr))
	require.NoError(t, err)
	require.True(t, h.indeterminate)
}

func TestEncodeOldHeaderTagDoesNotBleedIntoLengthBits(t *testing.T) {
	// TagUserAttribute (17) exceeds the 4 bits an old-format header
	// can carry, but encodeOldHeader must not let that corrupt the
	// length-type bits in the low 2 bits of the first byte.
	hdr := encodeOldHeader(TagUserAttribute, 10, false)
	require.Equal(t, byte(0), hdr[0]&0x3)
}

func TestPartialBodyLengthIsPowerOfTwo(t *testing.T) {
	b := encodePartialLength(5)
	length, indeterminate, err := readNewLength(bytes.NewReader([]byte{b}))
	require.NoError(t, err)
	require.True(t, indeterminate)
	require.Equal(t, uint64(32), length)
}
