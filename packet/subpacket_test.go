package packet

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSubpacketEncodeDecodeRoundTrip(t *testing.T) {
	want := []Subpacket{
		{Type: SubCreationTime, Data: []byte{0x65, 0x00, 0x00, 0x00}},
		{Type: SubIssuer, Critical: true, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{Type: SubExpirationTime, Data: []byte{0, 0, 1, 0}},
	}

	encoded := encodeSubpackets(want)
	got, err := parseSubpackets(encoded, 0)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("subpacket round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSubpacketLongLengthRoundTrip(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}
	want := []Subpacket{{Type: SubpacketType(100), Data: data}}

	encoded := encodeSubpackets(want)
	got, err := parseSubpackets(encoded, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, data, got[0].Data)
}
