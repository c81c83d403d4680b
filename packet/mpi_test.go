package packet

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMPIRoundTrip(t *testing.T) {
	values := []int64{0, 1, 255, 256, 65535, 1 << 30}
	for _, v := range values {
		m := NewMPI(big.NewInt(v))
		enc := m.Encode(nil)
		got, err := readMPI(bytes.NewReader(enc))
		require.NoError(t, err)
		require.Equal(t, v, got.Int().Int64())
	}
}

func TestMPIHighBitSetMagnitude(t *testing.T) {
	// A magnitude whose top byte has its high bit set must still
	// record the exact bit length (no spurious extra byte).
	v := new(big.Int).SetBytes([]byte{0x80, 0x01})
	m := NewMPI(v)
	require.Equal(t, 16, m.BitLen())
	enc := m.Encode(nil)
	require.Equal(t, []byte{0x00, 0x10, 0x80, 0x01}, enc)
}

func TestMpiEncodeDecodeHelpers(t *testing.T) {
	mag := []byte{0x01, 0x02, 0x03}
	enc := mpiEncode(mag)
	value, tail := mpiDecode(enc, 4)
	require.Equal(t, []byte{0x00, 0x01, 0x02, 0x03}, value)
	require.Empty(t, tail)
}

func TestMpiDecodeRejectsOversizedMagnitude(t *testing.T) {
	mag := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	enc := mpiEncode(mag)
	value, _ := mpiDecode(enc, 3)
	require.Nil(t, value)
}
