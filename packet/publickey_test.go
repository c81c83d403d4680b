package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildECDHPublicKeyBody(curveOID []byte, point []byte) []byte {
	var b buffer
	b.addByte(4) // version
	b.addUint(1_700_000_000, 4)
	b.addByte(byte(PubKeyECDH))
	b.addByte(byte(len(curveOID)))
	b.addBytes(curveOID)
	b.addMPI(point)
	kdf := []byte{1, 8, 7}
	b.addByte(byte(len(kdf)))
	b.addBytes(kdf)
	return b.Bytes()
}

func TestParsePublicKeyBodyECDH(t *testing.T) {
	curveOID := []byte{0x2b, 0x06, 0x01, 0x04, 0x01, 0x97, 0x55, 0x01, 0x05, 0x01}
	point := append([]byte{0x40}, make([]byte, 32)...)
	body := buildECDHPublicKeyBody(curveOID, point)

	pk, err := parsePublicKeyBody(body, TagPublicSubkey)
	require.NoError(t, err)
	require.Equal(t, PubKeyECDH, pk.PubKeyAlgo)
	require.Equal(t, curveOID, pk.CurveOID)
	require.Equal(t, point, pk.MPIs[0].Bytes())
	require.Equal(t, []byte{1, 8, 7}, pk.KDFParams)
}

func TestWritePublicKeyECDHRoundTrip(t *testing.T) {
	curveOID := []byte{0x2b, 0x06, 0x01, 0x04, 0x01, 0x97, 0x55, 0x01, 0x05, 0x01}
	point := append([]byte{0x40}, make([]byte, 32)...)
	pk := &PublicKeyPacket{
		Version:      4,
		CreationTime: 1_700_000_000,
		PubKeyAlgo:   PubKeyECDH,
		CurveOID:     curveOID,
		MPIs:         []*MPI{{bytes: point, bitLen: bitLen(point)}},
		KDFParams:    []byte{1, 8, 7},
	}
	encoded := writePublicKey(pk)

	reparsed, err := parsePublicKeyBody(encoded, TagPublicSubkey)
	require.NoError(t, err)
	require.Equal(t, pk.CurveOID, reparsed.CurveOID)
	require.Equal(t, pk.MPIs[0].Bytes(), reparsed.MPIs[0].Bytes())
	require.Equal(t, pk.KDFParams, reparsed.KDFParams)
}

func TestParsePublicKeyBodyEdDSA(t *testing.T) {
	curveOID := []byte{0x2b, 0x06, 0x01, 0x04, 0x01, 0xda, 0x47, 0x0f, 0x01}
	point := append([]byte{0x40}, make([]byte, 32)...)

	var b buffer
	b.addByte(4)
	b.addUint(1_700_000_000, 4)
	b.addByte(byte(PubKeyEdDSA))
	b.addByte(byte(len(curveOID)))
	b.addBytes(curveOID)
	b.addMPI(point)

	pk, err := parsePublicKeyBody(b.Bytes(), TagPublicKey)
	require.NoError(t, err)
	require.Equal(t, PubKeyEdDSA, pk.PubKeyAlgo)
	require.Equal(t, curveOID, pk.CurveOID)
	require.Equal(t, point, pk.MPIs[0].Bytes())
	require.Nil(t, pk.KDFParams)
}
