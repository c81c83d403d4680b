package packet

import (
	"bytes"
	"compress/flate"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressWriterFinishZIPProducesValidDeflateStream(t *testing.T) {
	w := NewCompressWriter(CompressionZIP)
	_, err := w.Write([]byte("the quick brown fox jumps over the lazy dog"))
	require.NoError(t, err)

	out, err := w.Finish()
	require.NoError(t, err)
	require.Equal(t, byte(CompressionZIP), out[0])

	fr := flate.NewReader(bytes.NewReader(out[1:]))
	defer fr.Close()
	decoded, err := io.ReadAll(fr)
	require.NoError(t, err)
	require.Equal(t, "the quick brown fox jumps over the lazy dog", string(decoded))
}

func TestCompressWriterFinishNoneIsPassthrough(t *testing.T) {
	w := NewCompressWriter(CompressionNone)
	_, err := w.Write([]byte("payload"))
	require.NoError(t, err)

	out, err := w.Finish()
	require.NoError(t, err)
	require.Equal(t, byte(CompressionNone), out[0])
	require.Equal(t, "payload", string(out[1:]))
}

func TestDecompressLayerRoundTripsCompressWriterOutput(t *testing.T) {
	w := NewCompressWriter(CompressionZIP)
	_, err := w.Write([]byte("round trip payload"))
	require.NoError(t, err)
	packetBody, err := w.Finish()
	require.NoError(t, err)

	var s Stack
	s.Push(NewMemoryLayer(packetBody[1:])) // algorithm byte already consumed by the parser
	r := regionInit(nil, uint64(len(packetBody)-1), false)

	layer, err := NewDecompressLayer(&s, r, CompressionZIP)
	require.NoError(t, err)
	s.Push(layer) // StackedLimitedRead pulls from the layer below the current top
	defer layer.(*decompressLayer).Destroy()

	out := make([]byte, len("round trip payload"))
	require.NoError(t, layer.(*decompressLayer).Pull(out))
	require.Equal(t, "round trip payload", string(out))
	require.NoError(t, layer.(*decompressLayer).VerifyEndOfStream())
}

func TestDecompressLayerUnsupportedAlgorithm(t *testing.T) {
	var s Stack
	s.Push(NewMemoryLayer(nil))
	r := regionInit(nil, 0, false)
	_, err := NewDecompressLayer(&s, r, CompressionAlgorithm(99))
	require.Error(t, err)
}
