package packet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStackLimitedReadAndBoundary(t *testing.T) {
	var s Stack
	s.Push(NewMemoryLayer([]byte("hello world")))
	r := regionInit(nil, 5, false)

	buf := make([]byte, 5)
	require.NoError(t, s.LimitedRead(buf, r))
	require.Equal(t, "hello", string(buf))
	require.True(t, r.exhausted())

	require.Error(t, s.LimitedRead(buf, r))
}

func TestStackedLimitedReadUsesLayerBelow(t *testing.T) {
	var s Stack
	s.Push(NewMemoryLayer([]byte("substrate")))
	s.Push(NewMemoryLayer([]byte("top")))

	buf := make([]byte, 4)
	require.NoError(t, s.StackedLimitedRead(buf))
	require.Equal(t, "subs", string(buf))
}

func TestPartialBodyLayerStitchesChunks(t *testing.T) {
	var raw bytes.Buffer
	raw.Write([]byte("abcd"))       // first chunk, length already known (4)
	raw.Write(encodeNewLength(3))   // next chunk length prefix
	raw.Write([]byte("efg"))        // final (determinate) chunk

	layer := NewPartialBodyLayer(&raw, 4)
	out := make([]byte, 7)
	require.NoError(t, layer.Pull(out))
	require.Equal(t, "abcdefg", string(out))
}
