package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegionAcceptAndExhausted(t *testing.T) {
	r := regionInit(nil, 10, false)
	require.False(t, r.exhausted())
	require.NoError(t, r.accept(6))
	require.Equal(t, int64(4), r.remaining())
	require.NoError(t, r.accept(4))
	require.True(t, r.exhausted())
}

func TestRegionRejectsCrossingBoundary(t *testing.T) {
	r := regionInit(nil, 4, false)
	require.Error(t, r.accept(5))
}

func TestRegionIndeterminateAlwaysExhausted(t *testing.T) {
	r := regionInit(nil, 0, true)
	require.Equal(t, int64(-1), r.remaining())
	require.True(t, r.exhausted())
	require.NoError(t, r.accept(1000))
}
