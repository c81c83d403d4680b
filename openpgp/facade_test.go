package openpgp

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"nullprogram.com/x/openpgp/armor"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	k := freshKey(t)
	msg := []byte("the eagle flies at midnight")

	armored, err := Sign(k, bytes.NewReader(msg))
	require.NoError(t, err)
	require.Contains(t, string(armored), "BEGIN PGP SIGNATURE")

	sig, err := ParseSignature(armored)
	require.NoError(t, err)

	pub, err := ParsePublicKey(k.PubPacket())
	require.NoError(t, err)

	require.NoError(t, Verify(pub, sig, bytes.NewReader(msg)))
}

func TestVerifyRejectsTamperedData(t *testing.T) {
	k := freshKey(t)
	msg := []byte("the eagle flies at midnight")

	armored, err := Sign(k, bytes.NewReader(msg))
	require.NoError(t, err)

	sig, err := ParseSignature(armored)
	require.NoError(t, err)
	pub, err := ParsePublicKey(k.PubPacket())
	require.NoError(t, err)

	err = Verify(pub, sig, bytes.NewReader([]byte("the eagle flies at noon")))
	require.Error(t, err)
}

func TestDearmorRoundTrip(t *testing.T) {
	k := freshKey(t)
	armored, err := Sign(k, bytes.NewReader([]byte("payload")))
	require.NoError(t, err)

	block, err := Dearmor(armored)
	require.NoError(t, err)
	require.Equal(t, armor.TypeSignature, block.Type)
}

func TestClearsignVerifyRoundTrip(t *testing.T) {
	k := freshKey(t)
	text := "line one\nline two with trailing space   \n-dash line\n"

	rc, err := Clearsign(k, bytes.NewReader([]byte(text)))
	require.NoError(t, err)
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	pub, err := ParsePublicKey(k.PubPacket())
	require.NoError(t, err)

	recovered, err := VerifyClearsigned(pub, out)
	require.NoError(t, err)
	require.Contains(t, recovered, "line one")
	require.Contains(t, recovered, "dash line")
}
