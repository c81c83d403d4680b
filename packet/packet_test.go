package packet

import (
	"bytes"
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// collectContent runs a Parser over data and returns every Content
// value it dispatched via EventContent, in order.
func collectContent(t *testing.T, data []byte, configure func(*Parser)) []Content {
	t.Helper()
	p := NewParser()
	p.SetSource(bytes.NewReader(data))
	var got []Content
	p.SetCallback(func(ev Event) Disposition {
		if ev.Kind == EventContent {
			got = append(got, ev.Content)
		}
		return Continue
	})
	if configure != nil {
		configure(p)
	}
	require.NoError(t, p.Parse())
	return got
}

func TestParserDecompressesCompressedLiteralByteExact(t *testing.T) {
	for _, algo := range []CompressionAlgorithm{CompressionZIP, CompressionZLIB} {
		var buf bytes.Buffer
		ci := NewCreateInfo(&buf)
		env := NewEnvelope(ci).Compress(algo)
		sink := env.sink()
		want := []byte("the byte sequence must survive compression exactly")
		require.NoError(t, sink.WriteLiteral(&LiteralPacket{Format: LiteralBinary, Body: want}))
		require.NoError(t, env.Finish())

		content := collectContent(t, buf.Bytes(), nil)
		require.Len(t, content, 2)

		comp, ok := content[0].(CompressedPacket)
		require.True(t, ok)
		require.Equal(t, algo, comp.Algo)

		lit, ok := content[1].(*LiteralPacket)
		require.True(t, ok)
		require.Equal(t, want, lit.Body)
	}
}

func TestParserDecompressesNestedSignedLiteral(t *testing.T) {
	var buf bytes.Buffer
	ci := NewCreateInfo(&buf)
	env := NewEnvelope(ci).Compress(CompressionZIP)
	sink := env.sink()

	sig := &SignaturePacket{
		Version:      4,
		SigType:      SigBinary,
		PubKeyAlgo:   PubKeyRSAEncryptSign,
		HashAlgo:     HashSHA256,
		LeftHashBits: [2]byte{0x01, 0x02},
		MPIs:         []*MPI{NewMPI(big.NewInt(3))},
	}
	require.NoError(t, sink.WriteSignature(sig))
	require.NoError(t, sink.WriteLiteral(&LiteralPacket{Format: LiteralBinary, Body: []byte("signed payload")}))
	require.NoError(t, env.Finish())

	content := collectContent(t, buf.Bytes(), nil)
	require.Len(t, content, 3)
	_, ok := content[0].(CompressedPacket)
	require.True(t, ok)
	gotSig, ok := content[1].(*SignaturePacket)
	require.True(t, ok)
	require.Equal(t, SigBinary, gotSig.SigType)
	gotLit, ok := content[2].(*LiteralPacket)
	require.True(t, ok)
	require.Equal(t, "signed payload", string(gotLit.Body))
}

func TestRegionReaderHashesOnlyLiteralPayload(t *testing.T) {
	lp := &LiteralPacket{
		Format:   LiteralBinary,
		Filename: "secret-name.txt",
		Time:     1_700_000_000,
		Body:     []byte("only these bytes should be hashed"),
	}
	var buf bytes.Buffer
	require.NoError(t, NewCreateInfo(&buf).WriteLiteral(lp))

	h := NewHash(HashSHA256)
	content := collectContent(t, buf.Bytes(), func(p *Parser) { p.AddHash(h) })
	require.Len(t, content, 1)

	want := sha256.Sum256(lp.Body)
	require.Equal(t, want[:], h.Sum(nil))
}

func TestPartialBodyLayerPoppedBeforeNextPacket(t *testing.T) {
	// Hand-build a new-format literal packet split across two
	// partial-body chunks, followed immediately by a user-ID packet.
	// If the partial-body stitching layer is popped only when Parse
	// returns (rather than once this one packet finishes), the user-ID
	// packet's header is read through the stale layer and corrupted.
	litBody := append([]byte{byte(LiteralBinary)}, 0, 0, 0, 0, 0) // format, namelen=0, 4-byte time=0
	litBody = append(litBody, []byte("hi")...)                    // payload

	var raw bytes.Buffer
	raw.WriteByte(0xc0 | byte(TagLiteral))
	raw.WriteByte(encodePartialLength(0)) // first chunk: 1 byte
	raw.Write(litBody[:1])
	raw.Write(encodeNewLength(len(litBody) - 1)) // final chunk: remaining bytes
	raw.Write(litBody[1:])

	raw.WriteByte(0xc0 | byte(TagUserID))
	raw.WriteByte(3)
	raw.WriteString("bob")

	content := collectContent(t, raw.Bytes(), nil)
	require.Len(t, content, 2)

	lit, ok := content[0].(*LiteralPacket)
	require.True(t, ok)
	require.Equal(t, "hi", string(lit.Body))

	uid, ok := content[1].(UserIDPacket)
	require.True(t, ok)
	require.Equal(t, "bob", string(uid.ID))
}
