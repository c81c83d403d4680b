package packet

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// decompressLayer wraps a streaming decompressor as a reader Layer
// (component J), pulling its compressed substrate via
// StackedLimitedRead rather than recursing into itself, per spec
// section 4.J. Per the spec's Open Question resolution (SPEC_FULL.md:
// "fail-closed"), region exhaustion and decompressor EOF must
// coincide exactly; any mismatch is ErrBadCompression.
type decompressLayer struct {
	stack  *Stack
	region *region
	src    *stackSubstrateReader
	dr     io.ReadCloser
	atEOF  bool
}

// stackSubstrateReader adapts Stack.StackedLimitedRead into an
// io.Reader the stdlib/klauspost decompressors can consume.
type stackSubstrateReader struct {
	stack  *Stack
	region *region
}

func (s *stackSubstrateReader) Read(p []byte) (int, error) {
	if s.region.remaining() == 0 && !s.region.indeterminate {
		return 0, io.EOF
	}
	n := len(p)
	if !s.region.indeterminate {
		if rem := s.region.remaining(); int64(n) > rem {
			n = int(rem)
		}
		if n == 0 {
			return 0, io.EOF
		}
	}
	// StackedLimitedRead itself performs no region bookkeeping (it
	// exists to reach the substrate below the current top without
	// re-entering it); do that bookkeeping here instead, so the
	// compressed packet's region tracks actual substrate consumption
	// and VerifyEndOfStream's remaining()==0 check means something.
	if !s.region.indeterminate {
		if err := s.region.accept(n); err != nil {
			return 0, err
		}
	}
	if err := s.stack.StackedLimitedRead(p[:n]); err != nil {
		if n == 0 {
			return 0, io.EOF
		}
		return 0, err
	}
	return n, nil
}

// NewDecompressLayer pushes a decompression layer over the substrate
// directly beneath the current stack top, selecting raw DEFLATE or
// zlib-wrapped DEFLATE per algo.
func NewDecompressLayer(stack *Stack, r *region, algo CompressionAlgorithm) (Layer, error) {
	src := &stackSubstrateReader{stack: stack, region: r}
	var dr io.ReadCloser
	var err error
	switch algo {
	case CompressionZIP:
		dr = flate.NewReader(src)
	case CompressionZLIB:
		dr, err = zlib.NewReader(src)
		if err != nil {
			return nil, newError(KindBadCompression, "ZIP", "opening zlib stream", err)
		}
	default:
		return nil, newError(KindUnsupportedAlg, "ZIP", "unsupported compression algorithm %d", nil, algo)
	}
	return &decompressLayer{stack: stack, region: r, src: src, dr: dr}, nil
}

func (d *decompressLayer) Pull(dst []byte) error {
	n, err := io.ReadFull(d.dr, dst)
	if err == nil {
		return nil
	}
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		d.atEOF = true
		if n == len(dst) {
			return nil
		}
		return newError(KindBadCompression, "ZIP", "decompressed stream ended early", err)
	}
	return newError(KindBadCompression, "ZIP", "decompressing", err)
}

// Destroy closes the decompressor. It does not check the fail-closed
// coincidence rule; VerifyEndOfStream does that.
func (d *decompressLayer) Destroy() {
	d.dr.Close()
}

// VerifyEndOfStream reports whether the region and decompressor ended
// together, per the Open Question resolution. Call after the parser
// believes it has consumed the compressed packet's logical contents.
func (d *decompressLayer) VerifyEndOfStream() error {
	var probe [1]byte
	_, err := io.ReadFull(d.dr, probe[:])
	decompressorDone := err == io.EOF || err == io.ErrUnexpectedEOF
	regionDone := d.region.indeterminate || d.region.remaining() == 0
	if decompressorDone != regionDone {
		return ErrBadCompression
	}
	return nil
}

// compressWriter buffers an entire payload and deflates it once on
// Finish, per spec section 4.J's writer half ("buffers the entire
// payload, deflates once").
type compressWriter struct {
	algo CompressionAlgorithm
	buf  bytes.Buffer
}

// NewCompressWriter starts buffering a compressed packet's payload.
func NewCompressWriter(algo CompressionAlgorithm) *compressWriter {
	return &compressWriter{algo: algo}
}

func (w *compressWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// Finish compresses the buffered payload and returns the full tag-8
// packet body (algorithm byte + compressed bytes), ready for makePacket.
func (w *compressWriter) Finish() ([]byte, error) {
	var out bytes.Buffer
	out.WriteByte(byte(w.algo))
	switch w.algo {
	case CompressionZIP:
		fw, err := flate.NewWriter(&out, flate.DefaultCompression)
		if err != nil {
			return nil, newError(KindBadCompression, "ZIP", "creating flate writer", err)
		}
		if _, err := fw.Write(w.buf.Bytes()); err != nil {
			return nil, newError(KindBadCompression, "ZIP", "deflating", err)
		}
		if err := fw.Close(); err != nil {
			return nil, newError(KindBadCompression, "ZIP", "closing flate writer", err)
		}
	case CompressionZLIB:
		zw := zlib.NewWriter(&out)
		if _, err := zw.Write(w.buf.Bytes()); err != nil {
			return nil, newError(KindBadCompression, "ZIP", "deflating", err)
		}
		if err := zw.Close(); err != nil {
			return nil, newError(KindBadCompression, "ZIP", "closing zlib writer", err)
		}
	case CompressionNone:
		out.Write(w.buf.Bytes())
	default:
		return nil, newError(KindUnsupportedAlg, "ZIP", "unsupported compression algorithm %d", nil, w.algo)
	}
	return out.Bytes(), nil
}
