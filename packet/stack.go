package packet

import (
	"hash"
	"io"
)

// Layer is one pluggable byte-source in the reader stack (spec section
// 4.B / 9): "a trait/interface with one method pull(dst, n) plus a
// destructor". The concrete layers here (memory, io, decompress,
// hash-tap, partial-body) implement this; armor decoding and
// decryption happen outside the stack (armor.Decode, openpgp.Decrypt).
type Layer interface {
	// Pull fills dst completely or returns an error; short reads are a
	// bug per spec section 4.B, never a signal.
	Pull(dst []byte) error
}

// Destroyer is implemented by layers that hold resources (cipher
// contexts, decompressor handles) needing release on Pop.
type Destroyer interface {
	Destroy()
}

// Stack is a LIFO stack of reader Layers, the "reader stack" of spec
// section 4.B. The topmost layer services the Parser's reads; a layer may
// call StackedLimitedRead to pull from the layer below it as
// substrate without recursing into itself.
type Stack struct {
	layers []Layer
}

// Push installs layer as the new top of the stack.
func (s *Stack) Push(layer Layer) {
	s.layers = append(s.layers, layer)
}

// Pop destroys and removes the top layer.
func (s *Stack) Pop() {
	if len(s.layers) == 0 {
		return
	}
	top := s.layers[len(s.layers)-1]
	if d, ok := top.(Destroyer); ok {
		d.Destroy()
	}
	s.layers = s.layers[:len(s.layers)-1]
}

// Top returns the current top layer, or nil if the stack is empty.
func (s *Stack) Top() Layer {
	if len(s.layers) == 0 {
		return nil
	}
	return s.layers[len(s.layers)-1]
}

// Below returns the layer directly beneath the top, or nil.
func (s *Stack) Below() Layer {
	if len(s.layers) < 2 {
		return nil
	}
	return s.layers[len(s.layers)-2]
}

// Depth reports how many layers are pushed.
func (s *Stack) Depth() int { return len(s.layers) }

// LimitedRead pulls exactly n bytes from the top layer, updating
// region's bookkeeping. It refuses to cross a determinate region
// boundary (ErrPacketConsumed) per spec section 4.B/4.C.
func (s *Stack) LimitedRead(dst []byte, r *region) error {
	n := len(dst)
	if err := r.accept(n); err != nil {
		return err
	}
	top := s.Top()
	if top == nil {
		return newError(KindIO, "EOF", "no reader layer installed", nil)
	}
	if err := top.Pull(dst); err != nil {
		return err
	}
	return nil
}

// StackedLimitedRead pulls n bytes from the layer below the current
// top — used when a layer (e.g. the decompressor) needs substrate
// bytes without recursing into itself.
func (s *Stack) StackedLimitedRead(dst []byte) error {
	below := s.Below()
	if below == nil {
		return newError(KindIO, "EOF", "no substrate layer below top", nil)
	}
	return below.Pull(dst)
}

// belowReader adapts StackedLimitedRead into an io.Reader for a layer
// that needs to read its own substrate (the layer beneath wherever it
// ends up on the stack) without resolving back through Top() — which,
// once the layer itself is pushed, would be itself.
type belowReader struct{ stack *Stack }

func (b *belowReader) Read(dst []byte) (int, error) {
	if err := b.stack.StackedLimitedRead(dst); err != nil {
		return 0, err
	}
	return len(dst), nil
}

// memoryLayer synthesizes bytes from an in-memory slice.
type memoryLayer struct {
	data []byte
	pos  int
}

// NewMemoryLayer wraps a byte slice as a reader Layer.
func NewMemoryLayer(data []byte) Layer {
	return &memoryLayer{data: data}
}

func (m *memoryLayer) Pull(dst []byte) error {
	if m.pos+len(dst) > len(m.data) {
		return newError(KindIO, "EOF", "memory layer exhausted", io.ErrUnexpectedEOF)
	}
	copy(dst, m.data[m.pos:m.pos+len(dst)])
	m.pos += len(dst)
	return nil
}

// ioLayer adapts any io.Reader (file, socket) into a Layer.
type ioLayer struct {
	r io.Reader
}

// NewIOLayer wraps an io.Reader as a reader Layer.
func NewIOLayer(r io.Reader) Layer {
	return &ioLayer{r: r}
}

func (l *ioLayer) Pull(dst []byte) error {
	if _, err := io.ReadFull(l.r, dst); err != nil {
		return newError(KindIO, "EOF", "reading from source", err)
	}
	return nil
}

// hashTapLayer mirrors bytes pulled through it into zero or more
// active hash.Hash contexts, before passing them up. This is the
// concrete mechanism behind the "accumulate" flag on spec section
// 3's reader-layer record.
type hashTapLayer struct {
	below  Layer
	hashes []hash.Hash
}

// NewHashTapLayer creates a layer that streams every byte pulled
// through it into each of hashes, in addition to returning it.
func NewHashTapLayer(below Layer, hashes ...hash.Hash) Layer {
	return &hashTapLayer{below: below, hashes: hashes}
}

func (h *hashTapLayer) Pull(dst []byte) error {
	if err := h.below.Pull(dst); err != nil {
		return err
	}
	for _, hh := range h.hashes {
		hh.Write(dst)
	}
	return nil
}

// AddHash registers an additional active hash context on this tap.
func (h *hashTapLayer) AddHash(hh hash.Hash) {
	h.hashes = append(h.hashes, hh)
}

// partialBodyLayer transparently stitches together a new-format
// partial-body-length packet's chunks into one continuous byte
// stream, per spec section 4.D. It reads the next chunk's length
// prefix itself once the current chunk is exhausted.
type partialBodyLayer struct {
	below     Layer
	raw       io.Reader // underlying byte source for reading length octets between chunks
	remaining uint64
	final     bool
}

// NewPartialBodyLayer wraps a raw substrate reader, given the first
// partial chunk's already-decoded length.
func NewPartialBodyLayer(raw io.Reader, firstChunkLen uint64) Layer {
	return &partialBodyLayer{below: NewIOLayer(raw), raw: raw, remaining: firstChunkLen}
}

func (p *partialBodyLayer) Pull(dst []byte) error {
	out := dst
	for len(out) > 0 {
		if p.remaining == 0 {
			if p.final {
				return newError(KindIO, "EOF", "partial-body stream exhausted", io.EOF)
			}
			length, indeterminate, err := readNewLength(p.raw)
			if err != nil {
				return err
			}
			p.remaining = length
			p.final = !indeterminate
		}
		n := len(out)
		if uint64(n) > p.remaining {
			n = int(p.remaining)
		}
		if err := p.below.Pull(out[:n]); err != nil {
			return err
		}
		p.remaining -= uint64(n)
		out = out[n:]
	}
	return nil
}
