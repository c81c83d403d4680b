package packet

import "encoding/binary"

// buffer is the growable byte buffer of spec section 4.A: a triple of
// (bytes, length, allocated) with length <= allocated, grown
// geometrically. Unlike bytes.Buffer it exposes addMPI and makePacket,
// which need to know the buffer's write position to patch a header in
// place after the fact — the same trick openpgp/signkey.go's Packet()
// uses by writing fields at fixed offsets and patching packet[1]
// afterward.
type buffer struct {
	data []byte
}

func newBuffer(initial int) *buffer {
	return &buffer{data: make([]byte, 0, initial)}
}

// pad ensures capacity for n more bytes, doubling as needed.
func (b *buffer) pad(n int) {
	need := len(b.data) + n
	if cap(b.data) >= need {
		return
	}
	grown := cap(b.data) * 2
	if grown < need {
		grown = need
	}
	nd := make([]byte, len(b.data), grown)
	copy(nd, b.data)
	b.data = nd
}

func (b *buffer) addBytes(src []byte) {
	b.pad(len(src))
	b.data = append(b.data, src...)
}

func (b *buffer) addByte(v byte) {
	b.pad(1)
	b.data = append(b.data, v)
}

// addUint adds a big-endian integer of the given byte width (1, 2 or 4).
func (b *buffer) addUint(v uint32, width int) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.addBytes(tmp[4-width:])
}

// addMPI appends a multi-precision integer: a 2-byte bit-length prefix
// followed by the stripped big-endian magnitude, per the GLOSSARY.
func (b *buffer) addMPI(magnitude []byte) {
	mag := stripLeadingZeros(magnitude)
	bits := bitLen(mag)
	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(bits))
	b.addBytes(hdr[:])
	b.addBytes(mag)
}

func stripLeadingZeros(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}

func bitLen(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	n := (len(b) - 1) * 8
	top := b[0]
	for top != 0 {
		n++
		top >>= 1
	}
	return n
}

// makePacket wraps the buffer's current contents with a packet tag and
// length header, moving the existing bytes forward to make room, per
// spec section 4.A. It always emits the shortest valid new-format
// header for a determinate length.
func (b *buffer) makePacket(tag Tag) []byte {
	body := b.data
	hdr := encodeNewHeader(tag, len(body))
	out := make([]byte, 0, len(hdr)+len(body))
	out = append(out, hdr...)
	out = append(out, body...)
	return out
}

// Bytes returns the buffer's current contents.
func (b *buffer) Bytes() []byte { return b.data }

// Len returns the number of bytes currently held.
func (b *buffer) Len() int { return len(b.data) }

// release returns the buffer to its initial (empty) state and drops
// its reference to the backing bytes.
func (b *buffer) release() {
	b.data = nil
}
