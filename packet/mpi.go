package packet

import (
	"encoding/binary"
	"io"
	"math/big"
)

// MPI is a multi-precision integer as used throughout OpenPGP packet
// bodies: a 2-byte bit-length prefix followed by ceil(bits/8)
// big-endian bytes with no leading zero byte in the magnitude.
type MPI struct {
	bytes    []byte
	bitLen   int
}

// NewMPI wraps a big.Int as an MPI.
func NewMPI(v *big.Int) *MPI {
	b := v.Bytes()
	return &MPI{bytes: b, bitLen: v.BitLen()}
}

// Int returns the MPI's value as a big.Int.
func (m *MPI) Int() *big.Int {
	return new(big.Int).SetBytes(m.bytes)
}

// Bytes returns the stripped big-endian magnitude.
func (m *MPI) Bytes() []byte { return m.bytes }

// BitLen returns the exact bit length recorded in the 2-byte prefix.
func (m *MPI) BitLen() int { return m.bitLen }

// Encode appends this MPI's wire encoding to dst.
func (m *MPI) Encode(dst []byte) []byte {
	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(m.bitLen))
	dst = append(dst, hdr[:]...)
	return append(dst, m.bytes...)
}

// readMPI reads one MPI from r: 2-byte bit-length then the magnitude.
func readMPI(r io.Reader) (*MPI, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, newError(KindIO, "MPI", "reading MPI length", err)
	}
	bits := int(binary.BigEndian.Uint16(hdr[:]))
	numBytes := (bits + 7) / 8
	buf := make([]byte, numBytes)
	if numBytes > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, newError(KindIO, "MPI", "reading MPI body", err)
		}
	}
	return &MPI{bytes: buf, bitLen: bits}, nil
}

// mpiEncode returns the wire encoding of a raw big-endian magnitude,
// for callers that hold a []byte rather than a big.Int. Mirrors the
// openpgp package's own mpiEncode helper (openpgp/wire.go).
func mpiEncode(magnitude []byte) []byte {
	mag := stripLeadingZeros(magnitude)
	var out []byte
	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(bitLen(mag)))
	out = append(out, hdr[:]...)
	return append(out, mag...)
}

// readOneMPI reads exactly one MPI from the front of data, returning
// the remaining tail. Used for ECC public-key bodies, which follow
// their curve OID with a single MPI point rather than an
// algorithm-length run of them.
func readOneMPI(data []byte) (*MPI, []byte, error) {
	if len(data) < 2 {
		return nil, nil, newError(KindMalformed, "MPI", "truncated MPI length", nil)
	}
	bits := int(binary.BigEndian.Uint16(data[:2]))
	numBytes := (bits + 7) / 8
	data = data[2:]
	if len(data) < numBytes {
		return nil, nil, newError(KindMalformed, "MPI", "truncated MPI body", nil)
	}
	return &MPI{bytes: data[:numBytes], bitLen: bits}, data[numBytes:], nil
}

// mpiDecode reads one MPI from the front of data, zero-padding the
// magnitude on the left to exactly width bytes (used for fixed-width
// key material such as Ed25519's 32-byte seed). It returns the
// decoded value and the remaining tail of data.
func mpiDecode(data []byte, width int) (value, tail []byte) {
	if len(data) < 2 {
		return nil, nil
	}
	bits := int(binary.BigEndian.Uint16(data[:2]))
	numBytes := (bits + 7) / 8
	data = data[2:]
	if len(data) < numBytes {
		return nil, nil
	}
	raw := data[:numBytes]
	tail = data[numBytes:]
	if numBytes > width {
		return nil, nil
	}
	value = make([]byte, width)
	copy(value[width-numBytes:], raw)
	return value, tail
}
